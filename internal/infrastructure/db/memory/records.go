package memory

import (
	"context"
	"fmt"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
)

var errNotificationNotFound = fmt.Errorf("notification %w", domain.ErrAggregateNotFound)

type archiveRepo struct{ s *Store }

func (r *archiveRepo) Create(ctx context.Context, a *domain.ArchivedAggregate) error {
	defer r.s.lock(ctx)()
	r.s.data.archives.put(r.s.data.next(), a.ID, copyArchive(*a))
	return nil
}

func (r *archiveRepo) FindByID(ctx context.Context, id string) (*domain.ArchivedAggregate, error) {
	defer r.s.lock(ctx)()
	rec, ok := r.s.data.archives[id]
	if !ok {
		return nil, domain.ErrArchiveNotFound
	}
	a := copyArchive(rec.val)
	return &a, nil
}

func (r *archiveRepo) List(ctx context.Context) ([]*domain.ArchivedAggregate, error) {
	defer r.s.lock(ctx)()
	rows := r.s.data.archives.sorted()
	out := make([]*domain.ArchivedAggregate, len(rows))
	for i := range rows {
		a := copyArchive(rows[i])
		out[i] = &a
	}
	return out, nil
}

func (r *archiveRepo) Replace(ctx context.Context, a *domain.ArchivedAggregate) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.archives[a.ID]; !ok {
		return domain.ErrArchiveNotFound
	}
	r.s.data.archives.put(0, a.ID, copyArchive(*a))
	return nil
}

func (r *archiveRepo) Delete(ctx context.Context, id string) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.archives[id]; !ok {
		return domain.ErrArchiveNotFound
	}
	delete(r.s.data.archives, id)
	return nil
}

type apiKeyRepo struct{ s *Store }

func (r *apiKeyRepo) Create(ctx context.Context, k *domain.APIKey) error {
	defer r.s.lock(ctx)()
	for _, rec := range r.s.data.apiKeys {
		if rec.val.OwnerID == k.OwnerID {
			return domain.ErrDuplicateRequest
		}
	}
	r.s.data.apiKeys.put(r.s.data.next(), k.ID, copyAPIKey(*k))
	return nil
}

func (r *apiKeyRepo) find(match func(domain.APIKey) bool) (*domain.APIKey, error) {
	for _, rec := range r.s.data.apiKeys {
		if match(rec.val) {
			k := copyAPIKey(rec.val)
			return &k, nil
		}
	}
	return nil, domain.ErrAPIKeyNotFound
}

func (r *apiKeyRepo) FindByOwner(ctx context.Context, ownerID string) (*domain.APIKey, error) {
	defer r.s.lock(ctx)()
	return r.find(func(k domain.APIKey) bool { return k.OwnerID == ownerID })
}

func (r *apiKeyRepo) FindByHash(ctx context.Context, hash string) (*domain.APIKey, error) {
	defer r.s.lock(ctx)()
	return r.find(func(k domain.APIKey) bool { return k.KeyHash == hash })
}

func (r *apiKeyRepo) List(ctx context.Context) ([]*domain.APIKey, error) {
	defer r.s.lock(ctx)()
	rows := r.s.data.apiKeys.sorted()
	out := make([]*domain.APIKey, len(rows))
	for i := range rows {
		k := copyAPIKey(rows[i])
		out[i] = &k
	}
	return out, nil
}

func (r *apiKeyRepo) update(ctx context.Context, id string, fn func(*domain.APIKey)) error {
	defer r.s.lock(ctx)()
	rec, ok := r.s.data.apiKeys[id]
	if !ok {
		return domain.ErrAPIKeyNotFound
	}
	k := copyAPIKey(rec.val)
	fn(&k)
	r.s.data.apiKeys.put(0, id, k)
	return nil
}

func (r *apiKeyRepo) SetBlocked(ctx context.Context, id string, blocked bool) error {
	return r.update(ctx, id, func(k *domain.APIKey) { k.Blocked = blocked })
}

func (r *apiKeyRepo) IncrementUsage(ctx context.Context, id, endpoint string) error {
	return r.update(ctx, id, func(k *domain.APIKey) { k.Usage[endpoint]++ })
}

func (r *apiKeyRepo) Delete(ctx context.Context, id string) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.apiKeys[id]; !ok {
		return domain.ErrAPIKeyNotFound
	}
	delete(r.s.data.apiKeys, id)
	return nil
}

type reportRepo struct{ s *Store }

func (r *reportRepo) Create(ctx context.Context, rep *domain.DeletionReport) error {
	defer r.s.lock(ctx)()
	for _, rec := range r.s.data.reports {
		if rec.val.OwnerID == rep.OwnerID {
			return domain.ErrDuplicateRequest
		}
	}
	r.s.data.reports.put(r.s.data.next(), rep.ID, *rep)
	return nil
}

func (r *reportRepo) FindByID(ctx context.Context, id string) (*domain.DeletionReport, error) {
	defer r.s.lock(ctx)()
	rec, ok := r.s.data.reports[id]
	if !ok {
		return nil, domain.ErrReportNotFound
	}
	rep := rec.val
	return &rep, nil
}

func (r *reportRepo) FindByOwner(ctx context.Context, ownerID string) (*domain.DeletionReport, error) {
	defer r.s.lock(ctx)()
	for _, rec := range r.s.data.reports {
		if rec.val.OwnerID == ownerID {
			rep := rec.val
			return &rep, nil
		}
	}
	return nil, domain.ErrReportNotFound
}

func (r *reportRepo) List(ctx context.Context) ([]*domain.DeletionReport, error) {
	defer r.s.lock(ctx)()
	return pointers(r.s.data.reports.sorted()), nil
}

func (r *reportRepo) Delete(ctx context.Context, id string) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.reports[id]; !ok {
		return domain.ErrReportNotFound
	}
	delete(r.s.data.reports, id)
	return nil
}

type notificationRepo struct{ s *Store }

func (r *notificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	defer r.s.lock(ctx)()
	r.s.data.notifications.put(r.s.data.next(), n.ID, *n)
	return nil
}

func (r *notificationRepo) ListByRecipient(ctx context.Context, recipientID string) ([]*domain.Notification, error) {
	defer r.s.lock(ctx)()
	var out []*domain.Notification
	for _, n := range r.s.data.notifications.sorted() {
		if n.RecipientID == recipientID {
			n := n
			out = append(out, &n)
		}
	}
	return out, nil
}

func (r *notificationRepo) List(ctx context.Context) ([]*domain.Notification, error) {
	defer r.s.lock(ctx)()
	return pointers(r.s.data.notifications.sorted()), nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, recipientID, id string) error {
	defer r.s.lock(ctx)()
	rec, ok := r.s.data.notifications[id]
	if !ok || rec.val.RecipientID != recipientID {
		return errNotificationNotFound
	}
	rec.val.Read = true
	r.s.data.notifications[id] = rec
	return nil
}

func (r *notificationRepo) Delete(ctx context.Context, id string) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.notifications[id]; !ok {
		return errNotificationNotFound
	}
	delete(r.s.data.notifications, id)
	return nil
}

func (r *notificationRepo) DeleteByParents(ctx context.Context, parentIDs []string) (int, error) {
	defer r.s.lock(ctx)()
	parents := make(map[string]struct{}, len(parentIDs))
	for _, id := range parentIDs {
		parents[id] = struct{}{}
	}
	removed := 0
	for id, rec := range r.s.data.notifications {
		if rec.val.Category.ParentKind() == domain.ParentNone {
			continue
		}
		if _, ok := parents[rec.val.ParentID]; ok {
			delete(r.s.data.notifications, id)
			removed++
		}
	}
	return removed, nil
}

type settingsRepo struct{ s *Store }

// Get returns the zero settings when nothing has been saved yet.
func (r *settingsRepo) Get(ctx context.Context) (*domain.SiteSettings, error) {
	defer r.s.lock(ctx)()
	st := r.s.data.settings
	return &st, nil
}

func (r *settingsRepo) Save(ctx context.Context, st *domain.SiteSettings) error {
	defer r.s.lock(ctx)()
	r.s.data.settings = *st
	return nil
}
