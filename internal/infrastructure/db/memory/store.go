// Package memory is an in-process implementation of every repository port.
// Transactions take the store lock for their whole duration and roll back by
// restoring a copy of the data taken when they began.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
	"github.com/sirpyerre/blogkeeper/internal/core/ports"
)

type txKey struct{}

type record[T any] struct {
	seq uint64
	val T
}

// table keeps rows by id and remembers insertion order for stable listing.
type table[T any] map[string]record[T]

func (t table[T]) put(seq uint64, id string, v T) {
	if old, ok := t[id]; ok {
		seq = old.seq
	}
	t[id] = record[T]{seq: seq, val: v}
}

func (t table[T]) sorted() []T {
	recs := make([]record[T], 0, len(t))
	for _, r := range t {
		recs = append(recs, r)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })
	out := make([]T, len(recs))
	for i, r := range recs {
		out[i] = r.val
	}
	return out
}

func (t table[T]) clone(deep func(T) T) table[T] {
	c := make(table[T], len(t))
	for id, r := range t {
		if deep != nil {
			r.val = deep(r.val)
		}
		c[id] = r
	}
	return c
}

type dataset struct {
	seq           uint64
	users         table[domain.User]
	posts         table[domain.Post]
	comments      table[domain.Comment]
	replies       table[domain.Reply]
	archives      table[domain.ArchivedAggregate]
	apiKeys       table[domain.APIKey]
	reports       table[domain.DeletionReport]
	notifications table[domain.Notification]
	settings      domain.SiteSettings
}

func newDataset() *dataset {
	return &dataset{
		users:         table[domain.User]{},
		posts:         table[domain.Post]{},
		comments:      table[domain.Comment]{},
		replies:       table[domain.Reply]{},
		archives:      table[domain.ArchivedAggregate]{},
		apiKeys:       table[domain.APIKey]{},
		reports:       table[domain.DeletionReport]{},
		notifications: table[domain.Notification]{},
	}
}

func (d *dataset) next() uint64 {
	d.seq++
	return d.seq
}

func (d *dataset) clone() *dataset {
	return &dataset{
		seq:           d.seq,
		users:         d.users.clone(copyUser),
		posts:         d.posts.clone(nil),
		comments:      d.comments.clone(nil),
		replies:       d.replies.clone(nil),
		archives:      d.archives.clone(copyArchive),
		apiKeys:       d.apiKeys.clone(copyAPIKey),
		reports:       d.reports.clone(nil),
		notifications: d.notifications.clone(nil),
		settings:      d.settings,
	}
}

// Store holds all data behind a single mutex.
type Store struct {
	mu   sync.Mutex
	data *dataset
}

func New() *Store {
	return &Store{data: newDataset()}
}

// Repositories returns every repository backed by s.
func (s *Store) Repositories() ports.Repositories {
	return ports.Repositories{
		Tx:            s,
		Users:         &userRepo{s},
		Posts:         &postRepo{s},
		Comments:      &commentRepo{s},
		Replies:       &replyRepo{s},
		Archives:      &archiveRepo{s},
		APIKeys:       &apiKeyRepo{s},
		Reports:       &reportRepo{s},
		Notifications: &notificationRepo{s},
		Settings:      &settingsRepo{s},
	}
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lock takes the store mutex unless ctx already belongs to a transaction on s.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// WithinTx runs fn with exclusive access to the store. Nested calls join the
// outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := s.data.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.data = saved
		return err
	}
	return nil
}

// Ping always succeeds; it lets the store stand in for a health dependency.
func (s *Store) Ping(context.Context) error { return nil }

func copyUser(u domain.User) domain.User {
	if u.JoinDate != nil {
		j := *u.JoinDate
		u.JoinDate = &j
	}
	return u
}

func copyArchive(a domain.ArchivedAggregate) domain.ArchivedAggregate {
	comments := make([]domain.CommentSnapshot, len(a.Snapshot.Comments))
	for i, c := range a.Snapshot.Comments {
		c.Replies = append([]domain.ReplySnapshot(nil), c.Replies...)
		comments[i] = c
	}
	a.Snapshot.Comments = comments
	return a
}

func copyAPIKey(k domain.APIKey) domain.APIKey {
	usage := make(map[string]int64, len(k.Usage))
	for ep, n := range k.Usage {
		usage[ep] = n
	}
	k.Usage = usage
	return k
}
