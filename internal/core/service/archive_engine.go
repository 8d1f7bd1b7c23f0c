package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
	"github.com/sirpyerre/blogkeeper/internal/core/ports"
	"github.com/sirpyerre/blogkeeper/internal/metrics"
)

const defaultLockTTL = 30 * time.Second

// ArchiveEngine moves a post aggregate into an immutable snapshot and back.
// Each operation is applied as a single transaction. Permission checks are
// the caller's responsibility.
type ArchiveEngine struct {
	repos    ports.Repositories
	locker   ports.Locker
	lockTTL  time.Duration
	validate *validator.Validate
	now      func() time.Time
	newID    func() string
	log      zerolog.Logger
}

func NewArchiveEngine(repos ports.Repositories, locker ports.Locker, lockTTL time.Duration, log zerolog.Logger, opts ...Option) *ArchiveEngine {
	if locker == nil {
		locker = ports.NopLocker{}
	}
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	o := buildOptions(opts)
	return &ArchiveEngine{
		repos:    repos,
		locker:   locker,
		lockTTL:  lockTTL,
		validate: validator.New(),
		now:      o.now,
		newID:    o.newID,
		log:      log,
	}
}

// Archive snapshots the post and removes it, with all comments, replies and
// linked notifications, from the live store.
func (e *ArchiveEngine) Archive(ctx context.Context, postID string) (*domain.ArchivedAggregate, error) {
	release, err := e.locker.Acquire(ctx, "post:"+postID, e.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	defer release()

	var archived *domain.ArchivedAggregate
	err = e.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		agg, err := loadAggregate(ctx, e.repos, postID)
		if err != nil {
			return err
		}
		snap, err := e.snapshot(ctx, agg)
		if err != nil {
			return err
		}
		archived = &domain.ArchivedAggregate{
			ID:             e.newID(),
			OriginalPostID: agg.Post.ID,
			ArchivedAt:     e.now(),
			Snapshot:       snap,
		}
		if err := e.repos.Archives.Create(ctx, archived); err != nil {
			return fmt.Errorf("store archive: %w", err)
		}
		return removeAggregate(ctx, e.repos, agg)
	})
	e.record("archive", err)
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}

	comments, replies := archived.Snapshot.Counts()
	e.log.Info().
		Str("post_id", postID).
		Str("archive_id", archived.ID).
		Int("comments", comments).
		Int("replies", replies).
		Msg("post archived")
	return archived, nil
}

// Restore recreates the live aggregate under new ids, resolving every author
// by email against the current users. If any author no longer resolves the
// whole restore is aborted with domain.ErrAuthorUnresolvable.
func (e *ArchiveEngine) Restore(ctx context.Context, archiveID string) (*domain.Aggregate, error) {
	release, err := e.locker.Acquire(ctx, "archive:"+archiveID, e.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	defer release()

	var agg *domain.Aggregate
	err = e.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		archived, err := e.repos.Archives.FindByID(ctx, archiveID)
		if err != nil {
			return err
		}
		if err := e.validate.Struct(archived.Snapshot); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidSnapshot, err)
		}

		authors, err := e.resolveAuthors(ctx, &archived.Snapshot)
		if err != nil {
			return err
		}
		agg = e.rebuild(&archived.Snapshot, authors)
		if err := e.persist(ctx, agg); err != nil {
			return err
		}
		return e.repos.Archives.Delete(ctx, archived.ID)
	})
	e.record("restore", err)
	if err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}

	e.log.Info().
		Str("archive_id", archiveID).
		Str("post_id", agg.Post.ID).
		Msg("post restored")
	return agg, nil
}

// Purge permanently deletes an archived aggregate.
func (e *ArchiveEngine) Purge(ctx context.Context, archiveID string) error {
	err := e.repos.Archives.Delete(ctx, archiveID)
	e.record("purge", err)
	if err != nil {
		return fmt.Errorf("purge: %w", err)
	}
	e.log.Info().Str("archive_id", archiveID).Msg("archive purged")
	return nil
}

func (e *ArchiveEngine) Get(ctx context.Context, archiveID string) (*domain.ArchivedAggregate, error) {
	return e.repos.Archives.FindByID(ctx, archiveID)
}

func (e *ArchiveEngine) List(ctx context.Context) ([]*domain.ArchivedAggregate, error) {
	return e.repos.Archives.List(ctx)
}

func (e *ArchiveEngine) snapshot(ctx context.Context, agg *domain.Aggregate) (domain.PostSnapshot, error) {
	users := newUserCache(e.repos.Users)

	author, err := users.ref(ctx, agg.Post.AuthorID)
	if err != nil {
		return domain.PostSnapshot{}, err
	}
	snap := domain.PostSnapshot{
		PostTitle:   agg.Post.Title,
		AuthorID:    author.ID,
		AuthorEmail: author.Email,
		AuthorName:  author.Name,
		Subtitle:    agg.Post.Subtitle,
		Color:       agg.Post.Color,
		ImgURL:      agg.Post.ImgURL,
		Body:        agg.Post.Body,
		Date:        agg.Post.Date,
		Comments:    make([]domain.CommentSnapshot, 0, len(agg.Threads)),
	}

	for _, t := range agg.Threads {
		ca, err := users.ref(ctx, t.Comment.AuthorID)
		if err != nil {
			return domain.PostSnapshot{}, err
		}
		cs := domain.CommentSnapshot{
			AuthorID:    ca.ID,
			AuthorEmail: ca.Email,
			AuthorName:  ca.Name,
			CommentID:   t.Comment.ID,
			Comment:     t.Comment.Body,
			Date:        t.Comment.Date,
			Replies:     make([]domain.ReplySnapshot, 0, len(t.Replies)),
		}
		for _, r := range t.Replies {
			ra, err := users.ref(ctx, r.AuthorID)
			if err != nil {
				return domain.PostSnapshot{}, err
			}
			cs.Replies = append(cs.Replies, domain.ReplySnapshot{
				AuthorID:    ra.ID,
				AuthorEmail: ra.Email,
				AuthorName:  ra.Name,
				CommentID:   t.Comment.ID,
				Reply:       r.Body,
				Date:        r.Date,
			})
		}
		snap.Comments = append(snap.Comments, cs)
	}
	return snap, nil
}

// resolveAuthors maps every author email in the snapshot to a live user.
func (e *ArchiveEngine) resolveAuthors(ctx context.Context, snap *domain.PostSnapshot) (map[string]*domain.User, error) {
	users := newUserCache(e.repos.Users)
	emails := []string{snap.AuthorEmail}
	for _, c := range snap.Comments {
		emails = append(emails, c.AuthorEmail)
		for _, r := range c.Replies {
			emails = append(emails, r.AuthorEmail)
		}
	}
	for _, email := range emails {
		if _, err := users.byEmail(ctx, email); err != nil {
			return nil, err
		}
	}
	return users.emails, nil
}

func (e *ArchiveEngine) rebuild(snap *domain.PostSnapshot, authors map[string]*domain.User) *domain.Aggregate {
	post := &domain.Post{
		ID:        e.newID(),
		AuthorID:  authors[snap.AuthorEmail].ID,
		Title:     snap.PostTitle,
		Subtitle:  snap.Subtitle,
		Color:     snap.Color,
		ImgURL:    snap.ImgURL,
		Body:      snap.Body,
		Date:      snap.Date,
		CreatedAt: e.now(),
	}
	agg := &domain.Aggregate{Post: post, Threads: make([]*domain.Thread, 0, len(snap.Comments))}
	for i, cs := range snap.Comments {
		comment := &domain.Comment{
			ID:       e.newID(),
			PostID:   post.ID,
			AuthorID: authors[cs.AuthorEmail].ID,
			Body:     cs.Comment,
			Date:     cs.Date,
			Position: i,
		}
		thread := &domain.Thread{Comment: comment, Replies: make([]*domain.Reply, 0, len(cs.Replies))}
		for j, rs := range cs.Replies {
			thread.Replies = append(thread.Replies, &domain.Reply{
				ID:        e.newID(),
				PostID:    post.ID,
				CommentID: comment.ID,
				AuthorID:  authors[rs.AuthorEmail].ID,
				Body:      rs.Reply,
				Date:      rs.Date,
				Position:  j,
			})
		}
		agg.Threads = append(agg.Threads, thread)
	}
	return agg
}

func (e *ArchiveEngine) persist(ctx context.Context, agg *domain.Aggregate) error {
	if err := e.repos.Posts.Create(ctx, agg.Post); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	for _, t := range agg.Threads {
		if err := e.repos.Comments.Create(ctx, t.Comment); err != nil {
			return fmt.Errorf("create comment: %w", err)
		}
		for _, r := range t.Replies {
			if err := e.repos.Replies.Create(ctx, r); err != nil {
				return fmt.Errorf("create reply: %w", err)
			}
		}
	}
	return nil
}

func (e *ArchiveEngine) record(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.ArchiveOperationsTotal.WithLabelValues(op, result).Inc()
}

// userCache memoises user lookups for the duration of one operation. Missing
// users are reported as domain.ErrAuthorUnresolvable.
type userCache struct {
	repo   ports.UserRepository
	ids    map[string]*domain.User
	emails map[string]*domain.User
}

func newUserCache(repo ports.UserRepository) *userCache {
	return &userCache{
		repo:   repo,
		ids:    make(map[string]*domain.User),
		emails: make(map[string]*domain.User),
	}
}

func (c *userCache) byID(ctx context.Context, id string) (*domain.User, error) {
	if u, ok := c.ids[id]; ok {
		return u, nil
	}
	u, err := c.repo.FindByID(ctx, id)
	if err != nil {
		return nil, unresolvable(err, "id "+id)
	}
	c.ids[id] = u
	c.emails[u.Email] = u
	return u, nil
}

// ref returns the identity snapshot of the user with id.
func (c *userCache) ref(ctx context.Context, id string) (domain.AuthorRef, error) {
	u, err := c.byID(ctx, id)
	if err != nil {
		return domain.AuthorRef{}, err
	}
	return u.Ref(), nil
}

func (c *userCache) byEmail(ctx context.Context, email string) (*domain.User, error) {
	if u, ok := c.emails[email]; ok {
		return u, nil
	}
	u, err := c.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, unresolvable(err, email)
	}
	c.ids[u.ID] = u
	c.emails[email] = u
	return u, nil
}

func unresolvable(err error, who string) error {
	if errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("%w: %s", domain.ErrAuthorUnresolvable, who)
	}
	return err
}
