package ports

import (
	"context"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
)

// Transactor runs fn as one atomic unit against the store. Repository calls
// made with the ctx passed to fn participate in the transaction; if fn
// returns an error nothing it wrote is kept.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository persists identities.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindByEmail matches the address exactly (case-sensitive).
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id string) error
	CountAdmins(ctx context.Context) (int64, error)
}

// PostRepository persists live posts.
type PostRepository interface {
	Create(ctx context.Context, p *domain.Post) error
	FindByID(ctx context.Context, id string) (*domain.Post, error)
	List(ctx context.Context) ([]*domain.Post, error)
	Update(ctx context.Context, p *domain.Post) error
	Delete(ctx context.Context, id string) error
}

// CommentRepository persists comments. ListByPost returns them in Position order.
type CommentRepository interface {
	Create(ctx context.Context, c *domain.Comment) error
	FindByID(ctx context.Context, id string) (*domain.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]*domain.Comment, error)
	List(ctx context.Context) ([]*domain.Comment, error)
	Delete(ctx context.Context, id string) error
}

// ReplyRepository persists replies. ListByComment returns them in Position order.
type ReplyRepository interface {
	Create(ctx context.Context, r *domain.Reply) error
	FindByID(ctx context.Context, id string) (*domain.Reply, error)
	ListByComment(ctx context.Context, commentID string) ([]*domain.Reply, error)
	List(ctx context.Context) ([]*domain.Reply, error)
	Delete(ctx context.Context, id string) error
}

// ArchiveRepository persists archived aggregates.
type ArchiveRepository interface {
	Create(ctx context.Context, a *domain.ArchivedAggregate) error
	FindByID(ctx context.Context, id string) (*domain.ArchivedAggregate, error)
	List(ctx context.Context) ([]*domain.ArchivedAggregate, error)
	// Replace overwrites the stored snapshot; used only to prune orphaned nodes.
	Replace(ctx context.Context, a *domain.ArchivedAggregate) error
	Delete(ctx context.Context, id string) error
}

// APIKeyRepository persists API keys.
type APIKeyRepository interface {
	Create(ctx context.Context, k *domain.APIKey) error
	FindByOwner(ctx context.Context, ownerID string) (*domain.APIKey, error)
	FindByHash(ctx context.Context, hash string) (*domain.APIKey, error)
	List(ctx context.Context) ([]*domain.APIKey, error)
	SetBlocked(ctx context.Context, id string, blocked bool) error
	IncrementUsage(ctx context.Context, id, endpoint string) error
	Delete(ctx context.Context, id string) error
}

// DeletionReportRepository persists pending account-deletion requests.
type DeletionReportRepository interface {
	Create(ctx context.Context, r *domain.DeletionReport) error
	FindByID(ctx context.Context, id string) (*domain.DeletionReport, error)
	FindByOwner(ctx context.Context, ownerID string) (*domain.DeletionReport, error)
	List(ctx context.Context) ([]*domain.DeletionReport, error)
	Delete(ctx context.Context, id string) error
}

// NotificationRepository persists notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByRecipient(ctx context.Context, recipientID string) ([]*domain.Notification, error)
	List(ctx context.Context) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, recipientID, id string) error
	Delete(ctx context.Context, id string) error
	// DeleteByParents removes notifications linked to any of the given comment or reply ids.
	DeleteByParents(ctx context.Context, parentIDs []string) (int, error)
}

// SettingsRepository persists the single site settings document.
type SettingsRepository interface {
	Get(ctx context.Context) (*domain.SiteSettings, error)
	Save(ctx context.Context, s *domain.SiteSettings) error
}

// Repositories bundles every repository with the unit of work that spans them.
type Repositories struct {
	Tx            Transactor
	Users         UserRepository
	Posts         PostRepository
	Comments      CommentRepository
	Replies       ReplyRepository
	Archives      ArchiveRepository
	APIKeys       APIKeyRepository
	Reports       DeletionReportRepository
	Notifications NotificationRepository
	Settings      SettingsRepository
}
