package ports

import (
	"context"
	"time"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
)

// TokenService issues and verifies purpose-scoped capability tokens.
type TokenService interface {
	Issue(purpose domain.Purpose, subject string) (string, error)
	Verify(token string, purpose domain.Purpose, maxAge time.Duration) (string, error)
}

// Outcome is the result of a workflow step. When NotifyErr is set the
// mutation described by Applied has still been committed.
type Outcome struct {
	Applied   bool
	Link      string
	NotifyErr error
}

// ScrubReport counts removed records per entity kind.
type ScrubReport struct {
	Archives      int `json:"archives"`
	ArchiveNodes  int `json:"archive_nodes"`
	Posts         int `json:"posts"`
	Comments      int `json:"comments"`
	Replies       int `json:"replies"`
	APIKeys       int `json:"api_keys"`
	Reports       int `json:"deletion_reports"`
	Notifications int `json:"notifications"`
}

// Total returns the number of records removed across all kinds.
func (r ScrubReport) Total() int {
	return r.Archives + r.ArchiveNodes + r.Posts + r.Comments + r.Replies +
		r.APIKeys + r.Reports + r.Notifications
}

// Scrubber removes records whose owner no longer resolves.
type Scrubber interface {
	Scrub(ctx context.Context) (ScrubReport, error)
}

// ArchiveEngine moves aggregates between the live store and archived snapshots.
type ArchiveEngine interface {
	Archive(ctx context.Context, postID string) (*domain.ArchivedAggregate, error)
	Restore(ctx context.Context, archiveID string) (*domain.Aggregate, error)
	Purge(ctx context.Context, archiveID string) error
	Get(ctx context.Context, archiveID string) (*domain.ArchivedAggregate, error)
	List(ctx context.Context) ([]*domain.ArchivedAggregate, error)
}

// PostInput carries the fields needed to publish a post.
type PostInput struct {
	Title    string
	Subtitle string
	Color    string
	ImgURL   string
	Body     string
}

// PostUpdate carries the fields of an edit. Nil fields are left unchanged.
type PostUpdate struct {
	Title    *string
	Subtitle *string
	Color    *string
	ImgURL   *string
	Body     *string
}

// ContentService manages live posts, comments and replies.
type ContentService interface {
	CreatePost(ctx context.Context, actor *domain.User, in PostInput) (*domain.Post, error)
	UpdatePost(ctx context.Context, actor *domain.User, postID string, in PostUpdate) (*domain.Post, error)
	AddComment(ctx context.Context, actor *domain.User, postID, body string) (*domain.Comment, error)
	AddReply(ctx context.Context, actor *domain.User, commentID, body string) (*domain.Reply, error)
	DeleteComment(ctx context.Context, actor *domain.User, commentID string) error
	GetAggregate(ctx context.Context, postID string) (*domain.Aggregate, error)
	ListPosts(ctx context.Context) ([]*domain.Post, error)
}

// IdentityService manages accounts and sessions.
type IdentityService interface {
	Register(ctx context.Context, email, name, password string) (*domain.User, Outcome, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	Delete(ctx context.Context, id string) (ScrubReport, error)
}

// EmailWorkflow confirms registered addresses.
type EmailWorkflow interface {
	Resend(ctx context.Context, u *domain.User) (Outcome, error)
	Confirm(ctx context.Context, token string) (*domain.User, error)
}

// RoleWorkflow grants and revokes roles.
type RoleWorkflow interface {
	RequestChange(ctx context.Context, actor *domain.User, targetID string, role domain.Role, grant bool) (Outcome, error)
	ConfirmChange(ctx context.Context, actor *domain.User, targetID string, role domain.Role, grant bool, token string) (Outcome, error)
}

// DeletionWorkflow handles account deletion, reviewed or admin-initiated.
type DeletionWorkflow interface {
	RequestDeletion(ctx context.Context, actor *domain.User, reason, explanation string) (*domain.DeletionReport, Outcome, error)
	Approve(ctx context.Context, actor *domain.User, reportID, token string) (Outcome, error)
	Reject(ctx context.Context, actor *domain.User, reportID, token string) (Outcome, error)
	PendingReports(ctx context.Context, actor *domain.User) ([]*domain.DeletionReport, error)
	RequestUserDeletion(ctx context.Context, actor *domain.User, targetID string) (Outcome, error)
	ConfirmUserDeletion(ctx context.Context, actor *domain.User, targetID, token string) (Outcome, error)
}

// SupportWorkflow rotates the support contact address.
type SupportWorkflow interface {
	RequestRotation(ctx context.Context, actor *domain.User, address string) (Outcome, error)
	Confirm(ctx context.Context, token string) (*domain.SiteSettings, error)
	SupportAddress(ctx context.Context) (string, bool, error)
}

// PasswordWorkflow resets forgotten passwords.
type PasswordWorkflow interface {
	RequestReset(ctx context.Context, email string) (Outcome, error)
	Reset(ctx context.Context, token, password string) error
}

// APIKeyService manages API credentials.
type APIKeyService interface {
	Issue(ctx context.Context, actor *domain.User) (string, *domain.APIKey, error)
	Get(ctx context.Context, actor *domain.User) (*domain.APIKey, error)
	Revoke(ctx context.Context, actor *domain.User) error
	SetBlocked(ctx context.Context, actor *domain.User, ownerID string, blocked bool) (Outcome, error)
	Authenticate(ctx context.Context, plain, endpoint string) (*domain.User, error)
}

// NotificationService exposes in-app notifications.
type NotificationService interface {
	List(ctx context.Context, actor *domain.User) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, actor *domain.User, id string) error
}
