package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
)

var (
	errNotificationNotFound = fmt.Errorf("notification %w", domain.ErrAggregateNotFound)
	errSettingsMissing      = errors.New("settings missing")

	byArchived = bson.D{{Key: "archived_at", Value: 1}, {Key: "_id", Value: 1}}
)

type UserRepository struct{ col *mongo.Collection }

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	return insertOne(ctx, r.col, u, domain.ErrUserExists)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return findOne[domain.User](ctx, r.col, bson.M{"_id": id}, domain.ErrUserNotFound)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return findOne[domain.User](ctx, r.col, bson.M{"email": email}, domain.ErrUserNotFound)
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	return findAll[domain.User](ctx, r.col, bson.M{}, byCreated)
}

func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	return replaceOne(ctx, r.col, u.ID, u, domain.ErrUserNotFound, domain.ErrUserExists)
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.col, id, domain.ErrUserNotFound)
}

func (r *UserRepository) CountAdmins(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return r.col.CountDocuments(ctx, bson.M{"admin": true})
}

type PostRepository struct{ col *mongo.Collection }

func (r *PostRepository) Create(ctx context.Context, p *domain.Post) error {
	return insertOne(ctx, r.col, p, nil)
}

func (r *PostRepository) FindByID(ctx context.Context, id string) (*domain.Post, error) {
	return findOne[domain.Post](ctx, r.col, bson.M{"_id": id}, domain.ErrPostNotFound)
}

func (r *PostRepository) List(ctx context.Context) ([]*domain.Post, error) {
	return findAll[domain.Post](ctx, r.col, bson.M{}, byCreated)
}

func (r *PostRepository) Update(ctx context.Context, p *domain.Post) error {
	return replaceOne(ctx, r.col, p.ID, p, domain.ErrPostNotFound, nil)
}

func (r *PostRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.col, id, domain.ErrPostNotFound)
}

type CommentRepository struct{ col *mongo.Collection }

func (r *CommentRepository) Create(ctx context.Context, c *domain.Comment) error {
	return insertOne(ctx, r.col, c, nil)
}

func (r *CommentRepository) FindByID(ctx context.Context, id string) (*domain.Comment, error) {
	return findOne[domain.Comment](ctx, r.col, bson.M{"_id": id}, domain.ErrCommentNotFound)
}

func (r *CommentRepository) ListByPost(ctx context.Context, postID string) ([]*domain.Comment, error) {
	return findAll[domain.Comment](ctx, r.col, bson.M{"post_id": postID}, byPosition)
}

func (r *CommentRepository) List(ctx context.Context) ([]*domain.Comment, error) {
	return findAll[domain.Comment](ctx, r.col, bson.M{}, byDate)
}

func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.col, id, domain.ErrCommentNotFound)
}

type ReplyRepository struct{ col *mongo.Collection }

func (r *ReplyRepository) Create(ctx context.Context, rp *domain.Reply) error {
	return insertOne(ctx, r.col, rp, nil)
}

func (r *ReplyRepository) FindByID(ctx context.Context, id string) (*domain.Reply, error) {
	return findOne[domain.Reply](ctx, r.col, bson.M{"_id": id}, domain.ErrReplyNotFound)
}

func (r *ReplyRepository) ListByComment(ctx context.Context, commentID string) ([]*domain.Reply, error) {
	return findAll[domain.Reply](ctx, r.col, bson.M{"comment_id": commentID}, byPosition)
}

func (r *ReplyRepository) List(ctx context.Context) ([]*domain.Reply, error) {
	return findAll[domain.Reply](ctx, r.col, bson.M{}, byDate)
}

func (r *ReplyRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.col, id, domain.ErrReplyNotFound)
}

type ArchiveRepository struct{ col *mongo.Collection }

func (r *ArchiveRepository) Create(ctx context.Context, a *domain.ArchivedAggregate) error {
	return insertOne(ctx, r.col, a, nil)
}

func (r *ArchiveRepository) FindByID(ctx context.Context, id string) (*domain.ArchivedAggregate, error) {
	return findOne[domain.ArchivedAggregate](ctx, r.col, bson.M{"_id": id}, domain.ErrArchiveNotFound)
}

func (r *ArchiveRepository) List(ctx context.Context) ([]*domain.ArchivedAggregate, error) {
	return findAll[domain.ArchivedAggregate](ctx, r.col, bson.M{}, byArchived)
}

func (r *ArchiveRepository) Replace(ctx context.Context, a *domain.ArchivedAggregate) error {
	return replaceOne(ctx, r.col, a.ID, a, domain.ErrArchiveNotFound, nil)
}

func (r *ArchiveRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.col, id, domain.ErrArchiveNotFound)
}

type APIKeyRepository struct{ col *mongo.Collection }

// usageField maps an endpoint to a usage sub-document key. Dots and dollar
// signs are not allowed in field names.
var usageField = strings.NewReplacer(".", "_", "$", "_")

func (r *APIKeyRepository) Create(ctx context.Context, k *domain.APIKey) error {
	return insertOne(ctx, r.col, k, domain.ErrDuplicateRequest)
}

func (r *APIKeyRepository) FindByOwner(ctx context.Context, ownerID string) (*domain.APIKey, error) {
	return findOne[domain.APIKey](ctx, r.col, bson.M{"owner_id": ownerID}, domain.ErrAPIKeyNotFound)
}

func (r *APIKeyRepository) FindByHash(ctx context.Context, hash string) (*domain.APIKey, error) {
	return findOne[domain.APIKey](ctx, r.col, bson.M{"key_hash": hash}, domain.ErrAPIKeyNotFound)
}

func (r *APIKeyRepository) List(ctx context.Context) ([]*domain.APIKey, error) {
	return findAll[domain.APIKey](ctx, r.col, bson.M{}, byCreated)
}

func (r *APIKeyRepository) SetBlocked(ctx context.Context, id string, blocked bool) error {
	return updateByID(ctx, r.col, id, bson.M{"$set": bson.M{"blocked": blocked}}, domain.ErrAPIKeyNotFound)
}

func (r *APIKeyRepository) IncrementUsage(ctx context.Context, id, endpoint string) error {
	field := "usage." + usageField.Replace(endpoint)
	return updateByID(ctx, r.col, id, bson.M{"$inc": bson.M{field: 1}}, domain.ErrAPIKeyNotFound)
}

func (r *APIKeyRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.col, id, domain.ErrAPIKeyNotFound)
}

type ReportRepository struct{ col *mongo.Collection }

func (r *ReportRepository) Create(ctx context.Context, rep *domain.DeletionReport) error {
	return insertOne(ctx, r.col, rep, domain.ErrDuplicateRequest)
}

func (r *ReportRepository) FindByID(ctx context.Context, id string) (*domain.DeletionReport, error) {
	return findOne[domain.DeletionReport](ctx, r.col, bson.M{"_id": id}, domain.ErrReportNotFound)
}

func (r *ReportRepository) FindByOwner(ctx context.Context, ownerID string) (*domain.DeletionReport, error) {
	return findOne[domain.DeletionReport](ctx, r.col, bson.M{"owner_id": ownerID}, domain.ErrReportNotFound)
}

func (r *ReportRepository) List(ctx context.Context) ([]*domain.DeletionReport, error) {
	return findAll[domain.DeletionReport](ctx, r.col, bson.M{}, byCreated)
}

func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.col, id, domain.ErrReportNotFound)
}

type NotificationRepository struct{ col *mongo.Collection }

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	return insertOne(ctx, r.col, n, nil)
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string) ([]*domain.Notification, error) {
	return findAll[domain.Notification](ctx, r.col, bson.M{"recipient_id": recipientID}, byDate)
}

func (r *NotificationRepository) List(ctx context.Context) ([]*domain.Notification, error) {
	return findAll[domain.Notification](ctx, r.col, bson.M{}, byDate)
}

func (r *NotificationRepository) MarkRead(ctx context.Context, recipientID, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "recipient_id": recipientID},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if res.MatchedCount == 0 {
		return errNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.col, id, errNotificationNotFound)
}

func (r *NotificationRepository) DeleteByParents(ctx context.Context, parentIDs []string) (int, error) {
	if len(parentIDs) == 0 {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, bson.M{
		"parent_id": bson.M{"$in": parentIDs},
		"category":  bson.M{"$in": []domain.Category{domain.CategoryComment, domain.CategoryReply}},
	})
	if err != nil {
		return 0, fmt.Errorf("delete linked notifications: %w", err)
	}
	return int(res.DeletedCount), nil
}

const settingsID = "site"

type SettingsRepository struct{ col *mongo.Collection }

// Get returns the zero settings when nothing has been saved yet.
func (r *SettingsRepository) Get(ctx context.Context) (*domain.SiteSettings, error) {
	st, err := findOne[domain.SiteSettings](ctx, r.col, bson.M{"_id": settingsID}, errSettingsMissing)
	if errors.Is(err, errSettingsMissing) {
		return &domain.SiteSettings{}, nil
	}
	return st, err
}

func (r *SettingsRepository) Save(ctx context.Context, st *domain.SiteSettings) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": settingsID}, st, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
