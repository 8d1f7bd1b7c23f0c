package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/sirpyerre/blogkeeper/internal/core/ports"
)

const defaultTimeout = 10 * time.Second

const (
	collUsers         = "users"
	collPosts         = "posts"
	collComments      = "comments"
	collReplies       = "replies"
	collArchives      = "archived_posts"
	collAPIKeys       = "api_keys"
	collReports       = "deletion_reports"
	collNotifications = "notifications"
	collSettings      = "settings"
)

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	return client, db, nil
}

// Store groups the repositories over one database. Transactions need a
// replica set or sharded cluster.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewStore(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{client: client, db: db}
}

// Repositories returns every repository backed by s.
func (s *Store) Repositories() ports.Repositories {
	return ports.Repositories{
		Tx:            s,
		Users:         &UserRepository{col: s.db.Collection(collUsers)},
		Posts:         &PostRepository{col: s.db.Collection(collPosts)},
		Comments:      &CommentRepository{col: s.db.Collection(collComments)},
		Replies:       &ReplyRepository{col: s.db.Collection(collReplies)},
		Archives:      &ArchiveRepository{col: s.db.Collection(collArchives)},
		APIKeys:       &APIKeyRepository{col: s.db.Collection(collAPIKeys)},
		Reports:       &ReportRepository{col: s.db.Collection(collReports)},
		Notifications: &NotificationRepository{col: s.db.Collection(collNotifications)},
		Settings:      &SettingsRepository{col: s.db.Collection(collSettings)},
	}
}

// WithinTx runs fn inside a multi-document transaction. The driver may call
// fn again on a transient error. A ctx that already carries a session joins it.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	return err
}

// Ping reports whether the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// EnsureIndexes creates the lookup and uniqueness indexes the repositories rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	unique := options.Index().SetUnique(true)
	indexes := map[string][]mongo.IndexModel{
		collUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
		collComments: {
			{Keys: bson.D{{Key: "post_id", Value: 1}, {Key: "position", Value: 1}}},
		},
		collReplies: {
			{Keys: bson.D{{Key: "comment_id", Value: 1}, {Key: "position", Value: 1}}},
		},
		collAPIKeys: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "key_hash", Value: 1}}, Options: unique},
		},
		collReports: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}}, Options: unique},
		},
		collNotifications: {
			{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "date", Value: 1}}},
			{Keys: bson.D{{Key: "parent_id", Value: 1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
