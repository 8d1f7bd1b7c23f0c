package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
	"github.com/sirpyerre/blogkeeper/internal/core/ports"
)

// ContentService manages live posts and their discussion threads.
type ContentService struct {
	repos  ports.Repositories
	policy *bluemonday.Policy
	now    func() time.Time
	newID  func() string
	log    zerolog.Logger
}

func NewContentService(repos ports.Repositories, log zerolog.Logger, opts ...Option) *ContentService {
	o := buildOptions(opts)
	return &ContentService{
		repos:  repos,
		policy: bluemonday.UGCPolicy(),
		now:    o.now,
		newID:  o.newID,
		log:    log,
	}
}

func (s *ContentService) sanitize(body string) string {
	return strings.TrimSpace(s.policy.Sanitize(body))
}

// CreatePost publishes a post. Only staff (admins and authors) may publish.
func (s *ContentService) CreatePost(ctx context.Context, actor *domain.User, in ports.PostInput) (*domain.Post, error) {
	if actor == nil || !actor.IsStaff() {
		return nil, domain.ErrUnauthorized
	}
	now := s.now()
	post := &domain.Post{
		ID:        s.newID(),
		AuthorID:  actor.ID,
		Title:     strings.TrimSpace(in.Title),
		Subtitle:  strings.TrimSpace(in.Subtitle),
		Color:     in.Color,
		ImgURL:    in.ImgURL,
		Body:      s.sanitize(in.Body),
		Date:      now,
		CreatedAt: now,
	}
	if err := s.repos.Posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	s.log.Info().Str("post_id", post.ID).Str("user_id", actor.ID).Msg("post created")
	return post, nil
}

// UpdatePost edits a post in place. Only its author or an administrator may
// edit, and the post keeps its id, date and comment tree.
func (s *ContentService) UpdatePost(ctx context.Context, actor *domain.User, postID string, in ports.PostUpdate) (*domain.Post, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	var post *domain.Post
	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.repos.Posts.FindByID(ctx, postID)
		if err != nil {
			return err
		}
		if !domain.CanManage(actor, p.AuthorID) {
			return domain.ErrUnauthorized
		}
		if in.Title != nil {
			p.Title = strings.TrimSpace(*in.Title)
		}
		if in.Subtitle != nil {
			p.Subtitle = strings.TrimSpace(*in.Subtitle)
		}
		if in.Color != nil {
			p.Color = *in.Color
		}
		if in.ImgURL != nil {
			p.ImgURL = *in.ImgURL
		}
		if in.Body != nil {
			p.Body = s.sanitize(*in.Body)
		}
		if p.Title == "" || strings.TrimSpace(p.Body) == "" {
			return domain.ErrInvalidPost
		}
		if err := s.repos.Posts.Update(ctx, p); err != nil {
			return fmt.Errorf("update post: %w", err)
		}
		post = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("post_id", post.ID).Str("user_id", actor.ID).Msg("post updated")
	return post, nil
}

// AddComment appends a comment and notifies the post author.
func (s *ContentService) AddComment(ctx context.Context, actor *domain.User, postID, body string) (*domain.Comment, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	var comment *domain.Comment
	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		post, err := s.repos.Posts.FindByID(ctx, postID)
		if err != nil {
			return err
		}
		existing, err := s.repos.Comments.ListByPost(ctx, postID)
		if err != nil {
			return fmt.Errorf("list comments: %w", err)
		}
		comment = &domain.Comment{
			ID:       s.newID(),
			PostID:   post.ID,
			AuthorID: actor.ID,
			Body:     s.sanitize(body),
			Date:     s.now(),
			Position: nextCommentPosition(existing),
		}
		if err := s.repos.Comments.Create(ctx, comment); err != nil {
			return fmt.Errorf("create comment: %w", err)
		}
		if post.AuthorID == actor.ID {
			return nil
		}
		return s.notify(ctx, post.AuthorID, domain.CategoryComment, actor, comment.ID,
			fmt.Sprintf("%s commented on %q", actor.Name, post.Title))
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// AddReply appends a reply to a comment and notifies the comment author.
func (s *ContentService) AddReply(ctx context.Context, actor *domain.User, commentID, body string) (*domain.Reply, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	var reply *domain.Reply
	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		comment, err := s.repos.Comments.FindByID(ctx, commentID)
		if err != nil {
			return err
		}
		existing, err := s.repos.Replies.ListByComment(ctx, commentID)
		if err != nil {
			return fmt.Errorf("list replies: %w", err)
		}
		reply = &domain.Reply{
			ID:        s.newID(),
			PostID:    comment.PostID,
			CommentID: comment.ID,
			AuthorID:  actor.ID,
			Body:      s.sanitize(body),
			Date:      s.now(),
			Position:  nextReplyPosition(existing),
		}
		if err := s.repos.Replies.Create(ctx, reply); err != nil {
			return fmt.Errorf("create reply: %w", err)
		}
		if comment.AuthorID == actor.ID {
			return nil
		}
		return s.notify(ctx, comment.AuthorID, domain.CategoryReply, actor, reply.ID,
			fmt.Sprintf("%s replied to your comment", actor.Name))
	})
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// DeleteComment removes a comment with its replies and linked notifications.
func (s *ContentService) DeleteComment(ctx context.Context, actor *domain.User, commentID string) error {
	return s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		comment, err := s.repos.Comments.FindByID(ctx, commentID)
		if err != nil {
			return err
		}
		if !domain.CanManage(actor, comment.AuthorID) {
			return domain.ErrUnauthorized
		}
		replies, err := s.repos.Replies.ListByComment(ctx, commentID)
		if err != nil {
			return fmt.Errorf("list replies: %w", err)
		}
		return removeThread(ctx, s.repos, &domain.Thread{Comment: comment, Replies: replies})
	})
}

func (s *ContentService) GetAggregate(ctx context.Context, postID string) (*domain.Aggregate, error) {
	return loadAggregate(ctx, s.repos, postID)
}

func (s *ContentService) ListPosts(ctx context.Context) ([]*domain.Post, error) {
	return s.repos.Posts.List(ctx)
}

func (s *ContentService) notify(ctx context.Context, recipientID string, cat domain.Category, actor *domain.User, parentID, body string) error {
	n := &domain.Notification{
		ID:          s.newID(),
		RecipientID: recipientID,
		Category:    cat,
		ActorName:   actor.Name,
		ActorEmail:  actor.Email,
		Body:        body,
		ParentID:    parentID,
		Date:        s.now(),
	}
	if err := s.repos.Notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func nextCommentPosition(existing []*domain.Comment) int {
	if len(existing) == 0 {
		return 0
	}
	return existing[len(existing)-1].Position + 1
}

func nextReplyPosition(existing []*domain.Reply) int {
	if len(existing) == 0 {
		return 0
	}
	return existing[len(existing)-1].Position + 1
}
