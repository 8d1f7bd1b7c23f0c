package service

import (
	"context"
	"fmt"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
	"github.com/sirpyerre/blogkeeper/internal/core/ports"
)

// loadAggregate reads a post and its ordered comment/reply tree.
func loadAggregate(ctx context.Context, repos ports.Repositories, postID string) (*domain.Aggregate, error) {
	post, err := repos.Posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	comments, err := repos.Comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	agg := &domain.Aggregate{Post: post, Threads: make([]*domain.Thread, 0, len(comments))}
	for _, c := range comments {
		replies, err := repos.Replies.ListByComment(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("list replies: %w", err)
		}
		agg.Threads = append(agg.Threads, &domain.Thread{Comment: c, Replies: replies})
	}
	return agg, nil
}

// removeThread deletes a comment, its replies and every notification linked to them.
func removeThread(ctx context.Context, repos ports.Repositories, t *domain.Thread) error {
	linked := make([]string, 0, len(t.Replies)+1)
	linked = append(linked, t.Comment.ID)
	for _, r := range t.Replies {
		if err := repos.Replies.Delete(ctx, r.ID); err != nil {
			return fmt.Errorf("delete reply %s: %w", r.ID, err)
		}
		linked = append(linked, r.ID)
	}
	if err := repos.Comments.Delete(ctx, t.Comment.ID); err != nil {
		return fmt.Errorf("delete comment %s: %w", t.Comment.ID, err)
	}
	if _, err := repos.Notifications.DeleteByParents(ctx, linked); err != nil {
		return fmt.Errorf("delete linked notifications: %w", err)
	}
	return nil
}

// removeAggregate deletes a post and its whole tree.
func removeAggregate(ctx context.Context, repos ports.Repositories, agg *domain.Aggregate) error {
	for _, t := range agg.Threads {
		if err := removeThread(ctx, repos, t); err != nil {
			return err
		}
	}
	if err := repos.Posts.Delete(ctx, agg.Post.ID); err != nil {
		return fmt.Errorf("delete post %s: %w", agg.Post.ID, err)
	}
	return nil
}
