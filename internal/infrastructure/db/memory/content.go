package memory

import (
	"context"
	"sort"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
)

type postRepo struct{ s *Store }

func (r *postRepo) Create(ctx context.Context, p *domain.Post) error {
	defer r.s.lock(ctx)()
	r.s.data.posts.put(r.s.data.next(), p.ID, *p)
	return nil
}

func (r *postRepo) FindByID(ctx context.Context, id string) (*domain.Post, error) {
	defer r.s.lock(ctx)()
	rec, ok := r.s.data.posts[id]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	p := rec.val
	return &p, nil
}

func (r *postRepo) List(ctx context.Context) ([]*domain.Post, error) {
	defer r.s.lock(ctx)()
	return pointers(r.s.data.posts.sorted()), nil
}

func (r *postRepo) Update(ctx context.Context, p *domain.Post) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.posts[p.ID]; !ok {
		return domain.ErrPostNotFound
	}
	r.s.data.posts.put(0, p.ID, *p)
	return nil
}

func (r *postRepo) Delete(ctx context.Context, id string) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.posts[id]; !ok {
		return domain.ErrPostNotFound
	}
	delete(r.s.data.posts, id)
	return nil
}

type commentRepo struct{ s *Store }

func (r *commentRepo) Create(ctx context.Context, c *domain.Comment) error {
	defer r.s.lock(ctx)()
	r.s.data.comments.put(r.s.data.next(), c.ID, *c)
	return nil
}

func (r *commentRepo) FindByID(ctx context.Context, id string) (*domain.Comment, error) {
	defer r.s.lock(ctx)()
	rec, ok := r.s.data.comments[id]
	if !ok {
		return nil, domain.ErrCommentNotFound
	}
	c := rec.val
	return &c, nil
}

func (r *commentRepo) ListByPost(ctx context.Context, postID string) ([]*domain.Comment, error) {
	defer r.s.lock(ctx)()
	var out []*domain.Comment
	for _, c := range r.s.data.comments.sorted() {
		if c.PostID == postID {
			c := c
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *commentRepo) List(ctx context.Context) ([]*domain.Comment, error) {
	defer r.s.lock(ctx)()
	return pointers(r.s.data.comments.sorted()), nil
}

func (r *commentRepo) Delete(ctx context.Context, id string) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.comments[id]; !ok {
		return domain.ErrCommentNotFound
	}
	delete(r.s.data.comments, id)
	return nil
}

type replyRepo struct{ s *Store }

func (r *replyRepo) Create(ctx context.Context, rp *domain.Reply) error {
	defer r.s.lock(ctx)()
	r.s.data.replies.put(r.s.data.next(), rp.ID, *rp)
	return nil
}

func (r *replyRepo) FindByID(ctx context.Context, id string) (*domain.Reply, error) {
	defer r.s.lock(ctx)()
	rec, ok := r.s.data.replies[id]
	if !ok {
		return nil, domain.ErrReplyNotFound
	}
	rp := rec.val
	return &rp, nil
}

func (r *replyRepo) ListByComment(ctx context.Context, commentID string) ([]*domain.Reply, error) {
	defer r.s.lock(ctx)()
	var out []*domain.Reply
	for _, rp := range r.s.data.replies.sorted() {
		if rp.CommentID == commentID {
			rp := rp
			out = append(out, &rp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *replyRepo) List(ctx context.Context) ([]*domain.Reply, error) {
	defer r.s.lock(ctx)()
	return pointers(r.s.data.replies.sorted()), nil
}

func (r *replyRepo) Delete(ctx context.Context, id string) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.replies[id]; !ok {
		return domain.ErrReplyNotFound
	}
	delete(r.s.data.replies, id)
	return nil
}

func pointers[T any](rows []T) []*T {
	out := make([]*T, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out
}
