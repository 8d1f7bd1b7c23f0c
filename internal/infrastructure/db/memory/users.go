package memory

import (
	"context"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
)

type userRepo struct{ s *Store }

func (r *userRepo) emailTaken(email, exceptID string) bool {
	for id, rec := range r.s.data.users {
		if rec.val.Email == email && id != exceptID {
			return true
		}
	}
	return false
}

func (r *userRepo) Create(ctx context.Context, u *domain.User) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.users[u.ID]; ok || r.emailTaken(u.Email, "") {
		return domain.ErrUserExists
	}
	r.s.data.users.put(r.s.data.next(), u.ID, copyUser(*u))
	return nil
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	defer r.s.lock(ctx)()
	rec, ok := r.s.data.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u := copyUser(rec.val)
	return &u, nil
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	defer r.s.lock(ctx)()
	for _, rec := range r.s.data.users {
		if rec.val.Email == email {
			u := copyUser(rec.val)
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *userRepo) List(ctx context.Context) ([]*domain.User, error) {
	defer r.s.lock(ctx)()
	rows := r.s.data.users.sorted()
	out := make([]*domain.User, len(rows))
	for i := range rows {
		u := copyUser(rows[i])
		out[i] = &u
	}
	return out, nil
}

func (r *userRepo) Update(ctx context.Context, u *domain.User) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	if r.emailTaken(u.Email, u.ID) {
		return domain.ErrUserExists
	}
	r.s.data.users.put(0, u.ID, copyUser(*u))
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id string) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.s.data.users, id)
	return nil
}

func (r *userRepo) CountAdmins(ctx context.Context) (int64, error) {
	defer r.s.lock(ctx)()
	var n int64
	for _, rec := range r.s.data.users {
		if rec.val.Admin {
			n++
		}
	}
	return n, nil
}
