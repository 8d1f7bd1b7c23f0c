package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/blogkeeper/internal/api/middleware"
	"github.com/sirpyerre/blogkeeper/internal/core/domain"
	"github.com/sirpyerre/blogkeeper/internal/core/ports"
)

type stubArchive struct {
	archives map[string]*domain.ArchivedAggregate
	archived []string
	restored []string
}

func (s *stubArchive) Archive(_ context.Context, postID string) (*domain.ArchivedAggregate, error) {
	s.archived = append(s.archived, postID)
	return &domain.ArchivedAggregate{ID: "a-" + postID, OriginalPostID: postID}, nil
}

func (s *stubArchive) Restore(_ context.Context, id string) (*domain.Aggregate, error) {
	s.restored = append(s.restored, id)
	return &domain.Aggregate{
		Post:    &domain.Post{ID: "p-new"},
		Threads: []*domain.Thread{{Comment: &domain.Comment{ID: "c"}, Replies: []*domain.Reply{{ID: "r1"}, {ID: "r2"}}}},
	}, nil
}

func (s *stubArchive) Purge(context.Context, string) error { return nil }

func (s *stubArchive) Get(_ context.Context, id string) (*domain.ArchivedAggregate, error) {
	a, ok := s.archives[id]
	if !ok {
		return nil, domain.ErrArchiveNotFound
	}
	return a, nil
}

func (s *stubArchive) List(context.Context) ([]*domain.ArchivedAggregate, error) {
	out := make([]*domain.ArchivedAggregate, 0, len(s.archives))
	for _, id := range []string{"a-1", "a-2"} {
		if a, ok := s.archives[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

type stubContent struct {
	ports.ContentService
	posts map[string]*domain.Post
}

func (s *stubContent) GetAggregate(_ context.Context, id string) (*domain.Aggregate, error) {
	p, ok := s.posts[id]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	return &domain.Aggregate{Post: p}, nil
}

func archivedBy(id, email string) *domain.ArchivedAggregate {
	return &domain.ArchivedAggregate{ID: id, Snapshot: domain.PostSnapshot{AuthorID: "gone", AuthorEmail: email}}
}

func asUser(e *echo.Echo, method, target string, u *domain.User, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(method, target, nil), rec)
	c.Set(middleware.UserKey, u)
	if len(params) == 2 {
		c.SetParamNames(params[0])
		c.SetParamValues(params[1])
	}
	return c, rec
}

func TestArchiveHandler_ListFiltersByOwnerEmail(t *testing.T) {
	engine := &stubArchive{archives: map[string]*domain.ArchivedAggregate{
		"a-1": archivedBy("a-1", "alice@example.com"),
		"a-2": archivedBy("a-2", "bob@example.com"),
	}}
	handler := NewArchiveHandler(engine)
	e := newEcho()

	c, rec := asUser(e, http.MethodGet, "/v1/archives", &domain.User{ID: "u-new", Email: "alice@example.com"})
	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var got []domain.ArchivedAggregate
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a-1" {
		t.Fatalf("expected only alice's archive, got %+v", got)
	}

	c, rec = asUser(e, http.MethodGet, "/v1/archives", &domain.User{ID: "admin", Admin: true})
	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if len(got) != 2 {
		t.Fatalf("admin should see every archive, got %d", len(got))
	}
}

func TestArchiveHandler_Restore(t *testing.T) {
	engine := &stubArchive{archives: map[string]*domain.ArchivedAggregate{
		"a-1": archivedBy("a-1", "alice@example.com"),
	}}
	handler := NewArchiveHandler(engine)
	e := newEcho()

	c, _ := asUser(e, http.MethodPost, "/", &domain.User{ID: "u-2", Email: "mallory@example.com"}, "id", "a-1")
	if err := handler.Restore(c); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if len(engine.restored) != 0 {
		t.Fatalf("restore ran for a non-owner")
	}

	c, rec := asUser(e, http.MethodPost, "/", &domain.User{ID: "u-new", Email: "alice@example.com"}, "id", "a-1")
	if err := handler.Restore(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	resp := decode(t, rec)
	if resp["comments"] != float64(1) || resp["replies"] != float64(2) {
		t.Fatalf("unexpected counts: %+v", resp)
	}

	c, _ = asUser(e, http.MethodPost, "/", &domain.User{Admin: true}, "id", "missing")
	if err := handler.Restore(c); !errors.Is(err, domain.ErrAggregateNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPostHandler_DeleteChecksOwnership(t *testing.T) {
	engine := &stubArchive{}
	content := &stubContent{posts: map[string]*domain.Post{"p-1": {ID: "p-1", AuthorID: "author"}}}
	handler := NewPostHandler(content, engine)
	e := newEcho()

	c, _ := asUser(e, http.MethodDelete, "/", &domain.User{ID: "someone"}, "id", "p-1")
	if err := handler.Delete(c); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	c, rec := asUser(e, http.MethodDelete, "/", &domain.User{ID: "author"}, "id", "p-1")
	if err := handler.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || len(engine.archived) != 1 {
		t.Fatalf("expected archive, got %d %v", rec.Code, engine.archived)
	}

	c, _ = asUser(e, http.MethodDelete, "/", &domain.User{Admin: true}, "id", "p-404")
	if err := handler.Delete(c); !errors.Is(err, domain.ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}
