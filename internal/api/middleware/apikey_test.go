package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
)

type stubKeys struct {
	endpoint string
	err      error
}

func (s *stubKeys) Authenticate(_ context.Context, plain, endpoint string) (*domain.User, error) {
	s.endpoint = endpoint
	if s.err != nil {
		return nil, s.err
	}
	if plain != "bk_good" {
		return nil, domain.ErrUnauthorized
	}
	return &domain.User{ID: "u-1"}, nil
}

func runAPIKey(t *testing.T, keys *stubKeys, key string) (*httptest.ResponseRecorder, *domain.User, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	if key != "" {
		req.Header.Set(APIKeyHeader, key)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/posts")

	var got *domain.User
	err := APIKey(keys)(func(c echo.Context) error {
		got = CurrentUser(c)
		return c.NoContent(http.StatusOK)
	})(c)
	return rec, got, err
}

func TestAPIKey_Valid(t *testing.T) {
	keys := &stubKeys{}
	rec, got, err := runAPIKey(t, keys, "bk_good")
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || got == nil || got.ID != "u-1" {
		t.Fatalf("expected authenticated user, got %d %+v", rec.Code, got)
	}
	if keys.endpoint != "/api/posts" {
		t.Fatalf("usage recorded against %q", keys.endpoint)
	}
}

func TestAPIKey_Rejections(t *testing.T) {
	for name, key := range map[string]string{"missing": "", "unknown": "bk_bad"} {
		t.Run(name, func(t *testing.T) {
			_, _, err := runAPIKey(t, &stubKeys{}, key)
			var he *echo.HTTPError
			if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %v", err)
			}
		})
	}
}

func TestAPIKey_BlockedPassesDomainError(t *testing.T) {
	_, _, err := runAPIKey(t, &stubKeys{err: domain.ErrAPIKeyBlocked}, "bk_good")
	if !errors.Is(err, domain.ErrAPIKeyBlocked) {
		t.Fatalf("expected ErrAPIKeyBlocked, got %v", err)
	}
}
