package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
)

func guard(t *testing.T, mw echo.MiddlewareFunc, u *domain.User) (int, bool) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	if u != nil {
		c.Set(UserKey, u)
	}

	called := false
	handler := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec.Code, called
}

func TestRequireAdmin(t *testing.T) {
	if code, called := guard(t, RequireAdmin(), &domain.User{Admin: true}); !called || code != http.StatusOK {
		t.Fatalf("admin should pass, got %d", code)
	}
	if code, called := guard(t, RequireAdmin(), &domain.User{Author: true}); called || code != http.StatusForbidden {
		t.Fatalf("author should be forbidden, got %d", code)
	}
	if code, called := guard(t, RequireAdmin(), nil); called || code != http.StatusForbidden {
		t.Fatalf("anonymous should be forbidden, got %d", code)
	}
}

func TestRequireStaff(t *testing.T) {
	if _, called := guard(t, RequireStaff(), &domain.User{Author: true}); !called {
		t.Fatalf("author should pass")
	}
	if _, called := guard(t, RequireStaff(), &domain.User{Admin: true}); !called {
		t.Fatalf("admin should pass")
	}
	if code, called := guard(t, RequireStaff(), &domain.User{}); called || code != http.StatusForbidden {
		t.Fatalf("plain user should be forbidden, got %d", code)
	}
}

func TestRequireConfirmed(t *testing.T) {
	if _, called := guard(t, RequireConfirmed(), &domain.User{ConfirmedEmail: true}); !called {
		t.Fatalf("confirmed user should pass")
	}
	if code, _ := guard(t, RequireConfirmed(), &domain.User{}); code != http.StatusForbidden {
		t.Fatalf("unconfirmed user should be forbidden, got %d", code)
	}
}
