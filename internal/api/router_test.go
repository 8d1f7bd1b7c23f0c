package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sirpyerre/blogkeeper/internal/api/handler"
	"github.com/sirpyerre/blogkeeper/internal/api/middleware"
	"github.com/sirpyerre/blogkeeper/internal/core/domain"
	"github.com/sirpyerre/blogkeeper/internal/infrastructure/db/memory"
)

type recordingDispatcher struct {
	mu   sync.Mutex
	sent map[string][]string
}

func (d *recordingDispatcher) Send(_ context.Context, to, _, body string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sent == nil {
		d.sent = map[string][]string{}
	}
	d.sent[to] = append(d.sent[to], body)
	return nil
}

func (d *recordingDispatcher) count(to string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent[to])
}

type client struct {
	t *testing.T
	e *echo.Echo
}

func (c client) do(method, target, body, session string, header ...string) (*httptest.ResponseRecorder, map[string]any) {
	c.t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if session != "" {
		req.Header.Set("Authorization", "Bearer "+session)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	c.e.ServeHTTP(rec, req)

	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func expect(t *testing.T, rec *httptest.ResponseRecorder, code int) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("expected %d, got %d: %s", code, rec.Code, rec.Body.String())
	}
}

// localPath turns an absolute mailed link into a request target.
func localPath(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	if err != nil || u.RawQuery == "" {
		t.Fatalf("bad link %q", link)
	}
	return u.RequestURI()
}

// Only one router is built per test binary: the echo prometheus middleware
// registers its collectors globally.
func TestRouter_EndToEnd(t *testing.T) {
	store := memory.New()
	mail := &recordingDispatcher{}
	log := zerolog.Nop()

	svc := NewServices(Settings{
		JWTSecret:   "jwt-secret",
		TokenSecret: "token-secret",
		BaseURL:     "https://blog.test",
		SessionTTL:  time.Hour,
		TokenAges:   domain.DefaultTokenAges,
	}, Backends{Repos: store.Repositories(), Dispatcher: mail}, log)

	unhealthy := false
	e := NewRouter(Options{
		JWTSecret:   "jwt-secret",
		ExposeLinks: true,
		Checks: map[string]handler.Check{
			"store": store.Ping,
			"redis": func(context.Context) error {
				if unhealthy {
					return errors.New("connection refused")
				}
				return nil
			},
		},
		Log: log,
	}, svc)
	c := client{t: t, e: e}

	t.Run("health", func(t *testing.T) {
		rec, _ := c.do(http.MethodGet, "/health", "", "")
		expect(t, rec, http.StatusOK)

		rec, _ = c.do(http.MethodGet, "/health/ready", "", "")
		expect(t, rec, http.StatusOK)

		unhealthy = true
		rec, body := c.do(http.MethodGet, "/health/ready", "", "")
		unhealthy = false
		expect(t, rec, http.StatusServiceUnavailable)
		if body["status"] != "degraded" {
			t.Fatalf("expected degraded, got %v", body["status"])
		}
	})

	rec, body := c.do(http.MethodPost, "/auth/register", `{"email":"alice@example.com","name":"Alice","password":"longenough"}`, "")
	expect(t, rec, http.StatusCreated)
	aliceID := body["user"].(map[string]any)["id"].(string)
	confirmLink := body["confirmation"].(map[string]any)["link"].(string)
	if mail.count("alice@example.com") != 1 {
		t.Fatalf("confirmation mail not sent")
	}

	t.Run("validation", func(t *testing.T) {
		rec, body := c.do(http.MethodPost, "/auth/register", `{"email":"not-an-email","name":"Bob","password":"longenough"}`, "")
		expect(t, rec, http.StatusBadRequest)
		if !strings.Contains(body["error"].(string), "email") {
			t.Fatalf("expected email error, got %v", body["error"])
		}
	})

	rec, _ = c.do(http.MethodGet, localPath(t, confirmLink), "", "")
	expect(t, rec, http.StatusOK)
	rec, _ = c.do(http.MethodGet, localPath(t, confirmLink), "", "")
	expect(t, rec, http.StatusConflict)

	rec, body = c.do(http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"longenough"}`, "")
	expect(t, rec, http.StatusOK)
	session := body["token"].(string)

	t.Run("session required", func(t *testing.T) {
		rec, _ := c.do(http.MethodGet, "/v1/me", "", "")
		expect(t, rec, http.StatusUnauthorized)
		rec, _ = c.do(http.MethodGet, "/v1/me", "", session)
		expect(t, rec, http.StatusOK)
	})

	t.Run("staff only until bootstrap", func(t *testing.T) {
		rec, _ := c.do(http.MethodPost, "/v1/posts", `{"title":"T","subtitle":"S","body":"B"}`, session)
		expect(t, rec, http.StatusForbidden)
	})

	rec, body = c.do(http.MethodPost, "/v1/users/"+aliceID+"/roles/admin/grant", "", session)
	expect(t, rec, http.StatusAccepted)
	if body["applied"] != true {
		t.Fatalf("bootstrap grant not applied: %v", body)
	}

	rec, body = c.do(http.MethodPost, "/v1/posts", `{"title":"Hello","subtitle":"World","body":"<p>hi</p><script>x</script>"}`, session)
	expect(t, rec, http.StatusCreated)
	postID := body["id"].(string)
	if strings.Contains(body["body"].(string), "<script>") {
		t.Fatalf("body not sanitised: %v", body["body"])
	}

	rec, body = c.do(http.MethodPost, "/v1/posts/"+postID+"/comments", `{"body":"first"}`, session)
	expect(t, rec, http.StatusCreated)
	commentID := body["id"].(string)
	rec, _ = c.do(http.MethodPost, "/v1/comments/"+commentID+"/replies", `{"body":"re"}`, session)
	expect(t, rec, http.StatusCreated)

	rec, body = c.do(http.MethodDelete, "/v1/posts/"+postID, "", session)
	expect(t, rec, http.StatusOK)
	archiveID := body["id"].(string)

	rec, _ = c.do(http.MethodGet, "/posts/"+postID, "", "")
	expect(t, rec, http.StatusNotFound)

	rec, body = c.do(http.MethodPost, "/v1/archives/"+archiveID+"/restore", "", session)
	expect(t, rec, http.StatusOK)
	if body["comments"] != float64(1) || body["replies"] != float64(1) {
		t.Fatalf("unexpected restore counts: %v", body)
	}

	t.Run("api key", func(t *testing.T) {
		rec, body := c.do(http.MethodPost, "/v1/me/api-key", "", session)
		expect(t, rec, http.StatusCreated)
		key := body["key"].(string)

		rec, _ = c.do(http.MethodGet, "/api/posts", "", "")
		expect(t, rec, http.StatusUnauthorized)
		rec, _ = c.do(http.MethodGet, "/api/posts", "", "", middleware.APIKeyHeader, key)
		expect(t, rec, http.StatusOK)

		rec, body = c.do(http.MethodGet, "/v1/me/api-key", "", session)
		expect(t, rec, http.StatusOK)
		usage := body["usage"].(map[string]any)
		if len(usage) != 1 {
			t.Fatalf("expected one usage counter, got %v", usage)
		}

		rec, _ = c.do(http.MethodPost, "/v1/users/"+aliceID+"/api-key/block", "", session)
		expect(t, rec, http.StatusOK)
		rec, _ = c.do(http.MethodGet, "/api/posts", "", "", middleware.APIKeyHeader, key)
		expect(t, rec, http.StatusForbidden)
	})

	t.Run("scrub", func(t *testing.T) {
		rec, body := c.do(http.MethodPost, "/v1/admin/scrub", "", session)
		expect(t, rec, http.StatusOK)
		if body["total"] != float64(0) {
			t.Fatalf("expected clean store, got %v", body)
		}
	})

	t.Run("tampered link", func(t *testing.T) {
		rec, _ := c.do(http.MethodGet, "/auth/confirm-email?token=garbage", "", "")
		expect(t, rec, http.StatusUnauthorized)
	})
}
