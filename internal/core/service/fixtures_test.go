package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
	"github.com/sirpyerre/blogkeeper/internal/core/ports"
	"github.com/sirpyerre/blogkeeper/internal/infrastructure/db/memory"
)

type sentMessage struct {
	To, Subject, Body string
}

// stubDispatcher records every message and fails when fail is set.
type stubDispatcher struct {
	mu   sync.Mutex
	fail bool
	sent []sentMessage
}

func (d *stubDispatcher) Send(_ context.Context, to, subject, body string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail {
		return errors.New("smtp unavailable")
	}
	d.sent = append(d.sent, sentMessage{To: to, Subject: subject, Body: body})
	return nil
}

func (d *stubDispatcher) to(addr string) []sentMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []sentMessage
	for _, m := range d.sent {
		if m.To == addr {
			out = append(out, m)
		}
	}
	return out
}

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// env wires every service over one in-memory store.
type env struct {
	repos     ports.Repositories
	clock     *clock
	mail      *stubDispatcher
	tokens    *TokenService
	deps      WorkflowDeps
	scrubber  *Scrubber
	identity  *IdentityService
	email     *EmailWorkflow
	content   *ContentService
	archives  *ArchiveEngine
	roles     *RoleWorkflow
	deletion  *DeletionWorkflow
	support   *SupportWorkflow
	passwords *PasswordWorkflow
	apiKeys   *APIKeyService
	notes     *NotificationService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	log := zerolog.Nop()
	e := &env{
		repos: memory.New().Repositories(),
		clock: newClock(),
		mail:  &stubDispatcher{},
	}
	opts := []Option{WithClock(e.clock.Now), WithIDGenerator(sequentialIDs("id"))}

	e.tokens = NewTokenService("test-secret", log, opts...)
	e.deps = WorkflowDeps{
		Repos:    e.repos,
		Tokens:   e.tokens,
		Notifier: NewNotifier(e.mail, log),
		Links:    NewLinks("https://blog.test"),
		Ages:     domain.DefaultTokenAges,
		Log:      log,
	}
	e.scrubber = NewScrubber(e.repos, log)
	e.email = NewEmailWorkflow(e.deps, opts...)
	e.identity = NewIdentityService(e.repos, e.scrubber, e.email, "jwt-secret", time.Hour, log, opts...)
	e.content = NewContentService(e.repos, log, opts...)
	e.archives = NewArchiveEngine(e.repos, nil, 0, log, opts...)
	e.roles = NewRoleWorkflow(e.deps, opts...)
	e.deletion = NewDeletionWorkflow(e.deps, e.identity, opts...)
	e.support = NewSupportWorkflow(e.deps, opts...)
	e.passwords = NewPasswordWorkflow(e.deps)
	e.apiKeys = NewAPIKeyService(e.repos, e.deps.Notifier, log, opts...)
	e.notes = NewNotificationService(e.repos.Notifications)
	return e
}

// addUser stores a confirmed user directly.
func (e *env) addUser(t *testing.T, id, email string, admin, author bool) *domain.User {
	t.Helper()
	u := &domain.User{
		ID:             id,
		Email:          email,
		Name:           id,
		Admin:          admin,
		Author:         author,
		ConfirmedEmail: true,
		CreatedAt:      e.clock.Now(),
	}
	if err := e.repos.Users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", id, err)
	}
	return u
}

// tokenFromLink extracts the token query parameter from a mailed link.
func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse link %q: %v", link, err)
	}
	token := u.Query().Get("token")
	if token == "" {
		t.Fatalf("no token in link %q", link)
	}
	return token
}
