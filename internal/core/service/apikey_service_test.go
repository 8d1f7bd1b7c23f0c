package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
)

func TestAPIKeyService_IssueAndAuthenticate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	bob := e.addUser(t, "bob", "bob@example.com", false, false)

	plain, key, err := e.apiKeys.Issue(ctx, bob)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !strings.HasPrefix(plain, apiKeyPrefix) || key.KeyHash == plain || !strings.HasPrefix(plain, key.Prefix) {
		t.Fatalf("unexpected key material: plain=%q key=%+v", plain, key)
	}
	if _, _, err := e.apiKeys.Issue(ctx, bob); !errors.Is(err, domain.ErrDuplicateRequest) {
		t.Fatalf("second key: expected ErrDuplicateRequest, got %v", err)
	}

	for i := 0; i < 3; i++ {
		owner, err := e.apiKeys.Authenticate(ctx, plain, "/api/v1/posts")
		if err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
		if owner.ID != bob.ID {
			t.Fatalf("unexpected owner %s", owner.ID)
		}
	}
	stored, _ := e.apiKeys.Get(ctx, bob)
	if stored.Usage["/api/v1/posts"] != 3 {
		t.Fatalf("usage = %d, want 3", stored.Usage["/api/v1/posts"])
	}

	if _, err := e.apiKeys.Authenticate(ctx, "bk_wrong", "/api/v1/posts"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAPIKeyService_BlockUnblock(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.addUser(t, "admin", "admin@example.com", true, false)
	bob := e.addUser(t, "bob", "bob@example.com", false, false)
	plain, _, _ := e.apiKeys.Issue(ctx, bob)

	if _, err := e.apiKeys.SetBlocked(ctx, bob, bob.ID, true); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := e.apiKeys.SetBlocked(ctx, admin, bob.ID, true); err != nil {
		t.Fatalf("block: %v", err)
	}
	if _, err := e.apiKeys.Authenticate(ctx, plain, "/api/v1/posts"); !errors.Is(err, domain.ErrAPIKeyBlocked) {
		t.Fatalf("expected ErrAPIKeyBlocked, got %v", err)
	}
	if _, err := e.apiKeys.SetBlocked(ctx, admin, bob.ID, false); err != nil {
		t.Fatalf("unblock: %v", err)
	}
	if _, err := e.apiKeys.Authenticate(ctx, plain, "/api/v1/posts"); err != nil {
		t.Fatalf("unblocked key should work: %v", err)
	}

	notes, _ := e.notes.List(ctx, bob)
	if len(notes) != 2 || notes[0].Category != domain.CategoryBlock || notes[1].Category != domain.CategoryUnblock {
		t.Fatalf("unexpected notifications: %+v", notes)
	}
	if len(e.mail.to(bob.Email)) != 2 {
		t.Fatalf("owner should be mailed on each change")
	}
}

func TestAPIKeyService_Revoke(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	bob := e.addUser(t, "bob", "bob@example.com", false, false)
	plain, _, _ := e.apiKeys.Issue(ctx, bob)

	if err := e.apiKeys.Revoke(ctx, bob); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, err := e.apiKeys.Authenticate(ctx, plain, "/api/v1/posts"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("revoked key: expected ErrUnauthorized, got %v", err)
	}
	if _, _, err := e.apiKeys.Issue(ctx, bob); err != nil {
		t.Fatalf("issue after revoke: %v", err)
	}
}
