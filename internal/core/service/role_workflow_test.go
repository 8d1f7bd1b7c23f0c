package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
)

func TestRoleWorkflow_BootstrapSelfGrant(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.addUser(t, "alice", "alice@example.com", false, false)

	out, err := e.roles.RequestChange(ctx, alice, alice.ID, domain.RoleAdmin, true)
	if err != nil {
		t.Fatalf("RequestChange: %v", err)
	}
	if !out.Applied || out.Link != "" {
		t.Fatalf("bootstrap grant should apply without a link: %+v", out)
	}
	got, _ := e.repos.Users.FindByID(ctx, alice.ID)
	if !got.Admin {
		t.Fatalf("alice should be admin")
	}

	// With an admin present the bypass is gone.
	bob := e.addUser(t, "bob", "bob@example.com", false, false)
	if _, err := e.roles.RequestChange(ctx, bob, bob.ID, domain.RoleAdmin, true); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRoleWorkflow_BootstrapOnlyCoversSelfAdmin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.addUser(t, "alice", "alice@example.com", false, false)
	bob := e.addUser(t, "bob", "bob@example.com", false, false)

	if _, err := e.roles.RequestChange(ctx, alice, bob.ID, domain.RoleAdmin, true); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("granting another user: expected ErrUnauthorized, got %v", err)
	}
	if _, err := e.roles.RequestChange(ctx, alice, alice.ID, domain.RoleAuthor, true); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("granting author: expected ErrUnauthorized, got %v", err)
	}
}

func TestRoleWorkflow_TokenGatedGrant(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.addUser(t, "admin", "admin@example.com", true, false)
	bob := e.addUser(t, "bob", "bob@example.com", false, false)

	out, err := e.roles.RequestChange(ctx, admin, bob.ID, domain.RoleAuthor, true)
	if err != nil {
		t.Fatalf("RequestChange: %v", err)
	}
	if out.Applied || out.Link == "" {
		t.Fatalf("expected a pending change with a link: %+v", out)
	}
	if got, _ := e.repos.Users.FindByID(ctx, bob.ID); got.Author {
		t.Fatalf("role must not change before confirmation")
	}
	if len(e.mail.to(admin.Email)) != 1 {
		t.Fatalf("link should be mailed to the acting admin")
	}

	token := tokenFromLink(t, out.Link)
	other := e.addUser(t, "other", "other@example.com", true, false)
	if _, err := e.roles.ConfirmChange(ctx, other, bob.ID, domain.RoleAuthor, true, token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("another admin confirming: expected ErrUnauthorized, got %v", err)
	}
	if _, err := e.roles.ConfirmChange(ctx, admin, bob.ID, domain.RoleAuthor, false, token); !errors.Is(err, domain.ErrPurposeMismatch) {
		t.Fatalf("grant token used to revoke: expected ErrPurposeMismatch, got %v", err)
	}

	confirmed, err := e.roles.ConfirmChange(ctx, admin, bob.ID, domain.RoleAuthor, true, token)
	if err != nil {
		t.Fatalf("ConfirmChange: %v", err)
	}
	if !confirmed.Applied {
		t.Fatalf("expected applied outcome")
	}
	got, _ := e.repos.Users.FindByID(ctx, bob.ID)
	if !got.Author {
		t.Fatalf("bob should be an author")
	}
	notes, _ := e.notes.List(ctx, bob)
	if len(notes) != 1 || notes[0].Category != domain.CategoryNew {
		t.Fatalf("expected one 'new' notification, got %+v", notes)
	}
	if len(e.mail.to(bob.Email)) != 1 {
		t.Fatalf("target should be told by mail")
	}
}

func TestRoleWorkflow_RequiresAdminOnceBootstrapped(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.addUser(t, "admin", "admin@example.com", true, false)
	bob := e.addUser(t, "bob", "bob@example.com", false, false)

	if _, err := e.roles.RequestChange(ctx, bob, bob.ID, domain.RoleAuthor, true); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	token, _ := e.tokens.Issue(domain.PurposeMakeAuth, bob.Email)
	if _, err := e.roles.ConfirmChange(ctx, bob, bob.ID, domain.RoleAdmin, true, token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRoleWorkflow_RevokeExpires(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.addUser(t, "admin", "admin@example.com", true, false)
	bob := e.addUser(t, "bob", "bob@example.com", false, true)

	out, err := e.roles.RequestChange(ctx, admin, bob.ID, domain.RoleAuthor, false)
	if err != nil {
		t.Fatalf("RequestChange: %v", err)
	}
	e.clock.Advance(801 * time.Second)
	if _, err := e.roles.ConfirmChange(ctx, admin, bob.ID, domain.RoleAuthor, false, tokenFromLink(t, out.Link)); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if got, _ := e.repos.Users.FindByID(ctx, bob.ID); !got.Author {
		t.Fatalf("expired token must not revoke")
	}
}

func TestRoleWorkflow_MailFailureDoesNotRollBack(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.addUser(t, "alice", "alice@example.com", false, false)
	e.mail.fail = true

	out, err := e.roles.RequestChange(ctx, alice, alice.ID, domain.RoleAdmin, true)
	if err != nil {
		t.Fatalf("RequestChange: %v", err)
	}
	if !out.Applied || !errors.Is(out.NotifyErr, domain.ErrTransportFailure) {
		t.Fatalf("expected applied outcome with transport failure, got %+v", out)
	}
	if got, _ := e.repos.Users.FindByID(ctx, alice.ID); !got.Admin {
		t.Fatalf("mutation must commit despite mail failure")
	}
}

func TestRoleWorkflow_InvalidRole(t *testing.T) {
	e := newEnv(t)
	admin := e.addUser(t, "admin", "admin@example.com", true, false)
	if _, err := e.roles.RequestChange(context.Background(), admin, admin.ID, domain.Role("owner"), true); !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}
