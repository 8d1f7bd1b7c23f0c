package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
)

func TestIdentityService_Register_Success(t *testing.T) {
	e := newEnv(t)

	user, out, err := e.identity.Register(context.Background(), "alice@example.com", "Alice", "pass12345")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.PasswordHash == "pass12345" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pass12345")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if user.ConfirmedEmail || user.JoinDate != nil {
		t.Fatalf("new account must start unconfirmed")
	}
	if !out.Applied || out.Link == "" || out.NotifyErr != nil {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if got := e.mail.to("alice@example.com"); len(got) != 1 {
		t.Fatalf("expected one confirmation mail, got %d", len(got))
	}
}

func TestIdentityService_Register_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cases := []struct{ email, name, password string }{
		{"", "A", "pass12345"},
		{"not-an-email", "A", "pass12345"},
		{"a@example.com", "", "pass12345"},
		{"a@example.com", "A", "short"},
	}
	for _, c := range cases {
		if _, _, err := e.identity.Register(ctx, c.email, c.name, c.password); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("Register(%q, %q): expected ErrInvalidCredentials, got %v", c.email, c.name, err)
		}
	}
}

func TestIdentityService_Register_Duplicate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	if _, _, err := e.identity.Register(ctx, "a@example.com", "A", "pass12345"); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if _, _, err := e.identity.Register(ctx, "a@example.com", "B", "pass12345"); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestIdentityService_Register_MailFailureStillCreatesAccount(t *testing.T) {
	e := newEnv(t)
	e.mail.fail = true

	user, out, err := e.identity.Register(context.Background(), "a@example.com", "A", "pass12345")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if !errors.Is(out.NotifyErr, domain.ErrTransportFailure) {
		t.Fatalf("expected ErrTransportFailure in outcome, got %v", out.NotifyErr)
	}
	if _, err := e.identity.Get(context.Background(), user.ID); err != nil {
		t.Fatalf("account should exist: %v", err)
	}
}

func TestIdentityService_Login(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user, _, _ := e.identity.Register(ctx, "a@example.com", "A", "pass12345")

	token, got, err := e.identity.Login(ctx, "a@example.com", "pass12345")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("unexpected user %s", got.ID)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte("jwt-secret"), nil
	}, jwt.WithTimeFunc(func() time.Time { return e.clock.Now() }))
	if err != nil || !parsed.Valid {
		t.Fatalf("session token invalid: %v", err)
	}
	if claims["user_id"] != user.ID {
		t.Fatalf("unexpected user_id claim: %v", claims["user_id"])
	}

	if _, _, err := e.identity.Login(ctx, "a@example.com", "wrong-pass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := e.identity.Login(ctx, "nobody@example.com", "pass12345"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestIdentityService_Delete_CascadesInOneStep(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.addUser(t, "alice", "alice@example.com", false, true)
	bob := e.addUser(t, "bob", "bob@example.com", false, false)
	seedPost(t, e, alice, []*domain.User{bob}, bob, 2)

	report, err := e.identity.Delete(ctx, alice.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if report.Posts != 1 || report.Comments != 1 || report.Replies != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if _, err := e.identity.Get(ctx, alice.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := e.identity.Delete(ctx, alice.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("second delete: expected ErrUserNotFound, got %v", err)
	}
}
