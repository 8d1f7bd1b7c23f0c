package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
)

func TestEmailWorkflow_ConfirmScenario(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user, out, err := e.identity.Register(ctx, "a@example.com", "A", "pass12345")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	token := tokenFromLink(t, out.Link)
	if subject, err := e.tokens.Verify(token, domain.PurposeEmailVerify, time.Hour); err != nil || subject != user.Email {
		t.Fatalf("registration token should be an email-verify token for the address: %q %v", subject, err)
	}

	e.clock.Advance(59 * time.Minute)
	confirmed, err := e.email.Confirm(ctx, token)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if !confirmed.ConfirmedEmail || confirmed.JoinDate == nil || !confirmed.JoinDate.Equal(e.clock.Now()) {
		t.Fatalf("confirmation not applied: %+v", confirmed)
	}

	if _, err := e.email.Confirm(ctx, token); !errors.Is(err, domain.ErrAlreadyConfirmed) {
		t.Fatalf("second confirm: expected ErrAlreadyConfirmed, got %v", err)
	}
	fresh, _ := e.tokens.Issue(domain.PurposeEmailVerify, user.Email)
	if _, err := e.email.Confirm(ctx, fresh); !errors.Is(err, domain.ErrAlreadyConfirmed) {
		t.Fatalf("fresh token: expected ErrAlreadyConfirmed, got %v", err)
	}
}

func TestEmailWorkflow_ConfirmExpired(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, out, _ := e.identity.Register(ctx, "a@example.com", "A", "pass12345")

	e.clock.Advance(time.Hour + time.Second)
	if _, err := e.email.Confirm(ctx, tokenFromLink(t, out.Link)); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	u, _ := e.repos.Users.FindByEmail(ctx, "a@example.com")
	if u.ConfirmedEmail {
		t.Fatalf("expired token must not confirm")
	}
}

func TestEmailWorkflow_WrongPurposeRejected(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.identity.Register(ctx, "a@example.com", "A", "pass12345")

	reset, _ := e.tokens.Issue(domain.PurposeForgetPassword, "a@example.com")
	if _, err := e.email.Confirm(ctx, reset); !errors.Is(err, domain.ErrPurposeMismatch) {
		t.Fatalf("expected ErrPurposeMismatch, got %v", err)
	}
}

func TestEmailWorkflow_Resend(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user, _, _ := e.identity.Register(ctx, "a@example.com", "A", "pass12345")

	if _, err := e.email.Resend(ctx, user); err != nil {
		t.Fatalf("Resend: %v", err)
	}
	if got := e.mail.to(user.Email); len(got) != 2 {
		t.Fatalf("expected 2 mails, got %d", len(got))
	}

	confirmed := e.addUser(t, "b", "b@example.com", false, false)
	if _, err := e.email.Resend(ctx, confirmed); !errors.Is(err, domain.ErrAlreadyConfirmed) {
		t.Fatalf("expected ErrAlreadyConfirmed, got %v", err)
	}
}
