package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
	"github.com/sirpyerre/blogkeeper/internal/core/ports"
)

// WorkflowDeps are the collaborators shared by the token-gated workflows.
type WorkflowDeps struct {
	Repos    ports.Repositories
	Tokens   ports.TokenService
	Notifier *Notifier
	Links    Links
	Ages     domain.TokenAges
	Log      zerolog.Logger
}

func (d WorkflowDeps) maxAge(p domain.Purpose) time.Duration {
	if age := d.Ages.For(p); age > 0 {
		return age
	}
	return domain.DefaultTokenAges.For(p)
}

// mint issues a token and logs the purpose, never the token.
func (d WorkflowDeps) mint(purpose domain.Purpose, subject string) (string, error) {
	token, err := d.Tokens.Issue(purpose, subject)
	if err != nil {
		return "", fmt.Errorf("mint %s token: %w", purpose, err)
	}
	d.Log.Debug().Str("purpose", string(purpose)).Msg("capability token issued")
	return token, nil
}

// check verifies token under purpose with that purpose's configured age.
func (d WorkflowDeps) check(token string, purpose domain.Purpose) (string, error) {
	subject, err := d.Tokens.Verify(token, purpose, d.maxAge(purpose))
	if err != nil {
		return "", err
	}
	return subject, nil
}

func (d WorkflowDeps) adminEmails(ctx context.Context) ([]string, error) {
	users, err := d.Repos.Users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var emails []string
	for _, u := range users {
		if u.Admin {
			emails = append(emails, u.Email)
		}
	}
	return emails, nil
}

func requireAdmin(actor *domain.User) error {
	if actor == nil || !actor.Admin {
		return domain.ErrUnauthorized
	}
	return nil
}
