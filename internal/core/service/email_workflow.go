package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
	"github.com/sirpyerre/blogkeeper/internal/core/ports"
)

// EmailWorkflow confirms that a user controls their registered address.
type EmailWorkflow struct {
	WorkflowDeps
	now func() time.Time
}

func NewEmailWorkflow(deps WorkflowDeps, opts ...Option) *EmailWorkflow {
	o := buildOptions(opts)
	return &EmailWorkflow{WorkflowDeps: deps, now: o.now}
}

// SendConfirmation mints an email-verify token bound to the user's address
// and mails the link.
func (w *EmailWorkflow) SendConfirmation(ctx context.Context, u *domain.User) (ports.Outcome, error) {
	token, err := w.mint(domain.PurposeEmailVerify, u.Email)
	if err != nil {
		return ports.Outcome{}, err
	}
	link := w.Links.ConfirmEmail(token)
	out := ports.Outcome{Link: link}
	out.NotifyErr = w.Notifier.Send(ctx, u.Email, confirmEmailMessage(u.Name, link))
	return out, nil
}

// Resend mints a fresh link for a still-unconfirmed account.
func (w *EmailWorkflow) Resend(ctx context.Context, u *domain.User) (ports.Outcome, error) {
	if u.ConfirmedEmail {
		return ports.Outcome{}, domain.ErrAlreadyConfirmed
	}
	return w.SendConfirmation(ctx, u)
}

// Confirm verifies token and marks the address confirmed. A second
// confirmation of the same account fails with ErrAlreadyConfirmed.
func (w *EmailWorkflow) Confirm(ctx context.Context, token string) (*domain.User, error) {
	email, err := w.check(token, domain.PurposeEmailVerify)
	if err != nil {
		return nil, err
	}

	var confirmed *domain.User
	err = w.Repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		u, err := w.Repos.Users.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return domain.ErrTokenInvalid
			}
			return err
		}
		if u.ConfirmedEmail {
			return domain.ErrAlreadyConfirmed
		}
		joined := w.now()
		u.ConfirmedEmail = true
		u.JoinDate = &joined
		if err := w.Repos.Users.Update(ctx, u); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		confirmed = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	w.Log.Info().Str("user_id", confirmed.ID).Msg("email confirmed")
	return confirmed, nil
}
