package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
	"github.com/sirpyerre/blogkeeper/internal/core/ports"
)

// PasswordWorkflow resets a forgotten password through a mailed link.
type PasswordWorkflow struct {
	WorkflowDeps
}

func NewPasswordWorkflow(deps WorkflowDeps) *PasswordWorkflow {
	return &PasswordWorkflow{WorkflowDeps: deps}
}

func (w *PasswordWorkflow) RequestReset(ctx context.Context, email string) (ports.Outcome, error) {
	u, err := w.Repos.Users.FindByEmail(ctx, email)
	if err != nil {
		return ports.Outcome{}, err
	}
	token, err := w.mint(domain.PurposeForgetPassword, u.Email)
	if err != nil {
		return ports.Outcome{}, err
	}
	link := w.Links.ResetPassword(token)
	out := ports.Outcome{Link: link}
	out.NotifyErr = w.Notifier.Send(ctx, u.Email, passwordResetMessage(u.Name, link))
	return out, nil
}

func (w *PasswordWorkflow) Reset(ctx context.Context, token, password string) error {
	if len(password) < minPasswordLen {
		return domain.ErrInvalidCredentials
	}
	email, err := w.check(token, domain.PurposeForgetPassword)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return w.Repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		u, err := w.Repos.Users.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return domain.ErrTokenInvalid
			}
			return err
		}
		u.PasswordHash = string(hash)
		if err := w.Repos.Users.Update(ctx, u); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		w.Log.Info().Str("user_id", u.ID).Msg("password reset")
		return nil
	})
}
