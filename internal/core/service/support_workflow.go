package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
	"github.com/sirpyerre/blogkeeper/internal/core/ports"
)

// SupportWorkflow rotates the support contact address. A new address only
// becomes active once someone holding it follows the confirmation link.
type SupportWorkflow struct {
	WorkflowDeps
	validate *validator.Validate
	now      func() time.Time
}

func NewSupportWorkflow(deps WorkflowDeps, opts ...Option) *SupportWorkflow {
	o := buildOptions(opts)
	return &SupportWorkflow{WorkflowDeps: deps, validate: validator.New(), now: o.now}
}

// RequestRotation records address as pending and mails it a confirmation
// link. From this point the support address reads as unset.
func (w *SupportWorkflow) RequestRotation(ctx context.Context, actor *domain.User, address string) (ports.Outcome, error) {
	if err := requireAdmin(actor); err != nil {
		return ports.Outcome{}, err
	}
	address = strings.TrimSpace(address)
	if err := w.validate.Var(address, "required,email"); err != nil {
		return ports.Outcome{}, fmt.Errorf("%w: support address", domain.ErrInvalidCredentials)
	}

	err := w.Repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		settings, err := w.Repos.Settings.Get(ctx)
		if err != nil {
			return err
		}
		settings.PendingSupportEmail = address
		settings.UpdatedAt = w.now()
		return w.Repos.Settings.Save(ctx, settings)
	})
	if err != nil {
		return ports.Outcome{}, fmt.Errorf("save settings: %w", err)
	}
	w.Log.Info().Str("actor_id", actor.ID).Msg("support address rotation requested")

	token, err := w.mint(domain.PurposeSupportVerify, address)
	if err != nil {
		return ports.Outcome{Applied: true}, err
	}
	link := w.Links.ConfirmSupport(token)
	out := ports.Outcome{Applied: true, Link: link}
	out.NotifyErr = w.Notifier.Send(ctx, address, supportVerifyMessage(link))
	return out, nil
}

// Confirm activates the pending address the token was minted for. Tokens
// for an address that is no longer pending are rejected.
func (w *SupportWorkflow) Confirm(ctx context.Context, token string) (*domain.SiteSettings, error) {
	address, err := w.check(token, domain.PurposeSupportVerify)
	if err != nil {
		return nil, err
	}
	var settings *domain.SiteSettings
	err = w.Repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		settings, err = w.Repos.Settings.Get(ctx)
		if err != nil {
			return err
		}
		if settings.PendingSupportEmail == "" || settings.PendingSupportEmail != address {
			return domain.ErrTokenInvalid
		}
		settings.SupportEmail = address
		settings.PendingSupportEmail = ""
		settings.UpdatedAt = w.now()
		return w.Repos.Settings.Save(ctx, settings)
	})
	if err != nil {
		return nil, err
	}
	w.Log.Info().Msg("support address confirmed")
	return settings, nil
}

// SupportAddress returns the active address, or false while unset or pending.
func (w *SupportWorkflow) SupportAddress(ctx context.Context) (string, bool, error) {
	settings, err := w.Repos.Settings.Get(ctx)
	if err != nil {
		return "", false, err
	}
	addr, ok := settings.Support()
	return addr, ok, nil
}
