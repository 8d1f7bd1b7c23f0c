package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
	"github.com/sirpyerre/blogkeeper/internal/core/ports"
)

// RoleWorkflow grants and revokes roles behind a token-gated confirmation.
type RoleWorkflow struct {
	WorkflowDeps
	now   func() time.Time
	newID func() string
}

func NewRoleWorkflow(deps WorkflowDeps, opts ...Option) *RoleWorkflow {
	o := buildOptions(opts)
	return &RoleWorkflow{WorkflowDeps: deps, now: o.now, newID: o.newID}
}

func rolePurpose(grant bool) domain.Purpose {
	if grant {
		return domain.PurposeMakeAuth
	}
	return domain.PurposeRemoveAuth
}

// RequestChange starts a role change. While no administrator exists a user
// may grant themselves admin directly; otherwise only an administrator may
// ask, and the change waits for the mailed confirmation link.
func (w *RoleWorkflow) RequestChange(ctx context.Context, actor *domain.User, targetID string, role domain.Role, grant bool) (ports.Outcome, error) {
	if actor == nil {
		return ports.Outcome{}, domain.ErrUnauthorized
	}
	if !role.Valid() {
		return ports.Outcome{}, domain.ErrInvalidRole
	}
	target, err := w.Repos.Users.FindByID(ctx, targetID)
	if err != nil {
		return ports.Outcome{}, err
	}

	admins, err := w.Repos.Users.CountAdmins(ctx)
	if err != nil {
		return ports.Outcome{}, fmt.Errorf("count admins: %w", err)
	}
	if admins == 0 {
		if grant && role == domain.RoleAdmin && target.ID == actor.ID {
			w.Log.Warn().Str("user_id", actor.ID).Msg("bootstrap admin self-grant")
			return w.apply(ctx, actor, target.ID, role, grant)
		}
		return ports.Outcome{}, domain.ErrUnauthorized
	}
	if err := requireAdmin(actor); err != nil {
		return ports.Outcome{}, err
	}

	token, err := w.mint(rolePurpose(grant), actor.Email)
	if err != nil {
		return ports.Outcome{}, err
	}
	link := w.Links.RoleChange(target.ID, role, grant, token)
	out := ports.Outcome{Link: link}
	out.NotifyErr = w.Notifier.Send(ctx, actor.Email, roleChangeLinkMessage(target, role, grant, link))
	return out, nil
}

// ConfirmChange applies the change once the token minted for the acting
// administrator verifies.
func (w *RoleWorkflow) ConfirmChange(ctx context.Context, actor *domain.User, targetID string, role domain.Role, grant bool, token string) (ports.Outcome, error) {
	if err := requireAdmin(actor); err != nil {
		return ports.Outcome{}, err
	}
	if !role.Valid() {
		return ports.Outcome{}, domain.ErrInvalidRole
	}
	subject, err := w.check(token, rolePurpose(grant))
	if err != nil {
		return ports.Outcome{}, err
	}
	if subject != actor.Email {
		return ports.Outcome{}, domain.ErrUnauthorized
	}
	return w.apply(ctx, actor, targetID, role, grant)
}

func (w *RoleWorkflow) apply(ctx context.Context, actor *domain.User, targetID string, role domain.Role, grant bool) (ports.Outcome, error) {
	var target *domain.User
	err := w.Repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		target, err = w.Repos.Users.FindByID(ctx, targetID)
		if err != nil {
			return err
		}
		target.SetRole(role, grant)
		if err := w.Repos.Users.Update(ctx, target); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		cat := domain.CategoryRemoval
		if grant {
			cat = domain.CategoryNew
		}
		return w.Repos.Notifications.Create(ctx, &domain.Notification{
			ID:          w.newID(),
			RecipientID: target.ID,
			Category:    cat,
			ActorName:   actor.Name,
			ActorEmail:  actor.Email,
			Body:        roleNotificationBody(role, grant),
			Date:        w.now(),
		})
	})
	if err != nil {
		return ports.Outcome{}, err
	}
	w.Log.Info().
		Str("user_id", target.ID).
		Str("role", string(role)).
		Bool("grant", grant).
		Str("actor_id", actor.ID).
		Msg("role changed")

	out := ports.Outcome{Applied: true}
	out.NotifyErr = w.Notifier.Send(ctx, target.Email, roleChangedMessage(role, grant))
	return out, nil
}
