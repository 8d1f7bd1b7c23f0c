package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
	"github.com/sirpyerre/blogkeeper/internal/core/ports"
)

// AccountDeleter removes an identity together with everything it owns.
type AccountDeleter interface {
	Delete(ctx context.Context, id string) (ports.ScrubReport, error)
}

// DeletionWorkflow handles self-service deletion requests reviewed by
// administrators, and deletions initiated directly by an administrator.
type DeletionWorkflow struct {
	WorkflowDeps
	accounts AccountDeleter
	now      func() time.Time
	newID    func() string
}

func NewDeletionWorkflow(deps WorkflowDeps, accounts AccountDeleter, opts ...Option) *DeletionWorkflow {
	o := buildOptions(opts)
	return &DeletionWorkflow{WorkflowDeps: deps, accounts: accounts, now: o.now, newID: o.newID}
}

// RequestDeletion files a deletion request for actor. With no administrator
// to review it, or when actor is an administrator, the account is deleted
// at once and the returned report is nil.
func (w *DeletionWorkflow) RequestDeletion(ctx context.Context, actor *domain.User, reason, explanation string) (*domain.DeletionReport, ports.Outcome, error) {
	if actor == nil {
		return nil, ports.Outcome{}, domain.ErrUnauthorized
	}
	if _, err := w.Repos.Reports.FindByOwner(ctx, actor.ID); err == nil {
		return nil, ports.Outcome{}, domain.ErrDuplicateRequest
	} else if !errors.Is(err, domain.ErrReportNotFound) {
		return nil, ports.Outcome{}, err
	}

	admins, err := w.Repos.Users.CountAdmins(ctx)
	if err != nil {
		return nil, ports.Outcome{}, fmt.Errorf("count admins: %w", err)
	}
	if admins == 0 || actor.Admin {
		out, err := w.deleteAccount(ctx, actor)
		return nil, out, err
	}

	report := &domain.DeletionReport{
		ID:          w.newID(),
		OwnerID:     actor.ID,
		Reason:      strings.TrimSpace(reason),
		Explanation: strings.TrimSpace(explanation),
		CreatedAt:   w.now(),
	}
	token, err := w.mint(domain.PurposeDeletionRequest, actor.Email)
	if err != nil {
		return nil, ports.Outcome{}, err
	}
	report.ApproveLink = w.Links.ApproveDeletion(report.ID, token)
	report.RejectLink = w.Links.RejectDeletion(report.ID, token)
	if err := w.Repos.Reports.Create(ctx, report); err != nil {
		return nil, ports.Outcome{}, err
	}
	w.Log.Info().Str("user_id", actor.ID).Str("report_id", report.ID).Msg("deletion requested")

	out := ports.Outcome{Applied: true}
	recipients, err := w.adminEmails(ctx)
	if err != nil {
		out.NotifyErr = err
		return report, out, nil
	}
	out.NotifyErr = w.Notifier.Broadcast(ctx, recipients, deletionReviewMessage(actor, report))
	return report, out, nil
}

// Approve deletes the requesting account. The token must have been minted
// for the report's owner.
func (w *DeletionWorkflow) Approve(ctx context.Context, actor *domain.User, reportID, token string) (ports.Outcome, error) {
	_, owner, err := w.review(ctx, actor, reportID, token)
	if err != nil {
		return ports.Outcome{}, err
	}
	return w.deleteAccount(ctx, owner)
}

// Reject drops the pending report and tells the owner.
func (w *DeletionWorkflow) Reject(ctx context.Context, actor *domain.User, reportID, token string) (ports.Outcome, error) {
	report, owner, err := w.review(ctx, actor, reportID, token)
	if err != nil {
		return ports.Outcome{}, err
	}
	err = w.Repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := w.Repos.Reports.Delete(ctx, report.ID); err != nil {
			return fmt.Errorf("delete report: %w", err)
		}
		return w.Repos.Notifications.Create(ctx, &domain.Notification{
			ID:          w.newID(),
			RecipientID: owner.ID,
			Category:    domain.CategoryDeletion,
			ActorName:   actor.Name,
			ActorEmail:  actor.Email,
			Body:        "Your account deletion request was declined.",
			Date:        w.now(),
		})
	})
	if err != nil {
		return ports.Outcome{}, err
	}
	w.Log.Info().Str("user_id", owner.ID).Str("report_id", report.ID).Msg("deletion request rejected")

	out := ports.Outcome{Applied: true}
	out.NotifyErr = w.Notifier.Send(ctx, owner.Email, deletionRejectedMessage(owner.Name))
	return out, nil
}

// PendingReports lists open deletion requests for review.
func (w *DeletionWorkflow) PendingReports(ctx context.Context, actor *domain.User) ([]*domain.DeletionReport, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return w.Repos.Reports.List(ctx)
}

// RequestUserDeletion mails the acting administrator a link that deletes
// target once followed.
func (w *DeletionWorkflow) RequestUserDeletion(ctx context.Context, actor *domain.User, targetID string) (ports.Outcome, error) {
	if err := requireAdmin(actor); err != nil {
		return ports.Outcome{}, err
	}
	target, err := w.Repos.Users.FindByID(ctx, targetID)
	if err != nil {
		return ports.Outcome{}, err
	}
	token, err := w.mint(domain.PurposeDeleteAuth, actor.Email)
	if err != nil {
		return ports.Outcome{}, err
	}
	link := w.Links.DeleteUser(target.ID, token)
	out := ports.Outcome{Link: link}
	out.NotifyErr = w.Notifier.Send(ctx, actor.Email, deleteUserLinkMessage(target, link))
	return out, nil
}

// ConfirmUserDeletion deletes target when token was minted for actor.
func (w *DeletionWorkflow) ConfirmUserDeletion(ctx context.Context, actor *domain.User, targetID, token string) (ports.Outcome, error) {
	if err := requireAdmin(actor); err != nil {
		return ports.Outcome{}, err
	}
	subject, err := w.check(token, domain.PurposeDeleteAuth)
	if err != nil {
		return ports.Outcome{}, err
	}
	if subject != actor.Email {
		return ports.Outcome{}, domain.ErrUnauthorized
	}
	target, err := w.Repos.Users.FindByID(ctx, targetID)
	if err != nil {
		return ports.Outcome{}, err
	}
	return w.deleteAccount(ctx, target)
}

func (w *DeletionWorkflow) review(ctx context.Context, actor *domain.User, reportID, token string) (*domain.DeletionReport, *domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, nil, err
	}
	subject, err := w.check(token, domain.PurposeDeletionRequest)
	if err != nil {
		return nil, nil, err
	}
	report, err := w.Repos.Reports.FindByID(ctx, reportID)
	if err != nil {
		return nil, nil, err
	}
	owner, err := w.Repos.Users.FindByID(ctx, report.OwnerID)
	if err != nil {
		return nil, nil, err
	}
	if subject != owner.Email {
		return nil, nil, domain.ErrTokenInvalid
	}
	return report, owner, nil
}

func (w *DeletionWorkflow) deleteAccount(ctx context.Context, u *domain.User) (ports.Outcome, error) {
	if _, err := w.accounts.Delete(ctx, u.ID); err != nil {
		return ports.Outcome{}, err
	}
	out := ports.Outcome{Applied: true}
	out.NotifyErr = w.Notifier.Send(ctx, u.Email, accountDeletedMessage(u.Name))
	return out, nil
}
