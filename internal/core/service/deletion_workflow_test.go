package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
)

func TestDeletionWorkflow_NoAdminsDeletesImmediately(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.addUser(t, "alice", "alice@example.com", false, false)

	report, out, err := e.deletion.RequestDeletion(ctx, alice, "bye", "")
	if err != nil {
		t.Fatalf("RequestDeletion: %v", err)
	}
	if report != nil || !out.Applied {
		t.Fatalf("expected immediate deletion, got report=%v out=%+v", report, out)
	}
	if _, err := e.repos.Users.FindByID(ctx, alice.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("account should be gone, got %v", err)
	}
	if reports, _ := e.repos.Reports.List(ctx); len(reports) != 0 {
		t.Fatalf("no report should be created, got %d", len(reports))
	}
}

func TestDeletionWorkflow_ReviewedApproval(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a1 := e.addUser(t, "a1", "a1@example.com", true, false)
	e.addUser(t, "a2", "a2@example.com", true, false)
	bob := e.addUser(t, "bob", "bob@example.com", false, true)
	seedPost(t, e, bob, nil, nil, 0)

	report, out, err := e.deletion.RequestDeletion(ctx, bob, "leaving", "moving on")
	if err != nil {
		t.Fatalf("RequestDeletion: %v", err)
	}
	if report == nil || out.NotifyErr != nil {
		t.Fatalf("expected a pending report, got %v %+v", report, out)
	}
	if _, err := e.repos.Users.FindByID(ctx, bob.ID); err != nil {
		t.Fatalf("account must survive until approval: %v", err)
	}
	if len(e.mail.to("a1@example.com")) != 1 || len(e.mail.to("a2@example.com")) != 1 {
		t.Fatalf("every admin should receive the review links")
	}

	if _, _, err := e.deletion.RequestDeletion(ctx, bob, "again", ""); !errors.Is(err, domain.ErrDuplicateRequest) {
		t.Fatalf("expected ErrDuplicateRequest, got %v", err)
	}

	token := tokenFromLink(t, report.ApproveLink)
	if _, err := e.deletion.Approve(ctx, bob, report.ID, token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("non-admin approval: expected ErrUnauthorized, got %v", err)
	}
	stray, _ := e.tokens.Issue(domain.PurposeDeletionRequest, "someone@example.com")
	if _, err := e.deletion.Approve(ctx, a1, report.ID, stray); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("token for another subject: expected ErrTokenInvalid, got %v", err)
	}

	e.clock.Advance(48 * time.Hour)
	if _, err := e.deletion.Approve(ctx, a1, report.ID, token); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := e.repos.Users.FindByID(ctx, bob.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("account should be deleted, got %v", err)
	}
	if posts, _ := e.repos.Posts.List(ctx); len(posts) != 0 {
		t.Fatalf("owned posts should cascade, got %d", len(posts))
	}
	if reports, _ := e.repos.Reports.List(ctx); len(reports) != 0 {
		t.Fatalf("report should be removed with the account")
	}
	if _, err := e.deletion.Approve(ctx, a1, report.ID, token); !errors.Is(err, domain.ErrAggregateNotFound) {
		t.Fatalf("second approval: expected not found, got %v", err)
	}
}

func TestDeletionWorkflow_Reject(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.addUser(t, "admin", "admin@example.com", true, false)
	bob := e.addUser(t, "bob", "bob@example.com", false, false)

	report, _, err := e.deletion.RequestDeletion(ctx, bob, "r", "")
	if err != nil {
		t.Fatalf("RequestDeletion: %v", err)
	}
	if _, err := e.deletion.Reject(ctx, admin, report.ID, tokenFromLink(t, report.RejectLink)); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if _, err := e.repos.Users.FindByID(ctx, bob.ID); err != nil {
		t.Fatalf("rejection must keep the account: %v", err)
	}
	if _, err := e.repos.Reports.FindByID(ctx, report.ID); !errors.Is(err, domain.ErrReportNotFound) {
		t.Fatalf("report should be deleted, got %v", err)
	}
	notes, _ := e.notes.List(ctx, bob)
	if len(notes) != 1 || notes[0].Category != domain.CategoryDeletion {
		t.Fatalf("expected a deletion notification, got %+v", notes)
	}

	// A fresh request is allowed once the previous one is resolved.
	if _, _, err := e.deletion.RequestDeletion(ctx, bob, "r", ""); err != nil {
		t.Fatalf("re-request after rejection: %v", err)
	}
}

func TestDeletionWorkflow_ApprovalTokenExpires(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.addUser(t, "admin", "admin@example.com", true, false)
	bob := e.addUser(t, "bob", "bob@example.com", false, false)

	report, _, _ := e.deletion.RequestDeletion(ctx, bob, "r", "")
	e.clock.Advance(72*time.Hour + time.Second)
	if _, err := e.deletion.Approve(ctx, admin, report.ID, tokenFromLink(t, report.ApproveLink)); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestDeletionWorkflow_AdminDirectDeletion(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.addUser(t, "admin", "admin@example.com", true, false)
	bob := e.addUser(t, "bob", "bob@example.com", false, false)

	if _, err := e.deletion.RequestUserDeletion(ctx, bob, admin.ID); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	out, err := e.deletion.RequestUserDeletion(ctx, admin, bob.ID)
	if err != nil {
		t.Fatalf("RequestUserDeletion: %v", err)
	}
	token := tokenFromLink(t, out.Link)

	if _, err := e.deletion.ConfirmUserDeletion(ctx, admin, bob.ID, token); err != nil {
		t.Fatalf("ConfirmUserDeletion: %v", err)
	}
	if _, err := e.repos.Users.FindByID(ctx, bob.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("bob should be deleted, got %v", err)
	}
	if len(e.mail.to(bob.Email)) != 1 {
		t.Fatalf("subject should be told by mail")
	}
}

func TestDeletionWorkflow_PendingReportsAdminOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.addUser(t, "admin", "admin@example.com", true, false)
	bob := e.addUser(t, "bob", "bob@example.com", false, false)
	e.deletion.RequestDeletion(ctx, bob, "r", "")

	if _, err := e.deletion.PendingReports(ctx, bob); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	reports, err := e.deletion.PendingReports(ctx, admin)
	if err != nil || len(reports) != 1 {
		t.Fatalf("PendingReports = %v, %v", reports, err)
	}
}
