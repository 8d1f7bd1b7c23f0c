package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
	"github.com/sirpyerre/blogkeeper/internal/core/ports"
)

func TestNotificationService_ListAndMarkRead(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.addUser(t, "alice", "alice@example.com", false, true)
	bob := e.addUser(t, "bob", "bob@example.com", false, false)

	post, err := e.content.CreatePost(ctx, alice, ports.PostInput{Title: "Hello", Body: "first"})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	comment, err := e.content.AddComment(ctx, bob, post.ID, "nice")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	notes, err := e.notes.List(ctx, alice)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notes))
	}
	n := notes[0]
	if n.Category != domain.CategoryComment || n.ParentID != comment.ID || n.ActorEmail != bob.Email || n.Read {
		t.Fatalf("unexpected notification %+v", n)
	}
	if own, _ := e.notes.List(ctx, bob); len(own) != 0 {
		t.Fatalf("commenter should have no notifications, got %d", len(own))
	}

	if err := e.notes.MarkRead(ctx, bob, n.ID); !errors.Is(err, domain.ErrAggregateNotFound) {
		t.Fatalf("foreign mark read: expected not found, got %v", err)
	}
	if err := e.notes.MarkRead(ctx, alice, n.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	notes, _ = e.notes.List(ctx, alice)
	if !notes[0].Read {
		t.Fatal("notification should be read")
	}
}

func TestNotificationService_RequiresActor(t *testing.T) {
	e := newEnv(t)
	if _, err := e.notes.List(context.Background(), nil); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := e.notes.MarkRead(context.Background(), nil, "n1"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
