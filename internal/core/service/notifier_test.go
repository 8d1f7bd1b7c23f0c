package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
)

// refusingDispatcher rejects one address and records the rest.
type refusingDispatcher struct {
	mu     sync.Mutex
	refuse string
	sent   []string
}

func (d *refusingDispatcher) Send(_ context.Context, to, _, _ string) error {
	if to == d.refuse {
		return errors.New("mailbox unavailable")
	}
	d.mu.Lock()
	d.sent = append(d.sent, to)
	d.mu.Unlock()
	return nil
}

func TestNotifier_BroadcastReportsFailureAndDeliversRest(t *testing.T) {
	d := &refusingDispatcher{refuse: "b@example.com"}
	n := NewNotifier(d, zerolog.Nop())
	recipients := []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com", "e@example.com"}

	err := n.Broadcast(context.Background(), recipients, Message{Subject: "s", Body: "b"})
	if !errors.Is(err, domain.ErrTransportFailure) {
		t.Fatalf("expected ErrTransportFailure, got %v", err)
	}
	if len(d.sent) != len(recipients)-1 {
		t.Fatalf("delivered %d messages, want %d", len(d.sent), len(recipients)-1)
	}
}

func TestNotifier_BroadcastWithoutRecipients(t *testing.T) {
	n := NewNotifier(nil, zerolog.Nop())
	if err := n.Broadcast(context.Background(), nil, Message{}); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
