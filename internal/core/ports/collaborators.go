package ports

import (
	"context"
	"time"
)

// NotificationDispatcher delivers an outbound message. A failure, including
// having no sender configured, must be returned to the caller.
type NotificationDispatcher interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// Locker grants a single writer per key for at most ttl.
type Locker interface {
	// Acquire returns domain.ErrLocked when another writer holds key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// NopLocker grants every request. Used when no lock backend is configured.
type NopLocker struct{}

func (NopLocker) Acquire(context.Context, string, time.Duration) (func(), error) {
	return func() {}, nil
}
