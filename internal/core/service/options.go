package service

import (
	"time"

	"github.com/google/uuid"
)

type options struct {
	now   func() time.Time
	newID func() string
}

// Option customises a service at construction time.
type Option func(*options)

// WithClock injects the time source (useful for tests).
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator injects the identifier source for new records.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) {
		if newID != nil {
			o.newID = newID
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
