package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
	"github.com/sirpyerre/blogkeeper/internal/core/ports"
	"github.com/sirpyerre/blogkeeper/internal/metrics"
)

const fanoutLimit = 4

// Notifier wraps the outbound dispatcher so every failure surfaces as
// domain.ErrTransportFailure.
type Notifier struct {
	dispatcher ports.NotificationDispatcher
	log        zerolog.Logger
}

func NewNotifier(dispatcher ports.NotificationDispatcher, log zerolog.Logger) *Notifier {
	return &Notifier{dispatcher: dispatcher, log: log}
}

// Send delivers msg to recipient.
func (n *Notifier) Send(ctx context.Context, recipient string, msg Message) error {
	if n == nil || n.dispatcher == nil {
		metrics.NotificationsSentTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("%w: no sender configured", domain.ErrTransportFailure)
	}
	if err := n.dispatcher.Send(ctx, recipient, msg.Subject, msg.Body); err != nil {
		metrics.NotificationsSentTotal.WithLabelValues("failed").Inc()
		n.log.Warn().Err(err).Str("subject", msg.Subject).Msg("notification dispatch failed")
		return fmt.Errorf("%w: %v", domain.ErrTransportFailure, err)
	}
	metrics.NotificationsSentTotal.WithLabelValues("ok").Inc()
	return nil
}

// Broadcast sends msg to every recipient concurrently and returns the first failure.
func (n *Notifier) Broadcast(ctx context.Context, recipients []string, msg Message) error {
	if len(recipients) == 0 {
		return nil
	}
	var g errgroup.Group
	g.SetLimit(fanoutLimit)
	for _, to := range recipients {
		g.Go(func() error {
			return n.Send(ctx, to, msg)
		})
	}
	return g.Wait()
}

// Links builds the absolute URLs embedded in outbound messages.
type Links struct {
	base string
}

func NewLinks(baseURL string) Links {
	return Links{base: strings.TrimRight(baseURL, "/")}
}

func (l Links) withToken(path, token string) string {
	return l.base + path + "?token=" + url.QueryEscape(token)
}

func (l Links) ConfirmEmail(token string) string {
	return l.withToken("/auth/confirm-email", token)
}

func (l Links) ResetPassword(token string) string {
	return l.withToken("/auth/password/reset", token)
}

func (l Links) ConfirmSupport(token string) string {
	return l.withToken("/support/confirm", token)
}

func (l Links) RoleChange(targetID string, role domain.Role, grant bool, token string) string {
	action := "revoke"
	if grant {
		action = "grant"
	}
	return l.withToken(fmt.Sprintf("/v1/users/%s/roles/%s/%s/confirm", targetID, role, action), token)
}

func (l Links) DeleteUser(targetID, token string) string {
	return l.withToken(fmt.Sprintf("/v1/users/%s/delete/confirm", targetID), token)
}

func (l Links) ApproveDeletion(reportID, token string) string {
	return l.withToken(fmt.Sprintf("/v1/deletion-requests/%s/approve", reportID), token)
}

func (l Links) RejectDeletion(reportID, token string) string {
	return l.withToken(fmt.Sprintf("/v1/deletion-requests/%s/reject", reportID), token)
}
