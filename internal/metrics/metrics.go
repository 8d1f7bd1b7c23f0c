// Package metrics defines and registers the custom Prometheus collectors for
// blogkeeper. Collectors are registered on the default registry at init via
// promauto and exposed by the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "blogkeeper"

// ── Token metrics ─────────────────────────────────────────────────────────────

// TokensIssuedTotal counts minted capability tokens.
// Label:
//   - purpose: the token purpose (e.g. "email-verify")
var TokensIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Total number of capability tokens issued, by purpose.",
	},
	[]string{"purpose"},
)

// TokensVerifiedTotal counts verification attempts.
// Labels:
//   - purpose: the purpose the caller expected
//   - result: "ok", "expired", "invalid" or "purpose_mismatch"
var TokensVerifiedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_verified_total",
		Help:      "Total number of capability token verifications, by purpose and result.",
	},
	[]string{"purpose", "result"},
)

// ── Retention metrics ─────────────────────────────────────────────────────────

// ArchiveOperationsTotal counts archive engine operations.
// Labels:
//   - op: "archive", "restore" or "purge"
//   - result: "ok" or "error"
var ArchiveOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "archive_operations_total",
		Help:      "Total number of archive engine operations, by operation and result.",
	},
	[]string{"op", "result"},
)

// ScrubRemovedTotal counts records removed by the consistency scrubber.
// Label:
//   - kind: entity kind (e.g. "comments", "notifications")
var ScrubRemovedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scrub_removed_total",
		Help:      "Total number of orphaned records removed, by entity kind.",
	},
	[]string{"kind"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsSentTotal counts outbound messages.
// Label:
//   - result: "ok" or "failed"
var NotificationsSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_sent_total",
		Help:      "Total number of outbound notification messages, by result.",
	},
	[]string{"result"},
)
