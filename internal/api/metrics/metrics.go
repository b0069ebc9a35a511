// Package metrics defines and registers all custom Prometheus metrics for the
// admin API. It is the single source of truth for metric names, labels, and
// help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lastmile"

// LoginAttemptsTotal counts credential checks.
// Label:
//   - result: "success" or "failure" (no finer detail; the API response is
//     equally opaque)
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, labelled by result.",
	},
	[]string{"result"},
)

// SessionsIssuedTotal counts sessions created by successful logins.
var SessionsIssuedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_issued_total",
		Help:      "Total number of sessions issued.",
	},
)

// SessionsRevokedTotal counts explicit logouts.
var SessionsRevokedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_revoked_total",
		Help:      "Total number of sessions revoked by logout.",
	},
)

// UsersCreatedTotal counts users provisioned through the admin panel.
var UsersCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_created_total",
		Help:      "Total number of users created via the admin API.",
	},
)

// UsersDeletedTotal counts admin-initiated user deletions.
var UsersDeletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_deleted_total",
		Help:      "Total number of users deleted via the admin API.",
	},
)

// RoleMutationsTotal counts role grants and revocations.
// Labels:
//   - op: "grant" or "revoke"
//   - result: "success" or "failure"
var RoleMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_mutations_total",
		Help:      "Total number of role grant/revoke operations.",
	},
	[]string{"op", "result"},
)

// AuditQueueDepth tracks entries waiting in each audit worker channel.
// Label:
//   - worker_id: numeric worker index
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit entries pending per dispatcher worker.",
	},
	[]string{"worker_id"},
)

// AuditDroppedTotal counts audit entries dropped because a worker channel was full.
var AuditDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_dropped_total",
		Help:      "Total number of audit entries dropped due to backpressure.",
	},
)
