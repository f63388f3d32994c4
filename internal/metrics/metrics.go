// Package metrics defines and registers the custom Prometheus metrics of the
// CRM backend. It is the single source of truth for metric names, labels and
// help strings.
//
// Metrics are registered with the default registry on package init via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "crm"

// ── Client metrics ────────────────────────────────────────────────────────────

// ClientsCreatedTotal counts newly created clients.
// Label:
//   - kind: "individual", "organization", or "none" when no document was given
var ClientsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "clients_created_total",
		Help:      "Total number of clients created, by document kind.",
	},
	[]string{"kind"},
)

// UniquenessConflictsTotal counts writes rejected because a unique value was taken.
// Label:
//   - field: "email", "phone", "personal_document" or "organization_document"
var UniquenessConflictsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uniqueness_conflicts_total",
		Help:      "Total number of writes rejected by a uniqueness check, by field.",
	},
	[]string{"field"},
)

// ── Opportunity metrics ───────────────────────────────────────────────────────

// OpportunitiesCreatedTotal counts newly created opportunities.
var OpportunitiesCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "opportunities_created_total",
		Help:      "Total number of opportunities created.",
	},
)

// StatusTransitionsTotal counts status-change attempts.
// Labels:
//   - from, to: the current and requested status
//   - result: "applied" or "rejected"
var StatusTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "status_transitions_total",
		Help:      "Total number of opportunity status-change attempts, by outcome.",
	},
	[]string{"from", "to", "result"},
)

// ── Status event metrics ──────────────────────────────────────────────────────

// StatusEventsRecordedTotal counts status-change events written to the audit trail.
// Label:
//   - result: "ok" or "error"
var StatusEventsRecordedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "status_events_recorded_total",
		Help:      "Total number of status-change events recorded, by result.",
	},
	[]string{"result"},
)

// StatusEventsQueueDepth tracks the number of events waiting in each worker channel.
var StatusEventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "status_events_queue_depth",
		Help:      "Current number of status-change events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// StatusEventRecordDuration measures how long recording a single event takes.
var StatusEventRecordDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "status_event_record_duration_seconds",
		Help:      "Duration of status-change event recording from dequeue to persistence.",
		Buckets:   prometheus.DefBuckets,
	},
)
