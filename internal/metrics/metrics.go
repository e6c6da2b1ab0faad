// Package metrics exposes Prometheus collectors for the settlement
// listener and the reconciliation engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsProcessed counts settlement events handed to the event handler,
	// labeled by event name
	EventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_events_processed_total",
		Help: "Total number of settlement events processed",
	}, []string{"event"})

	// HandlerFailures counts handler errors; the listener logs and keeps
	// going, so this is the only place failures accumulate
	HandlerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_handler_failures_total",
		Help: "Total number of event handler failures",
	}, []string{"event"})

	// Reconnects counts listener reconnection attempts
	Reconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_listener_reconnects_total",
		Help: "Total number of listener reconnection attempts",
	})

	// Connected reports whether the listener currently holds a live
	// subscription (1) or not (0)
	Connected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "settlement_listener_connected",
		Help: "Whether the listener is connected to the chain node",
	})

	// ReconcilePasses counts reconciliation passes by outcome (ok, error)
	ReconcilePasses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_passes_total",
		Help: "Total number of reconciliation passes",
	}, []string{"result"})

	// DiscrepanciesCreated counts discrepancy rows created, by status
	DiscrepanciesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_discrepancies_created_total",
		Help: "Total number of discrepancies created",
	}, []string{"status"})

	// UnresolvedDiscrepancies is the unresolved discrepancy count observed
	// at the end of the latest pass
	UnresolvedDiscrepancies = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reconcile_unresolved_discrepancies",
		Help: "Number of unresolved discrepancies after the latest pass",
	})

	// ThresholdAlerts counts threshold alerts raised by the engine
	ThresholdAlerts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reconcile_threshold_alerts_total",
		Help: "Total number of discrepancy threshold alerts raised",
	})

	// PaymentsHealed counts auto-healed payments (missing tx hash filled in)
	PaymentsHealed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reconcile_payments_healed_total",
		Help: "Total number of payments auto-healed with a chain tx hash",
	})
)
