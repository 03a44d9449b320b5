package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "sensei_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	reconcileTotal   *prometheus.CounterVec
	reconcileLatency *prometheus.HistogramVec
	projectedEntries prometheus.Histogram

	billingCandidates *prometheus.CounterVec
	messageSends      *prometheus.CounterVec
	messageLatency    *prometheus.HistogramVec
	reminderRuns      *prometheus.CounterVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	checkoutTotal *prometheus.CounterVec
)

// Init registers metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		reconcileTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reconcile_total",
				Help: "Total ledger reconciliations by result",
			},
			[]string{"result"},
		)
		reconcileLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "reconcile_latency_seconds",
				Help:    "Ledger reconciliation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		projectedEntries = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "reconcile_projected_entries",
				Help:    "Projected entries produced per reconciliation",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
			},
		)

		billingCandidates = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "billing_candidates_total",
				Help: "Billing reminder candidates selected by kind",
			},
			[]string{"kind"},
		)
		messageSends = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "message_sends_total",
				Help: "Outbound WhatsApp messages by source and result",
			},
			[]string{"source", "result"},
		)
		messageLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "message_send_latency_seconds",
				Help:    "Gateway send latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		reminderRuns = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "due_day_reminder_runs_total",
				Help: "Due-day reminder runs by mode and result",
			},
			[]string{"mode", "result"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total report exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		checkoutTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "pos_checkout_total",
				Help: "Point-of-sale checkouts by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			reconcileTotal,
			reconcileLatency,
			projectedEntries,
			billingCandidates,
			messageSends,
			messageLatency,
			reminderRuns,
			exportTotal,
			exportLatency,
			checkoutTotal,
		)

		if db != nil {
			prometheus.MustRegister(newBackofficeCollector(db, logger))
		}
	})
}

// ObserveReconcile records a reconciliation and how many entries it projected.
func ObserveReconcile(result string, projected int, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if reconcileTotal != nil {
		reconcileTotal.WithLabelValues(result).Inc()
	}
	if reconcileLatency != nil {
		reconcileLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
	if projectedEntries != nil && result == resultSuccess {
		projectedEntries.Observe(float64(projected))
	}
}

// AddBillingCandidates counts selected candidates of a kind.
func AddBillingCandidates(kind string, count int) {
	if count <= 0 {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	if billingCandidates != nil {
		billingCandidates.WithLabelValues(kind).Add(float64(count))
	}
}

// ObserveMessageSend records one gateway send.
func ObserveMessageSend(source, result string, duration time.Duration) {
	if source == "" {
		source = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if messageSends != nil {
		messageSends.WithLabelValues(source, result).Inc()
	}
	if messageLatency != nil {
		messageLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncReminderRun counts a due-day reminder run.
func IncReminderRun(dryRun bool, result string) {
	mode := "live"
	if dryRun {
		mode = "dry_run"
	}
	if result == "" {
		result = resultSuccess
	}
	if reminderRuns != nil {
		reminderRuns.WithLabelValues(mode, result).Inc()
	}
}

// ObserveExport records export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncCheckout counts a point-of-sale checkout.
func IncCheckout(result string) {
	if result == "" {
		result = resultSuccess
	}
	if checkoutTotal != nil {
		checkoutTotal.WithLabelValues(result).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError

	SourceBatch    = "batch"
	SourceReminder = "reminder"
)
