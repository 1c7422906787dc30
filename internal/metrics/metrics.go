package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ReconciliationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_reconciliations_total",
			Help: "Terminal reconciliation outcomes",
		},
		[]string{"kind", "outcome"},
	)

	DuplicateEventsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_duplicate_events_total",
			Help: "Callback or expiry events dropped by the at-most-once guard",
		},
	)

	ParseFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_callback_parse_failures_total",
			Help: "Redirect URLs that failed provider parsing",
		},
	)

	ConfirmRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_confirm_retries_total",
			Help: "User-driven retries of backend confirmation",
		},
	)

	AmountMismatchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_amount_mismatches_total",
			Help: "Callbacks whose amount differed from the pending transaction",
		},
	)
)

func Init() {
	prometheus.MustRegister(ReconciliationsTotal)
	prometheus.MustRegister(DuplicateEventsTotal)
	prometheus.MustRegister(ParseFailuresTotal)
	prometheus.MustRegister(ConfirmRetriesTotal)
	prometheus.MustRegister(AmountMismatchesTotal)
}
