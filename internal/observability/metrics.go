package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var PostingsCommitted = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "debt_ledger_postings_committed_total",
	Help: "Financial events committed to the debt ledger, by event kind.",
}, []string{"kind"})

var PostingsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "debt_ledger_postings_rejected_total",
	Help: "Financial events rejected before or during posting, by event kind and error kind.",
}, []string{"kind", "reason"})

var ReportRuns = promauto.NewCounter(prometheus.CounterOpts{
	Name: "debt_ledger_report_runs_total",
	Help: "Debt report reconstructions served.",
})
