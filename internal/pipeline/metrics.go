package pipeline

import "github.com/prometheus/client_golang/prometheus"

var (
	reportsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carelens_reports_processed_total",
			Help: "Total number of reports that reached a terminal status.",
		},
		[]string{"status"},
	)
	extractionFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "carelens_extraction_failures_total",
			Help: "Total number of text extraction failures.",
		},
	)
	analysisFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "carelens_analysis_fallbacks_total",
			Help: "Total number of reports finished with the degraded analysis summary.",
		},
	)
)

func init() {
	prometheus.MustRegister(reportsProcessed, extractionFailures, analysisFallbacks)
}
