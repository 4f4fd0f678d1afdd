package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "companion",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "companion",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 30},
	}, []string{"method", "path"})

	TransfersStartedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "companion",
		Name:      "transfers_started_total",
		Help:      "Total download transfers started.",
	})

	TransfersCompletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "companion",
		Name:      "transfers_completed_total",
		Help:      "Total download transfers completed successfully.",
	})

	TransfersCancelledTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "companion",
		Name:      "transfers_cancelled_total",
		Help:      "Total download transfers cancelled by the user.",
	})

	TransfersFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "companion",
		Name:      "transfers_failed_total",
		Help:      "Total download transfers that failed.",
	})

	TransferProgress = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "companion",
		Name:      "transfer_progress_ratio",
		Help:      "Fraction complete of the active transfer, 0 when idle.",
	})

	DownloadsIndexed = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "companion",
		Name:      "downloads_indexed",
		Help:      "Number of completed downloads in the index.",
	})

	HistoryEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "companion",
		Name:      "history_entries",
		Help:      "Number of entries in the watch history log.",
	})

	BackendRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "companion",
		Name:      "backend_requests_total",
		Help:      "Total requests issued to the remote backend by outcome.",
	}, []string{"outcome"})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		TransfersStartedTotal,
		TransfersCompletedTotal,
		TransfersCancelledTotal,
		TransfersFailedTotal,
		TransferProgress,
		DownloadsIndexed,
		HistoryEntries,
		BackendRequestsTotal,
	)
}
