package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Upload-API Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cinevault",
			Subsystem: "upload_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cinevault",
			Subsystem: "upload_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	// Upload counters
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cinevault",
			Subsystem: "upload_api",
			Name:      "uploads_total",
			Help:      "Total file uploads",
		},
		[]string{"path", "status"},
	)

	// Upload bytes counter
	UploadBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cinevault",
			Subsystem: "upload_api",
			Name:      "upload_bytes_total",
			Help:      "Total bytes uploaded",
		},
		[]string{"path"},
	)

	// Chunk relay counter
	ChunkSendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cinevault",
			Subsystem: "upload_api",
			Name:      "chunk_sends_total",
			Help:      "Total chunk relay attempts by outcome",
		},
		[]string{"outcome"},
	)

	// Provider request duration
	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cinevault",
			Subsystem: "upload_api",
			Name:      "provider_request_duration_seconds",
			Help:      "Storage provider request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"operation"},
	)

	// Active upload gauge
	ActiveUploads = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cinevault",
			Subsystem: "upload_api",
			Name:      "active_uploads",
			Help:      "Uploads currently in flight",
		},
	)

	// Storage operations counter
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cinevault",
			Subsystem: "upload_api",
			Name:      "storage_operations_total",
			Help:      "Total object storage operations",
		},
		[]string{"operation", "status"},
	)
)
