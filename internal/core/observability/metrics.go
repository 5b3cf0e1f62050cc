package observability

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "operations_total",
			Help: "Evaluated operation requests by top-level operator, shape and outcome.",
		},
		[]string{"operator", "shape", "outcome"},
	)

	operationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "operation_duration_seconds",
			Help:    "Wall time from request receipt to the last response message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 16),
		},
		[]string{"operator"},
	)

	streamMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_messages_total",
			Help: "Response messages written to clients.",
		},
		[]string{"transport"},
	)

	srMismatchTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sr_mismatch_total",
			Help: "Nodes whose input references differed under an explicit operation reference.",
		},
	)

	spatialRefCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spatial_ref_cache_total",
			Help: "Parsed spatial reference cache lookups by outcome.",
		},
		[]string{"outcome"},
	)

	registryOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_ops_total",
			Help: "Spatial reference registry operations by result.",
		},
		[]string{"op", "result"},
	)

	registryOpDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "registry_op_duration_seconds",
			Help:    "Latency of spatial reference registry operations.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"op"},
	)

	invalidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sr_invalidations_total",
			Help: "Spatial reference invalidation events by direction and result.",
		},
		[]string{"direction", "result"},
	)

	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		httpRequestsTotal, httpRequestDurationSeconds,
		operationsTotal, operationDurationSeconds, streamMessagesTotal,
		srMismatchTotal, spatialRefCacheTotal,
		registryOpsTotal, registryOpDurationSeconds,
		invalidationsTotal,
	}
}

// Init additionally registers the service collectors with reg, typically the
// dedicated registry served on the metrics port.
func Init(reg prometheus.Registerer, enabled bool) {
	if !enabled || reg == nil {
		return
	}
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				panic(err)
			}
		}
	}
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveOperation(operator, shape, outcome string, durationSeconds float64) {
	if operator == "" {
		operator = "none"
	}
	operationsTotal.WithLabelValues(operator, shape, outcome).Inc()
	operationDurationSeconds.WithLabelValues(operator).Observe(durationSeconds)
}

func IncStreamMessage(transport string) {
	streamMessagesTotal.WithLabelValues(transport).Inc()
}

func IncSRMismatch() { srMismatchTotal.Inc() }

func IncSpatialRefCache(outcome string) {
	spatialRefCacheTotal.WithLabelValues(outcome).Inc()
}

func ObserveRegistryOp(op string, err error, durationSeconds float64) {
	res := "ok"
	if err != nil {
		res = "error"
	}
	registryOpsTotal.WithLabelValues(op, res).Inc()
	registryOpDurationSeconds.WithLabelValues(op).Observe(durationSeconds)
}

// ObserveInvalidation counts a published ("out") or consumed ("in") event.
func ObserveInvalidation(direction string, err error) {
	res := "ok"
	if err != nil {
		res = "error"
	}
	invalidationsTotal.WithLabelValues(direction, res).Inc()
}

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
