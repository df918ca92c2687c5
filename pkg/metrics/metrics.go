package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	curator = "curator"

	// Pipeline metrics
	transitionsTotal    = "state_transitions_total"
	rejectionsTotal     = "rejections_total"
	gateResultsTotal    = "gate_results_total"
	leaseContentionTotal = "lease_contention_total"
	leasesReclaimedTotal = "leases_reclaimed_total"
	RetryQueueDepth     = "retry_queue_depth"

	// Labels
	fromStateLabel  = "from_state"
	toStateLabel    = "to_state"
	gateNameLabel   = "gate"
	gateStatusLabel = "status"
	reasonLabel     = "reason"
)

/**
* Metrics definition
**/
var transitionsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: curator,
		Name:      transitionsTotal,
		Help:      "number of recorded item state transitions",
	},
	[]string{fromStateLabel, toStateLabel},
)

var rejectionsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: curator,
		Name:      rejectionsTotal,
		Help:      "number of items terminally rejected",
	},
	[]string{reasonLabel},
)

var gateResultsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: curator,
		Name:      gateResultsTotal,
		Help:      "number of quality gate results by gate and status",
	},
	[]string{gateNameLabel, gateStatusLabel},
)

var leaseContentionTotalMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: curator,
		Name:      leaseContentionTotal,
		Help:      "number of lease acquisitions refused because the unit was held",
	},
)

var leasesReclaimedTotalMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: curator,
		Name:      leasesReclaimedTotal,
		Help:      "number of stale leases reclaimed",
	},
)

var retryQueueDepthMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: curator,
		Name:      RetryQueueDepth,
		Help:      "number of pending retry queue entries",
	},
)

func IncreaseTransitionsTotalMetric(fromState, toState string) {
	transitionsTotalMetric.With(prometheus.Labels{
		fromStateLabel: fromState,
		toStateLabel:   toState,
	}).Inc()
}

func IncreaseRejectionsTotalMetric(reason string) {
	rejectionsTotalMetric.With(prometheus.Labels{reasonLabel: reason}).Inc()
}

func IncreaseGateResultsTotalMetric(gate, status string) {
	gateResultsTotalMetric.With(prometheus.Labels{
		gateNameLabel:   gate,
		gateStatusLabel: status,
	}).Inc()
}

func IncreaseLeaseContentionTotalMetric() {
	leaseContentionTotalMetric.Inc()
}

func AddLeasesReclaimedTotalMetric(count int64) {
	leasesReclaimedTotalMetric.Add(float64(count))
}

func UpdateRetryQueueDepthMetric(depth int64) {
	retryQueueDepthMetric.Set(float64(depth))
}

type PrometheusMetricsHandler struct{}

func NewPrometheusMetricsHandler() *PrometheusMetricsHandler {
	return &PrometheusMetricsHandler{}
}

func (h *PrometheusMetricsHandler) Handler() http.Handler {
	return promhttp.Handler()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(transitionsTotalMetric)
	prometheus.MustRegister(rejectionsTotalMetric)
	prometheus.MustRegister(gateResultsTotalMetric)
	prometheus.MustRegister(leaseContentionTotalMetric)
	prometheus.MustRegister(leasesReclaimedTotalMetric)
	prometheus.MustRegister(retryQueueDepthMetric)
}
