package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	UpstreamRequests   *prometheus.CounterVec
	GatewayFallbacks   *prometheus.CounterVec
	DisplayIDAllocated *prometheus.CounterVec
	SyncPushes         *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		UpstreamRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "matchsync_upstream_requests_total",
			Help: "Calls to the matching service by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		GatewayFallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "matchsync_gateway_fallbacks_total",
			Help: "Gateway responses served from fallback data.",
		}, []string{"endpoint"}),
		DisplayIDAllocated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "matchsync_display_ids_allocated_total",
			Help: "Display ids assigned, by path (new, repair).",
		}, []string{"path"}),
		SyncPushes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "matchsync_sync_pushes_total",
			Help: "Profile pushes to the matching service by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) ObserveUpstream(endpoint string, err error) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(endpoint, outcome(err)).Inc()
}

func (m *Metrics) IncFallback(endpoint string) {
	if m == nil {
		return
	}
	m.GatewayFallbacks.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) IncDisplayID(path string) {
	if m == nil {
		return
	}
	m.DisplayIDAllocated.WithLabelValues(path).Inc()
}

func (m *Metrics) ObserveSyncPush(err error) {
	if m == nil {
		return
	}
	m.SyncPushes.WithLabelValues(outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
