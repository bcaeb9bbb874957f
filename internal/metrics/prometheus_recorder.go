package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	probes         *prom.CounterVec
	probeDuration  *prom.HistogramVec
	linksHealthy   *prom.GaugeVec
	linksMonitored *prom.GaugeVec
	rpcRequests    *prom.CounterVec
	rpcDuration    *prom.HistogramVec
	rpcUnchanged   *prom.CounterVec
	reloads        *prom.CounterVec
	notifications  *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.probes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "linkmon",
			Name:      "probes_total",
			Help:      "Probe cycles by network, link alias, and outcome",
		}, []string{"network", "alias", "outcome"})
		pr.probeDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "linkmon",
			Name:      "probe_duration_seconds",
			Help:      "Duration of individual probe cycles",
			Buckets:   prom.DefBuckets,
		}, []string{"network", "outcome"})
		pr.linksHealthy = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "linkmon",
			Name:      "links_healthy",
			Help:      "Links currently graded OK per network",
		}, []string{"network"})
		pr.linksMonitored = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "linkmon",
			Name:      "links_monitored",
			Help:      "Links under active monitoring per network",
		}, []string{"network"})
		pr.rpcRequests = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "linkmon",
			Name:      "rpc_requests_total",
			Help:      "JSON-RPC requests by method and status",
		}, []string{"method", "status"})
		pr.rpcDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "linkmon",
			Name:      "rpc_request_duration_seconds",
			Help:      "Duration of JSON-RPC request handling",
			Buckets:   prom.DefBuckets,
		}, []string{"method"})
		pr.rpcUnchanged = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "linkmon",
			Name:      "rpc_unchanged_total",
			Help:      "Polls answered with the abbreviated unchanged response",
		}, []string{"method"})
		pr.reloads = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "linkmon",
			Name:      "config_reloads_total",
			Help:      "Configuration reload attempts by result",
		}, []string{"result"})
		pr.notifications = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "linkmon",
			Name:      "notifications_published_total",
			Help:      "Status change notifications by subject and result",
		}, []string{"subject", "result"})
		reg.MustRegister(pr.probes, pr.probeDuration, pr.linksHealthy, pr.linksMonitored, pr.rpcRequests, pr.rpcDuration, pr.rpcUnchanged, pr.reloads, pr.notifications)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveProbe(network, alias, outcome string, d time.Duration) {
	if p == nil || p.probes == nil {
		return
	}
	p.probes.WithLabelValues(network, alias, outcome).Inc()
	p.probeDuration.WithLabelValues(network, outcome).Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetNetworkLinks(network string, healthy, monitored int) {
	if p == nil || p.linksHealthy == nil {
		return
	}
	p.linksHealthy.WithLabelValues(network).Set(float64(healthy))
	p.linksMonitored.WithLabelValues(network).Set(float64(monitored))
}

func (p *PrometheusRecorder) ObserveRPCRequest(method, status string, d time.Duration) {
	if p == nil || p.rpcRequests == nil {
		return
	}
	p.rpcRequests.WithLabelValues(method, status).Inc()
	p.rpcDuration.WithLabelValues(method).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRPCUnchanged(method string) {
	if p == nil || p.rpcUnchanged == nil {
		return
	}
	p.rpcUnchanged.WithLabelValues(method).Inc()
}

func (p *PrometheusRecorder) IncConfigReload(success bool) {
	if p == nil || p.reloads == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.reloads.WithLabelValues(res).Inc()
}

func (p *PrometheusRecorder) IncNotifyPublished(subject string, success bool) {
	if p == nil || p.notifications == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.notifications.WithLabelValues(subject, res).Inc()
}
