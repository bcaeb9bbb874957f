package metrics

import "time"

// Recorder defines observability hooks for probe, polling, and reload
// activity. Implementations may forward to Prometheus, OpenTelemetry, etc.
// The NoopRecorder is the default so injection stays optional.
type Recorder interface {
	ObserveProbe(network, alias, outcome string, d time.Duration)
	SetNetworkLinks(network string, healthy, monitored int)
	ObserveRPCRequest(method, status string, d time.Duration)
	IncRPCUnchanged(method string)
	IncConfigReload(success bool)
	IncNotifyPublished(subject string, success bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveProbe(string, string, string, time.Duration) {}
func (NoopRecorder) SetNetworkLinks(string, int, int)                   {}
func (NoopRecorder) ObserveRPCRequest(string, string, time.Duration)    {}
func (NoopRecorder) IncRPCUnchanged(string)                             {}
func (NoopRecorder) IncConfigReload(bool)                               {}
func (NoopRecorder) IncNotifyPublished(string, bool)                    {}
