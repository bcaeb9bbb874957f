// Package metrics provides an observability framework for link monitoring.
//
// The package implements the Null Object pattern so components never nil-check
// their recorder: everything defaults to NoopRecorder, and the daemon swaps in
// PrometheusRecorder when metrics are enabled in the configuration.
//
// Components receive a Recorder through dependency injection:
//
//	type Prober struct {
//	    recorder metrics.Recorder
//	}
//
// The admin server exposes the registry on /metrics via HTTPHandler.
package metrics
