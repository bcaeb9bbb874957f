package httpserver

import (
	"net/http"
	"time"

	"git.home.luguber.info/inful/linkmon/internal/metrics"
	"git.home.luguber.info/inful/linkmon/internal/netstate"
	"git.home.luguber.info/inful/linkmon/internal/server/handlers"
	"git.home.luguber.info/inful/linkmon/internal/server/responses"
)

// Runtime is the minimal daemon surface the shared HTTP handlers need.
// It is the union of the interfaces in internal/server/handlers.
type Runtime interface {
	GetStatus() string
	GetStartTime() time.Time
	GetConfigFilePath() string

	ScheduleReload(path string)
	ServiceStatuses() []responses.ServiceStatus
}

// Options configures additional server wiring that is runtime-specific.
type Options struct {
	// Store backs the admin surface reads (status page, health counts).
	Store *netstate.Store

	// State backs the poll API. Leave nil to read and write the Store
	// directly; the daemon supplies a serializing implementation.
	State handlers.StateAccess

	// Recorder observes RPC traffic. Nil disables observation.
	Recorder metrics.Recorder

	// PrometheusHandler serves the configured metrics path on the admin
	// listener when metrics are enabled.
	PrometheusHandler http.Handler
}
