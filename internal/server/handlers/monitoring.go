package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/linkmon/internal/errors"
	"git.home.luguber.info/inful/linkmon/internal/netstate"
	"git.home.luguber.info/inful/linkmon/internal/server/responses"
	"git.home.luguber.info/inful/linkmon/internal/version"
)

// MonitoringHandlers contains health and readiness HTTP handlers.
type MonitoringHandlers struct {
	daemon       DaemonInterface
	store        *netstate.Store
	errorAdapter *errors.HTTPErrorAdapter
}

// DaemonInterface defines the daemon methods needed by monitoring handlers.
type DaemonInterface interface {
	GetStatus() string
	GetStartTime() time.Time
}

// NewMonitoringHandlers creates a new monitoring handlers instance.
func NewMonitoringHandlers(daemon DaemonInterface, store *netstate.Store) *MonitoringHandlers {
	return &MonitoringHandlers{
		daemon:       daemon,
		store:        store,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// HandleHealthCheck handles the health check endpoint.
func (h *MonitoringHandlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		err := errors.ValidationError("invalid HTTP method").
			WithContext("method", r.Method).
			WithContext("allowed_method", "GET").
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	health := &responses.HealthResponse{
		Status:       "healthy",
		Timestamp:    time.Now().UTC(),
		Version:      version.Version,
		Uptime:       time.Since(h.daemon.GetStartTime()).Seconds(),
		DaemonStatus: h.daemon.GetStatus(),
	}
	if h.store != nil {
		health.Networks = len(h.store.NetworksView())
	}

	if err := writeJSONPretty(w, r, http.StatusOK, health); err != nil {
		internalErr := errors.WrapError(err, errors.CategoryInternal, "failed to write health response").
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, internalErr)
	}
}

// HandleReadiness reports ready once the daemon reached its running
// state, meaning configuration is loaded and the probe scheduler is up.
func (h *MonitoringHandlers) HandleReadiness(w http.ResponseWriter, _ *http.Request) {
	status := h.daemon.GetStatus()
	if status == "running" {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready: " + status))
}
