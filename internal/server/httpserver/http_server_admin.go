package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"
)

func (s *Server) startAdminServerWithListener(_ context.Context, ln net.Listener) error {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc(s.cfg.Monitoring.Health.Path, s.monitoringHandlers.HandleHealthCheck)
	mux.HandleFunc("/healthz", s.monitoringHandlers.HandleHealthCheck) // Kubernetes-style alias
	// Readiness endpoint: only ready once the daemon reached running state
	mux.HandleFunc("/ready", s.monitoringHandlers.HandleReadiness)
	mux.HandleFunc("/readyz", s.monitoringHandlers.HandleReadiness) // Kubernetes-style alias

	// Metrics endpoint
	if s.cfg.Monitoring.Metrics.Enabled && s.opts.PrometheusHandler != nil {
		mux.Handle(s.cfg.Monitoring.Metrics.Path, s.opts.PrometheusHandler)
	}

	// Status page endpoint (HTML and JSON)
	mux.HandleFunc("/status", s.statusHandlers.HandleStatusPage)

	// Operator documentation
	mux.HandleFunc("/docs", s.docsHandlers.HandleDocs)

	s.adminServer = &http.Server{Handler: s.mchain(mux), ReadTimeout: 30 * time.Second, WriteTimeout: 30 * time.Second, IdleTimeout: 120 * time.Second}
	return s.startServerWithListener("admin", s.adminServer, ln)
}
