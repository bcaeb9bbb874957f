package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"git.home.luguber.info/inful/linkmon/internal/config"
	derrors "git.home.luguber.info/inful/linkmon/internal/errors"
	"git.home.luguber.info/inful/linkmon/internal/server/handlers"
	smw "git.home.luguber.info/inful/linkmon/internal/server/middleware"
)

// Server manages the two HTTP listeners: the api listener carrying the
// JSON-RPC poll API and the admin listener carrying health, metrics,
// docs, and the status page.
type Server struct {
	apiServer    *http.Server
	adminServer  *http.Server
	cfg          *config.Config
	opts         Options
	errorAdapter *derrors.HTTPErrorAdapter

	// Handler modules
	rpcHandlers        *handlers.RPCHandlers
	monitoringHandlers *handlers.MonitoringHandlers
	statusHandlers     *handlers.StatusPageHandlers
	docsHandlers       *handlers.DocsHandlers

	// middleware chain
	mchain func(http.Handler) http.Handler
}

// New constructs a new HTTP server wiring instance.
func New(cfg *config.Config, runtime Runtime, opts Options) *Server {
	s := &Server{
		cfg:          cfg,
		opts:         opts,
		errorAdapter: derrors.NewHTTPErrorAdapter(slog.Default()),
	}

	// Initialize handler modules. The runtime doubles as the reload
	// scheduler and the service reporter of the poll API.
	state := opts.State
	if state == nil {
		state = handlers.DirectState{Store: opts.Store}
	}
	s.rpcHandlers = handlers.NewRPCHandlers(state, runtime, runtime, opts.Recorder)
	s.monitoringHandlers = handlers.NewMonitoringHandlers(runtime, opts.Store)
	s.statusHandlers = handlers.NewStatusPageHandlers(runtime, opts.Store)
	s.docsHandlers = handlers.NewDocsHandlers()

	// Initialize middleware chain
	s.mchain = smw.Chain(slog.Default(), s.errorAdapter)

	return s
}

// Start pre-binds both listeners and starts serving. Binding before
// serving surfaces aggregate 'address already in use' failures at once
// instead of logging them after partial initialization.
func (s *Server) Start(ctx context.Context) error {
	type preBind struct {
		name string
		addr string
		ln   net.Listener
	}
	binds := []preBind{
		{name: "api", addr: s.cfg.Daemon.APIAddr},
		{name: "admin", addr: s.cfg.Daemon.AdminAddr},
	}
	var bindErrs []error
	lc := net.ListenConfig{}
	for i := range binds {
		ln, err := lc.Listen(ctx, "tcp", binds[i].addr)
		if err != nil {
			bindErrs = append(bindErrs, fmt.Errorf("%s listener %s: %w", binds[i].name, binds[i].addr, err))
			continue
		}
		binds[i].ln = ln
	}
	if len(bindErrs) > 0 {
		// Close any successful listeners before returning
		for _, b := range binds {
			if b.ln != nil {
				_ = b.ln.Close()
			}
		}
		return fmt.Errorf("http startup failed: %w", errors.Join(bindErrs...))
	}

	if err := s.startAPIServerWithListener(ctx, binds[0].ln); err != nil {
		return fmt.Errorf("failed to start api server: %w", err)
	}
	if err := s.startAdminServerWithListener(ctx, binds[1].ln); err != nil {
		return fmt.Errorf("failed to start admin server: %w", err)
	}

	slog.Info("HTTP servers started",
		slog.String("api_addr", s.cfg.Daemon.APIAddr),
		slog.String("admin_addr", s.cfg.Daemon.AdminAddr))
	return nil
}

// Stop gracefully shuts down both HTTP servers.
func (s *Server) Stop(ctx context.Context) error {
	var errs []error

	// Stop servers in reverse order
	if s.adminServer != nil {
		if err := s.adminServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("admin server shutdown: %w", err))
		}
	}

	if s.apiServer != nil {
		if err := s.apiServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("api server shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	slog.Info("HTTP servers stopped")
	return nil
}

// startServerWithListener launches an http.Server on a pre-bound listener or binds itself.
// It standardizes goroutine startup and error logging across server types.
func (s *Server) startServerWithListener(kind string, srv *http.Server, ln net.Listener) error {
	go func() {
		var err error
		if ln != nil {
			err = srv.Serve(ln)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			slog.Error(fmt.Sprintf("%s server error", kind), "error", err)
		}
	}()
	return nil
}
