package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"
)

func (s *Server) startAPIServerWithListener(_ context.Context, ln net.Listener) error {
	mux := http.NewServeMux()

	// JSON-RPC 2.0 poll API at the root path.
	mux.HandleFunc("/", s.rpcHandlers.HandleRPC)

	s.apiServer = &http.Server{Handler: s.mchain(mux), ReadTimeout: 30 * time.Second, WriteTimeout: 30 * time.Second, IdleTimeout: 120 * time.Second}
	return s.startServerWithListener("api", s.apiServer, ln)
}
