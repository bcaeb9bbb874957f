package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	derrors "git.home.luguber.info/inful/linkmon/internal/errors"
	"git.home.luguber.info/inful/linkmon/internal/logfields"
	"git.home.luguber.info/inful/linkmon/internal/metrics"
	"git.home.luguber.info/inful/linkmon/internal/netstate"
	"git.home.luguber.info/inful/linkmon/internal/server/responses"
)

const maxRequestBytes = 1 << 20

// rpcRequest is the JSON-RPC 2.0 request envelope.
type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// rpcResponse is the JSON-RPC 2.0 response envelope. ID marshals as
// null when the request id could not be read.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// StateAccess is the store surface the poll API runs against. Reads go
// straight to the store; the daemon routes the two mutators through its
// control loop so every write stays serialized.
type StateAccess interface {
	LinksSnapshot(network string) (netstate.LinksView, bool)
	StatusSnapshot(network string) (netstate.StatusView, bool)
	PackagesSnapshot(network string) (netstate.PackagesView, bool)
	NetworksView() []netstate.NetworkSummary

	PrePublish(ctx context.Context, network, path, name string) error
	PostPublish(ctx context.Context, network, trackUUID, path, name, packageID, timestamp string) error
}

// DirectState adapts a bare store to StateAccess for callers that do
// not serialize writes through a control loop.
type DirectState struct {
	*netstate.Store
}

func (d DirectState) PrePublish(_ context.Context, network, path, name string) error {
	return d.Store.PrePublish(network, path, name)
}

func (d DirectState) PostPublish(_ context.Context, network, trackUUID, path, name, packageID, timestamp string) error {
	return d.Store.PostPublish(network, trackUUID, path, name, packageID, timestamp)
}

// ReloadScheduler triggers an asynchronous configuration reload. The
// daemon's controller implements it.
type ReloadScheduler interface {
	ScheduleReload(path string)
}

// ServiceReporter enumerates daemon subsystem statuses for getStatus.
type ServiceReporter interface {
	ServiceStatuses() []responses.ServiceStatus
}

type rpcMethod func(ctx context.Context, params json.RawMessage) (any, error)

// RPCHandlers serves the poll API: JSON-RPC 2.0 over HTTP POST, single
// requests only. Every successful result carries a header with the
// coherency token of the category it read, so pollers holding the
// current token get the abbreviated unchanged form.
type RPCHandlers struct {
	state    StateAccess
	reload   ReloadScheduler
	services ServiceReporter
	recorder metrics.Recorder
	methods  map[string]rpcMethod
}

// NewRPCHandlers creates the poll API handlers over the given state.
// reload and services may be nil; the corresponding methods then report
// daemon unavailability.
func NewRPCHandlers(state StateAccess, reload ReloadScheduler, services ServiceReporter, recorder metrics.Recorder) *RPCHandlers {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	h := &RPCHandlers{state: state, reload: reload, services: services, recorder: recorder}
	h.methods = map[string]rpcMethod{
		"getLinks":    h.getLinks,
		"getStatus":   h.getStatus,
		"getPackages": h.getPackages,
		"getNetworks": h.getNetworks,
		"prePublish":  h.prePublish,
		"postPublish": h.postPublish,
		"fsChange":    h.fsChange,
	}
	return h
}

// HandleRPC decodes a single JSON-RPC request, dispatches it, and
// writes the response envelope. Batches are not supported; pollers
// issue one call per poll cycle.
func (h *RPCHandlers) HandleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		h.writeError(w, nil, "", derrors.RPCCodeParse, "parse error", nil)
		return
	}

	var req rpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.writeError(w, nil, "", derrors.RPCCodeParse, "parse error", nil)
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		h.writeError(w, req.ID, req.Method, derrors.RPCCodeInvalidRequest, "invalid request", nil)
		return
	}

	fn, ok := h.methods[req.Method]
	if !ok {
		h.writeError(w, req.ID, req.Method, derrors.RPCCodeMethodNotFound, "method not found", nil)
		return
	}

	start := time.Now()
	result, err := h.call(r.Context(), req.Method, fn, req.Params)
	if err != nil {
		h.recorder.ObserveRPCRequest(req.Method, "error", time.Since(start))
		h.writeError(w, req.ID, req.Method, derrors.RPCCodeFor(err), derrors.RPCMessageFor(err), derrors.RPCDataFor(err))
		return
	}
	h.recorder.ObserveRPCRequest(req.Method, "ok", time.Since(start))
	h.writeResult(w, req.ID, result)
}

// call runs one method, converting handler panics into internal errors
// so a bad request cannot take the envelope down with it.
func (h *RPCHandlers) call(ctx context.Context, method string, fn rpcMethod, params json.RawMessage) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("RPC handler panic", logfields.RPCMethod(method), "panic", rec)
			err = derrors.New(derrors.CategoryInternal, derrors.SeverityError, "internal error").Build()
		}
	}()
	return fn(ctx, params)
}

func (h *RPCHandlers) writeResult(w http.ResponseWriter, id json.RawMessage, result any) {
	resp := rpcResponse{JSONRPC: "2.0", ID: id, Result: result}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		slog.Error("failed writing RPC response", logfields.Error(err))
	}
}

func (h *RPCHandlers) writeError(w http.ResponseWriter, id json.RawMessage, method string, code int, message string, data map[string]any) {
	if method != "" {
		slog.Debug("RPC error response", logfields.RPCMethod(method), slog.Int("code", code))
	}
	resp := rpcResponse{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: message, Data: data}}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		slog.Error("failed writing RPC error response", logfields.Error(err))
	}
}

// decodeParams unmarshals by-name params strictly; unknown and
// positional params are rejected so client typos surface as invalid
// params instead of silently ignored options.
func decodeParams(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return derrors.Wrap(err, derrors.CategoryValidation, derrors.SeverityWarning, "invalid params").Build()
	}
	return nil
}
