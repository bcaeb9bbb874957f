// Package probe issues JSON-RPC health checks against monitored link
// upstreams and classifies the results for the state store.
package probe

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/http2"

	"git.home.luguber.info/inful/linkmon/internal/logfields"
	"git.home.luguber.info/inful/linkmon/internal/metrics"
	"git.home.luguber.info/inful/linkmon/internal/netstate"
)

const defaultCheckMethod = "rpc.discover"

// maxResponseBytes caps how much of an upstream reply we are willing to parse.
const maxResponseBytes = 1 << 20

// Options tunes the prober.
type Options struct {
	Timeout       time.Duration // per-attempt HTTP timeout
	RetryDelay    time.Duration // pause before the second attempt
	MaxConcurrent int           // bound on in-flight probes per sweep
	UserAgent     string
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 200 * time.Millisecond
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = 10
	}
	if o.UserAgent == "" {
		o.UserAgent = "linkmon-prober/1.0"
	}
	return o
}

// Result is the classified outcome of one probe cycle against one link.
type Result struct {
	Target    netstate.ProbeTarget
	Outcome   netstate.Outcome
	Latency   time.Duration
	ErrorInfo string
}

// Prober drives health checks. It keeps one standard client and one
// cleartext HTTP/2 client for upstreams that speak h2c.
type Prober struct {
	opts      Options
	client    *http.Client
	h2cClient *http.Client
	sem       chan struct{}
	recorder  metrics.Recorder
}

// NewProber builds a prober with bounded concurrency and both transports
// ready.
func NewProber(opts Options) *Prober {
	opts = opts.withDefaults()

	transport := http.DefaultTransport.(*http.Transport).Clone()

	h2c := &http2.Transport{
		AllowHTTP: true,
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
	}

	return &Prober{
		opts:      opts,
		client:    &http.Client{Timeout: opts.Timeout, Transport: transport},
		h2cClient: &http.Client{Timeout: opts.Timeout, Transport: h2c},
		sem:       make(chan struct{}, opts.MaxConcurrent),
		recorder:  metrics.NoopRecorder{},
	}
}

// WithRecorder injects a metrics recorder and returns the prober.
func (p *Prober) WithRecorder(rec metrics.Recorder) *Prober {
	if rec != nil {
		p.recorder = rec
	}
	return p
}

// Sweep probes every target with bounded concurrency and hands each
// result to apply. It returns once all probes finished or ctx ended.
func (p *Prober) Sweep(ctx context.Context, targets []netstate.ProbeTarget, apply func(Result)) error {
	var wg sync.WaitGroup
	for _, target := range targets {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		default:
		}

		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case p.sem <- struct{}{}:
		}
		wg.Add(1)
		go func(target netstate.ProbeTarget) {
			defer wg.Done()
			defer func() { <-p.sem }()
			apply(p.Probe(ctx, target))
		}(target)
	}
	wg.Wait()
	return nil
}

// Probe runs one probe cycle: a first attempt, and for transient
// failures a single retry. Upstream rejections (HTTP 4xx) are final on
// the first attempt.
func (p *Prober) Probe(ctx context.Context, target netstate.ProbeTarget) Result {
	start := time.Now()
	latency, err := p.attempt(ctx, target)
	if err == nil {
		res := Result{Target: target, Outcome: netstate.OutcomeFirstTry, Latency: latency}
		p.record(res, time.Since(start))
		return res
	}

	kind := classify(err)
	if kind == netstate.OutcomeBadRequest {
		res := Result{Target: target, Outcome: kind, ErrorInfo: err.Error()}
		p.record(res, time.Since(start))
		return res
	}

	select {
	case <-ctx.Done():
		res := Result{Target: target, Outcome: kind, ErrorInfo: err.Error()}
		p.record(res, time.Since(start))
		return res
	case <-time.After(p.opts.RetryDelay):
	}

	latency, retryErr := p.attempt(ctx, target)
	if retryErr == nil {
		res := Result{Target: target, Outcome: netstate.OutcomeRetry, Latency: latency}
		p.record(res, time.Since(start))
		return res
	}

	res := Result{Target: target, Outcome: classify(retryErr), ErrorInfo: retryErr.Error()}
	p.record(res, time.Since(start))
	return res
}

func (p *Prober) record(res Result, d time.Duration) {
	p.recorder.ObserveProbe(res.Target.Network, res.Target.Alias, string(res.Outcome), d)
	if !res.Outcome.Success() {
		slog.Debug("Probe failed",
			logfields.Network(res.Target.Network),
			logfields.Alias(res.Target.Alias),
			logfields.URL(res.Target.URL),
			logfields.Outcome(string(res.Outcome)),
			slog.String(logfields.KeyError, res.ErrorInfo))
	}
}

// statusError marks a reply the upstream itself produced, as opposed to
// a transport failure.
type statusError struct {
	code int
	msg  string
}

func (e *statusError) Error() string { return e.msg }

// rpcRequest is the minimal JSON-RPC 2.0 call envelope.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	ID      int    `json:"id"`
}

type rpcReply struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// attempt performs one JSON-RPC health call and returns its latency.
func (p *Prober) attempt(ctx context.Context, target netstate.ProbeTarget) (time.Duration, error) {
	method := target.Method
	if method == "" {
		method = defaultCheckMethod
	}

	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: method, ID: 1})
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", p.opts.UserAgent)

	client := p.client
	if target.H2C {
		client = p.h2cClient
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, &transportError{cause: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return 0, &statusError{code: resp.StatusCode, msg: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.Status)}
	}

	var reply rpcReply
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&reply); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	if reply.Error != nil {
		return 0, fmt.Errorf("rpc error %d: %s", reply.Error.Code, reply.Error.Message)
	}

	return time.Since(start), nil
}

type transportError struct {
	cause error
}

func (e *transportError) Error() string { return "request failed: " + e.cause.Error() }
func (e *transportError) Unwrap() error { return e.cause }

// classify maps an attempt error to the outcome bucket the statistics
// use: transport failures count against the network, HTTP 4xx against
// the request, everything else is lumped together.
func classify(err error) netstate.Outcome {
	var se *statusError
	if errors.As(err, &se) {
		if se.code >= 400 && se.code < 500 {
			return netstate.OutcomeBadRequest
		}
		return netstate.OutcomeOther
	}
	var te *transportError
	if errors.As(err, &te) {
		return netstate.OutcomeNetworkDown
	}
	return netstate.OutcomeOther
}
