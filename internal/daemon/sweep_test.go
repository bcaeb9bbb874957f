package daemon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/linkmon/internal/config"
	"git.home.luguber.info/inful/linkmon/internal/daemon/events"
	"git.home.luguber.info/inful/linkmon/internal/metrics"
	"git.home.luguber.info/inful/linkmon/internal/netstate"
)

// captureRecorder records the gauge and reload counter calls the tests
// care about; everything else falls through to the noop methods.
type captureRecorder struct {
	metrics.NoopRecorder

	mu      sync.Mutex
	gauges  map[string][2]int
	reloads []bool
}

func (r *captureRecorder) SetNetworkLinks(network string, monitored, healthy int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gauges == nil {
		r.gauges = make(map[string][2]int)
	}
	r.gauges[network] = [2]int{monitored, healthy}
}

func (r *captureRecorder) IncConfigReload(success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reloads = append(r.reloads, success)
}

func (r *captureRecorder) networkGauge(network string) ([2]int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gauges[network]
	return g, ok
}

func (r *captureRecorder) reloadCount(success bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.reloads {
		if s == success {
			n++
		}
	}
	return n
}

func rpcUpstream(t *testing.T, healthy bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if !healthy {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"status":"ok"}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunSweepAppliesResults(t *testing.T) {
	healthy := rpcUpstream(t, true)
	failing := rpcUpstream(t, false)

	cfg := testConfig(t)
	cfg.Probe.RetryDelay = "5ms"
	cfg.Networks = []config.NetworkConfig{{
		Name:        "main",
		CheckMethod: "system.health",
		Links: []config.LinkConfig{
			{Alias: "good", URL: healthy.URL, Priority: 1},
			{Alias: "bad", URL: failing.URL, Priority: 2},
		},
	}}

	d, err := NewDaemon(cfg, "")
	require.NoError(t, err)
	rec := &captureRecorder{}
	d.recorder = rec

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.ctrl.Run(ctx)

	changes, unsubChanges := events.Subscribe[events.StatusChanged](d.bus, 16)
	defer unsubChanges()
	sweeps, unsubSweeps := events.Subscribe[events.SweepCompleted](d.bus, 1)
	defer unsubSweeps()

	d.runSweep(ctx)

	view, ok := d.store.LinksSnapshot("main")
	require.True(t, ok)
	require.Len(t, view.Links, 2)

	byAlias := make(map[string]netstate.LinkView)
	for _, l := range view.Links {
		byAlias[l.Alias] = l
	}
	require.Equal(t, netstate.StatusOK, byAlias["good"].Status)
	require.Equal(t, netstate.StatusDown, byAlias["bad"].Status)
	require.NotEmpty(t, byAlias["bad"].ErrorInfo)

	select {
	case ev := <-sweeps:
		require.Equal(t, 2, ev.Probes)
		require.NotZero(t, ev.Transitions)
	case <-time.After(2 * time.Second):
		t.Fatal("no sweep completion event received")
	}

	// Both links left the unknown state, so their transitions must have
	// been announced alongside the network-level one.
	seen := make(map[string]netstate.Status)
	deadline := time.After(2 * time.Second)
	for len(seen) < 2 {
		select {
		case ev := <-changes:
			if ev.Transition.Alias != "" {
				seen[ev.Transition.Alias] = ev.Transition.To
			}
		case <-deadline:
			t.Fatalf("missing link transitions, saw %v", seen)
		}
	}
	require.Equal(t, netstate.StatusOK, seen["good"])
	require.Equal(t, netstate.StatusDown, seen["bad"])

	d.refreshGauges()
	gauge, ok := rec.networkGauge("main")
	require.True(t, ok)
	require.Equal(t, [2]int{2, 1}, gauge)
}

func TestRunSweepWithoutTargets(t *testing.T) {
	cfg := testConfig(t)
	monitored := false
	cfg.Networks[0].Links[0].Monitored = &monitored

	d, err := NewDaemon(cfg, "")
	require.NoError(t, err)

	// No control loop is running; with nothing to probe the sweep must
	// return without submitting commands.
	d.runSweep(context.Background())
}

func TestAnnounceTransitionPublishesEvent(t *testing.T) {
	d, err := NewDaemon(testConfig(t), "")
	require.NoError(t, err)

	changes, unsubscribe := events.Subscribe[events.StatusChanged](d.bus, 1)
	defer unsubscribe()

	tr := netstate.Transition{
		Network: "main",
		Alias:   "primary",
		From:    netstate.StatusOK,
		To:      netstate.StatusDown,
		At:      time.Now(),
	}
	d.announceTransition(context.Background(), tr)

	select {
	case ev := <-changes:
		require.Equal(t, tr, ev.Transition)
	case <-time.After(time.Second):
		t.Fatal("no status change event received")
	}
}
