package daemon

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/linkmon/internal/config"
	"git.home.luguber.info/inful/linkmon/internal/server/responses"
)

// freeAddr grabs an ephemeral listener address that is free at call
// time.
func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

// testConfig builds a minimal valid configuration: one network with one
// unreachable link, a sweep interval long enough that only the startup
// sweep ever fires, and everything optional disabled.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Version: "1.0",
		Daemon: config.DaemonConfig{
			APIAddr:       freeAddr(t),
			AdminAddr:     freeAddr(t),
			ShutdownGrace: "5s",
		},
		Probe: config.ProbeConfig{
			Interval:      "1h",
			Timeout:       "2s",
			RetryDelay:    "10ms",
			MaxConcurrent: 4,
		},
		Networks: []config.NetworkConfig{
			{
				Name: "main",
				Links: []config.LinkConfig{
					{Alias: "primary", URL: "http://127.0.0.1:1", Priority: 1},
				},
			},
		},
		Monitoring: config.MonitoringConfig{
			Health: config.MonitoringHealth{Path: "/health"},
		},
	}
}

func TestDaemonLifecycle(t *testing.T) {
	d, err := NewDaemon(testConfig(t), "")
	require.NoError(t, err)
	require.Equal(t, string(StatusStopped), d.GetStatus())

	done := make(chan error, 1)
	go func() { done <- d.Start(context.Background()) }()

	require.Eventually(t, func() bool {
		return d.GetStatus() == string(StatusRunning)
	}, 5*time.Second, 10*time.Millisecond, "daemon never reached running state")

	require.False(t, d.GetStartTime().IsZero())

	// Starting twice is rejected while the first instance runs.
	require.Error(t, d.Start(context.Background()))

	byLabel := make(map[string]responses.ServiceStatus)
	for _, st := range d.ServiceStatuses() {
		byLabel[st.Label] = st
	}
	require.Equal(t, "ok", byLabel["control loop"].Status)
	require.Equal(t, "ok", byLabel["probe scheduler"].Status)
	require.Equal(t, "ok", byLabel["api server"].Status)
	require.Equal(t, "ok", byLabel["admin server"].Status)
	require.Equal(t, "disabled", byLabel["config watcher"].Status)
	require.Equal(t, "disabled", byLabel["notifier"].Status)

	require.NoError(t, d.Stop(context.Background()))
	require.Equal(t, string(StatusStopped), d.GetStatus())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Stop")
	}

	// Stopping an already stopped daemon is a no-op.
	require.NoError(t, d.Stop(context.Background()))
}

func TestNewDaemonRequiresConfig(t *testing.T) {
	_, err := NewDaemon(nil, "")
	require.Error(t, err)
}

func TestNewDaemonRejectsDuplicateNetworks(t *testing.T) {
	cfg := testConfig(t)
	cfg.Networks = append(cfg.Networks, cfg.Networks[0])
	_, err := NewDaemon(cfg, "")
	require.Error(t, err)
}

func TestServiceStatusesBeforeStart(t *testing.T) {
	d, err := NewDaemon(testConfig(t), "")
	require.NoError(t, err)

	for _, st := range d.ServiceStatuses() {
		switch st.Label {
		case "config watcher", "notifier":
			require.Equal(t, "disabled", st.Status, st.Label)
		default:
			require.Equal(t, "down", st.Status, st.Label)
		}
	}
}

func TestReloadConfigSkipsIdenticalConfig(t *testing.T) {
	cfg := testConfig(t)
	d, err := NewDaemon(cfg, "")
	require.NoError(t, err)

	// The control loop is not running, so an attempted apply would
	// block; an identical config must short-circuit before that.
	require.NoError(t, d.ReloadConfig(context.Background(), cfg))
}

func TestReloadConfigAppliesLinkChanges(t *testing.T) {
	d, err := NewDaemon(testConfig(t), "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.ctrl.Run(ctx)

	newCfg := testConfig(t)
	newCfg.Networks[0].Links = append(newCfg.Networks[0].Links, config.LinkConfig{
		Alias: "backup", URL: "http://127.0.0.1:2", Priority: 2,
	})

	require.NoError(t, d.ReloadConfig(ctx, newCfg))

	view, ok := d.store.LinksSnapshot("main")
	require.True(t, ok)
	require.Len(t, view.Links, 2)
	require.Equal(t, newCfg, d.GetConfig())
}
