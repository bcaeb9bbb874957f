// Package daemon wires the monitoring core together: the state store,
// the single-writer control loop, the probe scheduler, the config
// watcher, the HTTP listeners, and the NATS notifier. Everything that
// mutates shared state goes through the Controller; everything that
// reads polls the store directly.
package daemon

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/linkmon/internal/config"
	"git.home.luguber.info/inful/linkmon/internal/daemon/events"
	derrors "git.home.luguber.info/inful/linkmon/internal/errors"
	"git.home.luguber.info/inful/linkmon/internal/logfields"
	"git.home.luguber.info/inful/linkmon/internal/metrics"
	"git.home.luguber.info/inful/linkmon/internal/netstate"
	"git.home.luguber.info/inful/linkmon/internal/notify"
	"git.home.luguber.info/inful/linkmon/internal/probe"
	"git.home.luguber.info/inful/linkmon/internal/server/httpserver"
	"git.home.luguber.info/inful/linkmon/internal/version"
)

// Status represents the current lifecycle state of the daemon.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusError    Status = "error"
)

// initialSweepDelay is how long after startup the first probe sweep
// runs; periodic sweeps follow at the configured interval.
const initialSweepDelay = 1 * time.Second

// Daemon is the long-running link monitor.
type Daemon struct {
	cfg            *config.Config
	configFilePath string
	configSnapshot string
	status         atomic.Value // Status
	startTime      time.Time
	stopChan       chan struct{}
	mu             sync.RWMutex

	// Core components
	store      *netstate.Store
	ctrl       *Controller
	bus        *events.Bus
	prober     *probe.Prober
	scheduler  *Scheduler
	watcher    *ConfigWatcher
	httpServer *httpserver.Server
	notifier   *notify.Notifier
	recorder   metrics.Recorder

	workers WorkerGroup
}

// NewDaemon creates a daemon from a validated configuration. When
// configFilePath is non-empty the config file is watched for changes.
func NewDaemon(cfg *config.Config, configFilePath string) (*Daemon, error) {
	if cfg == nil {
		return nil, derrors.ConfigRequired("configuration").Build()
	}

	d := &Daemon{
		cfg:            cfg,
		configFilePath: configFilePath,
		configSnapshot: cfg.Snapshot(),
		stopChan:       make(chan struct{}),
		store:          netstate.NewStore(),
		ctrl:           NewController(64),
		bus:            events.NewBus(),
		recorder:       metrics.NoopRecorder{},
	}
	d.status.Store(StatusStopped)

	var promHandler http.Handler
	if cfg.Monitoring.Metrics.Enabled {
		reg := prom.NewRegistry()
		d.recorder = metrics.NewPrometheusRecorder(reg)
		promHandler = metrics.HTTPHandler(reg)
	}

	// Seed the store. Start from the running config so the poll API has
	// answers before the first sweep.
	for _, spec := range cfg.NetworkSpecs() {
		if err := d.store.AddNetwork(spec); err != nil {
			return nil, derrors.Wrap(err, derrors.CategoryConfig, derrors.SeverityFatal, "invalid network configuration").
				WithContext("network", spec.Name).
				Build()
		}
	}

	d.prober = probe.NewProber(probe.Options{
		Timeout:       cfg.Probe.TimeoutDuration(),
		RetryDelay:    cfg.Probe.RetryDelayDuration(),
		MaxConcurrent: cfg.Probe.MaxConcurrent,
		UserAgent:     cfg.Probe.UserAgent,
	}).WithRecorder(d.recorder)

	// An unreachable NATS server downgrades notifications to disabled
	// instead of failing startup.
	d.notifier = notify.Disabled()
	if cfg.Notify.Enabled {
		n, err := notify.NewNotifier(notify.Options{
			URL:           cfg.Notify.NATSURL,
			SubjectPrefix: cfg.Notify.SubjectPrefix,
		})
		if err != nil {
			slog.Warn("Status notifications disabled: NATS connection failed", logfields.Error(err))
		} else {
			d.notifier = n.WithRecorder(d.recorder)
		}
	}

	scheduler, err := NewScheduler()
	if err != nil {
		return nil, err
	}
	d.scheduler = scheduler

	if configFilePath != "" {
		watcher, err := NewConfigWatcher(configFilePath, d)
		if err != nil {
			return nil, err
		}
		d.watcher = watcher
	}

	d.httpServer = httpserver.New(cfg, d, httpserver.Options{
		Store:             d.store,
		State:             controlledState{store: d.store, ctrl: d.ctrl},
		Recorder:          d.recorder,
		PrometheusHandler: promHandler,
	})

	return d, nil
}

// Start brings up all components and blocks until the daemon is stopped
// via Stop or ctx cancellation.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if st := d.currentStatus(); st != StatusStopped {
		d.mu.Unlock()
		return derrors.New(derrors.CategoryDaemon, derrors.SeverityError, "daemon is not in stopped state").
			WithContext("status", string(st)).
			Build()
	}
	d.status.Store(StatusStarting)
	d.startTime = time.Now()
	d.stopChan = make(chan struct{})
	d.workers.Reset()
	d.mu.Unlock()

	cfg := d.GetConfig()
	slog.Info("Starting linkmon daemon",
		slog.String("version", version.Version),
		slog.Int("networks", len(cfg.Networks)))

	ctx, cancel := d.stopAwareContext(ctx)
	defer cancel()

	// Control loop first; every other component submits mutations to it.
	d.goWorker(func() { d.ctrl.Run(ctx) })

	// Event consumers.
	d.goWorker(func() { d.runGaugeRefresher(ctx) })
	if d.notifier.Enabled() {
		d.goWorker(func() { d.runNotifyConsumer(ctx) })
	}

	if err := d.httpServer.Start(ctx); err != nil {
		d.status.Store(StatusError)
		return err
	}

	interval := cfg.Probe.IntervalDuration()
	if _, err := d.scheduler.ScheduleEvery("probe-sweep", interval, func() {
		d.runSweep(ctx)
	}); err != nil {
		d.status.Store(StatusError)
		return err
	}
	d.scheduler.Start(ctx)

	if d.watcher != nil {
		if err := d.watcher.Start(ctx, &d.workers); err != nil {
			slog.Error("Failed to start config watcher", logfields.Error(err))
		}
	}

	d.status.Store(StatusRunning)
	slog.Info("linkmon daemon started",
		slog.String("api_addr", cfg.Daemon.APIAddr),
		slog.String("admin_addr", cfg.Daemon.AdminAddr),
		slog.Duration("probe_interval", interval))

	d.run(ctx)
	return nil
}

// run is the main loop: it schedules the initial sweep and then waits
// for shutdown. ctx is stop-aware, so closing stopChan ends it too.
func (d *Daemon) run(ctx context.Context) {
	initialSweep := time.NewTimer(initialSweepDelay)
	defer initialSweep.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Main loop stopped")
			return
		case <-initialSweep.C:
			d.goWorker(func() { d.runSweep(ctx) })
		}
	}
}

// Stop gracefully shuts the daemon down: stop intake (watcher,
// scheduler), drain the listeners, wait for workers, then release the
// bus and the NATS connection.
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	st := d.currentStatus()
	if st == StatusStopped || st == StatusStopping {
		d.mu.Unlock()
		return nil
	}
	d.status.Store(StatusStopping)
	select {
	case <-d.stopChan:
	default:
		close(d.stopChan)
	}
	startTime := d.startTime
	d.mu.Unlock()

	slog.Info("Stopping linkmon daemon")

	if d.watcher != nil {
		if err := d.watcher.Stop(ctx); err != nil {
			slog.Error("Failed to stop config watcher", logfields.Error(err))
		}
	}
	if d.scheduler != nil {
		if err := d.scheduler.Stop(ctx); err != nil {
			slog.Error("Failed to stop scheduler", logfields.Error(err))
		}
	}
	if d.httpServer != nil {
		if err := d.httpServer.Stop(ctx); err != nil {
			slog.Error("Failed to stop HTTP servers", logfields.Error(err))
		}
	}

	if err := d.workers.StopAndWait(ctx); err != nil {
		slog.Warn("Workers did not drain before deadline", logfields.Error(err))
	}

	d.bus.Close()
	if err := d.notifier.Close(); err != nil {
		slog.Error("Failed to close notifier", logfields.Error(err))
	}

	d.status.Store(StatusStopped)
	slog.Info("linkmon daemon stopped", slog.Duration("uptime", time.Since(startTime)))
	return nil
}

func (d *Daemon) goWorker(fn func()) {
	if d == nil || fn == nil {
		return
	}
	_ = d.workers.Go(fn)
}

func (d *Daemon) currentStatus() Status {
	status, ok := d.status.Load().(Status)
	if !ok {
		return StatusError
	}
	return status
}

// GetStatus returns the current daemon status as a string, matching the
// handler-side runtime interfaces.
func (d *Daemon) GetStatus() string { return string(d.currentStatus()) }

// GetStartTime returns when the daemon last started.
func (d *Daemon) GetStartTime() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.startTime
}

// GetConfigFilePath returns the watched configuration file path.
func (d *Daemon) GetConfigFilePath() string { return d.configFilePath }

// GetConfig returns the currently applied configuration.
func (d *Daemon) GetConfig() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

func (d *Daemon) stopSignal() chan struct{} {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stopChan
}

// ScheduleReload requests an asynchronous configuration reload. The
// daemon always re-reads its own config file; path only records what
// the caller observed changing.
func (d *Daemon) ScheduleReload(path string) {
	if d.watcher == nil {
		slog.Warn("Reload requested but no config file is watched", logfields.Path(path))
		return
	}
	d.watcher.Schedule(path)
}

// ReloadConfig applies an already validated configuration. Network and
// link diffs land through the control loop; listener and probe settings
// need a restart and only warn.
func (d *Daemon) ReloadConfig(ctx context.Context, newCfg *config.Config) error {
	snapshot := newCfg.Snapshot()
	d.mu.RLock()
	unchanged := snapshot == d.configSnapshot
	d.mu.RUnlock()
	if unchanged {
		slog.Debug("Configuration unchanged, reload skipped")
		return nil
	}

	warnRestartOnly(d.GetConfig(), newCfg)

	var diff netstate.ReloadDiff
	err := d.ctrl.Do(ctx, "config-reload", func(context.Context) error {
		var applyErr error
		diff, applyErr = d.store.ApplyConfig(newCfg.NetworkSpecs())
		return applyErr
	})
	if err != nil {
		d.recorder.IncConfigReload(false)
		return err
	}

	d.mu.Lock()
	d.cfg = newCfg
	d.configSnapshot = snapshot
	d.mu.Unlock()

	d.recorder.IncConfigReload(true)
	slog.Info("Configuration reloaded",
		slog.Int("added_networks", diff.AddedNetworks),
		slog.Int("removed_networks", diff.RemovedNetworks),
		slog.Int("added_links", diff.AddedLinks),
		slog.Int("removed_links", diff.RemovedLinks),
		slog.Int("updated_links", diff.UpdatedLinks))

	if !diff.Empty() {
		if err := d.bus.Publish(ctx, events.ReloadApplied{Diff: diff, AppliedAt: time.Now()}); err != nil {
			slog.Debug("Reload event not delivered", logfields.Error(err))
		}
	}
	return nil
}

// warnRestartOnly flags config changes a live reload cannot apply.
func warnRestartOnly(oldCfg, newCfg *config.Config) {
	if oldCfg == nil || newCfg == nil {
		return
	}
	if oldCfg.Daemon.APIAddr != newCfg.Daemon.APIAddr || oldCfg.Daemon.AdminAddr != newCfg.Daemon.AdminAddr {
		slog.Warn("Listener address changes require a daemon restart",
			slog.String("api_addr", newCfg.Daemon.APIAddr),
			slog.String("admin_addr", newCfg.Daemon.AdminAddr))
	}
	if oldCfg.Probe != newCfg.Probe {
		slog.Warn("Probe setting changes require a daemon restart")
	}
	if oldCfg.Notify != newCfg.Notify {
		slog.Warn("Notification setting changes require a daemon restart")
	}
}
