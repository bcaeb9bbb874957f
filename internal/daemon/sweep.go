package daemon

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/linkmon/internal/daemon/events"
	"git.home.luguber.info/inful/linkmon/internal/logfields"
	"git.home.luguber.info/inful/linkmon/internal/netstate"
	"git.home.luguber.info/inful/linkmon/internal/probe"
)

// runSweep probes every monitored link once. Probes run concurrently on
// the prober's pool; each result is applied through the control loop so
// statistics never race with config reloads or publish bookkeeping.
// Status transitions fan out on the event bus from the probe goroutine,
// keeping NATS round trips off the control loop.
func (d *Daemon) runSweep(ctx context.Context) {
	targets := d.store.MonitoredTargets()
	if len(targets) == 0 {
		return
	}

	start := time.Now()
	var transitions atomic.Int64

	err := d.prober.Sweep(ctx, targets, func(res probe.Result) {
		var trs []netstate.Transition
		applyErr := d.ctrl.Do(ctx, "apply-probe", func(context.Context) error {
			var ok bool
			trs, ok = d.store.ApplyProbe(res.Target.Network, res.Target.Link, res.Outcome, res.Latency, res.ErrorInfo)
			if !ok {
				// The link was removed by a reload while its probe was in
				// flight. The result has nowhere to land.
				slog.Debug("Probe result dropped, link no longer registered",
					logfields.Network(res.Target.Network),
					logfields.Alias(res.Target.Alias))
			}
			return nil
		})
		if applyErr != nil {
			slog.Debug("Probe result not applied", logfields.Error(applyErr))
			return
		}

		for _, tr := range trs {
			transitions.Add(1)
			d.announceTransition(ctx, tr)
		}
	})
	if err != nil {
		slog.Debug("Probe sweep interrupted", logfields.Error(err))
		return
	}

	duration := time.Since(start)
	flips := int(transitions.Load())
	slog.Debug("Probe sweep completed",
		slog.Int("probes", len(targets)),
		slog.Int("transitions", flips),
		slog.Duration("duration", duration))

	if pubErr := d.bus.Publish(ctx, events.SweepCompleted{
		Probes:      len(targets),
		Transitions: flips,
		Duration:    duration,
		CompletedAt: time.Now(),
	}); pubErr != nil {
		slog.Debug("Sweep event not delivered", logfields.Error(pubErr))
	}
}

// announceTransition logs a status flip and forwards it to interested
// consumers.
func (d *Daemon) announceTransition(ctx context.Context, tr netstate.Transition) {
	attrs := []any{
		logfields.Network(tr.Network),
		slog.String("from", string(tr.From)),
		slog.String("to", string(tr.To)),
	}
	if tr.Alias != "" {
		attrs = append(attrs, logfields.Alias(tr.Alias))
	}
	if tr.To == netstate.StatusOK {
		slog.Info("Status recovered", attrs...)
	} else {
		slog.Warn("Status changed", attrs...)
	}

	if err := d.bus.Publish(ctx, events.StatusChanged{Transition: tr}); err != nil {
		slog.Debug("Transition event not delivered", logfields.Error(err))
	}
}

// runNotifyConsumer forwards status transitions to NATS. It runs as a
// worker only when the notifier holds a live connection.
func (d *Daemon) runNotifyConsumer(ctx context.Context) {
	changes, unsubscribe := events.Subscribe[events.StatusChanged](d.bus, 64)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-changes:
			if !ok {
				return
			}
			if err := d.notifier.PublishTransition(ctx, ev.Transition); err != nil {
				slog.Warn("Status notification failed",
					logfields.Network(ev.Transition.Network),
					logfields.Error(err))
			}
		}
	}
}

// runGaugeRefresher keeps the per-network link gauges aligned with the
// store. Sweeps and reloads are the only writers, so their completion
// events are the only refresh triggers needed.
func (d *Daemon) runGaugeRefresher(ctx context.Context) {
	sweeps, unsubSweeps := events.Subscribe[events.SweepCompleted](d.bus, 4)
	defer unsubSweeps()
	reloads, unsubReloads := events.Subscribe[events.ReloadApplied](d.bus, 4)
	defer unsubReloads()

	d.refreshGauges()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-sweeps:
			if !ok {
				return
			}
			d.refreshGauges()
		case _, ok := <-reloads:
			if !ok {
				return
			}
			d.refreshGauges()
		}
	}
}

func (d *Daemon) refreshGauges() {
	for _, summary := range d.store.NetworksView() {
		view, ok := d.store.LinksSnapshot(summary.Name)
		if !ok {
			continue
		}
		healthy := 0
		for _, l := range view.Links {
			if l.Monitored && l.Status == netstate.StatusOK {
				healthy++
			}
		}
		d.recorder.SetNetworkLinks(summary.Name, summary.Monitored, healthy)
	}
}
