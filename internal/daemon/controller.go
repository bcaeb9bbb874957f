package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	derrors "git.home.luguber.info/inful/linkmon/internal/errors"
	"git.home.luguber.info/inful/linkmon/internal/logfields"
)

// command is one serialized mutation of daemon-owned state.
type command struct {
	name  string
	apply func(context.Context) error
	reply chan error
}

// Controller funnels every mutation of the shared store through one
// goroutine. Probe results, configuration reloads, and publish
// bookkeeping all submit commands here, which is what keeps the store's
// writers at most one at a time while readers poll concurrently.
type Controller struct {
	cmds    chan command
	done    chan struct{}
	started atomic.Bool
}

// NewController creates a controller with the given submission queue
// depth.
func NewController(queue int) *Controller {
	if queue <= 0 {
		queue = 32
	}
	return &Controller{
		cmds: make(chan command, queue),
		done: make(chan struct{}),
	}
}

// Run consumes commands until ctx ends. A failing or panicking command
// is reported to its submitter and never takes the loop down.
func (c *Controller) Run(ctx context.Context) {
	c.started.Store(true)
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-c.cmds:
			start := time.Now()
			err := applyCommand(ctx, cmd)
			if err != nil {
				slog.Error("Command failed", slog.String("command", cmd.name), logfields.Error(err))
			} else {
				slog.Debug("Command applied", slog.String("command", cmd.name), slog.Duration("duration", time.Since(start)))
			}
			cmd.reply <- err
		}
	}
}

func applyCommand(ctx context.Context, cmd command) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = derrors.New(derrors.CategoryInternal, derrors.SeverityError, "command panic").
				WithContext("command", cmd.name).
				WithContext("panic", fmt.Sprint(rec)).
				Build()
		}
	}()
	return cmd.apply(ctx)
}

// Do submits a mutation and waits until the control loop has applied
// it. The apply closure receives the loop's own context, so mutations
// outlive the submitter's deadline once accepted; a waiter that gives
// up does not unqueue its command.
func (c *Controller) Do(ctx context.Context, name string, fn func(context.Context) error) error {
	cmd := command{name: name, apply: fn, reply: make(chan error, 1)}
	select {
	case c.cmds <- cmd:
	case <-c.done:
		return derrors.DaemonUnavailable("control loop is not running").Build()
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		// The loop may have applied the command just before exiting.
		select {
		case err := <-cmd.reply:
			return err
		default:
		}
		return derrors.DaemonUnavailable("control loop stopped").Build()
	}
}

// Pending returns the number of queued, not yet applied commands.
func (c *Controller) Pending() int { return len(c.cmds) }

// Running reports whether the control loop has started and not yet
// exited.
func (c *Controller) Running() bool {
	if !c.started.Load() {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}
