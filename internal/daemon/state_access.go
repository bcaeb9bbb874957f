package daemon

import (
	"context"

	"git.home.luguber.info/inful/linkmon/internal/netstate"
)

// controlledState adapts the store for the poll API handlers. Reads hit
// the store directly under its read lock; publish bookkeeping is a
// write and therefore serializes through the control loop like probe
// results and config reloads.
type controlledState struct {
	store *netstate.Store
	ctrl  *Controller
}

func (c controlledState) LinksSnapshot(network string) (netstate.LinksView, bool) {
	return c.store.LinksSnapshot(network)
}

func (c controlledState) StatusSnapshot(network string) (netstate.StatusView, bool) {
	return c.store.StatusSnapshot(network)
}

func (c controlledState) PackagesSnapshot(network string) (netstate.PackagesView, bool) {
	return c.store.PackagesSnapshot(network)
}

func (c controlledState) NetworksView() []netstate.NetworkSummary {
	return c.store.NetworksView()
}

func (c controlledState) PrePublish(ctx context.Context, network, path, name string) error {
	return c.ctrl.Do(ctx, "pre-publish", func(context.Context) error {
		return c.store.PrePublish(network, path, name)
	})
}

func (c controlledState) PostPublish(ctx context.Context, network, trackUUID, path, name, packageID, timestamp string) error {
	return c.ctrl.Do(ctx, "post-publish", func(context.Context) error {
		return c.store.PostPublish(network, trackUUID, path, name, packageID, timestamp)
	})
}
