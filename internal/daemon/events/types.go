package events

import (
	"time"

	"git.home.luguber.info/inful/linkmon/internal/netstate"
)

// StatusChanged carries one link or network status transition out of the
// control loop. The transition's Alias is empty for network-level
// changes. Consumed by the NATS notifier worker.
type StatusChanged struct {
	Transition netstate.Transition
}

// SweepCompleted is emitted after one probe sweep has been fully applied
// to the store. Consumed by the gauge refresher.
type SweepCompleted struct {
	Probes      int
	Transitions int
	Duration    time.Duration
	CompletedAt time.Time
}

// ReloadApplied is emitted after a configuration reload changed running
// state. A reload that loaded an identical file emits nothing.
type ReloadApplied struct {
	Diff      netstate.ReloadDiff
	AppliedAt time.Time
}
