package netstate

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"git.home.luguber.info/inful/linkmon/internal/coherency"
	"git.home.luguber.info/inful/linkmon/internal/slab"
)

// ErrUnknownNetwork is returned by store operations naming a network that
// is not configured.
var ErrUnknownNetwork = errors.New("netstate: unknown network")

// Category names one polled state axis of a network. Each category has
// its own coherency token.
type Category string

const (
	CategoryLinks    Category = "links"
	CategoryStatus   Category = "status"
	CategoryPackages Category = "packages"
)

// Transition describes a status change worth notifying about. Alias is
// empty for network-level transitions.
type Transition struct {
	Network string
	Alias   string
	From    Status
	To      Status
	At      time.Time
}

// ProbeTarget is the read-only identity a prober needs for one sweep
// entry. Link is the stable registry index the result is applied back
// through; a miss on apply means the link was removed mid-flight.
type ProbeTarget struct {
	Network string
	Link    slab.Index
	Alias   string
	URL     string
	Method  string
	H2C     bool
}

// ReloadDiff summarizes what a configuration apply changed.
type ReloadDiff struct {
	AddedNetworks   int
	RemovedNetworks int
	AddedLinks      int
	RemovedLinks    int
	UpdatedLinks    int
}

// Empty reports whether the apply was a no-op.
func (d ReloadDiff) Empty() bool {
	return d.AddedNetworks == 0 && d.RemovedNetworks == 0 &&
		d.AddedLinks == 0 && d.RemovedLinks == 0 && d.UpdatedLinks == 0
}

// Store is the root of all monitored state. A read-write mutex guards the
// network registry and everything hanging off it; the per-category
// coherency guards are bumped while the write lock is held so readers
// always observe a (payload, token) pair that belongs together.
type Store struct {
	mu       sync.RWMutex
	networks *slab.Registry[*Network]
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{networks: slab.New[*Network]()}
}

func (s *Store) findLocked(name string) (*Network, bool) {
	var found *Network
	s.networks.Range(func(_ slab.Index, n *Network) bool {
		if n.Name == name {
			found = n
			return false
		}
		return true
	})
	return found, found != nil
}

// AddNetwork creates a network from spec. The name must be new.
func (s *Store) AddNetwork(spec NetworkSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addNetworkLocked(spec)
}

func (s *Store) addNetworkLocked(spec NetworkSpec) error {
	if _, ok := s.findLocked(spec.Name); ok {
		return fmt.Errorf("netstate: network %q already exists", spec.Name)
	}
	n, err := newNetwork(spec)
	if err != nil {
		return err
	}
	if _, err := s.networks.Push(n); err != nil {
		return fmt.Errorf("netstate: add network %q: %w", spec.Name, err)
	}
	return nil
}

// RemoveNetwork drops a network and all its state. It reports whether the
// network existed.
func (s *Store) RemoveNetwork(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.findLocked(name)
	if !ok {
		return false
	}
	idx, ok := n.Index()
	if !ok {
		return false
	}
	_, removed := s.networks.Remove(idx)
	return removed
}

// Token returns the current coherency token for one category of a
// network.
func (s *Store) Token(network string, c Category) (coherency.Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.findLocked(network)
	if !ok {
		return coherency.Token{}, false
	}
	switch c {
	case CategoryLinks:
		return n.linksTok.Get(), true
	case CategoryStatus:
		return n.statusTok.Get(), true
	case CategoryPackages:
		return n.packagesTok.Get(), true
	default:
		return coherency.Token{}, false
	}
}

// MonitoredTargets lists every monitored link across all networks for the
// next probe sweep.
func (s *Store) MonitoredTargets() []ProbeTarget {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var targets []ProbeTarget
	s.networks.Range(func(_ slab.Index, n *Network) bool {
		n.Links.Range(func(li slab.Index, l *Link) bool {
			if l.Monitored {
				targets = append(targets, ProbeTarget{
					Network: n.Name,
					Link:    li,
					Alias:   l.Alias,
					URL:     l.URL,
					Method:  n.CheckMethod,
					H2C:     l.H2C,
				})
			}
			return true
		})
		return true
	})
	return targets
}

// ApplyProbe folds one probe result into the named link. It reports the
// status transitions it caused and whether the target still existed; a
// miss means the link or network was removed while the probe was in
// flight and the result is dropped.
func (s *Store) ApplyProbe(network string, link slab.Index, out Outcome, latency time.Duration, errInfo string) ([]Transition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.findLocked(network)
	if !ok {
		return nil, false
	}
	l, ok := n.Links.Get(link)
	if !ok {
		return nil, false
	}

	now := time.Now()
	var transitions []Transition

	prev := l.Status
	l.applyOutcome(out, latency, errInfo)
	n.linksTok.Increment()
	if l.Status != prev {
		transitions = append(transitions, Transition{
			Network: n.Name,
			Alias:   l.Alias,
			From:    prev,
			To:      l.Status,
			At:      now,
		})
	}

	prevNet := n.Status
	if n.recompute() {
		n.statusTok.Increment()
		if n.Status != prevNet {
			transitions = append(transitions, Transition{
				Network: n.Name,
				From:    prevNet,
				To:      n.Status,
				At:      now,
			})
		}
	}
	return transitions, true
}

// PrePublish validates that a publish may start: the network must exist
// and the path must not already belong to a different package.
func (s *Store) PrePublish(network, path, name string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.findLocked(network)
	if !ok {
		return ErrUnknownNetwork
	}
	for uuid, tr := range n.Tracks {
		if tr.Path == path && tr.Name != name {
			return fmt.Errorf("netstate: path %q already tracked by package %q (track %s)", path, tr.Name, uuid)
		}
	}
	return nil
}

// PostPublish records a finished publish under the client's stable track
// uuid, displacing the previous latest instance into the history.
func (s *Store) PostPublish(network, trackUUID, path, name, packageID, timestamp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.findLocked(network)
	if !ok {
		return ErrUnknownNetwork
	}

	tr, ok := n.Tracks[trackUUID]
	if !ok {
		tr = &PackageTrack{}
		n.Tracks[trackUUID] = tr
	}
	tr.Path = path
	tr.Name = name
	if tr.Latest != nil {
		tr.Older = append([]PackageInstance{*tr.Latest}, tr.Older...)
	}
	tr.Latest = &PackageInstance{
		PackageID:   packageID,
		PackageName: name,
		Timestamp:   timestamp,
	}
	n.packagesTok.Increment()
	return nil
}

// ApplyConfig reconciles the store against the desired specs: networks
// and links are added, updated, and removed in place, preserving the
// statistics of links whose upstream did not change. Affected category
// tokens are bumped.
func (s *Store) ApplyConfig(specs []NetworkSpec) (ReloadDiff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var diff ReloadDiff

	desired := make(map[string]NetworkSpec, len(specs))
	for _, spec := range specs {
		desired[spec.Name] = spec
	}

	var stale []slab.Index
	s.networks.Range(func(i slab.Index, n *Network) bool {
		if _, keep := desired[n.Name]; !keep {
			stale = append(stale, i)
		}
		return true
	})
	for _, i := range stale {
		if _, ok := s.networks.Remove(i); ok {
			diff.RemovedNetworks++
		}
	}

	for _, spec := range specs {
		n, ok := s.findLocked(spec.Name)
		if !ok {
			if err := s.addNetworkLocked(spec); err != nil {
				return diff, err
			}
			diff.AddedNetworks++
			continue
		}
		if err := s.reconcileLinksLocked(n, spec, &diff); err != nil {
			return diff, err
		}
	}
	return diff, nil
}

func (s *Store) reconcileLinksLocked(n *Network, spec NetworkSpec, diff *ReloadDiff) error {
	n.CheckMethod = spec.CheckMethod

	keep := make(map[string]struct{}, len(spec.Links))
	for _, ls := range spec.Links {
		keep[ls.Alias] = struct{}{}
	}

	var stale []slab.Index
	n.Links.Range(func(i slab.Index, l *Link) bool {
		if _, ok := keep[l.Alias]; !ok {
			stale = append(stale, i)
		}
		return true
	})
	changed := false
	for _, i := range stale {
		if _, ok := n.Links.Remove(i); ok {
			diff.RemovedLinks++
			changed = true
		}
	}

	for _, ls := range spec.Links {
		l, ok := n.findLink(ls.Alias)
		if !ok {
			if _, err := n.Links.Push(newLink(ls)); err != nil {
				return fmt.Errorf("netstate: network %q, link %q: %w", spec.Name, ls.Alias, err)
			}
			diff.AddedLinks++
			changed = true
			continue
		}
		updated := false
		if l.URL != ls.URL {
			// A different upstream invalidates everything measured so far.
			l.URL = ls.URL
			l.resetStats()
			updated = true
		}
		if l.Priority != ls.Priority {
			l.Priority = ls.Priority
			updated = true
		}
		if l.Monitored != ls.Monitored {
			l.Monitored = ls.Monitored
			updated = true
		}
		if l.H2C != ls.H2C {
			l.H2C = ls.H2C
			updated = true
		}
		if updated {
			diff.UpdatedLinks++
			changed = true
		}
	}

	if changed {
		n.linksTok.Increment()
	}
	if n.recompute() {
		n.statusTok.Increment()
	}
	return nil
}
