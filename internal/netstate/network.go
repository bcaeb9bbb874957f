package netstate

import (
	"fmt"

	"git.home.luguber.info/inful/linkmon/internal/coherency"
	"git.home.luguber.info/inful/linkmon/internal/slab"
)

// NetworkSpec is the configured shape of a network.
type NetworkSpec struct {
	Name        string
	CheckMethod string
	Links       []LinkSpec
}

// PackageInstance records one published package.
type PackageInstance struct {
	PackageID   string
	PackageName string
	Timestamp   string
}

// PackageTrack is the publish history for one stable track uuid: where
// the package lives, its latest instance, and the displaced ones, most
// recent first.
type PackageTrack struct {
	Path   string
	Name   string
	Latest *PackageInstance
	Older  []PackageInstance
}

// Network is one monitored network. Each of its three polled state
// categories owns a coherency guard: links (probe statistics), status
// (aggregate grade and selection), packages (publish bookkeeping). The
// guard is bumped by the store immediately after any mutation of its
// category.
type Network struct {
	slab.Entry

	Name        string
	CheckMethod string

	Links *slab.Registry[*Link]

	Status     Status
	StatusInfo string
	Selection  string

	Tracks map[string]*PackageTrack

	linksTok    *coherency.Guard
	statusTok   *coherency.Guard
	packagesTok *coherency.Guard
}

func newNetwork(spec NetworkSpec) (*Network, error) {
	n := &Network{
		Name:        spec.Name,
		CheckMethod: spec.CheckMethod,
		Links:       slab.New[*Link](),
		Status:      StatusUnknown,
		StatusInfo:  "awaiting first probe",
		Tracks:      make(map[string]*PackageTrack),
		linksTok:    coherency.NewGuard(),
		statusTok:   coherency.NewGuard(),
		packagesTok: coherency.NewGuard(),
	}
	for _, ls := range spec.Links {
		if _, err := n.Links.Push(newLink(ls)); err != nil {
			return nil, fmt.Errorf("network %s, link %s: %w", spec.Name, ls.Alias, err)
		}
	}
	n.recompute()
	return n, nil
}

func (n *Network) findLink(alias string) (*Link, bool) {
	var found *Link
	n.Links.Range(func(_ slab.Index, l *Link) bool {
		if l.Alias == alias {
			found = l
			return false
		}
		return true
	})
	return found, found != nil
}

// recompute regrades the network from its monitored links and refreshes
// the selection. It reports whether the status category changed.
func (n *Network) recompute() bool {
	prevStatus, prevInfo, prevSel := n.Status, n.StatusInfo, n.Selection

	var monitored, ok, degraded, unknown int
	var best *Link
	n.Links.Range(func(_ slab.Index, l *Link) bool {
		if !l.Monitored {
			return true
		}
		monitored++
		switch l.Status {
		case StatusOK:
			ok++
			if best == nil || betterLink(l, best) {
				best = l
			}
		case StatusDegraded:
			degraded++
		case StatusUnknown:
			unknown++
		}
		return true
	})

	switch {
	case monitored == 0:
		n.Status = StatusUnknown
		n.StatusInfo = "no monitored links"
		n.Selection = ""
	case ok > 0:
		n.Status = StatusOK
		n.StatusInfo = fmt.Sprintf("%d/%d links healthy", ok, monitored)
		n.Selection = best.Alias
	case degraded > 0:
		n.Status = StatusDegraded
		n.StatusInfo = fmt.Sprintf("0/%d links healthy, %d degraded", monitored, degraded)
		n.Selection = ""
	case unknown > 0:
		n.Status = StatusUnknown
		n.StatusInfo = "awaiting first probe"
		n.Selection = ""
	default:
		n.Status = StatusDown
		n.StatusInfo = "all links down"
		n.Selection = ""
	}

	return n.Status != prevStatus || n.StatusInfo != prevInfo || n.Selection != prevSel
}
