package netstate

import (
	"git.home.luguber.info/inful/linkmon/internal/coherency"
	"git.home.luguber.info/inful/linkmon/internal/slab"
)

// LinkView is a copy of one link's observable state.
type LinkView struct {
	Index      slab.Index
	Alias      string
	URL        string
	Priority   int
	Monitored  bool
	Status     Status
	HealthPct  float64
	RespTimeMS float64
	SuccessPct float64
	ErrorInfo  string
}

// Summary aggregates attempt counters across a network's links.
type Summary struct {
	SuccessOnFirstAttempt uint64
	SuccessOnRetry        uint64
	FailNetworkDown       uint64
	FailBadRequest        uint64
	FailOthers            uint64
}

// LinksView is the full links-category payload with the token it was
// read under.
type LinksView struct {
	Network   string
	Status    Status
	Info      string
	Selection string
	Summary   Summary
	Links     []LinkView
	Token     coherency.Token
}

// StatusView is the status-category payload.
type StatusView struct {
	Network    string
	Status     Status
	StatusInfo string
	Selection  string
	Token      coherency.Token
}

// TrackView is a copy of one package track.
type TrackView struct {
	Path   string
	Name   string
	Latest *PackageInstance
	Older  []PackageInstance
}

// PackagesView is the packages-category payload.
type PackagesView struct {
	Network string
	Tracks  map[string]TrackView
	Token   coherency.Token
}

// NetworkSummary is one row of the network listing.
type NetworkSummary struct {
	Name       string
	Status     Status
	StatusInfo string
	Selection  string
	Links      int
	Monitored  int
}

// LinksSnapshot copies the links category of a network together with its
// current token.
func (s *Store) LinksSnapshot(network string) (LinksView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.findLocked(network)
	if !ok {
		return LinksView{}, false
	}
	view := LinksView{
		Network:   n.Name,
		Status:    n.Status,
		Info:      n.StatusInfo,
		Selection: n.Selection,
		Token:     n.linksTok.Get(),
	}
	n.Links.Range(func(i slab.Index, l *Link) bool {
		view.Links = append(view.Links, LinkView{
			Index:      i,
			Alias:      l.Alias,
			URL:        l.URL,
			Priority:   l.Priority,
			Monitored:  l.Monitored,
			Status:     l.Status,
			HealthPct:  l.HealthPct,
			RespTimeMS: l.RespTimeMS,
			SuccessPct: l.SuccessPct,
			ErrorInfo:  l.ErrorInfo,
		})
		view.Summary.SuccessOnFirstAttempt += l.FirstAttemptOK
		view.Summary.SuccessOnRetry += l.RetryOK
		view.Summary.FailNetworkDown += l.FailNetwork
		view.Summary.FailBadRequest += l.FailBadRequest
		view.Summary.FailOthers += l.FailOther
		return true
	})
	return view, true
}

// StatusSnapshot copies the status category of a network together with
// its current token.
func (s *Store) StatusSnapshot(network string) (StatusView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.findLocked(network)
	if !ok {
		return StatusView{}, false
	}
	return StatusView{
		Network:    n.Name,
		Status:     n.Status,
		StatusInfo: n.StatusInfo,
		Selection:  n.Selection,
		Token:      n.statusTok.Get(),
	}, true
}

// PackagesSnapshot deep-copies the packages category of a network
// together with its current token.
func (s *Store) PackagesSnapshot(network string) (PackagesView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.findLocked(network)
	if !ok {
		return PackagesView{}, false
	}
	view := PackagesView{
		Network: n.Name,
		Tracks:  make(map[string]TrackView, len(n.Tracks)),
		Token:   n.packagesTok.Get(),
	}
	for uuid, tr := range n.Tracks {
		tv := TrackView{
			Path:  tr.Path,
			Name:  tr.Name,
			Older: append([]PackageInstance(nil), tr.Older...),
		}
		if tr.Latest != nil {
			latest := *tr.Latest
			tv.Latest = &latest
		}
		view.Tracks[uuid] = tv
	}
	return view, true
}

// NetworksView lists all networks in registry order.
func (s *Store) NetworksView() []NetworkSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []NetworkSummary
	s.networks.Range(func(_ slab.Index, n *Network) bool {
		row := NetworkSummary{
			Name:       n.Name,
			Status:     n.Status,
			StatusInfo: n.StatusInfo,
			Selection:  n.Selection,
			Links:      n.Links.Len(),
		}
		n.Links.Range(func(_ slab.Index, l *Link) bool {
			if l.Monitored {
				row.Monitored++
			}
			return true
		})
		out = append(out, row)
		return true
	})
	return out
}
