// Package netstate holds the process-lifetime state for every monitored
// network: its links with their probe-derived statistics, the network's
// aggregate status and best-link selection, and the package-publish
// bookkeeping. Nothing here survives a restart; the store is rebuilt from
// configuration on every daemon start.
//
// All mutation goes through the Store, whose mutators are called only
// from the daemon's single control goroutine. Read snapshots may be taken
// concurrently by any number of poll handlers.
package netstate

import (
	"time"

	"git.home.luguber.info/inful/linkmon/internal/slab"
)

// Status grades a link, a network, or a daemon subsystem.
type Status string

const (
	StatusUnknown  Status = "unknown"
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

// Outcome classifies one finished probe attempt cycle. The values double
// as metrics label values, so they stay lowercase and stable.
type Outcome string

const (
	OutcomeFirstTry    Outcome = "success_first"
	OutcomeRetry       Outcome = "success_retry"
	OutcomeNetworkDown Outcome = "fail_network"
	OutcomeBadRequest  Outcome = "fail_bad_request"
	OutcomeOther       Outcome = "fail_other"
)

// Success reports whether the outcome reached the upstream.
func (o Outcome) Success() bool {
	return o == OutcomeFirstTry || o == OutcomeRetry
}

const (
	// healthAlpha weights the newest probe in the health EMA.
	healthAlpha = 0.2
	// respAlpha weights the newest latency sample in the response-time EMA.
	respAlpha = 0.3

	healthOKThreshold       = 75.0
	healthDegradedThreshold = 25.0
)

// LinkSpec is the configured identity of a link, before any probe ran.
type LinkSpec struct {
	Alias     string
	URL       string
	Priority  int
	Monitored bool
	H2C       bool
}

// Link is one upstream RPC endpoint of a network. Links live in the
// network's registry; their slab index is the stable handle probe results
// carry back to the store.
type Link struct {
	slab.Entry

	Alias     string
	URL       string
	Priority  int
	Monitored bool
	H2C       bool

	Status     Status
	HealthPct  float64
	RespTimeMS float64
	SuccessPct float64
	ErrorInfo  string

	FirstAttemptOK uint64
	RetryOK        uint64
	FailNetwork    uint64
	FailBadRequest uint64
	FailOther      uint64
}

func newLink(spec LinkSpec) *Link {
	return &Link{
		Alias:     spec.Alias,
		URL:       spec.URL,
		Priority:  spec.Priority,
		Monitored: spec.Monitored,
		H2C:       spec.H2C,
		Status:    StatusUnknown,
	}
}

// Attempts is the count of finished probe cycles.
func (l *Link) Attempts() uint64 {
	return l.FirstAttemptOK + l.RetryOK + l.FailNetwork + l.FailBadRequest + l.FailOther
}

func (l *Link) successes() uint64 { return l.FirstAttemptOK + l.RetryOK }

// applyOutcome folds one probe cycle into the link's statistics and
// regrades its status.
func (l *Link) applyOutcome(out Outcome, latency time.Duration, errInfo string) {
	switch out {
	case OutcomeFirstTry:
		l.FirstAttemptOK++
	case OutcomeRetry:
		l.RetryOK++
	case OutcomeNetworkDown:
		l.FailNetwork++
	case OutcomeBadRequest:
		l.FailBadRequest++
	default:
		l.FailOther++
	}

	target := 0.0
	if out.Success() {
		target = 100.0
	}
	if l.Attempts() == 1 {
		l.HealthPct = target
	} else {
		l.HealthPct = l.HealthPct*(1-healthAlpha) + target*healthAlpha
	}

	if out.Success() {
		ms := float64(latency) / float64(time.Millisecond)
		if l.successes() == 1 {
			l.RespTimeMS = ms
		} else {
			l.RespTimeMS = l.RespTimeMS*(1-respAlpha) + ms*respAlpha
		}
		l.ErrorInfo = ""
	} else {
		l.ErrorInfo = errInfo
	}

	l.SuccessPct = float64(l.successes()) / float64(l.Attempts()) * 100

	switch {
	case l.HealthPct >= healthOKThreshold:
		l.Status = StatusOK
	case l.HealthPct >= healthDegradedThreshold:
		l.Status = StatusDegraded
	default:
		l.Status = StatusDown
	}
}

// resetStats drops all probe-derived fields, used when a reload points an
// alias at a different upstream.
func (l *Link) resetStats() {
	l.Status = StatusUnknown
	l.HealthPct = 0
	l.RespTimeMS = 0
	l.SuccessPct = 0
	l.ErrorInfo = ""
	l.FirstAttemptOK = 0
	l.RetryOK = 0
	l.FailNetwork = 0
	l.FailBadRequest = 0
	l.FailOther = 0
}

// betterLink orders candidates for the network selection: operator
// priority first (lower wins), then health, then latency, then alias for
// determinism.
func betterLink(a, b *Link) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	if a.HealthPct != b.HealthPct {
		return a.HealthPct > b.HealthPct
	}
	if a.RespTimeMS != b.RespTimeMS {
		return a.RespTimeMS < b.RespTimeMS
	}
	return a.Alias < b.Alias
}
