package netstate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestApplyOutcomeFirstSuccess(t *testing.T) {
	l := newLink(LinkSpec{Alias: "primary", URL: "http://a", Monitored: true})
	require.Equal(t, StatusUnknown, l.Status)

	l.applyOutcome(OutcomeFirstTry, 20*time.Millisecond, "")

	require.Equal(t, StatusOK, l.Status)
	require.Equal(t, 100.0, l.HealthPct)
	require.Equal(t, 20.0, l.RespTimeMS)
	require.Equal(t, 100.0, l.SuccessPct)
	require.Equal(t, uint64(1), l.FirstAttemptOK)
	require.Empty(t, l.ErrorInfo)
}

func TestApplyOutcomeFirstFailure(t *testing.T) {
	l := newLink(LinkSpec{Alias: "primary", URL: "http://a", Monitored: true})

	l.applyOutcome(OutcomeNetworkDown, 0, "dial tcp: connection refused")

	require.Equal(t, StatusDown, l.Status)
	require.Equal(t, 0.0, l.HealthPct)
	require.Equal(t, 0.0, l.SuccessPct)
	require.Equal(t, uint64(1), l.FailNetwork)
	require.Equal(t, "dial tcp: connection refused", l.ErrorInfo)
}

func TestApplyOutcomeHealthDecay(t *testing.T) {
	l := newLink(LinkSpec{Alias: "primary", URL: "http://a", Monitored: true})
	l.applyOutcome(OutcomeFirstTry, 10*time.Millisecond, "")

	// One failure keeps the link OK, repeated failures degrade it.
	l.applyOutcome(OutcomeOther, 0, "boom")
	require.InDelta(t, 80.0, l.HealthPct, 0.001)
	require.Equal(t, StatusOK, l.Status)

	l.applyOutcome(OutcomeOther, 0, "boom")
	require.InDelta(t, 64.0, l.HealthPct, 0.001)
	require.Equal(t, StatusDegraded, l.Status)

	for i := 0; i < 5; i++ {
		l.applyOutcome(OutcomeOther, 0, "boom")
	}
	require.Less(t, l.HealthPct, healthDegradedThreshold)
	require.Equal(t, StatusDown, l.Status)
	require.Equal(t, "boom", l.ErrorInfo)
}

func TestApplyOutcomeRecoveryClearsErrorInfo(t *testing.T) {
	l := newLink(LinkSpec{Alias: "primary", URL: "http://a", Monitored: true})
	l.applyOutcome(OutcomeNetworkDown, 0, "refused")
	l.applyOutcome(OutcomeRetry, 15*time.Millisecond, "")

	require.Empty(t, l.ErrorInfo)
	require.Equal(t, uint64(1), l.RetryOK)
	require.Equal(t, 15.0, l.RespTimeMS, "first success sets the latency baseline directly")
	require.InDelta(t, 50.0, l.SuccessPct, 0.001)
}

func TestApplyOutcomeLatencyEMA(t *testing.T) {
	l := newLink(LinkSpec{Alias: "primary", URL: "http://a", Monitored: true})
	l.applyOutcome(OutcomeFirstTry, 10*time.Millisecond, "")
	l.applyOutcome(OutcomeFirstTry, 20*time.Millisecond, "")

	// 10*(1-0.3) + 20*0.3
	require.InDelta(t, 13.0, l.RespTimeMS, 0.001)
}

func TestResetStats(t *testing.T) {
	l := newLink(LinkSpec{Alias: "primary", URL: "http://a", Monitored: true})
	l.applyOutcome(OutcomeFirstTry, 10*time.Millisecond, "")
	l.applyOutcome(OutcomeOther, 0, "boom")

	l.resetStats()

	require.Equal(t, StatusUnknown, l.Status)
	require.Zero(t, l.HealthPct)
	require.Zero(t, l.RespTimeMS)
	require.Zero(t, l.Attempts())
	require.Empty(t, l.ErrorInfo)
}

func TestOutcomeSuccess(t *testing.T) {
	require.True(t, OutcomeFirstTry.Success())
	require.True(t, OutcomeRetry.Success())
	require.False(t, OutcomeNetworkDown.Success())
	require.False(t, OutcomeBadRequest.Success())
	require.False(t, OutcomeOther.Success())
}

func TestBetterLinkOrdering(t *testing.T) {
	mk := func(alias string, prio int, health, resp float64) *Link {
		return &Link{Alias: alias, Priority: prio, HealthPct: health, RespTimeMS: resp}
	}

	cases := []struct {
		name string
		a, b *Link
		want bool
	}{
		{"lower priority wins", mk("a", 1, 50, 100), mk("b", 2, 100, 1), true},
		{"higher health wins at equal priority", mk("a", 1, 90, 100), mk("b", 1, 80, 1), true},
		{"lower latency wins at equal health", mk("a", 1, 90, 10), mk("b", 1, 90, 20), true},
		{"alias breaks full ties", mk("a", 1, 90, 10), mk("b", 1, 90, 10), true},
		{"inverse ordering", mk("b", 2, 100, 1), mk("a", 1, 50, 100), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, betterLink(tc.a, tc.b))
		})
	}
}

func TestNetworkRecomputeGrades(t *testing.T) {
	spec := NetworkSpec{
		Name:        "testnet",
		CheckMethod: "system.health",
		Links: []LinkSpec{
			{Alias: "a", URL: "http://a", Monitored: true},
			{Alias: "b", URL: "http://b", Monitored: true},
		},
	}
	n, err := newNetwork(spec)
	require.NoError(t, err)
	require.Equal(t, StatusUnknown, n.Status)
	require.Equal(t, "awaiting first probe", n.StatusInfo)

	a, _ := n.findLink("a")
	b, _ := n.findLink("b")

	a.applyOutcome(OutcomeFirstTry, 10*time.Millisecond, "")
	n.recompute()
	require.Equal(t, StatusOK, n.Status)
	require.Equal(t, "1/2 links healthy", n.StatusInfo)
	require.Equal(t, "a", n.Selection)

	// Both down: the network follows.
	a.resetStats()
	a.applyOutcome(OutcomeNetworkDown, 0, "refused")
	b.applyOutcome(OutcomeNetworkDown, 0, "refused")
	n.recompute()
	require.Equal(t, StatusDown, n.Status)
	require.Equal(t, "all links down", n.StatusInfo)
	require.Empty(t, n.Selection)
}

func TestNetworkRecomputeNoMonitoredLinks(t *testing.T) {
	n, err := newNetwork(NetworkSpec{
		Name:  "quiet",
		Links: []LinkSpec{{Alias: "a", URL: "http://a", Monitored: false}},
	})
	require.NoError(t, err)
	require.Equal(t, StatusUnknown, n.Status)
	require.Equal(t, "no monitored links", n.StatusInfo)
}
