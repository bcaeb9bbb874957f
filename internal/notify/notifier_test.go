package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/linkmon/internal/netstate"
)

func TestEventForLinkTransition(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	subject, event := eventFor("linkmon", netstate.Transition{
		Network: "testnet",
		Alias:   "primary",
		From:    netstate.StatusOK,
		To:      netstate.StatusDown,
		At:      at,
	})

	require.Equal(t, "linkmon.link.status", subject)
	require.Equal(t, "testnet", event.Network)
	require.Equal(t, "primary", event.Alias)
	require.Equal(t, "ok", event.From)
	require.Equal(t, "down", event.To)
	require.Equal(t, at, event.Timestamp)
}

func TestEventForNetworkTransition(t *testing.T) {
	subject, event := eventFor("custom", netstate.Transition{
		Network: "testnet",
		From:    netstate.StatusUnknown,
		To:      netstate.StatusOK,
	})

	require.Equal(t, "custom.network.status", subject)
	require.Empty(t, event.Alias)
}

func TestEventPayloadOmitsEmptyAlias(t *testing.T) {
	_, event := eventFor("linkmon", netstate.Transition{Network: "testnet", From: netstate.StatusOK, To: netstate.StatusDown})
	data, err := json.Marshal(event)
	require.NoError(t, err)
	require.NotContains(t, string(data), "alias")
	require.Contains(t, string(data), `"network":"testnet"`)
}

func TestDisabledNotifierDropsEvents(t *testing.T) {
	n := Disabled()
	require.False(t, n.Enabled())
	require.NoError(t, n.PublishTransition(context.Background(), netstate.Transition{Network: "testnet"}))
	require.NoError(t, n.Close())
}

func TestNilNotifierIsSafe(t *testing.T) {
	var n *Notifier
	require.False(t, n.Enabled())
	require.NoError(t, n.Close())
}
