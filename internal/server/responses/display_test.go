package responses

import (
	"strings"
	"testing"
)

func TestRenderLinksDisplay(t *testing.T) {
	links := []LinkStats{
		{Alias: "primary", Status: "ok", HealthPct: 100, RespTime: 2.1, SuccessPct: 100},
		{Alias: "backup-eu", Status: "down", HealthPct: 12.5, RespTime: 0, SuccessPct: 40, ErrorInfo: "connection refused"},
	}
	out := RenderLinksDisplay("ok", "1/2 links healthy", "primary", links)

	for _, want := range []string{
		"links: ok ( 1/2 links healthy )",
		"selection: primary",
		"alias",
		"health%",
		"primary",
		"backup-eu",
		"connection refused",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("display missing %q:\n%s", want, out)
		}
	}

	// Rows align on the widest alias.
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	header := lines[len(lines)-3]
	if !strings.HasPrefix(header, "alias    ") {
		t.Errorf("alias column not padded to widest alias: %q", header)
	}
}

func TestRenderLinksDisplayNoLinks(t *testing.T) {
	out := RenderLinksDisplay("down", "all links down", "", nil)
	if strings.Contains(out, "alias") {
		t.Errorf("table header rendered without rows:\n%s", out)
	}
	if !strings.Contains(out, "links: down ( all links down )") {
		t.Errorf("status line missing:\n%s", out)
	}
}

func TestRenderStatusDisplay(t *testing.T) {
	services := []ServiceStatus{
		{Label: "probe scheduler", Status: "ok"},
		{Label: "notifier", Status: "down", StatusInfo: "nats unreachable"},
	}
	out := RenderStatusDisplay("testnet", "degraded", "0/2 links healthy, 1 degraded", "primary", services)

	for _, want := range []string{
		"testnet: degraded ( 0/2 links healthy, 1 degraded )",
		"selection: primary",
		"probe scheduler",
		"notifier",
		"nats unreachable",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("display missing %q:\n%s", want, out)
		}
	}
}
