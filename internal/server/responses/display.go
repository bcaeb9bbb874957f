package responses

import (
	"fmt"
	"strings"
)

// RenderLinksDisplay formats a links result as the fixed-width text
// table CLI clients print verbatim.
func RenderLinksDisplay(status, info, selection string, links []LinkStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "links: %s", status)
	if info != "" {
		fmt.Fprintf(&b, " ( %s )", info)
	}
	b.WriteByte('\n')
	if selection != "" {
		fmt.Fprintf(&b, "selection: %s\n", selection)
	}
	if len(links) == 0 {
		return b.String()
	}
	b.WriteByte('\n')
	fmt.Fprintf(&b, "%-*s %-8s %8s %9s %9s\n", aliasWidth(links), "alias", "status", "health%", "resp ms", "success%")
	for _, l := range links {
		fmt.Fprintf(&b, "%-*s %-8s %8.1f %9.1f %9.1f", aliasWidth(links), l.Alias, l.Status, l.HealthPct, l.RespTime, l.SuccessPct)
		if l.ErrorInfo != "" {
			fmt.Fprintf(&b, "  %s", l.ErrorInfo)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderStatusDisplay formats a status result for terminal output.
func RenderStatusDisplay(network, status, statusInfo, selection string, services []ServiceStatus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", network, status)
	if statusInfo != "" {
		fmt.Fprintf(&b, " ( %s )", statusInfo)
	}
	b.WriteByte('\n')
	if selection != "" {
		fmt.Fprintf(&b, "selection: %s\n", selection)
	}
	for _, svc := range services {
		fmt.Fprintf(&b, "  %-16s %s", svc.Label, svc.Status)
		if svc.StatusInfo != "" {
			fmt.Fprintf(&b, " ( %s )", svc.StatusInfo)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func aliasWidth(links []LinkStats) int {
	w := len("alias")
	for _, l := range links {
		if len(l.Alias) > w {
			w = len(l.Alias)
		}
	}
	return w
}
