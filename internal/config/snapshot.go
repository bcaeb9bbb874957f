package config

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// Snapshot computes a stable hash of the reload-affecting configuration
// fields. The config watcher compares snapshots to skip redundant reloads
// when a file write did not change anything meaningful. Link entries are
// order-insensitive within a network (sorted by alias prior to hashing).
func (c *Config) Snapshot() string {
	if c == nil {
		return ""
	}
	h := sha256.New()
	w := func(parts ...string) {
		h.Write([]byte(strings.Join(parts, "=")))
		h.Write([]byte{0})
	}

	w("version", c.Version)
	w("daemon.api_addr", c.Daemon.APIAddr)
	w("daemon.admin_addr", c.Daemon.AdminAddr)
	w("probe.interval", c.Probe.Interval)
	w("probe.timeout", c.Probe.Timeout)
	w("probe.retry_delay", c.Probe.RetryDelay)
	w("probe.max_concurrent", strconv.Itoa(c.Probe.MaxConcurrent))

	networks := append([]NetworkConfig(nil), c.Networks...)
	sort.Slice(networks, func(i, j int) bool { return networks[i].Name < networks[j].Name })
	for _, network := range networks {
		w("network", network.Name, network.CheckMethod)
		links := append([]LinkConfig(nil), network.Links...)
		sort.Slice(links, func(i, j int) bool { return links[i].Alias < links[j].Alias })
		for _, link := range links {
			w("link", network.Name, link.Alias, link.URL,
				strconv.Itoa(link.Priority),
				strconv.FormatBool(link.IsMonitored()),
				strconv.FormatBool(link.H2C))
		}
	}

	w("notify.enabled", strconv.FormatBool(c.Notify.Enabled))
	w("notify.url", c.Notify.NATSURL)
	w("notify.prefix", c.Notify.SubjectPrefix)
	w("monitoring.logging.level", string(c.Monitoring.Logging.Level))
	w("monitoring.logging.format", string(c.Monitoring.Logging.Format))

	return hex.EncodeToString(h.Sum(nil))
}
