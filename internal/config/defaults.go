package config

import "fmt"

// ConfigDefaultApplier applies defaults for a specific configuration domain.
type ConfigDefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// DaemonDefaultApplier handles daemon listener defaults.
type DaemonDefaultApplier struct{}

func (d *DaemonDefaultApplier) Domain() string { return "daemon" }

func (d *DaemonDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Daemon.APIAddr == "" {
		cfg.Daemon.APIAddr = "127.0.0.1:44399"
	}
	if cfg.Daemon.AdminAddr == "" {
		cfg.Daemon.AdminAddr = "127.0.0.1:44400"
	}
	if cfg.Daemon.ShutdownGrace == "" {
		cfg.Daemon.ShutdownGrace = "10s"
	}
	return nil
}

// ProbeDefaultApplier handles probe sweep defaults.
type ProbeDefaultApplier struct{}

func (p *ProbeDefaultApplier) Domain() string { return "probe" }

func (p *ProbeDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Probe.Interval == "" {
		cfg.Probe.Interval = "15s"
	}
	if cfg.Probe.Timeout == "" {
		cfg.Probe.Timeout = "5s"
	}
	if cfg.Probe.RetryDelay == "" {
		cfg.Probe.RetryDelay = "200ms"
	}
	if cfg.Probe.MaxConcurrent <= 0 {
		cfg.Probe.MaxConcurrent = 10
	}
	if cfg.Probe.UserAgent == "" {
		cfg.Probe.UserAgent = "linkmon-prober/1.0"
	}
	return nil
}

// NetworkDefaultApplier handles per-network defaults.
type NetworkDefaultApplier struct{}

func (n *NetworkDefaultApplier) Domain() string { return "networks" }

func (n *NetworkDefaultApplier) ApplyDefaults(cfg *Config) error {
	for i := range cfg.Networks {
		if cfg.Networks[i].CheckMethod == "" {
			cfg.Networks[i].CheckMethod = "rpc.discover"
		}
	}
	return nil
}

// NotifyDefaultApplier handles notification defaults.
type NotifyDefaultApplier struct{}

func (n *NotifyDefaultApplier) Domain() string { return "notify" }

func (n *NotifyDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Notify.SubjectPrefix == "" {
		cfg.Notify.SubjectPrefix = "linkmon"
	}
	if cfg.Notify.Enabled && cfg.Notify.NATSURL == "" {
		cfg.Notify.NATSURL = "nats://127.0.0.1:4222"
	}
	return nil
}

// MonitoringDefaultApplier handles observability defaults.
type MonitoringDefaultApplier struct{}

func (m *MonitoringDefaultApplier) Domain() string { return "monitoring" }

func (m *MonitoringDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Monitoring.Metrics.Path == "" {
		cfg.Monitoring.Metrics.Path = "/metrics"
	}
	if cfg.Monitoring.Health.Path == "" {
		cfg.Monitoring.Health.Path = "/health"
	}
	cfg.Monitoring.Logging.Level = NormalizeLogLevel(string(cfg.Monitoring.Logging.Level))
	cfg.Monitoring.Logging.Format = NormalizeLogFormat(string(cfg.Monitoring.Logging.Format))
	return nil
}

// CompositeDefaultApplier applies defaults across all configuration domains.
type CompositeDefaultApplier struct {
	appliers []ConfigDefaultApplier
}

// NewDefaultApplier creates a composite default applier with all domain appliers.
func NewDefaultApplier() *CompositeDefaultApplier {
	return &CompositeDefaultApplier{
		appliers: []ConfigDefaultApplier{
			&DaemonDefaultApplier{},
			&ProbeDefaultApplier{},
			&NetworkDefaultApplier{},
			&NotifyDefaultApplier{},
			&MonitoringDefaultApplier{},
		},
	}
}

// ApplyDefaults applies defaults for all configuration domains.
func (c *CompositeDefaultApplier) ApplyDefaults(cfg *Config) error {
	for _, applier := range c.appliers {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return fmt.Errorf("applying defaults for %s: %w", applier.Domain(), err)
		}
	}
	return nil
}

func applyDefaults(cfg *Config) error {
	return NewDefaultApplier().ApplyDefaults(cfg)
}
