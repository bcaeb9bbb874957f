package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/linkmon/internal/netstate"
)

// Config represents the daemon configuration.
type Config struct {
	Version    string           `yaml:"version"`
	Daemon     DaemonConfig     `yaml:"daemon,omitempty"`
	Probe      ProbeConfig      `yaml:"probe,omitempty"`
	Networks   []NetworkConfig  `yaml:"networks"`
	Notify     NotifyConfig     `yaml:"notify,omitempty"`
	Monitoring MonitoringConfig `yaml:"monitoring,omitempty"`
}

// DaemonConfig represents the listening surface of the daemon.
type DaemonConfig struct {
	APIAddr       string `yaml:"api_addr"`                 // JSON-RPC polling endpoint
	AdminAddr     string `yaml:"admin_addr"`               // health/metrics/docs endpoints
	ShutdownGrace string `yaml:"shutdown_grace,omitempty"` // drain budget on stop
}

// ShutdownGraceDuration returns the parsed drain budget.
func (d DaemonConfig) ShutdownGraceDuration() time.Duration {
	grace, err := time.ParseDuration(d.ShutdownGrace)
	if err != nil {
		return 10 * time.Second
	}
	return grace
}

// ProbeConfig tunes the health check sweeps.
type ProbeConfig struct {
	Interval      string `yaml:"interval,omitempty"`       // pause between sweeps
	Timeout       string `yaml:"timeout,omitempty"`        // per-attempt HTTP timeout
	RetryDelay    string `yaml:"retry_delay,omitempty"`    // pause before the retry attempt
	MaxConcurrent int    `yaml:"max_concurrent,omitempty"` // in-flight probe bound
	UserAgent     string `yaml:"user_agent,omitempty"`
}

// IntervalDuration returns the parsed sweep interval.
func (p ProbeConfig) IntervalDuration() time.Duration {
	interval, err := time.ParseDuration(p.Interval)
	if err != nil {
		return 15 * time.Second
	}
	return interval
}

// TimeoutDuration returns the parsed per-attempt timeout.
func (p ProbeConfig) TimeoutDuration() time.Duration {
	timeout, err := time.ParseDuration(p.Timeout)
	if err != nil {
		return 5 * time.Second
	}
	return timeout
}

// RetryDelayDuration returns the parsed retry pause.
func (p ProbeConfig) RetryDelayDuration() time.Duration {
	delay, err := time.ParseDuration(p.RetryDelay)
	if err != nil {
		return 200 * time.Millisecond
	}
	return delay
}

// NetworkConfig represents one monitored network.
type NetworkConfig struct {
	Name        string       `yaml:"name"`
	CheckMethod string       `yaml:"check_method,omitempty"` // JSON-RPC method probed on each link
	Links       []LinkConfig `yaml:"links"`
}

// LinkConfig represents one redundant upstream of a network.
type LinkConfig struct {
	Alias     string `yaml:"alias"`
	URL       string `yaml:"url"`
	Priority  int    `yaml:"priority,omitempty"`  // lower is preferred for selection
	Monitored *bool  `yaml:"monitored,omitempty"` // omitted means monitored
	H2C       bool   `yaml:"h2c,omitempty"`       // cleartext HTTP/2 upstream
}

// IsMonitored resolves the optional monitored flag.
func (l LinkConfig) IsMonitored() bool {
	return l.Monitored == nil || *l.Monitored
}

// NotifyConfig represents NATS status notification configuration.
type NotifyConfig struct {
	Enabled       bool   `yaml:"enabled"`
	NATSURL       string `yaml:"nats_url,omitempty"`
	SubjectPrefix string `yaml:"subject_prefix,omitempty"`
}

// MonitoringConfig represents monitoring and observability configuration.
type MonitoringConfig struct {
	Metrics MonitoringMetrics `yaml:"metrics"`
	Health  MonitoringHealth  `yaml:"health"`
	Logging MonitoringLogging `yaml:"logging"`
}

// MonitoringMetrics represents metrics configuration.
type MonitoringMetrics struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MonitoringHealth represents health check configuration.
type MonitoringHealth struct {
	Path string `yaml:"path"`
}

// MonitoringLogging represents logging configuration.
type MonitoringLogging struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Load loads a configuration file (version 1.x).
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFile(); err != nil {
		// Don't fail if .env doesn't exist, just log it
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Version != "1.0" {
		return nil, fmt.Errorf("unsupported configuration version: %s (expected 1.0)", config.Version)
	}

	if err := applyDefaults(&config); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}

	// Process environment wins over file content and defaults.
	applyEnvOverrides(&config)

	if err := ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// NetworkSpecs converts the configured networks into state store specs.
func (c *Config) NetworkSpecs() []netstate.NetworkSpec {
	specs := make([]netstate.NetworkSpec, 0, len(c.Networks))
	for _, nc := range c.Networks {
		spec := netstate.NetworkSpec{
			Name:        nc.Name,
			CheckMethod: nc.CheckMethod,
		}
		for _, lc := range nc.Links {
			spec.Links = append(spec.Links, netstate.LinkSpec{
				Alias:     lc.Alias,
				URL:       lc.URL,
				Priority:  lc.Priority,
				Monitored: lc.IsMonitored(),
				H2C:       lc.H2C,
			})
		}
		specs = append(specs, spec)
	}
	return specs
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	monitored := true
	exampleConfig := Config{
		Version: "1.0",
		Daemon: DaemonConfig{
			APIAddr:       "127.0.0.1:44399",
			AdminAddr:     "127.0.0.1:44400",
			ShutdownGrace: "10s",
		},
		Probe: ProbeConfig{
			Interval:      "15s",
			Timeout:       "5s",
			RetryDelay:    "200ms",
			MaxConcurrent: 10,
		},
		Networks: []NetworkConfig{
			{
				Name:        "testnet",
				CheckMethod: "system.health",
				Links: []LinkConfig{
					{Alias: "primary", URL: "http://rpc-1.testnet.local:9000", Priority: 1, Monitored: &monitored},
					{Alias: "backup", URL: "http://rpc-2.testnet.local:9000", Priority: 2, Monitored: &monitored},
				},
			},
			{
				Name:        "devnet",
				CheckMethod: "system.health",
				Links: []LinkConfig{
					{Alias: "local", URL: "http://127.0.0.1:9000", Priority: 1, Monitored: &monitored, H2C: true},
				},
			},
		},
		Notify: NotifyConfig{
			Enabled:       false,
			NATSURL:       "nats://127.0.0.1:4222",
			SubjectPrefix: "linkmon",
		},
		Monitoring: MonitoringConfig{
			Metrics: MonitoringMetrics{Enabled: true, Path: "/metrics"},
			Health:  MonitoringHealth{Path: "/health"},
			Logging: MonitoringLogging{Level: LogLevelInfo, Format: LogFormatText},
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
