package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "linkmon.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

const fullConfig = `version: "1.0"
daemon:
  api_addr: "127.0.0.1:9100"
  admin_addr: "127.0.0.1:9101"
  shutdown_grace: 5s
probe:
  interval: 30s
  timeout: 3s
  retry_delay: 100ms
  max_concurrent: 4
networks:
  - name: testnet
    check_method: system.health
    links:
      - alias: primary
        url: http://rpc-1.testnet.local:9000
        priority: 1
      - alias: backup
        url: https://rpc-2.testnet.local
        priority: 2
        monitored: false
        h2c: true
notify:
  enabled: true
  nats_url: nats://127.0.0.1:4222
  subject_prefix: linkmon
monitoring:
  metrics:
    enabled: true
    path: /custom-metrics
  logging:
    level: debug
    format: json
`

func TestLoadConfig(t *testing.T) {
	config, err := Load(writeConfig(t, fullConfig))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if config.Version != "1.0" {
		t.Errorf("Version = %v, want 1.0", config.Version)
	}
	if config.Daemon.APIAddr != "127.0.0.1:9100" {
		t.Errorf("APIAddr = %v, want 127.0.0.1:9100", config.Daemon.APIAddr)
	}
	if got := config.Probe.IntervalDuration().Seconds(); got != 30 {
		t.Errorf("Interval = %vs, want 30s", got)
	}
	if config.Probe.MaxConcurrent != 4 {
		t.Errorf("MaxConcurrent = %v, want 4", config.Probe.MaxConcurrent)
	}

	if len(config.Networks) != 1 {
		t.Fatalf("Networks count = %v, want 1", len(config.Networks))
	}
	network := config.Networks[0]
	if network.Name != "testnet" || network.CheckMethod != "system.health" {
		t.Errorf("Network = %v/%v, want testnet/system.health", network.Name, network.CheckMethod)
	}
	if len(network.Links) != 2 {
		t.Fatalf("Links count = %v, want 2", len(network.Links))
	}
	if !network.Links[0].IsMonitored() {
		t.Errorf("primary should default to monitored")
	}
	if network.Links[1].IsMonitored() {
		t.Errorf("backup was explicitly unmonitored")
	}
	if !network.Links[1].H2C {
		t.Errorf("backup should carry h2c")
	}

	if !config.Notify.Enabled || config.Notify.SubjectPrefix != "linkmon" {
		t.Errorf("Notify = %+v, want enabled with linkmon prefix", config.Notify)
	}
	if config.Monitoring.Metrics.Path != "/custom-metrics" {
		t.Errorf("Metrics path = %v, want /custom-metrics", config.Monitoring.Metrics.Path)
	}
	if config.Monitoring.Logging.Level != LogLevelDebug {
		t.Errorf("Logging level = %v, want %s", config.Monitoring.Logging.Level, LogLevelDebug)
	}
}

func TestConfigDefaults(t *testing.T) {
	configContent := `version: "1.0"
networks:
  - name: testnet
    links:
      - alias: primary
        url: http://127.0.0.1:9000
`
	config, err := Load(writeConfig(t, configContent))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if config.Daemon.APIAddr != "127.0.0.1:44399" {
		t.Errorf("APIAddr default = %v, want 127.0.0.1:44399", config.Daemon.APIAddr)
	}
	if config.Daemon.AdminAddr != "127.0.0.1:44400" {
		t.Errorf("AdminAddr default = %v, want 127.0.0.1:44400", config.Daemon.AdminAddr)
	}
	if config.Probe.Interval != "15s" || config.Probe.Timeout != "5s" {
		t.Errorf("Probe defaults = %v/%v, want 15s/5s", config.Probe.Interval, config.Probe.Timeout)
	}
	if config.Probe.MaxConcurrent != 10 {
		t.Errorf("MaxConcurrent default = %v, want 10", config.Probe.MaxConcurrent)
	}
	if config.Networks[0].CheckMethod != "rpc.discover" {
		t.Errorf("CheckMethod default = %v, want rpc.discover", config.Networks[0].CheckMethod)
	}
	if config.Notify.SubjectPrefix != "linkmon" {
		t.Errorf("SubjectPrefix default = %v, want linkmon", config.Notify.SubjectPrefix)
	}
	if config.Monitoring.Metrics.Path != "/metrics" || config.Monitoring.Health.Path != "/health" {
		t.Errorf("Monitoring paths = %v/%v, want /metrics//health",
			config.Monitoring.Metrics.Path, config.Monitoring.Health.Path)
	}
	if config.Monitoring.Logging.Level != LogLevelInfo || config.Monitoring.Logging.Format != LogFormatText {
		t.Errorf("Logging defaults = %v/%v, want info/text",
			config.Monitoring.Logging.Level, config.Monitoring.Logging.Format)
	}
}

func TestLoadRejectsWrongVersion(t *testing.T) {
	_, err := Load(writeConfig(t, `version: "2.0"`))
	if err == nil || !strings.Contains(err.Error(), "unsupported configuration version") {
		t.Fatalf("expected version error, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TESTNET_RPC", "http://expanded.local:9000")
	configContent := `version: "1.0"
networks:
  - name: testnet
    links:
      - alias: primary
        url: ${TESTNET_RPC}
`
	config, err := Load(writeConfig(t, configContent))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got := config.Networks[0].Links[0].URL; got != "http://expanded.local:9000" {
		t.Errorf("URL = %v, want expanded value", got)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LINKMON_API_ADDR", "0.0.0.0:7000")
	t.Setenv("LINKMON_LOG_LEVEL", "ERROR")

	configContent := `version: "1.0"
networks: []
`
	config, err := Load(writeConfig(t, configContent))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if config.Daemon.APIAddr != "0.0.0.0:7000" {
		t.Errorf("APIAddr = %v, want override 0.0.0.0:7000", config.Daemon.APIAddr)
	}
	if config.Monitoring.Logging.Level != LogLevelError {
		t.Errorf("Level = %v, want error", config.Monitoring.Logging.Level)
	}
}

func TestValidationFailures(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "duplicate network",
			content: `version: "1.0"
networks:
  - name: testnet
    links: [{alias: a, url: "http://a:1"}]
  - name: testnet
    links: [{alias: a, url: "http://a:1"}]
`,
			wantErr: "duplicate network name",
		},
		{
			name: "duplicate alias",
			content: `version: "1.0"
networks:
  - name: testnet
    links:
      - {alias: a, url: "http://a:1"}
      - {alias: a, url: "http://b:1"}
`,
			wantErr: "duplicate link alias",
		},
		{
			name: "empty alias",
			content: `version: "1.0"
networks:
  - name: testnet
    links: [{alias: "", url: "http://a:1"}]
`,
			wantErr: "alias cannot be empty",
		},
		{
			name: "bad scheme",
			content: `version: "1.0"
networks:
  - name: testnet
    links: [{alias: a, url: "ftp://a:1"}]
`,
			wantErr: "unsupported url scheme",
		},
		{
			name: "negative priority",
			content: `version: "1.0"
networks:
  - name: testnet
    links: [{alias: a, url: "http://a:1", priority: -1}]
`,
			wantErr: "priority cannot be negative",
		},
		{
			name: "colliding listeners",
			content: `version: "1.0"
daemon:
  api_addr: "127.0.0.1:9100"
  admin_addr: "127.0.0.1:9100"
networks: []
`,
			wantErr: "must differ",
		},
		{
			name: "interval too small",
			content: `version: "1.0"
probe:
  interval: 100ms
networks: []
`,
			wantErr: "below minimum",
		},
		{
			name: "notify without url",
			content: `version: "1.0"
networks: []
notify:
  enabled: true
  nats_url: ""
`,
			wantErr: "nats_url is empty",
		},
		{
			name: "wildcard prefix",
			content: `version: "1.0"
networks: []
notify:
  enabled: true
  nats_url: nats://127.0.0.1:4222
  subject_prefix: "linkmon.>"
`,
			wantErr: "wildcards not allowed",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error = %v, want substring %q", err, tc.wantErr)
			}
		})
	}
}

func TestNotifyDefaultURLOnlyWhenEnabled(t *testing.T) {
	configContent := `version: "1.0"
networks: []
notify:
  enabled: true
`
	config, err := Load(writeConfig(t, configContent))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if config.Notify.NATSURL != "nats://127.0.0.1:4222" {
		t.Errorf("NATSURL = %v, want default", config.Notify.NATSURL)
	}
}

func TestNetworkSpecs(t *testing.T) {
	config, err := Load(writeConfig(t, fullConfig))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	specs := config.NetworkSpecs()
	if len(specs) != 1 {
		t.Fatalf("specs count = %v, want 1", len(specs))
	}
	if specs[0].Name != "testnet" || len(specs[0].Links) != 2 {
		t.Fatalf("spec = %+v, want testnet with 2 links", specs[0])
	}
	if !specs[0].Links[0].Monitored {
		t.Errorf("primary spec should be monitored")
	}
	if specs[0].Links[1].Monitored {
		t.Errorf("backup spec should be unmonitored")
	}
	if !specs[0].Links[1].H2C {
		t.Errorf("backup spec should carry h2c")
	}
}

func TestSnapshotStability(t *testing.T) {
	a, err := Load(writeConfig(t, fullConfig))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	b, err := Load(writeConfig(t, fullConfig))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if a.Snapshot() != b.Snapshot() {
		t.Errorf("identical configs must hash identically")
	}

	b.Networks[0].Links[0].URL = "http://moved.local:9000"
	if a.Snapshot() == b.Snapshot() {
		t.Errorf("changed link URL must change the snapshot")
	}
}

func TestSnapshotIgnoresLinkOrder(t *testing.T) {
	a, err := Load(writeConfig(t, fullConfig))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	b, err := Load(writeConfig(t, fullConfig))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	links := b.Networks[0].Links
	links[0], links[1] = links[1], links[0]
	if a.Snapshot() != b.Snapshot() {
		t.Errorf("link order must not affect the snapshot")
	}
}

func TestInitWritesLoadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "example.yaml")
	if err := Init(path, false); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	if err := Init(path, false); err == nil {
		t.Fatalf("Init() should refuse to overwrite without force")
	}
	if err := Init(path, true); err != nil {
		t.Fatalf("Init(force) error: %v", err)
	}

	config, err := Load(path)
	if err != nil {
		t.Fatalf("Load(example) error: %v", err)
	}
	if len(config.Networks) == 0 {
		t.Errorf("example config should define networks")
	}
}
