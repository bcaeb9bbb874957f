package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// loadEnvFile loads environment variables from .env/.env.local files.
// It attempts each supported filename in order and stops at the first
// successfully parsed file. Existing process environment variables are
// not overwritten.
func loadEnvFile() error {
	envPaths := []string{".env", ".env.local"}
	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err == nil {
			fmt.Fprintf(os.Stderr, "Loaded environment variables from %s\n", envPath)
			return nil
		}
	}
	return fmt.Errorf("no .env file found")
}

// applyEnvOverrides lets the process environment override the addresses
// and logging knobs without touching the file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LINKMON_API_ADDR"); v != "" {
		cfg.Daemon.APIAddr = v
	}
	if v := os.Getenv("LINKMON_ADMIN_ADDR"); v != "" {
		cfg.Daemon.AdminAddr = v
	}
	if v := os.Getenv("LINKMON_NATS_URL"); v != "" {
		cfg.Notify.NATSURL = v
	}
	if v := os.Getenv("LINKMON_LOG_LEVEL"); v != "" {
		cfg.Monitoring.Logging.Level = NormalizeLogLevel(v)
	}
	if v := os.Getenv("LINKMON_LOG_FORMAT"); v != "" {
		cfg.Monitoring.Logging.Format = NormalizeLogFormat(v)
	}
}
