package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"git.home.luguber.info/inful/linkmon/internal/slab"
)

// ValidateConfig validates the complete configuration structure.
func ValidateConfig(cfg *Config) error {
	validator := newConfigurationValidator(cfg)
	return validator.validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

// validate performs configuration validation using domain-specific methods.
func (cv *configurationValidator) validate() error {
	if err := cv.validateDaemon(); err != nil {
		return err
	}
	if err := cv.validateProbe(); err != nil {
		return err
	}
	if err := cv.validateNetworks(); err != nil {
		return err
	}
	if err := cv.validateNotify(); err != nil {
		return err
	}
	return nil
}

// validateDaemon checks the listening addresses.
func (cv *configurationValidator) validateDaemon() error {
	if _, _, err := net.SplitHostPort(cv.config.Daemon.APIAddr); err != nil {
		return fmt.Errorf("invalid api_addr %q: %w", cv.config.Daemon.APIAddr, err)
	}
	if _, _, err := net.SplitHostPort(cv.config.Daemon.AdminAddr); err != nil {
		return fmt.Errorf("invalid admin_addr %q: %w", cv.config.Daemon.AdminAddr, err)
	}
	if cv.config.Daemon.APIAddr == cv.config.Daemon.AdminAddr {
		return fmt.Errorf("api_addr and admin_addr must differ, both are %s", cv.config.Daemon.APIAddr)
	}
	if _, err := time.ParseDuration(cv.config.Daemon.ShutdownGrace); err != nil {
		return fmt.Errorf("invalid shutdown_grace: %w", err)
	}
	return nil
}

// validateProbe checks sweep timing.
func (cv *configurationValidator) validateProbe() error {
	interval, err := time.ParseDuration(cv.config.Probe.Interval)
	if err != nil {
		return fmt.Errorf("invalid probe interval: %w", err)
	}
	if interval < time.Second {
		return fmt.Errorf("probe interval %s below minimum 1s", interval)
	}
	timeout, err := time.ParseDuration(cv.config.Probe.Timeout)
	if err != nil {
		return fmt.Errorf("invalid probe timeout: %w", err)
	}
	if timeout <= 0 {
		return fmt.Errorf("probe timeout must be positive, got %s", timeout)
	}
	if _, err := time.ParseDuration(cv.config.Probe.RetryDelay); err != nil {
		return fmt.Errorf("invalid probe retry_delay: %w", err)
	}
	if cv.config.Probe.MaxConcurrent < 1 {
		return fmt.Errorf("probe max_concurrent must be at least 1, got %d", cv.config.Probe.MaxConcurrent)
	}
	return nil
}

// validateNetworks checks network and link definitions.
func (cv *configurationValidator) validateNetworks() error {
	networkNames := make(map[string]bool)

	for _, network := range cv.config.Networks {
		if network.Name == "" {
			return fmt.Errorf("network name cannot be empty")
		}
		if networkNames[network.Name] {
			return fmt.Errorf("duplicate network name: %s", network.Name)
		}
		networkNames[network.Name] = true

		if len(network.Links) > slab.DefaultLimit {
			return fmt.Errorf("network %s has %d links, maximum is %d", network.Name, len(network.Links), slab.DefaultLimit)
		}

		aliases := make(map[string]bool)
		for _, link := range network.Links {
			if link.Alias == "" {
				return fmt.Errorf("network %s: link alias cannot be empty", network.Name)
			}
			if aliases[link.Alias] {
				return fmt.Errorf("network %s: duplicate link alias: %s", network.Name, link.Alias)
			}
			aliases[link.Alias] = true

			if err := validateLinkURL(link.URL); err != nil {
				return fmt.Errorf("network %s, link %s: %w", network.Name, link.Alias, err)
			}
			if link.Priority < 0 {
				return fmt.Errorf("network %s, link %s: priority cannot be negative", network.Name, link.Alias)
			}
		}
	}
	return nil
}

func validateLinkURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("url cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported url scheme %q (expected http or https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", raw)
	}
	return nil
}

// validateNotify checks the NATS notification settings.
func (cv *configurationValidator) validateNotify() error {
	if !cv.config.Notify.Enabled {
		return nil
	}
	if cv.config.Notify.NATSURL == "" {
		return fmt.Errorf("notify is enabled but nats_url is empty")
	}
	prefix := cv.config.Notify.SubjectPrefix
	if prefix == "" {
		return fmt.Errorf("notify is enabled but subject_prefix is empty")
	}
	if strings.ContainsAny(prefix, " \t*>") {
		return fmt.Errorf("invalid subject_prefix %q: whitespace and wildcards not allowed", prefix)
	}
	return nil
}
