// Package config handles configuration loading and validation for cw-certcheck.
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/certwatch-app/cw-certcheck/internal/logging"
	"github.com/certwatch-app/cw-certcheck/internal/scanner"
)

// DefaultPort is used for targets configured without a port
const DefaultPort = 443

// Config represents the complete configuration
type Config struct {
	Publish PublishConfig  `mapstructure:"publish" yaml:"publish,omitempty"`
	Agent   AgentConfig    `mapstructure:"agent" yaml:"agent"`
	Targets []TargetConfig `mapstructure:"targets" yaml:"targets"`
	Checks  ChecksConfig   `mapstructure:"checks" yaml:"checks"`
}

// PublishConfig contains the optional collector endpoint settings.
// Publishing is disabled when Endpoint is empty.
type PublishConfig struct {
	Endpoint string        `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	Key      string        `mapstructure:"key" yaml:"key,omitempty"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"`
}

// AgentConfig contains agent behavior settings
// Fields are ordered for optimal memory alignment
type AgentConfig struct {
	Name         string        `mapstructure:"name" yaml:"name"`
	LogLevel     string        `mapstructure:"log_level" yaml:"log_level"`
	StateDir     string        `mapstructure:"state_dir" yaml:"state_dir,omitempty"`
	ScanInterval time.Duration `mapstructure:"scan_interval" yaml:"scan_interval"`
	Concurrency  int           `mapstructure:"concurrency" yaml:"concurrency"`
	MetricsPort  int           `mapstructure:"metrics_port" yaml:"metrics_port"`
}

// ChecksConfig tunes each certificate check
type ChecksConfig struct {
	Timeout             time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RetryDelay          time.Duration `mapstructure:"retry_delay" yaml:"retry_delay,omitempty"`
	ExpiryThresholdDays int           `mapstructure:"expiry_threshold_days" yaml:"expiry_threshold_days"`
	MaxAttempts         int           `mapstructure:"max_attempts" yaml:"max_attempts"`
}

// TargetConfig represents an endpoint to check
// Fields are ordered for optimal memory alignment
type TargetConfig struct {
	Hostname string   `mapstructure:"hostname" yaml:"hostname"`
	Notes    string   `mapstructure:"notes" yaml:"notes,omitempty"`
	Tags     []string `mapstructure:"tags" yaml:"tags,omitempty"`
	Port     int      `mapstructure:"port" yaml:"port"`
}

// Load reads configuration from viper
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for i := range cfg.Targets {
		if cfg.Targets[i].Port == 0 {
			cfg.Targets[i].Port = DefaultPort
		}
	}

	return cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("agent.name", "default-agent")
	v.SetDefault("agent.log_level", "info")
	v.SetDefault("agent.scan_interval", "1h")
	v.SetDefault("agent.concurrency", scanner.DefaultConcurrency)
	v.SetDefault("agent.metrics_port", 9402)
	v.SetDefault("agent.state_dir", "")

	v.SetDefault("checks.expiry_threshold_days", scanner.DefaultExpiryThresholdDays)
	v.SetDefault("checks.timeout", scanner.DefaultTimeout.String())
	v.SetDefault("checks.max_attempts", scanner.DefaultMaxAttempts)
	v.SetDefault("checks.retry_delay", "0s")

	// publish keys need defaults so CW_PUBLISH_* env vars are picked up
	v.SetDefault("publish.endpoint", "")
	v.SetDefault("publish.key", "")
	v.SetDefault("publish.timeout", "30s")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.validateAgent(); err != nil {
		return fmt.Errorf("agent: %w", err)
	}

	if err := c.validateChecks(); err != nil {
		return fmt.Errorf("checks: %w", err)
	}

	if err := c.validatePublish(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	if err := c.validateTargets(); err != nil {
		return fmt.Errorf("targets: %w", err)
	}

	return nil
}

func (c *Config) validateAgent() error {
	if c.Agent.Name == "" {
		return fmt.Errorf("name is required")
	}

	if len(c.Agent.Name) > 100 {
		return fmt.Errorf("name must be at most 100 characters")
	}

	if c.Agent.ScanInterval < 10*time.Second {
		return fmt.Errorf("scan_interval must be at least 10 seconds")
	}

	if c.Agent.Concurrency < 1 || c.Agent.Concurrency > 50 {
		return fmt.Errorf("concurrency must be between 1 and 50")
	}

	if c.Agent.MetricsPort < 0 || c.Agent.MetricsPort > 65535 {
		return fmt.Errorf("metrics_port must be between 0 and 65535")
	}

	if !logging.ValidLevel(c.Agent.LogLevel) {
		return fmt.Errorf("log_level must be one of: %s", strings.Join(logging.Levels, ", "))
	}

	return nil
}

func (c *Config) validateChecks() error {
	if c.Checks.ExpiryThresholdDays < 0 || c.Checks.ExpiryThresholdDays > 365 {
		return fmt.Errorf("expiry_threshold_days must be between 0 and 365")
	}

	if c.Checks.Timeout < time.Second || c.Checks.Timeout > time.Minute {
		return fmt.Errorf("timeout must be between 1 second and 1 minute")
	}

	if c.Checks.MaxAttempts < 1 || c.Checks.MaxAttempts > 5 {
		return fmt.Errorf("max_attempts must be between 1 and 5")
	}

	if c.Checks.RetryDelay < 0 || c.Checks.RetryDelay > time.Minute {
		return fmt.Errorf("retry_delay must be between 0 and 1 minute")
	}

	return nil
}

func (c *Config) validatePublish() error {
	if !c.PublishEnabled() {
		return nil
	}

	u, err := url.Parse(c.Publish.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint URL: %w", err)
	}

	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("endpoint must use http or https scheme")
	}

	if c.Publish.Key == "" {
		return fmt.Errorf("key is required when endpoint is set")
	}

	if !strings.HasPrefix(c.Publish.Key, "cw_") {
		return fmt.Errorf("key must start with 'cw_' prefix")
	}

	if c.Publish.Timeout < time.Second {
		return fmt.Errorf("timeout must be at least 1 second")
	}

	return nil
}

// validateTargets rejects structurally broken entries only. A malformed
// hostname is left in: its check reports it as an input error.
func (c *Config) validateTargets() error {
	if len(c.Targets) == 0 {
		return fmt.Errorf("at least one target is required")
	}

	if len(c.Targets) > 1000 {
		return fmt.Errorf("maximum 1000 targets allowed")
	}

	seen := make(map[string]bool)
	for i, t := range c.Targets {
		if strings.TrimSpace(t.Hostname) == "" {
			return fmt.Errorf("[%d]: hostname is required", i)
		}

		if t.Port < 1 || t.Port > 65535 {
			return fmt.Errorf("[%d]: port must be between 1 and 65535", i)
		}

		key := t.GetHostPort()
		if seen[key] {
			return fmt.Errorf("[%d]: duplicate hostname:port '%s'", i, key)
		}
		seen[key] = true

		for j, tag := range t.Tags {
			if len(tag) > 50 {
				return fmt.Errorf("[%d]: tag[%d] must be at most 50 characters", i, j)
			}
		}

		if len(t.Notes) > 500 {
			return fmt.Errorf("[%d]: notes must be at most 500 characters", i)
		}
	}

	return nil
}

// PublishEnabled reports whether results are pushed to a collector
func (c *Config) PublishEnabled() bool {
	return c.Publish.Endpoint != ""
}

// ScanTargets converts the configured targets for the scanner
func (c *Config) ScanTargets() []scanner.Target {
	targets := make([]scanner.Target, 0, len(c.Targets))
	for _, t := range c.Targets {
		targets = append(targets, scanner.Target{Hostname: t.Hostname, Port: t.Port})
	}
	return targets
}

// ScannerOptions maps the checks and agent sections onto scanner options
func (c *Config) ScannerOptions() scanner.Options {
	threshold := c.Checks.ExpiryThresholdDays
	return scanner.Options{
		Timeout:             c.Checks.Timeout,
		RetryDelay:          c.Checks.RetryDelay,
		MaxAttempts:         c.Checks.MaxAttempts,
		ExpiryThresholdDays: &threshold,
		Concurrency:         c.Agent.Concurrency,
	}
}

// GetHostPort returns the hostname:port string for a target
func (t *TargetConfig) GetHostPort() string {
	return net.JoinHostPort(t.Hostname, strconv.Itoa(t.Port))
}

// ParseTarget parses "host", "host:port" or "[v6addr]:port".
func ParseTarget(s string) (TargetConfig, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TargetConfig{}, fmt.Errorf("empty target")
	}

	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		// no port given
		return TargetConfig{Hostname: strings.Trim(s, "[]"), Port: DefaultPort}, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return TargetConfig{}, fmt.Errorf("invalid port in %q", s)
	}

	if host == "" {
		return TargetConfig{}, fmt.Errorf("missing hostname in %q", s)
	}

	return TargetConfig{Hostname: host, Port: port}, nil
}

// ParseTargets parses a comma separated target list, skipping blanks.
func ParseTargets(list string) ([]TargetConfig, error) {
	var targets []TargetConfig
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		t, err := ParseTarget(part)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}
