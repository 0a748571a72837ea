// Package initcmd provides the interactive init command wizard.
package initcmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/certwatch-app/cw-certcheck/internal/config"
	"github.com/certwatch-app/cw-certcheck/internal/scanner"
)

// DefaultConfigPath is where the wizard writes unless told otherwise
const DefaultConfigPath = "./certcheck.yaml"

// WizardState holds all collected input during the wizard.
type WizardState struct {
	// Output configuration
	ConfigPath    string
	OverwriteFile bool

	// Agent configuration
	AgentName    string
	ScanInterval string
	LogLevel     string
	MetricsPort  string
	Concurrency  int

	// Check tuning
	ThresholdDays string
	CheckTimeout  string
	MaxAttempts   string

	// Publish configuration
	EnablePublish  bool
	APIKey         string
	APIEndpoint    string
	PublishTimeout string

	// Target configuration
	Targets       []TargetInput
	CurrentTarget TargetInput
	AddAnother    bool
}

// TargetInput represents user input for one target.
type TargetInput struct {
	Hostname string
	PortStr  string
	Tags     string // comma-separated, parsed later
	Notes    string
}

// NewWizardState creates a new WizardState with sensible defaults.
func NewWizardState() *WizardState {
	return &WizardState{
		ConfigPath:     DefaultConfigPath,
		ScanInterval:   "1h",
		LogLevel:       "info",
		MetricsPort:    "9402",
		Concurrency:    scanner.DefaultConcurrency,
		ThresholdDays:  strconv.Itoa(scanner.DefaultExpiryThresholdDays),
		CheckTimeout:   scanner.DefaultTimeout.String(),
		MaxAttempts:    strconv.Itoa(scanner.DefaultMaxAttempts),
		APIEndpoint:    "https://api.certwatch.app",
		PublishTimeout: "30s",
		Targets:        make([]TargetInput, 0),
		CurrentTarget: TargetInput{
			PortStr: "443",
		},
	}
}

// ToConfig converts the wizard state to a config.Config struct.
func (s *WizardState) ToConfig() (*config.Config, error) {
	scanInterval, err := time.ParseDuration(s.ScanInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid scan interval: %w", err)
	}

	checkTimeout, err := time.ParseDuration(s.CheckTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid check timeout: %w", err)
	}

	threshold, err := strconv.Atoi(s.ThresholdDays)
	if err != nil {
		return nil, fmt.Errorf("invalid expiry threshold: %w", err)
	}

	attempts, err := strconv.Atoi(s.MaxAttempts)
	if err != nil {
		return nil, fmt.Errorf("invalid max attempts: %w", err)
	}

	metricsPort := 0
	if s.MetricsPort != "" {
		metricsPort, err = strconv.Atoi(s.MetricsPort)
		if err != nil {
			return nil, fmt.Errorf("invalid metrics port: %w", err)
		}
	}

	targets := make([]config.TargetConfig, 0, len(s.Targets))
	for _, t := range s.Targets {
		port := config.DefaultPort
		if t.PortStr != "" {
			if p, err := strconv.Atoi(t.PortStr); err == nil {
				port = p
			}
		}

		targets = append(targets, config.TargetConfig{
			Hostname: strings.TrimSpace(t.Hostname),
			Port:     port,
			Tags:     parseTags(t.Tags),
			Notes:    strings.TrimSpace(t.Notes),
		})
	}

	cfg := &config.Config{
		Agent: config.AgentConfig{
			Name:         s.AgentName,
			LogLevel:     s.LogLevel,
			ScanInterval: scanInterval,
			Concurrency:  s.Concurrency,
			MetricsPort:  metricsPort,
		},
		Checks: config.ChecksConfig{
			ExpiryThresholdDays: threshold,
			Timeout:             checkTimeout,
			MaxAttempts:         attempts,
		},
		Targets: targets,
	}

	if s.EnablePublish {
		timeout, err := time.ParseDuration(s.PublishTimeout)
		if err != nil {
			timeout = 30 * time.Second
		}
		cfg.Publish = config.PublishConfig{
			Endpoint: s.APIEndpoint,
			Key:      s.APIKey,
			Timeout:  timeout,
		}
	}

	return cfg, nil
}

// parseTags parses comma-separated tags into a slice.
func parseTags(tagsStr string) []string {
	if strings.TrimSpace(tagsStr) == "" {
		return nil
	}

	parts := strings.Split(tagsStr, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		tag := strings.TrimSpace(p)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// ResetCurrentTarget resets the current target input for the next entry.
func (s *WizardState) ResetCurrentTarget() {
	s.CurrentTarget = TargetInput{
		PortStr: "443",
	}
	s.AddAnother = false
}

// SaveCurrentTarget saves the current target to the list.
func (s *WizardState) SaveCurrentTarget() {
	if strings.TrimSpace(s.CurrentTarget.Hostname) != "" {
		s.Targets = append(s.Targets, s.CurrentTarget)
	}
}
