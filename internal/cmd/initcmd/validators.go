package initcmd

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/certwatch-app/cw-certcheck/internal/classify"
)

// ValidateConfigPath validates the output file path.
func ValidateConfigPath(path string) error {
	if path == "" {
		return fmt.Errorf("config path is required")
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			if os.IsNotExist(err) {
				// created during write
				return nil
			}
			return fmt.Errorf("cannot access directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("'%s' is not a directory", dir)
		}
	}

	return nil
}

// ValidateAPIKey validates the API key format.
func ValidateAPIKey(key string) error {
	if key == "" {
		return fmt.Errorf("API key is required")
	}

	if !strings.HasPrefix(key, "cw_") {
		return fmt.Errorf("API key must start with 'cw_'")
	}

	if len(key) < 10 {
		return fmt.Errorf("API key appears too short")
	}

	return nil
}

// ValidateEndpoint validates the collector endpoint URL.
func ValidateEndpoint(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("endpoint is required when publishing is enabled")
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("URL must use http or https")
	}

	if u.Host == "" {
		return fmt.Errorf("URL must include a host")
	}

	return nil
}

// ValidateAgentName validates the agent name.
func ValidateAgentName(name string) error {
	if name == "" {
		return fmt.Errorf("agent name is required")
	}

	if len(name) > 100 {
		return fmt.Errorf("name must be at most 100 characters")
	}

	if strings.ContainsAny(name, "\n\r\t") {
		return fmt.Errorf("name cannot contain newlines or tabs")
	}

	return nil
}

// ValidateHostname validates a target hostname. IP addresses are accepted
// as is; names must be valid DNS hostnames.
func ValidateHostname(hostname string) error {
	if hostname == "" {
		return fmt.Errorf("hostname is required")
	}

	if strings.Contains(hostname, "://") {
		return fmt.Errorf("hostname should not include protocol (use 'example.com' not 'https://example.com')")
	}

	if strings.Contains(hostname, " ") {
		return fmt.Errorf("hostname cannot contain spaces")
	}

	if net.ParseIP(hostname) != nil {
		return nil
	}

	if !classify.ValidHostname(hostname) {
		return fmt.Errorf("'%s' is not a valid hostname", hostname)
	}

	return nil
}

// ValidatePort validates a port number string.
func ValidatePort(portStr string) error {
	if portStr == "" {
		return nil // default 443
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("port must be a number")
	}

	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}

	return nil
}

// ValidateThreshold validates the expiry threshold in days.
func ValidateThreshold(s string) error {
	days, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("threshold must be a whole number of days")
	}

	if days < 0 || days > 365 {
		return fmt.Errorf("threshold must be between 0 and 365 days")
	}

	return nil
}

// ValidateCheckTimeout validates the per-attempt timeout.
func ValidateCheckTimeout(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("timeout must be a duration like 5s")
	}

	if d < time.Second || d > time.Minute {
		return fmt.Errorf("timeout must be between 1s and 1m")
	}

	return nil
}

// ValidateTags validates the tags input.
func ValidateTags(tagsStr string) error {
	if tagsStr == "" {
		return nil
	}

	for _, p := range strings.Split(tagsStr, ",") {
		if len(strings.TrimSpace(p)) > 50 {
			return fmt.Errorf("each tag must be at most 50 characters")
		}
	}

	return nil
}

// ValidateNotes validates the notes input.
func ValidateNotes(notes string) error {
	if len(notes) > 500 {
		return fmt.Errorf("notes must be at most 500 characters")
	}
	return nil
}
