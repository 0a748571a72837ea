package initcmd

import (
	"strings"
	"testing"
)

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid key", "cw_live_xxxxxxxxxxxx", false},
		{"valid key long", "cw_test_abcdefghijklmnopqrstuvwxyz1234567890", false},
		{"empty key", "", true},
		{"missing prefix", "xxxxxxxxxxxx", true},
		{"wrong prefix", "sk_live_xxxxxxxxxxxx", true},
		{"too short", "cw_xx", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAPIKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAPIKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestValidateEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		wantErr  bool
	}{
		{"valid https", "https://api.certwatch.app", false},
		{"valid http", "http://localhost:3000", false},
		{"valid with path", "https://api.certwatch.app/v1", false},
		{"empty", "", true},
		{"missing scheme", "api.certwatch.app", true},
		{"ftp scheme", "ftp://example.com", true},
		{"no host", "https://", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEndpoint(tt.endpoint)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEndpoint(%q) error = %v, wantErr %v", tt.endpoint, err, tt.wantErr)
			}
		})
	}
}

func TestValidateAgentName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "my-agent", false},
		{"valid with spaces", "Production Agent", false},
		{"empty", "", true},
		{"too long", strings.Repeat("a", 101), true},
		{"exactly 100", strings.Repeat("a", 100), false},
		{"with newline", "agent\nname", true},
		{"with tab", "agent\tname", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAgentName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAgentName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateHostname(t *testing.T) {
	tests := []struct {
		name     string
		hostname string
		wantErr  bool
	}{
		{"valid simple", "example.com", false},
		{"valid subdomain", "api.example.com", false},
		{"valid with hyphen", "my-api.example.com", false},
		{"ipv4", "192.168.1.1", false},
		{"ipv6", "::1", false},
		{"empty", "", true},
		{"with spaces", "api example.com", true},
		{"with protocol", "https://example.com", true},
		{"with invalid char", "api@example.com", true},
		{"wildcard", "*.example.com", true},
		{"empty label", "bad..hostname", true},
		{"leading hyphen", "-api.example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHostname(tt.hostname)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateHostname(%q) error = %v, wantErr %v", tt.hostname, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePort(t *testing.T) {
	tests := []struct {
		name    string
		portStr string
		wantErr bool
	}{
		{"valid 443", "443", false},
		{"valid 65535", "65535", false},
		{"empty (default)", "", false},
		{"zero", "0", true},
		{"too high", "65536", true},
		{"not a number", "abc", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePort(tt.portStr)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePort(%q) error = %v, wantErr %v", tt.portStr, err, tt.wantErr)
			}
		})
	}
}

func TestValidateThreshold(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"30", false},
		{"1", false},
		{"365", false},
		{"0", false},
		{"-1", true},
		{"366", true},
		{"7.5", true},
		{"", true},
	}

	for _, tt := range tests {
		if err := ValidateThreshold(tt.in); (err != nil) != tt.wantErr {
			t.Errorf("ValidateThreshold(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
	}
}

func TestValidateCheckTimeout(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"5s", false},
		{"1m", false},
		{"500ms", true},
		{"2m", true},
		{"five", true},
	}

	for _, tt := range tests {
		if err := ValidateCheckTimeout(tt.in); (err != nil) != tt.wantErr {
			t.Errorf("ValidateCheckTimeout(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
	}
}

func TestValidateTagsAndNotes(t *testing.T) {
	if err := ValidateTags("production, api"); err != nil {
		t.Errorf("ValidateTags(valid) error = %v", err)
	}
	if err := ValidateTags(strings.Repeat("t", 51)); err == nil {
		t.Error("ValidateTags(long) error = nil")
	}
	if err := ValidateNotes(strings.Repeat("n", 500)); err != nil {
		t.Errorf("ValidateNotes(500) error = %v", err)
	}
	if err := ValidateNotes(strings.Repeat("n", 501)); err == nil {
		t.Error("ValidateNotes(501) error = nil")
	}
}

func TestValidateConfigPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"valid relative", "./certcheck.yaml", false},
		{"valid current dir", "certcheck.yaml", false},
		{"missing dir is created later", "/nonexistent-dir-for-test/certcheck.yaml", false},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfigPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfigPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}
