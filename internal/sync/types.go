// Package sync provides the client that publishes check results to a
// collector endpoint.
package sync

import (
	"time"

	"github.com/certwatch-app/cw-certcheck/internal/scanner"
)

// PublishRequest represents the batch publish payload
// Fields are ordered for optimal memory alignment
type PublishRequest struct {
	CheckedAt    time.Time        `json:"checked_at"`
	Counts       SummaryCounts    `json:"summary"`
	RunID        string           `json:"run_id"`
	AgentID      string           `json:"agent_id,omitempty"`
	AgentName    string           `json:"agent_name"`
	AgentVersion string           `json:"agent_version,omitempty"`
	AgentHost    string           `json:"agent_hostname,omitempty"`
	Records      []scanner.Record `json:"records"`
	Targets      []TargetMeta     `json:"targets,omitempty"`
}

// SummaryCounts are the batch totals sent alongside the records
type SummaryCounts struct {
	ByCategory   map[string]int `json:"by_category"`
	Total        int            `json:"total"`
	OK           int            `json:"ok"`
	Expired      int            `json:"expired"`
	ExpiringSoon int            `json:"expiring_soon"`
	Invalid      int            `json:"invalid"`
}

// TargetMeta carries the operator annotations of a target
type TargetMeta struct {
	Hostname string   `json:"hostname"`
	Notes    string   `json:"notes,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Port     int      `json:"port"`
}

// PublishResponse represents the collector response
// Fields are ordered for optimal memory alignment
type PublishResponse struct {
	Error   *APIError           `json:"error,omitempty"`
	AgentID string              `json:"agent_id"`
	Data    PublishResponseData `json:"data"`
	Success bool                `json:"success"`
}

// PublishResponseData contains the per-record outcome
type PublishResponseData struct {
	Errors   []RecordError `json:"errors,omitempty"`
	Accepted int           `json:"accepted"`
	Rejected int           `json:"rejected"`
}

// RecordError represents an error for a specific record
type RecordError struct {
	Hostname string `json:"hostname"`
	Error    string `json:"error"`
	Port     int    `json:"port"`
}

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
