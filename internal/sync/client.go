package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/certwatch-app/cw-certcheck/internal/config"
	"github.com/certwatch-app/cw-certcheck/internal/summary"
	"github.com/certwatch-app/cw-certcheck/internal/version"
)

// publishPath is appended to the configured endpoint
const publishPath = "/api/v1/agent/results"

// Client publishes check results to the collector
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
	endpoint   string
	apiKey     string
	agentName  string
	agentID    string // cached after first publish
	hostname   string
	targets    []config.TargetConfig
}

// New creates a new publish Client
func New(cfg *config.Config, logger *zap.Logger) *Client {
	host, err := os.Hostname()
	if err != nil {
		host = ""
	}

	return &Client{
		endpoint:  strings.TrimRight(cfg.Publish.Endpoint, "/"),
		apiKey:    cfg.Publish.Key,
		agentName: cfg.Agent.Name,
		hostname:  host,
		targets:   cfg.Targets,
		httpClient: &http.Client{
			Timeout: cfg.Publish.Timeout,
		},
		logger: logger,
	}
}

// SetAgentID seeds the agent ID, typically from persisted state
func (c *Client) SetAgentID(id string) {
	c.agentID = id
}

// GetAgentID returns the cached agent ID (empty if never published)
func (c *Client) GetAgentID() string {
	return c.agentID
}

// Publish sends one batch to the collector
func (c *Client) Publish(ctx context.Context, req *PublishRequest) (*PublishResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, publishPath, req)
	if err != nil {
		return nil, err
	}

	if resp.Success && resp.AgentID != "" {
		c.agentID = resp.AgentID
	}

	return resp, nil
}

// BuildRequest assembles the publish payload with a fresh run ID
func (c *Client) BuildRequest(rep summary.Report, checkedAt time.Time) *PublishRequest {
	byCategory := make(map[string]int, len(rep.Counts.ByCategory))
	for k, v := range rep.Counts.ByCategory {
		byCategory[string(k)] = v
	}

	targets := make([]TargetMeta, 0, len(c.targets))
	for _, t := range c.targets {
		if t.Notes == "" && len(t.Tags) == 0 {
			continue
		}
		targets = append(targets, TargetMeta{
			Hostname: t.Hostname,
			Port:     t.Port,
			Tags:     t.Tags,
			Notes:    t.Notes,
		})
	}

	return &PublishRequest{
		RunID:        uuid.NewString(),
		AgentID:      c.agentID,
		AgentName:    c.agentName,
		AgentVersion: version.GetVersion(),
		AgentHost:    c.hostname,
		CheckedAt:    checkedAt.UTC(),
		Records:      rep.Records,
		Targets:      targets,
		Counts: SummaryCounts{
			ByCategory:   byCategory,
			Total:        rep.Counts.Total,
			OK:           rep.Counts.OK,
			Expired:      rep.Counts.Expired,
			ExpiringSoon: rep.Counts.ExpiringSoon,
			Invalid:      rep.Counts.Invalid,
		},
	}
}

func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*PublishResponse, error) {
	url := c.endpoint + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("User-Agent", version.UserAgent())

	c.logger.Debug("sending publish request",
		zap.String("url", url),
		zap.String("method", method),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug("received response",
		zap.Int("status", resp.StatusCode),
		zap.Int("body_length", len(respBody)),
	)

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error *APIError `json:"error"`
		}
		if unmarshalErr := json.Unmarshal(respBody, &errResp); unmarshalErr == nil && errResp.Error != nil {
			return nil, fmt.Errorf("API error (%s): %s", errResp.Error.Code, errResp.Error.Message)
		}
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var pubResp PublishResponse
	if err := json.Unmarshal(respBody, &pubResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &pubResp, nil
}
