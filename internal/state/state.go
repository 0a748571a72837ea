// Package state handles agent state persistence to disk.
// This allows agent_id and the last run summary to survive restarts.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// RunSummary holds the headline counts of the last completed scan
type RunSummary struct {
	RunID        string `json:"run_id,omitempty"`
	Total        int    `json:"total"`
	OK           int    `json:"ok"`
	Expired      int    `json:"expired"`
	ExpiringSoon int    `json:"expiring_soon"`
	Invalid      int    `json:"invalid"`
}

// State holds persisted agent state
type State struct {
	LastRunAt     time.Time  `json:"last_run_at,omitempty"`
	LastPublishAt time.Time  `json:"last_publish_at,omitempty"`
	LastUpdated   time.Time  `json:"last_updated"`
	AgentID       string     `json:"agent_id,omitempty"`
	AgentName     string     `json:"agent_name"`
	LastRun       RunSummary `json:"last_run"`
}

// Manager handles state persistence
type Manager struct {
	filePath string
	state    *State
	mu       sync.RWMutex
}

// stateFileName is the name of the state file
const stateFileName = ".certcheck-state.json"

// NewManager creates a state manager for the given config file path.
// The state file is stored next to the config file.
func NewManager(configPath string) *Manager {
	return NewManagerWithStateDir(filepath.Dir(configPath))
}

// NewManagerWithStateDir creates a state manager with an explicit state directory
func NewManagerWithStateDir(stateDir string) *Manager {
	return &Manager{
		filePath: filepath.Join(stateDir, stateFileName),
		state:    &State{},
	}
}

// Load reads state from disk.
// A missing file is a first run and not an error. A corrupt file resets the
// state and returns an error.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			m.state = &State{}
			return nil
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}

	st := &State{}
	if err := json.Unmarshal(data, st); err != nil {
		m.state = &State{}
		return fmt.Errorf("failed to parse state file (treating as first run): %w", err)
	}

	m.state = st
	return nil
}

// Save writes state to disk with secure permissions (0600)
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.LastUpdated = time.Now().UTC()

	data, err := json.MarshalIndent(m.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.filePath), 0o700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	if err := os.WriteFile(m.filePath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	return nil
}

// Snapshot returns a copy of the current state
func (m *Manager) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.state
}

// GetAgentID returns the persisted agent ID
func (m *Manager) GetAgentID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.AgentID
}

// SetAgentID sets the agent ID (call Save() to persist)
func (m *Manager) SetAgentID(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.AgentID = id
}

// GetAgentName returns the persisted agent name
func (m *Manager) GetAgentName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.AgentName
}

// SetAgentName sets the agent name (call Save() to persist)
func (m *Manager) SetAgentName(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.AgentName = name
}

// RecordRun stores the summary of a completed scan (call Save() to persist)
func (m *Manager) RecordRun(at time.Time, summary RunSummary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.LastRunAt = at.UTC()
	m.state.LastRun = summary
}

// RecordPublish stores the time of the last successful publish
func (m *Manager) RecordPublish(at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.LastPublishAt = at.UTC()
}

// HasNameChanged checks if the config name differs from the persisted name.
// Returns false on first run.
func (m *Manager) HasNameChanged(configName string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.state.AgentName == "" {
		return false
	}

	return m.state.AgentName != configName
}

// Reset clears all state and removes the file
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = &State{}

	if err := os.Remove(m.filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove state file: %w", err)
	}

	return nil
}

// FilePath returns the path to the state file
func (m *Manager) FilePath() string {
	return m.filePath
}
