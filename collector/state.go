package collector

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const stateFileName = "collector.json"

// State describes a running collector daemon. The daemon writes it once
// the query interface is bound so the CLI can locate the port and stop
// the process when the job finishes.
type State struct {
	PID       int       `json:"pid"`
	Port      int       `json:"port"`
	SessionID string    `json:"session_id"`
	StartedAt time.Time `json:"started_at"`
}

// BaseURL returns the query interface URL recorded in the state.
func (s *State) BaseURL() string {
	return fmt.Sprintf("http://127.0.0.1:%d", s.Port)
}

// WriteState writes the daemon state file into dir, creating the
// directory if needed. The write goes through a temp file and rename so
// readers never see a partial file.
func WriteState(dir string, st *State) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmp := filepath.Join(dir, stateFileName+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return os.Rename(tmp, filepath.Join(dir, stateFileName))
}

// ReadState loads the daemon state file from dir.
func ReadState(dir string) (*State, error) {
	data, err := os.ReadFile(filepath.Join(dir, stateFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to decode state file: %w", err)
	}
	return &st, nil
}

// RemoveState deletes the state file. A missing file is not an error.
func RemoveState(dir string) error {
	err := os.Remove(filepath.Join(dir, stateFileName))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
