package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"runmeter.sh/telemetry"
)

const commandsFileName = "commands.json"

// loadCommandRecords reads the measured-command log, keyed by record
// name. A missing file is an empty log.
func loadCommandRecords(dir string) (map[string]telemetry.CommandRecord, error) {
	data, err := os.ReadFile(filepath.Join(dir, commandsFileName))
	if errors.Is(err, os.ErrNotExist) {
		return map[string]telemetry.CommandRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read command records: %w", err)
	}

	var records map[string]telemetry.CommandRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode command records: %w", err)
	}
	if records == nil {
		records = map[string]telemetry.CommandRecord{}
	}
	return records, nil
}

// loadCommandRecord returns the named record, or nil when absent.
func loadCommandRecord(dir, name string) (*telemetry.CommandRecord, error) {
	records, err := loadCommandRecords(dir)
	if err != nil {
		return nil, err
	}
	record, ok := records[name]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

// saveCommandRecord upserts a record by name. Repeating a name
// overwrites the previous run, so reports scope to the latest
// invocation.
func saveCommandRecord(dir string, record telemetry.CommandRecord) error {
	records, err := loadCommandRecords(dir)
	if err != nil {
		return err
	}
	records[record.Name] = record

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal command records: %w", err)
	}

	tmp := filepath.Join(dir, commandsFileName+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write command records: %w", err)
	}
	return os.Rename(tmp, filepath.Join(dir, commandsFileName))
}
