package response

import (
	"encoding/json"
	"fmt"
	"os"
)

// ReadFile reads and parses one captured response file holding a single
// Record.
func ReadFile(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return Record{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if record.QueryType == "" {
		return Record{}, fmt.Errorf("record in %s has no query type", path)
	}
	return record, nil
}
