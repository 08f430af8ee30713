package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dbsmedya/repolake/internal/response"
)

// ReplayClient serves records from previously captured response files.
// It lets the whole pipeline run offline against a capture directory.
type ReplayClient struct {
	dir string
}

// NewReplayClient creates a replay client over a capture directory.
func NewReplayClient(dir string) *ReplayClient {
	return &ReplayClient{dir: dir}
}

// Requests lists the capture files as fetch requests, one per *.json
// file, in name order.
func (c *ReplayClient) Requests() ([]Request, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read capture directory %s: %w", c.dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	requests := make([]Request, 0, len(names))
	for _, name := range names {
		requests = append(requests, Request{Params: map[string]string{"file": name}})
	}
	return requests, nil
}

// Fetch reads and parses one capture file named by the "file" parameter.
func (c *ReplayClient) Fetch(_ context.Context, params map[string]string) (response.Record, error) {
	name, ok := params["file"]
	if !ok || name == "" {
		return response.Record{}, fmt.Errorf("replay fetch requires a file parameter")
	}
	if filepath.Base(name) != name {
		return response.Record{}, fmt.Errorf("invalid capture file name %q", name)
	}

	return response.ReadFile(filepath.Join(c.dir, name))
}
