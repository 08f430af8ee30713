// Package response models captured query responses and replays them from disk.
package response

import (
	"encoding/json"
	"time"
)

// Record is one captured response for one entity and one query type.
// Records are immutable once created; the batch that produced them owns them.
type Record struct {
	QueryType string            `json:"query_type"`
	Params    map[string]string `json:"params"`
	FetchedAt time.Time         `json:"fetched_at"`
	Payload   json.RawMessage   `json:"payload"`
}

// EntityKey returns a stable human-readable key for the queried entity,
// built from the request parameters.
func (r Record) EntityKey() string {
	if owner, ok := r.Params["owner"]; ok {
		if name, ok := r.Params["name"]; ok {
			return owner + "/" + name
		}
	}
	if name, ok := r.Params["name"]; ok {
		return name
	}
	return ""
}
