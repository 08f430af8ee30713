// Package normalize converts captured response batches into flat
// relational tables with stable identifiers and foreign keys.
package normalize

import (
	"fmt"
	"sort"

	"github.com/dbsmedya/repolake/internal/response"
	"github.com/dbsmedya/repolake/internal/types"
)

// Normalizer maps one query type's response batch to its fixed table set.
// Implementations are pure: no I/O, no clock, no shared state. The same
// batch always yields the same tables.
type Normalizer interface {
	// QueryType returns the query-type tag this normalizer handles.
	QueryType() string
	// TableNames returns the fixed set of tables this normalizer produces,
	// in output order.
	TableNames() []string
	// Normalize builds the table set from a batch. Records with a null or
	// missing root entity contribute no rows. It errors only when a payload
	// root is structurally unrecognizable.
	Normalize(records []response.Record) ([]types.Table, error)
}

// Registry holds the known normalizers keyed by query type.
type Registry struct {
	byQueryType map[string]Normalizer
}

// NewRegistry creates a registry pre-populated with the built-in normalizers.
func NewRegistry() *Registry {
	r := &Registry{byQueryType: make(map[string]Normalizer)}
	r.Register(NewRepositoryNormalizer())
	return r
}

// Register adds a normalizer, replacing any previous one for the same
// query type.
func (r *Registry) Register(n Normalizer) {
	r.byQueryType[n.QueryType()] = n
}

// Get returns the normalizer for a query type.
func (r *Registry) Get(queryType string) (Normalizer, error) {
	n, ok := r.byQueryType[queryType]
	if !ok {
		return nil, fmt.Errorf("no normalizer registered for query type %q", queryType)
	}
	return n, nil
}

// QueryTypes returns the registered query types sorted alphabetically.
func (r *Registry) QueryTypes() []string {
	names := make([]string, 0, len(r.byQueryType))
	for name := range r.byQueryType {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// checkBatch verifies every record in a batch carries the expected query type.
func checkBatch(records []response.Record, queryType string) error {
	for i, record := range records {
		if record.QueryType != queryType {
			return fmt.Errorf("record %d has query type %q, expected %q",
				i, record.QueryType, queryType)
		}
	}
	return nil
}
