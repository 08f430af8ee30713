package render

import (
	"strings"
	"testing"

	"github.com/gookit/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/repolake/internal/artifact"
	"github.com/dbsmedya/repolake/internal/transform"
)

// plain strips escape codes so assertions see display text only.
func plain(s string) string {
	return color.ClearCode(s)
}

func TestPlan(t *testing.T) {
	entries := []transform.PlanEntry{
		{
			Step:  transform.Step{Seq: 1, Name: "agg_language_share", Requires: []string{"base_languages"}, Produces: []string{"agg_language_share"}},
			Ready: true,
		},
		{
			Step:    transform.Step{Seq: 2, Name: "agg_repo_overview", Requires: []string{"base_repositories"}, Produces: []string{"agg_repo_overview"}},
			Missing: []string{"base_repositories"},
		},
	}

	out := plain(Plan(entries))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4) // header, rule, two rows

	assert.Contains(t, lines[0], "SEQ")
	assert.Contains(t, lines[0], "READY")
	assert.Contains(t, lines[2], "agg_language_share")
	assert.Contains(t, lines[2], "yes")
	assert.Contains(t, lines[3], "missing: base_repositories")
}

func TestPlan_Alignment(t *testing.T) {
	entries := []transform.PlanEntry{
		{Step: transform.Step{Seq: 1, Name: "a", Produces: []string{"agg_a"}}, Ready: true},
		{Step: transform.Step{Seq: 10, Name: "much_longer_name", Produces: []string{"agg_b"}}, Ready: true},
	}

	out := plain(Plan(entries))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	// The short and long step names start in the same column.
	assert.Equal(t, strings.Index(lines[2], "a "), strings.Index(lines[3], "much_longer_name"))
}

func TestRunReport(t *testing.T) {
	results := []transform.StepResult{
		{
			Step:      transform.Step{Seq: 1, Name: "agg_language_share", Produces: []string{"agg_language_share"}},
			Status:    transform.StatusSucceeded,
			RowCounts: map[string]int64{"agg_language_share": 14},
		},
		{
			Step:   transform.Step{Seq: 2, Name: "agg_workflow_usage", Produces: []string{"agg_workflow_usage"}},
			Status: transform.StatusSkipped,
			Reason: "missing required tables: base_workflows",
		},
	}

	out := plain(RunReport(results))
	assert.Contains(t, out, "agg_language_share: 14 rows")
	assert.Contains(t, out, "succeeded")
	assert.Contains(t, out, "missing required tables: base_workflows")
	assert.Contains(t, out, "skipped")
}

func TestStatusColor(t *testing.T) {
	for _, status := range []transform.Status{
		transform.StatusSucceeded,
		transform.StatusFailed,
		transform.StatusSkipped,
		transform.StatusPending,
	} {
		assert.Equal(t, string(status), plain(StatusColor(status)))
	}
}

func TestIngestReport(t *testing.T) {
	result := &artifact.Result{
		RunID:       "run-1",
		QueryType:   "repository",
		RecordCount: 3,
		Tables: []artifact.TableOutcome{
			{Name: "base_repositories", RowCount: 3},
			{Name: "base_languages", RowCount: 9},
		},
		Indexes: []artifact.IndexOutcome{
			{Table: "base_repositories", Column: "description", Created: true},
			{Table: "base_workflows", Column: "raw_text", Reason: "table not present"},
		},
		Exports: []artifact.ExportOutcome{
			{Table: "base_repositories", Path: "exports/base_repositories.parquet"},
			{Table: "base_languages", Path: "exports/base_languages.parquet", Err: assert.AnError},
		},
	}

	out := plain(IngestReport(result))
	assert.Contains(t, out, "Run run-1 (repository): 3 records")
	assert.Contains(t, out, "base_repositories")
	assert.Contains(t, out, "skipped: table not present")
	assert.Contains(t, out, "exports/base_repositories.parquet")
	assert.Contains(t, out, "failed: "+assert.AnError.Error())
}

func TestExportReport(t *testing.T) {
	out := plain(ExportReport([]artifact.ExportOutcome{
		{Table: "agg_language_share", Path: "exports/agg_language_share.parquet"},
	}))
	assert.Contains(t, out, "agg_language_share")
	assert.Contains(t, out, ".parquet")
}
