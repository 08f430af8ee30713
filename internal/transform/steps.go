package transform

// DefaultSteps returns the shipped transformation step list. Scripts are
// data to the runner; each creates exactly the tables it declares.
func DefaultSteps() []Step {
	return []Step{
		{
			Seq:      1,
			Name:     "agg_language_share",
			Requires: []string{"base_languages"},
			Produces: []string{"agg_language_share"},
			Script: `
CREATE OR REPLACE TABLE agg_language_share AS
SELECT
    name,
    SUM(size_bytes) AS total_bytes,
    ROUND(100.0 * SUM(size_bytes) / SUM(SUM(size_bytes)) OVER (), 2) AS share_pct,
    COUNT(DISTINCT repository_id) AS repository_count
FROM base_languages
GROUP BY name
ORDER BY total_bytes DESC`,
		},
		{
			Seq:      2,
			Name:     "agg_workflow_usage",
			Requires: []string{"base_workflows"},
			Produces: []string{"agg_workflow_usage"},
			Script: `
CREATE OR REPLACE TABLE agg_workflow_usage AS
SELECT
    trigger_event,
    COUNT(*) AS workflow_count,
    COUNT(DISTINCT repository_id) AS repository_count
FROM (
    SELECT repository_id, UNNEST(string_split(triggers, ',')) AS trigger_event
    FROM base_workflows
    WHERE triggers IS NOT NULL AND triggers <> ''
)
GROUP BY trigger_event
ORDER BY workflow_count DESC, trigger_event`,
		},
		{
			Seq:      3,
			Name:     "agg_release_cadence",
			Requires: []string{"base_releases"},
			Produces: []string{"agg_release_cadence"},
			Script: `
CREATE OR REPLACE TABLE agg_release_cadence AS
SELECT
    repository_id,
    COUNT(*) AS release_count,
    MIN(published_at) AS first_published_at,
    MAX(published_at) AS last_published_at,
    DATE_DIFF('day', MIN(published_at), MAX(published_at)) AS active_days
FROM base_releases
WHERE published_at IS NOT NULL
GROUP BY repository_id`,
		},
		{
			Seq:      4,
			Name:     "agg_repo_overview",
			Requires: []string{"base_repositories", "agg_release_cadence"},
			Produces: []string{"agg_repo_overview"},
			Script: `
CREATE OR REPLACE TABLE agg_repo_overview AS
SELECT
    r.id,
    r.name_with_owner,
    r.primary_language,
    r.stargazer_count,
    r.fork_count,
    COALESCE(c.release_count, 0) AS release_count,
    c.last_published_at
FROM base_repositories r
LEFT JOIN agg_release_cadence c ON c.repository_id = r.id
ORDER BY r.stargazer_count DESC, r.name_with_owner`,
		},
	}
}
