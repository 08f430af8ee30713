package normalize

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dbsmedya/repolake/internal/response"
	"github.com/dbsmedya/repolake/internal/types"
)

// Table names produced by the repository normalizer.
const (
	TableRepositories = "base_repositories"
	TableLanguages    = "base_languages"
	TableTopics       = "base_topics"
	TableReleases     = "base_releases"
	TableWorkflows    = "base_workflows"
)

// repositoryNormalizer flattens repository query responses into the base
// table family. Child rows carry the repository node ID as their foreign
// key; children without a native ID get a parent-scoped composite key so
// re-normalizing the same batch yields identical keys.
type repositoryNormalizer struct{}

// NewRepositoryNormalizer creates the normalizer for the repository query type.
func NewRepositoryNormalizer() Normalizer {
	return &repositoryNormalizer{}
}

func (n *repositoryNormalizer) QueryType() string {
	return "repository"
}

func (n *repositoryNormalizer) TableNames() []string {
	return []string{TableRepositories, TableLanguages, TableTopics, TableReleases, TableWorkflows}
}

func (n *repositoryNormalizer) Normalize(records []response.Record) ([]types.Table, error) {
	if err := checkBatch(records, n.QueryType()); err != nil {
		return nil, err
	}

	repositories := types.NewTableBuilder(TableRepositories,
		types.Column{Name: "id", Type: types.TypeText, Description: "Repository node ID"},
		types.Column{Name: "name_with_owner", Type: types.TypeText, Description: "Owner-qualified repository name"},
		types.Column{Name: "description", Type: types.TypeText, Description: "Repository description"},
		types.Column{Name: "primary_language", Type: types.TypeText, Description: "Dominant language name"},
		types.Column{Name: "license", Type: types.TypeText, Description: "SPDX license identifier"},
		types.Column{Name: "default_branch", Type: types.TypeText, Description: "Default branch name"},
		types.Column{Name: "stargazer_count", Type: types.TypeInteger, Description: "Stargazer count at fetch time"},
		types.Column{Name: "fork_count", Type: types.TypeInteger, Description: "Fork count at fetch time"},
		types.Column{Name: "is_archived", Type: types.TypeBoolean, Description: "Whether the repository is archived"},
		types.Column{Name: "is_fork", Type: types.TypeBoolean, Description: "Whether the repository is a fork"},
		types.Column{Name: "created_at", Type: types.TypeTimestamp, Description: "Repository creation time"},
		types.Column{Name: "pushed_at", Type: types.TypeTimestamp, Description: "Last push time"},
		types.Column{Name: "total_language_bytes", Type: types.TypeInteger, Description: "Total bytes across language edges"},
		types.Column{Name: "fetched_at", Type: types.TypeTimestamp, Description: "Capture time of the source response"},
	)
	languages := types.NewTableBuilder(TableLanguages,
		types.Column{Name: "id", Type: types.TypeText, Description: "Composite key: repository ID / language name"},
		types.Column{Name: "repository_id", Type: types.TypeText, Description: "Parent repository node ID"},
		types.Column{Name: "name", Type: types.TypeText, Description: "Language name"},
		types.Column{Name: "size_bytes", Type: types.TypeInteger, Description: "Bytes of code in this language"},
	)
	topics := types.NewTableBuilder(TableTopics,
		types.Column{Name: "id", Type: types.TypeText, Description: "Composite key: repository ID / topic name"},
		types.Column{Name: "repository_id", Type: types.TypeText, Description: "Parent repository node ID"},
		types.Column{Name: "topic", Type: types.TypeText, Description: "Applied topic name"},
	)
	releases := types.NewTableBuilder(TableReleases,
		types.Column{Name: "id", Type: types.TypeText, Description: "Release node ID"},
		types.Column{Name: "repository_id", Type: types.TypeText, Description: "Parent repository node ID"},
		types.Column{Name: "tag_name", Type: types.TypeText, Description: "Release tag"},
		types.Column{Name: "name", Type: types.TypeText, Description: "Release title"},
		types.Column{Name: "published_at", Type: types.TypeTimestamp, Description: "Publication time"},
		types.Column{Name: "is_prerelease", Type: types.TypeBoolean, Description: "Whether marked as a prerelease"},
	)
	workflows := types.NewTableBuilder(TableWorkflows,
		types.Column{Name: "id", Type: types.TypeText, Description: "Composite key: repository ID / workflow path"},
		types.Column{Name: "repository_id", Type: types.TypeText, Description: "Parent repository node ID"},
		types.Column{Name: "path", Type: types.TypeText, Description: "Workflow file path"},
		types.Column{Name: "file_name", Type: types.TypeText, Description: "Workflow file name"},
		types.Column{Name: "byte_size", Type: types.TypeInteger, Description: "Workflow file size in bytes"},
		types.Column{Name: "raw_text", Type: types.TypeText, Description: "Raw workflow file contents"},
		types.Column{Name: "workflow_name", Type: types.TypeText, Description: "Parsed workflow name, NULL when unparsable"},
		types.Column{Name: "triggers", Type: types.TypeText, Description: "Comma-joined trigger events, NULL when unparsable"},
	)

	for _, record := range records {
		data, err := response.DecodeRepository(record.Payload)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", record.EntityKey(), err)
		}
		if data.Repository == nil {
			// Not found: contributes no rows anywhere.
			continue
		}
		repo := data.Repository

		repoRow := map[string]any{
			"id":              repo.ID,
			"name_with_owner": repo.NameWithOwner,
			"description":     textOrNil(repo.Description),
			"stargazer_count": repo.StargazerCount,
			"fork_count":      repo.ForkCount,
			"is_archived":     repo.IsArchived,
			"is_fork":         repo.IsFork,
			"created_at":      repo.CreatedAt,
			"pushed_at":       timeOrNil(repo.PushedAt),
			"fetched_at":      record.FetchedAt,
		}
		if repo.PrimaryLanguage != nil {
			repoRow["primary_language"] = repo.PrimaryLanguage.Name
		}
		if repo.LicenseInfo != nil {
			repoRow["license"] = repo.LicenseInfo.SpdxID
		}
		if repo.DefaultBranchRef != nil {
			repoRow["default_branch"] = repo.DefaultBranchRef.Name
		}
		if repo.Languages != nil {
			repoRow["total_language_bytes"] = repo.Languages.TotalSize
		}
		if err := repositories.AppendRow(repoRow); err != nil {
			return nil, err
		}

		if repo.Languages != nil {
			for _, edge := range repo.Languages.Edges {
				if edge == nil || edge.Node == nil {
					continue
				}
				if err := languages.AppendRow(map[string]any{
					"id":            repo.ID + "/" + edge.Node.Name,
					"repository_id": repo.ID,
					"name":          edge.Node.Name,
					"size_bytes":    edge.Size,
				}); err != nil {
					return nil, err
				}
			}
		}

		if repo.RepositoryTopics != nil {
			for _, node := range repo.RepositoryTopics.Nodes {
				if node == nil || node.Topic == nil {
					continue
				}
				if err := topics.AppendRow(map[string]any{
					"id":            repo.ID + "/" + node.Topic.Name,
					"repository_id": repo.ID,
					"topic":         node.Topic.Name,
				}); err != nil {
					return nil, err
				}
			}
		}

		if repo.Releases != nil {
			for _, release := range repo.Releases.Nodes {
				if release == nil {
					continue
				}
				if err := releases.AppendRow(map[string]any{
					"id":            release.ID,
					"repository_id": repo.ID,
					"tag_name":      release.TagName,
					"name":          textOrNil(release.Name),
					"published_at":  timeOrNil(release.PublishedAt),
					"is_prerelease": release.IsPrerelease,
				}); err != nil {
					return nil, err
				}
			}
		}

		if err := appendWorkflows(workflows, repo); err != nil {
			return nil, err
		}
	}

	return []types.Table{
		repositories.Build(),
		languages.Build(),
		topics.Build(),
		releases.Build(),
		workflows.Build(),
	}, nil
}

// appendWorkflows walks the workflows directory tree object. Only entries
// whose object narrows to the file variant become rows; directories and
// unrecognized variants are skipped.
func appendWorkflows(builder *types.TableBuilder, repo *response.Repository) error {
	if repo.WorkflowsObject == nil || repo.WorkflowsObject.Kind != response.KindTree {
		return nil
	}

	for _, entry := range repo.WorkflowsObject.Tree.Entries {
		if entry == nil || entry.Object == nil || entry.Object.Kind != response.KindBlob {
			continue
		}
		blob := entry.Object.Blob

		row := map[string]any{
			"id":            repo.ID + "/" + entry.Path,
			"repository_id": repo.ID,
			"path":          entry.Path,
			"file_name":     entry.Name,
			"byte_size":     blob.ByteSize,
			"raw_text":      blob.Text,
		}
		if name, triggers, ok := parseWorkflow(blob.Text); ok {
			row["workflow_name"] = name
			row["triggers"] = strings.Join(triggers, ",")
		}
		if err := builder.AppendRow(row); err != nil {
			return err
		}
	}
	return nil
}

// parseWorkflow extracts the workflow name and trigger events from a
// workflow document. Returns ok=false when the document is unparsable;
// callers keep the raw text and leave the parsed columns NULL.
// The document is walked as a node tree because the "on" key resolves as
// a YAML 1.1 boolean, which breaks struct-tag matching.
func parseWorkflow(text string) (name string, triggers []string, ok bool) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(text), &root); err != nil {
		return "", nil, false
	}
	if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return "", nil, false
	}

	doc := root.Content[0]
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key, value := doc.Content[i], doc.Content[i+1]
		switch key.Value {
		case "name":
			name = value.Value
		case "on":
			triggers = triggerNames(value)
		}
	}
	return name, triggers, true
}

// triggerNames flattens the trigger field, which may be a scalar, a
// sequence, or a mapping keyed by event name. Mapping keys keep document
// order so output stays deterministic.
func triggerNames(node *yaml.Node) []string {
	var triggers []string
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Value != "" {
			triggers = []string{node.Value}
		}
	case yaml.SequenceNode:
		for _, item := range node.Content {
			triggers = append(triggers, item.Value)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			triggers = append(triggers, node.Content[i].Value)
		}
	}
	return triggers
}

func textOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
