package response

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Envelope is the outer GraphQL response shape: {"data": {...}}.
type Envelope struct {
	Data *RepositoryData `json:"data"`
}

// RepositoryData is the data section of a repository query response.
// Repository is nil when the queried entity was not found.
type RepositoryData struct {
	Repository *Repository `json:"repository"`
}

// Repository is the typed payload for the repository query type.
type Repository struct {
	ID               string           `json:"id"`
	NameWithOwner    string           `json:"nameWithOwner"`
	Description      *string          `json:"description"`
	StargazerCount   int64            `json:"stargazerCount"`
	ForkCount        int64            `json:"forkCount"`
	IsArchived       bool             `json:"isArchived"`
	IsFork           bool             `json:"isFork"`
	CreatedAt        time.Time        `json:"createdAt"`
	PushedAt         *time.Time       `json:"pushedAt"`
	PrimaryLanguage  *NamedNode       `json:"primaryLanguage"`
	LicenseInfo      *LicenseInfo     `json:"licenseInfo"`
	DefaultBranchRef *NamedNode       `json:"defaultBranchRef"`
	Languages        *LanguageConn    `json:"languages"`
	RepositoryTopics *TopicConn       `json:"repositoryTopics"`
	Releases         *ReleaseConn     `json:"releases"`
	WorkflowsObject  *GitObject       `json:"workflowsObject"`
}

// NamedNode is a node carrying only a name (primaryLanguage, defaultBranchRef).
type NamedNode struct {
	Name string `json:"name"`
}

// LicenseInfo carries the license identifier.
type LicenseInfo struct {
	SpdxID string `json:"spdxId"`
}

// LanguageConn is the languages connection with per-edge byte sizes.
type LanguageConn struct {
	TotalSize int64           `json:"totalSize"`
	Edges     []*LanguageEdge `json:"edges"`
}

// LanguageEdge pairs a language node with its size share.
type LanguageEdge struct {
	Size int64      `json:"size"`
	Node *NamedNode `json:"node"`
}

// TopicConn is the repositoryTopics connection.
type TopicConn struct {
	Nodes []*TopicNode `json:"nodes"`
}

// TopicNode wraps one applied topic.
type TopicNode struct {
	Topic *NamedNode `json:"topic"`
}

// ReleaseConn is the releases connection.
type ReleaseConn struct {
	Nodes []*Release `json:"nodes"`
}

// Release is one published release. Releases carry a native node ID.
type Release struct {
	ID           string     `json:"id"`
	TagName      string     `json:"tagName"`
	Name         *string    `json:"name"`
	PublishedAt  *time.Time `json:"publishedAt"`
	IsPrerelease bool       `json:"isPrerelease"`
}

// GitObjectKind identifies the concrete variant behind a git object field.
type GitObjectKind int

const (
	// KindIgnored marks a variant with no recognized discriminant.
	KindIgnored GitObjectKind = iota
	// KindBlob marks a file object with text content.
	KindBlob
	// KindTree marks a directory object with child entries.
	KindTree
)

// GitObject is a polymorphic git object narrowed by its __typename
// discriminant. Exactly one of Blob or Tree is non-nil, matching Kind;
// unrecognized discriminants produce KindIgnored with both nil.
type GitObject struct {
	Kind GitObjectKind
	Blob *Blob
	Tree *Tree
}

// Blob is the file variant of a git object.
type Blob struct {
	Text     string `json:"text"`
	ByteSize int64  `json:"byteSize"`
}

// Tree is the directory variant of a git object.
type Tree struct {
	Entries []*TreeEntry `json:"entries"`
}

// TreeEntry is one child of a tree, with its own polymorphic object.
type TreeEntry struct {
	Name   string     `json:"name"`
	Path   string     `json:"path"`
	Object *GitObject `json:"object"`
}

// UnmarshalJSON narrows the object by reading the discriminant before any
// variant field access.
func (o *GitObject) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = GitObject{Kind: KindIgnored}
		return nil
	}

	var probe struct {
		TypeName string `json:"__typename"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("failed to read object discriminant: %w", err)
	}

	switch probe.TypeName {
	case "Blob":
		var blob Blob
		if err := json.Unmarshal(data, &blob); err != nil {
			return fmt.Errorf("failed to decode blob object: %w", err)
		}
		*o = GitObject{Kind: KindBlob, Blob: &blob}
	case "Tree":
		var tree Tree
		if err := json.Unmarshal(data, &tree); err != nil {
			return fmt.Errorf("failed to decode tree object: %w", err)
		}
		*o = GitObject{Kind: KindTree, Tree: &tree}
	default:
		*o = GitObject{Kind: KindIgnored}
	}
	return nil
}

// DecodeRepository parses a raw payload into the typed repository envelope.
// It returns an error only when the payload is not a JSON object at all;
// a null or missing repository decodes successfully with Repository nil.
func DecodeRepository(payload json.RawMessage) (*RepositoryData, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("payload root is not an object")
	}

	var envelope Envelope
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode repository payload: %w", err)
	}
	if envelope.Data == nil {
		return &RepositoryData{}, nil
	}
	return envelope.Data, nil
}
