package sqlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteIdentifier_Valid(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Simple table name",
			input:    "base_repositories",
			expected: `"base_repositories"`,
		},
		{
			name:     "Table with underscore",
			input:    "raw_responses",
			expected: `"raw_responses"`,
		},
		{
			name:     "Mixed case",
			input:    "MyTable",
			expected: `"MyTable"`,
		},
		{
			name:     "Numeric characters",
			input:    "table123",
			expected: `"table123"`,
		},
		{
			name:     "Empty string",
			input:    "",
			expected: `""`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := QuoteIdentifier(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestQuoteIdentifier_EscapeQuotes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Single embedded quote",
			input:    `my"table`,
			expected: `"my""table"`,
		},
		{
			name:     "Multiple embedded quotes",
			input:    `ta"bl"e`,
			expected: `"ta""bl""e"`,
		},
		{
			name:     "Quote at start",
			input:    `"table`,
			expected: `"""table"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := QuoteIdentifier(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestQuoteLiteral(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Plain string",
			input:    "repository",
			expected: "'repository'",
		},
		{
			name:     "Embedded single quote",
			input:    "o'neill/repo",
			expected: "'o''neill/repo'",
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "''",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := QuoteLiteral(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestIsValidIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"Simple name", "repositories", true},
		{"With underscore", "base_languages", true},
		{"With digits", "step01", true},
		{"Empty", "", false},
		{"Contains space", "my table", false},
		{"Contains dash", "my-table", false},
		{"Contains quote", `my"table`, false},
		{"Contains semicolon", "table;drop", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValidIdentifier(tt.input))
		})
	}
}

func TestQuoteIdentifierSafe(t *testing.T) {
	quoted, err := QuoteIdentifierSafe("base_topics")
	require.NoError(t, err)
	assert.Equal(t, `"base_topics"`, quoted)

	_, err = QuoteIdentifierSafe("bad;name")
	require.Error(t, err)

	var invalidErr *InvalidIdentifierError
	require.ErrorAs(t, err, &invalidErr)
	assert.Equal(t, "bad;name", invalidErr.Name)
}
