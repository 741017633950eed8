package sqlite

import (
	"testing"
)

func TestConvertWebsearchToFTS5(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple term",
			input:    "river",
			expected: "river",
		},
		{
			name:     "multiple terms",
			input:    "red river",
			expected: "red AND river",
		},
		{
			name:     "explicit AND",
			input:    "river AND bridge",
			expected: "river AND bridge",
		},
		{
			name:     "explicit OR",
			input:    "river OR bridge",
			expected: "river OR bridge",
		},
		{
			name:     "negation",
			input:    "river -flood",
			expected: "river NOT flood",
		},
		{
			name:     "phrase",
			input:    `"red river"`,
			expected: `"red river"`,
		},
		{
			name:     "phrase with other term",
			input:    `"red river" mill`,
			expected: `"red river" AND mill`,
		},
		{
			name:     "prefix search",
			input:    "river*",
			expected: "river*",
		},
		{
			name:     "complex query",
			input:    `"red river" -flood mill OR ford`,
			expected: `"red river" NOT flood AND mill OR ford`,
		},
		{
			name:     "NOT operator",
			input:    "river NOT flood",
			expected: "river NOT flood",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := convertWebsearchToFTS5(tt.input)
			if result != tt.expected {
				t.Errorf("convertWebsearchToFTS5(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
