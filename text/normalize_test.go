package text

import (
	"blockmerge/assert"
	"testing"
)

func TestNormalizeStream(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"unchanged", "A\nB", "A\nB"},
		{"edges stripped", "\n\n  \nA\nB\n\n", "A\nB"},
		{"one blank kept", "A\n\nB", "A\n\nB"},
		{"two blanks kept", "A\n\n\nB", "A\n\n\nB"},
		{"three blanks collapse", "A\n\n\n\nB", "A\n\nB"},
		{"many blanks collapse", "A\n\n \n\t\n\n\nB\n\n\n\nC", "A\n\nB\n\nC"},
		{"empty", "", ""},
		{"only blanks", "\n\n\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeStream(tt.input), "normalized")
		})
	}
}
