package text

import (
	"blockmerge/assert"
	"testing"
)

func TestIsCodeFence(t *testing.T) {
	assert.True(t, IsCodeFence("```go\nfoo()\n```\n"), "fenced block")
	assert.False(t, IsCodeFence("foo()\n```\nbar\n```"), "text before fence")
	assert.False(t, IsCodeFence("foo()"), "plain text")
}

func TestUnwrapCodeFence(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{"backtick fence", "```go\nfoo()\nbar()\n```", "foo()\nbar()", true},
		{"tilde fence", "~~~\nplain\n~~~\n", "plain", true},
		{"surrounding blank lines", "\n```\nx\n```\n\n", "x", true},
		{"inner blank line", "```\na\n\nb\n```", "a\n\nb", true},
		{"plain text", "hello\nworld", "hello\nworld", false},
		{"prose before fence", "Here you go:\n```\nx\n```", "Here you go:\n```\nx\n```", false},
		{"two fences", "```\na\n```\n```\nb\n```", "```\na\n```\n```\nb\n```", false},
		{"unclosed fence", "```\na\nb", "```\na\nb", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := UnwrapCodeFence(tt.input)
			assert.Equal(t, tt.ok, ok, "unwrapped")
			assert.Equal(t, tt.expected, got, "content")
		})
	}
}
