package text

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

var markdown = goldmark.New()

// UnwrapCodeFence returns the content of a response that consists of exactly
// one fenced code block, and false for anything else. Models often wrap a
// rewritten passage in a fence even when asked not to.
func UnwrapCodeFence(response string) (string, bool) {
	trimmed := strings.TrimSpace(response)
	if !strings.Contains(trimmed, "\n") || !isFenceLine(trimmed) || !isFenceLine(trimmed[strings.LastIndex(trimmed, "\n")+1:]) {
		return response, false
	}

	src := []byte(trimmed)
	doc := markdown.Parser().Parse(gmtext.NewReader(src))
	if doc.ChildCount() != 1 {
		return response, false
	}
	fence, ok := doc.FirstChild().(*ast.FencedCodeBlock)
	if !ok {
		return response, false
	}

	var buf bytes.Buffer
	lines := fence.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return strings.TrimSuffix(buf.String(), "\n"), true
}

// IsCodeFence reports whether s is exactly one fenced code block
func IsCodeFence(s string) bool {
	_, ok := UnwrapCodeFence(s)
	return ok
}

func isFenceLine(s string) bool {
	return strings.HasPrefix(s, "```") || strings.HasPrefix(s, "~~~")
}
