package buffer

import (
	"fmt"
	"strings"
)

// lineSpan returns the byte offsets covering lines start..end (1-indexed,
// inclusive) of content. The newline after the last selected line is not
// part of the span. A trailing newline does not count as an extra line.
func lineSpan(content string, start, end int) (from, to int, err error) {
	lines := strings.Split(content, "\n")
	n := LineCount(content)
	if start < 1 || end < start || end > n {
		return 0, 0, fmt.Errorf("line range %d:%d outside 1:%d", start, end, n)
	}

	for i := 0; i < start-1; i++ {
		from += len(lines[i]) + 1
	}
	to = from
	for i := start - 1; i < end; i++ {
		to += len(lines[i]) + 1
	}
	return from, to - 1, nil
}

// LineCount returns the number of lines in content, not counting the empty
// line after a trailing newline. Empty content has one line.
func LineCount(content string) int {
	n := strings.Count(content, "\n") + 1
	if n > 1 && strings.HasSuffix(content, "\n") {
		n--
	}
	return n
}

// offsetToPosition converts a byte offset into content joined from lines
// into a 0-indexed (row, byte column) pair.
func offsetToPosition(lines []string, offset int) (row, col int, err error) {
	pos := 0
	for i, line := range lines {
		if offset <= pos+len(line) {
			return i, offset - pos, nil
		}
		pos += len(line) + 1
	}
	return 0, 0, fmt.Errorf("offset %d beyond end of buffer", offset)
}

// checkRange validates a byte range against a content length
func checkRange(from, to, length int) error {
	if from < 0 || to < from || to > length {
		return fmt.Errorf("range [%d:%d] outside document of %d bytes", from, to, length)
	}
	return nil
}

func toBytes(lines []string) [][]byte {
	out := make([][]byte, len(lines))
	for i, l := range lines {
		out[i] = []byte(l)
	}
	return out
}
