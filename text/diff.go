package text

import (
	"strings"
	"time"

	"blockmerge/logger"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// SplitLines splits text into lines on "\n". Unlike the usual editor
// convention the trailing empty element is kept, so that
// strings.Join(SplitLines(s), "\n") == s for every s, including "".
func SplitLines(text string) []string {
	return strings.Split(text, "\n")
}

// JoinLines joins lines with a trailing newline after each one. This is the
// form the line-mode differ expects: every line is terminated, so the last
// line compares like any other.
func JoinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// DiffOptions configures ComputeChanges
type DiffOptions struct {
	IgnoreTrimWhitespace     bool `json:"ignore_trim_whitespace" yaml:"ignore_trim_whitespace" toml:"ignore_trim_whitespace"`
	ComputeMoves             bool `json:"compute_moves" yaml:"compute_moves" toml:"compute_moves"`
	MaxComputationTimeMillis int  `json:"max_computation_time_ms" yaml:"max_computation_time_ms" toml:"max_computation_time_ms"`
}

// DefaultDiffOptions returns the options used when nothing is configured:
// whitespace is significant, moves are detected and there is no time limit.
func DefaultDiffOptions() DiffOptions {
	return DiffOptions{ComputeMoves: true}
}

// LineRange is a half-open, 1-indexed line range. An empty range (Start == End)
// marks the position where the other side's lines were inserted or removed.
type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of lines covered by the range
func (r LineRange) Len() int {
	return r.End - r.Start
}

// Empty reports whether the range covers no lines
func (r LineRange) Empty() bool {
	return r.End <= r.Start
}

// Change is one indivisible edit: a contiguous original range replaced by a
// contiguous replacement range.
type Change struct {
	Original    LineRange
	Replacement LineRange
	MovePeer    int // index of the matching change when tagged as a move, -1 otherwise
}

// IsDeletion reports whether the change only removes lines
func (c Change) IsDeletion() bool {
	return c.Replacement.Empty() && !c.Original.Empty()
}

// IsInsertion reports whether the change only adds lines
func (c Change) IsInsertion() bool {
	return c.Original.Empty() && !c.Replacement.Empty()
}

// IsMove reports whether the change was tagged as one side of a move
func (c Change) IsMove() bool {
	return c.MovePeer >= 0
}

// ComputeChanges aligns two line sequences and returns the changed ranges in
// document order. Ranges outside any change are unchanged. The result is empty
// when the sequences are line-identical. It never fails.
func ComputeChanges(original, replacement []string, opts DiffOptions) []Change {
	defer logger.Trace("text.ComputeChanges")()

	text1 := JoinLines(diffKeys(original, opts.IgnoreTrimWhitespace))
	text2 := JoinLines(diffKeys(replacement, opts.IgnoreTrimWhitespace))
	if text1 == text2 {
		return nil
	}

	dmp := diffmatchpatch.New()
	// The library default is one second; zero means no deadline.
	dmp.DiffTimeout = time.Duration(opts.MaxComputationTimeMillis) * time.Millisecond
	chars1, chars2, lineArray := dmp.DiffLinesToChars(text1, text2)
	diffs := dmp.DiffMain(chars1, chars2, false)
	lineDiffs := dmp.DiffCharsToLines(diffs, lineArray)

	changes := processLineDiffs(lineDiffs)
	if opts.ComputeMoves {
		markMoves(changes, original, replacement, opts.IgnoreTrimWhitespace)
	}
	return changes
}

// processLineDiffs walks the line-mode operations and merges every run of
// consecutive deletes and inserts into one Change.
func processLineDiffs(lineDiffs []diffmatchpatch.Diff) []Change {
	var changes []Change
	var current *Change
	oldLine, newLine := 1, 1

	flush := func() {
		if current == nil {
			return
		}
		if current.Original.Empty() && current.Replacement.Empty() {
			logger.Warn("text: dropping change with two empty sides at original line %d", current.Original.Start)
		} else {
			changes = append(changes, *current)
		}
		current = nil
	}
	open := func() {
		if current == nil {
			current = &Change{
				Original:    LineRange{Start: oldLine, End: oldLine},
				Replacement: LineRange{Start: newLine, End: newLine},
				MovePeer:    -1,
			}
		}
	}

	for _, d := range lineDiffs {
		n := strings.Count(d.Text, "\n")
		if n == 0 {
			continue
		}
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			oldLine += n
			newLine += n
		case diffmatchpatch.DiffDelete:
			open()
			oldLine += n
			current.Original.End = oldLine
		case diffmatchpatch.DiffInsert:
			open()
			newLine += n
			current.Replacement.End = newLine
		}
	}
	flush()
	return changes
}

// diffKeys returns the strings the differ compares for each line
func diffKeys(lines []string, ignoreTrimWhitespace bool) []string {
	if !ignoreTrimWhitespace {
		return lines
	}
	keys := make([]string, len(lines))
	for i, line := range lines {
		keys[i] = strings.TrimSpace(line)
	}
	return keys
}

// LineSimilarity computes a similarity score between two lines (0.0 to 1.0)
// using Levenshtein ratio: 1 - (levenshtein_distance / max_length)
// Empty lines have 0 similarity with non-empty lines.
func LineSimilarity(line1, line2 string) float64 {
	if line1 == "" && line2 == "" {
		return 1.0
	}
	if line1 == "" || line2 == "" {
		return 0.0
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(line1, line2, false)
	levenshteinDist := dmp.DiffLevenshtein(diffs)

	maxLen := max(len(line1), len(line2))
	return 1.0 - float64(levenshteinDist)/float64(maxLen)
}
