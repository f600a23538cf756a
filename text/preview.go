package text

import "strings"

// LineHint classifies a preview line against the segment's original lines
type LineHint int

const (
	HintSame LineHint = iota
	HintEdited
	HintNew
)

func (h LineHint) String() string {
	switch h {
	case HintSame:
		return "same"
	case HintEdited:
		return "edited"
	case HintNew:
		return "new"
	default:
		return "unknown"
	}
}

// PreviewLine is one numbered line of a streaming preview
type PreviewLine struct {
	Number int // 1-indexed, counted from the segment's document start line
	Text   string
	Hint   LineHint
}

// SegmentPreview is the advisory view of one segment while the replacement is
// still arriving. Pending is set when no replacement text has reached the
// segment yet.
type SegmentPreview struct {
	Index   int
	Pending bool
	Lines   []PreviewLine
}

// BuildPreviews splits the partial replacement on the marker and numbers each
// part against its original segment. One preview is returned per original
// segment, plus one per surplus replacement part. A marker that has only
// partly arrived at the end of the text is hidden.
func BuildPreviews(originals []string, partial, marker string, startLines []int) []SegmentPreview {
	partial = HidePartialMarker(partial, marker)
	parts := SplitSegments(partial, marker)
	received := len(parts)
	if partial == "" {
		received = 0
	}

	count := max(len(originals), received)
	previews := make([]SegmentPreview, count)
	for i := range previews {
		previews[i].Index = i
		if i >= received {
			previews[i].Pending = true
			continue
		}
		var originalLines []string
		if i < len(originals) {
			originalLines = SplitLines(originals[i])
		}
		start := 1
		if i < len(startLines) && startLines[i] > 0 {
			start = startLines[i]
		}
		previews[i].Lines = numberLines(SplitLines(parts[i]), originalLines, start)
	}
	return previews
}

// HidePartialMarker drops a trailing fragment of the boundary marker, so that
// "...\n=====[[BLOCK" does not flash in a preview before the rest arrives.
func HidePartialMarker(text, marker string) string {
	boundary := markerLines(marker)
	if len(boundary) == 0 {
		return text
	}
	lines := SplitLines(text)
	// Try the longest partial marker first: complete marker lines followed
	// by a prefix of the next one.
	for k := min(len(boundary), len(lines)) - 1; k >= 0; k-- {
		tail := lines[len(lines)-1-k:]
		if partialMarkerMatch(tail, boundary) {
			kept := lines[:len(lines)-1-k]
			return strings.Join(kept, "\n")
		}
	}
	return text
}

func partialMarkerMatch(tail, boundary []string) bool {
	last := len(tail) - 1
	for i := 0; i < last; i++ {
		if tail[i] != boundary[i] {
			return false
		}
	}
	frag := tail[last]
	if frag == "" {
		return false
	}
	full := boundary[last]
	return len(frag) <= len(full) && strings.HasPrefix(full, frag) && !(last == len(boundary)-1 && frag == full)
}

// numberLines assigns document line numbers and a hint to each preview line
func numberLines(lines, originalLines []string, start int) []PreviewLine {
	m := newPreviewMatcher(originalLines)
	out := make([]PreviewLine, len(lines))
	for i, line := range lines {
		out[i] = PreviewLine{
			Number: start + i,
			Text:   line,
			Hint:   m.classify(line),
		}
	}
	return out
}

// previewMatcher pairs streamed lines with original lines in order, looking
// in a small window around the expected position.
type previewMatcher struct {
	oldLines []string
	used     map[int]bool
	expected int // next expected original index, 0-indexed
}

func newPreviewMatcher(oldLines []string) *previewMatcher {
	return &previewMatcher{oldLines: oldLines, used: make(map[int]bool)}
}

func (m *previewMatcher) classify(line string) LineHint {
	idx, exact := m.match(line)
	if idx < 0 {
		return HintNew
	}
	m.used[idx] = true
	if idx >= m.expected {
		m.expected = idx + 1
	}
	if exact {
		return HintSame
	}
	return HintEdited
}

// match returns the 0-indexed original line matching line and whether the
// match is exact, or -1 when nothing in the window is similar enough.
func (m *previewMatcher) match(line string) (int, bool) {
	if len(m.oldLines) == 0 {
		return -1, false
	}
	if m.expected < len(m.oldLines) && !m.used[m.expected] && m.oldLines[m.expected] == line {
		return m.expected, true
	}

	searchStart := max(0, m.expected-PreviewMatchWindowBefore)
	searchEnd := min(len(m.oldLines), m.expected+PreviewMatchWindowAfter)

	bestIdx := -1
	bestSimilarity := SimilarityThreshold
	for i := searchStart; i < searchEnd; i++ {
		if m.used[i] {
			continue
		}
		oldLine := m.oldLines[i]
		if oldLine == line {
			return i, true
		}
		if oldLine != "" && strings.HasPrefix(line, oldLine) {
			return i, false
		}
		if similarity := LineSimilarity(line, oldLine); similarity > bestSimilarity {
			bestSimilarity = similarity
			bestIdx = i
		}
	}
	return bestIdx, false
}
