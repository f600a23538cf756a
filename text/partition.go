package text

import "strings"

// BoundaryMarker returns the literal marker placed between segments for the
// given sentinel line.
func BoundaryMarker(sentinel string) string {
	return "\n" + sentinel + "\n"
}

// markerLines returns the marker as the run of lines it occupies
func markerLines(marker string) []string {
	return SplitLines(strings.Trim(marker, "\n"))
}

// SplitSegments splits a combined text on every occurrence of the boundary
// marker. The marker matches as a run of whole lines, so a marker at the very
// start or end of the text also counts. Each part is trimmed of leading and
// trailing whitespace-only lines. A text without markers yields one part.
func SplitSegments(text, marker string) []string {
	lines := SplitLines(text)
	boundary := markerLines(marker)

	var parts []string
	start := 0
	for i := 0; i < len(lines); {
		if matchesAt(lines, i, boundary) {
			parts = append(parts, trimmedPart(lines[start:i]))
			i += len(boundary)
			start = i
			continue
		}
		i++
	}
	parts = append(parts, trimmedPart(lines[start:]))
	return parts
}

// JoinSegments joins parts with the boundary marker
func JoinSegments(parts []string, marker string) string {
	return strings.Join(parts, marker)
}

// CountBoundaries returns the number of complete markers in text
func CountBoundaries(text, marker string) int {
	return len(SplitSegments(text, marker)) - 1
}

func matchesAt(lines []string, i int, boundary []string) bool {
	if len(boundary) == 0 || i+len(boundary) > len(lines) {
		return false
	}
	for j, b := range boundary {
		if strings.TrimRight(lines[i+j], "\r") != b {
			return false
		}
	}
	return true
}

func trimmedPart(lines []string) string {
	trimmed, _, _ := TrimBlankLines(lines)
	return strings.Join(trimmed, "\n")
}

// TrimBlankLines removes leading and trailing whitespace-only lines and
// returns the remaining lines together with what was removed from each end.
func TrimBlankLines(lines []string) (trimmed, leading, trailing []string) {
	lo, hi := 0, len(lines)
	for lo < hi && isBlank(lines[lo]) {
		lo++
	}
	for hi > lo && isBlank(lines[hi-1]) {
		hi--
	}
	return lines[lo:hi], lines[:lo], lines[hi:]
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}
