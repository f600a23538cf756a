package text

import (
	"strings"
	"unicode"
)

// markMoves tags pairs of changes where a block of lines deleted in one place
// reappears verbatim as a pure insertion somewhere else. Each change is paired
// at most once; deletions are matched to the earliest unpaired insertion.
// Tagging never alters the ranges.
func markMoves(changes []Change, original, replacement []string, ignoreTrimWhitespace bool) {
	insertions := make(map[string][]int)
	for i, c := range changes {
		if !c.IsInsertion() {
			continue
		}
		lines := replacement[c.Replacement.Start-1 : c.Replacement.End-1]
		if !movable(lines) {
			continue
		}
		key := moveKey(lines, ignoreTrimWhitespace)
		insertions[key] = append(insertions[key], i)
	}
	if len(insertions) == 0 {
		return
	}

	for i, c := range changes {
		if !c.IsDeletion() {
			continue
		}
		lines := original[c.Original.Start-1 : c.Original.End-1]
		if !movable(lines) {
			continue
		}
		key := moveKey(lines, ignoreTrimWhitespace)
		candidates := insertions[key]
		if len(candidates) == 0 {
			continue
		}
		peer := candidates[0]
		insertions[key] = candidates[1:]
		changes[i].MovePeer = peer
		changes[peer].MovePeer = i
	}
}

func moveKey(lines []string, ignoreTrimWhitespace bool) string {
	return strings.Join(diffKeys(lines, ignoreTrimWhitespace), "\n")
}

// movable reports whether a block carries enough content to be tagged as a move
func movable(lines []string) bool {
	count := 0
	for _, line := range lines {
		for _, r := range line {
			if !unicode.IsSpace(r) {
				count++
				if count >= MinMoveChars {
					return true
				}
			}
		}
	}
	return false
}
