package text

const (
	// SimilarityThreshold is the minimum similarity score for a preview line
	// to count as an edit of an original line rather than a new line.
	SimilarityThreshold = 0.3

	// PreviewMatchWindowBefore and PreviewMatchWindowAfter bound the search for
	// a corresponding original line around the expected position.
	PreviewMatchWindowBefore = 2
	PreviewMatchWindowAfter  = 10

	// MinMoveChars is the minimum number of non-whitespace characters a
	// deleted/inserted block must carry before it can be tagged as a move.
	// Short blocks (a closing brace, a blank line) match each other by accident.
	MinMoveChars = 10

	// MaxBlankLineRun is the longest run of blank lines kept verbatim by
	// NormalizeStream. Longer runs collapse to a single blank line.
	MaxBlankLineRun = 2

	// DefaultBoundarySentinel is the line that separates segments in a
	// combined text.
	DefaultBoundarySentinel = "=====[[BLOCKMERGE:SEGMENT-BOUNDARY]]====="
)
