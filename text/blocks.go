package text

import (
	"fmt"
	"strings"

	"blockmerge/logger"
)

// BlockKind distinguishes unchanged spans from changed ones
type BlockKind int

const (
	BlockUnchanged BlockKind = iota
	BlockModified
)

func (k BlockKind) String() string {
	switch k {
	case BlockUnchanged:
		return "unchanged"
	case BlockModified:
		return "modified"
	default:
		return "unknown"
	}
}

func (k BlockKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *BlockKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "unchanged":
		*k = BlockUnchanged
	case "modified":
		*k = BlockModified
	default:
		return fmt.Errorf("unknown block kind %q", b)
	}
	return nil
}

// Block is one addressable unit of a segment's diff.
//
// Sides are held as line slices. A nil slice means the side is absent (pure
// insertion has no original, pure deletion has no replacement); a slice holding
// a single empty string is a present side whose value is "".
type Block struct {
	Index int       `json:"index"`
	Kind  BlockKind `json:"kind"`

	Lines            []string `json:"lines,omitempty"`             // unchanged blocks
	OriginalLines    []string `json:"original_lines,omitempty"`    // modified blocks
	ReplacementLines []string `json:"replacement_lines,omitempty"` // modified blocks

	// Original lines are absolute document lines, replacement lines are
	// relative to the replacement text. Both 1-indexed, end exclusive.
	OriginalStart    int `json:"original_start"`
	OriginalEnd      int `json:"original_end"`
	ReplacementStart int `json:"replacement_start"`
	ReplacementEnd   int `json:"replacement_end"`

	// MovePeer is the index of the block holding the other side of a move, -1 otherwise
	MovePeer int `json:"move_peer"`
}

// UnchangedValue returns the text of an unchanged block
func (b *Block) UnchangedValue() string {
	return strings.Join(b.Lines, "\n")
}

// OriginalValue returns the original side and whether it is present
func (b *Block) OriginalValue() (string, bool) {
	if b.Kind == BlockUnchanged {
		return b.UnchangedValue(), true
	}
	if len(b.OriginalLines) == 0 {
		return "", false
	}
	return strings.Join(b.OriginalLines, "\n"), true
}

// ReplacementValue returns the replacement side and whether it is present
func (b *Block) ReplacementValue() (string, bool) {
	if b.Kind == BlockUnchanged {
		return b.UnchangedValue(), true
	}
	if len(b.ReplacementLines) == 0 {
		return "", false
	}
	return strings.Join(b.ReplacementLines, "\n"), true
}

// IsModified reports whether the block carries a decision
func (b *Block) IsModified() bool {
	return b.Kind == BlockModified
}

// IsMove reports whether the block is one side of a detected move
func (b *Block) IsMove() bool {
	return b.MovePeer >= 0
}

func (b *Block) String() string {
	if b.Kind == BlockUnchanged {
		return fmt.Sprintf("#%d unchanged %d-%d", b.Index, b.OriginalStart, b.OriginalEnd)
	}
	return fmt.Sprintf("#%d modified %d-%d -> %d-%d", b.Index, b.OriginalStart, b.OriginalEnd, b.ReplacementStart, b.ReplacementEnd)
}

// SegmentBlocks turns a change list into the ordered block sequence covering
// both texts. startLine is the 1-indexed document line of the segment's first
// original line and only shifts the original line numbers.
func SegmentBlocks(original, replacement []string, changes []Change, startLine int) []Block {
	if startLine < 1 {
		startLine = 1
	}
	offset := startLine - 1

	blocks := make([]Block, 0, 2*len(changes)+1)
	changeBlock := make(map[int]int, len(changes))
	oldLine, newLine := 1, 1

	emitUnchanged := func(oldEnd, newEnd int) {
		if oldEnd <= oldLine {
			return
		}
		blocks = append(blocks, Block{
			Index:            len(blocks),
			Kind:             BlockUnchanged,
			Lines:            original[oldLine-1 : oldEnd-1],
			OriginalStart:    oldLine + offset,
			OriginalEnd:      oldEnd + offset,
			ReplacementStart: newLine,
			ReplacementEnd:   newEnd,
			MovePeer:         -1,
		})
	}

	for i, c := range changes {
		emitUnchanged(c.Original.Start, c.Replacement.Start)
		oldLine, newLine = c.Original.Start, c.Replacement.Start

		if c.Original.Empty() && c.Replacement.Empty() {
			logger.Warn("text: skipping empty change %d at line %d", i, c.Original.Start+offset)
			continue
		}

		block := Block{
			Index:            len(blocks),
			Kind:             BlockModified,
			OriginalStart:    c.Original.Start + offset,
			OriginalEnd:      c.Original.End + offset,
			ReplacementStart: c.Replacement.Start,
			ReplacementEnd:   c.Replacement.End,
			MovePeer:         -1,
		}
		if !c.Original.Empty() {
			block.OriginalLines = original[c.Original.Start-1 : c.Original.End-1]
		}
		if !c.Replacement.Empty() {
			block.ReplacementLines = replacement[c.Replacement.Start-1 : c.Replacement.End-1]
		}
		changeBlock[i] = block.Index
		blocks = append(blocks, block)
		oldLine, newLine = c.Original.End, c.Replacement.End
	}
	emitUnchanged(len(original)+1, len(replacement)+1)

	for i, c := range changes {
		if !c.IsMove() {
			continue
		}
		self, ok1 := changeBlock[i]
		peer, ok2 := changeBlock[c.MovePeer]
		if ok1 && ok2 {
			blocks[self].MovePeer = peer
		}
	}

	logger.Debug("text: segmented %d changes into %d blocks (start line %d)", len(changes), len(blocks), startLine)
	return blocks
}

// ComputeBlocks diffs two texts and segments the result
func ComputeBlocks(originalText, replacementText string, startLine int, opts DiffOptions) []Block {
	original := SplitLines(originalText)
	replacement := SplitLines(replacementText)
	changes := ComputeChanges(original, replacement, opts)
	return SegmentBlocks(original, replacement, changes, startLine)
}

// ModifiedIndices returns the indices of the modified blocks in order
func ModifiedIndices(blocks []Block) []int {
	var indices []int
	for i := range blocks {
		if blocks[i].IsModified() {
			indices = append(indices, blocks[i].Index)
		}
	}
	return indices
}

// OriginalText rebuilds the original text from the blocks
func OriginalText(blocks []Block) string {
	var parts []string
	for i := range blocks {
		if v, ok := blocks[i].OriginalValue(); ok {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "\n")
}

// ReplacementText rebuilds the replacement text from the blocks
func ReplacementText(blocks []Block) string {
	var parts []string
	for i := range blocks {
		if v, ok := blocks[i].ReplacementValue(); ok {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "\n")
}
