// Package reconcile rebuilds a segment's final text from its blocks and decisions.
package reconcile

import (
	"errors"
	"fmt"
	"strings"

	"blockmerge/text"
	"blockmerge/types"
)

// ErrInvalidDefault is returned when the default policy is not incoming or current
var ErrInvalidDefault = errors.New("default decision must be incoming or current")

// ValidateDefault checks a default policy
func ValidateDefault(d types.Decision) error {
	if d != types.DecisionIncoming && d != types.DecisionCurrent {
		return fmt.Errorf("%w: got %s", ErrInvalidDefault, d)
	}
	return nil
}

// EffectiveDecision returns the recorded decision, or def when it is pending
func EffectiveDecision(recorded, def types.Decision) types.Decision {
	if recorded == types.DecisionPending {
		return def
	}
	return recorded
}

// GenerateFinalText emits the final text of one segment. Unchanged blocks are
// copied verbatim; modified blocks contribute according to their effective
// decision, and absent sides contribute nothing. Contributions are joined
// with newlines in block order.
func GenerateFinalText(blocks []text.Block, decisions map[int]types.Decision, def types.Decision) (string, error) {
	if err := ValidateDefault(def); err != nil {
		return "", err
	}

	parts := make([]string, 0, len(blocks))
	for i := range blocks {
		b := &blocks[i]
		if !b.IsModified() {
			parts = append(parts, b.UnchangedValue())
			continue
		}
		parts = append(parts, contribution(b, EffectiveDecision(decisions[b.Index], def))...)
	}
	return strings.Join(parts, "\n"), nil
}

func contribution(b *text.Block, d types.Decision) []string {
	original, hasOriginal := b.OriginalValue()
	replacement, hasReplacement := b.ReplacementValue()

	var out []string
	switch d {
	case types.DecisionIncoming:
		if hasReplacement {
			out = append(out, replacement)
		}
	case types.DecisionCurrent:
		if hasOriginal {
			out = append(out, original)
		}
	case types.DecisionBoth:
		if hasOriginal {
			out = append(out, original)
		}
		if hasReplacement {
			out = append(out, replacement)
		}
	default:
		if hasOriginal {
			out = append(out, original)
		}
	}
	return out
}

// Summary counts what a finalize did to one segment
type Summary struct {
	Modified     int
	Incoming     int // explicitly decided
	Current      int
	Both         int
	Defaulted    int // pending blocks resolved by the default policy
	LinesAdded   int // replacement lines kept
	LinesRemoved int // original lines dropped
}

// Add accumulates another summary
func (s *Summary) Add(o Summary) {
	s.Modified += o.Modified
	s.Incoming += o.Incoming
	s.Current += o.Current
	s.Both += o.Both
	s.Defaulted += o.Defaulted
	s.LinesAdded += o.LinesAdded
	s.LinesRemoved += o.LinesRemoved
}

// Summarize reports the effect of the decisions on one segment
func Summarize(blocks []text.Block, decisions map[int]types.Decision, def types.Decision) Summary {
	var s Summary
	for i := range blocks {
		b := &blocks[i]
		if !b.IsModified() {
			continue
		}
		s.Modified++
		recorded := decisions[b.Index]
		switch recorded {
		case types.DecisionPending:
			s.Defaulted++
		case types.DecisionIncoming:
			s.Incoming++
		case types.DecisionCurrent:
			s.Current++
		case types.DecisionBoth:
			s.Both++
		}
		switch EffectiveDecision(recorded, def) {
		case types.DecisionIncoming:
			s.LinesAdded += len(b.ReplacementLines)
			s.LinesRemoved += len(b.OriginalLines)
		case types.DecisionBoth:
			s.LinesAdded += len(b.ReplacementLines)
		}
	}
	return s
}
