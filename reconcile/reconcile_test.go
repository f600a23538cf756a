package reconcile

import (
	"blockmerge/assert"
	"blockmerge/decision"
	"blockmerge/text"
	"blockmerge/types"
	"fmt"
	"testing"
)

func scenarioBlocks() []text.Block {
	return text.ComputeBlocks("A\nB\nC", "A\nX\nC", 1, text.DefaultDiffOptions())
}

func TestGenerateFinalTextScenario(t *testing.T) {
	blocks := scenarioBlocks()

	tests := []struct {
		decision types.Decision
		expected string
	}{
		{types.DecisionIncoming, "A\nX\nC"},
		{types.DecisionCurrent, "A\nB\nC"},
		{types.DecisionBoth, "A\nB\nX\nC"},
	}

	for _, tt := range tests {
		t.Run(tt.decision.String(), func(t *testing.T) {
			got, err := GenerateFinalText(blocks, map[int]types.Decision{1: tt.decision}, types.DecisionCurrent)
			assert.NoError(t, err, "generate")
			assert.Equal(t, tt.expected, got, "final text")
		})
	}
}

func TestGenerateFinalTextUnknownDecisionKeepsOriginal(t *testing.T) {
	got, err := GenerateFinalText(scenarioBlocks(), map[int]types.Decision{1: types.Decision(9)}, types.DecisionIncoming)
	assert.NoError(t, err, "generate")
	assert.Equal(t, "A\nB\nC", got, "original kept")
}

func TestGenerateFinalTextAbsentSides(t *testing.T) {
	insertion := text.ComputeBlocks("B", "A\nB", 1, text.DefaultDiffOptions())
	deletion := text.ComputeBlocks("A\nB\nC", "A\nC", 1, text.DefaultDiffOptions())

	got, _ := GenerateFinalText(insertion, map[int]types.Decision{0: types.DecisionCurrent}, types.DecisionIncoming)
	assert.Equal(t, "B", got, "current omits an insertion")
	got, _ = GenerateFinalText(insertion, map[int]types.Decision{0: types.DecisionBoth}, types.DecisionIncoming)
	assert.Equal(t, "A\nB", got, "both degrades to the replacement")

	got, _ = GenerateFinalText(deletion, map[int]types.Decision{1: types.DecisionIncoming}, types.DecisionCurrent)
	assert.Equal(t, "A\nC", got, "incoming omits a deletion")
	got, _ = GenerateFinalText(deletion, map[int]types.Decision{1: types.DecisionBoth}, types.DecisionCurrent)
	assert.Equal(t, "A\nB\nC", got, "both degrades to the original")
}

func TestDecisionTotality(t *testing.T) {
	pairs := [][2]string{
		{"A\nB\nC", "A\nX\nC"},
		{"one\ntwo\nthree", "zero\none\nthree\nfour"},
		{"", "new"},
		{"gone", ""},
	}

	for i, pair := range pairs {
		blocks := text.ComputeBlocks(pair[0], pair[1], 1, text.DefaultDiffOptions())
		for _, def := range []types.Decision{types.DecisionIncoming, types.DecisionCurrent} {
			t.Run(fmt.Sprintf("pair_%d_%s", i, def), func(t *testing.T) {
				all := make(map[int]types.Decision)
				for _, idx := range text.ModifiedIndices(blocks) {
					all[idx] = def
				}
				withDefault, err := GenerateFinalText(blocks, nil, def)
				assert.NoError(t, err, "empty map")
				explicit, err := GenerateFinalText(blocks, all, def)
				assert.NoError(t, err, "explicit map")
				assert.Equal(t, explicit, withDefault, "default equals explicit acceptance")
			})
		}

		incoming, _ := GenerateFinalText(blocks, nil, types.DecisionIncoming)
		assert.Equal(t, pair[1], incoming, "incoming reproduces the replacement")
	}
}

func TestResetReproducesOriginal(t *testing.T) {
	original := "alpha\nbeta\ngamma\ndelta"
	blocks := text.ComputeBlocks(original, "alpha\nBETA\ngamma\nepsilon\ndelta", 1, text.DefaultDiffOptions())
	m := decision.NewManager(text.ModifiedIndices(blocks))

	m.AcceptAllIncoming()
	for _, idx := range m.Indices() {
		m.Set(idx, types.DecisionBoth)
	}
	m.ResetAll()

	got, err := GenerateFinalText(blocks, m.Snapshot(), types.DecisionCurrent)
	assert.NoError(t, err, "generate")
	assert.Equal(t, original, got, "reset then current reproduces the original")
}

func TestGenerateFinalTextInvalidDefault(t *testing.T) {
	_, err := GenerateFinalText(scenarioBlocks(), nil, types.DecisionBoth)
	assert.ErrorIs(t, err, ErrInvalidDefault, "both is not a default")
	_, err = GenerateFinalText(scenarioBlocks(), nil, types.DecisionPending)
	assert.ErrorIs(t, err, ErrInvalidDefault, "pending is not a default")
}

func TestSummarize(t *testing.T) {
	blocks := text.ComputeBlocks("a\nb\nc\nd\ne", "a\nB\nc\nd\ne\nf", 1, text.DefaultDiffOptions())
	indices := text.ModifiedIndices(blocks)
	assert.Len(t, indices, 2, "two modified blocks")

	s := Summarize(blocks, map[int]types.Decision{indices[0]: types.DecisionCurrent}, types.DecisionIncoming)

	assert.Equal(t, 2, s.Modified, "modified")
	assert.Equal(t, 1, s.Current, "explicit current")
	assert.Equal(t, 1, s.Defaulted, "defaulted")
	assert.Equal(t, 1, s.LinesAdded, "appended line kept")
	assert.Equal(t, 0, s.LinesRemoved, "nothing removed")
}
