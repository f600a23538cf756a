package engine

import (
	"context"
	"sort"

	"blockmerge/logger"
	"blockmerge/types"
)

// sortDescending orders replacements bottom of the document first, so that
// applying one never shifts the offsets of those still pending.
func sortDescending(replacements []types.Replacement) {
	sort.SliceStable(replacements, func(i, j int) bool {
		return replacements[i].From > replacements[j].From
	})
}

// ApplyReplacements writes the replacements to the document in descending
// position order and stops at the first failure.
func ApplyReplacements(ctx context.Context, doc Document, replacements []types.Replacement) error {
	sorted := append([]types.Replacement(nil), replacements...)
	sortDescending(sorted)
	for _, r := range sorted {
		if err := applyOne(ctx, doc, r); err != nil {
			return err
		}
	}
	return nil
}

func applyOne(ctx context.Context, doc Document, r types.Replacement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := doc.ReplaceRange(ctx, r.From, r.To, r.Text); err != nil {
		logger.Error("apply segment %d [%d:%d]: %v", r.Segment, r.From, r.To, err)
		return &ApplyError{Segment: r.Segment, From: r.From, To: r.To, Err: err}
	}
	return nil
}

// Apply finalizes the session and writes the result to the document, then
// closes the session. On failure the segments and decisions stay in place and
// Apply may be called again; segments already written are skipped.
func (c *Coordinator) Apply(ctx context.Context, doc Document, def types.Decision) ([]types.Replacement, error) {
	defer logger.Trace("engine.Apply")()

	replacements, err := c.Finalize(def)
	if err != nil {
		return nil, err
	}

	for _, r := range replacements {
		c.mu.RLock()
		done := c.applied[r.Segment]
		c.mu.RUnlock()
		if done {
			continue
		}
		if err := applyOne(ctx, doc, r); err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.applied[r.Segment] = true
		c.mu.Unlock()
	}

	c.mu.Lock()
	c.setPhase(PhaseClosed)
	c.segments = nil
	c.mu.Unlock()

	logger.Info("engine %s: applied %d segments", c.shortID(), len(replacements))
	return replacements, nil
}
