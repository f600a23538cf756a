package types

import (
	"fmt"
	"strings"
)

// Decision is the resolution attached to a modified block
type Decision int

const (
	DecisionPending Decision = iota
	DecisionIncoming
	DecisionCurrent
	DecisionBoth
)

// String returns the lowercase name used in config files, flags and JSON output
func (d Decision) String() string {
	switch d {
	case DecisionPending:
		return "pending"
	case DecisionIncoming:
		return "incoming"
	case DecisionCurrent:
		return "current"
	case DecisionBoth:
		return "both"
	default:
		return "unknown"
	}
}

// Valid reports whether d is one of the known decisions
func (d Decision) Valid() bool {
	return d >= DecisionPending && d <= DecisionBoth
}

// IsResolved reports whether the decision is anything other than pending
func (d Decision) IsResolved() bool {
	return d != DecisionPending
}

// ParseDecision parses a decision name. Accepts the names returned by String
// plus the "ours"/"theirs" aliases.
func ParseDecision(s string) (Decision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "":
		return DecisionPending, nil
	case "incoming", "theirs":
		return DecisionIncoming, nil
	case "current", "ours":
		return DecisionCurrent, nil
	case "both":
		return DecisionBoth, nil
	default:
		return DecisionPending, fmt.Errorf("unknown decision %q", s)
	}
}

func (d Decision) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Decision) UnmarshalText(b []byte) error {
	parsed, err := ParseDecision(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Selection is one original range handed over by the host document
type Selection struct {
	From      int    // byte offset, inclusive
	To        int    // byte offset, exclusive
	StartLine int    // 1-indexed document line of the first selected line
	Text      string // selected text, equal to document[From:To]
}

// Replacement is one instruction for the host document
type Replacement struct {
	Segment int
	From    int // byte offset, inclusive
	To      int // byte offset, exclusive
	Text    string
}

// StreamConfig holds configuration for the streaming client
type StreamConfig struct {
	URL              string  // Base URL of the OpenAI-compatible server (e.g., "https://api.openai.com")
	APIKey           string  // Resolved API key, empty for unauthenticated servers
	Model            string  // Model name
	Temperature      float64 // Sampling temperature
	MaxTokens        int     // Max tokens to generate
	TimeoutMillis    int     // Request timeout, 0 disables
	CompressRequests bool    // Brotli-compress request bodies
}
