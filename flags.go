package main

import (
	"fmt"
	"strconv"
	"strings"

	"blockmerge/types"

	"github.com/spf13/pflag"
)

// decisionValue is a --default flag: incoming or current
type decisionValue struct {
	d   *types.Decision
	set bool
}

var _ pflag.Value = (*decisionValue)(nil)

func (v *decisionValue) String() string {
	if v.d == nil {
		return ""
	}
	return v.d.String()
}

func (v *decisionValue) Set(s string) error {
	d, err := types.ParseDecision(s)
	if err != nil {
		return err
	}
	if d != types.DecisionIncoming && d != types.DecisionCurrent {
		return fmt.Errorf("default must be incoming or current, got %q", s)
	}
	*v.d = d
	v.set = true
	return nil
}

func (v *decisionValue) Type() string { return "decision" }

// lineRange is a 1-indexed inclusive line range
type lineRange struct {
	Start, End int
}

func (r lineRange) String() string {
	return fmt.Sprintf("%d:%d", r.Start, r.End)
}

func parseLineRange(s string) (lineRange, error) {
	startStr, endStr, found := strings.Cut(strings.TrimSpace(s), ":")
	start, err := strconv.Atoi(startStr)
	if err != nil {
		return lineRange{}, fmt.Errorf("invalid range %q: want A:B", s)
	}
	end := start
	if found {
		if end, err = strconv.Atoi(endStr); err != nil {
			return lineRange{}, fmt.Errorf("invalid range %q: want A:B", s)
		}
	}
	if start < 1 || end < start {
		return lineRange{}, fmt.Errorf("invalid range %q: need 1 <= A <= B", s)
	}
	return lineRange{Start: start, End: end}, nil
}

// rangesValue is a repeatable --range flag
type rangesValue struct {
	ranges *[]lineRange
}

var _ pflag.Value = (*rangesValue)(nil)

func (v *rangesValue) String() string {
	if v.ranges == nil {
		return ""
	}
	parts := make([]string, len(*v.ranges))
	for i, r := range *v.ranges {
		parts[i] = r.String()
	}
	return strings.Join(parts, ",")
}

func (v *rangesValue) Set(s string) error {
	for _, part := range strings.Split(s, ",") {
		r, err := parseLineRange(part)
		if err != nil {
			return err
		}
		*v.ranges = append(*v.ranges, r)
	}
	return nil
}

func (v *rangesValue) Type() string { return "range" }
