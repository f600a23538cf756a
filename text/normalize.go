package text

import "strings"

// NormalizeStream cleans up a completed model response: leading and trailing
// blank lines are removed and any run of more than MaxBlankLineRun blank lines
// collapses to a single empty line. Shorter runs are kept as they are.
func NormalizeStream(text string) string {
	lines, _, _ := TrimBlankLines(SplitLines(text))

	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); {
		if !isBlank(lines[i]) {
			out = append(out, lines[i])
			i++
			continue
		}
		j := i
		for j < len(lines) && isBlank(lines[j]) {
			j++
		}
		if j-i > MaxBlankLineRun {
			out = append(out, "")
		} else {
			out = append(out, lines[i:j]...)
		}
		i = j
	}
	return strings.Join(out, "\n")
}
