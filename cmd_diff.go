package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"blockmerge/source"
	"blockmerge/text"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	diffHeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	diffAddedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	diffRemovedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	diffFaintStyle   = lipgloss.NewStyle().Faint(true)
)

type diffOutput struct {
	Blocks   []text.Block `json:"blocks"`
	Modified int          `json:"modified"`
	Moves    int          `json:"moves"`
}

func newDiffCmd(opts *rootOptions) *cobra.Command {
	var (
		jsonOut          bool
		ignoreWhitespace bool
		noMoves          bool
	)

	cmd := &cobra.Command{
		Use:   "diff ORIGINAL REPLACEMENT",
		Short: "Print the blocks between two files",
		Long: `Print the unchanged and modified blocks between two files.
Either file may be "-" to read it from stdin.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			original, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			replacement, err := readInput(cmd, args[1])
			if err != nil {
				return err
			}

			diffOpts := opts.cfg.DiffOptions()
			if ignoreWhitespace {
				diffOpts.IgnoreTrimWhitespace = true
			}
			if noMoves {
				diffOpts.ComputeMoves = false
			}
			blocks := text.ComputeBlocks(original, replacement, 1, diffOpts)

			if jsonOut {
				return writeBlocksJSON(cmd.OutOrStdout(), blocks)
			}
			writeBlocks(cmd.OutOrStdout(), blocks, source.ColorEnabled())
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	cmd.Flags().BoolVar(&ignoreWhitespace, "ignore-whitespace", false, "Treat lines differing only in leading/trailing whitespace as equal")
	cmd.Flags().BoolVar(&noMoves, "no-moves", false, "Do not detect moved blocks")
	return cmd
}

func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func writeBlocksJSON(w io.Writer, blocks []text.Block) error {
	out := diffOutput{Blocks: blocks}
	if out.Blocks == nil {
		out.Blocks = []text.Block{}
	}
	for i := range blocks {
		if blocks[i].IsModified() {
			out.Modified++
		}
		if blocks[i].IsMove() {
			out.Moves++
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}

func writeBlocks(w io.Writer, blocks []text.Block, color bool) {
	style := func(s lipgloss.Style, str string) string {
		if !color {
			return str
		}
		return s.Render(str)
	}

	modified := 0
	for i := range blocks {
		b := &blocks[i]
		if !b.IsModified() {
			for j, line := range b.Lines {
				fmt.Fprintln(w, style(diffFaintStyle, fmt.Sprintf("%4d   %s", b.OriginalStart+j, line)))
			}
			continue
		}

		modified++
		header := fmt.Sprintf("@@ block %d: original %d-%d, replacement %d-%d", b.Index, b.OriginalStart, b.OriginalEnd, b.ReplacementStart, b.ReplacementEnd)
		if b.IsMove() {
			header += fmt.Sprintf(", moved (block %d)", b.MovePeer)
		}
		fmt.Fprintln(w, style(diffHeaderStyle, header+" @@"))
		for j, line := range b.OriginalLines {
			fmt.Fprintln(w, style(diffRemovedStyle, fmt.Sprintf("%4d - %s", b.OriginalStart+j, line)))
		}
		for _, line := range b.ReplacementLines {
			fmt.Fprintln(w, style(diffAddedStyle, "     + "+line))
		}
	}
	fmt.Fprintf(w, "%d modified blocks\n", modified)
}
