package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"blockmerge/buffer"
	"blockmerge/client/openai"
	"blockmerge/client/replay"
	"blockmerge/engine"
	"blockmerge/logger"
	"blockmerge/metrics"
	"blockmerge/source"
	"blockmerge/tui"
	"blockmerge/types"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// hostDocument is what review and apply need from a buffer
type hostDocument interface {
	engine.Document
	Path() string
	Content() string
	SelectLines(start, end int) (types.Selection, error)
	Save() error
}

// sessionFlags are the source and target flags shared by review and apply
type sessionFlags struct {
	ranges      []lineRange
	replacement string
	stream      bool
	instruction string
	def         types.Decision
	defFlag     *decisionValue
	nvimAddr    string
	writeBuffer bool
	copyResult  bool
}

func (f *sessionFlags) register(fs *pflag.FlagSet) {
	f.defFlag = &decisionValue{d: &f.def}
	fs.Var(&rangesValue{ranges: &f.ranges}, "range", "line range A:B to review (repeatable); defaults to the whole file")
	fs.StringVar(&f.replacement, "replacement", "", `replacement file, "-" for stdin; defaults to piped stdin, then the clipboard`)
	fs.BoolVar(&f.stream, "stream", false, "stream the replacement from the configured OpenAI-compatible endpoint")
	fs.StringVar(&f.instruction, "instruction", "", "instruction sent with --stream")
	fs.Var(f.defFlag, "default", "decision for blocks left pending: incoming or current")
	fs.StringVar(&f.nvimAddr, "nvim", "", "edit the buffer of a running Neovim at this address instead of the file")
	fs.BoolVar(&f.writeBuffer, "write", false, "write the Neovim buffer to disk after applying")
	fs.BoolVar(&f.copyResult, "copy", false, "copy the resulting document to the clipboard")
}

// decision returns the --default flag, or the configured default
func (f *sessionFlags) decision(opts *rootOptions) (types.Decision, error) {
	if f.defFlag.set {
		return f.def, nil
	}
	return opts.cfg.Decision()
}

// session is one coordinator bound to its document and replacement stream
type session struct {
	doc     hostDocument
	coord   *engine.Coordinator
	stream  engine.ChunkStream
	started time.Time
}

func openSession(ctx context.Context, opts *rootOptions, path string, f *sessionFlags, dryRun bool) (*session, error) {
	doc, err := openDocument(path, f.nvimAddr, dryRun)
	if err != nil {
		return nil, err
	}

	selections, err := selectRanges(doc, f.ranges)
	if err != nil {
		return nil, err
	}

	coord, err := engine.NewCoordinator(selections, engine.Config{
		Marker:          opts.cfg.Marker(),
		Diff:            opts.cfg.DiffOptions(),
		UnwrapCodeFence: opts.cfg.UnwrapCodeFence,
	})
	if err != nil {
		return nil, err
	}

	stream, err := openStream(ctx, opts, f, coord)
	if err != nil {
		return nil, err
	}
	return &session{doc: doc, coord: coord, stream: stream, started: coord.Created()}, nil
}

func openDocument(path, nvimAddr string, dryRun bool) (hostDocument, error) {
	if nvimAddr == "" {
		return buffer.OpenFile(path, !dryRun)
	}
	client, err := buffer.Connect(nvimAddr)
	if err != nil {
		return nil, err
	}
	nb := buffer.NewNvimBuffer(client)
	if err := nb.Open(path); err != nil {
		return nil, err
	}
	if dryRun {
		return buffer.NewMemoryBuffer(nb.Path(), nb.Content()), nil
	}
	return nb, nil
}

// selectRanges turns line ranges into selections in document order. No
// ranges selects the whole document.
func selectRanges(doc hostDocument, ranges []lineRange) ([]types.Selection, error) {
	if len(ranges) == 0 {
		ranges = []lineRange{{Start: 1, End: buffer.LineCount(doc.Content())}}
	}
	sorted := append([]lineRange(nil), ranges...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	selections := make([]types.Selection, 0, len(sorted))
	for i, r := range sorted {
		if i > 0 && r.Start <= sorted[i-1].End {
			return nil, fmt.Errorf("ranges %s and %s overlap", sorted[i-1], r)
		}
		sel, err := doc.SelectLines(r.Start, r.End)
		if err != nil {
			return nil, err
		}
		selections = append(selections, sel)
	}
	return selections, nil
}

func openStream(ctx context.Context, opts *rootOptions, f *sessionFlags, coord *engine.Coordinator) (engine.ChunkStream, error) {
	if f.stream {
		cfg := opts.cfg.StreamClientConfig()
		client := openai.NewClient(cfg)
		return client.StreamChat(ctx, &openai.ChatRequest{
			Model:       cfg.Model,
			Messages:    openai.RewriteMessages(f.instruction, coord.OriginalCombined(), opts.cfg.BoundarySentinel),
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		}), nil
	}

	replacement, kind, err := source.NewResolver().Resolve(f.replacement)
	if err != nil {
		return nil, err
	}
	logger.Debug("replacement read from %s (%d bytes)", kind, len(replacement))
	return replay.New(ctx, replacement, replay.DefaultChunkSize, 0), nil
}

// finish applies the outcome, reports metrics and copies the result when asked
func (s *session) finish(ctx context.Context, opts *rootOptions, f *sessionFlags, def types.Decision, out io.Writer) error {
	summary := s.coord.Summary(def)
	segments := len(s.coord.Segments())

	reps, err := s.coord.Apply(ctx, s.doc, def)
	tracker := metrics.NewTracker(opts.cfg.MetricsURL, opts.cfg.DataDir)
	tracker.TrackFinalize(metrics.SessionMetrics{
		SessionID: s.coord.ID(),
		Segments:  segments,
		Default:   def.String(),
		Summary:   summary,
		StartedAt: s.started,
		Applied:   err == nil,
	})
	defer tracker.Wait()
	if err != nil {
		return err
	}

	// Files are written as each segment is applied; Neovim buffers only on request.
	if f.nvimAddr != "" && f.writeBuffer {
		if err := s.doc.Save(); err != nil {
			return fmt.Errorf("write buffer: %w", err)
		}
	}

	if f.copyResult {
		if err := source.Copy(s.doc.Content()); err != nil {
			fmt.Fprintf(out, "warning: %v\n", err)
		}
	}
	fmt.Fprintf(out, "%s: applied %d segments, %d blocks (+%d -%d lines)\n",
		s.doc.Path(), len(reps), summary.Modified, summary.LinesAdded, summary.LinesRemoved)
	return nil
}

func newReviewCmd(opts *rootOptions) *cobra.Command {
	f := &sessionFlags{}
	cmd := &cobra.Command{
		Use:   "review FILE",
		Short: "Review a replacement interactively and apply the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := f.decision(opts)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			s, err := openSession(ctx, opts, args[0], f, false)
			if err != nil {
				return err
			}

			outcome, err := tui.Run(ctx, s.coord, s.stream, def)
			if err != nil {
				return err
			}
			if outcome.Cancelled {
				fmt.Fprintln(cmd.ErrOrStderr(), "review cancelled, nothing changed")
				return nil
			}
			if outcome.Err != nil {
				return outcome.Err
			}
			return s.finish(ctx, opts, f, def, cmd.ErrOrStderr())
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func newApplyCmd(opts *rootOptions) *cobra.Command {
	f := &sessionFlags{}
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "apply FILE",
		Short: "Apply a replacement without review, resolving every block with the default decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := f.decision(opts)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			s, err := openSession(ctx, opts, args[0], f, dryRun)
			if err != nil {
				return err
			}

			if err := s.coord.Run(ctx, s.stream, nil); err != nil {
				var streamErr *engine.StreamError
				if errors.As(err, &streamErr) {
					return fmt.Errorf("replacement stream failed: %w", err)
				}
				return err
			}
			if err := s.finish(ctx, opts, f, def, cmd.ErrOrStderr()); err != nil {
				return err
			}
			if dryRun {
				fmt.Fprint(cmd.OutOrStdout(), s.doc.Content())
			}
			return nil
		},
	}
	f.register(cmd.Flags())
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the resulting document instead of writing it")
	return cmd
}
