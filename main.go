package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"

	"blockmerge/config"
	"blockmerge/logger"

	"github.com/spf13/cobra"
)

// DetailedError enhances a standard error with a stack trace.
type DetailedError struct {
	Err   error
	Stack []byte
}

func (e *DetailedError) Error() string {
	return e.Err.Error()
}

func (e *DetailedError) Unwrap() error {
	return e.Err
}

// rootOptions are the flags and settings shared by every command
type rootOptions struct {
	configPath string
	logLevel   string

	cfg config.Config
	log *logger.LimitedLogger
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:   "blockmerge",
		Short: "Review a rewritten selection block by block before it lands",
		Long: `blockmerge compares selections of a file with a replacement (from a file,
stdin, the clipboard or a streaming model), splits the difference into blocks
and lets you accept, reject or keep both sides of each block.

Examples:
  blockmerge diff old.go new.go
  blockmerge review main.go --range 10:40 --stream --instruction "add error handling"
  blockmerge apply main.go --replacement rewrite.go --default incoming --dry-run`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.log != nil {
				opts.log.Close()
			}
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (.json, .yaml or .toml); defaults to $"+config.EnvVar)
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: trace, debug, info, warn, error, off")

	root.AddCommand(newDiffCmd(opts), newReviewCmd(opts), newApplyCmd(opts))
	return root
}

// load reads the configuration and sets up the logger
func (o *rootOptions) load() error {
	var err error
	if o.configPath != "" {
		o.cfg, err = config.Load(o.configPath)
	} else {
		o.cfg, err = config.FromEnv()
	}
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		o.cfg.LogLevel = o.logLevel
	}
	o.log = setupLogger(o.cfg)
	logger.Debug("config: %+v", o.cfg)
	return nil
}

// setupLogger logs to the configured file. Returns nil when logging is off or
// the file cannot be opened.
func setupLogger(cfg config.Config) *logger.LimitedLogger {
	level := logger.ParseLogLevel(cfg.LogLevel)
	if level == logger.LogLevelOff || cfg.LogFile == "" {
		logger.Discard()
		return nil
	}
	ll, err := logger.Setup(cfg.LogFile, level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", err)
		logger.Discard()
		return nil
	}
	return ll
}

// execute runs the CLI, turning panics into a DetailedError
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &DetailedError{
				Err:   fmt.Errorf("internal panic: %v", r),
				Stack: debug.Stack(),
			}
		}
	}()

	root := newRootCmd(&rootOptions{})
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := execute(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var detailed *DetailedError
		if errors.As(err, &detailed) {
			fmt.Fprintf(os.Stderr, "\n--- Stack Trace ---\n%s\n", detailed.Stack)
		}
		stop()
		os.Exit(1)
	}
}
