// Package source reads replacement text from the places the CLI accepts it:
// a file, piped stdin or the clipboard.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/mattn/go-isatty"
)

type Kind string

const (
	KindFile      Kind = "file"
	KindStdin     Kind = "stdin"
	KindClipboard Kind = "clipboard"
)

// ErrNoSource is returned when no replacement text is available
var ErrNoSource = errors.New("no replacement given: pass --replacement, pipe it on stdin, or copy it to the clipboard")

// Resolver picks the replacement source. The zero value is not usable; use
// NewResolver.
type Resolver struct {
	Stdin         io.Reader
	StdinPiped    func() bool
	ReadClipboard func() (string, error)
}

// NewResolver returns a resolver over the process stdin and the system clipboard
func NewResolver() *Resolver {
	return &Resolver{
		Stdin:         os.Stdin,
		StdinPiped:    StdinPiped,
		ReadClipboard: clipboard.ReadAll,
	}
}

// Resolve reads the replacement text. "-" forces stdin, any other non-empty
// path is read as a file. Without a path, piped stdin wins over the clipboard.
func (r *Resolver) Resolve(path string) (string, Kind, error) {
	switch {
	case path == "-":
		return r.readStdin()
	case path != "":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", KindFile, fmt.Errorf("read replacement: %w", err)
		}
		return string(data), KindFile, nil
	case r.StdinPiped != nil && r.StdinPiped():
		return r.readStdin()
	}

	if r.ReadClipboard == nil {
		return "", KindClipboard, ErrNoSource
	}
	text, err := r.ReadClipboard()
	if err != nil {
		return "", KindClipboard, fmt.Errorf("read clipboard: %w", err)
	}
	if text == "" {
		return "", KindClipboard, ErrNoSource
	}
	return text, KindClipboard, nil
}

func (r *Resolver) readStdin() (string, Kind, error) {
	data, err := io.ReadAll(r.Stdin)
	if err != nil {
		return "", KindStdin, fmt.Errorf("read stdin: %w", err)
	}
	return string(data), KindStdin, nil
}

// StdinPiped reports whether stdin is redirected rather than a terminal
func StdinPiped() bool {
	fd := os.Stdin.Fd()
	return !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
}

// StdoutIsTerminal reports whether output goes to a terminal
func StdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ColorEnabled reports whether styled output should be used
func ColorEnabled() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return StdoutIsTerminal()
}

// Copy puts text on the system clipboard
func Copy(text string) error {
	if clipboard.Unsupported {
		return errors.New("clipboard is not supported on this system")
	}
	return clipboard.WriteAll(text)
}
