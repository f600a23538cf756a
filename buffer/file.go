package buffer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"blockmerge/engine"
	"blockmerge/logger"
	"blockmerge/types"
)

// FileBuffer is a host document backed by a file on disk
type FileBuffer struct {
	mu       sync.Mutex
	path     string
	content  string
	perm     fs.FileMode
	autoSave bool
}

// OpenFile loads a file. With autoSave set, every replacement is written
// back to disk immediately; otherwise only Save writes.
func OpenFile(path string, autoSave bool) (*FileBuffer, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, engine.ErrDocumentNotFound)
		}
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &FileBuffer{
		path:     path,
		content:  string(data),
		perm:     info.Mode().Perm(),
		autoSave: autoSave,
	}, nil
}

// NewMemoryBuffer returns a buffer holding content that only touches disk
// when Save is called
func NewMemoryBuffer(path, content string) *FileBuffer {
	return &FileBuffer{path: path, content: content, perm: 0o644}
}

func (b *FileBuffer) Path() string { return b.path }

// Content returns the current in-memory content
func (b *FileBuffer) Content() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.content
}

// SelectLines returns the selection covering lines start..end (1-indexed, inclusive)
func (b *FileBuffer) SelectLines(start, end int) (types.Selection, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	from, to, err := lineSpan(b.content, start, end)
	if err != nil {
		return types.Selection{}, fmt.Errorf("%s: %w", b.path, err)
	}
	return types.Selection{From: from, To: to, StartLine: start, Text: b.content[from:to]}, nil
}

// ReplaceRange replaces bytes [from, to). The in-memory content only changes
// when the write (if any) succeeded.
func (b *FileBuffer) ReplaceRange(ctx context.Context, from, to int, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := checkRange(from, to, len(b.content)); err != nil {
		return err
	}
	next := b.content[:from] + text + b.content[to:]
	if b.autoSave {
		if err := b.write(next); err != nil {
			return err
		}
	}
	b.content = next
	return nil
}

// Save writes the in-memory content to disk
func (b *FileBuffer) Save() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.write(b.content)
}

// write replaces the file atomically: temp file in the same directory, then rename
func (b *FileBuffer) write(content string) error {
	defer logger.Trace("buffer.FileBuffer.write")()

	if _, err := os.Stat(b.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", b.path, engine.ErrDocumentNotFound)
		}
		return err
	}

	dir := filepath.Dir(b.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(b.path)+".blockmerge-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { os.Remove(tmpName) }

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, b.perm); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		cleanup()
		return fmt.Errorf("rename temp file: %w", err)
	}
	logger.Debug("buffer: wrote %d bytes to %s", len(content), b.path)
	return nil
}
