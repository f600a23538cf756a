package buffer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"blockmerge/engine"
	"blockmerge/logger"
	"blockmerge/types"

	"github.com/neovim/go-client/nvim"
)

// Connect dials a running Neovim. An empty addr falls back to $NVIM_LISTEN_ADDRESS.
func Connect(addr string) (*nvim.Nvim, error) {
	if addr == "" {
		addr = os.Getenv("NVIM_LISTEN_ADDRESS")
	}
	if addr == "" {
		return nil, fmt.Errorf("no neovim address: pass --nvim or set NVIM_LISTEN_ADDRESS")
	}
	client, err := nvim.Dial(addr)
	if err != nil {
		return nil, fmt.Errorf("connect to neovim at %s: %w", addr, err)
	}
	return client, nil
}

// NvimBuffer is a host document backed by a Neovim buffer
type NvimBuffer struct {
	client *nvim.Nvim

	mu    sync.Mutex
	id    nvim.Buffer
	path  string
	lines []string
}

// NewNvimBuffer creates a buffer bound to the client; call Open before use
func NewNvimBuffer(client *nvim.Nvim) *NvimBuffer {
	return &NvimBuffer{client: client}
}

func (b *NvimBuffer) Path() string { return b.path }

// Open finds the loaded buffer for path, editing the file when no buffer
// holds it yet, and reads its lines.
func (b *NvimBuffer) Open(path string) error {
	defer logger.Trace("buffer.NvimBuffer.Open")()
	if b.client == nil {
		return fmt.Errorf("nvim client not set")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	id, found, err := b.findBuffer(absPath)
	if err != nil {
		return err
	}
	if !found {
		batch := b.client.NewBatch()
		batch.Command("edit " + escapePath(absPath))
		batch.CurrentBuffer(&id)
		if err := batch.Execute(); err != nil {
			return fmt.Errorf("edit %s: %w", absPath, err)
		}
	}

	b.mu.Lock()
	b.id = id
	b.path = absPath
	b.mu.Unlock()
	return b.refresh()
}

func (b *NvimBuffer) findBuffer(absPath string) (nvim.Buffer, bool, error) {
	var bufs []nvim.Buffer
	batch := b.client.NewBatch()
	batch.Buffers(&bufs)
	if err := batch.Execute(); err != nil {
		return 0, false, fmt.Errorf("list buffers: %w", err)
	}

	names := make([]string, len(bufs))
	batch = b.client.NewBatch()
	for i, buf := range bufs {
		batch.BufferName(buf, &names[i])
	}
	if err := batch.Execute(); err != nil {
		return 0, false, fmt.Errorf("buffer names: %w", err)
	}
	for i, name := range names {
		if name == absPath {
			return bufs[i], true, nil
		}
	}
	return 0, false, nil
}

// refresh reloads the buffer lines from Neovim
func (b *NvimBuffer) refresh() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var raw [][]byte
	batch := b.client.NewBatch()
	batch.BufferLines(b.id, 0, -1, false, &raw)
	if err := batch.Execute(); err != nil {
		logger.Error("error reading buffer %s: %v", b.path, err)
		return err
	}
	lines := make([]string, len(raw))
	for i, line := range raw {
		lines[i] = string(line)
	}
	b.lines = lines
	return nil
}

// Content returns the buffer lines joined with newlines
func (b *NvimBuffer) Content() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Join(b.lines, "\n")
}

// SelectLines returns the selection covering lines start..end (1-indexed, inclusive)
func (b *NvimBuffer) SelectLines(start, end int) (types.Selection, error) {
	content := b.Content()
	from, to, err := lineSpan(content, start, end)
	if err != nil {
		return types.Selection{}, fmt.Errorf("%s: %w", b.path, err)
	}
	return types.Selection{From: from, To: to, StartLine: start, Text: content[from:to]}, nil
}

// ReplaceRange replaces bytes [from, to) of the buffer content with
// nvim_buf_set_text. Fails with engine.ErrDocumentNotFound when the buffer
// was wiped meanwhile.
func (b *NvimBuffer) ReplaceRange(ctx context.Context, from, to int, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	var valid bool
	check := b.client.NewBatch()
	check.IsBufferValid(b.id, &valid)
	if err := check.Execute(); err != nil {
		return err
	}
	if !valid {
		return fmt.Errorf("buffer for %s: %w", b.path, engine.ErrDocumentNotFound)
	}

	content := strings.Join(b.lines, "\n")
	if err := checkRange(from, to, len(content)); err != nil {
		return err
	}
	startRow, startCol, err := offsetToPosition(b.lines, from)
	if err != nil {
		return err
	}
	endRow, endCol, err := offsetToPosition(b.lines, to)
	if err != nil {
		return err
	}

	batch := b.client.NewBatch()
	batch.SetBufferText(b.id, startRow, startCol, endRow, endCol, toBytes(strings.Split(text, "\n")))
	if err := batch.Execute(); err != nil {
		logger.Error("error replacing text in %s: %v", b.path, err)
		return err
	}

	b.lines = strings.Split(content[:from]+text+content[to:], "\n")
	return nil
}

// Save writes the buffer to its file
func (b *NvimBuffer) Save() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	batch := b.client.NewBatch()
	batch.ExecLua(`local buf = ...
vim.api.nvim_buf_call(buf, function() vim.cmd('silent write') end)`, nil, b.id)
	return batch.Execute()
}

func escapePath(p string) string {
	return strings.ReplaceAll(p, " ", `\ `)
}
