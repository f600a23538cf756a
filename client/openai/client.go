package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"blockmerge/logger"
	"blockmerge/types"

	"github.com/andybalholm/brotli"
)

// Message is one chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest matches the OpenAI Chat Completions request format
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream"`
}

// ChatResponse matches the non-streaming Chat Completions response
type ChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int     `json:"index"`
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// StreamChunk is a single SSE payload of a streaming response
type StreamChunk struct {
	ID      string `json:"id"`
	Choices []struct {
		Index int `json:"index"`
		Delta struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *APIError `json:"error,omitempty"`
}

// APIError is the error object some servers send inside the stream
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return e.Type + ": " + e.Message
	}
	return e.Message
}

// Client is a reusable OpenAI-compatible chat client
type Client struct {
	HTTPClient *http.Client
	URL        string
	APIKey     string
	Compress   bool
}

// NewClient creates a client from the stream configuration.
// A zero TimeoutMillis leaves the HTTP client without a timeout.
func NewClient(cfg types.StreamConfig) *Client {
	timeout := time.Duration(0)
	if cfg.TimeoutMillis > 0 {
		timeout = time.Duration(cfg.TimeoutMillis) * time.Millisecond
	}
	return &Client{
		HTTPClient: &http.Client{Timeout: timeout},
		URL:        strings.TrimSuffix(cfg.URL, "/"),
		APIKey:     cfg.APIKey,
		Compress:   cfg.CompressRequests,
	}
}

func (c *Client) endpoint() string {
	return c.URL + "/v1/chat/completions"
}

// Complete sends a non-streaming chat request
func (c *Client) Complete(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	defer logger.Trace("openai.Complete")()
	req.Stream = false

	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(responseReader(resp))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	var out ChatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}

// Text returns the content of the first choice
func (r *ChatResponse) Text() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// StreamChat starts a streaming chat request. Chunks of
// choices[0].delta.content arrive on ChunksChan in order; the channel closes
// on "data: [DONE]", EOF, an error or Cancel. Err reports what went wrong.
func (c *Client) StreamChat(ctx context.Context, req *ChatRequest) *Stream {
	req.Stream = true
	ctx, cancel := context.WithCancel(ctx)
	s := &Stream{
		chunks: make(chan string, 64),
		cancel: cancel,
	}
	go s.run(ctx, c, req)
	return s
}

// Stream is a running chat completion stream
type Stream struct {
	chunks chan string
	cancel context.CancelFunc

	mu           sync.Mutex
	err          error
	finishReason string
}

// ChunksChan returns the channel of content chunks
func (s *Stream) ChunksChan() <-chan string {
	return s.chunks
}

// Err returns the stream error once ChunksChan is closed. A cancelled stream
// reports nil.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// FinishReason returns the last finish_reason the server sent
func (s *Stream) FinishReason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finishReason
}

// Cancel aborts the request
func (s *Stream) Cancel() {
	s.cancel()
}

func (s *Stream) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *Stream) run(ctx context.Context, c *Client, req *ChatRequest) {
	defer close(s.chunks)
	defer s.cancel()
	defer logger.Trace("openai.StreamChat")()

	resp, err := c.send(ctx, req)
	if err != nil {
		if ctx.Err() == nil {
			s.setErr(err)
		}
		return
	}
	defer resp.Body.Close()

	err = s.read(ctx, responseReader(resp))
	if err != nil && ctx.Err() == nil {
		logger.Debug("openai stream: %v", err)
		s.setErr(err)
	}
}

// read parses SSE lines until [DONE] or EOF
func (s *Stream) read(ctx context.Context, body io.Reader) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		// Skip empty lines, comments and non-data fields
		if line == "" || strings.HasPrefix(line, ":") || !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			return nil
		}

		var chunk StreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			logger.Debug("openai stream: failed to parse chunk: %v", err)
			continue
		}
		if chunk.Error != nil {
			return chunk.Error
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if reason := chunk.Choices[0].FinishReason; reason != "" {
			s.mu.Lock()
			s.finishReason = reason
			s.mu.Unlock()
		}
		content := chunk.Choices[0].Delta.Content
		if content == "" {
			continue
		}
		select {
		case s.chunks <- content:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}

// send marshals and posts the request, returning the response when the
// status is 200
func (c *Client) send(ctx context.Context, req *ChatRequest) (*http.Response, error) {
	// Marshal the request without HTML escaping
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(req); err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	body := io.Reader(&buf)
	if c.Compress {
		compressed, err := compress(buf.Bytes())
		if err != nil {
			return nil, err
		}
		body = compressed
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.endpoint(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept-Encoding", "br")
	if req.Stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}
	if c.Compress {
		httpReq.Header.Set("Content-Encoding", "br")
	}
	if c.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(responseReader(resp))
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return resp, nil
}

// compress brotli-encodes the request body (quality 1 for speed)
func compress(data []byte) (*bytes.Buffer, error) {
	var out bytes.Buffer
	w := brotli.NewWriterLevel(&out, 1)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("failed to compress request: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close brotli writer: %w", err)
	}
	return &out, nil
}

func responseReader(resp *http.Response) io.Reader {
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "br") {
		return brotli.NewReader(resp.Body)
	}
	return resp.Body
}
