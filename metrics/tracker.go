package metrics

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"blockmerge/logger"
	"blockmerge/reconcile"

	"github.com/google/uuid"
)

const EventFinalized = "review_session_finalized"

// SessionMetrics describes one finalized review session
type SessionMetrics struct {
	SessionID string
	Segments  int
	Default   string
	Summary   reconcile.Summary
	StartedAt time.Time
	Applied   bool
}

type MetricsRequest struct {
	EventType    string `json:"event_type"`
	SessionID    string `json:"session_id"`
	DeviceID     string `json:"device_id"`
	Segments     int    `json:"segments"`
	Modified     int    `json:"modified"`
	Incoming     int    `json:"incoming"`
	Current      int    `json:"current"`
	Both         int    `json:"both"`
	Defaulted    int    `json:"defaulted"`
	Default      string `json:"default_decision"`
	LinesAdded   int    `json:"lines_added"`
	LinesRemoved int    `json:"lines_removed"`
	Lifespan     int64  `json:"lifespan"`
	Applied      bool   `json:"applied"`
}

type MetricsTracker struct {
	url        string
	deviceID   string
	httpClient *http.Client
	pending    sync.WaitGroup
}

// NewTracker creates a tracker. An empty url only logs.
func NewTracker(url, dataDir string) *MetricsTracker {
	return &MetricsTracker{
		url:        url,
		deviceID:   loadOrCreateDeviceID(dataDir),
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func (t *MetricsTracker) DeviceID() string {
	return t.deviceID
}

// TrackFinalize logs the session summary and reports it when a url is set
func (t *MetricsTracker) TrackFinalize(m SessionMetrics) {
	s := m.Summary
	req := &MetricsRequest{
		EventType:    EventFinalized,
		SessionID:    m.SessionID,
		DeviceID:     t.deviceID,
		Segments:     m.Segments,
		Modified:     s.Modified,
		Incoming:     s.Incoming,
		Current:      s.Current,
		Both:         s.Both,
		Defaulted:    s.Defaulted,
		Default:      m.Default,
		LinesAdded:   s.LinesAdded,
		LinesRemoved: s.LinesRemoved,
		Lifespan:     time.Since(m.StartedAt).Milliseconds(),
		Applied:      m.Applied,
	}
	logger.Info("metrics: session %s finalized: segments=%d modified=%d incoming=%d current=%d both=%d defaulted=%d (+%d -%d)",
		req.SessionID, req.Segments, req.Modified, req.Incoming, req.Current, req.Both, req.Defaulted, req.LinesAdded, req.LinesRemoved)

	if t.url == "" {
		return
	}
	t.sendRequest(req)
}

// Wait blocks until every in-flight report has finished
func (t *MetricsTracker) Wait() {
	t.pending.Wait()
}

func (t *MetricsTracker) sendRequest(req *MetricsRequest) {
	t.pending.Add(1)
	go func() {
		defer t.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		body, err := json.Marshal(req)
		if err != nil {
			logger.Debug("metrics: marshal error: %v", err)
			return
		}

		httpReq, err := http.NewRequestWithContext(ctx, "POST", t.url, bytes.NewReader(body))
		if err != nil {
			logger.Debug("metrics: create request error: %v", err)
			return
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := t.httpClient.Do(httpReq)
		if err != nil {
			logger.Debug("metrics: send error: %v", err)
			return
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		if resp.StatusCode >= 400 {
			logger.Debug("metrics: server returned %d for %s", resp.StatusCode, req.EventType)
		} else {
			logger.Debug("metrics: sent %s (session=%s)", req.EventType, req.SessionID)
		}
	}()
}

func loadOrCreateDeviceID(dataDir string) string {
	if dataDir == "" {
		return uuid.NewString()
	}

	idPath := filepath.Join(dataDir, "device_id")
	if data, err := os.ReadFile(idPath); err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id
		}
	}

	id := uuid.NewString()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		logger.Warn("metrics: could not create data dir %s: %v", dataDir, err)
		return id
	}
	if err := os.WriteFile(idPath, []byte(id), 0o644); err != nil {
		logger.Warn("metrics: could not write device_id: %v", err)
	}
	return id
}
