// Package recorder keeps a rotating JSONL trace of each dashboard analysis,
// plus screenshot artifacts, for debugging runs after the fact.
package recorder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

const (
	MaxRotatedFiles = 3
	TraceDir        = "data/traces"
)

// Event is a single record in an analysis trace.
type Event struct {
	Timestamp time.Time   `json:"ts"`
	Type      string      `json:"type"`
	RunID     string      `json:"run_id,omitempty"`
	Data      interface{} `json:"data"`
}

// Recorder manages rotating per-run trace files.
type Recorder struct {
	mu       sync.Mutex
	file     *os.File
	encoder  *json.Encoder
	basePath string
}

// NewRecorder creates a recorder rooted at basePath, creating the directory
// when needed.
func NewRecorder(basePath string) (*Recorder, error) {
	if basePath == "" {
		basePath = TraceDir
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, err
	}
	return &Recorder{basePath: basePath}, nil
}

// Start begins the trace for one analysis run, rotating old traces so only
// the last few survive.
func (r *Recorder) Start(runID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file != nil {
		_ = r.file.Close()
		r.file = nil
	}

	if err := r.rotate(); err != nil {
		return fmt.Errorf("rotate traces: %w", err)
	}

	filename := fmt.Sprintf("analysis_%s_%d.jsonl", runID, time.Now().UnixMilli())
	f, err := os.Create(filepath.Join(r.basePath, filename))
	if err != nil {
		return err
	}

	r.file = f
	r.encoder = json.NewEncoder(f)
	return nil
}

// Log writes one event to the current trace. A recorder with no open trace
// drops events silently so callers never need to guard.
func (r *Recorder) Log(eventType, runID string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.encoder == nil {
		return
	}
	_ = r.encoder.Encode(Event{
		Timestamp: time.Now(),
		Type:      eventType,
		RunID:     runID,
		Data:      data,
	})
}

// SaveScreenshot writes PNG bytes alongside the traces and returns the path.
func (r *Recorder) SaveScreenshot(runID string, png []byte) (string, error) {
	name := fmt.Sprintf("screenshot_%s_%d.png", runID, time.Now().UnixMilli())
	path := filepath.Join(r.basePath, name)
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", fmt.Errorf("save screenshot: %w", err)
	}
	return path, nil
}

// rotate keeps only the newest MaxRotatedFiles traces.
func (r *Recorder) rotate() error {
	entries, err := os.ReadDir(r.basePath)
	if err != nil {
		return err
	}

	var traces []struct {
		Name string
		Time time.Time
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".jsonl" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		traces = append(traces, struct {
			Name string
			Time time.Time
		}{e.Name(), info.ModTime()})
	}

	sort.Slice(traces, func(i, j int) bool {
		return traces[i].Time.After(traces[j].Time)
	})

	if len(traces) >= MaxRotatedFiles {
		keep := MaxRotatedFiles - 1
		for i := keep; i < len(traces); i++ {
			_ = os.Remove(filepath.Join(r.basePath, traces[i].Name))
		}
	}
	return nil
}

// Close finishes the current trace.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		r.encoder = nil
		return err
	}
	return nil
}
