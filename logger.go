package mealresolver

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ResolutionLogger is the interface for per-request run logging.
type ResolutionLogger interface {
	LogRun(run RunLog) error
}

// NewRunLogFilePath returns a file path based on a cleaned up model name or id to make it easier to identify logs produced with various models.
func NewRunLogFilePath(model string) string {
	return fmt.Sprintf(
		"./logs/%d.%s.json",
		time.Now().Unix(),
		strings.NewReplacer(":", "_", "/", "_").Replace(strings.ToLower(model)),
	)
}

// RunLog represents a single meal resolution
type RunLog struct {
	RequestID  string      `json:"request_id"`
	Timestamp  time.Time   `json:"timestamp"`
	Query      string      `json:"query"`
	LLMOutput  string      `json:"llm_output,omitempty"`
	Degraded   bool        `json:"extraction_degraded,omitempty"`
	Extracted  int         `json:"items_extracted"`
	Dropped    int         `json:"items_dropped"`
	Lookups    []LookupLog `json:"lookups,omitempty"`
	Fallback   bool        `json:"fallback,omitempty"`
	DurationMs int64       `json:"duration_ms"`
	Error      string      `json:"error,omitempty"`
}

// LookupLog represents one nutrient database lookup within a run
type LookupLog struct {
	Index      int    `json:"index"`
	Name       string `json:"name"`
	Matched    string `json:"matched,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// FileResolutionLogger accumulates runs and writes them to the writer on Flush
type FileResolutionLogger struct {
	mu     sync.Mutex
	runs   []RunLog
	writer io.Writer
}

func NewFileResolutionLogger(writer io.Writer) *FileResolutionLogger {
	return &FileResolutionLogger{
		runs:   make([]RunLog, 0),
		writer: writer,
	}
}

// LogRun buffers a run (does not flush immediately)
func (l *FileResolutionLogger) LogRun(run RunLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runs = append(l.runs, run)
	return nil
}

// Flush writes all accumulated runs to the writer
func (l *FileResolutionLogger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.writer == nil {
		return nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"resolution_session": map[string]any{
			"timestamp": time.Now(),
			"runs":      l.runs,
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run log: %w", err)
	}

	if _, err := l.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write run log: %w", err)
	}

	l.runs = l.runs[:0]
	return nil
}

// NoOpResolutionLogger discards all runs
type NoOpResolutionLogger struct{}

func NewNoOpResolutionLogger() *NoOpResolutionLogger {
	return &NoOpResolutionLogger{}
}

func (nop *NoOpResolutionLogger) LogRun(run RunLog) error {
	return nil
}

// StdoutResolutionLogger logs each run as a JSON line (for Lambda/CloudWatch)
type StdoutResolutionLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func NewStdoutResolutionLogger() *StdoutResolutionLogger {
	return &StdoutResolutionLogger{w: os.Stdout}
}

func (l *StdoutResolutionLogger) LogRun(run RunLog) error {
	data, err := json.Marshal(run)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err = fmt.Fprintln(l.w, string(data))
	return err
}
