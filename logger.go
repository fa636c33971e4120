package nutricoach

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// GenerationLogger records each attempt to generate feedback.
type GenerationLogger interface {
	LogGeneration(entry GenerationLog) error
}

// GenerationLog is one call to the text generator.
type GenerationLog struct {
	RecordID  uint      `json:"record_id"`
	UserID    uint      `json:"user_id"`
	Date      string    `json:"date"`
	Timestamp time.Time `json:"timestamp"`
	Prompt    string    `json:"prompt,omitempty"`
	Output    string    `json:"output,omitempty"`
	Error     string    `json:"error,omitempty"`
	LatencyMs int64     `json:"latency_ms"`
}

// WriterGenerationLogger writes each entry as a JSON line to the underlying writer.
type WriterGenerationLogger struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewWriterGenerationLogger creates a logger that appends JSON lines to writer.
func NewWriterGenerationLogger(writer io.Writer) *WriterGenerationLogger {
	return &WriterGenerationLogger{writer: writer}
}

// NewStdoutGenerationLogger writes entries to os.Stdout (for Lambda/CloudWatch).
func NewStdoutGenerationLogger() *WriterGenerationLogger {
	return NewWriterGenerationLogger(os.Stdout)
}

func (l *WriterGenerationLogger) LogGeneration(entry GenerationLog) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal generation log: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := fmt.Fprintln(l.writer, string(data)); err != nil {
		return fmt.Errorf("failed to write generation log: %w", err)
	}
	return nil
}

// NoOpGenerationLogger discards all entries.
type NoOpGenerationLogger struct{}

func NewNoOpGenerationLogger() *NoOpGenerationLogger {
	return &NoOpGenerationLogger{}
}

func (nop *NoOpGenerationLogger) LogGeneration(entry GenerationLog) error {
	return nil
}

// OpenGenerationLogger resolves a FEEDBACK_LOG_PATH value: empty discards, "-" is
// stdout, anything else is a file opened for append. The returned func closes it.
func OpenGenerationLogger(path string) (GenerationLogger, func() error, error) {
	switch path {
	case "":
		return NewNoOpGenerationLogger(), func() error { return nil }, nil
	case "-":
		return NewStdoutGenerationLogger(), func() error { return nil }, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, func() error { return err }, fmt.Errorf("failed to open generation log: %w", err)
	}
	return NewWriterGenerationLogger(f), f.Close, nil
}
