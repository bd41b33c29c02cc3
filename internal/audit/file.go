package audit

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// FileSink appends one line per entry to a text file
type FileSink struct {
	mu   sync.Mutex
	file *os.File
}

// NewFileSink opens path for appending, creating it if needed
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit file: %w", err)
	}
	return &FileSink{file: f}, nil
}

// Write implements Sink
func (s *FileSink) Write(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.WriteString(entry.Line() + "\n"); err != nil {
		return fmt.Errorf("failed to write audit line: %w", err)
	}
	return nil
}

// Close implements Sink
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
