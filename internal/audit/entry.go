package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Entry is one successful command invocation
type Entry struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Command   string    `json:"command"`
	Args      []string  `json:"args"`
	Timestamp time.Time `json:"timestamp"`
}

// Line formats the entry as a single log line
func (e Entry) Line() string {
	return fmt.Sprintf("User: %s, Command: %s, Args: %s, Date and Time: %s",
		e.User, e.Command, strings.Join(e.Args, " "), e.Timestamp.Format("2006-01-02 15:04:05.000000"))
}

// Sink persists audit entries. Implementations must be safe for use by one
// writer goroutine at a time.
type Sink interface {
	Write(ctx context.Context, entry Entry) error
	Close() error
}

// MultiSink writes every entry to all of its sinks
type MultiSink []Sink

// Write implements Sink. All sinks are attempted; errors are joined.
func (m MultiSink) Write(ctx context.Context, entry Entry) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close implements Sink
func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
