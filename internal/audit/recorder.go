package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yegors/hamsearch/internal/metrics"
	"github.com/yegors/hamsearch/pkg/logger"
)

// Recorder queues entries and writes them to a Sink from a single goroutine.
// Record never blocks: when the queue is full the entry is dropped and counted.
type Recorder struct {
	sink         Sink
	queue        chan Entry
	writeTimeout time.Duration
	metrics      *metrics.Collector
	logger       *logger.Logger
	now          func() time.Time

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewRecorder starts a recorder draining into sink
func NewRecorder(sink Sink, bufferSize int, collector *metrics.Collector, logger *logger.Logger) *Recorder {
	if bufferSize <= 0 {
		bufferSize = 1
	}

	r := &Recorder{
		sink:         sink,
		queue:        make(chan Entry, bufferSize),
		writeTimeout: 5 * time.Second,
		metrics:      collector,
		logger:       logger.Named("audit"),
		now:          time.Now,
	}

	r.wg.Add(1)
	go r.run()

	return r
}

// Record enqueues an entry. ID and Timestamp are filled in when empty.
func (r *Recorder) Record(entry Entry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = r.now()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.drop(entry, "recorder closed")
		return
	}

	select {
	case r.queue <- entry:
	default:
		r.drop(entry, "queue full")
	}
}

func (r *Recorder) drop(entry Entry, reason string) {
	r.metrics.RecordAuditDropped()
	r.logger.Warn("Dropped audit entry",
		logger.String("reason", reason),
		logger.String("user", entry.User),
		logger.String("command", entry.Command))
}

func (r *Recorder) run() {
	defer r.wg.Done()

	for entry := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
		err := r.sink.Write(ctx, entry)
		cancel()

		if err != nil {
			r.metrics.RecordAuditWriteError()
			r.logger.Error("Failed to write audit entry",
				logger.Error(err),
				logger.String("id", entry.ID),
				logger.String("command", entry.Command))
		}
	}
}

// Close flushes queued entries and closes the sink
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	r.wg.Wait()
	return r.sink.Close()
}
