package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/SumedhKolte/ReWear-sub000/internal/domain"
)

var (
	recordsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "search_analytics_records_written_total",
		Help: "Total number of analytics records persisted",
	})
	recordsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "search_analytics_records_dropped_total",
		Help: "Total number of analytics records dropped due to a full buffer",
	})
	writeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "search_analytics_write_failures_total",
		Help: "Total number of failed analytics writes",
	})
)

// inserter is the slice of Store the recorder needs.
type inserter interface {
	Insert(ctx context.Context, rec *domain.AnalyticsRecord) error
}

// Recorder accepts analytics records on the response path without ever
// blocking it. Records flow through a bounded channel to a single worker
// goroutine; when the buffer is full, records are dropped. Worker failures
// are counted and logged, never escalated.
type Recorder struct {
	store  inserter
	logger *slog.Logger
	ch     chan domain.AnalyticsRecord

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}

	// mu guards closed so a Record from a request still in flight during
	// shutdown cannot send on the closed channel.
	mu     sync.RWMutex
	closed bool
}

// writeTimeout bounds each individual insert so a slow database cannot
// back up the worker indefinitely.
const writeTimeout = 5 * time.Second

// NewRecorder creates a recorder with the given buffer size.
func NewRecorder(store inserter, bufferSize int, logger *slog.Logger) *Recorder {
	if bufferSize < 1 {
		bufferSize = 1024
	}
	return &Recorder{
		store:  store,
		logger: logger,
		ch:     make(chan domain.AnalyticsRecord, bufferSize),
		done:   make(chan struct{}),
	}
}

// Record enqueues one analytics record. It never blocks: when the buffer
// is full the record is silently dropped (counted in metrics).
func (r *Recorder) Record(rec domain.AnalyticsRecord) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		recordsDropped.Inc()
		return
	}

	select {
	case r.ch <- rec:
	default:
		recordsDropped.Inc()
	}
}

// Start launches the background worker. The worker drains the channel and
// persists records until Stop is called.
func (r *Recorder) Start() {
	r.startOnce.Do(func() {
		go r.run()
	})
}

func (r *Recorder) run() {
	defer close(r.done)

	for rec := range r.ch {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := r.store.Insert(ctx, &rec)
		cancel()

		if err != nil {
			writeFailures.Inc()
			r.logger.Warn("analytics write failed",
				slog.String("query", rec.Query),
				slog.String("error", err.Error()),
			)
			continue
		}
		recordsWritten.Inc()
	}
}

// Stop closes the intake and waits for buffered records to drain, bounded
// by the given timeout. Records still queued past the deadline are lost,
// which the fire-and-forget contract allows.
func (r *Recorder) Stop(timeout time.Duration) {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.ch)
		r.mu.Unlock()

		select {
		case <-r.done:
		case <-time.After(timeout):
			r.logger.Warn("analytics drain timed out, discarding buffered records")
		}
	})
}
