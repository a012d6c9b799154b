package audit

import (
	"context"
	"sync"
	"time"

	"github.com/platinummonkey/taskdeck/pkg/observability"
)

// Recorder accepts events without blocking the request path. Events go onto
// a bounded queue; a background writer persists them. When the queue is full
// the event is dropped and counted, never the request failed.
type Recorder struct {
	store   Store
	logger  *observability.Logger
	metrics *observability.Metrics

	queue chan Event
	done  chan struct{}
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool

	drainTimeout time.Duration
	writeTimeout time.Duration
}

// RecorderOptions tunes the recorder. Zero values fall back to defaults.
type RecorderOptions struct {
	QueueSize    int
	DrainTimeout time.Duration
	WriteTimeout time.Duration
}

// NewRecorder starts the background writer and returns the recorder.
func NewRecorder(store Store, logger *observability.Logger, metrics *observability.Metrics, opts RecorderOptions) *Recorder {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1024
	}
	if opts.DrainTimeout <= 0 {
		opts.DrainTimeout = 10 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	r := &Recorder{
		store:        store,
		logger:       logger,
		metrics:      metrics,
		queue:        make(chan Event, opts.QueueSize),
		done:         make(chan struct{}),
		drainTimeout: opts.DrainTimeout,
		writeTimeout: opts.WriteTimeout,
	}
	r.wg.Add(1)
	go r.run()
	return r
}

// Record enqueues an event. It never blocks: if the queue is full or the
// recorder is closed the event is dropped.
func (r *Recorder) Record(event Event) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.drop(event)
		return
	}
	select {
	case r.queue <- event:
		r.mu.Unlock()
		if r.metrics != nil {
			r.metrics.AuditEventsEnqueued.Inc()
			r.metrics.AuditQueueDepth.Set(float64(len(r.queue)))
		}
	default:
		r.mu.Unlock()
		r.drop(event)
	}
}

func (r *Recorder) drop(event Event) {
	if r.metrics != nil {
		r.metrics.AuditEventsDropped.Inc()
	}
	if r.logger != nil {
		r.logger.WithFields(map[string]interface{}{
			"action":     string(event.Action),
			"entityType": event.EntityType,
		}).Warn("audit queue full, dropping event")
	}
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for event := range r.queue {
		r.write(event)
		if r.metrics != nil {
			r.metrics.AuditQueueDepth.Set(float64(len(r.queue)))
		}
	}
}

func (r *Recorder) write(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
	defer cancel()
	if err := r.store.Insert(ctx, event); err != nil {
		if r.metrics != nil {
			r.metrics.AuditEventsDropped.Inc()
		}
		if r.logger != nil {
			r.logger.WithError(err).WithField("action", string(event.Action)).
				Warn("failed to write audit event")
		}
		return
	}
	if r.metrics != nil {
		r.metrics.AuditEventsWritten.Inc()
	}
}

// Close stops intake and drains queued events, giving up after the drain
// timeout.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		return nil
	case <-time.After(r.drainTimeout):
		if r.logger != nil {
			r.logger.Warn("audit recorder drain timed out")
		}
		return context.DeadlineExceeded
	}
}
