// Package audit records mutating actions off the request path. Record never
// blocks and never fails: entries are queued and written by background
// workers, and a write failure is logged and counted but not retried.
package audit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/metrics"
)

// Sink persists or forwards an audit entry. domain.AuditRepository is a Sink.
type Sink interface {
	Record(ctx context.Context, entry *domain.AuditEntry) error
}

// Recorder is what request handling code depends on.
type Recorder interface {
	Record(ctx context.Context, entry domain.AuditEntry)
}

type Config struct {
	QueueSize    int
	Workers      int
	WriteTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.QueueSize <= 0 {
		c.QueueSize = 1024
	}
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Second
	}
	return c
}

type Trail struct {
	cfg     Config
	sinks   []Sink
	metrics *metrics.Metrics

	mu     sync.RWMutex
	closed bool
	queue  chan domain.AuditEntry
	wg     sync.WaitGroup
}

// New starts the worker pool. Close must be called to drain it.
func New(cfg Config, m *metrics.Metrics, sinks ...Sink) *Trail {
	cfg = cfg.withDefaults()
	t := &Trail{
		cfg:     cfg,
		sinks:   sinks,
		metrics: m,
		queue:   make(chan domain.AuditEntry, cfg.QueueSize),
	}
	for range cfg.Workers {
		t.wg.Add(1)
		go t.worker()
	}
	return t
}

// Record queues entry. It fills ID, CreatedAt and the client IP carried by ctx
// when they are unset. A full or closed queue drops the entry.
func (t *Trail) Record(ctx context.Context, entry domain.AuditEntry) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.IPAddress == "" {
		entry.IPAddress = ClientIP(ctx)
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		t.drop(entry, "closed")
		return
	}

	select {
	case t.queue <- entry:
	default:
		t.drop(entry, "queue full")
	}
}

func (t *Trail) drop(entry domain.AuditEntry, reason string) {
	t.metrics.AuditDropped()
	log.Warn().
		Str("action", entry.Action).
		Str("entity_type", entry.EntityType).
		Str("entity_id", entry.EntityID).
		Str("reason", reason).
		Msg("audit: entry dropped")
}

func (t *Trail) worker() {
	defer t.wg.Done()
	for entry := range t.queue {
		t.write(entry)
	}
}

func (t *Trail) write(entry domain.AuditEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), t.cfg.WriteTimeout)
	defer cancel()

	var errs []error
	for _, s := range t.sinks {
		if err := s.Record(ctx, &entry); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		t.metrics.AuditFailed()
		log.Error().Err(err).
			Str("action", entry.Action).
			Str("entity_id", entry.EntityID).
			Msg("audit: write failed")
		return
	}
	t.metrics.AuditRecorded()
}

// Close stops accepting entries and waits for queued ones to be written or
// for ctx to end.
func (t *Trail) Close(ctx context.Context) error {
	t.mu.Lock()
	if !t.closed {
		t.closed = true
		close(t.queue)
	}
	t.mu.Unlock()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Discard is a Recorder that drops everything.
var Discard Recorder = discard{}

type discard struct{}

func (discard) Record(context.Context, domain.AuditEntry) {}
