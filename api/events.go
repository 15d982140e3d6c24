package api

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"taskboard-api/domain"
)

// EventPublisher drains domain events onto the storage queue from a worker
// pool, keeping queue latency out of the request path. Events are advisory
// notifications for downstream consumers; when the buffer saturates past the
// handoff window the event is dropped and logged rather than blocking the
// mutation that produced it.
type EventPublisher struct {
	store          Store
	logger         *log.Logger
	jobs           chan domain.Event
	workerWG       sync.WaitGroup
	enqueueTimeout time.Duration
	handoffTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

// NewEventPublisher starts the worker pool. Worker count, buffer size and
// timeouts come from the environment with sensible defaults.
func NewEventPublisher(store Store, logger *log.Logger) *EventPublisher {
	if logger == nil {
		panic("Logger is not initialized")
	}
	p := &EventPublisher{
		store:          store,
		logger:         logger,
		enqueueTimeout: envDur("EVENT_ENQUEUE_TIMEOUT", 60*time.Second),
		handoffTimeout: envDur("EVENT_HANDOFF_TIMEOUT", 15*time.Millisecond),
	}
	workers := envInt("EVENT_WORKERS", 8)
	buf := envInt("EVENT_BUFFER", 1024)
	p.jobs = make(chan domain.Event, buf)
	for i := 0; i < workers; i++ {
		p.workerWG.Add(1)
		go p.worker()
	}
	logger.Infof("event publisher started, workers: %d, buffer: %d, timeout: %v, handoff: %v", workers, buf, p.enqueueTimeout, p.handoffTimeout)
	return p
}

// Publish hands the event to the pool. It never blocks the caller for longer
// than the handoff window.
func (p *EventPublisher) Publish(ev domain.Event) {
	if ev.Timestamp == 0 {
		ev.Timestamp = nextTimestamp()
	}

	select {
	case p.jobs <- ev:
		return
	default:
	}

	if p.handoffTimeout <= 0 {
		p.drop(ev)
		return
	}

	timer := time.NewTimer(p.handoffTimeout)
	defer timer.Stop()
	select {
	case p.jobs <- ev:
	case <-timer.C:
		p.drop(ev)
	}
}

// Close stops the workers after draining buffered events. Publish must not be
// called after Close.
func (p *EventPublisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.workerWG.Wait()
}

func (p *EventPublisher) worker() {
	defer p.workerWG.Done()
	for ev := range p.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), p.enqueueTimeout)
		err := p.store.EnqueueEvent(ctx, ev)
		cancel()
		if err != nil {
			p.logger.WithFields(log.Fields{"event": ev.Type, "workspace": ev.WorkspaceID}).Errorf("event enqueue failed: %v", err)
		}
	}
}

func (p *EventPublisher) drop(ev domain.Event) {
	p.logger.WithFields(log.Fields{"event": ev.Type, "workspace": ev.WorkspaceID}).Warn("event buffer saturated; dropping event")
}
