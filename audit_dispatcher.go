package courseauth

import (
	"context"
	"sync"
	"sync/atomic"
)

// auditDispatcher decouples Service operations from the audit sink: events
// go into a buffered channel and a single goroutine delivers them. A slow
// sink therefore never stalls an authentication path unless the buffer
// fills with DropIfFull unset.
type auditDispatcher struct {
	sink       AuditSink
	dropIfFull bool

	events  chan AuditEvent
	done    chan struct{}
	deliver sync.WaitGroup

	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

// newAuditDispatcher returns nil when audit is disabled; nil receivers are
// safe on every method.
func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	buffer := cfg.BufferSize
	if buffer <= 0 {
		buffer = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &auditDispatcher{
		sink:       sink,
		dropIfFull: cfg.DropIfFull,
		events:     make(chan AuditEvent, buffer),
		done:       make(chan struct{}),
	}

	d.deliver.Add(1)
	go d.run()

	return d
}

func (d *auditDispatcher) run() {
	defer d.deliver.Done()

	for {
		select {
		case event := <-d.events:
			d.sink.Emit(context.Background(), event)
		case <-d.done:
			d.drain()
			return
		}
	}
}

// drain flushes events still buffered at shutdown so Close never loses an
// accepted event.
func (d *auditDispatcher) drain() {
	for {
		select {
		case event := <-d.events:
			d.sink.Emit(context.Background(), event)
		default:
			return
		}
	}
}

// Emit queues an event for delivery. With DropIfFull it never blocks: a
// full buffer increments the drop counter instead. Without it, Emit waits
// for buffer space, ctx cancellation, or Close.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.dropIfFull {
		select {
		case d.events <- event:
		case <-d.done:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.events <- event:
	case <-ctx.Done():
	case <-d.done:
	}
}

// Close stops accepting events, flushes the buffer, and waits for the
// delivery goroutine to exit. Safe to call more than once.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.deliver.Wait()
	})
}

// Dropped reports how many events were discarded because the buffer was
// full at Emit time.
func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
