// Package relay streams button presses to application code, off the
// session's event loop.
package relay

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/quillmoor/discord-paginator/log"
	"github.com/quillmoor/discord-paginator/transport"
)

// Control is the pressed button as seen by a relay handler. The concrete
// type is *button.ReactionButton or *button.ViewButton depending on the
// menu family.
type Control interface {
	Key() string
}

// Payload describes a single button press.
type Payload struct {
	Member transport.User
	Button Control
	Time   time.Time
}

// Handler receives payloads. Handlers run on the dispatcher's workers, so a
// slow handler never stalls the menu that produced the press.
type Handler func(Payload)

// Dispatcher fans presses out to a handler through a fixed worker pool.
type Dispatcher struct {
	handler Handler
	filter  func(Payload) bool
	workers int

	jobs chan Payload
	wg   sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithFilter restricts the relay to presses the predicate allows.
func WithFilter(filter func(Payload) bool) Option {
	return func(d *Dispatcher) { d.filter = filter }
}

// WithWorkers sets the pool size. Values below one are coerced to one.
func WithWorkers(n int) Option {
	return func(d *Dispatcher) {
		if n < 1 {
			n = 1
		}
		d.workers = n
	}
}

// NewDispatcher starts a dispatcher delivering to handler.
func NewDispatcher(handler Handler, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		handler: handler,
		workers: 2,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.jobs = make(chan Payload, 64)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Dispatch queues a press for delivery. Presses the filter rejects, and
// presses arriving after Close, are dropped.
func (d *Dispatcher) Dispatch(p Payload) {
	if d.handler == nil {
		return
	}
	if d.filter != nil && !d.filter(p) {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	select {
	case d.jobs <- p:
	default:
		log.Warn("relay dispatch", errQueueFull)
	}
}

// Close drains the queue and stops the workers. It blocks until in-flight
// handlers return.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()
	d.wg.Wait()
}

var errQueueFull = errors.New("queue full, press dropped")

// recoveredError wraps a recovered panic value for the logger.
type recoveredError struct {
	value any
}

func (e recoveredError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for p := range d.jobs {
		d.deliver(p)
	}
}

// deliver runs the handler with panic containment. A panicking handler is
// an application bug, not a reason to kill the process.
func (d *Dispatcher) deliver(p Payload) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("relay handler panicked", recoveredError{r})
		}
	}()
	d.handler(p)
}
