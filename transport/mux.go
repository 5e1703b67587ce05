package transport

import (
	"context"
	"sync"
	"time"
)

type waitKind int

const (
	waitActivation waitKind = iota
	waitDeactivation
	waitReply
)

type waiter struct {
	kind   waitKind
	target string // message ID for activations, channel ID for replies
	allowA func(Activation) bool
	allowR func(Reply) bool
	actCh  chan Activation
	repCh  chan Reply
}

// mux fans host events out to the sessions waiting on them. Both the
// discord adapter and the in-memory transport are built on it.
type mux struct {
	mu      sync.Mutex
	nextID  int64
	waiters map[int64]*waiter
}

func newMux() *mux {
	return &mux{waiters: make(map[int64]*waiter)}
}

func (m *mux) add(w *waiter) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.waiters[m.nextID] = w
	return m.nextID
}

func (m *mux) waiterCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.waiters)
}

func (m *mux) remove(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.waiters, id)
}

func (m *mux) deliverActivation(kind waitKind, messageID string, a Activation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.waiters {
		if w.kind != kind || w.target != messageID {
			continue
		}
		if w.allowA != nil && !w.allowA(a) {
			continue
		}
		select {
		case w.actCh <- a:
		default:
		}
	}
}

func (m *mux) deliverReply(channelID string, r Reply) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.waiters {
		if w.kind != waitReply || w.target != channelID {
			continue
		}
		if w.allowR != nil && !w.allowR(r) {
			continue
		}
		select {
		case w.repCh <- r:
		default:
		}
	}
}

func (m *mux) awaitActivation(ctx context.Context, kind waitKind, messageID string, allow func(Activation) bool, timeout time.Duration) (Activation, error) {
	w := &waiter{kind: kind, target: messageID, allowA: allow, actCh: make(chan Activation, 1)}
	id := m.add(w)
	defer m.remove(id)

	var expire <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expire = t.C
	}
	select {
	case a := <-w.actCh:
		return a, nil
	case <-expire:
		return Activation{}, ErrTimeout
	case <-ctx.Done():
		return Activation{}, ctx.Err()
	}
}

func (m *mux) awaitReply(ctx context.Context, channelID string, allow func(Reply) bool, timeout time.Duration) (Reply, error) {
	w := &waiter{kind: waitReply, target: channelID, allowR: allow, repCh: make(chan Reply, 1)}
	id := m.add(w)
	defer m.remove(id)

	var expire <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expire = t.C
	}
	select {
	case r := <-w.repCh:
		return r, nil
	case <-expire:
		return Reply{}, ErrTimeout
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}
}
