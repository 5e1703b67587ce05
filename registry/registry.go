// Package registry tracks every running menu session in the process and
// enforces the optional session limit.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Session is the view of a running menu the registry needs. Both menu
// families implement it.
type Session interface {
	MenuName() string
	OwnerID() string
	ChannelID() string
	GuildID() string
	MessageID() string
	InDMs() bool
	IsRunning() bool
	Stop(ctx context.Context) error
}

// Scope selects how concurrent sessions are counted against the limit.
// Sessions started in a direct message are always counted per owner,
// whatever the scope.
type Scope int

const (
	ScopeGuild Scope = iota
	ScopeChannel
	ScopeMember
)

func (s Scope) String() string {
	switch s {
	case ScopeGuild:
		return "guild"
	case ScopeChannel:
		return "channel"
	case ScopeMember:
		return "member"
	}
	return fmt.Sprintf("unknown scope %d", int(s))
}

// Limit caps how many sessions may run at once within a scope. Message, if
// set, is sent to the channel when a start is rejected.
type Limit struct {
	Max     int
	Scope   Scope
	Message string
}

// LimitError reports a session start rejected by the configured limit.
type LimitError struct {
	Limit Limit
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("session limit reached: at most %d per %s", e.Limit.Max, e.Limit.Scope)
}

// ErrSessionNotFound is returned by StopByName when no running session
// carries the given name.
var ErrSessionNotFound = errors.New("no active session with that name")

// Registry is the process-wide table of running sessions. The zero value is
// not usable; call New.
type Registry struct {
	mu       sync.Mutex
	sessions []Session
	limit    *Limit
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{}
}

var std = New()

// Default returns the process-wide registry menus use unless another one is
// injected.
func Default() *Registry {
	return std
}

// SetLimit installs an admission limit. It can only be set while no
// sessions are running, and Max must be at least one.
func (r *Registry) SetLimit(l Limit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sessions) != 0 {
		return errors.New("the session limit cannot be changed while sessions are active")
	}
	if l.Max < 1 {
		return errors.New("the session limit must be at least one")
	}
	switch l.Scope {
	case ScopeGuild, ScopeChannel, ScopeMember:
	default:
		return fmt.Errorf("session limit scope %d not recognized", int(l.Scope))
	}
	r.limit = &l
	return nil
}

// RemoveLimit clears the admission limit.
func (r *Registry) RemoveLimit() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limit = nil
}

// Admit checks the candidate against the limit and, if allowed, registers
// it. Check and append happen under one lock so concurrent starts cannot
// both slip under the limit within this process.
func (r *Registry) Admit(s Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.limit != nil && r.peerCount(s) >= r.limit.Max {
		return &LimitError{Limit: *r.limit}
	}
	r.sessions = append(r.sessions, s)
	return nil
}

// peerCount counts the running sessions that share the candidate's
// limiting scope. Callers hold r.mu.
func (r *Registry) peerCount(s Session) int {
	n := 0
	for _, peer := range r.sessions {
		if s.InDMs() {
			if peer.InDMs() && peer.OwnerID() == s.OwnerID() {
				n++
			}
			continue
		}
		switch r.limit.Scope {
		case ScopeGuild:
			if !peer.InDMs() && peer.GuildID() == s.GuildID() {
				n++
			}
		case ScopeChannel:
			if peer.ChannelID() == s.ChannelID() {
				n++
			}
		case ScopeMember:
			if peer.OwnerID() == s.OwnerID() {
				n++
			}
		}
	}
	return n
}

// Remove deregisters a session. Removing a session that is not registered
// is a no-op.
func (r *Registry) Remove(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.sessions {
		if existing == s {
			r.sessions = append(r.sessions[:i], r.sessions[i+1:]...)
			return
		}
	}
}

// Count returns the number of running sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// All returns every running session in registration order.
func (r *Registry) All() []Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Session(nil), r.sessions...)
}

// FromMessage returns the session bound to the message, or nil.
func (r *Registry) FromMessage(messageID string) Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.MessageID() == messageID {
			return s
		}
	}
	return nil
}

// ByName returns every running session with the given name in registration
// order.
func (r *Registry) ByName(name string) []Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Session
	for _, s := range r.sessions {
		if s.MenuName() == name {
			out = append(out, s)
		}
	}
	return out
}

// DMSessions returns every running session started in a direct message.
func (r *Registry) DMSessions() []Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Session
	for _, s := range r.sessions {
		if s.InDMs() {
			out = append(out, s)
		}
	}
	return out
}

// StopByName stops the most recently started session with the given name,
// or every match when includeAll is set. Matches are stopped sequentially.
func (r *Registry) StopByName(ctx context.Context, name string, includeAll bool) error {
	matched := r.ByName(name)
	if len(matched) == 0 {
		return fmt.Errorf("%w: %q", ErrSessionNotFound, name)
	}
	if !includeAll {
		return matched[len(matched)-1].Stop(ctx)
	}
	for _, s := range matched {
		if err := s.Stop(ctx); err != nil {
			return err
		}
	}
	return nil
}

// StopAll stops every running session.
func (r *Registry) StopAll(ctx context.Context) error {
	for {
		r.mu.Lock()
		if len(r.sessions) == 0 {
			r.mu.Unlock()
			return nil
		}
		s := r.sessions[0]
		r.mu.Unlock()
		if err := s.Stop(ctx); err != nil {
			return err
		}
		// Stop deregisters the session; guard against one that does not.
		r.Remove(s)
	}
}
