package transport

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Memory is an in-process Transport with no host behind it. Tests drive it
// by injecting presses and replies; callers can inspect every message it
// has sent, edited or deleted.
type Memory struct {
	mux *mux

	mu      sync.Mutex
	nextID  int
	order   []string
	entries map[string]*memoryMessage
}

type memoryMessage struct {
	msg       Message
	content   Content
	reactions []string
	edits     int
	deleted   bool
}

// NewMemory creates an empty in-memory transport.
func NewMemory() *Memory {
	return &Memory{mux: newMux(), entries: make(map[string]*memoryMessage)}
}

// Press injects a control activation on the message.
func (m *Memory) Press(messageID, key string, user User) {
	m.mux.deliverActivation(waitActivation, messageID, Activation{Key: key, User: user})
}

// Unpress injects a control deactivation on the message.
func (m *Memory) Unpress(messageID, key string, user User) {
	m.mux.deliverActivation(waitDeactivation, messageID, Activation{Key: key, User: user})
}

// PostReply injects a user message into the channel.
func (m *Memory) PostReply(channelID string, user User, content string) {
	m.mu.Lock()
	m.nextID++
	id := fmt.Sprintf("reply-%d", m.nextID)
	m.mu.Unlock()
	m.mux.deliverReply(channelID, Reply{
		Message: Message{ID: id, ChannelID: channelID},
		User:    user,
		Content: content,
	})
}

// PendingWaits returns how many Await calls are currently blocked on this
// transport. Tests use it to know a session loop is ready for the next
// injected event.
func (m *Memory) PendingWaits() int {
	return m.mux.waiterCount()
}

// SentMessages returns the IDs of every message sent, in order.
func (m *Memory) SentMessages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}

// LastContent returns the current content of a message.
func (m *Memory) LastContent(messageID string) (Content, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[messageID]
	if !ok {
		return Content{}, false
	}
	return e.content, true
}

// EditCount returns how many times the message has been edited.
func (m *Memory) EditCount(messageID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[messageID]; ok {
		return e.edits
	}
	return 0
}

// Deleted reports whether the message has been deleted.
func (m *Memory) Deleted(messageID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[messageID]; ok {
		return e.deleted
	}
	return false
}

// Reactions returns the reactions currently attached to the message.
func (m *Memory) Reactions(messageID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[messageID]; ok {
		return append([]string(nil), e.reactions...)
	}
	return nil
}

// Send records a new message.
func (m *Memory) Send(ctx context.Context, channelID string, c Content) (*Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	msg := Message{ID: fmt.Sprintf("msg-%d", m.nextID), ChannelID: channelID}
	m.entries[msg.ID] = &memoryMessage{msg: msg, content: c}
	m.order = append(m.order, msg.ID)
	return &msg, nil
}

// Edit rewrites a recorded message.
func (m *Memory) Edit(ctx context.Context, msg *Message, c Content) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[msg.ID]
	if !ok || e.deleted {
		return fmt.Errorf("memory transport: edit of unknown message %s", msg.ID)
	}
	if c.Embed != nil {
		e.content.Embed = c.Embed
		e.content.Text = ""
	} else if c.Text != "" {
		e.content.Text = c.Text
		e.content.Embed = nil
	}
	if c.Components != nil {
		e.content.Components = c.Components
	}
	e.edits++
	return nil
}

// Delete marks a recorded message deleted.
func (m *Memory) Delete(ctx context.Context, msg *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[msg.ID]
	if !ok {
		return fmt.Errorf("memory transport: delete of unknown message %s", msg.ID)
	}
	e.deleted = true
	return nil
}

// React attaches a reaction.
func (m *Memory) React(ctx context.Context, msg *Message, emoji string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[msg.ID]; ok {
		e.reactions = append(e.reactions, emoji)
	}
	return nil
}

// RemoveUserReaction is a no-op beyond validation; the memory transport
// does not track per-user presses.
func (m *Memory) RemoveUserReaction(ctx context.Context, msg *Message, emoji, userID string) error {
	return nil
}

// RemoveReactionEmoji detaches one reaction.
func (m *Memory) RemoveReactionEmoji(ctx context.Context, msg *Message, emoji string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[msg.ID]
	if !ok {
		return nil
	}
	for i, r := range e.reactions {
		if r == emoji {
			e.reactions = append(e.reactions[:i], e.reactions[i+1:]...)
			break
		}
	}
	return nil
}

// ClearReactions detaches every reaction.
func (m *Memory) ClearReactions(ctx context.Context, msg *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[msg.ID]; ok {
		e.reactions = nil
	}
	return nil
}

// AwaitActivation blocks until an injected press matches.
func (m *Memory) AwaitActivation(ctx context.Context, msg *Message, allow func(Activation) bool, timeout time.Duration) (Activation, error) {
	return m.mux.awaitActivation(ctx, waitActivation, msg.ID, allow, timeout)
}

// AwaitDeactivation blocks until an injected un-press matches.
func (m *Memory) AwaitDeactivation(ctx context.Context, msg *Message, allow func(Activation) bool, timeout time.Duration) (Activation, error) {
	return m.mux.awaitActivation(ctx, waitDeactivation, msg.ID, allow, timeout)
}

// AwaitReply blocks until an injected reply matches.
func (m *Memory) AwaitReply(ctx context.Context, channelID string, allow func(Reply) bool, timeout time.Duration) (Reply, error) {
	return m.mux.awaitReply(ctx, channelID, allow, timeout)
}
