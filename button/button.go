// Package button defines the interactive controls a menu session can carry:
// reaction buttons keyed by emoji and component view buttons keyed by a
// custom ID. Both families share click statistics, an optional click-count
// event policy, and an optional skip policy.
package button

import (
	"fmt"
	"sync"
	"time"
)

// Action is the closed set of behaviors a button can be linked to.
type Action int

const (
	ActionNextPage Action = iota
	ActionPreviousPage
	ActionFirstPage
	ActionLastPage
	ActionGoToPage
	ActionEndSession
	ActionSkip
	ActionCaller
	ActionSendMessage
	ActionCustomEmbed
	ActionLink
)

func (a Action) String() string {
	switch a {
	case ActionNextPage:
		return "next page"
	case ActionPreviousPage:
		return "previous page"
	case ActionFirstPage:
		return "first page"
	case ActionLastPage:
		return "last page"
	case ActionGoToPage:
		return "go to page"
	case ActionEndSession:
		return "end session"
	case ActionSkip:
		return "skip"
	case ActionCaller:
		return "caller"
	case ActionSendMessage:
		return "send message"
	case ActionCustomEmbed:
		return "custom embed"
	case ActionLink:
		return "link"
	}
	return fmt.Sprintf("unknown action %d", int(a))
}

// Default directional emojis for reaction buttons.
const (
	EmojiBack       = "◀️"
	EmojiNext       = "▶️"
	EmojiFirstPage  = "⏪"
	EmojiLastPage   = "⏩"
	EmojiGoToPage   = "🔢"
	EmojiEndSession = "⏹️"
)

// Stats tracks who pressed a button and how often. The owning session's
// dispatch step is the only writer; counts only ever increase.
type Stats struct {
	mu          sync.Mutex
	clickedBy   map[string]string
	totalClicks int
	lastClicked time.Time
}

// RecordClick adds one press by the given user.
func (s *Stats) RecordClick(userID, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clickedBy == nil {
		s.clickedBy = make(map[string]string)
	}
	s.clickedBy[userID] = username
	s.totalClicks++
	s.lastClicked = time.Now().UTC()
}

// TotalClicks returns how many times the button has been pressed.
func (s *Stats) TotalClicks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalClicks
}

// ClickedBy returns the IDs of the users who have pressed the button.
func (s *Stats) ClickedBy() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.clickedBy))
	for id := range s.clickedBy {
		ids = append(ids, id)
	}
	return ids
}

// LastClicked returns the UTC time of the most recent press. ok is false if
// the button has never been pressed.
func (s *Stats) LastClicked() (t time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastClicked, !s.lastClicked.IsZero()
}

// EventKind selects what happens to a button once its click threshold is
// reached.
type EventKind int

const (
	// EventDisable leaves the button visible but inert.
	EventDisable EventKind = iota
	// EventRemove takes the button off the menu entirely.
	EventRemove
)

// Event disables or removes a button after it has been pressed a set number
// of times.
type Event struct {
	Kind      EventKind
	Threshold int
}

// NewEvent builds an event policy. A threshold below one is coerced to one.
func NewEvent(kind EventKind, threshold int) *Event {
	if threshold < 1 {
		threshold = 1
	}
	return &Event{Kind: kind, Threshold: threshold}
}

// Skip moves the page index several steps per press instead of one.
type Skip struct {
	Forward bool
	Amount  int
}

// NewSkip builds a skip policy. A non-positive amount is coerced to one.
func NewSkip(forward bool, amount int) *Skip {
	if amount < 1 {
		amount = 1
	}
	return &Skip{Forward: forward, Amount: amount}
}
