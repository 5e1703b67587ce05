// Package menu implements the pagination sessions: reaction menus driven by
// emoji presses and view menus driven by message components. A menu is
// configured, loaded with pages and buttons, then started; from that point a
// dedicated goroutine owns the session until it is stopped or times out.
package menu

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/quillmoor/discord-paginator/button"
	"github.com/quillmoor/discord-paginator/pages"
	"github.com/quillmoor/discord-paginator/transport"
)

// Type selects what kind of content a menu paginates.
type Type int

const (
	// TypeEmbed paginates a fixed sequence of embed pages.
	TypeEmbed Type = iota
	// TypeEmbedDynamic paginates embed pages built from text rows at start.
	TypeEmbedDynamic
	// TypeText paginates plain text pages.
	TypeText
)

func (t Type) String() string {
	switch t {
	case TypeEmbed:
		return "embed"
	case TypeEmbedDynamic:
		return "dynamic embed"
	case TypeText:
		return "text"
	}
	return fmt.Sprintf("unknown menu type %d", int(t))
}

// Speed is the pacing mode of a reaction menu's event loop.
type Speed int

const (
	// NormalSpeed removes the user's reaction after each press, so the
	// user waits for the removal before pressing again.
	NormalSpeed Speed = iota
	// FastSpeed treats reaction removal as a press of its own and never
	// removes reactions itself.
	FastSpeed
)

// DefaultTimeout applies when a menu's Timeout field is left zero.
const DefaultTimeout = 60 * time.Second

// NoTimeout disables the session timeout entirely.
const NoTimeout = time.Duration(-1)

// fastEpsilon keeps the deactivation branch of a fast-mode race alive
// strictly longer than the activation branch, so a session timeout always
// resolves on the activation side.
const fastEpsilon = 250 * time.Millisecond

// cleanupTimeout bounds the host calls a session makes while tearing down.
const cleanupTimeout = 10 * time.Second

var (
	// ErrMenuAlreadyRunning is returned by Start and by configuration
	// mutators while the session is running.
	ErrMenuAlreadyRunning = errors.New("the menu is already running")

	// ErrSessionNotActive is returned when operating on a menu that has
	// been stopped. A stopped menu cannot be restarted.
	ErrSessionNotActive = errors.New("the session is not active")

	// ErrNoButtons is returned by Start when no buttons are registered and
	// the menu is not auto-paginating.
	ErrNoButtons = errors.New("no buttons have been added")

	// ErrNoTurnInterval is returned by Start when auto-pagination is
	// requested without a turn interval.
	ErrNoTurnInterval = errors.New("auto-pagination requires a turn interval")
)

// ErrPageKindMismatch reports a page whose content kind does not match the
// menu's configured type.
type ErrPageKindMismatch struct {
	Menu Type
}

func (e *ErrPageKindMismatch) Error() string {
	return fmt.Sprintf("page content does not match a %s menu", e.Menu)
}

// StopOptions selects what happens to the menu message when a session is
// stopped. When several are set, delete wins over disable, and disable wins
// over remove.
type StopOptions struct {
	DeleteMessage  bool
	DisableButtons bool // view menus only; reactions cannot be disabled
	RemoveButtons  bool
}

// session is the state shared by both menu families. The mutex guards every
// field below it; the event loop goroutine and the public accessors are the
// two sides that contend.
type session struct {
	owner     transport.User
	channelID string
	guildID   string

	mu        sync.Mutex
	running   bool
	stopped   bool
	msg       *transport.Message
	ctrl      *pages.Controller
	started   time.Time
	stoppedAt time.Time
	cancel    func()
	err       error
}

// IsRunning reports whether the session's event loop is live.
func (s *session) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// OwnerID returns the ID of the user the menu was started for.
func (s *session) OwnerID() string {
	return s.owner.ID
}

// Owner returns the user the menu was started for.
func (s *session) Owner() transport.User {
	return s.owner
}

// ChannelID returns the channel the menu message lives in.
func (s *session) ChannelID() string {
	return s.channelID
}

// GuildID returns the guild the menu message lives in, empty for direct
// messages.
func (s *session) GuildID() string {
	return s.guildID
}

// InDMs reports whether the menu lives in a direct message channel.
func (s *session) InDMs() bool {
	return s.guildID == ""
}

// MessageID returns the ID of the menu message, empty before Start.
func (s *session) MessageID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.msg == nil {
		return ""
	}
	return s.msg.ID
}

// Message returns a copy of the menu message handle, nil before Start.
func (s *session) Message() *transport.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.msg == nil {
		return nil
	}
	msg := *s.msg
	return &msg
}

// RunTime returns how long the session has been running, frozen at the
// moment the session stopped.
func (s *session) RunTime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started.IsZero() {
		return 0
	}
	if !s.stoppedAt.IsZero() {
		return s.stoppedAt.Sub(s.started)
	}
	return time.Since(s.started)
}

// Err returns the session-level error that stopped the menu, if any.
func (s *session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// CurrentPage returns the page currently rendered. ok is false before Start.
func (s *session) CurrentPage() (pages.Page, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl == nil {
		return pages.Page{}, false
	}
	return s.ctrl.Current(), true
}

// PageIndex returns the zero-based index of the current page.
func (s *session) PageIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl == nil {
		return 0
	}
	return s.ctrl.Index()
}

// PageCount returns how many pages the session holds.
func (s *session) PageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl == nil {
		return 0
	}
	return len(s.ctrl.Pages())
}

// guardMutable rejects configuration changes on a menu that is running or
// already dead. Callers hold s.mu.
func (s *session) guardMutable() error {
	if s.running {
		return ErrMenuAlreadyRunning
	}
	if s.stopped {
		return ErrSessionNotActive
	}
	return nil
}

// checkButtonAction rejects button actions the menu type cannot render.
// Custom-embed detours swap an embed into the menu message, so only menus
// whose pages are fixed embeds may carry them.
func checkButtonAction(t Type, a button.Action) error {
	if a == button.ActionCustomEmbed && t != TypeEmbed {
		return &button.ErrUnsupportedAction{Action: a, Family: t.String() + " menu"}
	}
	return nil
}

// timeoutDuration maps the Timeout field onto the transport's convention:
// zero selects the default and NoTimeout selects an unbounded wait.
func timeoutDuration(configured time.Duration) time.Duration {
	switch {
	case configured == 0:
		return DefaultTimeout
	case configured < 0:
		return 0
	default:
		return configured
	}
}

// parsePageSelection interprets a go-to-page reply. Input is one-based;
// anything non-numeric or out of range is rejected.
func parsePageSelection(content string, pageCount int) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(content))
	if err != nil || n < 1 || n > pageCount {
		return 0, false
	}
	return n - 1, true
}

// pageContent maps a page onto transport content without touching the
// component surface.
func pageContent(p pages.Page) transport.Content {
	if p.IsEmbed() {
		return transport.Content{Embed: p.Embed}
	}
	return transport.Content{Text: p.Text}
}

// mostClicked sorts keys by descending click count. Used by the
// ButtonsMostClicked accessors of both families.
func mostClicked(n int, clicks func(i int) int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return clicks(order[a]) > clicks(order[b])
	})
	return order
}
