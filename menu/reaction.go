package menu

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quillmoor/discord-paginator/button"
	"github.com/quillmoor/discord-paginator/log"
	"github.com/quillmoor/discord-paginator/pages"
	"github.com/quillmoor/discord-paginator/registry"
	"github.com/quillmoor/discord-paginator/relay"
	"github.com/quillmoor/discord-paginator/style"
	"github.com/quillmoor/discord-paginator/transport"
)

// ReactionMenu paginates through emoji reactions on the menu message.
// Configure the exported fields, add pages and buttons, then call Start.
// Fields must not be changed after Start.
type ReactionMenu struct {
	session

	// Name tags the session for registry lookups. Optional.
	Name string
	// Type selects the content kind. All pages must match it.
	Type Type
	// Timeout bounds each wait for a press; zero selects DefaultTimeout
	// and NoTimeout disables it.
	Timeout time.Duration
	// NavigationSpeed selects NORMAL or FAST pacing.
	NavigationSpeed Speed
	// Style is the page director template; empty selects style.Default.
	Style string
	// AllCanClick lets any user navigate, not just the owner.
	AllCanClick bool
	// DeleteInteractions removes the go-to-page prompt and the user's
	// reply once a selection is made.
	DeleteInteractions bool
	// DeleteOnTimeout deletes the menu message when the session times
	// out. Takes priority over RemoveButtonsOnTimeout.
	DeleteOnTimeout bool
	// RemoveButtonsOnTimeout clears the reactions when the session times
	// out.
	RemoveButtonsOnTimeout bool
	// OnTimeout runs after the timeout terminal action. A panic in the
	// hook is logged and swallowed.
	OnTimeout func(*ReactionMenu)
	// AutoPaginate turns pages on a timer instead of on presses. The menu
	// must have no buttons and a TurnEvery interval.
	AutoPaginate bool
	// TurnEvery is the auto-pagination interval.
	TurnEvery time.Duration
	// Relay, if set, receives every button press.
	Relay *relay.Dispatcher
	// Registry overrides the process-wide session registry. Nil selects
	// registry.Default().
	Registry *registry.Registry

	t       transport.Transport
	buttons button.ReactionSet
	dynamic *pages.DynamicBuilder
	staged  []pages.Page
}

// NewReaction creates a reaction menu for the given owner and channel. An
// empty guildID marks the menu as living in a direct message.
func NewReaction(t transport.Transport, owner transport.User, channelID, guildID string, menuType Type) *ReactionMenu {
	m := &ReactionMenu{Type: menuType, t: t}
	m.owner = owner
	m.channelID = channelID
	m.guildID = guildID
	if menuType == TypeEmbedDynamic {
		m.dynamic = pages.NewDynamicBuilder(1)
	}
	return m
}

// MenuName returns the session name.
func (m *ReactionMenu) MenuName() string {
	return m.Name
}

// Dynamic returns the page builder backing a TypeEmbedDynamic menu, nil for
// the other types.
func (m *ReactionMenu) Dynamic() *pages.DynamicBuilder {
	return m.dynamic
}

// SetRowsRequested reconfigures how many rows a dynamic menu packs into one
// page.
func (m *ReactionMenu) SetRowsRequested(rows int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.guardMutable(); err != nil {
		return err
	}
	if m.dynamic == nil {
		return errors.New("rows requested only applies to dynamic menus")
	}
	m.dynamic.SetRowsRequested(rows)
	return nil
}

// AddRow appends one data row to a dynamic menu.
func (m *ReactionMenu) AddRow(data string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.guardMutable(); err != nil {
		return err
	}
	if m.dynamic == nil {
		return errors.New("rows can only be added to dynamic menus")
	}
	m.dynamic.AddRow(data)
	return nil
}

// AddPage appends a page. The page's content kind must match the menu type,
// and dynamic menus build their pages from rows instead.
func (m *ReactionMenu) AddPage(p pages.Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.guardMutable(); err != nil {
		return err
	}
	switch m.Type {
	case TypeEmbed:
		if !p.IsEmbed() {
			return &ErrPageKindMismatch{Menu: m.Type}
		}
	case TypeText:
		if p.IsEmbed() {
			return &ErrPageKindMismatch{Menu: m.Type}
		}
	case TypeEmbedDynamic:
		return errors.New("dynamic menus take rows, not pages")
	}
	m.staged = append(m.staged, p)
	return nil
}

// AddPages appends several pages, stopping at the first rejection.
func (m *ReactionMenu) AddPages(p ...pages.Page) error {
	for _, page := range p {
		if err := m.AddPage(page); err != nil {
			return err
		}
	}
	return nil
}

// AddButton validates and registers a reaction button. The button's action
// must fit the menu type: custom-embed detours only fit embed menus.
func (m *ReactionMenu) AddButton(b *button.ReactionButton) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.guardMutable(); err != nil {
		return err
	}
	if err := checkButtonAction(m.Type, b.Action); err != nil {
		return err
	}
	return m.buttons.Add(b)
}

// AddButtons registers several buttons, stopping at the first rejection.
func (m *ReactionMenu) AddButtons(b ...*button.ReactionButton) error {
	for _, btn := range b {
		if err := m.AddButton(btn); err != nil {
			return err
		}
	}
	return nil
}

// RemoveButton takes a button off the menu.
func (m *ReactionMenu) RemoveButton(b *button.ReactionButton) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.guardMutable(); err != nil {
		return err
	}
	return m.buttons.Remove(b)
}

// ClearButtons removes every button.
func (m *ReactionMenu) ClearButtons() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.guardMutable(); err != nil {
		return err
	}
	m.buttons.Clear()
	return nil
}

// Buttons returns the registered buttons in insertion order.
func (m *ReactionMenu) Buttons() []*button.ReactionButton {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buttons.All()
}

// GetButtonByName returns the button with the given name, or nil.
func (m *ReactionMenu) GetButtonByName(name string) *button.ReactionButton {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buttons.ByName(name)
}

// ButtonsMostClicked returns the buttons ordered by descending click count.
func (m *ReactionMenu) ButtonsMostClicked() []*button.ReactionButton {
	all := m.Buttons()
	order := mostClicked(len(all), func(i int) int { return all[i].TotalClicks() })
	out := make([]*button.ReactionButton, len(all))
	for i, idx := range order {
		out[i] = all[idx]
	}
	return out
}

func (m *ReactionMenu) registryHandle() *registry.Registry {
	if m.Registry != nil {
		return m.Registry
	}
	return registry.Default()
}

// Start validates the menu, renders the first page, attaches the reactions
// and launches the event loop. A menu can be started once.
func (m *ReactionMenu) Start(ctx context.Context) error {
	m.mu.Lock()
	if err := m.guardMutable(); err != nil {
		m.mu.Unlock()
		return err
	}

	p, err := m.assemblePages()
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if m.AutoPaginate {
		if m.TurnEvery <= 0 {
			m.mu.Unlock()
			return ErrNoTurnInterval
		}
	} else if m.buttons.Len() == 0 {
		m.mu.Unlock()
		return ErrNoButtons
	}
	st, err := style.New(m.Style)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	st.Stamp(p)
	m.ctrl = pages.NewController(p)
	m.mu.Unlock()

	reg := m.registryHandle()
	if err := reg.Admit(m); err != nil {
		var limited *registry.LimitError
		if errors.As(err, &limited) && limited.Limit.Message != "" {
			if _, sendErr := m.t.Send(ctx, m.channelID, transport.Content{Text: limited.Limit.Message}); sendErr != nil {
				log.Error("sending session limit message", sendErr)
			}
		}
		return err
	}

	msg, err := m.t.Send(ctx, m.channelID, pageContent(p[0]))
	if err != nil {
		reg.Remove(m)
		return fmt.Errorf("could not send the menu message: %w", err)
	}
	if !m.AutoPaginate {
		for _, emoji := range m.buttons.Emojis() {
			if err := m.t.React(ctx, msg, emoji); err != nil {
				log.Error("attaching reaction "+emoji, err)
			}
		}
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	m.mu.Lock()
	m.msg = msg
	m.running = true
	m.started = time.Now().UTC()
	m.cancel = cancel
	m.mu.Unlock()

	go m.run(loopCtx)
	return nil
}

// assemblePages resolves the final page sequence at start. Callers hold
// m.mu. A menu with no pages may still start when a custom embed button can
// stand in for the first page.
func (m *ReactionMenu) assemblePages() ([]pages.Page, error) {
	if m.Type == TypeEmbedDynamic {
		return m.dynamic.Build()
	}
	p := pages.CloneAll(m.staged)
	if len(p) == 0 {
		if m.Type == TypeEmbed {
			if detours := m.buttons.CustomEmbedButtons(); len(detours) > 0 {
				return []pages.Page{pages.NewEmbed(detours[0].CustomEmbed)}, nil
			}
		}
		return nil, pages.ErrNoPages
	}
	return p, nil
}

// Stop ends the session leaving the menu message as it is.
func (m *ReactionMenu) Stop(ctx context.Context) error {
	return m.StopWith(ctx, StopOptions{})
}

// StopWith ends the session and applies the requested terminal action to
// the menu message.
func (m *ReactionMenu) StopWith(ctx context.Context, opts StopOptions) error {
	msg, ok := m.halt()
	if !ok {
		return ErrSessionNotActive
	}
	m.registryHandle().Remove(m)
	if opts.DeleteMessage {
		return m.t.Delete(ctx, msg)
	}
	if opts.RemoveButtons {
		return m.t.ClearReactions(ctx, msg)
	}
	return nil
}

// halt flips the session out of the running state exactly once and cancels
// the event loop. ok is false if the session was not running.
func (m *ReactionMenu) halt() (*transport.Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return nil, false
	}
	m.running = false
	m.stopped = true
	m.stoppedAt = time.Now().UTC()
	m.cancel()
	return m.msg, true
}

// fail stops the session because of a session-level error.
func (m *ReactionMenu) fail(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	if stopErr := m.Stop(ctx); stopErr != nil && !errors.Is(stopErr, ErrSessionNotActive) {
		log.Error("stopping failed menu session", stopErr)
	}
}

// run is the session's event loop. It owns the controller until the session
// stops.
func (m *ReactionMenu) run(ctx context.Context) {
	if m.AutoPaginate {
		m.autoLoop(ctx)
		return
	}
	for {
		act, err := m.awaitPress(ctx)
		switch {
		case err == nil:
			if m.dispatch(ctx, act) {
				return
			}
		case errors.Is(err, transport.ErrTimeout):
			m.expire()
			return
		default:
			// Cancelled through Stop; cleanup already ran there.
			return
		}
	}
}

// autoLoop advances the menu on a fixed interval until the session times
// out or is stopped.
func (m *ReactionMenu) autoLoop(ctx context.Context) {
	ticker := time.NewTicker(m.TurnEvery)
	defer ticker.Stop()

	var expire <-chan time.Time
	if d := timeoutDuration(m.Timeout); d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		expire = t.C
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-expire:
			m.expire()
			return
		case <-ticker.C:
			m.mu.Lock()
			p := m.ctrl.Next()
			msg := m.msg
			m.mu.Unlock()
			if err := m.t.Edit(ctx, msg, pageContent(p)); err != nil {
				log.Error("turning auto-paginated menu", err)
			}
		}
	}
}

// allow is the press predicate: the key must belong to an enabled button
// and the user must be authorized to navigate.
func (m *ReactionMenu) allow(a transport.Activation) bool {
	if !m.AllCanClick && a.User.ID != m.owner.ID {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.buttons.ByEmoji(a.Key)
	return b != nil && !b.Disabled()
}

func (m *ReactionMenu) awaitPress(ctx context.Context) (transport.Activation, error) {
	if m.NavigationSpeed == FastSpeed {
		return m.awaitFast(ctx)
	}
	return m.t.AwaitActivation(ctx, m.Message(), m.allow, timeoutDuration(m.Timeout))
}

// awaitFast races the activation wait against the deactivation wait and
// takes whichever resolves first, cancelling the loser. The deactivation
// branch waits strictly longer so a genuine session timeout always
// surfaces on the activation side.
func (m *ReactionMenu) awaitFast(ctx context.Context) (transport.Activation, error) {
	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	base := timeoutDuration(m.Timeout)
	deact := base
	if deact > 0 {
		deact += fastEpsilon
	}

	type outcome struct {
		act transport.Activation
		err error
	}
	results := make(chan outcome, 2)
	msg := m.Message()
	go func() {
		act, err := m.t.AwaitActivation(raceCtx, msg, m.allow, base)
		results <- outcome{act, err}
	}()
	go func() {
		act, err := m.t.AwaitDeactivation(raceCtx, msg, m.allow, deact)
		results <- outcome{act, err}
	}()
	first := <-results
	return first.act, first.err
}

// dispatch handles one press. It returns true when the press ended the
// session.
func (m *ReactionMenu) dispatch(ctx context.Context, act transport.Activation) bool {
	m.mu.Lock()
	btn := m.buttons.ByEmoji(act.Key)
	m.mu.Unlock()
	if btn == nil || btn.Disabled() {
		return false
	}
	btn.RecordClick(act.User.ID, act.User.Username)

	terminal := false
	switch btn.Action {
	case button.ActionNextPage:
		m.turn(ctx, act, func() pages.Page { return m.ctrl.Next() })
	case button.ActionPreviousPage:
		m.turn(ctx, act, func() pages.Page { return m.ctrl.Prev() })
	case button.ActionFirstPage:
		m.turn(ctx, act, func() pages.Page { return m.ctrl.First() })
	case button.ActionLastPage:
		m.turn(ctx, act, func() pages.Page { return m.ctrl.Last() })
	case button.ActionSkip:
		m.turn(ctx, act, func() pages.Page { return m.ctrl.Skip(btn.Skip.Amount, btn.Skip.Forward) })
	case button.ActionGoToPage:
		m.promptGoTo(ctx, act)
	case button.ActionEndSession:
		stopCtx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		if err := m.StopWith(stopCtx, StopOptions{DeleteMessage: true}); err != nil && !errors.Is(err, ErrSessionNotActive) {
			log.Error("ending menu session", err)
		}
		cancel()
		terminal = true
	case button.ActionCustomEmbed:
		// A detour page: rendered without moving the controller's index.
		if err := m.t.Edit(ctx, m.Message(), transport.Content{Embed: btn.CustomEmbed}); err != nil {
			log.Error("rendering custom embed", err)
		}
		m.settlePress(ctx, act)
	case button.ActionCaller:
		if err := btn.Caller.Invoke(ctx); err != nil {
			log.Error("caller button "+btn.Emoji, err)
			m.fail(fmt.Errorf("caller button %s: %w", btn.Emoji, err))
			terminal = true
			break
		}
		m.settlePress(ctx, act)
	}

	if !terminal {
		m.applyEvent(ctx, btn)
	}
	if m.Relay != nil {
		m.Relay.Dispatch(relay.Payload{Member: act.User, Button: btn, Time: time.Now().UTC()})
	}
	return terminal
}

// turn applies a navigation move and re-renders the message.
func (m *ReactionMenu) turn(ctx context.Context, act transport.Activation, move func() pages.Page) {
	m.mu.Lock()
	p := move()
	msg := m.msg
	m.mu.Unlock()
	if err := m.t.Edit(ctx, msg, pageContent(p)); err != nil {
		log.Error("turning menu page", err)
	}
	m.settlePress(ctx, act)
}

// settlePress removes the user's reaction in NORMAL mode, which is the
// pacing signal the user waits for before the next press.
func (m *ReactionMenu) settlePress(ctx context.Context, act transport.Activation) {
	if m.NavigationSpeed != NormalSpeed {
		return
	}
	if err := m.t.RemoveUserReaction(ctx, m.Message(), act.Key, act.User.ID); err != nil {
		log.Error("removing user reaction", err)
	}
}

// promptGoTo asks the pressing user for a page number. Timeouts and invalid
// input abandon the prompt without affecting the session.
func (m *ReactionMenu) promptGoTo(ctx context.Context, act transport.Activation) {
	count := m.PageCount()
	promptText := fmt.Sprintf("%s, what page would you like to go to? (1-%d)", act.User.Username, count)
	prompt, err := m.t.Send(ctx, m.channelID, transport.Content{Text: promptText})
	if err != nil {
		log.Error("sending go-to-page prompt", err)
		return
	}
	reply, err := m.t.AwaitReply(ctx, m.channelID, func(r transport.Reply) bool {
		return r.User.ID == act.User.ID
	}, timeoutDuration(m.Timeout))
	m.settlePress(ctx, act)
	if err != nil {
		// Abandoned selection; the session itself has not timed out.
		if m.DeleteInteractions {
			m.t.Delete(ctx, prompt)
		}
		return
	}
	// The first reply settles the prompt: non-numeric or out-of-range
	// input abandons it without navigating.
	index, ok := parsePageSelection(reply.Content, count)
	if !ok {
		if m.DeleteInteractions {
			m.t.Delete(ctx, prompt)
			m.t.Delete(ctx, &reply.Message)
		}
		return
	}
	m.mu.Lock()
	p := m.ctrl.GoTo(index)
	msg := m.msg
	m.mu.Unlock()
	if err := m.t.Edit(ctx, msg, pageContent(p)); err != nil {
		log.Error("rendering selected page", err)
	}
	if m.DeleteInteractions {
		if err := m.t.Delete(ctx, prompt); err != nil {
			log.Error("deleting go-to-page prompt", err)
		}
		if err := m.t.Delete(ctx, &reply.Message); err != nil {
			log.Error("deleting go-to-page reply", err)
		}
	}
}

// applyEvent enforces a button's click-threshold policy.
func (m *ReactionMenu) applyEvent(ctx context.Context, b *button.ReactionButton) {
	if b.Event == nil || b.TotalClicks() < b.Event.Threshold {
		return
	}
	switch b.Event.Kind {
	case button.EventDisable:
		b.SetDisabled(true)
	case button.EventRemove:
		m.mu.Lock()
		err := m.buttons.Remove(b)
		m.mu.Unlock()
		if err == nil {
			if err := m.t.RemoveReactionEmoji(ctx, m.Message(), b.Emoji); err != nil {
				log.Error("removing reaction button", err)
			}
		}
	}
}

// expire runs the timeout terminal sequence: deregister, apply the
// configured terminal action with delete taking priority, then fire the
// timeout hook.
func (m *ReactionMenu) expire() {
	msg, ok := m.halt()
	if !ok {
		return
	}
	m.registryHandle().Remove(m)

	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	switch {
	case m.DeleteOnTimeout:
		if err := m.t.Delete(ctx, msg); err != nil {
			log.Error("deleting timed out menu", err)
		}
	case m.RemoveButtonsOnTimeout:
		if err := m.t.ClearReactions(ctx, msg); err != nil {
			log.Error("clearing timed out menu reactions", err)
		}
	}
	m.fireTimeoutHook()
}

func (m *ReactionMenu) fireTimeoutHook() {
	if m.OnTimeout == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Warn("menu timeout hook", fmt.Errorf("panic: %v", r))
		}
	}()
	m.OnTimeout(m)
}
