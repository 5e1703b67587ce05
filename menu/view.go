package menu

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/quillmoor/discord-paginator/button"
	"github.com/quillmoor/discord-paginator/log"
	"github.com/quillmoor/discord-paginator/pages"
	"github.com/quillmoor/discord-paginator/registry"
	"github.com/quillmoor/discord-paginator/relay"
	"github.com/quillmoor/discord-paginator/style"
	"github.com/quillmoor/discord-paginator/transport"
)

// ViewMenu paginates through component buttons attached to the menu
// message. Configure the exported fields, add pages and buttons, then call
// Start. Fields must not be changed after Start.
type ViewMenu struct {
	session

	// Name tags the session for registry lookups. Optional.
	Name string
	// Type selects the content kind. All pages must match it.
	Type Type
	// Timeout bounds each wait for a press; zero selects DefaultTimeout
	// and NoTimeout disables it.
	Timeout time.Duration
	// Style is the page director template; empty selects style.Default.
	Style string
	// AllCanClick lets any user navigate, not just the owner.
	AllCanClick bool
	// DeleteInteractions removes the go-to-page prompt and the user's
	// reply once a selection is made.
	DeleteInteractions bool
	// DeleteOnTimeout deletes the menu message when the session times
	// out. Takes priority over the other timeout actions.
	DeleteOnTimeout bool
	// DisableButtonsOnTimeout greys out the buttons when the session
	// times out. Takes priority over RemoveButtonsOnTimeout.
	DisableButtonsOnTimeout bool
	// RemoveButtonsOnTimeout strips the component surface when the
	// session times out.
	RemoveButtonsOnTimeout bool
	// OnTimeout runs after the timeout terminal action. A panic in the
	// hook is logged and swallowed.
	OnTimeout func(*ViewMenu)
	// Relay, if set, receives every button press.
	Relay *relay.Dispatcher
	// Registry overrides the process-wide session registry. Nil selects
	// registry.Default().
	Registry *registry.Registry

	t       transport.Transport
	buttons button.ViewSet
	dynamic *pages.DynamicBuilder
	staged  []pages.Page
	styler  style.Style
}

// NewView creates a view menu for the given owner and channel. An empty
// guildID marks the menu as living in a direct message.
func NewView(t transport.Transport, owner transport.User, channelID, guildID string, menuType Type) *ViewMenu {
	m := &ViewMenu{Type: menuType, t: t}
	m.owner = owner
	m.channelID = channelID
	m.guildID = guildID
	if menuType == TypeEmbedDynamic {
		m.dynamic = pages.NewDynamicBuilder(1)
	}
	return m
}

// MenuName returns the session name.
func (m *ViewMenu) MenuName() string {
	return m.Name
}

// Dynamic returns the page builder backing a TypeEmbedDynamic menu, nil for
// the other types.
func (m *ViewMenu) Dynamic() *pages.DynamicBuilder {
	return m.dynamic
}

// AddRow appends one data row to a dynamic menu.
func (m *ViewMenu) AddRow(data string) error {
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
func (m *ViewMenu) AddPage(p pages.Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.guardMutable(); err != nil {
		return err
	}
	if err := checkPageKind(m.Type, p); err != nil {
		return err
	}
	m.staged = append(m.staged, p)
	return nil
}

// AddPages appends several pages, stopping at the first rejection.
func (m *ViewMenu) AddPages(p ...pages.Page) error {
	for _, page := range p {
		if err := m.AddPage(page); err != nil {
			return err
		}
	}
	return nil
}

func checkPageKind(t Type, p pages.Page) error {
	switch t {
	case TypeEmbed:
		if !p.IsEmbed() {
			return &ErrPageKindMismatch{Menu: t}
		}
	case TypeText:
		if p.IsEmbed() {
			return &ErrPageKindMismatch{Menu: t}
		}
	case TypeEmbedDynamic:
		return errors.New("dynamic menus take rows, not pages")
	}
	return nil
}

// AddButton validates and registers a view button, assigning its custom ID.
// The button's action must fit the menu type: custom-embed detours only fit
// embed menus.
func (m *ViewMenu) AddButton(b *button.ViewButton) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.guardMutable(); err != nil {
		return err
	}
	if !b.IsLink() {
		if err := checkButtonAction(m.Type, b.Action); err != nil {
			return err
		}
	}
	return m.buttons.Add(b)
}

// AddButtons registers several buttons, stopping at the first rejection.
func (m *ViewMenu) AddButtons(b ...*button.ViewButton) error {
	for _, btn := range b {
		if err := m.AddButton(btn); err != nil {
			return err
		}
	}
	return nil
}

// RemoveButton takes a button off the menu.
func (m *ViewMenu) RemoveButton(b *button.ViewButton) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.guardMutable(); err != nil {
		return err
	}
	return m.buttons.Remove(b)
}

// ClearButtons removes every button.
func (m *ViewMenu) ClearButtons() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.guardMutable(); err != nil {
		return err
	}
	m.buttons.Clear()
	return nil
}

// Buttons returns the registered buttons in insertion order.
func (m *ViewMenu) Buttons() []*button.ViewButton {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buttons.All()
}

// GetButtonByName returns the button with the given name, or nil.
func (m *ViewMenu) GetButtonByName(name string) *button.ViewButton {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buttons.ByName(name)
}

// ButtonsMostClicked returns the buttons ordered by descending click count.
func (m *ViewMenu) ButtonsMostClicked() []*button.ViewButton {
	all := m.Buttons()
	order := mostClicked(len(all), func(i int) int { return all[i].TotalClicks() })
	out := make([]*button.ViewButton, len(all))
	for i, idx := range order {
		out[i] = all[idx]
	}
	return out
}

func (m *ViewMenu) registryHandle() *registry.Registry {
	if m.Registry != nil {
		return m.Registry
	}
	return registry.Default()
}

// Start validates the menu, renders the first page with its component
// surface and launches the event loop. A menu can be started once.
func (m *ViewMenu) Start(ctx context.Context) error {
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
	if m.buttons.Len() == 0 {
		m.mu.Unlock()
		return ErrNoButtons
	}
	st, err := style.New(m.Style)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	st.Stamp(p)
	m.styler = st
	m.ctrl = pages.NewController(p)
	components := m.buttons.Components()
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

	content := pageContent(p[0])
	content.Components = &components
	msg, err := m.t.Send(ctx, m.channelID, content)
	if err != nil {
		reg.Remove(m)
		return fmt.Errorf("could not send the menu message: %w", err)
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
func (m *ViewMenu) assemblePages() ([]pages.Page, error) {
	if m.Type == TypeEmbedDynamic {
		return m.dynamic.Build()
	}
	p := pages.CloneAll(m.staged)
	if len(p) == 0 {
		if m.Type == TypeEmbed {
			if detours := m.buttons.CustomEmbedButtons(); len(detours) > 0 {
				return []pages.Page{pages.NewEmbed(detours[0].Followup.Embed)}, nil
			}
		}
		return nil, pages.ErrNoPages
	}
	return p, nil
}

// Stop ends the session leaving the menu message as it is.
func (m *ViewMenu) Stop(ctx context.Context) error {
	return m.StopWith(ctx, StopOptions{})
}

// StopWith ends the session and applies the requested terminal action to
// the menu message. Delete wins over disable, disable over remove.
func (m *ViewMenu) StopWith(ctx context.Context, opts StopOptions) error {
	msg, ok := m.halt()
	if !ok {
		return ErrSessionNotActive
	}
	m.registryHandle().Remove(m)
	switch {
	case opts.DeleteMessage:
		return m.t.Delete(ctx, msg)
	case opts.DisableButtons:
		return m.editComponents(ctx, msg, true)
	case opts.RemoveButtons:
		empty := []discordgo.MessageComponent{}
		return m.t.Edit(ctx, msg, transport.Content{Components: &empty})
	}
	return nil
}

// editComponents re-renders the component surface, optionally disabling
// every button first.
func (m *ViewMenu) editComponents(ctx context.Context, msg *transport.Message, disable bool) error {
	m.mu.Lock()
	if disable {
		m.buttons.SetAllDisabled(true)
	}
	components := m.buttons.Components()
	m.mu.Unlock()
	return m.t.Edit(ctx, msg, transport.Content{Components: &components})
}

func (m *ViewMenu) halt() (*transport.Message, bool) {
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
func (m *ViewMenu) fail(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	if stopErr := m.Stop(ctx); stopErr != nil && !errors.Is(stopErr, ErrSessionNotActive) {
		log.Error("stopping failed menu session", stopErr)
	}
}

// run is the session's event loop.
func (m *ViewMenu) run(ctx context.Context) {
	for {
		act, err := m.t.AwaitActivation(ctx, m.Message(), m.allow, timeoutDuration(m.Timeout))
		switch {
		case err == nil:
			if m.dispatch(ctx, act) {
				return
			}
		case errors.Is(err, transport.ErrTimeout):
			m.expire()
			return
		default:
			return
		}
	}
}

// allow is the press predicate: the custom ID must belong to an enabled
// button and the user must be authorized to navigate.
func (m *ViewMenu) allow(a transport.Activation) bool {
	if !m.AllCanClick && a.User.ID != m.owner.ID {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.buttons.ByID(a.Key)
	return b != nil && !b.Disabled
}

// dispatch handles one press. It returns true when the press ended the
// session.
func (m *ViewMenu) dispatch(ctx context.Context, act transport.Activation) bool {
	m.mu.Lock()
	btn := m.buttons.ByID(act.Key)
	m.mu.Unlock()
	if btn == nil || btn.Disabled {
		return false
	}
	btn.RecordClick(act.User.ID, act.User.Username)

	terminal := false
	switch btn.Action {
	case button.ActionNextPage:
		m.turn(ctx, func() pages.Page { return m.ctrl.Next() })
	case button.ActionPreviousPage:
		m.turn(ctx, func() pages.Page { return m.ctrl.Prev() })
	case button.ActionFirstPage:
		m.turn(ctx, func() pages.Page { return m.ctrl.First() })
	case button.ActionLastPage:
		m.turn(ctx, func() pages.Page { return m.ctrl.Last() })
	case button.ActionSkip:
		m.turn(ctx, func() pages.Page { return m.ctrl.Skip(btn.Skip.Amount, btn.Skip.Forward) })
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
		if err := m.t.Edit(ctx, m.Message(), transport.Content{Embed: btn.Followup.Embed}); err != nil {
			log.Error("rendering custom embed", err)
		}
	case button.ActionSendMessage:
		m.sendFollowup(ctx, btn.Followup)
	case button.ActionCaller:
		if err := btn.Caller.Invoke(ctx); err != nil {
			log.Error("caller button "+btn.Key(), err)
			m.fail(fmt.Errorf("caller button %s: %w", btn.Key(), err))
			terminal = true
			break
		}
		if !btn.Followup.Empty() {
			m.sendFollowup(ctx, btn.Followup)
		}
	}

	if !terminal {
		m.applyEvent(ctx, btn)
	}
	if m.Relay != nil {
		m.Relay.Dispatch(relay.Payload{Member: act.User, Button: btn, Time: time.Now().UTC()})
	}
	return terminal
}

func (m *ViewMenu) turn(ctx context.Context, move func() pages.Page) {
	m.mu.Lock()
	p := move()
	msg := m.msg
	m.mu.Unlock()
	if err := m.t.Edit(ctx, msg, pageContent(p)); err != nil {
		log.Error("turning menu page", err)
	}
}

// sendFollowup posts a button's companion message, deleting it later when
// the followup asks for that.
func (m *ViewMenu) sendFollowup(ctx context.Context, f *button.Followup) {
	if f.Empty() {
		return
	}
	sent, err := m.t.Send(ctx, m.channelID, transport.Content{Text: f.Content, Embed: f.Embed})
	if err != nil {
		log.Error("sending followup message", err)
		return
	}
	if f.DeleteAfter > 0 {
		msg := *sent
		time.AfterFunc(f.DeleteAfter, func() {
			delCtx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
			defer cancel()
			if err := m.t.Delete(delCtx, &msg); err != nil {
				log.Error("deleting followup message", err)
			}
		})
	}
}

// promptGoTo asks the pressing user for a page number. Timeouts and invalid
// input abandon the prompt without affecting the session.
func (m *ViewMenu) promptGoTo(ctx context.Context, act transport.Activation) {
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
	if err != nil {
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

// applyEvent enforces a button's click-threshold policy, re-rendering the
// component surface when it changes.
func (m *ViewMenu) applyEvent(ctx context.Context, b *button.ViewButton) {
	if b.Event == nil || b.TotalClicks() < b.Event.Threshold {
		return
	}
	switch b.Event.Kind {
	case button.EventDisable:
		b.Disabled = true
	case button.EventRemove:
		m.mu.Lock()
		if err := m.buttons.Remove(b); err != nil {
			m.mu.Unlock()
			return
		}
		m.mu.Unlock()
	}
	if err := m.RefreshMenuButtons(ctx); err != nil && !errors.Is(err, ErrSessionNotActive) {
		log.Error("re-rendering menu buttons", err)
	}
}

// RefreshMenuButtons re-renders the component surface from the current
// button set while the session is running.
func (m *ViewMenu) RefreshMenuButtons(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return ErrSessionNotActive
	}
	msg := m.msg
	components := m.buttons.Components()
	m.mu.Unlock()
	return m.t.Edit(ctx, msg, transport.Content{Components: &components})
}

// Update atomically replaces the page sequence and/or the button set of a
// running menu. A nil slice keeps the current value; an empty non-nil
// button slice clears the buttons, which is rejected since a running menu
// needs at least one control. Supplied pages may have been stamped by an
// earlier run; their directors are stripped and re-applied.
func (m *ViewMenu) Update(ctx context.Context, newPages []pages.Page, newButtons []*button.ViewButton) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return ErrSessionNotActive
	}

	if newButtons != nil {
		if len(newButtons) == 0 {
			m.mu.Unlock()
			return ErrNoButtons
		}
		// Fresh validation, exactly as if every button were newly added.
		var replacement button.ViewSet
		for _, b := range newButtons {
			if !b.IsLink() {
				if err := checkButtonAction(m.Type, b.Action); err != nil {
					m.mu.Unlock()
					return err
				}
			}
			if err := replacement.Add(b); err != nil {
				m.mu.Unlock()
				return err
			}
		}
		m.buttons = replacement
	}

	if newPages != nil {
		for _, p := range newPages {
			if err := checkPageKind(m.Type, p); err != nil {
				m.mu.Unlock()
				return err
			}
		}
		p := pages.CloneAll(newPages)
		for i := range p {
			m.styler.Strip(&p[i])
		}
		m.styler.Stamp(p)
		m.ctrl = pages.NewController(p)
	}

	current := m.ctrl.Current()
	components := m.buttons.Components()
	msg := m.msg
	m.mu.Unlock()

	content := pageContent(current)
	content.Components = &components
	return m.t.Edit(ctx, msg, content)
}

// expire runs the timeout terminal sequence: deregister, apply the
// configured terminal action with delete taking priority over disable and
// disable over remove, then fire the timeout hook.
func (m *ViewMenu) expire() {
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
	case m.DisableButtonsOnTimeout:
		if err := m.editComponents(ctx, msg, true); err != nil {
			log.Error("disabling timed out menu buttons", err)
		}
	case m.RemoveButtonsOnTimeout:
		empty := []discordgo.MessageComponent{}
		if err := m.t.Edit(ctx, msg, transport.Content{Components: &empty}); err != nil {
			log.Error("removing timed out menu buttons", err)
		}
	}
	m.fireTimeoutHook()
}

func (m *ViewMenu) fireTimeoutHook() {
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
