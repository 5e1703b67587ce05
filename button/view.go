package button

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

// MaxViewButtons is the component ceiling Discord places on a message
// (5 rows of 5 buttons).
const MaxViewButtons = 25

// Base custom IDs, one per action. Buttons whose action may repeat on a
// single menu get a per-instance unique suffix appended at add time.
const (
	idNextPage     = "0"
	idPreviousPage = "1"
	idFirstPage    = "2"
	idLastPage     = "3"
	idGoToPage     = "4"
	idEndSession   = "5"
	idCaller       = "6"
	idSendMessage  = "7"
	idCustomEmbed  = "8"
	idSkip         = "9"
)

var viewActionIDs = map[Action]string{
	ActionNextPage:     idNextPage,
	ActionPreviousPage: idPreviousPage,
	ActionFirstPage:    idFirstPage,
	ActionLastPage:     idLastPage,
	ActionGoToPage:     idGoToPage,
	ActionEndSession:   idEndSession,
	ActionCaller:       idCaller,
	ActionSendMessage:  idSendMessage,
	ActionCustomEmbed:  idCustomEmbed,
	ActionSkip:         idSkip,
}

// repeatableViewActions may appear multiple times on one menu; their custom
// IDs are disambiguated with a unique suffix.
var repeatableViewActions = map[Action]bool{
	ActionCaller:      true,
	ActionSendMessage: true,
	ActionCustomEmbed: true,
	ActionSkip:        true,
}

// ViewButton is a control rendered as a message component. Its custom ID is
// the discriminating key, synthesized from the action at add time.
type ViewButton struct {
	Style    discordgo.ButtonStyle
	Label    string
	Emoji    string
	Disabled bool

	// URL makes this a link button. Link buttons carry no action the
	// engine dispatches on.
	URL string

	Action Action
	Name   string
	Event  *Event
	Skip   *Skip

	// Followup is required when Action is ActionSendMessage (any content)
	// or ActionCustomEmbed (an embed); optional for ActionCaller.
	Followup *Followup
	// Caller is required when Action is ActionCaller.
	Caller *Caller

	customID string
	Stats
}

// CustomID returns the key assigned when the button was added to a menu.
// Empty until then, and always empty for link buttons.
func (b *ViewButton) CustomID() string {
	return b.customID
}

// Key returns the button's discriminating key.
func (b *ViewButton) Key() string {
	return b.customID
}

// IsLink reports whether this is a pure hyperlink button.
func (b *ViewButton) IsLink() bool {
	return b.Style == discordgo.LinkButton || b.URL != ""
}

// IsNav reports whether the button is one of the base navigation kinds.
func (b *ViewButton) IsNav() bool {
	switch b.Action {
	case ActionNextPage, ActionPreviousPage, ActionFirstPage, ActionLastPage, ActionGoToPage:
		return true
	}
	return false
}

// Component renders the button as a discordgo component.
func (b *ViewButton) Component() discordgo.Button {
	c := discordgo.Button{
		Label:    b.Label,
		Style:    b.Style,
		Disabled: b.Disabled,
	}
	if b.Emoji != "" {
		c.Emoji = &discordgo.ComponentEmoji{Name: b.Emoji}
	}
	if b.IsLink() {
		c.Style = discordgo.LinkButton
		c.URL = b.URL
	} else {
		c.CustomID = b.customID
	}
	return c
}

// ViewBack returns a previous-page button labeled "Back".
func ViewBack() *ViewButton {
	return &ViewButton{Style: discordgo.SecondaryButton, Label: "Back", Action: ActionPreviousPage}
}

// ViewNext returns a next-page button labeled "Next".
func ViewNext() *ViewButton {
	return &ViewButton{Style: discordgo.SecondaryButton, Label: "Next", Action: ActionNextPage}
}

// ViewFirstPage returns a first-page button labeled "First Page".
func ViewFirstPage() *ViewButton {
	return &ViewButton{Style: discordgo.SecondaryButton, Label: "First Page", Action: ActionFirstPage}
}

// ViewLastPage returns a last-page button labeled "Last Page".
func ViewLastPage() *ViewButton {
	return &ViewButton{Style: discordgo.SecondaryButton, Label: "Last Page", Action: ActionLastPage}
}

// ViewGoToPage returns a page-selection button labeled "Page Selection".
func ViewGoToPage() *ViewButton {
	return &ViewButton{Style: discordgo.SecondaryButton, Label: "Page Selection", Action: ActionGoToPage}
}

// ViewEndSession returns an end-session button labeled "Close".
func ViewEndSession() *ViewButton {
	return &ViewButton{Style: discordgo.SecondaryButton, Label: "Close", Action: ActionEndSession}
}

// ViewAllNav returns the full set of base navigation view buttons in
// display order.
func ViewAllNav() []*ViewButton {
	return []*ViewButton{ViewFirstPage(), ViewBack(), ViewNext(), ViewLastPage(), ViewGoToPage(), ViewEndSession()}
}

// ViewSet owns the view buttons registered to one menu and enforces the
// add-time validation rules. A rejected add leaves the set unchanged.
type ViewSet struct {
	buttons []*ViewButton
}

// Add validates and registers a button, assigning its custom ID.
func (s *ViewSet) Add(b *ViewButton) error {
	if len(s.buttons) >= MaxViewButtons {
		return &ErrTooManyButtons{Max: MaxViewButtons}
	}
	if b.IsLink() {
		// Link buttons carry no server-side activation semantics, so the
		// key and companion checks do not apply.
		if b.URL == "" {
			return &ErrMissingSetting{Action: ActionLink, What: "a url"}
		}
		s.buttons = append(s.buttons, b)
		return nil
	}

	baseID, ok := viewActionIDs[b.Action]
	if !ok {
		return &ErrUnsupportedAction{Action: b.Action, Family: "view"}
	}
	if !repeatableViewActions[b.Action] {
		for _, existing := range s.buttons {
			if existing.IsLink() {
				continue
			}
			if strings.SplitN(existing.customID, "_", 2)[0] == baseID {
				return &ErrDuplicateButton{Key: b.Action.String()}
			}
		}
	}
	switch b.Action {
	case ActionCaller:
		if b.Caller == nil {
			return &ErrMissingSetting{Action: b.Action, What: "caller details"}
		}
	case ActionSendMessage:
		if b.Followup.Empty() {
			return &ErrMissingSetting{Action: b.Action, What: "a followup with content"}
		}
	case ActionCustomEmbed:
		if b.Followup == nil || b.Followup.Embed == nil {
			return &ErrMissingSetting{Action: b.Action, What: "a followup with an embed"}
		}
	case ActionSkip:
		if b.Skip == nil {
			return &ErrMissingSetting{Action: b.Action, What: "a skip policy"}
		}
	}

	b.customID = baseID
	if repeatableViewActions[b.Action] {
		b.customID = baseID + "_" + uuid.NewString()
	}
	s.buttons = append(s.buttons, b)
	return nil
}

// Remove takes a button out of the set.
func (s *ViewSet) Remove(b *ViewButton) error {
	for i, existing := range s.buttons {
		if existing == b {
			b.customID = ""
			s.buttons = append(s.buttons[:i], s.buttons[i+1:]...)
			return nil
		}
	}
	return ErrButtonNotFound
}

// Clear removes every button.
func (s *ViewSet) Clear() {
	for _, b := range s.buttons {
		b.customID = ""
	}
	s.buttons = nil
}

// All returns the registered buttons in insertion order.
func (s *ViewSet) All() []*ViewButton {
	return append([]*ViewButton(nil), s.buttons...)
}

// Len returns the number of registered buttons.
func (s *ViewSet) Len() int {
	return len(s.buttons)
}

// ByID returns the button with the given custom ID, or nil.
func (s *ViewSet) ByID(customID string) *ViewButton {
	for _, b := range s.buttons {
		if !b.IsLink() && b.customID == customID {
			return b
		}
	}
	return nil
}

// ByLabel returns the buttons with the given label in insertion order.
func (s *ViewSet) ByLabel(label string) []*ViewButton {
	var out []*ViewButton
	for _, b := range s.buttons {
		if b.Label == label {
			out = append(out, b)
		}
	}
	return out
}

// ByName returns the button with the given name, or nil.
func (s *ViewSet) ByName(name string) *ViewButton {
	for _, b := range s.buttons {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// NavButtons returns the registered base navigation buttons.
func (s *ViewSet) NavButtons() []*ViewButton {
	var out []*ViewButton
	for _, b := range s.buttons {
		if !b.IsLink() && b.IsNav() {
			out = append(out, b)
		}
	}
	return out
}

// CustomEmbedButtons returns the buttons linked to detour embeds.
func (s *ViewSet) CustomEmbedButtons() []*ViewButton {
	var out []*ViewButton
	for _, b := range s.buttons {
		if !b.IsLink() && b.Action == ActionCustomEmbed {
			out = append(out, b)
		}
	}
	return out
}

// SetAllDisabled flips the disabled flag on every non-link button.
func (s *ViewSet) SetAllDisabled(v bool) {
	for _, b := range s.buttons {
		if !b.IsLink() {
			b.Disabled = v
		}
	}
}

// Components renders the set as message component rows, five buttons per
// row.
func (s *ViewSet) Components() []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent
	var row []discordgo.MessageComponent
	for _, b := range s.buttons {
		row = append(row, b.Component())
		if len(row) == 5 {
			rows = append(rows, discordgo.ActionsRow{Components: row})
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, discordgo.ActionsRow{Components: row})
	}
	return rows
}
