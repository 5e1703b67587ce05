package button

import (
	"github.com/bwmarrin/discordgo"
)

// MaxReactionButtons is the reaction ceiling Discord places on a message.
const MaxReactionButtons = 20

// ReactionButton is a control rendered as a message reaction. Its emoji is
// the discriminating key: no two reaction buttons on one menu may share an
// emoji.
type ReactionButton struct {
	Emoji  string
	Action Action
	Name   string
	Event  *Event
	Skip   *Skip

	// CustomEmbed is required when Action is ActionCustomEmbed.
	CustomEmbed *discordgo.MessageEmbed
	// Caller is required when Action is ActionCaller.
	Caller *Caller

	disabled bool
	Stats
}

// Key returns the button's discriminating key.
func (b *ReactionButton) Key() string {
	return b.Emoji
}

// Disabled reports whether presses on the button are ignored.
func (b *ReactionButton) Disabled() bool {
	return b.disabled
}

// SetDisabled marks the button inert or active again.
func (b *ReactionButton) SetDisabled(v bool) {
	b.disabled = v
}

// Back returns a previous-page button with the default emoji.
func Back() *ReactionButton {
	return &ReactionButton{Emoji: EmojiBack, Action: ActionPreviousPage}
}

// Next returns a next-page button with the default emoji.
func Next() *ReactionButton {
	return &ReactionButton{Emoji: EmojiNext, Action: ActionNextPage}
}

// GoToFirstPage returns a first-page button with the default emoji.
func GoToFirstPage() *ReactionButton {
	return &ReactionButton{Emoji: EmojiFirstPage, Action: ActionFirstPage}
}

// GoToLastPage returns a last-page button with the default emoji.
func GoToLastPage() *ReactionButton {
	return &ReactionButton{Emoji: EmojiLastPage, Action: ActionLastPage}
}

// GoToPage returns a page-selection button with the default emoji.
func GoToPage() *ReactionButton {
	return &ReactionButton{Emoji: EmojiGoToPage, Action: ActionGoToPage}
}

// EndSession returns an end-session button with the default emoji.
func EndSession() *ReactionButton {
	return &ReactionButton{Emoji: EmojiEndSession, Action: ActionEndSession}
}

// AllNav returns the full set of base navigation buttons in display order.
func AllNav() []*ReactionButton {
	return []*ReactionButton{GoToFirstPage(), Back(), Next(), GoToLastPage(), GoToPage(), EndSession()}
}

var reactionActions = map[Action]bool{
	ActionNextPage:     true,
	ActionPreviousPage: true,
	ActionFirstPage:    true,
	ActionLastPage:     true,
	ActionGoToPage:     true,
	ActionEndSession:   true,
	ActionSkip:         true,
	ActionCaller:       true,
	ActionCustomEmbed:  true,
}

// ReactionSet owns the reaction buttons registered to one menu and enforces
// the add-time validation rules. A rejected add leaves the set unchanged.
type ReactionSet struct {
	buttons []*ReactionButton
}

// Add validates and registers a button.
func (s *ReactionSet) Add(b *ReactionButton) error {
	if !reactionActions[b.Action] {
		return &ErrUnsupportedAction{Action: b.Action, Family: "reaction"}
	}
	for _, existing := range s.buttons {
		if existing.Emoji == b.Emoji {
			return &ErrDuplicateButton{Key: b.Emoji}
		}
		if b.Name != "" && existing.Name == b.Name {
			return &ErrDuplicateButton{Key: b.Name}
		}
	}
	switch b.Action {
	case ActionCustomEmbed:
		if b.CustomEmbed == nil {
			return &ErrMissingSetting{Action: b.Action, What: "a custom embed"}
		}
	case ActionCaller:
		if b.Caller == nil {
			return &ErrMissingSetting{Action: b.Action, What: "caller details"}
		}
	case ActionSkip:
		if b.Skip == nil {
			return &ErrMissingSetting{Action: b.Action, What: "a skip policy"}
		}
	}
	if b.Action != ActionCustomEmbed && b.CustomEmbed != nil {
		return &ErrMissingSetting{Action: b.Action, What: "no custom embed; only custom embed buttons may carry one"}
	}
	if len(s.buttons) >= MaxReactionButtons {
		return &ErrTooManyButtons{Max: MaxReactionButtons}
	}
	s.buttons = append(s.buttons, b)
	return nil
}

// Remove takes a button out of the set.
func (s *ReactionSet) Remove(b *ReactionButton) error {
	for i, existing := range s.buttons {
		if existing == b {
			s.buttons = append(s.buttons[:i], s.buttons[i+1:]...)
			return nil
		}
	}
	return ErrButtonNotFound
}

// Clear removes every button.
func (s *ReactionSet) Clear() {
	s.buttons = nil
}

// All returns the registered buttons in insertion order.
func (s *ReactionSet) All() []*ReactionButton {
	return append([]*ReactionButton(nil), s.buttons...)
}

// Len returns the number of registered buttons.
func (s *ReactionSet) Len() int {
	return len(s.buttons)
}

// ByEmoji returns the first enabled button matching the emoji, or nil.
func (s *ReactionSet) ByEmoji(emoji string) *ReactionButton {
	for _, b := range s.buttons {
		if b.Emoji == emoji {
			return b
		}
	}
	return nil
}

// ByName returns the button with the given name, or nil.
func (s *ReactionSet) ByName(name string) *ReactionButton {
	for _, b := range s.buttons {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// CustomEmbedButtons returns the buttons linked to detour embeds.
func (s *ReactionSet) CustomEmbedButtons() []*ReactionButton {
	var out []*ReactionButton
	for _, b := range s.buttons {
		if b.Action == ActionCustomEmbed {
			out = append(out, b)
		}
	}
	return out
}

// RegularButtons returns the buttons not linked to detour embeds.
func (s *ReactionSet) RegularButtons() []*ReactionButton {
	var out []*ReactionButton
	for _, b := range s.buttons {
		if b.Action != ActionCustomEmbed {
			out = append(out, b)
		}
	}
	return out
}

// Emojis returns every registered emoji in insertion order.
func (s *ReactionSet) Emojis() []string {
	out := make([]string, len(s.buttons))
	for i, b := range s.buttons {
		out[i] = b.Emoji
	}
	return out
}
