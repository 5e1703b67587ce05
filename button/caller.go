package button

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Caller binds an external function to a button. Arguments are captured by
// the closure when the binding is created.
type Caller struct {
	fn func(context.Context) error
}

// NewCaller binds fn to a button press.
func NewCaller(fn func(context.Context) error) (*Caller, error) {
	if fn == nil {
		return nil, errors.New("caller function must not be nil")
	}
	return &Caller{fn: fn}, nil
}

// Invoke runs the bound function.
func (c *Caller) Invoke(ctx context.Context) error {
	return c.fn(ctx)
}

// Followup is the companion message a view button sends or displays after a
// press. Buttons linked to ActionSendMessage send it to the channel; buttons
// linked to ActionCustomEmbed display its embed in place of the current
// page; buttons linked to ActionCaller may send it after the bound function
// returns.
type Followup struct {
	Content     string
	Embed       *discordgo.MessageEmbed
	DeleteAfter time.Duration
}

// Empty reports whether the followup carries nothing to send.
func (f *Followup) Empty() bool {
	return f == nil || (f.Content == "" && f.Embed == nil)
}
