// Package transport is the narrow seam between the pagination engine and
// the messaging host. The engine only ever sends, edits and deletes one
// message, attaches and detaches controls, and waits for control
// activations or one-shot replies; everything else about the host platform
// stays behind this interface.
package transport

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"
)

// ErrTimeout is returned by the Await methods when the wait expires before
// a matching event arrives. For a menu session this is a normal state
// transition, not a failure.
var ErrTimeout = errors.New("transport: wait timed out")

// User identifies the person behind an event.
type User struct {
	ID       string
	Username string
}

// Message is the handle to a message owned by a session.
type Message struct {
	ID        string
	ChannelID string
	GuildID   string
}

// Content is what a message displays: plain text or an embed, plus an
// optional component surface. A nil Components leaves the existing
// components untouched on edit; pointing at an empty slice removes them.
type Content struct {
	Text       string
	Embed      *discordgo.MessageEmbed
	Components *[]discordgo.MessageComponent
}

// Activation is one control press (or un-press) on a session's message.
// Key is the control's discriminating key: the emoji for reaction controls,
// the custom ID for component controls.
type Activation struct {
	Key  string
	User User
}

// Reply is a one-shot text message, used for go-to-page selections.
type Reply struct {
	Message Message
	User    User
	Content string
}

// Transport is implemented by the host adapters. All blocking calls honor
// ctx; the Await calls additionally honor timeout, where zero means no
// limit.
type Transport interface {
	Send(ctx context.Context, channelID string, c Content) (*Message, error)
	Edit(ctx context.Context, msg *Message, c Content) error
	Delete(ctx context.Context, msg *Message) error

	React(ctx context.Context, msg *Message, emoji string) error
	RemoveUserReaction(ctx context.Context, msg *Message, emoji, userID string) error
	RemoveReactionEmoji(ctx context.Context, msg *Message, emoji string) error
	ClearReactions(ctx context.Context, msg *Message) error

	AwaitActivation(ctx context.Context, msg *Message, allow func(Activation) bool, timeout time.Duration) (Activation, error)
	AwaitDeactivation(ctx context.Context, msg *Message, allow func(Activation) bool, timeout time.Duration) (Activation, error)
	AwaitReply(ctx context.Context, channelID string, allow func(Reply) bool, timeout time.Duration) (Reply, error)
}
