package transport

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	logger "github.com/quillmoor/discord-paginator/log"
)

// Discord adapts a discordgo session to the Transport interface. Reaction
// add/remove events and component interactions are multiplexed to whichever
// session is waiting on the affected message. Component interactions are
// acknowledged with a deferred update before delivery so the session loop
// is free to edit the message at its own pace.
type Discord struct {
	s   *discordgo.Session
	mux *mux
}

// NewDiscord wraps a discordgo session. The session's handlers are
// registered immediately; the caller still owns Open/Close.
func NewDiscord(s *discordgo.Session) *Discord {
	d := &Discord{s: s, mux: newMux()}
	s.AddHandler(d.onReactionAdd)
	s.AddHandler(d.onReactionRemove)
	s.AddHandler(d.onInteraction)
	s.AddHandler(d.onMessage)
	return d
}

func (d *Discord) onReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if s.State.User != nil && r.UserID == s.State.User.ID {
		return
	}
	d.mux.deliverActivation(waitActivation, r.MessageID, Activation{
		Key:  r.Emoji.APIName(),
		User: User{ID: r.UserID, Username: reactionUsername(r.Member)},
	})
}

func (d *Discord) onReactionRemove(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
	if s.State.User != nil && r.UserID == s.State.User.ID {
		return
	}
	d.mux.deliverActivation(waitDeactivation, r.MessageID, Activation{
		Key:  r.Emoji.APIName(),
		User: User{ID: r.UserID},
	})
}

func (d *Discord) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent || i.Message == nil {
		return
	}
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}); err != nil {
		logger.Error("acknowledging component interaction", err)
	}
	var user *discordgo.User
	if i.Member != nil {
		user = i.Member.User
	} else {
		user = i.User
	}
	if user == nil {
		return
	}
	d.mux.deliverActivation(waitActivation, i.Message.ID, Activation{
		Key:  i.MessageComponentData().CustomID,
		User: User{ID: user.ID, Username: user.Username},
	})
}

func (d *Discord) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	d.mux.deliverReply(m.ChannelID, Reply{
		Message: Message{ID: m.ID, ChannelID: m.ChannelID, GuildID: m.GuildID},
		User:    User{ID: m.Author.ID, Username: m.Author.Username},
		Content: m.Content,
	})
}

func reactionUsername(m *discordgo.Member) string {
	if m != nil && m.User != nil {
		return m.User.Username
	}
	return ""
}

// Send posts a new message to the channel.
func (d *Discord) Send(ctx context.Context, channelID string, c Content) (*Message, error) {
	send := &discordgo.MessageSend{Content: c.Text, Embed: c.Embed}
	if c.Components != nil {
		send.Components = *c.Components
	}
	msg, err := d.s.ChannelMessageSendComplex(channelID, send, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return &Message{ID: msg.ID, ChannelID: msg.ChannelID, GuildID: msg.GuildID}, nil
}

// Edit rewrites the message in place.
func (d *Discord) Edit(ctx context.Context, msg *Message, c Content) error {
	edit := discordgo.NewMessageEdit(msg.ChannelID, msg.ID)
	if c.Embed != nil {
		edit.Embeds = &[]*discordgo.MessageEmbed{c.Embed}
	} else if c.Text != "" {
		edit.Content = &c.Text
	}
	edit.Components = c.Components
	_, err := d.s.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx))
	return err
}

// Delete removes the message.
func (d *Discord) Delete(ctx context.Context, msg *Message) error {
	return d.s.ChannelMessageDelete(msg.ChannelID, msg.ID, discordgo.WithContext(ctx))
}

// React attaches one reaction control to the message.
func (d *Discord) React(ctx context.Context, msg *Message, emoji string) error {
	return d.s.MessageReactionAdd(msg.ChannelID, msg.ID, emoji, discordgo.WithContext(ctx))
}

// RemoveUserReaction removes one user's press from a reaction control.
func (d *Discord) RemoveUserReaction(ctx context.Context, msg *Message, emoji, userID string) error {
	return d.s.MessageReactionRemove(msg.ChannelID, msg.ID, emoji, userID, discordgo.WithContext(ctx))
}

// RemoveReactionEmoji detaches a reaction control entirely.
func (d *Discord) RemoveReactionEmoji(ctx context.Context, msg *Message, emoji string) error {
	return d.s.MessageReactionsRemoveEmoji(msg.ChannelID, msg.ID, emoji, discordgo.WithContext(ctx))
}

// ClearReactions detaches every reaction control.
func (d *Discord) ClearReactions(ctx context.Context, msg *Message) error {
	return d.s.MessageReactionsRemoveAll(msg.ChannelID, msg.ID, discordgo.WithContext(ctx))
}

// AwaitActivation blocks until a control on msg is pressed by a user the
// predicate allows, the timeout expires, or ctx is cancelled.
func (d *Discord) AwaitActivation(ctx context.Context, msg *Message, allow func(Activation) bool, timeout time.Duration) (Activation, error) {
	return d.mux.awaitActivation(ctx, waitActivation, msg.ID, allow, timeout)
}

// AwaitDeactivation blocks until a control press on msg is withdrawn.
func (d *Discord) AwaitDeactivation(ctx context.Context, msg *Message, allow func(Activation) bool, timeout time.Duration) (Activation, error) {
	return d.mux.awaitActivation(ctx, waitDeactivation, msg.ID, allow, timeout)
}

// AwaitReply blocks until a user posts a message in the channel that the
// predicate allows.
func (d *Discord) AwaitReply(ctx context.Context, channelID string, allow func(Reply) bool, timeout time.Duration) (Reply, error) {
	return d.mux.awaitReply(ctx, channelID, allow, timeout)
}
