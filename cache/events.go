package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Event kinds recorded for a menu session.
const (
	EventSessionStarted  = "session_started"
	EventSessionStopped  = "session_stopped"
	EventSessionTimedOut = "session_timed_out"
	EventButtonPressed   = "button_pressed"
)

// SessionEvent is one observable moment in a menu session's life.
type SessionEvent struct {
	Kind       string    `json:"kind"`
	MenuName   string    `json:"menu_name,omitempty"`
	MessageID  string    `json:"message_id"`
	ChannelID  string    `json:"channel_id"`
	GuildID    string    `json:"guild_id,omitempty"`
	MemberID   string    `json:"member_id,omitempty"`
	MemberName string    `json:"member_name,omitempty"`
	ButtonKey  string    `json:"button_key,omitempty"`
	Time       time.Time `json:"time"`
}

// PublishEvent records the event in the recent-events list and broadcasts
// it on the event stream channel.
func (c *Client) PublishEvent(ctx context.Context, e SessionEvent) error {
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("could not marshal session event: %w", err)
	}
	if err := c.addToList(ctx, EventsKey, string(data), maxEvents); err != nil {
		return fmt.Errorf("could not store session event: %w", err)
	}
	return c.rdb.Publish(ctx, EventStreamChannel, data).Err()
}

// RecentEvents returns up to n of the most recent session events, newest
// first.
func (c *Client) RecentEvents(ctx context.Context, n int64) ([]SessionEvent, error) {
	raw, err := c.rdb.LRange(ctx, EventsKey, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("could not read session events: %w", err)
	}
	out := make([]SessionEvent, 0, len(raw))
	for _, entry := range raw {
		var e SessionEvent
		if err := json.Unmarshal([]byte(entry), &e); err != nil {
			return nil, fmt.Errorf("could not unmarshal session event: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}
