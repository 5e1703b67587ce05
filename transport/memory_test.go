package transport

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// awaitReady blocks until the transport has at least n pending waits, so a
// test can inject an event knowing someone is listening for it.
func awaitReady(t *testing.T, m *Memory, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for m.PendingWaits() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d pending waits", n)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSendEditDeleteLifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	msg, err := m.Send(ctx, "chan-1", Content{Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, []string{msg.ID}, m.SentMessages())

	c, ok := m.LastContent(msg.ID)
	require.True(t, ok)
	assert.Equal(t, "hello", c.Text)

	require.NoError(t, m.Edit(ctx, msg, Content{Embed: &discordgo.MessageEmbed{Title: "swapped"}}))
	c, _ = m.LastContent(msg.ID)
	assert.Empty(t, c.Text)
	assert.Equal(t, "swapped", c.Embed.Title)
	assert.Equal(t, 1, m.EditCount(msg.ID))

	require.NoError(t, m.Delete(ctx, msg))
	assert.True(t, m.Deleted(msg.ID))
	assert.Error(t, m.Edit(ctx, msg, Content{Text: "too late"}))
}

func TestEditWithNilComponentsKeepsExisting(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	components := []discordgo.MessageComponent{discordgo.ActionsRow{}}
	msg, err := m.Send(ctx, "chan-1", Content{Text: "hello", Components: &components})
	require.NoError(t, err)

	require.NoError(t, m.Edit(ctx, msg, Content{Text: "changed"}))
	c, _ := m.LastContent(msg.ID)
	require.NotNil(t, c.Components)
	assert.Len(t, *c.Components, 1)

	empty := []discordgo.MessageComponent{}
	require.NoError(t, m.Edit(ctx, msg, Content{Text: "stripped", Components: &empty}))
	c, _ = m.LastContent(msg.ID)
	assert.Empty(t, *c.Components)
}

func TestReactionBookkeeping(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	msg, _ := m.Send(ctx, "chan-1", Content{Text: "x"})

	require.NoError(t, m.React(ctx, msg, "◀️"))
	require.NoError(t, m.React(ctx, msg, "▶️"))
	assert.Equal(t, []string{"◀️", "▶️"}, m.Reactions(msg.ID))

	require.NoError(t, m.RemoveReactionEmoji(ctx, msg, "◀️"))
	assert.Equal(t, []string{"▶️"}, m.Reactions(msg.ID))

	require.NoError(t, m.ClearReactions(ctx, msg))
	assert.Empty(t, m.Reactions(msg.ID))
}

func TestAwaitActivationReceivesPress(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	msg, _ := m.Send(ctx, "chan-1", Content{Text: "x"})

	got := make(chan Activation, 1)
	go func() {
		a, err := m.AwaitActivation(ctx, msg, nil, 2*time.Second)
		if err == nil {
			got <- a
		}
	}()
	awaitReady(t, m, 1)
	m.Press(msg.ID, "▶️", User{ID: "100", Username: "alice"})

	select {
	case a := <-got:
		assert.Equal(t, "▶️", a.Key)
		assert.Equal(t, "100", a.User.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("activation never delivered")
	}
}

func TestAwaitActivationFiltersByPredicateAndMessage(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	msg, _ := m.Send(ctx, "chan-1", Content{Text: "x"})
	other, _ := m.Send(ctx, "chan-1", Content{Text: "y"})

	got := make(chan Activation, 1)
	go func() {
		a, err := m.AwaitActivation(ctx, msg, func(a Activation) bool {
			return a.User.ID == "100"
		}, 2*time.Second)
		if err == nil {
			got <- a
		}
	}()
	awaitReady(t, m, 1)

	// Wrong message and wrong user are both dropped.
	m.Press(other.ID, "▶️", User{ID: "100"})
	m.Press(msg.ID, "▶️", User{ID: "999"})
	m.Press(msg.ID, "▶️", User{ID: "100"})

	select {
	case a := <-got:
		assert.Equal(t, "100", a.User.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("matching activation never delivered")
	}
}

func TestAwaitDeactivationIgnoresPresses(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	msg, _ := m.Send(ctx, "chan-1", Content{Text: "x"})

	got := make(chan Activation, 1)
	go func() {
		a, err := m.AwaitDeactivation(ctx, msg, nil, 2*time.Second)
		if err == nil {
			got <- a
		}
	}()
	awaitReady(t, m, 1)
	m.Press(msg.ID, "▶️", User{ID: "100"})
	m.Unpress(msg.ID, "▶️", User{ID: "100"})

	select {
	case a := <-got:
		assert.Equal(t, "▶️", a.Key)
	case <-time.After(2 * time.Second):
		t.Fatal("deactivation never delivered")
	}
}

func TestAwaitTimesOut(t *testing.T) {
	m := NewMemory()
	msg, _ := m.Send(context.Background(), "chan-1", Content{Text: "x"})

	_, err := m.AwaitActivation(context.Background(), msg, nil, 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 0, m.PendingWaits())
}

func TestAwaitHonorsContextCancel(t *testing.T) {
	m := NewMemory()
	msg, _ := m.Send(context.Background(), "chan-1", Content{Text: "x"})

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		_, err := m.AwaitActivation(ctx, msg, nil, 0)
		errs <- err
	}()
	awaitReady(t, m, 1)
	cancel()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("wait did not observe cancellation")
	}
}

func TestAwaitReplyMatchesChannelAndPredicate(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	got := make(chan Reply, 1)
	go func() {
		r, err := m.AwaitReply(ctx, "chan-1", func(r Reply) bool {
			return r.Content != "skip me"
		}, 2*time.Second)
		if err == nil {
			got <- r
		}
	}()
	awaitReady(t, m, 1)

	m.PostReply("chan-2", User{ID: "100"}, "wrong channel")
	m.PostReply("chan-1", User{ID: "100"}, "skip me")
	m.PostReply("chan-1", User{ID: "100"}, "3")

	select {
	case r := <-got:
		assert.Equal(t, "3", r.Content)
		assert.Equal(t, "chan-1", r.Message.ChannelID)
		assert.NotEmpty(t, r.Message.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("matching reply never delivered")
	}
}

func TestPressFansOutToAllMatchingWaiters(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	msg, _ := m.Send(ctx, "chan-1", Content{Text: "x"})

	got := make(chan Activation, 2)
	for i := 0; i < 2; i++ {
		go func() {
			a, err := m.AwaitActivation(ctx, msg, nil, 2*time.Second)
			if err == nil {
				got <- a
			}
		}()
	}
	awaitReady(t, m, 2)
	m.Press(msg.ID, "▶️", User{ID: "100"})

	for i := 0; i < 2; i++ {
		select {
		case a := <-got:
			assert.Equal(t, "▶️", a.Key)
		case <-time.After(2 * time.Second):
			t.Fatalf("waiter %d never received the press", i)
		}
	}
}
