package menu

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillmoor/discord-paginator/button"
	"github.com/quillmoor/discord-paginator/registry"
	"github.com/quillmoor/discord-paginator/transport"
)

func newTestViewMenu(t *testing.T, mem *transport.Memory, titles ...string) *ViewMenu {
	t.Helper()
	m := NewView(mem, owner, "chan", "guild", TypeEmbed)
	m.Registry = registry.New()
	require.NoError(t, m.AddPages(embedPages(titles...)...))
	return m
}

// componentCount walks the rendered rows and counts the buttons in them.
func componentCount(c transport.Content) int {
	if c.Components == nil {
		return -1
	}
	n := 0
	for _, row := range *c.Components {
		if r, ok := row.(discordgo.ActionsRow); ok {
			n += len(r.Components)
		}
	}
	return n
}

func TestViewStartRendersPageAndComponents(t *testing.T) {
	mem := transport.NewMemory()
	m := newTestViewMenu(t, mem, "one", "two")
	back, next := button.ViewBack(), button.ViewNext()
	require.NoError(t, m.AddButtons(back, next))

	msgID := startAndWait(t, mem, func() error { return m.Start(context.Background()) })
	defer m.Stop(context.Background())

	c, ok := mem.LastContent(msgID)
	require.True(t, ok)
	require.NotNil(t, c.Embed)
	assert.Equal(t, "one", c.Embed.Title)
	assert.Equal(t, 2, componentCount(c))
	assert.Equal(t, "1", back.CustomID())
	assert.Equal(t, "0", next.CustomID())
}

func TestViewNavigationByCustomID(t *testing.T) {
	mem := transport.NewMemory()
	m := newTestViewMenu(t, mem, "one", "two", "three")
	next := button.ViewNext()
	require.NoError(t, m.AddButton(next))

	msgID := startAndWait(t, mem, func() error { return m.Start(context.Background()) })
	defer m.Stop(context.Background())

	want := []string{"two", "three", "one"}
	for i, title := range want {
		waitUntil(t, "loop to wait", func() bool { return mem.PendingWaits() > 0 })
		mem.Press(msgID, next.CustomID(), owner)
		edits := i + 1
		waitUntil(t, "page edit", func() bool { return mem.EditCount(msgID) >= edits })
		assert.Equal(t, title, currentTitle(t, mem, msgID))
	}
}

func TestViewRepeatableButtonsGetUniqueIDs(t *testing.T) {
	mem := transport.NewMemory()
	m := newTestViewMenu(t, mem, "one")

	first := &button.ViewButton{Style: discordgo.PrimaryButton, Label: "+5", Action: button.ActionSkip, Skip: button.NewSkip(true, 5)}
	second := &button.ViewButton{Style: discordgo.PrimaryButton, Label: "-5", Action: button.ActionSkip, Skip: button.NewSkip(false, 5)}
	require.NoError(t, m.AddButtons(first, second))

	assert.NotEqual(t, first.CustomID(), second.CustomID())
	assert.Contains(t, first.CustomID(), "9_")
	assert.Contains(t, second.CustomID(), "9_")
}

func TestViewDuplicateNavButtonRejected(t *testing.T) {
	mem := transport.NewMemory()
	m := newTestViewMenu(t, mem, "one")
	require.NoError(t, m.AddButton(button.ViewNext()))

	var dup *button.ErrDuplicateButton
	err := m.AddButton(button.ViewNext())
	require.ErrorAs(t, err, &dup)
	assert.Len(t, m.Buttons(), 1)
}

func TestViewSendMessageButton(t *testing.T) {
	mem := transport.NewMemory()
	m := newTestViewMenu(t, mem, "one")
	say := &button.ViewButton{
		Style:    discordgo.PrimaryButton,
		Label:    "Say Hi",
		Action:   button.ActionSendMessage,
		Followup: &button.Followup{Content: "hi there"},
	}
	require.NoError(t, m.AddButtons(button.ViewNext(), say))

	msgID := startAndWait(t, mem, func() error { return m.Start(context.Background()) })
	defer m.Stop(context.Background())

	mem.Press(msgID, say.CustomID(), owner)
	waitUntil(t, "followup message", func() bool { return len(mem.SentMessages()) >= 2 })
	followupID := mem.SentMessages()[1]
	c, ok := mem.LastContent(followupID)
	require.True(t, ok)
	assert.Equal(t, "hi there", c.Text)
	// The page itself did not move.
	assert.Equal(t, "one", currentTitle(t, mem, msgID))
}

func TestViewCustomEmbedDetourKeepsIndex(t *testing.T) {
	mem := transport.NewMemory()
	m := newTestViewMenu(t, mem, "one", "two")
	detour := &button.ViewButton{
		Style:    discordgo.PrimaryButton,
		Label:    "Info",
		Action:   button.ActionCustomEmbed,
		Followup: &button.Followup{Embed: &discordgo.MessageEmbed{Title: "detour"}},
	}
	require.NoError(t, m.AddButtons(button.ViewNext(), detour))

	msgID := startAndWait(t, mem, func() error { return m.Start(context.Background()) })
	defer m.Stop(context.Background())

	mem.Press(msgID, detour.CustomID(), owner)
	waitUntil(t, "detour render", func() bool { return mem.EditCount(msgID) >= 1 })
	assert.Equal(t, "detour", currentTitle(t, mem, msgID))
	assert.Equal(t, 0, m.PageIndex())
}

func TestViewEventPolicyRemovesButtonFromSurface(t *testing.T) {
	mem := transport.NewMemory()
	m := newTestViewMenu(t, mem, "one", "two", "three")
	next := button.ViewNext()
	next.Event = button.NewEvent(button.EventRemove, 2)
	require.NoError(t, m.AddButtons(next, button.ViewBack()))

	msgID := startAndWait(t, mem, func() error { return m.Start(context.Background()) })
	defer m.Stop(context.Background())

	id := next.CustomID()
	mem.Press(msgID, id, owner)
	waitUntil(t, "first edit", func() bool { return mem.EditCount(msgID) >= 1 })
	require.Len(t, m.Buttons(), 2)

	waitUntil(t, "loop to wait", func() bool { return mem.PendingWaits() > 0 })
	mem.Press(msgID, id, owner)
	waitUntil(t, "button removal", func() bool { return len(m.Buttons()) == 1 })

	waitUntil(t, "surface refresh", func() bool {
		c, ok := mem.LastContent(msgID)
		return ok && componentCount(c) == 1
	})
}

func TestViewTimeoutDeleteBeatsDisable(t *testing.T) {
	mem := transport.NewMemory()
	m := newTestViewMenu(t, mem, "one")
	m.Timeout = 40 * time.Millisecond
	m.DeleteOnTimeout = true
	m.DisableButtonsOnTimeout = true
	require.NoError(t, m.AddButton(button.ViewNext()))

	msgID := startAndWait(t, mem, func() error { return m.Start(context.Background()) })

	waitUntil(t, "message deletion", func() bool { return mem.Deleted(msgID) })
	// Delete won: no disabling edit was ever issued.
	assert.Equal(t, 0, mem.EditCount(msgID))
}

func TestViewTimeoutDisablesButtons(t *testing.T) {
	mem := transport.NewMemory()
	m := newTestViewMenu(t, mem, "one")
	m.Timeout = 40 * time.Millisecond
	m.DisableButtonsOnTimeout = true
	next := button.ViewNext()
	require.NoError(t, m.AddButton(next))

	msgID := startAndWait(t, mem, func() error { return m.Start(context.Background()) })

	waitUntil(t, "disabling edit", func() bool { return mem.EditCount(msgID) >= 1 })
	assert.True(t, next.Disabled)
	assert.False(t, mem.Deleted(msgID))
}

func TestViewTimeoutRemovesComponents(t *testing.T) {
	mem := transport.NewMemory()
	m := newTestViewMenu(t, mem, "one")
	m.Timeout = 40 * time.Millisecond
	m.RemoveButtonsOnTimeout = true
	require.NoError(t, m.AddButton(button.ViewNext()))

	msgID := startAndWait(t, mem, func() error { return m.Start(context.Background()) })

	waitUntil(t, "components removed", func() bool {
		c, ok := mem.LastContent(msgID)
		return ok && componentCount(c) == 0
	})
}

func TestViewUpdateReplacesPagesAndButtons(t *testing.T) {
	mem := transport.NewMemory()
	m := newTestViewMenu(t, mem, "one", "two")
	require.NoError(t, m.AddButton(button.ViewNext()))

	msgID := startAndWait(t, mem, func() error { return m.Start(context.Background()) })
	defer m.Stop(context.Background())

	fresh := embedPages("alpha", "beta", "gamma")
	err := m.Update(context.Background(), fresh, []*button.ViewButton{button.ViewBack(), button.ViewNext()})
	require.NoError(t, err)

	assert.Equal(t, 3, m.PageCount())
	assert.Equal(t, "alpha", currentTitle(t, mem, msgID))
	assert.Len(t, m.Buttons(), 2)
	c, _ := mem.LastContent(msgID)
	assert.Equal(t, 2, componentCount(c))
}

func TestViewUpdateRestampsDirectorOnce(t *testing.T) {
	mem := transport.NewMemory()
	m := newTestViewMenu(t, mem, "one", "two")
	require.NoError(t, m.AddButton(button.ViewNext()))

	msgID := startAndWait(t, mem, func() error { return m.Start(context.Background()) })
	defer m.Stop(context.Background())

	// Feed back pages that already carry a director stamp.
	stamped := embedPages("alpha", "beta")
	stamped[0].Embed.Footer = &discordgo.MessageEmbedFooter{Text: "Page 1/2"}
	stamped[1].Embed.Footer = &discordgo.MessageEmbedFooter{Text: "Page 2/2"}
	require.NoError(t, m.Update(context.Background(), stamped, nil))

	c, ok := mem.LastContent(msgID)
	require.True(t, ok)
	require.NotNil(t, c.Embed.Footer)
	assert.Equal(t, "Page 1/2", c.Embed.Footer.Text)

	page, ok := m.CurrentPage()
	require.True(t, ok)
	assert.Equal(t, "Page 1/2", page.Embed.Footer.Text)
}

func TestViewUpdateOnStoppedSession(t *testing.T) {
	mem := transport.NewMemory()
	m := newTestViewMenu(t, mem, "one")
	require.NoError(t, m.AddButton(button.ViewNext()))

	startAndWait(t, mem, func() error { return m.Start(context.Background()) })
	require.NoError(t, m.Stop(context.Background()))

	err := m.Update(context.Background(), embedPages("alpha"), nil)
	assert.ErrorIs(t, err, ErrSessionNotActive)
	assert.False(t, m.IsRunning())
}

func TestViewUpdateWithEmptyButtonsRejected(t *testing.T) {
	mem := transport.NewMemory()
	m := newTestViewMenu(t, mem, "one")
	require.NoError(t, m.AddButton(button.ViewNext()))

	startAndWait(t, mem, func() error { return m.Start(context.Background()) })
	defer m.Stop(context.Background())

	err := m.Update(context.Background(), nil, []*button.ViewButton{})
	assert.ErrorIs(t, err, ErrNoButtons)
}

func TestViewStopWithDisableButtons(t *testing.T) {
	mem := transport.NewMemory()
	m := newTestViewMenu(t, mem, "one")
	next := button.ViewNext()
	require.NoError(t, m.AddButton(next))

	msgID := startAndWait(t, mem, func() error { return m.Start(context.Background()) })

	require.NoError(t, m.StopWith(context.Background(), StopOptions{DisableButtons: true, RemoveButtons: true}))
	assert.True(t, next.Disabled)
	c, ok := mem.LastContent(msgID)
	require.True(t, ok)
	assert.Equal(t, 1, componentCount(c))
	assert.Equal(t, 0, m.Registry.Count())
}

func TestViewCustomEmbedButtonRequiresEmbedMenu(t *testing.T) {
	mem := transport.NewMemory()
	detour := func() *button.ViewButton {
		return &button.ViewButton{
			Style:    discordgo.PrimaryButton,
			Label:    "Info",
			Action:   button.ActionCustomEmbed,
			Followup: &button.Followup{Embed: &discordgo.MessageEmbed{Title: "detour"}},
		}
	}

	text := NewView(mem, owner, "chan", "guild", TypeText)
	text.Registry = registry.New()
	var unsupported *button.ErrUnsupportedAction
	require.ErrorAs(t, text.AddButton(detour()), &unsupported)
	assert.Empty(t, text.Buttons())

	embed := NewView(mem, owner, "chan", "guild", TypeEmbed)
	embed.Registry = registry.New()
	assert.NoError(t, embed.AddButton(detour()))
}

func TestViewUpdateRejectsCustomEmbedButtonOnTextMenu(t *testing.T) {
	mem := transport.NewMemory()
	m := NewView(mem, owner, "chan", "guild", TypeText)
	m.Registry = registry.New()
	require.NoError(t, m.AddPages(textPages("alpha", "beta")...))
	require.NoError(t, m.AddButton(button.ViewNext()))

	startAndWait(t, mem, func() error { return m.Start(context.Background()) })
	defer m.Stop(context.Background())

	detour := &button.ViewButton{
		Style:    discordgo.PrimaryButton,
		Label:    "Info",
		Action:   button.ActionCustomEmbed,
		Followup: &button.Followup{Embed: &discordgo.MessageEmbed{Title: "detour"}},
	}
	var unsupported *button.ErrUnsupportedAction
	err := m.Update(context.Background(), nil, []*button.ViewButton{button.ViewNext(), detour})
	require.ErrorAs(t, err, &unsupported)
}

func TestViewGoToPagePromptAbandonsOnFirstInvalidReply(t *testing.T) {
	mem := transport.NewMemory()
	m := newTestViewMenu(t, mem, "one", "two", "three")
	m.DeleteInteractions = true
	goTo := button.ViewGoToPage()
	require.NoError(t, m.AddButton(goTo))

	msgID := startAndWait(t, mem, func() error { return m.Start(context.Background()) })
	defer m.Stop(context.Background())

	mem.Press(msgID, goTo.CustomID(), owner)
	waitUntil(t, "prompt message", func() bool { return len(mem.SentMessages()) >= 2 })
	promptID := mem.SentMessages()[1]
	waitUntil(t, "reply wait", func() bool { return mem.PendingWaits() > 0 })

	// The first reply settles the prompt; a later valid reply must not
	// navigate.
	mem.PostReply("chan", owner, "not a number")
	waitUntil(t, "abandoned prompt cleanup", func() bool { return mem.Deleted(promptID) })
	mem.PostReply("chan", owner, "3")
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 0, mem.EditCount(msgID))
	assert.Equal(t, "one", currentTitle(t, mem, msgID))
}

func TestViewLinkButtonIsRenderedButNeverDispatched(t *testing.T) {
	mem := transport.NewMemory()
	m := newTestViewMenu(t, mem, "one")
	link := &button.ViewButton{Label: "Docs", URL: "https://example.com/docs"}
	require.NoError(t, m.AddButtons(button.ViewNext(), link))

	msgID := startAndWait(t, mem, func() error { return m.Start(context.Background()) })
	defer m.Stop(context.Background())

	c, ok := mem.LastContent(msgID)
	require.True(t, ok)
	assert.Equal(t, 2, componentCount(c))
	assert.Empty(t, link.CustomID())
}
