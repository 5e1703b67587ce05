// Command menu-bot is a small demonstration bot that serves paginated menus
// in a Discord channel and publishes session events to Redis.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/quillmoor/discord-paginator/button"
	"github.com/quillmoor/discord-paginator/cache"
	"github.com/quillmoor/discord-paginator/config"
	logger "github.com/quillmoor/discord-paginator/log"
	"github.com/quillmoor/discord-paginator/menu"
	"github.com/quillmoor/discord-paginator/pages"
	"github.com/quillmoor/discord-paginator/registry"
	"github.com/quillmoor/discord-paginator/relay"
	"github.com/quillmoor/discord-paginator/transport"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadAllConfigs()
	if err != nil {
		log.Fatalf("Fatal error loading config: %v", err)
	}

	// 2. Initialize Discord Session
	s, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		log.Fatalf("Error creating Discord session: %v", err)
	}
	s.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsDirectMessageReactions |
		discordgo.IntentMessageContent

	// 3. Initialize Logger
	logger.Init(s, cfg.Discord.LogChannelID)

	// 4. Initialize Cache
	events, err := cache.New(&cfg.Redis)
	if err != nil {
		logger.Error("initializing session event cache", err)
	}
	if events != nil {
		log.SetOutput(cache.NewLogWriter(events, log.Writer()))
	}

	// 5. Wire the pagination transport and relay
	host := transport.NewDiscord(s)
	presses := relay.NewDispatcher(func(p relay.Payload) {
		if events == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := events.PublishEvent(ctx, cache.SessionEvent{
			Kind:       cache.EventButtonPressed,
			MemberID:   p.Member.ID,
			MemberName: p.Member.Username,
			ButtonKey:  p.Button.Key(),
			Time:       p.Time,
		})
		if err != nil {
			logger.Error("publishing button press event", err)
		}
	})

	// One menu per member keeps the demo channel tidy.
	if err := registry.Default().SetLimit(registry.Limit{
		Max:     1,
		Scope:   registry.ScopeMember,
		Message: "You already have a menu open. Close it first.",
	}); err != nil {
		logger.Fatal("configuring session limit", err)
	}

	s.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot {
			return
		}
		switch strings.TrimSpace(m.Content) {
		case "!menu":
			startViewDemo(host, presses, events, m)
		case "!reactionmenu":
			startReactionDemo(host, presses, events, m)
		}
	})

	// 6. Connect to Discord
	if err := s.Open(); err != nil {
		logger.Fatal("opening connection to Discord", err)
	}
	logger.Post("`discord-paginator` demo bot is online")

	// 7. Wait for a shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if events != nil {
		for _, sess := range registry.Default().All() {
			err := events.PublishEvent(ctx, cache.SessionEvent{
				Kind:      cache.EventSessionStopped,
				MenuName:  sess.MenuName(),
				MessageID: sess.MessageID(),
				ChannelID: sess.ChannelID(),
				GuildID:   sess.GuildID(),
			})
			if err != nil {
				logger.Error("publishing session stop event", err)
			}
		}
	}
	if err := registry.Default().StopAll(ctx); err != nil {
		logger.Error("stopping active menu sessions", err)
	}
	presses.Close()
	if events != nil {
		events.Close()
	}
	if err := s.Close(); err != nil {
		logger.Error("closing Discord session", err)
	}
}

func demoPages(n int) []pages.Page {
	out := make([]pages.Page, n)
	for i := range out {
		out[i] = pages.NewEmbed(&discordgo.MessageEmbed{
			Title:       fmt.Sprintf("Demo Page %d", i+1),
			Description: "Use the controls to navigate.",
		})
	}
	return out
}

func publishLifecycle(events *cache.Client, kind, menuName, messageID string, m *discordgo.MessageCreate) {
	if events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := events.PublishEvent(ctx, cache.SessionEvent{
		Kind:       kind,
		MenuName:   menuName,
		MessageID:  messageID,
		ChannelID:  m.ChannelID,
		GuildID:    m.GuildID,
		MemberID:   m.Author.ID,
		MemberName: m.Author.Username,
	})
	if err != nil {
		logger.Error("publishing session lifecycle event", err)
	}
}

func startViewDemo(host transport.Transport, presses *relay.Dispatcher, events *cache.Client, m *discordgo.MessageCreate) {
	owner := transport.User{ID: m.Author.ID, Username: m.Author.Username}
	vm := menu.NewView(host, owner, m.ChannelID, m.GuildID, menu.TypeEmbed)
	vm.Name = "demo"
	vm.Timeout = 2 * time.Minute
	vm.DisableButtonsOnTimeout = true
	vm.Relay = presses
	vm.OnTimeout = func(v *menu.ViewMenu) {
		publishLifecycle(events, cache.EventSessionTimedOut, v.Name, v.MessageID(), m)
	}

	if err := vm.AddPages(demoPages(5)...); err != nil {
		logger.Error("adding demo pages", err)
		return
	}
	if err := vm.AddButtons(button.ViewAllNav()...); err != nil {
		logger.Error("adding demo buttons", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := vm.Start(ctx); err != nil {
		logger.Error("starting view menu", err)
		return
	}
	publishLifecycle(events, cache.EventSessionStarted, vm.Name, vm.MessageID(), m)
}

func startReactionDemo(host transport.Transport, presses *relay.Dispatcher, events *cache.Client, m *discordgo.MessageCreate) {
	owner := transport.User{ID: m.Author.ID, Username: m.Author.Username}
	rm := menu.NewReaction(host, owner, m.ChannelID, m.GuildID, menu.TypeEmbedDynamic)
	rm.Name = "demo"
	rm.Timeout = 2 * time.Minute
	rm.RemoveButtonsOnTimeout = true
	rm.Relay = presses
	rm.OnTimeout = func(r *menu.ReactionMenu) {
		publishLifecycle(events, cache.EventSessionTimedOut, r.Name, r.MessageID(), m)
	}

	if err := rm.SetRowsRequested(5); err != nil {
		logger.Error("configuring demo rows", err)
		return
	}
	for i := 1; i <= 30; i++ {
		if err := rm.AddRow(fmt.Sprintf("entry %02d", i)); err != nil {
			logger.Error("adding demo row", err)
			return
		}
	}
	rm.Dynamic().WrapInCodeblock("txt")
	if err := rm.AddButtons(button.AllNav()...); err != nil {
		logger.Error("adding demo buttons", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := rm.Start(ctx); err != nil {
		logger.Error("starting reaction menu", err)
		return
	}
	publishLifecycle(events, cache.EventSessionStarted, rm.Name, rm.MessageID(), m)
}
