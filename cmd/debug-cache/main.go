// Command debug-cache prints the session events and mirrored log lines
// currently held in Redis.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/quillmoor/discord-paginator/cache"
	"github.com/quillmoor/discord-paginator/config"
)

func main() {
	cfg, err := config.LoadAllConfigs()
	if err != nil {
		log.Fatalf("Fatal error loading config: %v", err)
	}

	client, err := cache.New(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}
	if client == nil {
		log.Fatal("Cache is not configured; set a redis address in redis.json")
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	events, err := client.RecentEvents(ctx, 50)
	if err != nil {
		log.Fatalf("Failed to read session events: %v", err)
	}

	fmt.Printf("\n--- Session Events (%d) ---\n", len(events))
	for _, e := range events {
		line := fmt.Sprintf("  %s  %-18s", e.Time.Format(time.RFC3339), e.Kind)
		if e.MenuName != "" {
			line += fmt.Sprintf("  menu=%s", e.MenuName)
		}
		if e.MemberName != "" {
			line += fmt.Sprintf("  member=%s", e.MemberName)
		}
		if e.ButtonKey != "" {
			line += fmt.Sprintf("  button=%s", e.ButtonKey)
		}
		fmt.Println(line)
	}

	logs, err := client.RecentLogs(ctx, 50)
	if err != nil {
		log.Fatalf("Failed to read mirrored logs: %v", err)
	}

	fmt.Printf("\n--- Mirrored Logs (%d) ---\n", len(logs))
	for _, entry := range logs {
		fmt.Printf("  %s\n", entry)
	}
}
