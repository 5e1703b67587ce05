package cache

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	// LogsKey is the list of recent log lines mirrored into Redis.
	LogsKey = keyPrefix + "logs"
	maxLogs = 100
)

// LogWriter is an io.Writer that mirrors log output into Redis before
// passing it on to the next writer in the chain.
type LogWriter struct {
	client *Client
	next   io.Writer
}

// NewLogWriter creates a log writer backed by the cache client. Output is
// forwarded to next after being mirrored.
func NewLogWriter(client *Client, next io.Writer) *LogWriter {
	return &LogWriter{client: client, next: next}
}

// RecentLogs returns up to n of the most recent mirrored log lines, newest
// first.
func (c *Client) RecentLogs(ctx context.Context, n int64) ([]string, error) {
	lines, err := c.rdb.LRange(ctx, LogsKey, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("could not read mirrored logs: %w", err)
	}
	return lines, nil
}

// Write implements io.Writer.
func (lw *LogWriter) Write(p []byte) (n int, err error) {
	// The log package appends a newline; trim it for the list entry.
	entry := strings.TrimRight(string(p), "\n")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := lw.client.addToList(ctx, LogsKey, entry, maxLogs); err != nil {
		// Write the failure downstream only, to avoid a loop.
		_, _ = fmt.Fprintf(lw.next, "[ERROR] could not mirror log to cache: %v\n", err)
	}

	return lw.next.Write(p)
}
