package log

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
)

var (
	mu           sync.Mutex
	session      *discordgo.Session
	logChannelID string
	ready        = make(chan struct{})
)

// Init routes log output to a Discord channel in addition to the console.
// Without Init the package logs to the console only.
func Init(s *discordgo.Session, channelID string) {
	mu.Lock()
	defer mu.Unlock()
	session = s
	logChannelID = channelID
	// Use a handler to know when the session is ready.
	s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		close(ready)
	})
	log.SetOutput(&discordWriter{})
	log.SetFlags(0)
}

// Post sends a message to the log channel if one is configured.
func Post(msg string) {
	mu.Lock()
	s, ch := session, logChannelID
	mu.Unlock()
	if s != nil && ch != "" {
		<-ready
		s.ChannelMessageSend(ch, msg)
	}
}

// Error logs an error with the caller's location.
func Error(context string, err error) {
	log.Printf("[ERROR] in %s: %s\n%v\n", callerInfo(), context, err)
}

// Warn logs a non-fatal problem, used for failures in user-supplied
// callbacks that must not take the session down.
func Warn(context string, err error) {
	log.Printf("[WARN] in %s: %s\n%v\n", callerInfo(), context, err)
}

// Fatal logs an error and then exits the program.
func Fatal(context string, err error) {
	Error(context, err)
	os.Exit(1)
}

func callerInfo() string {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return "unknown"
	}
	parts := strings.Split(file, "/")
	if len(parts) > 2 {
		file = strings.Join(parts[len(parts)-2:], "/")
	}
	return fmt.Sprintf("%s:%d", file, line)
}

// discordWriter mirrors console output to the log channel.
type discordWriter struct{}

func (w *discordWriter) Write(p []byte) (n int, err error) {
	msg := string(p)
	fmt.Print(msg)
	mu.Lock()
	s, ch := session, logChannelID
	mu.Unlock()
	if s != nil && ch != "" {
		if len(msg) > 1900 {
			msg = msg[:1900] + "..."
		}
		go Post("```\n" + msg + "```")
	}
	return len(p), nil
}
