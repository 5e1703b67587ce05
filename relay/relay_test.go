package relay

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillmoor/discord-paginator/button"
	"github.com/quillmoor/discord-paginator/transport"
)

func press(b Control, userID string) Payload {
	return Payload{
		Member: transport.User{ID: userID, Username: "user-" + userID},
		Button: b,
		Time:   time.Now(),
	}
}

func TestDispatchDeliversToHandler(t *testing.T) {
	var mu sync.Mutex
	var got []Payload
	done := make(chan struct{}, 8)

	d := NewDispatcher(func(p Payload) {
		mu.Lock()
		got = append(got, p)
		mu.Unlock()
		done <- struct{}{}
	})
	defer d.Close()

	btn := button.Next()
	d.Dispatch(press(btn, "u1"))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler was not invoked")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, "u1", got[0].Member.ID)
	assert.Equal(t, btn.Key(), got[0].Button.Key())
}

func TestFilterDropsRejectedPresses(t *testing.T) {
	var mu sync.Mutex
	var got []string
	done := make(chan struct{}, 8)

	d := NewDispatcher(
		func(p Payload) {
			mu.Lock()
			got = append(got, p.Member.ID)
			mu.Unlock()
			done <- struct{}{}
		},
		WithFilter(func(p Payload) bool { return p.Member.ID == "owner" }),
	)
	defer d.Close()

	d.Dispatch(press(button.Next(), "stranger"))
	d.Dispatch(press(button.Next(), "owner"))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("allowed press was not delivered")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"owner"}, got)
}

func TestCloseWaitsForInFlightHandlers(t *testing.T) {
	started := make(chan struct{})
	var finished bool
	var mu sync.Mutex

	d := NewDispatcher(func(p Payload) {
		close(started)
		time.Sleep(50 * time.Millisecond)
		mu.Lock()
		finished = true
		mu.Unlock()
	})

	d.Dispatch(press(button.Next(), "u1"))
	<-started
	d.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, finished)
}

func TestDispatchAfterCloseIsDropped(t *testing.T) {
	d := NewDispatcher(func(p Payload) {
		t.Error("handler should not run after Close")
	})
	d.Close()
	d.Dispatch(press(button.Next(), "u1"))
	time.Sleep(20 * time.Millisecond)
}

func TestPanickingHandlerDoesNotKillWorkers(t *testing.T) {
	done := make(chan struct{}, 2)
	d := NewDispatcher(func(p Payload) {
		if p.Member.ID == "boom" {
			done <- struct{}{}
			panic("handler bug")
		}
		done <- struct{}{}
	}, WithWorkers(1))
	defer d.Close()

	d.Dispatch(press(button.Next(), "boom"))
	d.Dispatch(press(button.Next(), "ok"))

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("worker died after panic")
		}
	}
}
