package channel

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHandler() Handler {
	return HandlerFunc(func(ctx context.Context, req Request) Response {
		return Answer("echo:" + req.Text)
	})
}

func serve(t *testing.T, bus *Bus, h Handler) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = bus.Serve(ctx, h)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestBusRoundTrip(t *testing.T) {
	bus := NewBus(1)
	serve(t, bus, echoHandler())

	resp, err := bus.Send(context.Background(), Request{Action: ActionProcessText, Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "echo:hi", resp.Text())
}

func TestBusRepliesGoToTheirOwnSender(t *testing.T) {
	bus := NewBus(4)
	serve(t, bus, HandlerFunc(func(ctx context.Context, req Request) Response {
		// later requests finish first
		if req.Text == "slow" {
			time.Sleep(20 * time.Millisecond)
		}
		return Answer(req.Text)
	}))

	var wg sync.WaitGroup
	results := make([]string, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text := fmt.Sprintf("req-%d", i)
			if i%2 == 0 {
				text = "slow"
			}
			resp, err := bus.Send(context.Background(), Request{Action: ActionProcessText, Text: text})
			if assert.NoError(t, err) {
				results[i] = resp.Text()
			}
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		if i%2 == 0 {
			assert.Equal(t, "slow", got)
		} else {
			assert.Equal(t, fmt.Sprintf("req-%d", i), got)
		}
	}
}

func TestBusHandlerPanicBecomesFailure(t *testing.T) {
	bus := NewBus(1)
	serve(t, bus, HandlerFunc(func(ctx context.Context, req Request) Response {
		panic("boom")
	}))

	resp, err := bus.Send(context.Background(), Request{Action: ActionProcessText, Text: "x"})
	require.NoError(t, err)
	assert.True(t, resp.IsError())
}

func TestBusSendAfterClose(t *testing.T) {
	bus := NewBus(0)
	bus.Close()
	bus.Close() // idempotent

	_, err := bus.Send(context.Background(), Request{Action: ActionProcessText})
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, bus.Serve(context.Background(), echoHandler()), ErrClosed)
}

func TestBusSendHonorsContext(t *testing.T) {
	bus := NewBus(0) // nobody serving

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := bus.Send(ctx, Request{Action: ActionProcessText})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
