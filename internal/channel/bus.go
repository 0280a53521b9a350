package channel

import (
	"context"
	"errors"
	"sync"

	"github.com/aashari/go-selection-relay/internal/logger"
)

// ErrClosed is returned by Send once the bus is closed
var ErrClosed = errors.New("channel: bus closed")

type envelope struct {
	ctx   context.Context
	req   Request
	reply chan Response
}

// Bus is an in-process request/response channel between the agent and the
// relay. Every Send gets its own reply slot, so replies are never shared and
// never delivered twice.
type Bus struct {
	requests  chan envelope
	done      chan struct{}
	closeOnce sync.Once
}

// NewBus creates a bus with room for buffer pending requests
func NewBus(buffer int) *Bus {
	return &Bus{
		requests: make(chan envelope, buffer),
		done:     make(chan struct{}),
	}
}

// Send enqueues req and blocks until the reply arrives
func (b *Bus) Send(ctx context.Context, req Request) (Response, error) {
	env := envelope{ctx: ctx, req: req, reply: make(chan Response, 1)}

	select {
	case b.requests <- env:
	case <-b.done:
		return Response{}, ErrClosed
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}

	select {
	case resp := <-env.reply:
		return resp, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

// Serve answers requests until ctx is done or the bus is closed. Each request
// runs on its own goroutine: requests are independent and unordered.
func (b *Bus) Serve(ctx context.Context, h Handler) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case env := <-b.requests:
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.dispatch(env, h)
			}()
		case <-b.done:
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (b *Bus) dispatch(env envelope, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorCtx(env.ctx, "Message handler panicked", "panic", r, "action", env.req.Action)
			env.reply <- Failure("Failed to process request.")
		}
	}()
	env.reply <- h.HandleMessage(env.ctx, env.req)
}

// Close stops Serve and makes further Sends fail
func (b *Bus) Close() {
	b.closeOnce.Do(func() { close(b.done) })
}
