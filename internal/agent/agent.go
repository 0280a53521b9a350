// Package agent watches selections on a page, sends each capture to the
// relay and shows the answer as a temporary tooltip.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aashari/go-selection-relay/internal/channel"
	"github.com/aashari/go-selection-relay/internal/imaging"
	"github.com/aashari/go-selection-relay/internal/logger"
	"github.com/aashari/go-selection-relay/internal/page"
	"github.com/aashari/go-selection-relay/internal/relay"
)

const component = "PageAgent"

// TooltipTTL is how long an answer stays in a title attribute
const TooltipTTL = 7 * time.Second

var (
	// ErrNoAnchor is reported when a selection has no enclosing element
	ErrNoAnchor = errors.New("agent: selection has no anchor element")

	errClipboardUnsupported = errors.New("agent: clipboard is not supported on this system")
)

// Dispatcher sends a request across the context boundary and waits for its reply
type Dispatcher interface {
	Send(ctx context.Context, req channel.Request) (channel.Response, error)
}

// Clipboard is the system clipboard
type Clipboard interface {
	WriteAll(text string) error
}

// Scheduler runs f once after d
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

// ImageSource turns an image src into a data URI
type ImageSource interface {
	Materialize(ctx context.Context, res imaging.Resources, src string) (string, error)
}

// Agent handles pointer releases on one or more pages
type Agent struct {
	dispatcher Dispatcher
	clipboard  Clipboard
	scheduler  Scheduler
	images     ImageSource
	ttl        time.Duration

	seq    atomic.Uint64
	mu     sync.Mutex
	latest map[*page.Node]uint64
}

// Option configures an Agent
type Option func(*Agent)

// WithClipboard replaces the system clipboard
func WithClipboard(c Clipboard) Option {
	return func(a *Agent) { a.clipboard = c }
}

// WithScheduler replaces the timer based scheduler
func WithScheduler(s Scheduler) Option {
	return func(a *Agent) { a.scheduler = s }
}

// WithImageSource sets how selected images are materialized. Without one,
// images are ignored.
func WithImageSource(src ImageSource) Option {
	return func(a *Agent) { a.images = src }
}

// New creates an agent sending through d
func New(d Dispatcher, opts ...Option) *Agent {
	a := &Agent{
		dispatcher: d,
		clipboard:  SystemClipboard{},
		scheduler:  SystemScheduler{},
		ttl:        TooltipTTL,
		latest:     make(map[*page.Node]uint64),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Capture extracts text and image from sel. It reports false when both are
// empty, in which case nothing should be sent.
func (a *Agent) Capture(ctx context.Context, sel *page.Selection) (relay.Capture, bool) {
	capture := relay.Capture{Text: sel.Text()}

	if src, ok := sel.Image(); ok && a.images != nil {
		dataURI, err := a.images.Materialize(ctx, sel.Document(), src)
		if err != nil {
			logger.WarnCtx(ctx, "Image capture failed, continuing without image",
				"request_url", src,
				"error", err,
			)
		} else {
			capture.Image = dataURI
		}
	}

	return capture, !capture.Empty()
}

// OnPointerRelease handles one release event. Only a failure to deliver the
// request is returned; relay errors and UI problems are logged.
func (a *Agent) OnPointerRelease(ctx context.Context, sel *page.Selection) error {
	ctx = logger.WithComponent(ctx, component)

	capture, ok := a.Capture(ctx, sel)
	if !ok {
		return nil
	}

	anchor := sel.Anchor()
	seq := a.seq.Add(1)
	a.track(anchor, seq)
	ctx = logger.WithSequence(ctx, seq)

	resp, err := a.dispatcher.Send(ctx, channel.Request{
		Action:   channel.ActionProcessText,
		Text:     capture.Text,
		Image:    capture.Image,
		Sequence: seq,
	})
	current := a.settle(anchor, seq)
	if err != nil {
		return fmt.Errorf("failed to dispatch capture %d: %w", seq, err)
	}

	if resp.IsError() {
		logger.InfoCtx(ctx, "Relay did not answer", "response_error", resp.Error)
		return nil
	}
	if !current {
		logger.InfoCtx(ctx, "Discarding stale reply")
		return nil
	}

	answer := resp.Text()
	if answer == "" {
		logger.DebugCtx(ctx, "Empty answer, nothing to show")
		return nil
	}
	a.apply(ctx, sel, anchor, answer)
	return nil
}

// Run handles every selection from events until the channel closes or ctx
// is done. Releases are handled concurrently; Run returns once all of them
// have completed.
func (a *Agent) Run(ctx context.Context, events <-chan *page.Selection) {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case sel, ok := <-events:
			if !ok {
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := a.OnPointerRelease(ctx, sel); err != nil {
					logger.LogError(ctx, component, err, nil)
				}
			}()
		}
	}
}

// track records seq as the newest request for anchor
func (a *Agent) track(anchor *page.Node, seq uint64) {
	if anchor == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if seq > a.latest[anchor] {
		a.latest[anchor] = seq
	}
}

// settle reports whether seq is still the newest request for anchor. The
// newest request drops the anchor's entry, after which any older reply still
// in flight finds no match and counts as stale.
func (a *Agent) settle(anchor *page.Node, seq uint64) bool {
	if anchor == nil {
		return true
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.latest[anchor] != seq {
		return false
	}
	delete(a.latest, anchor)
	return true
}
