package agent

import (
	"context"
	"time"

	"github.com/atotto/clipboard"

	"github.com/aashari/go-selection-relay/internal/logger"
	"github.com/aashari/go-selection-relay/internal/page"
)

// step is one best-effort UI side effect
type step struct {
	name string
	run  func() error
}

// apply shows answer on the page. Every step runs regardless of the outcome
// of the previous ones.
func (a *Agent) apply(ctx context.Context, sel *page.Selection, anchor *page.Node, answer string) {
	steps := []step{
		{name: "anchor_title", run: func() error { return a.showTooltip(ctx, anchor, answer) }},
		{name: "body_title", run: func() error { return a.showTooltip(ctx, sel.Document().Body(), answer) }},
		{name: "clear_selection", run: func() error {
			sel.RemoveAllRanges()
			return nil
		}},
		{name: "clipboard", run: func() error { return a.clipboard.WriteAll(answer) }},
	}

	for _, s := range steps {
		if err := s.run(); err != nil {
			logger.WarnCtx(ctx, "UI step failed", "step", s.name, "error", err)
			continue
		}
		logger.DebugCtx(ctx, "UI step applied", "step", s.name)
	}
}

// showTooltip sets the title of node and schedules its reset to empty
func (a *Agent) showTooltip(ctx context.Context, node *page.Node, text string) error {
	if node == nil {
		return ErrNoAnchor
	}
	if err := node.SetTitle(text); err != nil {
		return err
	}
	a.scheduler.AfterFunc(a.ttl, func() {
		if err := node.SetTitle(""); err != nil {
			logger.DebugCtx(ctx, "Tooltip reset skipped", "error", err)
		}
	})
	return nil
}

// SystemClipboard writes to the OS clipboard
type SystemClipboard struct{}

// WriteAll copies text to the clipboard
func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return errClipboardUnsupported
	}
	return clipboard.WriteAll(text)
}

// SystemScheduler runs callbacks on timers
type SystemScheduler struct{}

// AfterFunc starts a timer for f
func (SystemScheduler) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}
