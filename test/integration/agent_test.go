package integration

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aashari/go-selection-relay/internal/agent"
	"github.com/aashari/go-selection-relay/internal/channel"
	"github.com/aashari/go-selection-relay/internal/page"
	"github.com/aashari/go-selection-relay/test/helpers"
)

type memoryClipboard struct {
	mu   sync.Mutex
	text string
}

func (c *memoryClipboard) WriteAll(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
	return nil
}

type manualScheduler struct {
	mu    sync.Mutex
	tasks []func()
}

func (s *manualScheduler) AfterFunc(_ time.Duration, f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, f)
}

func (s *manualScheduler) fire() {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = nil
	s.mu.Unlock()
	for _, f := range tasks {
		f()
	}
}

// The agent talks to the relay server over HTTP and applies the answer
func TestAgentOverHTTP(t *testing.T) {
	ts := helpers.SetupTestServer(t)
	defer ts.Teardown()

	doc, err := page.Parse(strings.NewReader(`<html><body><p id="q">Capital of France?</p></body></html>`), "https://quiz.example.com/")
	require.NoError(t, err)

	clip := &memoryClipboard{}
	sched := &manualScheduler{}
	a := agent.New(channel.NewHTTPSender(ts.URL(), ts.Client()),
		agent.WithClipboard(clip),
		agent.WithScheduler(sched),
	)

	sel := doc.Select("#q")
	anchor := sel.Anchor()
	require.NoError(t, a.OnPointerRelease(context.Background(), sel))

	assert.Equal(t, "echo:Capital of France?", anchor.Title())
	assert.Equal(t, "echo:Capital of France?", doc.Body().Title())
	assert.Equal(t, "echo:Capital of France?", clip.text)
	assert.Nil(t, doc.Active())

	sched.fire()
	assert.Equal(t, "", anchor.Title())
	assert.Equal(t, "", doc.Body().Title())
}
