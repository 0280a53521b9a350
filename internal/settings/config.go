// Package settings models the extension configuration held in the store and
// the editor that writes it.
package settings

import (
	"context"
	"fmt"

	"github.com/aashari/go-selection-relay/internal/store"
)

// Status toggles the whole pipeline
type Status string

const (
	StatusOn  Status = "on"
	StatusOff Status = "off"
)

// Mode selects the prompt profile
type Mode string

const (
	ModeMCQ   Mode = "mcq"
	ModeImage Mode = "image"
)

// Modes lists every supported mode
var Modes = []Mode{ModeMCQ, ModeImage}

// Resolve maps anything unknown or empty to mcq
func (m Mode) Resolve() Mode {
	if m == ModeImage {
		return ModeImage
	}
	return ModeMCQ
}

// Store keys
const (
	KeyStatus = "status"
	KeyMode   = "mode"
	KeyURL    = "url"
	KeyAPIKey = "apiKey"
)

// PromptKey is the store key of the custom prompt for a mode
func PromptKey(mode Mode) string {
	return "customPrompt" + string(mode)
}

// QuestionsKey is the store key of the demo questions for a mode
func QuestionsKey(mode Mode) string {
	return "demoQuestions" + string(mode)
}

// Keys returns every key the extension configuration is made of
func Keys() []string {
	keys := []string{KeyStatus, KeyMode, KeyURL, KeyAPIKey}
	for _, m := range Modes {
		keys = append(keys, PromptKey(m), QuestionsKey(m))
	}
	return keys
}

// ExtensionConfig is one snapshot of the stored configuration
type ExtensionConfig struct {
	Status        Status
	Mode          Mode
	URL           string
	APIKey        string
	Prompts       map[Mode]string
	DemoQuestions map[Mode]string
}

// Load reads the full configuration with a single Get. Nothing is cached, so
// every call observes the last completed write.
func Load(ctx context.Context, st store.Store) (ExtensionConfig, error) {
	values, err := st.Get(ctx, Keys())
	if err != nil {
		return ExtensionConfig{}, fmt.Errorf("failed to read configuration: %w", err)
	}

	cfg := ExtensionConfig{
		Status:        StatusOn,
		Mode:          Mode(values[KeyMode]).Resolve(),
		URL:           values[KeyURL],
		APIKey:        values[KeyAPIKey],
		Prompts:       make(map[Mode]string, len(Modes)),
		DemoQuestions: make(map[Mode]string, len(Modes)),
	}
	if Status(values[KeyStatus]) == StatusOff {
		cfg.Status = StatusOff
	}
	for _, m := range Modes {
		cfg.Prompts[m] = values[PromptKey(m)]
		cfg.DemoQuestions[m] = values[QuestionsKey(m)]
	}
	return cfg, nil
}

// Enabled reports whether the status is on
func (c ExtensionConfig) Enabled() bool {
	return c.Status != StatusOff
}

// Prompt returns the stored prompt of the active mode, possibly empty
func (c ExtensionConfig) Prompt() string {
	return c.Prompts[c.Mode]
}

// Questions returns the stored demo questions of the active mode, possibly empty
func (c ExtensionConfig) Questions() string {
	return c.DemoQuestions[c.Mode]
}

// ResolvedURL returns the stored url or fallback when it is empty
func (c ExtensionConfig) ResolvedURL(fallback string) string {
	if c.URL == "" {
		return fallback
	}
	return c.URL
}
