package relay

import "github.com/aashari/go-selection-relay/internal/settings"

// Envelope is the JSON body posted to the inference service. Field names are
// part of the remote contract, including the capitalised Prompt and Questions.
type Envelope struct {
	Mode      string  `json:"mode"`
	APIKey    string  `json:"apiKey"`
	Prompt    string  `json:"Prompt"`
	Questions string  `json:"Questions"`
	Text      string  `json:"text"`
	Image     *string `json:"image,omitempty"`
}

// NewEnvelope combines a configuration snapshot with a capture. The image key
// is only set when the capture carries image data.
func NewEnvelope(cfg settings.ExtensionConfig, capture Capture) Envelope {
	env := Envelope{
		Mode:      string(cfg.Mode),
		APIKey:    cfg.APIKey,
		Prompt:    cfg.Prompt(),
		Questions: cfg.Questions(),
		Text:      capture.Text,
	}
	if capture.HasImage() {
		image := capture.Image
		env.Image = &image
	}
	return env
}
