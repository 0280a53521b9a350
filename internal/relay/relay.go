// Package relay holds the configuration and credentials and performs the one
// outbound call to the inference service per capture.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aashari/go-selection-relay/internal/channel"
	"github.com/aashari/go-selection-relay/internal/logger"
	"github.com/aashari/go-selection-relay/internal/settings"
	"github.com/aashari/go-selection-relay/internal/store"
	"github.com/aashari/go-selection-relay/internal/utils"
)

const component = "Relay"

// maxResponseSize bounds how much of the service reply is read
const maxResponseSize = 10 * 1024 * 1024

// Recorder receives one call per handled capture
type Recorder interface {
	RecordResult(kind, mode string, upstream time.Duration)
}

// Relay turns captures into results
type Relay struct {
	store      store.Store
	client     *http.Client
	defaultURL string
	recorder   Recorder
}

// Option configures a Relay
type Option func(*Relay)

// WithHTTPClient sets the client used for the outbound call
func WithHTTPClient(client *http.Client) Option {
	return func(r *Relay) {
		r.client = client
	}
}

// WithDefaultURL overrides the service URL used when none is stored
func WithDefaultURL(url string) Option {
	return func(r *Relay) {
		r.defaultURL = url
	}
}

// WithRecorder reports every result to rec
func WithRecorder(rec Recorder) Option {
	return func(r *Relay) {
		r.recorder = rec
	}
}

// New creates a relay reading its configuration from st
func New(st store.Store, opts ...Option) *Relay {
	r := &Relay{
		store:      st,
		client:     http.DefaultClient,
		defaultURL: settings.DefaultServiceURL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle runs one capture through the pipeline. It never returns an error:
// every problem is logged and reported as a generic Failure.
func (r *Relay) Handle(ctx context.Context, capture Capture) Result {
	ctx = logger.WithComponent(ctx, component)

	cfg, err := settings.Load(ctx, r.store)
	if err != nil {
		logger.LogError(ctx, component, err, map[string]any{"stage": "load_config"})
		return r.record(failed(), "", 0)
	}

	if !cfg.Enabled() {
		logger.InfoCtx(ctx, "Extension disabled, skipping request")
		return r.record(Disabled{}, string(cfg.Mode), 0)
	}

	envelope := NewEnvelope(cfg, capture)
	url := cfg.ResolvedURL(r.defaultURL)

	start := time.Now()
	message, err := r.call(ctx, url, envelope)
	elapsed := time.Since(start)
	if err != nil {
		logger.LogError(ctx, component, err, map[string]any{
			"request_url":  url,
			"request_mode": envelope.Mode,
			"has_image":    capture.HasImage(),
			"duration_ms":  elapsed.Milliseconds(),
		})
		return r.record(failed(), envelope.Mode, elapsed)
	}

	logger.LogMultipleData(ctx, logger.LevelInfo, "Inference service answered", map[string]any{
		"request_url":            url,
		"request_mode":           envelope.Mode,
		"response_message_bytes": len(message),
		"response_duration_ms":   elapsed.Milliseconds(),
	})
	return r.record(Answer{Text: message}, envelope.Mode, elapsed)
}

func (r *Relay) call(ctx context.Context, url string, envelope Envelope) (string, error) {
	body, err := json.Marshal(envelope)
	if err != nil {
		return "", fmt.Errorf("failed to encode envelope: %w", err)
	}

	// Logged as a generic map so the api key is masked and the image truncated
	var logged map[string]interface{}
	_ = json.Unmarshal(body, &logged)
	logger.LogMultipleData(ctx, logger.LevelDebug, "Posting envelope", map[string]any{
		"request_url":  url,
		"request_body": logged,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(utils.HeaderContentType, utils.ContentTypeJSON)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("inference service unreachable: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("inference service returned status %d: %s", resp.StatusCode, string(data))
	}

	var decoded struct {
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if decoded.Message == nil {
		return "", nil
	}
	return *decoded.Message, nil
}

func (r *Relay) record(result Result, mode string, upstream time.Duration) Result {
	if r.recorder != nil {
		r.recorder.RecordResult(result.Kind(), mode, upstream)
	}
	return result
}

// HandleMessage adapts the relay to the message channel
func (r *Relay) HandleMessage(ctx context.Context, req channel.Request) channel.Response {
	if req.Action != channel.ActionProcessText {
		logger.WarnCtx(ctx, "Unsupported action", "action", req.Action)
		return channel.Failure(ReasonUnsupportedAction)
	}
	if req.Sequence != 0 {
		ctx = logger.WithSequence(ctx, req.Sequence)
	}

	switch res := r.Handle(ctx, Capture{Text: req.Text, Image: req.Image}).(type) {
	case Answer:
		return channel.Answer(res.Text)
	case Disabled:
		return channel.Failure(ReasonDisabled)
	case Failure:
		return channel.Failure(res.Reason)
	default:
		return channel.Failure(ReasonFailed)
	}
}
