package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aashari/go-selection-relay/internal/channel"
	"github.com/aashari/go-selection-relay/internal/store"
)

// service is a fake inference endpoint recording every body it receives
type service struct {
	server *httptest.Server
	calls  atomic.Int32

	mu          sync.Mutex
	bodies      []map[string]interface{}
	contentType string
}

func newService(t *testing.T, status int, reply string) *service {
	t.Helper()
	s := &service{}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		data, _ := io.ReadAll(r.Body)
		var body map[string]interface{}
		assert.NoError(t, json.Unmarshal(data, &body))

		s.mu.Lock()
		s.bodies = append(s.bodies, body)
		s.contentType = r.Header.Get("Content-Type")
		s.mu.Unlock()

		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(s.server.Close)
	return s
}

func (s *service) lastBody(t *testing.T) map[string]interface{} {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.bodies)
	return s.bodies[len(s.bodies)-1]
}

type recordedResult struct {
	kind     string
	mode     string
	upstream time.Duration
}

type fakeRecorder struct {
	results []recordedResult
}

func (f *fakeRecorder) RecordResult(kind, mode string, upstream time.Duration) {
	f.results = append(f.results, recordedResult{kind, mode, upstream})
}

type failingStore struct{}

func (failingStore) Get(context.Context, []string) (map[string]string, error) {
	return nil, errors.New("storage unavailable")
}

func (failingStore) Set(context.Context, map[string]string) error {
	return errors.New("storage unavailable")
}

func TestHandle_DisabledMakesNoNetworkCall(t *testing.T) {
	svc := newService(t, http.StatusOK, `{"message":"B"}`)
	st := store.NewMemory(map[string]string{
		"status":          "off",
		"url":             svc.server.URL,
		"apiKey":          "K",
		"customPromptmcq": "X",
	})

	result := New(st).Handle(context.Background(), Capture{Text: "question"})

	assert.Equal(t, Disabled{}, result)
	assert.Equal(t, int32(0), svc.calls.Load())
}

func TestHandle_Answer(t *testing.T) {
	svc := newService(t, http.StatusOK, `{"message":"B"}`)
	st := store.NewMemory(map[string]string{"status": "on", "url": svc.server.URL})

	result := New(st).Handle(context.Background(), Capture{Text: "A"})

	assert.Equal(t, Answer{Text: "B"}, result)
	assert.Equal(t, int32(1), svc.calls.Load())
	assert.Equal(t, "application/json", svc.contentType)
	assert.Equal(t, "A", svc.lastBody(t)["text"])
}

func TestHandle_MissingMessageIsEmptyAnswer(t *testing.T) {
	svc := newService(t, http.StatusOK, `{"other":"field"}`)
	st := store.NewMemory(map[string]string{"url": svc.server.URL})

	result := New(st).Handle(context.Background(), Capture{Text: "A"})

	assert.Equal(t, Answer{Text: ""}, result)
}

func TestHandle_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		reply  string
	}{
		{name: "server error", status: http.StatusInternalServerError, reply: `{"message":"B"}`},
		{name: "client error", status: http.StatusBadRequest, reply: `{"error":"bad"}`},
		{name: "malformed body", status: http.StatusOK, reply: `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(t, tt.status, tt.reply)
			st := store.NewMemory(map[string]string{"url": svc.server.URL})

			result := New(st).Handle(context.Background(), Capture{Text: "A"})

			assert.Equal(t, Failure{Reason: ReasonFailed}, result)
			assert.Equal(t, int32(1), svc.calls.Load(), "exactly one attempt, no retries")
		})
	}
}

func TestHandle_TransportFailure(t *testing.T) {
	svc := newService(t, http.StatusOK, `{}`)
	url := svc.server.URL
	svc.server.Close()

	st := store.NewMemory(map[string]string{"url": url})
	result := New(st).Handle(context.Background(), Capture{Text: "A"})

	assert.Equal(t, Failure{Reason: ReasonFailed}, result)
}

func TestHandle_StoreFailure(t *testing.T) {
	rec := &fakeRecorder{}
	result := New(failingStore{}, WithRecorder(rec)).Handle(context.Background(), Capture{Text: "A"})

	assert.Equal(t, Failure{Reason: ReasonFailed}, result)
	require.Len(t, rec.results, 1)
	assert.Equal(t, KindFailure, rec.results[0].kind)
	assert.Zero(t, rec.results[0].upstream)
}

func TestHandle_ImageKeyPresence(t *testing.T) {
	svc := newService(t, http.StatusOK, `{"message":"ok"}`)
	st := store.NewMemory(map[string]string{"url": svc.server.URL})
	r := New(st)

	r.Handle(context.Background(), Capture{Text: "no image"})
	_, present := svc.lastBody(t)["image"]
	assert.False(t, present, "image key must be absent, not null")

	r.Handle(context.Background(), Capture{Image: "data:image/png;base64,AAAA"})
	body := svc.lastBody(t)
	assert.Equal(t, "data:image/png;base64,AAAA", body["image"])
	assert.Equal(t, "", body["text"])
}

func TestHandle_PromptIsNotDefaulted(t *testing.T) {
	svc := newService(t, http.StatusOK, `{"message":"ok"}`)

	st := store.NewMemory(map[string]string{
		"mode":            "mcq",
		"url":             svc.server.URL,
		"customPromptmcq": "X",
	})
	New(st).Handle(context.Background(), Capture{Text: "q"})
	assert.Equal(t, "X", svc.lastBody(t)["Prompt"])

	st = store.NewMemory(map[string]string{"mode": "mcq", "url": svc.server.URL})
	New(st).Handle(context.Background(), Capture{Text: "q"})
	body := svc.lastBody(t)
	assert.Equal(t, "", body["Prompt"])
	assert.Equal(t, "", body["Questions"])
}

func TestHandle_EnvelopeFields(t *testing.T) {
	svc := newService(t, http.StatusOK, `{"message":"ok"}`)
	st := store.NewMemory(map[string]string{
		"mode":               "image",
		"url":                svc.server.URL,
		"apiKey":             "K",
		"customPromptimage":  "extract",
		"demoQuestionsimage": "sample",
		"customPromptmcq":    "not used",
	})

	New(st).Handle(context.Background(), Capture{Text: "t"})

	body := svc.lastBody(t)
	assert.Equal(t, "image", body["mode"])
	assert.Equal(t, "K", body["apiKey"])
	assert.Equal(t, "extract", body["Prompt"])
	assert.Equal(t, "sample", body["Questions"])
}

func TestHandle_DefaultURLWhenUnset(t *testing.T) {
	svc := newService(t, http.StatusOK, `{"message":"B"}`)
	st := store.NewMemory(map[string]string{"status": "on"})

	result := New(st, WithDefaultURL(svc.server.URL)).Handle(context.Background(), Capture{Text: "A"})

	assert.Equal(t, Answer{Text: "B"}, result)
	assert.Equal(t, int32(1), svc.calls.Load())
}

func TestHandle_RecordsResults(t *testing.T) {
	svc := newService(t, http.StatusOK, `{"message":"B"}`)
	rec := &fakeRecorder{}

	New(store.NewMemory(map[string]string{"url": svc.server.URL}), WithRecorder(rec)).
		Handle(context.Background(), Capture{Text: "A"})
	New(store.NewMemory(map[string]string{"status": "off"}), WithRecorder(rec)).
		Handle(context.Background(), Capture{Text: "A"})

	require.Len(t, rec.results, 2)
	assert.Equal(t, KindAnswer, rec.results[0].kind)
	assert.Equal(t, "mcq", rec.results[0].mode)
	assert.Equal(t, KindDisabled, rec.results[1].kind)
	assert.Zero(t, rec.results[1].upstream)
}

func TestHandleMessage(t *testing.T) {
	svc := newService(t, http.StatusOK, `{"message":"B"}`)

	t.Run("answer", func(t *testing.T) {
		r := New(store.NewMemory(map[string]string{"url": svc.server.URL}))
		resp := r.HandleMessage(context.Background(), channel.Request{Action: channel.ActionProcessText, Text: "A"})
		assert.False(t, resp.IsError())
		assert.Equal(t, "B", resp.Text())
	})

	t.Run("disabled", func(t *testing.T) {
		r := New(store.NewMemory(map[string]string{"status": "off"}))
		resp := r.HandleMessage(context.Background(), channel.Request{Action: channel.ActionProcessText, Text: "A"})
		assert.Equal(t, ReasonDisabled, resp.Error)
	})

	t.Run("failure", func(t *testing.T) {
		r := New(failingStore{})
		resp := r.HandleMessage(context.Background(), channel.Request{Action: channel.ActionProcessText, Text: "A"})
		assert.Equal(t, ReasonFailed, resp.Error)
	})

	t.Run("unsupported action", func(t *testing.T) {
		r := New(store.NewMemory(nil))
		resp := r.HandleMessage(context.Background(), channel.Request{Action: "translate", Text: "A"})
		assert.Equal(t, ReasonUnsupportedAction, resp.Error)
	})
}
