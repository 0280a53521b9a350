// Package helpers starts a relay server backed by a fake inference service
// for the integration tests.
package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aashari/go-selection-relay/internal/app"
	"github.com/aashari/go-selection-relay/internal/config"
	"github.com/aashari/go-selection-relay/internal/logger"
	"github.com/aashari/go-selection-relay/internal/utils"
)

// InferenceService is a fake remote service. By default it answers every
// envelope with {"message": Answer(envelope)}.
type InferenceService struct {
	server *httptest.Server
	calls  atomic.Int32

	mu        sync.Mutex
	envelopes []map[string]interface{}
	status    int
	answer    func(envelope map[string]interface{}) string
}

// NewInferenceService starts the fake service; it answers with "echo:<text>"
func NewInferenceService(t *testing.T) *InferenceService {
	t.Helper()
	s := &InferenceService{
		status: http.StatusOK,
		answer: func(envelope map[string]interface{}) string {
			text, _ := envelope["text"].(string)
			return "echo:" + text
		},
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.server.Close)
	return s
}

func (s *InferenceService) handle(w http.ResponseWriter, r *http.Request) {
	s.calls.Add(1)

	var envelope map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.envelopes = append(s.envelopes, envelope)
	status, answer := s.status, s.answer
	s.mu.Unlock()

	w.Header().Set(utils.HeaderContentType, utils.ContentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": answer(envelope)})
}

// URL of the service
func (s *InferenceService) URL() string {
	return s.server.URL
}

// Calls is the number of envelopes received
func (s *InferenceService) Calls() int {
	return int(s.calls.Load())
}

// SetStatus makes every following reply use status
func (s *InferenceService) SetStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// LastEnvelope returns the most recent envelope, nil when none arrived
func (s *InferenceService) LastEnvelope() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.envelopes) == 0 {
		return nil
	}
	return s.envelopes[len(s.envelopes)-1]
}

// TestServer represents a relay server instance with common utilities
type TestServer struct {
	Service *InferenceService

	server     *httptest.Server
	app        *app.App
	httpClient *http.Client
	cancel     context.CancelFunc
	t          *testing.T
}

// SetupTestServer starts the relay with an in-memory store whose default
// service URL points at a fresh fake inference service
func SetupTestServer(t *testing.T) *TestServer {
	t.Helper()

	loggerConfig := logger.DefaultConfig
	loggerConfig.Level = logger.LevelWarn
	loggerConfig.ServiceName = "integration-test"
	loggerConfig.Environment = "test"
	if err := logger.Init(loggerConfig); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	service := NewInferenceService(t)
	cfg := &config.AppConfig{
		ListenAddress:     "127.0.0.1:0",
		StoreBackend:      config.BackendMemory,
		DefaultServiceURL: service.URL(),
		RelayTimeout:      10 * time.Second,
		MaxImageSize:      1024 * 1024,
		BusBuffer:         8,
	}

	application, err := app.NewApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create app: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	application.Start(ctx)

	server := httptest.NewServer(application.SetupRoutes())
	return &TestServer{
		Service:    service,
		server:     server,
		app:        application,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cancel:     cancel,
		t:          t,
	}
}

// Teardown stops the server and the message bus
func (ts *TestServer) Teardown() {
	ts.server.Close()
	ts.cancel()
	if err := ts.app.Close(); err != nil {
		ts.t.Errorf("Failed to close app: %v", err)
	}
}

// URL returns the base URL of the relay server
func (ts *TestServer) URL() string {
	return ts.server.URL
}

// Client returns the HTTP client used by MakeRequest
func (ts *TestServer) Client() *http.Client {
	return ts.httpClient
}

// MakeRequest sends body as JSON and returns the response and its body
func (ts *TestServer) MakeRequest(method, endpoint string, body interface{}, headers map[string]string) (*http.Response, []byte, error) {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.server.URL+endpoint, reader)
	if err != nil {
		return nil, nil, err
	}
	if reader != nil {
		req.Header.Set(utils.HeaderContentType, utils.ContentTypeJSON)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := ts.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, err
	}
	return resp, respBody, nil
}

// AssertStatusCode fails the test when resp has another status
func (ts *TestServer) AssertStatusCode(resp *http.Response, expected int) {
	ts.t.Helper()
	if resp.StatusCode != expected {
		ts.t.Errorf("Expected status code %d, got %d", expected, resp.StatusCode)
	}
}

// AssertJSONResponse decodes body into target
func (ts *TestServer) AssertJSONResponse(body []byte, target interface{}) {
	ts.t.Helper()
	if err := json.Unmarshal(body, target); err != nil {
		ts.t.Fatalf("Failed to parse JSON response: %v\nBody: %s", err, string(body))
	}
}
