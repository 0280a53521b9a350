package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aashari/go-selection-relay/internal/channel"
	"github.com/aashari/go-selection-relay/internal/handlers"
	"github.com/aashari/go-selection-relay/internal/health"
	"github.com/aashari/go-selection-relay/internal/settings"
	"github.com/aashari/go-selection-relay/internal/store"
)

type echoSender struct{}

func (echoSender) Send(_ context.Context, req channel.Request) (channel.Response, error) {
	return channel.Answer(strings.ToUpper(req.Text)), nil
}

func newTestHandler(opts Options) http.Handler {
	st := store.NewMemory(nil)
	checker := health.NewHealthChecker()
	checker.RegisterCheck(health.StoreCheck(st, "memory"))
	return SetupRoutes(handlers.NewAPIHandlers(echoSender{}, settings.NewEditor(st)), checker, opts)
}

func TestSetupRoutes(t *testing.T) {
	handler := newTestHandler(Options{})
	require.NotNil(t, handler)

	testCases := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
	}{
		{name: "health endpoint", method: http.MethodGet, path: "/health", expectedStatus: http.StatusOK},
		{name: "metrics endpoint", method: http.MethodGet, path: "/metrics", expectedStatus: http.StatusOK},
		{name: "settings endpoint", method: http.MethodGet, path: "/v1/settings", expectedStatus: http.StatusOK},
		{name: "messages endpoint", method: http.MethodPost, path: "/v1/messages", body: `{"action":"processText","text":"a"}`, expectedStatus: http.StatusOK},
		{name: "messages wrong method", method: http.MethodGet, path: "/v1/messages", expectedStatus: http.StatusMethodNotAllowed},
		{name: "swagger document", method: http.MethodGet, path: "/swagger/doc.json", expectedStatus: http.StatusOK},
		{name: "unknown route", method: http.MethodGet, path: "/v1/unknown", expectedStatus: http.StatusNotFound},
		{name: "pprof disabled", method: http.MethodGet, path: "/debug/pprof/", expectedStatus: http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, tc.expectedStatus, w.Code)
		})
	}
}

func TestSetupRoutes_MessagesBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(`{"action":"processText","text":"abc"}`))
	w := httptest.NewRecorder()
	newTestHandler(Options{}).ServeHTTP(w, req)

	assert.JSONEq(t, `{"processedText":"ABC"}`, w.Body.String())
}

func TestSetupRoutes_SwaggerDocument(t *testing.T) {
	w := httptest.NewRecorder()
	newTestHandler(Options{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))

	assert.Contains(t, w.Body.String(), `"/v1/messages"`)
	assert.Contains(t, w.Body.String(), `"Selection Relay"`)
}

func TestSetupRoutes_Pprof(t *testing.T) {
	w := httptest.NewRecorder()
	newTestHandler(Options{EnablePprof: true}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
