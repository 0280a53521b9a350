package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aashari/go-selection-relay/internal/logger"
	"github.com/aashari/go-selection-relay/internal/utils"
)

// maxLoggedBody caps how much of a response body is kept for logging
const maxLoggedBody = 10240

// RequestCorrelationMiddleware assigns request and correlation ids, stores them
// in the request context and logs the request and its response. Health checks
// are only logged when they fail.
func RequestCorrelationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID, correlationID := extractTrackingIDs(r)

		w.Header().Set(utils.HeaderRequestID, requestID)
		w.Header().Set(utils.HeaderCorrelationID, correlationID)

		ctx := logger.WithRequestID(r.Context(), requestID)
		ctx = context.WithValue(ctx, logger.CorrelationIDKey, correlationID)
		ctx = logger.WithComponent(ctx, "Middleware")

		start := time.Now()
		quiet := r.URL.Path == "/health"

		if !quiet {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				logger.ErrorCtx(ctx, "Failed to read request body", "error", err)
				http.Error(w, "Failed to read request body", http.StatusInternalServerError)
				return
			}
			r.Body.Close()
			r.Body = io.NopCloser(bytes.NewReader(body))
			logRequest(ctx, r, body)
		}

		wrapper := &responseWriterWrapper{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}
		next.ServeHTTP(wrapper, r.WithContext(ctx))

		duration := time.Since(start)
		if !quiet || wrapper.statusCode >= 400 {
			logResponse(ctx, wrapper, duration)
		}
	})
}

// extractTrackingIDs prefers client supplied ids and falls back to generated ones
func extractTrackingIDs(r *http.Request) (requestID, correlationID string) {
	requestID = r.Header.Get(utils.HeaderRequestID)
	if requestID == "" {
		requestID = utils.GenerateRequestID()
	}

	correlationID = r.Header.Get(utils.HeaderCorrelationID)
	if correlationID == "" {
		correlationID = requestID
	}
	return requestID, correlationID
}

func logRequest(ctx context.Context, r *http.Request, body []byte) {
	data := map[string]interface{}{
		"request_method":     r.Method,
		"request_endpoint":   r.URL.Path,
		"request_user_agent": r.Header.Get(utils.HeaderUserAgent),
		"request_client_ip":  getClientIP(r),
	}

	if len(body) > 0 {
		var bodyData interface{}
		if err := json.Unmarshal(body, &bodyData); err == nil {
			data["request_body"] = bodyData
		} else {
			data["request_body"] = "Non-JSON body omitted"
		}
	}

	logger.LogMultipleData(ctx, logger.LevelInfo, "Incoming request", data)
}

func logResponse(ctx context.Context, w *responseWriterWrapper, duration time.Duration) {
	data := map[string]interface{}{
		"response_status_code":    w.statusCode,
		"response_duration_ms":    duration.Milliseconds(),
		"response_content_length": w.size,
	}

	if w.body.Len() > 0 {
		var bodyData interface{}
		if err := json.Unmarshal(w.body.Bytes(), &bodyData); err == nil {
			data["response_body"] = bodyData
		}
	}

	level := logger.LevelInfo
	if w.statusCode >= 500 {
		level = logger.LevelError
	} else if w.statusCode >= 400 {
		level = logger.LevelWarn
	}
	logger.LogMultipleData(ctx, level, "Request completed", data)
}

// getClientIP extracts the client ip: X-Forwarded-For > X-Real-IP > RemoteAddr
func getClientIP(r *http.Request) string {
	if forwardedFor := r.Header.Get(utils.HeaderXForwardedFor); forwardedFor != "" {
		return strings.TrimSpace(strings.Split(forwardedFor, ",")[0])
	}
	if realIP := r.Header.Get(utils.HeaderXRealIP); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}

// responseWriterWrapper passes writes through and keeps a copy of the first
// bytes for logging
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
	size       int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriterWrapper) Write(data []byte) (int, error) {
	if remaining := maxLoggedBody - w.body.Len(); remaining > 0 {
		if len(data) < remaining {
			remaining = len(data)
		}
		w.body.Write(data[:remaining])
	}
	n, err := w.ResponseWriter.Write(data)
	w.size += n
	return n, err
}

// Flush implements http.Flusher
func (w *responseWriterWrapper) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
