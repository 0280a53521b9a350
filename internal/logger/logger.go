package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aashari/go-selection-relay/internal/utils"
)

// Logger levels
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Context keys
type contextKey string

const (
	RequestIDKey     contextKey = "request_id"
	CorrelationIDKey contextKey = "correlation_id"
	ComponentKey     contextKey = "component"
	SequenceKey      contextKey = "sequence"
)

// Global logger instance
var Logger *slog.Logger

// Service configuration
var (
	ServiceName = "selection-relay"
	Environment = "development"
)

// Configuration for logger
type Config struct {
	Level       slog.Level
	Format      string // "json" or "text"
	Output      string // "stdout", "stderr", or file path
	TimeFormat  string
	ServiceName string
	Environment string
}

// Default configuration
var DefaultConfig = Config{
	Level:       LevelInfo,
	Format:      "json",
	Output:      "stdout",
	TimeFormat:  time.RFC3339,
	ServiceName: "selection-relay",
	Environment: "development",
}

// StructuredLogEntry represents the log line layout
type StructuredLogEntry struct {
	Timestamp   string                 `json:"timestamp"`
	Level       string                 `json:"level"`
	Message     string                 `json:"message"`
	Service     string                 `json:"service"`
	Environment string                 `json:"environment"`
	Component   string                 `json:"component,omitempty"`
	Attributes  map[string]interface{} `json:"attributes,omitempty"`
	Request     map[string]interface{} `json:"request,omitempty"`
	Response    map[string]interface{} `json:"response,omitempty"`
	Error       map[string]interface{} `json:"error,omitempty"`
}

// Initialize the global logger
func Init(config Config) error {
	var output io.Writer
	switch config.Output {
	case "stdout", "":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		f, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", config.Output, err)
		}
		output = f
	}

	Logger = slog.New(NewHandler(output, config))
	ServiceName = config.ServiceName
	Environment = config.Environment
	return nil
}

// NewHandler builds the slog handler for the configured format
func NewHandler(w io.Writer, config Config) slog.Handler {
	if config.Format == "json" {
		return &StructuredJSONHandler{
			writer:      w,
			level:       config.Level,
			serviceName: config.ServiceName,
			environment: config.Environment,
			mu:          &sync.Mutex{},
		}
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: config.Level})
}

// StructuredJSONHandler implements a custom JSON handler for our structured format
type StructuredJSONHandler struct {
	writer      io.Writer
	level       slog.Level
	serviceName string
	environment string
	attrs       []slog.Attr
	mu          *sync.Mutex
}

func (h *StructuredJSONHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *StructuredJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *StructuredJSONHandler) WithGroup(name string) slog.Handler {
	return h // groups are flattened
}

func (h *StructuredJSONHandler) Handle(ctx context.Context, r slog.Record) error {
	entry := StructuredLogEntry{
		Timestamp:   r.Time.UTC().Format(time.RFC3339),
		Level:       r.Level.String(),
		Message:     r.Message,
		Service:     h.serviceName,
		Environment: h.environment,
	}

	if ctx != nil {
		if requestID := ctx.Value(RequestIDKey); requestID != nil {
			section(&entry.Request)["request_id"] = requestID
		}
		if correlationID := ctx.Value(CorrelationIDKey); correlationID != nil {
			section(&entry.Request)["correlation_id"] = correlationID
		}
		if component, ok := ctx.Value(ComponentKey).(string); ok {
			entry.Component = component
		}
		if seq := ctx.Value(SequenceKey); seq != nil {
			section(&entry.Attributes)["sequence"] = seq
		}
	}

	route := func(a slog.Attr) bool {
		key := a.Key
		value := a.Value.Any()

		// Route attributes to appropriate sections
		switch {
		case key == "component":
			entry.Component = fmt.Sprintf("%v", value)
		case strings.HasPrefix(key, "request_"):
			section(&entry.Request)[strings.TrimPrefix(key, "request_")] = value
		case strings.HasPrefix(key, "response_"):
			section(&entry.Response)[strings.TrimPrefix(key, "response_")] = value
		case strings.HasPrefix(key, "error_"):
			section(&entry.Error)[strings.TrimPrefix(key, "error_")] = value
		case key == "error":
			if err, ok := value.(error); ok {
				section(&entry.Error)["message"] = err.Error()
				section(&entry.Error)["type"] = fmt.Sprintf("%T", err)
			} else {
				section(&entry.Error)["message"] = fmt.Sprintf("%v", value)
			}
		default:
			section(&entry.Attributes)[key] = value
		}
		return true
	}
	for _, a := range h.attrs {
		route(a)
	}
	r.Attrs(route)

	entry.Attributes = sanitize(entry.Attributes)
	entry.Request = sanitize(entry.Request)
	entry.Response = sanitize(entry.Response)
	entry.Error = sanitize(entry.Error)

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = fmt.Fprintln(h.writer, string(data))
	return err
}

func section(m *map[string]interface{}) map[string]interface{} {
	if *m == nil {
		*m = make(map[string]interface{})
	}
	return *m
}

// sanitize masks credentials and truncates base64 payloads (image data URIs)
func sanitize(m map[string]interface{}) map[string]interface{} {
	if len(m) == 0 {
		return nil
	}
	masked := utils.MaskSensitiveData(m)
	return utils.TruncateBase64InData(masked).(map[string]interface{})
}

// WithComponent tags the context with the component name used in log entries
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, ComponentKey, component)
}

// WithRequestID tags the context with a request id
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithSequence tags the context with a capture sequence number
func WithSequence(ctx context.Context, seq uint64) context.Context {
	return context.WithValue(ctx, SequenceKey, seq)
}

// WithContext returns the global logger, initializing the default one when needed
func WithContext(ctx context.Context) *slog.Logger {
	if Logger == nil {
		if err := Init(DefaultConfig); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize default logger in WithContext: %v\n", err)
			return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: LevelDebug}))
		}
	}
	return Logger
}

// Convenience functions for different log levels
func Debug(msg string, args ...any) {
	if Logger != nil {
		Logger.Debug(msg, args...)
	}
}

func Info(msg string, args ...any) {
	if Logger != nil {
		Logger.Info(msg, args...)
	}
}

func Warn(msg string, args ...any) {
	if Logger != nil {
		Logger.Warn(msg, args...)
	}
}

func Error(msg string, args ...any) {
	if Logger != nil {
		Logger.Error(msg, args...)
	}
}

// Context-aware convenience functions
func DebugCtx(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).DebugContext(ctx, msg, args...)
}

func InfoCtx(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).InfoContext(ctx, msg, args...)
}

func WarnCtx(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).WarnContext(ctx, msg, args...)
}

func ErrorCtx(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).ErrorContext(ctx, msg, args...)
}

// LogMultipleData logs a message with a map of attributes at the given level
func LogMultipleData(ctx context.Context, level slog.Level, message string, data map[string]any) {
	args := make([]any, 0, len(data)*2)
	for k, v := range data {
		args = append(args, k, v)
	}
	WithContext(ctx).Log(ctx, level, message, args...)
}

// LogError logs errors with complete context and data
func LogError(ctx context.Context, component string, err error, details map[string]any) {
	args := []any{"component", component, "error", err}
	for k, v := range details {
		args = append(args, k, v)
	}
	WithContext(ctx).ErrorContext(ctx, "Operation failed", args...)
}

// Initialize with environment-based configuration
func InitFromEnv() error {
	config := DefaultConfig

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		switch strings.ToUpper(level) {
		case "DEBUG":
			config.Level = LevelDebug
		case "INFO":
			config.Level = LevelInfo
		case "WARN", "WARNING":
			config.Level = LevelWarn
		case "ERROR":
			config.Level = LevelError
		}
	}

	if format := os.Getenv("LOG_FORMAT"); format != "" {
		config.Format = format
	}

	if output := os.Getenv("LOG_OUTPUT"); output != "" {
		config.Output = output
	}

	if serviceName := os.Getenv("SERVICE_NAME"); serviceName != "" {
		config.ServiceName = serviceName
	}

	if environment := os.Getenv("ENVIRONMENT"); environment != "" {
		config.Environment = environment
	} else if env := os.Getenv("ENV"); env != "" {
		config.Environment = env
	}

	return Init(config)
}
