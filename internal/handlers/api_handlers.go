package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/aashari/go-selection-relay/internal/channel"
	"github.com/aashari/go-selection-relay/internal/errors"
	"github.com/aashari/go-selection-relay/internal/logger"
	"github.com/aashari/go-selection-relay/internal/settings"
	"github.com/aashari/go-selection-relay/internal/utils"
)

// maxMessageSize bounds a channel request, images included
const maxMessageSize = 32 * 1024 * 1024

// APIHandlers contains the dependencies needed for API handlers
type APIHandlers struct {
	Messages channel.Sender
	Editor   *settings.Editor
}

// NewAPIHandlers creates a new APIHandlers instance
func NewAPIHandlers(messages channel.Sender, editor *settings.Editor) *APIHandlers {
	return &APIHandlers{
		Messages: messages,
		Editor:   editor,
	}
}

// MessagesHandler handles one channel request from a page agent
// @Summary      Process a selection
// @Description  Relays a captured selection to the inference service and returns exactly one reply. Disabled and failed requests are reported in the error field with status 200.
// @Tags         messages
// @Accept       json
// @Produce      json
// @Param        request body      channel.Request   true  "Channel request"
// @Success      200     {object}  channel.Response  "processedText or error"
// @Failure      400     {object}  errors.ErrorResponse "Malformed request"
// @Failure      405     {object}  errors.ErrorResponse "Method not allowed"
// @Failure      503     {object}  errors.ErrorResponse "Relay not accepting messages"
// @Router       /v1/messages [post]
func (h *APIHandlers) MessagesHandler(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithComponent(r.Context(), "MessagesHandler")

	if r.Method != http.MethodPost {
		errors.HandleError(w, errors.NewAPIError(errors.ErrorTypeMethod, "Only POST is allowed"), http.StatusMethodNotAllowed)
		return
	}

	var req channel.Request
	if err := json.NewDecoder(io.LimitReader(r.Body, maxMessageSize)).Decode(&req); err != nil {
		errors.HandleError(w, errors.NewValidationError("Malformed request body: "+err.Error()), http.StatusBadRequest)
		return
	}

	resp, err := h.Messages.Send(ctx, req)
	if err != nil {
		logger.LogError(ctx, "MessagesHandler", err, map[string]any{"request_action": req.Action})
		errors.HandleError(w, errors.NewExternalError("Relay is not accepting messages"), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// SettingsHandler reads (GET) or saves (PUT) the extension settings
// @Summary      Extension settings
// @Description  GET returns the stored settings for a mode with its default placeholders; PUT validates and saves them. The API key is returned masked; saving an empty or masked key keeps the stored one.
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        mode    query     string          false "Mode to show (mcq or image), defaults to the stored mode"
// @Param        request body      settings.Form   false "Settings to save (PUT only)"
// @Success      200     {object}  settings.View   "Stored settings"
// @Failure      400     {object}  errors.ErrorResponse "Validation error"
// @Failure      500     {object}  errors.ErrorResponse "Storage error"
// @Router       /v1/settings [get]
// @Router       /v1/settings [put]
func (h *APIHandlers) SettingsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithComponent(r.Context(), "SettingsHandler")

	switch r.Method {
	case http.MethodGet:
		view, err := h.Editor.Load(ctx, settings.Mode(r.URL.Query().Get("mode")))
		if err != nil {
			errors.HandleError(w, err, http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, view)

	case http.MethodPut:
		var form settings.Form
		if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
			errors.HandleError(w, errors.NewValidationError("Malformed request body: "+err.Error()), http.StatusBadRequest)
			return
		}
		saved, err := h.Editor.Save(ctx, form)
		if err != nil {
			errors.HandleError(w, err, statusFor(err))
			return
		}
		view, err := h.Editor.Load(ctx, saved.Mode)
		if err != nil {
			errors.HandleError(w, err, http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, view)

	default:
		errors.HandleError(w, errors.NewAPIError(errors.ErrorTypeMethod, "Only GET and PUT are allowed"), http.StatusMethodNotAllowed)
	}
}

func statusFor(err error) int {
	var apiErr *errors.APIError
	if stderrors.As(err, &apiErr) && apiErr.Type == errors.ErrorTypeValidation {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set(utils.HeaderContentType, utils.ContentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}
