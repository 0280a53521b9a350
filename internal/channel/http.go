package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/aashari/go-selection-relay/internal/utils"
)

// MessagesPath is where the relay server accepts channel requests
const MessagesPath = "/v1/messages"

// HTTPSender sends channel requests to a relay server. Every request from
// one sender carries the same correlation id.
type HTTPSender struct {
	BaseURL       string
	Client        *http.Client
	CorrelationID string
}

// NewHTTPSender creates a sender for the relay server at baseURL
func NewHTTPSender(baseURL string, client *http.Client) *HTTPSender {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSender{
		BaseURL:       baseURL,
		Client:        client,
		CorrelationID: utils.GenerateCorrelationID(),
	}
}

// Send posts req and decodes the single reply
func (s *HTTPSender) Send(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+MessagesPath, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set(utils.HeaderContentType, utils.ContentTypeJSON)
	httpReq.Header.Set(utils.HeaderRequestID, utils.GenerateRequestID())
	if s.CorrelationID != "" {
		httpReq.Header.Set(utils.HeaderCorrelationID, s.CorrelationID)
	}

	resp, err := s.Client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("relay unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Response{}, fmt.Errorf("relay returned status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("failed to decode relay response: %w", err)
	}
	return out, nil
}
