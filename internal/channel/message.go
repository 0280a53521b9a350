// Package channel carries capture requests from the page agent to the relay
// and exactly one reply back.
package channel

import "context"

// ActionProcessText is the only action the relay answers
const ActionProcessText = "processText"

// Request is the page agent's message
type Request struct {
	Action string `json:"action"`
	Text   string `json:"text"`
	Image  string `json:"image,omitempty"`
	// Sequence is stamped by the agent; the relay does not interpret it
	Sequence uint64 `json:"sequence,omitempty"`
}

// Response is either {processedText} or {error}
type Response struct {
	ProcessedText *string `json:"processedText,omitempty"`
	Error         string  `json:"error,omitempty"`
}

// Answer builds a successful response
func Answer(text string) Response {
	return Response{ProcessedText: &text}
}

// Failure builds an error response
func Failure(reason string) Response {
	return Response{Error: reason}
}

// IsError reports whether the response carries an error
func (r Response) IsError() bool {
	return r.Error != ""
}

// Text returns the processed text, empty for error responses
func (r Response) Text() string {
	if r.ProcessedText == nil {
		return ""
	}
	return *r.ProcessedText
}

// Handler answers one request
type Handler interface {
	HandleMessage(ctx context.Context, req Request) Response
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, req Request) Response

// HandleMessage calls f
func (f HandlerFunc) HandleMessage(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Sender delivers a request and waits for its reply
type Sender interface {
	Send(ctx context.Context, req Request) (Response, error)
}
