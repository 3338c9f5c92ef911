// Package errors provides custom error types for the chat client.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrEmptyPrompt      = errors.New("prompt cannot be empty")
	ErrExchangeInFlight = errors.New("an exchange is already in progress")
	ErrNothingToRetry   = errors.New("no unanswered message to retry")
	ErrTransport        = errors.New("transport failure")
	ErrMalformedFrame   = errors.New("malformed stream frame")
	ErrInvalidResponse  = errors.New("invalid response format")
)

// maxBodyLen limits how much of an error response body is kept
const maxBodyLen = 4096

// TransportError is a network failure or a non-2xx HTTP status.
// StatusCode is zero when the request never got a response.
type TransportError struct {
	StatusCode int
	Endpoint   string
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.Endpoint)
	}
	if e.Err != nil {
		return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("request to %s failed", e.Endpoint)
}

// Unwrap returns the underlying network error, if any
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is matches ErrTransport and any other TransportError
func (e *TransportError) Is(target error) bool {
	if target == ErrTransport {
		return true
	}
	_, ok := target.(*TransportError)
	return ok
}

// NewNetworkError wraps a failure that happened before a response arrived
func NewNetworkError(endpoint string, err error) *TransportError {
	return &TransportError{Endpoint: endpoint, Err: err}
}

// NewStatusError records a non-2xx response. The body is truncated.
func NewStatusError(statusCode int, endpoint, body string) *TransportError {
	if len(body) > maxBodyLen {
		body = body[:maxBodyLen]
	}
	return &TransportError{StatusCode: statusCode, Endpoint: endpoint, Body: body}
}

// MalformedFrameError is a stream frame whose payload is not valid JSON.
// The stream decoder skips these; they never reach the caller of a fetch.
type MalformedFrameError struct {
	Frame string
}

func (e *MalformedFrameError) Error() string {
	frame := e.Frame
	if len(frame) > 64 {
		frame = frame[:64] + "..."
	}
	return fmt.Sprintf("malformed frame: %q", frame)
}

// Is matches ErrMalformedFrame
func (e *MalformedFrameError) Is(target error) bool {
	return target == ErrMalformedFrame
}

// NewMalformedFrameError creates a new MalformedFrameError
func NewMalformedFrameError(frame string) *MalformedFrameError {
	return &MalformedFrameError{Frame: frame}
}

// ParseError represents a response body that could not be decoded
type ParseError struct {
	Message string
	Path    string
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("parse error at %q: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

// Is allows comparison with sentinel errors
func (e *ParseError) Is(target error) bool {
	if target == ErrInvalidResponse {
		return true
	}
	_, ok := target.(*ParseError)
	return ok
}

// NewParseError creates a new ParseError
func NewParseError(message, path string) *ParseError {
	return &ParseError{Message: message, Path: path}
}

// StreamError is a failure of the stream read loop itself.
// Partial holds the text received before the failure; it is never committed.
type StreamError struct {
	Partial string
	Err     error
}

func (e *StreamError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("stream error (partial content received: %d chars): %v", len(e.Partial), e.Err)
	}
	return fmt.Sprintf("stream error: %v", e.Err)
}

// Unwrap returns the underlying error
func (e *StreamError) Unwrap() error {
	return e.Err
}

// NewStreamError creates a new StreamError
func NewStreamError(partial string, err error) *StreamError {
	return &StreamError{Partial: partial, Err: err}
}

// IsTransportError reports whether err is a network or HTTP status failure
func IsTransportError(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsNetworkError reports whether err happened before any response arrived
func IsNetworkError(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.StatusCode == 0
}

// IsStreamError reports whether err came from the stream read loop
func IsStreamError(err error) bool {
	var se *StreamError
	return errors.As(err, &se)
}

// IsParseError reports whether err is an undecodable response
func IsParseError(err error) bool {
	return errors.Is(err, ErrInvalidResponse)
}

// IsExchangeFailure reports whether err should be shown to the user as the
// fixed apology. Input errors such as ErrEmptyPrompt are not failures.
func IsExchangeFailure(err error) bool {
	return IsTransportError(err) || IsStreamError(err) || IsParseError(err)
}

// GetHTTPStatus extracts the HTTP status code, or 0
func GetHTTPStatus(err error) int {
	var te *TransportError
	if errors.As(err, &te) {
		return te.StatusCode
	}
	return 0
}

// GetEndpoint extracts the endpoint of a failed request, or ""
func GetEndpoint(err error) string {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Endpoint
	}
	return ""
}

// GetResponseBody extracts the (truncated) body of a failed response, or ""
func GetResponseBody(err error) string {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Body
	}
	return ""
}

// GetPartial extracts the discarded partial reply of a failed stream, or ""
func GetPartial(err error) string {
	var se *StreamError
	if errors.As(err, &se) {
		return se.Partial
	}
	return ""
}
