package api

import (
	"io"
	"sync"

	fhttp "github.com/bogdanfinn/fhttp"
)

// MockResponseBody is a ReadCloser that simulates reading response data
type MockResponseBody struct {
	data []byte
	pos  int
}

// NewMockResponseBody creates a new MockResponseBody with the given data
func NewMockResponseBody(data []byte) *MockResponseBody {
	return &MockResponseBody{data: data, pos: 0}
}

// Read implements the io.Reader interface
func (m *MockResponseBody) Read(p []byte) (n int, err error) {
	if m.pos >= len(m.data) {
		return 0, io.EOF
	}
	n = copy(p, m.data[m.pos:])
	m.pos += n
	return n, nil
}

// Close implements the io.Closer interface
func (m *MockResponseBody) Close() error {
	return nil
}

// ChunkedBody hands out one chunk per Read, like a network that delivers a
// stream in arbitrary pieces. Err is returned after the last chunk (io.EOF
// when nil).
type ChunkedBody struct {
	chunks []string
	Err    error
	closed bool
}

// NewChunkedBody creates a body that yields the given chunks in order
func NewChunkedBody(chunks ...string) *ChunkedBody {
	return &ChunkedBody{chunks: chunks}
}

func (b *ChunkedBody) Read(p []byte) (int, error) {
	if len(b.chunks) == 0 {
		if b.Err != nil {
			return 0, b.Err
		}
		return 0, io.EOF
	}
	n := copy(p, b.chunks[0])
	if n < len(b.chunks[0]) {
		b.chunks[0] = b.chunks[0][n:]
	} else {
		b.chunks = b.chunks[1:]
	}
	return n, nil
}

func (b *ChunkedBody) Close() error {
	b.closed = true
	return nil
}

// MockDoer is a fake transport that records every request it receives
type MockDoer struct {
	Response *fhttp.Response
	Err      error

	mu       sync.Mutex
	requests []*fhttp.Request
	bodies   [][]byte
}

// Do implements Doer
func (m *MockDoer) Do(req *fhttp.Request) (*fhttp.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
	}
	m.requests = append(m.requests, req)
	m.bodies = append(m.bodies, body)

	return m.Response, m.Err
}

// Calls returns how many requests were sent
func (m *MockDoer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// LastRequest returns the most recent request and its body
func (m *MockDoer) LastRequest() (*fhttp.Request, []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil, nil
	}
	return m.requests[len(m.requests)-1], m.bodies[len(m.bodies)-1]
}

// NewMockDoer creates a MockDoer that answers with body and statusCode
func NewMockDoer(body []byte, statusCode int) *MockDoer {
	return &MockDoer{
		Response: &fhttp.Response{
			StatusCode: statusCode,
			Body:       NewMockResponseBody(body),
			Header:     make(fhttp.Header),
		},
	}
}

// NewMockDoerWithBody creates a MockDoer that answers 200 with a custom body
func NewMockDoerWithBody(body io.ReadCloser) *MockDoer {
	return &MockDoer{
		Response: &fhttp.Response{
			StatusCode: 200,
			Body:       body,
			Header:     make(fhttp.Header),
		},
	}
}

// NewMockDoerWithError creates a MockDoer that fails before any response
func NewMockDoerWithError(err error) *MockDoer {
	return &MockDoer{Err: err}
}
