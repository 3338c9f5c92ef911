package api

import (
	"bufio"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/chatline/internal/errors"
	"github.com/diogo/chatline/internal/models"
)

// StreamState is the position of a decoder in its read loop.
// Transitions only move forward.
type StreamState int

const (
	StateAwaitingFirstByte StreamState = iota
	StateReading
	StateDone
)

func (s StreamState) String() string {
	switch s {
	case StateAwaitingFirstByte:
		return "awaiting_first_byte"
	case StateReading:
		return "reading"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// FrameKind classifies one line of a stream body
type FrameKind int

const (
	// FrameIgnored is a line without the data prefix, or valid JSON with no text.
	FrameIgnored FrameKind = iota
	// FrameDelta carries a non-empty text fragment.
	FrameDelta
	// FrameDone is the terminating sentinel.
	FrameDone
	// FrameMalformed has the data prefix but a payload that is not JSON.
	FrameMalformed
)

func (k FrameKind) String() string {
	switch k {
	case FrameIgnored:
		return "ignored"
	case FrameDelta:
		return "delta"
	case FrameDone:
		return "done"
	case FrameMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Frame is one decoded line
type Frame struct {
	Kind    FrameKind
	Text    string
	Payload string
}

// ParseFrame classifies a single line. The line must not contain the
// newline; a trailing carriage return is stripped.
func ParseFrame(line string) Frame {
	line = strings.TrimSuffix(line, "\r")

	payload, ok := strings.CutPrefix(line, models.FramePrefix)
	if !ok {
		return Frame{Kind: FrameIgnored}
	}

	if payload == models.FrameDone {
		return Frame{Kind: FrameDone, Payload: payload}
	}

	if !gjson.Valid(payload) {
		return Frame{Kind: FrameMalformed, Payload: payload}
	}

	text := gjson.Get(payload, "text")
	if text.Type != gjson.String || text.Str == "" {
		return Frame{Kind: FrameIgnored, Payload: payload}
	}

	return Frame{Kind: FrameDelta, Text: text.Str, Payload: payload}
}

// StreamStats describes one decoded stream
type StreamStats struct {
	Frames    int
	Deltas    int
	Malformed int
	Ignored   int
	Bytes     int64
	// Terminated is true when the stream ended with the done sentinel
	// rather than at EOF.
	Terminated bool
	FirstByte  time.Duration
	Total      time.Duration
}

// StreamDecoder turns a framed response body into one accumulated reply
type StreamDecoder struct {
	body      io.Reader
	onPartial func(string)
	logger    *slog.Logger

	state   StreamState
	started time.Time
	buf     strings.Builder
	stats   StreamStats
}

// DecoderOption configures a StreamDecoder
type DecoderOption func(*StreamDecoder)

// WithDecoderLogger sets where malformed frames are reported
func WithDecoderLogger(logger *slog.Logger) DecoderOption {
	return func(d *StreamDecoder) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewStreamDecoder creates a decoder over body. onPartial, if not nil, is
// called with the whole accumulated text after every delta.
func NewStreamDecoder(body io.Reader, onPartial func(string), opts ...DecoderOption) *StreamDecoder {
	d := &StreamDecoder{
		body:      body,
		onPartial: onPartial,
		logger:    slog.Default(),
		state:     StateAwaitingFirstByte,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// State returns the current read loop position
func (d *StreamDecoder) State() StreamState {
	return d.state
}

// Stats returns counters for the frames seen so far
func (d *StreamDecoder) Stats() StreamStats {
	return d.stats
}

// Decode reads until the done sentinel or EOF and returns the accumulated
// text. A read failure returns a StreamError; the partial text is carried
// in the error only.
func (d *StreamDecoder) Decode() (string, error) {
	d.started = time.Now()
	defer func() {
		d.state = StateDone
		d.stats.Total = time.Since(d.started)
	}()

	scanner := bufio.NewScanner(&firstByteReader{r: d.body, d: d})
	scanner.Buffer(make([]byte, 0, 64*1024), models.MaxFrameSize)

	for scanner.Scan() {
		frame := ParseFrame(scanner.Text())

		switch frame.Kind {
		case FrameDone:
			d.stats.Frames++
			d.stats.Terminated = true
			return d.buf.String(), nil
		case FrameDelta:
			d.stats.Frames++
			d.stats.Deltas++
			d.buf.WriteString(frame.Text)
			if d.onPartial != nil {
				d.onPartial(d.buf.String())
			}
		case FrameMalformed:
			d.stats.Frames++
			d.stats.Malformed++
			d.logger.Debug("skipping malformed frame",
				"error", apierrors.NewMalformedFrameError(frame.Payload))
		default:
			d.stats.Ignored++
		}
	}

	if err := scanner.Err(); err != nil {
		return "", apierrors.NewStreamError(d.buf.String(), err)
	}

	return d.buf.String(), nil
}

// firstByteReader moves the decoder out of StateAwaitingFirstByte once data arrives
type firstByteReader struct {
	r io.Reader
	d *StreamDecoder
}

func (f *firstByteReader) Read(p []byte) (int, error) {
	n, err := f.r.Read(p)
	if n > 0 {
		if f.d.state == StateAwaitingFirstByte {
			f.d.state = StateReading
			f.d.stats.FirstByte = time.Since(f.d.started)
		}
		f.d.stats.Bytes += int64(n)
	}
	return n, err
}
