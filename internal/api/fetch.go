package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/chatline/internal/errors"
	"github.com/diogo/chatline/internal/models"
)

// maxErrorBody limits how much of a failed response is read
const maxErrorBody = 4096

// FetchReply posts the conversation and returns the assistant reply.
//
// With streaming false the body must be a single {"response": "..."} object.
// With streaming true the body is read as data frames; onPartial receives the
// accumulated text after every delta, and the reply is returned only once the
// stream ends without a read error.
func (c *ChatClient) FetchReply(ctx context.Context, messages []models.Message, streaming bool, onPartial func(string)) (string, error) {
	if c.IsClosed() {
		return "", fmt.Errorf("client is closed")
	}

	if messages == nil {
		messages = []models.Message{}
	}

	payload, err := json.Marshal(models.ChatRequest{Messages: messages, Stream: streaming})
	if err != nil {
		return "", fmt.Errorf("failed to build payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range models.DefaultHeaders() {
		req.Header.Set(key, value)
	}
	if streaming {
		for key, value := range models.StreamHeaders() {
			req.Header.Set(key, value)
		}
	}

	log := c.logger.With("endpoint", c.endpoint, "stream", streaming, "messages", len(messages))
	log.Debug("sending chat request")
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("chat request failed", "error", err)
		return "", apierrors.NewNetworkError(c.endpoint, err)
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Warn("chat request rejected", "status", resp.StatusCode)
		return "", apierrors.NewStatusError(resp.StatusCode, c.endpoint, string(errorBody))
	}

	if streaming {
		decoder := NewStreamDecoder(resp.Body, onPartial, WithDecoderLogger(log))
		reply, err := decoder.Decode()
		stats := decoder.Stats()
		if err != nil {
			log.Warn("stream failed",
				"error", err,
				"frames", stats.Frames,
				"partial_len", len(apierrors.GetPartial(err)))
			return "", err
		}
		log.Info("stream complete",
			"frames", stats.Frames,
			"deltas", stats.Deltas,
			"malformed", stats.Malformed,
			"terminated", stats.Terminated,
			"first_byte", stats.FirstByte,
			"duration", stats.Total)
		return reply, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn("reading response failed", "error", err)
		return "", apierrors.NewNetworkError(c.endpoint, err)
	}

	reply, err := parseResponse(body)
	if err != nil {
		log.Warn("undecodable response", "error", err)
		return "", err
	}

	log.Info("reply received", "status", resp.StatusCode, "duration", time.Since(start))
	return reply, nil
}

// parseResponse extracts the reply from a non-streaming body
func parseResponse(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", apierrors.NewParseError("response body is not valid JSON", "")
	}

	result := gjson.GetBytes(body, "response")
	if !result.Exists() {
		return "", apierrors.NewParseError("missing field", "response")
	}
	if result.Type != gjson.String {
		return "", apierrors.NewParseError("expected a string", "response")
	}

	return result.Str, nil
}
