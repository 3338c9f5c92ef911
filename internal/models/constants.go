// Package models contains data types and constants for the chat endpoint protocol.
package models

// Endpoint paths relative to the configured base URL
const (
	EndpointChat = "/api/chat"
)

// DefaultBaseURL is where the chat server listens unless configured otherwise
const DefaultBaseURL = "http://localhost:8000"

// Stream framing
const (
	// FramePrefix marks a frame that carries a payload. Lines without it are ignored.
	FramePrefix = "data: "
	// FrameDone is the frame payload that terminates a stream.
	FrameDone = "[DONE]"
	// MaxFrameSize bounds a single line of the stream body (1 MiB).
	MaxFrameSize = 1 << 20
)

// ApologyMessage is what the user sees when an exchange fails.
// It is a display-only entry and never becomes part of the conversation.
const ApologyMessage = "Sorry, I encountered an error. Please try again."

// DefaultHeaders returns the headers sent with every chat request
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type":    "application/json",
		"Accept":          "application/json",
		"Accept-Language": "en-US,en;q=0.9",
		"User-Agent":      "chatline/0.1",
	}
}

// StreamHeaders returns the headers that replace the defaults for streaming requests
func StreamHeaders() map[string]string {
	return map[string]string{
		"Accept":        "text/event-stream",
		"Cache-Control": "no-cache",
	}
}

// Suggestions are the starter prompts offered on an empty conversation
func Suggestions() []string {
	return []string{
		"What can you help me with?",
		"Explain quantum computing in simple terms",
		"Write a Python function to reverse a string",
	}
}
