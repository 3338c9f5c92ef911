package models

// Role identifies who authored a turn
type Role string

const (
	// RoleUser is a turn typed by the person at the keyboard.
	RoleUser Role = "user"
	// RoleAssistant is a turn produced by the chat endpoint.
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Label returns the display name for the role
func (r Role) Label() string {
	switch r {
	case RoleUser:
		return "User"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// Message is one turn of a conversation, in the shape the endpoint expects
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserMessage builds a user turn
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds an assistant turn
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ChatRequest is the body posted to the chat endpoint
type ChatRequest struct {
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// ChatResponse is the body of a non-streaming reply.
// Servers may add fields (e.g. the model name); only Response is used.
type ChatResponse struct {
	Response string `json:"response"`
	Model    string `json:"model,omitempty"`
}
