// Package conversation holds the ordered transcript of an exchange with the chat endpoint.
package conversation

import (
	"strings"
	"sync"

	"github.com/diogo/chatline/internal/models"
)

// Conversation is an append-only sequence of turns. The only other mutation
// is Reset, which callers gate behind an explicit user confirmation.
//
// The zero value is an empty conversation ready to use.
type Conversation struct {
	mu       sync.RWMutex
	messages []models.Message
}

// New creates an empty conversation
func New() *Conversation {
	return &Conversation{}
}

// AppendUser appends a user turn. Blank text is rejected and false is
// returned; callers must not contact the endpoint in that case.
func (c *Conversation) AppendUser(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, models.UserMessage(text))
	return true
}

// AppendAssistant appends the reply of a completed exchange
func (c *Conversation) AppendAssistant(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, models.AssistantMessage(text))
}

// Reset discards every turn
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}

// Snapshot returns a copy of the turns in conversation order
func (c *Conversation) Snapshot() []models.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of turns
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// Last returns the newest turn
func (c *Conversation) Last() (models.Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.messages) == 0 {
		return models.Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// LastAssistant returns the newest assistant turn
func (c *Conversation) LastAssistant() (models.Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == models.RoleAssistant {
			return c.messages[i], true
		}
	}
	return models.Message{}, false
}

// PendingUser reports whether the newest turn is a user turn that never got
// a reply, which is what a failed exchange leaves behind.
func (c *Conversation) PendingUser() bool {
	last, ok := c.Last()
	return ok && last.Role == models.RoleUser
}
