// Package chat holds the conversation state and coordinates the transport,
// the stream assembler and the voice capabilities.
package chat

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	apierrors "github.com/diogo/mybot/internal/errors"
	"github.com/diogo/mybot/internal/models"
)

// Conversation is the ordered message list plus the pending input text.
// Messages are append-only except the trailing assistant message while its
// submission is in flight. All methods are safe for concurrent use.
type Conversation struct {
	mu       sync.RWMutex
	messages []models.Message
	input    string

	// token identifies the in-flight submission; empty when idle.
	token    string
	trailing int
}

// NewConversation creates an empty conversation
func NewConversation() *Conversation {
	return &Conversation{trailing: -1}
}

// Submit appends the user message and an empty assistant message, clears
// the input and returns the token that authorizes updates to the reply.
func (c *Conversation) Submit(prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if strings.TrimSpace(prompt) == "" {
		return "", apierrors.ErrEmptyPrompt
	}
	if c.token != "" {
		return "", apierrors.ErrSubmissionInFlight
	}

	c.messages = append(c.messages,
		models.Message{Role: models.RoleUser, Text: prompt},
		models.Message{Role: models.RoleAssistant, Text: ""},
	)
	c.input = ""
	c.token = uuid.NewString()
	c.trailing = len(c.messages) - 1

	return c.token, nil
}

// UpdateTrailing replaces the text of the in-flight assistant message
func (c *Conversation) UpdateTrailing(token, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if token == "" || token != c.token {
		return apierrors.ErrStaleSubmission
	}
	c.messages[c.trailing].Text = text
	return nil
}

// Complete ends the in-flight submission. The reply becomes immutable.
func (c *Conversation) Complete(token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if token == "" || token != c.token {
		return apierrors.ErrStaleSubmission
	}
	c.token = ""
	c.trailing = -1
	return nil
}

// InFlight reports whether a submission is streaming
func (c *Conversation) InFlight() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != ""
}

// SetInput replaces the pending input text
func (c *Conversation) SetInput(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.input = text
}

// Input returns the pending input text
func (c *Conversation) Input() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.input
}

// AppendSystem adds an informational message. While a reply is streaming
// the note is inserted before the trailing assistant message so the reply
// stays last.
func (c *Conversation) AppendSystem(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := models.Message{Role: models.RoleSystem, Text: text}
	if c.trailing < 0 {
		c.messages = append(c.messages, msg)
		return
	}

	c.messages = append(c.messages, models.Message{})
	copy(c.messages[c.trailing+1:], c.messages[c.trailing:])
	c.messages[c.trailing] = msg
	c.trailing++
}

// Messages returns a copy of the message list
func (c *Conversation) Messages() []models.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// LastAssistantText returns the newest non-empty assistant reply
func (c *Conversation) LastAssistantText() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for i := len(c.messages) - 1; i >= 0; i-- {
		m := c.messages[i]
		if m.IsAssistant() && strings.TrimSpace(m.Text) != "" {
			return m.Text, true
		}
	}
	return "", false
}
