package models

// Role identifies the author of a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message represents one entry of the conversation
type Message struct {
	Role Role
	Text string
}

// IsAssistant reports whether the message was authored by the assistant
func (m Message) IsAssistant() bool {
	return m.Role == RoleAssistant
}

// StreamChunk is one record decoded from the /ask response stream.
// Every field is optional on the wire.
type StreamChunk struct {
	Content string
	Done    bool
	Error   string
}

// HasContent reports whether the chunk carries a text fragment
func (c StreamChunk) HasContent() bool {
	return c.Content != ""
}

// HasError reports whether the chunk carries a server error
func (c StreamChunk) HasError() bool {
	return c.Error != ""
}
