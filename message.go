package relay

import "github.com/google/uuid"

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// ContentPartType represents the type of content in a multimodal message part.
type ContentPartType string

const (
	ContentPartTypeText  ContentPartType = "text"
	ContentPartTypeImage ContentPartType = "image"
)

// ContentPart is a single part of multimodal content. Image parts carry either
// a URL or base64 data with its MIME type.
type ContentPart struct {
	Type     ContentPartType `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL string          `json:"imageUrl,omitempty"`
	Base64   string          `json:"base64,omitempty"`
	MimeType string          `json:"mimeType,omitempty"`
}

// NewTextPart creates a text content part.
func NewTextPart(text string) ContentPart {
	return ContentPart{Type: ContentPartTypeText, Text: text}
}

// NewImageURLPart creates an image content part from a URL.
func NewImageURLPart(url string) ContentPart {
	return ContentPart{Type: ContentPartTypeImage, ImageURL: url}
}

// Message is a single entry in a conversation history.
type Message struct {
	// ID is an optional identifier used for correlation with event streams.
	ID      string `json:"id,omitempty"`
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`
	// Parts holds multimodal content. When present, Content is ignored by
	// providers that support multimodal input.
	Parts []ContentPart `json:"parts,omitempty"`
	// Reasoning holds the model's reasoning text for assistant messages.
	Reasoning string `json:"reasoning,omitempty"`
	// ToolCalls is populated on assistant messages that request tool use.
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`
	// ToolResults is populated on tool messages.
	ToolResults []ToolResult `json:"toolResults,omitempty"`
}

// GenerateMessageID creates a unique message identifier.
func GenerateMessageID() string {
	return "msg-" + uuid.NewString()
}

// NewUserMessage creates a user message with plain text content.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// NewSystemMessage creates a system message.
func NewSystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}

// HasParts reports whether the message has multimodal content parts.
func (m Message) HasParts() bool {
	return len(m.Parts) > 0
}

// CloneMessages returns a copy of the slice so callers can append without
// aliasing the original history.
func CloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
