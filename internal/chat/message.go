package chat

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/user/wagerwiz/pkg/llm"
)

// Role identifies the author of a message. Roles are fixed at creation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// PartText is the only part kind the pipeline carries.
const PartText = "text"

// Part is one ordered fragment of a message.
type Part struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Message is one turn of a conversation. A conversation is an ordered
// slice of messages, oldest first.
type Message struct {
	ID    string `json:"id"`
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// NewMessage creates a single-part text message with a fresh ID.
func NewMessage(role Role, text string) Message {
	return Message{
		ID:    uuid.NewString(),
		Role:  role,
		Parts: []Part{{Type: PartText, Text: text}},
	}
}

// Text joins the message's text parts in order.
func (m Message) Text() string {
	var sb strings.Builder
	for _, p := range m.Parts {
		if p.Type == PartText {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

func validRole(r Role) bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// ValidateConversation checks that a conversation is a well-formed,
// non-empty ordered message sequence ending in usable user input. It runs
// before any model or tool call.
func ValidateConversation(conv []Message) error {
	if len(conv) == 0 {
		return fmt.Errorf("%w: empty conversation", ErrInvalidInput)
	}
	for i, m := range conv {
		if !validRole(m.Role) {
			return fmt.Errorf("%w: message %d has unknown role %q", ErrInvalidInput, i, m.Role)
		}
		if len(m.Parts) == 0 {
			return fmt.Errorf("%w: message %d has no parts", ErrInvalidInput, i)
		}
	}
	if LastUserText(conv) == "" {
		return fmt.Errorf("%w: no user message with text", ErrInvalidInput)
	}
	return nil
}

// LastUserText returns the text of the most recent user turn, or "".
func LastUserText(conv []Message) string {
	for i := len(conv) - 1; i >= 0; i-- {
		if conv[i].Role == RoleUser {
			if text := conv[i].Text(); text != "" {
				return text
			}
		}
	}
	return ""
}

// ToModel converts a conversation into provider messages.
func ToModel(conv []Message) []llm.Message {
	out := make([]llm.Message, 0, len(conv))
	for _, m := range conv {
		out = append(out, llm.Message{
			Role:    string(m.Role),
			Content: m.Text(),
		})
	}
	return out
}
