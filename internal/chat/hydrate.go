package chat

import (
	"fmt"

	"github.com/user/wagerwiz/internal/history"
)

// HydrateHistory reconstructs a prior conversation from persisted
// exchanges: one user and one assistant message per record, oldest first,
// with IDs derived from the record key so the caller sees stable IDs
// across reloads.
func HydrateHistory(exchanges []*history.Exchange) []Message {
	messages := make([]Message, 0, 2*len(exchanges))
	for _, ex := range exchanges {
		messages = append(messages,
			Message{
				ID:    fmt.Sprintf("user-%d", ex.ID),
				Role:  RoleUser,
				Parts: []Part{{Type: PartText, Text: ex.Prompt}},
			},
			Message{
				ID:    fmt.Sprintf("assistant-%d", ex.ID),
				Role:  RoleAssistant,
				Parts: []Part{{Type: PartText, Text: ex.Response}},
			},
		)
	}
	return messages
}
