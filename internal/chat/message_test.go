package chat

import (
	"errors"
	"testing"

	"github.com/user/wagerwiz/internal/history"
)

func TestValidateConversation(t *testing.T) {
	cases := []struct {
		name    string
		conv    []Message
		wantErr bool
	}{
		{"nil conversation", nil, true},
		{"empty conversation", []Message{}, true},
		{"unknown role", []Message{{ID: "1", Role: "wizard", Parts: []Part{{Type: PartText, Text: "hi"}}}}, true},
		{"no parts", []Message{{ID: "1", Role: RoleUser}}, true},
		{"no user text", []Message{NewMessage(RoleAssistant, "hello")}, true},
		{"valid", []Message{NewMessage(RoleUser, "hello")}, false},
		{"valid multi-turn", []Message{
			NewMessage(RoleUser, "hello"),
			NewMessage(RoleAssistant, "hi"),
			NewMessage(RoleUser, "odds?"),
		}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateConversation(tc.conv)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
			} else if err != nil {
				t.Errorf("expected valid conversation, got %v", err)
			}
		})
	}
}

func TestLastUserText(t *testing.T) {
	conv := []Message{
		NewMessage(RoleUser, "first"),
		NewMessage(RoleAssistant, "reply"),
		NewMessage(RoleUser, "second"),
	}
	if got := LastUserText(conv); got != "second" {
		t.Errorf("expected 'second', got %q", got)
	}
}

func TestMessageTextJoinsParts(t *testing.T) {
	m := Message{
		ID:   "1",
		Role: RoleUser,
		Parts: []Part{
			{Type: PartText, Text: "What's on "},
			{Type: "image", Text: "ignored"},
			{Type: PartText, Text: "today?"},
		},
	}
	if got := m.Text(); got != "What's on today?" {
		t.Errorf("unexpected text %q", got)
	}
}

func TestToModel(t *testing.T) {
	conv := []Message{
		NewMessage(RoleUser, "hello"),
		NewMessage(RoleAssistant, "hi"),
	}
	msgs := ToModel(conv)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[0].Content != "hello" {
		t.Errorf("unexpected first message %+v", msgs[0])
	}
}

func TestHydrateHistory(t *testing.T) {
	exchanges := []*history.Exchange{
		{ID: 7, OwnerID: history.GuestOwner, Prompt: "p1", Response: "r1"},
		{ID: 9, OwnerID: history.GuestOwner, Prompt: "p2", Response: "r2"},
	}

	messages := HydrateHistory(exchanges)
	if len(messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(messages))
	}
	if messages[0].ID != "user-7" || messages[0].Role != RoleUser || messages[0].Text() != "p1" {
		t.Errorf("unexpected first message %+v", messages[0])
	}
	if messages[1].ID != "assistant-7" || messages[1].Role != RoleAssistant || messages[1].Text() != "r1" {
		t.Errorf("unexpected second message %+v", messages[1])
	}
	if messages[2].ID != "user-9" || messages[3].ID != "assistant-9" {
		t.Errorf("expected record order preserved, got %s, %s", messages[2].ID, messages[3].ID)
	}
}
