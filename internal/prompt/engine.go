package prompt

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/user/wagerwiz/pkg/llm"
)

// DefaultSystemPrompt frames the assistant for every request.
const DefaultSystemPrompt = "You are a helpful AI assistant, who provides sports analytics and " +
	"real-time betting suggestions. You base your suggestions on data and insights from " +
	"professional analysts and experts worldwide. Your primary function is to provide " +
	"data-driven recommendations, not guaranteed wins. When you receive structured odds data, " +
	"reason over the exact prices when comparing favorites and underdogs."

// Engine assembles token-budgeted model input from a conversation.
type Engine struct {
	tokenizer *tiktoken.Tiktoken
	maxTokens int
	reserve   int
	system    string
}

// New creates a prompt engine for the given model. maxTokens is the model's
// context window; reserve is held back for the model's own output.
func New(model string, maxTokens, reserve int) (*Engine, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// Unknown models fall back to cl100k_base.
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}
	return &Engine{
		tokenizer: enc,
		maxTokens: maxTokens,
		reserve:   reserve,
		system:    DefaultSystemPrompt,
	}, nil
}

func (e *Engine) countTokens(text string) int {
	return len(e.tokenizer.Encode(text, nil, nil))
}

func (e *Engine) messageTokens(msg llm.Message) int {
	n := e.countTokens(msg.Content)
	for _, tc := range msg.Tools {
		n += e.countTokens(tc.Function.Name)
		n += e.countTokens(string(tc.Function.Arguments))
	}
	return n
}

// Build prepends the system prompt and trims the conversation to the token
// budget, dropping the oldest turns first. The newest message is always
// kept so the model never sees an empty conversation.
func (e *Engine) Build(conv []llm.Message) []llm.Message {
	budget := e.maxTokens - e.reserve - e.countTokens(e.system)

	keepFrom := len(conv)
	used := 0
	for i := len(conv) - 1; i >= 0; i-- {
		n := e.messageTokens(conv[i])
		if used+n > budget && keepFrom < len(conv) {
			break
		}
		used += n
		keepFrom = i
	}

	messages := make([]llm.Message, 0, 1+len(conv)-keepFrom)
	messages = append(messages, llm.Message{Role: "system", Content: e.system})
	messages = append(messages, conv[keepFrom:]...)
	return messages
}
