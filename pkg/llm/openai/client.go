package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/user/wagerwiz/pkg/llm"
)

// Client implements the llm.Provider interface for OpenAI-compatible APIs.
type Client struct {
	config     *llm.Config
	httpClient *http.Client
}

// New creates a new OpenAI-compatible client with the given configuration.
// Request lifetimes are bounded by the caller's context rather than a
// client-wide timeout so that long streams are not cut off mid-generation.
func New(config *llm.Config) *Client {
	return &Client{
		config:     config,
		httpClient: &http.Client{},
	}
}

// chatRequest is the OpenAI chat completions request body.
type chatRequest struct {
	Model       string           `json:"model"`
	Messages    []requestMessage `json:"messages"`
	Tools       []llm.Tool       `json:"tools,omitempty"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
	Temperature *float32         `json:"temperature,omitempty"`
	Stream      bool             `json:"stream,omitempty"`
}

// requestMessage is the OpenAI message format for requests.
type requestMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []llm.ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

// chatResponse is the OpenAI chat completions response body.
type chatResponse struct {
	Choices []choice      `json:"choices"`
	Usage   responseUsage `json:"usage"`
}

// choice represents a single completion choice.
type choice struct {
	Message responseMessage `json:"message"`
}

// responseMessage is the OpenAI message format in responses.
type responseMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	ToolCalls []llm.ToolCall `json:"tool_calls,omitempty"`
}

// responseUsage is the OpenAI token usage format.
type responseUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// streamChunk is one SSE data payload of a streamed completion.
type streamChunk struct {
	Choices []streamChoice `json:"choices"`
}

type streamChoice struct {
	Delta        streamDelta `json:"delta"`
	FinishReason string      `json:"finish_reason"`
}

type streamDelta struct {
	Content   string               `json:"content"`
	ToolCalls []streamToolCallPart `json:"tool_calls"`
}

// streamToolCallPart is a fragment of a tool call. The name and arguments
// arrive split across chunks, keyed by index.
type streamToolCallPart struct {
	Index    int    `json:"index"`
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

func (c *Client) buildRequestMessages(messages []llm.Message) []requestMessage {
	reqMessages := make([]requestMessage, len(messages))
	for i, msg := range messages {
		rm := requestMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
		if msg.Role == "tool" && len(msg.Tools) > 0 {
			rm.ToolCallID = msg.Tools[0].ID
		} else if len(msg.Tools) > 0 {
			rm.ToolCalls = msg.Tools
		}
		reqMessages[i] = rm
	}
	return reqMessages
}

func (c *Client) newRequest(ctx context.Context, messages []llm.Message, tools []llm.Tool, stream bool) (*http.Request, error) {
	reqBody := chatRequest{
		Model:    c.config.Model,
		Messages: c.buildRequestMessages(messages),
		Stream:   stream,
	}

	if len(tools) > 0 {
		reqBody.Tools = tools
	}

	if c.config.MaxTokens > 0 {
		reqBody.MaxTokens = c.config.MaxTokens
	}

	if c.config.Temperature != 0 {
		temp := c.config.Temperature
		reqBody.Temperature = &temp
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := c.config.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	return req, nil
}

// Complete sends a chat completion request and returns the full response.
func (c *Client) Complete(ctx context.Context, messages []llm.Message, tools []llm.Tool) (*llm.Response, error) {
	req, err := c.newRequest(ctx, messages, tools, false)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	choice := chatResp.Choices[0]
	return &llm.Response{
		Content:   choice.Message.Content,
		ToolCalls: choice.Message.ToolCalls,
		Usage: llm.Usage{
			InputTokens:  chatResp.Usage.PromptTokens,
			OutputTokens: chatResp.Usage.CompletionTokens,
			TotalTokens:  chatResp.Usage.TotalTokens,
		},
	}, nil
}

// Stream sends a streaming chat completion request and emits one event per
// text delta. Tool call fragments are accumulated across chunks and attached
// fully assembled to the terminal StreamDone event.
func (c *Client) Stream(ctx context.Context, messages []llm.Message, tools []llm.Tool) (<-chan llm.StreamEvent, error) {
	req, err := c.newRequest(ctx, messages, tools, true)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	ch := make(chan llm.StreamEvent, 8)
	go c.consume(ctx, resp.Body, ch)
	return ch, nil
}

// toolCallBuilder accumulates one tool call's fragments.
type toolCallBuilder struct {
	id   string
	typ  string
	name string
	args strings.Builder
}

func (c *Client) consume(ctx context.Context, body io.ReadCloser, ch chan<- llm.StreamEvent) {
	defer close(ch)
	defer body.Close()

	builders := make(map[int]*toolCallBuilder)

	emit := func(ev llm.StreamEvent) bool {
		select {
		case ch <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	// Terminal events are sent unconditionally: dropping one on a cancelled
	// context would close the channel bare and make an aborted stream look
	// like a completed one. The receiver drains until close.
	terminal := func(ev llm.StreamEvent) {
		ch <- ev
	}

	done := func() {
		terminal(llm.StreamEvent{Type: llm.StreamDone, ToolCalls: assembleToolCalls(builders)})
	}

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			done()
			return
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			terminal(llm.StreamEvent{Type: llm.StreamError, Err: fmt.Errorf("parsing stream chunk: %w", err)})
			return
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta

		if delta.Content != "" {
			if !emit(llm.StreamEvent{Type: llm.StreamTextDelta, TextDelta: delta.Content}) {
				return
			}
		}

		for _, part := range delta.ToolCalls {
			b, ok := builders[part.Index]
			if !ok {
				b = &toolCallBuilder{}
				builders[part.Index] = b
			}
			if part.ID != "" {
				b.id = part.ID
			}
			if part.Type != "" {
				b.typ = part.Type
			}
			if part.Function.Name != "" {
				b.name = part.Function.Name
			}
			b.args.WriteString(part.Function.Arguments)
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		terminal(llm.StreamEvent{Type: llm.StreamError, Err: fmt.Errorf("reading stream: %w", err)})
		return
	}

	// A clean EOF without [DONE] is a truncated stream, not a completion.
	terminal(llm.StreamEvent{Type: llm.StreamError, Err: fmt.Errorf("stream ended without completion marker")})
}

func assembleToolCalls(builders map[int]*toolCallBuilder) []llm.ToolCall {
	if len(builders) == 0 {
		return nil
	}
	indexes := make([]int, 0, len(builders))
	for i := range builders {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	calls := make([]llm.ToolCall, 0, len(builders))
	for _, i := range indexes {
		b := builders[i]
		typ := b.typ
		if typ == "" {
			typ = "function"
		}
		args := b.args.String()
		if args == "" {
			args = "{}"
		}
		calls = append(calls, llm.ToolCall{
			ID:   b.id,
			Type: typ,
			Function: llm.FunctionCall{
				Name:      b.name,
				Arguments: json.RawMessage(args),
			},
		})
	}
	return calls
}
