package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/user/wagerwiz/internal/history"
	"github.com/user/wagerwiz/internal/metrics"
	"github.com/user/wagerwiz/internal/prompt"
	"github.com/user/wagerwiz/pkg/llm"
)

// EventKind discriminates the variants of an orchestrator Event.
type EventKind string

const (
	// EventTextDelta carries an incremental chunk of the assistant's reply.
	EventTextDelta EventKind = "text-delta"
	// EventToolCall signals that a tool invocation is starting.
	EventToolCall EventKind = "tool-call"
	// EventToolResult signals that a tool invocation resolved and its result
	// was folded back into the model's context.
	EventToolResult EventKind = "tool-result"
	// EventDone carries the finalized assistant message and ends the stream.
	EventDone EventKind = "done"
	// EventError ends the stream with a terminal failure.
	EventError EventKind = "error"
)

// Event is one step of an in-flight response stream.
type Event struct {
	Kind      EventKind
	TextDelta string
	Tool      string
	Final     *Message
	Err       error
}

const (
	defaultRequestTimeout = 55 * time.Second
	defaultToolTimeout    = 10 * time.Second
	defaultMaxToolRounds  = 5
	persistTimeout        = 10 * time.Second
)

// Streamer is the model-facing capability the orchestrator requires.
// Full providers satisfy it; fakes only need the streaming half.
type Streamer interface {
	Stream(ctx context.Context, messages []llm.Message, tools []llm.Tool) (<-chan llm.StreamEvent, error)
}

// Options configures an Orchestrator. Provider, Registry, Prompts, Store,
// and Log are required; zero timeouts fall back to the defaults.
type Options struct {
	Provider Streamer
	Registry *Registry
	Prompts  *prompt.Engine
	Store    history.ExchangeStore
	Log      *zap.Logger
	Metrics  *metrics.Metrics
	Owner    string

	// RequestTimeout bounds the whole request; on expiry the generation is
	// cancelled and the stream terminates with ErrRequestTimeout.
	RequestTimeout time.Duration
	// ToolTimeout bounds a single tool invocation; on expiry the tool
	// reports a timeout result and generation continues.
	ToolTimeout time.Duration
	// MaxToolRounds is a runaway guard on model-initiated tool loops.
	MaxToolRounds int
}

// Orchestrator turns a conversation into an incremental response stream,
// dispatching tool calls the model issues mid-generation and recording the
// completed exchange as a side effect.
type Orchestrator struct {
	provider Streamer
	registry *Registry
	prompts  *prompt.Engine
	store    history.ExchangeStore
	log      *zap.Logger
	metrics  *metrics.Metrics
	owner    string

	requestTimeout time.Duration
	toolTimeout    time.Duration
	maxToolRounds  int
}

// New creates an Orchestrator from the given options.
func New(opts Options) *Orchestrator {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.ToolTimeout <= 0 {
		opts.ToolTimeout = defaultToolTimeout
	}
	if opts.MaxToolRounds <= 0 {
		opts.MaxToolRounds = defaultMaxToolRounds
	}
	if opts.Owner == "" {
		opts.Owner = history.GuestOwner
	}
	return &Orchestrator{
		provider:       opts.Provider,
		registry:       opts.Registry,
		prompts:        opts.Prompts,
		store:          opts.Store,
		log:            opts.Log,
		metrics:        opts.Metrics,
		owner:          opts.Owner,
		requestTimeout: opts.RequestTimeout,
		toolTimeout:    opts.ToolTimeout,
		maxToolRounds:  opts.MaxToolRounds,
	}
}

// Respond validates the conversation and starts a response stream. The
// returned channel terminates with exactly one EventDone or EventError and
// is then closed. Persistence of the completed exchange happens after the
// channel closes and never delays or fails the stream.
func (o *Orchestrator) Respond(ctx context.Context, conv []Message) (<-chan Event, error) {
	if err := ValidateConversation(conv); err != nil {
		return nil, err
	}

	out := make(chan Event, 16)
	go o.run(ctx, conv, out)
	return out, nil
}

func (o *Orchestrator) run(parent context.Context, conv []Message, out chan<- Event) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(parent, o.requestTimeout)
	final, ok := o.generate(ctx, parent, conv, out)
	cancel()

	// Close before persisting: stream completion must never wait on the
	// durable store.
	close(out)
	o.metrics.ObserveStream(time.Since(start))

	if ok {
		o.persist(parent, LastUserText(conv), final)
	}
}

// generate drives the stream state machine. It returns the full assistant
// text and whether the exchange completed and should be persisted.
func (o *Orchestrator) generate(ctx, parent context.Context, conv []Message, out chan<- Event) (string, bool) {
	messages := o.prompts.Build(ToModel(conv))
	tools := o.registry.AsLLMTools()

	var final strings.Builder

	for round := 0; round < o.maxToolRounds; round++ {
		stream, err := o.provider.Stream(ctx, messages, tools)
		if err != nil {
			o.fail(ctx, parent, out, err)
			return "", false
		}

		var calls []llm.ToolCall
		completed := false
		for ev := range stream {
			switch ev.Type {
			case llm.StreamTextDelta:
				final.WriteString(ev.TextDelta)
				if !o.emit(parent, out, Event{Kind: EventTextDelta, TextDelta: ev.TextDelta}) {
					go drain(stream)
					return "", false
				}
			case llm.StreamDone:
				completed = true
				calls = ev.ToolCalls
			case llm.StreamError:
				go drain(stream)
				o.fail(ctx, parent, out, ev.Err)
				return "", false
			}
		}

		// A channel that closed without a terminal done event means the
		// provider stream was cut off; the partial text must not be
		// finalized or persisted.
		if !completed {
			o.fail(ctx, parent, out, fmt.Errorf("model stream ended without completing"))
			return "", false
		}

		if len(calls) == 0 {
			msg := NewMessage(RoleAssistant, final.String())
			o.emit(parent, out, Event{Kind: EventDone, Final: &msg})
			o.metrics.ChatRequest("ok")
			return final.String(), true
		}

		// Fold the assistant's tool request and every result back into the
		// model input before the next pass; no speculative continuation.
		messages = append(messages, llm.Message{Role: "assistant", Content: "", Tools: calls})
		for _, call := range calls {
			if !o.emit(parent, out, Event{Kind: EventToolCall, Tool: call.Function.Name}) {
				return "", false
			}
			result := o.invokeTool(ctx, call)
			messages = append(messages, llm.Message{
				Role:    "tool",
				Content: result,
				Tools:   []llm.ToolCall{call},
			})
			if !o.emit(parent, out, Event{Kind: EventToolResult, Tool: call.Function.Name}) {
				return "", false
			}
		}
	}

	o.fail(ctx, parent, out, fmt.Errorf("max tool rounds (%d) exceeded", o.maxToolRounds))
	return "", false
}

// invokeTool runs one tool call under the tool deadline. Whatever happens,
// the outcome is a string for the model; a tool can slow down or fail the
// answer's quality, never the stream.
func (o *Orchestrator) invokeTool(ctx context.Context, call llm.ToolCall) string {
	name := call.Function.Name
	tool, ok := o.registry.Get(name)
	if !ok {
		o.log.Warn("model requested unknown tool", zap.String("tool", name))
		return fmt.Sprintf("error: unknown tool %q", name)
	}

	toolCtx, cancel := context.WithTimeout(ctx, o.toolTimeout)
	defer cancel()

	result, err := tool.Execute(toolCtx, call.Function.Arguments)
	if err != nil {
		o.log.Warn("tool execution failed", zap.String("tool", name), zap.Error(err))
		if toolCtx.Err() != nil && ctx.Err() == nil {
			return fmt.Sprintf("The %s tool timed out.", name)
		}
		return fmt.Sprintf("The %s tool failed and returned no data.", name)
	}
	return result
}

// fail classifies a terminal failure and emits the error event. Text
// already streamed stays with the caller; the stream itself still ends
// deterministically.
func (o *Orchestrator) fail(ctx, parent context.Context, out chan<- Event, err error) {
	switch {
	case parent.Err() != nil:
		// Caller went away; nobody is listening.
		o.metrics.ChatRequest("cancelled")
		return
	case ctx.Err() == context.DeadlineExceeded:
		o.metrics.ChatRequest("request_timeout")
		o.log.Warn("request deadline exceeded", zap.Error(err))
		o.emit(parent, out, Event{Kind: EventError, Err: ErrRequestTimeout})
	default:
		o.metrics.ChatRequest("error")
		o.log.Error("generation failed", zap.Error(err))
		o.emit(parent, out, Event{Kind: EventError, Err: err})
	}
}

// drain consumes an abandoned provider stream so its sender can deliver
// its terminal event and close.
func drain(stream <-chan llm.StreamEvent) {
	for range stream {
	}
}

func (o *Orchestrator) emit(parent context.Context, out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		return true
	case <-parent.Done():
		return false
	}
}

// persist records the completed exchange. Best effort on a detached
// context: failures are logged and swallowed, never surfaced.
func (o *Orchestrator) persist(parent context.Context, promptText, responseText string) {
	if promptText == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), persistTimeout)
	defer cancel()

	ex := &history.Exchange{
		OwnerID:  o.owner,
		Prompt:   promptText,
		Response: responseText,
	}
	if err := o.store.Append(ctx, ex); err != nil {
		o.metrics.PersistFailure()
		o.log.Error("exchange persistence failed", zap.Error(err))
		return
	}
	o.metrics.ExchangePersisted()
	o.log.Debug("exchange persisted", zap.Int64("id", ex.ID))
}
