package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/wagerwiz/internal/chat"
	"github.com/user/wagerwiz/internal/odds"
	"github.com/user/wagerwiz/internal/prompt"
	"github.com/user/wagerwiz/pkg/llm"
	"github.com/user/wagerwiz/pkg/llm/openai"
)

func init() {
	rootCmd.AddCommand(askCmd)
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a one-off question without starting the server",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

// runAsk answers a single question over the non-streaming completion call,
// resolving tool rounds inline and printing the final answer.
func runAsk(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	question := strings.Join(args, " ")

	provider := openai.New(&llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})

	prompts, err := prompt.New(cfg.LLM.Model, cfg.LLM.MaxContextTokens, cfg.LLM.OutputReserve)
	if err != nil {
		return fmt.Errorf("create prompt engine: %w", err)
	}

	registry := chat.NewRegistry()
	oddsClient := odds.NewClient(cfg.Odds.APIKey)
	if cfg.Odds.BaseURL != "" {
		oddsClient.SetBaseURL(cfg.Odds.BaseURL)
	}
	registry.Register(odds.NewTool(oddsClient, cfg.Odds.DefaultSport, cfg.Odds.DefaultRegion, zap.NewNop(), nil))

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.RequestTimeoutSeconds)*time.Second)
	defer cancel()

	messages := prompts.Build([]llm.Message{{Role: "user", Content: question}})
	tools := registry.AsLLMTools()

	for round := 0; round < cfg.MaxToolRounds; round++ {
		resp, err := provider.Complete(ctx, messages, tools)
		if err != nil {
			return fmt.Errorf("model request: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			fmt.Fprintln(os.Stdout, resp.Content)
			return nil
		}

		messages = append(messages, llm.Message{
			Role:    "assistant",
			Content: resp.Content,
			Tools:   resp.ToolCalls,
		})
		for _, call := range resp.ToolCalls {
			messages = append(messages, llm.Message{
				Role:    "tool",
				Content: runAskTool(ctx, registry, call, cfg.ToolTimeoutSeconds),
				Tools:   []llm.ToolCall{call},
			})
		}
	}
	return fmt.Errorf("max tool rounds (%d) exceeded", cfg.MaxToolRounds)
}

func runAskTool(ctx context.Context, registry *chat.Registry, call llm.ToolCall, timeoutSeconds int) string {
	name := call.Function.Name
	tool, ok := registry.Get(name)
	if !ok {
		return fmt.Sprintf("error: unknown tool %q", name)
	}

	toolCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSeconds)*time.Second)
	defer cancel()

	result, err := tool.Execute(toolCtx, call.Function.Arguments)
	if err != nil {
		if toolCtx.Err() != nil && ctx.Err() == nil {
			return fmt.Sprintf("The %s tool timed out.", name)
		}
		return fmt.Sprintf("The %s tool failed and returned no data.", name)
	}
	return result
}
