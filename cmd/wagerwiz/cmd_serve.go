package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/wagerwiz/internal/chat"
	"github.com/user/wagerwiz/internal/config"
	"github.com/user/wagerwiz/internal/history"
	"github.com/user/wagerwiz/internal/logger"
	"github.com/user/wagerwiz/internal/metrics"
	"github.com/user/wagerwiz/internal/odds"
	"github.com/user/wagerwiz/internal/prompt"
	"github.com/user/wagerwiz/internal/server"
	"github.com/user/wagerwiz/pkg/llm"
	"github.com/user/wagerwiz/pkg/llm/openai"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the wagerwiz HTTP service",
	RunE:  runServe,
}

func newStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (history.ExchangeStore, func(), error) {
	if cfg.Postgres.DSN == "" {
		log.Warn("no postgres dsn configured, chat history is in-memory only")
		return history.NewMemory(), func() {}, nil
	}

	db, err := history.Connect(cfg.Postgres.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	pg := history.NewPostgres(db)
	if err := pg.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	return pg, func() { db.Close() }, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	log, err := logger.New("wagerwiz", cfg.Env)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer log.Sync()

	m := metrics.New(prometheus.DefaultRegisterer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := newStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

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
	registry.Register(odds.NewTool(oddsClient, cfg.Odds.DefaultSport, cfg.Odds.DefaultRegion, log, m))

	orch := chat.New(chat.Options{
		Provider:       provider,
		Registry:       registry,
		Prompts:        prompts,
		Store:          store,
		Log:            log,
		Metrics:        m,
		RequestTimeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		ToolTimeout:    time.Duration(cfg.ToolTimeoutSeconds) * time.Second,
		MaxToolRounds:  cfg.MaxToolRounds,
	})

	srv := server.New(server.Options{
		Responder:     orch,
		Store:         store,
		Log:           log,
		MaxConcurrent: int64(cfg.MaxConcurrent),
	})

	metricsSrv := metrics.StartServer(strconv.Itoa(cfg.MetricsPort), func(ctx context.Context) error {
		_, err := store.ListByOwner(ctx, history.GuestOwner)
		return err
	})
	defer metricsSrv.Shutdown(context.Background())

	httpSrv := &http.Server{
		Addr:    cfg.Listen,
		Handler: srv,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()

	log.Info("wagerwiz started",
		zap.String("listen", cfg.Listen),
		zap.Int("metrics_port", cfg.MetricsPort),
		zap.String("model", cfg.LLM.Model),
		zap.String("default_sport", cfg.Odds.DefaultSport),
		zap.Int("max_concurrent", cfg.MaxConcurrent),
		zap.Int("max_tool_rounds", cfg.MaxToolRounds),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown did not complete cleanly", zap.Error(err))
	}
	return nil
}
