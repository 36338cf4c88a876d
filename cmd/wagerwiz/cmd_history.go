package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/wagerwiz/internal/chat"
	"github.com/user/wagerwiz/internal/history"
)

func init() {
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the stored guest conversation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if cfg.Postgres.DSN == "" {
			return fmt.Errorf("no postgres dsn configured")
		}

		db, err := history.Connect(cfg.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		exchanges, err := history.NewPostgres(db).ListByOwner(ctx, history.GuestOwner)
		if err != nil {
			return fmt.Errorf("list history: %w", err)
		}

		for _, m := range chat.HydrateHistory(exchanges) {
			fmt.Fprintf(os.Stdout, "[%s] %s\n", m.Role, m.Text())
		}
		return nil
	},
}
