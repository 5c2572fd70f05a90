package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tripheatmap/neighborhood-cli/internal/api"
	"github.com/tripheatmap/neighborhood-cli/internal/ranking"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		registry, err := loadRegistry()
		if err != nil {
			return err
		}

		st, closeStore, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		srv := api.NewServer(st, registry, ranking.NewEngine(cfg.Ranking.TopN))
		return srv.ListenAndServe(ctx, fmt.Sprintf(":%d", cfg.Server.Port))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
