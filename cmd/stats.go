package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sfedor2020/Portfolio-Scripts/internal/config"
	"github.com/sfedor2020/Portfolio-Scripts/internal/gateway"
	"github.com/sfedor2020/Portfolio-Scripts/internal/usecase"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Fetches GitHub user statistics and outputs them as JSON",
	Long:  `Fetches the statistics of a GitHub user and prints the document to standard output without writing any file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg.Verbose)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		// Inject dependencies and run the main business logic.
		githubGateway, err := gateway.NewGitHubGateway(cfg.Token, gatewayOptions(cfg), logger)
		if err != nil {
			return err
		}
		aggregator := usecase.NewAggregator(githubGateway, logger)

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
		defer cancel()
		snapshot, err := aggregator.Aggregate(ctx, cfg.User)
		if err != nil {
			return err
		}

		content, err := snapshot.ToDocument(cfg.Timestamp).Encode()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(content)
		return err
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	config.AddFetchFlags(statsCmd.Flags())
}
