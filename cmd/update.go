package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sfedor2020/Portfolio-Scripts/internal/config"
	"github.com/sfedor2020/Portfolio-Scripts/internal/gateway"
	"github.com/sfedor2020/Portfolio-Scripts/internal/scheduler"
	"github.com/sfedor2020/Portfolio-Scripts/internal/store"
	"github.com/sfedor2020/Portfolio-Scripts/internal/usecase"
	"github.com/sfedor2020/Portfolio-Scripts/internal/vcs"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Updates the stats file when the GitHub statistics changed",
	Long: `Fetches the statistics of a GitHub user, compares them with the stats file
and rewrites the file only when they differ. Prints "changed=true" or
"changed=false" and, inside GitHub Actions, sets the "changed" step output.

With --schedule the command keeps running and updates on every tick.
With --commit the file is committed to the enclosing git repository.`,
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

		runner, err := newUpdateRunner(cfg, cmd.OutOrStdout(), logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if cfg.Schedule == "" {
			return runner.run(ctx)
		}
		s, err := scheduler.New(cfg.Schedule, runner.run, cfg.RunOnStart, logger)
		if err != nil {
			return err
		}
		return s.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
	config.AddFetchFlags(updateCmd.Flags())
	config.AddUpdateFlags(updateCmd.Flags())
}

// updateRunner performs one update: fetch, compare, write, report and
// optionally commit.
type updateRunner struct {
	cfg     *config.Config
	store   *store.FileStore
	updater *usecase.Updater
	out     io.Writer
	logger  *zap.Logger
}

func newUpdateRunner(cfg *config.Config, out io.Writer, logger *zap.Logger) (*updateRunner, error) {
	githubGateway, err := gateway.NewGitHubGateway(cfg.Token, gatewayOptions(cfg), logger)
	if err != nil {
		return nil, err
	}
	fileStore := store.NewFileStore(cfg.Output)
	updater := usecase.NewUpdater(
		usecase.NewAggregator(githubGateway, logger),
		fileStore,
		usecase.UpdaterOptions{User: cfg.User, Timestamp: cfg.Timestamp},
		logger,
	)
	return &updateRunner{cfg: cfg, store: fileStore, updater: updater, out: out, logger: logger}, nil
}

func (r *updateRunner) run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	result, err := r.updater.Run(ctx)
	if err != nil {
		return err
	}
	return r.report(ctx, result.Changed)
}

// report publishes the changed flag and hands a changed file to git.
func (r *updateRunner) report(ctx context.Context, changed bool) error {
	fmt.Fprintf(r.out, "changed=%t\n", changed)
	if err := writeActionsOutput(os.Getenv("GITHUB_OUTPUT"), changed); err != nil {
		return err
	}
	if !changed || !r.cfg.Commit {
		return nil
	}

	committer, err := vcs.Open(r.store.Path(), vcs.Author{Name: r.cfg.AuthorName, Email: r.cfg.AuthorEmail}, r.logger)
	if err != nil {
		return err
	}
	if _, err := committer.Commit(r.store.Path(), r.cfg.CommitMessage); err != nil {
		return err
	}
	if r.cfg.Push {
		return committer.Push(ctx, r.cfg.Remote, r.cfg.Token)
	}
	return nil
}

// writeActionsOutput appends the changed step output to the GitHub Actions
// output file. An empty path is a no-op.
func writeActionsOutput(path string, changed bool) error {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open GitHub Actions output: %w", err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "changed=%t\n", changed); err != nil {
		return fmt.Errorf("failed to write GitHub Actions output: %w", err)
	}
	return nil
}
