// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sfedor2020/Portfolio-Scripts/internal/config"
	"github.com/sfedor2020/Portfolio-Scripts/internal/domain"
	"github.com/sfedor2020/Portfolio-Scripts/internal/gateway"
)

// Exit statuses of the process.
const (
	exitOK             = 0
	exitFailure        = 1
	exitAuthentication = 2
	exitFetch          = 3
	exitSerialization  = 4
	exitWrite          = 5
)

var rootCmd = &cobra.Command{
	Use:   "portfolio-stats",
	Short: "A CLI tool to snapshot GitHub user statistics into a JSON file.",
	Long: `portfolio-stats fetches a GitHub user's statistics (contributions,
repositories, stars, followers) and writes them to a JSON file, only touching
the file when the statistics changed. The access token is read from the
GH_PAT or GITHUB_TOKEN environment variable.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCode(err))
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP(config.FlagVerbose, "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().String(config.FlagConfig, "", "Path to a config file (yaml, json or toml)")
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, domain.ErrAuthentication):
		return exitAuthentication
	case errors.Is(err, domain.ErrFetch):
		return exitFetch
	case errors.Is(err, domain.ErrSerialization):
		return exitSerialization
	case errors.Is(err, domain.ErrWrite):
		return exitWrite
	default:
		return exitFailure
	}
}

// newLogger logs warnings and errors to standard error, everything with verbose.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.Sampling = nil
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

func gatewayOptions(cfg *config.Config) gateway.Options {
	return gateway.Options{
		RateLimitSleep: cfg.RateLimitSleep,
		RESTURL:        cfg.APIURL,
		GraphQLURL:     cfg.GraphQLURL,
	}
}
