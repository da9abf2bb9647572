// Package config resolves the run configuration from flags, environment
// variables and an optional config file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variable of every flag,
// e.g. STATS_OUTPUT for --output.
const EnvPrefix = "STATS"

// Flag names.
const (
	FlagConfig         = "config"
	FlagVerbose        = "verbose"
	FlagUser           = "user"
	FlagTimeout        = "timeout"
	FlagTimestamp      = "timestamp"
	FlagRateLimitSleep = "rate-limit-sleep"
	FlagAPIURL         = "api-url"
	FlagGraphQLURL     = "graphql-url"
	FlagOutput         = "output"
	FlagSchedule       = "schedule"
	FlagRunOnStart     = "run-on-start"
	FlagCommit         = "commit"
	FlagPush           = "push"
	FlagRemote         = "remote"
	FlagCommitMessage  = "commit-message"
	FlagAuthorName     = "author-name"
	FlagAuthorEmail    = "author-email"
)

var defaults = map[string]interface{}{
	FlagTimeout:        60 * time.Second,
	FlagTimestamp:      true,
	FlagRateLimitSleep: time.Minute,
	FlagOutput:         "stats.json",
	FlagRunOnStart:     true,
	FlagRemote:         "origin",
	FlagCommitMessage:  "Update GitHub stats",
	FlagAuthorName:     "github-actions[bot]",
	FlagAuthorEmail:    "41898282+github-actions[bot]@users.noreply.github.com",
}

// Config is the resolved configuration of a run.
type Config struct {
	// Token is read from GH_PAT or GITHUB_TOKEN only. Never log it.
	Token          string
	Verbose        bool
	User           string
	Timeout        time.Duration
	Timestamp      bool
	RateLimitSleep time.Duration
	APIURL         string
	GraphQLURL     string
	Output         string
	Schedule       string
	RunOnStart     bool
	Commit         bool
	Push           bool
	Remote         string
	CommitMessage  string
	AuthorName     string
	AuthorEmail    string
}

// AddFetchFlags registers the flags that control fetching.
func AddFetchFlags(fs *pflag.FlagSet) {
	fs.StringP(FlagUser, "u", "", "GitHub user name (default: owner of the token)")
	fs.Duration(FlagTimeout, defaults[FlagTimeout].(time.Duration), "Timeout of a single run")
	fs.Bool(FlagTimestamp, defaults[FlagTimestamp].(bool), "Include the fetch time in the document")
	fs.Duration(FlagRateLimitSleep, defaults[FlagRateLimitSleep].(time.Duration), "Longest single wait on a secondary rate limit")
	fs.String(FlagAPIURL, "", "GitHub REST API base URL (default: https://api.github.com/)")
	fs.String(FlagGraphQLURL, "", "GitHub GraphQL endpoint (default: https://api.github.com/graphql)")
}

// AddUpdateFlags registers the flags that control persisting and committing.
func AddUpdateFlags(fs *pflag.FlagSet) {
	fs.StringP(FlagOutput, "o", defaults[FlagOutput].(string), "Path of the JSON stats file")
	fs.String(FlagSchedule, "", `Cron schedule, e.g. "0 0 * * *" or "@every 6h" (default: run once)`)
	fs.Bool(FlagRunOnStart, defaults[FlagRunOnStart].(bool), "With --schedule, also run once immediately")
	fs.Bool(FlagCommit, false, "Commit the stats file when it changed")
	fs.Bool(FlagPush, false, "Push the commit (requires --commit)")
	fs.String(FlagRemote, defaults[FlagRemote].(string), "Remote to push to")
	fs.String(FlagCommitMessage, defaults[FlagCommitMessage].(string), "Commit message")
	fs.String(FlagAuthorName, defaults[FlagAuthorName].(string), "Commit author name")
	fs.String(FlagAuthorEmail, defaults[FlagAuthorEmail].(string), "Commit author email")
}

// Load resolves the configuration. Precedence: flags set on the command
// line, STATS_* environment variables, the config file, defaults.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("token", "GH_PAT", "GITHUB_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind token environment: %w", err)
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	if file := v.GetString(FlagConfig); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		Token:          v.GetString("token"),
		Verbose:        v.GetBool(FlagVerbose),
		User:           v.GetString(FlagUser),
		Timeout:        v.GetDuration(FlagTimeout),
		Timestamp:      v.GetBool(FlagTimestamp),
		RateLimitSleep: v.GetDuration(FlagRateLimitSleep),
		APIURL:         v.GetString(FlagAPIURL),
		GraphQLURL:     v.GetString(FlagGraphQLURL),
		Output:         v.GetString(FlagOutput),
		Schedule:       v.GetString(FlagSchedule),
		RunOnStart:     v.GetBool(FlagRunOnStart),
		Commit:         v.GetBool(FlagCommit),
		Push:           v.GetBool(FlagPush),
		Remote:         v.GetString(FlagRemote),
		CommitMessage:  v.GetString(FlagCommitMessage),
		AuthorName:     v.GetString(FlagAuthorName),
		AuthorEmail:    v.GetString(FlagAuthorEmail),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks option combinations. A missing token is not a
// configuration error; the gateway reports it as an authentication failure.
func (c *Config) Validate() error {
	var errs []error
	if c.Output == "" {
		errs = append(errs, errors.New("output path must not be empty"))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if c.Push && !c.Commit {
		errs = append(errs, errors.New("--push requires --commit"))
	}
	if c.Commit && c.CommitMessage == "" {
		errs = append(errs, errors.New("commit message must not be empty"))
	}
	return errors.Join(errs...)
}
