package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String(FlagConfig, "", "")
	fs.BoolP(FlagVerbose, "v", false, "")
	AddFetchFlags(fs)
	AddUpdateFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func clearEnv(t *testing.T) {
	t.Setenv("GH_PAT", "")
	t.Setenv("GITHUB_TOKEN", "")
	os.Unsetenv("GH_PAT")
	os.Unsetenv("GITHUB_TOKEN")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(newFlagSet(t))
	require.NoError(t, err)
	assert.Equal(t, &Config{
		Timeout:        60 * time.Second,
		Timestamp:      true,
		RateLimitSleep: time.Minute,
		Output:         "stats.json",
		RunOnStart:     true,
		Remote:         "origin",
		CommitMessage:  "Update GitHub stats",
		AuthorName:     "github-actions[bot]",
		AuthorEmail:    "41898282+github-actions[bot]@users.noreply.github.com",
	}, cfg)
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("GITHUB_TOKEN", "from-github-token")
	t.Setenv("GH_PAT", "from-gh-pat")
	t.Setenv("STATS_OUTPUT", "env.json")
	t.Setenv("STATS_COMMIT_MESSAGE", "chore: stats")
	t.Setenv("STATS_TIMEOUT", "15s")

	cfg, err := Load(newFlagSet(t, "--output", "flag.json", "-u", "octocat", "--commit", "-v"))
	require.NoError(t, err)
	assert.Equal(t, "from-gh-pat", cfg.Token, "GH_PAT wins over GITHUB_TOKEN")
	assert.Equal(t, "flag.json", cfg.Output, "flags win over the environment")
	assert.Equal(t, "chore: stats", cfg.CommitMessage)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, "octocat", cfg.User)
	assert.True(t, cfg.Commit)
	assert.True(t, cfg.Verbose)
}

func TestLoad_TokenFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("GITHUB_TOKEN", "from-github-token")

	cfg, err := Load(newFlagSet(t))
	require.NoError(t, err)
	assert.Equal(t, "from-github-token", cfg.Token)
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "stats.yaml")
	require.NoError(t, os.WriteFile(path, []byte("user: octocat\nschedule: \"@every 6h\"\ntimestamp: false\n"), 0o644))

	cfg, err := Load(newFlagSet(t, "--config", path))
	require.NoError(t, err)
	assert.Equal(t, "octocat", cfg.User)
	assert.Equal(t, "@every 6h", cfg.Schedule)
	assert.False(t, cfg.Timestamp)

	_, err = Load(newFlagSet(t, "--config", filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	testCases := []struct {
		name           string
		args           []string
		expectedErrMsg string
	}{
		{name: "empty output", args: []string{"--output", ""}, expectedErrMsg: "output path must not be empty"},
		{name: "non positive timeout", args: []string{"--timeout", "0s"}, expectedErrMsg: "timeout must be positive"},
		{name: "push without commit", args: []string{"--push"}, expectedErrMsg: "--push requires --commit"},
		{name: "empty commit message", args: []string{"--commit", "--commit-message", ""}, expectedErrMsg: "commit message must not be empty"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			_, err := Load(newFlagSet(t, tc.args...))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectedErrMsg)
		})
	}
}
