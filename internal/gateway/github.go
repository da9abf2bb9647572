// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/sfedor2020/Portfolio-Scripts/internal/domain"
)

// Profile holds the account level data returned by the REST API.
type Profile struct {
	Login     string
	CreatedAt time.Time
	Followers int
	Following int
}

// Repository holds the per-repository fields needed for the stats.
type Repository struct {
	StargazerCount int
	IsPrivate      bool
}

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	// FetchProfile returns the profile of user, or of the authenticated user when user is empty.
	FetchProfile(ctx context.Context, user string) (*Profile, error)
	FetchContributionYears(ctx context.Context, user string) ([]int, error)
	FetchContributions(ctx context.Context, user string, from, to time.Time) (int, error)
	FetchRepositories(ctx context.Context, user string) ([]Repository, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *zap.Logger
}

// Options tunes the HTTP stack of the gateway.
type Options struct {
	// RateLimitSleep caps a single sleep on a secondary rate limit.
	RateLimitSleep time.Duration
	// RESTURL and GraphQLURL override the api.github.com endpoints,
	// e.g. for GitHub Enterprise Server.
	RESTURL    string
	GraphQLURL string
}

type contributionYearsQuery struct {
	User struct {
		ContributionsCollection struct {
			ContributionYears []int
		}
	} `graphql:"user(login: $login)"`
}

type contributionsQuery struct {
	User struct {
		ContributionsCollection struct {
			ContributionCalendar struct {
				TotalContributions int
			}
		} `graphql:"contributionsCollection(from: $from, to: $to)"`
	} `graphql:"user(login: $login)"`
}

type repositoriesQuery struct {
	User struct {
		Repositories struct {
			TotalCount int
			PageInfo   struct {
				HasNextPage bool
				EndCursor   githubv4.String
			}
			Nodes []struct {
				StargazerCount int
				IsPrivate      bool
			}
		} `graphql:"repositories(first: 100, after: $cursor, ownerAffiliations: [OWNER])"`
	} `graphql:"user(login: $login)"`
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
// An empty token is rejected with domain.ErrAuthentication.
func NewGitHubGateway(token string, opts Options, logger *zap.Logger) (Fetcher, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: access token is not set", domain.ErrAuthentication)
	}
	if opts.RateLimitSleep <= 0 {
		opts.RateLimitSleep = time.Minute
	}
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(opts.RateLimitSleep, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	restClient := github.NewClient(httpClient)
	if opts.RESTURL != "" {
		baseURL, err := url.Parse(strings.TrimSuffix(opts.RESTURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid REST API URL %q: %w", opts.RESTURL, err)
		}
		restClient.BaseURL = baseURL
	}
	graphqlClient := githubv4.NewClient(httpClient)
	if opts.GraphQLURL != "" {
		graphqlClient = githubv4.NewEnterpriseClient(opts.GraphQLURL, httpClient)
	}
	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		logger:        logger,
	}, nil
}

func (g *GitHubGateway) FetchProfile(ctx context.Context, user string) (*Profile, error) {
	g.logger.Debug("[1/4] Fetching user profile using REST API...", zap.String("user", user))
	u, _, err := g.restClient.Users.Get(ctx, user)
	if err != nil {
		return nil, classifyRESTError("failed to get user profile with REST API", err)
	}
	if u.GetLogin() == "" {
		return nil, fmt.Errorf("%w: user profile has no login", domain.ErrSerialization)
	}
	profile := &Profile{
		Login:     u.GetLogin(),
		CreatedAt: u.GetCreatedAt().Time,
		Followers: u.GetFollowers(),
		Following: u.GetFollowing(),
	}
	g.logger.Debug("Completed fetching user profile.", zap.String("login", profile.Login))
	return profile, nil
}

func (g *GitHubGateway) FetchContributionYears(ctx context.Context, user string) ([]int, error) {
	g.logger.Debug("[2/4] Fetching contribution years...", zap.String("user", user))
	var q contributionYearsQuery
	variables := map[string]interface{}{"login": githubv4.String(user)}
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return nil, classifyGraphQLError("failed to execute GraphQL query for contribution years", err)
	}
	return q.User.ContributionsCollection.ContributionYears, nil
}

func (g *GitHubGateway) FetchContributions(ctx context.Context, user string, from, to time.Time) (int, error) {
	g.logger.Debug("[3/4] Fetching contributions...",
		zap.String("user", user), zap.Time("from", from), zap.Time("to", to))
	var q contributionsQuery
	variables := map[string]interface{}{
		"login": githubv4.String(user),
		"from":  githubv4.DateTime{Time: from},
		"to":    githubv4.DateTime{Time: to},
	}
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return 0, classifyGraphQLError("failed to execute GraphQL query for contributions", err)
	}
	return q.User.ContributionsCollection.ContributionCalendar.TotalContributions, nil
}

func (g *GitHubGateway) FetchRepositories(ctx context.Context, user string) ([]Repository, error) {
	g.logger.Debug("[4/4] Fetching owned repositories...", zap.String("user", user))
	variables := map[string]interface{}{"login": githubv4.String(user), "cursor": (*githubv4.String)(nil)}
	var repos []Repository
	for {
		var q repositoriesQuery
		if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
			return nil, classifyGraphQLError("failed to execute GraphQL query for repositories", err)
		}
		for _, node := range q.User.Repositories.Nodes {
			repos = append(repos, Repository{StargazerCount: node.StargazerCount, IsPrivate: node.IsPrivate})
		}
		if !q.User.Repositories.PageInfo.HasNextPage {
			if total := q.User.Repositories.TotalCount; total != len(repos) {
				g.logger.Warn("Repository count does not match the reported total",
					zap.Int("fetched", len(repos)), zap.Int("totalCount", total))
			}
			break
		}
		variables["cursor"] = githubv4.NewString(q.User.Repositories.PageInfo.EndCursor)
		g.logger.Debug("  Fetching next page of repositories...")
	}
	g.logger.Debug("Completed fetching repositories.", zap.Int("count", len(repos)))
	return repos, nil
}

// classifyRESTError tags err with domain.ErrAuthentication for rejected
// credentials and domain.ErrFetch otherwise.
func classifyRESTError(msg string, err error) error {
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil && errResp.Response.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s: %w", domain.ErrAuthentication, msg, err)
	}
	var twoFactor *github.TwoFactorAuthError
	if errors.As(err, &twoFactor) {
		return fmt.Errorf("%w: %s: %w", domain.ErrAuthentication, msg, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrFetch, msg, err)
}

// classifyGraphQLError does the same for the GraphQL client, which only
// reports the HTTP status inside the error text.
func classifyGraphQLError(msg string, err error) error {
	if strings.Contains(err.Error(), "401 Unauthorized") {
		return fmt.Errorf("%w: %s: %w", domain.ErrAuthentication, msg, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrFetch, msg, err)
}
