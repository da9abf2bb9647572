// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/montanaflynn/stats"
	"go.uber.org/zap"

	"github.com/sfedor2020/Portfolio-Scripts/internal/domain"
	"github.com/sfedor2020/Portfolio-Scripts/internal/gateway"
)

// Aggregator is the use case for aggregating GitHub stats.
// It orchestrates the fetching and combining of data into a Snapshot.
type Aggregator struct {
	fetcher gateway.Fetcher
	logger  *zap.Logger
	now     func() time.Time
}

// NewAggregator creates a new Aggregator instance.
func NewAggregator(fetcher gateway.Fetcher, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		fetcher: fetcher,
		logger:  logger,
		now:     time.Now,
	}
}

// Aggregate performs the main business logic.
// Fetches run one after another; user may be empty to target the token's own account.
func (a *Aggregator) Aggregate(ctx context.Context, user string) (*domain.Snapshot, error) {
	a.logger.Debug("Usecase: Starting data aggregation...")
	now := a.now().UTC()

	profile, err := a.fetcher.FetchProfile(ctx, user)
	if err != nil {
		return nil, err
	}
	login := profile.Login

	allTime, err := a.allTimeContributions(ctx, login, profile.CreatedAt, now)
	if err != nil {
		return nil, err
	}

	lastYear, err := a.fetcher.FetchContributions(ctx, login, now.AddDate(0, 0, -365), now)
	if err != nil {
		return nil, err
	}

	repos, err := a.fetcher.FetchRepositories(ctx, login)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("Usecase: All data fetched successfully.")

	snapshot := &domain.Snapshot{
		Username:                   login,
		TotalContributionsAllTime:  allTime,
		TotalContributionsLastYear: lastYear,
		TotalRepositories:          len(repos),
		Followers:                  profile.Followers,
		Following:                  profile.Following,
		FetchedAt:                  now,
	}

	stars := make(stats.Float64Data, 0, len(repos))
	for _, repo := range repos {
		if repo.StargazerCount < 0 {
			return nil, fmt.Errorf("%w: negative stargazer count %d", domain.ErrSerialization, repo.StargazerCount)
		}
		if repo.IsPrivate {
			snapshot.PrivateRepositories++
		} else {
			snapshot.PublicRepositories++
		}
		snapshot.TotalStarsReceived += repo.StargazerCount
		stars = append(stars, float64(repo.StargazerCount))
	}
	if snapshot.AverageStarsPerRepository, err = starStatistic(stars, stats.Mean); err != nil {
		return nil, err
	}
	if snapshot.MedianStarsPerRepository, err = starStatistic(stars, stats.Median); err != nil {
		return nil, err
	}

	if allTime < 0 || lastYear < 0 || profile.Followers < 0 || profile.Following < 0 {
		return nil, fmt.Errorf("%w: negative count in response", domain.ErrSerialization)
	}

	a.logger.Debug("Usecase: Aggregation complete.", zap.String("user", login))
	return snapshot, nil
}

// allTimeContributions sums the contribution calendars of every contribution
// year. A single contributionsCollection may span at most one year.
func (a *Aggregator) allTimeContributions(ctx context.Context, login string, createdAt, now time.Time) (int, error) {
	years, err := a.fetcher.FetchContributionYears(ctx, login)
	if err != nil {
		return 0, err
	}
	years = slices.Clone(years)
	slices.Sort(years)

	total := 0
	for _, year := range years {
		from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		if createdAt.After(from) {
			from = createdAt
		}
		to := time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC).Add(-time.Second)
		if to.After(now) {
			to = now
		}
		if !from.Before(to) {
			continue
		}
		count, err := a.fetcher.FetchContributions(ctx, login, from, to)
		if err != nil {
			return 0, err
		}
		total += count
	}
	return total, nil
}

// starStatistic applies fn to the star counts rounded to two decimals;
// no repositories yields zero.
func starStatistic(stars stats.Float64Data, fn func(stats.Float64Data) (float64, error)) (float64, error) {
	if len(stars) == 0 {
		return 0, nil
	}
	value, err := fn(stars)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to compute star statistics: %w", domain.ErrSerialization, err)
	}
	rounded, err := stats.Round(value, 2)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to round star statistics: %w", domain.ErrSerialization, err)
	}
	return rounded, nil
}
