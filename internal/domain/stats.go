// Package domain contains the core data structures and domain logic for the application.
package domain

import "time"

// Document keys written to the stats file.
const (
	KeyUsername                   = "username"
	KeyTotalContributionsAllTime  = "totalContributionsAllTime"
	KeyTotalContributionsLastYear = "totalContributionsLastYear"
	KeyTotalRepositories          = "totalRepositories"
	KeyPublicRepositories         = "publicRepositories"
	KeyPrivateRepositories        = "privateRepositories"
	KeyFollowers                  = "followers"
	KeyFollowing                  = "following"
	KeyTotalStarsReceived         = "totalStarsReceived"
	KeyAverageStarsPerRepository  = "averageStarsPerRepository"
	KeyMedianStarsPerRepository   = "medianStarsPerRepository"
	KeyDataFetchedAt              = "dataFetchedAt"
)

// Snapshot holds the point-in-time statistics of a single GitHub user.
// It is the core domain entity of this application.
type Snapshot struct {
	Username                   string
	TotalContributionsAllTime  int
	TotalContributionsLastYear int
	TotalRepositories          int
	PublicRepositories         int
	PrivateRepositories        int
	Followers                  int
	Following                  int
	TotalStarsReceived         int
	AverageStarsPerRepository  float64
	MedianStarsPerRepository   float64
	FetchedAt                  time.Time
}

// ToDocument converts the snapshot into the document persisted on disk.
// The fetch timestamp is only included when withTimestamp is set.
func (s *Snapshot) ToDocument(withTimestamp bool) Document {
	doc := Document{
		KeyUsername:                   s.Username,
		KeyTotalContributionsAllTime:  s.TotalContributionsAllTime,
		KeyTotalContributionsLastYear: s.TotalContributionsLastYear,
		KeyTotalRepositories:          s.TotalRepositories,
		KeyPublicRepositories:         s.PublicRepositories,
		KeyPrivateRepositories:        s.PrivateRepositories,
		KeyFollowers:                  s.Followers,
		KeyFollowing:                  s.Following,
		KeyTotalStarsReceived:         s.TotalStarsReceived,
		KeyAverageStarsPerRepository:  s.AverageStarsPerRepository,
		KeyMedianStarsPerRepository:   s.MedianStarsPerRepository,
	}
	if withTimestamp {
		doc[KeyDataFetchedAt] = s.FetchedAt.UTC().Format(time.RFC3339)
	}
	return doc
}

// VolatileKeys lists the keys whose values change on every run and must not,
// on their own, count as a change of the document.
var VolatileKeys = []string{KeyDataFetchedAt}
