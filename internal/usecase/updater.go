package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/sfedor2020/Portfolio-Scripts/internal/domain"
)

// SnapshotSource produces the current statistics of a user.
type SnapshotSource interface {
	Aggregate(ctx context.Context, user string) (*domain.Snapshot, error)
}

// Store reads and replaces the persisted document.
// Read returns empty content when nothing has been persisted yet.
type Store interface {
	Read() ([]byte, error)
	Write(content []byte) error
}

// UpdaterOptions configures an Updater.
type UpdaterOptions struct {
	// User is the GitHub login to snapshot; empty means the token's owner.
	User string
	// Timestamp adds the volatile fetch time to the document.
	Timestamp bool
}

// Result is the outcome of a single update.
type Result struct {
	Document domain.Document
	// Content is the canonical serialization of Document.
	Content []byte
	// Changed reports whether Content differs from the persisted document.
	Changed bool
}

// Updater fetches a snapshot, serializes it and compares it with the
// persisted document.
type Updater struct {
	source SnapshotSource
	store  Store
	opts   UpdaterOptions
	logger *zap.Logger
}

// NewUpdater creates a new Updater instance.
func NewUpdater(source SnapshotSource, store Store, opts UpdaterOptions, logger *zap.Logger) *Updater {
	return &Updater{
		source: source,
		store:  store,
		opts:   opts,
		logger: logger,
	}
}

// Update fetches the current statistics and reports whether they differ from
// the stored document. It never writes.
func (u *Updater) Update(ctx context.Context) (*Result, error) {
	snapshot, err := u.source.Aggregate(ctx, u.opts.User)
	if err != nil {
		return nil, err
	}
	doc := snapshot.ToDocument(u.opts.Timestamp)

	prior, err := u.store.Read()
	if err != nil {
		return nil, err
	}

	content, changed, err := domain.Diff(prior, doc, domain.VolatileKeys)
	if err != nil {
		return nil, err
	}
	u.logger.Debug("Usecase: Compared with the stored document.",
		zap.String("user", snapshot.Username), zap.Bool("changed", changed))
	return &Result{Document: doc, Content: content, Changed: changed}, nil
}

// Apply persists the result when it changed.
func (u *Updater) Apply(result *Result) error {
	if !result.Changed {
		u.logger.Info("Stats unchanged, nothing to write.")
		return nil
	}
	if err := u.store.Write(result.Content); err != nil {
		return err
	}
	u.logger.Info("Stats updated.")
	return nil
}

// Run is Update followed by Apply.
func (u *Updater) Run(ctx context.Context) (*Result, error) {
	result, err := u.Update(ctx)
	if err != nil {
		return nil, err
	}
	if err := u.Apply(result); err != nil {
		return nil, err
	}
	return result, nil
}
