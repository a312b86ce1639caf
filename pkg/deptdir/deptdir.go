package deptdir

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/cognicore/deptdir/internal/fetch"
	"github.com/cognicore/deptdir/pkg/deptdir/cards"
	"github.com/cognicore/deptdir/pkg/deptdir/ingest"
	"github.com/cognicore/deptdir/pkg/deptdir/internalerr"
	"github.com/cognicore/deptdir/pkg/deptdir/query"
	"github.com/cognicore/deptdir/pkg/deptdir/store"
)

// Directory is the department directory facade
type Directory struct {
	store   store.Store
	source  fetch.Source
	builder *cards.Builder
	logger  *zap.Logger
	now     func() time.Time

	// serializes refreshes so snapshots land in fetch order
	refreshMu sync.Mutex
	entropy   *ulid.MonotonicEntropy
}

// Options configures a Directory instance
type Options struct {
	Store  store.Store
	Source fetch.Source // optional; Refresh fails without one
	Logger *zap.Logger
	Now    func() time.Time
}

// New creates a Directory with the given dependencies
func New(opts Options) *Directory {
	d := &Directory{
		store:   opts.Store,
		source:  opts.Source,
		builder: cards.New(),
		logger:  opts.Logger,
		now:     opts.Now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d
}

// Close cleanly shuts down the Directory
func (d *Directory) Close() error {
	return d.store.Close()
}

// Refresh fetches the source document, parses it and replaces the stored
// directory with the result.
func (d *Directory) Refresh(ctx context.Context) (store.Snapshot, error) {
	if d.source == nil {
		return store.Snapshot{}, fmt.Errorf("%w: no source configured", internalerr.ErrInvalidConfig)
	}

	d.refreshMu.Lock()
	defer d.refreshMu.Unlock()

	start := d.now()
	text, err := d.source.Fetch(ctx)
	if err != nil {
		return store.Snapshot{}, err
	}

	depts := ingest.Parse(text)

	snap := store.Snapshot{
		ID:        ulid.MustNew(ulid.Timestamp(start), d.entropy).String(),
		Source:    d.source.Name(),
		FetchedAt: start.UTC(),
		Count:     len(depts),
	}
	if err := d.store.ReplaceDepartments(ctx, snap, depts); err != nil {
		return store.Snapshot{}, fmt.Errorf("store snapshot: %w", err)
	}

	d.logger.Info("directory refreshed",
		zap.String("snapshot", snap.ID),
		zap.String("source", snap.Source),
		zap.Int("departments", snap.Count),
		zap.Int("bytes", len(text)),
		zap.Duration("took", d.now().Sub(start)),
	)
	return snap, nil
}

// Search returns cards for departments matching the request
func (d *Directory) Search(ctx context.Context, req query.Request) ([]cards.Card, error) {
	depts, err := d.store.ListDepartments(ctx)
	if err != nil {
		return nil, err
	}
	return d.builder.BuildResults(query.Filter(depts, req)), nil
}

// Department returns the card for one department
func (d *Directory) Department(ctx context.Context, id string) (cards.Card, error) {
	dept, err := d.lookup(ctx, id)
	if err != nil {
		return cards.Card{}, err
	}
	return d.builder.Build(dept), nil
}

// Emails returns a department's addresses formatted for the clipboard
func (d *Directory) Emails(ctx context.Context, id string) (string, error) {
	dept, err := d.lookup(ctx, id)
	if err != nil {
		return "", err
	}
	return cards.ClipboardText(dept.Emails), nil
}

// Snapshot returns the most recent snapshot metadata
func (d *Directory) Snapshot(ctx context.Context) (store.Snapshot, bool, error) {
	return d.store.LatestSnapshot(ctx)
}

func (d *Directory) lookup(ctx context.Context, id string) (ingest.Department, error) {
	dept, found, err := d.store.GetDepartment(ctx, id)
	if err != nil {
		return ingest.Department{}, err
	}
	if !found {
		return ingest.Department{}, fmt.Errorf("department %s: %w", id, internalerr.ErrNotFound)
	}
	return dept, nil
}
