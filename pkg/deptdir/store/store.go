package store

import (
	"context"
	"time"

	"github.com/cognicore/deptdir/pkg/deptdir/ingest"
)

// Store persists the most recent parse of the department directory
type Store interface {
	Close() error

	// ReplaceDepartments swaps the whole directory for a new snapshot.
	// Departments keep the order they are given in.
	ReplaceDepartments(ctx context.Context, snap Snapshot, depts []ingest.Department) error
	ListDepartments(ctx context.Context) ([]ingest.Department, error)
	GetDepartment(ctx context.Context, id string) (ingest.Department, bool, error)
	LatestSnapshot(ctx context.Context) (Snapshot, bool, error)
}

// Snapshot describes one ingested version of the directory
type Snapshot struct {
	ID        string    `json:"id" yaml:"id"` // ULID
	Source    string    `json:"source" yaml:"source"`
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`
	Count     int       `json:"count" yaml:"count"`
}

// CopyDepartment returns d with its email slice detached.
func CopyDepartment(d ingest.Department) ingest.Department {
	d.Emails = append([]string{}, d.Emails...)
	return d
}
