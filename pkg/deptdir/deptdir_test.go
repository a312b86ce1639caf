package deptdir

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cognicore/deptdir/pkg/deptdir/cards"
	"github.com/cognicore/deptdir/pkg/deptdir/ingest"
	"github.com/cognicore/deptdir/pkg/deptdir/internalerr"
	"github.com/cognicore/deptdir/pkg/deptdir/query"
	"github.com/cognicore/deptdir/pkg/deptdir/store/memstore"
)

type stubSource struct {
	text string
	err  error
}

func (s *stubSource) Fetch(ctx context.Context) (string, error) { return s.text, s.err }
func (s *stubSource) Name() string                              { return "stub://departments" }

const sampleDoc = `332 - SI Overhead
Staten Island
No re-route messages for SI jobs.
653 - Scheduled crews
100 - Bronx yard
Contact Candice Craig for access
bronx@coned.com, yard@coned.com
`

func newTestDirectory(t *testing.T, src *stubSource) *Directory {
	t.Helper()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	dir := New(Options{
		Store:  memstore.New(),
		Source: src,
		Now:    func() time.Time { return fixed },
	})
	t.Cleanup(func() { dir.Close() })
	return dir
}

func TestRefreshAndSearch(t *testing.T) {
	ctx := context.Background()
	dir := newTestDirectory(t, &stubSource{text: sampleDoc})

	snap, err := dir.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if snap.Count != 4 {
		t.Errorf("snapshot count = %d, want 4", snap.Count)
	}
	if snap.Source != "stub://departments" {
		t.Errorf("snapshot source = %q", snap.Source)
	}
	if snap.ID == "" {
		t.Error("snapshot should have an id")
	}

	all, err := dir.Search(ctx, query.Request{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	var got []string
	for _, c := range all {
		got = append(got, c.DepartmentID)
	}
	if strings.Join(got, ",") != "655,332,653,100" {
		t.Errorf("search order = %v", got)
	}

	si, err := dir.Search(ctx, query.Request{StatenIslandOnly: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(si) != 1 || si[0].DepartmentID != "332" {
		t.Fatalf("staten island filter = %+v", si)
	}
	if len(si[0].Badges) != 1 || si[0].Badges[0] != cards.BadgeStatenIsland {
		t.Errorf("badges = %v", si[0].Badges)
	}
	last := si[0].Paragraphs[len(si[0].Paragraphs)-1]
	if !strings.HasPrefix(last, ingest.StatenIslandPrefix) {
		t.Errorf("last paragraph = %q, want Staten Island notice", last)
	}
}

func TestDepartmentAndEmails(t *testing.T) {
	ctx := context.Background()
	dir := newTestDirectory(t, &stubSource{text: sampleDoc})
	if _, err := dir.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	card, err := dir.Department(ctx, "100")
	if err != nil {
		t.Fatalf("Department: %v", err)
	}
	if card.Title != "Department 100" {
		t.Errorf("Title = %q", card.Title)
	}

	emails, err := dir.Emails(ctx, "100")
	if err != nil {
		t.Fatalf("Emails: %v", err)
	}
	want := "CRAIGCA@coned.com, bronx@coned.com, yard@coned.com"
	if emails != want {
		t.Errorf("Emails = %q, want %q", emails, want)
	}

	if _, err := dir.Department(ctx, "999"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("missing department err = %v, want ErrNotFound", err)
	}
	if _, err := dir.Emails(ctx, "999"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("missing emails err = %v, want ErrNotFound", err)
	}
}

func TestRefreshFetchError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	dir := newTestDirectory(t, &stubSource{err: boom})

	if _, err := dir.Refresh(ctx); !errors.Is(err, boom) {
		t.Fatalf("Refresh err = %v, want %v", err, boom)
	}
	if _, ok, _ := dir.Snapshot(ctx); ok {
		t.Error("failed refresh must not record a snapshot")
	}
}

func TestRefreshWithoutSource(t *testing.T) {
	dir := New(Options{Store: memstore.New()})
	if _, err := dir.Refresh(context.Background()); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Refresh err = %v, want ErrInvalidConfig", err)
	}
}

func TestRefreshSnapshotsAreOrdered(t *testing.T) {
	ctx := context.Background()
	dir := newTestDirectory(t, &stubSource{text: "100 - A"})

	first, err := dir.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	second, err := dir.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !(first.ID < second.ID) {
		t.Errorf("snapshot ids should increase: %s then %s", first.ID, second.ID)
	}

	latest, ok, err := dir.Snapshot(ctx)
	if err != nil || !ok {
		t.Fatalf("Snapshot: ok=%v err=%v", ok, err)
	}
	if latest.ID != second.ID {
		t.Errorf("latest = %s, want %s", latest.ID, second.ID)
	}
}
