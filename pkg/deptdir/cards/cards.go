package cards

import (
	"crypto/rand"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/deptdir/pkg/deptdir/ingest"
	"github.com/cognicore/deptdir/pkg/deptdir/query"
)

// Badge labels shown on flagged departments.
const (
	BadgeStatenIsland = "Staten Island"
	BadgeEndTime      = "End Time"
)

// Builder constructs department cards
type Builder struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// New creates a new card builder
func New() *Builder {
	return &Builder{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Card is the renderable view of one department
type Card struct {
	ID           string     `json:"id" yaml:"id"`
	DepartmentID string     `json:"department_id" yaml:"department_id"`
	Title        string     `json:"title" yaml:"title"`
	Paragraphs   []string   `json:"paragraphs" yaml:"paragraphs"`
	Emails       []string   `json:"emails" yaml:"emails"`
	Badges       []string   `json:"badges,omitempty" yaml:"badges,omitempty"`
	Highlight    *Highlight `json:"highlight,omitempty" yaml:"highlight,omitempty"`
}

// Highlight tells the reader where a search term was found.
type Highlight struct {
	Field   string `json:"field" yaml:"field"`
	Snippet string `json:"snippet" yaml:"snippet"`
}

// Build creates a card for a department
func (b *Builder) Build(d ingest.Department) Card {
	card := Card{
		ID:           b.newID(),
		DepartmentID: d.ID,
		Title:        "Department " + d.ID,
		Paragraphs:   paragraphs(d.Info),
		Emails:       append([]string{}, d.Emails...),
	}

	if d.IsStatenIsland {
		card.Badges = append(card.Badges, BadgeStatenIsland)
	}
	if d.HasEndTime {
		card.Badges = append(card.Badges, BadgeEndTime)
	}

	return card
}

// BuildResults creates cards for search results, attaching highlights.
func (b *Builder) BuildResults(results []query.Result) []Card {
	out := make([]Card, 0, len(results))
	for _, r := range results {
		card := b.Build(r.Department)
		if r.Hit.Field != "" {
			card.Highlight = &Highlight{Field: r.Hit.Field, Snippet: r.Hit.Snippet}
		}
		out = append(out, card)
	}
	return out
}

// ulid.MonotonicEntropy is not safe for concurrent use.
func (b *Builder) newID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return ulid.MustNew(ulid.Now(), b.entropy).String()
}

// ClipboardText formats emails the way the copy button does.
func ClipboardText(emails []string) string {
	return strings.Join(emails, ", ")
}

func paragraphs(info string) []string {
	if info == "" {
		return []string{}
	}
	return strings.Split(info, "\n\n")
}
