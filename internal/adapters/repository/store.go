// Package repository stores scored candidates and serves ranked reads.
package repository

import (
	"context"

	"github.com/okian/talentradar/internal/domain/model"
	"github.com/okian/talentradar/internal/domain/types"
)

// Filter narrows List results. Zero fields do not filter.
type Filter struct {
	Tier     *model.Tier
	MinScore float64
	Company  string // substring of the current company or any past employer
	Query    string // substring of name, email, title or current company
	Limit    int
	Offset   int
}

// Page is one slice of a ranked listing. Total counts every match.
type Page struct {
	Candidates []model.Candidate
	Total      int
}

// Store provides read/write access to scored candidates. Every read
// returns candidates ordered by total score desc, then ID asc.
type Store interface {
	// Upsert inserts or replaces a candidate. It reports whether the
	// candidate is new. A candidate whose tier disagrees with its total is
	// rejected with ErrStaleScore.
	Upsert(ctx context.Context, c model.Candidate) (bool, error)

	// Get returns ErrNotFound if the candidate is unknown.
	Get(ctx context.Context, id string) (model.Candidate, error)

	// Delete returns ErrNotFound if the candidate is unknown.
	Delete(ctx context.Context, id string) error

	// List returns the filtered, ranked page.
	List(ctx context.Context, f Filter) (Page, error)

	// Rank returns the dense rank of a candidate.
	Rank(ctx context.Context, id string) (types.Entry, error)

	// TopN returns the top-N entries ordered by score desc.
	TopN(ctx context.Context, n int) ([]types.Entry, error)

	// Stats summarises every stored candidate.
	Stats(ctx context.Context) (types.Stats, error)

	// Count returns the number of stored candidates.
	Count(ctx context.Context) int

	Close() error
}
