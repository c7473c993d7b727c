// Package catalog stores the number → hero/action/object associations the
// games are built from. Several records may exist per number; the one with
// the highest rating (lowest id on ties) is what a game plays, and records
// flagged primary are the pool for random play.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/robalobadob/numberhero/internal/game"
)

// ErrNotFound is returned when no association matches a lookup.
var ErrNotFound = errors.New("association not found")

// Association is one catalog record.
type Association struct {
	ID          int64     `json:"id" yaml:"-"`
	Number      int       `json:"number" yaml:"number"`
	Hero        string    `json:"hero" yaml:"hero"`
	Action      string    `json:"action" yaml:"action"`
	Object      string    `json:"object" yaml:"object"`
	Explanation string    `json:"explanation,omitempty" yaml:"explanation"`
	Rating      int       `json:"rating" yaml:"rating"`
	IsPrimary   bool      `json:"isPrimary" yaml:"primary"`
	CreatedAt   time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"-"`
}

// Snapshot freezes the record for embedding in a game session.
func (a Association) Snapshot() game.AssociationSnapshot {
	return game.AssociationSnapshot{
		ID:          a.ID,
		Number:      a.Number,
		Hero:        a.Hero,
		Action:      a.Action,
		Object:      a.Object,
		Explanation: a.Explanation,
	}
}

// Catalog is the full read/write surface. The game engine only needs the
// three Find methods.
type Catalog interface {
	// FindByNumber returns the best-rated record for number (ties: lowest id).
	FindByNumber(ctx context.Context, number int) (Association, error)
	// FindPrimaryCandidates returns up to limit primary records.
	FindPrimaryCandidates(ctx context.Context, limit int) ([]Association, error)
	// FindOthers returns up to limit records whose id is not excludeID.
	FindOthers(ctx context.Context, excludeID int64, limit int) ([]Association, error)

	// ListByNumber returns every record for number, best rated first.
	ListByNumber(ctx context.Context, number int) ([]Association, error)
	// AdjustRating adds delta to a record's rating and returns the record.
	AdjustRating(ctx context.Context, id int64, delta int) (Association, error)
	// Upsert inserts a record or updates the one with the same
	// number/hero/action/object.
	Upsert(ctx context.Context, a Association) (Association, error)
}

// better reports whether a outranks b for FindByNumber ordering.
func better(a, b Association) bool {
	if a.Rating != b.Rating {
		return a.Rating > b.Rating
	}
	return a.ID < b.ID
}
