// internal/store/store.go
//
// Persistence for game sessions.
// Two implementations share the same contract:
//   - memory (memory.go): map + RWMutex, lost on restart.
//   - SQLite (sqlite.go): game_sessions table, state/result/feedback as JSON text.
//
// Both hand out independent copies, so a caller mutating a loaded session
// never changes what is stored until it calls Save.

package store

import (
	"context"
	"errors"
	"time"

	"github.com/robalobadob/numberhero/internal/game"
)

// ErrDuplicate is returned by Create when the id is already taken.
var ErrDuplicate = errors.New("session already exists")

// DefaultLeaderboardLimit applies when a query asks for zero rows.
const DefaultLeaderboardLimit = 20

// Store defines the persistence interface for game sessions.
type Store interface {
	// Create inserts a new session.
	Create(ctx context.Context, s *game.Session) error

	// FindByID loads a session. Missing ids yield *game.SessionNotFoundError.
	FindByID(ctx context.Context, id string) (*game.Session, error)

	// Save overwrites an existing session.
	Save(ctx context.Context, s *game.Session) error

	// Leaderboard lists the best completed sessions.
	Leaderboard(ctx context.Context, q LeaderboardQuery) ([]LeaderboardEntry, error)
}

// LeaderboardQuery filters the leaderboard. An empty Type means all types.
type LeaderboardQuery struct {
	Type  game.Type
	Limit int
}

func (q LeaderboardQuery) limit() int {
	if q.Limit <= 0 {
		return DefaultLeaderboardLimit
	}
	return q.Limit
}

// LeaderboardEntry is one ranked completed session. Ordered by points
// descending, earlier completion first on ties.
type LeaderboardEntry struct {
	SessionID   string    `json:"sessionId"`
	PlayerID    *string   `json:"playerId,omitempty"`
	Type        game.Type `json:"type"`
	Number      int       `json:"number"`
	Difficulty  int       `json:"difficulty"`
	Points      int       `json:"points"`
	XP          int       `json:"xp"`
	CompletedAt time.Time `json:"completedAt"`
}
