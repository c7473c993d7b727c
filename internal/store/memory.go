// internal/store/memory.go
//
// In-memory implementation of Store.
// Used by tests and when SESSION_STORE=memory.
//
// Characteristics:
//   - Sessions kept as JSON documents keyed by ID, so every read is a fresh copy
//     and settings/answers round-trip exactly like the SQLite store.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/robalobadob/numberhero/internal/game"
)

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex
	sessions map[string][]byte // keyed by Session.ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string][]byte)}
}

func (m *memory) Create(ctx context.Context, s *game.Session) error {
	doc, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; ok {
		return fmt.Errorf("%s: %w", s.ID, ErrDuplicate)
	}
	m.sessions[s.ID] = doc
	return nil
}

func (m *memory) FindByID(ctx context.Context, id string) (*game.Session, error) {
	m.mu.RLock()
	doc, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, &game.SessionNotFoundError{ID: id}
	}
	var s game.Session
	if err := json.Unmarshal(doc, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &s, nil
}

func (m *memory) Save(ctx context.Context, s *game.Session) error {
	doc, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; !ok {
		return &game.SessionNotFoundError{ID: s.ID}
	}
	m.sessions[s.ID] = doc
	return nil
}

func (m *memory) Leaderboard(ctx context.Context, q LeaderboardQuery) ([]LeaderboardEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []LeaderboardEntry{}
	for id, doc := range m.sessions {
		var s game.Session
		if err := json.Unmarshal(doc, &s); err != nil {
			return nil, fmt.Errorf("decode session %s: %w", id, err)
		}
		if s.Status != game.StatusCompleted || s.CompletedAt == nil {
			continue
		}
		if q.Type != "" && s.Type != q.Type {
			continue
		}
		out = append(out, entryFor(&s))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].CompletedAt.Before(out[j].CompletedAt)
	})
	if len(out) > q.limit() {
		out = out[:q.limit()]
	}
	return out, nil
}

func entryFor(s *game.Session) LeaderboardEntry {
	return LeaderboardEntry{
		SessionID:   s.ID,
		PlayerID:    s.PlayerID,
		Type:        s.Type,
		Number:      s.Number,
		Difficulty:  s.Difficulty,
		Points:      s.Points,
		XP:          s.XP,
		CompletedAt: *s.CompletedAt,
	}
}
