package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Memory is an in-memory Catalog used by tests and by the server when no
// database is configured. Records are returned in id order, so FindOthers
// is deterministic here.
type Memory struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]Association
}

// NewMemory constructs a Memory catalog holding the given records.
func NewMemory(seed ...Association) *Memory {
	m := &Memory{items: make(map[int64]Association)}
	for _, a := range seed {
		_, _ = m.Upsert(context.Background(), a)
	}
	return m
}

var _ Catalog = (*Memory)(nil)

// sorted returns the records matching keep in id order. Caller holds mu.
func (m *Memory) sorted(keep func(Association) bool) []Association {
	out := []Association{}
	for _, a := range m.items {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) FindByNumber(ctx context.Context, number int) (Association, error) {
	list, _ := m.ListByNumber(ctx, number)
	if len(list) == 0 {
		return Association{}, fmt.Errorf("number %d: %w", number, ErrNotFound)
	}
	return list[0], nil
}

func (m *Memory) FindPrimaryCandidates(ctx context.Context, limit int) ([]Association, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.sorted(func(a Association) bool { return a.IsPrimary })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return truncate(out, limit), nil
}

func (m *Memory) FindOthers(ctx context.Context, excludeID int64, limit int) ([]Association, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return truncate(m.sorted(func(a Association) bool { return a.ID != excludeID }), limit), nil
}

func (m *Memory) ListByNumber(ctx context.Context, number int) ([]Association, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.sorted(func(a Association) bool { return a.Number == number })
	sort.SliceStable(out, func(i, j int) bool { return better(out[i], out[j]) })
	return out, nil
}

func (m *Memory) AdjustRating(ctx context.Context, id int64, delta int) (Association, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok {
		return Association{}, fmt.Errorf("id %d: %w", id, ErrNotFound)
	}
	a.Rating += delta
	a.UpdatedAt = time.Now().UTC()
	m.items[id] = a
	return a, nil
}

func (m *Memory) Upsert(ctx context.Context, a Association) (Association, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	for id, cur := range m.items {
		if cur.Number == a.Number && cur.Hero == a.Hero && cur.Action == a.Action && cur.Object == a.Object {
			cur.Explanation = a.Explanation
			cur.IsPrimary = a.IsPrimary
			cur.UpdatedAt = now
			m.items[id] = cur
			return cur, nil
		}
	}
	m.nextID++
	a.ID = m.nextID
	a.CreatedAt, a.UpdatedAt = now, now
	m.items[a.ID] = a
	return a, nil
}

func truncate(list []Association, limit int) []Association {
	if limit >= 0 && len(list) > limit {
		return list[:limit]
	}
	return list
}
