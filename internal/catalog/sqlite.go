package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const associationColumns = `id, number, hero, action, object, explanation, rating, is_primary, created_at, updated_at`

// SQLite implements Catalog on the associations table.
type SQLite struct {
	db *sql.DB
}

// NewSQLite wraps an already-migrated database.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

var _ Catalog = (*SQLite)(nil)

func scanAssociation(scanner interface{ Scan(...any) error }) (Association, error) {
	var (
		a                Association
		primary          int
		created, updated string
	)
	if err := scanner.Scan(&a.ID, &a.Number, &a.Hero, &a.Action, &a.Object, &a.Explanation,
		&a.Rating, &primary, &created, &updated); err != nil {
		return Association{}, err
	}
	a.IsPrimary = primary != 0
	a.CreatedAt = parseTime(created)
	a.UpdatedAt = parseTime(updated)
	return a, nil
}

func (c *SQLite) queryList(ctx context.Context, query string, args ...any) ([]Association, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Association{}
	for rows.Next() {
		a, err := scanAssociation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// FindByNumber returns the best-rated record for number.
func (c *SQLite) FindByNumber(ctx context.Context, number int) (Association, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT `+associationColumns+` FROM associations
		 WHERE number = ?
		 ORDER BY rating DESC, id ASC
		 LIMIT 1`, number)
	a, err := scanAssociation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Association{}, fmt.Errorf("number %d: %w", number, ErrNotFound)
	}
	if err != nil {
		return Association{}, fmt.Errorf("failed to find association by number: %w", err)
	}
	return a, nil
}

// FindPrimaryCandidates returns up to limit primary records ordered by number.
func (c *SQLite) FindPrimaryCandidates(ctx context.Context, limit int) ([]Association, error) {
	out, err := c.queryList(ctx,
		`SELECT `+associationColumns+` FROM associations
		 WHERE is_primary = 1
		 ORDER BY number ASC, id ASC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list primary associations: %w", err)
	}
	return out, nil
}

// FindOthers returns up to limit random records other than excludeID.
func (c *SQLite) FindOthers(ctx context.Context, excludeID int64, limit int) ([]Association, error) {
	out, err := c.queryList(ctx,
		`SELECT `+associationColumns+` FROM associations
		 WHERE id <> ?
		 ORDER BY RANDOM()
		 LIMIT ?`, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list decoy associations: %w", err)
	}
	return out, nil
}

// ListByNumber returns all records for number, best rated first.
func (c *SQLite) ListByNumber(ctx context.Context, number int) ([]Association, error) {
	out, err := c.queryList(ctx,
		`SELECT `+associationColumns+` FROM associations
		 WHERE number = ?
		 ORDER BY rating DESC, id ASC`, number)
	if err != nil {
		return nil, fmt.Errorf("failed to list associations: %w", err)
	}
	return out, nil
}

func (c *SQLite) findByID(ctx context.Context, id int64) (Association, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+associationColumns+` FROM associations WHERE id = ?`, id)
	a, err := scanAssociation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Association{}, fmt.Errorf("id %d: %w", id, ErrNotFound)
	}
	return a, err
}

// AdjustRating adds delta to the rating of record id.
func (c *SQLite) AdjustRating(ctx context.Context, id int64, delta int) (Association, error) {
	res, err := c.db.ExecContext(ctx,
		`UPDATE associations SET rating = rating + ?, updated_at = ? WHERE id = ?`,
		delta, formatTime(time.Now()), id)
	if err != nil {
		return Association{}, fmt.Errorf("failed to update rating: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Association{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return Association{}, fmt.Errorf("id %d: %w", id, ErrNotFound)
	}
	return c.findByID(ctx, id)
}

// Upsert inserts a or refreshes the explanation/primary flag of the record
// with the same number/hero/action/object. Ratings are kept.
func (c *SQLite) Upsert(ctx context.Context, a Association) (Association, error) {
	now := formatTime(time.Now())
	primary := 0
	if a.IsPrimary {
		primary = 1
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO associations (number, hero, action, object, explanation, rating, is_primary, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (number, hero, action, object) DO UPDATE SET
		     explanation = excluded.explanation,
		     is_primary  = excluded.is_primary,
		     updated_at  = excluded.updated_at`,
		a.Number, a.Hero, a.Action, a.Object, a.Explanation, a.Rating, primary, now, now)
	if err != nil {
		return Association{}, fmt.Errorf("failed to upsert association: %w", err)
	}

	row := c.db.QueryRowContext(ctx,
		`SELECT `+associationColumns+` FROM associations
		 WHERE number = ? AND hero = ? AND action = ? AND object = ?`,
		a.Number, a.Hero, a.Action, a.Object)
	return scanAssociation(row)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses RFC3339 timestamps; on error returns zero time.
func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
