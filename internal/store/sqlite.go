package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/robalobadob/numberhero/internal/game"
)

// timeLayout is fixed width so completed_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const sessionColumns = `id, type, number, player_id, status, difficulty, settings, state, result, feedback,
	points, xp, started_at, completed_at, created_at, updated_at`

// SQLite stores sessions in the game_sessions table.
type SQLite struct {
	db *sql.DB
}

// NewSQLiteStore wraps an already-migrated database.
func NewSQLiteStore(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

var _ Store = (*SQLite)(nil)

// row is the column-level encoding of a session.
type row struct {
	settings, state, result, feedback string
	startedAt, createdAt, updatedAt   string
	completedAt                       sql.NullString
	playerID                          sql.NullString
}

func encode(s *game.Session) (row, error) {
	var (
		r   row
		err error
	)
	if r.settings, err = toJSON(s.Settings, "{}"); err != nil {
		return r, fmt.Errorf("encode settings: %w", err)
	}
	if r.state, err = toJSON(s.State, "{}"); err != nil {
		return r, fmt.Errorf("encode state: %w", err)
	}
	if r.result, err = toJSON(s.Result, "{}"); err != nil {
		return r, fmt.Errorf("encode result: %w", err)
	}
	if r.feedback, err = toJSON(s.Feedback, "[]"); err != nil {
		return r, fmt.Errorf("encode feedback: %w", err)
	}
	r.startedAt = formatTime(s.StartedAt)
	r.createdAt = formatTime(s.CreatedAt)
	r.updatedAt = formatTime(s.UpdatedAt)
	if s.CompletedAt != nil {
		r.completedAt = sql.NullString{String: formatTime(*s.CompletedAt), Valid: true}
	}
	if s.PlayerID != nil {
		r.playerID = sql.NullString{String: *s.PlayerID, Valid: true}
	}
	return r, nil
}

func toJSON(v any, empty string) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return empty, nil
	}
	return string(b), nil
}

func (st *SQLite) Create(ctx context.Context, s *game.Session) error {
	r, err := encode(s)
	if err != nil {
		return err
	}
	_, err = st.db.ExecContext(ctx,
		`INSERT INTO game_sessions (`+sessionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, string(s.Type), s.Number, r.playerID, string(s.Status), s.Difficulty,
		r.settings, r.state, r.result, r.feedback, s.Points, s.XP,
		r.startedAt, r.completedAt, r.createdAt, r.updatedAt)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
		return fmt.Errorf("%s: %w", s.ID, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (st *SQLite) FindByID(ctx context.Context, id string) (*game.Session, error) {
	s, err := scanSession(st.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM game_sessions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &game.SessionNotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	return s, nil
}

func (st *SQLite) Save(ctx context.Context, s *game.Session) error {
	r, err := encode(s)
	if err != nil {
		return err
	}
	res, err := st.db.ExecContext(ctx,
		`UPDATE game_sessions SET
		     type = ?, number = ?, player_id = ?, status = ?, difficulty = ?,
		     settings = ?, state = ?, result = ?, feedback = ?, points = ?, xp = ?,
		     started_at = ?, completed_at = ?, created_at = ?, updated_at = ?
		 WHERE id = ?`,
		string(s.Type), s.Number, r.playerID, string(s.Status), s.Difficulty,
		r.settings, r.state, r.result, r.feedback, s.Points, s.XP,
		r.startedAt, r.completedAt, r.createdAt, r.updatedAt, s.ID)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return &game.SessionNotFoundError{ID: s.ID}
	}
	return nil
}

func (st *SQLite) Leaderboard(ctx context.Context, q LeaderboardQuery) ([]LeaderboardEntry, error) {
	rows, err := st.db.QueryContext(ctx,
		`SELECT id, player_id, type, number, difficulty, points, xp, completed_at
		 FROM game_sessions
		 WHERE status = ? AND completed_at IS NOT NULL AND (? = '' OR type = ?)
		 ORDER BY points DESC, completed_at ASC
		 LIMIT ?`,
		string(game.StatusCompleted), string(q.Type), string(q.Type), q.limit())
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	out := []LeaderboardEntry{}
	for rows.Next() {
		var (
			e         LeaderboardEntry
			typ       string
			player    sql.NullString
			completed string
		)
		if err := rows.Scan(&e.SessionID, &player, &typ, &e.Number, &e.Difficulty, &e.Points, &e.XP, &completed); err != nil {
			return nil, err
		}
		e.Type = game.Type(typ)
		if player.Valid {
			e.PlayerID = &player.String
		}
		e.CompletedAt = parseTime(completed)
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanSession(scanner interface{ Scan(...any) error }) (*game.Session, error) {
	var (
		s      game.Session
		r      row
		typ    string
		status string
	)
	if err := scanner.Scan(&s.ID, &typ, &s.Number, &r.playerID, &status, &s.Difficulty,
		&r.settings, &r.state, &r.result, &r.feedback, &s.Points, &s.XP,
		&r.startedAt, &r.completedAt, &r.createdAt, &r.updatedAt); err != nil {
		return nil, err
	}
	s.Type = game.Type(typ)
	s.Status = game.Status(status)
	if r.playerID.Valid {
		s.PlayerID = &r.playerID.String
	}

	if r.settings != "{}" {
		if err := json.Unmarshal([]byte(r.settings), &s.Settings); err != nil {
			return nil, fmt.Errorf("decode settings: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(r.state), &s.State); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	if err := json.Unmarshal([]byte(r.result), &s.Result); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	if err := json.Unmarshal([]byte(r.feedback), &s.Feedback); err != nil {
		return nil, fmt.Errorf("decode feedback: %w", err)
	}

	s.StartedAt = parseTime(r.startedAt)
	s.CreatedAt = parseTime(r.createdAt)
	s.UpdatedAt = parseTime(r.updatedAt)
	if r.completedAt.Valid {
		t := parseTime(r.completedAt.String)
		s.CompletedAt = &t
	}
	return &s, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime parses stored timestamps; on error returns zero time.
func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}
