// internal/engine/engine.go
//
// Session lifecycle controller.
// Responsibilities:
//   - StartSession: resolve an association, build the puzzle, persist InProgress.
//   - SubmitAnswer: evaluate + score once, then lock the session (Completed/Failed).
//   - SubmitFeedback: append a note in any status.
//   - GetSession / GetResult / Leaderboard: read paths.
//
// Read-modify-write on one session id is serialized by a fixed set of
// striped mutexes, so two concurrent answers cannot both be scored. The lock
// is process-local; a second replica sharing the database is not covered.

package engine

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/robalobadob/numberhero/internal/catalog"
	"github.com/robalobadob/numberhero/internal/game"
	"github.com/robalobadob/numberhero/internal/metrics"
	"github.com/robalobadob/numberhero/internal/store"
	"github.com/robalobadob/numberhero/internal/tracing"
)

const (
	// PrimaryCandidateLimit bounds the pool a random game is drawn from.
	PrimaryCandidateLimit = 50

	lockStripes = 64
)

// Catalog is the part of the association catalog the engine reads.
type Catalog interface {
	FindByNumber(ctx context.Context, number int) (catalog.Association, error)
	FindPrimaryCandidates(ctx context.Context, limit int) ([]catalog.Association, error)
	FindOthers(ctx context.Context, excludeID int64, limit int) ([]catalog.Association, error)
}

// Engine runs game sessions against a catalog and a session store.
type Engine struct {
	catalog Catalog
	store   store.Store
	rnd     game.Rand
	now     func() time.Time
	newID   func() string
	tracer  trace.Tracer

	locks [lockStripes]sync.Mutex
}

// Option customizes an Engine.
type Option func(*Engine)

// WithRand sets the randomness used for association picks and puzzles.
func WithRand(r game.Rand) Option {
	return func(e *Engine) { e.rnd = r }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithTracer sets the tracer for engine spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// WithIDGenerator sets the session id generator.
func WithIDGenerator(f func() string) Option {
	return func(e *Engine) { e.newID = f }
}

// New constructs an Engine.
func New(c Catalog, st store.Store, opts ...Option) *Engine {
	e := &Engine{
		catalog: c,
		store:   st,
		rnd:     game.DefaultRand(),
		now:     time.Now,
		newID:   uuid.NewString,
		tracer:  otel.Tracer("github.com/robalobadob/numberhero/internal/engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// lock serializes work on one session id and returns the unlock func.
func (e *Engine) lock(id string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	mu := &e.locks[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

func (e *Engine) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, "engine."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// StartSession picks an association, builds the puzzle and persists a new
// InProgress session.
func (e *Engine) StartSession(ctx context.Context, p StartParams) (s *game.Session, err error) {
	ctx, span := e.startSpan(ctx, "StartSession", attribute.String(tracing.AttrGameType, string(p.Type)))
	defer func() { endSpan(span, err) }()

	p = p.withDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}

	a, err := e.resolveAssociation(ctx, p.Number)
	if err != nil {
		return nil, err
	}

	var others []game.AssociationSnapshot
	if p.Type.UsesDecoys() {
		list, err := e.catalog.FindOthers(ctx, a.ID, game.MaxDecoyRecords)
		if err != nil {
			return nil, fmt.Errorf("load decoys: %w", err)
		}
		others = make([]game.AssociationSnapshot, 0, len(list))
		for _, o := range list {
			others = append(others, o.Snapshot())
		}
	}

	now := e.now().UTC()
	s = &game.Session{
		ID:         e.newID(),
		Type:       p.Type,
		Number:     a.Number,
		PlayerID:   p.PlayerID,
		Status:     game.StatusInProgress,
		Difficulty: p.Difficulty,
		Settings:   p.Settings,
		State:      game.BuildState(p.Type, a.Snapshot(), p.Settings, others, e.rnd, now),
		Result:     game.Result{Attempts: []game.Attempt{}},
		Feedback:   []game.Feedback{},
		StartedAt:  now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := e.store.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	span.SetAttributes(
		attribute.String(tracing.AttrSessionID, s.ID),
		attribute.Int(tracing.AttrNumber, s.Number),
		attribute.Int(tracing.AttrDifficulty, s.Difficulty),
	)
	metrics.RecordSessionStarted(string(s.Type))
	log.Info().
		Str("sessionId", s.ID).
		Str("type", string(s.Type)).
		Int("number", s.Number).
		Int("difficulty", s.Difficulty).
		Msg("session started")
	return s, nil
}

func (e *Engine) resolveAssociation(ctx context.Context, number *int) (catalog.Association, error) {
	if number != nil {
		a, err := e.catalog.FindByNumber(ctx, *number)
		if errors.Is(err, catalog.ErrNotFound) {
			n := *number
			return catalog.Association{}, &game.AssociationNotFoundError{Number: &n}
		}
		if err != nil {
			return catalog.Association{}, fmt.Errorf("find association: %w", err)
		}
		return a, nil
	}

	candidates, err := e.catalog.FindPrimaryCandidates(ctx, PrimaryCandidateLimit)
	if err != nil {
		return catalog.Association{}, fmt.Errorf("find primary associations: %w", err)
	}
	if len(candidates) == 0 {
		return catalog.Association{}, &game.AssociationNotFoundError{}
	}
	return candidates[e.rnd.IntN(len(candidates))], nil
}

// GetSession loads a session by id.
func (e *Engine) GetSession(ctx context.Context, id string) (s *game.Session, err error) {
	ctx, span := e.startSpan(ctx, "GetSession", attribute.String(tracing.AttrSessionID, id))
	defer func() { endSpan(span, err) }()
	return e.store.FindByID(ctx, id)
}

// GetResult returns the session including its result. Results live on the
// session, so this is GetSession under the result-oriented name.
func (e *Engine) GetResult(ctx context.Context, id string) (*game.Session, error) {
	return e.GetSession(ctx, id)
}

// SubmitAnswer evaluates the one answer a session accepts and moves it to
// Completed or Failed.
func (e *Engine) SubmitAnswer(ctx context.Context, id string, answer game.Answer, elapsedMs *int64) (s *game.Session, err error) {
	ctx, span := e.startSpan(ctx, "SubmitAnswer", attribute.String(tracing.AttrSessionID, id))
	defer func() { endSpan(span, err) }()

	if elapsedMs != nil && *elapsedMs < 0 {
		return nil, &game.ValidationError{Field: "elapsedMs", Msg: "must be zero or positive"}
	}

	unlock := e.lock(id)
	defer unlock()

	s, err = e.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Status != game.StatusInProgress {
		return nil, &game.InvalidStateError{SessionID: s.ID, Status: s.Status, Msg: "Game is not active"}
	}

	ev, err := game.Evaluate(s, answer, elapsedMs)
	if err != nil {
		log.Error().Err(err).Str("sessionId", s.ID).Msg("session state cannot be evaluated")
		return nil, err
	}
	points, xp := game.Score(ev.IsCorrect, s.Difficulty, elapsedMs)

	now := e.now().UTC()
	s.Result.Attempts = append(s.Result.Attempts, game.Attempt{
		Answer:        answer,
		ElapsedMs:     elapsedMs,
		IsCorrect:     ev.IsCorrect,
		PointsAwarded: points,
		XPAwarded:     xp,
		EvaluatedAt:   now,
	})
	s.Result.Summary = &game.Summary{
		IsCorrect:     ev.IsCorrect,
		PointsAwarded: points,
		XPAwarded:     xp,
		EvaluatedAt:   now,
	}
	details := ev.Details
	s.Result.Details = &details
	s.Points, s.XP = points, xp

	s.Status = game.StatusFailed
	if ev.IsCorrect {
		s.Status = game.StatusCompleted
	}
	s.CompletedAt = &now
	s.UpdatedAt = now

	switch {
	case s.State.MemoryFlash != nil:
		mf := s.State.MemoryFlash
		mf.Phase = game.PhaseCompleted
		mf.Reveal = &game.Reveal{ChangedElement: mf.ChangedElement, ModifiedScene: mf.ModifiedScene}
	case s.State.SpeedRecall != nil:
		s.State.SpeedRecall.Attempts++
	}

	if err := e.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	span.SetAttributes(
		attribute.Bool(tracing.AttrIsCorrect, ev.IsCorrect),
		attribute.Int(tracing.AttrPoints, points),
		attribute.String(tracing.AttrStatus, string(s.Status)),
	)
	metrics.RecordAnswer(string(s.Type), ev.IsCorrect, points)
	log.Info().
		Str("sessionId", s.ID).
		Str("type", string(s.Type)).
		Bool("correct", ev.IsCorrect).
		Int("points", points).
		Int("xp", xp).
		Msg("answer evaluated")
	return s, nil
}

// SubmitFeedback appends a note to a session in any status.
func (e *Engine) SubmitFeedback(ctx context.Context, id, message string, rating *int) (s *game.Session, err error) {
	ctx, span := e.startSpan(ctx, "SubmitFeedback", attribute.String(tracing.AttrSessionID, id))
	defer func() { endSpan(span, err) }()

	if err := ValidateFeedback(message, rating); err != nil {
		return nil, err
	}

	unlock := e.lock(id)
	defer unlock()

	s, err = e.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := e.now().UTC()
	s.Feedback = append(s.Feedback, game.Feedback{Message: message, Rating: rating, CreatedAt: now})
	s.UpdatedAt = now
	if err := e.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	metrics.RecordFeedback()
	log.Debug().Str("sessionId", s.ID).Int("feedback", len(s.Feedback)).Msg("feedback added")
	return s, nil
}

// Leaderboard lists the best completed sessions.
func (e *Engine) Leaderboard(ctx context.Context, q store.LeaderboardQuery) ([]store.LeaderboardEntry, error) {
	return e.store.Leaderboard(ctx, q)
}
