package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/robalobadob/numberhero/internal/catalog"
	"github.com/robalobadob/numberhero/internal/game"
	"github.com/robalobadob/numberhero/internal/store"
	"github.com/robalobadob/numberhero/internal/tracing"
)

var clock = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func testCatalog() *catalog.Memory {
	seed := []catalog.Association{
		{Number: 42, Hero: "Hero", Action: "Action", Object: "Object", IsPrimary: true},
	}
	for i := 1; i <= 10; i++ {
		seed = append(seed, catalog.Association{
			Number:    i,
			Hero:      fmt.Sprintf("Hero %d", i),
			Action:    fmt.Sprintf("Action %d", i),
			Object:    fmt.Sprintf("Object %d", i),
			IsPrimary: i%2 == 0,
		})
	}
	return catalog.NewMemory(seed...)
}

func newEngine(t *testing.T, c Catalog, opts ...Option) *Engine {
	t.Helper()
	base := []Option{
		WithRand(rand.New(rand.NewPCG(7, 11))),
		WithClock(func() time.Time { return clock }),
	}
	return New(c, store.NewMemoryStore(), append(base, opts...)...)
}

func intp(n int) *int { return &n }
func ms(n int64) *int64 { return &n }
func strp(s string) *string { return &s }

func exact() game.Answer {
	return game.Answer{"hero": "Hero", "action": "Action", "object": "Object"}
}

func TestStartSession_MatchHao42(t *testing.T) {
	e := newEngine(t, testCatalog())
	ctx := context.Background()

	s, err := e.StartSession(ctx, StartParams{Type: game.TypeMatchHao, Number: intp(42), Difficulty: 2, PlayerID: strp("kid")})
	require.NoError(t, err)
	require.NotEmpty(t, s.ID)
	require.Equal(t, game.StatusInProgress, s.Status)
	require.Equal(t, 42, s.Number)
	require.Equal(t, 42, s.State.Association.Number)
	require.Zero(t, s.Points)
	require.Zero(t, s.XP)
	require.NotNil(t, s.Result.Attempts)
	require.Empty(t, s.Result.Attempts)
	require.Equal(t, clock, s.StartedAt)
	require.Equal(t, "kid", *s.PlayerID)

	require.NotNil(t, s.State.MatchHao)
	require.Contains(t, s.State.MatchHao.Categories.Hero, "Hero")
	require.Len(t, s.State.MatchHao.Categories.Hero, 4)

	stored, err := e.GetSession(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, s.ID, stored.ID)
	require.Equal(t, s.State.MatchHao.Categories, stored.State.MatchHao.Categories)
}

func TestSubmitAnswer_ScoresWithFormula(t *testing.T) {
	tests := []struct {
		difficulty int
		points, xp int
	}{
		{difficulty: 2, points: 208, xp: 20},
		{difficulty: 3, points: 311, xp: 30},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("difficulty %d", tt.difficulty), func(t *testing.T) {
			e := newEngine(t, testCatalog())
			ctx := context.Background()

			s, err := e.StartSession(ctx, StartParams{Type: game.TypeMatchHao, Number: intp(42), Difficulty: tt.difficulty})
			require.NoError(t, err)

			s, err = e.SubmitAnswer(ctx, s.ID, game.Answer{"hero": " hero", "action": "ACTION", "object": "Object "}, ms(1200))
			require.NoError(t, err)
			require.Equal(t, game.StatusCompleted, s.Status)
			require.Equal(t, tt.points, s.Points)
			require.Equal(t, tt.xp, s.XP)
			require.NotNil(t, s.CompletedAt)

			require.Len(t, s.Result.Attempts, 1)
			att := s.Result.Attempts[0]
			require.True(t, att.IsCorrect)
			require.Equal(t, tt.points, att.PointsAwarded)
			require.Equal(t, int64(1200), *att.ElapsedMs)
			require.True(t, s.Result.Summary.IsCorrect)
			require.Equal(t, "Hero", s.Result.Details.Expected.Hero)
		})
	}
}

func TestSubmitAnswer_WrongAnswerFails(t *testing.T) {
	e := newEngine(t, testCatalog())
	ctx := context.Background()

	s, err := e.StartSession(ctx, StartParams{Type: game.TypeMatchHao, Number: intp(42), Difficulty: 2})
	require.NoError(t, err)

	s, err = e.SubmitAnswer(ctx, s.ID, game.Answer{"hero": "Hero 3", "action": "Action", "object": "Object"}, ms(1200))
	require.NoError(t, err)
	require.Equal(t, game.StatusFailed, s.Status)
	require.Equal(t, 58, s.Points)
	require.Equal(t, 4, s.XP)
	require.False(t, s.Result.Attempts[0].IsCorrect)
}

func TestSubmitAnswer_TerminalLock(t *testing.T) {
	e := newEngine(t, testCatalog())
	ctx := context.Background()

	s, err := e.StartSession(ctx, StartParams{Type: game.TypeMatchHao, Number: intp(42), Difficulty: 2})
	require.NoError(t, err)
	first, err := e.SubmitAnswer(ctx, s.ID, exact(), ms(1200))
	require.NoError(t, err)

	_, err = e.SubmitAnswer(ctx, s.ID, game.Answer{"hero": "x"}, nil)
	require.ErrorIs(t, err, game.ErrInvalidState)
	var ise *game.InvalidStateError
	require.ErrorAs(t, err, &ise)
	require.Equal(t, game.StatusCompleted, ise.Status)
	require.Contains(t, err.Error(), "Game is not active")

	after, err := e.GetResult(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, first.Points, after.Points)
	require.Equal(t, first.XP, after.XP)
	require.Len(t, after.Result.Attempts, 1)
	require.Equal(t, game.StatusCompleted, after.Status)
}

func TestSubmitAnswer_MemoryFlashReveal(t *testing.T) {
	e := newEngine(t, testCatalog())
	ctx := context.Background()

	s, err := e.StartSession(ctx, StartParams{Type: game.TypeMemoryFlash, Number: intp(42), Settings: game.Settings{"memorizationTime": 8}})
	require.NoError(t, err)
	mf := s.State.MemoryFlash
	require.NotNil(t, mf)
	require.Equal(t, game.PhaseMemorizing, mf.Phase)
	require.Equal(t, 8, mf.MemorizationTime)
	require.Nil(t, mf.Reveal)

	s, err = e.SubmitAnswer(ctx, s.ID, game.Answer{"changedElement": string(mf.ChangedElement)}, nil)
	require.NoError(t, err)
	require.Equal(t, game.StatusCompleted, s.Status)
	require.Equal(t, 100, s.Points)
	require.Equal(t, 10, s.XP)
	require.Equal(t, game.PhaseCompleted, s.State.MemoryFlash.Phase)
	require.NotNil(t, s.State.MemoryFlash.Reveal)
	require.Equal(t, mf.ChangedElement, s.State.MemoryFlash.Reveal.ChangedElement)
	require.Equal(t, mf.ModifiedScene, s.State.MemoryFlash.Reveal.ModifiedScene)
	require.Equal(t, mf.ChangedElement, s.Result.Details.ExpectedChangedElement)
}

func TestSubmitAnswer_SpeedRecallCountsAttempt(t *testing.T) {
	e := newEngine(t, testCatalog())
	ctx := context.Background()

	s, err := e.StartSession(ctx, StartParams{Type: game.TypeSpeedRecall, Number: intp(42)})
	require.NoError(t, err)
	require.Zero(t, s.State.SpeedRecall.Attempts)

	s, err = e.SubmitAnswer(ctx, s.ID, game.Answer{"recall": "the object"}, ms(6000))
	require.NoError(t, err)
	require.Equal(t, game.StatusCompleted, s.Status)
	require.Equal(t, 1, s.State.SpeedRecall.Attempts)
	require.Equal(t, 100, s.Points)
}

func TestSubmitAnswer_UnhandledTypesFail(t *testing.T) {
	e := newEngine(t, testCatalog())
	ctx := context.Background()

	for _, typ := range []game.Type{game.TypeNumberStory, game.TypeAssociationDuel} {
		s, err := e.StartSession(ctx, StartParams{Type: typ, Number: intp(42)})
		require.NoError(t, err)
		require.Nil(t, s.State.MatchHao)

		s, err = e.SubmitAnswer(ctx, s.ID, exact(), nil)
		require.NoError(t, err)
		require.Equal(t, game.StatusFailed, s.Status, typ)
		require.Equal(t, 25, s.Points)
	}
}

func TestSubmitFeedback_AnyStatus(t *testing.T) {
	e := newEngine(t, testCatalog())
	ctx := context.Background()

	s, err := e.StartSession(ctx, StartParams{Type: game.TypeSpeedRecall, Number: intp(42)})
	require.NoError(t, err)

	s, err = e.SubmitFeedback(ctx, s.ID, "too easy", nil)
	require.NoError(t, err)
	require.Len(t, s.Feedback, 1)
	require.Nil(t, s.Feedback[0].Rating)

	_, err = e.SubmitAnswer(ctx, s.ID, game.Answer{"recall": "nope"}, nil)
	require.NoError(t, err)

	s, err = e.SubmitFeedback(ctx, s.ID, "fun anyway", intp(4))
	require.NoError(t, err)
	require.Equal(t, game.StatusFailed, s.Status)
	require.Len(t, s.Feedback, 2)
	require.Equal(t, 4, *s.Feedback[1].Rating)
	require.Equal(t, clock, s.Feedback[1].CreatedAt)
}

func TestSubmitFeedback_Validation(t *testing.T) {
	e := newEngine(t, testCatalog())
	ctx := context.Background()
	s, err := e.StartSession(ctx, StartParams{Type: game.TypeMatchHao, Number: intp(42)})
	require.NoError(t, err)

	_, err = e.SubmitFeedback(ctx, s.ID, "   ", nil)
	require.ErrorIs(t, err, game.ErrValidation)
	_, err = e.SubmitFeedback(ctx, s.ID, "ok", intp(6))
	require.ErrorIs(t, err, game.ErrValidation)
	_, err = e.SubmitFeedback(ctx, "missing", "ok", nil)
	require.ErrorIs(t, err, game.ErrNotFound)
}

func TestStartSession_NotFound(t *testing.T) {
	e := newEngine(t, testCatalog())
	_, err := e.StartSession(context.Background(), StartParams{Type: game.TypeMatchHao, Number: intp(77)})
	require.ErrorIs(t, err, game.ErrNotFound)

	var anf *game.AssociationNotFoundError
	require.True(t, errors.As(err, &anf))
	require.Equal(t, 77, *anf.Number)
}

func TestStartSession_EmptyCatalog(t *testing.T) {
	e := newEngine(t, catalog.NewMemory())
	_, err := e.StartSession(context.Background(), StartParams{Type: game.TypeSpeedRecall})

	var anf *game.AssociationNotFoundError
	require.ErrorAs(t, err, &anf)
	require.Nil(t, anf.Number)
}

func TestStartSession_RandomPrimary(t *testing.T) {
	e := newEngine(t, testCatalog())
	primaries := map[int]bool{2: true, 4: true, 6: true, 8: true, 10: true, 42: true}

	seen := map[int]bool{}
	for i := 0; i < 40; i++ {
		s, err := e.StartSession(context.Background(), StartParams{Type: game.TypeSpeedRecall})
		require.NoError(t, err)
		require.True(t, primaries[s.Number], "number %d is not primary", s.Number)
		seen[s.Number] = true
	}
	require.Greater(t, len(seen), 1)
}

func TestStartSession_Validation(t *testing.T) {
	e := newEngine(t, testCatalog())
	ctx := context.Background()

	for name, p := range map[string]StartParams{
		"type":       {Type: "Chess", Number: intp(42)},
		"number":     {Type: game.TypeMatchHao, Number: intp(100)},
		"difficulty": {Type: game.TypeMatchHao, Number: intp(42), Difficulty: 6},
	} {
		_, err := e.StartSession(ctx, p)
		var ve *game.ValidationError
		require.ErrorAs(t, err, &ve, name)
		require.Equal(t, name, ve.Field)
	}

	s, err := e.StartSession(ctx, StartParams{Type: "matchhao", Number: intp(42)})
	require.NoError(t, err)
	require.Equal(t, game.TypeMatchHao, s.Type)
	require.Equal(t, 1, s.Difficulty)

	_, err = e.SubmitAnswer(ctx, s.ID, exact(), ms(-1))
	require.ErrorIs(t, err, game.ErrValidation)
}

func TestGetSession_NotFound(t *testing.T) {
	e := newEngine(t, testCatalog())
	_, err := e.GetSession(context.Background(), "nope")
	require.ErrorIs(t, err, game.ErrNotFound)
}

func TestSubmitAnswer_ConcurrentSubmissionsScoreOnce(t *testing.T) {
	e := newEngine(t, testCatalog())
	ctx := context.Background()
	s, err := e.StartSession(ctx, StartParams{Type: game.TypeMatchHao, Number: intp(42), Difficulty: 2})
	require.NoError(t, err)

	const n = 16
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		rejected int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.SubmitAnswer(ctx, s.ID, exact(), ms(1200))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if errors.Is(err, game.ErrInvalidState) {
				rejected++
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, ok)
	require.Equal(t, n-1, rejected)

	final, err := e.GetResult(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, final.Result.Attempts, 1)
}

func TestLeaderboard(t *testing.T) {
	e := newEngine(t, testCatalog())
	ctx := context.Background()

	for _, d := range []int{1, 3, 2} {
		s, err := e.StartSession(ctx, StartParams{Type: game.TypeMatchHao, Number: intp(42), Difficulty: d})
		require.NoError(t, err)
		_, err = e.SubmitAnswer(ctx, s.ID, exact(), nil)
		require.NoError(t, err)
	}

	list, err := e.Leaderboard(ctx, store.LeaderboardQuery{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, 300, list[0].Points)
	require.Equal(t, 200, list[1].Points)
	require.Equal(t, 100, list[2].Points)
}

func TestEngine_Spans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	e := newEngine(t, testCatalog(), WithTracer(provider.Tracer("test")), WithIDGenerator(func() string { return "fixed-id" }))
	ctx := context.Background()

	s, err := e.StartSession(ctx, StartParams{Type: game.TypeMatchHao, Number: intp(42)})
	require.NoError(t, err)
	require.Equal(t, "fixed-id", s.ID)
	_, err = e.SubmitAnswer(ctx, s.ID, exact(), nil)
	require.NoError(t, err)
	_, err = e.GetSession(ctx, "missing")
	require.Error(t, err)

	names := map[string]tracetest.SpanStub{}
	for _, span := range exporter.GetSpans() {
		names[span.Name] = span
	}
	require.Contains(t, names, "engine.StartSession")
	require.Contains(t, names, "engine.SubmitAnswer")

	var found bool
	for _, attr := range names["engine.StartSession"].Attributes {
		if string(attr.Key) == tracing.AttrSessionID {
			found = attr.Value.AsString() == "fixed-id"
		}
	}
	require.True(t, found)
	require.Equal(t, "Error", names["engine.GetSession"].Status.Code.String())
}
