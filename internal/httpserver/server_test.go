package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/numberhero/internal/catalog"
	"github.com/robalobadob/numberhero/internal/engine"
	"github.com/robalobadob/numberhero/internal/game"
	"github.com/robalobadob/numberhero/internal/store"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T) (*Server, *catalog.Memory) {
	t.Helper()
	cat := catalog.NewMemory(
		catalog.Association{Number: 42, Hero: "Hero", Action: "Action", Object: "Object", IsPrimary: true},
		catalog.Association{Number: 7, Hero: "Pirate", Action: "digging", Object: "treasure", IsPrimary: true},
		catalog.Association{Number: 7, Hero: "Cowboy", Action: "lassoing", Object: "horse"},
		catalog.Association{Number: 3, Hero: "Butterfly", Action: "fluttering", Object: "flower", IsPrimary: true},
	)
	eng := engine.New(cat, store.NewMemoryStore(), engine.WithRand(rand.New(rand.NewPCG(3, 4))))
	return New(eng, cat, Options{JWTSecret: testSecret, ClientOrigin: "http://example.test"}), cat
}

func do(t *testing.T, s *Server, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func startGame(t *testing.T, s *Server, body string) game.Session {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/games", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[game.Session](t, rec)
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"ok":true}`, rec.Body.String())
	require.Equal(t, "http://example.test", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodOptions, "/games", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestGameFlow_MatchHao(t *testing.T) {
	s, _ := newTestServer(t)
	sess := startGame(t, s, `{"type":"MatchHao","number":42,"difficulty":2}`)
	require.Equal(t, game.StatusInProgress, sess.Status)
	require.Contains(t, sess.State.MatchHao.Categories.Hero, "Hero")

	rec := do(t, s, http.MethodGet, "/games/"+sess.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodPost, "/games/"+sess.ID+"/answer",
		`{"answer":{"hero":"hero","action":"Action","object":"OBJECT"},"elapsedMs":1200}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	done := decodeBody[game.Session](t, rec)
	require.Equal(t, game.StatusCompleted, done.Status)
	require.Equal(t, 208, done.Points)
	require.Equal(t, 20, done.XP)

	rec = do(t, s, http.MethodGet, "/games/"+sess.ID+"/result", "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeBody[resultRes](t, rec)
	require.Equal(t, sess.ID, res.SessionID)
	require.Equal(t, 208, res.Points)
	require.Len(t, res.Result.Attempts, 1)
	require.NotNil(t, res.CompletedAt)

	rec = do(t, s, http.MethodPost, "/games/"+sess.ID+"/answer", `{"answer":{"hero":"x"}}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "invalid_state", decodeBody[errorRes](t, rec).Error)

	rec = do(t, s, http.MethodPost, "/games/"+sess.ID+"/feedback", `{"message":"loved it","rating":5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeBody[game.Session](t, rec).Feedback, 1)

	rec = do(t, s, http.MethodGet, "/leaderboard?type=matchhao", "")
	require.Equal(t, http.StatusOK, rec.Code)
	board := decodeBody[[]store.LeaderboardEntry](t, rec)
	require.Len(t, board, 1)
	require.Equal(t, sess.ID, board[0].SessionID)
}

func TestStart_PlayerFromToken(t *testing.T) {
	s, _ := newTestServer(t)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  "player-9",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)

	rec := do(t, s, http.MethodPost, "/games", `{"type":"SpeedRecall","number":3,"playerId":"spoofed"}`,
		"Authorization", "Bearer "+signed)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "player-9", *decodeBody[game.Session](t, rec).PlayerID)

	rec = do(t, s, http.MethodPost, "/games", `{"type":"SpeedRecall","number":3,"playerId":"guest-1"}`,
		"Authorization", "Bearer not-a-token")
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "guest-1", *decodeBody[game.Session](t, rec).PlayerID)
}

func TestErrors(t *testing.T) {
	s, _ := newTestServer(t)
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		code   int
		errKey string
	}{
		{"bad json", http.MethodPost, "/games", `{`, http.StatusBadRequest, "bad_json"},
		{"bad type", http.MethodPost, "/games", `{"type":"Chess"}`, http.StatusBadRequest, "validation"},
		{"bad number", http.MethodPost, "/games", `{"type":"MatchHao","number":120}`, http.StatusBadRequest, "validation"},
		{"bad difficulty", http.MethodPost, "/games", `{"type":"MatchHao","difficulty":9}`, http.StatusBadRequest, "validation"},
		{"missing association", http.MethodPost, "/games", `{"type":"MatchHao","number":55}`, http.StatusNotFound, "not_found"},
		{"missing session", http.MethodGet, "/games/nope", "", http.StatusNotFound, "not_found"},
		{"missing result", http.MethodGet, "/games/nope/result", "", http.StatusNotFound, "not_found"},
		{"answer missing session", http.MethodPost, "/games/nope/answer", `{"answer":{}}`, http.StatusNotFound, "not_found"},
		{"unknown route", http.MethodGet, "/nowhere", "", http.StatusNotFound, "not_found"},
		{"bad leaderboard type", http.MethodGet, "/leaderboard?type=chess", "", http.StatusBadRequest, "validation"},
		{"bad leaderboard limit", http.MethodGet, "/leaderboard?limit=0", "", http.StatusBadRequest, "validation"},
		{"bad association number", http.MethodGet, "/associations/abc", "", http.StatusBadRequest, "validation"},
		{"unknown association number", http.MethodGet, "/associations/55", "", http.StatusNotFound, "not_found"},
		{"bad rating delta", http.MethodPost, "/associations/1/rating", `{"delta":3}`, http.StatusBadRequest, "validation"},
		{"unknown rating id", http.MethodPost, "/associations/999/rating", `{"delta":1}`, http.StatusNotFound, "not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.path, tt.body)
			require.Equal(t, tt.code, rec.Code, rec.Body.String())
			require.Equal(t, tt.errKey, decodeBody[errorRes](t, rec).Error)
		})
	}
}

func TestAnswer_NegativeElapsed(t *testing.T) {
	s, _ := newTestServer(t)
	sess := startGame(t, s, `{"type":"SpeedRecall","number":3}`)
	rec := do(t, s, http.MethodPost, "/games/"+sess.ID+"/answer", `{"answer":{"recall":"flower"},"elapsedMs":-5}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFeedback_Validation(t *testing.T) {
	s, _ := newTestServer(t)
	sess := startGame(t, s, `{"type":"NumberStory","number":3}`)

	rec := do(t, s, http.MethodPost, "/games/"+sess.ID+"/feedback", `{"message":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	long := strings.Repeat("a", engine.MaxFeedbackLength+1)
	rec = do(t, s, http.MethodPost, "/games/"+sess.ID+"/feedback", `{"message":"`+long+`"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/games/"+sess.ID+"/feedback", `{"message":"ok","rating":0}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssociations_ListAndRate(t *testing.T) {
	s, cat := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/associations/7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]catalog.Association](t, rec)
	require.Len(t, list, 2)
	require.Equal(t, "Pirate", list[0].Hero)

	cowboy := list[1]
	rec = do(t, s, http.MethodPost, "/associations/"+strconv.FormatInt(cowboy.ID, 10)+"/rating", `{"delta":1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, 1, decodeBody[catalog.Association](t, rec).Rating)

	best, err := cat.FindByNumber(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, "Cowboy", best.Hero)

	// new games for 7 now play the better-rated record
	sess := startGame(t, s, `{"type":"SpeedRecall","number":7}`)
	require.Equal(t, "Cowboy", sess.State.Association.Hero)
}

func TestStart_RandomPrimary(t *testing.T) {
	s, _ := newTestServer(t)
	sess := startGame(t, s, `{"type":"MemoryFlash"}`)
	require.Contains(t, []int{42, 7, 3}, sess.Number)
	require.Equal(t, sess.Number, sess.State.Association.Number)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	startGame(t, s, `{"type":"MatchHao","number":42}`)

	rec := do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "game_sessions_started_total")
	require.Contains(t, rec.Body.String(), "http_requests_total")
}
