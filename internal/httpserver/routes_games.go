// internal/httpserver/routes_games.go
//
// Game session routes:
//   - POST /games                → start a session (201)
//   - GET  /games/{id}           → full session
//   - POST /games/{id}/answer    → submit the single answer
//   - GET  /games/{id}/result    → result projection
//   - POST /games/{id}/feedback  → append feedback (any status)

package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/numberhero/internal/engine"
	"github.com/robalobadob/numberhero/internal/game"
)

func (s *Server) mountGames(r chi.Router) {
	r.Route("/games", func(r chi.Router) {
		r.Post("/", s.handleStart)
		r.Get("/{id}", s.handleGet)
		r.Post("/{id}/answer", s.handleAnswer)
		r.Get("/{id}/result", s.handleResult)
		r.Post("/{id}/feedback", s.handleFeedback)
	})
}

// startReq is the body of POST /games. playerId is ignored when the request
// carries a valid player token.
type startReq struct {
	Type       string        `json:"type"`
	Number     *int          `json:"number"`
	Difficulty int           `json:"difficulty"`
	Settings   game.Settings `json:"settings"`
	PlayerID   *string       `json:"playerId"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startReq
	if err := decode(w, r, &req); err != nil {
		badJSON(w, err)
		return
	}
	player := req.PlayerID
	if id, ok := playerFrom(r.Context()); ok {
		player = &id
	}

	sess, err := s.engine.StartSession(r.Context(), engine.StartParams{
		Type:       game.Type(req.Type),
		Number:     req.Number,
		PlayerID:   player,
		Difficulty: req.Difficulty,
		Settings:   req.Settings,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

type answerReq struct {
	Answer    game.Answer `json:"answer"`
	ElapsedMs *int64      `json:"elapsedMs"`
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerReq
	if err := decode(w, r, &req); err != nil {
		badJSON(w, err)
		return
	}
	sess, err := s.engine.SubmitAnswer(r.Context(), chi.URLParam(r, "id"), req.Answer, req.ElapsedMs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// resultRes is the GET /games/{id}/result body.
type resultRes struct {
	SessionID   string      `json:"sessionId"`
	Type        game.Type   `json:"type"`
	Number      int         `json:"number"`
	Status      game.Status `json:"status"`
	Points      int         `json:"points"`
	XP          int         `json:"xp"`
	Result      game.Result `json:"result"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.GetResult(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resultRes{
		SessionID:   sess.ID,
		Type:        sess.Type,
		Number:      sess.Number,
		Status:      sess.Status,
		Points:      sess.Points,
		XP:          sess.XP,
		Result:      sess.Result,
		CompletedAt: sess.CompletedAt,
	})
}

type feedbackReq struct {
	Message string `json:"message"`
	Rating  *int   `json:"rating"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackReq
	if err := decode(w, r, &req); err != nil {
		badJSON(w, err)
		return
	}
	sess, err := s.engine.SubmitFeedback(r.Context(), chi.URLParam(r, "id"), req.Message, req.Rating)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}
