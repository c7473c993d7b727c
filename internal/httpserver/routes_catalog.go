// internal/httpserver/routes_catalog.go
//
// Catalog and leaderboard routes:
//   - GET  /associations/{number}      → every record for a number, best first
//   - POST /associations/{id}/rating   → thumbs up/down (delta ±1)
//   - GET  /leaderboard?type=&limit=   → top completed sessions

package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/numberhero/internal/game"
	"github.com/robalobadob/numberhero/internal/store"
)

const maxLeaderboardLimit = 100

func (s *Server) mountCatalog(r chi.Router) {
	r.Get("/associations/{number}", s.handleAssociations)
	r.Post("/associations/{id}/rating", s.handleRate)
	r.Get("/leaderboard", s.handleLeaderboard)
}

func (s *Server) handleAssociations(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil || n < 0 || n > 99 {
		writeError(w, r, &game.ValidationError{Field: "number", Msg: "must be between 0 and 99"})
		return
	}
	list, err := s.catalog.ListByNumber(r.Context(), n)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if len(list) == 0 {
		writeError(w, r, &game.AssociationNotFoundError{Number: &n})
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type rateReq struct {
	Delta int `json:"delta"`
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, &game.ValidationError{Field: "id", Msg: "must be a positive integer"})
		return
	}
	var req rateReq
	if err := decode(w, r, &req); err != nil {
		badJSON(w, err)
		return
	}
	if req.Delta != 1 && req.Delta != -1 {
		writeError(w, r, &game.ValidationError{Field: "delta", Msg: "must be 1 or -1"})
		return
	}
	a, err := s.catalog.AdjustRating(r.Context(), id, req.Delta)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := store.LeaderboardQuery{Limit: store.DefaultLeaderboardLimit}
	if v := r.URL.Query().Get("type"); v != "" {
		t, ok := game.ParseType(v)
		if !ok {
			writeError(w, r, &game.ValidationError{Field: "type", Msg: "unknown game type " + v})
			return
		}
		q.Type = t
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxLeaderboardLimit {
			writeError(w, r, &game.ValidationError{Field: "limit", Msg: "must be between 1 and 100"})
			return
		}
		q.Limit = n
	}
	list, err := s.engine.Leaderboard(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
