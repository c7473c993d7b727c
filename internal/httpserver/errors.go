package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/numberhero/internal/catalog"
	"github.com/robalobadob/numberhero/internal/game"
)

// errorRes is the body of every error response.
type errorRes struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError maps domain errors to status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, game.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorRes{Error: "validation", Message: err.Error()})
	case errors.Is(err, game.ErrNotFound), errors.Is(err, catalog.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorRes{Error: "not_found", Message: err.Error()})
	case errors.Is(err, game.ErrInvalidState):
		writeJSON(w, http.StatusConflict, errorRes{Error: "invalid_state", Message: err.Error()})
	case errors.Is(err, game.ErrDataIntegrity):
		log.Error().Err(err).Str("path", r.URL.Path).Msg("data integrity")
		writeJSON(w, http.StatusInternalServerError, errorRes{Error: "data_integrity", Message: err.Error()})
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorRes{Error: "internal"})
	}
}

func badJSON(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorRes{Error: "bad_json", Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body of at most maxBodyBytes into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}
