package httpserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// ctxPlayerKey is the context key for the authenticated player id.
type ctxPlayerKey struct{}

// withOptionalAuth decorates requests with the player id if a valid JWT is
// present. It never 401s.
func (s *Server) withOptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := s.bearerOrCookie(r); tok != "" {
				claims := jwt.MapClaims{}
				t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
					return []byte(s.opts.JWTSecret), nil
				}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
				if err == nil && t.Valid {
					if id, _ := claims["id"].(string); id != "" {
						r = r.WithContext(context.WithValue(r.Context(), ctxPlayerKey{}, id))
					}
				} else {
					log.Debug().Err(err).Msg("ignoring invalid player token")
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// playerFrom returns the authenticated player id, if any.
func playerFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxPlayerKey{}).(string)
	return id, ok && id != ""
}

// bearerOrCookie extracts a bearer token from Authorization header or auth cookie.
func (s *Server) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.opts.CookieName); err == nil {
		return c.Value
	}
	return ""
}
