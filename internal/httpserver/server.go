// internal/httpserver/server.go
//
// HTTP server wiring for the Number Hero backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, metrics).
//   - Public endpoints: "/", "/health", "/metrics".
//   - Game endpoints (optional auth): /games/* (routes_games.go).
//   - Catalog + leaderboard endpoints: /associations/*, /leaderboard (routes_catalog.go).
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Optional auth decorates requests with the player id when a valid token is
//     present; guests can still play.
//   - Domain errors map to status codes in errors.go.

package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/robalobadob/numberhero/internal/catalog"
	"github.com/robalobadob/numberhero/internal/engine"
	"github.com/robalobadob/numberhero/internal/metrics"
)

const (
	defaultClientOrigin = "http://localhost:5173"
	defaultCookieName   = "numberhero_token"
	maxBodyBytes        = 64 << 10
)

// Options configures the HTTP layer.
type Options struct {
	ClientOrigin string
	JWTSecret    string
	CookieName   string
}

func (o Options) withDefaults() Options {
	if o.ClientOrigin == "" {
		o.ClientOrigin = defaultClientOrigin
	}
	if o.CookieName == "" {
		o.CookieName = defaultCookieName
	}
	return o
}

// Server bundles the router, the game engine and the catalog.
type Server struct {
	r       *chi.Mux
	engine  *engine.Engine
	catalog catalog.Catalog
	opts    Options
}

// New constructs a Server, installs middleware, and registers routes.
func New(eng *engine.Engine, cat catalog.Catalog, opts Options) *Server {
	s := &Server{r: chi.NewRouter(), engine: eng, catalog: cat, opts: opts.withDefaults()}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(metrics.Middleware)              // prometheus request metrics
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(cors(s.opts.ClientOrigin))       // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"numberhero","endpoints":["/health","/metrics","POST /games","/games/{id}","/associations/{number}","/leaderboard"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Game endpoints: OPTIONAL AUTH (guests can play)
	s.mountGames(s.r.With(s.withOptionalAuth()))

	// Catalog + leaderboard
	s.mountCatalog(s.r)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorRes{Error: "not_found", Message: "no route for " + r.URL.Path})
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}

// Handler exposes the router (useful for tests and custom servers).
func (s *Server) Handler() http.Handler { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
