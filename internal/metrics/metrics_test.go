package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/games/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/games/{id}", "418"))
	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/games/"+id, nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/games/{id}", "418"))
	require.Equal(t, 2.0, after-before)
	require.Zero(t, testutil.ToFloat64(httpRequestsInFlight))
}

func TestRecorders(t *testing.T) {
	before := testutil.ToFloat64(answersTotal.WithLabelValues("MatchHao", "true"))
	RecordAnswer("MatchHao", true, 208)
	require.Equal(t, 1.0, testutil.ToFloat64(answersTotal.WithLabelValues("MatchHao", "true"))-before)

	before = testutil.ToFloat64(sessionsStartedTotal.WithLabelValues("SpeedRecall"))
	RecordSessionStarted("SpeedRecall")
	require.Equal(t, 1.0, testutil.ToFloat64(sessionsStartedTotal.WithLabelValues("SpeedRecall"))-before)

	before = testutil.ToFloat64(catalogCacheTotal.WithLabelValues("false"))
	RecordCatalogCache(false)
	require.Equal(t, 1.0, testutil.ToFloat64(catalogCacheTotal.WithLabelValues("false"))-before)
}

func TestHandler_ExposesGameMetrics(t *testing.T) {
	RecordFeedback()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "game_feedback_total")
}
