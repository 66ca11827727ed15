package routes

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dosada05/bracket-engine/handlers"
	"github.com/Dosada05/bracket-engine/metrics"
	"github.com/Dosada05/bracket-engine/middleware"
	"github.com/Dosada05/bracket-engine/repositories"
	"github.com/Dosada05/bracket-engine/services"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T, secret []byte) *chi.Mux {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	recorder := metrics.NewPrometheusMetrics(reg)

	store := repositories.NewMemoryBackedStore(repositories.NewMemoryStore())
	engine := services.NewEngine(store, services.EngineOptions{Logger: logger, Metrics: recorder})
	sim := services.NewSimulationService(engine, services.NewRandomSimulator(1), 0, logger)

	router := chi.NewRouter()
	SetupRoutes(router,
		Options{
			Logger:         logger,
			Metrics:        recorder,
			Gatherer:       reg,
			AllowedOrigins: []string{"https://ops.example.com"},
			OpsSecret:      secret,
		},
		handlers.NewHealthHandler(nil, "memory", logger),
		handlers.NewTournamentHandler(services.NewQueryService(store), engine.Tournaments(), engine, logger),
		handlers.NewOpsHandler(engine, services.NewReconciler(engine, 1, logger), sim, logger),
	)
	return router
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSetupRoutes_PublicEndpoints(t *testing.T) {
	router := newRouter(t, nil)

	assert.Equal(t, http.StatusOK, serve(router, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(router, httptest.NewRequest(http.MethodGet, "/api/tournaments", nil)).Code)
	assert.Equal(t, http.StatusNotFound, serve(router, httptest.NewRequest(http.MethodGet, "/api/tournaments/9/bracket", nil)).Code)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "bracket_engine_http_request_duration_seconds")
	assert.Contains(t, body, `route="/api/tournaments/{tournamentID}/bracket"`)
}

func TestSetupRoutes_OpsDisabledWithoutSecret(t *testing.T) {
	router := newRouter(t, nil)
	rec := serve(router, httptest.NewRequest(http.MethodPost, "/api/ops/reconcile", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetupRoutes_OpsRequireOperatorToken(t *testing.T) {
	secret := []byte("route-secret")
	router := newRouter(t, secret)

	sign := func(role string) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":  "ops-bot",
			"role": role,
			"exp":  time.Now().Add(time.Minute).Unix(),
		}).SignedString(secret)
		require.NoError(t, err)
		return token
	}

	req := httptest.NewRequest(http.MethodPost, "/api/ops/reconcile", nil)
	assert.Equal(t, http.StatusUnauthorized, serve(router, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/api/ops/reconcile", nil)
	req.Header.Set("Authorization", "Bearer "+sign("viewer"))
	assert.Equal(t, http.StatusForbidden, serve(router, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/api/ops/reconcile", nil)
	req.Header.Set("Authorization", "Bearer "+sign(middleware.RoleOperator))
	rec := serve(router, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"run_id"`)

	req = httptest.NewRequest(http.MethodPost, "/api/ops/tournaments/77/reconcile", nil)
	req.Header.Set("Authorization", "Bearer "+sign(middleware.RoleOperator))
	assert.Equal(t, http.StatusNotFound, serve(router, req).Code)
}

func TestSetupRoutes_CORSPreflight(t *testing.T) {
	router := newRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/tournaments", nil)
	req.Header.Set("Origin", "https://ops.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := serve(router, req)
	assert.Equal(t, "https://ops.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/tournaments", nil)
	req.Header.Set("Origin", "https://elsewhere.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec = serve(router, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
