package routes

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/bracket-engine/handlers"
	"github.com/Dosada05/bracket-engine/metrics"
	"github.com/Dosada05/bracket-engine/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	Logger         *slog.Logger
	Metrics        metrics.Recorder
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
	// OpsSecret signs operator tokens. The /api/ops routes are not mounted
	// without it.
	OpsSecret []byte
}

func SetupRoutes(
	router chi.Router,
	opts Options,
	healthHandler *handlers.HealthHandler,
	tournamentHandler *handlers.TournamentHandler,
	opsHandler *handlers.OpsHandler,
) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestLogger(logger, opts.Metrics))
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	router.Get("/healthz", healthHandler.HealthHandler)
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	router.Route("/api", func(r chi.Router) {
		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/", tournamentHandler.ListHandler)
			r.Get("/{tournamentID}/bracket", tournamentHandler.GetBracketHandler)
			r.Get("/{tournamentID}/rankings", tournamentHandler.GetRankingsHandler)
		})

		if len(opts.OpsSecret) == 0 || opsHandler == nil {
			logger.Info("ops routes disabled: no signing secret configured")
			return
		}
		r.Route("/ops", func(r chi.Router) {
			r.Use(middleware.Authenticate(opts.OpsSecret))
			r.Use(middleware.Authorize(middleware.RoleOperator))

			r.Post("/reconcile", opsHandler.ReconcileAllHandler)
			r.Post("/tournaments/{tournamentID}/reconcile", opsHandler.ReconcileTournamentHandler)
			r.Post("/tournaments/{tournamentID}/simulate", opsHandler.SimulateHandler)
		})
	})
}
