package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Dosada05/bracket-engine/middleware"
	"github.com/Dosada05/bracket-engine/services"
)

type TournamentReconciler interface {
	Reconcile(ctx context.Context, tournamentID int) (*services.ResultReport, error)
}

type ReconcileSweeper interface {
	RunOnce(ctx context.Context) (*services.ReconcileSummary, error)
}

type AutoPlayer interface {
	RunAuto(ctx context.Context, tournamentID, maxMatches int) (*services.SimulationReport, error)
}

// OpsHandler lets an operator trigger the repair passes that otherwise run
// on the reconcile schedule, and auto-play a tournament.
type OpsHandler struct {
	engine    TournamentReconciler
	sweep     ReconcileSweeper
	simulator AutoPlayer
	logger    *slog.Logger
}

func NewOpsHandler(engine TournamentReconciler, sweep ReconcileSweeper, simulator AutoPlayer, logger *slog.Logger) *OpsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OpsHandler{engine: engine, sweep: sweep, simulator: simulator, logger: logger}
}

// ReconcileTournamentHandler serves POST /ops/tournaments/{tournamentID}/reconcile.
func (h *OpsHandler) ReconcileTournamentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(h.logger, w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "operator reconcile requested",
		slog.Int("tournament_id", id),
		slog.String("operator", middleware.GetSubjectFromContext(r.Context())),
	)

	report, err := h.engine.Reconcile(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(h.logger, w, r, err)
		return
	}

	env := jsonResponse{"report": report}
	if conflicts := report.Conflicts(); conflicts != nil {
		env["conflicts"] = conflicts.Error()
	}
	if err := writeJSON(w, http.StatusOK, env, nil); err != nil {
		serverErrorResponse(h.logger, w, r, err)
	}
}

// ReconcileAllHandler serves POST /ops/reconcile.
func (h *OpsHandler) ReconcileAllHandler(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "operator sweep requested",
		slog.String("operator", middleware.GetSubjectFromContext(r.Context())),
	)

	summary, err := h.sweep.RunOnce(r.Context())
	if err != nil {
		serverErrorResponse(h.logger, w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"summary": summary}, nil); err != nil {
		serverErrorResponse(h.logger, w, r, err)
	}
}

// SimulateHandler serves POST /ops/tournaments/{tournamentID}/simulate?max=N.
// Matches played before a failure stay played; the error response lists them
// under "simulation".
func (h *OpsHandler) SimulateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(h.logger, w, r, err)
		return
	}

	maxMatches := 0
	if maxStr := r.URL.Query().Get("max"); maxStr != "" {
		maxMatches, err = strconv.Atoi(maxStr)
		if err != nil || maxMatches < 0 {
			badRequestResponse(h.logger, w, r, errors.New("invalid max query parameter"))
			return
		}
	}

	h.logger.InfoContext(r.Context(), "operator simulation requested",
		slog.Int("tournament_id", id),
		slog.Int("max_matches", maxMatches),
		slog.String("operator", middleware.GetSubjectFromContext(r.Context())),
	)

	report, err := h.simulator.RunAuto(r.Context(), id, maxMatches)
	if err != nil {
		if report == nil || len(report.Played) == 0 {
			mapServiceErrorToHTTP(h.logger, w, r, err)
			return
		}
		h.logger.WarnContext(r.Context(), "simulation stopped early",
			slog.Int("tournament_id", id),
			slog.Int("played", len(report.Played)),
			slog.Any("error", err),
		)
		mapServiceErrorWith(h.logger, w, r, err, jsonResponse{"simulation": report})
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"simulation": report}, nil); err != nil {
		serverErrorResponse(h.logger, w, r, err)
	}
}
