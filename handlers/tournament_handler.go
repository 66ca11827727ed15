package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/services"
)

type BracketReader interface {
	GetBracket(ctx context.Context, tournamentID int) (*services.BracketView, error)
}

type TournamentLister interface {
	ListTournamentsByStatus(ctx context.Context, status models.TournamentStatus) ([]*models.Tournament, error)
}

type RankingResolver interface {
	ResolveRankings(ctx context.Context, tournamentID int) ([]models.Placement, error)
}

// TournamentHandler serves the read-only views of tournaments.
type TournamentHandler struct {
	brackets    BracketReader
	tournaments TournamentLister
	rankings    RankingResolver
	logger      *slog.Logger
}

func NewTournamentHandler(brackets BracketReader, tournaments TournamentLister, rankings RankingResolver, logger *slog.Logger) *TournamentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TournamentHandler{
		brackets:    brackets,
		tournaments: tournaments,
		rankings:    rankings,
		logger:      logger,
	}
}

// ListHandler serves GET /tournaments?status=. The status defaults to
// in_progress.
func (h *TournamentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	status := models.StatusInProgress
	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		status = models.TournamentStatus(statusStr)
		switch status {
		case models.StatusUpcoming, models.StatusInProgress, models.StatusCompleted:
		default:
			badRequestResponse(h.logger, w, r, fmt.Errorf("invalid status query parameter %q", statusStr))
			return
		}
	}

	tournaments, err := h.tournaments.ListTournamentsByStatus(r.Context(), status)
	if err != nil {
		mapServiceErrorToHTTP(h.logger, w, r, err)
		return
	}
	if tournaments == nil {
		tournaments = []*models.Tournament{}
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil); err != nil {
		serverErrorResponse(h.logger, w, r, err)
	}
}

// GetBracketHandler serves GET /tournaments/{tournamentID}/bracket.
func (h *TournamentHandler) GetBracketHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(h.logger, w, r, err)
		return
	}

	view, err := h.brackets.GetBracket(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(h.logger, w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"bracket": view}, nil); err != nil {
		serverErrorResponse(h.logger, w, r, err)
	}
}

// GetRankingsHandler serves GET /tournaments/{tournamentID}/rankings. The
// list is computed on request and never stored here, so it answers 409
// until the grand final is played.
func (h *TournamentHandler) GetRankingsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(h.logger, w, r, err)
		return
	}

	placements, err := h.rankings.ResolveRankings(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(h.logger, w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"placements": placements}, nil); err != nil {
		serverErrorResponse(h.logger, w, r, err)
	}
}
