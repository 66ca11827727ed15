package services

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/repositories"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func isValidStatusTransition(current, next models.TournamentStatus) bool {
	if current == next {
		return true
	}
	allowedTransitions := map[models.TournamentStatus][]models.TournamentStatus{
		models.StatusUpcoming:   {models.StatusInProgress},
		models.StatusInProgress: {models.StatusCompleted},
		models.StatusCompleted:  {},
	}
	for _, allowedNextStatus := range allowedTransitions[current] {
		if next == allowedNextStatus {
			return true
		}
	}
	return false
}

// handleRepositoryError maps storage errors onto the service sentinels.
func handleRepositoryError(err error, op string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, repositories.ErrTournamentNotFound),
		errors.Is(err, repositories.ErrMatchNotFound),
		errors.Is(err, repositories.ErrMatchTournamentInvalid),
		errors.Is(err, repositories.ErrStandingTournamentInvalid),
		errors.Is(err, repositories.ErrPlacementTournamentInvalid):
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	case errors.Is(err, repositories.ErrTournamentNameConflict):
		return fmt.Errorf("%s: %w", op, ErrTournamentNameConflict)
	case errors.Is(err, repositories.ErrMatchNotScheduled),
		errors.Is(err, repositories.ErrPlacementsExist):
		return fmt.Errorf("%s: %w: %w", op, ErrPreconditionNotMet, err)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrPreconditionNotMet),
		errors.Is(err, ErrSlotConflict), errors.Is(err, ErrPersistence):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
	}
}

func preconditionf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrPreconditionNotMet, fmt.Sprintf(format, args...))
}

func orDefaultLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

func orNoopTracer(tracer trace.Tracer) trace.Tracer {
	if tracer == nil {
		return noop.NewTracerProvider().Tracer("bracket-engine")
	}
	return tracer
}

func tournamentAttr(t *models.Tournament) slog.Attr {
	return slog.Group("tournament",
		slog.Int("id", t.ID),
		slog.String("format", string(t.Format)),
	)
}

func matchAttr(m *models.Match) slog.Attr {
	return slog.Group("match",
		slog.Int("id", m.ID),
		slog.String("stage", string(m.Stage)),
		slog.Int("order", m.MatchOrder),
	)
}
