package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/bracket-engine/brackets"
	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/repositories"
)

type CreateTournamentInput struct {
	Name   string                  `json:"name"`
	Format models.TournamentFormat `json:"format"`
	Season int                     `json:"season"`
	// Teams ordered by seed. How they are split into tiers depends on Format.
	Teams []int `json:"teams"`
}

type TournamentService struct {
	store  *repositories.Store
	logger *slog.Logger
}

func NewTournamentService(store *repositories.Store, logger *slog.Logger) *TournamentService {
	return &TournamentService{store: store, logger: orDefaultLogger(logger)}
}

// CreateTournament stores the tournament together with its whole bracket
// skeleton. Knockout matches start with empty slots.
func (s *TournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, preconditionf("tournament name is required")
	}
	if err := brackets.Validate(input.Format); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPreconditionNotMet, err)
	}
	generator, err := brackets.NewGenerator(input.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPreconditionNotMet, err)
	}

	t := &models.Tournament{
		Name:   name,
		Format: input.Format,
		Season: input.Season,
		Status: models.StatusUpcoming,
	}
	generated, err := generator.GenerateBracket(ctx, brackets.GenerateBracketParams{Tournament: t, Teams: input.Teams})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPreconditionNotMet, err)
	}

	err = s.store.Tx.RunInTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		if err := s.store.Tournaments.Create(ctx, exec, t); err != nil {
			return handleRepositoryError(err, "create tournament")
		}
		matches := make([]*models.Match, 0, len(generated))
		for _, bm := range generated {
			matches = append(matches, bm.ToMatch(t.ID))
		}
		if err := s.store.Matches.BatchCreate(ctx, exec, matches); err != nil {
			return handleRepositoryError(err, "create bracket")
		}
		t.Matches = matches
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tournament created",
		tournamentAttr(t),
		slog.String("generator", generator.GetName()),
		slog.Int("matches", len(t.Matches)),
	)
	return t, nil
}

func (s *TournamentService) GetTournamentByID(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.store.Tournaments.GetByID(ctx, nil, id)
	if err != nil {
		return nil, handleRepositoryError(err, "get tournament")
	}
	return t, nil
}

func (s *TournamentService) ListTournamentsByStatus(ctx context.Context, status models.TournamentStatus) ([]*models.Tournament, error) {
	list, err := s.store.Tournaments.ListByStatus(ctx, nil, status)
	if err != nil {
		return nil, handleRepositoryError(err, "list tournaments")
	}
	return list, nil
}

// updateStatus moves t forward. Repeating the current status is allowed.
func (s *TournamentService) updateStatus(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, next models.TournamentStatus) error {
	if !isValidStatusTransition(t.Status, next) {
		return fmt.Errorf("%w: %w: %s -> %s", ErrPreconditionNotMet, ErrTournamentInvalidStatusTransition, t.Status, next)
	}
	if t.Status == next {
		return nil
	}
	if err := s.store.Tournaments.UpdateStatus(ctx, exec, t.ID, next); err != nil {
		return handleRepositoryError(err, "update tournament status")
	}
	s.logger.Info("tournament status changed", tournamentAttr(t),
		slog.String("from", string(t.Status)), slog.String("to", string(next)))
	t.Status = next
	return nil
}
