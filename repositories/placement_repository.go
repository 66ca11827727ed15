package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/lib/pq"
)

var (
	ErrPlacementsExist            = errors.New("placements already recorded for tournament")
	ErrPlacementTournamentInvalid = errors.New("placement tournament conflict or invalid")
)

// PlacementRepository stores the final result list. A tournament's list is
// written once and never changed.
type PlacementRepository interface {
	SaveAll(ctx context.Context, exec SQLExecutor, tournamentID int, placements []models.Placement) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Placement, error)
}

type postgresPlacementRepository struct {
	db *sql.DB
}

func NewPostgresPlacementRepository(db *sql.DB) PlacementRepository {
	return &postgresPlacementRepository{db: db}
}

func (r *postgresPlacementRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPlacementRepository) SaveAll(ctx context.Context, exec SQLExecutor, tournamentID int, placements []models.Placement) error {
	executor := r.getExecutor(exec)

	var existing int
	if err := executor.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM placements WHERE tournament_id = $1`, tournamentID,
	).Scan(&existing); err != nil {
		return err
	}
	if existing > 0 {
		return ErrPlacementsExist
	}

	query := `
		INSERT INTO placements (tournament_id, team_id, tag, position, rank_order)
		VALUES ($1, $2, $3, $4, $5)`
	for i, p := range placements {
		if _, err := executor.ExecContext(ctx, query, tournamentID, p.TeamID, p.Tag, p.Position, i+1); err != nil {
			return fmt.Errorf("failed to save placement of team %d: %w", p.TeamID, r.handlePlacementError(err))
		}
	}
	return nil
}

func (r *postgresPlacementRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Placement, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT tournament_id, team_id, tag, position
		FROM placements
		WHERE tournament_id = $1
		ORDER BY rank_order ASC`

	rows, err := executor.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	placements := make([]models.Placement, 0)
	for rows.Next() {
		var p models.Placement
		if scanErr := rows.Scan(&p.TournamentID, &p.TeamID, &p.Tag, &p.Position); scanErr != nil {
			return nil, scanErr
		}
		placements = append(placements, p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return placements, nil
}

func (r *postgresPlacementRepository) handlePlacementError(err error) error {
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			return ErrPlacementsExist
		case "23503":
			if pqErr.Constraint == "placements_tournament_id_fkey" {
				return ErrPlacementTournamentInvalid
			}
		}
	}
	return err
}
