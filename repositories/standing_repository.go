package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/lib/pq"
)

var (
	ErrStandingTournamentInvalid = errors.New("standing tournament conflict or invalid")
	ErrStandingDuplicate         = errors.New("standing row already exists for this stage and team")
)

// TournamentStandingRepository stores the materialized group tables. Rows
// are only ever replaced as a whole stage at a time.
type TournamentStandingRepository interface {
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, stage *models.Stage) ([]*models.TournamentStanding, error)
	DeleteByStage(ctx context.Context, exec SQLExecutor, tournamentID int, stage models.Stage) error
	BatchCreate(ctx context.Context, exec SQLExecutor, standings []*models.TournamentStanding) error
}

type postgresTournamentStandingRepository struct {
	db *sql.DB
}

func NewPostgresTournamentStandingRepository(db *sql.DB) TournamentStandingRepository {
	return &postgresTournamentStandingRepository{db: db}
}

func (r *postgresTournamentStandingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTournamentStandingRepository) BatchCreate(ctx context.Context, exec SQLExecutor, standings []*models.TournamentStanding) error {
	executor := r.getExecutor(exec)
	if len(standings) == 0 {
		return nil
	}

	query := `
		INSERT INTO tournament_standings
			(tournament_id, stage, team_id, matches_played, wins, losses, points, games_won, games_lost, game_diff, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	now := time.Now()
	for _, s := range standings {
		if s.UpdatedAt.IsZero() {
			s.UpdatedAt = now
		}
		err := executor.QueryRowContext(ctx, query,
			s.TournamentID, s.Stage, s.TeamID, s.MatchesPlayed, s.Wins, s.Losses,
			s.Points, s.GamesWon, s.GamesLost, s.GameDiff, s.UpdatedAt,
		).Scan(&s.ID)
		if err != nil {
			return fmt.Errorf("BatchCreate failed for team %d in %s: %w", s.TeamID, s.Stage, r.handleStandingError(err))
		}
	}
	return nil
}

func (r *postgresTournamentStandingRepository) DeleteByStage(ctx context.Context, exec SQLExecutor, tournamentID int, stage models.Stage) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM tournament_standings WHERE tournament_id = $1 AND stage = $2`
	// Resetting an empty stage is fine, so affected rows are not checked.
	_, err := executor.ExecContext(ctx, query, tournamentID, stage)
	return err
}

func (r *postgresTournamentStandingRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, stage *models.Stage) ([]*models.TournamentStanding, error) {
	executor := r.getExecutor(exec)

	queryBuilder := strings.Builder{}
	queryBuilder.WriteString(`
		SELECT id, tournament_id, stage, team_id, matches_played, wins, losses,
		       points, games_won, games_lost, game_diff, updated_at
		FROM tournament_standings
		WHERE tournament_id = $1`)
	args := []interface{}{tournamentID}
	if stage != nil {
		queryBuilder.WriteString(" AND stage = $2")
		args = append(args, *stage)
	}
	// Matches models.SortStandings within a stage.
	queryBuilder.WriteString(" ORDER BY stage ASC, points DESC, game_diff DESC, wins DESC, team_id ASC")

	rows, err := executor.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	standings := make([]*models.TournamentStanding, 0)
	for rows.Next() {
		var s models.TournamentStanding
		if scanErr := rows.Scan(
			&s.ID, &s.TournamentID, &s.Stage, &s.TeamID, &s.MatchesPlayed, &s.Wins, &s.Losses,
			&s.Points, &s.GamesWon, &s.GamesLost, &s.GameDiff, &s.UpdatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		standings = append(standings, &s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return standings, nil
}

func (r *postgresTournamentStandingRepository) handleStandingError(err error) error {
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23503":
			return ErrStandingTournamentInvalid
		case "23505":
			return ErrStandingDuplicate
		}
	}
	return err
}
