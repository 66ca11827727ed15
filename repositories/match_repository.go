package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchTournamentInvalid = errors.New("match tournament conflict or invalid")
	ErrMatchDuplicateSlot     = errors.New("match with this stage and order already exists")
	ErrMatchNotScheduled      = errors.New("match is not scheduled")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	BatchCreate(ctx context.Context, exec SQLExecutor, matches []*models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	GetByStage(ctx context.Context, exec SQLExecutor, tournamentID int, stage models.Stage, order int) (*models.Match, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, filter models.MatchFilter) ([]*models.Match, error)
	// UpdateSlot writes teamID into the slot only when it is empty and
	// reports whether a row changed.
	UpdateSlot(ctx context.Context, exec SQLExecutor, matchID int, isHome bool, teamID int) (bool, error)
	// UpdateResult records the result of a scheduled match. A match that is
	// not scheduled anymore is left untouched and ErrMatchNotScheduled returned.
	UpdateResult(ctx context.Context, exec SQLExecutor, matchID, homeScore, awayScore, winnerID int) error
	Cancel(ctx context.Context, exec SQLExecutor, matchID int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, tournament_id, stage, match_order, round, format,
	home_team_id, away_team_id, home_score, away_score, winner_id, status, created_at`

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches
			(tournament_id, stage, match_order, round, format, home_team_id, away_team_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	if m.Status == "" {
		m.Status = models.MatchStatusScheduled
	}
	err := executor.QueryRowContext(ctx, query,
		m.TournamentID, m.Stage, m.MatchOrder, m.Round, m.Format,
		nullableTeam(m.HomeTeamID), nullableTeam(m.AwayTeamID), m.Status,
	).Scan(&m.ID, &m.CreatedAt)

	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) BatchCreate(ctx context.Context, exec SQLExecutor, matches []*models.Match) error {
	for _, m := range matches {
		if err := r.Create(ctx, exec, m); err != nil {
			return fmt.Errorf("BatchCreate failed for %s#%d: %w", m.Stage, m.MatchOrder, err)
		}
	}
	return nil
}

func (r *postgresMatchRepository) scanMatch(row rowScanner) (*models.Match, error) {
	var (
		m          models.Match
		round      sql.NullInt64
		home, away sql.NullInt64
		winner     sql.NullInt64
	)
	err := row.Scan(
		&m.ID, &m.TournamentID, &m.Stage, &m.MatchOrder, &round, &m.Format,
		&home, &away, &m.HomeScore, &m.AwayScore, &winner, &m.Status, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	if round.Valid {
		n := int(round.Int64)
		m.Round = &n
	}
	m.HomeTeamID = teamFromNull(home)
	m.AwayTeamID = teamFromNull(away)
	m.WinnerID = teamFromNull(winner)
	return &m, nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return r.scanMatch(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) GetByStage(ctx context.Context, exec SQLExecutor, tournamentID int, stage models.Stage, order int) (*models.Match, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE tournament_id = $1 AND stage = $2 AND match_order = $3`
	return r.scanMatch(executor.QueryRowContext(ctx, query, tournamentID, stage, order))
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, filter models.MatchFilter) ([]*models.Match, error) {
	executor := r.getExecutor(exec)

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1`)
	args := []interface{}{tournamentID}
	placeholderIndex := 2

	if filter.Stage != nil {
		queryBuilder.WriteString(" AND stage = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *filter.Stage)
		placeholderIndex++
	}
	if filter.StagePrefix != "" {
		queryBuilder.WriteString(" AND stage LIKE $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, strings.ReplaceAll(filter.StagePrefix, "_", `\_`)+"%")
		placeholderIndex++
	}
	if filter.Status != nil {
		queryBuilder.WriteString(" AND status = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *filter.Status)
	}
	queryBuilder.WriteString(" ORDER BY id ASC")

	rows, err := executor.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := r.scanMatch(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) UpdateSlot(ctx context.Context, exec SQLExecutor, matchID int, isHome bool, teamID int) (bool, error) {
	executor := r.getExecutor(exec)
	column := "away_team_id"
	if isHome {
		column = "home_team_id"
	}
	query := fmt.Sprintf(`UPDATE matches SET %[1]s = $1 WHERE id = $2 AND (%[1]s IS NULL OR %[1]s = 0)`, column)

	result, err := executor.ExecContext(ctx, query, teamID, matchID)
	if err != nil {
		return false, r.handleMatchError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return n > 0, nil
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, exec SQLExecutor, matchID, homeScore, awayScore, winnerID int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches
		SET home_score = $1, away_score = $2, winner_id = $3, status = $4
		WHERE id = $5 AND status = $6 AND winner_id IS NULL`

	result, err := executor.ExecContext(ctx, query,
		homeScore, awayScore, winnerID, models.MatchStatusCompleted,
		matchID, models.MatchStatusScheduled,
	)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotScheduled)
}

func (r *postgresMatchRepository) Cancel(ctx context.Context, exec SQLExecutor, matchID int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE matches SET status = $1 WHERE id = $2 AND status = $3`
	result, err := executor.ExecContext(ctx, query, models.MatchStatusCancelled, matchID, models.MatchStatusScheduled)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotScheduled)
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23503":
			if pqErr.Constraint == "matches_tournament_id_fkey" {
				return ErrMatchTournamentInvalid
			}
		case "23505":
			if pqErr.Constraint == "matches_tournament_stage_order_key" {
				return ErrMatchDuplicateSlot
			}
		}
	}
	return err
}
