package services

import (
	"context"
	"log/slog"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/repositories"
)

const pointsPerWin = 3

// ComputeStandings replays the completed matches of stage into one row per
// team seen in the stage. The result does not depend on match order.
func ComputeStandings(tournamentID int, stage models.Stage, matches []*models.Match) []*models.TournamentStanding {
	rows := make(map[int]*models.TournamentStanding)
	row := func(team int) *models.TournamentStanding {
		r, ok := rows[team]
		if !ok {
			r = &models.TournamentStanding{TournamentID: tournamentID, Stage: stage, TeamID: team}
			rows[team] = r
		}
		return r
	}

	for _, m := range matches {
		if m.Stage != stage || m.Status == models.MatchStatusCancelled {
			continue
		}
		for _, t := range m.Teams() {
			row(t)
		}
		winner, ok := m.Winner()
		if !ok {
			continue
		}
		loser, ok := m.Loser()
		if !ok {
			continue
		}
		home, away := m.SlotTeam(true), m.SlotTeam(false)
		hs, as := row(home), row(away)
		hs.MatchesPlayed++
		as.MatchesPlayed++
		hs.GamesWon += m.HomeScore
		hs.GamesLost += m.AwayScore
		as.GamesWon += m.AwayScore
		as.GamesLost += m.HomeScore

		row(winner).Wins++
		row(winner).Points += pointsPerWin
		row(loser).Losses++
	}

	out := make([]*models.TournamentStanding, 0, len(rows))
	for _, r := range rows {
		r.GameDiff = r.GamesWon - r.GamesLost
		out = append(out, r)
	}
	models.SortStandings(out)
	return out
}

// StandingsService owns the tournament_standings rows.
type StandingsService struct {
	matches   repositories.MatchRepository
	standings repositories.TournamentStandingRepository
	logger    *slog.Logger
}

func NewStandingsService(matches repositories.MatchRepository, standings repositories.TournamentStandingRepository, logger *slog.Logger) *StandingsService {
	return &StandingsService{matches: matches, standings: standings, logger: orDefaultLogger(logger)}
}

// Recompute resets the rows of stage and rebuilds them from its completed
// matches. Running it twice yields the same rows.
func (s *StandingsService) Recompute(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, stage models.Stage) ([]*models.TournamentStanding, error) {
	if !stage.IsGroup() {
		return nil, preconditionf("stage %s has no standings", stage)
	}
	matches, err := s.matches.ListByTournament(ctx, exec, tournamentID, models.MatchFilter{Stage: &stage})
	if err != nil {
		return nil, handleRepositoryError(err, "list stage matches")
	}
	rows := ComputeStandings(tournamentID, stage, matches)

	if err := s.standings.DeleteByStage(ctx, exec, tournamentID, stage); err != nil {
		return nil, handleRepositoryError(err, "reset standings")
	}
	if err := s.standings.BatchCreate(ctx, exec, rows); err != nil {
		return nil, handleRepositoryError(err, "store standings")
	}
	s.logger.Debug("standings recomputed",
		slog.Int("tournament_id", tournamentID),
		slog.String("stage", string(stage)),
		slog.Int("rows", len(rows)),
	)
	return rows, nil
}

// List returns stored rows of stage ordered by rank.
func (s *StandingsService) List(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, stage models.Stage) ([]*models.TournamentStanding, error) {
	rows, err := s.standings.ListByTournament(ctx, exec, tournamentID, &stage)
	if err != nil {
		return nil, handleRepositoryError(err, "list standings")
	}
	return rows, nil
}

// stageComplete reports whether every non-cancelled match of stage has a
// result. A stage with no matches is not complete.
func stageComplete(matches []*models.Match, stage models.Stage) bool {
	seen := false
	for _, m := range matches {
		if m.Stage != stage || m.Status == models.MatchStatusCancelled {
			continue
		}
		seen = true
		if !m.IsCompleted() {
			return false
		}
	}
	return seen
}
