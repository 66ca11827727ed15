package services

import (
	"context"
	"log/slog"
	"sort"

	"github.com/Dosada05/bracket-engine/brackets"
	"github.com/Dosada05/bracket-engine/metrics"
	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/repositories"
)

var swissStages = models.MatchFilter{StagePrefix: models.SwissStagePrefix}

// SwissService replays Swiss records and pairs the next round.
type SwissService struct {
	matches repositories.MatchRepository
	pairer  brackets.SwissPairer
	logger  *slog.Logger
	metrics metrics.Recorder
}

func NewSwissService(matches repositories.MatchRepository, pairer brackets.SwissPairer, logger *slog.Logger, recorder metrics.Recorder) *SwissService {
	if pairer == nil {
		pairer = brackets.BucketPairer{}
	}
	if recorder == nil {
		recorder = metrics.NoOpMetrics{}
	}
	return &SwissService{matches: matches, pairer: pairer, logger: orDefaultLogger(logger), metrics: recorder}
}

// Standing replays every Swiss match of the tournament.
func (s *SwissService) Standing(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) (*brackets.SwissStanding, error) {
	if !t.Format.HasSwissStage() {
		return nil, preconditionf("format %s has no Swiss stage", t.Format)
	}
	matches, err := s.matches.ListByTournament(ctx, exec, t.ID, swissStages)
	if err != nil {
		return nil, handleRepositoryError(err, "list swiss matches")
	}
	return brackets.ComputeSwissStanding(matches, t.Format.SwissThresholds()), nil
}

// GenerateNextRound pairs the active teams into SWISS_R{n+1} and returns the
// ids of the created matches. It refuses while a round is still being played,
// once the stage is complete, and when nobody can be paired.
func (s *SwissService) GenerateNextRound(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) ([]int, error) {
	st, err := s.Standing(ctx, exec, t)
	if err != nil {
		return nil, err
	}
	switch {
	case st.LastRound == 0:
		return nil, preconditionf("swiss stage of tournament %d has not started", t.ID)
	case st.RoundInProgress:
		return nil, preconditionf("swiss round %d of tournament %d is still in progress", st.LastRound, t.ID)
	case st.Complete:
		return nil, preconditionf("swiss stage of tournament %d is complete", t.ID)
	}

	layout, err := brackets.LayoutFor(t.Format)
	if err != nil {
		return nil, preconditionf("%v", err)
	}
	round := st.NextRound()
	if round > layout.SwissRounds {
		return nil, preconditionf("swiss round %d exceeds the limit of %d", round, layout.SwissRounds)
	}

	pairs, sitOut := s.pairer.Pair(st.ActiveRecords())
	if len(pairs) == 0 {
		return nil, preconditionf("no pairable teams left in swiss stage of tournament %d", t.ID)
	}

	stage := models.SwissRound(round)
	created := make([]*models.Match, 0, len(pairs))
	for i, p := range pairs {
		home, away, r := p[0], p[1], round
		created = append(created, &models.Match{
			TournamentID: t.ID,
			Stage:        stage,
			MatchOrder:   i + 1,
			Round:        &r,
			Format:       layout.SwissFormat,
			HomeTeamID:   &home,
			AwayTeamID:   &away,
			Status:       models.MatchStatusScheduled,
		})
	}
	if err := s.matches.BatchCreate(ctx, exec, created); err != nil {
		return nil, handleRepositoryError(err, "create swiss round")
	}

	ids := make([]int, 0, len(created))
	for _, m := range created {
		ids = append(ids, m.ID)
	}
	if len(sitOut) > 0 {
		s.logger.Info("team sits out swiss round",
			tournamentAttr(t),
			slog.Int("round", round),
			slog.Any("teams", sitOut),
		)
	}
	s.metrics.RecordSwissRound(ctx, t.Format)
	s.logger.Info("swiss round generated", tournamentAttr(t), slog.Int("round", round), slog.Int("matches", len(ids)))
	return ids, nil
}

// swissSeeds orders the qualified teams by fewest losses, then team id, and
// keeps the first SwissQualifierSlots.
func swissSeeds(st *brackets.SwissStanding) ([]int, error) {
	if len(st.Qualified) < brackets.SwissQualifierSlots {
		return nil, preconditionf("swiss stage qualified %d teams, %d needed", len(st.Qualified), brackets.SwissQualifierSlots)
	}
	records := make([]*brackets.SwissRecord, 0, len(st.Qualified))
	for _, id := range st.Qualified {
		records = append(records, st.Record(id))
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Losses != records[j].Losses {
			return records[i].Losses < records[j].Losses
		}
		return records[i].TeamID < records[j].TeamID
	})
	seeds := make([]int, 0, brackets.SwissQualifierSlots)
	for _, r := range records[:brackets.SwissQualifierSlots] {
		seeds = append(seeds, r.TeamID)
	}
	return seeds, nil
}
