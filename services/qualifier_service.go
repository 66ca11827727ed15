package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Dosada05/bracket-engine/brackets"
	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/repositories"
)

// AnnualRanking supplies the season's top teams, best first. The four-phase
// Super seats the first four in its finals.
type AnnualRanking interface {
	TopTeams(ctx context.Context, season, n int) ([]int, error)
}

const legendarySlots = 4

// ProgressReport is what one Progress call did.
type ProgressReport struct {
	AdvanceResult
	Phases []string `json:"phases,omitempty"`
}

// crossPairs seeds one half of the Masters knockout: A1-D2, B1-C2, A2-D1, B2-C1.
var crossPairs = [4][2]struct{ group, place int }{
	{{0, 0}, {3, 1}},
	{{1, 0}, {2, 1}},
	{{0, 1}, {3, 0}},
	{{1, 1}, {2, 0}},
}

// QualifierService fills the knockout slots fed by group tables, the Swiss
// stage and the Super phases. Each phase runs only once its inputs are
// final and writes through AssignSlot, so calling Progress again is a no-op.
type QualifierService struct {
	matches   repositories.MatchRepository
	standings *StandingsService
	swiss     *SwissService
	slots     *SlotService
	ranking   AnnualRanking
	logger    *slog.Logger
}

func NewQualifierService(
	matches repositories.MatchRepository,
	standings *StandingsService,
	swiss *SwissService,
	slots *SlotService,
	ranking AnnualRanking,
	logger *slog.Logger,
) *QualifierService {
	return &QualifierService{
		matches:   matches,
		standings: standings,
		swiss:     swiss,
		slots:     slots,
		ranking:   ranking,
		logger:    orDefaultLogger(logger),
	}
}

type phaseRun struct {
	s      *QualifierService
	ctx    context.Context
	exec   repositories.SQLExecutor
	t      *models.Tournament
	all    []*models.Match
	report *ProgressReport
}

// Progress runs every qualification phase whose preconditions hold.
func (s *QualifierService) Progress(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) (ProgressReport, error) {
	var report ProgressReport
	all, err := s.matches.ListByTournament(ctx, exec, t.ID, models.MatchFilter{})
	if err != nil {
		return report, handleRepositoryError(err, "list tournament matches")
	}
	run := &phaseRun{s: s, ctx: ctx, exec: exec, t: t, all: all, report: &report}

	switch t.Format {
	case models.FormatLeaguePlayoffs:
		err = run.phase("regular_season", run.leaguePlayoffs)
	case models.FormatFourGroupMasters:
		err = run.phase("group_stage", run.mastersGroups)
	case models.FormatSwissWorlds, models.FormatSwissMsi:
		err = run.phase("swiss_qualification", run.swissQualifiers)
	case models.FormatFourPhaseSuper:
		for _, p := range []struct {
			name string
			fn   func() (bool, error)
		}{
			{"fighter_groups", run.superFighters},
			{"prep_stage", run.superPrep},
			{"finals", run.superFinals},
		} {
			if err = run.phase(p.name, p.fn); err != nil {
				break
			}
		}
	}
	return report, err
}

func (r *phaseRun) phase(name string, fn func() (bool, error)) error {
	ran, err := fn()
	if err != nil {
		return err
	}
	if !ran {
		r.s.logger.Debug("qualification phase skipped", tournamentAttr(r.t), slog.String("phase", name))
		return nil
	}
	r.report.Phases = append(r.report.Phases, name)
	return nil
}

func (r *phaseRun) complete(stage models.Stage) bool {
	return stageComplete(r.all, stage)
}

func (r *phaseRun) winnerOf(stage models.Stage, order int) (int, bool) {
	for _, m := range r.all {
		if m.Stage == stage && m.MatchOrder == order {
			return m.Winner()
		}
	}
	return 0, false
}

func (r *phaseRun) loserOf(stage models.Stage, order int) (int, bool) {
	for _, m := range r.all {
		if m.Stage == stage && m.MatchOrder == order {
			return m.Loser()
		}
	}
	return 0, false
}

// table recomputes and returns the ranked standings of a finished stage.
func (r *phaseRun) table(stage models.Stage, need int) ([]int, error) {
	rows, err := r.s.standings.Recompute(r.ctx, r.exec, r.t.ID, stage)
	if err != nil {
		return nil, err
	}
	if len(rows) < need {
		return nil, preconditionf("%s ranks %d teams, %d needed", stage, len(rows), need)
	}
	teams := make([]int, 0, len(rows))
	for _, row := range rows {
		teams = append(teams, row.TeamID)
	}
	return teams, nil
}

// seat assigns home and away of (stage, order); a zero team leaves that side alone.
func (r *phaseRun) seat(stage models.Stage, order, home, away int) error {
	m, err := r.s.matches.GetByStage(r.ctx, r.exec, r.t.ID, stage, order)
	if errors.Is(err, repositories.ErrMatchNotFound) {
		r.s.logger.Debug("qualifier target not materialized", tournamentAttr(r.t),
			slog.String("stage", string(stage)), slog.Int("order", order))
		return nil
	}
	if err != nil {
		return handleRepositoryError(err, "load qualifier target")
	}
	for _, side := range []struct {
		isHome bool
		team   int
	}{{true, home}, {false, away}} {
		if side.team == 0 {
			continue
		}
		a, err := r.s.slots.AssignSlot(r.ctx, r.exec, r.t.Format, m, side.isHome, side.team)
		if err != nil {
			return err
		}
		r.report.record(a)
	}
	return nil
}

func (r *phaseRun) leaguePlayoffs() (bool, error) {
	if !r.complete(models.StageRegular) {
		return false, nil
	}
	seeds, err := r.table(models.StageRegular, 8)
	if err != nil {
		return false, err
	}
	for _, s := range []struct {
		stage      models.Stage
		order      int
		home, away int
	}{
		{models.StageWinnersR1, 1, seeds[0], seeds[3]},
		{models.StageWinnersR1, 2, seeds[1], seeds[2]},
		{models.StageLosersR1, 1, seeds[4], seeds[7]},
		{models.StageLosersR1, 2, seeds[5], seeds[6]},
	} {
		if err := r.seat(s.stage, s.order, s.home, s.away); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (r *phaseRun) mastersGroups() (bool, error) {
	layout, err := brackets.LayoutFor(r.t.Format)
	if err != nil {
		return false, preconditionf("%v", err)
	}
	for _, g := range layout.Groups {
		if !r.complete(g) {
			return false, nil
		}
	}

	tables := make([][]int, 0, len(layout.Groups))
	for _, g := range layout.Groups {
		teams, err := r.table(g, 2)
		if err != nil {
			return false, err
		}
		tables = append(tables, teams)
	}

	halves := []struct {
		stage  models.Stage
		tables [][]int
	}{
		{models.StageEastR1, tables[:4]},
		{models.StageWestR1, tables[4:]},
	}
	for _, half := range halves {
		for i, p := range crossPairs {
			home := half.tables[p[0].group][p[0].place]
			away := half.tables[p[1].group][p[1].place]
			if err := r.seat(half.stage, i+1, home, away); err != nil {
				return false, err
			}
		}
	}
	return true, nil
}

func (r *phaseRun) swissQualifiers() (bool, error) {
	st, err := r.s.swiss.Standing(r.ctx, r.exec, r.t)
	if err != nil {
		return false, err
	}
	if !st.Complete {
		return false, nil
	}
	seeds, err := swissSeeds(st)
	if err != nil {
		return false, err
	}

	if r.t.Format == models.FormatSwissWorlds {
		// Direct seeds already hold the home slots.
		for i, team := range seeds {
			if err := r.seat(models.StageQuarterFinal, i+1, 0, team); err != nil {
				return false, err
			}
		}
		return true, nil
	}
	if err := r.seat(models.StageSemiFinal, 1, seeds[0], seeds[3]); err != nil {
		return false, err
	}
	if err := r.seat(models.StageSemiFinal, 2, seeds[1], seeds[2]); err != nil {
		return false, err
	}
	return true, nil
}

// superFighters sends each finished fighter group's winner to its promotion
// match and backfills the losers of finished positioning matches.
func (r *phaseRun) superFighters() (bool, error) {
	ran := false
	for i, letter := range []string{"A", "B"} {
		group := models.FighterGroupStage(letter)
		if !r.complete(group) {
			continue
		}
		teams, err := r.table(group, 1)
		if err != nil {
			return false, err
		}
		if err := r.seat(models.StagePromotion, i+1, teams[0], 0); err != nil {
			return false, err
		}
		ran = true
	}
	for order := 1; order <= 2; order++ {
		if loser, ok := r.loserOf(models.StagePositioning, order); ok {
			if err := r.seat(models.StagePromotion, order, 0, loser); err != nil {
				return false, err
			}
			ran = true
		}
	}
	return ran, nil
}

func (r *phaseRun) superPrep() (bool, error) {
	if !r.complete(models.StagePositioning) || !r.complete(models.StagePromotion) {
		return false, nil
	}
	pos1, _ := r.winnerOf(models.StagePositioning, 1)
	pos2, _ := r.winnerOf(models.StagePositioning, 2)
	pro1, _ := r.winnerOf(models.StagePromotion, 1)
	pro2, _ := r.winnerOf(models.StagePromotion, 2)
	if err := r.seat(models.StagePrepWinners, 1, pos1, pos2); err != nil {
		return false, err
	}
	if err := r.seat(models.StagePrepLosers, 1, pro1, pro2); err != nil {
		return false, err
	}
	return true, nil
}

func (r *phaseRun) superFinals() (bool, error) {
	if !r.complete(models.StagePrepWinners) || !r.complete(models.StagePrepLosersFin) {
		return false, nil
	}
	if r.s.ranking == nil {
		return false, preconditionf("no annual ranking configured for tournament %d", r.t.ID)
	}
	legendary, err := r.s.ranking.TopTeams(r.ctx, r.t.Season, legendarySlots)
	if err != nil {
		return false, preconditionf("annual ranking for season %d: %v", r.t.Season, err)
	}
	if len(legendary) < legendarySlots {
		return false, preconditionf("annual ranking for season %d lists %d teams, %d needed", r.t.Season, len(legendary), legendarySlots)
	}
	prepWinner, _ := r.winnerOf(models.StagePrepWinners, 1)
	prepLosersWinner, _ := r.winnerOf(models.StagePrepLosersFin, 1)

	for _, s := range []struct {
		stage      models.Stage
		order      int
		home, away int
	}{
		{models.StageFinalsR1, 1, legendary[3], prepWinner},
		{models.StageFinalsR1, 2, legendary[2], prepLosersWinner},
		{models.StageFinalsR2, 1, legendary[0], 0},
		{models.StageFinalsR2, 2, legendary[1], 0},
	} {
		if err := r.seat(s.stage, s.order, s.home, s.away); err != nil {
			return false, err
		}
	}
	return true, nil
}
