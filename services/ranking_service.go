package services

import (
	"context"
	"log/slog"
	"sort"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/repositories"
)

// placementBuilder appends bands of tied teams. The first band that names a
// team places it; later bands skip it. A band's position is the rank of its
// first team.
type placementBuilder struct {
	out    []models.Placement
	placed map[int]bool
}

func newPlacementBuilder() *placementBuilder {
	return &placementBuilder{placed: make(map[int]bool)}
}

func (b *placementBuilder) add(tag models.PlacementTag, teams ...int) {
	position := len(b.out) + 1
	for _, t := range teams {
		if t == 0 || b.placed[t] {
			continue
		}
		b.placed[t] = true
		b.out = append(b.out, models.Placement{TeamID: t, Tag: tag, Position: position})
	}
}

// rest returns teams not placed yet, sorted by id.
func (b *placementBuilder) rest(teams []int) []int {
	out := make([]int, 0)
	seen := make(map[int]bool)
	for _, t := range teams {
		if t == 0 || b.placed[t] || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Ints(out)
	return out
}

// bracketView indexes a tournament's matches for the ranking rules.
type bracketView struct {
	matches []*models.Match
}

func (v bracketView) match(stage models.Stage, order int) *models.Match {
	for _, m := range v.matches {
		if m.Stage == stage && m.MatchOrder == order {
			return m
		}
	}
	return nil
}

// losers returns the losers of stage's completed matches in match order.
func (v bracketView) losers(stage models.Stage) []int {
	stageMatches := make([]*models.Match, 0)
	for _, m := range v.matches {
		if m.Stage == stage {
			stageMatches = append(stageMatches, m)
		}
	}
	sort.Slice(stageMatches, func(i, j int) bool { return stageMatches[i].MatchOrder < stageMatches[j].MatchOrder })
	out := make([]int, 0, len(stageMatches))
	for _, m := range stageMatches {
		if l, ok := m.Loser(); ok {
			out = append(out, l)
		}
	}
	return out
}

// teamsWhere returns every team seated in a stage accepted by keep.
func (v bracketView) teamsWhere(keep func(models.Stage) bool) []int {
	out := make([]int, 0)
	for _, m := range v.matches {
		if keep(m.Stage) {
			out = append(out, m.Teams()...)
		}
	}
	return out
}

// thirdPlace places the third-place match, falling back to the given losers
// in order when it was not played.
func (b *placementBuilder) thirdPlace(v bracketView, fallback []int) {
	if m := v.match(models.StageThirdPlace, 1); m != nil && m.IsCompleted() {
		w, _ := m.Winner()
		l, _ := m.Loser()
		b.add(models.PlacementThird, w)
		b.add(models.PlacementFourth, l)
		return
	}
	if len(fallback) > 0 {
		b.add(models.PlacementThird, fallback[0])
	}
	if len(fallback) > 1 {
		b.add(models.PlacementFourth, fallback[1])
	}
}

// RankingService turns a finished bracket into its placement list. It only
// reads matches.
type RankingService struct {
	matches repositories.MatchRepository
	logger  *slog.Logger
}

func NewRankingService(matches repositories.MatchRepository, logger *slog.Logger) *RankingService {
	return &RankingService{matches: matches, logger: orDefaultLogger(logger)}
}

// Resolve returns the ordered placement list of t. The grand final must be
// completed and a materialized third-place match must be decided or cancelled.
func (s *RankingService) Resolve(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) ([]models.Placement, error) {
	all, err := s.matches.ListByTournament(ctx, exec, t.ID, models.MatchFilter{})
	if err != nil {
		return nil, handleRepositoryError(err, "list tournament matches")
	}
	v := bracketView{matches: all}

	gf := v.match(models.StageGrandFinal, 1)
	if gf == nil || !gf.IsCompleted() {
		return nil, preconditionf("grand final of tournament %d is not completed", t.ID)
	}
	if tp := v.match(models.StageThirdPlace, 1); tp != nil && tp.Status == models.MatchStatusScheduled {
		return nil, preconditionf("third place match of tournament %d is still scheduled", t.ID)
	}

	b := newPlacementBuilder()
	champion, _ := gf.Winner()
	runnerUp, _ := gf.Loser()
	b.add(models.PlacementChampion, champion)
	b.add(models.PlacementRunnerUp, runnerUp)

	switch t.Format {
	case models.FormatSingleElimMasters, models.FormatSwissWorlds, models.FormatSwissMsi:
		semis := v.losers(models.StageSemiFinal)
		if len(semis) > 0 {
			b.add(models.PlacementThird, semis[0])
		}
		if len(semis) > 1 {
			b.add(models.PlacementFourth, semis[1])
		}
		b.add(models.PlacementQuarterFinal, v.losers(models.StageQuarterFinal)...)
		b.add(models.PlacementGroupStage, b.rest(v.teamsWhere(models.Stage.IsSwiss))...)

	case models.FormatDoubleElimMsi:
		b.add(models.PlacementThird, v.losers(models.StageLosersFinal)...)
		b.add(models.PlacementFourth, v.losers(models.StageLosersR4)...)
		b.add(models.PlacementFifthSixth, v.losers(models.StageLosersR3)...)
		b.add(models.PlacementSeventhEighth, v.losers(models.StageLosersR2)...)
		b.add(models.PlacementQualifierOut, v.losers(models.StageLosersR1)...)
		b.add(models.PlacementEleventhTwelve, v.losers(models.StageQualifierR1)...)

	case models.FormatFourGroupMasters:
		finalists := append(v.losers(models.StageEastFinal), v.losers(models.StageWestFinal)...)
		b.thirdPlace(v, finalists)
		b.add(models.PlacementSemiLoser, append(v.losers(models.StageEastSemi), v.losers(models.StageWestSemi)...)...)
		b.add(models.PlacementQuarterLoser, append(v.losers(models.StageEastR1), v.losers(models.StageWestR1)...)...)
		b.add(models.PlacementGroupStage, b.rest(v.teamsWhere(models.Stage.IsGroup))...)

	case models.FormatFourPhaseSuper:
		b.thirdPlace(v, v.losers(models.StageFinalsR2))
		b.add(models.PlacementQuarterFinal, v.losers(models.StageFinalsR1)...)
		b.add(models.PlacementPrepLoser, append(v.losers(models.StagePrepLosersFin), v.losers(models.StagePrepLosers)...)...)
		b.add(models.PlacementPromotionLoser, v.losers(models.StagePromotion)...)
		b.add(models.PlacementFighterOut, b.rest(v.teamsWhere(models.Stage.IsGroup))...)

	case models.FormatLeaguePlayoffs:
		b.add(models.PlacementThird, v.losers(models.StageLosersFinal)...)
		b.add(models.PlacementFourth, v.losers(models.StageLosersR3)...)
		b.add(models.PlacementFifthEighth, append(v.losers(models.StageLosersR2), v.losers(models.StageLosersR1)...)...)

	default:
		return nil, preconditionf("no ranking rules for format %s", t.Format)
	}

	s.logger.Debug("rankings resolved", tournamentAttr(t), slog.Int("placements", len(b.out)))
	return b.out, nil
}
