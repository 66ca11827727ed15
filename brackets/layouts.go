package brackets

import (
	"fmt"

	"github.com/Dosada05/bracket-engine/models"
)

// StageSpec declares a fixed stage of a format and how many matches it holds.
type StageSpec struct {
	Stage   models.Stage
	Matches int
	Format  models.MatchFormat
}

// feed is a link filled by a qualifier rather than by the advancer.
type feed struct {
	from, to models.Stage
}

// Layout is the static description of a tournament format: its stages,
// the winner/loser routes between them and the qualifier-fed links.
type Layout struct {
	Format      models.TournamentFormat
	Groups      []models.Stage
	GroupFormat models.MatchFormat
	SwissRounds int // upper bound; rounds are generated on demand
	SwissFormat models.MatchFormat
	Knockout    []StageSpec

	routes map[models.Stage]stageRoutes
	feeds  []feed
}

func (l *Layout) HasStage(stage models.Stage) bool {
	if n, ok := stage.SwissRoundNumber(); ok {
		return n <= l.SwissRounds
	}
	for _, g := range l.Groups {
		if g == stage {
			return true
		}
	}
	for _, k := range l.Knockout {
		if k.Stage == stage {
			return true
		}
	}
	return false
}

// MatchCount returns the number of matches a knockout stage holds, 0 for
// group and Swiss stages whose size depends on the field.
func (l *Layout) MatchCount(stage models.Stage) int {
	for _, k := range l.Knockout {
		if k.Stage == stage {
			return k.Matches
		}
	}
	return 0
}

// Stages returns every declared stage: groups, Swiss rounds, then knockout.
func (l *Layout) Stages() []models.Stage {
	out := make([]models.Stage, 0, len(l.Groups)+l.SwissRounds+len(l.Knockout))
	out = append(out, l.Groups...)
	for n := 1; n <= l.SwissRounds; n++ {
		out = append(out, models.SwissRound(n))
	}
	for _, k := range l.Knockout {
		out = append(out, k.Stage)
	}
	return out
}

// Terminal reports whether results of stage are routed nowhere by the table.
func (l *Layout) Terminal(stage models.Stage) bool {
	r := l.routes[stage]
	return len(r.winner) == 0 && len(r.loser) == 0
}

var layouts = map[models.TournamentFormat]*Layout{
	models.FormatSingleElimMasters: {
		Format: models.FormatSingleElimMasters,
		Knockout: []StageSpec{
			{Stage: models.StageQuarterFinal, Matches: 4, Format: models.BestOf5},
			{Stage: models.StageSemiFinal, Matches: 2, Format: models.BestOf5},
			{Stage: models.StageGrandFinal, Matches: 1, Format: models.BestOf5},
		},
		routes: eliminationRoutes(),
	},

	models.FormatDoubleElimMsi: {
		Format: models.FormatDoubleElimMsi,
		Knockout: []StageSpec{
			{Stage: models.StageQualifierR1, Matches: 2, Format: models.BestOf5},
			{Stage: models.StageChallengerR1, Matches: 2, Format: models.BestOf5},
			{Stage: models.StageLosersR1, Matches: 2, Format: models.BestOf5},
			{Stage: models.StageLosersR2, Matches: 2, Format: models.BestOf5},
			{Stage: models.StageWinnersR1, Matches: 2, Format: models.BestOf5},
			{Stage: models.StageLosersR3, Matches: 2, Format: models.BestOf5},
			{Stage: models.StageWinnersFinal, Matches: 1, Format: models.BestOf5},
			{Stage: models.StageLosersR4, Matches: 1, Format: models.BestOf5},
			{Stage: models.StageLosersFinal, Matches: 1, Format: models.BestOf5},
			{Stage: models.StageGrandFinal, Matches: 1, Format: models.BestOf5},
		},
		routes: map[models.Stage]stageRoutes{
			models.StageQualifierR1: {
				winner: []route{goTo(models.StageLosersR1, sameOrder, toHome)},
			},
			models.StageChallengerR1: {
				winner: []route{goTo(models.StageLosersR2, sameOrder, toHome)},
				loser:  []route{goTo(models.StageLosersR1, sameOrder, toAway)},
			},
			models.StageLosersR1: {
				winner: []route{goTo(models.StageLosersR2, sameOrder, toAway)},
			},
			models.StageLosersR2: {
				winner: []route{goTo(models.StageLosersR3, sameOrder, toAway)},
			},
			models.StageWinnersR1: {
				winner: []route{goTo(models.StageWinnersFinal, firstOrder, homeIfFirst)},
				loser:  []route{goTo(models.StageLosersR3, sameOrder, toHome)},
			},
			models.StageLosersR3: {
				winner: []route{goTo(models.StageLosersR4, firstOrder, homeIfFirst)},
			},
			models.StageWinnersFinal: {
				winner: []route{goTo(models.StageGrandFinal, firstOrder, toHome)},
				loser:  []route{goTo(models.StageLosersFinal, firstOrder, toHome)},
			},
			models.StageLosersR4: {
				winner: []route{goTo(models.StageLosersFinal, firstOrder, toAway)},
			},
			models.StageLosersFinal: {
				winner: []route{goTo(models.StageGrandFinal, firstOrder, toAway)},
			},
		},
	},

	models.FormatSwissWorlds: {
		Format:      models.FormatSwissWorlds,
		SwissRounds: swissRoundLimit(models.FormatSwissWorlds),
		SwissFormat: models.BestOf1,
		Knockout: []StageSpec{
			{Stage: models.StageQuarterFinal, Matches: 4, Format: models.BestOf5},
			{Stage: models.StageSemiFinal, Matches: 2, Format: models.BestOf5},
			{Stage: models.StageGrandFinal, Matches: 1, Format: models.BestOf5},
		},
		routes: eliminationRoutes(),
		feeds:  swissFeeds(swissRoundLimit(models.FormatSwissWorlds), models.StageQuarterFinal),
	},

	models.FormatSwissMsi: {
		Format:      models.FormatSwissMsi,
		SwissRounds: swissRoundLimit(models.FormatSwissMsi),
		SwissFormat: models.BestOf3,
		Knockout: []StageSpec{
			{Stage: models.StageSemiFinal, Matches: 2, Format: models.BestOf5},
			{Stage: models.StageGrandFinal, Matches: 1, Format: models.BestOf5},
		},
		routes: semiFinalRoutes(),
		feeds:  swissFeeds(swissRoundLimit(models.FormatSwissMsi), models.StageSemiFinal),
	},

	models.FormatFourGroupMasters: {
		Format:      models.FormatFourGroupMasters,
		Groups:      groupStages(models.GroupStage, 8),
		GroupFormat: models.BestOf3,
		Knockout: []StageSpec{
			{Stage: models.StageEastR1, Matches: 4, Format: models.BestOf5},
			{Stage: models.StageWestR1, Matches: 4, Format: models.BestOf5},
			{Stage: models.StageEastSemi, Matches: 2, Format: models.BestOf5},
			{Stage: models.StageWestSemi, Matches: 2, Format: models.BestOf5},
			{Stage: models.StageEastFinal, Matches: 1, Format: models.BestOf5},
			{Stage: models.StageWestFinal, Matches: 1, Format: models.BestOf5},
			{Stage: models.StageThirdPlace, Matches: 1, Format: models.BestOf5},
			{Stage: models.StageGrandFinal, Matches: 1, Format: models.BestOf5},
		},
		routes: map[models.Stage]stageRoutes{
			models.StageEastR1: {
				winner: []route{goTo(models.StageEastSemi, halfOrder, homeIfOdd)},
			},
			models.StageWestR1: {
				winner: []route{goTo(models.StageWestSemi, halfOrder, homeIfOdd)},
			},
			models.StageEastSemi: {
				winner: []route{goTo(models.StageEastFinal, firstOrder, homeIfFirst)},
			},
			models.StageWestSemi: {
				winner: []route{goTo(models.StageWestFinal, firstOrder, homeIfFirst)},
			},
			models.StageEastFinal: {
				winner: []route{goTo(models.StageGrandFinal, firstOrder, toHome)},
				loser:  []route{goTo(models.StageThirdPlace, firstOrder, toHome)},
			},
			models.StageWestFinal: {
				winner: []route{goTo(models.StageGrandFinal, firstOrder, toAway)},
				loser:  []route{goTo(models.StageThirdPlace, firstOrder, toAway)},
			},
		},
		feeds: mastersFeeds(),
	},

	models.FormatFourPhaseSuper: {
		Format:      models.FormatFourPhaseSuper,
		Groups:      groupStages(models.FighterGroupStage, 2),
		GroupFormat: models.BestOf1,
		Knockout: []StageSpec{
			{Stage: models.StagePositioning, Matches: 2, Format: models.BestOf5},
			{Stage: models.StagePromotion, Matches: 2, Format: models.BestOf5},
			{Stage: models.StagePrepWinners, Matches: 1, Format: models.BestOf5},
			{Stage: models.StagePrepLosers, Matches: 1, Format: models.BestOf5},
			{Stage: models.StagePrepLosersFin, Matches: 1, Format: models.BestOf5},
			{Stage: models.StageFinalsR1, Matches: 2, Format: models.BestOf5},
			{Stage: models.StageFinalsR2, Matches: 2, Format: models.BestOf5},
			{Stage: models.StageThirdPlace, Matches: 1, Format: models.BestOf5},
			{Stage: models.StageGrandFinal, Matches: 1, Format: models.BestOf5},
		},
		routes: map[models.Stage]stageRoutes{
			models.StagePositioning: {
				winner: []route{goTo(models.StagePrepWinners, firstOrder, homeIfFirst)},
				loser:  []route{goTo(models.StagePromotion, sameOrder, toAway)},
			},
			models.StagePromotion: {
				winner: []route{goTo(models.StagePrepLosers, firstOrder, homeIfFirst)},
			},
			models.StagePrepWinners: {
				loser: []route{goTo(models.StagePrepLosersFin, firstOrder, toHome)},
			},
			models.StagePrepLosers: {
				winner: []route{goTo(models.StagePrepLosersFin, firstOrder, toAway)},
			},
			models.StageFinalsR1: {
				winner: []route{goTo(models.StageFinalsR2, sameOrder, toAway)},
			},
			models.StageFinalsR2: {
				winner: []route{goTo(models.StageGrandFinal, firstOrder, homeIfFirst)},
				loser:  []route{goTo(models.StageThirdPlace, firstOrder, homeIfFirst)},
			},
		},
		feeds: []feed{
			{from: models.FighterGroupStage("A"), to: models.StagePromotion},
			{from: models.FighterGroupStage("B"), to: models.StagePromotion},
			{from: models.StagePrepWinners, to: models.StageFinalsR1},
			{from: models.StagePrepLosersFin, to: models.StageFinalsR1},
		},
	},

	models.FormatLeaguePlayoffs: {
		Format:      models.FormatLeaguePlayoffs,
		Groups:      []models.Stage{models.StageRegular},
		GroupFormat: models.BestOf3,
		Knockout: []StageSpec{
			{Stage: models.StageWinnersR1, Matches: 2, Format: models.BestOf5},
			{Stage: models.StageLosersR1, Matches: 2, Format: models.BestOf5},
			{Stage: models.StageLosersR2, Matches: 2, Format: models.BestOf5},
			{Stage: models.StageLosersR3, Matches: 1, Format: models.BestOf5},
			{Stage: models.StageWinnersFinal, Matches: 1, Format: models.BestOf5},
			{Stage: models.StageLosersFinal, Matches: 1, Format: models.BestOf5},
			{Stage: models.StageGrandFinal, Matches: 1, Format: models.BestOf5},
		},
		routes: map[models.Stage]stageRoutes{
			models.StageWinnersR1: {
				winner: []route{goTo(models.StageWinnersFinal, firstOrder, homeIfFirst)},
				loser:  []route{goTo(models.StageLosersR2, mirrorOrder, toHome)},
			},
			models.StageLosersR1: {
				winner: []route{goTo(models.StageLosersR2, sameOrder, toAway)},
			},
			models.StageLosersR2: {
				winner: []route{goTo(models.StageLosersR3, firstOrder, homeIfFirst)},
			},
			models.StageLosersR3: {
				winner: []route{goTo(models.StageLosersFinal, firstOrder, toAway)},
			},
			models.StageWinnersFinal: {
				winner: []route{goTo(models.StageGrandFinal, firstOrder, toHome)},
				loser:  []route{goTo(models.StageLosersFinal, firstOrder, toHome)},
			},
			models.StageLosersFinal: {
				winner: []route{goTo(models.StageGrandFinal, firstOrder, toAway)},
			},
		},
		feeds: []feed{
			{from: models.StageRegular, to: models.StageWinnersR1},
			{from: models.StageRegular, to: models.StageLosersR1},
		},
	},
}

// LayoutFor returns the static layout of format.
func LayoutFor(format models.TournamentFormat) (*Layout, error) {
	l, ok := layouts[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return l, nil
}

// semiFinalRoutes sends both semifinal winners to the grand final. The
// losers stay put and are ranked by semifinal order.
func semiFinalRoutes() map[models.Stage]stageRoutes {
	return map[models.Stage]stageRoutes{
		models.StageSemiFinal: {
			winner: []route{goTo(models.StageGrandFinal, firstOrder, homeIfFirst)},
		},
	}
}

// eliminationRoutes adds the quarterfinals in front of semiFinalRoutes.
func eliminationRoutes() map[models.Stage]stageRoutes {
	routes := semiFinalRoutes()
	routes[models.StageQuarterFinal] = stageRoutes{
		winner: []route{goTo(models.StageSemiFinal, halfOrder, homeIfOdd)},
	}
	return routes
}

func groupStages(stage func(string) models.Stage, n int) []models.Stage {
	letters := models.GroupLetters(n)
	out := make([]models.Stage, 0, n)
	for _, l := range letters {
		out = append(out, stage(l))
	}
	return out
}

// swissRoundLimit caps Swiss rounds. A team sitting out an odd round can
// push the stage past the per-team game limit, so the cap is doubled.
func swissRoundLimit(format models.TournamentFormat) int {
	return 2 * format.SwissThresholds().MaxGames()
}

func swissFeeds(rounds int, knockout models.Stage) []feed {
	feeds := make([]feed, 0, rounds)
	for n := 1; n < rounds; n++ {
		feeds = append(feeds, feed{from: models.SwissRound(n), to: models.SwissRound(n + 1)})
	}
	return append(feeds, feed{from: models.SwissRound(rounds), to: knockout})
}

func mastersFeeds() []feed {
	feeds := make([]feed, 0, 8)
	for i, l := range models.GroupLetters(8) {
		to := models.StageEastR1
		if i >= 4 {
			to = models.StageWestR1
		}
		feeds = append(feeds, feed{from: models.GroupStage(l), to: to})
	}
	return feeds
}
