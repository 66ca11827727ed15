package brackets

import (
	"context"

	"github.com/Dosada05/bracket-engine/models"
)

// DoubleEliminationGenerator builds the 12-team MSI bracket. Teams are
// given as 4 leaders, then 4 challengers, then 4 qualifiers, each tier in
// seed order. Leaders open in the winners bracket, challengers one level
// below and qualifiers start already in the losers bracket.
type DoubleEliminationGenerator struct{}

func NewDoubleEliminationGenerator() BracketGenerator {
	return &DoubleEliminationGenerator{}
}

func (g *DoubleEliminationGenerator) GetName() string {
	return "DoubleElimination"
}

func (g *DoubleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	teams := params.Teams
	if err := checkTeams(g.GetName(), teams, 12); err != nil {
		return nil, err
	}
	layout, err := LayoutFor(models.FormatDoubleElimMsi)
	if err != nil {
		return nil, err
	}

	leaders, challengers, qualifiers := teams[0:4], teams[4:8], teams[8:12]

	matches := knockoutSkeleton(layout)
	byUID := indexByUID(matches)
	seatPairs := func(stage models.Stage, tier []int) {
		byUID[matchUID(stage, 1)].seat(tier[0], tier[3])
		byUID[matchUID(stage, 2)].seat(tier[1], tier[2])
	}
	seatPairs(models.StageWinnersR1, leaders)
	seatPairs(models.StageChallengerR1, challengers)
	seatPairs(models.StageQualifierR1, qualifiers)

	linkSources(layout, matches)
	sortBracket(matches, layout)
	return matches, nil
}
