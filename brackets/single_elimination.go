package brackets

import (
	"context"

	"github.com/Dosada05/bracket-engine/models"
)

// SingleEliminationGenerator seeds 4 or 8 teams into a semi/final tree.
// With 8 teams the quarterfinals are 1v8, 4v5, 2v7, 3v6 so the top two
// seeds can only meet in the final. There is no third place match.
type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() BracketGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

var eightSeedOrder = [4][2]int{{0, 7}, {3, 4}, {1, 6}, {2, 5}}

func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	teams := params.Teams
	if err := checkTeams(g.GetName(), teams, 4, 8); err != nil {
		return nil, err
	}
	layout, err := LayoutFor(models.FormatSingleElimMasters)
	if err != nil {
		return nil, err
	}

	var skip []models.Stage
	if len(teams) == 4 {
		skip = append(skip, models.StageQuarterFinal)
	}
	matches := knockoutSkeleton(layout, skip...)
	byUID := indexByUID(matches)

	if len(teams) == 8 {
		for i, pair := range eightSeedOrder {
			byUID[matchUID(models.StageQuarterFinal, i+1)].seat(teams[pair[0]], teams[pair[1]])
		}
	} else {
		byUID[matchUID(models.StageSemiFinal, 1)].seat(teams[0], teams[3])
		byUID[matchUID(models.StageSemiFinal, 2)].seat(teams[1], teams[2])
	}

	linkSources(layout, matches)
	sortBracket(matches, layout)
	return matches, nil
}

func indexByUID(matches []*BracketMatch) map[string]*BracketMatch {
	out := make(map[string]*BracketMatch, len(matches))
	for _, m := range matches {
		out[m.UID] = m
	}
	return out
}
