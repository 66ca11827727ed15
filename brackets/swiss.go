package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/bracket-engine/models"
)

// SwissGenerator builds a Swiss stage opener plus the knockout that the
// Swiss qualifiers feed.
//
// SwissWorlds takes 12 teams: 4 direct seeds that wait in the quarterfinal
// home slots, then 8 Swiss teams. SwissMsi takes the 8 Swiss teams only and
// sends its qualifiers straight to the semifinals.
type SwissGenerator struct {
	format models.TournamentFormat
}

func NewSwissGenerator(format models.TournamentFormat) BracketGenerator {
	return &SwissGenerator{format: format}
}

func (g *SwissGenerator) GetName() string {
	return "Swiss"
}

const swissFieldSize = 8

func (g *SwissGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	layout, err := LayoutFor(g.format)
	if err != nil {
		return nil, err
	}

	var direct, field []int
	switch g.format {
	case models.FormatSwissWorlds:
		if err := checkTeams(g.GetName(), params.Teams, 4+swissFieldSize); err != nil {
			return nil, err
		}
		direct, field = params.Teams[:4], params.Teams[4:]
	case models.FormatSwissMsi:
		if err := checkTeams(g.GetName(), params.Teams, swissFieldSize); err != nil {
			return nil, err
		}
		field = params.Teams
	default:
		return nil, fmt.Errorf("%w: %s has no Swiss stage", ErrUnknownFormat, g.format)
	}

	matches := make([]*BracketMatch, 0, swissFieldSize/2)
	round := 1
	for i := 0; i < len(field)/2; i++ {
		bm := newBracketMatch(models.SwissRound(1), i+1, layout.SwissFormat)
		bm.Round = &round
		bm.seat(field[i*2], field[i*2+1])
		matches = append(matches, bm)
	}

	knockout := knockoutSkeleton(layout)
	byUID := indexByUID(knockout)
	for i, seed := range direct {
		byUID[matchUID(models.StageQuarterFinal, i+1)].seat(seed, 0)
	}
	matches = append(matches, knockout...)

	linkSources(layout, matches)
	sortBracket(matches, layout)
	return matches, nil
}
