package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/bracket-engine/models"
)

// GroupMastersGenerator builds the 32-team Masters: eight groups of four in
// seed order (teams 1-4 form group A, 5-8 group B, ...) and an empty
// East/West knockout that the group qualifier seeds later.
type GroupMastersGenerator struct{}

func NewGroupMastersGenerator() BracketGenerator {
	return &GroupMastersGenerator{}
}

func (g *GroupMastersGenerator) GetName() string {
	return "FourGroupMasters"
}

func (g *GroupMastersGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	if err := checkTeams(g.GetName(), params.Teams, 32); err != nil {
		return nil, err
	}
	layout, err := LayoutFor(models.FormatFourGroupMasters)
	if err != nil {
		return nil, err
	}
	matches, err := generateGroups(ctx, layout.Groups, layout.GroupFormat, chunk(params.Teams, 4))
	if err != nil {
		return nil, err
	}
	matches = append(matches, knockoutSkeleton(layout)...)
	linkSources(layout, matches)
	sortBracket(matches, layout)
	return matches, nil
}

// SuperGenerator builds the four-phase invitational. Teams are the 4
// challengers followed by the 8 fighters; the 4 legendary teams are not
// part of the field and are only seated in the finals from the annual
// ranking.
type SuperGenerator struct{}

func NewSuperGenerator() BracketGenerator {
	return &SuperGenerator{}
}

func (g *SuperGenerator) GetName() string {
	return "FourPhaseSuper"
}

func (g *SuperGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	if err := checkTeams(g.GetName(), params.Teams, 12); err != nil {
		return nil, err
	}
	layout, err := LayoutFor(models.FormatFourPhaseSuper)
	if err != nil {
		return nil, err
	}
	challengers, fighters := params.Teams[:4], params.Teams[4:]

	matches, err := generateGroups(ctx, layout.Groups, layout.GroupFormat, chunk(fighters, 4))
	if err != nil {
		return nil, err
	}
	knockout := knockoutSkeleton(layout)
	byUID := indexByUID(knockout)
	byUID[matchUID(models.StagePositioning, 1)].seat(challengers[0], challengers[3])
	byUID[matchUID(models.StagePositioning, 2)].seat(challengers[1], challengers[2])
	matches = append(matches, knockout...)

	linkSources(layout, matches)
	sortBracket(matches, layout)
	return matches, nil
}

// LeaguePlayoffsGenerator builds a league split: a round robin regular
// season over the whole field and the eight-team playoff skeleton.
type LeaguePlayoffsGenerator struct {
	// Legs of the regular season, 1 or 2.
	Legs int
}

func NewLeaguePlayoffsGenerator() BracketGenerator {
	return &LeaguePlayoffsGenerator{Legs: 1}
}

func (g *LeaguePlayoffsGenerator) GetName() string {
	return "LeaguePlayoffs"
}

const playoffField = 8

func (g *LeaguePlayoffsGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	if len(params.Teams) < playoffField {
		return nil, fmt.Errorf("%s: %w (found %d, min %d required)", g.GetName(), ErrTeamCount, len(params.Teams), playoffField)
	}
	layout, err := LayoutFor(models.FormatLeaguePlayoffs)
	if err != nil {
		return nil, err
	}
	regular := NewRoundRobinGenerator(models.StageRegular, layout.GroupFormat, g.Legs)
	matches, err := regular.GenerateBracket(ctx, params)
	if err != nil {
		return nil, err
	}
	matches = append(matches, knockoutSkeleton(layout)...)
	linkSources(layout, matches)
	sortBracket(matches, layout)
	return matches, nil
}
