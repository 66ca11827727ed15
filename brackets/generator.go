package brackets

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Dosada05/bracket-engine/models"
)

var (
	ErrTeamCount     = errors.New("wrong number of teams for tournament format")
	ErrDuplicateTeam = errors.New("team listed twice")
)

// BracketMatch is a generated match before it is persisted. Knockout matches
// whose teams are decided later carry the slots they are fed from.
type BracketMatch struct {
	UID        string
	Stage      models.Stage
	MatchOrder int
	Round      *int
	Format     models.MatchFormat

	HomeTeamID *int
	AwayTeamID *int

	SourceHome *string
	SourceAway *string

	IsPlaceholder bool
}

// ToMatch converts a generated match into a scheduled match of tournamentID.
func (bm *BracketMatch) ToMatch(tournamentID int) *models.Match {
	return &models.Match{
		TournamentID: tournamentID,
		Stage:        bm.Stage,
		MatchOrder:   bm.MatchOrder,
		Round:        bm.Round,
		Format:       bm.Format,
		HomeTeamID:   bm.HomeTeamID,
		AwayTeamID:   bm.AwayTeamID,
		Status:       models.MatchStatusScheduled,
	}
}

// GenerateBracketParams carries the seeded field. Teams are ordered by seed;
// each generator documents how it splits them into tiers.
type GenerateBracketParams struct {
	Tournament *models.Tournament
	Teams      []int
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error)

	GetName() string
}

// NewGenerator returns the generator that builds the full skeleton of format.
func NewGenerator(format models.TournamentFormat) (BracketGenerator, error) {
	switch format {
	case models.FormatSingleElimMasters:
		return NewSingleEliminationGenerator(), nil
	case models.FormatDoubleElimMsi:
		return NewDoubleEliminationGenerator(), nil
	case models.FormatSwissWorlds, models.FormatSwissMsi:
		return NewSwissGenerator(format), nil
	case models.FormatFourGroupMasters:
		return NewGroupMastersGenerator(), nil
	case models.FormatFourPhaseSuper:
		return NewSuperGenerator(), nil
	case models.FormatLeaguePlayoffs:
		return NewLeaguePlayoffsGenerator(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func matchUID(stage models.Stage, order int) string {
	return fmt.Sprintf("%s#%d", stage, order)
}

func newBracketMatch(stage models.Stage, order int, format models.MatchFormat) *BracketMatch {
	return &BracketMatch{
		UID:           matchUID(stage, order),
		Stage:         stage,
		MatchOrder:    order,
		Format:        format,
		IsPlaceholder: true,
	}
}

func (bm *BracketMatch) seat(home, away int) {
	if home != 0 {
		h := home
		bm.HomeTeamID = &h
	}
	if away != 0 {
		a := away
		bm.AwayTeamID = &a
	}
	bm.IsPlaceholder = bm.HomeTeamID == nil || bm.AwayTeamID == nil
}

// knockoutSkeleton builds every knockout match of layout except the stages
// listed in skip, then links each placeholder slot back to the result that
// feeds it.
func knockoutSkeleton(layout *Layout, skip ...models.Stage) []*BracketMatch {
	skipped := make(map[models.Stage]bool, len(skip))
	for _, s := range skip {
		skipped[s] = true
	}
	out := make([]*BracketMatch, 0)
	for _, spec := range layout.Knockout {
		if skipped[spec.Stage] {
			continue
		}
		for order := 1; order <= spec.Matches; order++ {
			out = append(out, newBracketMatch(spec.Stage, order, spec.Format))
		}
	}
	return out
}

// linkSources records, for every generated slot, which earlier result fills
// it according to the transition table.
func linkSources(layout *Layout, matches []*BracketMatch) {
	byUID := make(map[string]*BracketMatch, len(matches))
	for _, m := range matches {
		byUID[m.UID] = m
	}
	for _, m := range matches {
		routes := layout.routes[m.Stage]
		for _, pair := range []struct {
			routes []route
			label  string
		}{{routes.winner, "winner"}, {routes.loser, "loser"}} {
			for _, d := range resolveAll(pair.routes, m.MatchOrder) {
				target, ok := byUID[matchUID(d.Stage, d.MatchOrder)]
				if !ok {
					continue
				}
				src := fmt.Sprintf("%s:%s", m.UID, pair.label)
				if d.IsHome {
					target.SourceHome = &src
				} else {
					target.SourceAway = &src
				}
			}
		}
	}
}

func checkTeams(name string, teams []int, allowed ...int) error {
	ok := false
	for _, n := range allowed {
		if len(teams) == n {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("%s: %w (found %d, want one of %v)", name, ErrTeamCount, len(teams), allowed)
	}
	seen := make(map[int]bool, len(teams))
	for _, id := range teams {
		if id <= 0 {
			return fmt.Errorf("%s: invalid team id %d", name, id)
		}
		if seen[id] {
			return fmt.Errorf("%s: %w: %d", name, ErrDuplicateTeam, id)
		}
		seen[id] = true
	}
	return nil
}

func sortBracket(matches []*BracketMatch, layout *Layout) {
	rank := make(map[models.Stage]int)
	for i, s := range layout.Stages() {
		rank[s] = i
	}
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if rank[a.Stage] != rank[b.Stage] {
			return rank[a.Stage] < rank[b.Stage]
		}
		return a.MatchOrder < b.MatchOrder
	})
}
