package brackets

import (
	"context"
	"fmt"
	"sort"

	"github.com/Dosada05/bracket-engine/models"
)

// RoundRobinGenerator schedules every team of one group against every other
// team. Rounds follow the circle method: the first team stays fixed and the
// rest rotate, so nobody plays twice in a round.
type RoundRobinGenerator struct {
	Stage  models.Stage
	Format models.MatchFormat
	// Legs is 1 for a single round robin, 2 for home-and-away.
	Legs int
}

func NewRoundRobinGenerator(stage models.Stage, format models.MatchFormat, legs int) BracketGenerator {
	if legs != 2 {
		legs = 1
	}
	return &RoundRobinGenerator{Stage: stage, Format: format, Legs: legs}
}

func (g *RoundRobinGenerator) GetName() string {
	return "RoundRobin"
}

// GenerateBracket creates the group matches. Match orders run across the
// whole group; Round carries the circle-method round number.
func (g *RoundRobinGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	teams := params.Teams
	if len(teams) < 2 {
		return nil, fmt.Errorf("RoundRobinGenerator: not enough teams for %s (found %d, min 2 required)", g.Stage, len(teams))
	}
	seen := make(map[int]bool, len(teams))
	for _, id := range teams {
		if id <= 0 {
			return nil, fmt.Errorf("RoundRobinGenerator: invalid team id %d", id)
		}
		if seen[id] {
			return nil, fmt.Errorf("RoundRobinGenerator: %w: %d", ErrDuplicateTeam, id)
		}
		seen[id] = true
	}

	// A zero entry is the bye slot for odd groups.
	ring := make([]int, len(teams))
	copy(ring, teams)
	if len(ring)%2 == 1 {
		ring = append(ring, 0)
	}
	n := len(ring)
	rounds := n - 1

	matches := make([]*BracketMatch, 0, g.Legs*len(teams)*(len(teams)-1)/2)
	matchOrder := 0
	for leg := 0; leg < g.Legs; leg++ {
		rotating := make([]int, n-1)
		copy(rotating, ring[1:])
		for r := 0; r < rounds; r++ {
			round := leg*rounds + r + 1
			lineup := append([]int{ring[0]}, rotating...)
			for i := 0; i < n/2; i++ {
				home, away := lineup[i], lineup[n-1-i]
				if home == 0 || away == 0 {
					continue
				}
				if leg == 1 {
					home, away = away, home
				}
				matchOrder++
				bm := newBracketMatch(g.Stage, matchOrder, g.Format)
				rr := round
				bm.Round = &rr
				bm.seat(home, away)
				matches = append(matches, bm)
			}
			// rotate right by one
			last := rotating[len(rotating)-1]
			copy(rotating[1:], rotating[:len(rotating)-1])
			rotating[0] = last
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchOrder < matches[j].MatchOrder
	})
	return matches, nil
}

// generateGroups runs a round robin for every group and concatenates them.
func generateGroups(ctx context.Context, stages []models.Stage, format models.MatchFormat, groups [][]int) ([]*BracketMatch, error) {
	if len(stages) != len(groups) {
		return nil, fmt.Errorf("%w: %d groups for %d group stages", ErrTeamCount, len(groups), len(stages))
	}
	out := make([]*BracketMatch, 0)
	for i, stage := range stages {
		gen := NewRoundRobinGenerator(stage, format, 1)
		ms, err := gen.GenerateBracket(ctx, GenerateBracketParams{Teams: groups[i]})
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", stage, err)
		}
		out = append(out, ms...)
	}
	return out, nil
}

func chunk(teams []int, size int) [][]int {
	out := make([][]int, 0, len(teams)/size)
	for i := 0; i+size <= len(teams); i += size {
		out = append(out, teams[i:i+size])
	}
	return out
}
