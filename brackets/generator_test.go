package brackets

import (
	"context"
	"testing"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(from, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = from + i
	}
	return out
}

func generate(t *testing.T, format models.TournamentFormat, teams []int) map[string]*BracketMatch {
	t.Helper()
	gen, err := NewGenerator(format)
	require.NoError(t, err)
	matches, err := gen.GenerateBracket(context.Background(), GenerateBracketParams{Teams: teams})
	require.NoError(t, err)
	return indexByUID(matches)
}

func seated(t *testing.T, m *BracketMatch, home, away int) {
	t.Helper()
	require.NotNil(t, m)
	if home == 0 {
		assert.Nil(t, m.HomeTeamID, "%s home", m.UID)
	} else if assert.NotNil(t, m.HomeTeamID, "%s home", m.UID) {
		assert.Equal(t, home, *m.HomeTeamID, "%s home", m.UID)
	}
	if away == 0 {
		assert.Nil(t, m.AwayTeamID, "%s away", m.UID)
	} else if assert.NotNil(t, m.AwayTeamID, "%s away", m.UID) {
		assert.Equal(t, away, *m.AwayTeamID, "%s away", m.UID)
	}
}

func TestSingleEliminationGenerator(t *testing.T) {
	t.Run("eight seeds", func(t *testing.T) {
		byUID := generate(t, models.FormatSingleElimMasters, seq(1, 8))
		assert.Len(t, byUID, 7)
		assert.NotContains(t, byUID, "THIRD_PLACE#1")

		seated(t, byUID["QUARTER_FINAL#1"], 1, 8)
		seated(t, byUID["QUARTER_FINAL#2"], 4, 5)
		seated(t, byUID["QUARTER_FINAL#3"], 2, 7)
		seated(t, byUID["QUARTER_FINAL#4"], 3, 6)

		sf1 := byUID["SEMI_FINAL#1"]
		seated(t, sf1, 0, 0)
		assert.True(t, sf1.IsPlaceholder)
		require.NotNil(t, sf1.SourceHome)
		assert.Equal(t, "QUARTER_FINAL#1:winner", *sf1.SourceHome)
		require.NotNil(t, sf1.SourceAway)
		assert.Equal(t, "QUARTER_FINAL#2:winner", *sf1.SourceAway)

		gf := byUID["GRAND_FINAL#1"]
		require.NotNil(t, gf.SourceHome)
		assert.Equal(t, "SEMI_FINAL#1:winner", *gf.SourceHome)
		require.NotNil(t, gf.SourceAway)
		assert.Equal(t, "SEMI_FINAL#2:winner", *gf.SourceAway)
	})

	t.Run("four seeds skip the quarterfinals", func(t *testing.T) {
		byUID := generate(t, models.FormatSingleElimMasters, []int{10, 20, 30, 40})
		assert.Len(t, byUID, 3)
		assert.NotContains(t, byUID, "QUARTER_FINAL#1")
		seated(t, byUID["SEMI_FINAL#1"], 10, 40)
		seated(t, byUID["SEMI_FINAL#2"], 20, 30)
		assert.False(t, byUID["SEMI_FINAL#1"].IsPlaceholder)
		assert.True(t, byUID["GRAND_FINAL#1"].IsPlaceholder)
	})

	t.Run("wrong field size", func(t *testing.T) {
		gen := NewSingleEliminationGenerator()
		_, err := gen.GenerateBracket(context.Background(), GenerateBracketParams{Teams: seq(1, 6)})
		assert.ErrorIs(t, err, ErrTeamCount)
	})

	t.Run("duplicate seed", func(t *testing.T) {
		gen := NewSingleEliminationGenerator()
		_, err := gen.GenerateBracket(context.Background(), GenerateBracketParams{Teams: []int{1, 2, 3, 1}})
		assert.ErrorIs(t, err, ErrDuplicateTeam)
	})
}

func TestDoubleEliminationGenerator(t *testing.T) {
	byUID := generate(t, models.FormatDoubleElimMsi, seq(1, 12))
	assert.Len(t, byUID, 16)

	seated(t, byUID["WINNERS_R1#1"], 1, 4)
	seated(t, byUID["WINNERS_R1#2"], 2, 3)
	seated(t, byUID["CHALLENGER_R1#1"], 5, 8)
	seated(t, byUID["CHALLENGER_R1#2"], 6, 7)
	seated(t, byUID["QUALIFIER_R1#1"], 9, 12)
	seated(t, byUID["QUALIFIER_R1#2"], 10, 11)

	l1 := byUID["LOSERS_R1#2"]
	require.NotNil(t, l1.SourceHome)
	require.NotNil(t, l1.SourceAway)
	assert.Equal(t, "QUALIFIER_R1#2:winner", *l1.SourceHome)
	assert.Equal(t, "CHALLENGER_R1#2:loser", *l1.SourceAway)

	gf := byUID["GRAND_FINAL#1"]
	require.NotNil(t, gf.SourceHome)
	require.NotNil(t, gf.SourceAway)
	assert.Equal(t, "WINNERS_FINAL#1:winner", *gf.SourceHome)
	assert.Equal(t, "LOSERS_FINAL#1:winner", *gf.SourceAway)
}

func TestSwissGenerator(t *testing.T) {
	t.Run("worlds", func(t *testing.T) {
		byUID := generate(t, models.FormatSwissWorlds, seq(1, 12))
		// 4 opening Swiss matches plus QF, SF and final.
		assert.Len(t, byUID, 4+4+2+1)
		for i := 0; i < 4; i++ {
			seated(t, byUID[matchUID(models.SwissRound(1), i+1)], 5+2*i, 6+2*i)
			seated(t, byUID[matchUID(models.StageQuarterFinal, i+1)], 1+i, 0)
		}
		r := byUID["SWISS_R1#1"].Round
		require.NotNil(t, r)
		assert.Equal(t, 1, *r)
		assert.Equal(t, models.BestOf1, byUID["SWISS_R1#1"].Format)
	})

	t.Run("msi", func(t *testing.T) {
		byUID := generate(t, models.FormatSwissMsi, seq(1, 8))
		assert.Len(t, byUID, 4+2+1)
		assert.NotContains(t, byUID, "QUARTER_FINAL#1")
		assert.NotContains(t, byUID, "THIRD_PLACE#1")
		seated(t, byUID["SWISS_R1#4"], 7, 8)
		assert.Equal(t, models.BestOf3, byUID["SWISS_R1#4"].Format)
	})
}

func TestRoundRobinGenerator(t *testing.T) {
	tests := []struct {
		name      string
		teams     int
		legs      int
		wantCount int
		wantRound int
	}{
		{name: "four teams single leg", teams: 4, legs: 1, wantCount: 6, wantRound: 3},
		{name: "five teams get a bye", teams: 5, legs: 1, wantCount: 10, wantRound: 5},
		{name: "four teams home and away", teams: 4, legs: 2, wantCount: 12, wantRound: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := NewRoundRobinGenerator(models.StageRegular, models.BestOf3, tt.legs)
			matches, err := gen.GenerateBracket(context.Background(), GenerateBracketParams{Teams: seq(1, tt.teams)})
			require.NoError(t, err)
			assert.Len(t, matches, tt.wantCount)

			pairings := make(map[[2]int]int)
			perRound := make(map[int]map[int]bool)
			maxRound := 0
			for i, m := range matches {
				assert.Equal(t, i+1, m.MatchOrder)
				require.NotNil(t, m.Round)
				home, away := *m.HomeTeamID, *m.AwayTeamID
				key := [2]int{min(home, away), max(home, away)}
				pairings[key]++

				if perRound[*m.Round] == nil {
					perRound[*m.Round] = make(map[int]bool)
				}
				assert.False(t, perRound[*m.Round][home], "team %d twice in round %d", home, *m.Round)
				assert.False(t, perRound[*m.Round][away], "team %d twice in round %d", away, *m.Round)
				perRound[*m.Round][home] = true
				perRound[*m.Round][away] = true
				maxRound = max(maxRound, *m.Round)
			}
			assert.Len(t, pairings, tt.teams*(tt.teams-1)/2)
			for pair, n := range pairings {
				assert.Equal(t, tt.legs, n, "pair %v", pair)
			}
			assert.Equal(t, tt.wantRound, maxRound)
		})
	}
}

func TestGroupMastersGenerator(t *testing.T) {
	byUID := generate(t, models.FormatFourGroupMasters, seq(1, 32))
	// 8 groups of 6 matches, then 16 knockout matches.
	assert.Len(t, byUID, 8*6+16)

	groupTeams := map[models.Stage]map[int]bool{}
	for _, m := range byUID {
		if !m.Stage.IsGroup() {
			seated(t, m, 0, 0)
			continue
		}
		if groupTeams[m.Stage] == nil {
			groupTeams[m.Stage] = map[int]bool{}
		}
		groupTeams[m.Stage][*m.HomeTeamID] = true
		groupTeams[m.Stage][*m.AwayTeamID] = true
	}
	assert.Equal(t, map[int]bool{1: true, 2: true, 3: true, 4: true}, groupTeams[models.GroupStage("A")])
	assert.Equal(t, map[int]bool{29: true, 30: true, 31: true, 32: true}, groupTeams[models.GroupStage("H")])
}

func TestSuperGenerator(t *testing.T) {
	byUID := generate(t, models.FormatFourPhaseSuper, seq(1, 12))
	assert.Len(t, byUID, 2*6+13)

	seated(t, byUID["CHALLENGER_POSITIONING#1"], 1, 4)
	seated(t, byUID["CHALLENGER_POSITIONING#2"], 2, 3)
	seated(t, byUID["FINALS_R2#1"], 0, 0)

	fighters := map[int]bool{}
	for _, m := range byUID {
		if _, ok := m.Stage.FighterGroupLetter(); ok {
			fighters[*m.HomeTeamID] = true
			fighters[*m.AwayTeamID] = true
		}
	}
	assert.Len(t, fighters, 8)
	for id := range fighters {
		assert.GreaterOrEqual(t, id, 5)
	}
}

func TestLeaguePlayoffsGenerator(t *testing.T) {
	t.Run("ten teams", func(t *testing.T) {
		byUID := generate(t, models.FormatLeaguePlayoffs, seq(1, 10))
		assert.Len(t, byUID, 45+10)
		seated(t, byUID["WINNERS_R1#1"], 0, 0)
	})

	t.Run("too few teams", func(t *testing.T) {
		gen := NewLeaguePlayoffsGenerator()
		_, err := gen.GenerateBracket(context.Background(), GenerateBracketParams{Teams: seq(1, 6)})
		assert.ErrorIs(t, err, ErrTeamCount)
	})
}

func TestGeneratedMatchesAreDeclaredByLayout(t *testing.T) {
	fields := map[models.TournamentFormat]int{
		models.FormatSingleElimMasters: 8,
		models.FormatDoubleElimMsi:     12,
		models.FormatSwissWorlds:       12,
		models.FormatSwissMsi:          8,
		models.FormatFourGroupMasters:  32,
		models.FormatFourPhaseSuper:    12,
		models.FormatLeaguePlayoffs:    8,
	}
	for format, n := range fields {
		t.Run(string(format), func(t *testing.T) {
			layout, err := LayoutFor(format)
			require.NoError(t, err)
			for _, m := range generate(t, format, seq(1, n)) {
				assert.Truef(t, layout.HasStage(m.Stage), "%s not declared", m.Stage)
				match := m.ToMatch(7)
				assert.Equal(t, 7, match.TournamentID)
				assert.Equal(t, models.MatchStatusScheduled, match.Status)
			}
		})
	}
}

func TestNewGenerator_UnknownFormat(t *testing.T) {
	_, err := NewGenerator("bo7_gauntlet")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
