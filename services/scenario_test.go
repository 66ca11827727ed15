package services

import (
	"context"
	"testing"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Team ids for the four-team single elimination scenarios. Seeds 1v4 and
// 2v3 put A against B and C against D.
const (
	teamA = 1
	teamC = 2
	teamD = 3
	teamB = 4
)

func TestSingleElimination_SemifinalLosersRankBySemifinalOrder(t *testing.T) {
	e, store := newTestEngine(t, EngineOptions{})
	ctx := context.Background()
	tour := startTournament(t, e, models.FormatSingleElimMasters, []int{teamA, teamC, teamD, teamB})

	sf1 := matchAt(t, store, tour.ID, models.StageSemiFinal, 1)
	require.Equal(t, []int{teamA, teamB}, sf1.Teams())
	sf2 := matchAt(t, store, tour.ID, models.StageSemiFinal, 2)
	require.Equal(t, []int{teamC, teamD}, sf2.Teams())

	play(t, e, store, tour.ID, models.StageSemiFinal, 1, true)
	report := play(t, e, store, tour.ID, models.StageSemiFinal, 2, true)
	assert.False(t, report.Completed)

	_, err := e.ResolveRankings(ctx, tour.ID)
	assert.ErrorIs(t, err, ErrPreconditionNotMet, "no rankings before the grand final")

	gf := matchAt(t, store, tour.ID, models.StageGrandFinal, 1)
	assert.Equal(t, teamA, gf.SlotTeam(true))
	assert.Equal(t, teamC, gf.SlotTeam(false))

	report = play(t, e, store, tour.ID, models.StageGrandFinal, 1, true)
	require.True(t, report.Completed)

	want := []models.Placement{
		{TournamentID: tour.ID, TeamID: teamA, Tag: models.PlacementChampion, Position: 1},
		{TournamentID: tour.ID, TeamID: teamC, Tag: models.PlacementRunnerUp, Position: 2},
		{TournamentID: tour.ID, TeamID: teamB, Tag: models.PlacementThird, Position: 3},
		{TournamentID: tour.ID, TeamID: teamD, Tag: models.PlacementFourth, Position: 4},
	}
	if diff := cmp.Diff(want, report.Placements); diff != "" {
		t.Errorf("placements mismatch (-want +got):\n%s", diff)
	}

	got, err := e.Tournaments().GetTournamentByID(ctx, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
}

func TestSingleElimination_UpsetsKeepSemifinalOrder(t *testing.T) {
	e, store := newTestEngine(t, EngineOptions{})
	ctx := context.Background()
	tour := startTournament(t, e, models.FormatSingleElimMasters, []int{teamA, teamC, teamD, teamB})

	play(t, e, store, tour.ID, models.StageSemiFinal, 1, false)
	play(t, e, store, tour.ID, models.StageSemiFinal, 2, false)
	report := play(t, e, store, tour.ID, models.StageGrandFinal, 1, false)
	require.True(t, report.Completed)

	teams := make([]int, 0)
	tags := make([]models.PlacementTag, 0)
	for _, p := range report.Placements {
		teams = append(teams, p.TeamID)
		tags = append(tags, p.Tag)
	}
	assert.Equal(t, []int{teamD, teamB, teamA, teamC}, teams)
	assert.Equal(t, []models.PlacementTag{
		models.PlacementChampion, models.PlacementRunnerUp, models.PlacementThird, models.PlacementFourth,
	}, tags)

	resolved, err := e.ResolveRankings(ctx, tour.ID)
	require.NoError(t, err)
	again := make([]int, 0, len(resolved))
	for _, p := range resolved {
		again = append(again, p.TeamID)
	}
	assert.Equal(t, teams, again, "resolving again gives the same order")
}

func TestDoubleElimination_LosersFinalLoserIsThird(t *testing.T) {
	e, store := newTestEngine(t, EngineOptions{})
	ctx := context.Background()
	tour := startTournament(t, e, models.FormatDoubleElimMsi, seq(1, 12))

	sim := NewSimulationService(e, NewFakeSimulator(), 0, testLogger())
	result, err := sim.RunAuto(ctx, tour.ID, 0)
	require.NoError(t, err)
	require.True(t, result.Completed)
	assert.Len(t, result.Played, 16)

	// Home always wins: team 4 drops from the winners bracket, climbs the
	// losers bracket and falls in the losers final without reaching the final.
	lf := matchAt(t, store, tour.ID, models.StageLosersFinal, 1)
	loser, ok := lf.Loser()
	require.True(t, ok)
	require.Equal(t, 4, loser)
	gf := matchAt(t, store, tour.ID, models.StageGrandFinal, 1)
	assert.NotContains(t, gf.Teams(), 4)

	byTeam := make(map[int]models.Placement)
	for _, p := range result.Reports[len(result.Reports)-1].Placements {
		byTeam[p.TeamID] = p
	}
	assert.Len(t, byTeam, 12)
	assert.Equal(t, models.PlacementChampion, byTeam[1].Tag)
	assert.Equal(t, models.PlacementRunnerUp, byTeam[2].Tag)
	assert.Equal(t, models.Placement{TournamentID: tour.ID, TeamID: 4, Tag: models.PlacementThird, Position: 3}, byTeam[4])
	assert.Equal(t, models.PlacementFourth, byTeam[3].Tag)
	for _, team := range []int{5, 6} {
		assert.Equal(t, models.PlacementFifthSixth, byTeam[team].Tag)
		assert.Equal(t, 5, byTeam[team].Position)
	}
	for _, team := range []int{9, 10} {
		assert.Equal(t, models.PlacementSeventhEighth, byTeam[team].Tag)
	}
	for _, team := range []int{7, 8} {
		assert.Equal(t, models.PlacementQualifierOut, byTeam[team].Tag)
	}
	for _, team := range []int{11, 12} {
		assert.Equal(t, models.PlacementEleventhTwelve, byTeam[team].Tag)
		assert.Equal(t, 11, byTeam[team].Position)
	}
}

func TestSwiss_QualifiedTeamsLeaveThePairingPool(t *testing.T) {
	e, store := newTestEngine(t, EngineOptions{})
	ctx := context.Background()
	// 1-4 are direct seeds, 5-12 play the Swiss stage.
	tour := startTournament(t, e, models.FormatSwissWorlds, seq(1, 12))

	for order := 1; order <= 4; order++ {
		play(t, e, store, tour.ID, models.SwissRound(1), order, true)
	}
	r2 := matchAt(t, store, tour.ID, models.SwissRound(2), 1)
	assert.Equal(t, []int{5, 7}, r2.Teams())

	play(t, e, store, tour.ID, models.SwissRound(2), 1, true)
	st, err := e.swiss.Standing(ctx, nil, tour)
	require.NoError(t, err)
	assert.True(t, st.RoundInProgress)
	assert.Contains(t, st.Qualified, 5, "2-0 qualifies before the round ends")
	assert.NotContains(t, st.Active, 5)

	_, err = e.GenerateNextSwissRound(ctx, tour.ID)
	assert.ErrorIs(t, err, ErrPreconditionNotMet, "no pairing while a round is open")

	var report *ResultReport
	for order := 2; order <= 4; order++ {
		report = play(t, e, store, tour.ID, models.SwissRound(2), order, true)
	}
	require.Len(t, report.SwissMatches, 2)

	r3 := make([][]int, 0)
	for order := 1; order <= 2; order++ {
		r3 = append(r3, matchAt(t, store, tour.ID, models.SwissRound(3), order).Teams())
	}
	assert.Equal(t, [][]int{{6, 7}, {10, 11}}, r3)

	play(t, e, store, tour.ID, models.SwissRound(3), 1, true)
	report = play(t, e, store, tour.ID, models.SwissRound(3), 2, true)
	assert.Contains(t, report.Phases, "swiss_qualification")
	assert.Empty(t, report.SwissMatches)

	st, err = e.swiss.Standing(ctx, nil, tour)
	require.NoError(t, err)
	assert.True(t, st.Complete)
	assert.ElementsMatch(t, []int{5, 9, 6, 10}, st.Qualified)
	assert.ElementsMatch(t, []int{7, 8, 11, 12}, st.Eliminated)

	for i, away := range []int{5, 9, 6, 10} {
		qf := matchAt(t, store, tour.ID, models.StageQuarterFinal, i+1)
		assert.Equal(t, []int{i + 1, away}, qf.Teams(), "quarterfinal %d", i+1)
	}

	_, err = e.GenerateNextSwissRound(ctx, tour.ID)
	assert.ErrorIs(t, err, ErrPreconditionNotMet, "a complete stage takes no more rounds")
}
