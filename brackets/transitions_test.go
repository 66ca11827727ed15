package brackets

import (
	"testing"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWinnerDestinations(t *testing.T) {
	tests := []struct {
		name   string
		format models.TournamentFormat
		stage  models.Stage
		order  int
		want   []Destination
	}{
		{
			name:   "first quarterfinal feeds semifinal 1 home",
			format: models.FormatSingleElimMasters,
			stage:  models.StageQuarterFinal,
			order:  1,
			want:   []Destination{{Stage: models.StageSemiFinal, MatchOrder: 1, IsHome: true}},
		},
		{
			name:   "second quarterfinal feeds semifinal 1 away",
			format: models.FormatSingleElimMasters,
			stage:  models.StageQuarterFinal,
			order:  2,
			want:   []Destination{{Stage: models.StageSemiFinal, MatchOrder: 1, IsHome: false}},
		},
		{
			name:   "fourth quarterfinal feeds semifinal 2 away",
			format: models.FormatSwissWorlds,
			stage:  models.StageQuarterFinal,
			order:  4,
			want:   []Destination{{Stage: models.StageSemiFinal, MatchOrder: 2, IsHome: false}},
		},
		{
			name:   "second semifinal feeds grand final away",
			format: models.FormatSwissMsi,
			stage:  models.StageSemiFinal,
			order:  2,
			want:   []Destination{{Stage: models.StageGrandFinal, MatchOrder: 1, IsHome: false}},
		},
		{
			name:   "grand final is terminal",
			format: models.FormatSingleElimMasters,
			stage:  models.StageGrandFinal,
			order:  1,
			want:   nil,
		},
		{
			name:   "winners round 2 goes to winners final away",
			format: models.FormatDoubleElimMsi,
			stage:  models.StageWinnersR1,
			order:  2,
			want:   []Destination{{Stage: models.StageWinnersFinal, MatchOrder: 1, IsHome: false}},
		},
		{
			name:   "losers final winner goes to grand final away",
			format: models.FormatDoubleElimMsi,
			stage:  models.StageLosersFinal,
			order:  1,
			want:   []Destination{{Stage: models.StageGrandFinal, MatchOrder: 1, IsHome: false}},
		},
		{
			name:   "west final winner is the grand final away team",
			format: models.FormatFourGroupMasters,
			stage:  models.StageWestFinal,
			order:  1,
			want:   []Destination{{Stage: models.StageGrandFinal, MatchOrder: 1, IsHome: false}},
		},
		{
			name:   "finals round 1 winner meets a legendary team",
			format: models.FormatFourPhaseSuper,
			stage:  models.StageFinalsR1,
			order:  2,
			want:   []Destination{{Stage: models.StageFinalsR2, MatchOrder: 2, IsHome: false}},
		},
		{
			name:   "group stages have no routes",
			format: models.FormatFourGroupMasters,
			stage:  models.GroupStage("C"),
			order:  3,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WinnerDestinations(tt.format, tt.stage, tt.order)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("WinnerDestinations() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoserDestinations(t *testing.T) {
	tests := []struct {
		name   string
		format models.TournamentFormat
		stage  models.Stage
		order  int
		want   []Destination
	}{
		{
			name:   "semifinal losers are out",
			format: models.FormatSingleElimMasters,
			stage:  models.StageSemiFinal,
			order:  1,
			want:   nil,
		},
		{
			name:   "swiss msi semifinal losers are out",
			format: models.FormatSwissMsi,
			stage:  models.StageSemiFinal,
			order:  2,
			want:   nil,
		},
		{
			name:   "quarterfinal losers are out",
			format: models.FormatSingleElimMasters,
			stage:  models.StageQuarterFinal,
			order:  3,
			want:   nil,
		},
		{
			name:   "winners round loser drops to losers round 3 home",
			format: models.FormatDoubleElimMsi,
			stage:  models.StageWinnersR1,
			order:  2,
			want:   []Destination{{Stage: models.StageLosersR3, MatchOrder: 2, IsHome: true}},
		},
		{
			name:   "challenger loser drops to losers round 1 away",
			format: models.FormatDoubleElimMsi,
			stage:  models.StageChallengerR1,
			order:  1,
			want:   []Destination{{Stage: models.StageLosersR1, MatchOrder: 1, IsHome: false}},
		},
		{
			name:   "winners final loser plays losers final at home",
			format: models.FormatDoubleElimMsi,
			stage:  models.StageWinnersFinal,
			order:  1,
			want:   []Destination{{Stage: models.StageLosersFinal, MatchOrder: 1, IsHome: true}},
		},
		{
			name:   "league winners round loser crosses to the other losers match",
			format: models.FormatLeaguePlayoffs,
			stage:  models.StageWinnersR1,
			order:  1,
			want:   []Destination{{Stage: models.StageLosersR2, MatchOrder: 2, IsHome: true}},
		},
		{
			name:   "positioning loser enters promotion away",
			format: models.FormatFourPhaseSuper,
			stage:  models.StagePositioning,
			order:  2,
			want:   []Destination{{Stage: models.StagePromotion, MatchOrder: 2, IsHome: false}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoserDestinations(tt.format, tt.stage, tt.order)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("LoserDestinations() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDestinations_Errors(t *testing.T) {
	t.Run("unknown format", func(t *testing.T) {
		_, err := WinnerDestinations("best_of_everything", models.StageGrandFinal, 1)
		assert.ErrorIs(t, err, ErrUnknownFormat)
	})
	t.Run("stage not declared by the format", func(t *testing.T) {
		_, err := LoserDestinations(models.FormatSingleElimMasters, models.StageLosersR1, 1)
		assert.ErrorIs(t, err, ErrUnknownStage)
	})
	t.Run("unknown tag", func(t *testing.T) {
		_, err := WinnerDestinations(models.FormatDoubleElimMsi, "LOSERS_R9", 1)
		assert.ErrorIs(t, err, ErrUnknownStage)
	})
	t.Run("swiss round above the cap", func(t *testing.T) {
		_, err := WinnerDestinations(models.FormatSwissWorlds, models.SwissRound(99), 1)
		assert.ErrorIs(t, err, ErrUnknownStage)
	})
}

func TestValidateAll(t *testing.T) {
	require.NoError(t, ValidateAll())
}

func TestLoserRoutingSingleOwnership(t *testing.T) {
	for _, format := range models.AllFormats() {
		t.Run(string(format), func(t *testing.T) {
			layout, err := LayoutFor(format)
			require.NoError(t, err)

			owners := make(map[Destination]string)
			for _, spec := range layout.Knockout {
				for order := 1; order <= spec.Matches; order++ {
					w, err := WinnerDestinations(format, spec.Stage, order)
					require.NoError(t, err)
					l, err := LoserDestinations(format, spec.Stage, order)
					require.NoError(t, err)
					for _, d := range append(w, l...) {
						src := matchUID(spec.Stage, order)
						prev, taken := owners[d]
						assert.Falsef(t, taken, "slot %+v fed by %s and %s", d, prev, src)
						owners[d] = src
					}
				}
			}
		})
	}
}

func TestStageOrder(t *testing.T) {
	for _, format := range models.AllFormats() {
		t.Run(string(format), func(t *testing.T) {
			order, err := StageOrder(format)
			require.NoError(t, err)

			layout, err := LayoutFor(format)
			require.NoError(t, err)
			assert.Len(t, order, len(layout.Stages()))

			pos := make(map[models.Stage]int, len(order))
			for i, s := range order {
				pos[s] = i
			}
			for from, routes := range layout.routes {
				for _, r := range append(append([]route{}, routes.winner...), routes.loser...) {
					assert.Lessf(t, pos[from], pos[r.to], "%s must be played before %s", from, r.to)
				}
			}
			assert.Equal(t, models.StageGrandFinal, order[len(order)-1])
		})
	}
}

func TestValidate_RejectsBrokenLayouts(t *testing.T) {
	knockout := []StageSpec{
		{Stage: models.StageSemiFinal, Matches: 2},
		{Stage: models.StageGrandFinal, Matches: 1},
	}

	tests := []struct {
		name   string
		layout *Layout
	}{
		{
			name: "cycle",
			layout: &Layout{
				Knockout: knockout,
				routes: map[models.Stage]stageRoutes{
					models.StageSemiFinal:  {winner: []route{goTo(models.StageGrandFinal, firstOrder, homeIfFirst)}},
					models.StageGrandFinal: {loser: []route{goTo(models.StageSemiFinal, firstOrder, toHome)}},
				},
			},
		},
		{
			name: "route into undeclared stage",
			layout: &Layout{
				Knockout: knockout,
				routes: map[models.Stage]stageRoutes{
					models.StageSemiFinal: {
						winner: []route{goTo(models.StageGrandFinal, firstOrder, homeIfFirst)},
						loser:  []route{goTo(models.StageThirdPlace, firstOrder, toAway)},
					},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.layout.stageGraph()
			assert.ErrorIs(t, err, ErrInvalidLayout)
		})
	}
}
