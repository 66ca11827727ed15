package services

import (
	"context"
	"testing"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// repoFixture stores a tournament and the given matches without a bracket generator.
func repoFixture(t *testing.T, format models.TournamentFormat, matches ...*models.Match) (*repositories.Store, *models.Tournament) {
	t.Helper()
	ctx := context.Background()
	store := repositories.NewMemoryBackedStore(repositories.NewMemoryStore())
	tour := &models.Tournament{Name: "Fixture", Format: format, Season: 2026, Status: models.StatusInProgress}
	require.NoError(t, store.Tournaments.Create(ctx, nil, tour))
	for _, m := range matches {
		m.TournamentID = tour.ID
	}
	require.NoError(t, store.Matches.BatchCreate(ctx, nil, matches))
	return store, tour
}

func emptyMatch(stage models.Stage, order int) *models.Match {
	return &models.Match{Stage: stage, MatchOrder: order, Format: models.BestOf5, Status: models.MatchStatusScheduled}
}

func TestSlotService_AssignSlot(t *testing.T) {
	ctx := context.Background()
	store, tour := repoFixture(t, models.FormatSingleElimMasters, emptyMatch(models.StageGrandFinal, 1))
	svc := NewSlotService(store.Matches, testLogger(), nil)
	gf, err := store.Matches.GetByStage(ctx, nil, tour.ID, models.StageGrandFinal, 1)
	require.NoError(t, err)

	a, err := svc.AssignSlot(ctx, nil, tour.Format, gf, true, 5)
	require.NoError(t, err)
	assert.Equal(t, SlotFilled, a.Outcome)
	assert.NoError(t, a.Err())
	assert.Equal(t, 5, gf.SlotTeam(true), "the match is updated in place")

	a, err = svc.AssignSlot(ctx, nil, tour.Format, gf, true, 5)
	require.NoError(t, err)
	assert.Equal(t, SlotAlreadyHeld, a.Outcome)

	a, err = svc.AssignSlot(ctx, nil, tour.Format, gf, true, 6)
	require.NoError(t, err)
	assert.Equal(t, SlotConflict, a.Outcome)
	assert.Equal(t, 5, a.Occupant)
	assert.ErrorIs(t, a.Err(), ErrSlotConflict)

	stored, err := store.Matches.GetByID(ctx, nil, gf.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.SlotTeam(true))
	assert.True(t, stored.SlotEmpty(false))

	_, err = svc.AssignSlot(ctx, nil, tour.Format, gf, false, 0)
	assert.ErrorIs(t, err, ErrPreconditionNotMet)
}

func TestSlotService_StaleMatchIsReadAgain(t *testing.T) {
	ctx := context.Background()
	store, tour := repoFixture(t, models.FormatSingleElimMasters, emptyMatch(models.StageGrandFinal, 1))
	svc := NewSlotService(store.Matches, testLogger(), nil)
	stale, err := store.Matches.GetByStage(ctx, nil, tour.ID, models.StageGrandFinal, 1)
	require.NoError(t, err)

	filled, err := store.Matches.UpdateSlot(ctx, nil, stale.ID, false, 9)
	require.NoError(t, err)
	require.True(t, filled)

	a, err := svc.AssignSlot(ctx, nil, tour.Format, stale, false, 9)
	require.NoError(t, err)
	assert.Equal(t, SlotAlreadyHeld, a.Outcome)
	assert.Equal(t, 9, stale.SlotTeam(false))

	a, err = svc.AssignSlot(ctx, nil, tour.Format, &models.Match{ID: stale.ID, TournamentID: tour.ID, Stage: stale.Stage, MatchOrder: 1}, false, 3)
	require.NoError(t, err)
	assert.Equal(t, SlotConflict, a.Outcome)
	assert.Equal(t, 9, a.Occupant)
}

func TestAdvancer(t *testing.T) {
	ctx := context.Background()

	t.Run("missing target is skipped", func(t *testing.T) {
		sf := emptyMatch(models.StageSemiFinal, 1)
		store, tour := repoFixture(t, models.FormatSingleElimMasters, sf)
		_, err := store.Matches.UpdateSlot(ctx, nil, sf.ID, true, 1)
		require.NoError(t, err)
		_, err = store.Matches.UpdateSlot(ctx, nil, sf.ID, false, 2)
		require.NoError(t, err)
		require.NoError(t, store.Matches.UpdateResult(ctx, nil, sf.ID, 3, 0, 1))
		m, err := store.Matches.GetByID(ctx, nil, sf.ID)
		require.NoError(t, err)

		adv := NewAdvancer(store.Matches, NewSlotService(store.Matches, testLogger(), nil), testLogger())
		result, err := adv.Advance(ctx, nil, tour.Format, m)
		require.NoError(t, err)
		assert.Empty(t, result.Updated)
		assert.Empty(t, result.Conflicts)
	})

	t.Run("undeclared stage", func(t *testing.T) {
		m := emptyMatch(models.StageEastSemi, 1)
		store, tour := repoFixture(t, models.FormatSingleElimMasters, m)
		one, two := 1, 2
		m.HomeTeamID, m.AwayTeamID, m.WinnerID = &one, &two, &one
		m.Status = models.MatchStatusCompleted

		adv := NewAdvancer(store.Matches, NewSlotService(store.Matches, testLogger(), nil), testLogger())
		_, err := adv.Advance(ctx, nil, tour.Format, m)
		assert.ErrorIs(t, err, ErrPreconditionNotMet)
	})

	t.Run("winner outside the match", func(t *testing.T) {
		m := emptyMatch(models.StageSemiFinal, 1)
		store, tour := repoFixture(t, models.FormatSingleElimMasters, m)
		one, two, stranger := 1, 2, 7
		m.HomeTeamID, m.AwayTeamID, m.WinnerID = &one, &two, &stranger
		m.Status = models.MatchStatusCompleted

		adv := NewAdvancer(store.Matches, NewSlotService(store.Matches, testLogger(), nil), testLogger())
		_, err := adv.Advance(ctx, nil, tour.Format, m)
		assert.ErrorIs(t, err, ErrPreconditionNotMet)
	})
}
