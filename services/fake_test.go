package services

import (
	"context"
	"sync"

	"github.com/Dosada05/bracket-engine/models"
)

// ------------------------
// Fake Annual Ranking
// ------------------------

type FakeAnnualRanking struct {
	trace []string

	TopTeamsFunc func(ctx context.Context, season, n int) ([]int, error)
}

func NewFakeAnnualRanking() *FakeAnnualRanking {
	return &FakeAnnualRanking{trace: []string{}}
}

func (f *FakeAnnualRanking) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeAnnualRanking) Trace() []string {
	return f.trace
}

func (f *FakeAnnualRanking) TopTeams(ctx context.Context, season, n int) ([]int, error) {
	f.record("TopTeams")
	if f.TopTeamsFunc != nil {
		return f.TopTeamsFunc(ctx, season, n)
	}
	return nil, nil
}

// ------------------------
// Fake Placement Consumer
// ------------------------

type FakePlacementConsumer struct {
	trace []string

	ConsumePlacementsFunc func(ctx context.Context, t *models.Tournament, placements []models.Placement) error
}

func NewFakePlacementConsumer() *FakePlacementConsumer {
	return &FakePlacementConsumer{trace: []string{}}
}

func (f *FakePlacementConsumer) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakePlacementConsumer) Trace() []string {
	return f.trace
}

func (f *FakePlacementConsumer) ConsumePlacements(ctx context.Context, t *models.Tournament, placements []models.Placement) error {
	f.record("ConsumePlacements")
	if f.ConsumePlacementsFunc != nil {
		return f.ConsumePlacementsFunc(ctx, t, placements)
	}
	return nil
}

// ------------------------
// Fake Placement Archiver
// ------------------------

type FakePlacementArchiver struct {
	trace []string

	ArchivePlacementsFunc func(ctx context.Context, t *models.Tournament, placements []models.Placement) (string, error)
}

func NewFakePlacementArchiver() *FakePlacementArchiver {
	return &FakePlacementArchiver{trace: []string{}}
}

func (f *FakePlacementArchiver) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakePlacementArchiver) Trace() []string {
	return f.trace
}

func (f *FakePlacementArchiver) ArchivePlacements(ctx context.Context, t *models.Tournament, placements []models.Placement) (string, error) {
	f.record("ArchivePlacements")
	if f.ArchivePlacementsFunc != nil {
		return f.ArchivePlacementsFunc(ctx, t, placements)
	}
	return "", nil
}

// ------------------------
// Fake Simulator
// ------------------------

type FakeSimulator struct {
	mu    sync.Mutex
	trace []string

	SimulateMatchFunc func(ctx context.Context, match *models.Match) (int, int, error)
}

func NewFakeSimulator() *FakeSimulator {
	return &FakeSimulator{trace: []string{}}
}

func (f *FakeSimulator) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeSimulator) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.trace...)
}

// SimulateMatch defaults to the home team winning a clean sweep.
func (f *FakeSimulator) SimulateMatch(ctx context.Context, match *models.Match) (int, int, error) {
	f.record("SimulateMatch")
	if f.SimulateMatchFunc != nil {
		return f.SimulateMatchFunc(ctx, match)
	}
	return match.Format.GamesToWin(), 0, nil
}

// Interface assertions
var (
	_ AnnualRanking     = (*FakeAnnualRanking)(nil)
	_ PlacementConsumer = (*FakePlacementConsumer)(nil)
	_ PlacementArchiver = (*FakePlacementArchiver)(nil)
	_ Simulator         = (*FakeSimulator)(nil)
	_ Simulator         = (*RandomSimulator)(nil)
)
