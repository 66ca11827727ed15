package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/brianvoe/gofakeit/v7"
	"golang.org/x/time/rate"
)

// Simulator decides the score of a playable match.
type Simulator interface {
	SimulateMatch(ctx context.Context, match *models.Match) (homeScore, awayScore int, err error)
}

// RandomSimulator plays every series as a coin flip with a random losing
// score. The same seed replays the same results.
type RandomSimulator struct {
	mu    sync.Mutex
	faker *gofakeit.Faker
}

func NewRandomSimulator(seed uint64) *RandomSimulator {
	return &RandomSimulator{faker: gofakeit.New(seed)}
}

func (s *RandomSimulator) SimulateMatch(ctx context.Context, match *models.Match) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	need := match.Format.GamesToWin()
	loser := s.faker.IntRange(0, need-1)
	if s.faker.Bool() {
		return need, loser, nil
	}
	return loser, need, nil
}

type SimulationReport struct {
	TournamentID int             `json:"tournament_id"`
	Played       []int           `json:"played"`
	Completed    bool            `json:"completed"`
	Reports      []*ResultReport `json:"-"`
}

// SimulationService plays a tournament through the engine one match at a
// time, reading the bracket again after every result.
type SimulationService struct {
	engine    *Engine
	simulator Simulator
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// NewSimulationService paces results at perSecond matches per second. A
// non-positive rate disables pacing.
func NewSimulationService(engine *Engine, simulator Simulator, perSecond float64, logger *slog.Logger) *SimulationService {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &SimulationService{
		engine:    engine,
		simulator: simulator,
		limiter:   rate.NewLimiter(limit, 1),
		logger:    orDefaultLogger(logger),
	}
}

// RunAuto plays up to maxMatches matches, or until nothing is playable when
// maxMatches is 0.
func (s *SimulationService) RunAuto(ctx context.Context, tournamentID, maxMatches int) (*SimulationReport, error) {
	report := &SimulationReport{TournamentID: tournamentID}
	for maxMatches == 0 || len(report.Played) < maxMatches {
		next, err := s.nextPlayable(ctx, tournamentID)
		if err != nil {
			return report, err
		}
		if next == nil {
			break
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return report, err
		}
		home, away, err := s.simulator.SimulateMatch(ctx, next)
		if err != nil {
			return report, fmt.Errorf("simulate match %d: %w", next.ID, err)
		}
		result, err := s.engine.ReportResult(ctx, next.ID, home, away)
		if err != nil {
			return report, err
		}
		report.Played = append(report.Played, next.ID)
		report.Reports = append(report.Reports, result)
		if result.Completed {
			report.Completed = true
			break
		}
	}
	s.logger.Info("simulation finished",
		slog.Int("tournament_id", tournamentID),
		slog.Int("played", len(report.Played)),
		slog.Bool("completed", report.Completed),
	)
	return report, nil
}

// nextPlayable returns the scheduled match with both teams and the lowest id.
func (s *SimulationService) nextPlayable(ctx context.Context, tournamentID int) (*models.Match, error) {
	t, err := s.engine.loadTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, err
	}
	if t.Status != models.StatusInProgress {
		return nil, nil
	}
	scheduled := models.MatchStatusScheduled
	matches, err := s.engine.store.Matches.ListByTournament(ctx, nil, tournamentID, models.MatchFilter{Status: &scheduled})
	if err != nil {
		return nil, handleRepositoryError(err, "list scheduled matches")
	}
	for _, m := range matches {
		if m.Playable() {
			return m, nil
		}
	}
	return nil, nil
}
