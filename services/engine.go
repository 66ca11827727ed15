package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/bracket-engine/brackets"
	"github.com/Dosada05/bracket-engine/metrics"
	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/repositories"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PlacementConsumer receives the final placements of a tournament, e.g. the
// points and honor bookkeeping. It runs inside the finalizing transaction.
type PlacementConsumer interface {
	ConsumePlacements(ctx context.Context, t *models.Tournament, placements []models.Placement) error
}

// PlacementArchiver stores a copy of the placements outside the database.
// Failures are logged and do not undo the finalization.
type PlacementArchiver interface {
	ArchivePlacements(ctx context.Context, t *models.Tournament, placements []models.Placement) (string, error)
}

type EngineOptions struct {
	Ranking  AnnualRanking
	Pairer   brackets.SwissPairer
	Hub      *brackets.Hub
	Consumer PlacementConsumer
	Archiver PlacementArchiver
	Logger   *slog.Logger
	Metrics  metrics.Recorder
	Tracer   trace.Tracer
}

// ResultReport is everything one command changed.
type ResultReport struct {
	TournamentID int                     `json:"tournament_id"`
	MatchID      int                     `json:"match_id,omitempty"`
	Advance      AdvanceResult           `json:"advance"`
	Standings    []models.Stage          `json:"standings,omitempty"`
	Phases       []string                `json:"phases,omitempty"`
	SwissMatches []int                   `json:"swiss_matches,omitempty"`
	Stalled      []string                `json:"stalled,omitempty"`
	Placements   []models.Placement      `json:"placements,omitempty"`
	Completed    bool                    `json:"completed"`
	Status       models.TournamentStatus `json:"status"`

	format     models.TournamentFormat
	tournament *models.Tournament
}

// Conflicts returns the slot conflicts met while applying the command as
// one error wrapping ErrSlotConflict.
func (r *ResultReport) Conflicts() error {
	return r.Advance.Err()
}

// Engine runs the bracket commands. Each command holds the tournament's
// guard and runs in one storage transaction.
type Engine struct {
	store       *repositories.Store
	guard       *TournamentGuard
	tournaments *TournamentService
	slots       *SlotService
	advancer    *Advancer
	standings   *StandingsService
	swiss       *SwissService
	qualifier   *QualifierService
	ranking     *RankingService

	hub      *brackets.Hub
	consumer PlacementConsumer
	archiver PlacementArchiver
	logger   *slog.Logger
	metrics  metrics.Recorder
	tracer   trace.Tracer
}

func NewEngine(store *repositories.Store, opts EngineOptions) *Engine {
	logger := orDefaultLogger(opts.Logger)
	recorder := opts.Metrics
	if recorder == nil {
		recorder = metrics.NoOpMetrics{}
	}
	slots := NewSlotService(store.Matches, logger, recorder)
	standings := NewStandingsService(store.Matches, store.Standings, logger)
	swiss := NewSwissService(store.Matches, opts.Pairer, logger, recorder)
	return &Engine{
		store:       store,
		guard:       NewTournamentGuard(),
		tournaments: NewTournamentService(store, logger),
		slots:       slots,
		advancer:    NewAdvancer(store.Matches, slots, logger),
		standings:   standings,
		swiss:       swiss,
		qualifier:   NewQualifierService(store.Matches, standings, swiss, slots, opts.Ranking, logger),
		ranking:     NewRankingService(store.Matches, logger),
		hub:         opts.Hub,
		consumer:    opts.Consumer,
		archiver:    opts.Archiver,
		logger:      logger,
		metrics:     recorder,
		tracer:      orNoopTracer(opts.Tracer),
	}
}

func (e *Engine) Tournaments() *TournamentService { return e.tournaments }

// command wraps fn with the guard, a span, a transaction and the command metrics.
func (e *Engine) command(ctx context.Context, name string, tournamentID int, fn func(ctx context.Context, exec repositories.SQLExecutor) error) (err error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "Engine."+name, trace.WithAttributes(
		attribute.Int("tournament.id", tournamentID),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		e.metrics.RecordCommand(ctx, name, time.Since(start), err)
	}()

	release := e.guard.Acquire(tournamentID)
	defer release()
	return e.store.Tx.RunInTx(ctx, fn)
}

func (e *Engine) loadTournament(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	t, err := e.store.Tournaments.GetByID(ctx, exec, id)
	if err != nil {
		return nil, handleRepositoryError(err, "load tournament")
	}
	return t, nil
}

func requireInProgress(t *models.Tournament) error {
	if t.Status != models.StatusInProgress {
		return preconditionf("tournament %d is %s", t.ID, t.Status)
	}
	return nil
}

// Start opens the tournament for results.
func (e *Engine) Start(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	var t *models.Tournament
	err := e.command(ctx, "start", tournamentID, func(ctx context.Context, exec repositories.SQLExecutor) error {
		var err error
		if t, err = e.loadTournament(ctx, exec, tournamentID); err != nil {
			return err
		}
		if t.Status != models.StatusUpcoming {
			return fmt.Errorf("%w: %w: tournament %d is %s", ErrPreconditionNotMet, ErrTournamentInvalidStatusTransition, t.ID, t.Status)
		}
		return e.tournaments.updateStatus(ctx, exec, t, models.StatusInProgress)
	})
	if err != nil {
		return nil, err
	}
	e.publish(tournamentID, brackets.EventBracketUpdated, &ResultReport{TournamentID: tournamentID, Status: t.Status})
	return t, nil
}

func validateScores(m *models.Match, homeScore, awayScore int) (int, error) {
	if homeScore < 0 || awayScore < 0 {
		return 0, fmt.Errorf("%w: %w: negative score %d-%d", ErrPreconditionNotMet, ErrInvalidResult, homeScore, awayScore)
	}
	if homeScore == awayScore {
		return 0, fmt.Errorf("%w: %w: draw %d-%d", ErrPreconditionNotMet, ErrInvalidResult, homeScore, awayScore)
	}
	// The winner has exactly GamesToWin; with draws ruled out the loser has fewer.
	if need := m.Format.GamesToWin(); max(homeScore, awayScore) != need {
		return 0, fmt.Errorf("%w: %w: %s is decided at %d games, got %d-%d", ErrPreconditionNotMet, ErrInvalidResult, m.Format, need, homeScore, awayScore)
	}
	if homeScore > awayScore {
		return m.SlotTeam(true), nil
	}
	return m.SlotTeam(false), nil
}

// ReportResult records a match result and runs everything it unlocks: slot
// advancement, standings, qualification phases, the next Swiss round and,
// once the final is decided, finalization.
func (e *Engine) ReportResult(ctx context.Context, matchID, homeScore, awayScore int) (*ResultReport, error) {
	m, err := e.store.Matches.GetByID(ctx, nil, matchID)
	if err != nil {
		return nil, handleRepositoryError(err, "load match")
	}

	report := &ResultReport{TournamentID: m.TournamentID, MatchID: matchID}
	err = e.command(ctx, "report_result", m.TournamentID, func(ctx context.Context, exec repositories.SQLExecutor) error {
		t, err := e.loadTournament(ctx, exec, m.TournamentID)
		if err != nil {
			return err
		}
		if err := requireInProgress(t); err != nil {
			return err
		}
		match, err := e.store.Matches.GetByID(ctx, exec, matchID)
		if err != nil {
			return handleRepositoryError(err, "load match")
		}
		if !match.Playable() {
			return preconditionf("match %d is %s with teams %v", match.ID, match.Status, match.Teams())
		}
		winner, err := validateScores(match, homeScore, awayScore)
		if err != nil {
			return err
		}
		if err := e.store.Matches.UpdateResult(ctx, exec, match.ID, homeScore, awayScore, winner); err != nil {
			return handleRepositoryError(err, "store result")
		}
		match.HomeScore, match.AwayScore = homeScore, awayScore
		match.WinnerID = &winner
		match.Status = models.MatchStatusCompleted

		advance, err := e.advancer.Advance(ctx, exec, t.Format, match)
		if err != nil {
			return err
		}
		report.Advance.merge(advance)

		if match.Stage.IsGroup() {
			if _, err := e.standings.Recompute(ctx, exec, t.ID, match.Stage); err != nil {
				return err
			}
			report.Standings = append(report.Standings, match.Stage)
		}
		return e.settle(ctx, exec, t, report)
	})
	if err != nil {
		return nil, err
	}
	e.afterCommit(ctx, report)
	return report, nil
}

// settle runs the follow-ups shared by ReportResult and Reconcile.
func (e *Engine) settle(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, report *ResultReport) error {
	report.format = t.Format
	report.tournament = t

	progress, err := e.qualifier.Progress(ctx, exec, t)
	switch {
	case errors.Is(err, ErrPreconditionNotMet):
		// The result stands; the blocked phase runs again on the next command.
		e.logger.Warn("qualification phase blocked", tournamentAttr(t), slog.Any("error", err))
		report.Stalled = append(report.Stalled, err.Error())
	case err != nil:
		return err
	}
	report.Advance.merge(progress.AdvanceResult)
	report.Phases = append(report.Phases, progress.Phases...)

	if t.Format.HasSwissStage() {
		if err := e.nextSwissRound(ctx, exec, t, report); err != nil {
			return err
		}
	}

	ready, err := e.readyToFinalize(ctx, exec, t)
	if err != nil {
		return err
	}
	if ready {
		placements, err := e.finalize(ctx, exec, t)
		if err != nil {
			return err
		}
		report.Placements = placements
		report.Completed = true
	}
	report.Status = t.Status
	return nil
}

func (e *Engine) nextSwissRound(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, report *ResultReport) error {
	st, err := e.swiss.Standing(ctx, exec, t)
	if err != nil {
		return err
	}
	if st.LastRound == 0 || st.RoundInProgress || st.Complete {
		return nil
	}
	ids, err := e.swiss.GenerateNextRound(ctx, exec, t)
	if errors.Is(err, ErrPreconditionNotMet) {
		e.logger.Warn("swiss stage cannot continue", tournamentAttr(t), slog.Any("error", err))
		report.Stalled = append(report.Stalled, err.Error())
		return nil
	}
	if err != nil {
		return err
	}
	report.SwissMatches = append(report.SwissMatches, ids...)
	return nil
}

func (e *Engine) readyToFinalize(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) (bool, error) {
	if t.Status != models.StatusInProgress {
		return false, nil
	}
	gf, err := e.store.Matches.GetByStage(ctx, exec, t.ID, models.StageGrandFinal, 1)
	if errors.Is(err, repositories.ErrMatchNotFound) {
		return false, nil
	}
	if err != nil {
		return false, handleRepositoryError(err, "load grand final")
	}
	if !gf.IsCompleted() {
		return false, nil
	}
	tp, err := e.store.Matches.GetByStage(ctx, exec, t.ID, models.StageThirdPlace, 1)
	if errors.Is(err, repositories.ErrMatchNotFound) {
		return true, nil
	}
	if err != nil {
		return false, handleRepositoryError(err, "load third place match")
	}
	return tp.Status != models.MatchStatusScheduled, nil
}

// finalize stores the placements once, completes the tournament and hands
// the list to the consumer.
func (e *Engine) finalize(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) ([]models.Placement, error) {
	if err := requireInProgress(t); err != nil {
		return nil, err
	}
	placements, err := e.ranking.Resolve(ctx, exec, t)
	if err != nil {
		return nil, err
	}
	if err := e.store.Placements.SaveAll(ctx, exec, t.ID, placements); err != nil {
		return nil, handleRepositoryError(err, "store placements")
	}
	if err := e.tournaments.updateStatus(ctx, exec, t, models.StatusCompleted); err != nil {
		return nil, err
	}
	for i := range placements {
		placements[i].TournamentID = t.ID
	}
	if e.consumer != nil {
		if err := e.consumer.ConsumePlacements(ctx, t, placements); err != nil {
			return nil, fmt.Errorf("placement consumer: %w", err)
		}
	}
	e.metrics.RecordTournamentCompleted(ctx, t.Format)
	return placements, nil
}

// Finalize resolves and stores the placements of a tournament whose final
// is decided.
func (e *Engine) Finalize(ctx context.Context, tournamentID int) (*ResultReport, error) {
	report := &ResultReport{TournamentID: tournamentID}
	err := e.command(ctx, "finalize", tournamentID, func(ctx context.Context, exec repositories.SQLExecutor) error {
		t, err := e.loadTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		report.format, report.tournament = t.Format, t
		placements, err := e.finalize(ctx, exec, t)
		if err != nil {
			return err
		}
		report.Placements = placements
		report.Completed = true
		report.Status = t.Status
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.afterCommit(ctx, report)
	return report, nil
}

// Advance replays the slot advancement of one completed match.
func (e *Engine) Advance(ctx context.Context, matchID int) (AdvanceResult, error) {
	m, err := e.store.Matches.GetByID(ctx, nil, matchID)
	if err != nil {
		return AdvanceResult{}, handleRepositoryError(err, "load match")
	}
	report := &ResultReport{TournamentID: m.TournamentID, MatchID: matchID}
	err = e.command(ctx, "advance", m.TournamentID, func(ctx context.Context, exec repositories.SQLExecutor) error {
		t, err := e.loadTournament(ctx, exec, m.TournamentID)
		if err != nil {
			return err
		}
		report.format, report.tournament, report.Status = t.Format, t, t.Status
		match, err := e.store.Matches.GetByID(ctx, exec, matchID)
		if err != nil {
			return handleRepositoryError(err, "load match")
		}
		report.Advance, err = e.advancer.Advance(ctx, exec, t.Format, match)
		return err
	})
	if err != nil {
		return AdvanceResult{}, err
	}
	e.afterCommit(ctx, report)
	return report.Advance, nil
}

// GenerateNextSwissRound pairs the next Swiss round on demand.
func (e *Engine) GenerateNextSwissRound(ctx context.Context, tournamentID int) ([]int, error) {
	report := &ResultReport{TournamentID: tournamentID}
	err := e.command(ctx, "generate_swiss_round", tournamentID, func(ctx context.Context, exec repositories.SQLExecutor) error {
		t, err := e.loadTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if err := requireInProgress(t); err != nil {
			return err
		}
		report.format, report.tournament, report.Status = t.Format, t, t.Status
		report.SwissMatches, err = e.swiss.GenerateNextRound(ctx, exec, t)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.afterCommit(ctx, report)
	return report.SwissMatches, nil
}

// ResolveRankings computes the placement list without storing it.
func (e *Engine) ResolveRankings(ctx context.Context, tournamentID int) ([]models.Placement, error) {
	t, err := e.loadTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, err
	}
	return e.ranking.Resolve(ctx, nil, t)
}

// Reconcile replays advancement over every completed match of an in-progress
// tournament, recomputes its group tables and reruns the follow-ups. It
// repairs nothing that is already consistent.
func (e *Engine) Reconcile(ctx context.Context, tournamentID int) (*ResultReport, error) {
	report := &ResultReport{TournamentID: tournamentID}
	err := e.command(ctx, "reconcile", tournamentID, func(ctx context.Context, exec repositories.SQLExecutor) error {
		t, err := e.loadTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if err := requireInProgress(t); err != nil {
			return err
		}
		completed := models.MatchStatusCompleted
		done, err := e.store.Matches.ListByTournament(ctx, exec, t.ID, models.MatchFilter{Status: &completed})
		if err != nil {
			return handleRepositoryError(err, "list completed matches")
		}
		groups := make(map[models.Stage]bool)
		for _, m := range done {
			advance, err := e.advancer.Advance(ctx, exec, t.Format, m)
			if err != nil {
				return err
			}
			report.Advance.merge(advance)
			if m.Stage.IsGroup() && !groups[m.Stage] {
				groups[m.Stage] = true
				report.Standings = append(report.Standings, m.Stage)
			}
		}
		for _, stage := range report.Standings {
			if _, err := e.standings.Recompute(ctx, exec, t.ID, stage); err != nil {
				return err
			}
		}
		return e.settle(ctx, exec, t, report)
	})
	if err != nil {
		return nil, err
	}
	e.afterCommit(ctx, report)
	return report, nil
}

// afterCommit publishes events and archives placements once the
// transaction is durable.
func (e *Engine) afterCommit(ctx context.Context, r *ResultReport) {
	for _, c := range r.Advance.Conflicts {
		e.publish(r.TournamentID, brackets.EventSlotConflict, c)
	}
	if len(r.SwissMatches) > 0 {
		e.publish(r.TournamentID, brackets.EventSwissRoundGenerated, r.SwissMatches)
	}
	e.publish(r.TournamentID, brackets.EventBracketUpdated, r)
	if !r.Completed {
		return
	}
	e.publish(r.TournamentID, brackets.EventTournamentCompleted, r.Placements)
	e.logger.Info("tournament completed",
		slog.Int("tournament_id", r.TournamentID),
		slog.String("format", string(r.format)),
		slog.Int("placements", len(r.Placements)),
	)
	if e.archiver == nil || r.tournament == nil {
		return
	}
	key, err := e.archiver.ArchivePlacements(ctx, r.tournament, r.Placements)
	if err != nil {
		e.metrics.RecordDBOperationError(ctx, "archive_placements")
		e.logger.Error("failed to archive placements", slog.Int("tournament_id", r.TournamentID), slog.Any("error", err))
		return
	}
	e.logger.Info("placements archived", slog.Int("tournament_id", r.TournamentID), slog.String("key", key))
}

func (e *Engine) publish(tournamentID int, eventType string, payload interface{}) {
	if e.hub == nil {
		return
	}
	e.hub.BroadcastToRoom(brackets.RoomForTournament(tournamentID), eventType, payload)
}
