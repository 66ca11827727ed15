package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type ReconcileSummary struct {
	RunID       string `json:"run_id"`
	Tournaments int    `json:"tournaments"`
	SlotsFilled int    `json:"slots_filled"`
	Conflicts   int    `json:"conflicts"`
	Completed   []int  `json:"completed,omitempty"`
	Failed      []int  `json:"failed,omitempty"`
}

// Reconciler sweeps every in-progress tournament through Engine.Reconcile.
// It is safe to run at any time because advancement is idempotent.
type Reconciler struct {
	engine      *Engine
	concurrency int
	logger      *slog.Logger
}

func NewReconciler(engine *Engine, concurrency int, logger *slog.Logger) *Reconciler {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Reconciler{engine: engine, concurrency: concurrency, logger: orDefaultLogger(logger)}
}

// RunOnce reconciles all in-progress tournaments. A tournament that fails is
// logged and listed in the summary; only a failure to list tournaments or a
// cancelled context is returned.
func (r *Reconciler) RunOnce(ctx context.Context) (*ReconcileSummary, error) {
	summary := &ReconcileSummary{RunID: uuid.NewString()}
	logger := r.logger.With(slog.String("run_id", summary.RunID))

	active, err := r.engine.tournaments.ListTournamentsByStatus(ctx, models.StatusInProgress)
	if err != nil {
		return summary, err
	}
	summary.Tournaments = len(active)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, t := range active {
		id := t.ID
		g.Go(func() error {
			report, err := r.engine.Reconcile(gctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				logger.Error("reconcile failed", slog.Int("tournament_id", id), slog.Any("error", err))
				summary.Failed = append(summary.Failed, id)
				return nil
			}
			summary.SlotsFilled += len(report.Advance.Updated)
			summary.Conflicts += len(report.Advance.Conflicts)
			if report.Completed {
				summary.Completed = append(summary.Completed, id)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}

	logger.Info("reconcile run finished",
		slog.Int("tournaments", summary.Tournaments),
		slog.Int("slots_filled", summary.SlotsFilled),
		slog.Int("conflicts", summary.Conflicts),
		slog.Int("failed", len(summary.Failed)),
	)
	return summary, nil
}
