package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/bracket-engine/brackets"
	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/repositories"
)

// AdvanceResult lists the matches that received a team and the slots that
// refused one.
type AdvanceResult struct {
	Updated   []int            `json:"updated"`
	Conflicts []SlotAssignment `json:"conflicts,omitempty"`
}

func (r *AdvanceResult) merge(other AdvanceResult) {
	for _, id := range other.Updated {
		r.addUpdated(id)
	}
	r.Conflicts = append(r.Conflicts, other.Conflicts...)
}

func (r *AdvanceResult) addUpdated(id int) {
	for _, existing := range r.Updated {
		if existing == id {
			return
		}
	}
	r.Updated = append(r.Updated, id)
}

func (r *AdvanceResult) record(a SlotAssignment) {
	switch a.Outcome {
	case SlotFilled:
		r.addUpdated(a.MatchID)
	case SlotConflict:
		r.Conflicts = append(r.Conflicts, a)
	}
}

// Err joins the conflicts into one error wrapping ErrSlotConflict, nil when
// there are none.
func (r AdvanceResult) Err() error {
	if len(r.Conflicts) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Conflicts))
	for _, c := range r.Conflicts {
		errs = append(errs, c.Err())
	}
	return errors.Join(errs...)
}

// Advancer moves the winner and loser of a completed match into the slots
// the transition table names. It never creates matches.
type Advancer struct {
	matches repositories.MatchRepository
	slots   *SlotService
	logger  *slog.Logger
}

func NewAdvancer(matches repositories.MatchRepository, slots *SlotService, logger *slog.Logger) *Advancer {
	return &Advancer{matches: matches, slots: slots, logger: orDefaultLogger(logger)}
}

func (a *Advancer) Advance(ctx context.Context, exec repositories.SQLExecutor, format models.TournamentFormat, match *models.Match) (AdvanceResult, error) {
	var result AdvanceResult

	winner, ok := match.Winner()
	if !ok {
		return result, preconditionf("match %d is not completed", match.ID)
	}
	loser, hasLoser := match.Loser()
	if !hasLoser {
		return result, preconditionf("match %d winner %d is not one of its teams", match.ID, winner)
	}

	winnerDest, err := brackets.WinnerDestinations(format, match.Stage, match.MatchOrder)
	if err != nil {
		return result, fmt.Errorf("%w: %w", ErrPreconditionNotMet, err)
	}
	loserDest, err := brackets.LoserDestinations(format, match.Stage, match.MatchOrder)
	if err != nil {
		return result, fmt.Errorf("%w: %w", ErrPreconditionNotMet, err)
	}

	for _, d := range winnerDest {
		if err := a.send(ctx, exec, format, match, d, winner, &result); err != nil {
			return result, err
		}
	}
	for _, d := range loserDest {
		if err := a.send(ctx, exec, format, match, d, loser, &result); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (a *Advancer) send(ctx context.Context, exec repositories.SQLExecutor, format models.TournamentFormat, from *models.Match, d brackets.Destination, team int, result *AdvanceResult) error {
	target, err := a.matches.GetByStage(ctx, exec, from.TournamentID, d.Stage, d.MatchOrder)
	if errors.Is(err, repositories.ErrMatchNotFound) {
		a.logger.Debug("destination match not materialized",
			matchAttr(from),
			slog.String("target_stage", string(d.Stage)),
			slog.Int("target_order", d.MatchOrder),
		)
		return nil
	}
	if err != nil {
		return handleRepositoryError(err, "load destination match")
	}

	assignment, err := a.slots.AssignSlot(ctx, exec, format, target, d.IsHome, team)
	if err != nil {
		return err
	}
	result.record(assignment)
	return nil
}
