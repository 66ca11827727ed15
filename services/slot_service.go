package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/bracket-engine/metrics"
	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/repositories"
)

type SlotOutcome string

const (
	SlotFilled SlotOutcome = "filled"
	// SlotAlreadyHeld means the slot already holds the same team.
	SlotAlreadyHeld SlotOutcome = "already_held"
	SlotConflict    SlotOutcome = "conflict"
)

// SlotAssignment describes one attempt to seat a team.
type SlotAssignment struct {
	TournamentID int          `json:"tournament_id"`
	MatchID      int          `json:"match_id"`
	Stage        models.Stage `json:"stage"`
	MatchOrder   int          `json:"match_order"`
	IsHome       bool         `json:"is_home"`
	TeamID       int          `json:"team_id"`
	// Occupant is the team found in the slot on conflict.
	Occupant int         `json:"occupant,omitempty"`
	Outcome  SlotOutcome `json:"outcome"`
}

func (a SlotAssignment) Err() error {
	if a.Outcome != SlotConflict {
		return nil
	}
	return fmt.Errorf("%w: %s #%d %s slot holds team %d, refused team %d",
		ErrSlotConflict, a.Stage, a.MatchOrder, sideName(a.IsHome), a.Occupant, a.TeamID)
}

func sideName(isHome bool) string {
	if isHome {
		return "home"
	}
	return "away"
}

// SlotService is the only writer of match slots. Every advancement and
// qualification goes through AssignSlot, which makes re-running them safe.
type SlotService struct {
	matches repositories.MatchRepository
	logger  *slog.Logger
	metrics metrics.Recorder
}

func NewSlotService(matches repositories.MatchRepository, logger *slog.Logger, recorder metrics.Recorder) *SlotService {
	if recorder == nil {
		recorder = metrics.NoOpMetrics{}
	}
	return &SlotService{matches: matches, logger: orDefaultLogger(logger), metrics: recorder}
}

// AssignSlot seats teamID in the home or away slot of match. An empty slot is
// filled, the same team is a no-op and any other team is a conflict that
// leaves the slot untouched. On success match is updated in place.
func (s *SlotService) AssignSlot(ctx context.Context, exec repositories.SQLExecutor, format models.TournamentFormat, match *models.Match, isHome bool, teamID int) (SlotAssignment, error) {
	a := SlotAssignment{
		TournamentID: match.TournamentID,
		MatchID:      match.ID,
		Stage:        match.Stage,
		MatchOrder:   match.MatchOrder,
		IsHome:       isHome,
		TeamID:       teamID,
	}
	if teamID <= 0 {
		return a, preconditionf("cannot seat team %d", teamID)
	}

	if !match.SlotEmpty(isHome) {
		return s.classify(ctx, format, a, match.SlotTeam(isHome)), nil
	}

	filled, err := s.matches.UpdateSlot(ctx, exec, match.ID, isHome, teamID)
	if err != nil {
		s.metrics.RecordDBOperationError(ctx, "update_slot")
		return a, handleRepositoryError(err, "assign slot")
	}
	if !filled {
		// The row changed since match was read.
		current, err := s.matches.GetByID(ctx, exec, match.ID)
		if err != nil {
			return a, handleRepositoryError(err, "assign slot")
		}
		*match = *current
		return s.classify(ctx, format, a, current.SlotTeam(isHome)), nil
	}

	id := teamID
	if isHome {
		match.HomeTeamID = &id
	} else {
		match.AwayTeamID = &id
	}
	a.Outcome = SlotFilled
	s.metrics.RecordSlotsFilled(ctx, format, 1)
	s.logger.Debug("slot filled", matchAttr(match), slog.String("side", sideName(isHome)), slog.Int("team_id", teamID))
	return a, nil
}

func (s *SlotService) classify(ctx context.Context, format models.TournamentFormat, a SlotAssignment, occupant int) SlotAssignment {
	if occupant == a.TeamID {
		a.Outcome = SlotAlreadyHeld
		return a
	}
	a.Outcome = SlotConflict
	a.Occupant = occupant
	s.metrics.RecordSlotConflict(ctx, format)
	s.logger.Error("slot conflict",
		slog.Int("tournament_id", a.TournamentID),
		slog.Int("match_id", a.MatchID),
		slog.String("stage", string(a.Stage)),
		slog.Int("order", a.MatchOrder),
		slog.String("side", sideName(a.IsHome)),
		slog.Int("occupant", occupant),
		slog.Int("team_id", a.TeamID),
	)
	return a
}
