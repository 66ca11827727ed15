package services

import (
	"context"

	"github.com/Dosada05/bracket-engine/brackets"
	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/repositories"
	"golang.org/x/sync/errgroup"
)

// BracketView is the read model of one tournament.
type BracketView struct {
	Tournament *models.Tournament      `json:"tournament"`
	Stages     []models.Stage          `json:"stages"`
	Swiss      *brackets.SwissStanding `json:"swiss,omitempty"`
}

type QueryService struct {
	store *repositories.Store
}

func NewQueryService(store *repositories.Store) *QueryService {
	return &QueryService{store: store}
}

// GetBracket loads the tournament with its matches, standings and
// placements. The three lists are read concurrently.
func (s *QueryService) GetBracket(ctx context.Context, tournamentID int) (*BracketView, error) {
	t, err := s.store.Tournaments.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, handleRepositoryError(err, "get tournament")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		matches, err := s.store.Matches.ListByTournament(gctx, nil, tournamentID, models.MatchFilter{})
		if err != nil {
			return handleRepositoryError(err, "list matches")
		}
		t.Matches = matches
		return nil
	})
	g.Go(func() error {
		standings, err := s.store.Standings.ListByTournament(gctx, nil, tournamentID, nil)
		if err != nil {
			return handleRepositoryError(err, "list standings")
		}
		t.Standings = standings
		return nil
	})
	g.Go(func() error {
		placements, err := s.store.Placements.ListByTournament(gctx, nil, tournamentID)
		if err != nil {
			return handleRepositoryError(err, "list placements")
		}
		t.Placements = placements
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	view := &BracketView{Tournament: t}
	if order, err := brackets.StageOrder(t.Format); err == nil {
		view.Stages = order
	}
	if t.Format.HasSwissStage() {
		view.Swiss = brackets.ComputeSwissStanding(t.Matches, t.Format.SwissThresholds())
	}
	return view, nil
}
