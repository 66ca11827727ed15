package repositories

import (
	"database/sql"
	"log/slog"
)

// Store groups the repositories one storage driver provides together with
// the transaction runner that spans them.
type Store struct {
	Tournaments TournamentRepository
	Matches     MatchRepository
	Standings   TournamentStandingRepository
	Placements  PlacementRepository
	Tx          TxRunner
}

func NewPostgresStore(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{
		Tournaments: NewPostgresTournamentRepository(db),
		Matches:     NewPostgresMatchRepository(db),
		Standings:   NewPostgresTournamentStandingRepository(db),
		Placements:  NewPostgresPlacementRepository(db),
		Tx:          NewPostgresTxRunner(db, logger),
	}
}

func NewMemoryBackedStore(mem *MemoryStore) *Store {
	return &Store{
		Tournaments: mem.Tournaments(),
		Matches:     mem.Matches(),
		Standings:   mem.Standings(),
		Placements:  mem.Placements(),
		Tx:          mem,
	}
}
