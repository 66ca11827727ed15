package services

import "sync"

// TournamentGuard serializes writers per tournament. Commands on different
// tournaments run in parallel.
type TournamentGuard struct {
	mu    sync.Mutex
	locks map[int]*guardEntry
}

type guardEntry struct {
	mu   sync.Mutex
	refs int
}

func NewTournamentGuard() *TournamentGuard {
	return &TournamentGuard{locks: make(map[int]*guardEntry)}
}

// Acquire blocks until the caller is the only writer of tournamentID. The
// returned func releases it and must be called exactly once.
func (g *TournamentGuard) Acquire(tournamentID int) func() {
	g.mu.Lock()
	e, ok := g.locks[tournamentID]
	if !ok {
		e = &guardEntry{}
		g.locks[tournamentID] = e
	}
	e.refs++
	g.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		g.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(g.locks, tournamentID)
		}
		g.mu.Unlock()
	}
}
