package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/bracket-engine/models"
)

type memoryState struct {
	tournaments map[int]*models.Tournament
	matches     map[int]*models.Match
	standings   []*models.TournamentStanding
	placements  map[int][]models.Placement

	nextTournamentID int
	nextMatchID      int
	nextStandingID   int
}

func (s *memoryState) clone() *memoryState {
	out := &memoryState{
		tournaments:      make(map[int]*models.Tournament, len(s.tournaments)),
		matches:          make(map[int]*models.Match, len(s.matches)),
		standings:        make([]*models.TournamentStanding, 0, len(s.standings)),
		placements:       make(map[int][]models.Placement, len(s.placements)),
		nextTournamentID: s.nextTournamentID,
		nextMatchID:      s.nextMatchID,
		nextStandingID:   s.nextStandingID,
	}
	for id, t := range s.tournaments {
		out.tournaments[id] = copyTournament(t)
	}
	for id, m := range s.matches {
		out.matches[id] = copyMatch(m)
	}
	for _, row := range s.standings {
		c := *row
		out.standings = append(out.standings, &c)
	}
	for id, p := range s.placements {
		out.placements[id] = append([]models.Placement(nil), p...)
	}
	return out
}

// MemoryStore keeps every table in process. It backs the memory storage
// driver and the service tests. Transactions snapshot the whole state and
// restore it when the function fails. Writes made outside a transaction wait
// for the running one, so a rollback never drops them.
type MemoryStore struct {
	mu    sync.RWMutex
	txMu  sync.Mutex
	state *memoryState
}

// memoryTxKey marks a context as running inside RunInTx of the store it holds.
type memoryTxKey struct{}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: &memoryState{
		tournaments: make(map[int]*models.Tournament),
		matches:     make(map[int]*models.Match),
		placements:  make(map[int][]models.Placement),
	}}
}

func (s *MemoryStore) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(memoryTxKey{}).(*MemoryStore)
	return owner == s
}

// lockWrite takes the write lock. Outside a transaction it also takes txMu,
// which the transaction holds until it commits or restores its snapshot.
func (s *MemoryStore) lockWrite(ctx context.Context) func() {
	if s.inTx(ctx) {
		s.mu.Lock()
		return s.mu.Unlock
	}
	s.txMu.Lock()
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

// RunInTx runs fn against a snapshot it restores on error or panic. A nested
// call joins the outer transaction.
func (s *MemoryStore) RunInTx(ctx context.Context, fn TxFunc) error {
	if s.inTx(ctx) {
		return fn(ctx, nil)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()

	restore := func() {
		s.mu.Lock()
		s.state = snapshot
		s.mu.Unlock()
	}
	defer func() {
		if p := recover(); p != nil {
			restore()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, memoryTxKey{}, s), nil); err != nil {
		restore()
		return err
	}
	return nil
}

func (s *MemoryStore) Tournaments() TournamentRepository { return (*memoryTournaments)(s) }

func (s *MemoryStore) Matches() MatchRepository { return (*memoryMatches)(s) }

func (s *MemoryStore) Standings() TournamentStandingRepository { return (*memoryStandings)(s) }

func (s *MemoryStore) Placements() PlacementRepository { return (*memoryPlacements)(s) }

func copyMatch(m *models.Match) *models.Match {
	c := *m
	c.Round = copyInt(m.Round)
	c.HomeTeamID = copyInt(m.HomeTeamID)
	c.AwayTeamID = copyInt(m.AwayTeamID)
	c.WinnerID = copyInt(m.WinnerID)
	return &c
}

func copyTournament(t *models.Tournament) *models.Tournament {
	c := *t
	c.Matches, c.Standings, c.Placements = nil, nil, nil
	return &c
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

type memoryTournaments MemoryStore

func (r *memoryTournaments) Create(ctx context.Context, _ SQLExecutor, t *models.Tournament) error {
	defer (*MemoryStore)(r).lockWrite(ctx)()
	for _, existing := range r.state.tournaments {
		if existing.Season == t.Season && existing.Name == t.Name {
			return ErrTournamentNameConflict
		}
	}
	r.state.nextTournamentID++
	t.ID = r.state.nextTournamentID
	t.CreatedAt = time.Now()
	if t.Status == "" {
		t.Status = models.StatusUpcoming
	}
	r.state.tournaments[t.ID] = copyTournament(t)
	return nil
}

func (r *memoryTournaments) GetByID(ctx context.Context, _ SQLExecutor, id int) (*models.Tournament, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.state.tournaments[id]
	if !ok {
		return nil, ErrTournamentNotFound
	}
	return copyTournament(t), nil
}

func (r *memoryTournaments) UpdateStatus(ctx context.Context, _ SQLExecutor, id int, status models.TournamentStatus) error {
	defer (*MemoryStore)(r).lockWrite(ctx)()
	t, ok := r.state.tournaments[id]
	if !ok {
		return ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (r *memoryTournaments) ListByStatus(ctx context.Context, _ SQLExecutor, status models.TournamentStatus) ([]*models.Tournament, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Tournament, 0)
	for _, t := range r.state.tournaments {
		if t.Status == status {
			out = append(out, copyTournament(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memoryMatches MemoryStore

func (r *memoryMatches) Create(ctx context.Context, _ SQLExecutor, m *models.Match) error {
	defer (*MemoryStore)(r).lockWrite(ctx)()
	return r.createLocked(m)
}

func (r *memoryMatches) createLocked(m *models.Match) error {
	if _, ok := r.state.tournaments[m.TournamentID]; !ok {
		return ErrMatchTournamentInvalid
	}
	for _, existing := range r.state.matches {
		if existing.TournamentID == m.TournamentID && existing.Stage == m.Stage && existing.MatchOrder == m.MatchOrder {
			return ErrMatchDuplicateSlot
		}
	}
	r.state.nextMatchID++
	m.ID = r.state.nextMatchID
	m.CreatedAt = time.Now()
	if m.Status == "" {
		m.Status = models.MatchStatusScheduled
	}
	stored := copyMatch(m)
	if stored.HomeTeamID != nil && *stored.HomeTeamID == 0 {
		stored.HomeTeamID = nil
	}
	if stored.AwayTeamID != nil && *stored.AwayTeamID == 0 {
		stored.AwayTeamID = nil
	}
	r.state.matches[m.ID] = stored
	return nil
}

func (r *memoryMatches) BatchCreate(ctx context.Context, _ SQLExecutor, matches []*models.Match) error {
	defer (*MemoryStore)(r).lockWrite(ctx)()
	for _, m := range matches {
		if err := r.createLocked(m); err != nil {
			return err
		}
	}
	return nil
}

func (r *memoryMatches) GetByID(ctx context.Context, _ SQLExecutor, id int) (*models.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.state.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return copyMatch(m), nil
}

func (r *memoryMatches) GetByStage(ctx context.Context, _ SQLExecutor, tournamentID int, stage models.Stage, order int) (*models.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.state.matches {
		if m.TournamentID == tournamentID && m.Stage == stage && m.MatchOrder == order {
			return copyMatch(m), nil
		}
	}
	return nil, ErrMatchNotFound
}

func (r *memoryMatches) ListByTournament(ctx context.Context, _ SQLExecutor, tournamentID int, filter models.MatchFilter) ([]*models.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Match, 0)
	for _, m := range r.state.matches {
		if m.TournamentID == tournamentID && filter.Matches(m) {
			out = append(out, copyMatch(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryMatches) UpdateSlot(ctx context.Context, _ SQLExecutor, matchID int, isHome bool, teamID int) (bool, error) {
	defer (*MemoryStore)(r).lockWrite(ctx)()
	m, ok := r.state.matches[matchID]
	if !ok || !m.SlotEmpty(isHome) {
		return false, nil
	}
	id := teamID
	if isHome {
		m.HomeTeamID = &id
	} else {
		m.AwayTeamID = &id
	}
	return true, nil
}

func (r *memoryMatches) UpdateResult(ctx context.Context, _ SQLExecutor, matchID, homeScore, awayScore, winnerID int) error {
	defer (*MemoryStore)(r).lockWrite(ctx)()
	m, ok := r.state.matches[matchID]
	if !ok || m.Status != models.MatchStatusScheduled || m.WinnerID != nil {
		return ErrMatchNotScheduled
	}
	w := winnerID
	m.HomeScore, m.AwayScore, m.WinnerID = homeScore, awayScore, &w
	m.Status = models.MatchStatusCompleted
	return nil
}

func (r *memoryMatches) Cancel(ctx context.Context, _ SQLExecutor, matchID int) error {
	defer (*MemoryStore)(r).lockWrite(ctx)()
	m, ok := r.state.matches[matchID]
	if !ok || m.Status != models.MatchStatusScheduled {
		return ErrMatchNotScheduled
	}
	m.Status = models.MatchStatusCancelled
	return nil
}

type memoryStandings MemoryStore

func (r *memoryStandings) ListByTournament(ctx context.Context, _ SQLExecutor, tournamentID int, stage *models.Stage) ([]*models.TournamentStanding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byStage := make(map[models.Stage][]*models.TournamentStanding)
	stages := make([]models.Stage, 0)
	for _, row := range r.state.standings {
		if row.TournamentID != tournamentID || (stage != nil && row.Stage != *stage) {
			continue
		}
		if _, ok := byStage[row.Stage]; !ok {
			stages = append(stages, row.Stage)
		}
		c := *row
		byStage[row.Stage] = append(byStage[row.Stage], &c)
	}
	sort.Slice(stages, func(i, j int) bool { return stages[i] < stages[j] })

	out := make([]*models.TournamentStanding, 0)
	for _, s := range stages {
		rows := byStage[s]
		models.SortStandings(rows)
		out = append(out, rows...)
	}
	return out, nil
}

func (r *memoryStandings) DeleteByStage(ctx context.Context, _ SQLExecutor, tournamentID int, stage models.Stage) error {
	defer (*MemoryStore)(r).lockWrite(ctx)()
	kept := r.state.standings[:0]
	for _, row := range r.state.standings {
		if row.TournamentID == tournamentID && row.Stage == stage {
			continue
		}
		kept = append(kept, row)
	}
	r.state.standings = kept
	return nil
}

func (r *memoryStandings) BatchCreate(ctx context.Context, _ SQLExecutor, standings []*models.TournamentStanding) error {
	defer (*MemoryStore)(r).lockWrite(ctx)()
	now := time.Now()
	for _, s := range standings {
		if _, ok := r.state.tournaments[s.TournamentID]; !ok {
			return ErrStandingTournamentInvalid
		}
		for _, existing := range r.state.standings {
			if existing.TournamentID == s.TournamentID && existing.Stage == s.Stage && existing.TeamID == s.TeamID {
				return ErrStandingDuplicate
			}
		}
		r.state.nextStandingID++
		s.ID = r.state.nextStandingID
		if s.UpdatedAt.IsZero() {
			s.UpdatedAt = now
		}
		c := *s
		r.state.standings = append(r.state.standings, &c)
	}
	return nil
}

type memoryPlacements MemoryStore

func (r *memoryPlacements) SaveAll(ctx context.Context, _ SQLExecutor, tournamentID int, placements []models.Placement) error {
	defer (*MemoryStore)(r).lockWrite(ctx)()
	if _, ok := r.state.tournaments[tournamentID]; !ok {
		return ErrPlacementTournamentInvalid
	}
	if len(r.state.placements[tournamentID]) > 0 {
		return ErrPlacementsExist
	}
	out := make([]models.Placement, len(placements))
	for i, p := range placements {
		p.TournamentID = tournamentID
		out[i] = p
	}
	r.state.placements[tournamentID] = out
	return nil
}

func (r *memoryPlacements) ListByTournament(ctx context.Context, _ SQLExecutor, tournamentID int) ([]models.Placement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.Placement{}, r.state.placements[tournamentID]...), nil
}
