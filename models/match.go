package models

import (
	"strings"
	"time"
)

type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "scheduled"
	MatchStatusCompleted MatchStatus = "completed"
	MatchStatusCancelled MatchStatus = "cancelled"
)

// Match is one fixture of a tournament. HomeTeamID/AwayTeamID are nil while
// the slot waits for an earlier result; a stored 0 is treated the same way.
type Match struct {
	ID           int         `json:"id" db:"id"`
	TournamentID int         `json:"tournament_id" db:"tournament_id"`
	Stage        Stage       `json:"stage" db:"stage"`
	MatchOrder   int         `json:"match_order" db:"match_order"`
	Round        *int        `json:"round,omitempty" db:"round"`
	Format       MatchFormat `json:"format" db:"format"`
	HomeTeamID   *int        `json:"home_team_id,omitempty" db:"home_team_id"`
	AwayTeamID   *int        `json:"away_team_id,omitempty" db:"away_team_id"`
	HomeScore    int         `json:"home_score" db:"home_score"`
	AwayScore    int         `json:"away_score" db:"away_score"`
	WinnerID     *int        `json:"winner_id,omitempty" db:"winner_id"`
	Status       MatchStatus `json:"status" db:"status"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}

// SlotTeam returns the team in the requested slot, or 0 when it is empty.
func (m *Match) SlotTeam(isHome bool) int {
	slot := m.AwayTeamID
	if isHome {
		slot = m.HomeTeamID
	}
	if slot == nil {
		return 0
	}
	return *slot
}

func (m *Match) SlotEmpty(isHome bool) bool {
	return m.SlotTeam(isHome) == 0
}

func (m *Match) HasBothTeams() bool {
	return !m.SlotEmpty(true) && !m.SlotEmpty(false)
}

func (m *Match) IsCompleted() bool {
	return m.Status == MatchStatusCompleted && m.WinnerID != nil
}

// Winner returns the winner id of a completed match.
func (m *Match) Winner() (int, bool) {
	if !m.IsCompleted() {
		return 0, false
	}
	return *m.WinnerID, true
}

// Loser returns whichever of home/away is not the winner.
func (m *Match) Loser() (int, bool) {
	winner, ok := m.Winner()
	if !ok {
		return 0, false
	}
	home, away := m.SlotTeam(true), m.SlotTeam(false)
	switch winner {
	case home:
		if away == 0 {
			return 0, false
		}
		return away, true
	case away:
		if home == 0 {
			return 0, false
		}
		return home, true
	}
	return 0, false
}

// Teams returns the non-empty slot occupants.
func (m *Match) Teams() []int {
	teams := make([]int, 0, 2)
	if id := m.SlotTeam(true); id != 0 {
		teams = append(teams, id)
	}
	if id := m.SlotTeam(false); id != 0 {
		teams = append(teams, id)
	}
	return teams
}

// Playable reports whether the match can receive a result.
func (m *Match) Playable() bool {
	return m.Status == MatchStatusScheduled && m.HasBothTeams()
}

// MatchFilter narrows ListByTournament results. Nil fields match everything.
type MatchFilter struct {
	Stage       *Stage
	StagePrefix string
	Status      *MatchStatus
}

// Matches reports whether m satisfies the filter.
func (f MatchFilter) Matches(m *Match) bool {
	if f.Stage != nil && m.Stage != *f.Stage {
		return false
	}
	if f.StagePrefix != "" && !strings.HasPrefix(string(m.Stage), f.StagePrefix) {
		return false
	}
	if f.Status != nil && m.Status != *f.Status {
		return false
	}
	return true
}
