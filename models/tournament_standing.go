package models

import (
	"sort"
	"time"
)

// TournamentStanding is a materialized row of a group table. It is always
// derivable from the completed matches of its stage.
type TournamentStanding struct {
	ID            int       `json:"id" db:"id"`
	TournamentID  int       `json:"tournament_id" db:"tournament_id"`
	Stage         Stage     `json:"stage" db:"stage"`
	TeamID        int       `json:"team_id" db:"team_id"`
	MatchesPlayed int       `json:"matches_played" db:"matches_played"`
	Wins          int       `json:"wins" db:"wins"`
	Losses        int       `json:"losses" db:"losses"`
	Points        int       `json:"points" db:"points"`
	GamesWon      int       `json:"games_won" db:"games_won"`
	GamesLost     int       `json:"games_lost" db:"games_lost"`
	GameDiff      int       `json:"game_diff" db:"game_diff"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// SortStandings orders rows by points, game differential, wins and team id.
func SortStandings(rows []*TournamentStanding) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GameDiff != b.GameDiff {
			return a.GameDiff > b.GameDiff
		}
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		return a.TeamID < b.TeamID
	})
}
