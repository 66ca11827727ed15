package models

import "time"

// TournamentStatus is the lifecycle state of a tournament.
type TournamentStatus string

const (
	StatusUpcoming   TournamentStatus = "upcoming"
	StatusInProgress TournamentStatus = "in_progress"
	StatusCompleted  TournamentStatus = "completed"
)

type Tournament struct {
	ID        int              `json:"id" db:"id"`
	Name      string           `json:"name" db:"name"`
	Format    TournamentFormat `json:"format" db:"format"`
	Season    int              `json:"season" db:"season"`
	Status    TournamentStatus `json:"status" db:"status"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`

	Matches    []*Match              `json:"matches,omitempty" db:"-"`
	Standings  []*TournamentStanding `json:"standings,omitempty" db:"-"`
	Placements []Placement           `json:"placements,omitempty" db:"-"`
}
