package models

import "fmt"

// TournamentFormat identifies the bracket layout a tournament is played in.
type TournamentFormat string

const (
	FormatSingleElimMasters TournamentFormat = "single_elim_masters"
	FormatDoubleElimMsi     TournamentFormat = "double_elim_msi"
	FormatSwissWorlds       TournamentFormat = "swiss_worlds"
	FormatSwissMsi          TournamentFormat = "swiss_msi"
	FormatFourGroupMasters  TournamentFormat = "four_group_masters"
	FormatFourPhaseSuper    TournamentFormat = "four_phase_super"
	FormatLeaguePlayoffs    TournamentFormat = "league_playoffs"
)

var allFormats = []TournamentFormat{
	FormatSingleElimMasters,
	FormatDoubleElimMsi,
	FormatSwissWorlds,
	FormatSwissMsi,
	FormatFourGroupMasters,
	FormatFourPhaseSuper,
	FormatLeaguePlayoffs,
}

// AllFormats returns every supported format in declaration order.
func AllFormats() []TournamentFormat {
	out := make([]TournamentFormat, len(allFormats))
	copy(out, allFormats)
	return out
}

func ParseFormat(s string) (TournamentFormat, error) {
	for _, f := range allFormats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown tournament format %q", s)
}

// SwissThresholds is the number of wins that qualifies and the number of
// losses that eliminates a team in a Swiss stage.
type SwissThresholds struct {
	Qualify   int `json:"qualify"`
	Eliminate int `json:"eliminate"`
}

// MaxGames is the most Swiss matches a single team can play before it is resolved.
func (t SwissThresholds) MaxGames() int {
	return (t.Qualify - 1) + (t.Eliminate - 1) + 1
}

func (f TournamentFormat) SwissThresholds() SwissThresholds {
	if f == FormatSwissWorlds {
		return SwissThresholds{Qualify: 2, Eliminate: 2}
	}
	return SwissThresholds{Qualify: 3, Eliminate: 3}
}

func (f TournamentFormat) HasSwissStage() bool {
	return f == FormatSwissWorlds || f == FormatSwissMsi
}

// MatchFormat is the best-of series length of a match.
type MatchFormat string

const (
	BestOf1 MatchFormat = "Bo1"
	BestOf3 MatchFormat = "Bo3"
	BestOf5 MatchFormat = "Bo5"
)

// GamesToWin returns how many games decide a series of this length.
func (m MatchFormat) GamesToWin() int {
	switch m {
	case BestOf5:
		return 3
	case BestOf3:
		return 2
	default:
		return 1
	}
}
