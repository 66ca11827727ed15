package models

type PlacementTag string

const (
	PlacementChampion       PlacementTag = "CHAMPION"
	PlacementRunnerUp       PlacementTag = "RUNNER_UP"
	PlacementThird          PlacementTag = "THIRD"
	PlacementFourth         PlacementTag = "FOURTH"
	PlacementQuarterFinal   PlacementTag = "QUARTER_FINAL"
	PlacementFifthSixth     PlacementTag = "5TH_6TH"
	PlacementSeventhEighth  PlacementTag = "7TH_8TH"
	PlacementFifthEighth    PlacementTag = "5TH_8TH"
	PlacementQualifierOut   PlacementTag = "QUALIFIER_OUT"
	PlacementEleventhTwelve PlacementTag = "11TH_12TH"
	PlacementSemiLoser      PlacementTag = "SEMI_LOSER"
	PlacementQuarterLoser   PlacementTag = "QUARTER_LOSER"
	PlacementPrepLoser      PlacementTag = "PREP_LOSER"
	PlacementPromotionLoser PlacementTag = "PROMOTION_LOSER"
	PlacementFighterOut     PlacementTag = "FIGHTER_OUT"
	PlacementGroupStage     PlacementTag = "GROUP_STAGE"
)

// Placement is one line of a final result list. Position is the best rank
// of the tag's band, so tied teams share it.
type Placement struct {
	TournamentID int          `json:"tournament_id" db:"tournament_id"`
	TeamID       int          `json:"team_id" db:"team_id"`
	Tag          PlacementTag `json:"tag" db:"tag"`
	Position     int          `json:"position" db:"position"`
}
