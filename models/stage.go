package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Stage is the tag of a bracket phase, e.g. SEMI_FINAL or LOSERS_R3.
// Which stages are legal depends on the tournament format.
type Stage string

const (
	StageRegular Stage = "REGULAR"

	StageQuarterFinal Stage = "QUARTER_FINAL"
	StageSemiFinal    Stage = "SEMI_FINAL"
	StageThirdPlace   Stage = "THIRD_PLACE"
	StageGrandFinal   Stage = "GRAND_FINAL"

	StageQualifierR1   Stage = "QUALIFIER_R1"
	StageChallengerR1  Stage = "CHALLENGER_R1"
	StageWinnersR1     Stage = "WINNERS_R1"
	StageWinnersFinal  Stage = "WINNERS_FINAL"
	StageLosersR1      Stage = "LOSERS_R1"
	StageLosersR2      Stage = "LOSERS_R2"
	StageLosersR3      Stage = "LOSERS_R3"
	StageLosersR4      Stage = "LOSERS_R4"
	StageLosersFinal   Stage = "LOSERS_FINAL"
	StageEastR1        Stage = "EAST_R1"
	StageEastSemi      Stage = "EAST_SEMI"
	StageEastFinal     Stage = "EAST_FINAL"
	StageWestR1        Stage = "WEST_R1"
	StageWestSemi      Stage = "WEST_SEMI"
	StageWestFinal     Stage = "WEST_FINAL"
	StagePositioning   Stage = "CHALLENGER_POSITIONING"
	StagePromotion     Stage = "CHALLENGER_PROMOTION"
	StagePrepWinners   Stage = "PREP_WINNERS"
	StagePrepLosers    Stage = "PREP_LOSERS"
	StagePrepLosersFin Stage = "PREP_LOSERS_FINAL"
	StageFinalsR1      Stage = "FINALS_R1"
	StageFinalsR2      Stage = "FINALS_R2"
)

const (
	GroupStagePrefix   = "GROUP_"
	FighterGroupPrefix = "FIGHTER_GROUP_"
	SwissStagePrefix   = "SWISS_R"
)

// GroupStage returns the round-robin stage of group letter ("A".."H").
func GroupStage(letter string) Stage {
	return Stage(GroupStagePrefix + strings.ToUpper(letter))
}

func FighterGroupStage(letter string) Stage {
	return Stage(FighterGroupPrefix + strings.ToUpper(letter))
}

// SwissRound returns the stage tag of Swiss round n (1-based).
func SwissRound(n int) Stage {
	return Stage(SwissStagePrefix + strconv.Itoa(n))
}

func (s Stage) String() string { return string(s) }

// GroupLetter reports the letter of a GROUP_X stage.
func (s Stage) GroupLetter() (string, bool) {
	str := string(s)
	if !strings.HasPrefix(str, GroupStagePrefix) {
		return "", false
	}
	letter := strings.TrimPrefix(str, GroupStagePrefix)
	if len(letter) != 1 || letter[0] < 'A' || letter[0] > 'Z' {
		return "", false
	}
	return letter, true
}

func (s Stage) FighterGroupLetter() (string, bool) {
	str := string(s)
	if !strings.HasPrefix(str, FighterGroupPrefix) {
		return "", false
	}
	letter := strings.TrimPrefix(str, FighterGroupPrefix)
	if len(letter) != 1 || letter[0] < 'A' || letter[0] > 'Z' {
		return "", false
	}
	return letter, true
}

// SwissRoundNumber reports n for a SWISS_R{n} stage.
func (s Stage) SwissRoundNumber() (int, bool) {
	str := string(s)
	if !strings.HasPrefix(str, SwissStagePrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(str, SwissStagePrefix))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func (s Stage) IsSwiss() bool {
	_, ok := s.SwissRoundNumber()
	return ok
}

// IsGroup reports whether s is a round-robin stage whose result feeds standings.
func (s Stage) IsGroup() bool {
	if s == StageRegular {
		return true
	}
	if _, ok := s.GroupLetter(); ok {
		return true
	}
	_, ok := s.FighterGroupLetter()
	return ok
}

// GroupLetters returns the first n group letters starting at "A".
func GroupLetters(n int) []string {
	if n > 26 {
		panic(fmt.Sprintf("models: %d groups requested, at most 26 supported", n))
	}
	letters := make([]string, n)
	for i := 0; i < n; i++ {
		letters[i] = string(rune('A' + i))
	}
	return letters
}
