package brackets

import (
	"sort"

	"github.com/Dosada05/bracket-engine/models"
)

// SwissQualifierSlots is the number of qualified teams that closes a Swiss stage.
const SwissQualifierSlots = 4

// SwissRecord is a team's score inside the Swiss stage only.
type SwissRecord struct {
	TeamID    int   `json:"team_id"`
	Wins      int   `json:"wins"`
	Losses    int   `json:"losses"`
	Opponents []int `json:"opponents,omitempty"`
}

func (r *SwissRecord) played(team int) bool {
	for _, o := range r.Opponents {
		if o == team {
			return true
		}
	}
	return false
}

// SwissStanding is the state of a Swiss stage replayed from its matches.
type SwissStanding struct {
	Thresholds models.SwissThresholds `json:"thresholds"`
	Records    []*SwissRecord         `json:"records"`
	Qualified  []int                  `json:"qualified"`
	Eliminated []int                  `json:"eliminated"`
	Active     []int                  `json:"active"`
	// LastRound is the highest SWISS_R{n} seen, 0 before the stage starts.
	LastRound       int  `json:"last_round"`
	RoundInProgress bool `json:"round_in_progress"`
	Complete        bool `json:"complete"`
}

// NextRound is the round number the next pairing would create.
func (s *SwissStanding) NextRound() int {
	return s.LastRound + 1
}

func (s *SwissStanding) Record(team int) *SwissRecord {
	for _, r := range s.Records {
		if r.TeamID == team {
			return r
		}
	}
	return nil
}

// ComputeSwissStanding replays every Swiss match. Teams are known from the
// slots of any Swiss match; only completed matches change records.
func ComputeSwissStanding(matches []*models.Match, thresholds models.SwissThresholds) *SwissStanding {
	st := &SwissStanding{Thresholds: thresholds}
	records := make(map[int]*SwissRecord)
	get := func(team int) *SwissRecord {
		r, ok := records[team]
		if !ok {
			r = &SwissRecord{TeamID: team}
			records[team] = r
		}
		return r
	}

	for _, m := range matches {
		n, ok := m.Stage.SwissRoundNumber()
		if !ok || m.Status == models.MatchStatusCancelled {
			continue
		}
		if n > st.LastRound {
			st.LastRound = n
		}
		for _, t := range m.Teams() {
			get(t)
		}
		if !m.IsCompleted() {
			st.RoundInProgress = true
			continue
		}
		winner, _ := m.Winner()
		loser, ok := m.Loser()
		if !ok {
			continue
		}
		get(winner).Wins++
		get(loser).Losses++
		get(winner).Opponents = append(get(winner).Opponents, loser)
		get(loser).Opponents = append(get(loser).Opponents, winner)
	}

	for _, r := range records {
		st.Records = append(st.Records, r)
	}
	sort.Slice(st.Records, func(i, j int) bool {
		a, b := st.Records[i], st.Records[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.Losses != b.Losses {
			return a.Losses < b.Losses
		}
		return a.TeamID < b.TeamID
	})

	for _, r := range st.Records {
		switch {
		case r.Wins >= thresholds.Qualify:
			st.Qualified = append(st.Qualified, r.TeamID)
		case r.Losses >= thresholds.Eliminate:
			st.Eliminated = append(st.Eliminated, r.TeamID)
		default:
			st.Active = append(st.Active, r.TeamID)
		}
	}
	st.Complete = len(st.Records) > 0 && (len(st.Qualified) >= SwissQualifierSlots || len(st.Active) == 0)
	return st
}

// ActiveRecords returns the records of teams that are still playing.
func (s *SwissStanding) ActiveRecords() []*SwissRecord {
	out := make([]*SwissRecord, 0, len(s.Active))
	for _, id := range s.Active {
		out = append(out, s.Record(id))
	}
	return out
}

// SwissPairer turns the active records into home/away pairs. Teams left
// unpaired sit the round out.
type SwissPairer interface {
	Pair(active []*SwissRecord) (pairs [][2]int, sitOut []int)
}

// BucketPairer pairs teams with the same number of wins in team id order.
// An odd team floats down into the next bucket; only a leftover from the
// last bucket sits out.
type BucketPairer struct{}

func (BucketPairer) Pair(active []*SwissRecord) ([][2]int, []int) {
	return pairBuckets(active, func(bucket []*SwissRecord) ([][2]int, *SwissRecord) {
		pairs := make([][2]int, 0, len(bucket)/2)
		for i := 0; i+1 < len(bucket); i += 2 {
			pairs = append(pairs, [2]int{bucket[i].TeamID, bucket[i+1].TeamID})
		}
		if len(bucket)%2 == 1 {
			return pairs, bucket[len(bucket)-1]
		}
		return pairs, nil
	})
}

// RematchAvoidingPairer works like BucketPairer but searches each bucket for
// an arrangement without repeat opponents, falling back to the plain order
// when none exists.
type RematchAvoidingPairer struct{}

func (RematchAvoidingPairer) Pair(active []*SwissRecord) ([][2]int, []int) {
	return pairBuckets(active, func(bucket []*SwissRecord) ([][2]int, *SwissRecord) {
		var float *SwissRecord
		if len(bucket)%2 == 1 {
			float = bucket[len(bucket)-1]
			bucket = bucket[:len(bucket)-1]
		}
		if order, ok := pickOpponents(bucket); ok {
			pairs := make([][2]int, 0, len(order)/2)
			for i := 0; i+1 < len(order); i += 2 {
				pairs = append(pairs, [2]int{order[i].TeamID, order[i+1].TeamID})
			}
			return pairs, float
		}
		pairs, _ := BucketPairer{}.Pair(bucket)
		return pairs, float
	})
}

// pickOpponents backtracks over the bucket, pairing the first team with the
// first later team it has not met yet.
func pickOpponents(teams []*SwissRecord) ([]*SwissRecord, bool) {
	if len(teams) < 2 {
		return teams, true
	}
	first := teams[0]
	for i := 1; i < len(teams); i++ {
		if first.played(teams[i].TeamID) {
			continue
		}
		rest := make([]*SwissRecord, 0, len(teams)-2)
		rest = append(rest, teams[1:i]...)
		rest = append(rest, teams[i+1:]...)
		if tail, ok := pickOpponents(rest); ok {
			return append([]*SwissRecord{first, teams[i]}, tail...), true
		}
	}
	return nil, false
}

func pairBuckets(active []*SwissRecord, pairBucket func([]*SwissRecord) ([][2]int, *SwissRecord)) ([][2]int, []int) {
	buckets := make(map[int][]*SwissRecord)
	wins := make([]int, 0)
	for _, r := range active {
		if _, ok := buckets[r.Wins]; !ok {
			wins = append(wins, r.Wins)
		}
		buckets[r.Wins] = append(buckets[r.Wins], r)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(wins)))

	pairs := make([][2]int, 0, len(active)/2)
	var float *SwissRecord
	for _, w := range wins {
		bucket := buckets[w]
		sort.Slice(bucket, func(i, j int) bool { return bucket[i].TeamID < bucket[j].TeamID })
		if float != nil {
			bucket = append([]*SwissRecord{float}, bucket...)
		}
		var bp [][2]int
		bp, float = pairBucket(bucket)
		pairs = append(pairs, bp...)
	}
	if float != nil {
		return pairs, []int{float.TeamID}
	}
	return pairs, nil
}
