/*
streak.go - Segment bonuses for runs of consecutive star days

PURPOSE:
  Walks an explicit, contiguous, chronologically ordered date sequence and
  emits a bonus award every time the running star-day count reaches a
  positive multiple of the segment length.

CALLER CONTRACT:
  The caller supplies the date sequence. Gaps or out-of-order input produce
  undefined streak semantics; DateRange produces a correct sequence.
  Re-running over the same sequence reproduces the same awards (pure).
*/
package ledger

// Streak engine defaults: a bonus of 10 points every 10 consecutive
// star days.
const (
	DefaultStreakSegment = 10
	DefaultStreakBonus   = 10
)

// StreakAward is one segment bonus, attributed to the date that completed
// the segment.
type StreakAward struct {
	Date    DateKey `json:"date"`
	Segment int     `json:"segment"`
	Points  int     `json:"points"`
}

// StreakAwards scans the sequence, counting consecutive star days. A
// non-star day resets the run. Whenever the run is a positive multiple of
// segment, an award of bonus points is emitted for that date.
func StreakAwards(s *State, personID PersonID, dates []DateKey, segment, bonus int) []StreakAward {
	if segment <= 0 {
		return nil
	}

	var awards []StreakAward
	run := 0
	for _, d := range dates {
		if IsStarDay(s, personID, d) {
			run++
		} else {
			run = 0
		}
		if run > 0 && run%segment == 0 {
			awards = append(awards, StreakAward{Date: d, Segment: segment, Points: bonus})
		}
	}
	return awards
}
