/*
points.go - Daily point yield and the star-day predicate

PURPOSE:
  Turns one person-day of completion records into a point yield under the
  active payout mode, and decides whether the day is a "star day" (every
  eligible task done). Star days feed the streak engine and the calendar
  regardless of payout mode.

INVARIANTS:
  - A day with no eligible tasks yields 0 and is never a star day.
  - all_done is all-or-nothing: one missing task zeroes the day.
  - per_task pays each completed task independently.
  - The star predicate is mode-independent.
*/
package ledger

// IsDone reports whether the (person, task, date) key has a done record.
func IsDone(s *State, personID PersonID, taskID TaskID, date DateKey) bool {
	for _, c := range s.Completions {
		if c.PersonID == personID && c.TaskID == taskID && c.Date == date {
			return c.Done
		}
	}
	return false
}

// IsStarDay reports whether every eligible task for the person on the date
// is completed. A day with nothing due is never a star day: it cannot earn
// a star or a bonus.
func IsStarDay(s *State, personID PersonID, date DateKey) bool {
	due := EligibleTasks(s, personID, date)
	if len(due) == 0 {
		return false
	}
	for _, t := range due {
		if !IsDone(s, personID, t.ID, date) {
			return false
		}
	}
	return true
}

// DailyPoints computes the person's point yield for one date under the
// given payout mode. Point values are read from the task at query time;
// no historical snapshot is kept.
func DailyPoints(s *State, personID PersonID, date DateKey, mode PayoutMode) int {
	due := EligibleTasks(s, personID, date)
	if len(due) == 0 {
		return 0
	}

	if mode == ModeAllDone {
		sum := 0
		for _, t := range due {
			if !IsDone(s, personID, t.ID, date) {
				return 0
			}
			sum += t.Points
		}
		return sum
	}

	// per_task: each completed eligible task pays on its own.
	sum := 0
	for _, t := range due {
		if IsDone(s, personID, t.ID, date) {
			sum += t.Points
		}
	}
	return sum
}
