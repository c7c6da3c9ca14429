package ledger

// =============================================================================
// ELIGIBILITY - Which tasks are due for a person on a date
// =============================================================================

// EligibleTasks returns the tasks due for a person on a date: the task's
// active-weekday set contains the date's weekday AND the task is assigned
// to the person. Pure, O(tasks).
func EligibleTasks(s *State, personID PersonID, date DateKey) []Task {
	weekday := date.Weekday()
	var due []Task
	for _, t := range s.Tasks {
		if t.ActiveOn(weekday) && t.AssignedTo(personID) {
			due = append(due, t)
		}
	}
	return due
}
