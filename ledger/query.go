/*
query.go - Read-side derived views

PURPOSE:
  Every read recomputes from the source-of-truth records at call time;
  there is no derived cache to invalidate. These are the queries behind
  the board, calendar, reports, and logs of the presentation layer.
*/
package ledger

// =============================================================================
// LISTS
// =============================================================================

func (l *Ledger) People() []Person {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Person(nil), l.state.People...)
}

func (l *Ledger) Tasks() []Task {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Task(nil), l.state.Tasks...)
}

func (l *Ledger) Config() Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Config
}

// Snapshot returns a copy of the full document for inspection. Mutating
// the copy has no effect on the ledger.
func (l *Ledger) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return State{
		Schema:      l.state.Schema,
		People:      append([]Person(nil), l.state.People...),
		Tasks:       append([]Task(nil), l.state.Tasks...),
		Completions: append([]Completion(nil), l.state.Completions...),
		Adjustments: append([]Adjustment(nil), l.state.Adjustments...),
		Payouts:     append([]Payout(nil), l.state.Payouts...),
		Config:      l.state.Config,
	}
}

// =============================================================================
// BOARD - One person-day of due tasks with their done flags
// =============================================================================

// BoardEntry is one due task on the daily board.
type BoardEntry struct {
	Task Task `json:"task"`
	Done bool `json:"done"`
}

// Board returns the person's eligible tasks for the date with completion
// state, plus whether the day is a star day.
func (l *Ledger) Board(personID PersonID, date DateKey) ([]BoardEntry, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.PersonByID(personID) == nil {
		return nil, false, ErrPersonNotFound
	}
	if !date.Valid() {
		return nil, false, ErrInvalidDateKey
	}

	var entries []BoardEntry
	for _, t := range EligibleTasks(l.state, personID, date) {
		entries = append(entries, BoardEntry{Task: t, Done: IsDone(l.state, personID, t.ID, date)})
	}
	return entries, IsStarDay(l.state, personID, date), nil
}

// StarDays returns the person's star days within [from, to], for the
// calendar view.
func (l *Ledger) StarDays(personID PersonID, from, to DateKey) ([]DateKey, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.PersonByID(personID) == nil {
		return nil, ErrPersonNotFound
	}
	var stars []DateKey
	for _, d := range DateRange(from, to) {
		if IsStarDay(l.state, personID, d) {
			stars = append(stars, d)
		}
	}
	return stars, nil
}

// =============================================================================
// REPORTS
// =============================================================================

// Summary computes the person's settlement preview over [start, end] with
// the effective-range clip applied, under the active config.
func (l *Ledger) Summary(personID PersonID, start, end DateKey) (SettlementPreview, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.PersonByID(personID) == nil {
		return SettlementPreview{}, ErrPersonNotFound
	}
	if !start.Valid() || !end.Valid() {
		return SettlementPreview{}, ErrInvalidDateKey
	}
	if end.Before(start) {
		return SettlementPreview{}, ErrInvalidRange
	}
	return ComputeSettlement(l.state, personID, start, end, l.state.Config), nil
}

// SummaryAll computes the preview for every person over the same window.
func (l *Ledger) SummaryAll(start, end DateKey) ([]SettlementPreview, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !start.Valid() || !end.Valid() {
		return nil, ErrInvalidDateKey
	}
	if end.Before(start) {
		return nil, ErrInvalidRange
	}
	previews := make([]SettlementPreview, 0, len(l.state.People))
	for _, p := range l.state.People {
		previews = append(previews, ComputeSettlement(l.state, p.ID, start, end, l.state.Config))
	}
	return previews, nil
}

// StreakLog returns the person's streak awards over [from, to].
func (l *Ledger) StreakLog(personID PersonID, from, to DateKey) ([]StreakAward, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.PersonByID(personID) == nil {
		return nil, ErrPersonNotFound
	}
	return StreakAwards(l.state, personID, DateRange(from, to), DefaultStreakSegment, DefaultStreakBonus), nil
}

// AdjustmentLog returns the person's adjustments over [from, to].
func (l *Ledger) AdjustmentLog(personID PersonID, from, to DateKey) ([]Adjustment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.PersonByID(personID) == nil {
		return nil, ErrPersonNotFound
	}
	return AdjustmentsInRange(l.state, personID, from, to), nil
}

// PayoutHistory returns the person's payouts in stored (append) order.
func (l *Ledger) PayoutHistory(personID PersonID) ([]Payout, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.PersonByID(personID) == nil {
		return nil, ErrPersonNotFound
	}
	var out []Payout
	for _, p := range l.state.Payouts {
		if p.PersonID == personID {
			out = append(out, p)
		}
	}
	return out, nil
}
