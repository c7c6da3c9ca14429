/*
ledger.go - Single-writer command surface

PURPOSE:
  The Ledger owns the State document and exposes the mutating commands the
  presentation layer submits (toggle completion, add adjustment, settle
  payout, structural edits, config changes). Every mutation runs to
  completion under one lock before the next is accepted - there is no
  interleaving of two mutations.

PERSISTENCE:
  Write-back is fire-and-forget and debounced: a short delay coalesces
  rapid successive mutations into one durable Save. Callers must not
  assume synchronous durability when a mutating call returns; Flush
  forces the pending write.

ERROR HANDLING:
  A failed mutation leaves the state untouched - validation happens before
  any field is written, so there are no partial writes to roll back.

AUTHORIZATION:
  The PIN gate is an external collaborator (see pingate). Callers invoke
  the mutating commands only after the gate grants a session; the ledger
  itself never checks credentials.

SEE ALSO:
  - settlement.go: the arithmetic behind SettlePayout
  - store/: DocumentStore implementations
  - migrate/: produces the State this package is constructed with
*/
package ledger

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultSaveDelay coalesces rapid successive mutations into one write.
const DefaultSaveDelay = 120 * time.Millisecond

// DocumentStore is the persistence boundary: one durable document, owned
// exclusively by this process. Last write wins.
type DocumentStore interface {
	// Load returns the raw persisted document, or nil if none exists.
	Load() ([]byte, error)

	// Save durably replaces the document.
	Save(raw []byte) error

	Close() error
}

// Ledger is the single logical writer over the State document.
type Ledger struct {
	mu        sync.Mutex
	state     *State
	docs      DocumentStore
	saveDelay time.Duration
	saveTimer *time.Timer

	// saveMu serializes durable writes against Close, so a debounce
	// callback already in flight can never hit a closed store.
	saveMu sync.Mutex
	closed bool
}

// New creates a ledger over an already-migrated state. docs may be nil
// for a purely in-memory ledger (tests).
func New(state *State, docs DocumentStore) *Ledger {
	return NewWithSaveDelay(state, docs, DefaultSaveDelay)
}

// NewWithSaveDelay overrides the write-back debounce interval.
func NewWithSaveDelay(state *State, docs DocumentStore, delay time.Duration) *Ledger {
	if state == nil {
		state = NewState()
	}
	return &Ledger{state: state, docs: docs, saveDelay: delay}
}

// =============================================================================
// PEOPLE
// =============================================================================

// PersonPatch carries optional edits; nil fields are left unchanged.
type PersonPatch struct {
	Name   *string
	Avatar *string
}

func (l *Ledger) AddPerson(name, avatar string) (Person, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if name == "" {
		return Person{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	p := Person{ID: PersonID(uuid.NewString()), Name: name, Avatar: avatar}
	l.state.People = append(l.state.People, p)
	l.scheduleSave()
	return p, nil
}

func (l *Ledger) UpdatePerson(id PersonID, patch PersonPatch) (Person, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p := l.state.PersonByID(id)
	if p == nil {
		return Person{}, ErrPersonNotFound
	}
	if patch.Name != nil {
		if *patch.Name == "" {
			return Person{}, &ValidationError{Field: "name", Reason: "must not be empty"}
		}
		p.Name = *patch.Name
	}
	if patch.Avatar != nil {
		p.Avatar = *patch.Avatar
	}
	l.scheduleSave()
	return *p, nil
}

// RemovePerson deletes a person without history. Deletion is forbidden
// while completions, adjustments, or payouts still reference the person,
// so history is never silently orphaned.
func (l *Ledger) RemovePerson(id PersonID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.PersonByID(id) == nil {
		return ErrPersonNotFound
	}
	if l.state.HasHistory(id) {
		return ErrPersonHasHistory
	}
	people := l.state.People[:0]
	for _, p := range l.state.People {
		if p.ID != id {
			people = append(people, p)
		}
	}
	l.state.People = people

	// Unassign from tasks so future eligibility never names the deleted id.
	for i := range l.state.Tasks {
		assignees := l.state.Tasks[i].Assignees[:0]
		for _, a := range l.state.Tasks[i].Assignees {
			if a != id {
				assignees = append(assignees, a)
			}
		}
		l.state.Tasks[i].Assignees = assignees
	}
	l.scheduleSave()
	return nil
}

// =============================================================================
// TASKS
// =============================================================================

// TaskPatch carries optional edits; nil fields are left unchanged.
// Edits affect future eligibility computations only.
type TaskPatch struct {
	Title      *string
	Points     *int
	ActiveDays *[]Weekday
	Assignees  *[]PersonID
}

func (l *Ledger) AddTask(title string, points int, days []Weekday, assignees []PersonID) (Task, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.validateTaskFields(title, points, days, assignees); err != nil {
		return Task{}, err
	}
	t := Task{
		ID:         TaskID(uuid.NewString()),
		Title:      title,
		Points:     points,
		ActiveDays: append([]Weekday(nil), days...),
		Assignees:  append([]PersonID(nil), assignees...),
	}
	l.state.Tasks = append(l.state.Tasks, t)
	l.scheduleSave()
	return t, nil
}

func (l *Ledger) UpdateTask(id TaskID, patch TaskPatch) (Task, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.state.TaskByID(id)
	if t == nil {
		return Task{}, ErrTaskNotFound
	}

	title := t.Title
	points := t.Points
	days := t.ActiveDays
	assignees := t.Assignees
	if patch.Title != nil {
		title = *patch.Title
	}
	if patch.Points != nil {
		points = *patch.Points
	}
	if patch.ActiveDays != nil {
		days = *patch.ActiveDays
	}
	if patch.Assignees != nil {
		assignees = *patch.Assignees
	}
	if err := l.validateTaskFields(title, points, days, assignees); err != nil {
		return Task{}, err
	}

	t.Title = title
	t.Points = points
	t.ActiveDays = append([]Weekday(nil), days...)
	t.Assignees = append([]PersonID(nil), assignees...)
	l.scheduleSave()
	return *t, nil
}

// RemoveTask deletes the task record. Its completions remain in history
// and become inert: with no task they are never eligible again and
// contribute nothing.
func (l *Ledger) RemoveTask(id TaskID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.TaskByID(id) == nil {
		return ErrTaskNotFound
	}
	tasks := l.state.Tasks[:0]
	for _, t := range l.state.Tasks {
		if t.ID != id {
			tasks = append(tasks, t)
		}
	}
	l.state.Tasks = tasks
	l.scheduleSave()
	return nil
}

func (l *Ledger) validateTaskFields(title string, points int, days []Weekday, assignees []PersonID) error {
	if title == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if points < 0 {
		return &ValidationError{Field: "points", Reason: "must not be negative"}
	}
	for _, d := range days {
		if !d.Valid() {
			return &ValidationError{Field: "activeDays", Reason: "unknown weekday " + string(d)}
		}
	}
	for _, a := range assignees {
		if l.state.PersonByID(a) == nil {
			return ErrPersonNotFound
		}
	}
	return nil
}

// =============================================================================
// COMPLETIONS
// =============================================================================

// ToggleCompletion flips the done flag for (person, task, date), creating
// the record on first use. Toggling is its own inverse and keeps the
// at-most-one-record-per-key invariant. Returns the new done state.
func (l *Ledger) ToggleCompletion(personID PersonID, taskID TaskID, date DateKey) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.PersonByID(personID) == nil {
		return false, ErrPersonNotFound
	}
	if l.state.TaskByID(taskID) == nil {
		return false, ErrTaskNotFound
	}
	if !date.Valid() {
		return false, ErrInvalidDateKey
	}

	for i := range l.state.Completions {
		c := &l.state.Completions[i]
		if c.PersonID == personID && c.TaskID == taskID && c.Date == date {
			c.Done = !c.Done
			l.scheduleSave()
			return c.Done, nil
		}
	}
	l.state.Completions = append(l.state.Completions, Completion{
		PersonID: personID, TaskID: taskID, Date: date, Done: true,
	})
	l.scheduleSave()
	return true, nil
}

// =============================================================================
// ADJUSTMENTS
// =============================================================================

// AddAdjustment appends a manual point delta. No validation on sign or
// magnitude; the delta being an integer is the whole contract.
func (l *Ledger) AddAdjustment(personID PersonID, date DateKey, delta int, note string) (Adjustment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.PersonByID(personID) == nil {
		return Adjustment{}, ErrPersonNotFound
	}
	if !date.Valid() {
		return Adjustment{}, ErrInvalidDateKey
	}
	a := Adjustment{
		ID:       AdjustmentID(uuid.NewString()),
		PersonID: personID,
		Date:     date,
		Delta:    delta,
		Note:     note,
	}
	l.state.Adjustments = append(l.state.Adjustments, a)
	l.scheduleSave()
	return a, nil
}

// =============================================================================
// SETTLEMENT
// =============================================================================

// SettlePayout settles the person's net points over [start, end], clipped
// to after the last payout. paidOn is injected by the caller so settlement
// stays clock-free. Must only be invoked after the PIN gate authorized it.
func (l *Ledger) SettlePayout(personID PersonID, start, end, paidOn DateKey, note string) (Payout, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.PersonByID(personID) == nil {
		return Payout{}, ErrPersonNotFound
	}
	if !start.Valid() || !end.Valid() || !paidOn.Valid() {
		return Payout{}, ErrInvalidDateKey
	}
	if end.Before(start) {
		return Payout{}, ErrInvalidRange
	}

	preview := ComputeSettlement(l.state, personID, start, end, l.state.Config)
	if preview.Net <= 0 {
		return Payout{}, &NothingToPayError{
			PersonID: personID,
			Start:    preview.RangeStart,
			End:      preview.RangeEnd,
			Net:      preview.Net,
		}
	}

	p := Payout{
		ID:         PayoutID(uuid.NewString()),
		PersonID:   personID,
		PaidOn:     paidOn,
		RangeStart: preview.RangeStart,
		RangeEnd:   preview.RangeEnd,
		Points:     preview.Net,
		Rate:       preview.Rate,
		Value:      preview.Value,
		RewardType: preview.RewardType,
		Note:       note,
	}
	l.state.Payouts = append(l.state.Payouts, p)

	// Self-balancing entry: cancels the paid points for any net query
	// that still spans the settled window.
	l.state.Adjustments = append(l.state.Adjustments, Adjustment{
		ID:       AdjustmentID(uuid.NewString()),
		PersonID: personID,
		Date:     preview.RangeEnd,
		Delta:    -preview.Net,
		Note:     "payout " + string(p.ID),
	})

	l.scheduleSave()
	return p, nil
}

// =============================================================================
// CONFIG
// =============================================================================

func (l *Ledger) SetRate(rate decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if rate.IsNegative() {
		return &ValidationError{Field: "moneyPerPoint", Reason: "must not be negative"}
	}
	l.state.Config.MoneyPerPoint = rate
	l.scheduleSave()
	return nil
}

func (l *Ledger) SetPayoutMode(mode PayoutMode) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !mode.Valid() {
		return &ValidationError{Field: "payoutMode", Reason: "unknown mode " + string(mode)}
	}
	l.state.Config.PayoutMode = mode
	l.scheduleSave()
	return nil
}

func (l *Ledger) SetRewardType(rt RewardType) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !rt.Valid() {
		return &ValidationError{Field: "rewardType", Reason: "unknown type " + string(rt)}
	}
	l.state.Config.RewardType = rt
	l.scheduleSave()
	return nil
}

func (l *Ledger) SetMinutesPerPoint(minutes decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if minutes.IsNegative() {
		return &ValidationError{Field: "minutesPerPoint", Reason: "must not be negative"}
	}
	l.state.Config.MinutesPerPoint = minutes
	l.scheduleSave()
	return nil
}

func (l *Ledger) SetCustomReward(name string, pointsPerReward int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if name == "" {
		return &ValidationError{Field: "customRewardName", Reason: "must not be empty"}
	}
	if pointsPerReward <= 0 {
		return &ValidationError{Field: "pointsPerReward", Reason: "must be positive"}
	}
	l.state.Config.CustomRewardName = name
	l.state.Config.PointsPerReward = pointsPerReward
	l.scheduleSave()
	return nil
}

// PINData exposes the opaque credential fields to the pingate collaborator.
func (l *Ledger) PINData() (pin, hint, question, answer string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := l.state.Config
	return c.PIN, c.PINHint, c.RecoveryQuestion, c.RecoveryAnswer
}

// SetPINData stores new credential fields on behalf of the gate.
func (l *Ledger) SetPINData(pin, hint, question, answer string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if pin == "" {
		return &ValidationError{Field: "pin", Reason: "must not be empty"}
	}
	l.state.Config.PIN = pin
	l.state.Config.PINHint = hint
	l.state.Config.RecoveryQuestion = question
	l.state.Config.RecoveryAnswer = answer
	l.scheduleSave()
	return nil
}

// =============================================================================
// IMPORT / EXPORT
// =============================================================================

// Export marshals the current state, stamped at the current schema
// version. The result round-trips through migrate.Migrate unchanged.
func (l *Ledger) Export() ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return marshalState(l.state)
}

// ReplaceState swaps in an imported, already-migrated state document.
func (l *Ledger) ReplaceState(state *State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = state
	l.scheduleSave()
}

// =============================================================================
// PERSISTENCE - debounced, fire-and-forget
// =============================================================================

// scheduleSave arms (or re-arms) the debounce timer. Callers hold l.mu.
func (l *Ledger) scheduleSave() {
	if l.docs == nil {
		return
	}
	if l.saveTimer != nil {
		l.saveTimer.Stop()
	}
	l.saveTimer = time.AfterFunc(l.saveDelay, func() {
		_ = l.Flush() // fire-and-forget; last write wins
	})
}

// Flush forces the pending write-back. After Close it is a no-op.
func (l *Ledger) Flush() error {
	if l.docs == nil {
		return nil
	}
	l.saveMu.Lock()
	defer l.saveMu.Unlock()

	l.mu.Lock()
	if l.saveTimer != nil {
		l.saveTimer.Stop()
		l.saveTimer = nil
	}
	closed := l.closed
	raw, err := marshalState(l.state)
	l.mu.Unlock()
	if err != nil || closed {
		return err
	}
	return l.docs.Save(raw)
}

// Close flushes and releases the store. Any debounce callback still in
// flight finishes (or is skipped) before the store closes.
func (l *Ledger) Close() error {
	if l.docs == nil {
		return nil
	}
	if err := l.Flush(); err != nil {
		return err
	}
	l.saveMu.Lock()
	defer l.saveMu.Unlock()

	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	return l.docs.Close()
}

func marshalState(s *State) ([]byte, error) {
	s.Schema = CurrentSchemaVersion
	return json.MarshalIndent(s, "", "  ")
}
