/*
Package ledger implements the points and payout ledger for recurring tasks.

PURPOSE:
  This package contains the source-of-truth records (people, tasks,
  completions, adjustments, payouts, config) and the rules that turn them
  into point totals, streak bonuses, and settled payouts. Derived values
  are never persisted - every read recomputes from the records.

KEY CONCEPTS IN THIS FILE (types.go):
  - Person/Task: who does what, and on which weekdays
  - Completion: the (person, task, date) done flag, at most one per key
  - Adjustment: an append-only manual point delta
  - Payout: a frozen settlement record (points, rate, value)
  - Config: rate, payout mode, reward type, PIN data
  - State: the single persisted document

DESIGN PRINCIPLES:
  1. Immutability: adjustments and payouts are append-only
  2. Precision: money uses decimal.Decimal, points stay integers
  3. Derivation: balances are replayed from records, never stored
  4. Explicitness: calculators take mode/config as parameters, not ambient state

SEE ALSO:
  - points.go: daily points and star-day predicate
  - streak.go: consecutive star-day bonuses
  - settlement.go: effective-range payout settlement
  - ledger.go: the single-writer command surface
*/
package ledger

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type PersonID string
type TaskID string
type AdjustmentID string
type PayoutID string

// =============================================================================
// PEOPLE AND TASKS
// =============================================================================

// Person is someone tasks are assigned to. Name and avatar may be edited;
// the id is stable once completions or adjustments reference it.
type Person struct {
	ID     PersonID `json:"id"`
	Name   string   `json:"name"`
	Avatar string   `json:"avatar"`
}

// Task is a recurring assignment. Edits apply to future eligibility only:
// past completions stay keyed by task id, and the point value read for a
// past day is whatever the task holds at query time.
type Task struct {
	ID         TaskID     `json:"id"`
	Title      string     `json:"title"`
	Points     int        `json:"points"`
	ActiveDays []Weekday  `json:"activeDays"`
	Assignees  []PersonID `json:"personIds"`
}

// ActiveOn reports whether the task is due on the given weekday.
func (t Task) ActiveOn(w Weekday) bool {
	for _, d := range t.ActiveDays {
		if d == w {
			return true
		}
	}
	return false
}

// AssignedTo reports whether the task is assigned to the given person.
func (t Task) AssignedTo(id PersonID) bool {
	for _, p := range t.Assignees {
		if p == id {
			return true
		}
	}
	return false
}

// =============================================================================
// LEDGER RECORDS
// =============================================================================

// Completion is the done flag for one (person, task, date) key.
// At most one record exists per key; toggling flips Done in place.
type Completion struct {
	PersonID PersonID `json:"personId"`
	TaskID   TaskID   `json:"taskId"`
	Date     DateKey  `json:"date"`
	Done     bool     `json:"done"`
}

// Adjustment is an append-only manual point delta. Settlement also appends
// a compensating adjustment so generic net-point queries over an already
// settled window do not double count paid points.
type Adjustment struct {
	ID       AdjustmentID `json:"id"`
	PersonID PersonID     `json:"personId"`
	Date     DateKey      `json:"date"`
	Delta    int          `json:"delta"`
	Note     string       `json:"note,omitempty"`
}

// Payout is an immutable settlement record. Rate and value are frozen at
// creation; later config changes never touch them.
type Payout struct {
	ID         PayoutID        `json:"id"`
	PersonID   PersonID        `json:"personId"`
	PaidOn     DateKey         `json:"paidOn"`
	RangeStart DateKey         `json:"rangeStart"`
	RangeEnd   DateKey         `json:"rangeEnd"`
	Points     int             `json:"points"`
	Rate       decimal.Decimal `json:"rate"`
	Value      decimal.Decimal `json:"value"`
	RewardType RewardType      `json:"rewardType"`
	Note       string          `json:"note,omitempty"`
}

// =============================================================================
// CONFIG
// =============================================================================

// PayoutMode selects how a day's points are earned.
type PayoutMode string

const (
	// ModeAllDone pays the full eligible sum only when every eligible task
	// is done; partial completion earns nothing.
	ModeAllDone PayoutMode = "all_done"

	// ModePerTask pays each completed eligible task independently.
	ModePerTask PayoutMode = "per_task"
)

func (m PayoutMode) Valid() bool { return m == ModeAllDone || m == ModePerTask }

// RewardType selects the unit a payout's value is denominated in.
type RewardType string

const (
	RewardMoney  RewardType = "money"
	RewardTime   RewardType = "time"
	RewardCustom RewardType = "custom"
)

func (r RewardType) Valid() bool {
	return r == RewardMoney || r == RewardTime || r == RewardCustom
}

// Defaults applied by migration and fresh state.
var (
	DefaultMoneyPerPoint   = decimal.RequireFromString("0.1")
	DefaultMinutesPerPoint = decimal.NewFromInt(5)
	DefaultPointsPerReward = 10
)

const (
	DefaultPIN              = "1234"
	DefaultCustomRewardName = "reward"
	DefaultPayoutMode       = ModeAllDone
	DefaultRewardType       = RewardMoney
)

// Config is the global ledger configuration. The PIN fields are opaque to
// the ledger's arithmetic; the pingate package interprets them.
type Config struct {
	MoneyPerPoint    decimal.Decimal `json:"moneyPerPoint"`
	PayoutMode       PayoutMode      `json:"payoutMode"`
	RewardType       RewardType      `json:"rewardType"`
	MinutesPerPoint  decimal.Decimal `json:"minutesPerPoint"`
	CustomRewardName string          `json:"customRewardName"`
	PointsPerReward  int             `json:"pointsPerReward"`

	PIN              string `json:"pin"`
	PINHint          string `json:"pinHint,omitempty"`
	RecoveryQuestion string `json:"recoveryQuestion,omitempty"`
	RecoveryAnswer   string `json:"recoveryAnswer,omitempty"`
}

// DefaultConfig returns the documented field defaults.
func DefaultConfig() Config {
	return Config{
		MoneyPerPoint:    DefaultMoneyPerPoint,
		PayoutMode:       DefaultPayoutMode,
		RewardType:       DefaultRewardType,
		MinutesPerPoint:  DefaultMinutesPerPoint,
		CustomRewardName: DefaultCustomRewardName,
		PointsPerReward:  DefaultPointsPerReward,
		PIN:              DefaultPIN,
	}
}

// PerPointRate returns the frozen-at-settlement rate for the active reward
// type: money per point, minutes per point, or rewards per point.
func (c Config) PerPointRate() decimal.Decimal {
	switch c.RewardType {
	case RewardTime:
		return c.MinutesPerPoint
	case RewardCustom:
		if c.PointsPerReward <= 0 {
			return decimal.Zero
		}
		return decimal.NewFromInt(1).Div(decimal.NewFromInt(int64(c.PointsPerReward)))
	default:
		return c.MoneyPerPoint
	}
}

// =============================================================================
// STATE - The persisted document
// =============================================================================

// CurrentSchemaVersion is stamped on every persisted document.
// History: v1 pre-versioning, v2 original "children"-keyed schema,
// v3 renames children to people and adds reward type config.
const CurrentSchemaVersion = 3

// State is the single source-of-truth document. Everything else in this
// package is derived from it on read.
type State struct {
	Schema      int          `json:"schema"`
	People      []Person     `json:"people"`
	Tasks       []Task       `json:"tasks"`
	Completions []Completion `json:"completions"`
	Adjustments []Adjustment `json:"adjustments"`
	Payouts     []Payout     `json:"payouts"`
	Config      Config       `json:"config"`
}

// NewState returns a fresh empty state at the current schema version.
func NewState() *State {
	return &State{
		Schema:      CurrentSchemaVersion,
		People:      []Person{},
		Tasks:       []Task{},
		Completions: []Completion{},
		Adjustments: []Adjustment{},
		Payouts:     []Payout{},
		Config:      DefaultConfig(),
	}
}

// PersonByID returns the person, or nil if the id is unknown.
func (s *State) PersonByID(id PersonID) *Person {
	for i := range s.People {
		if s.People[i].ID == id {
			return &s.People[i]
		}
	}
	return nil
}

// TaskByID returns the task, or nil if the id is unknown.
func (s *State) TaskByID(id TaskID) *Task {
	for i := range s.Tasks {
		if s.Tasks[i].ID == id {
			return &s.Tasks[i]
		}
	}
	return nil
}

// HasHistory reports whether any completion, adjustment, or payout
// references the person. Person deletion is forbidden while this is true.
func (s *State) HasHistory(id PersonID) bool {
	for _, c := range s.Completions {
		if c.PersonID == id {
			return true
		}
	}
	for _, a := range s.Adjustments {
		if a.PersonID == id {
			return true
		}
	}
	for _, p := range s.Payouts {
		if p.PersonID == id {
			return true
		}
	}
	return false
}
