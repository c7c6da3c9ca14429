/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for the command/query surface consumed by the UI.
  These decouple the persisted document from the API contract: the
  config DTO, for example, never carries the stored PIN fields.

NAMING CONVENTION:
  - *DTO: response types returned to clients
  - *Request: request body types from clients

MONEY AND RATES:
  Decimal fields travel as strings ("0.1"), never floats, so a value
  round-trips exactly.

VALIDATION:
  Required-field validation happens in the ledger; handlers only parse.

SEE ALSO:
  - handlers.go: uses these types
  - ledger/types.go: the domain types behind them
*/
package api

import (
	"github.com/loop/chore-ledger/ledger"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

type PersonRequest struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type PersonPatchRequest struct {
	Name   *string `json:"name,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

type TaskRequest struct {
	Title      string   `json:"title"`
	Points     int      `json:"points"`
	ActiveDays []string `json:"activeDays"`
	PersonIDs  []string `json:"personIds"`
}

type TaskPatchRequest struct {
	Title      *string   `json:"title,omitempty"`
	Points     *int      `json:"points,omitempty"`
	ActiveDays *[]string `json:"activeDays,omitempty"`
	PersonIDs  *[]string `json:"personIds,omitempty"`
}

type ToggleRequest struct {
	PersonID string `json:"personId"`
	TaskID   string `json:"taskId"`
	Date     string `json:"date"`
}

type AdjustmentRequest struct {
	PersonID string `json:"personId"`
	Date     string `json:"date"`
	Delta    int    `json:"delta"`
	Note     string `json:"note,omitempty"`
}

type SettleRequest struct {
	PersonID   string `json:"personId"`
	RangeStart string `json:"rangeStart"`
	RangeEnd   string `json:"rangeEnd"`
	Note       string `json:"note,omitempty"`
}

type RateRequest struct {
	MoneyPerPoint string `json:"moneyPerPoint"`
}

type ModeRequest struct {
	PayoutMode string `json:"payoutMode"`
}

type RewardRequest struct {
	RewardType       string `json:"rewardType"`
	MinutesPerPoint  string `json:"minutesPerPoint,omitempty"`
	CustomRewardName string `json:"customRewardName,omitempty"`
	PointsPerReward  int    `json:"pointsPerReward,omitempty"`
}

type UnlockRequest struct {
	PIN string `json:"pin"`
}

type RecoverRequest struct {
	Answer string `json:"answer"`
	NewPIN string `json:"newPin"`
}

type ChangePINRequest struct {
	PIN              string `json:"pin"`
	Hint             string `json:"hint,omitempty"`
	RecoveryQuestion string `json:"recoveryQuestion,omitempty"`
	RecoveryAnswer   string `json:"recoveryAnswer,omitempty"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ConfigDTO is the client-visible config. PIN data stays server-side;
// only the hint travels, for the lock screen.
type ConfigDTO struct {
	MoneyPerPoint    string `json:"moneyPerPoint"`
	PayoutMode       string `json:"payoutMode"`
	RewardType       string `json:"rewardType"`
	MinutesPerPoint  string `json:"minutesPerPoint"`
	CustomRewardName string `json:"customRewardName"`
	PointsPerReward  int    `json:"pointsPerReward"`
	PINHint          string `json:"pinHint,omitempty"`
}

// PayoutDTO renders the frozen rate and value as strings.
type PayoutDTO struct {
	ID         string `json:"id"`
	PersonID   string `json:"personId"`
	PaidOn     string `json:"paidOn"`
	RangeStart string `json:"rangeStart"`
	RangeEnd   string `json:"rangeEnd"`
	Points     int    `json:"points"`
	Rate       string `json:"rate"`
	Value      string `json:"value"`
	RewardType string `json:"rewardType"`
	Note       string `json:"note,omitempty"`
}

// SummaryDTO is one row of the reports summary: the unpaid balance for
// one person over a range, priced at today's rate.
type SummaryDTO struct {
	PersonID         string `json:"personId"`
	RangeStart       string `json:"rangeStart"`
	RangeEnd         string `json:"rangeEnd"`
	TaskPoints       int    `json:"taskPoints"`
	StreakPoints     int    `json:"streakPoints"`
	AdjustmentPoints int    `json:"adjustmentPoints"`
	Net              int    `json:"net"`
	Rate             string `json:"rate"`
	Value            string `json:"value"`
	RewardType       string `json:"rewardType"`
}

// BoardEntryDTO is one due task on a person's day board.
type BoardEntryDTO struct {
	TaskID string `json:"taskId"`
	Title  string `json:"title"`
	Points int    `json:"points"`
	Done   bool   `json:"done"`
}

// BoardDTO is one person-day of due tasks.
type BoardDTO struct {
	PersonID string          `json:"personId"`
	Date     string          `json:"date"`
	Entries  []BoardEntryDTO `json:"entries"`
	StarDay  bool            `json:"starDay"`
}

// ToggleDTO reports the completion state after a flip.
type ToggleDTO struct {
	PersonID string `json:"personId"`
	TaskID   string `json:"taskId"`
	Date     string `json:"date"`
	Done     bool   `json:"done"`
}

// StreakAwardDTO is one earned streak bonus.
type StreakAwardDTO struct {
	Date    string `json:"date"`
	Segment int    `json:"segment"`
	Points  int    `json:"points"`
}

// AdjustmentDTO represents a ledger adjustment entry.
type AdjustmentDTO struct {
	ID       string `json:"id"`
	PersonID string `json:"personId"`
	Date     string `json:"date"`
	Delta    int    `json:"delta"`
	Note     string `json:"note,omitempty"`
}

// AuthStatusDTO reports the lock-screen prerequisites.
type AuthStatusDTO struct {
	PINHint          string `json:"pinHint,omitempty"`
	RecoveryQuestion string `json:"recoveryQuestion,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toConfigDTO(c ledger.Config) ConfigDTO {
	return ConfigDTO{
		MoneyPerPoint:    c.MoneyPerPoint.String(),
		PayoutMode:       string(c.PayoutMode),
		RewardType:       string(c.RewardType),
		MinutesPerPoint:  c.MinutesPerPoint.String(),
		CustomRewardName: c.CustomRewardName,
		PointsPerReward:  c.PointsPerReward,
		PINHint:          c.PINHint,
	}
}

func toPayoutDTO(p ledger.Payout) PayoutDTO {
	return PayoutDTO{
		ID:         string(p.ID),
		PersonID:   string(p.PersonID),
		PaidOn:     string(p.PaidOn),
		RangeStart: string(p.RangeStart),
		RangeEnd:   string(p.RangeEnd),
		Points:     p.Points,
		Rate:       p.Rate.String(),
		Value:      p.Value.String(),
		RewardType: string(p.RewardType),
		Note:       p.Note,
	}
}

func toPayoutDTOs(payouts []ledger.Payout) []PayoutDTO {
	dtos := make([]PayoutDTO, len(payouts))
	for i, p := range payouts {
		dtos[i] = toPayoutDTO(p)
	}
	return dtos
}

func toSummaryDTO(p ledger.SettlementPreview) SummaryDTO {
	return SummaryDTO{
		PersonID:         string(p.PersonID),
		RangeStart:       string(p.RangeStart),
		RangeEnd:         string(p.RangeEnd),
		TaskPoints:       p.TaskPoints,
		StreakPoints:     p.StreakPoints,
		AdjustmentPoints: p.AdjustmentPoints,
		Net:              p.Net,
		Rate:             p.Rate.String(),
		Value:            p.Value.String(),
		RewardType:       string(p.RewardType),
	}
}

func toBoardDTO(personID ledger.PersonID, date ledger.DateKey, entries []ledger.BoardEntry, star bool) BoardDTO {
	dto := BoardDTO{
		PersonID: string(personID),
		Date:     string(date),
		Entries:  make([]BoardEntryDTO, len(entries)),
		StarDay:  star,
	}
	for i, e := range entries {
		dto.Entries[i] = BoardEntryDTO{
			TaskID: string(e.Task.ID),
			Title:  e.Task.Title,
			Points: e.Task.Points,
			Done:   e.Done,
		}
	}
	return dto
}

func toStreakAwardDTOs(awards []ledger.StreakAward) []StreakAwardDTO {
	dtos := make([]StreakAwardDTO, len(awards))
	for i, a := range awards {
		dtos[i] = StreakAwardDTO{Date: string(a.Date), Segment: a.Segment, Points: a.Points}
	}
	return dtos
}

func toAdjustmentDTOs(adjs []ledger.Adjustment) []AdjustmentDTO {
	dtos := make([]AdjustmentDTO, len(adjs))
	for i, a := range adjs {
		dtos[i] = AdjustmentDTO{
			ID:       string(a.ID),
			PersonID: string(a.PersonID),
			Date:     string(a.Date),
			Delta:    a.Delta,
			Note:     a.Note,
		}
	}
	return dtos
}
