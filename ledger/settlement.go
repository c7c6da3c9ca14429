/*
settlement.go - Payout settlement over an effective range

PURPOSE:
  Converts net points over a window into a frozen payout record. The
  requested range is first clipped to the day after the person's most
  recent prior payout, so a stale start date can never re-pay settled days.

INVARIANTS:
  - A payout's rate and value are frozen at creation. Later rate or reward
    changes never alter a stored payout.
  - net <= 0 is a no-op condition (ErrNothingToPay), not a failure.
  - Settlement appends a compensating adjustment of -net dated at the
    effective range end, so net-point queries over an already settled
    window do not double count paid points.

AUTHORIZATION:
  Settlement must be gated by the external PIN collaborator before it is
  invoked. The ledger trusts its caller and does not re-check.
*/
package ledger

import "github.com/shopspring/decimal"

// =============================================================================
// EFFECTIVE RANGE
// =============================================================================

// EffectiveRange clips [start, end] to begin the day after the person's
// most recent prior payout whose range end is on or before end. The clip
// never moves the start earlier than requested. ok is false when the
// clipped range is empty (everything already settled).
func EffectiveRange(s *State, personID PersonID, start, end DateKey) (DateKey, DateKey, bool) {
	if end.Before(start) {
		return start, end, false
	}

	var lastEnd DateKey
	for _, p := range s.Payouts {
		if p.PersonID != personID || p.RangeEnd.After(end) {
			continue
		}
		if p.RangeEnd.After(lastEnd) {
			lastEnd = p.RangeEnd
		}
	}

	if lastEnd != "" {
		if clip := lastEnd.Next(); clip.After(start) {
			start = clip
		}
	}
	return start, end, start.BeforeOrEqual(end)
}

// =============================================================================
// SETTLEMENT COMPUTATION
// =============================================================================

// SettlementPreview is the derived breakdown for an effective range. It is
// what the summary view shows and what Settle freezes into a payout.
type SettlementPreview struct {
	PersonID         PersonID        `json:"personId"`
	RangeStart       DateKey         `json:"rangeStart"`
	RangeEnd         DateKey         `json:"rangeEnd"`
	TaskPoints       int             `json:"taskPoints"`
	StreakPoints     int             `json:"streakPoints"`
	AdjustmentPoints int             `json:"adjustmentPoints"`
	Net              int             `json:"net"`
	Rate             decimal.Decimal `json:"rate"`
	Value            decimal.Decimal `json:"value"`
	RewardType       RewardType      `json:"rewardType"`
}

// ComputeSettlement derives the point breakdown for the person's effective
// range under the given config. Pure; order-independent over the inputs.
func ComputeSettlement(s *State, personID PersonID, start, end DateKey, cfg Config) SettlementPreview {
	effStart, effEnd, ok := EffectiveRange(s, personID, start, end)
	preview := SettlementPreview{
		PersonID:   personID,
		RangeStart: effStart,
		RangeEnd:   effEnd,
		Rate:       cfg.PerPointRate(),
		RewardType: cfg.RewardType,
		Value:      decimal.Zero,
	}
	if !ok {
		return preview
	}

	days := DateRange(effStart, effEnd)
	for _, d := range days {
		preview.TaskPoints += DailyPoints(s, personID, d, cfg.PayoutMode)
	}
	for _, aw := range StreakAwards(s, personID, days, DefaultStreakSegment, DefaultStreakBonus) {
		preview.StreakPoints += aw.Points
	}
	preview.AdjustmentPoints = AdjustmentSum(s, personID, effStart, effEnd)

	preview.Net = preview.TaskPoints + preview.StreakPoints + preview.AdjustmentPoints
	preview.Value = decimal.NewFromInt(int64(preview.Net)).Mul(preview.Rate)
	return preview
}
