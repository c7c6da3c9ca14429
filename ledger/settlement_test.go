package ledger_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loop/chore-ledger/ledger"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var (
	friday = ledger.DateKey("2025-03-14")
	paidOn = ledger.DateKey("2025-03-15")
)

// newSettlementLedger builds an in-memory ledger over a fully completed
// Mon-Fri school week: 6 points/day, 30 points over the window.
func newSettlementLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	s := newHouseholdState()
	for _, d := range ledger.DateRange(monday, friday) {
		completeDay(s, alexID, d)
	}
	return ledger.New(s, nil)
}

// =============================================================================
// EFFECTIVE RANGE TESTS
// =============================================================================

func TestEffectiveRange_NoPriorPayout_Unclipped(t *testing.T) {
	// GIVEN: No prior payout
	// WHEN: Resolving the effective range
	// THEN: The requested range is used as-is

	s := newHouseholdState()

	start, end, ok := ledger.EffectiveRange(s, alexID, monday, friday)
	require.True(t, ok)
	assert.Equal(t, monday, start)
	assert.Equal(t, friday, end)
}

func TestEffectiveRange_ClipsToAfterLastPayout(t *testing.T) {
	// GIVEN: A payout already covering Mon-Wed
	// WHEN: Requesting Mon-Fri again
	// THEN: The effective range starts Thursday

	s := newHouseholdState()
	s.Payouts = []ledger.Payout{{
		ID: "p1", PersonID: alexID,
		RangeStart: monday, RangeEnd: ledger.DateKey("2025-03-12"),
	}}

	start, end, ok := ledger.EffectiveRange(s, alexID, monday, friday)
	require.True(t, ok)
	assert.Equal(t, ledger.DateKey("2025-03-13"), start)
	assert.Equal(t, friday, end)
}

func TestEffectiveRange_NeverMovesStartEarlier(t *testing.T) {
	// GIVEN: A payout ending well before the requested start
	// WHEN: Resolving the effective range
	// THEN: The requested start is kept, not pulled back to the payout

	s := newHouseholdState()
	s.Payouts = []ledger.Payout{{
		ID: "p1", PersonID: alexID,
		RangeStart: "2025-02-01", RangeEnd: "2025-02-28",
	}}

	start, _, ok := ledger.EffectiveRange(s, alexID, monday, friday)
	require.True(t, ok)
	assert.Equal(t, monday, start)
}

func TestEffectiveRange_FullyCoveredRangeIsEmpty(t *testing.T) {
	// GIVEN: A payout covering the entire requested range
	// WHEN: Resolving the effective range
	// THEN: ok is false; there is nothing left to settle

	s := newHouseholdState()
	s.Payouts = []ledger.Payout{{
		ID: "p1", PersonID: alexID,
		RangeStart: monday, RangeEnd: friday,
	}}

	_, _, ok := ledger.EffectiveRange(s, alexID, monday, friday)
	assert.False(t, ok)
}

// =============================================================================
// SETTLEMENT TESTS
// =============================================================================

func TestSettlePayout_FullWeekAtDefaultRate(t *testing.T) {
	// GIVEN: A fully completed Mon-Fri week of 6-point days
	// WHEN: Settling Mon-Fri at the default money rate
	// THEN: 30 points pay out 3.00 in money

	l := newSettlementLedger(t)

	p, err := l.SettlePayout(alexID, monday, friday, paidOn, "week 11")
	require.NoError(t, err)

	assert.Equal(t, 30, p.Points)
	assert.True(t, p.Rate.Equal(decimal.RequireFromString("0.1")), "rate %s", p.Rate)
	assert.True(t, p.Value.Equal(decimal.RequireFromString("3")), "value %s", p.Value)
	assert.Equal(t, ledger.RewardMoney, p.RewardType)
	assert.Equal(t, paidOn, p.PaidOn)
	assert.Equal(t, "week 11", p.Note)
}

func TestSettlePayout_SecondSettlementNetsNothing(t *testing.T) {
	// GIVEN: Mon-Fri already settled
	// WHEN: Settling the same range again
	// THEN: ErrNothingToPay; no second payout is recorded

	l := newSettlementLedger(t)
	_, err := l.SettlePayout(alexID, monday, friday, paidOn, "")
	require.NoError(t, err)

	_, err = l.SettlePayout(alexID, monday, friday, paidOn, "")
	require.ErrorIs(t, err, ledger.ErrNothingToPay)

	var npe *ledger.NothingToPayError
	require.ErrorAs(t, err, &npe)
	assert.Equal(t, alexID, npe.PersonID)

	payouts, err := l.PayoutHistory(alexID)
	require.NoError(t, err)
	assert.Len(t, payouts, 1)
}

func TestSettlePayout_RateFrozenAgainstLaterChanges(t *testing.T) {
	// GIVEN: A payout settled at the default rate
	// WHEN: The rate changes afterwards
	// THEN: The stored payout is untouched; the next settlement uses the
	//       new rate

	l := newSettlementLedger(t)
	first, err := l.SettlePayout(alexID, monday, ledger.DateKey("2025-03-12"), paidOn, "")
	require.NoError(t, err)

	require.NoError(t, l.SetRate(decimal.RequireFromString("0.5")))

	second, err := l.SettlePayout(alexID, monday, friday, paidOn, "")
	require.NoError(t, err)

	payouts, err := l.PayoutHistory(alexID)
	require.NoError(t, err)
	require.Len(t, payouts, 2)
	assert.True(t, payouts[0].Rate.Equal(first.Rate), "first payout keeps its frozen rate")
	assert.True(t, second.Rate.Equal(decimal.RequireFromString("0.5")))
	// Thu+Fri = 12 points at 0.5
	assert.Equal(t, 12, second.Points)
	assert.True(t, second.Value.Equal(decimal.RequireFromString("6")))
}

func TestSettlePayout_AppendsCompensatingAdjustment(t *testing.T) {
	// GIVEN: A settled Mon-Fri payout of 30 points
	// WHEN: Inspecting the adjustment log
	// THEN: A -30 adjustment dated at the range end references the payout,
	//       so an unclipped net over the window self-balances to zero

	l := newSettlementLedger(t)
	p, err := l.SettlePayout(alexID, monday, friday, paidOn, "")
	require.NoError(t, err)

	adjs, err := l.AdjustmentLog(alexID, monday, friday)
	require.NoError(t, err)
	require.Len(t, adjs, 1)
	assert.Equal(t, -30, adjs[0].Delta)
	assert.Equal(t, friday, adjs[0].Date)
	assert.Contains(t, adjs[0].Note, string(p.ID))

	snap := l.Snapshot()
	raw := 0
	for _, d := range ledger.DateRange(monday, friday) {
		raw += ledger.DailyPoints(&snap, alexID, d, snap.Config.PayoutMode)
	}
	raw += ledger.AdjustmentSum(&snap, alexID, monday, friday)
	assert.Zero(t, raw, "paid points cancel against the compensating entry")
}

func TestSettlePayout_InvalidInputs(t *testing.T) {
	// GIVEN: A ledger with history
	// WHEN: Settling with bad person, dates, or an inverted range
	// THEN: The matching sentinel is returned and nothing is recorded

	l := newSettlementLedger(t)

	_, err := l.SettlePayout("ghost", monday, friday, paidOn, "")
	assert.ErrorIs(t, err, ledger.ErrPersonNotFound)

	_, err = l.SettlePayout(alexID, "not-a-date", friday, paidOn, "")
	assert.ErrorIs(t, err, ledger.ErrInvalidDateKey)

	_, err = l.SettlePayout(alexID, friday, monday, paidOn, "")
	assert.ErrorIs(t, err, ledger.ErrInvalidRange)

	payouts, err := l.PayoutHistory(alexID)
	require.NoError(t, err)
	assert.Empty(t, payouts)
}

func TestComputeSettlement_PerTaskModeAndAdjustments(t *testing.T) {
	// GIVEN: A half-done week in per_task mode plus a +5 adjustment
	// WHEN: Computing the preview
	// THEN: Task, streak, and adjustment components are reported separately

	s := newHouseholdState()
	s.Config.PayoutMode = ledger.ModePerTask
	complete(s, alexID, bedID, monday)     // 1
	complete(s, alexID, readingID, monday) // 3
	complete(s, alexID, dishesID, tuesday) // 2
	s.Adjustments = append(s.Adjustments, ledger.Adjustment{
		ID: "a1", PersonID: alexID, Date: tuesday, Delta: 5, Note: "helped with groceries",
	})

	preview := ledger.ComputeSettlement(s, alexID, monday, friday, s.Config)

	assert.Equal(t, 6, preview.TaskPoints)
	assert.Equal(t, 0, preview.StreakPoints)
	assert.Equal(t, 5, preview.AdjustmentPoints)
	assert.Equal(t, 11, preview.Net)
}

func TestComputeSettlement_TimeRewardUsesMinutesRate(t *testing.T) {
	// GIVEN: A fully completed week with the time reward active
	// WHEN: Computing the preview
	// THEN: The value is net points times minutes-per-point

	s := newHouseholdState()
	for _, d := range ledger.DateRange(monday, friday) {
		completeDay(s, alexID, d)
	}
	s.Config.RewardType = ledger.RewardTime

	preview := ledger.ComputeSettlement(s, alexID, monday, friday, s.Config)

	assert.Equal(t, 30, preview.Net)
	assert.Equal(t, ledger.RewardTime, preview.RewardType)
	assert.True(t, preview.Value.Equal(decimal.NewFromInt(150)), "30 points x 5 min, got %s", preview.Value)
}
