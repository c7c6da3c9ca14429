package ledger

// =============================================================================
// ADJUSTMENT QUERIES - Append happens through the Ledger command surface
// =============================================================================

// AdjustmentsInRange returns the person's adjustments with dates in
// [from, to], in stored (append) order.
func AdjustmentsInRange(s *State, personID PersonID, from, to DateKey) []Adjustment {
	var out []Adjustment
	for _, a := range s.Adjustments {
		if a.PersonID == personID && a.Date.AfterOrEqual(from) && a.Date.BeforeOrEqual(to) {
			out = append(out, a)
		}
	}
	return out
}

// AdjustmentSum is the commutative sum of deltas in [from, to].
func AdjustmentSum(s *State, personID PersonID, from, to DateKey) int {
	sum := 0
	for _, a := range AdjustmentsInRange(s, personID, from, to) {
		sum += a.Delta
	}
	return sum
}
