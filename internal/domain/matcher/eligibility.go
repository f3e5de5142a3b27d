package matcher

import "time"

// IsEligible reports whether a transaction on txDate could pay the bill's
// current occurrence.
//
// Unpaid bills accept any date. A paid bill only accepts transactions strictly
// after its last payment, so the next cycle can still be recognized. A paid bill
// with no recorded payment date accepts nothing.
func IsEligible(bill *Bill, txDate time.Time) bool {
	if !bill.IsPaid {
		return true
	}

	lastPaid, ok := bill.LastPaidDate.Get()
	if !ok {
		return false
	}

	return daysBetween(lastPaid, txDate) > 0
}
