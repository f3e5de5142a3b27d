package matcher

import "time"

// Day offsets per interval. These are plain day counts, so a monthly bill due
// on Jan 15 rolls to Feb 14, not Feb 15.
const (
	weeklyOffsetDays  = 7
	monthlyOffsetDays = 30
	yearlyOffsetDays  = 365
)

// NextDueDate returns when the bill is next expected after a payment on
// paymentDate. The bill's current due date is the base when known.
func NextDueDate(bill *Bill, paymentDate time.Time) time.Time {
	base := bill.DueDate.OrElse(paymentDate)

	offset := monthlyOffsetDays
	switch bill.Interval.Effective() {
	case IntervalWeekly:
		offset = weeklyOffsetDays
	case IntervalYearly:
		offset = yearlyOffsetDays
	}

	return calendarDate(base).AddDate(0, 0, offset)
}
