package matcher

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Point budget per signal
const (
	exactNamePoints   = 40
	partialNamePoints = 30
	fuzzyNamePoints   = 20
	fuzzyNameMinRatio = 0.5

	exactCategoryPoints   = 30
	partialCategoryPoints = 15

	exactRecipientPoints   = 20
	partialRecipientPoints = 10

	exactAmountPoints   = 30
	closeAmountPoints   = 15
	nearAmountPoints    = 8
	exactComboBonus     = 10
	maxDatePoints       = 10
	somewhatCloseDate   = 2
	weeklyDateTolerance = 3
	yearlyDateTolerance = 30
)

var hundred = decimal.NewFromInt(100)

// textTier is how well two free-text fields agree.
type textTier int

const (
	tierNone textTier = iota
	tierPartial
	tierExact
)

// compareText compares two optional fields after normalization.
// Absent or blank fields never match.
func compareText(a, b Optional[string]) textTier {
	va, okA := a.Get()
	vb, okB := b.Get()
	if !okA || !okB {
		return tierNone
	}

	na, nb := Normalize(va), Normalize(vb)
	if na == "" || nb == "" {
		return tierNone
	}
	if na == nb {
		return tierExact
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return tierPartial
	}
	return tierNone
}

// Score rates how likely tx is the payment of bill.
//
// It returns the points, the reasons that contributed them, and false when the
// total falls below settings.MinMatchScore, in which case the pair should be
// dropped. Callers are expected to have checked IsEligible first.
func Score(tx *Transaction, bill *Bill, settings Settings) (int, []string, bool) {
	points := 0
	var reasons []string

	// Name
	exactName := false
	billName := Normalize(bill.displayName())
	txName := Normalize(tx.Description)
	if billName != "" && txName != "" {
		switch {
		case billName == txName:
			points += exactNamePoints
			reasons = append(reasons, "Exact name match")
			exactName = true
		case strings.Contains(billName, txName) || strings.Contains(txName, billName):
			points += partialNamePoints
			reasons = append(reasons, "Partial name match")
		default:
			ratio := tokenOverlap(billName, txName)
			if ratio > fuzzyNameMinRatio {
				points += fuzzyNamePoints
				reasons = append(reasons, fmt.Sprintf("Fuzzy name match (%d%%)", int(math.Round(ratio*100))))
			}
		}
	}

	// Category
	switch compareText(bill.Category, tx.Category) {
	case tierExact:
		points += exactCategoryPoints
		reasons = append(reasons, "Category match")
	case tierPartial:
		points += partialCategoryPoints
		reasons = append(reasons, "Partial category match")
	}

	// Recipient
	switch compareText(bill.RecipientName, tx.RecipientName) {
	case tierExact:
		points += exactRecipientPoints
		reasons = append(reasons, "Recipient match")
	case tierPartial:
		points += partialRecipientPoints
		reasons = append(reasons, "Partial recipient match")
	}

	// Amount
	billAmount := bill.Amount.Abs()
	txAmount := tx.Amount.Abs()
	exactAmount := billAmount.Equal(txAmount)
	if exactAmount {
		points += exactAmountPoints
		reasons = append(reasons, "Exact amount match")
	} else if !billAmount.IsZero() {
		diffPercent := billAmount.Sub(txAmount).Abs().Div(billAmount).Mul(hundred)
		tolerance := decimal.NewFromFloat(settings.AmountTolerance)
		switch {
		case diffPercent.LessThanOrEqual(tolerance):
			points += closeAmountPoints
			reasons = append(reasons, fmt.Sprintf("Amount within %s%% tolerance", tolerance.String()))
		case diffPercent.LessThanOrEqual(tolerance.Mul(decimal.NewFromInt(2))):
			points += nearAmountPoints
			reasons = append(reasons, fmt.Sprintf("Amount within %s%%", tolerance.Mul(decimal.NewFromInt(2)).String()))
		}
	}

	if exactName && exactAmount {
		points += exactComboBonus
		reasons = append(reasons, "Bonus: exact name + exact amount match")
	}

	// Due date proximity
	if due, ok := bill.DueDate.Get(); ok {
		daysDiff := absInt(daysBetween(due, tx.Date))
		tolerance := dateTolerance(bill.Interval, settings)
		switch {
		case daysDiff <= tolerance:
			if datePoints := maxDatePoints - daysDiff; datePoints > 0 {
				points += datePoints
				reasons = append(reasons, fmt.Sprintf("Date within %d days of due date", daysDiff))
			}
		case daysDiff <= 2*tolerance:
			points += somewhatCloseDate
			reasons = append(reasons, fmt.Sprintf("Date somewhat close to due date (%d days)", daysDiff))
		}
	}

	if points < settings.MinMatchScore {
		return points, reasons, false
	}
	return points, reasons, true
}

// dateTolerance is how many days from the due date still count as close.
func dateTolerance(interval Interval, settings Settings) int {
	switch interval {
	case IntervalWeekly:
		return weeklyDateTolerance
	case IntervalYearly:
		return yearlyDateTolerance
	default:
		return settings.DateToleranceDays
	}
}
