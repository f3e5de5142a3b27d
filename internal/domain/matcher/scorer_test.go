package matcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// openSettings keeps every pair so individual signals can be observed.
func openSettings() Settings {
	s := DefaultSettings()
	s.MinMatchScore = 0
	return s
}

func TestScore_ExactEverything(t *testing.T) {
	bill := makeBill("netflix", "Netflix", "15.99")
	bill.Category = Some("Entertainment")
	bill.DueDate = Some(day(2024, 3, 10))
	tx := makeTransaction("tx", "  NETFLIX ", "-15.99", day(2024, 3, 10))
	tx.Category = Some("entertainment")

	score, reasons, ok := Score(tx, bill, DefaultSettings())

	assert.True(t, ok)
	assert.Equal(t, 40+30+30+10+10, score)
	assert.Equal(t, []string{
		"Exact name match",
		"Category match",
		"Exact amount match",
		"Bonus: exact name + exact amount match",
		"Date within 0 days of due date",
	}, reasons)
}

func TestScore_NameTiers(t *testing.T) {
	tests := []struct {
		name       string
		billName   string
		txDesc     string
		wantPoints int
		wantReason string
	}{
		{"exact after normalization", "Netflix", "netflix", 40, "Exact name match"},
		{"transaction contains bill", "Netflix", "NETFLIX.COM subscription", 30, "Partial name match"},
		{"bill contains transaction", "Spotify Premium Family", "spotify", 30, "Partial name match"},
		{"token overlap above half", "City Water Utility", "water utility payment city", 20, "Fuzzy name match (75%)"},
		{"token overlap exactly half", "Gym Membership", "Gym fees", 0, ""},
		{"nothing in common", "Rent", "Coffee", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bill := makeBill("b", tt.billName, "10.00")
			tx := makeTransaction("tx", tt.txDesc, "-999.00", day(2024, 3, 1))

			score, reasons, _ := Score(tx, bill, openSettings())

			assert.Equal(t, tt.wantPoints, score)
			if tt.wantReason == "" {
				assert.Empty(t, reasons)
			} else {
				assert.Equal(t, []string{tt.wantReason}, reasons)
			}
		})
	}
}

func TestScore_NameFallsBackToDescription(t *testing.T) {
	bill := &Bill{ID: "b", Description: Some("Car Insurance"), Amount: amount("10")}
	tx := makeTransaction("tx", "car insurance", "-999", day(2024, 3, 1))

	score, reasons, _ := Score(tx, bill, openSettings())

	assert.Equal(t, 40, score)
	assert.Equal(t, []string{"Exact name match"}, reasons)
}

func TestScore_CategoryAndRecipient(t *testing.T) {
	tests := []struct {
		name      string
		billCat   Optional[string]
		txCat     Optional[string]
		billRecip Optional[string]
		txRecip   Optional[string]
		want      int
	}{
		{"exact category", Some("Utilities"), Some("utilities"), None[string](), None[string](), 30},
		{"partial category", Some("Utilities"), Some("Utilities:Water"), None[string](), None[string](), 15},
		{"category on one side only", Some("Utilities"), None[string](), None[string](), None[string](), 0},
		{"blank categories", Some(""), Some("  "), None[string](), None[string](), 0},
		{"exact recipient", None[string](), None[string](), Some("ACME Corp"), Some("acme corp"), 20},
		{"partial recipient", None[string](), None[string](), Some("ACME"), Some("ACME Corp Ltd"), 10},
		{"both exact", Some("Utilities"), Some("Utilities"), Some("ACME"), Some("ACME"), 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bill := makeBill("b", "Alpha", "10.00")
			bill.Category = tt.billCat
			bill.RecipientName = tt.billRecip
			tx := makeTransaction("tx", "Omega", "-999.00", day(2024, 3, 1))
			tx.Category = tt.txCat
			tx.RecipientName = tt.txRecip

			score, _, _ := Score(tx, bill, openSettings())

			assert.Equal(t, tt.want, score)
		})
	}
}

func TestScore_AmountTiers(t *testing.T) {
	tests := []struct {
		name     string
		billAmt  string
		txAmt    string
		want     int
		wantText string
	}{
		{"exact", "100.00", "-100.00", 30, "Exact amount match"},
		{"exact ignores sign on bill", "-100.00", "-100", 30, "Exact amount match"},
		{"within tolerance", "100.00", "-109.00", 15, "Amount within 10% tolerance"},
		{"on tolerance boundary", "100.00", "-90.00", 15, "Amount within 10% tolerance"},
		{"within double tolerance", "100.00", "-115.00", 8, "Amount within 20%"},
		{"too far", "100.00", "-125.00", 0, ""},
		{"zero bill amount", "0", "-5.00", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bill := makeBill("b", "Alpha", tt.billAmt)
			tx := makeTransaction("tx", "Omega", tt.txAmt, day(2024, 3, 1))

			score, reasons, _ := Score(tx, bill, openSettings())

			assert.Equal(t, tt.want, score)
			if tt.wantText != "" {
				assert.Equal(t, []string{tt.wantText}, reasons)
			}
		})
	}
}

func TestScore_BonusNeedsExactNameAndAmount(t *testing.T) {
	bill := makeBill("b", "Netflix", "15.99")

	partial := makeTransaction("tx1", "Netflix Inc", "-15.99", day(2024, 3, 1))
	score, reasons, _ := Score(partial, bill, openSettings())
	assert.Equal(t, 60, score)
	assert.NotContains(t, reasons, "Bonus: exact name + exact amount match")

	offAmount := makeTransaction("tx2", "Netflix", "-16.99", day(2024, 3, 1))
	score, _, _ = Score(offAmount, bill, openSettings())
	assert.Equal(t, 40+15, score)
}

func TestScore_DateProximity(t *testing.T) {
	due := day(2024, 3, 15)

	tests := []struct {
		name     string
		interval Interval
		txDate   [3]int
		want     int
	}{
		{"monthly same day", IntervalMonthly, [3]int{2024, 3, 15}, 10},
		{"monthly 3 days late", IntervalMonthly, [3]int{2024, 3, 18}, 7},
		{"monthly 3 days early", IntervalMonthly, [3]int{2024, 3, 12}, 7},
		{"monthly at tolerance", IntervalMonthly, [3]int{2024, 3, 22}, 3},
		{"monthly within double tolerance", IntervalMonthly, [3]int{2024, 3, 25}, 2},
		{"monthly beyond double tolerance", IntervalMonthly, [3]int{2024, 3, 30}, 0},
		{"absent interval uses settings", "", [3]int{2024, 3, 20}, 5},
		{"weekly within 3", IntervalWeekly, [3]int{2024, 3, 17}, 8},
		{"weekly 4 days is somewhat close", IntervalWeekly, [3]int{2024, 3, 19}, 2},
		{"weekly 7 days is too far", IntervalWeekly, [3]int{2024, 3, 22}, 0},
		{"yearly 20 days decays to zero", IntervalYearly, [3]int{2024, 4, 4}, 0},
		{"yearly 45 days is somewhat close", IntervalYearly, [3]int{2024, 4, 29}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bill := makeBill("b", "Alpha", "10.00")
			bill.Interval = tt.interval
			bill.DueDate = Some(due)
			tx := makeTransaction("tx", "Omega", "-999.00", day(tt.txDate[0], time.Month(tt.txDate[1]), tt.txDate[2]))

			score, reasons, _ := Score(tx, bill, openSettings())

			assert.Equal(t, tt.want, score)
			if tt.want == 0 {
				assert.Empty(t, reasons)
			}
		})
	}
}

func TestScore_NoDueDate_SkipsDateSignal(t *testing.T) {
	bill := makeBill("b", "Rent", "1500")
	tx := makeTransaction("tx", "Rent", "-1500", day(2030, 1, 1))

	score, _, ok := Score(tx, bill, DefaultSettings())

	assert.True(t, ok)
	assert.Equal(t, 80, score)
}

func TestScore_BelowMinimumIsDiscarded(t *testing.T) {
	bill := makeBill("b", "Rent", "1500")
	bill.Category = Some("Home")
	tx := makeTransaction("tx", "Groceries", "-20", day(2024, 3, 1))
	tx.Category = Some("Home Improvement")

	score, _, ok := Score(tx, bill, DefaultSettings())

	assert.False(t, ok)
	assert.Equal(t, 15, score)
}

func TestScore_AddingExactSignalNeverLowersScore(t *testing.T) {
	bill := makeBill("b", "City Water Utility", "50.00")
	bill.Category = Some("Utilities")
	bill.DueDate = Some(day(2024, 3, 1))

	variants := []string{"Coffee", "water utility payment city", "City Water", "City Water Utility"}
	previous := -1
	for _, desc := range variants {
		tx := makeTransaction("tx", desc, "-50.00", day(2024, 3, 3))
		tx.Category = Some("Utilities")

		score, _, _ := Score(tx, bill, openSettings())

		assert.GreaterOrEqual(t, score, previous, "description %q", desc)
		previous = score
	}
}
