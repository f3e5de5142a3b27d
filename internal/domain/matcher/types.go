package matcher

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoIdentity is returned when a transaction has no ID and no content
	// from which a fallback identity could be derived.
	ErrNoIdentity = errors.New("transaction has no id and no content to derive one from")

	// ErrMissingBillID is returned when a bill has an empty ID.
	ErrMissingBillID = errors.New("bill has no id")
)

// Optional holds a value that may be absent.
// The zero value is absent.
type Optional[T any] struct {
	value T
	ok    bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, ok: true}
}

// None returns an absent Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.ok
}

// IsSet reports whether a value is present.
func (o Optional[T]) IsSet() bool {
	return o.ok
}

// OrElse returns the value, or fallback when absent.
func (o Optional[T]) OrElse(fallback T) T {
	if o.ok {
		return o.value
	}
	return fallback
}

// Interval is how often a bill recurs.
type Interval string

const (
	IntervalWeekly  Interval = "weekly"
	IntervalMonthly Interval = "monthly"
	IntervalYearly  Interval = "yearly"
)

// Effective returns the interval, defaulting to monthly when unset.
func (i Interval) Effective() Interval {
	if i == "" {
		return IntervalMonthly
	}
	return i
}

// TransactionType tags a transaction as money in or money out.
// The empty value means the type was not recorded.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Bill is a recurring obligation the user tracks (rent, a subscription, ...).
type Bill struct {
	ID            string
	Name          string
	Description   Optional[string]
	Category      Optional[string]
	RecipientName Optional[string]
	Amount        decimal.Decimal // Sign is ignored, only magnitude is compared
	Interval      Interval

	// DueDate is the expected date of the next unpaid occurrence
	DueDate Optional[time.Time]

	IsPaid       bool
	LastPaidDate Optional[time.Time]
}

// displayName is the text compared against transaction descriptions.
func (b *Bill) displayName() string {
	if strings.TrimSpace(b.Name) != "" {
		return b.Name
	}
	return b.Description.OrElse("")
}

// Transaction is a single bank record.
type Transaction struct {
	ID            string
	Description   string
	Category      Optional[string]
	RecipientName Optional[string]
	Amount        decimal.Decimal // Negative means outflow
	Date          time.Time
	Type          TransactionType
}

// IsOutflow reports whether the transaction is money leaving the account.
// An explicit type wins; otherwise the sign of the amount decides.
func (t *Transaction) IsOutflow() bool {
	switch t.Type {
	case TypeExpense:
		return true
	case TypeIncome:
		return false
	default:
		return t.Amount.IsNegative()
	}
}

// Identity returns a stable key for the transaction.
// When ID is empty the key is derived from a hash of the content.
func (t *Transaction) Identity() (string, error) {
	if t.ID != "" {
		return t.ID, nil
	}

	category := t.Category.OrElse("")
	recipient := t.RecipientName.OrElse("")
	if t.Description == "" && category == "" && recipient == "" &&
		t.Amount.IsZero() && t.Date.IsZero() {
		return "", ErrNoIdentity
	}

	date := ""
	if !t.Date.IsZero() {
		date = t.Date.Format(dateLayout)
	}

	h := sha256.New()
	for _, part := range []string{t.Description, category, recipient, t.Amount.String(), date, string(t.Type)} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return "tx-" + hex.EncodeToString(h.Sum(nil))[:16], nil
}

// Confidence is a coarse summary of a match score.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Match pairs one transaction with one bill occurrence.
// Bill and Transaction point at the caller's values, which are never modified.
type Match struct {
	Bill           *Bill
	Transaction    *Transaction
	TransactionKey string
	Score          int
	Confidence     Confidence
	Reasons        []string
}

// Settings is the matching policy for one run.
type Settings struct {
	// Enabled is checked by callers, not by the matcher
	Enabled bool `yaml:"enabled"`

	// Consumed by the confirmation flow, not by the matcher
	AutoMatchHighConfidence bool `yaml:"auto_match_high_confidence"`
	RequireConfirmation     bool `yaml:"require_confirmation"`

	AmountTolerance   float64 `yaml:"amount_tolerance"`    // Percent (default: 10)
	DateToleranceDays int     `yaml:"date_tolerance_days"` // Days (default: 7)
	MinMatchScore     int     `yaml:"min_match_score"`     // Pairs below this are dropped (default: 50)
}

// DefaultSettings returns the documented defaults
func DefaultSettings() Settings {
	return Settings{
		Enabled:                 true,
		AutoMatchHighConfidence: false,
		RequireConfirmation:     true,
		AmountTolerance:         10,
		DateToleranceDays:       7,
		MinMatchScore:           50,
	}
}

// Validate rejects settings that would make scoring meaningless.
func (s Settings) Validate() error {
	var errs []error
	if s.AmountTolerance < 0 {
		errs = append(errs, errors.New("amount_tolerance must not be negative"))
	}
	if s.DateToleranceDays < 0 {
		errs = append(errs, errors.New("date_tolerance_days must not be negative"))
	}
	if s.MinMatchScore < 0 {
		errs = append(errs, errors.New("min_match_score must not be negative"))
	}
	return errors.Join(errs...)
}
