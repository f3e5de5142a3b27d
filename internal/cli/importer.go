package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/eshaffer321/billmatch/internal/domain/matcher"
	"github.com/eshaffer321/billmatch/internal/infrastructure/storage"
)

const fixtureDateLayout = "2006-01-02"

// Fixture is a YAML document of bills and transactions to load into storage.
// Amounts and dates should be quoted strings.
type Fixture struct {
	Bills        []BillFixture        `yaml:"bills"`
	Transactions []TransactionFixture `yaml:"transactions"`
}

// BillFixture is one bill in a fixture. Nil pointers mean the field is absent.
type BillFixture struct {
	ID            string  `yaml:"id"`
	Name          string  `yaml:"name"`
	Description   *string `yaml:"description"`
	Category      *string `yaml:"category"`
	RecipientName *string `yaml:"recipient_name"`
	Amount        string  `yaml:"amount"`
	Interval      string  `yaml:"interval"`
	DueDate       *string `yaml:"due_date"`
	IsPaid        bool    `yaml:"is_paid"`
	LastPaidDate  *string `yaml:"last_paid_date"`
}

// TransactionFixture is one transaction in a fixture
type TransactionFixture struct {
	ID            string  `yaml:"id"`
	Description   string  `yaml:"description"`
	Category      *string `yaml:"category"`
	RecipientName *string `yaml:"recipient_name"`
	Amount        string  `yaml:"amount"`
	Date          string  `yaml:"date"`
	Type          string  `yaml:"type"`
}

// ImportResult counts what an import stored
type ImportResult struct {
	Bills        int
	Transactions int
	Warnings     int
}

// Importer loads fixtures into a repository
type Importer struct {
	repo   storage.Repository
	logger *slog.Logger
}

// NewImporter creates a new Importer
func NewImporter(repo storage.Repository, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{repo: repo, logger: logger}
}

// ImportFile reads the fixture at path and stores its contents.
func (i *Importer) ImportFile(path string) (*ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer func() { _ = f.Close() }()

	return i.Import(f)
}

// Import decodes a fixture from r and stores its contents.
// Every entry is validated before anything is written, so a bad fixture
// stores nothing.
func (i *Importer) Import(r io.Reader) (*ImportResult, error) {
	var fixture Fixture
	if err := yaml.NewDecoder(r).Decode(&fixture); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}

	result := &ImportResult{}

	bills := make([]*matcher.Bill, 0, len(fixture.Bills))
	for idx, bf := range fixture.Bills {
		bill, warnings, err := i.toBill(bf)
		if err != nil {
			return nil, fmt.Errorf("bill %d (%s): %w", idx, bf.ID, err)
		}
		result.Warnings += warnings
		bills = append(bills, bill)
	}

	txs := make([]*matcher.Transaction, 0, len(fixture.Transactions))
	seen := make(map[string]int, len(fixture.Transactions))
	for idx, tf := range fixture.Transactions {
		tx, err := toTransaction(tf)
		if err != nil {
			return nil, fmt.Errorf("transaction %d (%s): %w", idx, tf.ID, err)
		}
		key, err := tx.Identity()
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", idx, err)
		}
		// Entries sharing a key would be stored as one row
		if first, dup := seen[key]; dup {
			i.logger.Warn("skipping duplicate transaction",
				"index", idx,
				"duplicate_of", first,
				"id", key,
			)
			result.Warnings++
			continue
		}
		seen[key] = idx
		txs = append(txs, tx)
	}

	for _, bill := range bills {
		if err := i.repo.SaveBill(bill); err != nil {
			return result, fmt.Errorf("save bill %s: %w", bill.ID, err)
		}
		result.Bills++
	}

	for _, tx := range txs {
		key, err := i.repo.SaveTransaction(tx)
		if err != nil {
			return result, fmt.Errorf("save transaction %s: %w", tx.Description, err)
		}
		i.logger.Debug("imported transaction", "id", key)
		result.Transactions++
	}

	i.logger.Info("import complete",
		"bills", result.Bills,
		"transactions", result.Transactions,
		"warnings", result.Warnings,
	)
	return result, nil
}

func (i *Importer) toBill(bf BillFixture) (*matcher.Bill, int, error) {
	if bf.ID == "" {
		return nil, 0, matcher.ErrMissingBillID
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(bf.Amount))
	if err != nil {
		return nil, 0, fmt.Errorf("invalid amount %q: %w", bf.Amount, err)
	}

	bill := &matcher.Bill{
		ID:            bf.ID,
		Name:          bf.Name,
		Description:   optionalString(bf.Description),
		Category:      optionalString(bf.Category),
		RecipientName: optionalString(bf.RecipientName),
		Amount:        amount,
		IsPaid:        bf.IsPaid,
	}

	warnings := 0
	interval, ok := parseInterval(bf.Interval)
	if !ok {
		i.logger.Warn("unknown interval, using monthly", "bill", bf.ID, "value", bf.Interval)
		warnings++
	}
	bill.Interval = interval
	bill.DueDate, warnings = i.optionalDate(bf.ID, "due_date", bf.DueDate, warnings)
	bill.LastPaidDate, warnings = i.optionalDate(bf.ID, "last_paid_date", bf.LastPaidDate, warnings)

	return bill, warnings, nil
}

// optionalDate parses an optional bill date. Unparsable values are treated as
// absent and counted as a warning.
func (i *Importer) optionalDate(billID, field string, value *string, warnings int) (matcher.Optional[time.Time], int) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return matcher.None[time.Time](), warnings
	}
	t, err := time.Parse(fixtureDateLayout, strings.TrimSpace(*value))
	if err != nil {
		i.logger.Warn("ignoring unparsable date", "bill", billID, "field", field, "value", *value)
		return matcher.None[time.Time](), warnings + 1
	}
	return matcher.Some(t), warnings
}

func toTransaction(tf TransactionFixture) (*matcher.Transaction, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(tf.Amount))
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", tf.Amount, err)
	}

	date, err := time.Parse(fixtureDateLayout, strings.TrimSpace(tf.Date))
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", tf.Date, err)
	}

	var txType matcher.TransactionType
	switch strings.ToLower(strings.TrimSpace(tf.Type)) {
	case "":
	case string(matcher.TypeIncome):
		txType = matcher.TypeIncome
	case string(matcher.TypeExpense):
		txType = matcher.TypeExpense
	default:
		return nil, fmt.Errorf("unknown transaction type %q", tf.Type)
	}

	return &matcher.Transaction{
		ID:            tf.ID,
		Description:   tf.Description,
		Category:      optionalString(tf.Category),
		RecipientName: optionalString(tf.RecipientName),
		Amount:        amount,
		Date:          date,
		Type:          txType,
	}, nil
}

// parseInterval reports false for unknown values, which fall back to monthly.
func parseInterval(s string) (matcher.Interval, bool) {
	switch interval := matcher.Interval(strings.ToLower(strings.TrimSpace(s))); interval {
	case "":
		return matcher.IntervalMonthly, true
	case matcher.IntervalWeekly, matcher.IntervalMonthly, matcher.IntervalYearly:
		return interval, true
	default:
		return matcher.IntervalMonthly, false
	}
}

func optionalString(s *string) matcher.Optional[string] {
	if s == nil {
		return matcher.None[string]()
	}
	return matcher.Some(*s)
}
