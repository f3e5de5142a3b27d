package storage

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eshaffer321/billmatch/internal/domain/matcher"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps, making tests fast and isolated.
type MockRepository struct {
	mu           sync.Mutex
	bills        map[string]*matcher.Bill
	transactions map[string]*matcher.Transaction
	matches      map[string]*MatchRecord
	runs         map[string]*ReconcileRun
	runOrder     []string
	matchOrder   []string

	// Hooks for test assertions
	SaveBillCalls int
	LastSavedBill *matcher.Bill

	// Error injection for testing error paths
	ListBillsErr        error
	ListTransactionsErr error
	SaveBillErr         error
	SaveMatchErr        error
	StartRunErr         error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		bills:        make(map[string]*matcher.Bill),
		transactions: make(map[string]*matcher.Transaction),
		matches:      make(map[string]*MatchRecord),
		runs:         make(map[string]*ReconcileRun),
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// SaveBill stores a copy of the bill
func (m *MockRepository) SaveBill(bill *matcher.Bill) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveBillCalls++
	if m.SaveBillErr != nil {
		return m.SaveBillErr
	}
	if bill.ID == "" {
		return matcher.ErrMissingBillID
	}

	// Copy to avoid test mutations
	copied := *bill
	m.bills[bill.ID] = &copied
	m.LastSavedBill = &copied
	return nil
}

// GetBill returns a copy of the stored bill
func (m *MockRepository) GetBill(id string) (*matcher.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bill, ok := m.bills[id]
	if !ok {
		return nil, nil
	}
	copied := *bill
	return &copied, nil
}

// ListBills returns copies of all bills ordered by name
func (m *MockRepository) ListBills() ([]*matcher.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListBillsErr != nil {
		return nil, m.ListBillsErr
	}

	bills := make([]*matcher.Bill, 0, len(m.bills))
	for _, bill := range m.bills {
		copied := *bill
		bills = append(bills, &copied)
	}
	sort.Slice(bills, func(i, j int) bool {
		if bills[i].Name != bills[j].Name {
			return bills[i].Name < bills[j].Name
		}
		return bills[i].ID < bills[j].ID
	})
	return bills, nil
}

// SaveTransaction stores a copy keyed by identity
func (m *MockRepository) SaveTransaction(tx *matcher.Transaction) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key, err := tx.Identity()
	if err != nil {
		return "", err
	}
	copied := *tx
	copied.ID = key
	m.transactions[key] = &copied
	return key, nil
}

// GetTransaction returns a copy of the stored transaction
func (m *MockRepository) GetTransaction(id string) (*matcher.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.transactions[id]
	if !ok {
		return nil, nil
	}
	copied := *tx
	return &copied, nil
}

// ListTransactions returns transactions newest first
func (m *MockRepository) ListTransactions(filters TransactionFilters) ([]*matcher.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListTransactionsErr != nil {
		return nil, m.ListTransactionsErr
	}

	var txs []*matcher.Transaction
	for _, tx := range m.transactions {
		if !filters.Since.IsZero() && tx.Date.Before(filters.Since) {
			continue
		}
		copied := *tx
		txs = append(txs, &copied)
	}
	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.After(txs[j].Date)
		}
		return txs[i].ID < txs[j].ID
	})
	if filters.Limit > 0 && len(txs) > filters.Limit {
		txs = txs[:filters.Limit]
	}
	return txs, nil
}

// SaveMatch stores a proposal, reusing an existing record for the same pair
func (m *MockRepository) SaveMatch(record *MatchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveMatchErr != nil {
		return m.SaveMatchErr
	}

	if err := m.claimedElsewhere(record.TransactionID, record.BillID, ""); err != nil {
		return err
	}

	for _, existing := range m.matches {
		if existing.BillID == record.BillID && existing.TransactionID == record.TransactionID {
			if existing.Status == MatchSuperseded {
				existing.Status = MatchProposed
				existing.DecidedAt = nil
			}
			existing.RunID = record.RunID
			existing.Score = record.Score
			existing.Confidence = record.Confidence
			existing.Reasons = append([]string(nil), record.Reasons...)
			record.ID = existing.ID
			record.Status = existing.Status
			return nil
		}
	}

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Status == "" {
		record.Status = MatchProposed
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	copied := *record
	copied.Reasons = append([]string(nil), record.Reasons...)
	m.matches[record.ID] = &copied
	m.matchOrder = append(m.matchOrder, record.ID)
	return nil
}

// GetMatch returns a copy of a stored match
func (m *MockRepository) GetMatch(id string) (*MatchRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.matches[id]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

// ListMatches returns matches newest first
func (m *MockRepository) ListMatches(filters MatchFilters) ([]*MatchRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var records []*MatchRecord
	for i := len(m.matchOrder) - 1; i >= 0; i-- {
		record := m.matches[m.matchOrder[i]]
		if filters.RunID != "" && record.RunID != filters.RunID {
			continue
		}
		if filters.BillID != "" && record.BillID != filters.BillID {
			continue
		}
		if filters.TransactionID != "" && record.TransactionID != filters.TransactionID {
			continue
		}
		if filters.Status != "" && record.Status != filters.Status {
			continue
		}
		copied := *record
		records = append(records, &copied)
		if filters.Limit > 0 && len(records) == filters.Limit {
			break
		}
	}
	return records, nil
}

// UpdateMatchStatus records a decision on a proposed match
func (m *MockRepository) UpdateMatchStatus(id string, status MatchStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.matches[id]
	if !ok {
		return fmt.Errorf("match %s not found", id)
	}
	if record.Status != MatchProposed {
		return fmt.Errorf("%w: %s is %s", ErrMatchNotProposed, id, record.Status)
	}
	if status == MatchConfirmed {
		if err := m.claimedElsewhere(record.TransactionID, record.BillID, id); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	record.Status = status
	record.DecidedAt = &now

	if status == MatchConfirmed {
		for _, other := range m.matches {
			if other.ID == id || other.Status != MatchProposed {
				continue
			}
			if other.TransactionID == record.TransactionID || other.BillID == record.BillID {
				other.Status = MatchSuperseded
				decided := now
				other.DecidedAt = &decided
			}
		}
	}
	return nil
}

// claimedElsewhere must be called with m.mu held
func (m *MockRepository) claimedElsewhere(transactionID, billID, excludeID string) error {
	for _, record := range m.matches {
		if record.ID == excludeID || record.Status != MatchConfirmed {
			continue
		}
		if record.TransactionID == transactionID && record.BillID != billID {
			return fmt.Errorf("%w: %s paid bill %s", ErrTransactionClaimed, transactionID, record.BillID)
		}
	}
	return nil
}

// StartRun records a new running run
func (m *MockRepository) StartRun(dryRun bool, lookbackDays int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.StartRunErr != nil {
		return "", m.StartRunErr
	}

	id := uuid.NewString()
	m.runs[id] = &ReconcileRun{
		ID:           id,
		StartedAt:    time.Now().UTC().Format(time.RFC3339),
		DryRun:       dryRun,
		LookbackDays: lookbackDays,
		Status:       RunStatusRunning,
	}
	m.runOrder = append(m.runOrder, id)
	return id, nil
}

// CompleteRun marks a run completed with its counts
func (m *MockRepository) CompleteRun(runID string, counts RunCounts) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.runs[runID]
	if !ok {
		return fmt.Errorf("run %s not found", runID)
	}
	run.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	run.BillsConsidered = counts.BillsConsidered
	run.TransactionsConsidered = counts.TransactionsConsidered
	run.MatchesFound = counts.MatchesFound
	run.AutoConfirmed = counts.AutoConfirmed
	run.Status = RunStatusCompleted
	return nil
}

// FailRun marks a run failed
func (m *MockRepository) FailRun(runID string, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.runs[runID]
	if !ok {
		return fmt.Errorf("run %s not found", runID)
	}
	run.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	run.Status = RunStatusFailed
	run.ErrorMessage = errMsg
	return nil
}

// ListRuns returns runs newest first
func (m *MockRepository) ListRuns(limit int) ([]ReconcileRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}

	runs := make([]ReconcileRun, 0)
	for i := len(m.runOrder) - 1; i >= 0 && len(runs) < limit; i-- {
		runs = append(runs, *m.runs[m.runOrder[i]])
	}
	return runs, nil
}

// GetRun returns a copy of a run
func (m *MockRepository) GetRun(runID string) (*ReconcileRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.runs[runID]
	if !ok {
		return nil, nil
	}
	copied := *run
	return &copied, nil
}
