package storage

import (
	"time"

	"github.com/eshaffer321/billmatch/internal/domain/matcher"
)

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, in-memory, etc.)
// and makes testing with mocks straightforward.
type Repository interface {
	BillRepository
	TransactionRepository
	MatchRepository
	RunRepository
	Close() error
}

// BillRepository stores recurring bills
type BillRepository interface {
	// SaveBill inserts or updates a bill by ID
	SaveBill(bill *matcher.Bill) error

	// GetBill retrieves a bill by ID, nil if it does not exist
	GetBill(id string) (*matcher.Bill, error)

	// ListBills returns all bills ordered by name
	ListBills() ([]*matcher.Bill, error)
}

// TransactionRepository stores bank transactions
type TransactionRepository interface {
	// SaveTransaction inserts or updates a transaction and returns its key.
	// Transactions without an ID are stored under their derived identity.
	SaveTransaction(tx *matcher.Transaction) (string, error)

	// GetTransaction retrieves a transaction by key, nil if it does not exist
	GetTransaction(id string) (*matcher.Transaction, error)

	// ListTransactions returns transactions matching the filters, newest first
	ListTransactions(filters TransactionFilters) ([]*matcher.Transaction, error)
}

// TransactionFilters defines filters for listing transactions
type TransactionFilters struct {
	Since time.Time // Only transactions on or after this date (zero = all)
	Limit int       // Max results (0 = no limit)
}

// MatchRepository stores proposed and decided matches
type MatchRepository interface {
	// SaveMatch stores a proposal. A record for the same bill and transaction
	// is updated in place, keeping its ID and status (a superseded record is
	// reopened); record is updated to reflect what was stored. Returns
	// ErrTransactionClaimed when the transaction is confirmed for another bill.
	SaveMatch(record *MatchRecord) error

	// GetMatch retrieves a match by ID, nil if it does not exist
	GetMatch(id string) (*MatchRecord, error)

	// ListMatches returns matches matching the filters, newest first
	ListMatches(filters MatchFilters) ([]*MatchRecord, error)

	// UpdateMatchStatus records a decision on a proposed match.
	// Confirming fails with ErrTransactionClaimed when the transaction is
	// already confirmed for another bill, and supersedes the other proposals
	// for the same bill or transaction.
	UpdateMatchStatus(id string, status MatchStatus) error
}

// MatchFilters defines filters for listing matches
type MatchFilters struct {
	RunID         string      // Filter by run (empty = all)
	BillID        string      // Filter by bill (empty = all)
	TransactionID string      // Filter by transaction (empty = all)
	Status        MatchStatus // Filter by status (empty = all)
	Limit         int         // Max results (0 = no limit)
}

// RunRepository handles reconciliation run tracking
type RunRepository interface {
	// StartRun records the start of a run and returns the run ID
	StartRun(dryRun bool, lookbackDays int) (string, error)

	// CompleteRun records the successful end of a run
	CompleteRun(runID string, counts RunCounts) error

	// FailRun records that a run stopped with an error
	FailRun(runID string, errMsg string) error

	// ListRuns returns recent runs, newest first
	ListRuns(limit int) ([]ReconcileRun, error)

	// GetRun retrieves a run by ID, nil if it does not exist
	GetRun(runID string) (*ReconcileRun, error)
}
