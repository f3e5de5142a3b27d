package storage

import (
	"errors"
	"time"
)

var (
	// ErrTransactionClaimed is returned when a transaction already paid another bill
	ErrTransactionClaimed = errors.New("transaction already confirmed for another bill")

	// ErrMatchNotProposed is returned when deciding a match that is no longer open
	ErrMatchNotProposed = errors.New("match is not proposed")
)

// MatchStatus tracks what happened to a proposed match
type MatchStatus string

const (
	MatchProposed  MatchStatus = "proposed"
	MatchConfirmed MatchStatus = "confirmed"
	MatchRejected  MatchStatus = "rejected"

	// MatchSuperseded marks a proposal closed by confirming another match for
	// the same bill or transaction. A later run may propose the pair again.
	MatchSuperseded MatchStatus = "superseded"
)

// Run statuses
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// MatchRecord is a persisted match between a bill and a transaction
type MatchRecord struct {
	ID            string      `json:"id"`
	RunID         string      `json:"run_id"`
	BillID        string      `json:"bill_id"`
	TransactionID string      `json:"transaction_id"`
	Score         int         `json:"score"`
	Confidence    string      `json:"confidence"`
	Reasons       []string    `json:"reasons"`
	Status        MatchStatus `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	DecidedAt     *time.Time  `json:"decided_at,omitempty"`
}

// ReconcileRun represents a reconciliation run record
type ReconcileRun struct {
	ID                     string `json:"id"`
	StartedAt              string `json:"started_at"`
	CompletedAt            string `json:"completed_at,omitempty"`
	DryRun                 bool   `json:"dry_run"`
	LookbackDays           int    `json:"lookback_days"`
	BillsConsidered        int    `json:"bills_considered"`
	TransactionsConsidered int    `json:"transactions_considered"`
	MatchesFound           int    `json:"matches_found"`
	AutoConfirmed          int    `json:"auto_confirmed"`
	Status                 string `json:"status"`
	ErrorMessage           string `json:"error_message,omitempty"`
}

// RunCounts are the totals recorded when a run completes
type RunCounts struct {
	BillsConsidered        int
	TransactionsConsidered int
	MatchesFound           int
	AutoConfirmed          int
}
