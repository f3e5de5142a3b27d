package dto

import "time"

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// NewHealthResponse creates a health response with current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// BillResponse represents a recurring bill in API responses.
// Optional fields are omitted when absent and present (possibly empty) otherwise.
type BillResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   *string `json:"description,omitempty"`
	Category      *string `json:"category,omitempty"`
	RecipientName *string `json:"recipient_name,omitempty"`
	Amount        string  `json:"amount"`
	Interval      string  `json:"interval"`
	DueDate       *string `json:"due_date,omitempty"`
	IsPaid        bool    `json:"is_paid"`
	LastPaidDate  *string `json:"last_paid_date,omitempty"`
}

// BillListResponse is returned when listing bills.
type BillListResponse struct {
	Bills []BillResponse `json:"bills"`
	Count int            `json:"count"`
}

// TransactionResponse represents a bank transaction in API responses.
type TransactionResponse struct {
	ID            string  `json:"id"`
	Description   string  `json:"description"`
	Category      *string `json:"category,omitempty"`
	RecipientName *string `json:"recipient_name,omitempty"`
	Amount        string  `json:"amount"`
	Date          string  `json:"date"`
	Type          string  `json:"type,omitempty"`
}

// TransactionListResponse is returned when listing transactions.
type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Count        int                   `json:"count"`
}

// MatchResponse represents a proposed or decided match.
type MatchResponse struct {
	ID            string   `json:"id,omitempty"` // Empty for dry-run matches
	RunID         string   `json:"run_id,omitempty"`
	BillID        string   `json:"bill_id"`
	BillName      string   `json:"bill_name,omitempty"`
	TransactionID string   `json:"transaction_id"`
	Score         int      `json:"score"`
	Confidence    string   `json:"confidence"`
	Reasons       []string `json:"reasons"`
	Status        string   `json:"status"`
	CreatedAt     string   `json:"created_at,omitempty"`
	DecidedAt     string   `json:"decided_at,omitempty"`
}

// MatchListResponse is returned when listing matches.
type MatchListResponse struct {
	Matches []MatchResponse `json:"matches"`
	Count   int             `json:"count"`
}

// DecisionResponse is returned after confirming or rejecting a match.
type DecisionResponse struct {
	Match MatchResponse `json:"match"`
	Bill  *BillResponse `json:"bill,omitempty"` // Set on confirm
}

// ReconcileResponse is returned after a reconciliation pass.
type ReconcileResponse struct {
	RunID                  string          `json:"run_id"`
	DryRun                 bool            `json:"dry_run"`
	BillsConsidered        int             `json:"bills_considered"`
	TransactionsConsidered int             `json:"transactions_considered"`
	AutoConfirmed          int             `json:"auto_confirmed"`
	Matches                []MatchResponse `json:"matches"`
}

// RunResponse represents a reconciliation run in API responses.
type RunResponse struct {
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

// RunListResponse is returned when listing runs.
type RunListResponse struct {
	Runs  []RunResponse `json:"runs"`
	Count int           `json:"count"`
}
