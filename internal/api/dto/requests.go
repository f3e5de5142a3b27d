package dto

// ReconcileRequest is the request body for starting a reconciliation pass.
type ReconcileRequest struct {
	DryRun       bool `json:"dry_run"`       // Preview mode, nothing is saved
	LookbackDays int  `json:"lookback_days"` // 0 = configured default
}

// TransactionListParams represents query parameters for listing transactions.
type TransactionListParams struct {
	Days  int `json:"days"` // 0 = all
	Limit int `json:"limit"`
}

// MatchListParams represents query parameters for listing matches.
type MatchListParams struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
	Limit  int    `json:"limit"`
}

// DefaultTransactionListParams returns default values for transaction list params.
func DefaultTransactionListParams() TransactionListParams {
	return TransactionListParams{
		Days:  0,
		Limit: 100,
	}
}

// DefaultMatchListParams returns default values for match list params.
func DefaultMatchListParams() MatchListParams {
	return MatchListParams{
		Limit: 100,
	}
}

// DefaultRunListLimit is the number of runs returned when no limit is given.
const DefaultRunListLimit = 20
