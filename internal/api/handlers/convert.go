package handlers

import (
	"time"

	"github.com/eshaffer321/billmatch/internal/api/dto"
	"github.com/eshaffer321/billmatch/internal/application/reconcile"
	"github.com/eshaffer321/billmatch/internal/domain/matcher"
	"github.com/eshaffer321/billmatch/internal/infrastructure/storage"
)

const dateLayout = "2006-01-02"

func optionalText(o matcher.Optional[string]) *string {
	v, ok := o.Get()
	if !ok {
		return nil
	}
	return &v
}

func optionalDate(o matcher.Optional[time.Time]) *string {
	v, ok := o.Get()
	if !ok {
		return nil
	}
	s := v.Format(dateLayout)
	return &s
}

// toBillResponse converts a bill to an API response.
func toBillResponse(bill *matcher.Bill) dto.BillResponse {
	return dto.BillResponse{
		ID:            bill.ID,
		Name:          bill.Name,
		Description:   optionalText(bill.Description),
		Category:      optionalText(bill.Category),
		RecipientName: optionalText(bill.RecipientName),
		Amount:        bill.Amount.StringFixed(2),
		Interval:      string(bill.Interval.Effective()),
		DueDate:       optionalDate(bill.DueDate),
		IsPaid:        bill.IsPaid,
		LastPaidDate:  optionalDate(bill.LastPaidDate),
	}
}

// toTransactionResponse converts a transaction to an API response.
func toTransactionResponse(tx *matcher.Transaction) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:            tx.ID,
		Description:   tx.Description,
		Category:      optionalText(tx.Category),
		RecipientName: optionalText(tx.RecipientName),
		Amount:        tx.Amount.StringFixed(2),
		Date:          tx.Date.Format(dateLayout),
		Type:          string(tx.Type),
	}
}

// toMatchResponse converts a stored match to an API response.
func toMatchResponse(record *storage.MatchRecord) dto.MatchResponse {
	response := dto.MatchResponse{
		ID:            record.ID,
		RunID:         record.RunID,
		BillID:        record.BillID,
		TransactionID: record.TransactionID,
		Score:         record.Score,
		Confidence:    record.Confidence,
		Reasons:       record.Reasons,
		Status:        string(record.Status),
	}
	if response.Reasons == nil {
		response.Reasons = []string{}
	}
	if !record.CreatedAt.IsZero() {
		response.CreatedAt = record.CreatedAt.Format(time.RFC3339)
	}
	if record.DecidedAt != nil {
		response.DecidedAt = record.DecidedAt.Format(time.RFC3339)
	}
	return response
}

// toOutcomeResponse converts a match produced by a run to an API response.
func toOutcomeResponse(runID string, outcome reconcile.MatchOutcome) dto.MatchResponse {
	reasons := outcome.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	return dto.MatchResponse{
		ID:            outcome.MatchID,
		RunID:         runID,
		BillID:        outcome.Bill.ID,
		BillName:      outcome.Bill.Name,
		TransactionID: outcome.TransactionKey,
		Score:         outcome.Score,
		Confidence:    string(outcome.Confidence),
		Reasons:       reasons,
		Status:        string(outcome.Status),
	}
}

// toRunResponse converts a storage run to an API response.
func toRunResponse(run storage.ReconcileRun) dto.RunResponse {
	return dto.RunResponse{
		ID:                     run.ID,
		StartedAt:              run.StartedAt,
		CompletedAt:            run.CompletedAt,
		DryRun:                 run.DryRun,
		LookbackDays:           run.LookbackDays,
		BillsConsidered:        run.BillsConsidered,
		TransactionsConsidered: run.TransactionsConsidered,
		MatchesFound:           run.MatchesFound,
		AutoConfirmed:          run.AutoConfirmed,
		Status:                 run.Status,
		ErrorMessage:           run.ErrorMessage,
	}
}
