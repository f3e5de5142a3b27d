// Package reconcile runs the matching engine against stored bills and
// transactions and applies the user's decisions on the resulting matches.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/eshaffer321/billmatch/internal/domain/matcher"
	"github.com/eshaffer321/billmatch/internal/infrastructure/storage"
)

var (
	// ErrDisabled is returned by Run when matching is turned off in settings
	ErrDisabled = errors.New("reconciliation is disabled")

	// ErrRunInProgress is returned when another run has not finished yet
	ErrRunInProgress = errors.New("reconciliation run already in progress")

	// ErrMatchNotFound is returned when a decision targets an unknown match
	ErrMatchNotFound = errors.New("match not found")

	// ErrMatchDecided is returned when a match was already confirmed, rejected
	// or superseded
	ErrMatchDecided = errors.New("match already decided")

	// ErrMatchConflict is returned when confirming would record a payment
	// twice: the transaction already paid another bill, or the bill is already
	// paid through the transaction date
	ErrMatchConflict = errors.New("match conflicts with a recorded payment")
)

// RunOptions holds parameters for a single reconciliation pass
type RunOptions struct {
	DryRun       bool
	LookbackDays int // 0 = the service default
}

// MatchOutcome is an engine match plus what the run did with it
type MatchOutcome struct {
	matcher.Match
	MatchID string              // Empty on dry runs
	Status  storage.MatchStatus // proposed, or confirmed when auto-confirmed
}

// RunResult holds the results of a reconciliation pass
type RunResult struct {
	RunID                  string
	DryRun                 bool
	Matches                []MatchOutcome
	BillsConsidered        int
	TransactionsConsidered int
	AutoConfirmed          int
}

// Decision is the outcome of confirming a match
type Decision struct {
	Match *storage.MatchRecord
	Bill  *matcher.Bill // The bill after payment was recorded
}

// Service runs reconciliation against a repository
type Service struct {
	repo         storage.Repository
	matcher      *matcher.Matcher
	logger       *slog.Logger
	lookbackDays int
	now          func() time.Time

	// Only one run at a time, whether started by the scheduler or the API
	running sync.Mutex

	// Serializes decisions so each one sees the previous one's result
	deciding sync.Mutex
}

// NewService creates a new reconciliation service.
// lookbackDays is used when a run does not specify one; 0 means all transactions.
func NewService(repo storage.Repository, settings matcher.Settings, lookbackDays int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:         repo,
		matcher:      matcher.NewMatcher(settings),
		logger:       logger,
		lookbackDays: lookbackDays,
		now:          time.Now,
	}
}

// Settings returns the matching settings the service runs with
func (s *Service) Settings() matcher.Settings {
	return s.matcher.Settings()
}

// Run matches stored transactions to stored bills and records the result.
func (s *Service) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	if !s.matcher.Settings().Enabled {
		return nil, ErrDisabled
	}
	if opts.LookbackDays < 0 {
		return nil, fmt.Errorf("lookback days must not be negative, got %d", opts.LookbackDays)
	}
	if !s.running.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.running.Unlock()

	if opts.LookbackDays == 0 {
		opts.LookbackDays = s.lookbackDays
	}

	s.logger.Debug("Starting reconciliation",
		"dry_run", opts.DryRun,
		"lookback_days", opts.LookbackDays,
	)

	runID, err := s.repo.StartRun(opts.DryRun, opts.LookbackDays)
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}

	result, err := s.run(ctx, runID, opts)
	if err != nil {
		if failErr := s.repo.FailRun(runID, err.Error()); failErr != nil {
			s.logger.Warn("Failed to record run failure", "run_id", runID, "error", failErr)
		}
		return nil, err
	}

	err = s.repo.CompleteRun(runID, storage.RunCounts{
		BillsConsidered:        result.BillsConsidered,
		TransactionsConsidered: result.TransactionsConsidered,
		MatchesFound:           len(result.Matches),
		AutoConfirmed:          result.AutoConfirmed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to complete run %s: %w", runID, err)
	}

	s.logger.Info("Reconciliation complete",
		"run_id", runID,
		"dry_run", opts.DryRun,
		"bills", result.BillsConsidered,
		"transactions", result.TransactionsConsidered,
		"matches", len(result.Matches),
		"auto_confirmed", result.AutoConfirmed,
	)

	return result, nil
}

func (s *Service) run(ctx context.Context, runID string, opts RunOptions) (*RunResult, error) {
	result := &RunResult{
		RunID:   runID,
		DryRun:  opts.DryRun,
		Matches: make([]MatchOutcome, 0),
	}

	bills, err := s.repo.ListBills()
	if err != nil {
		return nil, fmt.Errorf("failed to load bills: %w", err)
	}

	filters := storage.TransactionFilters{}
	if opts.LookbackDays > 0 {
		today := s.now().UTC()
		filters.Since = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC).
			AddDate(0, 0, -opts.LookbackDays)
	}
	transactions, err := s.repo.ListTransactions(filters)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	settled, rejected, err := s.decidedPairs()
	if err != nil {
		return nil, err
	}

	// A transaction that already paid a bill cannot pay another
	open := make([]*matcher.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if settled[tx.ID] || !tx.IsOutflow() {
			continue
		}
		open = append(open, tx)
	}

	result.BillsConsidered = len(bills)
	result.TransactionsConsidered = len(open)

	candidates, err := s.matcher.Candidates(open, bills)
	if err != nil {
		return nil, fmt.Errorf("failed to score candidates: %w", err)
	}

	// Pairs the user turned down are never proposed again
	kept := candidates[:0]
	for _, c := range candidates {
		if rejected[pairKey(c.Bill.ID, c.TransactionKey)] {
			s.logger.Debug("Skipping rejected pair",
				"bill_id", c.Bill.ID,
				"transaction_id", c.TransactionKey,
			)
			continue
		}
		kept = append(kept, c)
	}

	for _, m := range matcher.Assign(kept) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		outcome, ok, err := s.record(runID, m, opts.DryRun)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if outcome.Status == storage.MatchConfirmed {
			result.AutoConfirmed++
		}
		result.Matches = append(result.Matches, outcome)
	}

	return result, nil
}

// record persists one match and auto-confirms it when settings allow.
// It reports false when the match was dropped because its transaction was
// confirmed for another bill while the run was in progress.
func (s *Service) record(runID string, m matcher.Match, dryRun bool) (MatchOutcome, bool, error) {
	outcome := MatchOutcome{Match: m, Status: storage.MatchProposed}

	s.logger.Debug("Matched transaction to bill",
		"bill_id", m.Bill.ID,
		"bill_name", m.Bill.Name,
		"transaction_id", m.TransactionKey,
		"score", m.Score,
		"confidence", m.Confidence,
	)

	if dryRun {
		return outcome, true, nil
	}

	record := &storage.MatchRecord{
		RunID:         runID,
		BillID:        m.Bill.ID,
		TransactionID: m.TransactionKey,
		Score:         m.Score,
		Confidence:    string(m.Confidence),
		Reasons:       m.Reasons,
	}
	if err := s.repo.SaveMatch(record); err != nil {
		if errors.Is(err, storage.ErrTransactionClaimed) {
			s.logger.Warn("Dropping match for claimed transaction",
				"bill_id", m.Bill.ID,
				"transaction_id", m.TransactionKey,
			)
			return outcome, false, nil
		}
		return outcome, false, fmt.Errorf("failed to save match: %w", err)
	}
	outcome.MatchID = record.ID
	outcome.Status = record.Status

	if s.autoConfirms(m) && record.Status == storage.MatchProposed {
		_, err := s.confirm(record)
		switch {
		case errors.Is(err, ErrMatchConflict), errors.Is(err, ErrMatchDecided):
			s.logger.Warn("Left match proposed, payment already recorded",
				"match_id", record.ID,
				"bill_id", m.Bill.ID,
				"error", err,
			)
			return outcome, true, nil
		case err != nil:
			return outcome, false, err
		}
		outcome.Status = storage.MatchConfirmed
		s.logger.Info("Auto-confirmed match",
			"match_id", record.ID,
			"bill_id", m.Bill.ID,
			"score", m.Score,
		)
	}

	return outcome, true, nil
}

func (s *Service) autoConfirms(m matcher.Match) bool {
	settings := s.matcher.Settings()
	return settings.AutoMatchHighConfidence &&
		!settings.RequireConfirmation &&
		m.Confidence == matcher.ConfidenceHigh
}

// decidedPairs returns transactions already in a confirmed match and
// the bill/transaction pairs the user rejected
func (s *Service) decidedPairs() (map[string]bool, map[string]bool, error) {
	confirmed, err := s.repo.ListMatches(storage.MatchFilters{Status: storage.MatchConfirmed})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load confirmed matches: %w", err)
	}
	rejected, err := s.repo.ListMatches(storage.MatchFilters{Status: storage.MatchRejected})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load rejected matches: %w", err)
	}

	settled := make(map[string]bool, len(confirmed))
	for _, r := range confirmed {
		settled[r.TransactionID] = true
	}
	refused := make(map[string]bool, len(rejected))
	for _, r := range rejected {
		refused[pairKey(r.BillID, r.TransactionID)] = true
	}
	return settled, refused, nil
}

func pairKey(billID, transactionID string) string {
	return billID + "\x00" + transactionID
}

// Confirm accepts a proposed match: the bill is marked paid on the
// transaction date and rolled to its next due date. Other open proposals for
// the same bill or transaction are superseded.
func (s *Service) Confirm(ctx context.Context, matchID string) (*Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record, err := s.repo.GetMatch(matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load match %s: %w", matchID, err)
	}
	if record == nil {
		return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}

	decision, err := s.confirm(record)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Confirmed match",
		"match_id", matchID,
		"bill_id", decision.Bill.ID,
		"paid_on", decision.Bill.LastPaidDate.OrElse(time.Time{}).Format("2006-01-02"),
	)

	return decision, nil
}

// Reject turns down a proposed match. The pair is not proposed again.
func (s *Service) Reject(ctx context.Context, matchID string) (*storage.MatchRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.deciding.Lock()
	defer s.deciding.Unlock()

	record, err := s.proposedMatch(matchID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateMatchStatus(record.ID, storage.MatchRejected); err != nil {
		if errors.Is(err, storage.ErrMatchNotProposed) {
			return nil, fmt.Errorf("%w: %v", ErrMatchDecided, err)
		}
		return nil, fmt.Errorf("failed to reject match %s: %w", matchID, err)
	}
	record.Status = storage.MatchRejected

	s.logger.Info("Rejected match", "match_id", matchID, "bill_id", record.BillID)

	return record, nil
}

func (s *Service) proposedMatch(matchID string) (*storage.MatchRecord, error) {
	record, err := s.repo.GetMatch(matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load match %s: %w", matchID, err)
	}
	if record == nil {
		return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	if record.Status != storage.MatchProposed {
		return nil, fmt.Errorf("%w: %s is %s", ErrMatchDecided, matchID, record.Status)
	}
	return record, nil
}

// confirm checks the match against the current stored state, then records the
// payment on the bill and confirms the match.
func (s *Service) confirm(record *storage.MatchRecord) (*Decision, error) {
	s.deciding.Lock()
	defer s.deciding.Unlock()

	// Reload: the caller's copy may predate another decision
	current, err := s.proposedMatch(record.ID)
	if err != nil {
		return nil, err
	}

	bill, err := s.repo.GetBill(current.BillID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bill %s: %w", current.BillID, err)
	}
	if bill == nil {
		return nil, fmt.Errorf("bill %s for match %s no longer exists", current.BillID, current.ID)
	}

	tx, err := s.repo.GetTransaction(current.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction %s: %w", current.TransactionID, err)
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction %s for match %s no longer exists", current.TransactionID, current.ID)
	}

	claims, err := s.repo.ListMatches(storage.MatchFilters{
		TransactionID: current.TransactionID,
		Status:        storage.MatchConfirmed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load confirmed matches: %w", err)
	}
	if len(claims) > 0 {
		return nil, fmt.Errorf("%w: transaction %s already paid bill %s",
			ErrMatchConflict, current.TransactionID, claims[0].BillID)
	}

	if !matcher.IsEligible(bill, tx.Date) {
		return nil, fmt.Errorf("%w: bill %s is already paid through %s",
			ErrMatchConflict, bill.ID, bill.LastPaidDate.OrElse(time.Time{}).Format("2006-01-02"))
	}

	// The repository refuses a second confirmed match for the transaction
	if err := s.repo.UpdateMatchStatus(current.ID, storage.MatchConfirmed); err != nil {
		switch {
		case errors.Is(err, storage.ErrTransactionClaimed):
			return nil, fmt.Errorf("%w: %v", ErrMatchConflict, err)
		case errors.Is(err, storage.ErrMatchNotProposed):
			return nil, fmt.Errorf("%w: %v", ErrMatchDecided, err)
		}
		return nil, fmt.Errorf("failed to confirm match %s: %w", current.ID, err)
	}

	paid := *bill
	paid.DueDate = matcher.Some(matcher.NextDueDate(bill, tx.Date))
	paid.IsPaid = true
	paid.LastPaidDate = matcher.Some(tx.Date)

	if err := s.repo.SaveBill(&paid); err != nil {
		return nil, fmt.Errorf("match %s confirmed but bill %s not updated: %w", current.ID, bill.ID, err)
	}

	current.Status = storage.MatchConfirmed
	record.Status = storage.MatchConfirmed

	return &Decision{Match: current, Bill: &paid}, nil
}
