package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/eshaffer321/billmatch/internal/domain/matcher"
)

const dateLayout = "2006-01-02"

// Storage provides SQLite database access for bills, transactions and runs.
// It implements the Repository interface.
type Storage struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	return NewStorageWithLogger(dbPath, nil)
}

// NewStorageWithLogger is NewStorage with an explicit logger
func NewStorageWithLogger(dbPath string, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// A single connection keeps the pragma below in effect for every query
	db.SetMaxOpenConns(1)

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{
		db:     db,
		logger: logger.With("system", "storage"),
		now:    time.Now,
	}

	// Run all pending migrations
	if err := s.runMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ================================================================
// BILLS
// ================================================================

// SaveBill inserts or updates a bill
func (s *Storage) SaveBill(bill *matcher.Bill) error {
	if bill.ID == "" {
		return matcher.ErrMissingBillID
	}

	query := `
	INSERT INTO bills
	(id, name, description, category, recipient_name, amount, interval,
	 due_date, is_paid, last_paid_date, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 name = excluded.name, description = excluded.description,
	 category = excluded.category, recipient_name = excluded.recipient_name,
	 amount = excluded.amount, interval = excluded.interval,
	 due_date = excluded.due_date, is_paid = excluded.is_paid,
	 last_paid_date = excluded.last_paid_date, updated_at = excluded.updated_at
	`

	_, err := s.db.Exec(query,
		bill.ID,
		bill.Name,
		nullString(bill.Description),
		nullString(bill.Category),
		nullString(bill.RecipientName),
		bill.Amount.String(),
		string(bill.Interval.Effective()),
		nullDate(bill.DueDate),
		bill.IsPaid,
		nullDate(bill.LastPaidDate),
		s.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save bill %s: %w", bill.ID, err)
	}
	return nil
}

const billColumns = `id, name, description, category, recipient_name, amount, interval,
	due_date, is_paid, last_paid_date`

// GetBill retrieves a bill by ID
func (s *Storage) GetBill(id string) (*matcher.Bill, error) {
	row := s.db.QueryRow(`SELECT `+billColumns+` FROM bills WHERE id = ?`, id)
	bill, err := s.scanBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return bill, err
}

// ListBills returns all bills ordered by name
func (s *Storage) ListBills() ([]*matcher.Bill, error) {
	rows, err := s.db.Query(`SELECT ` + billColumns + ` FROM bills ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var bills []*matcher.Bill
	for rows.Next() {
		bill, err := s.scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, bill)
	}
	return bills, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Storage) scanBill(row scanner) (*matcher.Bill, error) {
	var (
		bill                             matcher.Bill
		description, category, recipient sql.NullString
		amount, interval                 string
		dueDate, lastPaid                sql.NullString
	)

	err := row.Scan(
		&bill.ID,
		&bill.Name,
		&description,
		&category,
		&recipient,
		&amount,
		&interval,
		&dueDate,
		&bill.IsPaid,
		&lastPaid,
	)
	if err != nil {
		return nil, err
	}

	bill.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("bill %s has invalid amount %q: %w", bill.ID, amount, err)
	}
	bill.Interval = matcher.Interval(interval)
	bill.Description = optionalString(description)
	bill.Category = optionalString(category)
	bill.RecipientName = optionalString(recipient)

	// A bad stored date drops that signal instead of failing the load
	bill.DueDate = s.optionalDate(dueDate, "due_date", bill.ID)
	bill.LastPaidDate = s.optionalDate(lastPaid, "last_paid_date", bill.ID)

	return &bill, nil
}

// ================================================================
// TRANSACTIONS
// ================================================================

// SaveTransaction inserts or updates a transaction
func (s *Storage) SaveTransaction(tx *matcher.Transaction) (string, error) {
	key, err := tx.Identity()
	if err != nil {
		return "", err
	}
	if tx.Date.IsZero() {
		return "", fmt.Errorf("transaction %s has no date", key)
	}

	query := `
	INSERT INTO transactions
	(id, description, category, recipient_name, amount, date, type)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 description = excluded.description, category = excluded.category,
	 recipient_name = excluded.recipient_name, amount = excluded.amount,
	 date = excluded.date, type = excluded.type
	`

	var txType sql.NullString
	if tx.Type != "" {
		txType = sql.NullString{String: string(tx.Type), Valid: true}
	}

	_, err = s.db.Exec(query,
		key,
		tx.Description,
		nullString(tx.Category),
		nullString(tx.RecipientName),
		tx.Amount.String(),
		tx.Date.Format(dateLayout),
		txType,
	)
	if err != nil {
		return "", fmt.Errorf("failed to save transaction %s: %w", key, err)
	}
	return key, nil
}

const transactionColumns = `id, description, category, recipient_name, amount, date, type`

// GetTransaction retrieves a transaction by key
func (s *Storage) GetTransaction(id string) (*matcher.Transaction, error) {
	row := s.db.QueryRow(`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return tx, err
}

// ListTransactions returns transactions matching the filters, newest first
func (s *Storage) ListTransactions(filters TransactionFilters) ([]*matcher.Transaction, error) {
	var (
		where []string
		args  []any
	)
	if !filters.Since.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, filters.Since.Format(dateLayout))
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, id"
	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var txs []*matcher.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func scanTransaction(row scanner) (*matcher.Transaction, error) {
	var (
		tx                  matcher.Transaction
		category, recipient sql.NullString
		amount, date        string
		txType              sql.NullString
	)

	err := row.Scan(&tx.ID, &tx.Description, &category, &recipient, &amount, &date, &txType)
	if err != nil {
		return nil, err
	}

	tx.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("transaction %s has invalid amount %q: %w", tx.ID, amount, err)
	}
	tx.Date, err = time.Parse(dateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("transaction %s has invalid date %q: %w", tx.ID, date, err)
	}
	tx.Category = optionalString(category)
	tx.RecipientName = optionalString(recipient)
	if txType.Valid {
		tx.Type = matcher.TransactionType(txType.String)
	}

	return &tx, nil
}

// ================================================================
// MATCHES
// ================================================================

// SaveMatch stores a match proposal
func (s *Storage) SaveMatch(record *MatchRecord) error {
	reasonsJSON, err := json.Marshal(record.Reasons)
	if err != nil {
		return err
	}

	dbTx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = dbTx.Rollback() }()

	if err := claimedElsewhere(dbTx, record.TransactionID, record.BillID, ""); err != nil {
		return err
	}

	var existingID, existingStatus string
	err = dbTx.QueryRow(`SELECT id, status FROM matches WHERE bill_id = ? AND transaction_id = ?`,
		record.BillID, record.TransactionID).Scan(&existingID, &existingStatus)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if record.ID == "" {
			record.ID = uuid.NewString()
		}
		if record.Status == "" {
			record.Status = MatchProposed
		}
		if record.CreatedAt.IsZero() {
			record.CreatedAt = s.now().UTC()
		}
		_, err = dbTx.Exec(`
		INSERT INTO matches
		(id, run_id, bill_id, transaction_id, score, confidence, reasons_json, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			record.ID,
			record.RunID,
			record.BillID,
			record.TransactionID,
			record.Score,
			record.Confidence,
			string(reasonsJSON),
			string(record.Status),
			record.CreatedAt.Format(time.RFC3339),
		)
	case err == nil:
		record.ID = existingID
		record.Status = MatchStatus(existingStatus)
		if record.Status == MatchSuperseded {
			record.Status = MatchProposed
			_, err = dbTx.Exec(`UPDATE matches SET status = ?, decided_at = NULL WHERE id = ?`,
				string(MatchProposed), existingID)
			if err != nil {
				break
			}
		}
		_, err = dbTx.Exec(`
		UPDATE matches SET run_id = ?, score = ?, confidence = ?, reasons_json = ?
		WHERE id = ?`,
			record.RunID, record.Score, record.Confidence, string(reasonsJSON), existingID)
	}
	if err != nil {
		return fmt.Errorf("failed to save match for bill %s: %w", record.BillID, err)
	}

	return dbTx.Commit()
}

// claimedElsewhere returns ErrTransactionClaimed when transactionID is in a
// confirmed match for a bill other than billID. excludeID skips one match.
func claimedElsewhere(dbTx *sql.Tx, transactionID, billID, excludeID string) error {
	var claimedBy string
	err := dbTx.QueryRow(`
	SELECT bill_id FROM matches
	WHERE transaction_id = ? AND status = ? AND bill_id != ? AND id != ?
	LIMIT 1`,
		transactionID, string(MatchConfirmed), billID, excludeID).Scan(&claimedBy)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return err
	default:
		return fmt.Errorf("%w: %s paid bill %s", ErrTransactionClaimed, transactionID, claimedBy)
	}
}

const matchColumns = `id, run_id, bill_id, transaction_id, score, confidence, reasons_json,
	status, created_at, decided_at`

// GetMatch retrieves a match by ID
func (s *Storage) GetMatch(id string) (*MatchRecord, error) {
	row := s.db.QueryRow(`SELECT `+matchColumns+` FROM matches WHERE id = ?`, id)
	record, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return record, err
}

// ListMatches returns matches matching the filters, newest first
func (s *Storage) ListMatches(filters MatchFilters) ([]*MatchRecord, error) {
	var (
		where []string
		args  []any
	)
	if filters.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, filters.RunID)
	}
	if filters.BillID != "" {
		where = append(where, "bill_id = ?")
		args = append(args, filters.BillID)
	}
	if filters.TransactionID != "" {
		where = append(where, "transaction_id = ?")
		args = append(args, filters.TransactionID)
	}
	if filters.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filters.Status))
	}

	query := `SELECT ` + matchColumns + ` FROM matches`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, score DESC"
	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []*MatchRecord
	for rows.Next() {
		record, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// UpdateMatchStatus records a decision on a proposed match
func (s *Storage) UpdateMatchStatus(id string, status MatchStatus) error {
	dbTx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = dbTx.Rollback() }()

	var billID, transactionID, current string
	err = dbTx.QueryRow(`SELECT bill_id, transaction_id, status FROM matches WHERE id = ?`, id).
		Scan(&billID, &transactionID, &current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("match %s not found", id)
	}
	if err != nil {
		return err
	}
	if MatchStatus(current) != MatchProposed {
		return fmt.Errorf("%w: %s is %s", ErrMatchNotProposed, id, current)
	}

	if status == MatchConfirmed {
		if err := claimedElsewhere(dbTx, transactionID, billID, id); err != nil {
			return err
		}
	}

	decidedAt := s.now().UTC().Format(time.RFC3339)
	if _, err := dbTx.Exec(`UPDATE matches SET status = ?, decided_at = ? WHERE id = ?`,
		string(status), decidedAt, id); err != nil {
		return fmt.Errorf("failed to update match %s: %w", id, err)
	}

	// One payment per transaction and per bill occurrence
	if status == MatchConfirmed {
		_, err = dbTx.Exec(`
		UPDATE matches SET status = ?, decided_at = ?
		WHERE id != ? AND status = ? AND (transaction_id = ? OR bill_id = ?)`,
			string(MatchSuperseded), decidedAt, id, string(MatchProposed), transactionID, billID)
		if err != nil {
			return fmt.Errorf("failed to supersede proposals for match %s: %w", id, err)
		}
	}

	return dbTx.Commit()
}

func scanMatch(row scanner) (*MatchRecord, error) {
	var (
		record      MatchRecord
		reasonsJSON string
		status      string
		createdAt   string
		decidedAt   sql.NullString
	)

	err := row.Scan(
		&record.ID,
		&record.RunID,
		&record.BillID,
		&record.TransactionID,
		&record.Score,
		&record.Confidence,
		&reasonsJSON,
		&status,
		&createdAt,
		&decidedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Status = MatchStatus(status)
	if err := json.Unmarshal([]byte(reasonsJSON), &record.Reasons); err != nil {
		return nil, fmt.Errorf("match %s has invalid reasons: %w", record.ID, err)
	}
	record.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if decidedAt.Valid {
		if t, err := time.Parse(time.RFC3339, decidedAt.String); err == nil {
			record.DecidedAt = &t
		}
	}

	return &record, nil
}

// ================================================================
// RUNS
// ================================================================

// StartRun records the start of a reconciliation run
func (s *Storage) StartRun(dryRun bool, lookbackDays int) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(`
	INSERT INTO reconcile_runs (id, started_at, dry_run, lookback_days, status)
	VALUES (?, ?, ?, ?, ?)`,
		id, s.now().UTC().Format(time.RFC3339), dryRun, lookbackDays, RunStatusRunning)
	if err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}
	return id, nil
}

// CompleteRun records the completion of a run
func (s *Storage) CompleteRun(runID string, counts RunCounts) error {
	_, err := s.db.Exec(`
	UPDATE reconcile_runs
	SET completed_at = ?, bills_considered = ?, transactions_considered = ?,
	    matches_found = ?, auto_confirmed = ?, status = ?
	WHERE id = ?`,
		s.now().UTC().Format(time.RFC3339),
		counts.BillsConsidered,
		counts.TransactionsConsidered,
		counts.MatchesFound,
		counts.AutoConfirmed,
		RunStatusCompleted,
		runID,
	)
	return err
}

// FailRun records that a run stopped with an error
func (s *Storage) FailRun(runID string, errMsg string) error {
	_, err := s.db.Exec(`
	UPDATE reconcile_runs SET completed_at = ?, status = ?, error_message = ? WHERE id = ?`,
		s.now().UTC().Format(time.RFC3339), RunStatusFailed, errMsg, runID)
	return err
}

const runColumns = `id, started_at, completed_at, dry_run, lookback_days, bills_considered,
	transactions_considered, matches_found, auto_confirmed, status, error_message`

// ListRuns returns recent runs
func (s *Storage) ListRuns(limit int) ([]ReconcileRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`SELECT `+runColumns+` FROM reconcile_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []ReconcileRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRun retrieves a run by ID
func (s *Storage) GetRun(runID string) (*ReconcileRun, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM reconcile_runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return run, err
}

func scanRun(row scanner) (*ReconcileRun, error) {
	var (
		run         ReconcileRun
		completedAt sql.NullString
	)
	err := row.Scan(
		&run.ID,
		&run.StartedAt,
		&completedAt,
		&run.DryRun,
		&run.LookbackDays,
		&run.BillsConsidered,
		&run.TransactionsConsidered,
		&run.MatchesFound,
		&run.AutoConfirmed,
		&run.Status,
		&run.ErrorMessage,
	)
	if err != nil {
		return nil, err
	}
	run.CompletedAt = completedAt.String
	return &run, nil
}

// ================================================================
// HELPERS
// ================================================================

func nullString(o matcher.Optional[string]) sql.NullString {
	v, ok := o.Get()
	return sql.NullString{String: v, Valid: ok}
}

func nullDate(o matcher.Optional[time.Time]) sql.NullString {
	v, ok := o.Get()
	if !ok {
		return sql.NullString{}
	}
	return sql.NullString{String: v.Format(dateLayout), Valid: true}
}

func optionalString(ns sql.NullString) matcher.Optional[string] {
	if !ns.Valid {
		return matcher.None[string]()
	}
	return matcher.Some(ns.String)
}

func (s *Storage) optionalDate(ns sql.NullString, column, billID string) matcher.Optional[time.Time] {
	if !ns.Valid || ns.String == "" {
		return matcher.None[time.Time]()
	}
	t, err := time.Parse(dateLayout, ns.String)
	if err != nil {
		s.logger.Warn("ignoring unparsable bill date",
			"bill_id", billID,
			"column", column,
			"value", ns.String)
		return matcher.None[time.Time]()
	}
	return matcher.Some(t)
}
