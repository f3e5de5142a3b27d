// Package matcher reconciles bank transactions against recurring bills.
//
// Each (transaction, bill) pair is scored on several signals:
//   - Name/description similarity (exact, partial, token overlap)
//   - Category and recipient equality
//   - Amount within a percentage tolerance
//   - Distance from the bill's due date
//
// Pairs are then assigned greedily by descending score so that every bill and
// every transaction ends up in at most one match.
//
// Example usage:
//
//	m := matcher.NewMatcher(matcher.DefaultSettings())
//	matches, err := m.Match(transactions, bills)
//	for _, match := range matches {
//		fmt.Println(match.Bill.Name, match.Confidence, match.Reasons)
//	}
package matcher

import (
	"fmt"
	"sort"
)

// Matcher assigns transactions to bills
type Matcher struct {
	settings Settings
}

// NewMatcher creates a new matcher with the given settings
func NewMatcher(settings Settings) *Matcher {
	return &Matcher{
		settings: settings,
	}
}

// Settings returns the settings the matcher was built with
func (m *Matcher) Settings() Settings {
	return m.settings
}

// Candidates scores every eligible (outflow transaction, bill) pair and returns
// those that cleared MinMatchScore, highest score first. Ties keep enumeration
// order: transactions outer, bills inner.
func (m *Matcher) Candidates(transactions []*Transaction, bills []*Bill) ([]Match, error) {
	for _, bill := range bills {
		if bill.ID == "" {
			return nil, fmt.Errorf("bill %q: %w", bill.Name, ErrMissingBillID)
		}
	}

	var candidates []Match
	for _, tx := range transactions {
		if !tx.IsOutflow() {
			continue
		}

		key, err := tx.Identity()
		if err != nil {
			return nil, err
		}

		for _, bill := range bills {
			if !IsEligible(bill, tx.Date) {
				continue
			}

			score, reasons, ok := Score(tx, bill, m.settings)
			if !ok {
				continue
			}

			candidates = append(candidates, Match{
				Bill:           bill,
				Transaction:    tx,
				TransactionKey: key,
				Score:          score,
				Confidence:     Classify(score),
				Reasons:        reasons,
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	return candidates, nil
}

// Match returns a one-to-one assignment of transactions to bills.
func (m *Matcher) Match(transactions []*Transaction, bills []*Bill) ([]Match, error) {
	candidates, err := m.Candidates(transactions, bills)
	if err != nil {
		return nil, err
	}
	return Assign(candidates), nil
}

// Assign claims candidates greedily in the order given, skipping any whose
// bill or transaction is already taken. Callers pass candidates sorted by
// score, as Candidates returns them.
//
// Greedy claiming keeps every bill and transaction in at most one match but
// does not guarantee the maximum total score.
func Assign(candidates []Match) []Match {
	claimedBills := make(map[string]bool)
	claimedTransactions := make(map[string]bool)

	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		if claimedBills[c.Bill.ID] || claimedTransactions[c.TransactionKey] {
			continue
		}
		claimedBills[c.Bill.ID] = true
		claimedTransactions[c.TransactionKey] = true
		matches = append(matches, c)
	}

	return matches
}
