package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/eshaffer321/billmatch/internal/application/reconcile"
	"github.com/eshaffer321/billmatch/internal/domain/matcher"
)

// PrintHeader prints the application header
func PrintHeader(w io.Writer, dryRun bool) {
	mode := "PRODUCTION"
	if dryRun {
		mode = "DRY-RUN"
	}
	fmt.Fprintf(w, "billmatch: reconcile (%s mode)\n", mode)
}

// PrintConfiguration prints the matching configuration
func PrintConfiguration(w io.Writer, settings matcher.Settings, lookbackDays int) {
	lookback := "all"
	if lookbackDays > 0 {
		lookback = fmt.Sprintf("%d days", lookbackDays)
	}
	fmt.Fprintf(w, "Lookback: %s | Amount tolerance: %g%% | Date tolerance: %d days | Min score: %d",
		lookback, settings.AmountTolerance, settings.DateToleranceDays, settings.MinMatchScore)
	if settings.AutoMatchHighConfidence && !settings.RequireConfirmation {
		fmt.Fprint(w, " | Auto-confirm: high")
	}
	fmt.Fprint(w, "\n\n")
}

// PrintRunSummary prints the match table and the run summary
func PrintRunSummary(w io.Writer, result *reconcile.RunResult) {
	if len(result.Matches) == 0 {
		fmt.Fprintln(w, "No matches found.")
	} else {
		fmt.Fprintf(w, "%-24s %-28s %10s %12s %5s  %-6s  %s\n",
			"BILL", "TRANSACTION", "DATE", "AMOUNT", "SCORE", "CONF", "STATUS")
		for _, m := range result.Matches {
			fmt.Fprintf(w, "%-24s %-28s %10s %12s %5d  %-6s  %s\n",
				truncate(m.Bill.Name, 24),
				truncate(m.Transaction.Description, 28),
				m.Transaction.Date.Format("2006-01-02"),
				m.Transaction.Amount.StringFixed(2),
				m.Score,
				m.Confidence,
				statusLabel(m, result.DryRun),
			)
			if len(m.Reasons) > 0 {
				fmt.Fprintf(w, "    %s\n", strings.Join(m.Reasons, "; "))
			}
		}
	}

	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "Summary: Bills=%d Transactions=%d Matches=%d AutoConfirmed=%d\n",
		result.BillsConsidered,
		result.TransactionsConsidered,
		len(result.Matches),
		result.AutoConfirmed)

	if !result.DryRun && len(result.Matches) > 0 {
		fmt.Fprintf(w, "\nRun %s stored. Review proposed matches before confirming.\n", result.RunID)
	}
}

func statusLabel(m reconcile.MatchOutcome, dryRun bool) string {
	if dryRun {
		return "preview"
	}
	return string(m.Status)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
