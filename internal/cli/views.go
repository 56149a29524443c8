package cli

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/ledger-recon/backend/internal/application/usecase/reconciliation"
	"github.com/ledger-recon/backend/internal/domain/entity"
	"github.com/ledger-recon/backend/internal/domain/valueobject"
)

func colorStatus(status valueobject.ReconciliationStatus) string {
	switch status {
	case valueobject.StatusMatched, valueobject.StatusManual:
		return pterm.Green(string(status))
	case valueobject.StatusToReview:
		return pterm.Yellow(string(status))
	case valueobject.StatusUnmatched:
		return pterm.Red(string(status))
	default:
		return string(status)
	}
}

func formatConfidence(c *float64) string {
	if c == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *c)
}

func renderBatchResult(result *valueobject.BatchResult) {
	pterm.DefaultSection.Printf("Batch run for venue %s", result.VenueID)

	tableData := pterm.TableData{{"Transaction", "Status", "Entry", "Confidence"}}
	for _, item := range result.Results {
		status := colorStatus(item.Status)
		if item.Skipped {
			status = pterm.Gray("SKIPPED")
		}
		entry := "-"
		if item.EntryID != nil {
			entry = item.EntryID.String()
		}
		tableData = append(tableData, []string{item.TransactionID.String(), status, entry, formatConfidence(item.Confidence)})
	}
	if len(result.Results) > 0 {
		_ = pterm.DefaultTable.WithHasHeader().WithData(tableData).Render()
	} else {
		pterm.Info.Println("No pending transactions")
	}

	pterm.Success.Printf("%d matched, %d to review, %d unmatched, %d skipped\n",
		result.MatchedCount, result.ToReviewCount, result.UnmatchedCount, result.SkippedCount)
}

func renderTransaction(tx *entity.BankTransaction) {
	entry := "-"
	if tx.MatchedEntryID != nil {
		entry = tx.MatchedEntryID.String()
	}

	tableData := pterm.TableData{
		{"Field", "Value"},
		{"ID", tx.ID.String()},
		{"Date", tx.TransactionDate.Format(reconciliation.DateLayout)},
		{"Description", tx.Description},
		{"Amount", tx.Amount.StringFixed(2)},
		{"Status", colorStatus(tx.Status)},
		{"Matched entry", entry},
		{"Confidence", formatConfidence(tx.MatchConfidence)},
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(tableData).Render()
}

func renderActionResult(verb string, tx *entity.BankTransaction) {
	renderTransaction(tx)
	pterm.Success.Printf("%s transaction %s\n", verb, tx.ID)
}

func renderReview(out *reconciliation.GetReviewOutput) {
	pterm.DefaultSection.Println("Bank transaction")
	renderTransaction(out.Transaction)

	if out.LinkedEntry != nil {
		pterm.Info.Printf("Linked to %s: %s (%s)\n",
			out.LinkedEntry.ID, out.LinkedEntry.Description, out.LinkedEntry.Date.Format(reconciliation.DateLayout))
	}

	pterm.DefaultSection.Println("Candidates")
	if len(out.Candidates) == 0 {
		pterm.Warning.Println("No candidates within the date window")
		return
	}

	tableData := pterm.TableData{{"Entry", "Date", "Description", "Amount", "Days", "Confidence"}}
	for _, c := range out.Candidates {
		tableData = append(tableData, []string{
			c.EntryID.String(),
			c.Date.Format(reconciliation.DateLayout),
			c.Description,
			c.Amount.StringFixed(2),
			fmt.Sprintf("%d", c.DayDistance),
			fmt.Sprintf("%.2f", c.Confidence),
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(tableData).Render()
}

func renderSummary(summary *valueobject.ReconciliationSummary) {
	pterm.DefaultSection.Printf("Venue %s", summary.VenueID)

	tableData := pterm.TableData{{"Status", "Count"}}
	for _, status := range valueobject.AllStatuses {
		tableData = append(tableData, []string{colorStatus(status), fmt.Sprintf("%d", summary.Counts[status])})
	}
	tableData = append(tableData, []string{"TOTAL", fmt.Sprintf("%d", summary.Total)})
	_ = pterm.DefaultTable.WithHasHeader().WithData(tableData).Render()
}
