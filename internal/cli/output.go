package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/eshaffer321/recurring-finder/internal/application/service"
)

// PrintHeader prints the application header
func PrintHeader(w io.Writer, inputs []string, transactions int) {
	fmt.Fprintf(w, "find-recurring: %d transactions from %s\n\n", transactions, strings.Join(inputs, ", "))
}

// PrintReport prints the recurring charges table and the monthly total.
func PrintReport(w io.Writer, report *service.Report) {
	if len(report.Subscriptions) == 0 {
		fmt.Fprintln(w, "No recurring charges found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Merchant\tMonthly Cost\tCharges\tCancel Link")
	for _, sub := range report.Subscriptions {
		fmt.Fprintf(tw, "%s\t$%s\t%d\t%s\n",
			sub.Merchant,
			sub.MonthlyCost.StringFixed(2),
			len(sub.Transactions),
			sub.CancelLink)
	}
	_ = tw.Flush()

	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "Recurring charges: %d | Total monthly cost: $%s\n",
		len(report.Subscriptions),
		report.TotalMonthlyCost.StringFixed(2))
}

// PrintSaved reports where a persisted run can be found.
func PrintSaved(w io.Writer, runID, dbPath string) {
	fmt.Fprintf(w, "\nSaved run %s to %s\n", runID, dbPath)
}
