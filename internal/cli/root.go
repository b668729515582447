package cli

import (
	"github.com/AshapuriCRM/backend/internal/billing"

	"github.com/spf13/cobra"
)

// NewRootCommand builds billingctl. defaults are the rates used when a flag
// is not given.
func NewRootCommand(defaults billing.Rates) *cobra.Command {
	root := &cobra.Command{
		Use:   "billingctl",
		Short: "Offline tools for security staffing invoices",
		Long: `billingctl runs the invoice calculation without a database.

It reads an attendance sheet (JSON or XLSX), prints the processed employees
and invoice totals, and can render the draft invoice to PDF.`,
		SilenceUsage: true,
	}

	root.AddCommand(newQuoteCommand(defaults), newWordsCommand())
	return root
}
