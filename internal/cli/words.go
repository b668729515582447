package cli

import (
	"fmt"

	"github.com/AshapuriCRM/backend/internal/billing"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newWordsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "words <amount>",
		Short:   "Spell a rupee amount in Indian numbering",
		Example: "  billingctl words 125000.50",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[0])
			if err != nil {
				return fmt.Errorf("invalid amount %q", args[0])
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), billing.AmountInWords(billing.RoundHalfUp(amount).IntPart()))
			return err
		},
	}
}
