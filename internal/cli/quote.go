package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AshapuriCRM/backend/internal/billing"
	"github.com/AshapuriCRM/backend/internal/document"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type quoteOptions struct {
	file          string
	pdfOut        string
	billTo        string
	month         int
	year          int
	perDayRate    string
	serviceCharge string
	bonusRate     string
	overtimeRate  string
	taxType       string
	gstPaidBy     string
}

// QuoteOutput is what quote prints.
type QuoteOutput struct {
	Rates       billing.Rates               `json:"rates"`
	Employees   []billing.ProcessedEmployee `json:"employees"`
	Totals      billing.Totals              `json:"totals"`
	DroppedRows int                         `json:"droppedRows"`
}

func newQuoteCommand(defaults billing.Rates) *cobra.Command {
	opts := &quoteOptions{}

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Calculate an invoice from an attendance sheet",
		Example: `  # Quote with default rates
  billingctl quote -f attendance.json

  # Inter-state client, GST collected by the agency, PDF draft
  billingctl quote -f march.xlsx --tax-type igst --gst-paid-by ashapuri --pdf draft.pdf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runQuote(cmd, opts, defaults)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "attendance sheet, .json or .xlsx")
	f.StringVar(&opts.pdfOut, "pdf", "", "also render the draft invoice to this PDF file")
	f.StringVar(&opts.billTo, "bill-to", "", "client name printed on the PDF")
	f.IntVar(&opts.month, "month", 0, "billing month, 1-12 (default: current month)")
	f.IntVar(&opts.year, "year", 0, "billing year (default: current year)")
	f.StringVar(&opts.perDayRate, "per-day-rate", "", "rupees per billed day")
	f.StringVar(&opts.serviceCharge, "service-charge", "", "service charge percentage")
	f.StringVar(&opts.bonusRate, "bonus", "", "bonus percentage")
	f.StringVar(&opts.overtimeRate, "overtime-rate", "", "overtime multiplier, at least 1")
	f.StringVar(&opts.taxType, "tax-type", "", "gst or igst")
	f.StringVar(&opts.gstPaidBy, "gst-paid-by", "", "principal-employer or ashapuri")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runQuote(cmd *cobra.Command, opts *quoteOptions, defaults billing.Rates) error {
	log := zap.L().Named("cli.quote")

	cfg, err := opts.rateConfig()
	if err != nil {
		return err
	}
	rates, err := cfg.Resolve(defaults)
	if err != nil {
		return err
	}

	rows, err := readAttendance(opts.file)
	if err != nil {
		return err
	}

	records, dropped := billing.NormalizeAttendance(rows)
	if dropped > 0 {
		log.Warn("attendance rows dropped", zap.Int("dropped", dropped), zap.Int("received", len(rows)))
	}
	employees := billing.ProcessEmployees(records, rates)
	totals := billing.CalculateTotals(employees, rates)

	out := QuoteOutput{Rates: rates, Employees: employees, Totals: totals, DroppedRows: dropped}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}

	if opts.pdfOut == "" {
		return nil
	}
	return writeDraftPDF(cmd.Context(), opts, out)
}

func (o *quoteOptions) rateConfig() (billing.RateConfig, error) {
	var cfg billing.RateConfig
	var err error
	if cfg.PerDayRate, err = optionalDecimal("per-day-rate", o.perDayRate); err != nil {
		return cfg, err
	}
	if cfg.ServiceChargeRate, err = optionalDecimal("service-charge", o.serviceCharge); err != nil {
		return cfg, err
	}
	if cfg.BonusRate, err = optionalDecimal("bonus", o.bonusRate); err != nil {
		return cfg, err
	}
	if cfg.OvertimeRate, err = optionalDecimal("overtime-rate", o.overtimeRate); err != nil {
		return cfg, err
	}
	if o.taxType != "" {
		cfg.TaxType = &o.taxType
	}
	if o.gstPaidBy != "" {
		cfg.GSTPaidBy = &o.gstPaidBy
	}
	return cfg, nil
}

func optionalDecimal(flag, raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", flag, err)
	}
	return &d, nil
}

func readAttendance(path string) ([]billing.RawAttendanceRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return document.ReadAttendance(f)
	case ".json":
		var rows []billing.RawAttendanceRow
		if err := json.NewDecoder(f).Decode(&rows); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("unsupported attendance file %q, want .json or .xlsx", path)
	}
}

func writeDraftPDF(ctx context.Context, opts *quoteOptions, q QuoteOutput) error {
	now := time.Now()
	month, year := opts.month, opts.year
	if month == 0 {
		month = int(now.Month())
	}
	if year == 0 {
		year = now.Year()
	}

	pdf, err := document.NewFPDFRenderer().Render(ctx, document.Invoice{
		Number:            "DRAFT",
		IssuedOn:          now,
		Month:             month,
		Year:              year,
		Status:            "DRAFT",
		BillTo:            document.Party{Name: opts.billTo},
		Bill:              q.Totals.Bill,
		Tax:               q.Totals.Tax,
		Attendance:        q.Totals.Attendance,
		SubTotal:          q.Totals.SubTotal,
		RoundOffSubTotal:  q.Totals.RoundOffSubTotal,
		RoundOff:          q.Totals.RoundOff,
		TotalBeforeTax:    q.Totals.TotalBeforeTax,
		AmountInWords:     q.Totals.AmountInWords,
		TaxType:           q.Rates.TaxType,
		GSTPaidBy:         q.Rates.GSTPaidBy,
		ServiceChargeRate: q.Rates.ServiceChargeRate,
		BonusRate:         q.Rates.BonusRate,
		OvertimeRate:      q.Rates.OvertimeRate,
		Employees:         q.Employees,
	})
	if err != nil {
		return fmt.Errorf("render draft: %w", err)
	}
	return os.WriteFile(opts.pdfOut, pdf, 0o644)
}
