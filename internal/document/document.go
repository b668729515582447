package document

import (
	"context"
	"fmt"
	"time"

	"github.com/AshapuriCRM/backend/internal/billing"

	"github.com/shopspring/decimal"
)

const ContentTypePDF = "application/pdf"

// Party is a name and address block printed on an invoice.
type Party struct {
	Name    string
	Address string
	GSTIN   string
	State   string
}

// Invoice is everything a renderer needs. It is a read model built by the
// invoice service and never persisted.
type Invoice struct {
	Number            string
	IssuedOn          time.Time
	Month             int
	Year              int
	Status            string
	Issuer            Party
	BillTo            Party
	Bill              billing.BillDetails
	Tax               billing.TaxBreakdown
	Attendance        billing.AttendanceAggregate
	SubTotal          decimal.Decimal
	RoundOffSubTotal  decimal.Decimal
	RoundOff          decimal.Decimal
	TotalBeforeTax    decimal.Decimal
	AmountInWords     string
	TaxType           string
	GSTPaidBy         string
	ServiceChargeRate decimal.Decimal
	BonusRate         decimal.Decimal
	OvertimeRate      decimal.Decimal
	Employees         []billing.ProcessedEmployee
	IsMerged          bool
	SourceInvoices    []string
}

// Period renders the billing month, e.g. "March 2026".
func (inv Invoice) Period() string {
	if inv.Month < 1 || inv.Month > 12 {
		return fmt.Sprintf("%d", inv.Year)
	}
	return fmt.Sprintf("%s %d", time.Month(inv.Month).String(), inv.Year)
}

// GSTIncluded reports whether GST is part of the payable total.
func (inv Invoice) GSTIncluded() bool {
	return inv.GSTPaidBy == billing.GSTPaidByAshapuri
}

// Renderer turns an invoice into PDF bytes.
type Renderer interface {
	Render(ctx context.Context, inv Invoice) ([]byte, error)
}

// Stored describes an uploaded document.
type Stored struct {
	URL   string
	Key   string
	Pages int
}

// Key is the storage key for an invoice number.
func Key(number string) string {
	return number + ".pdf"
}

func rupees(d decimal.Decimal) string {
	return "Rs. " + d.StringFixed(2)
}
