package billing

import "github.com/shopspring/decimal"

const (
	TaxTypeGST  = "gst"
	TaxTypeIGST = "igst"

	GSTPaidByPrincipalEmployer = "principal-employer"
	GSTPaidByAshapuri          = "ashapuri"

	// OvertimeOffsetDays is subtracted from the working days of a month to get
	// the number of days billed at the regular rate.
	OvertimeOffsetDays = 4
)

// Statutory rates. Payroll (employee-side) and invoice (employer-side) PF/ESIC
// rates are different on purpose and must stay separate.
var (
	InvoicePFRate   = decimal.RequireFromString("0.13")
	InvoiceESICRate = decimal.RequireFromString("0.0325")

	PayrollEPFRate  = decimal.RequireFromString("0.12")
	PayrollESICRate = decimal.RequireFromString("0.0075")

	CGSTRate = decimal.RequireFromString("0.09")
	SGSTRate = decimal.RequireFromString("0.09")
	IGSTRate = decimal.RequireFromString("0.18")

	DefaultPerDayRate        = decimal.NewFromInt(466)
	DefaultServiceChargeRate = decimal.NewFromInt(7)
	DefaultBonusRate         = decimal.Zero
	DefaultOvertimeRate      = decimal.RequireFromString("1.5")

	hundred = decimal.NewFromInt(100)
)
