package billing

import "github.com/shopspring/decimal"

// Payslip is the employee-side pay breakdown for one period.
type Payslip struct {
	RegularPay  decimal.Decimal `json:"regularPay"`
	OvertimePay decimal.Decimal `json:"overtimePay"`
	Gross       decimal.Decimal `json:"gross"`
	EPF         decimal.Decimal `json:"epf"`
	ESIC        decimal.Decimal `json:"esic"`
	Net         decimal.Decimal `json:"net"`
}

// ProcessedEmployee is an attendance record after overtime allocation and pay
// calculation. RegularDays + OvertimeDays == PresentDays.
type ProcessedEmployee struct {
	Name         string          `json:"name"`
	PresentDays  decimal.Decimal `json:"presentDays"`
	RegularDays  decimal.Decimal `json:"regularDays"`
	OvertimeDays decimal.Decimal `json:"overtimeDays"`
	AbsentDays   decimal.Decimal `json:"absentDays"`
	TotalDays    decimal.Decimal `json:"totalDays"`
	GrossPay     decimal.Decimal `json:"grossPay"`
	EPF          decimal.Decimal `json:"epf"`
	ESIC         decimal.Decimal `json:"esic"`
	Salary       decimal.Decimal `json:"salary"`

	// Set only on merged invoices.
	SourceCompanyName   string `json:"sourceCompanyName,omitempty"`
	SourceInvoiceNumber string `json:"sourceInvoiceNumber,omitempty"`
}

// CalculatePay computes gross and net pay with the payroll EPF/ESIC rates.
func CalculatePay(regularDays, overtimeDays, perDayRate, overtimeRate decimal.Decimal) Payslip {
	regularPay := regularDays.Mul(perDayRate)
	overtimePay := overtimeDays.Mul(perDayRate).Mul(overtimeRate)
	gross := regularPay.Add(overtimePay)
	epf := gross.Mul(PayrollEPFRate)
	esic := gross.Mul(PayrollESICRate)

	return Payslip{
		RegularPay:  regularPay,
		OvertimePay: overtimePay,
		Gross:       gross,
		EPF:         epf,
		ESIC:        esic,
		Net:         gross.Sub(epf).Sub(esic),
	}
}

// ProcessEmployees allocates overtime against the batch working days and
// computes each employee's pay. Monetary fields are rounded to 2 places.
func ProcessEmployees(records []AttendanceRecord, rates Rates) []ProcessedEmployee {
	workingDays := WorkingDaysInMonth(records)

	out := make([]ProcessedEmployee, 0, len(records))
	for _, rec := range records {
		regular, overtime := AllocateOvertime(rec.PresentDays, workingDays)
		slip := CalculatePay(regular, overtime, rates.PerDayRate, rates.OvertimeRate)

		out = append(out, ProcessedEmployee{
			Name:         rec.Name,
			PresentDays:  rec.PresentDays,
			RegularDays:  regular,
			OvertimeDays: overtime,
			AbsentDays:   rec.AbsentDays,
			TotalDays:    rec.TotalDays,
			GrossPay:     money(slip.Gross),
			EPF:          money(slip.EPF),
			ESIC:         money(slip.ESIC),
			Salary:       money(slip.Net),
		})
	}
	return out
}

func money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
