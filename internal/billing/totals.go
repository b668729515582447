package billing

import "github.com/shopspring/decimal"

// BillDetails holds the invoice level amounts. Emitted values carry at most
// two decimal places.
type BillDetails struct {
	BaseAmount     decimal.Decimal `json:"baseAmount"`
	ServiceCharge  decimal.Decimal `json:"serviceCharge"`
	PFAmount       decimal.Decimal `json:"pfAmount"`
	ESICAmount     decimal.Decimal `json:"esicAmount"`
	BonusAmount    decimal.Decimal `json:"bonusAmount"`
	OvertimeAmount decimal.Decimal `json:"overtimeAmount"`
	GSTAmount      decimal.Decimal `json:"gstAmount"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
}

// AttendanceAggregate summarises the attendance an invoice bills for.
// TotalRegularDaysBilled sums regular days only; overtime days are billed
// separately through TotalOvertimeDays.
type AttendanceAggregate struct {
	TotalEmployees         int             `json:"totalEmployees"`
	TotalRegularDaysBilled decimal.Decimal `json:"totalRegularDaysBilled"`
	TotalOvertimeDays      decimal.Decimal `json:"totalOvertimeDays"`
	PerDayRate             decimal.Decimal `json:"perDayRate"`
	WorkingDays            decimal.Decimal `json:"workingDays"`
}

type TaxBreakdown struct {
	CGST decimal.Decimal `json:"cgst"`
	SGST decimal.Decimal `json:"sgst"`
	IGST decimal.Decimal `json:"igst"`
}

func (t TaxBreakdown) Total() decimal.Decimal {
	return t.CGST.Add(t.SGST).Add(t.IGST)
}

// Totals is the full result of an invoice calculation.
type Totals struct {
	Bill             BillDetails         `json:"billDetails"`
	Attendance       AttendanceAggregate `json:"attendance"`
	SubTotal         decimal.Decimal     `json:"subTotal"`
	RoundOffSubTotal decimal.Decimal     `json:"roundOffSubTotal"`
	RoundOff         decimal.Decimal     `json:"roundOff"`
	TotalBeforeTax   decimal.Decimal     `json:"totalBeforeTax"`
	Tax              TaxBreakdown        `json:"tax"`
	GrandTotal       decimal.Decimal     `json:"grandTotal"`
	AmountInWords    string              `json:"amountInWords"`
}

// CalculateTotals aggregates processed employees into invoice totals.
//
// Service charge is applied to the rounded statutory-inclusive subtotal. GST
// is always computed and stored, but only added to the grand total when the
// staffing company pays it.
func CalculateTotals(employees []ProcessedEmployee, rates Rates) Totals {
	totalRegular := decimal.Zero
	totalOvertime := decimal.Zero
	workingDays := decimal.Zero
	for _, e := range employees {
		totalRegular = totalRegular.Add(e.RegularDays)
		totalOvertime = totalOvertime.Add(e.OvertimeDays)
		if e.TotalDays.GreaterThan(workingDays) {
			workingDays = e.TotalDays
		}
	}

	baseTotal := totalRegular.Mul(rates.PerDayRate)
	overtimeAmount := totalOvertime.Mul(rates.PerDayRate).Mul(rates.OvertimeRate)
	statutoryBase := baseTotal.Add(overtimeAmount)

	pf := statutoryBase.Mul(InvoicePFRate)
	esic := statutoryBase.Mul(InvoiceESICRate)
	bonus := statutoryBase.Mul(rates.BonusRate.Div(hundred))

	subTotal := baseTotal.Add(overtimeAmount).Add(pf).Add(esic).Add(bonus)
	roundOffSubTotal := RoundHalfUp(subTotal)

	serviceCharge := roundOffSubTotal.Mul(rates.ServiceChargeRate.Div(hundred))
	totalBeforeTax := roundOffSubTotal.Add(serviceCharge)

	tax := ComputeTax(totalBeforeTax, rates.TaxType)
	grandTotal := GrandTotal(totalBeforeTax, tax, rates.GSTPaidBy)

	return Totals{
		Bill: BillDetails{
			BaseAmount:     money(baseTotal),
			ServiceCharge:  money(serviceCharge),
			PFAmount:       money(pf),
			ESICAmount:     money(esic),
			BonusAmount:    money(bonus),
			OvertimeAmount: money(overtimeAmount),
			GSTAmount:      money(tax.Total()),
			TotalAmount:    grandTotal,
		},
		Attendance: AttendanceAggregate{
			TotalEmployees:         len(employees),
			TotalRegularDaysBilled: totalRegular,
			TotalOvertimeDays:      totalOvertime,
			PerDayRate:             rates.PerDayRate,
			WorkingDays:            workingDays,
		},
		SubTotal:         money(subTotal),
		RoundOffSubTotal: roundOffSubTotal,
		RoundOff:         money(roundOffSubTotal.Sub(subTotal)),
		TotalBeforeTax:   money(totalBeforeTax),
		Tax: TaxBreakdown{
			CGST: money(tax.CGST),
			SGST: money(tax.SGST),
			IGST: money(tax.IGST),
		},
		GrandTotal:    grandTotal,
		AmountInWords: AmountInWords(grandTotal.IntPart()),
	}
}

// ComputeTax splits GST into CGST+SGST for intra-state supply or IGST for
// inter-state supply. Values are not rounded.
func ComputeTax(totalBeforeTax decimal.Decimal, taxType string) TaxBreakdown {
	if taxType == TaxTypeIGST {
		return TaxBreakdown{
			CGST: decimal.Zero,
			SGST: decimal.Zero,
			IGST: totalBeforeTax.Mul(IGSTRate),
		}
	}
	return TaxBreakdown{
		CGST: totalBeforeTax.Mul(CGSTRate),
		SGST: totalBeforeTax.Mul(SGSTRate),
		IGST: decimal.Zero,
	}
}

// GrandTotal is the rounded amount owed. Under reverse charge
// (principal-employer) the client remits GST itself, so it is left out.
func GrandTotal(totalBeforeTax decimal.Decimal, tax TaxBreakdown, gstPaidBy string) decimal.Decimal {
	if gstPaidBy == GSTPaidByAshapuri {
		return RoundHalfUp(totalBeforeTax.Add(tax.Total()))
	}
	return RoundHalfUp(totalBeforeTax)
}

var half = decimal.RequireFromString("0.5")

// RoundHalfUp rounds to the nearest integer, ties toward positive infinity.
func RoundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Add(half).Floor()
}
