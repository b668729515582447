package billing_test

import (
	"testing"

	"github.com/AshapuriCRM/backend/internal/billing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func sampleEmployees(rates billing.Rates) []billing.ProcessedEmployee {
	return billing.ProcessEmployees([]billing.AttendanceRecord{
		{Name: "Ramesh", PresentDays: d("28"), TotalDays: d("30")},
		{Name: "Suresh", PresentDays: d("31"), TotalDays: d("30")},
		{Name: "Mahesh", PresentDays: d("0"), TotalDays: d("30")},
	}, rates)
}

func TestCalculateTotals_PrincipalEmployer(t *testing.T) {
	rates := billing.DefaultRates()

	totals := billing.CalculateTotals(sampleEmployees(rates), rates)

	assert.Equal(t, 3, totals.Attendance.TotalEmployees)
	assert.Equal(t, "52", totals.Attendance.TotalRegularDaysBilled.String())
	assert.Equal(t, "7", totals.Attendance.TotalOvertimeDays.String())
	assert.Equal(t, "30", totals.Attendance.WorkingDays.String())
	assert.Equal(t, "466", totals.Attendance.PerDayRate.String())

	assert.Equal(t, "24232", totals.Bill.BaseAmount.String())
	assert.Equal(t, "4893", totals.Bill.OvertimeAmount.String())
	assert.Equal(t, "3786.25", totals.Bill.PFAmount.String())
	assert.Equal(t, "946.56", totals.Bill.ESICAmount.String())
	assert.Equal(t, "0", totals.Bill.BonusAmount.String())
	assert.Equal(t, "33857.81", totals.SubTotal.String())
	assert.Equal(t, "33858", totals.RoundOffSubTotal.String())
	assert.Equal(t, "0.19", totals.RoundOff.String())
	assert.Equal(t, "2370.06", totals.Bill.ServiceCharge.String())
	assert.Equal(t, "36228.06", totals.TotalBeforeTax.String())
	assert.Equal(t, "3260.53", totals.Tax.CGST.String())
	assert.Equal(t, "3260.53", totals.Tax.SGST.String())
	assert.True(t, totals.Tax.IGST.IsZero())
	assert.Equal(t, "6521.05", totals.Bill.GSTAmount.String())

	// reverse charge: GST stored but not billed
	assert.Equal(t, "36228", totals.Bill.TotalAmount.String())
	assert.Equal(t, "36228", totals.GrandTotal.String())
	assert.Equal(t, "Thirty Six Thousand Two Hundred Twenty Eight Rupees Only", totals.AmountInWords)
}

func TestCalculateTotals_AshapuriPaysGST(t *testing.T) {
	rates := billing.DefaultRates()
	rates.GSTPaidBy = billing.GSTPaidByAshapuri

	totals := billing.CalculateTotals(sampleEmployees(rates), rates)

	assert.Equal(t, "6521.05", totals.Bill.GSTAmount.String())
	assert.Equal(t, "42749", totals.Bill.TotalAmount.String())
}

func TestCalculateTotals_IGST(t *testing.T) {
	rates := billing.DefaultRates()
	rates.TaxType = billing.TaxTypeIGST
	rates.GSTPaidBy = billing.GSTPaidByAshapuri

	totals := billing.CalculateTotals(sampleEmployees(rates), rates)

	assert.True(t, totals.Tax.CGST.IsZero())
	assert.True(t, totals.Tax.SGST.IsZero())
	assert.Equal(t, "6521.05", totals.Tax.IGST.String())
	assert.Equal(t, "6521.05", totals.Bill.GSTAmount.String())
	assert.Equal(t, "42749", totals.Bill.TotalAmount.String())
}

func TestCalculateTotals_BonusAndServiceChargeOrder(t *testing.T) {
	rates := billing.DefaultRates()
	rates.BonusRate = d("8.33")
	rates.ServiceChargeRate = d("10")
	employees := []billing.ProcessedEmployee{
		{Name: "a", PresentDays: d("10"), RegularDays: d("10"), OvertimeDays: d("0"), TotalDays: d("26")},
	}

	totals := billing.CalculateTotals(employees, rates)

	// base 4660, pf 605.8, esic 151.45, bonus 388.178
	assert.Equal(t, "388.18", totals.Bill.BonusAmount.String())
	assert.Equal(t, "5805.43", totals.SubTotal.String())
	assert.Equal(t, "5805", totals.RoundOffSubTotal.String())
	// service charge is taken on the rounded subtotal
	assert.Equal(t, "580.5", totals.Bill.ServiceCharge.String())
	assert.Equal(t, "6386", totals.Bill.TotalAmount.String())
}

func TestCalculateTotals_EmptyBatch(t *testing.T) {
	rates := billing.DefaultRates()

	totals := billing.CalculateTotals(nil, rates)

	assert.Zero(t, totals.Attendance.TotalEmployees)
	assert.True(t, totals.Bill.TotalAmount.IsZero())
	assert.True(t, totals.Bill.GSTAmount.IsZero())
	assert.True(t, totals.Attendance.WorkingDays.IsZero())
	assert.Equal(t, "Zero Rupees Only", totals.AmountInWords)
}

func TestCalculateTotals_Deterministic(t *testing.T) {
	rates := billing.DefaultRates()
	employees := sampleEmployees(rates)

	first := billing.CalculateTotals(employees, rates)
	second := billing.CalculateTotals(employees, rates)

	assert.Equal(t, first, second)
}

func TestCalculateTotals_MonotonicInPresentDays(t *testing.T) {
	for _, payer := range []string{billing.GSTPaidByPrincipalEmployer, billing.GSTPaidByAshapuri} {
		rates := billing.DefaultRates()
		rates.GSTPaidBy = payer
		rates.BonusRate = d("4.81")

		previous := decimal.NewFromInt(-1)
		for present := 0; present <= 34; present++ {
			records := []billing.AttendanceRecord{
				{Name: "fixed", PresentDays: d("20"), TotalDays: d("30")},
				{Name: "moving", PresentDays: decimal.NewFromInt(int64(present)), TotalDays: d("30")},
			}
			totals := billing.CalculateTotals(billing.ProcessEmployees(records, rates), rates)

			assert.True(t, totals.GrandTotal.GreaterThanOrEqual(previous), "present=%d payer=%s", present, payer)
			previous = totals.GrandTotal
		}
	}
}

func TestGrandTotal(t *testing.T) {
	totalBeforeTax := d("100000")
	tax := billing.ComputeTax(totalBeforeTax, billing.TaxTypeGST)

	assert.Equal(t, "100000", billing.GrandTotal(totalBeforeTax, tax, billing.GSTPaidByPrincipalEmployer).String())
	assert.Equal(t, "118000", billing.GrandTotal(totalBeforeTax, tax, billing.GSTPaidByAshapuri).String())

	igst := billing.ComputeTax(totalBeforeTax, billing.TaxTypeIGST)
	assert.Equal(t, "18000", igst.IGST.String())
	assert.Equal(t, "118000", billing.GrandTotal(totalBeforeTax, igst, billing.GSTPaidByAshapuri).String())
}

func TestRoundHalfUp(t *testing.T) {
	tests := map[string]string{
		"0":       "0",
		"0.49":    "0",
		"0.5":     "1",
		"1.5":     "2",
		"2.5":     "3",
		"33857.8": "33858",
		"-0.5":    "0",
	}
	for in, want := range tests {
		assert.Equal(t, want, billing.RoundHalfUp(d(in)).String(), in)
	}
}
