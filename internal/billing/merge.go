package billing

import (
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// MergeSource is the part of a persisted invoice the merger reads.
type MergeSource struct {
	InvoiceID         uuid.UUID
	InvoiceNumber     string
	CompanyID         uuid.UUID
	CompanyName       string
	Bill              BillDetails
	Attendance        AttendanceAggregate
	Tax               TaxBreakdown
	Employees         []ProcessedEmployee
	TaxType           string
	PaymentMethod     string
	GSTPaidBy         string
	ServiceChargeRate decimal.Decimal
	BonusRate         decimal.Decimal
	OvertimeRate      decimal.Decimal
}

// MergeResult is the consolidated financial content of a merged invoice.
type MergeResult struct {
	SourceInvoiceIDs  []uuid.UUID
	CompanyIDs        []uuid.UUID
	CompanyNames      []string
	BillToName        string
	Bill              BillDetails
	Attendance        AttendanceAggregate
	Tax               TaxBreakdown
	Employees         []ProcessedEmployee
	TaxType           string
	PaymentMethod     string
	GSTPaidBy         string
	ServiceChargeRate decimal.Decimal
	BonusRate         decimal.Decimal
	OvertimeRate      decimal.Decimal
}

// BillToSeparator joins company names on a merged invoice.
const BillToSeparator = " + "

// MergeInvoices consolidates already calculated invoices. Amounts are summed
// field by field and never re-derived from employee data.
func MergeInvoices(sources []MergeSource) (MergeResult, error) {
	if len(sources) < 2 {
		return MergeResult{}, ErrNotEnoughSources
	}

	res := MergeResult{
		SourceInvoiceIDs: make([]uuid.UUID, 0, len(sources)),
		Attendance: AttendanceAggregate{
			TotalRegularDaysBilled: decimal.Zero,
			TotalOvertimeDays:      decimal.Zero,
			PerDayRate:             decimal.Zero,
			WorkingDays:            decimal.Zero,
		},
		Bill:              zeroBill(),
		Tax:               TaxBreakdown{CGST: decimal.Zero, SGST: decimal.Zero, IGST: decimal.Zero},
		ServiceChargeRate: decimal.Zero,
		BonusRate:         decimal.Zero,
		OvertimeRate:      decimal.Zero,
	}

	var (
		companyIDs     []uuid.UUID
		companyNames   []string
		taxTypes       []string
		paymentMethods []string
		gstPayers      []string
	)

	for _, src := range sources {
		res.SourceInvoiceIDs = append(res.SourceInvoiceIDs, src.InvoiceID)
		companyIDs = append(companyIDs, src.CompanyID)
		companyNames = append(companyNames, src.CompanyName)

		res.Bill = addBill(res.Bill, src.Bill)
		res.Tax = TaxBreakdown{
			CGST: res.Tax.CGST.Add(src.Tax.CGST),
			SGST: res.Tax.SGST.Add(src.Tax.SGST),
			IGST: res.Tax.IGST.Add(src.Tax.IGST),
		}

		res.Attendance.TotalEmployees += src.Attendance.TotalEmployees
		res.Attendance.TotalRegularDaysBilled = res.Attendance.TotalRegularDaysBilled.Add(src.Attendance.TotalRegularDaysBilled)
		res.Attendance.TotalOvertimeDays = res.Attendance.TotalOvertimeDays.Add(src.Attendance.TotalOvertimeDays)
		res.Attendance.PerDayRate = decimal.Max(res.Attendance.PerDayRate, src.Attendance.PerDayRate)
		res.Attendance.WorkingDays = decimal.Max(res.Attendance.WorkingDays, src.Attendance.WorkingDays)

		for _, e := range src.Employees {
			e.SourceCompanyName = src.CompanyName
			e.SourceInvoiceNumber = src.InvoiceNumber
			res.Employees = append(res.Employees, e)
		}

		taxTypes = append(taxTypes, src.TaxType)
		paymentMethods = append(paymentMethods, src.PaymentMethod)
		gstPayers = append(gstPayers, src.GSTPaidBy)

		res.ServiceChargeRate = decimal.Max(res.ServiceChargeRate, src.ServiceChargeRate)
		res.BonusRate = decimal.Max(res.BonusRate, src.BonusRate)
		res.OvertimeRate = decimal.Max(res.OvertimeRate, src.OvertimeRate)
	}

	res.CompanyIDs = lo.Uniq(companyIDs)
	res.CompanyNames = lo.Uniq(lo.Filter(companyNames, func(n string, _ int) bool {
		return strings.TrimSpace(n) != ""
	}))
	res.BillToName = strings.Join(res.CompanyNames, BillToSeparator)

	res.TaxType = MajorityVote(taxTypes)
	res.PaymentMethod = MajorityVote(paymentMethods)
	res.GSTPaidBy = MajorityVote(gstPayers)

	return res, nil
}

// MajorityVote returns the most frequent value. Ties go to the value seen
// first. Empty input yields "".
func MajorityVote(values []string) string {
	counts := make(map[string]int, len(values))
	order := make([]string, 0, len(values))
	for _, v := range values {
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}

	winner, best := "", 0
	for _, v := range order {
		if counts[v] > best {
			winner, best = v, counts[v]
		}
	}
	return winner
}

func zeroBill() BillDetails {
	return BillDetails{
		BaseAmount:     decimal.Zero,
		ServiceCharge:  decimal.Zero,
		PFAmount:       decimal.Zero,
		ESICAmount:     decimal.Zero,
		BonusAmount:    decimal.Zero,
		OvertimeAmount: decimal.Zero,
		GSTAmount:      decimal.Zero,
		TotalAmount:    decimal.Zero,
	}
}

func addBill(a, b BillDetails) BillDetails {
	return BillDetails{
		BaseAmount:     a.BaseAmount.Add(b.BaseAmount),
		ServiceCharge:  a.ServiceCharge.Add(b.ServiceCharge),
		PFAmount:       a.PFAmount.Add(b.PFAmount),
		ESICAmount:     a.ESICAmount.Add(b.ESICAmount),
		BonusAmount:    a.BonusAmount.Add(b.BonusAmount),
		OvertimeAmount: a.OvertimeAmount.Add(b.OvertimeAmount),
		GSTAmount:      a.GSTAmount.Add(b.GSTAmount),
		TotalAmount:    a.TotalAmount.Add(b.TotalAmount),
	}
}
