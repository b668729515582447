package document

import (
	"fmt"
	"io"
	"strings"

	"github.com/AshapuriCRM/backend/internal/billing"

	"github.com/xuri/excelize/v2"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	summarySheet   = "Summary"
	employeesSheet = "Employees"
)

// Workbook exports an invoice as a two sheet spreadsheet.
func Workbook(inv Invoice) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(employeesSheet); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	summary := [][]any{
		{"Invoice No.", inv.Number},
		{"Date", inv.IssuedOn.Format("2006-01-02")},
		{"Period", inv.Period()},
		{"Bill To", inv.BillTo.Name},
		{"GSTIN", inv.BillTo.GSTIN},
		{"Status", inv.Status},
		{},
		{"Employees", inv.Attendance.TotalEmployees},
		{"Working days", inv.Attendance.WorkingDays.InexactFloat64()},
		{"Regular days billed", inv.Attendance.TotalRegularDaysBilled.InexactFloat64()},
		{"Overtime days", inv.Attendance.TotalOvertimeDays.InexactFloat64()},
		{"Per day rate", inv.Attendance.PerDayRate.InexactFloat64()},
		{},
		{"Base amount", inv.Bill.BaseAmount.InexactFloat64()},
		{"Overtime amount", inv.Bill.OvertimeAmount.InexactFloat64()},
		{"PF", inv.Bill.PFAmount.InexactFloat64()},
		{"ESIC", inv.Bill.ESICAmount.InexactFloat64()},
		{"Bonus", inv.Bill.BonusAmount.InexactFloat64()},
		{"Sub total", inv.SubTotal.InexactFloat64()},
		{"Round off", inv.RoundOff.InexactFloat64()},
		{"Service charge", inv.Bill.ServiceCharge.InexactFloat64()},
		{"Total before tax", inv.TotalBeforeTax.InexactFloat64()},
		{"CGST", inv.Tax.CGST.InexactFloat64()},
		{"SGST", inv.Tax.SGST.InexactFloat64()},
		{"IGST", inv.Tax.IGST.InexactFloat64()},
		{"GST paid by", inv.GSTPaidBy},
		{"Grand total", inv.Bill.TotalAmount.InexactFloat64()},
		{"Amount in words", inv.AmountInWords},
	}
	if inv.IsMerged {
		summary = append(summary, []any{"Source invoices", strings.Join(inv.SourceInvoices, ", ")})
	}
	for i, row := range summary {
		if err := setRow(f, summarySheet, i+1, row); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(summary)), bold); err != nil {
		return nil, err
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 22)
	_ = f.SetColWidth(summarySheet, "B", "B", 48)

	header := []any{"#", "Name", "Present", "Absent", "Total", "Regular", "Overtime", "Gross", "EPF", "ESIC", "Net"}
	if inv.IsMerged {
		header = append(header, "Company", "Source invoice")
	}
	if err := setRow(f, employeesSheet, 1, header); err != nil {
		return nil, err
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(employeesSheet, "A1", last, bold); err != nil {
		return nil, err
	}
	for i, e := range inv.Employees {
		row := []any{
			i + 1, e.Name,
			e.PresentDays.InexactFloat64(), e.AbsentDays.InexactFloat64(), e.TotalDays.InexactFloat64(),
			e.RegularDays.InexactFloat64(), e.OvertimeDays.InexactFloat64(),
			e.GrossPay.InexactFloat64(), e.EPF.InexactFloat64(), e.ESIC.InexactFloat64(), e.Salary.InexactFloat64(),
		}
		if inv.IsMerged {
			row = append(row, e.SourceCompanyName, e.SourceInvoiceNumber)
		}
		if err := setRow(f, employeesSheet, i+2, row); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(employeesSheet, "B", "B", 28)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	if len(values) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// ReadAttendance reads raw attendance rows from the first sheet of a
// workbook. The first row holds the column names; cell values are kept as
// text and parsed by the attendance normalizer.
func ReadAttendance(r io.Reader) ([]billing.RawAttendanceRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	out := make([]billing.RawAttendanceRow, 0, len(rows)-1)
	for _, cols := range rows[1:] {
		row := billing.RawAttendanceRow{}
		for i, v := range cols {
			if i >= len(header) || header[i] == "" {
				continue
			}
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			row[header[i]] = v
		}
		if len(row) > 0 {
			out = append(out, row)
		}
	}
	return out, nil
}
