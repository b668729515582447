package document

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// FPDFRenderer draws the invoice with gofpdf. It has no external runtime
// dependency and is the default renderer.
type FPDFRenderer struct{}

func NewFPDFRenderer() FPDFRenderer {
	return FPDFRenderer{}
}

func (FPDFRenderer) Render(ctx context.Context, inv Invoice) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(inv.Number, false)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	// header
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(120, 10, inv.Issuer.Name)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(70, 10, "TAX INVOICE", "", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	if inv.Issuer.Address != "" {
		pdf.MultiCell(120, 5, inv.Issuer.Address, "", "L", false)
	}
	if inv.Issuer.GSTIN != "" {
		pdf.Cell(120, 5, "GSTIN: "+inv.Issuer.GSTIN)
		pdf.Ln(5)
	}
	pdf.Ln(4)

	// bill to / meta
	top := pdf.GetY()
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(95, 6, "Bill To:")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(95, 5, inv.BillTo.Name, "", "L", false)
	if inv.BillTo.Address != "" {
		pdf.MultiCell(95, 5, inv.BillTo.Address, "", "L", false)
	}
	if inv.BillTo.GSTIN != "" {
		pdf.Cell(95, 5, "GSTIN: "+inv.BillTo.GSTIN)
		pdf.Ln(5)
	}
	leftEnd := pdf.GetY()

	pdf.SetXY(110, top)
	for _, row := range [][2]string{
		{"Invoice No.", inv.Number},
		{"Date", inv.IssuedOn.Format("02 Jan 2006")},
		{"Period", inv.Period()},
		{"Status", inv.Status},
	} {
		pdf.SetX(110)
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(30, 6, row[0])
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(60, 6, row[1])
		pdf.Ln(6)
	}
	if pdf.GetY() < leftEnd {
		pdf.SetY(leftEnd)
	}
	pdf.Ln(4)

	if inv.IsMerged && len(inv.SourceInvoices) > 0 {
		pdf.SetFont("Arial", "I", 9)
		pdf.MultiCell(0, 5, "Consolidates: "+strings.Join(inv.SourceInvoices, ", "), "", "L", false)
		pdf.Ln(2)
	}

	drawEmployees(pdf, inv)
	pdf.Ln(4)
	drawSummary(pdf, inv)

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.MultiCell(0, 6, "Amount in words: "+inv.AmountInWords, "", "L", false)
	if !inv.GSTIncluded() {
		pdf.SetFont("Arial", "I", 9)
		pdf.MultiCell(0, 5, "GST payable by the principal employer under reverse charge.", "", "L", false)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func drawEmployees(pdf *gofpdf.Fpdf, inv Invoice) {
	headers := []string{"#", "Name", "Present", "Regular", "OT", "Gross", "Net"}
	widths := []float64{10, 60, 20, 20, 15, 32, 33}
	if inv.IsMerged {
		headers[1] = "Name / Site"
	}

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(235, 235, 235)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for i, e := range inv.Employees {
		name := e.Name
		if e.SourceCompanyName != "" {
			name = fmt.Sprintf("%s (%s)", e.Name, e.SourceCompanyName)
		}
		cells := []string{
			fmt.Sprintf("%d", i+1),
			name,
			e.PresentDays.String(),
			e.RegularDays.String(),
			e.OvertimeDays.String(),
			e.GrossPay.StringFixed(2),
			e.Salary.StringFixed(2),
		}
		for j, v := range cells {
			align := "R"
			if j == 1 {
				align = "L"
			}
			pdf.CellFormat(widths[j], 6, v, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func drawSummary(pdf *gofpdf.Fpdf, inv Invoice) {
	rows := []struct {
		label string
		value decimal.Decimal
	}{
		{"Base amount", inv.Bill.BaseAmount},
		{"Overtime amount", inv.Bill.OvertimeAmount},
		{"PF @ 13%", inv.Bill.PFAmount},
		{"ESIC @ 3.25%", inv.Bill.ESICAmount},
		{fmt.Sprintf("Bonus @ %s%%", inv.BonusRate.String()), inv.Bill.BonusAmount},
		{"Sub total", inv.SubTotal},
		{"Round off", inv.RoundOff},
		{"Rounded sub total", inv.RoundOffSubTotal},
		{fmt.Sprintf("Service charge @ %s%%", inv.ServiceChargeRate.String()), inv.Bill.ServiceCharge},
		{"Total before tax", inv.TotalBeforeTax},
	}
	if inv.Tax.IGST.IsPositive() {
		rows = append(rows, struct {
			label string
			value decimal.Decimal
		}{"IGST @ 18%", inv.Tax.IGST})
	} else {
		rows = append(rows,
			struct {
				label string
				value decimal.Decimal
			}{"CGST @ 9%", inv.Tax.CGST},
			struct {
				label string
				value decimal.Decimal
			}{"SGST @ 9%", inv.Tax.SGST},
		)
	}

	pdf.SetFont("Arial", "", 10)
	for _, r := range rows {
		pdf.SetX(100)
		pdf.CellFormat(60, 6, r.label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, r.value.StringFixed(2), "1", 1, "R", false, 0, "")
	}

	pdf.SetX(100)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(60, 8, "Grand total", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 8, inv.Bill.TotalAmount.StringFixed(2), "1", 1, "R", false, 0, "")
}
