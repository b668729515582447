package invoice

import (
	"context"

	"github.com/AshapuriCRM/backend/internal/document"
)

//go:generate mockgen -source=invoice_document.go -destination=mock/invoice_document_mock.go -package=mock
type DocumentService interface {
	Publish(ctx context.Context, inv document.Invoice) (document.Stored, error)
	Remove(ctx context.Context, key string) error
	Workbook(inv document.Invoice) ([]byte, error)
}

func toDocument(inv *Invoice, issuer document.Party) document.Invoice {
	return document.Invoice{
		Number:   inv.InvoiceNumber,
		IssuedOn: inv.CreatedAt,
		Month:    inv.Month,
		Year:     inv.Year,
		Status:   inv.Status,
		Issuer:   issuer,
		BillTo: document.Party{
			Name:    inv.BillToName,
			Address: inv.BillToAddress,
			GSTIN:   inv.BillToGSTIN,
		},
		Bill:              inv.Bill,
		Tax:               inv.Tax(),
		Attendance:        inv.Attendance(),
		SubTotal:          inv.SubTotal,
		RoundOffSubTotal:  inv.RoundOffSubTotal,
		RoundOff:          inv.RoundOff,
		TotalBeforeTax:    inv.TotalBeforeTax,
		AmountInWords:     inv.AmountInWords,
		TaxType:           inv.TaxType,
		GSTPaidBy:         inv.GSTPaidBy,
		ServiceChargeRate: inv.ServiceChargeRate,
		BonusRate:         inv.BonusRate,
		OvertimeRate:      inv.OvertimeRate,
		Employees:         inv.ProcessedEmployees(),
		IsMerged:          inv.IsMerged,
		SourceInvoices:    []string(inv.SourceInvoiceNumbers),
	}
}
