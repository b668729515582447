package invoice

import (
	"time"

	"github.com/AshapuriCRM/backend/internal/billing"

	"github.com/shopspring/decimal"
)

type CreateInvoiceRequest struct {
	CompanyID     string                     `json:"companyId" binding:"required"`
	Month         int                        `json:"month" binding:"required,min=1,max=12"`
	Year          int                        `json:"year" binding:"required,min=2000,max=2100"`
	Attendance    []billing.RawAttendanceRow `json:"attendance"`
	PaymentMethod string                     `json:"paymentMethod" binding:"omitempty,oneof=bank_transfer cheque cash upi"`
	Notes         string                     `json:"notes" binding:"max=2000"`

	billing.RateConfig
}

// PreviewInvoiceRequest runs the calculation without persisting anything.
type PreviewInvoiceRequest struct {
	Attendance []billing.RawAttendanceRow `json:"attendance"`

	billing.RateConfig
}

type MergeInvoicesRequest struct {
	InvoiceIDs []string `json:"invoiceIds" binding:"required"`
	Month      int      `json:"month" binding:"omitempty,min=1,max=12"`
	Year       int      `json:"year" binding:"omitempty,min=2000,max=2100"`
	Notes      string   `json:"notes" binding:"max=2000"`
}

// UpdateInvoiceRequest only touches lifecycle fields. Financials are fixed.
type UpdateInvoiceRequest struct {
	Status        *string `json:"status" binding:"omitempty,oneof=DRAFT SENT PAID CANCELLED"`
	PaymentMethod *string `json:"paymentMethod" binding:"omitempty,oneof=bank_transfer cheque cash upi"`
	PaymentDate   *string `json:"paymentDate"`
	Notes         *string `json:"notes" binding:"omitempty,max=2000"`
}

type InvoiceFilterRequest struct {
	Status    string `form:"status" binding:"omitempty,oneof=DRAFT SENT PAID CANCELLED"`
	CompanyID string `form:"company_id" binding:"omitempty,uuid"`
	Merged    *bool  `form:"merged"`
	Year      int    `form:"year" binding:"omitempty,min=2000,max=2100"`
	Month     int    `form:"month" binding:"omitempty,min=1,max=12"`
}

type BillToResponse struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	GSTIN   string `json:"gstin,omitempty"`
}

type DocumentResponse struct {
	URL         string    `json:"url"`
	Pages       int       `json:"pages"`
	GeneratedAt time.Time `json:"generatedAt"`
}

type InvoiceResponse struct {
	ID                string                      `json:"id"`
	InvoiceNumber     string                      `json:"invoiceNumber"`
	CompanyID         string                      `json:"companyId,omitempty"`
	BillTo            BillToResponse              `json:"billTo"`
	Month             int                         `json:"month"`
	Year              int                         `json:"year"`
	BillDetails       billing.BillDetails         `json:"billDetails"`
	Attendance        billing.AttendanceAggregate `json:"attendance"`
	Tax               billing.TaxBreakdown        `json:"tax"`
	SubTotal          decimal.Decimal             `json:"subTotal"`
	RoundOffSubTotal  decimal.Decimal             `json:"roundOffSubTotal"`
	RoundOff          decimal.Decimal             `json:"roundOff"`
	TotalBeforeTax    decimal.Decimal             `json:"totalBeforeTax"`
	AmountInWords     string                      `json:"amountInWords"`
	Employees         []billing.ProcessedEmployee `json:"employees"`
	TaxType           string                      `json:"taxType"`
	GSTPaidBy         string                      `json:"gstPaidBy"`
	ServiceChargeRate decimal.Decimal             `json:"serviceChargeRate"`
	BonusRate         decimal.Decimal             `json:"bonusRate"`
	OvertimeRate      decimal.Decimal             `json:"overtimeRate"`
	Status            string                      `json:"status"`
	PaymentMethod     string                      `json:"paymentMethod,omitempty"`
	PaymentDate       string                      `json:"paymentDate,omitempty"`
	Notes             string                      `json:"notes,omitempty"`
	DroppedRows       int                         `json:"droppedRows,omitempty"`
	IsMerged          bool                        `json:"isMerged"`
	SourceInvoiceIDs  []string                    `json:"sourceInvoices,omitempty"`
	SourceNumbers     []string                    `json:"sourceInvoiceNumbers,omitempty"`
	MergedCompanyIDs  []string                    `json:"mergedCompanies,omitempty"`
	MergedCompanies   []string                    `json:"mergedCompanyNames,omitempty"`
	Document          *DocumentResponse           `json:"document,omitempty"`
	CreatedAt         time.Time                   `json:"createdAt"`
}

// InvoiceSummaryResponse is the list view, without employee lines.
type InvoiceSummaryResponse struct {
	ID            string          `json:"id"`
	InvoiceNumber string          `json:"invoiceNumber"`
	BillToName    string          `json:"billToName"`
	Month         int             `json:"month"`
	Year          int             `json:"year"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	GSTAmount     decimal.Decimal `json:"gstAmount"`
	Status        string          `json:"status"`
	IsMerged      bool            `json:"isMerged"`
	HasDocument   bool            `json:"hasDocument"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type QuoteResponse struct {
	Employees   []billing.ProcessedEmployee `json:"employees"`
	Totals      billing.Totals              `json:"totals"`
	Rates       billing.Rates               `json:"rates"`
	DroppedRows int                         `json:"droppedRows"`
}

type MergeResponse struct {
	Invoice         InvoiceResponse `json:"invoice"`
	DocumentMissing bool            `json:"documentMissing"`
	Warning         string          `json:"warning,omitempty"`
}

// ExportFile is a rendered download.
type ExportFile struct {
	Name        string
	ContentType string
	Body        []byte
}
