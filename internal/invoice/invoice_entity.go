package invoice

import (
	"time"

	"github.com/AshapuriCRM/backend/internal/billing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	StatusDraft     = "DRAFT"
	StatusSent      = "SENT"
	StatusPaid      = "PAID"
	StatusCancelled = "CANCELLED"
)

const (
	PaymentBankTransfer = "bank_transfer"
	PaymentCheque       = "cheque"
	PaymentCash         = "cash"
	PaymentUPI          = "upi"
)

type Invoice struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	InvoiceNumber string     `gorm:"type:varchar(32);not null;uniqueIndex:uq_invoice_number"`
	CompanyID     *uuid.UUID `gorm:"type:uuid;index"` // nil on merged invoices
	BillToName    string     `gorm:"type:text;not null"`
	BillToAddress string     `gorm:"type:text"`
	BillToGSTIN   string     `gorm:"column:bill_to_gstin;type:varchar(15)"`
	Month         int        `gorm:"not null"`
	Year          int        `gorm:"not null;index"`

	// Financials, fixed at creation.
	Bill             billing.BillDetails `gorm:"embedded;embeddedPrefix:bill_"`
	CGST             decimal.Decimal     `gorm:"column:cgst;type:numeric(14,2);not null;default:0"`
	SGST             decimal.Decimal     `gorm:"column:sgst;type:numeric(14,2);not null;default:0"`
	IGST             decimal.Decimal     `gorm:"column:igst;type:numeric(14,2);not null;default:0"`
	SubTotal         decimal.Decimal     `gorm:"type:numeric(14,2);not null;default:0"`
	RoundOffSubTotal decimal.Decimal     `gorm:"type:numeric(14,2);not null;default:0"`
	RoundOff         decimal.Decimal     `gorm:"type:numeric(14,2);not null;default:0"`
	TotalBeforeTax   decimal.Decimal     `gorm:"type:numeric(14,2);not null;default:0"`
	AmountInWords    string              `gorm:"type:text"`

	TotalEmployees    int             `gorm:"not null;default:0"`
	TotalRegularDays  decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0"`
	TotalOvertimeDays decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0"`
	PerDayRate        decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0"`
	WorkingDays       decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`

	ServiceChargeRate decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0"`
	BonusRate         decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0"`
	OvertimeRate      decimal.Decimal `gorm:"type:numeric(6,2);not null;default:1"`
	TaxType           string          `gorm:"type:varchar(8);not null"`
	GSTPaidBy         string          `gorm:"column:gst_paid_by;type:varchar(32);not null"`
	DroppedRows       int             `gorm:"not null;default:0"`

	// Lifecycle, the only mutable part.
	Status        string     `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	PaymentMethod string     `gorm:"type:varchar(20)"`
	PaymentDate   *time.Time `gorm:"type:date"`
	Notes         string     `gorm:"type:text"`

	// Provenance for merged invoices.
	IsMerged             bool                           `gorm:"not null;default:false;index"`
	SourceInvoiceIDs     datatypes.JSONSlice[uuid.UUID] `gorm:"type:jsonb"`
	SourceInvoiceNumbers datatypes.JSONSlice[string]    `gorm:"type:jsonb"`
	MergedCompanyIDs     datatypes.JSONSlice[uuid.UUID] `gorm:"type:jsonb"`
	MergedCompanyNames   datatypes.JSONSlice[string]    `gorm:"type:jsonb"`

	DocumentURL         *string
	DocumentKey         *string
	DocumentPages       int
	DocumentGeneratedAt *time.Time

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time

	Employees []InvoiceEmployee `gorm:"foreignKey:InvoiceID"`
}

func (Invoice) TableName() string {
	return "invoices"
}

// InvoiceEmployee is one processed attendance line of an invoice.
type InvoiceEmployee struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	InvoiceID uuid.UUID `gorm:"type:uuid;not null;index"`
	Line      int       `gorm:"not null"`

	billing.ProcessedEmployee `gorm:"embedded"`
}

func (InvoiceEmployee) TableName() string {
	return "invoice_employees"
}

// Tax returns the stored tax breakdown.
func (inv Invoice) Tax() billing.TaxBreakdown {
	return billing.TaxBreakdown{CGST: inv.CGST, SGST: inv.SGST, IGST: inv.IGST}
}

func (inv Invoice) Attendance() billing.AttendanceAggregate {
	return billing.AttendanceAggregate{
		TotalEmployees:         inv.TotalEmployees,
		TotalRegularDaysBilled: inv.TotalRegularDays,
		TotalOvertimeDays:      inv.TotalOvertimeDays,
		PerDayRate:             inv.PerDayRate,
		WorkingDays:            inv.WorkingDays,
	}
}

func (inv Invoice) ProcessedEmployees() []billing.ProcessedEmployee {
	out := make([]billing.ProcessedEmployee, len(inv.Employees))
	for i, e := range inv.Employees {
		out[i] = e.ProcessedEmployee
	}
	return out
}

func (inv Invoice) mergeSource() billing.MergeSource {
	src := billing.MergeSource{
		InvoiceID:         inv.ID,
		InvoiceNumber:     inv.InvoiceNumber,
		CompanyName:       inv.BillToName,
		Bill:              inv.Bill,
		Attendance:        inv.Attendance(),
		Tax:               inv.Tax(),
		Employees:         inv.ProcessedEmployees(),
		TaxType:           inv.TaxType,
		PaymentMethod:     inv.PaymentMethod,
		GSTPaidBy:         inv.GSTPaidBy,
		ServiceChargeRate: inv.ServiceChargeRate,
		BonusRate:         inv.BonusRate,
		OvertimeRate:      inv.OvertimeRate,
	}
	if inv.CompanyID != nil {
		src.CompanyID = *inv.CompanyID
	}
	return src
}

func toEmployeeRows(employees []billing.ProcessedEmployee) []InvoiceEmployee {
	rows := make([]InvoiceEmployee, len(employees))
	for i, e := range employees {
		rows[i] = InvoiceEmployee{
			ID:                uuid.New(),
			Line:              i + 1,
			ProcessedEmployee: e,
		}
	}
	return rows
}
