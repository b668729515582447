package invoice_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/AshapuriCRM/backend/internal/billing"
	"github.com/AshapuriCRM/backend/internal/company"
	companyerrors "github.com/AshapuriCRM/backend/internal/company/errors"
	"github.com/AshapuriCRM/backend/internal/document"
	"github.com/AshapuriCRM/backend/internal/events"
	"github.com/AshapuriCRM/backend/internal/invoice"
	invoiceerrors "github.com/AshapuriCRM/backend/internal/invoice/errors"
	"github.com/AshapuriCRM/backend/internal/messaging/kafka"
	"github.com/AshapuriCRM/backend/internal/shared/contextutil"

	companyMock "github.com/AshapuriCRM/backend/internal/company/mock"
	invoiceMock "github.com/AshapuriCRM/backend/internal/invoice/mock"
	kafkaMock "github.com/AshapuriCRM/backend/internal/messaging/kafka/mock"
	counterMock "github.com/AshapuriCRM/backend/internal/shared/counter/mock"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 4, 2, 10, 30, 0, 0, time.UTC)

type serviceDeps struct {
	db        *sql.DB
	sqlMock   sqlmock.Sqlmock
	service   invoice.Service
	repo      *invoiceMock.MockRepository
	companies *companyMock.MockRepository
	counter   *counterMock.MockRepository
	outbox    *kafkaMock.MockOutboxRepository
	docs      *invoiceMock.MockDocumentService
	redismock redismock.ClientMock
}

func setupServiceTest(t *testing.T) *serviceDeps {
	ctrl := gomock.NewController(t)

	db, sqlMock, _ := sqlmock.New()
	dbRedis, redisMock := redismock.NewClientMock()
	repo := invoiceMock.NewMockRepository(ctrl)
	companies := companyMock.NewMockRepository(ctrl)
	counterRepo := counterMock.NewMockRepository(ctrl)
	outboxRepo := kafkaMock.NewMockOutboxRepository(ctrl)
	docs := invoiceMock.NewMockDocumentService(ctrl)

	svc := invoice.NewService(db, repo, companies, counterRepo, outboxRepo, docs, dbRedis, invoice.Options{
		Defaults: billing.DefaultRates(),
		Issuer:   document.Party{Name: "Ashapuri Security Services"},
		Now:      func() time.Time { return fixedNow },
	})

	t.Cleanup(func() { db.Close() })

	return &serviceDeps{
		db:        db,
		sqlMock:   sqlMock,
		service:   svc,
		repo:      repo,
		companies: companies,
		counter:   counterRepo,
		outbox:    outboxRepo,
		docs:      docs,
		redismock: redisMock,
	}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func attendanceRows() []billing.RawAttendanceRow {
	return []billing.RawAttendanceRow{
		{"name": "Ramesh", "presentDays": 28.0, "totalDays": 30.0},
		{"employee_name": "Suresh", "present_days": 31.0, "total_days": 30.0},
		{"name": "Mahesh", "presentDays": 0.0, "totalDays": 30.0},
		{"name": "", "presentDays": 5.0, "totalDays": 30.0},
	}
}

func TestInvoiceService_Create(t *testing.T) {
	companyID := uuid.New()

	t.Run("success - numbers, totals and outbox", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctx := contextutil.WithRequestID(context.Background(), "req-1")

		deps.companies.EXPECT().
			FindByID(ctx, companyID).
			Return(&company.Company{ID: companyID, Name: "Alpha Mills", Address: "GIDC, Vapi", GSTIN: "24ABCDE1234F1Z5"}, nil)
		deps.repo.EXPECT().CountByYear(ctx, 2026, false).Return(int64(4), nil)
		deps.counter.EXPECT().NextValue(ctx, "INV-2026", int64(5)).Return(int64(5), nil)

		expectTx(t, deps.sqlMock, true)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)

		var created *invoice.Invoice
		deps.repo.EXPECT().
			Create(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, inv *invoice.Invoice) error {
				created = inv
				assert.Equal(t, "INV-2026-005", inv.InvoiceNumber)
				assert.Equal(t, companyID, *inv.CompanyID)
				assert.Equal(t, "Alpha Mills", inv.BillToName)
				assert.Equal(t, invoice.StatusDraft, inv.Status)
				assert.Equal(t, invoice.PaymentBankTransfer, inv.PaymentMethod)
				assert.Equal(t, 1, inv.DroppedRows)
				assert.Equal(t, 3, inv.TotalEmployees)
				assert.Equal(t, "36228", inv.Bill.TotalAmount.String())
				assert.Equal(t, "6521.05", inv.Bill.GSTAmount.String())
				assert.Equal(t, "Thirty Six Thousand Two Hundred Twenty Eight Rupees Only", inv.AmountInWords)
				if assert.Len(t, inv.Employees, 3) {
					assert.Equal(t, 1, inv.Employees[0].Line)
					assert.Equal(t, inv.ID, inv.Employees[2].InvoiceID)
					assert.Equal(t, "Suresh", inv.Employees[1].Name)
				}
				return nil
			})

		deps.outbox.EXPECT().WithTx(gomock.Any()).Return(deps.outbox)
		deps.outbox.EXPECT().
			Create(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, ev kafka.OutboxEvent) error {
				assert.Equal(t, events.InvoiceDocumentRequestedTopic, ev.Topic)
				assert.Equal(t, "req-1", ev.RequestID)
				assert.Equal(t, created.ID.String(), ev.AggregateID)
				assert.Equal(t, kafka.OutboxStatusPending, ev.Status)

				var payload events.InvoiceDocumentRequestedEvent
				assert.NoError(t, json.Unmarshal(ev.Payload, &payload))
				assert.Equal(t, "INV-2026-005", payload.InvoiceNumber)
				assert.Equal(t, created.ID.String(), payload.InvoiceID)
				return nil
			})

		resp, err := deps.service.Create(ctx, invoice.CreateInvoiceRequest{
			CompanyID:  companyID.String(),
			Month:      3,
			Year:       2026,
			Attendance: attendanceRows(),
		})

		assert.NoError(t, err)
		assert.Equal(t, "INV-2026-005", resp.InvoiceNumber)
		assert.Equal(t, companyID.String(), resp.CompanyID)
		assert.Equal(t, "36228", resp.BillDetails.TotalAmount.String())
		assert.Equal(t, 1, resp.DroppedRows)
		assert.False(t, resp.IsMerged)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("empty batch yields zero totals", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctx := context.Background()

		deps.companies.EXPECT().FindByID(ctx, companyID).Return(&company.Company{ID: companyID, Name: "Alpha Mills"}, nil)
		deps.repo.EXPECT().CountByYear(ctx, 2026, false).Return(int64(0), nil)
		deps.counter.EXPECT().NextValue(ctx, "INV-2026", int64(1)).Return(int64(1), nil)
		expectTx(t, deps.sqlMock, true)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
		deps.outbox.EXPECT().WithTx(gomock.Any()).Return(deps.outbox)
		deps.outbox.EXPECT().Create(ctx, gomock.Any()).Return(nil)

		resp, err := deps.service.Create(ctx, invoice.CreateInvoiceRequest{CompanyID: companyID.String(), Month: 3, Year: 2026})

		assert.NoError(t, err)
		assert.Equal(t, "INV-2026-001", resp.InvoiceNumber)
		assert.True(t, resp.BillDetails.TotalAmount.IsZero())
		assert.Equal(t, "Zero Rupees Only", resp.AmountInWords)
	})

	t.Run("invalid company id", func(t *testing.T) {
		deps := setupServiceTest(t)

		_, err := deps.service.Create(context.Background(), invoice.CreateInvoiceRequest{CompanyID: "nope"})

		assert.ErrorIs(t, err, invoiceerrors.ErrInvalidCompanyID)
	})

	t.Run("invalid rates", func(t *testing.T) {
		deps := setupServiceTest(t)
		overtime := dec("0.5")

		_, err := deps.service.Create(context.Background(), invoice.CreateInvoiceRequest{
			CompanyID:  companyID.String(),
			RateConfig: billing.RateConfig{OvertimeRate: &overtime},
		})

		assert.ErrorIs(t, err, invoiceerrors.ErrInvalidRates)
		assert.ErrorIs(t, err, billing.ErrInvalidOvertime)
	})

	t.Run("company not found", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctx := context.Background()

		deps.companies.EXPECT().FindByID(ctx, companyID).Return(nil, companyerrors.ErrCompanyNotFound)

		_, err := deps.service.Create(ctx, invoice.CreateInvoiceRequest{CompanyID: companyID.String(), Month: 3, Year: 2026})

		assert.ErrorIs(t, err, companyerrors.ErrCompanyNotFound)
	})

	t.Run("duplicate invoice number rolls back", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctx := context.Background()

		deps.companies.EXPECT().FindByID(ctx, companyID).Return(&company.Company{ID: companyID, Name: "Alpha Mills"}, nil)
		deps.repo.EXPECT().CountByYear(ctx, 2026, false).Return(int64(0), nil)
		deps.counter.EXPECT().NextValue(ctx, "INV-2026", int64(1)).Return(int64(1), nil)
		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().
			Create(ctx, gomock.Any()).
			Return(&pgconn.PgError{Code: "23505", ConstraintName: "uq_invoice_number"})

		_, err := deps.service.Create(ctx, invoice.CreateInvoiceRequest{CompanyID: companyID.String(), Month: 3, Year: 2026})

		assert.ErrorIs(t, err, invoiceerrors.ErrInvoiceNumberConflict)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestInvoiceService_Preview(t *testing.T) {
	deps := setupServiceTest(t)
	igst := billing.TaxTypeIGST
	payer := billing.GSTPaidByAshapuri

	resp, err := deps.service.Preview(context.Background(), invoice.PreviewInvoiceRequest{
		Attendance: attendanceRows(),
		RateConfig: billing.RateConfig{TaxType: &igst, GSTPaidBy: &payer},
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, resp.DroppedRows)
	assert.Len(t, resp.Employees, 3)
	assert.Equal(t, "466", resp.Rates.PerDayRate.String())
	assert.Equal(t, "6521.05", resp.Totals.Tax.IGST.String())
	assert.Equal(t, "42749", resp.Totals.GrandTotal.String())
}

func sourceInvoice(number, name string, total string, month int) invoice.Invoice {
	companyID := uuid.New()
	return invoice.Invoice{
		ID:                uuid.New(),
		InvoiceNumber:     number,
		CompanyID:         &companyID,
		BillToName:        name,
		Month:             month,
		Year:              2026,
		Bill:              billing.BillDetails{TotalAmount: dec(total), GSTAmount: dec("18")},
		IGST:              dec("18"),
		SubTotal:          dec("100.4"),
		RoundOffSubTotal:  dec("100"),
		RoundOff:          dec("-0.4"),
		TotalBeforeTax:    dec("107"),
		TotalEmployees:    1,
		PerDayRate:        dec("466"),
		WorkingDays:       dec("30"),
		ServiceChargeRate: dec("7"),
		OvertimeRate:      dec("1.5"),
		TaxType:           billing.TaxTypeIGST,
		GSTPaidBy:         billing.GSTPaidByPrincipalEmployer,
		PaymentMethod:     invoice.PaymentCheque,
		Status:            invoice.StatusSent,
		Employees: []invoice.InvoiceEmployee{
			{Line: 1, ProcessedEmployee: billing.ProcessedEmployee{Name: name + " guard"}},
		},
	}
}

func TestInvoiceService_Merge(t *testing.T) {
	t.Run("success - sums sources and attaches document", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctx := context.Background()

		a := sourceInvoice("INV-2026-001", "Alpha Mills", "10000", 3)
		b := sourceInvoice("INV-2026-002", "Beta Textiles", "15500", 4)

		// repository order differs from request order
		deps.repo.EXPECT().FindByIDs(ctx, []uuid.UUID{a.ID, b.ID}).Return([]invoice.Invoice{b, a}, nil)
		deps.companies.EXPECT().
			FindByIDs(ctx, []uuid.UUID{*a.CompanyID, *b.CompanyID}).
			Return([]company.Company{
				{ID: *b.CompanyID, Address: "Surat"},
				{ID: *a.CompanyID, Address: "Vapi"},
			}, nil)
		deps.repo.EXPECT().CountByYear(ctx, 2026, true).Return(int64(0), nil)
		deps.counter.EXPECT().NextValue(ctx, "MINV-2026", int64(1)).Return(int64(1), nil)

		expectTx(t, deps.sqlMock, true)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().LockForShare(ctx, []uuid.UUID{a.ID, b.ID}).Return([]invoice.Invoice{a, b}, nil)
		deps.repo.EXPECT().
			Create(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, inv *invoice.Invoice) error {
				assert.Equal(t, "MINV-2026-001", inv.InvoiceNumber)
				assert.True(t, inv.IsMerged)
				assert.Nil(t, inv.CompanyID)
				assert.Equal(t, "Alpha Mills + Beta Textiles", inv.BillToName)
				assert.Equal(t, "Vapi; Surat", inv.BillToAddress)
				assert.Equal(t, "25500", inv.Bill.TotalAmount.String())
				assert.Equal(t, "200.8", inv.SubTotal.String())
				assert.Equal(t, "-0.8", inv.RoundOff.String())
				assert.Equal(t, "Twenty Five Thousand Five Hundred Rupees Only", inv.AmountInWords)
				assert.Equal(t, 4, inv.Month)
				assert.Equal(t, []uuid.UUID{a.ID, b.ID}, []uuid.UUID(inv.SourceInvoiceIDs))
				assert.Equal(t, []string{"INV-2026-001", "INV-2026-002"}, []string(inv.SourceInvoiceNumbers))
				assert.Len(t, inv.Employees, 2)
				return nil
			})

		deps.docs.EXPECT().
			Publish(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, doc document.Invoice) (document.Stored, error) {
				assert.True(t, doc.IsMerged)
				assert.Equal(t, []string{"INV-2026-001", "INV-2026-002"}, doc.SourceInvoices)
				assert.Equal(t, "Ashapuri Security Services", doc.Issuer.Name)
				return document.Stored{URL: "https://files.example/MINV-2026-001.pdf", Key: "MINV-2026-001.pdf", Pages: 1}, nil
			})
		deps.repo.EXPECT().
			UpdateDocument(ctx, gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ uuid.UUID, ref invoice.DocumentRef) error {
				assert.Equal(t, "MINV-2026-001.pdf", ref.Key)
				assert.Equal(t, fixedNow, ref.GeneratedAt)
				return nil
			})
		deps.redismock.Regexp().ExpectDel(invoice.InvoiceDetailKeyPrefix + ".+").SetVal(0)

		resp, err := deps.service.Merge(ctx, invoice.MergeInvoicesRequest{InvoiceIDs: []string{a.ID.String(), b.ID.String()}})

		assert.NoError(t, err)
		assert.False(t, resp.DocumentMissing)
		assert.Empty(t, resp.Warning)
		if assert.NotNil(t, resp.Invoice.Document) {
			assert.Equal(t, "https://files.example/MINV-2026-001.pdf", resp.Invoice.Document.URL)
		}
		assert.Equal(t, []string{a.ID.String(), b.ID.String()}, resp.Invoice.SourceInvoiceIDs)
		assert.Equal(t, []string{"Alpha Mills", "Beta Textiles"}, resp.Invoice.MergedCompanies)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("document failure keeps the merged invoice", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctx := context.Background()

		a := sourceInvoice("INV-2026-001", "Alpha Mills", "10000", 3)
		b := sourceInvoice("INV-2026-002", "Beta Textiles", "15500", 3)

		deps.repo.EXPECT().FindByIDs(ctx, gomock.Any()).Return([]invoice.Invoice{a, b}, nil)
		deps.companies.EXPECT().FindByIDs(ctx, gomock.Any()).Return(nil, errors.New("db down"))
		deps.repo.EXPECT().CountByYear(ctx, 2026, true).Return(int64(6), nil)
		deps.counter.EXPECT().NextValue(ctx, "MINV-2026", int64(7)).Return(int64(7), nil)
		expectTx(t, deps.sqlMock, true)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().LockForShare(ctx, gomock.Any()).Return([]invoice.Invoice{b, a}, nil)
		deps.repo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
		deps.docs.EXPECT().Publish(ctx, gomock.Any()).Return(document.Stored{}, errors.New("chromium missing"))

		resp, err := deps.service.Merge(ctx, invoice.MergeInvoicesRequest{
			InvoiceIDs: []string{a.ID.String(), b.ID.String()},
			Month:      5,
			Year:       2026,
		})

		assert.NoError(t, err)
		assert.True(t, resp.DocumentMissing)
		assert.NotEmpty(t, resp.Warning)
		assert.Nil(t, resp.Invoice.Document)
		assert.Equal(t, "MINV-2026-007", resp.Invoice.InvoiceNumber)
		assert.Equal(t, 5, resp.Invoice.Month)
		assert.Empty(t, resp.Invoice.BillTo.Address)
	})

	t.Run("sources re-checked under lock inside the transaction", func(t *testing.T) {
		a := sourceInvoice("INV-2026-001", "Alpha Mills", "10000", 3)
		b := sourceInvoice("INV-2026-002", "Beta Textiles", "15500", 3)
		cancelled := b
		cancelled.Status = invoice.StatusCancelled

		cases := []struct {
			name   string
			locked []invoice.Invoice
			want   error
		}{
			{"deleted meanwhile", []invoice.Invoice{a}, invoiceerrors.ErrInvoiceNotFound},
			{"cancelled meanwhile", []invoice.Invoice{a, cancelled}, invoiceerrors.ErrCancelledInvoiceAsSource},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				deps := setupServiceTest(t)
				ctx := context.Background()

				deps.repo.EXPECT().FindByIDs(ctx, gomock.Any()).Return([]invoice.Invoice{a, b}, nil)
				deps.companies.EXPECT().FindByIDs(ctx, gomock.Any()).Return(nil, nil)
				deps.repo.EXPECT().CountByYear(ctx, 2026, true).Return(int64(0), nil)
				deps.counter.EXPECT().NextValue(ctx, "MINV-2026", int64(1)).Return(int64(1), nil)

				expectTx(t, deps.sqlMock, false)
				gomock.InOrder(
					deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo),
					deps.repo.EXPECT().LockForShare(ctx, []uuid.UUID{a.ID, b.ID}).Return(tc.locked, nil),
				)
				deps.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

				_, err := deps.service.Merge(ctx, invoice.MergeInvoicesRequest{InvoiceIDs: []string{a.ID.String(), b.ID.String()}})

				assert.ErrorIs(t, err, tc.want)
				assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
			})
		}
	})

	t.Run("validation", func(t *testing.T) {
		a := sourceInvoice("INV-2026-001", "Alpha Mills", "10000", 3)
		b := sourceInvoice("INV-2026-002", "Beta Textiles", "15500", 3)

		deps := setupServiceTest(t)
		ctx := context.Background()

		_, err := deps.service.Merge(ctx, invoice.MergeInvoicesRequest{InvoiceIDs: []string{a.ID.String()}})
		assert.ErrorIs(t, err, invoiceerrors.ErrNotEnoughInvoices)

		_, err = deps.service.Merge(ctx, invoice.MergeInvoicesRequest{InvoiceIDs: []string{a.ID.String(), "bad"}})
		assert.ErrorIs(t, err, invoiceerrors.ErrInvalidInvoiceID)

		_, err = deps.service.Merge(ctx, invoice.MergeInvoicesRequest{InvoiceIDs: []string{a.ID.String(), a.ID.String()}})
		assert.ErrorIs(t, err, invoiceerrors.ErrDuplicateInvoiceIDs)

		deps.repo.EXPECT().FindByIDs(ctx, gomock.Any()).Return([]invoice.Invoice{a}, nil)
		_, err = deps.service.Merge(ctx, invoice.MergeInvoicesRequest{InvoiceIDs: []string{a.ID.String(), b.ID.String()}})
		assert.ErrorIs(t, err, invoiceerrors.ErrInvoiceNotFound)

		merged := b
		merged.IsMerged = true
		deps.repo.EXPECT().FindByIDs(ctx, gomock.Any()).Return([]invoice.Invoice{a, merged}, nil)
		_, err = deps.service.Merge(ctx, invoice.MergeInvoicesRequest{InvoiceIDs: []string{a.ID.String(), b.ID.String()}})
		assert.ErrorIs(t, err, invoiceerrors.ErrMergedInvoiceAsSource)

		cancelled := b
		cancelled.Status = invoice.StatusCancelled
		deps.repo.EXPECT().FindByIDs(ctx, gomock.Any()).Return([]invoice.Invoice{a, cancelled}, nil)
		_, err = deps.service.Merge(ctx, invoice.MergeInvoicesRequest{InvoiceIDs: []string{a.ID.String(), b.ID.String()}})
		assert.ErrorIs(t, err, invoiceerrors.ErrCancelledInvoiceAsSource)
	})
}

func TestInvoiceService_GetByID(t *testing.T) {
	t.Run("cache hit", func(t *testing.T) {
		deps := setupServiceTest(t)
		id := uuid.New()
		cached, _ := json.Marshal(invoice.InvoiceResponse{ID: id.String(), InvoiceNumber: "INV-2026-010"})

		deps.redismock.ExpectGet(invoice.GetInvoiceDetailKey(id.String())).SetVal(string(cached))

		resp, err := deps.service.GetByID(context.Background(), id.String())

		assert.NoError(t, err)
		assert.Equal(t, "INV-2026-010", resp.InvoiceNumber)
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
	})

	t.Run("cache miss loads and stores", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctx := context.Background()
		inv := sourceInvoice("INV-2026-011", "Alpha Mills", "1000", 3)
		key := invoice.GetInvoiceDetailKey(inv.ID.String())

		deps.redismock.ExpectGet(key).RedisNil()
		deps.repo.EXPECT().FindByID(ctx, inv.ID).Return(&inv, nil)
		deps.redismock.Regexp().ExpectSet(key, `.+`, 10*time.Minute).SetVal("OK")

		resp, err := deps.service.GetByID(ctx, inv.ID.String())

		assert.NoError(t, err)
		assert.Equal(t, "INV-2026-011", resp.InvoiceNumber)
		assert.Len(t, resp.Employees, 1)
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctx := context.Background()
		id := uuid.New()

		deps.redismock.ExpectGet(invoice.GetInvoiceDetailKey(id.String())).RedisNil()
		deps.repo.EXPECT().FindByID(ctx, id).Return(nil, invoiceerrors.ErrInvoiceNotFound)

		_, err := deps.service.GetByID(ctx, id.String())

		assert.ErrorIs(t, err, invoiceerrors.ErrInvoiceNotFound)
	})

	t.Run("invalid id", func(t *testing.T) {
		deps := setupServiceTest(t)

		_, err := deps.service.GetByID(context.Background(), "x")

		assert.ErrorIs(t, err, invoiceerrors.ErrInvalidInvoiceID)
	})
}

func TestInvoiceService_GetAll(t *testing.T) {
	deps := setupServiceTest(t)
	ctx := context.Background()
	companyID := uuid.New()
	merged := false

	a := sourceInvoice("INV-2026-001", "Alpha Mills", "1000", 3)
	deps.repo.EXPECT().
		FindAll(ctx, invoice.Filter{Status: invoice.StatusSent, CompanyID: &companyID, Merged: &merged, Year: 2026}).
		Return([]invoice.Invoice{a}, nil)

	resp, err := deps.service.GetAll(ctx, invoice.InvoiceFilterRequest{
		Status:    invoice.StatusSent,
		CompanyID: companyID.String(),
		Merged:    &merged,
		Year:      2026,
	})

	assert.NoError(t, err)
	if assert.Len(t, resp, 1) {
		assert.Equal(t, "INV-2026-001", resp[0].InvoiceNumber)
		assert.Equal(t, "1000", resp[0].TotalAmount.String())
		assert.False(t, resp[0].HasDocument)
	}
}

func TestInvoiceService_Update(t *testing.T) {
	t.Run("sent to paid defaults the payment date", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctx := context.Background()
		inv := sourceInvoice("INV-2026-001", "Alpha Mills", "1000", 3)
		paid := invoice.StatusPaid
		method := invoice.PaymentUPI

		expectTx(t, deps.sqlMock, true)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByIDForUpdate(ctx, inv.ID).Return(&inv, nil)
		deps.repo.EXPECT().
			UpdateLifecycle(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, updated *invoice.Invoice) error {
				assert.Equal(t, invoice.StatusPaid, updated.Status)
				assert.Equal(t, invoice.PaymentUPI, updated.PaymentMethod)
				if assert.NotNil(t, updated.PaymentDate) {
					assert.Equal(t, "2026-04-02", updated.PaymentDate.Format("2006-01-02"))
				}
				return nil
			})
		deps.redismock.ExpectDel(invoice.GetInvoiceDetailKey(inv.ID.String())).SetVal(1)

		resp, err := deps.service.Update(ctx, inv.ID.String(), invoice.UpdateInvoiceRequest{Status: &paid, PaymentMethod: &method})

		assert.NoError(t, err)
		assert.Equal(t, invoice.StatusPaid, resp.Status)
		assert.Equal(t, "2026-04-02", resp.PaymentDate)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
	})

	t.Run("draft cannot jump to paid", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctx := context.Background()
		inv := sourceInvoice("INV-2026-001", "Alpha Mills", "1000", 3)
		inv.Status = invoice.StatusDraft
		paid := invoice.StatusPaid

		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByIDForUpdate(ctx, inv.ID).Return(&inv, nil)

		_, err := deps.service.Update(ctx, inv.ID.String(), invoice.UpdateInvoiceRequest{Status: &paid})

		assert.ErrorIs(t, err, invoiceerrors.ErrInvalidStatusTransition)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("referenced source cannot be cancelled", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctx := context.Background()
		inv := sourceInvoice("INV-2026-001", "Alpha Mills", "1000", 3)
		cancelled := invoice.StatusCancelled

		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByIDForUpdate(ctx, inv.ID).Return(&inv, nil)
		deps.repo.EXPECT().
			FindMergedReferencing(ctx, inv.ID).
			Return([]invoice.Invoice{{InvoiceNumber: "MINV-2026-001", IsMerged: true}}, nil)

		_, err := deps.service.Update(ctx, inv.ID.String(), invoice.UpdateInvoiceRequest{Status: &cancelled})

		assert.ErrorIs(t, err, invoiceerrors.ErrInvoiceReferenced)
	})

	t.Run("invalid payment date", func(t *testing.T) {
		deps := setupServiceTest(t)
		date := "02/04/2026"

		_, err := deps.service.Update(context.Background(), uuid.NewString(), invoice.UpdateInvoiceRequest{PaymentDate: &date})

		assert.ErrorIs(t, err, invoiceerrors.ErrInvalidPaymentDate)
	})
}

func TestInvoiceService_Delete(t *testing.T) {
	t.Run("source referenced by merged invoice", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctx := context.Background()
		inv := sourceInvoice("INV-2026-001", "Alpha Mills", "1000", 3)

		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByIDForUpdate(ctx, inv.ID).Return(&inv, nil)
		deps.repo.EXPECT().
			FindMergedReferencing(ctx, inv.ID).
			Return([]invoice.Invoice{{InvoiceNumber: "MINV-2026-001", IsMerged: true}}, nil)

		err := deps.service.Delete(ctx, inv.ID.String())

		assert.ErrorIs(t, err, invoiceerrors.ErrInvoiceReferenced)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("merged invoice removes its document", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctx := context.Background()
		inv := sourceInvoice("MINV-2026-001", "Alpha Mills + Beta Textiles", "25500", 3)
		inv.IsMerged = true
		inv.CompanyID = nil
		key := "MINV-2026-001.pdf"
		inv.DocumentKey = &key

		expectTx(t, deps.sqlMock, true)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByIDForUpdate(ctx, inv.ID).Return(&inv, nil)
		deps.repo.EXPECT().Delete(ctx, inv.ID).Return(nil)
		deps.redismock.ExpectDel(invoice.GetInvoiceDetailKey(inv.ID.String())).SetVal(1)
		deps.docs.EXPECT().Remove(ctx, key).Return(errors.New("storage down"))

		err := deps.service.Delete(ctx, inv.ID.String())

		assert.NoError(t, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctx := context.Background()
		id := uuid.New()

		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByIDForUpdate(ctx, id).Return(nil, gorm.ErrRecordNotFound)

		err := deps.service.Delete(ctx, id.String())

		assert.ErrorIs(t, err, invoiceerrors.ErrInvoiceNotFound)
	})
}

func TestInvoiceService_GenerateDocument(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctx := context.Background()
		inv := sourceInvoice("INV-2026-003", "Alpha Mills", "1000", 3)

		deps.repo.EXPECT().FindByID(ctx, inv.ID).Return(&inv, nil)
		deps.docs.EXPECT().
			Publish(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, doc document.Invoice) (document.Stored, error) {
				assert.Equal(t, "INV-2026-003", doc.Number)
				assert.Equal(t, "Alpha Mills", doc.BillTo.Name)
				return document.Stored{URL: "https://files.example/INV-2026-003.pdf", Key: "INV-2026-003.pdf", Pages: 2}, nil
			})
		deps.repo.EXPECT().UpdateDocument(ctx, inv.ID, gomock.Any()).Return(nil)
		deps.redismock.ExpectDel(invoice.GetInvoiceDetailKey(inv.ID.String())).SetVal(1)

		resp, err := deps.service.GenerateDocument(ctx, inv.ID.String())

		assert.NoError(t, err)
		assert.Equal(t, "https://files.example/INV-2026-003.pdf", resp.URL)
		assert.Equal(t, 2, resp.Pages)
		assert.Equal(t, fixedNow, resp.GeneratedAt)
	})

	t.Run("render failure", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctx := context.Background()
		inv := sourceInvoice("INV-2026-003", "Alpha Mills", "1000", 3)

		deps.repo.EXPECT().FindByID(ctx, inv.ID).Return(&inv, nil)
		deps.docs.EXPECT().Publish(ctx, gomock.Any()).Return(document.Stored{}, errors.New("bad pdf"))

		_, err := deps.service.GenerateDocument(ctx, inv.ID.String())

		assert.ErrorIs(t, err, invoiceerrors.ErrDocumentFailed)
	})
}

func TestInvoiceService_DocumentURL(t *testing.T) {
	deps := setupServiceTest(t)
	id := uuid.New()
	cached, _ := json.Marshal(invoice.InvoiceResponse{ID: id.String()})

	deps.redismock.ExpectGet(invoice.GetInvoiceDetailKey(id.String())).SetVal(string(cached))

	_, err := deps.service.DocumentURL(context.Background(), id.String())

	assert.ErrorIs(t, err, invoiceerrors.ErrDocumentNotReady)
}

func TestInvoiceService_ExportXLSX(t *testing.T) {
	deps := setupServiceTest(t)
	ctx := context.Background()
	inv := sourceInvoice("INV-2026-004", "Alpha Mills", "1000", 3)

	deps.repo.EXPECT().FindByID(ctx, inv.ID).Return(&inv, nil)
	deps.docs.EXPECT().Workbook(gomock.Any()).Return([]byte("xlsx"), nil)

	file, err := deps.service.ExportXLSX(ctx, inv.ID.String())

	assert.NoError(t, err)
	assert.Equal(t, "INV-2026-004.xlsx", file.Name)
	assert.Equal(t, document.ContentTypeXLSX, file.ContentType)
	assert.Equal(t, []byte("xlsx"), file.Body)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, invoice.CanTransition(invoice.StatusDraft, invoice.StatusSent))
	assert.True(t, invoice.CanTransition(invoice.StatusSent, invoice.StatusPaid))
	assert.True(t, invoice.CanTransition(invoice.StatusDraft, invoice.StatusCancelled))
	assert.True(t, invoice.CanTransition(invoice.StatusPaid, invoice.StatusPaid))
	assert.False(t, invoice.CanTransition(invoice.StatusPaid, invoice.StatusCancelled))
	assert.False(t, invoice.CanTransition(invoice.StatusCancelled, invoice.StatusDraft))
	assert.False(t, invoice.CanTransition(invoice.StatusDraft, invoice.StatusPaid))
}
