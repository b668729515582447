package invoice

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/AshapuriCRM/backend/internal/billing"
	"github.com/AshapuriCRM/backend/internal/company"
	"github.com/AshapuriCRM/backend/internal/document"
	"github.com/AshapuriCRM/backend/internal/events"
	invoiceerrors "github.com/AshapuriCRM/backend/internal/invoice/errors"
	"github.com/AshapuriCRM/backend/internal/messaging/kafka"
	"github.com/AshapuriCRM/backend/internal/shared/contextutil"
	"github.com/AshapuriCRM/backend/internal/shared/counter"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	InvoiceDetailKeyPrefix = "invoices:detail:"

	defaultCacheTTL = 10 * time.Minute
	dateLayout      = "2006-01-02"
)

func GetInvoiceDetailKey(id string) string {
	return InvoiceDetailKeyPrefix + id
}

//go:generate mockgen -source=invoice_service.go -destination=mock/invoice_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (InvoiceResponse, error)
	Preview(ctx context.Context, req PreviewInvoiceRequest) (QuoteResponse, error)
	Merge(ctx context.Context, req MergeInvoicesRequest) (MergeResponse, error)
	GetAll(ctx context.Context, req InvoiceFilterRequest) ([]InvoiceSummaryResponse, error)
	GetByID(ctx context.Context, id string) (InvoiceResponse, error)
	Update(ctx context.Context, id string, req UpdateInvoiceRequest) (InvoiceResponse, error)
	Delete(ctx context.Context, id string) error
	GenerateDocument(ctx context.Context, id string) (DocumentResponse, error)
	DocumentURL(ctx context.Context, id string) (string, error)
	ExportXLSX(ctx context.Context, id string) (ExportFile, error)
}

// Options carries the non-infrastructure settings of the service.
type Options struct {
	Defaults billing.Rates
	Issuer   document.Party
	CacheTTL time.Duration
	Now      func() time.Time
}

type service struct {
	db        *sql.DB
	repo      Repository
	companies company.Repository
	numbers   *NumberGenerator
	outbox    kafka.OutboxRepository
	docs      DocumentService
	rdb       *redis.Client
	sf        *singleflight.Group
	opts      Options
	logger    *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	companies company.Repository,
	counterRepo counter.Repository,
	outboxRepo kafka.OutboxRepository,
	docs DocumentService,
	rdb *redis.Client,
	opts Options,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("invoice.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("invoice.service")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	if opts.Defaults.TaxType == "" {
		opts.Defaults = billing.DefaultRates()
	}
	return &service{
		db:        db,
		repo:      repo,
		companies: companies,
		numbers:   NewNumberGenerator(repo, counterRepo),
		outbox:    outboxRepo,
		docs:      docs,
		rdb:       rdb,
		sf:        &singleflight.Group{},
		opts:      opts,
		logger:    l,
	}
}

type quote struct {
	rates     billing.Rates
	employees []billing.ProcessedEmployee
	totals    billing.Totals
	dropped   int
}

// calculate runs the attendance pipeline shared by Create and Preview.
func (s *service) calculate(ctx context.Context, rows []billing.RawAttendanceRow, cfg billing.RateConfig) (quote, error) {
	rates, err := cfg.Resolve(s.opts.Defaults)
	if err != nil {
		return quote{}, invoiceerrors.ErrInvalidRates.WithCause(err)
	}

	records, dropped := billing.NormalizeAttendance(rows)
	if dropped > 0 {
		s.logger.Warn("attendance rows dropped",
			zap.String("request_id", contextutil.GetRequestID(ctx)),
			zap.Int("dropped", dropped),
			zap.Int("received", len(rows)),
		)
	}

	employees := billing.ProcessEmployees(records, rates)
	return quote{
		rates:     rates,
		employees: employees,
		totals:    billing.CalculateTotals(employees, rates),
		dropped:   dropped,
	}, nil
}

func (s *service) Preview(ctx context.Context, req PreviewInvoiceRequest) (QuoteResponse, error) {
	q, err := s.calculate(ctx, req.Attendance, req.RateConfig)
	if err != nil {
		return QuoteResponse{}, err
	}
	return QuoteResponse{
		Employees:   q.employees,
		Totals:      q.totals,
		Rates:       q.rates,
		DroppedRows: q.dropped,
	}, nil
}

func (s *service) Create(ctx context.Context, req CreateInvoiceRequest) (InvoiceResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("create invoice requested",
		zap.String("request_id", rid),
		zap.String("company_id", req.CompanyID),
		zap.Int("month", req.Month),
		zap.Int("year", req.Year),
		zap.Int("rows", len(req.Attendance)),
	)

	companyID, err := uuid.Parse(req.CompanyID)
	if err != nil {
		return InvoiceResponse{}, invoiceerrors.ErrInvalidCompanyID
	}

	q, err := s.calculate(ctx, req.Attendance, req.RateConfig)
	if err != nil {
		s.logger.Warn("create invoice invalid rates", zap.String("request_id", rid), zap.Error(err))
		return InvoiceResponse{}, err
	}

	comp, err := s.companies.FindByID(ctx, companyID)
	if err != nil {
		s.logger.Warn("create invoice company lookup failed",
			zap.String("request_id", rid),
			zap.String("company_id", req.CompanyID),
			zap.Error(err),
		)
		return InvoiceResponse{}, err
	}

	now := s.opts.Now().UTC()
	number, err := s.numbers.Next(ctx, PrefixInvoice, now.Year())
	if err != nil {
		s.logger.Error("create invoice generate number failed", zap.String("request_id", rid), zap.Error(err))
		return InvoiceResponse{}, err
	}

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = PaymentBankTransfer
	}

	inv := &Invoice{
		ID:                uuid.New(),
		InvoiceNumber:     number,
		CompanyID:         &companyID,
		BillToName:        comp.Name,
		BillToAddress:     comp.Address,
		BillToGSTIN:       comp.GSTIN,
		Month:             req.Month,
		Year:              req.Year,
		Bill:              q.totals.Bill,
		CGST:              q.totals.Tax.CGST,
		SGST:              q.totals.Tax.SGST,
		IGST:              q.totals.Tax.IGST,
		SubTotal:          q.totals.SubTotal,
		RoundOffSubTotal:  q.totals.RoundOffSubTotal,
		RoundOff:          q.totals.RoundOff,
		TotalBeforeTax:    q.totals.TotalBeforeTax,
		AmountInWords:     q.totals.AmountInWords,
		TotalEmployees:    q.totals.Attendance.TotalEmployees,
		TotalRegularDays:  q.totals.Attendance.TotalRegularDaysBilled,
		TotalOvertimeDays: q.totals.Attendance.TotalOvertimeDays,
		PerDayRate:        q.totals.Attendance.PerDayRate,
		WorkingDays:       q.totals.Attendance.WorkingDays,
		ServiceChargeRate: q.rates.ServiceChargeRate,
		BonusRate:         q.rates.BonusRate,
		OvertimeRate:      q.rates.OvertimeRate,
		TaxType:           q.rates.TaxType,
		GSTPaidBy:         q.rates.GSTPaidBy,
		DroppedRows:       q.dropped,
		Status:            StatusDraft,
		PaymentMethod:     paymentMethod,
		Notes:             req.Notes,
		CreatedAt:         now,
		UpdatedAt:         now,
		Employees:         toEmployeeRows(q.employees),
	}
	for i := range inv.Employees {
		inv.Employees[i].InvoiceID = inv.ID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create invoice begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return InvoiceResponse{}, err
	}
	defer tx.Rollback()

	if err := s.repo.WithTx(tx).Create(ctx, inv); err != nil {
		s.logger.Error("create invoice persist failed",
			zap.String("request_id", rid),
			zap.String("invoice_number", number),
			zap.Error(err),
		)
		return InvoiceResponse{}, mapRepositoryError(err)
	}

	if s.outbox != nil {
		if err := s.enqueueDocument(ctx, tx, inv); err != nil {
			s.logger.Error("create invoice outbox persist failed",
				zap.String("request_id", rid),
				zap.String("invoice_id", inv.ID.String()),
				zap.Error(err),
			)
			return InvoiceResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create invoice commit failed", zap.String("request_id", rid), zap.Error(err))
		return InvoiceResponse{}, err
	}

	s.logger.Info("create invoice success",
		zap.String("request_id", rid),
		zap.String("invoice_id", inv.ID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("total", inv.Bill.TotalAmount.String()),
		zap.Int("employees", inv.TotalEmployees),
	)
	return mapToResponse(*inv), nil
}

func (s *service) enqueueDocument(ctx context.Context, tx *sql.Tx, inv *Invoice) error {
	rid := contextutil.GetRequestID(ctx)
	event := events.InvoiceDocumentRequestedEvent{
		EventType:     events.InvoiceDocumentRequestedType,
		RequestID:     rid,
		InvoiceID:     inv.ID.String(),
		InvoiceNumber: inv.InvoiceNumber,
		OccurredAt:    s.opts.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     rid,
		AggregateType: "invoice",
		AggregateID:   inv.ID.String(),
		EventType:     event.EventType,
		Topic:         events.InvoiceDocumentRequestedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func (s *service) Merge(ctx context.Context, req MergeInvoicesRequest) (MergeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("merge invoices requested",
		zap.String("request_id", rid),
		zap.Strings("invoice_ids", req.InvoiceIDs),
	)

	if len(req.InvoiceIDs) < 2 {
		return MergeResponse{}, invoiceerrors.ErrNotEnoughInvoices
	}
	ids := make([]uuid.UUID, 0, len(req.InvoiceIDs))
	for _, raw := range req.InvoiceIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return MergeResponse{}, invoiceerrors.ErrInvalidInvoiceID
		}
		ids = append(ids, id)
	}
	if len(lo.Uniq(ids)) != len(ids) {
		return MergeResponse{}, invoiceerrors.ErrDuplicateInvoiceIDs
	}

	found, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("merge invoices load sources failed", zap.String("request_id", rid), zap.Error(err))
		return MergeResponse{}, mapRepositoryError(err)
	}
	sources, err := mergeableSources(ids, found)
	if err != nil {
		s.logger.Warn("merge invoices rejected sources", zap.String("request_id", rid), zap.Error(err))
		return MergeResponse{}, err
	}

	res, err := billing.MergeInvoices(lo.Map(sources, func(inv Invoice, _ int) billing.MergeSource {
		return inv.mergeSource()
	}))
	if err != nil {
		return MergeResponse{}, invoiceerrors.ErrNotEnoughInvoices.WithCause(err)
	}

	month, year := req.Month, req.Year
	if month == 0 || year == 0 {
		month, year = latestPeriod(sources)
	}

	now := s.opts.Now().UTC()
	number, err := s.numbers.Next(ctx, PrefixMerged, now.Year())
	if err != nil {
		s.logger.Error("merge invoices generate number failed", zap.String("request_id", rid), zap.Error(err))
		return MergeResponse{}, err
	}

	sum := func(pick func(Invoice) decimal.Decimal) decimal.Decimal {
		return lo.Reduce(sources, func(acc decimal.Decimal, inv Invoice, _ int) decimal.Decimal {
			return acc.Add(pick(inv))
		}, decimal.Zero)
	}

	merged := &Invoice{
		ID:                   uuid.New(),
		InvoiceNumber:        number,
		BillToName:           res.BillToName,
		BillToAddress:        s.mergedAddress(ctx, res.CompanyIDs),
		Month:                month,
		Year:                 year,
		Bill:                 res.Bill,
		CGST:                 res.Tax.CGST,
		SGST:                 res.Tax.SGST,
		IGST:                 res.Tax.IGST,
		SubTotal:             sum(func(inv Invoice) decimal.Decimal { return inv.SubTotal }),
		RoundOffSubTotal:     sum(func(inv Invoice) decimal.Decimal { return inv.RoundOffSubTotal }),
		RoundOff:             sum(func(inv Invoice) decimal.Decimal { return inv.RoundOff }),
		TotalBeforeTax:       sum(func(inv Invoice) decimal.Decimal { return inv.TotalBeforeTax }),
		AmountInWords:        billing.AmountInWords(billing.RoundHalfUp(res.Bill.TotalAmount).IntPart()),
		TotalEmployees:       res.Attendance.TotalEmployees,
		TotalRegularDays:     res.Attendance.TotalRegularDaysBilled,
		TotalOvertimeDays:    res.Attendance.TotalOvertimeDays,
		PerDayRate:           res.Attendance.PerDayRate,
		WorkingDays:          res.Attendance.WorkingDays,
		ServiceChargeRate:    res.ServiceChargeRate,
		BonusRate:            res.BonusRate,
		OvertimeRate:         res.OvertimeRate,
		TaxType:              res.TaxType,
		GSTPaidBy:            res.GSTPaidBy,
		DroppedRows:          lo.SumBy(sources, func(inv Invoice) int { return inv.DroppedRows }),
		Status:               StatusDraft,
		PaymentMethod:        res.PaymentMethod,
		Notes:                req.Notes,
		IsMerged:             true,
		SourceInvoiceIDs:     res.SourceInvoiceIDs,
		SourceInvoiceNumbers: lo.Map(sources, func(inv Invoice, _ int) string { return inv.InvoiceNumber }),
		MergedCompanyIDs:     res.CompanyIDs,
		MergedCompanyNames:   res.CompanyNames,
		CreatedAt:            now,
		UpdatedAt:            now,
		Employees:            toEmployeeRows(res.Employees),
	}
	for i := range merged.Employees {
		merged.Employees[i].InvoiceID = merged.ID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("merge invoices begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return MergeResponse{}, err
	}
	defer tx.Rollback()

	// amounts are immutable, only lifecycle columns can change between the
	// first read and the lock
	qtx := s.repo.WithTx(tx)
	locked, err := qtx.LockForShare(ctx, ids)
	if err != nil {
		s.logger.Error("merge invoices lock sources failed", zap.String("request_id", rid), zap.Error(err))
		return MergeResponse{}, mapRepositoryError(err)
	}
	if _, err := mergeableSources(ids, locked); err != nil {
		s.logger.Warn("merge invoices sources changed before commit", zap.String("request_id", rid), zap.Error(err))
		return MergeResponse{}, err
	}

	if err := qtx.Create(ctx, merged); err != nil {
		s.logger.Error("merge invoices persist failed",
			zap.String("request_id", rid),
			zap.String("invoice_number", number),
			zap.Error(err),
		)
		return MergeResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("merge invoices commit failed", zap.String("request_id", rid), zap.Error(err))
		return MergeResponse{}, err
	}

	out := MergeResponse{}
	if doc, err := s.publish(ctx, merged); err != nil {
		s.logger.Warn("merged invoice document not generated",
			zap.String("request_id", rid),
			zap.String("invoice_id", merged.ID.String()),
			zap.Error(err),
		)
		out.DocumentMissing = true
		out.Warning = "Merged invoice saved but its document could not be generated"
	} else {
		applyDocument(merged, doc)
	}

	s.logger.Info("merge invoices success",
		zap.String("request_id", rid),
		zap.String("invoice_id", merged.ID.String()),
		zap.String("invoice_number", merged.InvoiceNumber),
		zap.Int("sources", len(sources)),
		zap.String("total", merged.Bill.TotalAmount.String()),
	)
	out.Invoice = mapToResponse(*merged)
	return out, nil
}

// mergedAddress lists the distinct addresses of the merged companies.
// Lookup failures leave the address empty.
func (s *service) mergedAddress(ctx context.Context, ids []uuid.UUID) string {
	companies, err := s.companies.FindByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("merged invoice company lookup failed", zap.Error(err))
		return ""
	}
	byID := lo.KeyBy(companies, func(c company.Company) uuid.UUID { return c.ID })

	addresses := make([]string, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok && strings.TrimSpace(c.Address) != "" {
			addresses = append(addresses, strings.TrimSpace(c.Address))
		}
	}
	return strings.Join(lo.Uniq(addresses), "; ")
}

func latestPeriod(invoices []Invoice) (month, year int) {
	for _, inv := range invoices {
		if inv.Year > year || (inv.Year == year && inv.Month > month) {
			month, year = inv.Month, inv.Year
		}
	}
	return month, year
}

func (s *service) GetAll(ctx context.Context, req InvoiceFilterRequest) ([]InvoiceSummaryResponse, error) {
	s.logger.Debug("get all invoices requested",
		zap.String("status", req.Status),
		zap.String("company_id", req.CompanyID),
		zap.Int("year", req.Year),
	)

	filter := Filter{Status: req.Status, Merged: req.Merged, Year: req.Year, Month: req.Month}
	if req.CompanyID != "" {
		id, err := uuid.Parse(req.CompanyID)
		if err != nil {
			return nil, invoiceerrors.ErrInvalidCompanyID
		}
		filter.CompanyID = &id
	}

	invoices, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("get all invoices failed", zap.Error(err))
		return nil, mapRepositoryError(err)
	}
	return lo.Map(invoices, func(inv Invoice, _ int) InvoiceSummaryResponse {
		return mapToSummary(inv)
	}), nil
}

func (s *service) GetByID(ctx context.Context, id string) (InvoiceResponse, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return InvoiceResponse{}, invoiceerrors.ErrInvalidInvoiceID
	}
	cacheKey := GetInvoiceDetailKey(invoiceID.String())

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var resp InvoiceResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		inv, err := s.repo.FindByID(ctx, invoiceID)
		if err != nil {
			return nil, mapRepositoryError(err)
		}

		resp := mapToResponse(*inv)
		if s.rdb != nil {
			if data, err := json.Marshal(resp); err == nil {
				if err := s.rdb.Set(ctx, cacheKey, data, s.opts.CacheTTL).Err(); err != nil {
					s.logger.Warn("cache invoice detail failed", zap.String("key", cacheKey), zap.Error(err))
				}
			}
		}
		return resp, nil
	})
	if err != nil {
		if !errors.Is(err, invoiceerrors.ErrInvoiceNotFound) {
			s.logger.Error("get invoice by id failed", zap.String("invoice_id", id), zap.Error(err))
		}
		return InvoiceResponse{}, err
	}
	return v.(InvoiceResponse), nil
}

// mergeableSources returns found in request order, rejecting missing,
// merged and cancelled invoices.
func mergeableSources(ids []uuid.UUID, found []Invoice) ([]Invoice, error) {
	byID := lo.KeyBy(found, func(inv Invoice) uuid.UUID { return inv.ID })

	sources := make([]Invoice, 0, len(ids))
	for _, id := range ids {
		inv, ok := byID[id]
		switch {
		case !ok:
			return nil, invoiceerrors.ErrInvoiceNotFound
		case inv.IsMerged:
			return nil, invoiceerrors.ErrMergedInvoiceAsSource
		case inv.Status == StatusCancelled:
			return nil, invoiceerrors.ErrCancelledInvoiceAsSource
		}
		sources = append(sources, inv)
	}
	return sources, nil
}

var allowedTransitions = map[string][]string{
	StatusDraft: {StatusSent, StatusCancelled},
	StatusSent:  {StatusPaid, StatusCancelled},
}

// CanTransition reports whether an invoice may move from one status to
// another. Staying in the same status is always allowed.
func CanTransition(from, to string) bool {
	return from == to || lo.Contains(allowedTransitions[from], to)
}

func (s *service) Update(ctx context.Context, id string, req UpdateInvoiceRequest) (InvoiceResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return InvoiceResponse{}, invoiceerrors.ErrInvalidInvoiceID
	}

	var paymentDate *time.Time
	if req.PaymentDate != nil && *req.PaymentDate != "" {
		parsed, err := time.Parse(dateLayout, *req.PaymentDate)
		if err != nil {
			return InvoiceResponse{}, invoiceerrors.ErrInvalidPaymentDate
		}
		paymentDate = &parsed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("update invoice begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return InvoiceResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	inv, err := qtx.FindByIDForUpdate(ctx, invoiceID)
	if err != nil {
		return InvoiceResponse{}, mapRepositoryError(err)
	}

	if req.Status != nil && *req.Status != inv.Status {
		next := *req.Status
		if !CanTransition(inv.Status, next) {
			s.logger.Warn("update invoice invalid status transition",
				zap.String("invoice_id", id),
				zap.String("from", inv.Status),
				zap.String("to", next),
			)
			return InvoiceResponse{}, invoiceerrors.ErrInvalidStatusTransition
		}
		if next == StatusCancelled && !inv.IsMerged {
			refs, err := qtx.FindMergedReferencing(ctx, inv.ID)
			if err != nil {
				return InvoiceResponse{}, mapRepositoryError(err)
			}
			if len(refs) > 0 {
				return InvoiceResponse{}, invoiceerrors.ErrInvoiceReferenced
			}
		}
		if next == StatusPaid && paymentDate == nil && inv.PaymentDate == nil {
			today := s.opts.Now().UTC().Truncate(24 * time.Hour)
			paymentDate = &today
		}
		inv.Status = next
	}
	if paymentDate != nil {
		inv.PaymentDate = paymentDate
	}
	if req.PaymentMethod != nil {
		inv.PaymentMethod = *req.PaymentMethod
	}
	if req.Notes != nil {
		inv.Notes = *req.Notes
	}

	if err := qtx.UpdateLifecycle(ctx, inv); err != nil {
		s.logger.Error("update invoice persist failed", zap.String("request_id", rid), zap.Error(err))
		return InvoiceResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("update invoice commit failed", zap.String("request_id", rid), zap.Error(err))
		return InvoiceResponse{}, err
	}

	s.invalidate(ctx, inv.ID)
	s.logger.Info("update invoice success",
		zap.String("request_id", rid),
		zap.String("invoice_id", id),
		zap.String("status", inv.Status),
	)
	return mapToResponse(*inv), nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	rid := contextutil.GetRequestID(ctx)
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return invoiceerrors.ErrInvalidInvoiceID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("delete invoice begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	inv, err := qtx.FindByIDForUpdate(ctx, invoiceID)
	if err != nil {
		return mapRepositoryError(err)
	}

	if !inv.IsMerged {
		refs, err := qtx.FindMergedReferencing(ctx, inv.ID)
		if err != nil {
			return mapRepositoryError(err)
		}
		if len(refs) > 0 {
			s.logger.Warn("delete invoice referenced by merged invoice",
				zap.String("invoice_id", id),
				zap.String("merged_invoice", refs[0].InvoiceNumber),
			)
			return invoiceerrors.ErrInvoiceReferenced
		}
	}

	if err := qtx.Delete(ctx, inv.ID); err != nil {
		s.logger.Error("delete invoice failed", zap.String("request_id", rid), zap.Error(err))
		return mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("delete invoice commit failed", zap.String("request_id", rid), zap.Error(err))
		return err
	}

	s.invalidate(ctx, inv.ID)

	if inv.DocumentKey != nil && s.docs != nil {
		if err := s.docs.Remove(ctx, *inv.DocumentKey); err != nil {
			s.logger.Warn("delete invoice document removal failed",
				zap.String("invoice_id", id),
				zap.String("key", *inv.DocumentKey),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("delete invoice success",
		zap.String("request_id", rid),
		zap.String("invoice_id", id),
		zap.Bool("merged", inv.IsMerged),
	)
	return nil
}

func (s *service) GenerateDocument(ctx context.Context, id string) (DocumentResponse, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return DocumentResponse{}, invoiceerrors.ErrInvalidInvoiceID
	}

	inv, err := s.repo.FindByID(ctx, invoiceID)
	if err != nil {
		return DocumentResponse{}, mapRepositoryError(err)
	}

	ref, err := s.publish(ctx, inv)
	if err != nil {
		s.logger.Error("generate invoice document failed",
			zap.String("request_id", contextutil.GetRequestID(ctx)),
			zap.String("invoice_id", id),
			zap.Error(err),
		)
		return DocumentResponse{}, invoiceerrors.ErrDocumentFailed.WithCause(err)
	}

	return DocumentResponse{URL: ref.URL, Pages: ref.Pages, GeneratedAt: ref.GeneratedAt}, nil
}

// publish renders and stores the document, then records it on the invoice.
func (s *service) publish(ctx context.Context, inv *Invoice) (DocumentRef, error) {
	if s.docs == nil {
		return DocumentRef{}, errors.New("document service not configured")
	}

	stored, err := s.docs.Publish(ctx, toDocument(inv, s.opts.Issuer))
	if err != nil {
		return DocumentRef{}, err
	}

	ref := DocumentRef{
		URL:         stored.URL,
		Key:         stored.Key,
		Pages:       stored.Pages,
		GeneratedAt: s.opts.Now().UTC(),
	}
	if err := s.repo.UpdateDocument(ctx, inv.ID, ref); err != nil {
		return DocumentRef{}, mapRepositoryError(err)
	}

	s.invalidate(ctx, inv.ID)
	s.logger.Info("invoice document attached",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("url", ref.URL),
		zap.Int("pages", ref.Pages),
	)
	return ref, nil
}

func (s *service) DocumentURL(ctx context.Context, id string) (string, error) {
	inv, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if inv.Document == nil || inv.Document.URL == "" {
		return "", invoiceerrors.ErrDocumentNotReady
	}
	return inv.Document.URL, nil
}

func (s *service) ExportXLSX(ctx context.Context, id string) (ExportFile, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return ExportFile{}, invoiceerrors.ErrInvalidInvoiceID
	}

	inv, err := s.repo.FindByID(ctx, invoiceID)
	if err != nil {
		return ExportFile{}, mapRepositoryError(err)
	}

	body, err := s.docs.Workbook(toDocument(inv, s.opts.Issuer))
	if err != nil {
		s.logger.Error("export invoice workbook failed", zap.String("invoice_id", id), zap.Error(err))
		return ExportFile{}, err
	}

	return ExportFile{
		Name:        inv.InvoiceNumber + ".xlsx",
		ContentType: document.ContentTypeXLSX,
		Body:        body,
	}, nil
}

func (s *service) invalidate(ctx context.Context, id uuid.UUID) {
	if s.rdb == nil {
		return
	}
	cacheKey := GetInvoiceDetailKey(id.String())
	if err := s.rdb.Del(ctx, cacheKey).Err(); err != nil {
		s.logger.Error("failed to invalidate invoice cache",
			zap.Error(err),
			zap.String("key", cacheKey),
		)
	}
}

func applyDocument(inv *Invoice, ref DocumentRef) {
	inv.DocumentURL = &ref.URL
	inv.DocumentKey = &ref.Key
	inv.DocumentPages = ref.Pages
	inv.DocumentGeneratedAt = &ref.GeneratedAt
}

func mapToResponse(inv Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:            inv.ID.String(),
		InvoiceNumber: inv.InvoiceNumber,
		BillTo: BillToResponse{
			Name:    inv.BillToName,
			Address: inv.BillToAddress,
			GSTIN:   inv.BillToGSTIN,
		},
		Month:             inv.Month,
		Year:              inv.Year,
		BillDetails:       inv.Bill,
		Attendance:        inv.Attendance(),
		Tax:               inv.Tax(),
		SubTotal:          inv.SubTotal,
		RoundOffSubTotal:  inv.RoundOffSubTotal,
		RoundOff:          inv.RoundOff,
		TotalBeforeTax:    inv.TotalBeforeTax,
		AmountInWords:     inv.AmountInWords,
		Employees:         inv.ProcessedEmployees(),
		TaxType:           inv.TaxType,
		GSTPaidBy:         inv.GSTPaidBy,
		ServiceChargeRate: inv.ServiceChargeRate,
		BonusRate:         inv.BonusRate,
		OvertimeRate:      inv.OvertimeRate,
		Status:            inv.Status,
		PaymentMethod:     inv.PaymentMethod,
		Notes:             inv.Notes,
		DroppedRows:       inv.DroppedRows,
		IsMerged:          inv.IsMerged,
		SourceNumbers:     []string(inv.SourceInvoiceNumbers),
		MergedCompanies:   []string(inv.MergedCompanyNames),
		CreatedAt:         inv.CreatedAt,
	}
	if inv.CompanyID != nil {
		resp.CompanyID = inv.CompanyID.String()
	}
	if inv.PaymentDate != nil {
		resp.PaymentDate = inv.PaymentDate.Format(dateLayout)
	}
	if len(inv.SourceInvoiceIDs) > 0 {
		resp.SourceInvoiceIDs = lo.Map(inv.SourceInvoiceIDs, func(id uuid.UUID, _ int) string { return id.String() })
	}
	if len(inv.MergedCompanyIDs) > 0 {
		resp.MergedCompanyIDs = lo.Map(inv.MergedCompanyIDs, func(id uuid.UUID, _ int) string { return id.String() })
	}
	if inv.DocumentURL != nil {
		resp.Document = &DocumentResponse{URL: *inv.DocumentURL, Pages: inv.DocumentPages}
		if inv.DocumentGeneratedAt != nil {
			resp.Document.GeneratedAt = *inv.DocumentGeneratedAt
		}
	}
	return resp
}

func mapToSummary(inv Invoice) InvoiceSummaryResponse {
	return InvoiceSummaryResponse{
		ID:            inv.ID.String(),
		InvoiceNumber: inv.InvoiceNumber,
		BillToName:    inv.BillToName,
		Month:         inv.Month,
		Year:          inv.Year,
		TotalAmount:   inv.Bill.TotalAmount,
		GSTAmount:     inv.Bill.GSTAmount,
		Status:        inv.Status,
		IsMerged:      inv.IsMerged,
		HasDocument:   inv.DocumentURL != nil,
		CreatedAt:     inv.CreatedAt,
	}
}
