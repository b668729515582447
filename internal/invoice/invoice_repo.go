package invoice

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Filter narrows GetAll. Zero values mean "any".
type Filter struct {
	Status    string
	CompanyID *uuid.UUID
	Merged    *bool
	Year      int
	Month     int
}

// DocumentRef is the stored rendering of an invoice.
type DocumentRef struct {
	URL         string
	Key         string
	Pages       int
	GeneratedAt time.Time
}

//go:generate mockgen -source=invoice_repo.go -destination=mock/invoice_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, inv *Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Invoice, error)
	LockForShare(ctx context.Context, ids []uuid.UUID) ([]Invoice, error)
	FindAll(ctx context.Context, filter Filter) ([]Invoice, error)
	CountByYear(ctx context.Context, year int, mergedOnly bool) (int64, error)
	FindMergedReferencing(ctx context.Context, sourceID uuid.UUID) ([]Invoice, error)
	UpdateLifecycle(ctx context.Context, inv *Invoice) error
	UpdateDocument(ctx context.Context, id uuid.UUID, doc DocumentRef) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

// conn routes statements through the bound transaction when there is one.
func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db.Statement.ConnPool = r.tx
	}
	return db
}

func (r *repository) Create(ctx context.Context, inv *Invoice) error {
	return r.conn(ctx).Create(inv).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	var inv Invoice
	err := r.conn(ctx).
		Preload("Employees", func(db *gorm.DB) *gorm.DB { return db.Order("line ASC") }).
		First(&inv, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// FindByIDForUpdate loads an invoice and holds a row lock on it until the
// bound transaction ends.
func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	var inv Invoice
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Employees", func(db *gorm.DB) *gorm.DB { return db.Order("line ASC") }).
		First(&inv, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// LockForShare takes share locks on the given invoices in id order and
// returns their lifecycle columns. Concurrent deletes and status changes
// wait until the bound transaction ends.
func (r *repository) LockForShare(ctx context.Context, ids []uuid.UUID) ([]Invoice, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var invoices []Invoice
	err := r.conn(ctx).
		Select("id", "invoice_number", "status", "is_merged").
		Where("id IN ?", ids).
		Order("id").
		Clauses(clause.Locking{Strength: "SHARE"}).
		Find(&invoices).Error
	return invoices, err
}

func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Invoice, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var invoices []Invoice
	err := r.conn(ctx).
		Preload("Employees", func(db *gorm.DB) *gorm.DB { return db.Order("line ASC") }).
		Where("id IN ?", ids).
		Find(&invoices).Error
	return invoices, err
}

func (r *repository) FindAll(ctx context.Context, filter Filter) ([]Invoice, error) {
	q := r.conn(ctx).Model(&Invoice{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.CompanyID != nil {
		// merged invoices match any of their companies
		ref, _ := json.Marshal([]uuid.UUID{*filter.CompanyID})
		q = q.Where("company_id = ? OR merged_company_ids @> ?::jsonb", *filter.CompanyID, string(ref))
	}
	if filter.Merged != nil {
		q = q.Where("is_merged = ?", *filter.Merged)
	}
	if filter.Year > 0 {
		q = q.Where("year = ?", filter.Year)
	}
	if filter.Month > 0 {
		q = q.Where("month = ?", filter.Month)
	}

	var invoices []Invoice
	err := q.Order("created_at DESC").Find(&invoices).Error
	return invoices, err
}

// CountByYear counts invoices created in the calendar year (UTC). With
// mergedOnly it counts merged invoices only, otherwise every invoice.
func (r *repository) CountByYear(ctx context.Context, year int, mergedOnly bool) (int64, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	q := r.conn(ctx).Model(&Invoice{}).Where("created_at >= ? AND created_at < ?", from, to)
	if mergedOnly {
		q = q.Where("is_merged = ?", true)
	}

	var count int64
	err := q.Count(&count).Error
	return count, err
}

func (r *repository) FindMergedReferencing(ctx context.Context, sourceID uuid.UUID) ([]Invoice, error) {
	ref, err := json.Marshal([]uuid.UUID{sourceID})
	if err != nil {
		return nil, err
	}

	var invoices []Invoice
	err = r.conn(ctx).
		Where("is_merged = ? AND source_invoice_ids @> ?::jsonb", true, string(ref)).
		Find(&invoices).Error
	return invoices, err
}

func (r *repository) UpdateLifecycle(ctx context.Context, inv *Invoice) error {
	return r.conn(ctx).Model(&Invoice{ID: inv.ID}).
		Select("status", "payment_method", "payment_date", "notes", "updated_at").
		Updates(map[string]any{
			"status":         inv.Status,
			"payment_method": inv.PaymentMethod,
			"payment_date":   inv.PaymentDate,
			"notes":          inv.Notes,
			"updated_at":     time.Now().UTC(),
		}).Error
}

func (r *repository) UpdateDocument(ctx context.Context, id uuid.UUID, doc DocumentRef) error {
	res := r.conn(ctx).Model(&Invoice{ID: id}).Updates(map[string]any{
		"document_url":          doc.URL,
		"document_key":          doc.Key,
		"document_pages":        doc.Pages,
		"document_generated_at": doc.GeneratedAt,
		"updated_at":            time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.conn(ctx)
	if err := db.Where("invoice_id = ?", id).Delete(&InvoiceEmployee{}).Error; err != nil {
		return err
	}

	res := db.Delete(&Invoice{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
