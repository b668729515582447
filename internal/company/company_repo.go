package company

import (
	"context"
	"errors"

	companyerrors "github.com/AshapuriCRM/backend/internal/company/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -destination=mock/company_repo_mock.go -package=mock . Repository
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Company, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Company, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*Company, error) {
	var company Company
	err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, companyerrors.ErrCompanyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// FindByIDs returns the companies that exist, in no particular order.
func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Company, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var companies []Company
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&companies).Error
	return companies, err
}
