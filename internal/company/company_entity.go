package company

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company is a client site the agency bills. Only the fields printed on an
// invoice are modelled here.
type Company struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string         `gorm:"type:varchar(150);not null"`
	Address   string         `gorm:"type:text"`
	GSTIN     string         `gorm:"column:gstin;type:varchar(15)"`
	State     string         `gorm:"type:varchar(60)"`
	Email     string         `gorm:"type:varchar(255);index"`
	IsActive  bool           `gorm:"not null;default:true"`
	CreatedAt time.Time      `gorm:"not null;default:now()"`
	UpdatedAt time.Time      `gorm:"not null;default:now()"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Company) TableName() string {
	return "companies"
}
