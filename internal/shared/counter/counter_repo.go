package counter

import (
	"context"

	"gorm.io/gorm"
)

//go:generate mockgen -destination=mock/counter_repo_mock.go -package=mock . Repository
type Repository interface {
	// NextValue atomically increments the named sequence and returns the new
	// value. A sequence that does not exist yet starts at floor, and an
	// existing one never returns less than floor.
	NextValue(ctx context.Context, name string, floor int64) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) NextValue(ctx context.Context, name string, floor int64) (int64, error) {
	if floor < 1 {
		floor = 1
	}

	var nextValue int64
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO sequences (name, last_value, updated_at)
		VALUES (?, ?, now())
		ON CONFLICT (name) DO UPDATE
		SET last_value = GREATEST(sequences.last_value + 1, EXCLUDED.last_value), updated_at = now()
		RETURNING last_value
	`, name, floor).Scan(&nextValue).Error
	if err != nil {
		return 0, err
	}

	return nextValue, nil
}
