package counter_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/AshapuriCRM/backend/internal/shared/counter"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupGorm(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	assert.NoError(t, err)
	return gdb, mock
}

func TestRepository_NextValue(t *testing.T) {
	gdb, mock := setupGorm(t)
	repo := counter.NewRepository(gdb)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO sequences`)).
		WithArgs("INV-2026", int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(int64(4)))

	got, err := repo.NextValue(context.Background(), "INV-2026", 4)

	assert.NoError(t, err)
	assert.Equal(t, int64(4), got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_NextValue_FloorAtLeastOne(t *testing.T) {
	gdb, mock := setupGorm(t)
	repo := counter.NewRepository(gdb)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO sequences`)).
		WithArgs("MINV-2026", int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(int64(1)))

	got, err := repo.NextValue(context.Background(), "MINV-2026", 0)

	assert.NoError(t, err)
	assert.Equal(t, int64(1), got)
}
