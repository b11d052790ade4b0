package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gym-admin-api/internal/models"
)

func TestPlanRepositoryFindByIDScansDecimal(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewPlanRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, duration, price, created_at, updated_at FROM plans WHERE id = $1")).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "duration", "price", "created_at", "updated_at"}).
			AddRow("p-1", "Gold", 3, "129.90", time.Now(), time.Now()))

	plan, err := repo.FindByID(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, 3, plan.Duration)
	assert.True(t, decimal.RequireFromString("129.90").Equal(plan.Price))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanRepositoryCreateAndDelete(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewPlanRepository(db)

	mock.ExpectExec("INSERT INTO plans").
		WithArgs(sqlmock.AnyArg(), "Start", 1, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM plans WHERE id = $1")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	plan := &models.Plan{Title: "Start", Duration: 1, Price: decimal.RequireFromString("99.00")}
	require.NoError(t, repo.Create(context.Background(), plan))
	require.NoError(t, repo.Delete(context.Background(), plan.ID))
	assert.NoError(t, mock.ExpectationsWereMet())
}
