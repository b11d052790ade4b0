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

var registrationDetailColumns = []string{
	"id", "student_id", "plan_id", "start_date", "end_date", "price", "created_at", "updated_at",
	"student.name", "student.email", "student.age", "student.weight", "student.height",
	"plan.title", "plan.duration", "plan.price",
}

func TestRegistrationRepositoryListScansSnapshots(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 4, 10, 23, 59, 59, 999999000, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY r.start_date DESC, r.id ASC LIMIT 20 OFFSET 20")).
		WillReturnRows(sqlmock.NewRows(registrationDetailColumns).
			AddRow("r-1", "s-1", "p-1", start, end, "300.00", time.Now(), time.Now(),
				"Ana", "ana@gym.test", 30, 62.5, 1.68,
				"Gold", 3, "100.00"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM registrations")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))

	items, total, err := repo.List(context.Background(), models.PageQuery{Page: 2, PageSize: 20})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 21, total)
	assert.Equal(t, "Ana", items[0].Student.Name)
	assert.Equal(t, 3, items[0].Plan.Duration)
	assert.True(t, decimal.RequireFromString("300").Equal(items[0].Price))
	assert.Equal(t, end, items[0].EndDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryExistsByStudent(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM registrations WHERE student_id = $1 LIMIT 1")).
		WithArgs("s-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}))

	exists, err := repo.ExistsByStudent(context.Background(), "s-1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryCreateUpdateDelete(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectExec("INSERT INTO registrations").
		WithArgs(sqlmock.AnyArg(), "s-1", "p-1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE registrations SET").
		WithArgs("s-1", "p-2", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM registrations WHERE id = $1")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	reg := &models.Registration{StudentID: "s-1", PlanID: "p-1", Price: decimal.NewFromInt(300)}
	require.NoError(t, repo.Create(context.Background(), reg))
	assert.NotEmpty(t, reg.ID)

	reg.PlanID = "p-2"
	require.NoError(t, repo.Update(context.Background(), reg))
	require.NoError(t, repo.Delete(context.Background(), reg.ID))
	assert.NoError(t, mock.ExpectationsWereMet())
}
