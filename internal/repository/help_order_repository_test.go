package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gym-admin-api/internal/models"
)

var helpOrderDetailColumns = []string{"id", "student_id", "question", "answer", "answer_at", "created_at", "updated_at", "student.name", "student.email"}

func TestHelpOrderRepositoryListOpen(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewHelpOrderRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE h.answer IS NULL ORDER BY h.created_at DESC, h.id ASC LIMIT 20 OFFSET 0")).
		WillReturnRows(sqlmock.NewRows(helpOrderDetailColumns).
			AddRow("h-1", "s-1", "Can I freeze my plan?", nil, nil, time.Now(), time.Now(), "Ana", "ana@gym.test"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM help_orders WHERE answer IS NULL")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	orders, total, err := repo.ListOpen(context.Background(), models.PageQuery{})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, 1, total)
	assert.Nil(t, orders[0].Answer)
	assert.Equal(t, "ana@gym.test", orders[0].Student.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHelpOrderRepositoryAnswerIsConditional(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewHelpOrderRepository(db)

	at := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	query := regexp.QuoteMeta("UPDATE help_orders SET answer = $2, answer_at = $3, updated_at = $3 WHERE id = $1 AND answer IS NULL")
	mock.ExpectExec(query).WithArgs("h-1", "Yes", at).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).WithArgs("h-1", "Again", at).WillReturnResult(sqlmock.NewResult(0, 0))

	updated, err := repo.Answer(context.Background(), "h-1", "Yes", at)
	require.NoError(t, err)
	assert.True(t, updated)

	updated, err = repo.Answer(context.Background(), "h-1", "Again", at)
	require.NoError(t, err)
	assert.False(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}
