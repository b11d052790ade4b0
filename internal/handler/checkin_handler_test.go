package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gym-admin-api/internal/models"
	appErrors "github.com/noah-isme/gym-admin-api/pkg/errors"
)

type fakeCheckinSrv struct {
	recordErr error
	listPage  int
	items     []models.Checkin
}

func (f *fakeCheckinSrv) List(_ context.Context, studentID string, page int) ([]models.Checkin, *models.Pagination, error) {
	f.listPage = page
	return f.items, models.NewPagination(page, 10, len(f.items)), nil
}

func (f *fakeCheckinSrv) Record(_ context.Context, studentID string) (*models.Checkin, error) {
	if f.recordErr != nil {
		return nil, f.recordErr
	}
	return &models.Checkin{ID: "c-1", StudentID: studentID, CreatedAt: time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)}, nil
}

func newStudentContext(method, target, studentID string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, nil)
	c.Params = gin.Params{{Key: "id", Value: studentID}}
	return c, rec
}

func TestCheckinHandlerCreate(t *testing.T) {
	handler := NewCheckinHandler(&fakeCheckinSrv{})
	c, rec := newStudentContext(http.MethodPost, "/students/s-1/checkins", "s-1")

	handler.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	var body struct {
		Data models.Checkin `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "s-1", body.Data.StudentID)
}

func TestCheckinHandlerMapsDomainErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"quota", appErrors.ErrQuotaExceeded, http.StatusTooManyRequests, "CHECKIN_QUOTA_EXCEEDED"},
		{"not registered", appErrors.ErrNotRegistered, http.StatusBadRequest, "STUDENT_NOT_REGISTERED"},
		{"unknown student", appErrors.Clone(appErrors.ErrNotFound, "student not found"), http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewCheckinHandler(&fakeCheckinSrv{recordErr: tc.err})
			c, rec := newStudentContext(http.MethodPost, "/students/s-1/checkins", "s-1")

			handler.Create(c)

			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.code)
		})
	}
}

func TestCheckinHandlerListReadsPage(t *testing.T) {
	srv := &fakeCheckinSrv{items: []models.Checkin{{ID: "c-1"}}}
	handler := NewCheckinHandler(srv)
	c, rec := newStudentContext(http.MethodGet, "/students/s-1/checkins?page=3", "s-1")

	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, srv.listPage)
	assert.Contains(t, rec.Body.String(), `"pagination"`)

	c, _ = newStudentContext(http.MethodGet, "/students/s-1/checkins?page=abc", "s-1")
	handler.List(c)
	assert.Equal(t, 1, srv.listPage)
}
