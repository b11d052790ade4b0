package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gym-admin-api/internal/models"
	"github.com/noah-isme/gym-admin-api/internal/service"
	appErrors "github.com/noah-isme/gym-admin-api/pkg/errors"
)

type fakeRegistrationSrv struct {
	created *service.CreateRegistrationRequest
	updated *service.UpdateRegistrationRequest
	err     error
}

func (f *fakeRegistrationSrv) List(_ context.Context, page int) ([]models.RegistrationDetail, *models.Pagination, error) {
	return []models.RegistrationDetail{}, models.NewPagination(page, 10, 0), nil
}

func (f *fakeRegistrationSrv) Get(_ context.Context, id string) (*models.RegistrationDetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.RegistrationDetail{Registration: models.Registration{ID: id}}, nil
}

func (f *fakeRegistrationSrv) Create(_ context.Context, req service.CreateRegistrationRequest) (*models.RegistrationDetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = &req
	return &models.RegistrationDetail{Registration: models.Registration{
		ID:        "r-1",
		StudentID: req.StudentID,
		PlanID:    req.PlanID,
		StartDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 4, 10, 23, 59, 59, 999999000, time.UTC),
		Price:     decimal.RequireFromString("300.00"),
	}}, nil
}

func (f *fakeRegistrationSrv) Update(_ context.Context, id string, req service.UpdateRegistrationRequest) (*models.RegistrationDetail, error) {
	f.updated = &req
	return &models.RegistrationDetail{Registration: models.Registration{ID: id}}, nil
}

func (f *fakeRegistrationSrv) Delete(_ context.Context, id string) (*models.RegistrationDetail, error) {
	return &models.RegistrationDetail{Registration: models.Registration{ID: id}}, nil
}

func TestRegistrationHandlerCreate(t *testing.T) {
	srv := &fakeRegistrationSrv{}
	handler := NewRegistrationHandler(srv)

	c, rec := jsonContext(http.MethodPost, "/registrations", `{"student_id":"s-1","plan_id":"p-1","start_date":"2024-01-10"}`, nil)
	handler.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, srv.created)
	assert.Equal(t, "2024-01-10", srv.created.StartDate)

	var body struct {
		Data struct {
			Price string `json:"price"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "300", body.Data.Price)
}

func TestRegistrationHandlerCreatePastDate(t *testing.T) {
	handler := NewRegistrationHandler(&fakeRegistrationSrv{err: appErrors.ErrPastStartDate})

	c, rec := jsonContext(http.MethodPost, "/registrations", `{"student_id":"s-1","plan_id":"p-1","start_date":"2001-01-01"}`, nil)
	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "PAST_START_DATE")
}

func TestRegistrationHandlerUpdatePartial(t *testing.T) {
	srv := &fakeRegistrationSrv{}
	handler := NewRegistrationHandler(srv)

	c, rec := jsonContext(http.MethodPut, "/registrations/r-1", `{"plan_id":"p-2"}`, gin.Params{{Key: "id", Value: "r-1"}})
	handler.Update(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, srv.updated)
	require.NotNil(t, srv.updated.PlanID)
	assert.Equal(t, "p-2", *srv.updated.PlanID)
	assert.Nil(t, srv.updated.StartDate)
	assert.Nil(t, srv.updated.StudentID)
}

func TestRegistrationHandlerGetNotFound(t *testing.T) {
	handler := NewRegistrationHandler(&fakeRegistrationSrv{err: appErrors.Clone(appErrors.ErrNotFound, "registration not found")})

	c, rec := jsonContext(http.MethodGet, "/registrations/missing", "", gin.Params{{Key: "id", Value: "missing"}})
	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
