package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gym-admin-api/internal/models"
	"github.com/noah-isme/gym-admin-api/pkg/response"
)

type checkinService interface {
	List(ctx context.Context, studentID string, page int) ([]models.Checkin, *models.Pagination, error)
	Record(ctx context.Context, studentID string) (*models.Checkin, error)
}

// CheckinHandler exposes the student-facing attendance endpoints.
type CheckinHandler struct {
	checkins checkinService
}

// NewCheckinHandler constructs CheckinHandler.
func NewCheckinHandler(checkins checkinService) *CheckinHandler {
	return &CheckinHandler{checkins: checkins}
}

// List godoc
// @Summary List a student's check-ins
// @Tags Checkins
// @Produce json
// @Param id path string true "Student ID"
// @Param page query int false "Page"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/checkins [get]
func (h *CheckinHandler) List(c *gin.Context) {
	items, pagination, err := h.checkins.List(c.Request.Context(), c.Param("id"), pageParam(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, items, pagination)
}

// Create godoc
// @Summary Record a check-in
// @Tags Checkins
// @Produce json
// @Param id path string true "Student ID"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope "STUDENT_NOT_REGISTERED"
// @Failure 429 {object} response.Envelope "CHECKIN_QUOTA_EXCEEDED"
// @Router /students/{id}/checkins [post]
func (h *CheckinHandler) Create(c *gin.Context) {
	checkin, err := h.checkins.Record(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, checkin)
}
