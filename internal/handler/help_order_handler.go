package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gym-admin-api/internal/models"
	"github.com/noah-isme/gym-admin-api/internal/service"
	"github.com/noah-isme/gym-admin-api/pkg/response"
)

type helpOrderService interface {
	Ask(ctx context.Context, studentID string, req service.AskRequest) (*models.HelpOrderDetail, error)
	ListOpen(ctx context.Context, page int) ([]models.HelpOrderDetail, *models.Pagination, error)
	ListForStudent(ctx context.Context, studentID string, page int) ([]models.HelpOrderDetail, *models.Pagination, error)
	Answer(ctx context.Context, id string, req service.AnswerRequest) (*models.HelpOrderDetail, error)
}

// HelpOrderHandler serves both the student questions and the operator answers.
type HelpOrderHandler struct {
	orders helpOrderService
}

// NewHelpOrderHandler constructs HelpOrderHandler.
func NewHelpOrderHandler(orders helpOrderService) *HelpOrderHandler {
	return &HelpOrderHandler{orders: orders}
}

// Ask godoc
// @Summary Ask a question
// @Tags HelpOrders
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.AskRequest true "Question"
// @Success 201 {object} response.Envelope
// @Router /students/{id}/help-orders [post]
func (h *HelpOrderHandler) Ask(c *gin.Context) {
	var req service.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	order, err := h.orders.Ask(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, order)
}

// ListForStudent godoc
// @Summary List a student's help orders
// @Tags HelpOrders
// @Produce json
// @Param id path string true "Student ID"
// @Param page query int false "Page"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/help-orders [get]
func (h *HelpOrderHandler) ListForStudent(c *gin.Context) {
	items, pagination, err := h.orders.ListForStudent(c.Request.Context(), c.Param("id"), pageParam(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, items, pagination)
}

// ListOpen godoc
// @Summary List unanswered help orders
// @Tags HelpOrders
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Success 200 {object} response.Envelope
// @Router /help-orders [get]
func (h *HelpOrderHandler) ListOpen(c *gin.Context) {
	items, pagination, err := h.orders.ListOpen(c.Request.Context(), pageParam(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, items, pagination)
}

// Answer godoc
// @Summary Answer a help order
// @Tags HelpOrders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Help order ID"
// @Param payload body service.AnswerRequest true "Answer"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope "HELP_ORDER_ALREADY_ANSWERED"
// @Router /help-orders/{id}/answer [post]
func (h *HelpOrderHandler) Answer(c *gin.Context) {
	var req service.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	order, err := h.orders.Answer(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, order)
}
