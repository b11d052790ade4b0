package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gym-admin-api/internal/models"
	"github.com/noah-isme/gym-admin-api/pkg/database"
	appErrors "github.com/noah-isme/gym-admin-api/pkg/errors"
)

type helpOrderRepository interface {
	ListOpen(ctx context.Context, page models.PageQuery) ([]models.HelpOrderDetail, int, error)
	ListByStudent(ctx context.Context, studentID string, page models.PageQuery) ([]models.HelpOrderDetail, int, error)
	FindDetailByID(ctx context.Context, id string) (*models.HelpOrderDetail, error)
	Create(ctx context.Context, order *models.HelpOrder) error
	Answer(ctx context.Context, id, answer string, at time.Time) (bool, error)
}

// AskRequest carries a student's question.
type AskRequest struct {
	Question string `json:"question" validate:"required"`
}

// AnswerRequest carries an operator's answer.
type AnswerRequest struct {
	Answer string `json:"answer" validate:"required"`
}

// HelpOrderService runs the open to answered workflow of help orders.
type HelpOrderService struct {
	repo      helpOrderRepository
	students  studentReader
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
	pageSize  int
}

// NewHelpOrderService constructs the help order service.
func NewHelpOrderService(repo helpOrderRepository, students studentReader, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, pageSize int) *HelpOrderService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return &HelpOrderService{repo: repo, students: students, metrics: metrics, validator: validate, logger: logger, now: time.Now, pageSize: pageSize}
}

// Ask opens a help order for the student.
func (s *HelpOrderService) Ask(ctx context.Context, studentID string, req AskRequest) (*models.HelpOrderDetail, error) {
	req.Question = strings.TrimSpace(req.Question)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "question is required")
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, studentLookupError(err)
	}
	order := &models.HelpOrder{StudentID: student.ID, Question: req.Question, CreatedAt: s.now().UTC()}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create help order")
	}
	return &models.HelpOrderDetail{
		HelpOrder: *order,
		Student:   models.StudentContact{Name: student.Name, Email: student.Email},
	}, nil
}

// ListOpen returns unanswered orders across all students.
func (s *HelpOrderService) ListOpen(ctx context.Context, page int) ([]models.HelpOrderDetail, *models.Pagination, error) {
	query := models.PageQuery{Page: page, PageSize: s.pageSize}.Normalize(s.pageSize)
	orders, total, err := s.repo.ListOpen(ctx, query)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list help orders")
	}
	return orders, models.NewPagination(query.Page, query.PageSize, total), nil
}

// ListForStudent returns every order of one student, answered or not.
func (s *HelpOrderService) ListForStudent(ctx context.Context, studentID string, page int) ([]models.HelpOrderDetail, *models.Pagination, error) {
	query := models.PageQuery{Page: page, PageSize: s.pageSize}.Normalize(s.pageSize)
	orders, total, err := s.repo.ListByStudent(ctx, studentID, query)
	if database.IsInvalidTextRepresentation(err) {
		return []models.HelpOrderDetail{}, models.NewPagination(query.Page, query.PageSize, 0), nil
	}
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list help orders")
	}
	return orders, models.NewPagination(query.Page, query.PageSize, total), nil
}

// Answer moves an open order to answered. Answered is terminal: a second answer is
// rejected with a conflict, including when two answers race.
func (s *HelpOrderService) Answer(ctx context.Context, id string, req AnswerRequest) (*models.HelpOrderDetail, error) {
	req.Answer = strings.TrimSpace(req.Answer)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "answer is required")
	}
	order, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if isMissing(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "help order not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load help order")
	}
	if order.Answered() {
		return nil, appErrors.ErrAlreadyAnswered
	}

	at := s.now().UTC()
	if at.Before(order.CreatedAt) {
		at = order.CreatedAt
	}
	updated, err := s.repo.Answer(ctx, id, req.Answer, at)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to answer help order")
	}
	if !updated {
		return nil, appErrors.ErrAlreadyAnswered
	}
	s.metrics.RecordHelpOrderAnswered()

	order.Answer = &req.Answer
	order.AnswerAt = &at
	order.UpdatedAt = at
	return order, nil
}
