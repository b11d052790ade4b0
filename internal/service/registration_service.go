package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gym-admin-api/internal/billing"
	"github.com/noah-isme/gym-admin-api/internal/models"
	"github.com/noah-isme/gym-admin-api/internal/notification"
	"github.com/noah-isme/gym-admin-api/pkg/database"
	appErrors "github.com/noah-isme/gym-admin-api/pkg/errors"
)

type registrationRepository interface {
	List(ctx context.Context, page models.PageQuery) ([]models.RegistrationDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Registration, error)
	FindDetailByID(ctx context.Context, id string) (*models.RegistrationDetail, error)
	Create(ctx context.Context, reg *models.Registration) error
	Update(ctx context.Context, reg *models.Registration) error
	Delete(ctx context.Context, id string) error
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type planReader interface {
	Find(ctx context.Context, id string) (*models.Plan, error)
}

type jobEnqueuer interface {
	Enqueue(ctx context.Context, name string, payload interface{})
}

// discardEnqueuer drops jobs when no notifier is configured.
type discardEnqueuer struct{}

func (discardEnqueuer) Enqueue(context.Context, string, interface{}) {}

// CreateRegistrationRequest holds payload for creating registrations. StartDate is
// either a calendar date (2006-01-02) or an RFC 3339 timestamp; only its day in the
// gym's time zone is kept.
type CreateRegistrationRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	PlanID    string `json:"plan_id" validate:"required"`
	StartDate string `json:"start_date" validate:"required"`
}

// UpdateRegistrationRequest is a partial update; nil fields are left unchanged.
type UpdateRegistrationRequest struct {
	StudentID *string `json:"student_id" validate:"omitempty,min=1"`
	PlanID    *string `json:"plan_id" validate:"omitempty,min=1"`
	StartDate *string `json:"start_date" validate:"omitempty,min=1"`
}

// RegistrationServiceConfig tunes registration behaviour.
type RegistrationServiceConfig struct {
	Location *time.Location
	PageSize int
}

// RegistrationServiceParams groups constructor dependencies.
type RegistrationServiceParams struct {
	Registrations registrationRepository
	Students      studentReader
	Plans         planReader
	Notifier      jobEnqueuer
	Metrics       *MetricsService
	Validator     *validator.Validate
	Logger        *zap.Logger
	Config        RegistrationServiceConfig
}

// RegistrationService derives and reconciles billing periods of registrations.
type RegistrationService struct {
	repo      registrationRepository
	students  studentReader
	plans     planReader
	notifier  jobEnqueuer
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
	cfg       RegistrationServiceConfig
}

// NewRegistrationService constructs a RegistrationService with sane defaults.
func NewRegistrationService(params RegistrationServiceParams) *RegistrationService {
	cfg := params.Config
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	notifier := params.Notifier
	if notifier == nil {
		notifier = discardEnqueuer{}
	}
	return &RegistrationService{
		repo:      params.Registrations,
		students:  params.Students,
		plans:     params.Plans,
		notifier:  notifier,
		metrics:   params.Metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
		cfg:       cfg,
	}
}

// List returns a page of registrations, newest start date first.
func (s *RegistrationService) List(ctx context.Context, page int) ([]models.RegistrationDetail, *models.Pagination, error) {
	query := models.PageQuery{Page: page, PageSize: s.cfg.PageSize}.Normalize(s.cfg.PageSize)
	items, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	now := s.now()
	for i := range items {
		items[i].MarkActive(now)
	}
	return items, models.NewPagination(query.Page, query.PageSize, total), nil
}

// Get returns a registration with its snapshots.
func (s *RegistrationService) Get(ctx context.Context, id string) (*models.RegistrationDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		return nil, registrationLookupError(err)
	}
	detail.MarkActive(s.now())
	return detail, nil
}

// Create validates the start date, bills the plan and stores the registration. The
// confirmation mail is handed to the notifier after the insert and its outcome
// never affects the result.
func (s *RegistrationService) Create(ctx context.Context, req CreateRegistrationRequest) (*models.RegistrationDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	now := s.now()
	start, err := s.parseStartDay(req.StartDate)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNotPast(start, now); err != nil {
		return nil, err
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		return nil, studentLookupError(err)
	}
	plan, err := s.plans.Find(ctx, req.PlanID)
	if err != nil {
		return nil, planLookupError(err)
	}

	end, price := billing.Compute(start, billingPlan(plan))
	reg := &models.Registration{
		StudentID: student.ID,
		PlanID:    plan.ID,
		StartDate: start,
		EndDate:   end,
		Price:     price,
	}
	if err := s.repo.Create(ctx, reg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create registration")
	}
	reg.MarkActive(now)
	s.metrics.RecordRegistrationCreated()

	detail := &models.RegistrationDetail{Registration: *reg, Student: student.Snapshot(), Plan: plan.Snapshot()}
	s.notifier.Enqueue(ctx, notification.JobRegistrationMail, notification.RegistrationMailPayload{
		RegistrationID: reg.ID,
		Student:        detail.Student,
		Plan:           detail.Plan,
		StartDate:      reg.StartDate,
		EndDate:        reg.EndDate,
		Price:          reg.Price,
	})
	s.logger.Info("registration created", zap.String("registration_id", reg.ID), zap.String("student_id", reg.StudentID), zap.String("plan_id", reg.PlanID))
	return detail, nil
}

// Update reconciles a partial update. A start date change recomputes end_date from
// the current plan and keeps the price; a plan change recomputes both from the final
// start date. When both arrive together the billing is computed once.
func (s *RegistrationService) Update(ctx context.Context, id string, req UpdateRegistrationRequest) (*models.RegistrationDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	reg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, registrationLookupError(err)
	}
	now := s.now()
	changed := false

	if req.StudentID != nil && *req.StudentID != reg.StudentID {
		student, err := s.students.FindByID(ctx, *req.StudentID)
		if err != nil {
			return nil, studentLookupError(err)
		}
		reg.StudentID = student.ID
		changed = true
	}

	dateChanged := false
	if req.StartDate != nil {
		start, err := s.parseStartDay(*req.StartDate)
		if err != nil {
			return nil, err
		}
		if !start.Equal(billing.StartOfDay(reg.StartDate.In(s.cfg.Location))) {
			if err := s.ensureNotPast(start, now); err != nil {
				return nil, err
			}
			reg.StartDate = start
			dateChanged = true
		}
	}

	switch {
	case req.PlanID != nil && *req.PlanID != reg.PlanID:
		plan, err := s.plans.Find(ctx, *req.PlanID)
		if err != nil {
			return nil, planLookupError(err)
		}
		reg.PlanID = plan.ID
		reg.EndDate, reg.Price = billing.Compute(reg.StartDate.In(s.cfg.Location), billingPlan(plan))
		changed = true
	case dateChanged:
		plan, err := s.plans.Find(ctx, reg.PlanID)
		if err != nil {
			return nil, planLookupError(err)
		}
		reg.EndDate = billing.EndDate(reg.StartDate, plan.Duration)
		changed = true
	}

	if changed {
		if err := s.repo.Update(ctx, reg); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update registration")
		}
	}

	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		return nil, registrationLookupError(err)
	}
	detail.MarkActive(now)
	return detail, nil
}

// Delete hard-deletes a registration and returns its last known state.
func (s *RegistrationService) Delete(ctx context.Context, id string) (*models.RegistrationDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		return nil, registrationLookupError(err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete registration")
	}
	detail.MarkActive(s.now())
	return detail, nil
}

// parseStartDay reads a date or timestamp and truncates it to the start of its day
// in the configured location.
func (s *RegistrationService) parseStartDay(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.ParseInLocation("2006-01-02", raw, s.cfg.Location); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "start_date must be YYYY-MM-DD or RFC 3339")
	}
	return billing.StartOfDay(t.In(s.cfg.Location)), nil
}

func (s *RegistrationService) ensureNotPast(start, now time.Time) error {
	today := billing.StartOfDay(now.In(s.cfg.Location))
	if start.Before(today) {
		return appErrors.Clone(appErrors.ErrPastStartDate, "start_date must not be in the past")
	}
	return nil
}

func billingPlan(plan *models.Plan) billing.Plan {
	return billing.Plan{DurationMonths: plan.Duration, MonthlyPrice: plan.Price}
}

// isMissing treats a malformed id like an unknown one: Postgres rejects it with
// 22P02 before any row is looked up.
func isMissing(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || database.IsInvalidTextRepresentation(err)
}

func registrationLookupError(err error) error {
	if isMissing(err) {
		return appErrors.Clone(appErrors.ErrNotFound, "registration not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
}

func studentLookupError(err error) error {
	if isMissing(err) {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
}
