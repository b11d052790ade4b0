package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/gym-admin-api/internal/billing"
	"github.com/noah-isme/gym-admin-api/internal/models"
	"github.com/noah-isme/gym-admin-api/internal/repository"
	"github.com/noah-isme/gym-admin-api/pkg/database"
	appErrors "github.com/noah-isme/gym-admin-api/pkg/errors"
)

type checkinRepository interface {
	ListByStudent(ctx context.Context, studentID string, page models.PageQuery) ([]models.Checkin, int, error)
	CreateWithinQuota(ctx context.Context, checkin *models.Checkin, from, to time.Time, limit int) error
}

type registrationPresence interface {
	ExistsByStudent(ctx context.Context, studentID string) (bool, error)
}

// CheckinServiceConfig tunes the weekly quota.
type CheckinServiceConfig struct {
	Location    *time.Location
	WeeklyLimit int
	PageSize    int
}

// CheckinService records attendance under a weekly per-student cap.
type CheckinService struct {
	repo          checkinRepository
	students      studentReader
	registrations registrationPresence
	metrics       *MetricsService
	logger        *zap.Logger
	now           func() time.Time
	cfg           CheckinServiceConfig
}

// NewCheckinService constructs the check-in service.
func NewCheckinService(repo checkinRepository, students studentReader, registrations registrationPresence, metrics *MetricsService, logger *zap.Logger, cfg CheckinServiceConfig) *CheckinService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.WeeklyLimit <= 0 {
		cfg.WeeklyLimit = 5
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckinService{
		repo:          repo,
		students:      students,
		registrations: registrations,
		metrics:       metrics,
		logger:        logger,
		now:           time.Now,
		cfg:           cfg,
	}
}

// List returns a page of the student's check-ins, newest first.
func (s *CheckinService) List(ctx context.Context, studentID string, page int) ([]models.Checkin, *models.Pagination, error) {
	query := models.PageQuery{Page: page, PageSize: s.cfg.PageSize}.Normalize(s.cfg.PageSize)
	checkins, total, err := s.repo.ListByStudent(ctx, studentID, query)
	if database.IsInvalidTextRepresentation(err) {
		return []models.Checkin{}, models.NewPagination(query.Page, query.PageSize, 0), nil
	}
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list checkins")
	}
	return checkins, models.NewPagination(query.Page, query.PageSize, total), nil
}

// Record stores a check-in for now. Any registration, expired or future, counts as
// registered. The count for the current Monday-based week and the insert happen
// atomically in the repository.
func (s *CheckinService) Record(ctx context.Context, studentID string) (*models.Checkin, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		return nil, studentLookupError(err)
	}
	registered, err := s.registrations.ExistsByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registration")
	}
	if !registered {
		s.metrics.RecordCheckin(CheckinOutcomeNotRegistered)
		return nil, appErrors.Clone(appErrors.ErrNotRegistered, "student has no registration")
	}

	now := s.now().In(s.cfg.Location)
	from, to := billing.WeekWindow(now)
	checkin := &models.Checkin{StudentID: studentID, CreatedAt: now.UTC()}
	if err := s.repo.CreateWithinQuota(ctx, checkin, from, to, s.cfg.WeeklyLimit); err != nil {
		if errors.Is(err, repository.ErrCheckinQuotaReached) {
			s.metrics.RecordCheckin(CheckinOutcomeQuotaExceeded)
			return nil, appErrors.Clone(appErrors.ErrQuotaExceeded, fmt.Sprintf("weekly limit of %d check-ins reached", s.cfg.WeeklyLimit))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record checkin")
	}
	s.metrics.RecordCheckin(CheckinOutcomeAccepted)
	return checkin, nil
}
