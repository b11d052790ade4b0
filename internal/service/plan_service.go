package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/gym-admin-api/internal/models"
	"github.com/noah-isme/gym-admin-api/pkg/database"
	appErrors "github.com/noah-isme/gym-admin-api/pkg/errors"
)

const planCacheKeyPrefix = "plans:"

type planRepository interface {
	List(ctx context.Context) ([]models.Plan, error)
	FindByID(ctx context.Context, id string) (*models.Plan, error)
	Create(ctx context.Context, plan *models.Plan) error
	Update(ctx context.Context, plan *models.Plan) error
	Delete(ctx context.Context, id string) error
}

// PlanCatalog resolves plans by ID, reading through the Redis cache when enabled.
// Lookups return the repository error untouched so callers decide how to map absence.
type PlanCatalog struct {
	repo  planRepository
	cache *CacheService
	ttl   time.Duration
}

// NewPlanCatalog constructs a PlanCatalog. A nil cache disables caching.
func NewPlanCatalog(repo planRepository, cache *CacheService, ttl time.Duration) *PlanCatalog {
	return &PlanCatalog{repo: repo, cache: cache, ttl: ttl}
}

// Find returns the plan with the given ID.
func (c *PlanCatalog) Find(ctx context.Context, id string) (*models.Plan, error) {
	key := planCacheKeyPrefix + id
	var cached models.Plan
	if hit, _ := c.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}
	plan, err := c.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	_ = c.cache.Set(ctx, key, plan, c.ttl)
	return plan, nil
}

// Invalidate drops the cached copy of a plan.
func (c *PlanCatalog) Invalidate(ctx context.Context, id string) {
	_ = c.cache.Invalidate(ctx, planCacheKeyPrefix+id)
}

// CreatePlanRequest holds payload for creating plans.
type CreatePlanRequest struct {
	Title    string          `json:"title" validate:"required"`
	Duration int             `json:"duration" validate:"required,gt=0"`
	Price    decimal.Decimal `json:"price"`
}

// UpdatePlanRequest holds a partial plan update.
type UpdatePlanRequest struct {
	Title    *string          `json:"title" validate:"omitempty,min=1"`
	Duration *int             `json:"duration" validate:"omitempty,gt=0"`
	Price    *decimal.Decimal `json:"price"`
}

// PlanService handles plan use-cases.
type PlanService struct {
	repo      planRepository
	catalog   *PlanCatalog
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPlanService constructs the plan service.
func NewPlanService(repo planRepository, catalog *PlanCatalog, validate *validator.Validate, logger *zap.Logger) *PlanService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if catalog == nil {
		catalog = NewPlanCatalog(repo, nil, 0)
	}
	return &PlanService{repo: repo, catalog: catalog, validator: validate, logger: logger}
}

// List returns every plan.
func (s *PlanService) List(ctx context.Context) ([]models.Plan, error) {
	plans, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list plans")
	}
	return plans, nil
}

// Get returns a plan by ID.
func (s *PlanService) Get(ctx context.Context, id string) (*models.Plan, error) {
	plan, err := s.catalog.Find(ctx, id)
	if err != nil {
		return nil, planLookupError(err)
	}
	return plan, nil
}

// Create stores a new plan.
func (s *PlanService) Create(ctx context.Context, req CreatePlanRequest) (*models.Plan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid plan payload")
	}
	if err := validatePrice(req.Price); err != nil {
		return nil, err
	}
	plan := &models.Plan{Title: req.Title, Duration: req.Duration, Price: req.Price}
	if err := s.repo.Create(ctx, plan); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create plan")
	}
	return plan, nil
}

// Update applies a partial update. Existing registrations keep their billed period
// and price; only later recomputations see the new values.
func (s *PlanService) Update(ctx context.Context, id string, req UpdatePlanRequest) (*models.Plan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid plan payload")
	}
	if req.Price != nil {
		if err := validatePrice(*req.Price); err != nil {
			return nil, err
		}
	}
	plan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, planLookupError(err)
	}
	if req.Title != nil {
		plan.Title = *req.Title
	}
	if req.Duration != nil {
		plan.Duration = *req.Duration
	}
	if req.Price != nil {
		plan.Price = *req.Price
	}
	if err := s.repo.Update(ctx, plan); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update plan")
	}
	s.catalog.Invalidate(ctx, id)
	return plan, nil
}

// Delete removes a plan that no registration references.
func (s *PlanService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return planLookupError(err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if database.IsForeignKeyViolation(err) {
			return appErrors.Clone(appErrors.ErrConflict, "plan is referenced by registrations")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete plan")
	}
	s.catalog.Invalidate(ctx, id)
	return nil
}

// validatePrice keeps prices within the NUMERIC(12,2) column: non-negative and at
// most two fractional digits. Trailing zeros such as 10.500 are accepted.
func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return appErrors.Clone(appErrors.ErrValidation, "price must not be negative")
	}
	if !price.Equal(price.Round(2)) {
		return appErrors.Clone(appErrors.ErrValidation, "price must have at most two decimal places")
	}
	return nil
}

func planLookupError(err error) error {
	if isMissing(err) {
		return appErrors.Clone(appErrors.ErrNotFound, "plan not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load plan")
}
