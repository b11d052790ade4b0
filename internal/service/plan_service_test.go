package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/gym-admin-api/internal/models"
	appErrors "github.com/noah-isme/gym-admin-api/pkg/errors"
)

type mockPlanRepo struct {
	plans     map[string]models.Plan
	finds     int
	findErr   error
	deleteErr error
}

func (m *mockPlanRepo) List(ctx context.Context) ([]models.Plan, error) {
	out := make([]models.Plan, 0, len(m.plans))
	for _, p := range m.plans {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockPlanRepo) FindByID(ctx context.Context, id string) (*models.Plan, error) {
	m.finds++
	if m.findErr != nil {
		return nil, m.findErr
	}
	p, ok := m.plans[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (m *mockPlanRepo) Create(ctx context.Context, plan *models.Plan) error {
	plan.ID = fmt.Sprintf("p-%d", len(m.plans)+1)
	m.plans[plan.ID] = *plan
	return nil
}

func (m *mockPlanRepo) Update(ctx context.Context, plan *models.Plan) error {
	m.plans[plan.ID] = *plan
	return nil
}

func (m *mockPlanRepo) Delete(ctx context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.plans, id)
	return nil
}

type memoryCache struct {
	entries map[string][]byte
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	for k := range c.entries {
		if ok, _ := path.Match(pattern, k); ok {
			delete(c.entries, k)
		}
	}
	return nil
}

func newPlanFixture() (*PlanService, *mockPlanRepo, *memoryCache) {
	repo := &mockPlanRepo{plans: map[string]models.Plan{
		"p-1": {ID: "p-1", Title: "Gold", Duration: 3, Price: decimal.RequireFromString("100.00")},
	}}
	store := &memoryCache{entries: map[string][]byte{}}
	cache := NewCacheService(store, NewMetricsService(), time.Minute, zap.NewNop(), true)
	catalog := NewPlanCatalog(repo, cache, time.Minute)
	return NewPlanService(repo, catalog, nil, zap.NewNop()), repo, store
}

func TestPlanCatalogReadsThroughCache(t *testing.T) {
	svc, repo, store := newPlanFixture()
	ctx := context.Background()

	first, err := svc.Get(ctx, "p-1")
	require.NoError(t, err)
	second, err := svc.Get(ctx, "p-1")
	require.NoError(t, err)

	assert.Equal(t, 1, repo.finds)
	assert.Contains(t, store.entries, "plans:p-1")
	assert.True(t, first.Price.Equal(second.Price))
	assert.Equal(t, first.Duration, second.Duration)
}

func TestPlanServiceUpdateInvalidatesCatalog(t *testing.T) {
	svc, _, store := newPlanFixture()
	ctx := context.Background()

	_, err := svc.Get(ctx, "p-1")
	require.NoError(t, err)

	price := decimal.RequireFromString("120.00")
	updated, err := svc.Update(ctx, "p-1", UpdatePlanRequest{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "Gold", updated.Title)
	assert.NotContains(t, store.entries, "plans:p-1")

	plan, err := svc.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.True(t, price.Equal(plan.Price))
}

func TestPlanServiceCreateValidation(t *testing.T) {
	svc, _, _ := newPlanFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, CreatePlanRequest{Title: "Diamond", Duration: 0, Price: decimal.NewFromInt(90)})
	assertAppError(t, err, appErrors.ErrValidation.Code, http.StatusBadRequest)

	_, err = svc.Create(ctx, CreatePlanRequest{Title: "Diamond", Duration: 6, Price: decimal.NewFromInt(-1)})
	assertAppError(t, err, appErrors.ErrValidation.Code, http.StatusBadRequest)

	plan, err := svc.Create(ctx, CreatePlanRequest{Title: "Diamond", Duration: 6, Price: decimal.RequireFromString("89.90")})
	require.NoError(t, err)
	assert.NotEmpty(t, plan.ID)
}

func TestPlanServiceRejectsSubCentPrices(t *testing.T) {
	svc, repo, _ := newPlanFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, CreatePlanRequest{Title: "Thirds", Duration: 3, Price: decimal.RequireFromString("33.333")})
	assertAppError(t, err, appErrors.ErrValidation.Code, http.StatusBadRequest)
	assert.Len(t, repo.plans, 1)

	price := decimal.RequireFromString("0.005")
	_, err = svc.Update(ctx, "p-1", UpdatePlanRequest{Price: &price})
	assertAppError(t, err, appErrors.ErrValidation.Code, http.StatusBadRequest)
	assert.True(t, decimal.RequireFromString("100.00").Equal(repo.plans["p-1"].Price))

	plan, err := svc.Create(ctx, CreatePlanRequest{Title: "Padded", Duration: 1, Price: decimal.RequireFromString("10.500")})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("10.5").Equal(plan.Price))
}

func TestPlanServiceMalformedIDIsNotFound(t *testing.T) {
	svc, repo, _ := newPlanFixture()
	repo.findErr = &pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`}
	ctx := context.Background()

	_, err := svc.Get(ctx, "abc")
	assertAppError(t, err, appErrors.ErrNotFound.Code, http.StatusNotFound)

	err = svc.Delete(ctx, "abc")
	assertAppError(t, err, appErrors.ErrNotFound.Code, http.StatusNotFound)

	title := "Silver"
	_, err = svc.Update(ctx, "abc", UpdatePlanRequest{Title: &title})
	assertAppError(t, err, appErrors.ErrNotFound.Code, http.StatusNotFound)
}

func TestPlanServiceDeleteReferencedPlanConflicts(t *testing.T) {
	svc, repo, _ := newPlanFixture()
	repo.deleteErr = fmt.Errorf("delete plan: %w", &pq.Error{Code: "23503"})

	err := svc.Delete(context.Background(), "p-1")
	assertAppError(t, err, appErrors.ErrConflict.Code, http.StatusConflict)

	err = svc.Delete(context.Background(), "p-404")
	assertAppError(t, err, appErrors.ErrNotFound.Code, http.StatusNotFound)
}
