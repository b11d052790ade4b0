package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gym-admin-api/internal/models"
)

const registrationDetailSelect = `SELECT r.id, r.student_id, r.plan_id, r.start_date, r.end_date, r.price, r.created_at, r.updated_at,
        s.name AS "student.name", s.email AS "student.email", s.age AS "student.age", s.weight AS "student.weight", s.height AS "student.height",
        p.title AS "plan.title", p.duration AS "plan.duration", p.price AS "plan.price"
        FROM registrations r
        JOIN students s ON s.id = r.student_id
        JOIN plans p ON p.id = r.plan_id`

// RegistrationRepository persists registrations.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// List returns a page of registrations with snapshots, newest start date first.
func (r *RegistrationRepository) List(ctx context.Context, page models.PageQuery) ([]models.RegistrationDetail, int, error) {
	page = page.Normalize(20)
	query := fmt.Sprintf("%s ORDER BY r.start_date DESC, r.id ASC LIMIT %d OFFSET %d", registrationDetailSelect, page.PageSize, page.Offset())

	var items []models.RegistrationDetail
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, 0, fmt.Errorf("list registrations: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM registrations"); err != nil {
		return nil, 0, fmt.Errorf("count registrations: %w", err)
	}
	return items, total, nil
}

// FindByID fetches the bare registration row. Absence is reported as sql.ErrNoRows.
func (r *RegistrationRepository) FindByID(ctx context.Context, id string) (*models.Registration, error) {
	const query = `SELECT id, student_id, plan_id, start_date, end_date, price, created_at, updated_at FROM registrations WHERE id = $1`
	var reg models.Registration
	if err := r.db.GetContext(ctx, &reg, query, id); err != nil {
		return nil, err
	}
	return &reg, nil
}

// FindDetailByID fetches a registration joined with its student and plan.
func (r *RegistrationRepository) FindDetailByID(ctx context.Context, id string) (*models.RegistrationDetail, error) {
	var detail models.RegistrationDetail
	if err := r.db.GetContext(ctx, &detail, registrationDetailSelect+" WHERE r.id = $1", id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsByStudent reports whether the student has any registration, expired or not.
func (r *RegistrationRepository) ExistsByStudent(ctx context.Context, studentID string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM registrations WHERE student_id = $1 LIMIT 1", studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check registration: %w", err)
	}
	return true, nil
}

// Create inserts a registration.
func (r *RegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = now
	}
	reg.UpdatedAt = now
	const query = `INSERT INTO registrations (id, student_id, plan_id, start_date, end_date, price, created_at, updated_at)
        VALUES (:id, :student_id, :plan_id, :start_date, :end_date, :price, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, reg); err != nil {
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

// Update overwrites the mutable columns of a registration.
func (r *RegistrationRepository) Update(ctx context.Context, reg *models.Registration) error {
	reg.UpdatedAt = time.Now().UTC()
	const query = `UPDATE registrations SET student_id = :student_id, plan_id = :plan_id, start_date = :start_date, end_date = :end_date, price = :price, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, reg); err != nil {
		return fmt.Errorf("update registration: %w", err)
	}
	return nil
}

// Delete hard-deletes a registration.
func (r *RegistrationRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM registrations WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	return nil
}
