package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gym-admin-api/internal/models"
)

// ErrCheckinQuotaReached is returned by CreateWithinQuota when the window is full.
var ErrCheckinQuotaReached = errors.New("check-in quota reached")

// CheckinRepository persists attendance records.
type CheckinRepository struct {
	db *sqlx.DB
}

// NewCheckinRepository constructs a CheckinRepository.
func NewCheckinRepository(db *sqlx.DB) *CheckinRepository {
	return &CheckinRepository{db: db}
}

// ListByStudent returns a page of a student's check-ins, newest first.
func (r *CheckinRepository) ListByStudent(ctx context.Context, studentID string, page models.PageQuery) ([]models.Checkin, int, error) {
	page = page.Normalize(20)
	query := fmt.Sprintf(`SELECT id, student_id, created_at FROM checkins WHERE student_id = $1 ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`, page.PageSize, page.Offset())

	var checkins []models.Checkin
	if err := r.db.SelectContext(ctx, &checkins, query, studentID); err != nil {
		return nil, 0, fmt.Errorf("list checkins: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM checkins WHERE student_id = $1", studentID); err != nil {
		return nil, 0, fmt.Errorf("count checkins: %w", err)
	}
	return checkins, total, nil
}

// CreateWithinQuota inserts the check-in only if fewer than limit check-ins exist in
// [from, to]. Concurrent calls for the same student are serialised by a transaction
// scoped advisory lock, so the count and the insert observe the same state.
func (r *CheckinRepository) CreateWithinQuota(ctx context.Context, checkin *models.Checkin, from, to time.Time, limit int) (err error) {
	if checkin.ID == "" {
		checkin.ID = uuid.NewString()
	}
	if checkin.CreatedAt.IsZero() {
		checkin.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin checkin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", checkin.StudentID); err != nil {
		return fmt.Errorf("lock student checkins: %w", err)
	}

	var count int
	const countQuery = `SELECT COUNT(*) FROM checkins WHERE student_id = $1 AND created_at BETWEEN $2 AND $3`
	if err = tx.GetContext(ctx, &count, countQuery, checkin.StudentID, from, to); err != nil {
		return fmt.Errorf("count checkins in window: %w", err)
	}
	if count >= limit {
		err = ErrCheckinQuotaReached
		return err
	}

	const insert = `INSERT INTO checkins (id, student_id, created_at) VALUES (:id, :student_id, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insert, checkin); err != nil {
		return fmt.Errorf("create checkin: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit checkin: %w", err)
	}
	return nil
}
