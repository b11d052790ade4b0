package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gym-admin-api/internal/models"
)

const helpOrderDetailSelect = `SELECT h.id, h.student_id, h.question, h.answer, h.answer_at, h.created_at, h.updated_at,
        s.name AS "student.name", s.email AS "student.email"
        FROM help_orders h
        JOIN students s ON s.id = h.student_id`

// HelpOrderRepository persists help-desk questions and answers.
type HelpOrderRepository struct {
	db *sqlx.DB
}

// NewHelpOrderRepository constructs a HelpOrderRepository.
func NewHelpOrderRepository(db *sqlx.DB) *HelpOrderRepository {
	return &HelpOrderRepository{db: db}
}

// ListOpen returns unanswered orders, newest first.
func (r *HelpOrderRepository) ListOpen(ctx context.Context, page models.PageQuery) ([]models.HelpOrderDetail, int, error) {
	page = page.Normalize(20)
	query := fmt.Sprintf("%s WHERE h.answer IS NULL ORDER BY h.created_at DESC, h.id ASC LIMIT %d OFFSET %d", helpOrderDetailSelect, page.PageSize, page.Offset())

	var orders []models.HelpOrderDetail
	if err := r.db.SelectContext(ctx, &orders, query); err != nil {
		return nil, 0, fmt.Errorf("list open help orders: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM help_orders WHERE answer IS NULL"); err != nil {
		return nil, 0, fmt.Errorf("count open help orders: %w", err)
	}
	return orders, total, nil
}

// ListByStudent returns every order of a student, open or answered, newest first.
func (r *HelpOrderRepository) ListByStudent(ctx context.Context, studentID string, page models.PageQuery) ([]models.HelpOrderDetail, int, error) {
	page = page.Normalize(20)
	query := fmt.Sprintf("%s WHERE h.student_id = $1 ORDER BY h.created_at DESC, h.id ASC LIMIT %d OFFSET %d", helpOrderDetailSelect, page.PageSize, page.Offset())

	var orders []models.HelpOrderDetail
	if err := r.db.SelectContext(ctx, &orders, query, studentID); err != nil {
		return nil, 0, fmt.Errorf("list student help orders: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM help_orders WHERE student_id = $1", studentID); err != nil {
		return nil, 0, fmt.Errorf("count student help orders: %w", err)
	}
	return orders, total, nil
}

// FindDetailByID fetches an order with its student contact. Absence is reported as sql.ErrNoRows.
func (r *HelpOrderRepository) FindDetailByID(ctx context.Context, id string) (*models.HelpOrderDetail, error) {
	var order models.HelpOrderDetail
	if err := r.db.GetContext(ctx, &order, helpOrderDetailSelect+" WHERE h.id = $1", id); err != nil {
		return nil, err
	}
	return &order, nil
}

// Create inserts an open help order.
func (r *HelpOrderRepository) Create(ctx context.Context, order *models.HelpOrder) error {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	const query = `INSERT INTO help_orders (id, student_id, question, answer, answer_at, created_at, updated_at)
        VALUES (:id, :student_id, :question, :answer, :answer_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, order); err != nil {
		return fmt.Errorf("create help order: %w", err)
	}
	return nil
}

// Answer records the answer only while the order is still open. It reports false
// when no open order with that ID was updated.
func (r *HelpOrderRepository) Answer(ctx context.Context, id, answer string, at time.Time) (bool, error) {
	const query = `UPDATE help_orders SET answer = $2, answer_at = $3, updated_at = $3 WHERE id = $1 AND answer IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, answer, at)
	if err != nil {
		return false, fmt.Errorf("answer help order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("answer help order rows: %w", err)
	}
	return affected == 1, nil
}
