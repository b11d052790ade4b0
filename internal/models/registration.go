package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Registration is a student's paid subscription to a plan for a derived period.
type Registration struct {
	ID        string          `db:"id" json:"id"`
	StudentID string          `db:"student_id" json:"student_id"`
	PlanID    string          `db:"plan_id" json:"plan_id"`
	StartDate time.Time       `db:"start_date" json:"start_date"`
	EndDate   time.Time       `db:"end_date" json:"end_date"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Active    bool            `db:"-" json:"active"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// MarkActive sets the display flag from end_date relative to now.
func (r *Registration) MarkActive(now time.Time) {
	r.Active = r.EndDate.After(now)
}

// RegistrationDetail is a registration with the student and plan it was billed against.
type RegistrationDetail struct {
	Registration
	Student StudentSnapshot `db:"student" json:"student"`
	Plan    PlanSnapshot    `db:"plan" json:"plan"`
}
