package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan is a billing template: a duration in whole months and a monthly price.
type Plan struct {
	ID        string          `db:"id" json:"id"`
	Title     string          `db:"title" json:"title"`
	Duration  int             `db:"duration" json:"duration"`
	Price     decimal.Decimal `db:"price" json:"price"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// PlanSnapshot is the copy of a plan embedded in registration responses.
type PlanSnapshot struct {
	Title    string          `db:"title" json:"title"`
	Duration int             `db:"duration" json:"duration"`
	Price    decimal.Decimal `db:"price" json:"price"`
}

// Snapshot copies the plan's billing fields.
func (p Plan) Snapshot() PlanSnapshot {
	return PlanSnapshot{Title: p.Title, Duration: p.Duration, Price: p.Price}
}
