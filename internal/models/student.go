package models

import "time"

// Student represents a gym member.
type Student struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Age       int       `db:"age" json:"age"`
	Weight    float64   `db:"weight" json:"weight"`
	Height    float64   `db:"height" json:"height"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search   string
	Page     int
	PageSize int
}

// StudentSnapshot is the copy of a student embedded in registration responses.
type StudentSnapshot struct {
	Name   string  `db:"name" json:"name"`
	Email  string  `db:"email" json:"email"`
	Age    int     `db:"age" json:"age"`
	Weight float64 `db:"weight" json:"weight"`
	Height float64 `db:"height" json:"height"`
}

// Snapshot copies the student's displayable fields.
func (s Student) Snapshot() StudentSnapshot {
	return StudentSnapshot{Name: s.Name, Email: s.Email, Age: s.Age, Weight: s.Weight, Height: s.Height}
}

// StudentContact is the reduced snapshot attached to help orders.
type StudentContact struct {
	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email"`
}
