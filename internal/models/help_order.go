package models

import "time"

// HelpOrder is a student question. A nil Answer means the order is still open.
type HelpOrder struct {
	ID        string     `db:"id" json:"id"`
	StudentID string     `db:"student_id" json:"student_id"`
	Question  string     `db:"question" json:"question"`
	Answer    *string    `db:"answer" json:"answer"`
	AnswerAt  *time.Time `db:"answer_at" json:"answer_at"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// Answered reports whether the order has left the open state.
func (h HelpOrder) Answered() bool {
	return h.Answer != nil
}

// HelpOrderDetail attaches the asking student's contact snapshot.
type HelpOrderDetail struct {
	HelpOrder
	Student StudentContact `db:"student" json:"student"`
}
