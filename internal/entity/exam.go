package entity

import "time"

// Exam represents an exam for data transfer between layers.
type Exam struct {
	ID        string    `json:"exam_id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"exam_name"`
	Subject   string    `json:"subject"`
	MaxMarks  float64   `json:"max_marks"`
	ExamDate  string    `json:"exam_date"` // YYYY-MM-DD
	CreatedAt time.Time `json:"created_at"`
}

// NewExam is the caller-supplied part of an exam; id and owner are assigned server-side.
type NewExam struct {
	Name     string  `json:"exam_name" validate:"required,max=200"`
	Subject  string  `json:"subject" validate:"required,max=200"`
	MaxMarks float64 `json:"max_marks" validate:"gt=0"`
	ExamDate string  `json:"exam_date" validate:"required,isodate"`
}
