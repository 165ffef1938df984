package models

import (
	"time"

	"github.com/lib/pq"
)

// Assignment represents coursework with a due date and per-student submissions.
type Assignment struct {
	ID          string     `db:"id" json:"id"`
	CourseID    string     `db:"course_id" json:"course"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description,omitempty"`
	DueDate     *time.Time `db:"due_date" json:"dueDate,omitempty"`
	MaxMarks    *float64   `db:"max_marks" json:"maxMarks,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
}

// Submission is one student's files and grade for an assignment.
// At most one submission exists per (assignment, student).
type Submission struct {
	ID           string         `db:"id" json:"id"`
	AssignmentID string         `db:"assignment_id" json:"assignment"`
	StudentID    string         `db:"student_id" json:"student"`
	Files        pq.StringArray `db:"files" json:"files"`
	Grade        *float64       `db:"grade" json:"grade,omitempty"`
	Feedback     *string        `db:"feedback" json:"feedback,omitempty"`
	SubmittedAt  time.Time      `db:"submitted_at" json:"submittedAt"`
}

// AssignmentWithSubmission pairs an assignment with one student's submission,
// if any.
type AssignmentWithSubmission struct {
	Assignment
	Submission *Submission `json:"submission,omitempty"`
}
