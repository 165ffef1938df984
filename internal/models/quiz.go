package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Question is a single quiz question with its accepted answer.
type Question struct {
	QuestionText  string   `json:"questionText"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// QuestionList stores the ordered question set as a jsonb column.
type QuestionList []Question

// Value implements driver.Valuer.
func (q QuestionList) Value() (driver.Value, error) {
	if q == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(q)
}

// Scan implements sql.Scanner.
func (q *QuestionList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*q = nil
		return nil
	case []byte:
		return json.Unmarshal(v, q)
	case string:
		return json.Unmarshal([]byte(v), q)
	}
	return fmt.Errorf("unsupported questions column type %T", src)
}

// Quiz represents an ordered question set attached to a course.
type Quiz struct {
	ID        string       `db:"id" json:"id"`
	CourseID  string       `db:"course_id" json:"course"`
	CreatedBy string       `db:"created_by" json:"createdBy"`
	Title     string       `db:"title" json:"title"`
	MaxMarks  *float64     `db:"max_marks" json:"maxMarks,omitempty"`
	Questions QuestionList `db:"questions" json:"questions"`
	CreatedAt time.Time    `db:"created_at" json:"createdAt"`
}

// Attempt is one student's answer set and score for a quiz. The score is
// computed at submission time and never recomputed.
type Attempt struct {
	ID          string         `db:"id" json:"id"`
	QuizID      string         `db:"quiz_id" json:"quiz"`
	StudentID   string         `db:"student_id" json:"student"`
	Answers     pq.StringArray `db:"answers" json:"answers"`
	Score       float64        `db:"score" json:"score"`
	AttemptedAt time.Time      `db:"attempted_at" json:"attemptedAt"`
}
