package models

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// Course represents a course owned by a single teacher.
type Course struct {
	ID          string            `db:"id" json:"id"`
	Title       string            `db:"title" json:"title"`
	Description string            `db:"description" json:"description,omitempty"`
	Stage       *EducationalStage `db:"-" json:"educationalStage,omitempty"`
	Subjects    pq.StringArray    `db:"subjects" json:"subjects"`
	TeacherID   string            `db:"teacher_id" json:"teacher"`
	CreatedAt   time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updatedAt"`

	StageLevel sql.NullString `db:"stage_level" json:"-"`
	StageGrade sql.NullString `db:"stage_grade" json:"-"`
}

// UnpackStage hydrates the nested stage view from the scanned columns.
func (c *Course) UnpackStage() {
	if !c.StageLevel.Valid && !c.StageGrade.Valid {
		c.Stage = nil
		return
	}
	c.Stage = &EducationalStage{Level: c.StageLevel.String, Grade: c.StageGrade.String}
}

// PackStage flattens the nested stage view into the write columns.
func (c *Course) PackStage() {
	if c.Stage == nil {
		c.StageLevel = sql.NullString{}
		c.StageGrade = sql.NullString{}
		return
	}
	c.StageLevel = sql.NullString{String: c.Stage.Level, Valid: c.Stage.Level != ""}
	c.StageGrade = sql.NullString{String: c.Stage.Grade, Valid: c.Stage.Grade != ""}
}

// CourseDetail expands the teacher reference and optionally the roster.
type CourseDetail struct {
	Course
	Teacher  *UserSummary  `json:"teacherInfo,omitempty"`
	Students []UserSummary `json:"students,omitempty"`
	Content  *CourseContent `json:"content,omitempty"`
}

// CourseContent groups the course's attached material.
type CourseContent struct {
	Videos      []Video      `json:"videos"`
	Assignments []Assignment `json:"assignments"`
	Quizzes     []Quiz       `json:"quizzes"`
}

// CourseFilter captures filtering criteria for listing courses.
type CourseFilter struct {
	StageLevel string
	Subject    string
	TeacherID  string
	Page       int
	Limit      int
}
