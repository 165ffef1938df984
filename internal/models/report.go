package models

import (
	"encoding/json"
	"time"
)

// ReportType enumerates what a report describes.
type ReportType string

const (
	ReportStudent ReportType = "student"
	ReportCourse  ReportType = "course"
	ReportSystem  ReportType = "system"
)

// Report is a persisted generated report.
type Report struct {
	ID          string          `db:"id" json:"id"`
	Type        ReportType      `db:"type" json:"type"`
	Content     json.RawMessage `db:"content" json:"content"`
	GeneratedBy string          `db:"generated_by" json:"generatedBy"`
	ReferenceID *string         `db:"reference_id" json:"referenceId,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
}

// ScoreLine is one graded item inside a progress report.
type ScoreLine struct {
	Title string `json:"title"`
	Score string `json:"score"`
}

// PerformanceData aggregates a student's graded work for one course.
type PerformanceData struct {
	Assignments []ScoreLine `json:"assignments"`
	Quizzes     []ScoreLine `json:"quizzes"`
}

// ProgressReport is the payload persisted and returned for AI study reports.
type ProgressReport struct {
	StudentName     string          `json:"studentName"`
	CourseName      string          `json:"courseName"`
	Timeframe       string          `json:"timeframe,omitempty"`
	PerformanceData PerformanceData `json:"performanceData"`
	AIAnalysis      string          `json:"aiAnalysis"`
}
