package models

import "time"

// LiveStream represents a live session conducted for a course. It ends exactly
// once; endTime stays null while the stream is running.
type LiveStream struct {
	ID           string     `db:"id" json:"id"`
	CourseID     string     `db:"course_id" json:"course"`
	ConductedBy  string     `db:"conducted_by" json:"conductedBy"`
	Title        string     `db:"title" json:"title"`
	Description  string     `db:"description" json:"description,omitempty"`
	StartTime    time.Time  `db:"start_time" json:"startTime"`
	EndTime      *time.Time `db:"end_time" json:"endTime,omitempty"`
	RecordingURL *string    `db:"recording_url" json:"recordingUrl,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
}

// LiveStreamDetail expands conductor, course and attendance references.
type LiveStreamDetail struct {
	LiveStream
	Conductor   *UserSummary  `json:"conductorInfo,omitempty"`
	CourseTitle string        `db:"course_title" json:"courseTitle,omitempty"`
	Attendance  []UserSummary `json:"attendance,omitempty"`
}

// LiveStreamFilter captures filtering criteria for listing streams.
type LiveStreamFilter struct {
	// ActiveOnly keeps streams that have not ended.
	ActiveOnly bool
	// EnrolledStudentID restricts streams to courses the student is enrolled in.
	EnrolledStudentID string
	Page              int
	Limit             int
}
