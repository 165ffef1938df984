package models

import "time"

// MeetingType enumerates supported meeting kinds.
type MeetingType string

const (
	MeetingParentTeacher MeetingType = "parent-teacher"
	MeetingAdmin         MeetingType = "admin"
)

// ValidMeetingType reports whether the raw value is a known meeting type.
func ValidMeetingType(raw string) bool {
	switch MeetingType(raw) {
	case MeetingParentTeacher, MeetingAdmin:
		return true
	}
	return false
}

// Meeting represents a scheduled meeting between platform users.
type Meeting struct {
	ID            string      `db:"id" json:"id"`
	OrganizerID   string      `db:"organizer_id" json:"organizer"`
	ScheduledTime time.Time   `db:"scheduled_time" json:"scheduledTime"`
	Notes         string      `db:"notes" json:"notes,omitempty"`
	Type          MeetingType `db:"type" json:"type"`
	CreatedAt     time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updatedAt"`
}

// MeetingDetail expands organizer and participant references.
type MeetingDetail struct {
	Meeting
	Organizer    *UserSummary  `json:"organizerInfo,omitempty"`
	Participants []UserSummary `json:"participants"`
}

// MeetingFilter captures filtering criteria for listing meetings.
type MeetingFilter struct {
	ParticipantID string
	Type          string
	StartDate     *time.Time
	Page          int
	Limit         int
}
