package models

import (
	"database/sql"
	"time"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleParent  UserRole = "parent"
	RoleAdmin   UserRole = "admin"
)

// ValidRole reports whether the raw value is a known role.
func ValidRole(raw string) bool {
	switch UserRole(raw) {
	case RoleStudent, RoleTeacher, RoleParent, RoleAdmin:
		return true
	}
	return false
}

// EducationalStage classifies a user or course by schooling tier.
type EducationalStage struct {
	Level string `json:"level,omitempty"`
	Grade string `json:"grade,omitempty"`
}

// StageLevels enumerates the accepted stage levels.
var StageLevels = []string{"kindergarten", "primary", "secondary", "undergrad", "postgrad"}

// ValidStageLevel reports whether the level is one of the accepted tiers.
func ValidStageLevel(level string) bool {
	for _, l := range StageLevels {
		if l == level {
			return true
		}
	}
	return false
}

// User represents an application user stored in the users table.
type User struct {
	ID             string            `db:"id" json:"id"`
	Email          string            `db:"email" json:"email"`
	PasswordHash   string            `db:"password_hash" json:"-"`
	Role           UserRole          `db:"role" json:"role"`
	FullName       string            `db:"full_name" json:"fullName,omitempty"`
	DOB            *time.Time        `db:"dob" json:"dob,omitempty"`
	ProfilePicture string            `db:"profile_picture" json:"profilePicture,omitempty"`
	Stage          *EducationalStage `db:"-" json:"educationalStage,omitempty"`
	ActivityStreak int               `db:"activity_streak" json:"activityStreak"`
	LastActive     *time.Time        `db:"last_active" json:"lastActive,omitempty"`
	CreatedAt      time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updatedAt"`

	// Raw stage columns; Stage is the JSON-facing view.
	StageLevel sql.NullString `db:"stage_level" json:"-"`
	StageGrade sql.NullString `db:"stage_grade" json:"-"`
}

// UnpackStage hydrates the nested stage view from the scanned columns.
func (u *User) UnpackStage() {
	if !u.StageLevel.Valid && !u.StageGrade.Valid {
		u.Stage = nil
		return
	}
	u.Stage = &EducationalStage{Level: u.StageLevel.String, Grade: u.StageGrade.String}
}

// PackStage flattens the nested stage view into the write columns.
func (u *User) PackStage() {
	if u.Stage == nil {
		u.StageLevel = sql.NullString{}
		u.StageGrade = sql.NullString{}
		return
	}
	u.StageLevel = sql.NullString{String: u.Stage.Level, Valid: u.Stage.Level != ""}
	u.StageGrade = sql.NullString{String: u.Stage.Grade, Valid: u.Stage.Grade != ""}
}

// UserSummary is the trimmed projection used when expanding references.
type UserSummary struct {
	ID       string   `db:"id" json:"id"`
	FullName string   `db:"full_name" json:"fullName,omitempty"`
	Email    string   `db:"email" json:"email"`
	Role     UserRole `db:"role" json:"role,omitempty"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role       *UserRole
	StageLevel string
	Page       int
	Limit      int
}
