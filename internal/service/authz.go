package service

import (
	"github.com/noah-isme/edu-platform-api/internal/models"
)

// CanModifyCourse is the single ownership predicate for course-scoped writes.
// Admins may modify any course; teachers only their own.
func CanModifyCourse(user *models.User, course *models.Course) bool {
	if user == nil || course == nil {
		return false
	}
	if user.Role == models.RoleAdmin {
		return true
	}
	return user.Role == models.RoleTeacher && course.TeacherID == user.ID
}
