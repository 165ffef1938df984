package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-platform-api/internal/models"
	"github.com/noah-isme/edu-platform-api/internal/repository"
	appErrors "github.com/noah-isme/edu-platform-api/pkg/errors"
)

type assignmentRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Assignment, error)
	Update(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, id string) error
	CreateSubmission(ctx context.Context, submission *models.Submission) error
	FindSubmission(ctx context.Context, assignmentID, studentID string) (*models.Submission, error)
	ListSubmissions(ctx context.Context, assignmentID string) ([]models.Submission, error)
	GradeSubmission(ctx context.Context, submissionID, teacherID string, grade float64, feedback *string) (bool, error)
}

type enrollmentChecker interface {
	RequireEnrollment(ctx context.Context, courseID, studentID string) error
}

type streakRecorder interface {
	RecordSubmission(ctx context.Context, studentID string) error
}

// CreateAssignmentRequest describes assignment creation.
type CreateAssignmentRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	CourseID    string     `json:"course" validate:"required"`
	DueDate     *time.Time `json:"dueDate"`
	MaxMarks    *float64   `json:"maxMarks"`
}

// UpdateAssignmentRequest describes a partial assignment update.
type UpdateAssignmentRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	MaxMarks    *float64   `json:"maxMarks"`
}

// SubmitAssignmentRequest carries the stored file URLs of a submission.
type SubmitAssignmentRequest struct {
	Files []string `json:"files" validate:"required,min=1"`
}

// GradeSubmissionRequest records a grade and optional feedback.
type GradeSubmissionRequest struct {
	Grade    float64 `json:"grade" validate:"min=0"`
	Feedback *string `json:"feedback"`
}

// AssignmentService orchestrates assignment lifecycle and submissions.
type AssignmentService struct {
	assignments assignmentRepository
	courses     courseReader
	enrollment  enrollmentChecker
	progress    progressInvalidator
	streaks     streakRecorder
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAssignmentService constructs AssignmentService.
func NewAssignmentService(assignments assignmentRepository, courses courseReader, enrollment enrollmentChecker, progress progressInvalidator, streaks streakRecorder, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{assignments: assignments, courses: courses, enrollment: enrollment, progress: progress, streaks: streaks, validator: validate, logger: logger}
}

// Create attaches an assignment to a course the caller may modify.
func (s *AssignmentService) Create(ctx context.Context, user *models.User, req CreateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Invalid assignment payload")
	}
	if err := s.requireOwnedCourse(ctx, user, req.CourseID); err != nil {
		return nil, err
	}

	assignment := &models.Assignment{
		CourseID:    req.CourseID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		MaxMarks:    req.MaxMarks,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	return assignment, nil
}

// Get returns an assignment by id.
func (s *AssignmentService) Get(ctx context.Context, id string) (*models.Assignment, error) {
	assignment, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	return assignment, nil
}

// ListByCourse returns a course's assignments. Students see their own
// submission attached to each entry.
func (s *AssignmentService) ListByCourse(ctx context.Context, user *models.User, courseID string) ([]models.AssignmentWithSubmission, error) {
	if user.Role == models.RoleStudent {
		if err := s.enrollment.RequireEnrollment(ctx, courseID, user.ID); err != nil {
			return nil, err
		}
	}

	assignments, err := s.assignments.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}

	result := make([]models.AssignmentWithSubmission, 0, len(assignments))
	for _, a := range assignments {
		entry := models.AssignmentWithSubmission{Assignment: a}
		if user.Role == models.RoleStudent {
			submission, err := s.assignments.FindSubmission(ctx, a.ID, user.ID)
			if err != nil && err != sql.ErrNoRows {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
			}
			entry.Submission = submission
		}
		result = append(result, entry)
	}
	return result, nil
}

// Update applies a partial update after the ownership check.
func (s *AssignmentService) Update(ctx context.Context, user *models.User, id string, req UpdateAssignmentRequest) (*models.Assignment, error) {
	assignment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnedCourse(ctx, user, assignment.CourseID); err != nil {
		return nil, err
	}

	if req.Title != nil {
		assignment.Title = *req.Title
	}
	if req.Description != nil {
		assignment.Description = *req.Description
	}
	if req.DueDate != nil {
		assignment.DueDate = req.DueDate
	}
	if req.MaxMarks != nil {
		assignment.MaxMarks = req.MaxMarks
	}

	if err := s.assignments.Update(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}
	return assignment, nil
}

// Delete removes an assignment and its submissions after the ownership check.
func (s *AssignmentService) Delete(ctx context.Context, user *models.User, id string) error {
	assignment, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireOwnedCourse(ctx, user, assignment.CourseID); err != nil {
		return err
	}
	if err := s.assignments.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	return nil
}

// Submit records a student's one-time submission before the deadline.
func (s *AssignmentService) Submit(ctx context.Context, student *models.User, assignmentID string, req SubmitAssignmentRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "No files submitted")
	}

	assignment, err := s.Get(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := s.enrollment.RequireEnrollment(ctx, assignment.CourseID, student.ID); err != nil {
		return nil, err
	}
	if assignment.DueDate != nil && time.Now().After(*assignment.DueDate) {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "Assignment submission deadline has passed")
	}

	submission := &models.Submission{
		AssignmentID: assignmentID,
		StudentID:    student.ID,
		Files:        req.Files,
	}
	if err := s.assignments.CreateSubmission(ctx, submission); err != nil {
		if err == repository.ErrDuplicateSubmission {
			return nil, appErrors.Clone(appErrors.ErrBadRequest, "You have already submitted this assignment")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create submission")
	}

	if s.progress != nil {
		s.progress.InvalidateStudent(ctx, student.ID)
	}
	if s.streaks != nil {
		if err := s.streaks.RecordSubmission(ctx, student.ID); err != nil {
			s.logger.Warn("failed to bump activity streak", zap.String("student_id", student.ID), zap.Error(err))
		}
	}
	s.logger.Info("assignment submitted", zap.String("assignment_id", assignmentID), zap.String("student_id", student.ID))
	return submission, nil
}

// Submissions returns every submission of an assignment after the ownership
// check.
func (s *AssignmentService) Submissions(ctx context.Context, user *models.User, assignmentID string) ([]models.Submission, error) {
	assignment, err := s.Get(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnedCourse(ctx, user, assignment.CourseID); err != nil {
		return nil, err
	}
	submissions, err := s.assignments.ListSubmissions(ctx, assignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	return submissions, nil
}

// Grade records a grade on a submission. The write itself is scoped to
// courses the teacher owns, so a non-owner comes back empty-handed.
func (s *AssignmentService) Grade(ctx context.Context, teacher *models.User, submissionID string, req GradeSubmissionRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Invalid grade payload")
	}
	graded, err := s.assignments.GradeSubmission(ctx, submissionID, teacher.ID, req.Grade, req.Feedback)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to grade submission")
	}
	if !graded {
		return appErrors.Clone(appErrors.ErrNotFound, "Submission not found or unauthorized")
	}
	return nil
}

func (s *AssignmentService) requireOwnedCourse(ctx context.Context, user *models.User, courseID string) error {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "Course not found or unauthorized")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !CanModifyCourse(user, course) {
		return appErrors.Clone(appErrors.ErrNotFound, "Course not found or unauthorized")
	}
	return nil
}
