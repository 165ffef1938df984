package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-platform-api/internal/models"
	appErrors "github.com/noah-isme/edu-platform-api/pkg/errors"
)

type courseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error)
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Course, error)
	ListRecommended(ctx context.Context, studentID, stageLevel string, limit int) ([]models.Course, error)
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
	Enroll(ctx context.Context, courseID, studentID string) (bool, error)
	Unenroll(ctx context.Context, courseID, studentID string) error
	IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error)
	ListStudents(ctx context.Context, courseID string) ([]models.UserSummary, error)
}

type progressInvalidator interface {
	InvalidateStudent(ctx context.Context, studentID string)
}

// CreateCourseRequest describes course creation.
type CreateCourseRequest struct {
	Title       string                   `json:"title" validate:"required"`
	Description string                   `json:"description"`
	Subjects    []string                 `json:"subjects"`
	Stage       *models.EducationalStage `json:"educationalStage"`
}

// UpdateCourseRequest describes a partial course update.
type UpdateCourseRequest struct {
	Title       *string                  `json:"title"`
	Description *string                  `json:"description"`
	Subjects    []string                 `json:"subjects"`
	Stage       *models.EducationalStage `json:"educationalStage"`
}

// CourseService orchestrates course CRUD and enrollment.
type CourseService struct {
	courses   courseRepository
	progress  progressInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(courses courseRepository, progress progressInvalidator, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{courses: courses, progress: progress, validator: validate, logger: logger}
}

// Create registers a course owned by the calling teacher.
func (s *CourseService) Create(ctx context.Context, teacher *models.User, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Invalid course payload")
	}
	if req.Stage != nil && req.Stage.Level != "" && !models.ValidStageLevel(req.Stage.Level) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid educational stage")
	}

	course := &models.Course{
		Title:       req.Title,
		Description: req.Description,
		Subjects:    req.Subjects,
		Stage:       req.Stage,
		TeacherID:   teacher.ID,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.logger.Info("course created", zap.String("course_id", course.ID), zap.String("teacher_id", teacher.ID))
	return course, nil
}

// Get returns a course with expanded references.
func (s *CourseService) Get(ctx context.Context, id string) (*models.CourseDetail, error) {
	detail, err := s.courses.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return detail, nil
}

// List returns courses matching the filter with pagination metadata.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// ListEnrolled returns the caller's enrolled courses.
func (s *CourseService) ListEnrolled(ctx context.Context, studentID string) ([]models.Course, error) {
	courses, err := s.courses.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrolled courses")
	}
	return courses, nil
}

// Update applies a partial update after the ownership check.
func (s *CourseService) Update(ctx context.Context, user *models.User, id string, req UpdateCourseRequest) (*models.Course, error) {
	course, err := s.findCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanModifyCourse(user, course) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Unauthorized to update this course")
	}
	if req.Stage != nil && req.Stage.Level != "" && !models.ValidStageLevel(req.Stage.Level) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid educational stage")
	}

	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Subjects != nil {
		course.Subjects = req.Subjects
	}
	if req.Stage != nil {
		course.Stage = req.Stage
	}

	if err := s.courses.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return course, nil
}

// Delete removes a course and its attached content after the ownership check.
func (s *CourseService) Delete(ctx context.Context, user *models.User, id string) error {
	course, err := s.findCourse(ctx, id)
	if err != nil {
		return err
	}
	if !CanModifyCourse(user, course) {
		return appErrors.Clone(appErrors.ErrForbidden, "Unauthorized to delete this course")
	}
	if err := s.courses.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	s.logger.Info("course deleted", zap.String("course_id", id), zap.String("user_id", user.ID))
	return nil
}

// Enroll adds the student to the course. Enrolling twice fails loudly so the
// client learns nothing changed.
func (s *CourseService) Enroll(ctx context.Context, courseID, studentID string) error {
	if _, err := s.findCourse(ctx, courseID); err != nil {
		return err
	}
	added, err := s.courses.Enroll(ctx, courseID, studentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll student")
	}
	if !added {
		return appErrors.Clone(appErrors.ErrBadRequest, "Student already enrolled")
	}
	if s.progress != nil {
		s.progress.InvalidateStudent(ctx, studentID)
	}
	return nil
}

// Unenroll removes the student from the course. Removing an absent student is
// a no-op.
func (s *CourseService) Unenroll(ctx context.Context, courseID, studentID string) error {
	if _, err := s.findCourse(ctx, courseID); err != nil {
		return err
	}
	if err := s.courses.Unenroll(ctx, courseID, studentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unenroll student")
	}
	if s.progress != nil {
		s.progress.InvalidateStudent(ctx, studentID)
	}
	return nil
}

// Students returns the course roster after the ownership check.
func (s *CourseService) Students(ctx context.Context, user *models.User, courseID string) ([]models.UserSummary, error) {
	course, err := s.findCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !CanModifyCourse(user, course) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Unauthorized to view this course's students")
	}
	students, err := s.courses.ListStudents(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// RequireEnrollment fails unless the student is enrolled in the course.
func (s *CourseService) RequireEnrollment(ctx context.Context, courseID, studentID string) error {
	enrolled, err := s.courses.IsEnrolled(ctx, courseID, studentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if !enrolled {
		return appErrors.Clone(appErrors.ErrForbidden, "You are not enrolled in this course")
	}
	return nil
}

func (s *CourseService) findCourse(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}
