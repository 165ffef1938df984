package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-platform-api/internal/models"
	appErrors "github.com/noah-isme/edu-platform-api/pkg/errors"
)

type mockCourseRepo struct {
	courses  map[string]*models.Course
	enrolled map[string]bool
	deleted  []string
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{
		courses:  make(map[string]*models.Course),
		enrolled: make(map[string]bool),
	}
}

func enrollKey(courseID, studentID string) string { return courseID + ":" + studentID }

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = "new-course"
	}
	copied := *course
	m.courses[course.ID] = &copied
	return nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	if c, ok := m.courses[id]; ok {
		return &models.CourseDetail{Course: *c}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	var list []models.Course
	for _, c := range m.courses {
		list = append(list, *c)
	}
	return list, len(list), nil
}

func (m *mockCourseRepo) ListByStudent(ctx context.Context, studentID string) ([]models.Course, error) {
	var list []models.Course
	for _, c := range m.courses {
		if m.enrolled[enrollKey(c.ID, studentID)] {
			list = append(list, *c)
		}
	}
	return list, nil
}

func (m *mockCourseRepo) ListRecommended(ctx context.Context, studentID, stageLevel string, limit int) ([]models.Course, error) {
	return nil, nil
}

func (m *mockCourseRepo) Update(ctx context.Context, course *models.Course) error {
	copied := *course
	m.courses[course.ID] = &copied
	return nil
}

func (m *mockCourseRepo) Delete(ctx context.Context, id string) error {
	delete(m.courses, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockCourseRepo) Enroll(ctx context.Context, courseID, studentID string) (bool, error) {
	key := enrollKey(courseID, studentID)
	if m.enrolled[key] {
		return false, nil
	}
	m.enrolled[key] = true
	return true, nil
}

func (m *mockCourseRepo) Unenroll(ctx context.Context, courseID, studentID string) error {
	delete(m.enrolled, enrollKey(courseID, studentID))
	return nil
}

func (m *mockCourseRepo) IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error) {
	return m.enrolled[enrollKey(courseID, studentID)], nil
}

func (m *mockCourseRepo) ListStudents(ctx context.Context, courseID string) ([]models.UserSummary, error) {
	return []models.UserSummary{{ID: "s1"}}, nil
}

type mockInvalidator struct {
	invalidated []string
}

func (m *mockInvalidator) InvalidateStudent(ctx context.Context, studentID string) {
	m.invalidated = append(m.invalidated, studentID)
}

func TestCourseServiceCreate(t *testing.T) {
	repo := newMockCourseRepo()
	svc := NewCourseService(repo, nil, nil, nil)
	teacher := &models.User{ID: "t1", Role: models.RoleTeacher}

	course, err := svc.Create(context.Background(), teacher, CreateCourseRequest{Title: "Algebra", Subjects: []string{"math"}})
	require.NoError(t, err)
	assert.Equal(t, "t1", course.TeacherID)
	assert.NotEmpty(t, course.ID)
}

func TestCourseServiceUpdateOwnership(t *testing.T) {
	repo := newMockCourseRepo()
	repo.courses["c1"] = &models.Course{ID: "c1", Title: "Algebra", TeacherID: "t1"}
	svc := NewCourseService(repo, nil, nil, nil)

	other := &models.User{ID: "t2", Role: models.RoleTeacher}
	title := "Geometry"
	_, err := svc.Update(context.Background(), other, "c1", UpdateCourseRequest{Title: &title})
	require.Error(t, err)
	apiErr := appErrors.FromError(err)
	assert.Equal(t, "Unauthorized to update this course", apiErr.Message)
	assert.Equal(t, 403, apiErr.Status)

	admin := &models.User{ID: "a1", Role: models.RoleAdmin}
	updated, err := svc.Update(context.Background(), admin, "c1", UpdateCourseRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Geometry", updated.Title)
}

func TestCourseServiceDeleteOwnership(t *testing.T) {
	repo := newMockCourseRepo()
	repo.courses["c1"] = &models.Course{ID: "c1", TeacherID: "t1"}
	svc := NewCourseService(repo, nil, nil, nil)

	other := &models.User{ID: "t2", Role: models.RoleTeacher}
	err := svc.Delete(context.Background(), other, "c1")
	require.Error(t, err)
	assert.Equal(t, "Unauthorized to delete this course", appErrors.FromError(err).Message)

	owner := &models.User{ID: "t1", Role: models.RoleTeacher}
	require.NoError(t, svc.Delete(context.Background(), owner, "c1"))
	assert.Contains(t, repo.deleted, "c1")
}

func TestCourseServiceEnrollDuplicate(t *testing.T) {
	repo := newMockCourseRepo()
	repo.courses["c1"] = &models.Course{ID: "c1", TeacherID: "t1"}
	progress := &mockInvalidator{}
	svc := NewCourseService(repo, progress, nil, nil)

	require.NoError(t, svc.Enroll(context.Background(), "c1", "s1"))
	assert.Contains(t, progress.invalidated, "s1")

	err := svc.Enroll(context.Background(), "c1", "s1")
	require.Error(t, err)
	apiErr := appErrors.FromError(err)
	assert.Equal(t, "Student already enrolled", apiErr.Message)
	assert.Equal(t, 400, apiErr.Status)
}

func TestCourseServiceUnenrollAbsentStudent(t *testing.T) {
	repo := newMockCourseRepo()
	repo.courses["c1"] = &models.Course{ID: "c1", TeacherID: "t1"}
	svc := NewCourseService(repo, nil, nil, nil)

	require.NoError(t, svc.Unenroll(context.Background(), "c1", "s1"))
}

func TestCourseServiceEnrollMissingCourse(t *testing.T) {
	svc := NewCourseService(newMockCourseRepo(), nil, nil, nil)

	err := svc.Enroll(context.Background(), "missing", "s1")
	require.Error(t, err)
	apiErr := appErrors.FromError(err)
	assert.Equal(t, "Course not found", apiErr.Message)
	assert.Equal(t, 404, apiErr.Status)
}

func TestCourseServiceRequireEnrollment(t *testing.T) {
	repo := newMockCourseRepo()
	repo.courses["c1"] = &models.Course{ID: "c1", TeacherID: "t1"}
	svc := NewCourseService(repo, nil, nil, nil)

	err := svc.RequireEnrollment(context.Background(), "c1", "s1")
	require.Error(t, err)
	apiErr := appErrors.FromError(err)
	assert.Equal(t, "You are not enrolled in this course", apiErr.Message)
	assert.Equal(t, 403, apiErr.Status)

	repo.enrolled[enrollKey("c1", "s1")] = true
	require.NoError(t, svc.RequireEnrollment(context.Background(), "c1", "s1"))
}

func TestCourseServiceStudentsOwnership(t *testing.T) {
	repo := newMockCourseRepo()
	repo.courses["c1"] = &models.Course{ID: "c1", TeacherID: "t1"}
	svc := NewCourseService(repo, nil, nil, nil)

	student := &models.User{ID: "s1", Role: models.RoleStudent}
	_, err := svc.Students(context.Background(), student, "c1")
	require.Error(t, err)

	owner := &models.User{ID: "t1", Role: models.RoleTeacher}
	roster, err := svc.Students(context.Background(), owner, "c1")
	require.NoError(t, err)
	assert.Len(t, roster, 1)
}
