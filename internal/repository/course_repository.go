package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-platform-api/internal/models"
)

const courseColumns = `id, title, description, subjects, stage_level, stage_grade, teacher_id, created_at, updated_at`

// CourseRepository provides database access for courses and enrollment.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new instance of CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Create inserts a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	course.PackStage()

	const query = `INSERT INTO courses (id, title, description, subjects, stage_level, stage_grade, teacher_id, created_at, updated_at)
		VALUES (:id, :title, :description, :subjects, :stage_level, :stage_grade, :teacher_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// FindByID returns a course by identifier.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1 LIMIT 1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course by id: %w", err)
	}
	course.UnpackStage()
	return &course, nil
}

// FindDetailByID returns a course with its teacher, students and content.
func (r *CourseRepository) FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	course, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &models.CourseDetail{Course: *course}

	const teacherQuery = `SELECT id, full_name, email, role FROM users WHERE id = $1`
	var teacher models.UserSummary
	if err := r.db.GetContext(ctx, &teacher, teacherQuery, course.TeacherID); err == nil {
		detail.Teacher = &teacher
	} else if err != sql.ErrNoRows {
		return nil, fmt.Errorf("find course teacher: %w", err)
	}

	students, err := r.ListStudents(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Students = students

	content := &models.CourseContent{}
	videoQuery := `SELECT ` + videoColumns + ` FROM videos WHERE course_id = $1 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &content.Videos, videoQuery, id); err != nil {
		return nil, fmt.Errorf("list course videos: %w", err)
	}
	assignmentQuery := `SELECT ` + assignmentColumns + ` FROM assignments WHERE course_id = $1 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &content.Assignments, assignmentQuery, id); err != nil {
		return nil, fmt.Errorf("list course assignments: %w", err)
	}
	quizQuery := `SELECT ` + quizColumns + ` FROM quizzes WHERE course_id = $1 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &content.Quizzes, quizQuery, id); err != nil {
		return nil, fmt.Errorf("list course quizzes: %w", err)
	}
	detail.Content = content

	return detail, nil
}

// List returns courses based on filters with total count.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	baseQuery := `FROM courses WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.StageLevel != "" {
		conditions = append(conditions, fmt.Sprintf("stage_level = $%d", len(args)+1))
		args = append(args, filter.StageLevel)
	}
	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(subjects)", len(args)+1))
		args = append(args, filter.Subject)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	p := models.NewPagination(filter.Page, filter.Limit, 0)
	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", courseColumns, baseQuery, p.Limit, p.Offset())

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}
	for i := range courses {
		courses[i].UnpackStage()
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}

	return courses, total, nil
}

// ListByStudent returns the courses a student is enrolled in.
func (r *CourseRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Course, error) {
	query := `SELECT ` + prefixColumns("c", courseColumns) + ` FROM courses c JOIN course_students cs ON cs.course_id = c.id WHERE cs.student_id = $1 ORDER BY c.created_at DESC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, studentID); err != nil {
		return nil, fmt.Errorf("list courses by student: %w", err)
	}
	for i := range courses {
		courses[i].UnpackStage()
	}
	return courses, nil
}

// ListRecommended returns up to limit courses matching the student's stage
// that the student is not already enrolled in.
func (r *CourseRepository) ListRecommended(ctx context.Context, studentID, stageLevel string, limit int) ([]models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses
		WHERE stage_level = $2
		AND id NOT IN (SELECT course_id FROM course_students WHERE student_id = $1)
		ORDER BY created_at DESC LIMIT $3`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, studentID, stageLevel, limit); err != nil {
		return nil, fmt.Errorf("list recommended courses: %w", err)
	}
	for i := range courses {
		courses[i].UnpackStage()
	}
	return courses, nil
}

// Update persists the mutable course fields.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	course.PackStage()
	const query = `UPDATE courses SET title = :title, description = :description, subjects = :subjects, stage_level = :stage_level, stage_grade = :stage_grade, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// Delete removes a course and all of its dependent content in one transaction.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin course delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	cleanups := []string{
		`DELETE FROM assignment_submissions WHERE assignment_id IN (SELECT id FROM assignments WHERE course_id = $1)`,
		`DELETE FROM assignments WHERE course_id = $1`,
		`DELETE FROM quiz_attempts WHERE quiz_id IN (SELECT id FROM quizzes WHERE course_id = $1)`,
		`DELETE FROM quizzes WHERE course_id = $1`,
		`DELETE FROM live_stream_attendance WHERE stream_id IN (SELECT id FROM live_streams WHERE course_id = $1)`,
		`DELETE FROM live_streams WHERE course_id = $1`,
		`DELETE FROM videos WHERE course_id = $1`,
		`DELETE FROM course_students WHERE course_id = $1`,
		`DELETE FROM courses WHERE id = $1`,
	}
	for _, q := range cleanups {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("delete course: %w", err)
		}
	}

	return tx.Commit()
}

// Enroll adds a student to a course. It reports false when the student was
// already enrolled.
func (r *CourseRepository) Enroll(ctx context.Context, courseID, studentID string) (bool, error) {
	const query = `INSERT INTO course_students (course_id, student_id, enrolled_at) VALUES ($1, $2, $3) ON CONFLICT (course_id, student_id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, courseID, studentID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("enroll student: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("enroll student: %w", err)
	}
	return rows > 0, nil
}

// Unenroll removes a student from a course. Removing an absent student is a
// no-op.
func (r *CourseRepository) Unenroll(ctx context.Context, courseID, studentID string) error {
	const query = `DELETE FROM course_students WHERE course_id = $1 AND student_id = $2`
	if _, err := r.db.ExecContext(ctx, query, courseID, studentID); err != nil {
		return fmt.Errorf("unenroll student: %w", err)
	}
	return nil
}

// IsEnrolled reports whether the student is enrolled in the course.
func (r *CourseRepository) IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM course_students WHERE course_id = $1 AND student_id = $2)`
	var enrolled bool
	if err := r.db.GetContext(ctx, &enrolled, query, courseID, studentID); err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return enrolled, nil
}

// ListStudents returns the enrolled students of a course.
func (r *CourseRepository) ListStudents(ctx context.Context, courseID string) ([]models.UserSummary, error) {
	const query = `SELECT u.id, u.full_name, u.email, u.role FROM users u JOIN course_students cs ON cs.student_id = u.id WHERE cs.course_id = $1 ORDER BY u.full_name`
	var students []models.UserSummary
	if err := r.db.SelectContext(ctx, &students, query, courseID); err != nil {
		return nil, fmt.Errorf("list course students: %w", err)
	}
	return students, nil
}

func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i := range parts {
		parts[i] = alias + "." + parts[i]
	}
	return strings.Join(parts, ", ")
}
