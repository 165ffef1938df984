package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/edu-platform-api/internal/models"
)

// ErrDuplicateSubmission is returned when a student submits the same
// assignment twice.
var ErrDuplicateSubmission = errors.New("submission already exists")

const assignmentColumns = `id, course_id, title, description, due_date, max_marks, created_at`

const submissionColumns = `id, assignment_id, student_id, files, grade, feedback, submitted_at`

// AssignmentRepository provides database access for assignments and
// submissions.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository creates a new instance of AssignmentRepository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Create inserts a new assignment.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	assignment.CreatedAt = time.Now().UTC()

	const query = `INSERT INTO assignments (id, course_id, title, description, due_date, max_marks, created_at)
		VALUES (:id, :course_id, :title, :description, :due_date, :max_marks, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// FindByID returns an assignment by identifier.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE id = $1 LIMIT 1`
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find assignment by id: %w", err)
	}
	return &assignment, nil
}

// ListByCourse returns all assignments of a course.
func (r *AssignmentRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE course_id = $1 ORDER BY created_at DESC`
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, courseID); err != nil {
		return nil, fmt.Errorf("list assignments by course: %w", err)
	}
	return assignments, nil
}

// Update persists the mutable assignment fields.
func (r *AssignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	const query = `UPDATE assignments SET title = :title, description = :description, due_date = :due_date, max_marks = :max_marks WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	return nil
}

// Delete removes an assignment and its submissions.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assignment delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM assignment_submissions WHERE assignment_id = $1`, id); err != nil {
		return fmt.Errorf("delete assignment submissions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM assignments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}

	return tx.Commit()
}

// CreateSubmission inserts a student's submission. A second submission for the
// same assignment yields ErrDuplicateSubmission.
func (r *AssignmentRepository) CreateSubmission(ctx context.Context, submission *models.Submission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	submission.SubmittedAt = time.Now().UTC()

	const query = `INSERT INTO assignment_submissions (id, assignment_id, student_id, files, grade, feedback, submitted_at)
		VALUES (:id, :assignment_id, :student_id, :files, :grade, :feedback, :submitted_at)`
	if _, err := r.db.NamedExecContext(ctx, query, submission); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateSubmission
		}
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// FindSubmission returns a student's submission for an assignment.
func (r *AssignmentRepository) FindSubmission(ctx context.Context, assignmentID, studentID string) (*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM assignment_submissions WHERE assignment_id = $1 AND student_id = $2 LIMIT 1`
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, assignmentID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find submission: %w", err)
	}
	return &submission, nil
}

// ListSubmissions returns all submissions of an assignment.
func (r *AssignmentRepository) ListSubmissions(ctx context.Context, assignmentID string) ([]models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM assignment_submissions WHERE assignment_id = $1 ORDER BY submitted_at`
	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query, assignmentID); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return submissions, nil
}

// ListGradedByStudentAndCourse returns a student's graded submissions for one
// course, paired with the assignment titles.
func (r *AssignmentRepository) ListGradedByStudentAndCourse(ctx context.Context, studentID, courseID string) ([]models.ScoreLine, error) {
	const query = `SELECT a.title AS title, CAST(s.grade AS TEXT) AS score
		FROM assignment_submissions s
		JOIN assignments a ON a.id = s.assignment_id
		WHERE s.student_id = $1 AND a.course_id = $2 AND s.grade IS NOT NULL
		ORDER BY s.submitted_at`
	var lines []models.ScoreLine
	if err := r.db.SelectContext(ctx, &lines, query, studentID, courseID); err != nil {
		return nil, fmt.Errorf("list graded submissions: %w", err)
	}
	return lines, nil
}

// GradeSubmission records a grade and optional feedback. The update is scoped
// to assignments in courses owned by teacherID; zero rows means the submission
// does not exist or the teacher does not own its course.
func (r *AssignmentRepository) GradeSubmission(ctx context.Context, submissionID, teacherID string, grade float64, feedback *string) (bool, error) {
	const query = `UPDATE assignment_submissions s SET grade = $3, feedback = $4
		FROM assignments a JOIN courses c ON c.id = a.course_id
		WHERE s.id = $1 AND s.assignment_id = a.id AND c.teacher_id = $2`
	res, err := r.db.ExecContext(ctx, query, submissionID, teacherID, grade, feedback)
	if err != nil {
		return false, fmt.Errorf("grade submission: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("grade submission: %w", err)
	}
	return rows > 0, nil
}

// CountByCourse returns total assignments and how many the student submitted.
func (r *AssignmentRepository) CountByCourse(ctx context.Context, courseID, studentID string) (total, completed int, err error) {
	const totalQuery = `SELECT COUNT(*) FROM assignments WHERE course_id = $1`
	if err = r.db.GetContext(ctx, &total, totalQuery, courseID); err != nil {
		return 0, 0, fmt.Errorf("count assignments: %w", err)
	}
	const completedQuery = `SELECT COUNT(*) FROM assignment_submissions s JOIN assignments a ON a.id = s.assignment_id WHERE a.course_id = $1 AND s.student_id = $2`
	if err = r.db.GetContext(ctx, &completed, completedQuery, courseID, studentID); err != nil {
		return 0, 0, fmt.Errorf("count completed assignments: %w", err)
	}
	return total, completed, nil
}
