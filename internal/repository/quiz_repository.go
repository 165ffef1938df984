package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-platform-api/internal/models"
)

const quizColumns = `id, course_id, created_by, title, max_marks, questions, created_at`

// QuizRepository provides database access for quizzes and attempts.
type QuizRepository struct {
	db *sqlx.DB
}

// NewQuizRepository creates a new instance of QuizRepository.
func NewQuizRepository(db *sqlx.DB) *QuizRepository {
	return &QuizRepository{db: db}
}

// Create inserts a new quiz.
func (r *QuizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	if quiz.ID == "" {
		quiz.ID = uuid.NewString()
	}
	quiz.CreatedAt = time.Now().UTC()

	const query = `INSERT INTO quizzes (id, course_id, created_by, title, max_marks, questions, created_at)
		VALUES (:id, :course_id, :created_by, :title, :max_marks, :questions, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, quiz); err != nil {
		return fmt.Errorf("create quiz: %w", err)
	}
	return nil
}

// FindByID returns a quiz by identifier.
func (r *QuizRepository) FindByID(ctx context.Context, id string) (*models.Quiz, error) {
	query := `SELECT ` + quizColumns + ` FROM quizzes WHERE id = $1 LIMIT 1`
	var quiz models.Quiz
	if err := r.db.GetContext(ctx, &quiz, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find quiz by id: %w", err)
	}
	return &quiz, nil
}

// ListByCourse returns all quizzes of a course.
func (r *QuizRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Quiz, error) {
	query := `SELECT ` + quizColumns + ` FROM quizzes WHERE course_id = $1 ORDER BY created_at DESC`
	var quizzes []models.Quiz
	if err := r.db.SelectContext(ctx, &quizzes, query, courseID); err != nil {
		return nil, fmt.Errorf("list quizzes by course: %w", err)
	}
	return quizzes, nil
}

// Delete removes a quiz and its attempts.
func (r *QuizRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin quiz delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM quiz_attempts WHERE quiz_id = $1`, id); err != nil {
		return fmt.Errorf("delete quiz attempts: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM quizzes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}

	return tx.Commit()
}

// CreateAttempt records a student's scored attempt.
func (r *QuizRepository) CreateAttempt(ctx context.Context, attempt *models.Attempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	attempt.AttemptedAt = time.Now().UTC()

	const query = `INSERT INTO quiz_attempts (id, quiz_id, student_id, answers, score, attempted_at)
		VALUES (:id, :quiz_id, :student_id, :answers, :score, :attempted_at)`
	if _, err := r.db.NamedExecContext(ctx, query, attempt); err != nil {
		return fmt.Errorf("create quiz attempt: %w", err)
	}
	return nil
}

// ListAttempts returns a student's attempts for a quiz, newest first.
func (r *QuizRepository) ListAttempts(ctx context.Context, quizID, studentID string) ([]models.Attempt, error) {
	const query = `SELECT id, quiz_id, student_id, answers, score, attempted_at FROM quiz_attempts WHERE quiz_id = $1 AND student_id = $2 ORDER BY attempted_at DESC`
	var attempts []models.Attempt
	if err := r.db.SelectContext(ctx, &attempts, query, quizID, studentID); err != nil {
		return nil, fmt.Errorf("list quiz attempts: %w", err)
	}
	return attempts, nil
}

// ListScoredByStudentAndCourse returns a student's best scores per quiz for
// one course, paired with the quiz titles.
func (r *QuizRepository) ListScoredByStudentAndCourse(ctx context.Context, studentID, courseID string) ([]models.ScoreLine, error) {
	const query = `SELECT q.title AS title, CAST(MAX(t.score) AS TEXT) AS score
		FROM quiz_attempts t
		JOIN quizzes q ON q.id = t.quiz_id
		WHERE t.student_id = $1 AND q.course_id = $2
		GROUP BY q.id, q.title
		ORDER BY q.title`
	var lines []models.ScoreLine
	if err := r.db.SelectContext(ctx, &lines, query, studentID, courseID); err != nil {
		return nil, fmt.Errorf("list quiz scores: %w", err)
	}
	return lines, nil
}

// CountByCourse returns total quizzes and how many the student attempted.
func (r *QuizRepository) CountByCourse(ctx context.Context, courseID, studentID string) (total, completed int, err error) {
	const totalQuery = `SELECT COUNT(*) FROM quizzes WHERE course_id = $1`
	if err = r.db.GetContext(ctx, &total, totalQuery, courseID); err != nil {
		return 0, 0, fmt.Errorf("count quizzes: %w", err)
	}
	const completedQuery = `SELECT COUNT(DISTINCT t.quiz_id) FROM quiz_attempts t JOIN quizzes q ON q.id = t.quiz_id WHERE q.course_id = $1 AND t.student_id = $2`
	if err = r.db.GetContext(ctx, &completed, completedQuery, courseID, studentID); err != nil {
		return 0, 0, fmt.Errorf("count attempted quizzes: %w", err)
	}
	return total, completed, nil
}
