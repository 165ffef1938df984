package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-platform-api/internal/models"
	appErrors "github.com/noah-isme/edu-platform-api/pkg/errors"
)

type quizRepository interface {
	Create(ctx context.Context, quiz *models.Quiz) error
	FindByID(ctx context.Context, id string) (*models.Quiz, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Quiz, error)
	Delete(ctx context.Context, id string) error
	CreateAttempt(ctx context.Context, attempt *models.Attempt) error
	ListAttempts(ctx context.Context, quizID, studentID string) ([]models.Attempt, error)
}

// CreateQuizRequest describes quiz creation.
type CreateQuizRequest struct {
	Title     string            `json:"title" validate:"required"`
	CourseID  string            `json:"course" validate:"required"`
	MaxMarks  *float64          `json:"maxMarks"`
	Questions []models.Question `json:"questions" validate:"required,min=1,dive"`
}

// SubmitQuizRequest carries a student's ordered answer set.
type SubmitQuizRequest struct {
	Answers []string `json:"answers" validate:"required"`
}

// QuizResult reports the outcome of a scored attempt.
type QuizResult struct {
	Score   float64 `json:"score"`
	Total   int     `json:"total"`
	Correct int     `json:"correct"`
}

// QuizService orchestrates quiz lifecycle and attempts.
type QuizService struct {
	quizzes    quizRepository
	courses    courseReader
	enrollment enrollmentChecker
	progress   progressInvalidator
	streaks    streakRecorder
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewQuizService constructs QuizService.
func NewQuizService(quizzes quizRepository, courses courseReader, enrollment enrollmentChecker, progress progressInvalidator, streaks streakRecorder, validate *validator.Validate, logger *zap.Logger) *QuizService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuizService{quizzes: quizzes, courses: courses, enrollment: enrollment, progress: progress, streaks: streaks, validator: validate, logger: logger}
}

// Create attaches a quiz to a course the caller may modify.
func (s *QuizService) Create(ctx context.Context, user *models.User, req CreateQuizRequest) (*models.Quiz, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Invalid quiz payload")
	}
	for _, q := range req.Questions {
		if q.QuestionText == "" || q.CorrectAnswer == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "Each question needs text and a correct answer")
		}
	}
	if err := s.requireOwnedCourse(ctx, user, req.CourseID); err != nil {
		return nil, err
	}

	quiz := &models.Quiz{
		CourseID:  req.CourseID,
		CreatedBy: user.ID,
		Title:     req.Title,
		MaxMarks:  req.MaxMarks,
		Questions: req.Questions,
	}
	if err := s.quizzes.Create(ctx, quiz); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create quiz")
	}
	return quiz, nil
}

// Get returns a quiz by id. Correct answers are stripped for students.
func (s *QuizService) Get(ctx context.Context, user *models.User, id string) (*models.Quiz, error) {
	quiz, err := s.findQuiz(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == models.RoleStudent {
		quiz = redactAnswers(quiz)
	}
	return quiz, nil
}

// ListByCourse returns a course's quizzes. Correct answers are stripped for
// students.
func (s *QuizService) ListByCourse(ctx context.Context, user *models.User, courseID string) ([]models.Quiz, error) {
	if user.Role == models.RoleStudent {
		if err := s.enrollment.RequireEnrollment(ctx, courseID, user.ID); err != nil {
			return nil, err
		}
	}

	quizzes, err := s.quizzes.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list quizzes")
	}
	if user.Role == models.RoleStudent {
		for i := range quizzes {
			quizzes[i] = *redactAnswers(&quizzes[i])
		}
	}
	return quizzes, nil
}

// Delete removes a quiz and its attempts after the ownership check.
func (s *QuizService) Delete(ctx context.Context, user *models.User, id string) error {
	quiz, err := s.findQuiz(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireOwnedCourse(ctx, user, quiz.CourseID); err != nil {
		return err
	}
	if err := s.quizzes.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete quiz")
	}
	return nil
}

// Submit scores a student's answers against the stored questions. The score
// is the percentage of exact matches in question order and is computed exactly
// once, here. A short answer list scores only the answered positions.
func (s *QuizService) Submit(ctx context.Context, student *models.User, quizID string, req SubmitQuizRequest) (*QuizResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "No answers submitted")
	}

	quiz, err := s.findQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := s.enrollment.RequireEnrollment(ctx, quiz.CourseID, student.ID); err != nil {
		return nil, err
	}
	if len(req.Answers) > len(quiz.Questions) {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "Answers count does not match questions count")
	}

	correct := 0
	for i, q := range quiz.Questions {
		if i < len(req.Answers) && req.Answers[i] == q.CorrectAnswer {
			correct++
		}
	}
	score := 0.0
	if len(quiz.Questions) > 0 {
		score = float64(correct) / float64(len(quiz.Questions)) * 100
	}

	attempt := &models.Attempt{
		QuizID:    quizID,
		StudentID: student.ID,
		Answers:   req.Answers,
		Score:     score,
	}
	if err := s.quizzes.CreateAttempt(ctx, attempt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attempt")
	}

	if s.progress != nil {
		s.progress.InvalidateStudent(ctx, student.ID)
	}
	if s.streaks != nil {
		if err := s.streaks.RecordSubmission(ctx, student.ID); err != nil {
			s.logger.Warn("failed to bump activity streak", zap.String("student_id", student.ID), zap.Error(err))
		}
	}
	s.logger.Info("quiz submitted", zap.String("quiz_id", quizID), zap.String("student_id", student.ID), zap.Float64("score", score))
	return &QuizResult{Score: score, Total: len(quiz.Questions), Correct: correct}, nil
}

// Attempts returns the student's own attempts for a quiz.
func (s *QuizService) Attempts(ctx context.Context, studentID, quizID string) ([]models.Attempt, error) {
	attempts, err := s.quizzes.ListAttempts(ctx, quizID, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attempts")
	}
	return attempts, nil
}

func (s *QuizService) findQuiz(ctx context.Context, id string) (*models.Quiz, error) {
	quiz, err := s.quizzes.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Quiz not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz")
	}
	return quiz, nil
}

func (s *QuizService) requireOwnedCourse(ctx context.Context, user *models.User, courseID string) error {
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

func redactAnswers(quiz *models.Quiz) *models.Quiz {
	clone := *quiz
	clone.Questions = make(models.QuestionList, len(quiz.Questions))
	for i, q := range quiz.Questions {
		q.CorrectAnswer = ""
		clone.Questions[i] = q
	}
	return &clone
}
