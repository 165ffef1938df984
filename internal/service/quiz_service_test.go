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

type mockQuizRepo struct {
	quizzes  map[string]*models.Quiz
	attempts []models.Attempt
}

func newMockQuizRepo() *mockQuizRepo {
	return &mockQuizRepo{quizzes: make(map[string]*models.Quiz)}
}

func (m *mockQuizRepo) Create(ctx context.Context, quiz *models.Quiz) error {
	if quiz.ID == "" {
		quiz.ID = "new-quiz"
	}
	copied := *quiz
	m.quizzes[quiz.ID] = &copied
	return nil
}

func (m *mockQuizRepo) FindByID(ctx context.Context, id string) (*models.Quiz, error) {
	if q, ok := m.quizzes[id]; ok {
		copied := *q
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockQuizRepo) ListByCourse(ctx context.Context, courseID string) ([]models.Quiz, error) {
	var list []models.Quiz
	for _, q := range m.quizzes {
		if q.CourseID == courseID {
			list = append(list, *q)
		}
	}
	return list, nil
}

func (m *mockQuizRepo) Delete(ctx context.Context, id string) error {
	delete(m.quizzes, id)
	return nil
}

func (m *mockQuizRepo) CreateAttempt(ctx context.Context, attempt *models.Attempt) error {
	if attempt.ID == "" {
		attempt.ID = "new-attempt"
	}
	m.attempts = append(m.attempts, *attempt)
	return nil
}

func (m *mockQuizRepo) ListAttempts(ctx context.Context, quizID, studentID string) ([]models.Attempt, error) {
	var list []models.Attempt
	for _, a := range m.attempts {
		if a.QuizID == quizID && a.StudentID == studentID {
			list = append(list, a)
		}
	}
	return list, nil
}

func quizFixture() (*mockQuizRepo, *mockCourseReader, *mockEnrollment) {
	repo := newMockQuizRepo()
	repo.quizzes["q1"] = &models.Quiz{
		ID:       "q1",
		CourseID: "c1",
		Title:    "Fractions",
		Questions: models.QuestionList{
			{QuestionText: "1/2 + 1/2", Options: []string{"1", "2"}, CorrectAnswer: "1"},
			{QuestionText: "1/4 + 1/4", Options: []string{"1/2", "1"}, CorrectAnswer: "1/2"},
			{QuestionText: "1/3 + 1/3", Options: []string{"2/3", "1"}, CorrectAnswer: "2/3"},
			{QuestionText: "3/4 - 1/4", Options: []string{"1/2", "1/4"}, CorrectAnswer: "1/2"},
		},
	}
	courses := &mockCourseReader{courses: map[string]*models.Course{"c1": {ID: "c1", TeacherID: "t1"}}}
	enrollment := &mockEnrollment{enrolled: map[string]bool{enrollKey("c1", "s1"): true}}
	return repo, courses, enrollment
}

func TestQuizServiceSubmitScoresOnce(t *testing.T) {
	repo, courses, enrollment := quizFixture()
	progress := &mockInvalidator{}
	streaks := &mockStreaks{}
	svc := NewQuizService(repo, courses, enrollment, progress, streaks, nil, nil)

	student := &models.User{ID: "s1", Role: models.RoleStudent}
	result, err := svc.Submit(context.Background(), student, "q1", SubmitQuizRequest{Answers: []string{"1", "1/2", "1", "1/4"}})
	require.NoError(t, err)
	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 2, result.Correct)
	assert.InDelta(t, 50.0, result.Score, 0.001)

	require.Len(t, repo.attempts, 1)
	assert.InDelta(t, 50.0, repo.attempts[0].Score, 0.001)
	assert.Contains(t, progress.invalidated, "s1")
	assert.Equal(t, []string{"s1"}, streaks.bumped)

	// A second attempt on the same day counts again.
	_, err = svc.Submit(context.Background(), student, "q1", SubmitQuizRequest{Answers: []string{"1", "1/2", "2/3", "1/2"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s1"}, streaks.bumped)
}

func TestQuizServiceSubmitShortAnswerList(t *testing.T) {
	repo, courses, enrollment := quizFixture()
	svc := NewQuizService(repo, courses, enrollment, nil, nil, nil, nil)

	// Unanswered questions score as incorrect.
	student := &models.User{ID: "s1", Role: models.RoleStudent}
	result, err := svc.Submit(context.Background(), student, "q1", SubmitQuizRequest{Answers: []string{"1", "1/2"}})
	require.NoError(t, err)
	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 2, result.Correct)
	assert.InDelta(t, 50.0, result.Score, 0.001)
	require.Len(t, repo.attempts, 1)
}

func TestQuizServiceSubmitTooManyAnswers(t *testing.T) {
	repo, courses, enrollment := quizFixture()
	svc := NewQuizService(repo, courses, enrollment, nil, nil, nil, nil)

	student := &models.User{ID: "s1", Role: models.RoleStudent}
	_, err := svc.Submit(context.Background(), student, "q1", SubmitQuizRequest{Answers: []string{"1", "1/2", "2/3", "1/2", "extra"}})
	require.Error(t, err)
	apiErr := appErrors.FromError(err)
	assert.Equal(t, "Answers count does not match questions count", apiErr.Message)
	assert.Equal(t, 400, apiErr.Status)
	assert.Empty(t, repo.attempts)
}

func TestQuizServiceSubmitNotEnrolled(t *testing.T) {
	repo, courses, enrollment := quizFixture()
	svc := NewQuizService(repo, courses, enrollment, nil, nil, nil, nil)

	outsider := &models.User{ID: "s2", Role: models.RoleStudent}
	_, err := svc.Submit(context.Background(), outsider, "q1", SubmitQuizRequest{Answers: []string{"1", "1/2", "2/3", "1/2"}})
	require.Error(t, err)
	assert.Equal(t, "You are not enrolled in this course", appErrors.FromError(err).Message)
}

func TestQuizServiceGetRedactsAnswersForStudents(t *testing.T) {
	repo, courses, enrollment := quizFixture()
	svc := NewQuizService(repo, courses, enrollment, nil, nil, nil, nil)

	student := &models.User{ID: "s1", Role: models.RoleStudent}
	quiz, err := svc.Get(context.Background(), student, "q1")
	require.NoError(t, err)
	for _, q := range quiz.Questions {
		assert.Empty(t, q.CorrectAnswer)
		assert.NotEmpty(t, q.QuestionText)
	}

	// The stored quiz keeps its answers.
	assert.Equal(t, "1", repo.quizzes["q1"].Questions[0].CorrectAnswer)

	teacher := &models.User{ID: "t1", Role: models.RoleTeacher}
	quiz, err = svc.Get(context.Background(), teacher, "q1")
	require.NoError(t, err)
	assert.Equal(t, "1", quiz.Questions[0].CorrectAnswer)
}

func TestQuizServiceCreateRequiresCompleteQuestions(t *testing.T) {
	repo, courses, enrollment := quizFixture()
	svc := NewQuizService(repo, courses, enrollment, nil, nil, nil, nil)

	teacher := &models.User{ID: "t1", Role: models.RoleTeacher}
	_, err := svc.Create(context.Background(), teacher, CreateQuizRequest{
		Title:     "Broken",
		CourseID:  "c1",
		Questions: []models.Question{{QuestionText: "No answer"}},
	})
	require.Error(t, err)
	assert.Equal(t, "Each question needs text and a correct answer", appErrors.FromError(err).Message)
}

func TestQuizServiceDeleteUnownedCourse(t *testing.T) {
	repo, courses, enrollment := quizFixture()
	svc := NewQuizService(repo, courses, enrollment, nil, nil, nil, nil)

	other := &models.User{ID: "t2", Role: models.RoleTeacher}
	err := svc.Delete(context.Background(), other, "q1")
	require.Error(t, err)
	assert.Equal(t, "Course not found or unauthorized", appErrors.FromError(err).Message)

	owner := &models.User{ID: "t1", Role: models.RoleTeacher}
	require.NoError(t, svc.Delete(context.Background(), owner, "q1"))
	_, err = repo.FindByID(context.Background(), "q1")
	assert.Equal(t, sql.ErrNoRows, err)
}
