package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-platform-api/internal/service"
	appErrors "github.com/noah-isme/edu-platform-api/pkg/errors"
	"github.com/noah-isme/edu-platform-api/pkg/response"
)

// QuizHandler wires HTTP endpoints to the quiz service.
type QuizHandler struct {
	service *service.QuizService
}

// NewQuizHandler creates a new handler.
func NewQuizHandler(svc *service.QuizService) *QuizHandler {
	return &QuizHandler{service: svc}
}

// Create godoc
// @Summary Create a quiz
// @Tags Quizzes
// @Accept json
// @Produce json
// @Param payload body service.CreateQuizRequest true "Quiz payload"
// @Success 201 {object} models.Quiz
// @Failure 400 {object} response.ErrorBody
// @Router /quizzes [post]
func (h *QuizHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req service.CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Invalid quiz payload"))
		return
	}

	quiz, err := h.service.Create(c.Request.Context(), user, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, quiz)
}

// ListByCourse godoc
// @Summary List a course's quizzes
// @Tags Quizzes
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {array} models.Quiz
// @Router /quizzes/course/{courseId} [get]
func (h *QuizHandler) ListByCourse(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	quizzes, err := h.service.ListByCourse(c.Request.Context(), user, c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quizzes)
}

// Get godoc
// @Summary Get a quiz by id
// @Tags Quizzes
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 200 {object} models.Quiz
// @Failure 404 {object} response.ErrorBody
// @Router /quizzes/{id} [get]
func (h *QuizHandler) Get(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	quiz, err := h.service.Get(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quiz)
}

// Delete godoc
// @Summary Delete a quiz
// @Tags Quizzes
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 200 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /quizzes/{id} [delete]
func (h *QuizHandler) Delete(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), user, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Quiz deleted successfully")
}

// Submit godoc
// @Summary Submit quiz answers
// @Tags Quizzes
// @Accept json
// @Produce json
// @Param id path string true "Quiz ID"
// @Param payload body service.SubmitQuizRequest true "Answers payload"
// @Success 200 {object} service.QuizResult
// @Failure 400 {object} response.ErrorBody
// @Router /quizzes/{id}/submit [post]
func (h *QuizHandler) Submit(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req service.SubmitQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "No answers submitted"))
		return
	}

	result, err := h.service.Submit(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "Quiz submitted successfully", "score": result.Score, "correct": result.Correct, "total": result.Total})
}

// Attempts godoc
// @Summary List the caller's attempts for a quiz
// @Tags Quizzes
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 200 {array} models.Attempt
// @Router /quizzes/{id}/attempts [get]
func (h *QuizHandler) Attempts(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	attempts, err := h.service.Attempts(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, attempts)
}
