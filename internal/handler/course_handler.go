package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-platform-api/internal/models"
	"github.com/noah-isme/edu-platform-api/internal/service"
	appErrors "github.com/noah-isme/edu-platform-api/pkg/errors"
	"github.com/noah-isme/edu-platform-api/pkg/response"
)

// CourseHandler wires HTTP endpoints to the course service.
type CourseHandler struct {
	service  *service.CourseService
	progress *service.ProgressService
}

// NewCourseHandler creates a new handler.
func NewCourseHandler(svc *service.CourseService, progress *service.ProgressService) *CourseHandler {
	return &CourseHandler{service: svc, progress: progress}
}

// Create godoc
// @Summary Create a course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body service.CreateCourseRequest true "Course payload"
// @Success 201 {object} models.Course
// @Failure 400 {object} response.ErrorBody
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req service.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Invalid course payload"))
		return
	}

	course, err := h.service.Create(c.Request.Context(), user, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// List godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Param stageLevel query string false "Filter by educational stage level"
// @Param subject query string false "Filter by subject"
// @Param teacher query string false "Filter by teacher id"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.ListEnvelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	filter := models.CourseFilter{
		StageLevel: c.Query("stageLevel"),
		Subject:    c.Query("subject"),
		TeacherID:  c.Query("teacher"),
		Page:       queryInt(c, "page", 1),
		Limit:      queryInt(c, "limit", 10),
	}

	courses, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, courses, pagination)
}

// Get godoc
// @Summary Get a course with its content
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} models.CourseDetail
// @Failure 404 {object} response.ErrorBody
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}

// Update godoc
// @Summary Update a course
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.UpdateCourseRequest true "Update payload"
// @Success 200 {object} models.Course
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req service.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Invalid course payload"))
		return
	}

	course, err := h.service.Update(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course)
}

// Delete godoc
// @Summary Delete a course and its content
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), user, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Course deleted successfully")
}

// Enroll godoc
// @Summary Enroll the caller in a course
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.ErrorBody
// @Failure 400 {object} response.ErrorBody
// @Router /courses/{id}/enroll [post]
func (h *CourseHandler) Enroll(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.service.Enroll(c.Request.Context(), c.Param("id"), user.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Enrolled successfully")
}

// Unenroll godoc
// @Summary Remove the caller from a course
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.ErrorBody
// @Router /courses/{id}/unenroll [post]
func (h *CourseHandler) Unenroll(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.service.Unenroll(c.Request.Context(), c.Param("id"), user.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Unenrolled successfully")
}

// Students godoc
// @Summary List a course's enrolled students
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {array} models.UserSummary
// @Failure 403 {object} response.ErrorBody
// @Router /courses/{id}/students [get]
func (h *CourseHandler) Students(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	students, err := h.service.Students(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students)
}

// Enrolled godoc
// @Summary List the caller's enrolled courses
// @Tags Courses
// @Produce json
// @Success 200 {array} models.Course
// @Router /courses/enrolled [get]
func (h *CourseHandler) Enrolled(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	courses, err := h.service.ListEnrolled(c.Request.Context(), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses)
}

// Recommended godoc
// @Summary List courses recommended for the caller
// @Tags Courses
// @Produce json
// @Success 200 {array} models.Course
// @Router /courses/recommended [get]
func (h *CourseHandler) Recommended(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	courses, err := h.progress.Recommended(c.Request.Context(), user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses)
}

// Progress godoc
// @Summary Report the caller's per-course completion
// @Tags Courses
// @Produce json
// @Success 200 {array} models.CourseProgress
// @Router /courses/progress [get]
func (h *CourseHandler) Progress(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	progress, err := h.progress.Overview(c.Request.Context(), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress)
}
