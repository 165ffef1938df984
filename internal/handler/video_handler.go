package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-platform-api/internal/models"
	"github.com/noah-isme/edu-platform-api/internal/service"
	appErrors "github.com/noah-isme/edu-platform-api/pkg/errors"
	"github.com/noah-isme/edu-platform-api/pkg/response"
	"github.com/noah-isme/edu-platform-api/pkg/upload"
)

// VideoHandler wires HTTP endpoints to the video service.
type VideoHandler struct {
	service *service.VideoService
}

// NewVideoHandler creates a new handler.
func NewVideoHandler(svc *service.VideoService) *VideoHandler {
	return &VideoHandler{service: svc}
}

// Upload godoc
// @Summary Upload a lecture video
// @Tags Videos
// @Accept multipart/form-data
// @Produce json
// @Param video formData file true "Video file"
// @Param title formData string true "Title"
// @Param course formData string true "Course ID"
// @Success 201 {object} models.Video
// @Failure 400 {object} response.ErrorBody
// @Router /videos/upload [post]
func (h *VideoHandler) Upload(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	result := upload.FromContext(c)
	if result == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrBadRequest, "No video file uploaded"))
		return
	}

	req := service.CreateVideoRequest{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Type:        c.DefaultPostForm("type", string(models.VideoTypeLecture)),
		URL:         result.URL,
		Language:    c.PostForm("language"),
		CourseID:    c.PostForm("course"),
	}

	video, err := h.service.Create(c.Request.Context(), user, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, video)
}

// Create godoc
// @Summary Register an external video (youtube or live-stream recording)
// @Tags Videos
// @Accept json
// @Produce json
// @Param payload body service.CreateVideoRequest true "Video payload"
// @Success 201 {object} models.Video
// @Failure 400 {object} response.ErrorBody
// @Router /videos [post]
func (h *VideoHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req service.CreateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Invalid video payload"))
		return
	}

	video, err := h.service.Create(c.Request.Context(), user, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, video)
}

// List godoc
// @Summary List videos
// @Tags Videos
// @Produce json
// @Param type query string false "Filter by type"
// @Param language query string false "Filter by language"
// @Param course query string false "Filter by course id"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.ListEnvelope
// @Router /videos [get]
func (h *VideoHandler) List(c *gin.Context) {
	filter := models.VideoFilter{
		Type:     c.Query("type"),
		Language: c.Query("language"),
		CourseID: c.Query("course"),
		Page:     queryInt(c, "page", 1),
		Limit:    queryInt(c, "limit", 10),
	}

	videos, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, videos, pagination)
}

// Get godoc
// @Summary Get a video by id
// @Tags Videos
// @Produce json
// @Param id path string true "Video ID"
// @Success 200 {object} models.VideoDetail
// @Failure 404 {object} response.ErrorBody
// @Router /videos/{id} [get]
func (h *VideoHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}

// Update godoc
// @Summary Update a video
// @Tags Videos
// @Accept json
// @Produce json
// @Param id path string true "Video ID"
// @Param payload body service.UpdateVideoRequest true "Update payload"
// @Success 200 {object} models.Video
// @Failure 403 {object} response.ErrorBody
// @Router /videos/{id} [put]
func (h *VideoHandler) Update(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req service.UpdateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Invalid video payload"))
		return
	}

	video, err := h.service.Update(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, video)
}

// Delete godoc
// @Summary Delete a video
// @Tags Videos
// @Produce json
// @Param id path string true "Video ID"
// @Success 200 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Router /videos/{id} [delete]
func (h *VideoHandler) Delete(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), user, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Video deleted successfully")
}
