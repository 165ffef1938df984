package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-platform-api/internal/models"
	"github.com/noah-isme/edu-platform-api/internal/service"
	appErrors "github.com/noah-isme/edu-platform-api/pkg/errors"
	"github.com/noah-isme/edu-platform-api/pkg/response"
)

// LiveStreamHandler wires HTTP endpoints to the live stream service.
type LiveStreamHandler struct {
	service *service.LiveStreamService
}

// NewLiveStreamHandler creates a new handler.
func NewLiveStreamHandler(svc *service.LiveStreamService) *LiveStreamHandler {
	return &LiveStreamHandler{service: svc}
}

// Start godoc
// @Summary Start a live stream
// @Tags LiveStreams
// @Accept json
// @Produce json
// @Param payload body service.StartStreamRequest true "Stream payload"
// @Success 201 {object} models.LiveStream
// @Failure 400 {object} response.ErrorBody
// @Router /live-streams [post]
func (h *LiveStreamHandler) Start(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req service.StartStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Invalid stream payload"))
		return
	}

	stream, err := h.service.Start(c.Request.Context(), user, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, stream)
}

// List godoc
// @Summary List live streams
// @Tags LiveStreams
// @Produce json
// @Param active query bool false "Only running streams"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.ListEnvelope
// @Router /live-streams [get]
func (h *LiveStreamHandler) List(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	filter := models.LiveStreamFilter{
		ActiveOnly: c.Query("active") == "true",
		Page:       queryInt(c, "page", 1),
		Limit:      queryInt(c, "limit", 10),
	}

	streams, pagination, err := h.service.List(c.Request.Context(), user, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, streams, pagination)
}

// Get godoc
// @Summary Get a live stream with its attendance
// @Tags LiveStreams
// @Produce json
// @Param id path string true "Stream ID"
// @Success 200 {object} models.LiveStreamDetail
// @Failure 404 {object} response.ErrorBody
// @Router /live-streams/{id} [get]
func (h *LiveStreamHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}

// Join godoc
// @Summary Join a running live stream
// @Tags LiveStreams
// @Produce json
// @Param id path string true "Stream ID"
// @Success 200 {object} response.ErrorBody
// @Failure 400 {object} response.ErrorBody
// @Router /live-streams/{id}/join [post]
func (h *LiveStreamHandler) Join(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.service.Join(c.Request.Context(), user, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Joined live stream successfully")
}

// End godoc
// @Summary End a running live stream
// @Tags LiveStreams
// @Accept json
// @Produce json
// @Param id path string true "Stream ID"
// @Param payload body service.EndStreamRequest false "Optional recording URL"
// @Success 200 {object} models.LiveStream
// @Failure 400 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Router /live-streams/{id}/end [post]
func (h *LiveStreamHandler) End(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req service.EndStreamRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Invalid payload"))
			return
		}
	}

	stream, err := h.service.End(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stream)
}
