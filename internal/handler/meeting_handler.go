package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-platform-api/internal/models"
	"github.com/noah-isme/edu-platform-api/internal/service"
	appErrors "github.com/noah-isme/edu-platform-api/pkg/errors"
	"github.com/noah-isme/edu-platform-api/pkg/response"
)

// MeetingHandler wires HTTP endpoints to the meeting service.
type MeetingHandler struct {
	service *service.MeetingService
}

// NewMeetingHandler creates a new handler.
func NewMeetingHandler(svc *service.MeetingService) *MeetingHandler {
	return &MeetingHandler{service: svc}
}

// Schedule godoc
// @Summary Schedule a meeting
// @Tags Meetings
// @Accept json
// @Produce json
// @Param payload body service.ScheduleMeetingRequest true "Meeting payload"
// @Success 201 {object} models.MeetingDetail
// @Failure 400 {object} response.ErrorBody
// @Router /meetings [post]
func (h *MeetingHandler) Schedule(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req service.ScheduleMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Invalid meeting payload"))
		return
	}

	meeting, err := h.service.Schedule(c.Request.Context(), user, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, meeting)
}

// List godoc
// @Summary List the caller's meetings
// @Tags Meetings
// @Produce json
// @Param type query string false "Filter by meeting type"
// @Param from query string false "Only meetings scheduled after this RFC3339 time"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.ListEnvelope
// @Router /meetings [get]
func (h *MeetingHandler) List(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	filter := models.MeetingFilter{
		Type:  c.Query("type"),
		Page:  queryInt(c, "page", 1),
		Limit: queryInt(c, "limit", 10),
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "Invalid from date"))
			return
		}
		filter.StartDate = &from
	}

	meetings, pagination, err := h.service.List(c.Request.Context(), user, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, meetings, pagination)
}

// Get godoc
// @Summary Get a meeting with its participants
// @Tags Meetings
// @Produce json
// @Param id path string true "Meeting ID"
// @Success 200 {object} models.MeetingDetail
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /meetings/{id} [get]
func (h *MeetingHandler) Get(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	detail, err := h.service.Get(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}

// Update godoc
// @Summary Update a meeting
// @Tags Meetings
// @Accept json
// @Produce json
// @Param id path string true "Meeting ID"
// @Param payload body service.UpdateMeetingRequest true "Update payload"
// @Success 200 {object} models.MeetingDetail
// @Failure 400 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Router /meetings/{id} [put]
func (h *MeetingHandler) Update(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req service.UpdateMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Invalid meeting payload"))
		return
	}

	meeting, err := h.service.Update(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, meeting)
}

// Cancel godoc
// @Summary Cancel a meeting
// @Tags Meetings
// @Produce json
// @Param id path string true "Meeting ID"
// @Success 200 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Router /meetings/{id} [delete]
func (h *MeetingHandler) Cancel(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.service.Cancel(c.Request.Context(), user, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Meeting deleted successfully")
}
