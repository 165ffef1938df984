package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-platform-api/internal/service"
	appErrors "github.com/noah-isme/edu-platform-api/pkg/errors"
	"github.com/noah-isme/edu-platform-api/pkg/response"
)

// AIHandler wires HTTP endpoints to the AI content service.
type AIHandler struct {
	service *service.AIService
}

// NewAIHandler creates a new handler.
func NewAIHandler(svc *service.AIService) *AIHandler {
	return &AIHandler{service: svc}
}

// GenerateBlog godoc
// @Summary Draft educational blog content
// @Tags AI
// @Accept json
// @Produce json
// @Param payload body service.GenerateBlogRequest true "Blog payload"
// @Success 200 {object} map[string]string
// @Failure 400 {object} response.ErrorBody
// @Router /ai/blog [post]
func (h *AIHandler) GenerateBlog(c *gin.Context) {
	var req service.GenerateBlogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Topic is required"))
		return
	}

	content, err := h.service.GenerateBlog(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"content": content})
}

// Translate godoc
// @Summary Translate text
// @Tags AI
// @Accept json
// @Produce json
// @Param payload body service.TranslateRequest true "Translation payload"
// @Success 200 {object} map[string]string
// @Failure 400 {object} response.ErrorBody
// @Router /ai/translate [post]
func (h *AIHandler) Translate(c *gin.Context) {
	var req service.TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Text and target language are required"))
		return
	}

	translated, err := h.service.Translate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"translation": translated})
}

// Transcribe godoc
// @Summary Transcribe an audio or video resource
// @Tags AI
// @Accept json
// @Produce json
// @Param payload body service.TranscribeRequest true "Transcription payload"
// @Success 200 {object} map[string]string
// @Failure 400 {object} response.ErrorBody
// @Router /ai/transcribe [post]
func (h *AIHandler) Transcribe(c *gin.Context) {
	var req service.TranscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "A valid URL is required"))
		return
	}

	transcript, err := h.service.Transcribe(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"transcript": transcript})
}

// StudyReport godoc
// @Summary Generate an analysed progress report
// @Tags AI
// @Accept json
// @Produce json
// @Param payload body service.StudyReportRequest true "Report payload"
// @Success 201 {object} models.ProgressReport
// @Failure 404 {object} response.ErrorBody
// @Router /ai/study-report [post]
func (h *AIHandler) StudyReport(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req service.StudyReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Student and course are required"))
		return
	}

	report, progressReport, err := h.service.StudyReport(c.Request.Context(), user, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"id": report.ID, "report": progressReport})
}

// Reports godoc
// @Summary List the caller's generated reports
// @Tags AI
// @Produce json
// @Param limit query int false "Maximum number of reports"
// @Success 200 {array} models.Report
// @Router /ai/reports [get]
func (h *AIHandler) Reports(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	reports, err := h.service.Reports(c.Request.Context(), user.ID, queryInt(c, "limit", 20))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports)
}

// ExportReport godoc
// @Summary Export a report as CSV or PDF
// @Tags AI
// @Produce octet-stream
// @Param id path string true "Report ID"
// @Param format query string true "Export format (csv or pdf)"
// @Success 200 {file} file
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /ai/reports/{id}/export [get]
func (h *AIHandler) ExportReport(c *gin.Context) {
	format := c.DefaultQuery("format", "pdf")
	payload, contentType, err := h.service.ExportReport(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("report-%s.%s", c.Param("id"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}
