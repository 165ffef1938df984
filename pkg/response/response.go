package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-platform-api/internal/models"
	appErrors "github.com/noah-isme/edu-platform-api/pkg/errors"
)

// ListEnvelope is the common shape for paginated collection responses.
type ListEnvelope struct {
	Items      interface{}        `json:"items"`
	Pagination *models.Pagination `json:"pagination"`
}

// ErrorBody is the uniform error payload. Internal detail never leaks here.
type ErrorBody struct {
	Message string `json:"message"`
}

// JSON sends a success response.
func JSON(c *gin.Context, status int, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, data)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data)
}

// List sends a paginated collection response.
func List(c *gin.Context, items interface{}, pagination *models.Pagination) {
	JSON(c, http.StatusOK, ListEnvelope{Items: items, Pagination: pagination})
}

// Message sends a `{message}` confirmation body.
func Message(c *gin.Context, status int, message string) {
	JSON(c, status, ErrorBody{Message: message})
}

// Error normalises the error and sends a `{message}` body with its status.
// The wrapped cause is attached to the gin context so the logging middleware
// can record it server-side; a 500 always reports a static message.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	_ = c.Error(appErr)

	message := appErr.Message
	if appErr.Status >= http.StatusInternalServerError {
		message = "Server error"
	}

	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, ErrorBody{Message: message})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
