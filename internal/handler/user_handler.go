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

// UserHandler wires HTTP endpoints to the user service.
type UserHandler struct {
	service *service.UserService
}

// NewUserHandler creates a new handler.
func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{service: svc}
}

// List godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Param role query string false "Filter by role"
// @Param stageLevel query string false "Filter by educational stage level"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.ListEnvelope
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	filter := models.UserFilter{
		StageLevel: c.Query("stageLevel"),
		Page:       queryInt(c, "page", 1),
		Limit:      queryInt(c, "limit", 10),
	}
	if raw := c.Query("role"); raw != "" {
		role := models.UserRole(raw)
		filter.Role = &role
	}

	users, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, users, pagination)
}

// Get godoc
// @Summary Get a user by id
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} response.ErrorBody
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user)
}

// UpdateProfile godoc
// @Summary Update the caller's profile
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body service.UpdateProfileRequest true "Profile payload"
// @Success 200 {object} models.User
// @Failure 400 {object} response.ErrorBody
// @Router /users/profile [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Invalid profile payload"))
		return
	}

	updated, err := h.service.UpdateProfile(c.Request.Context(), user.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated)
}

// UploadProfilePicture godoc
// @Summary Upload the caller's profile picture
// @Tags Users
// @Accept multipart/form-data
// @Produce json
// @Param profilePicture formData file true "Image file"
// @Success 200 {object} models.User
// @Failure 400 {object} response.ErrorBody
// @Router /users/profile/picture [post]
func (h *UserHandler) UploadProfilePicture(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	result := upload.FromContext(c)
	if result == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrBadRequest, "No file uploaded"))
		return
	}

	updated, err := h.service.UpdateProfilePicture(c.Request.Context(), user.ID, result.URL)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated)
}

// Manage godoc
// @Summary Update a user as admin
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body service.ManageUserRequest true "Update payload"
// @Success 200 {object} models.User
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /users/{id} [put]
func (h *UserHandler) Manage(c *gin.Context) {
	var req service.ManageUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Invalid payload"))
		return
	}

	updated, err := h.service.Manage(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated)
}

// Delete godoc
// @Summary Delete a user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.ErrorBody
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "User deleted successfully")
}

// Children godoc
// @Summary List the caller's linked students
// @Tags Users
// @Produce json
// @Success 200 {array} models.UserSummary
// @Router /users/children [get]
func (h *UserHandler) Children(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	children, err := h.service.Children(c.Request.Context(), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, children)
}

// Streak godoc
// @Summary Report the caller's activity streak
// @Tags Users
// @Produce json
// @Success 200 {object} models.StreakInfo
// @Router /users/streak [get]
func (h *UserHandler) Streak(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	info, err := h.service.Streak(c.Request.Context(), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info)
}
