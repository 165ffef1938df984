package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-platform-api/internal/models"
	"github.com/noah-isme/edu-platform-api/internal/repository"
	appErrors "github.com/noah-isme/edu-platform-api/pkg/errors"
)

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdateProfilePicture(ctx context.Context, id, url string) error
	UpdateManaged(ctx context.Context, user *models.User, previousRole models.UserRole) error
	Delete(ctx context.Context, id string, role models.UserRole) error
	ListChildren(ctx context.Context, parentID string) ([]models.UserSummary, error)
	TouchActivity(ctx context.Context, id string, ts time.Time) error
	ResetStreak(ctx context.Context, id string) error
	UpdateLastActive(ctx context.Context, id string, ts time.Time) error
}

// UpdateProfileRequest is the self-service profile update payload.
type UpdateProfileRequest struct {
	Email    *string                  `json:"email" validate:"omitempty,email"`
	FullName *string                  `json:"fullName"`
	DOB      *time.Time               `json:"dob"`
	Stage    *models.EducationalStage `json:"educationalStage"`
}

// ManageUserRequest is the admin-side update payload.
type ManageUserRequest struct {
	Email    *string                  `json:"email" validate:"omitempty,email"`
	FullName *string                  `json:"fullName"`
	DOB      *time.Time               `json:"dob"`
	Role     *models.UserRole         `json:"role"`
	Stage    *models.EducationalStage `json:"educationalStage"`
}

// UserService handles profile access and admin user management.
type UserService struct {
	users     userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs UserService.
func NewUserService(users userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, validator: validate, logger: logger}
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "User not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// List returns users matching the filter with pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	if filter.Role != nil && !models.ValidRole(string(*filter.Role)) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "Invalid role filter")
	}
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// UpdateProfile applies the self-service mutable fields to the caller's
// account.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Invalid profile payload")
	}
	if req.Stage != nil && req.Stage.Level != "" && !models.ValidStageLevel(req.Stage.Level) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid educational stage")
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && *req.Email != user.Email {
		if _, err := s.users.FindByEmail(ctx, *req.Email); err == nil {
			return nil, appErrors.Clone(appErrors.ErrBadRequest, "Email already in use")
		} else if err != sql.ErrNoRows {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
		}
		user.Email = *req.Email
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.DOB != nil {
		user.DOB = req.DOB
	}
	if req.Stage != nil {
		user.Stage = req.Stage
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	return user, nil
}

// UpdateProfilePicture stores the uploaded picture URL on the account.
func (s *UserService) UpdateProfilePicture(ctx context.Context, userID, url string) (*models.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateProfilePicture(ctx, userID, url); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile picture")
	}
	user.ProfilePicture = url
	return user, nil
}

// Manage applies an admin-driven update, guarding the last admin's role.
func (s *UserService) Manage(ctx context.Context, id string, req ManageUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Invalid payload")
	}
	if req.Role != nil && !models.ValidRole(string(*req.Role)) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid role")
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previousRole := user.Role

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.DOB != nil {
		user.DOB = req.DOB
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Stage != nil {
		user.Stage = req.Stage
	}

	if err := s.users.UpdateManaged(ctx, user, previousRole); err != nil {
		if err == repository.ErrLastAdmin {
			return nil, appErrors.Clone(appErrors.ErrBadRequest, "Cannot change role of the last admin")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	return user, nil
}

// Delete removes an account, guarding the last admin.
func (s *UserService) Delete(ctx context.Context, id string) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id, user.Role); err != nil {
		if err == repository.ErrLastAdmin {
			return appErrors.Clone(appErrors.ErrBadRequest, "Cannot delete the last admin user")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	s.logger.Info("user deleted", zap.String("user_id", id))
	return nil
}

// Children returns a parent's linked students.
func (s *UserService) Children(ctx context.Context, parentID string) ([]models.UserSummary, error) {
	children, err := s.users.ListChildren(ctx, parentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list children")
	}
	return children, nil
}

// RecordActivity refreshes the account's last-active timestamp on every
// authenticated request. It never touches the streak counter; that moves
// only on submissions and attempts.
func (s *UserService) RecordActivity(ctx context.Context, user *models.User) error {
	return s.users.UpdateLastActive(ctx, user.ID, time.Now().UTC())
}

// RecordSubmission bumps the activity streak by one. Each submission or
// attempt counts on its own; a stale streak is reset lazily when read.
func (s *UserService) RecordSubmission(ctx context.Context, studentID string) error {
	return s.users.TouchActivity(ctx, studentID, time.Now().UTC())
}

// Streak reports the user's current streak, lazily resetting it when the user
// has been inactive for more than 24 hours.
func (s *UserService) Streak(ctx context.Context, userID string) (*models.StreakInfo, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	info := &models.StreakInfo{Streak: user.ActivityStreak}
	if user.LastActive != nil {
		info.LastActive = user.LastActive.UTC().Format(time.RFC3339)
		if time.Since(*user.LastActive) > 24*time.Hour && user.ActivityStreak != 0 {
			if err := s.users.ResetStreak(ctx, userID); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset streak")
			}
			info.Streak = 0
		}
	}
	return info, nil
}
