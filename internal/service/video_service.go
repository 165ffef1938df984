package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-platform-api/internal/models"
	appErrors "github.com/noah-isme/edu-platform-api/pkg/errors"
)

type videoRepository interface {
	Create(ctx context.Context, video *models.Video) error
	FindByID(ctx context.Context, id string) (*models.Video, error)
	FindDetailByID(ctx context.Context, id string) (*models.VideoDetail, error)
	List(ctx context.Context, filter models.VideoFilter) ([]models.Video, int, error)
	Update(ctx context.Context, video *models.Video) error
	Delete(ctx context.Context, id string) error
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// CreateVideoRequest describes video creation. URL comes either from the
// upload pipeline or, for youtube entries, straight from the client.
type CreateVideoRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Type        string `json:"type" validate:"required"`
	URL         string `json:"url"`
	Language    string `json:"language"`
	CourseID    string `json:"course" validate:"required"`
}

// UpdateVideoRequest describes a partial video update.
type UpdateVideoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	URL         *string `json:"url"`
	Language    *string `json:"language"`
}

// VideoService orchestrates video content management.
type VideoService struct {
	videos    videoRepository
	courses   courseReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewVideoService constructs VideoService.
func NewVideoService(videos videoRepository, courses courseReader, validate *validator.Validate, logger *zap.Logger) *VideoService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VideoService{videos: videos, courses: courses, validator: validate, logger: logger}
}

// Create attaches a video to a course the caller may modify.
func (s *VideoService) Create(ctx context.Context, user *models.User, req CreateVideoRequest) (*models.Video, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Invalid video payload")
	}
	if !models.ValidVideoType(req.Type) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid video type")
	}
	if req.URL == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Video URL is required")
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Course not found or unauthorized")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !CanModifyCourse(user, course) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Course not found or unauthorized")
	}

	video := &models.Video{
		CourseID:    req.CourseID,
		UploadedBy:  user.ID,
		Title:       req.Title,
		Description: req.Description,
		Type:        models.VideoType(req.Type),
		URL:         req.URL,
		Language:    req.Language,
	}
	if err := s.videos.Create(ctx, video); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create video")
	}
	s.logger.Info("video created", zap.String("video_id", video.ID), zap.String("course_id", video.CourseID))
	return video, nil
}

// Get returns a video with expanded references.
func (s *VideoService) Get(ctx context.Context, id string) (*models.VideoDetail, error) {
	detail, err := s.videos.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Video not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load video")
	}
	return detail, nil
}

// List returns videos matching the filter with pagination metadata.
func (s *VideoService) List(ctx context.Context, filter models.VideoFilter) ([]models.Video, *models.Pagination, error) {
	if filter.Type != "" && !models.ValidVideoType(filter.Type) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "Invalid video type")
	}
	videos, total, err := s.videos.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list videos")
	}
	return videos, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// Update applies a partial update after the ownership check.
func (s *VideoService) Update(ctx context.Context, user *models.User, id string, req UpdateVideoRequest) (*models.Video, error) {
	video, err := s.findOwned(ctx, user, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		video.Title = *req.Title
	}
	if req.Description != nil {
		video.Description = *req.Description
	}
	if req.URL != nil {
		video.URL = *req.URL
	}
	if req.Language != nil {
		video.Language = *req.Language
	}

	if err := s.videos.Update(ctx, video); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update video")
	}
	return video, nil
}

// Delete removes a video after the ownership check.
func (s *VideoService) Delete(ctx context.Context, user *models.User, id string) error {
	if _, err := s.findOwned(ctx, user, id); err != nil {
		return err
	}
	if err := s.videos.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete video")
	}
	return nil
}

func (s *VideoService) findOwned(ctx context.Context, user *models.User, id string) (*models.Video, error) {
	video, err := s.videos.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Video not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load video")
	}
	course, err := s.courses.FindByID(ctx, video.CourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Course not found or unauthorized")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !CanModifyCourse(user, course) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Unauthorized to modify this video")
	}
	return video, nil
}
