package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-platform-api/internal/models"
	appErrors "github.com/noah-isme/edu-platform-api/pkg/errors"
)

type liveStreamRepository interface {
	Create(ctx context.Context, stream *models.LiveStream) error
	FindByID(ctx context.Context, id string) (*models.LiveStream, error)
	FindDetailByID(ctx context.Context, id string) (*models.LiveStreamDetail, error)
	List(ctx context.Context, filter models.LiveStreamFilter) ([]models.LiveStream, int, error)
	Join(ctx context.Context, streamID, userID string) error
	End(ctx context.Context, streamID string, endTime time.Time, recordingURL *string) (bool, error)
}

// StartStreamRequest describes stream creation.
type StartStreamRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	CourseID    string `json:"course" validate:"required"`
}

// EndStreamRequest optionally attaches a recording URL when closing.
type EndStreamRequest struct {
	RecordingURL *string `json:"recordingUrl"`
}

// LiveStreamService orchestrates live session lifecycle and attendance.
type LiveStreamService struct {
	streams    liveStreamRepository
	courses    courseReader
	enrollment enrollmentChecker
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewLiveStreamService constructs LiveStreamService.
func NewLiveStreamService(streams liveStreamRepository, courses courseReader, enrollment enrollmentChecker, validate *validator.Validate, logger *zap.Logger) *LiveStreamService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LiveStreamService{streams: streams, courses: courses, enrollment: enrollment, validator: validate, logger: logger}
}

// Start opens a stream on a course the caller may modify. The conductor is
// recorded as the first attendee.
func (s *LiveStreamService) Start(ctx context.Context, user *models.User, req StartStreamRequest) (*models.LiveStream, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Invalid stream payload")
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

	stream := &models.LiveStream{
		CourseID:    req.CourseID,
		ConductedBy: user.ID,
		Title:       req.Title,
		Description: req.Description,
		StartTime:   time.Now().UTC(),
	}
	if err := s.streams.Create(ctx, stream); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start stream")
	}
	s.logger.Info("stream started", zap.String("stream_id", stream.ID), zap.String("course_id", stream.CourseID))
	return stream, nil
}

// Get returns a stream with expanded references.
func (s *LiveStreamService) Get(ctx context.Context, id string) (*models.LiveStreamDetail, error) {
	detail, err := s.streams.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Live stream not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load stream")
	}
	return detail, nil
}

// List returns streams visible to the caller. Students only see streams of
// courses they are enrolled in.
func (s *LiveStreamService) List(ctx context.Context, user *models.User, filter models.LiveStreamFilter) ([]models.LiveStream, *models.Pagination, error) {
	if user.Role == models.RoleStudent {
		filter.EnrolledStudentID = user.ID
	}
	streams, total, err := s.streams.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list streams")
	}
	return streams, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// Join records the user in the running stream's attendance. Students must be
// enrolled in the stream's course; joining twice is harmless.
func (s *LiveStreamService) Join(ctx context.Context, user *models.User, streamID string) error {
	stream, err := s.findStream(ctx, streamID)
	if err != nil {
		return err
	}
	if stream.EndTime != nil {
		return appErrors.Clone(appErrors.ErrBadRequest, "Stream has already ended")
	}
	if user.Role == models.RoleStudent {
		if err := s.enrollment.RequireEnrollment(ctx, stream.CourseID, user.ID); err != nil {
			return err
		}
	}
	if err := s.streams.Join(ctx, streamID, user.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to join stream")
	}
	return nil
}

// End closes the stream. Only the conductor may end it, and only once.
func (s *LiveStreamService) End(ctx context.Context, user *models.User, streamID string, req EndStreamRequest) (*models.LiveStream, error) {
	stream, err := s.findStream(ctx, streamID)
	if err != nil {
		return nil, err
	}
	if stream.ConductedBy != user.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Only the conductor can end this stream")
	}
	if stream.EndTime != nil {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "Stream has already ended")
	}

	endTime := time.Now().UTC()
	ended, err := s.streams.End(ctx, streamID, endTime, req.RecordingURL)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to end stream")
	}
	if !ended {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "Stream has already ended")
	}

	stream.EndTime = &endTime
	if req.RecordingURL != nil {
		stream.RecordingURL = req.RecordingURL
	}
	s.logger.Info("stream ended", zap.String("stream_id", streamID))
	return stream, nil
}

func (s *LiveStreamService) findStream(ctx context.Context, id string) (*models.LiveStream, error) {
	stream, err := s.streams.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Live stream not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load stream")
	}
	return stream, nil
}
