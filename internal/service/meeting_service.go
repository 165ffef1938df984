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

type meetingRepository interface {
	Create(ctx context.Context, meeting *models.Meeting, participantIDs []string) error
	FindByID(ctx context.Context, id string) (*models.Meeting, error)
	FindDetailByID(ctx context.Context, id string) (*models.MeetingDetail, error)
	List(ctx context.Context, filter models.MeetingFilter) ([]models.Meeting, int, error)
	Update(ctx context.Context, meeting *models.Meeting, participantIDs []string) error
	Delete(ctx context.Context, id string) error
}

type participantChecker interface {
	CountByIDs(ctx context.Context, ids []string) (int, error)
}

// ScheduleMeetingRequest describes meeting creation.
type ScheduleMeetingRequest struct {
	ScheduledTime time.Time `json:"scheduledTime" validate:"required"`
	Notes         string    `json:"notes"`
	Type          string    `json:"type" validate:"required"`
	Participants  []string  `json:"participants" validate:"required,min=1"`
}

// UpdateMeetingRequest describes a partial meeting update.
type UpdateMeetingRequest struct {
	ScheduledTime *time.Time `json:"scheduledTime"`
	Notes         *string    `json:"notes"`
	Type          *string    `json:"type"`
	Participants  []string   `json:"participants"`
}

// MeetingService orchestrates meeting scheduling.
type MeetingService struct {
	meetings  meetingRepository
	users     participantChecker
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMeetingService constructs MeetingService.
func NewMeetingService(meetings meetingRepository, users participantChecker, validate *validator.Validate, logger *zap.Logger) *MeetingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MeetingService{meetings: meetings, users: users, validator: validate, logger: logger}
}

// Schedule creates a meeting. The organizer is always a participant, the time
// must be in the future and every listed participant must exist.
func (s *MeetingService) Schedule(ctx context.Context, organizer *models.User, req ScheduleMeetingRequest) (*models.MeetingDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Invalid meeting payload")
	}
	if !models.ValidMeetingType(req.Type) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid meeting type")
	}
	if req.ScheduledTime.Before(time.Now()) {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "Meeting cannot be scheduled in the past")
	}
	if err := s.requireParticipantsExist(ctx, req.Participants); err != nil {
		return nil, err
	}

	meeting := &models.Meeting{
		OrganizerID:   organizer.ID,
		ScheduledTime: req.ScheduledTime.UTC(),
		Notes:         req.Notes,
		Type:          models.MeetingType(req.Type),
	}
	if err := s.meetings.Create(ctx, meeting, req.Participants); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule meeting")
	}

	detail, err := s.meetings.FindDetailByID(ctx, meeting.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load meeting detail")
	}
	s.logger.Info("meeting scheduled", zap.String("meeting_id", meeting.ID), zap.String("organizer_id", organizer.ID))
	return detail, nil
}

// Get returns a meeting the caller participates in.
func (s *MeetingService) Get(ctx context.Context, user *models.User, id string) (*models.MeetingDetail, error) {
	detail, err := s.meetings.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Meeting not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load meeting")
	}
	if user.Role != models.RoleAdmin && !isParticipant(detail, user.ID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Unauthorized to view this meeting")
	}
	return detail, nil
}

// List returns the caller's meetings. Admins see everything.
func (s *MeetingService) List(ctx context.Context, user *models.User, filter models.MeetingFilter) ([]models.Meeting, *models.Pagination, error) {
	if user.Role != models.RoleAdmin {
		filter.ParticipantID = user.ID
	}
	if filter.Type != "" && !models.ValidMeetingType(filter.Type) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "Invalid meeting type")
	}
	meetings, total, err := s.meetings.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list meetings")
	}
	return meetings, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// Update applies a partial update. Only the organizer or an admin may change
// a meeting, and it cannot be moved into the past.
func (s *MeetingService) Update(ctx context.Context, user *models.User, id string, req UpdateMeetingRequest) (*models.MeetingDetail, error) {
	meeting, err := s.findMeeting(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleAdmin && meeting.OrganizerID != user.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Unauthorized to update this meeting")
	}

	if req.ScheduledTime != nil {
		if req.ScheduledTime.Before(time.Now()) {
			return nil, appErrors.Clone(appErrors.ErrBadRequest, "Meeting cannot be scheduled in the past")
		}
		meeting.ScheduledTime = req.ScheduledTime.UTC()
	}
	if req.Notes != nil {
		meeting.Notes = *req.Notes
	}
	if req.Type != nil {
		if !models.ValidMeetingType(*req.Type) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid meeting type")
		}
		meeting.Type = models.MeetingType(*req.Type)
	}
	if req.Participants != nil {
		if err := s.requireParticipantsExist(ctx, req.Participants); err != nil {
			return nil, err
		}
	}

	if err := s.meetings.Update(ctx, meeting, req.Participants); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update meeting")
	}

	detail, err := s.meetings.FindDetailByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load meeting detail")
	}
	return detail, nil
}

// Cancel removes a meeting. Only the organizer or an admin may cancel.
func (s *MeetingService) Cancel(ctx context.Context, user *models.User, id string) error {
	meeting, err := s.findMeeting(ctx, id)
	if err != nil {
		return err
	}
	if user.Role != models.RoleAdmin && meeting.OrganizerID != user.ID {
		return appErrors.Clone(appErrors.ErrForbidden, "Unauthorized to delete this meeting")
	}
	if err := s.meetings.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete meeting")
	}
	return nil
}

func (s *MeetingService) findMeeting(ctx context.Context, id string) (*models.Meeting, error) {
	meeting, err := s.meetings.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Meeting not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load meeting")
	}
	return meeting, nil
}

func (s *MeetingService) requireParticipantsExist(ctx context.Context, ids []string) error {
	unique := make(map[string]struct{}, len(ids))
	deduped := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, seen := unique[id]; !seen {
			unique[id] = struct{}{}
			deduped = append(deduped, id)
		}
	}
	count, err := s.users.CountByIDs(ctx, deduped)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify participants")
	}
	if count != len(deduped) {
		return appErrors.Clone(appErrors.ErrBadRequest, "One or more participants not found")
	}
	return nil
}

func isParticipant(detail *models.MeetingDetail, userID string) bool {
	if detail.OrganizerID == userID {
		return true
	}
	for _, p := range detail.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}
