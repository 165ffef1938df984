package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-platform-api/internal/models"
	appErrors "github.com/noah-isme/edu-platform-api/pkg/errors"
)

type mockMeetingRepo struct {
	meetings     map[string]*models.Meeting
	participants map[string][]string
	lastList     models.MeetingFilter
}

func newMockMeetingRepo() *mockMeetingRepo {
	return &mockMeetingRepo{
		meetings:     make(map[string]*models.Meeting),
		participants: make(map[string][]string),
	}
}

func (m *mockMeetingRepo) Create(ctx context.Context, meeting *models.Meeting, participantIDs []string) error {
	if meeting.ID == "" {
		meeting.ID = "new-meeting"
	}
	copied := *meeting
	m.meetings[meeting.ID] = &copied
	m.participants[meeting.ID] = append([]string{meeting.OrganizerID}, participantIDs...)
	return nil
}

func (m *mockMeetingRepo) FindByID(ctx context.Context, id string) (*models.Meeting, error) {
	if mt, ok := m.meetings[id]; ok {
		copied := *mt
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockMeetingRepo) FindDetailByID(ctx context.Context, id string) (*models.MeetingDetail, error) {
	mt, ok := m.meetings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	detail := &models.MeetingDetail{Meeting: *mt}
	for _, p := range m.participants[id] {
		detail.Participants = append(detail.Participants, models.UserSummary{ID: p})
	}
	return detail, nil
}

func (m *mockMeetingRepo) List(ctx context.Context, filter models.MeetingFilter) ([]models.Meeting, int, error) {
	m.lastList = filter
	var list []models.Meeting
	for id, mt := range m.meetings {
		if filter.ParticipantID != "" {
			found := false
			for _, p := range m.participants[id] {
				if p == filter.ParticipantID {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		list = append(list, *mt)
	}
	return list, len(list), nil
}

func (m *mockMeetingRepo) Update(ctx context.Context, meeting *models.Meeting, participantIDs []string) error {
	copied := *meeting
	m.meetings[meeting.ID] = &copied
	if participantIDs != nil {
		m.participants[meeting.ID] = append([]string{meeting.OrganizerID}, participantIDs...)
	}
	return nil
}

func (m *mockMeetingRepo) Delete(ctx context.Context, id string) error {
	delete(m.meetings, id)
	delete(m.participants, id)
	return nil
}

type mockParticipantChecker struct {
	known map[string]bool
}

func (m *mockParticipantChecker) CountByIDs(ctx context.Context, ids []string) (int, error) {
	count := 0
	for _, id := range ids {
		if m.known[id] {
			count++
		}
	}
	return count, nil
}

func meetingFixture() (*mockMeetingRepo, *mockParticipantChecker) {
	repo := newMockMeetingRepo()
	users := &mockParticipantChecker{known: map[string]bool{"t1": true, "p1": true, "p2": true}}
	return repo, users
}

func TestMeetingServiceScheduleInPast(t *testing.T) {
	repo, users := meetingFixture()
	svc := NewMeetingService(repo, users, nil, nil)

	organizer := &models.User{ID: "t1", Role: models.RoleTeacher}
	_, err := svc.Schedule(context.Background(), organizer, ScheduleMeetingRequest{
		ScheduledTime: time.Now().Add(-time.Hour),
		Type:          string(models.MeetingParentTeacher),
		Participants:  []string{"p1"},
	})
	require.Error(t, err)
	apiErr := appErrors.FromError(err)
	assert.Equal(t, "Meeting cannot be scheduled in the past", apiErr.Message)
	assert.Equal(t, 400, apiErr.Status)
}

func TestMeetingServiceScheduleUnknownParticipant(t *testing.T) {
	repo, users := meetingFixture()
	svc := NewMeetingService(repo, users, nil, nil)

	organizer := &models.User{ID: "t1", Role: models.RoleTeacher}
	_, err := svc.Schedule(context.Background(), organizer, ScheduleMeetingRequest{
		ScheduledTime: time.Now().Add(time.Hour),
		Type:          string(models.MeetingParentTeacher),
		Participants:  []string{"p1", "ghost"},
	})
	require.Error(t, err)
	assert.Equal(t, "One or more participants not found", appErrors.FromError(err).Message)
}

func TestMeetingServiceScheduleIncludesOrganizer(t *testing.T) {
	repo, users := meetingFixture()
	svc := NewMeetingService(repo, users, nil, nil)

	organizer := &models.User{ID: "t1", Role: models.RoleTeacher}
	detail, err := svc.Schedule(context.Background(), organizer, ScheduleMeetingRequest{
		ScheduledTime: time.Now().Add(time.Hour),
		Type:          string(models.MeetingParentTeacher),
		Participants:  []string{"p1", "p2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "t1", detail.OrganizerID)
	assert.Contains(t, repo.participants[detail.ID], "t1")
	assert.Contains(t, repo.participants[detail.ID], "p1")
}

func TestMeetingServiceGetRestrictedToParticipants(t *testing.T) {
	repo, users := meetingFixture()
	repo.meetings["m1"] = &models.Meeting{ID: "m1", OrganizerID: "t1", Type: models.MeetingParentTeacher}
	repo.participants["m1"] = []string{"t1", "p1"}
	svc := NewMeetingService(repo, users, nil, nil)

	outsider := &models.User{ID: "p2", Role: models.RoleParent}
	_, err := svc.Get(context.Background(), outsider, "m1")
	require.Error(t, err)
	apiErr := appErrors.FromError(err)
	assert.Equal(t, "Unauthorized to view this meeting", apiErr.Message)
	assert.Equal(t, 403, apiErr.Status)

	participant := &models.User{ID: "p1", Role: models.RoleParent}
	detail, err := svc.Get(context.Background(), participant, "m1")
	require.NoError(t, err)
	assert.Equal(t, "m1", detail.ID)

	admin := &models.User{ID: "a1", Role: models.RoleAdmin}
	_, err = svc.Get(context.Background(), admin, "m1")
	require.NoError(t, err)
}

func TestMeetingServiceUpdateOrganizerOnly(t *testing.T) {
	repo, users := meetingFixture()
	repo.meetings["m1"] = &models.Meeting{ID: "m1", OrganizerID: "t1", Type: models.MeetingParentTeacher, ScheduledTime: time.Now().Add(time.Hour)}
	repo.participants["m1"] = []string{"t1", "p1"}
	svc := NewMeetingService(repo, users, nil, nil)

	other := &models.User{ID: "p1", Role: models.RoleParent}
	notes := "Moved room"
	_, err := svc.Update(context.Background(), other, "m1", UpdateMeetingRequest{Notes: &notes})
	require.Error(t, err)
	assert.Equal(t, "Unauthorized to update this meeting", appErrors.FromError(err).Message)

	organizer := &models.User{ID: "t1", Role: models.RoleTeacher}
	detail, err := svc.Update(context.Background(), organizer, "m1", UpdateMeetingRequest{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "Moved room", detail.Notes)

	past := time.Now().Add(-time.Hour)
	_, err = svc.Update(context.Background(), organizer, "m1", UpdateMeetingRequest{ScheduledTime: &past})
	require.Error(t, err)
	assert.Equal(t, "Meeting cannot be scheduled in the past", appErrors.FromError(err).Message)
}

func TestMeetingServiceListScopesNonAdmins(t *testing.T) {
	repo, users := meetingFixture()
	svc := NewMeetingService(repo, users, nil, nil)

	parent := &models.User{ID: "p1", Role: models.RoleParent}
	_, _, err := svc.List(context.Background(), parent, models.MeetingFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, "p1", repo.lastList.ParticipantID)

	admin := &models.User{ID: "a1", Role: models.RoleAdmin}
	_, _, err = svc.List(context.Background(), admin, models.MeetingFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, repo.lastList.ParticipantID)
}

func TestMeetingServiceCancel(t *testing.T) {
	repo, users := meetingFixture()
	repo.meetings["m1"] = &models.Meeting{ID: "m1", OrganizerID: "t1", Type: models.MeetingAdmin}
	svc := NewMeetingService(repo, users, nil, nil)

	outsider := &models.User{ID: "p1", Role: models.RoleParent}
	err := svc.Cancel(context.Background(), outsider, "m1")
	require.Error(t, err)
	assert.Equal(t, "Unauthorized to delete this meeting", appErrors.FromError(err).Message)

	organizer := &models.User{ID: "t1", Role: models.RoleTeacher}
	require.NoError(t, svc.Cancel(context.Background(), organizer, "m1"))
	_, err = repo.FindByID(context.Background(), "m1")
	assert.Equal(t, sql.ErrNoRows, err)
}
