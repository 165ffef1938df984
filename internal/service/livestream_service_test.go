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

type mockLiveStreamRepo struct {
	streams  map[string]*models.LiveStream
	joined   map[string][]string
	lastList models.LiveStreamFilter
}

func newMockLiveStreamRepo() *mockLiveStreamRepo {
	return &mockLiveStreamRepo{
		streams: make(map[string]*models.LiveStream),
		joined:  make(map[string][]string),
	}
}

func (m *mockLiveStreamRepo) Create(ctx context.Context, stream *models.LiveStream) error {
	if stream.ID == "" {
		stream.ID = "new-stream"
	}
	copied := *stream
	m.streams[stream.ID] = &copied
	m.joined[stream.ID] = []string{stream.ConductedBy}
	return nil
}

func (m *mockLiveStreamRepo) FindByID(ctx context.Context, id string) (*models.LiveStream, error) {
	if s, ok := m.streams[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockLiveStreamRepo) FindDetailByID(ctx context.Context, id string) (*models.LiveStreamDetail, error) {
	if s, ok := m.streams[id]; ok {
		return &models.LiveStreamDetail{LiveStream: *s}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockLiveStreamRepo) List(ctx context.Context, filter models.LiveStreamFilter) ([]models.LiveStream, int, error) {
	m.lastList = filter
	var list []models.LiveStream
	for _, s := range m.streams {
		if filter.ActiveOnly && s.EndTime != nil {
			continue
		}
		list = append(list, *s)
	}
	return list, len(list), nil
}

func (m *mockLiveStreamRepo) Join(ctx context.Context, streamID, userID string) error {
	for _, id := range m.joined[streamID] {
		if id == userID {
			return nil
		}
	}
	m.joined[streamID] = append(m.joined[streamID], userID)
	return nil
}

func (m *mockLiveStreamRepo) End(ctx context.Context, streamID string, endTime time.Time, recordingURL *string) (bool, error) {
	s, ok := m.streams[streamID]
	if !ok || s.EndTime != nil {
		return false, nil
	}
	s.EndTime = &endTime
	if recordingURL != nil {
		s.RecordingURL = recordingURL
	}
	return true, nil
}

func streamFixture() (*mockLiveStreamRepo, *mockCourseReader, *mockEnrollment) {
	repo := newMockLiveStreamRepo()
	repo.streams["ls1"] = &models.LiveStream{ID: "ls1", CourseID: "c1", ConductedBy: "t1", StartTime: time.Now().Add(-time.Hour)}
	repo.joined["ls1"] = []string{"t1"}
	courses := &mockCourseReader{courses: map[string]*models.Course{"c1": {ID: "c1", TeacherID: "t1"}}}
	enrollment := &mockEnrollment{enrolled: map[string]bool{enrollKey("c1", "s1"): true}}
	return repo, courses, enrollment
}

func TestLiveStreamServiceStartRecordsConductor(t *testing.T) {
	repo, courses, enrollment := streamFixture()
	svc := NewLiveStreamService(repo, courses, enrollment, nil, nil)

	teacher := &models.User{ID: "t1", Role: models.RoleTeacher}
	stream, err := svc.Start(context.Background(), teacher, StartStreamRequest{Title: "Live algebra", CourseID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, "t1", stream.ConductedBy)
	assert.Contains(t, repo.joined[stream.ID], "t1")
}

func TestLiveStreamServiceStartUnownedCourse(t *testing.T) {
	repo, courses, enrollment := streamFixture()
	svc := NewLiveStreamService(repo, courses, enrollment, nil, nil)

	other := &models.User{ID: "t2", Role: models.RoleTeacher}
	_, err := svc.Start(context.Background(), other, StartStreamRequest{Title: "Live algebra", CourseID: "c1"})
	require.Error(t, err)
	assert.Equal(t, "Course not found or unauthorized", appErrors.FromError(err).Message)
}

func TestLiveStreamServiceJoin(t *testing.T) {
	repo, courses, enrollment := streamFixture()
	svc := NewLiveStreamService(repo, courses, enrollment, nil, nil)

	student := &models.User{ID: "s1", Role: models.RoleStudent}
	require.NoError(t, svc.Join(context.Background(), student, "ls1"))
	assert.Contains(t, repo.joined["ls1"], "s1")

	// Joining twice is harmless.
	require.NoError(t, svc.Join(context.Background(), student, "ls1"))

	outsider := &models.User{ID: "s2", Role: models.RoleStudent}
	err := svc.Join(context.Background(), outsider, "ls1")
	require.Error(t, err)
	assert.Equal(t, "You are not enrolled in this course", appErrors.FromError(err).Message)
}

func TestLiveStreamServiceJoinEndedStream(t *testing.T) {
	repo, courses, enrollment := streamFixture()
	ended := time.Now().Add(-time.Minute)
	repo.streams["ls1"].EndTime = &ended
	svc := NewLiveStreamService(repo, courses, enrollment, nil, nil)

	student := &models.User{ID: "s1", Role: models.RoleStudent}
	err := svc.Join(context.Background(), student, "ls1")
	require.Error(t, err)
	apiErr := appErrors.FromError(err)
	assert.Equal(t, "Stream has already ended", apiErr.Message)
	assert.Equal(t, 400, apiErr.Status)
}

func TestLiveStreamServiceEndConductorOnly(t *testing.T) {
	repo, courses, enrollment := streamFixture()
	svc := NewLiveStreamService(repo, courses, enrollment, nil, nil)

	other := &models.User{ID: "t2", Role: models.RoleTeacher}
	_, err := svc.End(context.Background(), other, "ls1", EndStreamRequest{})
	require.Error(t, err)
	apiErr := appErrors.FromError(err)
	assert.Equal(t, "Only the conductor can end this stream", apiErr.Message)
	assert.Equal(t, 403, apiErr.Status)

	conductor := &models.User{ID: "t1", Role: models.RoleTeacher}
	recording := "https://cdn.example.com/rec.mp4"
	stream, err := svc.End(context.Background(), conductor, "ls1", EndStreamRequest{RecordingURL: &recording})
	require.NoError(t, err)
	require.NotNil(t, stream.EndTime)
	require.NotNil(t, stream.RecordingURL)
	assert.Equal(t, recording, *stream.RecordingURL)

	_, err = svc.End(context.Background(), conductor, "ls1", EndStreamRequest{})
	require.Error(t, err)
	assert.Equal(t, "Stream has already ended", appErrors.FromError(err).Message)
}

func TestLiveStreamServiceListScopesStudents(t *testing.T) {
	repo, courses, enrollment := streamFixture()
	svc := NewLiveStreamService(repo, courses, enrollment, nil, nil)

	student := &models.User{ID: "s1", Role: models.RoleStudent}
	_, _, err := svc.List(context.Background(), student, models.LiveStreamFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, "s1", repo.lastList.EnrolledStudentID)

	admin := &models.User{ID: "a1", Role: models.RoleAdmin}
	_, _, err = svc.List(context.Background(), admin, models.LiveStreamFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, repo.lastList.EnrolledStudentID)
}
