package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-platform-api/internal/models"
	"github.com/noah-isme/edu-platform-api/pkg/config"
	appErrors "github.com/noah-isme/edu-platform-api/pkg/errors"
)

type mockProgressCourses struct {
	enrolled    []models.Course
	recommended []models.Course
	lastLimit   int
}

func (m *mockProgressCourses) ListByStudent(ctx context.Context, studentID string) ([]models.Course, error) {
	return m.enrolled, nil
}

func (m *mockProgressCourses) ListRecommended(ctx context.Context, studentID, stageLevel string, limit int) ([]models.Course, error) {
	m.lastLimit = limit
	return m.recommended, nil
}

type mockCounter struct {
	total     int
	completed int
	calls     int
}

func (m *mockCounter) CountByCourse(ctx context.Context, courseID, studentID string) (int, int, error) {
	m.calls++
	return m.total, m.completed, nil
}

type mockCache struct {
	entries    map[string][]byte
	deleted    []string
	setKeys    []string
	lastSetTTL time.Duration
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string][]byte)}
}

func (m *mockCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	m.setKeys = append(m.setKeys, key)
	m.lastSetTTL = ttl
	return nil
}

func (m *mockCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deleted = append(m.deleted, pattern)
	delete(m.entries, pattern)
	return nil
}

type mockCacheObserver struct {
	hits   int
	misses int
}

func (m *mockCacheObserver) RecordCacheOperation(hit bool) {
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

func TestProgressServiceOverviewComputesAndCaches(t *testing.T) {
	courses := &mockProgressCourses{enrolled: []models.Course{{ID: "c1", Title: "Algebra"}}}
	assignments := &mockCounter{total: 4, completed: 3}
	quizzes := &mockCounter{total: 2, completed: 2}
	cache := newMockCache()
	svc := NewProgressService(courses, assignments, quizzes, cache, nil, config.CacheConfig{Enabled: true, TTL: time.Minute}, nil)

	progress, err := svc.Overview(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, progress, 1)
	assert.Equal(t, "c1", progress[0].CourseID)
	assert.InDelta(t, 75.0, progress[0].AssignmentProgress.Percentage, 0.001)
	assert.InDelta(t, 100.0, progress[0].QuizProgress.Percentage, 0.001)
	assert.Contains(t, cache.setKeys, "progress:student:s1")
	assert.Equal(t, time.Minute, cache.lastSetTTL)

	// Second call is served from cache, not from the counters.
	_, err = svc.Overview(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, assignments.calls)
	assert.Equal(t, 1, quizzes.calls)
}

func TestProgressServiceOverviewCacheDisabled(t *testing.T) {
	courses := &mockProgressCourses{enrolled: []models.Course{{ID: "c1", Title: "Algebra"}}}
	assignments := &mockCounter{total: 1}
	quizzes := &mockCounter{}
	cache := newMockCache()
	svc := NewProgressService(courses, assignments, quizzes, cache, nil, config.CacheConfig{Enabled: false}, nil)

	_, err := svc.Overview(context.Background(), "s1")
	require.NoError(t, err)
	_, err = svc.Overview(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, assignments.calls)
	assert.Empty(t, cache.setKeys)
}

func TestProgressServiceInvalidateStudent(t *testing.T) {
	courses := &mockProgressCourses{enrolled: []models.Course{{ID: "c1"}}}
	cache := newMockCache()
	svc := NewProgressService(courses, &mockCounter{}, &mockCounter{}, cache, nil, config.CacheConfig{Enabled: true, TTL: time.Minute}, nil)

	_, err := svc.Overview(context.Background(), "s1")
	require.NoError(t, err)

	svc.InvalidateStudent(context.Background(), "s1")
	assert.Contains(t, cache.deleted, "progress:student:s1")

	_, err = svc.Overview(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, cache.setKeys, 2)
}

func TestProgressServiceOverviewReportsCacheHitsAndMisses(t *testing.T) {
	courses := &mockProgressCourses{enrolled: []models.Course{{ID: "c1", Title: "Algebra"}}}
	cache := newMockCache()
	observer := &mockCacheObserver{}
	svc := NewProgressService(courses, &mockCounter{total: 1}, &mockCounter{}, cache, observer, config.CacheConfig{Enabled: true, TTL: time.Minute}, nil)

	_, err := svc.Overview(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, observer.misses)
	assert.Equal(t, 0, observer.hits)

	_, err = svc.Overview(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, observer.misses)
	assert.Equal(t, 1, observer.hits)
}

func TestProgressServiceRecommendedRequiresStage(t *testing.T) {
	courses := &mockProgressCourses{recommended: []models.Course{{ID: "c2"}}}
	svc := NewProgressService(courses, &mockCounter{}, &mockCounter{}, nil, nil, config.CacheConfig{}, nil)

	student := &models.User{ID: "s1", Role: models.RoleStudent}
	recs, err := svc.Recommended(context.Background(), student)
	require.NoError(t, err)
	assert.Empty(t, recs)

	student.Stage = &models.EducationalStage{Level: "primary", Grade: "5"}
	recs, err = svc.Recommended(context.Background(), student)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.Equal(t, recommendedCoursesLimit, courses.lastLimit)
}
