package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-platform-api/internal/models"
	"github.com/noah-isme/edu-platform-api/internal/repository"
	appErrors "github.com/noah-isme/edu-platform-api/pkg/errors"
)

type mockUserRepo struct {
	users       map[string]*models.User
	touched     []string
	streakReset []string
	lastActive  []string
	deleted     []string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*models.User)}
}

func (m *mockUserRepo) adminCount() int {
	count := 0
	for _, u := range m.users {
		if u.Role == models.RoleAdmin {
			count++
		}
	}
	return count
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var list []models.User
	for _, u := range m.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		list = append(list, *u)
	}
	return list, len(list), nil
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, user *models.User) error {
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockUserRepo) UpdateProfilePicture(ctx context.Context, id, url string) error {
	if u, ok := m.users[id]; ok {
		u.ProfilePicture = url
	}
	return nil
}

func (m *mockUserRepo) UpdateManaged(ctx context.Context, user *models.User, previousRole models.UserRole) error {
	if previousRole == models.RoleAdmin && user.Role != models.RoleAdmin && m.adminCount() <= 1 {
		return repository.ErrLastAdmin
	}
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string, role models.UserRole) error {
	if role == models.RoleAdmin && m.adminCount() <= 1 {
		return repository.ErrLastAdmin
	}
	delete(m.users, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockUserRepo) ListChildren(ctx context.Context, parentID string) ([]models.UserSummary, error) {
	return []models.UserSummary{{ID: "child1"}}, nil
}

func (m *mockUserRepo) TouchActivity(ctx context.Context, id string, ts time.Time) error {
	if u, ok := m.users[id]; ok {
		u.ActivityStreak++
		u.LastActive = &ts
	}
	m.touched = append(m.touched, id)
	return nil
}

func (m *mockUserRepo) ResetStreak(ctx context.Context, id string) error {
	if u, ok := m.users[id]; ok {
		u.ActivityStreak = 0
	}
	m.streakReset = append(m.streakReset, id)
	return nil
}

func (m *mockUserRepo) UpdateLastActive(ctx context.Context, id string, ts time.Time) error {
	if u, ok := m.users[id]; ok {
		u.LastActive = &ts
	}
	m.lastActive = append(m.lastActive, id)
	return nil
}

func TestUserServiceManageLastAdmin(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["a1"] = &models.User{ID: "a1", Email: "admin@example.com", Role: models.RoleAdmin}
	svc := NewUserService(repo, nil, nil)

	teacher := models.RoleTeacher
	_, err := svc.Manage(context.Background(), "a1", ManageUserRequest{Role: &teacher})
	require.Error(t, err)
	apiErr := appErrors.FromError(err)
	assert.Equal(t, "Cannot change role of the last admin", apiErr.Message)
	assert.Equal(t, 400, apiErr.Status)

	// With a second admin the demotion goes through.
	repo.users["a2"] = &models.User{ID: "a2", Email: "admin2@example.com", Role: models.RoleAdmin}
	updated, err := svc.Manage(context.Background(), "a1", ManageUserRequest{Role: &teacher})
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, updated.Role)
}

func TestUserServiceDeleteLastAdmin(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["a1"] = &models.User{ID: "a1", Email: "admin@example.com", Role: models.RoleAdmin}
	svc := NewUserService(repo, nil, nil)

	err := svc.Delete(context.Background(), "a1")
	require.Error(t, err)
	assert.Equal(t, "Cannot delete the last admin user", appErrors.FromError(err).Message)

	repo.users["a2"] = &models.User{ID: "a2", Email: "admin2@example.com", Role: models.RoleAdmin}
	require.NoError(t, svc.Delete(context.Background(), "a1"))
	assert.Contains(t, repo.deleted, "a1")
}

func TestUserServiceUpdateProfileEmailTaken(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["u1"] = &models.User{ID: "u1", Email: "one@example.com", Role: models.RoleStudent}
	repo.users["u2"] = &models.User{ID: "u2", Email: "two@example.com", Role: models.RoleStudent}
	svc := NewUserService(repo, nil, nil)

	taken := "two@example.com"
	_, err := svc.UpdateProfile(context.Background(), "u1", UpdateProfileRequest{Email: &taken})
	require.Error(t, err)
	assert.Equal(t, "Email already in use", appErrors.FromError(err).Message)

	fresh := "fresh@example.com"
	updated, err := svc.UpdateProfile(context.Background(), "u1", UpdateProfileRequest{Email: &fresh})
	require.NoError(t, err)
	assert.Equal(t, "fresh@example.com", updated.Email)
}

func TestUserServiceRecordActivityTouchesLastActiveOnly(t *testing.T) {
	repo := newMockUserRepo()
	earlier := time.Now().UTC().Add(-time.Hour)
	repo.users["u1"] = &models.User{ID: "u1", Role: models.RoleStudent, ActivityStreak: 5, LastActive: &earlier}
	svc := NewUserService(repo, nil, nil)

	user, _ := repo.FindByID(context.Background(), "u1")
	require.NoError(t, svc.RecordActivity(context.Background(), user))
	assert.Empty(t, repo.touched)
	assert.Contains(t, repo.lastActive, "u1")
	assert.Equal(t, 5, repo.users["u1"].ActivityStreak)
}

func TestUserServiceRecordSubmissionIncrementsPerAction(t *testing.T) {
	repo := newMockUserRepo()
	earlier := time.Now().UTC().Add(-time.Hour)
	repo.users["u1"] = &models.User{ID: "u1", Role: models.RoleStudent, ActivityStreak: 3, LastActive: &earlier}
	svc := NewUserService(repo, nil, nil)

	// Two same-day actions count twice.
	require.NoError(t, svc.RecordSubmission(context.Background(), "u1"))
	require.NoError(t, svc.RecordSubmission(context.Background(), "u1"))
	assert.Equal(t, []string{"u1", "u1"}, repo.touched)
	assert.Equal(t, 5, repo.users["u1"].ActivityStreak)
	assert.Empty(t, repo.streakReset)
}

func TestUserServiceStreakLazyReset(t *testing.T) {
	repo := newMockUserRepo()
	stale := time.Now().UTC().Add(-48 * time.Hour)
	repo.users["u1"] = &models.User{ID: "u1", Role: models.RoleStudent, ActivityStreak: 4, LastActive: &stale}
	svc := NewUserService(repo, nil, nil)

	info, err := svc.Streak(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, info.Streak)
	assert.Contains(t, repo.streakReset, "u1")
	assert.NotEmpty(t, info.LastActive)
}

func TestUserServiceStreakFresh(t *testing.T) {
	repo := newMockUserRepo()
	recent := time.Now().UTC().Add(-time.Hour)
	repo.users["u1"] = &models.User{ID: "u1", Role: models.RoleStudent, ActivityStreak: 4, LastActive: &recent}
	svc := NewUserService(repo, nil, nil)

	info, err := svc.Streak(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, info.Streak)
	assert.Empty(t, repo.streakReset)
}
