package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/edu-platform-api/internal/models"
	"github.com/noah-isme/edu-platform-api/pkg/config"
	appErrors "github.com/noah-isme/edu-platform-api/pkg/errors"
)

type mockAuthUserRepo struct {
	users      map[string]*models.User
	tokens     map[string]*models.RefreshToken
	revokedAll []string
	passwords  map[string]string
}

func newMockAuthUserRepo() *mockAuthUserRepo {
	return &mockAuthUserRepo{
		users:     make(map[string]*models.User),
		tokens:    make(map[string]*models.RefreshToken),
		passwords: make(map[string]string),
	}
}

func (m *mockAuthUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "new-user"
	}
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockAuthUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if u, ok := m.users[id]; ok {
		u.PasswordHash = passwordHash
	}
	m.passwords[id] = passwordHash
	return nil
}

func (m *mockAuthUserRepo) UpdateLastActive(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (m *mockAuthUserRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = "rt-" + token.Token[:8]
	}
	copied := *token
	m.tokens[token.Token] = &copied
	return nil
}

func (m *mockAuthUserRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := m.tokens[token]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthUserRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, t := range m.tokens {
		if t.ID == id {
			t.Revoked = true
		}
	}
	return nil
}

func (m *mockAuthUserRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedAll = append(m.revokedAll, userID)
	for _, t := range m.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Expiration:        time.Hour,
		RefreshExpiration: 24 * time.Hour,
		ResetExpiration:   time.Hour,
	}
}

func seedUser(repo *mockAuthUserRepo, id, email, password string) *models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	user := &models.User{ID: id, Email: email, PasswordHash: string(hash), Role: models.RoleStudent}
	repo.users[id] = user
	return user
}

func TestAuthServiceRegister(t *testing.T) {
	repo := newMockAuthUserRepo()
	svc := NewAuthService(repo, testJWTConfig(), nil, nil)

	user, tokens, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "new@example.com",
		Password: "secret123",
		Role:     models.RoleStudent,
		FullName: "New Student",
	})
	require.NoError(t, err)
	require.NotNil(t, user)
	require.NotNil(t, tokens)
	assert.NotEmpty(t, user.ID)
	assert.NotEmpty(t, tokens.Token)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")))
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	repo := newMockAuthUserRepo()
	seedUser(repo, "u1", "taken@example.com", "secret123")
	svc := NewAuthService(repo, testJWTConfig(), nil, nil)

	_, _, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "taken@example.com",
		Password: "secret123",
		Role:     models.RoleStudent,
	})
	require.Error(t, err)
	assert.Equal(t, "User already exists", appErrors.FromError(err).Message)
}

func TestAuthServiceLoginInvalidCredentials(t *testing.T) {
	repo := newMockAuthUserRepo()
	seedUser(repo, "u1", "student@example.com", "secret123")
	svc := NewAuthService(repo, testJWTConfig(), nil, nil)

	_, _, err := svc.Login(context.Background(), models.LoginRequest{Email: "student@example.com", Password: "wrong-pass"})
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", appErrors.FromError(err).Message)

	_, _, err = svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", appErrors.FromError(err).Message)
}

func TestAuthServiceLoginIssuesTokens(t *testing.T) {
	repo := newMockAuthUserRepo()
	seedUser(repo, "u1", "student@example.com", "secret123")
	svc := NewAuthService(repo, testJWTConfig(), nil, nil)

	user, tokens, err := svc.Login(context.Background(), models.LoginRequest{Email: "student@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	require.NotNil(t, tokens)
	assert.NotEmpty(t, tokens.Token)
	assert.Len(t, repo.tokens, 1)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	repo := newMockAuthUserRepo()
	seedUser(repo, "u1", "student@example.com", "secret123")
	svc := NewAuthService(repo, testJWTConfig(), nil, nil)

	_, tokens, err := svc.Login(context.Background(), models.LoginRequest{Email: "student@example.com", Password: "secret123"})
	require.NoError(t, err)

	fresh, err := svc.Refresh(context.Background(), models.RefreshRequest{RefreshToken: tokens.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, fresh.RefreshToken)
	assert.True(t, repo.tokens[tokens.RefreshToken].Revoked)

	// A rotated token cannot be replayed.
	_, err = svc.Refresh(context.Background(), models.RefreshRequest{RefreshToken: tokens.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, "Invalid refresh token", appErrors.FromError(err).Message)
}

func TestAuthServicePasswordResetFlow(t *testing.T) {
	repo := newMockAuthUserRepo()
	seedUser(repo, "u1", "student@example.com", "secret123")
	svc := NewAuthService(repo, testJWTConfig(), nil, nil)

	token, err := svc.ForgotPassword(context.Background(), models.ForgotPasswordRequest{Email: "student@example.com"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	err = svc.ResetPassword(context.Background(), models.ResetPasswordRequest{Token: token, NewPassword: "changed456"})
	require.NoError(t, err)
	assert.Contains(t, repo.revokedAll, "u1")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.passwords["u1"]), []byte("changed456")))

	_, _, err = svc.Login(context.Background(), models.LoginRequest{Email: "student@example.com", Password: "changed456"})
	require.NoError(t, err)
}

func TestAuthServiceForgotPasswordUnknownEmail(t *testing.T) {
	repo := newMockAuthUserRepo()
	svc := NewAuthService(repo, testJWTConfig(), nil, nil)

	token, err := svc.ForgotPassword(context.Background(), models.ForgotPasswordRequest{Email: "nobody@example.com"})
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestAuthServiceResetWithAccessTokenRejected(t *testing.T) {
	repo := newMockAuthUserRepo()
	seedUser(repo, "u1", "student@example.com", "secret123")
	svc := NewAuthService(repo, testJWTConfig(), nil, nil)

	_, tokens, err := svc.Login(context.Background(), models.LoginRequest{Email: "student@example.com", Password: "secret123"})
	require.NoError(t, err)

	err = svc.ResetPassword(context.Background(), models.ResetPasswordRequest{Token: tokens.Token, NewPassword: "changed456"})
	require.Error(t, err)
	assert.Equal(t, "Invalid or expired token", appErrors.FromError(err).Message)
}

func TestAuthServiceAuthenticateDeletedUser(t *testing.T) {
	repo := newMockAuthUserRepo()
	seedUser(repo, "u1", "student@example.com", "secret123")
	svc := NewAuthService(repo, testJWTConfig(), nil, nil)

	_, tokens, err := svc.Login(context.Background(), models.LoginRequest{Email: "student@example.com", Password: "secret123"})
	require.NoError(t, err)

	delete(repo.users, "u1")

	_, err = svc.Authenticate(context.Background(), tokens.Token)
	require.Error(t, err)
	assert.Equal(t, "User no longer exists", appErrors.FromError(err).Message)
}
