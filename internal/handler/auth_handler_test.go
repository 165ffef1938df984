package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-platform-api/internal/middleware"
	"github.com/noah-isme/edu-platform-api/internal/models"
	"github.com/noah-isme/edu-platform-api/internal/service"
	"github.com/noah-isme/edu-platform-api/pkg/config"
)

type fakeUserStore struct {
	users  map[string]*models.User
	tokens map[string]*models.RefreshToken
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:  make(map[string]*models.User),
		tokens: make(map[string]*models.RefreshToken),
	}
}

func (f *fakeUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserStore) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "new-user"
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserStore) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	return nil
}

func (f *fakeUserStore) UpdateLastActive(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (f *fakeUserStore) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = "rt1"
	}
	copied := *token
	f.tokens[token.Token] = &copied
	return nil
}

func (f *fakeUserStore) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := f.tokens[token]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserStore) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	return nil
}

func (f *fakeUserStore) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	return nil
}

type noopActivity struct{}

func (noopActivity) RecordActivity(ctx context.Context, user *models.User) error { return nil }

func newAuthTestRouter(t *testing.T) (*gin.Engine, *fakeUserStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newFakeUserStore()
	jwtCfg := config.JWTConfig{Secret: "test-secret", Expiration: time.Hour, RefreshExpiration: 24 * time.Hour, ResetExpiration: time.Hour}
	authSvc := service.NewAuthService(store, jwtCfg, nil, nil)
	h := NewAuthHandler(authSvc)

	r := gin.New()
	r.POST("/api/auth/register", h.Register)
	r.POST("/api/auth/login", h.Login)

	authn := middleware.Authenticated(authSvc, noopActivity{}, nil)
	r.GET("/api/auth/me", authn, h.Me)
	r.GET("/api/users", authn, middleware.RequireRoles(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r, store
}

func doJSON(r *gin.Engine, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		_ = json.NewEncoder(&body).Encode(payload)
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthEndpointsRegisterAndLogin(t *testing.T) {
	r, _ := newAuthTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    "student@example.com",
		"password": "secret123",
		"role":     "student",
		"fullName": "Student One",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.Token)
	assert.Equal(t, "student@example.com", created.User.Email)

	// Duplicate registration is rejected.
	w = doJSON(r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    "student@example.com",
		"password": "secret123",
		"role":     "student",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"User already exists"}`, w.Body.String())

	// Wrong password.
	w = doJSON(r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "student@example.com",
		"password": "wrong-pass",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Invalid credentials"}`, w.Body.String())

	w = doJSON(r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "student@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAuthEndpointsProtectedRoutes(t *testing.T) {
	r, _ := newAuthTestRouter(t)

	w := doJSON(r, http.MethodGet, "/api/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"message":"Not authorized, no token"}`, w.Body.String())

	reg := doJSON(r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    "student@example.com",
		"password": "secret123",
		"role":     "student",
	})
	require.Equal(t, http.StatusCreated, reg.Code)
	var created struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(reg.Body.Bytes(), &created))

	w = doJSON(r, http.MethodGet, "/api/auth/me", created.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// A student cannot reach admin-only routes.
	w = doJSON(r, http.MethodGet, "/api/users", created.Token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"message":"Access denied"}`, w.Body.String())

	w = doJSON(r, http.MethodGet, "/api/auth/me", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
