package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/edu-platform-api/internal/models"
)

// ErrLastAdmin is returned when an operation would leave the platform with no
// admin account.
var ErrLastAdmin = errors.New("operation would remove the last admin")

const userColumns = `id, email, password_hash, role, full_name, dob, profile_picture, stage_level, stage_grade, activity_streak, last_active, created_at, updated_at`

// UserRepository provides database access for user management.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	user.UnpackStage()
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	user.UnpackStage()
	return &user, nil
}

// FindSummaries returns trimmed projections for a set of user ids.
func (r *UserRepository) FindSummaries(ctx context.Context, ids []string) ([]models.UserSummary, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT id, full_name, email, role FROM users WHERE id = ANY($1)`
	var summaries []models.UserSummary
	if err := r.db.SelectContext(ctx, &summaries, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find user summaries: %w", err)
	}
	return summaries, nil
}

// CountByIDs returns how many of the given ids exist.
func (r *UserRepository) CountByIDs(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	const query = `SELECT COUNT(*) FROM users WHERE id = ANY($1)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, pq.Array(ids)); err != nil {
		return 0, fmt.Errorf("count users by ids: %w", err)
	}
	return count, nil
}

// Create inserts a new user and returns the stored record.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	user.PackStage()

	const query = `INSERT INTO users (id, email, password_hash, role, full_name, dob, profile_picture, stage_level, stage_grade, activity_streak, last_active, created_at, updated_at)
		VALUES (:id, :email, :password_hash, :role, :full_name, :dob, :profile_picture, :stage_level, :stage_grade, :activity_streak, :last_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdateProfile updates the self-service mutable fields.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	user.PackStage()
	const query = `UPDATE users SET email = :email, full_name = :full_name, dob = :dob, profile_picture = :profile_picture, stage_level = :stage_level, stage_grade = :stage_grade, last_active = :last_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}
	return nil
}

// UpdatePassword updates the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, updatedAt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// UpdateProfilePicture stores the uploaded picture URL.
func (r *UserRepository) UpdateProfilePicture(ctx context.Context, id, url string) error {
	const query = `UPDATE users SET profile_picture = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, url, time.Now().UTC()); err != nil {
		return fmt.Errorf("update profile picture: %w", err)
	}
	return nil
}

// UpdateLastActive updates the last_active timestamp for a user.
func (r *UserRepository) UpdateLastActive(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE users SET last_active = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("update last active: %w", err)
	}
	return nil
}

// TouchActivity bumps the streak counter and last_active in one atomic write.
func (r *UserRepository) TouchActivity(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE users SET activity_streak = activity_streak + 1, last_active = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("touch activity: %w", err)
	}
	return nil
}

// ResetStreak zeroes the activity streak.
func (r *UserRepository) ResetStreak(ctx context.Context, id string) error {
	const query = `UPDATE users SET activity_streak = 0 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("reset streak: %w", err)
	}
	return nil
}

// List returns users based on filters with total count.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	baseQuery := `FROM users WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Role != nil {
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)+1))
		args = append(args, *filter.Role)
	}
	if filter.StageLevel != "" {
		conditions = append(conditions, fmt.Sprintf("stage_level = $%d", len(args)+1))
		args = append(args, filter.StageLevel)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	p := models.NewPagination(filter.Page, filter.Limit, 0)
	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", userColumns, baseQuery, p.Limit, p.Offset())

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	for i := range users {
		users[i].UnpackStage()
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	return users, total, nil
}

// UpdateManaged applies an admin-driven update. A role change away from admin
// re-counts remaining admins inside the same transaction and fails with
// ErrLastAdmin when the change would leave none.
func (r *UserRepository) UpdateManaged(ctx context.Context, user *models.User, previousRole models.UserRole) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin managed update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if previousRole == models.RoleAdmin && user.Role != models.RoleAdmin {
		var admins int
		if err := tx.GetContext(ctx, &admins, `SELECT COUNT(*) FROM users WHERE role = $1`, models.RoleAdmin); err != nil {
			return fmt.Errorf("count admins: %w", err)
		}
		if admins <= 1 {
			return ErrLastAdmin
		}
	}

	user.UpdatedAt = time.Now().UTC()
	user.PackStage()
	const query = `UPDATE users SET email = :email, role = :role, full_name = :full_name, dob = :dob, stage_level = :stage_level, stage_grade = :stage_grade, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("update managed user: %w", err)
	}

	return tx.Commit()
}

// Delete removes a user and cleans up its references. Deleting an admin
// re-counts remaining admins inside the same transaction and fails with
// ErrLastAdmin when it is the only one left.
func (r *UserRepository) Delete(ctx context.Context, id string, role models.UserRole) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin user delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if role == models.RoleAdmin {
		var admins int
		if err := tx.GetContext(ctx, &admins, `SELECT COUNT(*) FROM users WHERE role = $1`, models.RoleAdmin); err != nil {
			return fmt.Errorf("count admins: %w", err)
		}
		if admins <= 1 {
			return ErrLastAdmin
		}
	}

	cleanups := []string{
		`DELETE FROM course_students WHERE student_id = $1`,
		`DELETE FROM meeting_participants WHERE user_id = $1`,
		`DELETE FROM live_stream_attendance WHERE user_id = $1`,
		`DELETE FROM parent_children WHERE parent_id = $1 OR child_id = $1`,
		`DELETE FROM refresh_tokens WHERE user_id = $1`,
		`DELETE FROM users WHERE id = $1`,
	}
	for _, q := range cleanups {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
	}

	return tx.Commit()
}

// ListChildren returns a parent's linked students.
func (r *UserRepository) ListChildren(ctx context.Context, parentID string) ([]models.UserSummary, error) {
	const query = `SELECT u.id, u.full_name, u.email, u.role FROM users u JOIN parent_children pc ON pc.child_id = u.id WHERE pc.parent_id = $1`
	var children []models.UserSummary
	if err := r.db.SelectContext(ctx, &children, query, parentID); err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	return children, nil
}

// CreateRefreshToken persists a refresh token entry.
func (r *UserRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at, revoked, revoked_at) VALUES (:id, :user_id, :token, :expires_at, :created_at, :revoked, :revoked_at)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindRefreshToken returns a refresh token by token string.
func (r *UserRepository) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	const query = `SELECT id, user_id, token, expires_at, created_at, revoked, revoked_at FROM refresh_tokens WHERE token = $1 LIMIT 1`
	var rt models.RefreshToken
	if err := r.db.GetContext(ctx, &rt, query, token); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &rt, nil
}

// RevokeRefreshToken marks a token as revoked.
func (r *UserRepository) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, revokedAt); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeUserRefreshTokens revokes all refresh tokens for a user.
func (r *UserRepository) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE user_id = $1 AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoke user refresh tokens: %w", err)
	}
	return nil
}
