package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-platform-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "full_name", "dob", "profile_picture", "stage_level", "stage_grade", "activity_streak", "last_active", "created_at", "updated_at"})
}

func TestUserRepositoryFindByEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := userRows().
		AddRow("user-1", "amina@example.com", "hash", models.RoleStudent, "Amina", nil, nil, "primary", "3", 2, time.Now(), time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+userColumns+" FROM users WHERE email = $1 LIMIT 1")).
		WithArgs("amina@example.com").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "amina@example.com")
	require.NoError(t, err)
	require.Equal(t, "user-1", user.ID)
	require.NotNil(t, user.Stage)
	require.Equal(t, "primary", user.Stage.Level)
	require.Equal(t, "3", user.Stage.Grade)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryDeleteLastAdmin(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE role = $1")).
		WithArgs(models.RoleAdmin).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "admin-1", models.RoleAdmin)
	require.ErrorIs(t, err, ErrLastAdmin)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryDeleteCleansReferences(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	for _, q := range []string{
		"DELETE FROM course_students WHERE student_id = $1",
		"DELETE FROM meeting_participants WHERE user_id = $1",
		"DELETE FROM live_stream_attendance WHERE user_id = $1",
		"DELETE FROM parent_children WHERE parent_id = $1 OR child_id = $1",
		"DELETE FROM refresh_tokens WHERE user_id = $1",
		"DELETE FROM users WHERE id = $1",
	} {
		mock.ExpectExec(regexp.QuoteMeta(q)).
			WithArgs("user-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), "user-1", models.RoleStudent)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryUpdateManagedDemoteLastAdmin(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE role = $1")).
		WithArgs(models.RoleAdmin).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	user := &models.User{ID: "admin-1", Role: models.RoleTeacher}
	err := repo.UpdateManaged(context.Background(), user, models.RoleAdmin)
	require.ErrorIs(t, err, ErrLastAdmin)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryTouchActivity(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	ts := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET activity_streak = activity_streak + 1, last_active = $2 WHERE id = $1")).
		WithArgs("user-1", ts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.TouchActivity(context.Background(), "user-1", ts))
	require.NoError(t, mock.ExpectationsWereMet())
}
