package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestLiveStreamRepositoryEndRunningStream(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLiveStreamRepository(db)

	endTime := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE live_streams SET end_time = $2, recording_url = COALESCE($3, recording_url) WHERE id = $1 AND end_time IS NULL")).
		WithArgs("stream-1", endTime, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ended, err := repo.End(context.Background(), "stream-1", endTime, nil)
	require.NoError(t, err)
	require.True(t, ended)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLiveStreamRepositoryEndAlreadyEnded(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLiveStreamRepository(db)

	endTime := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE live_streams SET end_time = $2")).
		WithArgs("stream-1", endTime, nil).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ended, err := repo.End(context.Background(), "stream-1", endTime, nil)
	require.NoError(t, err)
	require.False(t, ended)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLiveStreamRepositoryJoinIsIdempotent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLiveStreamRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO live_stream_attendance (stream_id, user_id, joined_at) VALUES ($1, $2, $3) ON CONFLICT (stream_id, user_id) DO NOTHING")).
		WithArgs("stream-1", "stu-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Join(context.Background(), "stream-1", "stu-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
