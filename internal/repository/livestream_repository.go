package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-platform-api/internal/models"
)

const liveStreamColumns = `id, course_id, conducted_by, title, description, start_time, end_time, recording_url, created_at`

// LiveStreamRepository provides database access for live streams and
// attendance.
type LiveStreamRepository struct {
	db *sqlx.DB
}

// NewLiveStreamRepository creates a new instance of LiveStreamRepository.
func NewLiveStreamRepository(db *sqlx.DB) *LiveStreamRepository {
	return &LiveStreamRepository{db: db}
}

// Create inserts a new stream and records the conductor as first attendee in
// the same transaction.
func (r *LiveStreamRepository) Create(ctx context.Context, stream *models.LiveStream) error {
	if stream.ID == "" {
		stream.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	stream.CreatedAt = now
	if stream.StartTime.IsZero() {
		stream.StartTime = now
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin stream create: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertQuery = `INSERT INTO live_streams (id, course_id, conducted_by, title, description, start_time, end_time, recording_url, created_at)
		VALUES (:id, :course_id, :conducted_by, :title, :description, :start_time, :end_time, :recording_url, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insertQuery, stream); err != nil {
		return fmt.Errorf("create stream: %w", err)
	}

	const attendQuery = `INSERT INTO live_stream_attendance (stream_id, user_id, joined_at) VALUES ($1, $2, $3)`
	if _, err := tx.ExecContext(ctx, attendQuery, stream.ID, stream.ConductedBy, now); err != nil {
		return fmt.Errorf("record conductor attendance: %w", err)
	}

	return tx.Commit()
}

// FindByID returns a stream by identifier.
func (r *LiveStreamRepository) FindByID(ctx context.Context, id string) (*models.LiveStream, error) {
	query := `SELECT ` + liveStreamColumns + ` FROM live_streams WHERE id = $1 LIMIT 1`
	var stream models.LiveStream
	if err := r.db.GetContext(ctx, &stream, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find stream by id: %w", err)
	}
	return &stream, nil
}

// FindDetailByID returns a stream with conductor, course title and attendance.
func (r *LiveStreamRepository) FindDetailByID(ctx context.Context, id string) (*models.LiveStreamDetail, error) {
	query := `SELECT ` + prefixColumns("s", liveStreamColumns) + `, c.title AS course_title
		FROM live_streams s JOIN courses c ON c.id = s.course_id WHERE s.id = $1 LIMIT 1`
	var detail models.LiveStreamDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find stream detail: %w", err)
	}

	const conductorQuery = `SELECT id, full_name, email, role FROM users WHERE id = $1`
	var conductor models.UserSummary
	if err := r.db.GetContext(ctx, &conductor, conductorQuery, detail.ConductedBy); err == nil {
		detail.Conductor = &conductor
	} else if err != sql.ErrNoRows {
		return nil, fmt.Errorf("find stream conductor: %w", err)
	}

	attendance, err := r.ListAttendance(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Attendance = attendance

	return &detail, nil
}

// List returns streams based on filters with total count.
func (r *LiveStreamRepository) List(ctx context.Context, filter models.LiveStreamFilter) ([]models.LiveStream, int, error) {
	baseQuery := `FROM live_streams WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.ActiveOnly {
		conditions = append(conditions, "end_time IS NULL")
	}
	if filter.EnrolledStudentID != "" {
		conditions = append(conditions, fmt.Sprintf("course_id IN (SELECT course_id FROM course_students WHERE student_id = $%d)", len(args)+1))
		args = append(args, filter.EnrolledStudentID)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	p := models.NewPagination(filter.Page, filter.Limit, 0)
	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY start_time DESC LIMIT %d OFFSET %d", liveStreamColumns, baseQuery, p.Limit, p.Offset())

	var streams []models.LiveStream
	if err := r.db.SelectContext(ctx, &streams, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list streams: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count streams: %w", err)
	}

	return streams, total, nil
}

// Join records a user in the stream's attendance. Joining twice is a no-op.
func (r *LiveStreamRepository) Join(ctx context.Context, streamID, userID string) error {
	const query = `INSERT INTO live_stream_attendance (stream_id, user_id, joined_at) VALUES ($1, $2, $3) ON CONFLICT (stream_id, user_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, streamID, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("join stream: %w", err)
	}
	return nil
}

// ListAttendance returns the users who joined the stream.
func (r *LiveStreamRepository) ListAttendance(ctx context.Context, streamID string) ([]models.UserSummary, error) {
	const query = `SELECT u.id, u.full_name, u.email, u.role FROM users u JOIN live_stream_attendance a ON a.user_id = u.id WHERE a.stream_id = $1 ORDER BY a.joined_at`
	var attendance []models.UserSummary
	if err := r.db.SelectContext(ctx, &attendance, query, streamID); err != nil {
		return nil, fmt.Errorf("list stream attendance: %w", err)
	}
	return attendance, nil
}

// End closes a stream that is still running. It reports false when the stream
// had already ended.
func (r *LiveStreamRepository) End(ctx context.Context, streamID string, endTime time.Time, recordingURL *string) (bool, error) {
	const query = `UPDATE live_streams SET end_time = $2, recording_url = COALESCE($3, recording_url) WHERE id = $1 AND end_time IS NULL`
	res, err := r.db.ExecContext(ctx, query, streamID, endTime, recordingURL)
	if err != nil {
		return false, fmt.Errorf("end stream: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("end stream: %w", err)
	}
	return rows > 0, nil
}
