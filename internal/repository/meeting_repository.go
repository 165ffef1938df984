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

const meetingColumns = `id, organizer_id, scheduled_time, notes, type, created_at, updated_at`

// MeetingRepository provides database access for meetings and participants.
type MeetingRepository struct {
	db *sqlx.DB
}

// NewMeetingRepository creates a new instance of MeetingRepository.
func NewMeetingRepository(db *sqlx.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

// Create inserts a meeting and its participant rows in one transaction. The
// organizer is always included as a participant.
func (r *MeetingRepository) Create(ctx context.Context, meeting *models.Meeting, participantIDs []string) error {
	if meeting.ID == "" {
		meeting.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	meeting.CreatedAt = now
	meeting.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin meeting create: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertQuery = `INSERT INTO meetings (id, organizer_id, scheduled_time, notes, type, created_at, updated_at)
		VALUES (:id, :organizer_id, :scheduled_time, :notes, :type, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertQuery, meeting); err != nil {
		return fmt.Errorf("create meeting: %w", err)
	}

	ids := append([]string{meeting.OrganizerID}, participantIDs...)
	const participantQuery = `INSERT INTO meeting_participants (meeting_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, participantQuery, meeting.ID, id); err != nil {
			return fmt.Errorf("add meeting participant: %w", err)
		}
	}

	return tx.Commit()
}

// FindByID returns a meeting by identifier.
func (r *MeetingRepository) FindByID(ctx context.Context, id string) (*models.Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE id = $1 LIMIT 1`
	var meeting models.Meeting
	if err := r.db.GetContext(ctx, &meeting, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find meeting by id: %w", err)
	}
	return &meeting, nil
}

// FindDetailByID returns a meeting with organizer and participants expanded.
func (r *MeetingRepository) FindDetailByID(ctx context.Context, id string) (*models.MeetingDetail, error) {
	meeting, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &models.MeetingDetail{Meeting: *meeting}

	const organizerQuery = `SELECT id, full_name, email, role FROM users WHERE id = $1`
	var organizer models.UserSummary
	if err := r.db.GetContext(ctx, &organizer, organizerQuery, meeting.OrganizerID); err == nil {
		detail.Organizer = &organizer
	} else if err != sql.ErrNoRows {
		return nil, fmt.Errorf("find meeting organizer: %w", err)
	}

	const participantQuery = `SELECT u.id, u.full_name, u.email, u.role FROM users u JOIN meeting_participants mp ON mp.user_id = u.id WHERE mp.meeting_id = $1 ORDER BY u.full_name`
	if err := r.db.SelectContext(ctx, &detail.Participants, participantQuery, id); err != nil {
		return nil, fmt.Errorf("list meeting participants: %w", err)
	}

	return detail, nil
}

// List returns meetings visible to a participant, with total count.
func (r *MeetingRepository) List(ctx context.Context, filter models.MeetingFilter) ([]models.Meeting, int, error) {
	baseQuery := `FROM meetings WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.ParticipantID != "" {
		conditions = append(conditions, fmt.Sprintf("id IN (SELECT meeting_id FROM meeting_participants WHERE user_id = $%d)", len(args)+1))
		args = append(args, filter.ParticipantID)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("scheduled_time >= $%d", len(args)+1))
		args = append(args, *filter.StartDate)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	p := models.NewPagination(filter.Page, filter.Limit, 0)
	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY scheduled_time LIMIT %d OFFSET %d", meetingColumns, baseQuery, p.Limit, p.Offset())

	var meetings []models.Meeting
	if err := r.db.SelectContext(ctx, &meetings, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list meetings: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count meetings: %w", err)
	}

	return meetings, total, nil
}

// Update persists the mutable meeting fields and replaces the participant set
// when participantIDs is non-nil.
func (r *MeetingRepository) Update(ctx context.Context, meeting *models.Meeting, participantIDs []string) error {
	meeting.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin meeting update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `UPDATE meetings SET scheduled_time = :scheduled_time, notes = :notes, type = :type, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, meeting); err != nil {
		return fmt.Errorf("update meeting: %w", err)
	}

	if participantIDs != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM meeting_participants WHERE meeting_id = $1`, meeting.ID); err != nil {
			return fmt.Errorf("clear meeting participants: %w", err)
		}
		ids := append([]string{meeting.OrganizerID}, participantIDs...)
		const participantQuery = `INSERT INTO meeting_participants (meeting_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx, participantQuery, meeting.ID, id); err != nil {
				return fmt.Errorf("add meeting participant: %w", err)
			}
		}
	}

	return tx.Commit()
}

// Delete removes a meeting and its participant rows.
func (r *MeetingRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin meeting delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM meeting_participants WHERE meeting_id = $1`, id); err != nil {
		return fmt.Errorf("delete meeting participants: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM meetings WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete meeting: %w", err)
	}

	return tx.Commit()
}
