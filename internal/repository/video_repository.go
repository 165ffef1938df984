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

const videoColumns = `id, title, description, url, type, language, course_id, uploaded_by, created_at`

// VideoRepository provides database access for videos.
type VideoRepository struct {
	db *sqlx.DB
}

// NewVideoRepository creates a new instance of VideoRepository.
func NewVideoRepository(db *sqlx.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// Create inserts a new video.
func (r *VideoRepository) Create(ctx context.Context, video *models.Video) error {
	if video.ID == "" {
		video.ID = uuid.NewString()
	}
	video.CreatedAt = time.Now().UTC()

	const query = `INSERT INTO videos (id, title, description, url, type, language, course_id, uploaded_by, created_at)
		VALUES (:id, :title, :description, :url, :type, :language, :course_id, :uploaded_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, video); err != nil {
		return fmt.Errorf("create video: %w", err)
	}
	return nil
}

// FindByID returns a video by identifier.
func (r *VideoRepository) FindByID(ctx context.Context, id string) (*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id = $1 LIMIT 1`
	var video models.Video
	if err := r.db.GetContext(ctx, &video, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find video by id: %w", err)
	}
	return &video, nil
}

// FindDetailByID returns a video with its uploader and course title.
func (r *VideoRepository) FindDetailByID(ctx context.Context, id string) (*models.VideoDetail, error) {
	query := `SELECT ` + prefixColumns("v", videoColumns) + `, c.title AS course_title
		FROM videos v JOIN courses c ON c.id = v.course_id WHERE v.id = $1 LIMIT 1`
	var detail models.VideoDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find video detail: %w", err)
	}

	const uploaderQuery = `SELECT id, full_name, email, role FROM users WHERE id = $1`
	var uploader models.UserSummary
	if err := r.db.GetContext(ctx, &uploader, uploaderQuery, detail.UploadedBy); err == nil {
		detail.Uploader = &uploader
	} else if err != sql.ErrNoRows {
		return nil, fmt.Errorf("find video uploader: %w", err)
	}

	return &detail, nil
}

// List returns videos based on filters with total count.
func (r *VideoRepository) List(ctx context.Context, filter models.VideoFilter) ([]models.Video, int, error) {
	baseQuery := `FROM videos WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.Language != "" {
		conditions = append(conditions, fmt.Sprintf("language = $%d", len(args)+1))
		args = append(args, filter.Language)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	p := models.NewPagination(filter.Page, filter.Limit, 0)
	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", videoColumns, baseQuery, p.Limit, p.Offset())

	var videos []models.Video
	if err := r.db.SelectContext(ctx, &videos, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list videos: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count videos: %w", err)
	}

	return videos, total, nil
}

// Update persists the mutable video fields.
func (r *VideoRepository) Update(ctx context.Context, video *models.Video) error {
	const query = `UPDATE videos SET title = :title, description = :description, url = :url, type = :type, language = :language WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, video); err != nil {
		return fmt.Errorf("update video: %w", err)
	}
	return nil
}

// Delete removes a video.
func (r *VideoRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM videos WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	return nil
}
