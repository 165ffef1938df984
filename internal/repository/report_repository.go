package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-platform-api/internal/models"
)

const reportColumns = `id, type, content, generated_by, reference_id, created_at`

// ReportRepository provides database access for generated reports.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new instance of ReportRepository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create persists a generated report.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	report.CreatedAt = time.Now().UTC()

	const query = `INSERT INTO reports (id, type, content, generated_by, reference_id, created_at)
		VALUES (:id, :type, :content, :generated_by, :reference_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

// FindByID returns a report by identifier.
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1 LIMIT 1`
	var report models.Report
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find report by id: %w", err)
	}
	return &report, nil
}

// ListByUser returns reports generated by a user, newest first.
func (r *ReportRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE generated_by = $1 ORDER BY created_at DESC LIMIT $2`
	var reports []models.Report
	if err := r.db.SelectContext(ctx, &reports, query, userID, limit); err != nil {
		return nil, fmt.Errorf("list reports by user: %w", err)
	}
	return reports, nil
}
