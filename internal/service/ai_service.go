package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-platform-api/internal/models"
	"github.com/noah-isme/edu-platform-api/pkg/ai"
	appErrors "github.com/noah-isme/edu-platform-api/pkg/errors"
	"github.com/noah-isme/edu-platform-api/pkg/export"
)

type scoreReader interface {
	ListGradedByStudentAndCourse(ctx context.Context, studentID, courseID string) ([]models.ScoreLine, error)
}

type quizScoreReader interface {
	ListScoredByStudentAndCourse(ctx context.Context, studentID, courseID string) ([]models.ScoreLine, error)
}

type reportWriter interface {
	Create(ctx context.Context, report *models.Report) error
	FindByID(ctx context.Context, id string) (*models.Report, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Report, error)
}

type aiUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// GenerateBlogRequest asks for drafted teaching content.
type GenerateBlogRequest struct {
	Topic    string `json:"topic" validate:"required"`
	Audience string `json:"audience"`
	Tone     string `json:"tone"`
}

// TranslateRequest asks for a translation of arbitrary content.
type TranslateRequest struct {
	Text       string `json:"text" validate:"required"`
	TargetLang string `json:"targetLanguage" validate:"required"`
}

// StudyReportRequest asks for an analysed progress report.
type StudyReportRequest struct {
	StudentID string `json:"student" validate:"required"`
	CourseID  string `json:"course" validate:"required"`
	Timeframe string `json:"timeframe"`
}

// TranscribeRequest asks for a transcript of an audio or video resource.
type TranscribeRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// AIService wraps the completion backend for content generation and reports.
type AIService struct {
	client      ai.Client
	users       aiUserReader
	courses     courseReader
	assignments scoreReader
	quizzes     quizScoreReader
	reports     reportWriter
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAIService constructs AIService.
func NewAIService(client ai.Client, users aiUserReader, courses courseReader, assignments scoreReader, quizzes quizScoreReader, reports reportWriter, validate *validator.Validate, logger *zap.Logger) *AIService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AIService{
		client:      client,
		users:       users,
		courses:     courses,
		assignments: assignments,
		quizzes:     quizzes,
		reports:     reports,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		validator:   validate,
		logger:      logger,
	}
}

// GenerateBlog drafts educational blog content on a topic.
func (s *AIService) GenerateBlog(ctx context.Context, req GenerateBlogRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Topic is required")
	}

	system := "You are an educational content writer. Produce clear, well-structured blog posts for students and teachers."
	prompt := fmt.Sprintf("Write a blog post about %q.", req.Topic)
	if req.Audience != "" {
		prompt += fmt.Sprintf(" The audience is %s.", req.Audience)
	}
	if req.Tone != "" {
		prompt += fmt.Sprintf(" Use a %s tone.", req.Tone)
	}

	content, err := s.client.Complete(ctx, system, prompt)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate content")
	}
	return content, nil
}

// Translate converts text into the target language.
func (s *AIService) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Text and target language are required")
	}

	system := "You are a precise translator. Return only the translated text without commentary."
	prompt := fmt.Sprintf("Translate the following text to %s:\n\n%s", req.TargetLang, req.Text)

	translated, err := s.client.Complete(ctx, system, prompt)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to translate")
	}
	return translated, nil
}

// Transcribe returns a transcript for the referenced audio resource.
func (s *AIService) Transcribe(ctx context.Context, req TranscribeRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "A valid URL is required")
	}
	transcript, err := s.client.Transcribe(ctx, req.URL)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to transcribe")
	}
	return transcript, nil
}

// StudyReport aggregates the student's graded work for a course, analyses it
// and persists the generated report.
func (s *AIService) StudyReport(ctx context.Context, requester *models.User, req StudyReportRequest) (*models.Report, *models.ProgressReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Student and course are required")
	}

	student, err := s.users.FindByID(ctx, req.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "Student not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "Course not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	assignmentScores, err := s.assignments.ListGradedByStudentAndCourse(ctx, req.StudentID, req.CourseID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment scores")
	}
	quizScores, err := s.quizzes.ListScoredByStudentAndCourse(ctx, req.StudentID, req.CourseID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz scores")
	}

	perf := models.PerformanceData{Assignments: assignmentScores, Quizzes: quizScores}
	analysis, err := s.client.Complete(ctx,
		"You are an educational analyst. Summarise the student's performance, highlight strengths and weaknesses and suggest next steps.",
		buildReportPrompt(student.FullName, course.Title, req.Timeframe, perf),
	)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to analyse performance")
	}

	progressReport := &models.ProgressReport{
		StudentName:     student.FullName,
		CourseName:      course.Title,
		Timeframe:       req.Timeframe,
		PerformanceData: perf,
		AIAnalysis:      analysis,
	}

	content, err := json.Marshal(progressReport)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode report")
	}
	report := &models.Report{
		Type:        models.ReportStudent,
		Content:     content,
		GeneratedBy: requester.ID,
		ReferenceID: &req.StudentID,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist report")
	}

	s.logger.Info("study report generated", zap.String("report_id", report.ID), zap.String("student_id", req.StudentID))
	return report, progressReport, nil
}

// Reports returns reports generated by the caller, newest first.
func (s *AIService) Reports(ctx context.Context, userID string, limit int) ([]models.Report, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	reports, err := s.reports.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}
	return reports, nil
}

// ExportReport renders a persisted report as CSV or PDF.
func (s *AIService) ExportReport(ctx context.Context, reportID, format string) ([]byte, string, error) {
	report, err := s.reports.FindByID(ctx, reportID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "Report not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}

	var progressReport models.ProgressReport
	if err := json.Unmarshal(report.Content, &progressReport); err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode report")
	}

	dataset := reportDataset(&progressReport)
	switch format {
	case "csv":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	case "pdf":
		title := fmt.Sprintf("Progress report: %s - %s", progressReport.StudentName, progressReport.CourseName)
		payload, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "Unsupported export format")
	}
}

func buildReportPrompt(studentName, courseName, timeframe string, perf models.PerformanceData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Student: %s\nCourse: %s\n", studentName, courseName)
	if timeframe != "" {
		fmt.Fprintf(&b, "Timeframe: %s\n", timeframe)
	}
	b.WriteString("\nAssignment grades:\n")
	if len(perf.Assignments) == 0 {
		b.WriteString("  (none graded yet)\n")
	}
	for _, line := range perf.Assignments {
		fmt.Fprintf(&b, "  %s: %s\n", line.Title, line.Score)
	}
	b.WriteString("\nQuiz scores:\n")
	if len(perf.Quizzes) == 0 {
		b.WriteString("  (no attempts yet)\n")
	}
	for _, line := range perf.Quizzes {
		fmt.Fprintf(&b, "  %s: %s\n", line.Title, line.Score)
	}
	return b.String()
}

func reportDataset(report *models.ProgressReport) export.Dataset {
	rows := make([]export.Row, 0, len(report.PerformanceData.Assignments)+len(report.PerformanceData.Quizzes))
	for _, line := range report.PerformanceData.Assignments {
		rows = append(rows, export.Row{Kind: "Assignment", Title: line.Title, Score: line.Score})
	}
	for _, line := range report.PerformanceData.Quizzes {
		rows = append(rows, export.Row{Kind: "Quiz", Title: line.Title, Score: line.Score})
	}
	return export.Dataset{Rows: rows}
}
