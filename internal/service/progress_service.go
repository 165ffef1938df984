package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-platform-api/internal/models"
	"github.com/noah-isme/edu-platform-api/pkg/config"
	appErrors "github.com/noah-isme/edu-platform-api/pkg/errors"
)

type progressCourseRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Course, error)
	ListRecommended(ctx context.Context, studentID, stageLevel string, limit int) ([]models.Course, error)
}

type progressCounter interface {
	CountByCourse(ctx context.Context, courseID, studentID string) (total, completed int, err error)
}

type cacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type cacheObserver interface {
	RecordCacheOperation(hit bool)
}

const recommendedCoursesLimit = 5

// ProgressService aggregates per-course completion for students. Results are
// cached per student and invalidated on every submission or enrollment change.
type ProgressService struct {
	courses     progressCourseRepository
	assignments progressCounter
	quizzes     progressCounter
	cache       cacheStore
	metrics     cacheObserver
	cacheCfg    config.CacheConfig
	logger      *zap.Logger
}

// NewProgressService constructs ProgressService.
func NewProgressService(courses progressCourseRepository, assignments, quizzes progressCounter, cache cacheStore, metrics cacheObserver, cacheCfg config.CacheConfig, logger *zap.Logger) *ProgressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressService{courses: courses, assignments: assignments, quizzes: quizzes, cache: cache, metrics: metrics, cacheCfg: cacheCfg, logger: logger}
}

func progressCacheKey(studentID string) string {
	return fmt.Sprintf("progress:student:%s", studentID)
}

// Overview returns completion stats for each of the student's courses.
func (s *ProgressService) Overview(ctx context.Context, studentID string) ([]models.CourseProgress, error) {
	if s.cacheEnabled() {
		var cached []models.CourseProgress
		switch err := s.cache.Get(ctx, progressCacheKey(studentID), &cached); err {
		case nil:
			s.observeCache(true)
			return cached, nil
		case appErrors.ErrCacheMiss:
			s.observeCache(false)
		default:
			s.logger.Warn("progress cache read failed", zap.String("student_id", studentID), zap.Error(err))
		}
	}

	courses, err := s.courses.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrolled courses")
	}

	progress := make([]models.CourseProgress, 0, len(courses))
	for _, course := range courses {
		aTotal, aDone, err := s.assignments.CountByCourse(ctx, course.ID, studentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count assignments")
		}
		qTotal, qDone, err := s.quizzes.CountByCourse(ctx, course.ID, studentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count quizzes")
		}
		progress = append(progress, models.CourseProgress{
			CourseID:           course.ID,
			CourseTitle:        course.Title,
			AssignmentProgress: models.NewProgressStat(aDone, aTotal),
			QuizProgress:       models.NewProgressStat(qDone, qTotal),
		})
	}

	if s.cacheEnabled() {
		if err := s.cache.Set(ctx, progressCacheKey(studentID), progress, s.cacheCfg.TTL); err != nil {
			s.logger.Warn("progress cache write failed", zap.String("student_id", studentID), zap.Error(err))
		}
	}
	return progress, nil
}

// Recommended returns courses matching the student's stage that they have not
// enrolled in yet.
func (s *ProgressService) Recommended(ctx context.Context, student *models.User) ([]models.Course, error) {
	stageLevel := ""
	if student.Stage != nil {
		stageLevel = student.Stage.Level
	}
	if stageLevel == "" {
		return []models.Course{}, nil
	}

	courses, err := s.courses.ListRecommended(ctx, student.ID, stageLevel, recommendedCoursesLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list recommendations")
	}
	return courses, nil
}

// InvalidateStudent drops the student's cached progress.
func (s *ProgressService) InvalidateStudent(ctx context.Context, studentID string) {
	if !s.cacheEnabled() {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, progressCacheKey(studentID)); err != nil {
		s.logger.Warn("progress cache invalidation failed", zap.String("student_id", studentID), zap.Error(err))
	}
}

func (s *ProgressService) cacheEnabled() bool {
	return s.cache != nil && s.cacheCfg.Enabled
}

func (s *ProgressService) observeCache(hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(hit)
	}
}
