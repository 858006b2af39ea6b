package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/registrar-api/internal/domain"
	"github.com/phrazzld/registrar-api/internal/platform/logger"
	"github.com/phrazzld/registrar-api/internal/store"
)

// CourseService provides course CRUD operations. Deleting a course goes
// through the EnrollmentService so the cascade policy applies.
type CourseService interface {
	// CreateCourse validates and persists a new course.
	CreateCourse(ctx context.Context, course *domain.Course) error

	// GetCourse retrieves a course by ID with its student-reference set.
	GetCourse(ctx context.Context, id uuid.UUID) (*domain.Course, error)

	// ListCourses returns all courses.
	ListCourses(ctx context.Context) ([]*domain.Course, error)

	// UpdateCourse replaces the course's record fields.
	UpdateCourse(ctx context.Context, course *domain.Course) error
}

// courseServiceImpl implements CourseService.
type courseServiceImpl struct {
	courseStore store.CourseStore
	logger      *slog.Logger
}

var _ CourseService = (*courseServiceImpl)(nil)

// NewCourseService creates a new CourseService.
func NewCourseService(courseStore store.CourseStore, logger *slog.Logger) (CourseService, error) {
	if courseStore == nil {
		return nil, domain.NewValidationError("courseStore", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &courseServiceImpl{
		courseStore: courseStore,
		logger:      logger.With(slog.String("component", "course_service")),
	}, nil
}

// CreateCourse implements CourseService.CreateCourse.
func (s *courseServiceImpl) CreateCourse(ctx context.Context, course *domain.Course) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := course.Validate(); err != nil {
		return err
	}

	if err := s.courseStore.Create(ctx, course); err != nil {
		return err
	}

	log.Info("course created",
		slog.String("course_code", course.CourseCode),
		slog.String("course_id", course.ID.String()))
	return nil
}

// GetCourse implements CourseService.GetCourse.
func (s *courseServiceImpl) GetCourse(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	return s.courseStore.GetByID(ctx, id)
}

// ListCourses implements CourseService.ListCourses.
func (s *courseServiceImpl) ListCourses(ctx context.Context) ([]*domain.Course, error) {
	return s.courseStore.List(ctx)
}

// UpdateCourse implements CourseService.UpdateCourse.
func (s *courseServiceImpl) UpdateCourse(ctx context.Context, course *domain.Course) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := course.Validate(); err != nil {
		return err
	}

	if err := s.courseStore.Update(ctx, course); err != nil {
		return err
	}

	log.Info("course updated",
		slog.String("course_code", course.CourseCode),
		slog.String("course_id", course.ID.String()))
	return nil
}
