package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/registrar-api/internal/domain"
	"github.com/phrazzld/registrar-api/internal/store"
)

// QueryService provides read-only projections over the committed enrollment
// state. It never mutates anything; mutations are serialized and
// transactional in the EnrollmentService, so these reads cannot observe a
// half-applied two-sided update.
type QueryService interface {
	// AvailableCourses returns all courses whose student set does not
	// contain the student. Returns store.ErrStudentNotFound if the student
	// does not resolve.
	AvailableCourses(ctx context.Context, studentID uuid.UUID) ([]*domain.Course, error)

	// EnrolledCourses returns the courses referenced by the student's
	// course set. Returns store.ErrStudentNotFound if the student does not
	// resolve.
	EnrolledCourses(ctx context.Context, studentID uuid.UUID) ([]*domain.Course, error)

	// NotEnrolledStudents returns all students outside the course's student
	// set. The reserved administrative account is excluded, consistent with
	// every other public student listing. Returns store.ErrCourseNotFound
	// if the course does not resolve.
	NotEnrolledStudents(ctx context.Context, courseID uuid.UUID) ([]*domain.Student, error)
}

// queryServiceImpl implements QueryService.
type queryServiceImpl struct {
	studentStore store.StudentStore
	courseStore  store.CourseStore
	logger       *slog.Logger
}

var _ QueryService = (*queryServiceImpl)(nil)

// NewQueryService creates a new QueryService.
func NewQueryService(
	studentStore store.StudentStore,
	courseStore store.CourseStore,
	logger *slog.Logger,
) (QueryService, error) {
	if studentStore == nil {
		return nil, domain.NewValidationError("studentStore", "cannot be nil", domain.ErrValidation)
	}
	if courseStore == nil {
		return nil, domain.NewValidationError("courseStore", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &queryServiceImpl{
		studentStore: studentStore,
		courseStore:  courseStore,
		logger:       logger.With(slog.String("component", "query_service")),
	}, nil
}

// AvailableCourses implements QueryService.AvailableCourses.
func (s *queryServiceImpl) AvailableCourses(
	ctx context.Context,
	studentID uuid.UUID,
) ([]*domain.Course, error) {
	// Resolve the student first so a missing ID is a NotFound, not an
	// empty result.
	if _, err := s.studentStore.GetByID(ctx, studentID); err != nil {
		return nil, err
	}
	return s.courseStore.ListAvailable(ctx, studentID)
}

// EnrolledCourses implements QueryService.EnrolledCourses.
func (s *queryServiceImpl) EnrolledCourses(
	ctx context.Context,
	studentID uuid.UUID,
) ([]*domain.Course, error) {
	if _, err := s.studentStore.GetByID(ctx, studentID); err != nil {
		return nil, err
	}
	return s.courseStore.ListEnrolled(ctx, studentID)
}

// NotEnrolledStudents implements QueryService.NotEnrolledStudents.
func (s *queryServiceImpl) NotEnrolledStudents(
	ctx context.Context,
	courseID uuid.UUID,
) ([]*domain.Student, error) {
	if _, err := s.courseStore.GetByID(ctx, courseID); err != nil {
		return nil, err
	}
	return s.studentStore.ListNotEnrolled(ctx, courseID)
}
