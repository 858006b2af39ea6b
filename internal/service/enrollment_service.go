package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/registrar-api/internal/domain"
	"github.com/phrazzld/registrar-api/internal/platform/logger"
	"github.com/phrazzld/registrar-api/internal/store"
)

// TxRunner executes a function within a database transaction. It exists so
// services can be tested without a live *sql.DB; production wiring uses
// NewDBTxRunner.
type TxRunner func(ctx context.Context, fn store.TxFn) error

// NewDBTxRunner returns a TxRunner backed by store.RunInTransaction on the
// given database handle.
func NewDBTxRunner(db *sql.DB) TxRunner {
	return func(ctx context.Context, fn store.TxFn) error {
		return store.RunInTransaction(ctx, db, fn)
	}
}

// EnrollmentService coordinates the bidirectional student-course
// relationship. It is the sole writer of both reference sets and guarantees
// the mutual-reference invariant: after any completed operation, a course ID
// is in a student's course set exactly when the student's ID is in that
// course's student set.
//
// All operations are idempotent: applying the same Enroll or Drop twice is a
// no-op, never an error or a duplicate entry.
type EnrollmentService interface {
	// Enroll adds the course to the student's course set and the student to
	// the course's student set. Both writes happen in one transaction, so a
	// failed enroll never leaves a one-sided reference.
	// Returns store.ErrStudentNotFound / store.ErrCourseNotFound if either
	// side does not resolve.
	Enroll(ctx context.Context, studentID, courseID uuid.UUID) (*domain.Student, *domain.Course, error)

	// Drop is the symmetric removal. Dropping a non-existent enrollment
	// succeeds as a no-op.
	Drop(ctx context.Context, studentID, courseID uuid.UUID) (*domain.Student, *domain.Course, error)

	// DeleteStudent removes the student's ID from every course it
	// references, then removes the student record. Per-course cascade
	// failures do not abort the deletion of other references or of the
	// student itself; they are surfaced as a *CascadeError.
	DeleteStudent(ctx context.Context, studentID uuid.UUID) error

	// DeleteCourse is the symmetric cascading delete of a course.
	DeleteCourse(ctx context.Context, courseID uuid.UUID) error
}

// enrollmentServiceImpl implements EnrollmentService.
type enrollmentServiceImpl struct {
	studentStore store.StudentStore
	courseStore  store.CourseStore
	runInTx      TxRunner
	locks        *entityLocks
	logger       *slog.Logger
}

var _ EnrollmentService = (*enrollmentServiceImpl)(nil)

// NewEnrollmentService creates a new EnrollmentService.
// Returns an error if any required dependency is nil.
func NewEnrollmentService(
	studentStore store.StudentStore,
	courseStore store.CourseStore,
	runInTx TxRunner,
	logger *slog.Logger,
) (EnrollmentService, error) {
	if studentStore == nil {
		return nil, domain.NewValidationError("studentStore", "cannot be nil", domain.ErrValidation)
	}
	if courseStore == nil {
		return nil, domain.NewValidationError("courseStore", "cannot be nil", domain.ErrValidation)
	}
	if runInTx == nil {
		return nil, domain.NewValidationError("runInTx", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &enrollmentServiceImpl{
		studentStore: studentStore,
		courseStore:  courseStore,
		runInTx:      runInTx,
		locks:        newEntityLocks(),
		logger:       logger.With(slog.String("component", "enrollment_service")),
	}, nil
}

// Enroll implements EnrollmentService.Enroll.
func (s *enrollmentServiceImpl) Enroll(
	ctx context.Context,
	studentID, courseID uuid.UUID,
) (*domain.Student, *domain.Course, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Hold both entity locks for the whole two-sided update so concurrent
	// mutations on either entity cannot interleave.
	unlock := s.locks.lockPair(studentID, courseID)
	defer unlock()

	student, err := s.studentStore.GetByID(ctx, studentID)
	if err != nil {
		return nil, nil, err
	}
	course, err := s.courseStore.GetByID(ctx, courseID)
	if err != nil {
		return nil, nil, err
	}

	// Already enrolled: succeed without touching state.
	if student.EnrolledIn(courseID) {
		log.Debug("student already enrolled, no-op",
			slog.String("student_id", studentID.String()),
			slog.String("course_id", courseID.String()))
		return student, course, nil
	}

	err = s.runInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.studentStore.WithTx(tx).AddCourseRef(ctx, studentID, courseID); err != nil {
			return fmt.Errorf("failed to add course reference: %w", err)
		}
		if err := s.courseStore.WithTx(tx).AddStudentRef(ctx, courseID, studentID); err != nil {
			return fmt.Errorf("failed to add student reference: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Error("enroll failed",
			slog.String("error", err.Error()),
			slog.String("student_id", studentID.String()),
			slog.String("course_id", courseID.String()))
		return nil, nil, err
	}

	student.Courses = append(student.Courses, courseID)
	course.Students = append(course.Students, studentID)

	log.Info("student enrolled in course",
		slog.Int64("student_number", student.StudentNumber),
		slog.String("course_code", course.CourseCode))
	return student, course, nil
}

// Drop implements EnrollmentService.Drop.
func (s *enrollmentServiceImpl) Drop(
	ctx context.Context,
	studentID, courseID uuid.UUID,
) (*domain.Student, *domain.Course, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	unlock := s.locks.lockPair(studentID, courseID)
	defer unlock()

	student, err := s.studentStore.GetByID(ctx, studentID)
	if err != nil {
		return nil, nil, err
	}
	course, err := s.courseStore.GetByID(ctx, courseID)
	if err != nil {
		return nil, nil, err
	}

	// Not enrolled: dropping is a no-op, not an error.
	if !student.EnrolledIn(courseID) {
		log.Debug("student not enrolled, drop is a no-op",
			slog.String("student_id", studentID.String()),
			slog.String("course_id", courseID.String()))
		return student, course, nil
	}

	err = s.runInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.studentStore.WithTx(tx).RemoveCourseRef(ctx, studentID, courseID); err != nil {
			return fmt.Errorf("failed to remove course reference: %w", err)
		}
		if err := s.courseStore.WithTx(tx).RemoveStudentRef(ctx, courseID, studentID); err != nil {
			return fmt.Errorf("failed to remove student reference: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Error("drop failed",
			slog.String("error", err.Error()),
			slog.String("student_id", studentID.String()),
			slog.String("course_id", courseID.String()))
		return nil, nil, err
	}

	student.Courses = removeID(student.Courses, courseID)
	course.Students = removeID(course.Students, studentID)

	log.Info("student dropped course",
		slog.Int64("student_number", student.StudentNumber),
		slog.String("course_code", course.CourseCode))
	return student, course, nil
}

// DeleteStudent implements EnrollmentService.DeleteStudent.
//
// The cascade runs to completion before the student record is removed: every
// referenced course has its back-reference removal attempted, failures are
// collected rather than aborting, and only then is the student deleted. This
// ordering is what prevents courses from holding forward references to a
// student that no longer resolves.
func (s *enrollmentServiceImpl) DeleteStudent(ctx context.Context, studentID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	unlock := s.locks.lock(studentID)
	defer unlock()

	student, err := s.studentStore.GetByID(ctx, studentID)
	if err != nil {
		return err
	}

	// Holding the student lock for the whole cascade serializes it against
	// any two-sided mutation involving this student. The per-course removals
	// are single-row deletes and deliberately do not take the course lock:
	// acquiring it here while Enroll acquires locks in byte order would
	// invite deadlock.
	var failed []uuid.UUID
	var failures []error
	for _, courseID := range student.Courses {
		if err := s.courseStore.RemoveStudentRef(ctx, courseID, studentID); err != nil {
			log.Warn("cascade removal failed, continuing",
				slog.String("error", err.Error()),
				slog.String("student_id", studentID.String()),
				slog.String("course_id", courseID.String()))
			failed = append(failed, courseID)
			failures = append(failures, err)
			continue
		}
		log.Debug("removed student from course",
			slog.Int64("student_number", student.StudentNumber),
			slog.String("course_id", courseID.String()))
	}

	if err := s.studentStore.Delete(ctx, studentID); err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}

	log.Info("student deleted",
		slog.Int64("student_number", student.StudentNumber),
		slog.Int("cascade_failures", len(failed)))

	if len(failed) > 0 {
		return &CascadeError{
			Entity:    "student",
			DeletedID: studentID,
			Failed:    failed,
			Errs:      failures,
		}
	}
	return nil
}

// DeleteCourse implements EnrollmentService.DeleteCourse with the policy
// symmetric to DeleteStudent.
func (s *enrollmentServiceImpl) DeleteCourse(ctx context.Context, courseID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	unlock := s.locks.lock(courseID)
	defer unlock()

	course, err := s.courseStore.GetByID(ctx, courseID)
	if err != nil {
		return err
	}

	// Same locking policy as DeleteStudent: hold only the course lock and
	// rely on single-row deletes for the per-student removals.
	var failed []uuid.UUID
	var failures []error
	for _, studentID := range course.Students {
		if err := s.studentStore.RemoveCourseRef(ctx, studentID, courseID); err != nil {
			log.Warn("cascade removal failed, continuing",
				slog.String("error", err.Error()),
				slog.String("course_id", courseID.String()),
				slog.String("student_id", studentID.String()))
			failed = append(failed, studentID)
			failures = append(failures, err)
			continue
		}
		log.Debug("removed course from student",
			slog.String("course_code", course.CourseCode),
			slog.String("student_id", studentID.String()))
	}

	if err := s.courseStore.Delete(ctx, courseID); err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	log.Info("course deleted",
		slog.String("course_code", course.CourseCode),
		slog.Int("cascade_failures", len(failed)))

	if len(failed) > 0 {
		return &CascadeError{
			Entity:    "course",
			DeletedID: courseID,
			Failed:    failed,
			Errs:      failures,
		}
	}
	return nil
}

// removeID returns ids without the given id, preserving order.
func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
