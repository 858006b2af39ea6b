package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/registrar-api/internal/domain"
	"github.com/phrazzld/registrar-api/internal/platform/logger"
	"github.com/phrazzld/registrar-api/internal/store"
)

const courseColumns = `id, course_code, course_name, section, semester, created_at, updated_at`

// PostgresCourseStore implements the store.CourseStore interface
// using a PostgreSQL database as the storage backend.
//
// The course-side reference set lives in the course_students table, the
// mirror of student_courses.
type PostgresCourseStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCourseStore creates a new PostgreSQL implementation of the
// CourseStore interface. It accepts a database connection or transaction that
// should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresCourseStore(db store.DBTX, logger *slog.Logger) *PostgresCourseStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCourseStore{
		db:     db,
		logger: logger.With(slog.String("component", "course_store")),
	}
}

// Ensure PostgresCourseStore implements store.CourseStore interface
var _ store.CourseStore = (*PostgresCourseStore)(nil)

// WithTx implements store.CourseStore.WithTx
// It returns a new CourseStore instance using the provided transaction.
func (s *PostgresCourseStore) WithTx(tx *sql.Tx) store.CourseStore {
	return &PostgresCourseStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.CourseStore.Create
// Returns store.ErrCourseCodeExists if the course code is already taken.
func (s *PostgresCourseStore) Create(ctx context.Context, course *domain.Course) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := course.Validate(); err != nil {
		log.Warn("course validation failed during create",
			slog.String("error", err.Error()),
			slog.String("course_id", course.ID.String()))
		return err
	}

	query := `
		INSERT INTO courses (id, course_code, course_name, section, semester, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		course.ID,
		course.CourseCode,
		course.CourseName,
		course.Section,
		course.Semester,
		course.CreatedAt,
		course.UpdatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("duplicate course code during create",
				slog.String("course_code", course.CourseCode))
			return MapUniqueViolation(err, store.ErrCourseCodeExists)
		}

		log.Error("failed to create course",
			slog.String("error", err.Error()),
			slog.String("course_id", course.ID.String()))
		return MapError(err)
	}

	log.Info("course created successfully",
		slog.String("course_id", course.ID.String()),
		slog.String("course_code", course.CourseCode))
	return nil
}

// GetByID implements store.CourseStore.GetByID
// It retrieves a course by ID, including the course's student-reference set.
// Returns store.ErrCourseNotFound if the course does not exist.
func (s *PostgresCourseStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`

	course, err := s.scanCourse(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("course not found", slog.String("course_id", id.String()))
			return nil, store.ErrCourseNotFound
		}
		log.Error("failed to get course by ID",
			slog.String("error", err.Error()),
			slog.String("course_id", id.String()))
		return nil, MapError(err)
	}

	course.Students, err = s.GetStudentRefs(ctx, course.ID)
	if err != nil {
		return nil, err
	}

	return course, nil
}

// GetByCode implements store.CourseStore.GetByCode
// Returns store.ErrCourseNotFound if the course does not exist.
func (s *PostgresCourseStore) GetByCode(ctx context.Context, code string) (*domain.Course, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + courseColumns + ` FROM courses WHERE course_code = $1`

	course, err := s.scanCourse(s.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("course not found", slog.String("course_code", code))
			return nil, store.ErrCourseNotFound
		}
		log.Error("failed to get course by code",
			slog.String("error", err.Error()),
			slog.String("course_code", code))
		return nil, MapError(err)
	}

	course.Students, err = s.GetStudentRefs(ctx, course.ID)
	if err != nil {
		return nil, err
	}

	return course, nil
}

// List implements store.CourseStore.List
func (s *PostgresCourseStore) List(ctx context.Context) ([]*domain.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses ORDER BY course_code`
	return s.listCourses(ctx, query)
}

// ListAvailable implements store.CourseStore.ListAvailable
// It returns courses whose student-reference set does not contain studentID.
func (s *PostgresCourseStore) ListAvailable(
	ctx context.Context,
	studentID uuid.UUID,
) ([]*domain.Course, error) {
	query := `
		SELECT ` + courseColumns + `
		FROM courses
		WHERE id NOT IN (
			SELECT course_id FROM course_students WHERE student_id = $1
		)
		ORDER BY course_code
	`
	return s.listCourses(ctx, query, studentID)
}

// ListEnrolled implements store.CourseStore.ListEnrolled
// It resolves the student's own course-reference set, so the query reads
// student_courses: the student side defines this projection, even though the
// two halves agree whenever the invariant holds.
func (s *PostgresCourseStore) ListEnrolled(
	ctx context.Context,
	studentID uuid.UUID,
) ([]*domain.Course, error) {
	query := `
		SELECT ` + courseColumns + `
		FROM courses
		WHERE id IN (
			SELECT course_id FROM student_courses WHERE student_id = $1
		)
		ORDER BY course_code
	`
	return s.listCourses(ctx, query, studentID)
}

// Update implements store.CourseStore.Update
// Returns store.ErrCourseNotFound if the course does not exist.
// Returns store.ErrCourseCodeExists on a unique-constraint violation.
func (s *PostgresCourseStore) Update(ctx context.Context, course *domain.Course) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := course.Validate(); err != nil {
		log.Warn("course validation failed during update",
			slog.String("error", err.Error()),
			slog.String("course_id", course.ID.String()))
		return err
	}

	query := `
		UPDATE courses
		SET course_code = $1, course_name = $2, section = $3, semester = $4, updated_at = $5
		WHERE id = $6
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		course.CourseCode,
		course.CourseName,
		course.Section,
		course.Semester,
		time.Now().UTC(),
		course.ID,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("duplicate course code during update",
				slog.String("course_code", course.CourseCode))
			return MapUniqueViolation(err, store.ErrCourseCodeExists)
		}

		log.Error("failed to update course",
			slog.String("error", err.Error()),
			slog.String("course_id", course.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrCourseNotFound); err != nil {
		log.Debug("course not found for update",
			slog.String("course_id", course.ID.String()))
		return err
	}

	log.Info("course updated successfully",
		slog.String("course_id", course.ID.String()))
	return nil
}

// Delete implements store.CourseStore.Delete
// It removes the course record and the course's student-reference rows.
// Returns store.ErrCourseNotFound if the course does not exist.
func (s *PostgresCourseStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.db.ExecContext(
		ctx, `DELETE FROM course_students WHERE course_id = $1`, id,
	); err != nil {
		log.Error("failed to delete course student references",
			slog.String("error", err.Error()),
			slog.String("course_id", id.String()))
		return MapError(err)
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete course",
			slog.String("error", err.Error()),
			slog.String("course_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrCourseNotFound); err != nil {
		log.Debug("course not found for delete", slog.String("course_id", id.String()))
		return err
	}

	log.Info("course deleted successfully", slog.String("course_id", id.String()))
	return nil
}

// AddStudentRef implements store.CourseStore.AddStudentRef
// Adding a reference that is already present is a no-op.
func (s *PostgresCourseStore) AddStudentRef(ctx context.Context, courseID, studentID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO course_students (course_id, student_id)
		VALUES ($1, $2)
		ON CONFLICT (course_id, student_id) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, courseID, studentID); err != nil {
		log.Error("failed to add student reference",
			slog.String("error", err.Error()),
			slog.String("course_id", courseID.String()),
			slog.String("student_id", studentID.String()))
		return MapError(err)
	}

	return nil
}

// RemoveStudentRef implements store.CourseStore.RemoveStudentRef
// Removing an absent reference is a no-op.
func (s *PostgresCourseStore) RemoveStudentRef(ctx context.Context, courseID, studentID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM course_students WHERE course_id = $1 AND student_id = $2`
	if _, err := s.db.ExecContext(ctx, query, courseID, studentID); err != nil {
		log.Error("failed to remove student reference",
			slog.String("error", err.Error()),
			slog.String("course_id", courseID.String()),
			slog.String("student_id", studentID.String()))
		return MapError(err)
	}

	return nil
}

// GetStudentRefs implements store.CourseStore.GetStudentRefs
func (s *PostgresCourseStore) GetStudentRefs(
	ctx context.Context,
	courseID uuid.UUID,
) ([]uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT student_id
		FROM course_students
		WHERE course_id = $1
		ORDER BY student_id
	`

	rows, err := s.db.QueryContext(ctx, query, courseID)
	if err != nil {
		log.Error("failed to query student references",
			slog.String("error", err.Error()),
			slog.String("course_id", courseID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	refs := []uuid.UUID{}
	for rows.Next() {
		var studentID uuid.UUID
		if err := rows.Scan(&studentID); err != nil {
			log.Error("failed to scan student reference",
				slog.String("error", err.Error()))
			return nil, err
		}
		refs = append(refs, studentID)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return refs, nil
}

func (s *PostgresCourseStore) scanCourse(row rowScanner) (*domain.Course, error) {
	var course domain.Course
	err := row.Scan(
		&course.ID,
		&course.CourseCode,
		&course.CourseName,
		&course.Section,
		&course.Semester,
		&course.CreatedAt,
		&course.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (s *PostgresCourseStore) listCourses(
	ctx context.Context,
	query string,
	args ...any,
) ([]*domain.Course, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query courses", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	courses := []*domain.Course{}
	for rows.Next() {
		course, err := s.scanCourse(rows)
		if err != nil {
			log.Error("failed to scan course row", slog.String("error", err.Error()))
			return nil, err
		}
		courses = append(courses, course)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	for _, course := range courses {
		course.Students, err = s.GetStudentRefs(ctx, course.ID)
		if err != nil {
			return nil, err
		}
	}

	return courses, nil
}
