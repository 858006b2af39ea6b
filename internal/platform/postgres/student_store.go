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

// studentColumns is the column list shared by every query that scans a full
// student row.
const studentColumns = `id, student_number, hashed_password, salt, role, provider,
	first_name, last_name, address, city, phone_number, email, program,
	created_at, updated_at`

// PostgresStudentStore implements the store.StudentStore interface
// using a PostgreSQL database as the storage backend.
//
// The student-side reference set lives in the student_courses table, which is
// read and written independently of the course-side course_students table.
type PostgresStudentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresStudentStore creates a new PostgreSQL implementation of the
// StudentStore interface. It accepts a database connection or transaction that
// should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresStudentStore(db store.DBTX, logger *slog.Logger) *PostgresStudentStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresStudentStore{
		db:     db,
		logger: logger.With(slog.String("component", "student_store")),
	}
}

// Ensure PostgresStudentStore implements store.StudentStore interface
var _ store.StudentStore = (*PostgresStudentStore)(nil)

// WithTx implements store.StudentStore.WithTx
// It returns a new StudentStore instance using the provided transaction.
func (s *PostgresStudentStore) WithTx(tx *sql.Tx) store.StudentStore {
	return &PostgresStudentStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.StudentStore.Create
// It saves a new student to the database after validating the domain data.
// Returns store.ErrStudentNumberExists if the student number is already taken.
func (s *PostgresStudentStore) Create(ctx context.Context, student *domain.Student) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := student.Validate(); err != nil {
		log.Warn("student validation failed during create",
			slog.String("error", err.Error()),
			slog.String("student_id", student.ID.String()))
		return err
	}

	query := `
		INSERT INTO students (id, student_number, hashed_password, salt, role, provider,
			first_name, last_name, address, city, phone_number, email, program,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		student.ID,
		student.StudentNumber,
		student.HashedPassword,
		student.Salt,
		student.Role,
		student.Provider,
		student.FirstName,
		student.LastName,
		student.Address,
		student.City,
		student.PhoneNumber,
		student.Email,
		student.Program,
		student.CreatedAt,
		student.UpdatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("duplicate student number during create",
				slog.Int64("student_number", student.StudentNumber))
			return MapUniqueViolation(err, store.ErrStudentNumberExists)
		}

		log.Error("failed to create student",
			slog.String("error", err.Error()),
			slog.String("student_id", student.ID.String()))
		return MapError(err)
	}

	log.Info("student created successfully",
		slog.String("student_id", student.ID.String()),
		slog.Int64("student_number", student.StudentNumber))
	return nil
}

// GetByID implements store.StudentStore.GetByID
// It retrieves a student by ID, including the student's course-reference set.
// Returns store.ErrStudentNotFound if the student does not exist.
func (s *PostgresStudentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Student, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`

	student, err := s.scanStudent(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("student not found", slog.String("student_id", id.String()))
			return nil, store.ErrStudentNotFound
		}
		log.Error("failed to get student by ID",
			slog.String("error", err.Error()),
			slog.String("student_id", id.String()))
		return nil, MapError(err)
	}

	student.Courses, err = s.GetCourseRefs(ctx, student.ID)
	if err != nil {
		return nil, err
	}

	return student, nil
}

// GetByStudentNumber implements store.StudentStore.GetByStudentNumber
// Returns store.ErrStudentNotFound if the student does not exist.
func (s *PostgresStudentStore) GetByStudentNumber(
	ctx context.Context,
	number int64,
) (*domain.Student, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + studentColumns + ` FROM students WHERE student_number = $1`

	student, err := s.scanStudent(s.db.QueryRowContext(ctx, query, number))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("student not found", slog.Int64("student_number", number))
			return nil, store.ErrStudentNotFound
		}
		log.Error("failed to get student by number",
			slog.String("error", err.Error()),
			slog.Int64("student_number", number))
		return nil, MapError(err)
	}

	student.Courses, err = s.GetCourseRefs(ctx, student.ID)
	if err != nil {
		return nil, err
	}

	return student, nil
}

// List implements store.StudentStore.List
// It returns all students except the reserved administrative account, each
// with a populated course-reference set.
func (s *PostgresStudentStore) List(ctx context.Context) ([]*domain.Student, error) {
	query := `
		SELECT ` + studentColumns + `
		FROM students
		WHERE student_number <> $1
		ORDER BY student_number
	`
	return s.listStudents(ctx, query, domain.ReservedAdminNumber)
}

// ListAll implements store.StudentStore.ListAll
// Unlike List it includes the reserved administrative account; the reconciler
// relies on this so the admin's enrollments are not mistaken for dangling
// references.
func (s *PostgresStudentStore) ListAll(ctx context.Context) ([]*domain.Student, error) {
	query := `
		SELECT ` + studentColumns + `
		FROM students
		ORDER BY student_number
	`
	return s.listStudents(ctx, query)
}

// ListNotEnrolled implements store.StudentStore.ListNotEnrolled
// It returns students absent from the course's student-reference set,
// excluding the reserved administrative account. The course side defines
// this projection, so the subquery reads course_students.
func (s *PostgresStudentStore) ListNotEnrolled(
	ctx context.Context,
	courseID uuid.UUID,
) ([]*domain.Student, error) {
	query := `
		SELECT ` + studentColumns + `
		FROM students
		WHERE student_number <> $1
		  AND id NOT IN (
			SELECT student_id FROM course_students WHERE course_id = $2
		  )
		ORDER BY student_number
	`
	return s.listStudents(ctx, query, domain.ReservedAdminNumber, courseID)
}

// Update implements store.StudentStore.Update
// It modifies the student's record fields; the course-reference set is not
// touched.
// Returns store.ErrStudentNotFound if the student does not exist.
// Returns store.ErrStudentNumberExists on a unique-constraint violation.
func (s *PostgresStudentStore) Update(ctx context.Context, student *domain.Student) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := student.Validate(); err != nil {
		log.Warn("student validation failed during update",
			slog.String("error", err.Error()),
			slog.String("student_id", student.ID.String()))
		return err
	}

	query := `
		UPDATE students
		SET student_number = $1, hashed_password = $2, salt = $3, role = $4,
			provider = $5, first_name = $6, last_name = $7, address = $8,
			city = $9, phone_number = $10, email = $11, program = $12,
			updated_at = $13
		WHERE id = $14
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		student.StudentNumber,
		student.HashedPassword,
		student.Salt,
		student.Role,
		student.Provider,
		student.FirstName,
		student.LastName,
		student.Address,
		student.City,
		student.PhoneNumber,
		student.Email,
		student.Program,
		time.Now().UTC(),
		student.ID,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("duplicate student number during update",
				slog.Int64("student_number", student.StudentNumber))
			return MapUniqueViolation(err, store.ErrStudentNumberExists)
		}

		log.Error("failed to update student",
			slog.String("error", err.Error()),
			slog.String("student_id", student.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrStudentNotFound); err != nil {
		log.Debug("student not found for update",
			slog.String("student_id", student.ID.String()))
		return err
	}

	log.Info("student updated successfully",
		slog.String("student_id", student.ID.String()))
	return nil
}

// Delete implements store.StudentStore.Delete
// It removes the student record and the student's course-reference rows.
// Returns store.ErrStudentNotFound if the student does not exist.
func (s *PostgresStudentStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.db.ExecContext(
		ctx, `DELETE FROM student_courses WHERE student_id = $1`, id,
	); err != nil {
		log.Error("failed to delete student course references",
			slog.String("error", err.Error()),
			slog.String("student_id", id.String()))
		return MapError(err)
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete student",
			slog.String("error", err.Error()),
			slog.String("student_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrStudentNotFound); err != nil {
		log.Debug("student not found for delete", slog.String("student_id", id.String()))
		return err
	}

	log.Info("student deleted successfully", slog.String("student_id", id.String()))
	return nil
}

// AddCourseRef implements store.StudentStore.AddCourseRef
// Adding a reference that is already present is a no-op.
func (s *PostgresStudentStore) AddCourseRef(ctx context.Context, studentID, courseID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO student_courses (student_id, course_id)
		VALUES ($1, $2)
		ON CONFLICT (student_id, course_id) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, studentID, courseID); err != nil {
		log.Error("failed to add course reference",
			slog.String("error", err.Error()),
			slog.String("student_id", studentID.String()),
			slog.String("course_id", courseID.String()))
		return MapError(err)
	}

	return nil
}

// RemoveCourseRef implements store.StudentStore.RemoveCourseRef
// Removing an absent reference is a no-op.
func (s *PostgresStudentStore) RemoveCourseRef(ctx context.Context, studentID, courseID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM student_courses WHERE student_id = $1 AND course_id = $2`
	if _, err := s.db.ExecContext(ctx, query, studentID, courseID); err != nil {
		log.Error("failed to remove course reference",
			slog.String("error", err.Error()),
			slog.String("student_id", studentID.String()),
			slog.String("course_id", courseID.String()))
		return MapError(err)
	}

	return nil
}

// GetCourseRefs implements store.StudentStore.GetCourseRefs
// It returns the student's course-reference set in insertion-independent
// course order.
func (s *PostgresStudentStore) GetCourseRefs(
	ctx context.Context,
	studentID uuid.UUID,
) ([]uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT course_id
		FROM student_courses
		WHERE student_id = $1
		ORDER BY course_id
	`

	rows, err := s.db.QueryContext(ctx, query, studentID)
	if err != nil {
		log.Error("failed to query course references",
			slog.String("error", err.Error()),
			slog.String("student_id", studentID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	refs := []uuid.UUID{}
	for rows.Next() {
		var courseID uuid.UUID
		if err := rows.Scan(&courseID); err != nil {
			log.Error("failed to scan course reference",
				slog.String("error", err.Error()))
			return nil, err
		}
		refs = append(refs, courseID)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return refs, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStudentStore) scanStudent(row rowScanner) (*domain.Student, error) {
	var student domain.Student
	err := row.Scan(
		&student.ID,
		&student.StudentNumber,
		&student.HashedPassword,
		&student.Salt,
		&student.Role,
		&student.Provider,
		&student.FirstName,
		&student.LastName,
		&student.Address,
		&student.City,
		&student.PhoneNumber,
		&student.Email,
		&student.Program,
		&student.CreatedAt,
		&student.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &student, nil
}

// listStudents runs a query returning full student rows and populates each
// student's course-reference set.
func (s *PostgresStudentStore) listStudents(
	ctx context.Context,
	query string,
	args ...any,
) ([]*domain.Student, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query students", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	students := []*domain.Student{}
	for rows.Next() {
		student, err := s.scanStudent(rows)
		if err != nil {
			log.Error("failed to scan student row", slog.String("error", err.Error()))
			return nil, err
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	for _, student := range students {
		student.Courses, err = s.GetCourseRefs(ctx, student.ID)
		if err != nil {
			return nil, err
		}
	}

	return students, nil
}
