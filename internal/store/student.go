package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/registrar-api/internal/domain"
)

// StudentStore defines the interface for student data persistence.
//
// The course-reference methods operate on the student-side half of the
// mutual-reference invariant. They never touch the course-side set; keeping
// both halves consistent is the job of the enrollment service.
type StudentStore interface {
	// Create saves a new student to the store.
	// The student must already carry a hashed password and salt.
	// Returns ErrStudentNumberExists if the student number is already taken.
	Create(ctx context.Context, student *domain.Student) error

	// GetByID retrieves a student by their unique ID, including the
	// student's course-reference set.
	// Returns ErrStudentNotFound if the student does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Student, error)

	// GetByStudentNumber retrieves a student by their student number,
	// including the student's course-reference set.
	// Returns ErrStudentNotFound if the student does not exist.
	GetByStudentNumber(ctx context.Context, number int64) (*domain.Student, error)

	// List returns all students except the reserved administrative account.
	// Course-reference sets are populated.
	List(ctx context.Context) ([]*domain.Student, error)

	// ListAll returns every student including the reserved administrative
	// account, with course-reference sets populated. Public listings must use
	// List; ListAll exists for internal consumers that need existence ground
	// truth, such as the reference reconciler.
	ListAll(ctx context.Context) ([]*domain.Student, error)

	// ListNotEnrolled returns all students absent from the course's
	// student-reference set, excluding the reserved administrative account.
	ListNotEnrolled(ctx context.Context, courseID uuid.UUID) ([]*domain.Student, error)

	// Update modifies an existing student's record fields. The caller must
	// provide a complete student including HashedPassword and Salt; the
	// course-reference set is not touched by Update.
	// Returns ErrStudentNotFound if the student does not exist.
	// Returns ErrStudentNumberExists on a unique-constraint violation.
	Update(ctx context.Context, student *domain.Student) error

	// Delete removes a student record and its course-reference rows.
	// It does not touch any course's student-reference set; cascading is
	// the enrollment service's responsibility.
	// Returns ErrStudentNotFound if the student does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// AddCourseRef inserts courseID into the student's course-reference set.
	// Adding a reference that is already present is a no-op.
	AddCourseRef(ctx context.Context, studentID, courseID uuid.UUID) error

	// RemoveCourseRef removes courseID from the student's course-reference
	// set. Removing an absent reference is a no-op.
	RemoveCourseRef(ctx context.Context, studentID, courseID uuid.UUID) error

	// GetCourseRefs returns the student's course-reference set.
	// Returns ErrStudentNotFound if the student does not exist.
	GetCourseRefs(ctx context.Context, studentID uuid.UUID) ([]uuid.UUID, error)

	// WithTx returns a new StudentStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) StudentStore
}
