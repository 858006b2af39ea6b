package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/registrar-api/internal/domain"
)

// CourseStore defines the interface for course data persistence.
//
// The student-reference methods operate on the course-side half of the
// mutual-reference invariant, mirroring StudentStore's course-reference
// methods.
type CourseStore interface {
	// Create saves a new course to the store.
	// Returns ErrCourseCodeExists if the course code is already taken.
	Create(ctx context.Context, course *domain.Course) error

	// GetByID retrieves a course by its unique ID, including the course's
	// student-reference set.
	// Returns ErrCourseNotFound if the course does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error)

	// GetByCode retrieves a course by its course code.
	// Returns ErrCourseNotFound if the course does not exist.
	GetByCode(ctx context.Context, code string) (*domain.Course, error)

	// List returns all courses with their student-reference sets.
	List(ctx context.Context) ([]*domain.Course, error)

	// ListAvailable returns all courses whose student-reference set does not
	// contain studentID.
	ListAvailable(ctx context.Context, studentID uuid.UUID) ([]*domain.Course, error)

	// ListEnrolled returns the courses referenced by the student's
	// course-reference set.
	ListEnrolled(ctx context.Context, studentID uuid.UUID) ([]*domain.Course, error)

	// Update modifies an existing course's record fields; the
	// student-reference set is not touched.
	// Returns ErrCourseNotFound if the course does not exist.
	// Returns ErrCourseCodeExists on a unique-constraint violation.
	Update(ctx context.Context, course *domain.Course) error

	// Delete removes a course record and its student-reference rows.
	// Cascading removal of forward references held by students is the
	// enrollment service's responsibility.
	// Returns ErrCourseNotFound if the course does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// AddStudentRef inserts studentID into the course's student-reference
	// set. Adding a reference that is already present is a no-op.
	AddStudentRef(ctx context.Context, courseID, studentID uuid.UUID) error

	// RemoveStudentRef removes studentID from the course's student-reference
	// set. Removing an absent reference is a no-op.
	RemoveStudentRef(ctx context.Context, courseID, studentID uuid.UUID) error

	// GetStudentRefs returns the course's student-reference set.
	// Returns ErrCourseNotFound if the course does not exist.
	GetStudentRefs(ctx context.Context, courseID uuid.UUID) ([]uuid.UUID, error)

	// WithTx returns a new CourseStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) CourseStore
}
