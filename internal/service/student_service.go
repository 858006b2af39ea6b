package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/registrar-api/internal/domain"
	"github.com/phrazzld/registrar-api/internal/platform/logger"
	"github.com/phrazzld/registrar-api/internal/service/auth"
	"github.com/phrazzld/registrar-api/internal/store"
)

// StudentService provides student CRUD operations and owns the credential
// lifecycle: it is the only component that writes a student's salt and hash.
type StudentService interface {
	// CreateStudent validates the student, derives a fresh salt/hash pair
	// from the plaintext password, and persists the record. The plaintext
	// password is cleared before returning.
	CreateStudent(ctx context.Context, student *domain.Student) error

	// GetStudent retrieves a student by ID with the course-reference set
	// populated.
	GetStudent(ctx context.Context, id uuid.UUID) (*domain.Student, error)

	// ListStudents returns all students except the reserved administrative
	// account.
	ListStudents(ctx context.Context) ([]*domain.Student, error)

	// UpdateStudent replaces the student's record fields. When the update
	// carries a plaintext password, a fresh salt is generated and the hash
	// recomputed; when it does not, the stored salt/hash pair is preserved
	// so unrelated profile edits never invalidate a student's password.
	UpdateStudent(ctx context.Context, student *domain.Student) error
}

// studentServiceImpl implements StudentService.
type studentServiceImpl struct {
	studentStore store.StudentStore
	logger       *slog.Logger
}

var _ StudentService = (*studentServiceImpl)(nil)

// NewStudentService creates a new StudentService.
func NewStudentService(studentStore store.StudentStore, logger *slog.Logger) (StudentService, error) {
	if studentStore == nil {
		return nil, domain.NewValidationError("studentStore", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &studentServiceImpl{
		studentStore: studentStore,
		logger:       logger.With(slog.String("component", "student_service")),
	}, nil
}

// CreateStudent implements StudentService.CreateStudent.
func (s *studentServiceImpl) CreateStudent(ctx context.Context, student *domain.Student) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if student.Password == "" {
		return ErrPasswordRequired
	}

	// Validation runs before any hashing: a too-short password must fail
	// without key-derivation work.
	if err := student.Validate(); err != nil {
		return err
	}

	salt, err := auth.GenerateSalt()
	if err != nil {
		log.Error("failed to generate salt", slog.String("error", err.Error()))
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	student.Salt = salt
	student.HashedPassword = auth.HashPassword(student.Password, salt)
	student.Password = ""

	if err := s.studentStore.Create(ctx, student); err != nil {
		return err
	}

	log.Info("student created",
		slog.Int64("student_number", student.StudentNumber),
		slog.String("student_id", student.ID.String()))
	return nil
}

// GetStudent implements StudentService.GetStudent.
func (s *studentServiceImpl) GetStudent(ctx context.Context, id uuid.UUID) (*domain.Student, error) {
	return s.studentStore.GetByID(ctx, id)
}

// ListStudents implements StudentService.ListStudents. The store applies the
// reserved-account predicate, so the hidden admin never appears here.
func (s *studentServiceImpl) ListStudents(ctx context.Context) ([]*domain.Student, error) {
	return s.studentStore.List(ctx)
}

// UpdateStudent implements StudentService.UpdateStudent.
func (s *studentServiceImpl) UpdateStudent(ctx context.Context, student *domain.Student) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	existing, err := s.studentStore.GetByID(ctx, student.ID)
	if err != nil {
		return err
	}

	// Record updates carry field changes, not the whole identity: preserve
	// the stored role and provider when the caller leaves them empty.
	if student.Role == "" {
		student.Role = existing.Role
	}
	if student.Provider == "" {
		student.Provider = existing.Provider
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = existing.CreatedAt
	}

	if student.Password != "" {
		if err := student.Validate(); err != nil {
			return err
		}
		salt, err := auth.GenerateSalt()
		if err != nil {
			log.Error("failed to generate salt", slog.String("error", err.Error()))
			return fmt.Errorf("failed to generate salt: %w", err)
		}
		student.Salt = salt
		student.HashedPassword = auth.HashPassword(student.Password, salt)
		student.Password = ""
	} else {
		// No password supplied: keep the stored credential untouched.
		student.Salt = existing.Salt
		student.HashedPassword = existing.HashedPassword
		if err := student.Validate(); err != nil {
			return err
		}
	}

	if err := s.studentStore.Update(ctx, student); err != nil {
		return err
	}

	log.Info("student updated",
		slog.Int64("student_number", student.StudentNumber),
		slog.String("student_id", student.ID.String()))
	return nil
}
