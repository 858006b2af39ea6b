package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Student roles.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// DefaultProvider tags students registered through the local strategy.
const DefaultProvider = "local"

// ReservedAdminNumber is the student number of the hidden administrative
// account. It must never appear in public listings.
const ReservedAdminNumber = 1

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 7

// Student validation errors.
var (
	ErrEmptyStudentID       = errors.New("student ID cannot be empty")
	ErrInvalidStudentNumber = errors.New("student number is required and must be positive")
	ErrPasswordTooShort     = errors.New("password must be at least 7 characters long")
	ErrEmptyHashedPassword  = errors.New("hashed password cannot be empty")
	ErrInvalidRole          = errors.New("role must be either student or admin")
)

// Student represents a registered student of the institution.
//
// Password holds a plaintext password only transiently, during creation or an
// update that changes the credential; it is never persisted or serialized.
// HashedPassword and Salt together form the stored credential.
//
// Courses is the student-side half of the mutual-reference invariant: it is a
// set of course IDs, kept consistent with each referenced Course's Students
// set by the enrollment service.
type Student struct {
	ID             uuid.UUID   `json:"id"`
	StudentNumber  int64       `json:"student_number"`
	Password       string      `json:"-"`
	HashedPassword string      `json:"-"`
	Salt           string      `json:"-"`
	Role           string      `json:"role"`
	Provider       string      `json:"provider"`
	FirstName      string      `json:"first_name"`
	LastName       string      `json:"last_name"`
	Address        string      `json:"address"`
	City           string      `json:"city"`
	PhoneNumber    string      `json:"phone_number"`
	Email          string      `json:"email"`
	Program        string      `json:"program"`
	Courses        []uuid.UUID `json:"courses"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// NewStudent creates a new Student with the given student number and plaintext
// password, applying the role and provider defaults. The caller is responsible
// for hashing the password before the student is stored.
func NewStudent(studentNumber int64, password string) (*Student, error) {
	now := time.Now().UTC()
	student := &Student{
		ID:            uuid.New(),
		StudentNumber: studentNumber,
		Password:      password,
		Role:          RoleStudent,
		Provider:      DefaultProvider,
		Courses:       []uuid.UUID{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := student.Validate(); err != nil {
		return nil, err
	}

	return student, nil
}

// Validate checks if the Student has valid data.
// Returns an error if any field fails validation.
func (s *Student) Validate() error {
	if s.ID == uuid.Nil {
		return ErrEmptyStudentID
	}

	if s.StudentNumber <= 0 {
		return ErrInvalidStudentNumber
	}

	if s.Role != RoleStudent && s.Role != RoleAdmin {
		return ErrInvalidRole
	}

	if s.Email != "" && !validateEmailFormat(s.Email) {
		return ErrInvalidEmail
	}

	// A plaintext password is present during creation and credential updates;
	// otherwise the student must already carry a stored hash.
	if s.Password != "" {
		if len(s.Password) < MinPasswordLength {
			return ErrPasswordTooShort
		}
	} else if s.HashedPassword == "" {
		return ErrEmptyHashedPassword
	}

	return nil
}

// IsReserved reports whether this student is the hidden administrative
// account that public listings must exclude.
func (s *Student) IsReserved() bool {
	return IsReservedStudentNumber(s.StudentNumber)
}

// IsReservedStudentNumber is the single predicate deciding whether a student
// number belongs to the hidden administrative account. Every listing that
// excludes the account goes through this function rather than comparing
// against a literal.
func IsReservedStudentNumber(n int64) bool {
	return n == ReservedAdminNumber
}

// EnrolledIn reports whether the student's course set references courseID.
func (s *Student) EnrolledIn(courseID uuid.UUID) bool {
	for _, id := range s.Courses {
		if id == courseID {
			return true
		}
	}
	return false
}

// validateEmailFormat performs basic validation of email format.
// Returns true if the email appears to be in a valid format.
func validateEmailFormat(email string) bool {
	atIndex := -1
	for i, char := range email {
		if char == '@' {
			atIndex = i
			break
		}
	}

	if atIndex == -1 || atIndex == 0 || atIndex == len(email)-1 {
		return false
	}

	domainPart := email[atIndex+1:]
	if len(domainPart) < 3 {
		return false
	}

	dotIndex := -1
	for i, char := range domainPart {
		if char == '.' {
			dotIndex = i
			break
		}
	}

	return dotIndex > 0 && dotIndex < len(domainPart)-1
}
