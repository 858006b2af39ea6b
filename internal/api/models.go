package api

import (
	"github.com/google/uuid"
	"github.com/phrazzld/registrar-api/internal/domain"
)

// Common request/response structures

// LoginRequest defines the payload for the student login endpoint.
type LoginRequest struct {
	StudentNumber int64  `json:"student_number" validate:"required,gt=0"`
	Password      string `json:"password"       validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	// StudentID is the unique identifier for the authenticated student
	StudentID uuid.UUID `json:"student_id"`

	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"token"`

	// RefreshToken is the JWT token used to obtain new access tokens
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresAt is the ISO 8601 timestamp when the access token expires
	ExpiresAt string `json:"expires_at,omitempty"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse defines the successful response for the token refresh endpoint.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
}

// CreateStudentRequest defines the payload for creating a student.
type CreateStudentRequest struct {
	StudentNumber int64  `json:"student_number" validate:"required,gt=0"`
	Password      string `json:"password"       validate:"required,min=7"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Address       string `json:"address"`
	City          string `json:"city"`
	PhoneNumber   string `json:"phone_number"`
	Email         string `json:"email"          validate:"omitempty,email"`
	Program       string `json:"program"`
}

// UpdateStudentRequest defines the payload for updating a student's record.
// Password is optional: when absent, the stored credential is preserved.
type UpdateStudentRequest struct {
	StudentNumber int64  `json:"student_number" validate:"required,gt=0"`
	Password      string `json:"password"       validate:"omitempty,min=7"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Address       string `json:"address"`
	City          string `json:"city"`
	PhoneNumber   string `json:"phone_number"`
	Email         string `json:"email"          validate:"omitempty,email"`
	Program       string `json:"program"`
}

// StudentResponse is the serialized form of a student. Credential material is
// never included.
type StudentResponse struct {
	ID            uuid.UUID   `json:"id"`
	StudentNumber int64       `json:"student_number"`
	Role          string      `json:"role"`
	FirstName     string      `json:"first_name"`
	LastName      string      `json:"last_name"`
	Address       string      `json:"address"`
	City          string      `json:"city"`
	PhoneNumber   string      `json:"phone_number"`
	Email         string      `json:"email"`
	Program       string      `json:"program"`
	Courses       []uuid.UUID `json:"courses"`
}

// NewStudentResponse converts a domain student to its API representation.
func NewStudentResponse(s *domain.Student) StudentResponse {
	courses := s.Courses
	if courses == nil {
		courses = []uuid.UUID{}
	}
	return StudentResponse{
		ID:            s.ID,
		StudentNumber: s.StudentNumber,
		Role:          s.Role,
		FirstName:     s.FirstName,
		LastName:      s.LastName,
		Address:       s.Address,
		City:          s.City,
		PhoneNumber:   s.PhoneNumber,
		Email:         s.Email,
		Program:       s.Program,
		Courses:       courses,
	}
}

// NewStudentListResponse converts a slice of domain students.
func NewStudentListResponse(students []*domain.Student) []StudentResponse {
	out := make([]StudentResponse, 0, len(students))
	for _, s := range students {
		out = append(out, NewStudentResponse(s))
	}
	return out
}

// CreateCourseRequest defines the payload for creating a course.
type CreateCourseRequest struct {
	CourseCode string `json:"course_code" validate:"required"`
	CourseName string `json:"course_name"`
	Section    int    `json:"section"`
	Semester   int    `json:"semester"`
}

// UpdateCourseRequest defines the payload for updating a course's record.
type UpdateCourseRequest struct {
	CourseCode string `json:"course_code" validate:"required"`
	CourseName string `json:"course_name"`
	Section    int    `json:"section"`
	Semester   int    `json:"semester"`
}

// CourseResponse is the serialized form of a course.
type CourseResponse struct {
	ID         uuid.UUID   `json:"id"`
	CourseCode string      `json:"course_code"`
	CourseName string      `json:"course_name"`
	Section    int         `json:"section"`
	Semester   int         `json:"semester"`
	Students   []uuid.UUID `json:"students"`
}

// NewCourseResponse converts a domain course to its API representation.
func NewCourseResponse(c *domain.Course) CourseResponse {
	students := c.Students
	if students == nil {
		students = []uuid.UUID{}
	}
	return CourseResponse{
		ID:         c.ID,
		CourseCode: c.CourseCode,
		CourseName: c.CourseName,
		Section:    c.Section,
		Semester:   c.Semester,
		Students:   students,
	}
}

// NewCourseListResponse converts a slice of domain courses.
func NewCourseListResponse(courses []*domain.Course) []CourseResponse {
	out := make([]CourseResponse, 0, len(courses))
	for _, c := range courses {
		out = append(out, NewCourseResponse(c))
	}
	return out
}

// EnrollmentRequest defines the payload for the enroll endpoint.
type EnrollmentRequest struct {
	StudentID uuid.UUID `json:"student_id" validate:"required"`
	CourseID  uuid.UUID `json:"course_id"  validate:"required"`
}

// EnrollmentResponse returns both sides of the enrollment relation after a
// successful enroll or drop, so clients can observe the updated reference
// sets without extra round trips.
type EnrollmentResponse struct {
	Student StudentResponse `json:"student"`
	Course  CourseResponse  `json:"course"`
}

// DeleteResponse reports the outcome of a cascading delete. When every
// back-reference removal succeeded, Failed is empty. A partial failure still
// deletes the entity; the entities whose back-references could not be removed
// are listed so clients know the relation may be temporarily stale.
type DeleteResponse struct {
	Deleted uuid.UUID   `json:"deleted"`
	Failed  []uuid.UUID `json:"failed,omitempty"`
	Message string      `json:"message,omitempty"`
}
