package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Course validation errors.
var (
	ErrEmptyCourseID   = errors.New("course ID cannot be empty")
	ErrEmptyCourseCode = errors.New("course code cannot be empty")
)

// Course represents an offered course.
//
// Students is the course-side half of the mutual-reference invariant: a set
// of student IDs mirroring the Courses set of each enrolled Student.
type Course struct {
	ID         uuid.UUID   `json:"id"`
	CourseCode string      `json:"course_code"`
	CourseName string      `json:"course_name"`
	Section    int         `json:"section"`
	Semester   int         `json:"semester"`
	Students   []uuid.UUID `json:"students"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// NewCourse creates a new Course with the given code, name, section and
// semester. Courses are created independent of any student.
func NewCourse(code, name string, section, semester int) (*Course, error) {
	now := time.Now().UTC()
	course := &Course{
		ID:         uuid.New(),
		CourseCode: code,
		CourseName: name,
		Section:    section,
		Semester:   semester,
		Students:   []uuid.UUID{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := course.Validate(); err != nil {
		return nil, err
	}

	return course, nil
}

// Validate checks if the Course has valid data.
func (c *Course) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyCourseID
	}

	if c.CourseCode == "" {
		return ErrEmptyCourseCode
	}

	return nil
}

// HasStudent reports whether the course's student set references studentID.
func (c *Course) HasStudent(studentID uuid.UUID) bool {
	for _, id := range c.Students {
		if id == studentID {
			return true
		}
	}
	return false
}
