package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/registrar-api/internal/domain"
	"github.com/phrazzld/registrar-api/internal/service"
	"github.com/phrazzld/registrar-api/internal/service/auth"
	"github.com/phrazzld/registrar-api/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "invalid credentials",
			err:      auth.ErrInvalidCredentials,
			expected: http.StatusUnauthorized,
		},
		{
			name:     "expired token",
			err:      auth.ErrExpiredToken,
			expected: http.StatusUnauthorized,
		},
		{
			name:     "invalid refresh token",
			err:      auth.ErrInvalidRefreshToken,
			expected: http.StatusUnauthorized,
		},
		{
			name:     "student not found",
			err:      store.ErrStudentNotFound,
			expected: http.StatusNotFound,
		},
		{
			name:     "course not found",
			err:      store.ErrCourseNotFound,
			expected: http.StatusNotFound,
		},
		{
			name:     "wrapped not found",
			err:      fmt.Errorf("lookup failed: %w", store.ErrStudentNotFound),
			expected: http.StatusNotFound,
		},
		{
			name:     "duplicate student number",
			err:      store.ErrStudentNumberExists,
			expected: http.StatusConflict,
		},
		{
			name:     "duplicate course code",
			err:      store.ErrCourseCodeExists,
			expected: http.StatusConflict,
		},
		{
			name:     "validation error",
			err:      domain.NewValidationError("email", "has invalid format", domain.ErrValidation),
			expected: http.StatusBadRequest,
		},
		{
			name:     "password required",
			err:      service.ErrPasswordRequired,
			expected: http.StatusBadRequest,
		},
		{
			name:     "unknown error",
			err:      errors.New("database on fire"),
			expected: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "Something went wrong",
		},
		{
			name:     "invalid credentials",
			err:      auth.ErrInvalidCredentials,
			expected: "Invalid credentials",
		},
		{
			name:     "student not found",
			err:      store.ErrStudentNotFound,
			expected: "Student not found",
		},
		{
			name:     "course not found",
			err:      store.ErrCourseNotFound,
			expected: "Course not found",
		},
		{
			name:     "duplicate student number",
			err:      store.ErrStudentNumberExists,
			expected: "Student number already exists",
		},
		{
			name:     "duplicate course code",
			err:      store.ErrCourseCodeExists,
			expected: "Course code already exists",
		},
		{
			name:     "validation error names the field",
			err:      domain.NewValidationError("email", "has invalid format", domain.ErrValidation),
			expected: "Invalid email",
		},
		{
			name:     "unknown error never leaks details",
			err:      errors.New("pq: connection to 10.0.0.5:5432 refused"),
			expected: "Something went wrong",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, GetSafeErrorMessage(tt.err))
		})
	}
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	err := errors.New(
		"Key: 'LoginRequest.Password' Error:Field validation for 'Password' failed on the 'min' tag",
	)
	assert.Equal(t, "Invalid Password: too short", SanitizeValidationError(err))

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("something else")))
}
