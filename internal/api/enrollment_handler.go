package api

import (
	"net/http"

	"github.com/phrazzld/registrar-api/internal/api/shared"
	"github.com/phrazzld/registrar-api/internal/service"
)

// EnrollmentHandler handles enroll and drop API requests.
type EnrollmentHandler struct {
	enrollmentService service.EnrollmentService
}

// NewEnrollmentHandler creates a new EnrollmentHandler with the given dependencies.
func NewEnrollmentHandler(enrollmentService service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{
		enrollmentService: enrollmentService,
	}
}

// Enroll handles POST /enrollments. Enrolling an already-enrolled student is
// a no-op and succeeds with the current state.
func (h *EnrollmentHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req EnrollmentRequest

	if !decodeAndValidate(w, r, &req) {
		return
	}

	student, course, err := h.enrollmentService.Enroll(r.Context(), req.StudentID, req.CourseID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, EnrollmentResponse{
		Student: NewStudentResponse(student),
		Course:  NewCourseResponse(course),
	})
}

// Drop handles DELETE /enrollments/{studentID}/{courseID}. Dropping an
// enrollment that does not exist is a no-op and succeeds.
func (h *EnrollmentHandler) Drop(w http.ResponseWriter, r *http.Request) {
	studentID, err := getPathUUID(r, "studentID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	courseID, err := getPathUUID(r, "courseID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	student, course, err := h.enrollmentService.Drop(r.Context(), studentID, courseID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, EnrollmentResponse{
		Student: NewStudentResponse(student),
		Course:  NewCourseResponse(course),
	})
}
