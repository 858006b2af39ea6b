package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/registrar-api/internal/api/shared"
	"github.com/phrazzld/registrar-api/internal/domain"
	"github.com/phrazzld/registrar-api/internal/service"
)

// CourseHandler handles course CRUD and listing API requests.
type CourseHandler struct {
	courseService     service.CourseService
	enrollmentService service.EnrollmentService
	queryService      service.QueryService
}

// NewCourseHandler creates a new CourseHandler with the given dependencies.
func NewCourseHandler(
	courseService service.CourseService,
	enrollmentService service.EnrollmentService,
	queryService service.QueryService,
) *CourseHandler {
	return &CourseHandler{
		courseService:     courseService,
		enrollmentService: enrollmentService,
		queryService:      queryService,
	}
}

// Create handles POST /courses.
func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCourseRequest

	if !decodeAndValidate(w, r, &req) {
		return
	}

	course, err := domain.NewCourse(req.CourseCode, req.CourseName, req.Section, req.Semester)
	if err != nil {
		HandleAPIError(w, r, err, err.Error())
		return
	}

	if err := h.courseService.CreateCourse(r.Context(), course); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, NewCourseResponse(course))
}

// List handles GET /courses.
func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courseService.ListCourses(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewCourseListResponse(courses))
}

// Get handles GET /courses/{courseID}.
func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "courseID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	course, err := h.courseService.GetCourse(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewCourseResponse(course))
}

// Update handles PUT /courses/{courseID}.
func (h *CourseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "courseID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req UpdateCourseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	course := &domain.Course{
		ID:         id,
		CourseCode: req.CourseCode,
		CourseName: req.CourseName,
		Section:    req.Section,
		Semester:   req.Semester,
	}

	if err := h.courseService.UpdateCourse(r.Context(), course); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	updated, err := h.courseService.GetCourse(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewCourseResponse(updated))
}

// Delete handles DELETE /courses/{courseID}, the symmetric cascading delete:
// the course's ID is removed from every student that references it.
func (h *CourseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "courseID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.enrollmentService.DeleteCourse(r.Context(), id); err != nil {
		var cascadeErr *service.CascadeError
		if errors.As(err, &cascadeErr) {
			shared.RespondWithJSON(w, r, http.StatusOK, DeleteResponse{
				Deleted: cascadeErr.DeletedID,
				Failed:  cascadeErr.Failed,
				Message: "Course deleted; some student references could not be removed",
			})
			return
		}
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, DeleteResponse{Deleted: id})
}

// ListAvailable handles GET /courses/available/{studentID}: the courses the
// student is not enrolled in.
func (h *CourseHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	studentID, err := getPathUUID(r, "studentID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	courses, err := h.queryService.AvailableCourses(r.Context(), studentID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewCourseListResponse(courses))
}

// ListEnrolled handles GET /courses/enrolled/{studentID}: the courses the
// student is enrolled in.
func (h *CourseHandler) ListEnrolled(w http.ResponseWriter, r *http.Request) {
	studentID, err := getPathUUID(r, "studentID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	courses, err := h.queryService.EnrolledCourses(r.Context(), studentID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewCourseListResponse(courses))
}
