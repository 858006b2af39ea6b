package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/registrar-api/internal/api/shared"
	"github.com/phrazzld/registrar-api/internal/domain"
	"github.com/phrazzld/registrar-api/internal/service"
)

// StudentHandler handles student CRUD and listing API requests.
type StudentHandler struct {
	studentService    service.StudentService
	enrollmentService service.EnrollmentService
	queryService      service.QueryService
}

// NewStudentHandler creates a new StudentHandler with the given dependencies.
func NewStudentHandler(
	studentService service.StudentService,
	enrollmentService service.EnrollmentService,
	queryService service.QueryService,
) *StudentHandler {
	return &StudentHandler{
		studentService:    studentService,
		enrollmentService: enrollmentService,
		queryService:      queryService,
	}
}

// Create handles POST /students.
func (h *StudentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateStudentRequest

	if !decodeAndValidate(w, r, &req) {
		return
	}

	student, err := domain.NewStudent(req.StudentNumber, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, err.Error())
		return
	}

	student.FirstName = req.FirstName
	student.LastName = req.LastName
	student.Address = req.Address
	student.City = req.City
	student.PhoneNumber = req.PhoneNumber
	student.Email = req.Email
	student.Program = req.Program

	if err := h.studentService.CreateStudent(r.Context(), student); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, NewStudentResponse(student))
}

// List handles GET /students. The reserved administrative account never
// appears in the listing.
func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	students, err := h.studentService.ListStudents(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewStudentListResponse(students))
}

// Get handles GET /students/{studentID}.
func (h *StudentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "studentID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	student, err := h.studentService.GetStudent(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewStudentResponse(student))
}

// Update handles PUT /students/{studentID}. A request without a password
// updates record fields only; the stored credential is preserved.
func (h *StudentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "studentID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req UpdateStudentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	student := &domain.Student{
		ID:            id,
		StudentNumber: req.StudentNumber,
		Password:      req.Password,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Address:       req.Address,
		City:          req.City,
		PhoneNumber:   req.PhoneNumber,
		Email:         req.Email,
		Program:       req.Program,
	}

	if err := h.studentService.UpdateStudent(r.Context(), student); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	updated, err := h.studentService.GetStudent(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewStudentResponse(updated))
}

// Delete handles DELETE /students/{studentID}. The delete cascades: the
// student's ID is removed from every course it references. A partial cascade
// failure still deletes the student; the courses left holding a stale
// reference are reported in the response.
func (h *StudentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "studentID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.enrollmentService.DeleteStudent(r.Context(), id); err != nil {
		var cascadeErr *service.CascadeError
		if errors.As(err, &cascadeErr) {
			shared.RespondWithJSON(w, r, http.StatusOK, DeleteResponse{
				Deleted: cascadeErr.DeletedID,
				Failed:  cascadeErr.Failed,
				Message: "Student deleted; some course references could not be removed",
			})
			return
		}
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, DeleteResponse{Deleted: id})
}

// ListNotEnrolled handles GET /students/not-enrolled/{courseID}: all students
// outside the course's student set.
func (h *StudentHandler) ListNotEnrolled(w http.ResponseWriter, r *http.Request) {
	courseID, err := getPathUUID(r, "courseID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	students, err := h.queryService.NotEnrolledStudents(r.Context(), courseID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewStudentListResponse(students))
}
