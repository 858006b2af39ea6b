package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/phrazzld/registrar-api/internal/domain"
	"github.com/phrazzld/registrar-api/internal/store"
)

// In-memory service fakes for handler tests. They implement the service
// interfaces directly so handler behavior is tested without a database.

type fakeStudentService struct {
	students  map[uuid.UUID]*domain.Student
	createErr error
	updateErr error
}

func newFakeStudentService() *fakeStudentService {
	return &fakeStudentService{students: make(map[uuid.UUID]*domain.Student)}
}

func (f *fakeStudentService) CreateStudent(ctx context.Context, student *domain.Student) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, s := range f.students {
		if s.StudentNumber == student.StudentNumber {
			return store.ErrStudentNumberExists
		}
	}
	student.Password = ""
	f.students[student.ID] = student
	return nil
}

func (f *fakeStudentService) GetStudent(ctx context.Context, id uuid.UUID) (*domain.Student, error) {
	s, ok := f.students[id]
	if !ok {
		return nil, store.ErrStudentNotFound
	}
	return s, nil
}

func (f *fakeStudentService) ListStudents(ctx context.Context) ([]*domain.Student, error) {
	out := []*domain.Student{}
	for _, s := range f.students {
		if !s.IsReserved() {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStudentService) UpdateStudent(ctx context.Context, student *domain.Student) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	existing, ok := f.students[student.ID]
	if !ok {
		return store.ErrStudentNotFound
	}
	student.Courses = existing.Courses
	if student.Password == "" {
		student.Salt = existing.Salt
		student.HashedPassword = existing.HashedPassword
	}
	student.Password = ""
	f.students[student.ID] = student
	return nil
}

type fakeCourseService struct {
	courses   map[uuid.UUID]*domain.Course
	createErr error
	updateErr error
}

func newFakeCourseService() *fakeCourseService {
	return &fakeCourseService{courses: make(map[uuid.UUID]*domain.Course)}
}

func (f *fakeCourseService) CreateCourse(ctx context.Context, course *domain.Course) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, c := range f.courses {
		if c.CourseCode == course.CourseCode {
			return store.ErrCourseCodeExists
		}
	}
	f.courses[course.ID] = course
	return nil
}

func (f *fakeCourseService) GetCourse(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	c, ok := f.courses[id]
	if !ok {
		return nil, store.ErrCourseNotFound
	}
	return c, nil
}

func (f *fakeCourseService) ListCourses(ctx context.Context) ([]*domain.Course, error) {
	out := []*domain.Course{}
	for _, c := range f.courses {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCourseService) UpdateCourse(ctx context.Context, course *domain.Course) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	existing, ok := f.courses[course.ID]
	if !ok {
		return store.ErrCourseNotFound
	}
	course.Students = existing.Students
	f.courses[course.ID] = course
	return nil
}

type fakeEnrollmentService struct {
	students map[uuid.UUID]*domain.Student
	courses  map[uuid.UUID]*domain.Course

	enrollErr        error
	deleteStudentErr error
	deleteCourseErr  error
}

func newFakeEnrollmentService(
	students *fakeStudentService,
	courses *fakeCourseService,
) *fakeEnrollmentService {
	return &fakeEnrollmentService{students: students.students, courses: courses.courses}
}

func (f *fakeEnrollmentService) Enroll(
	ctx context.Context,
	studentID, courseID uuid.UUID,
) (*domain.Student, *domain.Course, error) {
	if f.enrollErr != nil {
		return nil, nil, f.enrollErr
	}
	student, ok := f.students[studentID]
	if !ok {
		return nil, nil, store.ErrStudentNotFound
	}
	course, ok := f.courses[courseID]
	if !ok {
		return nil, nil, store.ErrCourseNotFound
	}
	if !student.EnrolledIn(courseID) {
		student.Courses = append(student.Courses, courseID)
	}
	if !course.HasStudent(studentID) {
		course.Students = append(course.Students, studentID)
	}
	return student, course, nil
}

func (f *fakeEnrollmentService) Drop(
	ctx context.Context,
	studentID, courseID uuid.UUID,
) (*domain.Student, *domain.Course, error) {
	student, ok := f.students[studentID]
	if !ok {
		return nil, nil, store.ErrStudentNotFound
	}
	course, ok := f.courses[courseID]
	if !ok {
		return nil, nil, store.ErrCourseNotFound
	}
	student.Courses = removeUUID(student.Courses, courseID)
	course.Students = removeUUID(course.Students, studentID)
	return student, course, nil
}

func (f *fakeEnrollmentService) DeleteStudent(ctx context.Context, studentID uuid.UUID) error {
	if f.deleteStudentErr != nil {
		return f.deleteStudentErr
	}
	if _, ok := f.students[studentID]; !ok {
		return store.ErrStudentNotFound
	}
	delete(f.students, studentID)
	for _, c := range f.courses {
		c.Students = removeUUID(c.Students, studentID)
	}
	return nil
}

func (f *fakeEnrollmentService) DeleteCourse(ctx context.Context, courseID uuid.UUID) error {
	if f.deleteCourseErr != nil {
		return f.deleteCourseErr
	}
	if _, ok := f.courses[courseID]; !ok {
		return store.ErrCourseNotFound
	}
	delete(f.courses, courseID)
	for _, s := range f.students {
		s.Courses = removeUUID(s.Courses, courseID)
	}
	return nil
}

type fakeQueryService struct {
	students map[uuid.UUID]*domain.Student
	courses  map[uuid.UUID]*domain.Course
}

func newFakeQueryService(
	students *fakeStudentService,
	courses *fakeCourseService,
) *fakeQueryService {
	return &fakeQueryService{students: students.students, courses: courses.courses}
}

func (f *fakeQueryService) AvailableCourses(
	ctx context.Context,
	studentID uuid.UUID,
) ([]*domain.Course, error) {
	if _, ok := f.students[studentID]; !ok {
		return nil, store.ErrStudentNotFound
	}
	out := []*domain.Course{}
	for _, c := range f.courses {
		if !c.HasStudent(studentID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeQueryService) EnrolledCourses(
	ctx context.Context,
	studentID uuid.UUID,
) ([]*domain.Course, error) {
	if _, ok := f.students[studentID]; !ok {
		return nil, store.ErrStudentNotFound
	}
	out := []*domain.Course{}
	for _, c := range f.courses {
		if c.HasStudent(studentID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeQueryService) NotEnrolledStudents(
	ctx context.Context,
	courseID uuid.UUID,
) ([]*domain.Student, error) {
	course, ok := f.courses[courseID]
	if !ok {
		return nil, store.ErrCourseNotFound
	}
	out := []*domain.Student{}
	for _, s := range f.students {
		if !course.HasStudent(s.ID) && !s.IsReserved() {
			out = append(out, s)
		}
	}
	return out, nil
}

func removeUUID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// handlerFixture wires all handlers over shared fakes with a chi router, so
// tests exercise real route patterns and path parameters.
type handlerFixture struct {
	studentService    *fakeStudentService
	courseService     *fakeCourseService
	enrollmentService *fakeEnrollmentService
	queryService      *fakeQueryService
	router            chi.Router
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	studentService := newFakeStudentService()
	courseService := newFakeCourseService()
	enrollmentService := newFakeEnrollmentService(studentService, courseService)
	queryService := newFakeQueryService(studentService, courseService)

	studentHandler := NewStudentHandler(studentService, enrollmentService, queryService)
	courseHandler := NewCourseHandler(courseService, enrollmentService, queryService)
	enrollmentHandler := NewEnrollmentHandler(enrollmentService)

	r := chi.NewRouter()
	r.Post("/students", studentHandler.Create)
	r.Get("/students", studentHandler.List)
	r.Get("/students/not-enrolled/{courseID}", studentHandler.ListNotEnrolled)
	r.Get("/students/{studentID}", studentHandler.Get)
	r.Put("/students/{studentID}", studentHandler.Update)
	r.Delete("/students/{studentID}", studentHandler.Delete)
	r.Post("/courses", courseHandler.Create)
	r.Get("/courses", courseHandler.List)
	r.Get("/courses/available/{studentID}", courseHandler.ListAvailable)
	r.Get("/courses/enrolled/{studentID}", courseHandler.ListEnrolled)
	r.Get("/courses/{courseID}", courseHandler.Get)
	r.Put("/courses/{courseID}", courseHandler.Update)
	r.Delete("/courses/{courseID}", courseHandler.Delete)
	r.Post("/enrollments", enrollmentHandler.Enroll)
	r.Delete("/enrollments/{studentID}/{courseID}", enrollmentHandler.Drop)

	return &handlerFixture{
		studentService:    studentService,
		courseService:     courseService,
		enrollmentService: enrollmentService,
		queryService:      queryService,
		router:            r,
	}
}

func (f *handlerFixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}
