package service

import (
	"context"
	"database/sql"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/registrar-api/internal/domain"
	"github.com/phrazzld/registrar-api/internal/store"
)

// memStore is an in-memory implementation of both store interfaces, shared
// by the service tests. The two reference tables are stored independently,
// mirroring the real schema, so tests can plant one-sided references and
// verify the invariant from both directions.
type memStore struct {
	mu             sync.Mutex
	students       map[uuid.UUID]*domain.Student
	courses        map[uuid.UUID]*domain.Course
	studentCourses map[uuid.UUID]map[uuid.UUID]struct{}
	courseStudents map[uuid.UUID]map[uuid.UUID]struct{}

	// Failure injection for cascade and compensation tests.
	failAddStudentRef    error
	failRemoveStudentRef map[uuid.UUID]error
	failRemoveCourseRef  map[uuid.UUID]error
}

func newMemStore() *memStore {
	return &memStore{
		students:             make(map[uuid.UUID]*domain.Student),
		courses:              make(map[uuid.UUID]*domain.Course),
		studentCourses:       make(map[uuid.UUID]map[uuid.UUID]struct{}),
		courseStudents:       make(map[uuid.UUID]map[uuid.UUID]struct{}),
		failRemoveStudentRef: make(map[uuid.UUID]error),
		failRemoveCourseRef:  make(map[uuid.UUID]error),
	}
}

// runInTx emulates transactional semantics: state is snapshotted before the
// function runs and restored if it fails, standing in for a rollback.
func (m *memStore) runInTx(ctx context.Context, fn store.TxFn) error {
	m.mu.Lock()
	snapSC := cloneRefs(m.studentCourses)
	snapCS := cloneRefs(m.courseStudents)
	m.mu.Unlock()

	if err := fn(ctx, nil); err != nil {
		m.mu.Lock()
		m.studentCourses = snapSC
		m.courseStudents = snapCS
		m.mu.Unlock()
		return err
	}
	return nil
}

func cloneRefs(refs map[uuid.UUID]map[uuid.UUID]struct{}) map[uuid.UUID]map[uuid.UUID]struct{} {
	out := make(map[uuid.UUID]map[uuid.UUID]struct{}, len(refs))
	for owner, set := range refs {
		dup := make(map[uuid.UUID]struct{}, len(set))
		for id := range set {
			dup[id] = struct{}{}
		}
		out[owner] = dup
	}
	return out
}

func refsToSlice(set map[uuid.UUID]struct{}) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// studentStore view

type memStudentStore struct{ m *memStore }

var _ store.StudentStore = (*memStudentStore)(nil)

func (s *memStudentStore) Create(ctx context.Context, student *domain.Student) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, existing := range s.m.students {
		if existing.StudentNumber == student.StudentNumber {
			return store.ErrStudentNumberExists
		}
	}
	cp := *student
	s.m.students[student.ID] = &cp
	s.m.studentCourses[student.ID] = make(map[uuid.UUID]struct{})
	return nil
}

func (s *memStudentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Student, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	student, ok := s.m.students[id]
	if !ok {
		return nil, store.ErrStudentNotFound
	}
	cp := *student
	cp.Courses = refsToSlice(s.m.studentCourses[id])
	return &cp, nil
}

func (s *memStudentStore) GetByStudentNumber(ctx context.Context, number int64) (*domain.Student, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for id, student := range s.m.students {
		if student.StudentNumber == number {
			cp := *student
			cp.Courses = refsToSlice(s.m.studentCourses[id])
			return &cp, nil
		}
	}
	return nil, store.ErrStudentNotFound
}

func (s *memStudentStore) List(ctx context.Context) ([]*domain.Student, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []*domain.Student
	for id, student := range s.m.students {
		if student.IsReserved() {
			continue
		}
		cp := *student
		cp.Courses = refsToSlice(s.m.studentCourses[id])
		out = append(out, &cp)
	}
	return out, nil
}

func (s *memStudentStore) ListAll(ctx context.Context) ([]*domain.Student, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []*domain.Student
	for id, student := range s.m.students {
		cp := *student
		cp.Courses = refsToSlice(s.m.studentCourses[id])
		out = append(out, &cp)
	}
	return out, nil
}

func (s *memStudentStore) ListNotEnrolled(ctx context.Context, courseID uuid.UUID) ([]*domain.Student, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	enrolled := s.m.courseStudents[courseID]
	var out []*domain.Student
	for id, student := range s.m.students {
		if student.IsReserved() {
			continue
		}
		if _, ok := enrolled[id]; ok {
			continue
		}
		cp := *student
		cp.Courses = refsToSlice(s.m.studentCourses[id])
		out = append(out, &cp)
	}
	return out, nil
}

func (s *memStudentStore) Update(ctx context.Context, student *domain.Student) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.students[student.ID]; !ok {
		return store.ErrStudentNotFound
	}
	for id, existing := range s.m.students {
		if id != student.ID && existing.StudentNumber == student.StudentNumber {
			return store.ErrStudentNumberExists
		}
	}
	cp := *student
	s.m.students[student.ID] = &cp
	return nil
}

func (s *memStudentStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.students[id]; !ok {
		return store.ErrStudentNotFound
	}
	delete(s.m.students, id)
	delete(s.m.studentCourses, id)
	return nil
}

func (s *memStudentStore) AddCourseRef(ctx context.Context, studentID, courseID uuid.UUID) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	set, ok := s.m.studentCourses[studentID]
	if !ok {
		set = make(map[uuid.UUID]struct{})
		s.m.studentCourses[studentID] = set
	}
	set[courseID] = struct{}{}
	return nil
}

func (s *memStudentStore) RemoveCourseRef(ctx context.Context, studentID, courseID uuid.UUID) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err, ok := s.m.failRemoveCourseRef[studentID]; ok {
		return err
	}
	delete(s.m.studentCourses[studentID], courseID)
	return nil
}

func (s *memStudentStore) GetCourseRefs(ctx context.Context, studentID uuid.UUID) ([]uuid.UUID, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	set, ok := s.m.studentCourses[studentID]
	if !ok {
		return nil, store.ErrStudentNotFound
	}
	return refsToSlice(set), nil
}

func (s *memStudentStore) WithTx(tx *sql.Tx) store.StudentStore { return s }

// courseStore view

type memCourseStore struct{ m *memStore }

var _ store.CourseStore = (*memCourseStore)(nil)

func (s *memCourseStore) Create(ctx context.Context, course *domain.Course) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, existing := range s.m.courses {
		if existing.CourseCode == course.CourseCode {
			return store.ErrCourseCodeExists
		}
	}
	cp := *course
	s.m.courses[course.ID] = &cp
	s.m.courseStudents[course.ID] = make(map[uuid.UUID]struct{})
	return nil
}

func (s *memCourseStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	course, ok := s.m.courses[id]
	if !ok {
		return nil, store.ErrCourseNotFound
	}
	cp := *course
	cp.Students = refsToSlice(s.m.courseStudents[id])
	return &cp, nil
}

func (s *memCourseStore) GetByCode(ctx context.Context, code string) (*domain.Course, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for id, course := range s.m.courses {
		if course.CourseCode == code {
			cp := *course
			cp.Students = refsToSlice(s.m.courseStudents[id])
			return &cp, nil
		}
	}
	return nil, store.ErrCourseNotFound
}

func (s *memCourseStore) List(ctx context.Context) ([]*domain.Course, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []*domain.Course
	for id, course := range s.m.courses {
		cp := *course
		cp.Students = refsToSlice(s.m.courseStudents[id])
		out = append(out, &cp)
	}
	return out, nil
}

func (s *memCourseStore) ListAvailable(ctx context.Context, studentID uuid.UUID) ([]*domain.Course, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []*domain.Course
	for id, course := range s.m.courses {
		if _, ok := s.m.courseStudents[id][studentID]; ok {
			continue
		}
		cp := *course
		cp.Students = refsToSlice(s.m.courseStudents[id])
		out = append(out, &cp)
	}
	return out, nil
}

func (s *memCourseStore) ListEnrolled(ctx context.Context, studentID uuid.UUID) ([]*domain.Course, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []*domain.Course
	for courseID := range s.m.studentCourses[studentID] {
		course, ok := s.m.courses[courseID]
		if !ok {
			continue
		}
		cp := *course
		cp.Students = refsToSlice(s.m.courseStudents[courseID])
		out = append(out, &cp)
	}
	return out, nil
}

func (s *memCourseStore) Update(ctx context.Context, course *domain.Course) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.courses[course.ID]; !ok {
		return store.ErrCourseNotFound
	}
	cp := *course
	s.m.courses[course.ID] = &cp
	return nil
}

func (s *memCourseStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.courses[id]; !ok {
		return store.ErrCourseNotFound
	}
	delete(s.m.courses, id)
	delete(s.m.courseStudents, id)
	return nil
}

func (s *memCourseStore) AddStudentRef(ctx context.Context, courseID, studentID uuid.UUID) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.failAddStudentRef != nil {
		return s.m.failAddStudentRef
	}
	set, ok := s.m.courseStudents[courseID]
	if !ok {
		set = make(map[uuid.UUID]struct{})
		s.m.courseStudents[courseID] = set
	}
	set[studentID] = struct{}{}
	return nil
}

func (s *memCourseStore) RemoveStudentRef(ctx context.Context, courseID, studentID uuid.UUID) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err, ok := s.m.failRemoveStudentRef[courseID]; ok {
		return err
	}
	delete(s.m.courseStudents[courseID], studentID)
	return nil
}

func (s *memCourseStore) GetStudentRefs(ctx context.Context, courseID uuid.UUID) ([]uuid.UUID, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	set, ok := s.m.courseStudents[courseID]
	if !ok {
		return nil, store.ErrCourseNotFound
	}
	return refsToSlice(set), nil
}

func (s *memCourseStore) WithTx(tx *sql.Tx) store.CourseStore { return s }
