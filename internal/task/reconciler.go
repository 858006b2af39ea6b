package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/registrar-api/internal/domain"
)

// StudentDirectory is the student-side view the reconciler needs.
// store.StudentStore satisfies it. ListAll must include the reserved
// administrative account: the sweep uses it as existence ground truth, and a
// filtered listing would make the admin's valid enrollments look dangling.
type StudentDirectory interface {
	ListAll(ctx context.Context) ([]*domain.Student, error)
	AddCourseRef(ctx context.Context, studentID, courseID uuid.UUID) error
	RemoveCourseRef(ctx context.Context, studentID, courseID uuid.UUID) error
}

// CourseDirectory is the course-side view the reconciler needs.
// store.CourseStore satisfies it.
type CourseDirectory interface {
	List(ctx context.Context) ([]*domain.Course, error)
	AddStudentRef(ctx context.Context, courseID, studentID uuid.UUID) error
	RemoveStudentRef(ctx context.Context, courseID, studentID uuid.UUID) error
}

// ReconcilerConfig holds configuration for the reference reconciler.
type ReconcilerConfig struct {
	// Interval determines how often a reconciliation sweep runs.
	// If zero, defaults to 15 minutes.
	Interval time.Duration
}

// DefaultReconcilerConfig returns a ReconcilerConfig with reasonable defaults.
func DefaultReconcilerConfig() ReconcilerConfig {
	return ReconcilerConfig{
		Interval: 15 * time.Minute,
	}
}

// ReconcileReport summarizes a single reconciliation sweep.
type ReconcileReport struct {
	// HealedCourseSide counts course-side references added because a student
	// referenced the course without a matching back-reference.
	HealedCourseSide int

	// HealedStudentSide counts student-side references added because a course
	// referenced the student without a matching forward reference.
	HealedStudentSide int

	// RemovedDangling counts references removed because their target entity
	// no longer exists.
	RemovedDangling int
}

// Reconciler periodically scans the two enrollment reference sets and repairs
// divergence between them.
//
// A reference present on exactly one side is healed toward enrollment: the
// missing mirror reference is added. A reference whose target entity no
// longer exists is removed. Both repairs are idempotent, so a sweep racing a
// concurrent enrollment is harmless.
type Reconciler struct {
	students   StudentDirectory
	courses    CourseDirectory
	config     ReconcilerConfig
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewReconciler creates a new Reconciler.
// If logger is nil, a default logger will be used.
func NewReconciler(
	students StudentDirectory,
	courses CourseDirectory,
	config ReconcilerConfig,
	logger *slog.Logger,
) *Reconciler {
	if students == nil {
		panic("students cannot be nil")
	}
	if courses == nil {
		panic("courses cannot be nil")
	}
	if config.Interval == 0 {
		config.Interval = DefaultReconcilerConfig().Interval
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Reconciler{
		students: students,
		courses:  courses,
		config:   config,
		logger:   logger.With(slog.String("component", "reconciler")),
	}
}

// Start launches the periodic reconciliation loop. The first sweep runs after
// one interval, not immediately, so startup is not serialized behind a full
// table scan.
func (r *Reconciler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancelFunc = cancel

	r.wg.Add(1)
	go r.loop(ctx)
}

// Stop shuts down the reconciliation loop and waits for an in-flight sweep
// to finish.
func (r *Reconciler) Stop() {
	if r.cancelFunc != nil {
		r.cancelFunc()
	}
	r.wg.Wait()
}

func (r *Reconciler) loop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("stopping reconciler loop")
			return

		case <-ticker.C:
			report, err := r.Reconcile(ctx)
			if err != nil {
				r.logger.Error("reconciliation sweep failed",
					slog.String("error", err.Error()))
				continue
			}

			if report.HealedCourseSide > 0 || report.HealedStudentSide > 0 ||
				report.RemovedDangling > 0 {
				r.logger.Info("reconciliation sweep repaired references",
					slog.Int("healed_course_side", report.HealedCourseSide),
					slog.Int("healed_student_side", report.HealedStudentSide),
					slog.Int("removed_dangling", report.RemovedDangling))
			} else {
				r.logger.Debug("reconciliation sweep found no divergence")
			}
		}
	}
}

// Reconcile runs a single sweep over both reference sets and repairs any
// divergence it finds. It is exported so operators can trigger a sweep
// outside the periodic loop.
func (r *Reconciler) Reconcile(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	students, err := r.students.ListAll(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list students: %w", err)
	}

	courses, err := r.courses.List(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list courses: %w", err)
	}

	studentByID := make(map[uuid.UUID]*domain.Student, len(students))
	for _, s := range students {
		studentByID[s.ID] = s
	}
	courseByID := make(map[uuid.UUID]*domain.Course, len(courses))
	for _, c := range courses {
		courseByID[c.ID] = c
	}

	// Student-side pass: forward references without a live, mirrored course.
	for _, s := range students {
		for _, courseID := range s.Courses {
			course, ok := courseByID[courseID]
			if !ok {
				if err := r.students.RemoveCourseRef(ctx, s.ID, courseID); err != nil {
					return report, fmt.Errorf("failed to remove dangling course reference: %w", err)
				}
				report.RemovedDangling++
				continue
			}

			if !course.HasStudent(s.ID) {
				if err := r.courses.AddStudentRef(ctx, courseID, s.ID); err != nil {
					return report, fmt.Errorf("failed to heal course-side reference: %w", err)
				}
				report.HealedCourseSide++
			}
		}
	}

	// Course-side pass: back references without a live, mirrored student.
	for _, c := range courses {
		for _, studentID := range c.Students {
			student, ok := studentByID[studentID]
			if !ok {
				if err := r.courses.RemoveStudentRef(ctx, c.ID, studentID); err != nil {
					return report, fmt.Errorf("failed to remove dangling student reference: %w", err)
				}
				report.RemovedDangling++
				continue
			}

			if !student.EnrolledIn(c.ID) {
				if err := r.students.AddCourseRef(ctx, studentID, c.ID); err != nil {
					return report, fmt.Errorf("failed to heal student-side reference: %w", err)
				}
				report.HealedStudentSide++
			}
		}
	}

	return report, nil
}
