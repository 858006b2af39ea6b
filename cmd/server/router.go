package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/registrar-api/internal/api"
	apiMiddleware "github.com/phrazzld/registrar-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	tokenLifetime := time.Duration(app.config.Auth.TokenLifetimeMinutes) * time.Minute
	authHandler := api.NewAuthHandler(
		app.studentStore,
		app.jwtService,
		app.passwordVerifier,
		tokenLifetime,
	)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	studentHandler := api.NewStudentHandler(app.studentService, app.enrollmentService, app.queryService)
	courseHandler := api.NewCourseHandler(app.courseService, app.enrollmentService, app.queryService)
	enrollmentHandler := api.NewEnrollmentHandler(app.enrollmentService)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		// Student creation is public: it doubles as registration.
		r.Post("/students", studentHandler.Create)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Student endpoints
			r.Get("/students", studentHandler.List)
			r.Get("/students/not-enrolled/{courseID}", studentHandler.ListNotEnrolled)
			r.Get("/students/{studentID}", studentHandler.Get)
			r.Put("/students/{studentID}", studentHandler.Update)
			r.Delete("/students/{studentID}", studentHandler.Delete)

			// Course endpoints
			r.Post("/courses", courseHandler.Create)
			r.Get("/courses", courseHandler.List)
			r.Get("/courses/available/{studentID}", courseHandler.ListAvailable)
			r.Get("/courses/enrolled/{studentID}", courseHandler.ListEnrolled)
			r.Get("/courses/{courseID}", courseHandler.Get)
			r.Put("/courses/{courseID}", courseHandler.Update)
			r.Delete("/courses/{courseID}", courseHandler.Delete)

			// Enrollment endpoints
			r.Post("/enrollments", enrollmentHandler.Enroll)
			r.Delete("/enrollments/{studentID}/{courseID}", enrollmentHandler.Drop)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
