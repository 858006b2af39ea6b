// Package task contains background processing for the registrar service,
// chiefly the reconciler that heals one-sided enrollment references between
// the student-side and course-side reference sets.
package task
