// Package store declares the persistence interfaces for students and
// courses, the sentinel errors they report, and the transaction plumbing
// services use to commit the two halves of an enrollment atomically.
// Concrete implementations live under internal/platform/postgres.
package store
