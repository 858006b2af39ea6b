// Package postgres implements the store interfaces over PostgreSQL. It owns
// the schema migrations, the mapping between driver errors and store sentinel
// errors, and the SQL behind the student and course reference tables.
package postgres
