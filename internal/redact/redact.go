// Package redact scrubs sensitive material from strings before they are
// written to logs. Error values in this service can carry database
// connection strings, raw SQL, credentials from failed logins, and student
// email addresses; none of that belongs in log output.
package redact

import "regexp"

// Placeholders substituted for matched sensitive content.
const (
	CredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	TokenPlaceholder      = "[REDACTED_TOKEN]"
	EmailPlaceholder      = "[REDACTED_EMAIL]"
	SQLPlaceholder        = "[REDACTED_SQL]"
	HostPlaceholder       = "[REDACTED_HOST]"
)

type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

// Rules are applied in order; earlier rules handle the more specific
// shapes (connection URLs before bare host:port, JWTs before generic
// secrets) so a broad pattern never mangles a match meant for a
// narrower one.
var rules = []rule{
	// Database connection URLs with inline credentials.
	{regexp.MustCompile(`(?i)(postgres|postgresql|mysql)://[^@\s]+@[^\s]+`), CredentialPlaceholder},

	// JWTs: three dot-separated base64url segments starting with the
	// standard {"alg"... header prefix.
	{regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`), TokenPlaceholder},

	// password=..., password: "...", pwd=... and friends.
	{regexp.MustCompile(`(?i)(password|passwd|pwd)(['"\s:=]+)[^'"&\s]{3,}`), CredentialPlaceholder},

	// secret/token/key assignments.
	{regexp.MustCompile(`(?i)(secret|token|api[_-]?key)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`), TokenPlaceholder},

	// Email addresses.
	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), EmailPlaceholder},

	// SQL statements leaking through driver errors.
	{regexp.MustCompile(`(?i)\b(SELECT|INSERT|UPDATE|DELETE|CREATE|ALTER|DROP)\b[\s\w,*()=$'".-]+\b(FROM|INTO|SET|TABLE|WHERE)\b[\s\w,*()=$'".-]*`), SQLPlaceholder},

	// host:port endpoints, e.g. db.internal:5432 or 10.0.0.5:5432.
	{regexp.MustCompile(`\b(?:\d{1,3}(?:\.\d{1,3}){3}|(?:[A-Za-z0-9](?:[A-Za-z0-9-]*[A-Za-z0-9])?\.)+[A-Za-z]{2,}):\d{1,5}\b`), HostPlaceholder},
}

// String returns input with every sensitive fragment replaced by its
// placeholder.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.placeholder)
	}
	return result
}

// Error redacts err's message. Returns "" for a nil error.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
