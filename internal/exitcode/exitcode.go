// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, invalid input, unknown task).
	UserError = 1

	// AuthError indicates a session error (not logged in, rejected or expired token).
	AuthError = 2

	// BackendError indicates a backend/API/network error.
	BackendError = 3
)
