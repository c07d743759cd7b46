package commands

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"todocli/internal/apiclient"
	"todocli/internal/exitcode"
	"todocli/internal/service"
	"todocli/internal/validation"
)

// usageError is a mistake in the command line itself.
type usageError string

func (e usageError) Error() string { return string(e) }

func usageErrorf(format string, args ...interface{}) error {
	return usageError(fmt.Sprintf(format, args...))
}

// ExitCode maps an error to the exit code the CLI reports for it.
func ExitCode(err error) int {
	var (
		ue usageError
		ve *apiclient.ValidationError
	)
	switch {
	case err == nil:
		return exitcode.Success
	case errors.As(err, &ue), validation.IsValidationError(err):
		return exitcode.UserError
	case errors.Is(err, apiclient.ErrUnauthorized), errors.Is(err, service.ErrNotAuthenticated):
		return exitcode.AuthError
	case errors.As(err, &ve) && ve.Status < http.StatusInternalServerError:
		return exitcode.UserError
	default:
		return exitcode.BackendError
	}
}

// reportError prints err and returns its exit code.
func reportError(w io.Writer, err error) int {
	var te *apiclient.TransportError
	if errors.As(err, &te) {
		fmt.Fprintf(w, "error: backend error: %v\n", err)
	} else {
		fmt.Fprintf(w, "error: %v\n", err)
	}
	return ExitCode(err)
}
