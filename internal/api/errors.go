package api

import (
	"errors"
	"log/slog"
	"net/http"

	"sentinel/internal/domain"
)

// httpStatusFromDomainError maps domain errors to HTTP status codes.
func httpStatusFromDomainError(err error) int {
	var authn *domain.AuthenticationError
	var authz *domain.AuthorizationError
	var notFound *domain.NotFoundError
	var validation *domain.ValidationError
	var conflict *domain.ConflictError
	var directory *domain.DirectoryError
	var command *domain.CommandExecutionError

	switch {
	case errors.As(err, &authn):
		return http.StatusUnauthorized
	case errors.As(err, &authz):
		return http.StatusForbidden
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &directory), errors.As(err, &command):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorBody is the JSON error shape returned by every endpoint.
type errorBody struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Stderr   string `json:"stderr,omitempty"`
	ExitCode int    `json:"exitCode,omitempty"`
}

// writeDomainError renders err with the status it maps to. Upstream and
// internal failures are logged in full and reported generically, except
// for command failures, whose stderr is returned for the operator.
func writeDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := httpStatusFromDomainError(err)
	body := errorBody{Code: status, Message: err.Error()}

	var directory *domain.DirectoryError
	var command *domain.CommandExecutionError
	switch {
	case errors.As(err, &command):
		logger.Error("command failed", "command", command.Command, "reason", command.Reason, "exit_code", command.ExitCode)
		body.Message = "command failed: " + command.Reason
		body.Stderr = command.Stderr
		body.ExitCode = command.ExitCode
	case errors.As(err, &directory):
		logger.Error("directory operation failed", "op", directory.Op, "error", directory.Err)
		body.Message = "directory " + directory.Op + " failed"
	case status == http.StatusInternalServerError:
		logger.Error("internal error", "error", err)
		body.Message = "internal server error"
	}

	writeJSON(w, status, body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Code: status, Message: message})
}
