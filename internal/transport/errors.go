package transport

import (
	"errors"
	"net/http"

	"github.com/rpggio/notiontime/internal/clockify"
	"github.com/rpggio/notiontime/internal/domain/project"
	"github.com/rpggio/notiontime/internal/domain/tracking"
	"github.com/rpggio/notiontime/internal/notion"
)

// errBadID is returned for a non-numeric mapping id.
var errBadID = errors.New("invalid project id")

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, notion.ErrMalformedPayload),
		errors.Is(err, tracking.ErrInvalidEvent),
		errors.Is(err, project.ErrInvalidInput),
		errors.Is(err, errBadID):
		return http.StatusBadRequest
	case errors.Is(err, project.ErrProjectNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with a plain-text body. Server errors are prefixed
// with the failing operation and carry the upstream message when there is one.
func writeError(w http.ResponseWriter, prefix string, err error) {
	status := statusFor(err)
	var msg string
	switch status {
	case http.StatusUnauthorized:
		msg = "Invalid secret"
	case http.StatusNotFound:
		msg = "Project not found"
	case http.StatusRequestEntityTooLarge:
		msg = "Payload too large"
	case http.StatusBadRequest:
		msg = err.Error()
	default:
		msg = prefix + ": " + clockify.Message(err)
	}
	http.Error(w, msg, status)
}
