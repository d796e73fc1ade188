package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/notiontime/internal/clockify"
	"github.com/rpggio/notiontime/internal/domain/project"
)

// APIError is the error text returned by failing tools.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to tool error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *clockify.Error
	switch {
	case errors.Is(err, project.ErrProjectNotFound):
		return &APIError{Code: "PROJECT_NOT_FOUND", Message: "project not found", RecoveryHint: "Call list_projects for valid ids"}
	case errors.Is(err, project.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.As(err, &apiErr):
		return &APIError{Code: "CLOCKIFY_ERROR", Message: apiErr.Message, RecoveryHint: "Check the Clockify API key and workspace"}
	default:
		return &APIError{Code: "INTERNAL", Message: err.Error()}
	}
}
