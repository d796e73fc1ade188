package clockify

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Error is returned for every failed Clockify call: transport failures,
// non-2xx responses and bodies that cannot be decoded.
type Error struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("clockify %s: %d %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("clockify %s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns the remote message carried by err, or err's text when it
// did not come from Clockify.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

type errorBody struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func remoteMessage(body []byte, status string) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Message != "" {
		return eb.Message
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 {
		return text
	}
	return status
}
