package identity

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Error is a provider rejection, decoded from the error body when one
// exists.
type Error struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
	// Msg is the message field used by non-token endpoints.
	Msg string `json:"msg"`
}

func (e *Error) Error() string {
	switch {
	case e.Code != "" && e.Description != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Description)
	case e.Msg != "":
		return e.Msg
	default:
		return fmt.Sprintf("provider returned status %d", e.StatusCode)
	}
}

// responseError converts a non-2xx provider response into an *Error.
func responseError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return fmt.Errorf("reading provider error response: %w", err)
	}

	provErr := Error{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(body, &provErr); err != nil {
		provErr.Msg = string(body)
	}
	return &provErr
}
