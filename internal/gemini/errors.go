package gemini

import (
	"errors"
	"fmt"
)

// ErrorPrefix is prepended to every failure shown to the user.
const ErrorPrefix = "Erro: "

const fallbackErrorMessage = "failed to process your request"

var ErrMissingAPIKey = errors.New("gemini api key is required")

// ValidationError reports local input that cannot become a request.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// TransportError reports a call that never produced an HTTP status.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return "transport error"
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError is a non-success status returned by the provider.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("API error: %d", e.Status)
}

// ShapeError is a success status whose body has no usable text.
// Point names the first missing link of candidates[0].content.parts[0].text.
type ShapeError struct {
	Point string
}

const (
	PointNoCandidates = "no candidates"
	PointNoContent    = "no content"
	PointNoParts      = "no parts"
	PointNoText       = "no text"
	PointMalformed    = "malformed body"
)

func (e *ShapeError) Error() string {
	return "no valid text in response"
}

// Detail includes the missing link, for logs.
func (e *ShapeError) Detail() string {
	return fmt.Sprintf("%s (%s)", e.Error(), e.Point)
}

// FormatError renders any failure the way the chat shows it.
func FormatError(err error) string {
	if err == nil || err.Error() == "" {
		return ErrorPrefix + fallbackErrorMessage
	}
	return ErrorPrefix + err.Error()
}
