package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoModels is returned when a fallback policy has no candidates
var ErrNoModels = errors.New("no candidate models configured")

// ErrorCode classifies generation failures independently of the provider
type ErrorCode int

const (
	CodeUnknown       ErrorCode = iota
	CodeModelNotFound           // The service does not recognize the model identifier
	CodeRateLimited
	CodeUnauthorized
	CodeBadRequest
	CodeUnavailable
)

func (c ErrorCode) String() string {
	switch c {
	case CodeModelNotFound:
		return "model_not_found"
	case CodeRateLimited:
		return "rate_limited"
	case CodeUnauthorized:
		return "unauthorized"
	case CodeBadRequest:
		return "bad_request"
	case CodeUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// GenerationError is the structured failure every Generator returns for
// service-side errors
type GenerationError struct {
	Provider string
	Model    string
	Code     ErrorCode
	Status   int
	Message  string
	Err      error
}

func (e *GenerationError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s API error (%d %s): %s", e.Provider, e.Status, e.Code, msg)
	}
	return fmt.Sprintf("%s API error (%s): %s", e.Provider, e.Code, msg)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsModelNotFound reports whether err says the model identifier is unrecognized
func IsModelNotFound(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr) && genErr.Code == CodeModelNotFound
}

// codeForStatus maps an HTTP status to an error code
func codeForStatus(status int) ErrorCode {
	switch {
	case status == http.StatusNotFound:
		return CodeModelNotFound
	case status == http.StatusTooManyRequests:
		return CodeRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return CodeUnauthorized
	case status >= 500:
		return CodeUnavailable
	case status >= 400:
		return CodeBadRequest
	default:
		return CodeUnknown
	}
}
