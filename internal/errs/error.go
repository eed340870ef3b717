package errs

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrGuest            = errors.New("guest session is read-only")
	ErrNotAdmin         = errors.New("administrator rights required")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrSignedIn         = errors.New("already signed in")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnexpectedBody   = errors.New("unexpected response body")
)

// Kind classifies a failed backend call.
type Kind uint8

const (
	KindTransport Kind = iota + 1
	KindAuth
	KindValidation
	KindRejected
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindAuth:
		return "auth"
	case KindValidation:
		return "validation"
	case KindRejected:
		return "rejected"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

type APIError struct {
	Kind   Kind
	Status int
	// Message is the backend-provided message, empty when none was sent.
	Message string
	// Payload is the raw response body.
	Payload []byte
	Err     error
}

func (e *APIError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	default:
		return fmt.Sprintf("%s (%d)", e.Kind, e.Status)
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func Transport(err error) *APIError {
	return &APIError{Kind: KindTransport, Err: err}
}

// ErrorResponse is the error body shape served by the backend.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func (r ErrorResponse) Text() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Detail
}

// FromStatus builds the error for a non-2xx response. validation marks calls whose 400
// carries field errors.
func FromStatus(status int, body []byte, msg string, validation bool) *APIError {
	e := &APIError{Status: status, Message: msg, Payload: body}
	switch {
	case status == http.StatusUnauthorized:
		e.Kind = KindAuth
	case status == http.StatusBadRequest && validation:
		e.Kind = KindValidation
		if e.Message == "" {
			e.Message = FieldErrors(body)
		}
	case status >= http.StatusInternalServerError:
		e.Kind = KindServer
	default:
		e.Kind = KindRejected
	}
	return e
}

const nonFieldErrors = "non_field_errors"

// FieldErrors flattens a {"field": ["msg", ...]} body into "field: msg; other: msg".
// Fields are sorted; non_field_errors are listed without a prefix. Empty when body is not
// such a map.
func FieldErrors(body []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || len(fields) == 0 {
		return ""
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		text := fieldText(fields[name])
		if text == "" {
			continue
		}
		if name == nonFieldErrors {
			parts = append(parts, text)
			continue
		}
		parts = append(parts, name+": "+text)
	}
	return strings.Join(parts, "; ")
}

func fieldText(raw json.RawMessage) string {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, " ")
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return one
	}
	return strings.TrimSpace(string(raw))
}
