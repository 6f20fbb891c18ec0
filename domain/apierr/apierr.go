// Package apierr maps Attio error responses to typed errors.
// All functions are pure: the status, body and Retry-After header go in,
// a classified error comes out.
package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Kind classifies a server-reported failure.
type Kind string

const (
	KindNotFound               Kind = "not_found"
	KindValidation             Kind = "validation"
	KindMissingValue           Kind = "missing_value"
	KindImmutableValue         Kind = "immutable_value"
	KindFilter                 Kind = "filter"
	KindMultipleMatch          Kind = "multiple_match_results"
	KindSystemEditUnauthorized Kind = "system_edit_unauthorized"
	KindUniquenessConflict     Kind = "uniqueness_conflict"
	KindConflict               Kind = "conflict"
	KindUnauthorized           Kind = "unauthorized"
	KindForbidden              Kind = "forbidden"
	KindRateLimited            Kind = "rate_limited"
)

// Sentinels for errors.Is. Every *Error matches the sentinel of its Kind.
var (
	ErrNotFound               = errors.New("not found")
	ErrValidation             = errors.New("validation failed")
	ErrMissingValue           = errors.New("missing value")
	ErrImmutableValue         = errors.New("immutable value")
	ErrFilter                 = errors.New("invalid filter")
	ErrMultipleMatch          = errors.New("multiple match results")
	ErrSystemEditUnauthorized = errors.New("system edit unauthorized")
	ErrUniquenessConflict     = errors.New("uniqueness conflict")
	ErrConflict               = errors.New("conflict")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrForbidden              = errors.New("forbidden")
	ErrRateLimited            = errors.New("rate limited")
)

var sentinels = map[Kind]error{
	KindNotFound:               ErrNotFound,
	KindValidation:             ErrValidation,
	KindMissingValue:           ErrMissingValue,
	KindImmutableValue:         ErrImmutableValue,
	KindFilter:                 ErrFilter,
	KindMultipleMatch:          ErrMultipleMatch,
	KindSystemEditUnauthorized: ErrSystemEditUnauthorized,
	KindUniquenessConflict:     ErrUniquenessConflict,
	KindConflict:               ErrConflict,
	KindUnauthorized:           ErrUnauthorized,
	KindForbidden:              ErrForbidden,
	KindRateLimited:            ErrRateLimited,
}

// FieldError is one entry of a validation error's validation_errors.
// Path elements are attribute slugs or list indexes.
type FieldError struct {
	Code    string `json:"code"`
	Path    []any  `json:"path"`
	Message string `json:"message"`
}

// PathString joins the path the same way local validation issues do.
func (f FieldError) PathString() string {
	var b strings.Builder
	for _, seg := range f.Path {
		switch v := seg.(type) {
		case float64:
			fmt.Fprintf(&b, "[%d]", int(v))
		case string:
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			b.WriteString(v)
		}
	}
	return b.String()
}

// Error is a classified Attio error response.
type Error struct {
	Kind             Kind
	Status           int
	Type             string
	Code             string
	Message          string
	ValidationErrors []FieldError

	// RetryAfter is when a rate-limited request may be retried. Zero when
	// the server did not say.
	RetryAfter time.Time
}

func (e *Error) Error() string {
	return fmt.Sprintf("attio %s (%d %s): %s", e.Code, e.Status, e.Type, e.Message)
}

// Is matches the sentinel for the error's Kind.
func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// body is the error envelope Attio returns.
type body struct {
	StatusCode       int          `json:"status_code"`
	Type             string       `json:"type"`
	Code             string       `json:"code"`
	Message          *string      `json:"message"` // required, may be empty
	ValidationErrors []FieldError `json:"validation_errors"`
}

// rule matches an envelope to a kind. Empty fields match anything.
type rule struct {
	status int
	typ    string
	codes  []string
	kind   Kind
}

var rules = []rule{
	{status: http.StatusNotFound, codes: []string{"not_found"}, kind: KindNotFound},
	{status: http.StatusBadRequest, typ: "invalid_request_error", codes: []string{"validation_type"}, kind: KindValidation},
	{status: http.StatusBadRequest, typ: "invalid_request_error", codes: []string{"missing_value", "value_not_found"}, kind: KindMissingValue},
	{status: http.StatusBadRequest, typ: "invalid_request_error", codes: []string{"immutable_value"}, kind: KindImmutableValue},
	{status: http.StatusBadRequest, typ: "invalid_request_error", codes: []string{"filter_error"}, kind: KindFilter},
	{status: http.StatusBadRequest, typ: "invalid_request_error", codes: []string{"multiple_match_results"}, kind: KindMultipleMatch},
	{status: http.StatusBadRequest, typ: "invalid_request_error", codes: []string{"system_edit_unauthorized"}, kind: KindSystemEditUnauthorized},
	{status: http.StatusBadRequest, typ: "invalid_request_error", codes: []string{"uniqueness_conflict"}, kind: KindUniquenessConflict},
	{status: http.StatusConflict, typ: "invalid_request_error", codes: []string{"slug_conflict"}, kind: KindConflict},
	{status: http.StatusUnauthorized, typ: "auth_error", codes: []string{"unauthorized"}, kind: KindUnauthorized},
	{status: http.StatusForbidden, typ: "auth_error", codes: []string{"billing_error"}, kind: KindForbidden},
	{status: http.StatusTooManyRequests, typ: "rate_limit_error", kind: KindRateLimited},
}

func (r rule) matches(b body) bool {
	if r.status != b.StatusCode {
		return false
	}
	if r.typ != "" && r.typ != b.Type {
		return false
	}
	if len(r.codes) == 0 {
		return true
	}
	for _, c := range r.codes {
		if c == b.Code {
			return true
		}
	}
	return false
}

// Decode classifies an error response. It reports false when the body is
// not a recognised Attio error, which callers must treat as unexpected.
//
// The envelope's status_code defaults to the HTTP status when absent.
// retryAfter is the raw Retry-After header, resolved against now.
func Decode(status int, data []byte, retryAfter string, now time.Time) (*Error, bool) {
	var b body
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, false
	}
	if b.StatusCode == 0 {
		b.StatusCode = status
	}
	if b.StatusCode != status || b.Message == nil {
		return nil, false
	}

	for _, r := range rules {
		if !r.matches(b) {
			continue
		}
		if r.kind == KindValidation && b.ValidationErrors == nil {
			return nil, false
		}

		e := &Error{
			Kind:             r.kind,
			Status:           b.StatusCode,
			Type:             b.Type,
			Code:             b.Code,
			Message:          *b.Message,
			ValidationErrors: b.ValidationErrors,
		}
		if r.kind == KindRateLimited {
			e.RetryAfter, _ = ParseRetryAfter(retryAfter, now)
		}
		return e, true
	}

	return nil, false
}

// ParseRetryAfter parses a Retry-After header in either HTTP-date or
// delta-seconds form.
func ParseRetryAfter(header string, now time.Time) (time.Time, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return time.Time{}, false
	}
	if secs, err := strconv.Atoi(header); err == nil && secs >= 0 {
		return now.Add(time.Duration(secs) * time.Second), true
	}
	if t, err := http.ParseTime(header); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// KindOf returns the kind of a classified error anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
