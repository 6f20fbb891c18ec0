package attribute

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalid is wrapped by every local decode or encode failure.
	ErrInvalid = errors.New("attribute: invalid value")

	// ErrReadOnly is returned when a value is encoded for an attribute that
	// has no input representation.
	ErrReadOnly = errors.New("attribute: read-only")
)

// Issue codes.
const (
	CodeInvalidType  = "invalid_type"
	CodeCardinality  = "cardinality"
	CodeRequired     = "required"
	CodeReadOnly     = "read_only"
	CodeUnknownField = "unknown_field"
	CodeDiscriminant = "discriminant"
	CodeConstraint   = "constraint"
	CodeNoMatch      = "no_shorthand_match"
)

// Issue is a single problem found while decoding or encoding a value.
type Issue struct {
	Path    string
	Code    string
	Message string
}

// Within returns a copy of the issue nested under the given path segment.
func (i Issue) Within(segment string) Issue {
	switch {
	case i.Path == "":
		i.Path = segment
	case strings.HasPrefix(i.Path, "["):
		i.Path = segment + i.Path
	default:
		i.Path = segment + "." + i.Path
	}
	return i
}

func (i Issue) String() string {
	if i.Path == "" {
		return fmt.Sprintf("%s: %s", i.Code, i.Message)
	}
	return fmt.Sprintf("%s: %s: %s", i.Path, i.Code, i.Message)
}

// ValidationError collects every issue found in one decode or encode pass.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		parts[i] = is.String()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap lets callers match with errors.Is(err, ErrInvalid), or ErrReadOnly
// when every issue is a read-only violation.
func (e *ValidationError) Unwrap() []error {
	errs := []error{ErrInvalid}
	for _, is := range e.Issues {
		if is.Code == CodeReadOnly {
			errs = append(errs, ErrReadOnly)
			break
		}
	}
	return errs
}

// Within nests every issue of err under segment. Errors that are not
// validation errors are returned unchanged.
func Within(segment string, err error) error {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	out := &ValidationError{Issues: make([]Issue, len(verr.Issues))}
	for i, is := range verr.Issues {
		out.Issues[i] = is.Within(segment)
	}
	return out
}

// IssuesOf returns the issues carried by err, or nil.
func IssuesOf(err error) []Issue {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Issues
	}
	return nil
}

func invalid(code, format string, args ...any) *ValidationError {
	return &ValidationError{Issues: []Issue{{Code: code, Message: fmt.Sprintf(format, args...)}}}
}
