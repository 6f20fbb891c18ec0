package attribute

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// OutputShape decodes one element of the API's value list.
type OutputShape func(raw json.RawMessage) (Value, error)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// outputOf builds the decoder for one kind. check runs after the struct
// tags pass and may add constraints the tags cannot express.
func outputOf[T Value](kind Kind, check func(T) []Issue) OutputShape {
	return func(raw json.RawMessage) (Value, error) {
		var head struct {
			AttributeType Kind `json:"attribute_type"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			return nil, invalid(CodeInvalidType, "expected a %s value object", kind)
		}
		if head.AttributeType != kind {
			return nil, &ValidationError{Issues: []Issue{{
				Path:    "attribute_type",
				Code:    CodeDiscriminant,
				Message: fmt.Sprintf("expected %q, got %q", kind, head.AttributeType),
			}}}
		}

		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, invalid(CodeInvalidType, "%s value: %v", kind, err)
		}

		var issues []Issue
		if v.Meta().ActiveFrom.IsZero() {
			issues = append(issues, Issue{Path: "active_from", Code: CodeRequired, Message: "missing activity start"})
		}
		issues = append(issues, structIssues(v)...)
		if len(issues) == 0 && check != nil {
			issues = append(issues, check(v)...)
		}
		if len(issues) > 0 {
			return nil, &ValidationError{Issues: issues}
		}
		return v, nil
	}
}

func structIssues(v any) []Issue {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []Issue{{Code: CodeConstraint, Message: err.Error()}}
	}
	issues := make([]Issue, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		issues = append(issues, Issue{
			Path:    fieldPath(fe.Namespace()),
			Code:    CodeConstraint,
			Message: constraintMessage(fe),
		})
	}
	return issues
}

// fieldPath drops the struct name and embedded metadata from a validator
// namespace: "TextValue.Metadata.created_by_actor.type" -> "created_by_actor.type".
func fieldPath(ns string) string {
	segments := strings.Split(ns, ".")
	out := segments[:0]
	for _, s := range segments[1:] {
		if s != "Metadata" {
			out = append(out, s)
		}
	}
	return strings.Join(out, ".")
}

func constraintMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "uuid":
		return "must be a UUID"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "iso4217":
		return "must be an ISO 4217 currency code"
	case "iso3166_1_alpha2":
		return "must be an ISO 3166-1 alpha-2 country code"
	case "required_without":
		return "required when " + fe.Param() + " is absent"
	case "gte", "lte":
		return fmt.Sprintf("must be %s %s", fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("failed %q", fe.Tag())
	}
}
