package attribute

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// InputShape normalizes one caller-supplied value into the canonical wire
// object. Each kind tries its accepted shorthands in a fixed order and the
// first match wins.
type InputShape func(v any) (map[string]any, error)

func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case Decimal:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	}
	return nil, false
}

// objectFields reports the keys of an object shorthand outside allowed.
func objectFields(m map[string]any, allowed ...string) []Issue {
	var issues []Issue
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		known := false
		for _, a := range allowed {
			if k == a {
				known = true
				break
			}
		}
		if !known {
			issues = append(issues, Issue{Path: k, Code: CodeUnknownField, Message: "not accepted here"})
		}
	}
	return issues
}

func noMatch(forms string) *ValidationError {
	return invalid(CodeNoMatch, "expected %s", forms)
}

func stringField(m map[string]any, key string) (string, *ValidationError) {
	raw, ok := m[key]
	if !ok {
		return "", &ValidationError{Issues: []Issue{{Path: key, Code: CodeRequired, Message: "required"}}}
	}
	s, ok := raw.(string)
	if !ok {
		return "", &ValidationError{Issues: []Issue{{Path: key, Code: CodeInvalidType, Message: "expected a string"}}}
	}
	return s, nil
}

func withUnknown(m map[string]any, allowed []string, out map[string]any, err *ValidationError) (map[string]any, error) {
	issues := objectFields(m, allowed...)
	if err != nil {
		issues = append(err.Issues, issues...)
	}
	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}
	return out, nil
}

func textInput(v any) (map[string]any, error) {
	if s, ok := v.(string); ok {
		return map[string]any{"value": s}, nil
	}
	if m, ok := asMap(v); ok {
		s, err := stringField(m, "value")
		return withUnknown(m, []string{"value"}, map[string]any{"value": s}, err)
	}
	return nil, noMatch("a string or {value: string}")
}

func numberInput(v any) (map[string]any, error) {
	if f, ok := toFloat(v); ok {
		return map[string]any{"value": f}, nil
	}
	if m, ok := asMap(v); ok {
		f, ok := toFloat(m["value"])
		if !ok {
			return nil, &ValidationError{Issues: []Issue{{Path: "value", Code: CodeInvalidType, Message: "expected a number"}}}
		}
		return withUnknown(m, []string{"value"}, map[string]any{"value": f}, nil)
	}
	return nil, noMatch("a number or {value: number}")
}

func currencyAmount(v any) (float64, bool) {
	if f, ok := toFloat(v); ok {
		return f, true
	}
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	return 0, false
}

func currencyInput(v any) (map[string]any, error) {
	if f, ok := currencyAmount(v); ok {
		return map[string]any{"currency_value": f}, nil
	}
	if m, ok := asMap(v); ok {
		f, ok := currencyAmount(m["currency_value"])
		if !ok {
			return nil, &ValidationError{Issues: []Issue{{Path: "currency_value", Code: CodeInvalidType, Message: "expected a number or numeric string"}}}
		}
		return withUnknown(m, []string{"currency_value"}, map[string]any{"currency_value": f}, nil)
	}
	return nil, noMatch("a number, a numeric string or {currency_value}")
}

func dateString(v any) (string, bool) {
	switch d := v.(type) {
	case time.Time:
		return DateOf(d).String(), true
	case CalendarDate:
		return d.String(), true
	case string:
		parsed, err := ParseDate(d)
		if err != nil {
			return "", false
		}
		return parsed.String(), true
	}
	return "", false
}

func dateInput(v any) (map[string]any, error) {
	if s, ok := dateString(v); ok {
		return map[string]any{"value": s}, nil
	}
	if m, ok := asMap(v); ok {
		s, ok := dateString(m["value"])
		if !ok {
			return nil, &ValidationError{Issues: []Issue{{Path: "value", Code: CodeInvalidType, Message: "expected a date"}}}
		}
		return withUnknown(m, []string{"value"}, map[string]any{"value": s}, nil)
	}
	return nil, noMatch("a time, a YYYY-MM-DD string or {value}")
}

func timestampString(v any) (string, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano), true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return "", false
		}
		return parsed.UTC().Format(time.RFC3339Nano), true
	}
	return "", false
}

func timestampInput(v any) (map[string]any, error) {
	if s, ok := timestampString(v); ok {
		return map[string]any{"value": s}, nil
	}
	if m, ok := asMap(v); ok {
		s, ok := timestampString(m["value"])
		if !ok {
			return nil, &ValidationError{Issues: []Issue{{Path: "value", Code: CodeInvalidType, Message: "expected an RFC 3339 timestamp"}}}
		}
		return withUnknown(m, []string{"value"}, map[string]any{"value": s}, nil)
	}
	return nil, noMatch("a time, an RFC 3339 string or {value}")
}

func checkboxInput(v any) (map[string]any, error) {
	switch b := v.(type) {
	case bool:
		return map[string]any{"value": b}, nil
	case string:
		if b == "true" || b == "false" {
			return map[string]any{"value": b == "true"}, nil
		}
	}
	if m, ok := asMap(v); ok {
		b, ok := m["value"].(bool)
		if !ok {
			return nil, &ValidationError{Issues: []Issue{{Path: "value", Code: CodeInvalidType, Message: "expected a boolean"}}}
		}
		return withUnknown(m, []string{"value"}, map[string]any{"value": b}, nil)
	}
	return nil, noMatch(`a boolean, "true", "false" or {value: boolean}`)
}

func domainInput(v any) (map[string]any, error) {
	if s, ok := v.(string); ok {
		return map[string]any{"domain": s}, nil
	}
	if m, ok := asMap(v); ok {
		s, err := stringField(m, "domain")
		return withUnknown(m, []string{"domain"}, map[string]any{"domain": s}, err)
	}
	return nil, noMatch("a string or {domain: string}")
}

func emailAddress(s string, path string) *ValidationError {
	if err := validate.Var(s, "required,email"); err != nil {
		return &ValidationError{Issues: []Issue{{Path: path, Code: CodeConstraint, Message: fmt.Sprintf("%q is not an email address", s)}}}
	}
	return nil
}

func emailInput(v any) (map[string]any, error) {
	if s, ok := v.(string); ok {
		if err := emailAddress(s, ""); err != nil {
			return nil, err
		}
		return map[string]any{"email_address": s}, nil
	}
	if m, ok := asMap(v); ok {
		s, err := stringField(m, "email_address")
		if err == nil {
			err = emailAddress(s, "email_address")
		}
		return withUnknown(m, []string{"email_address"}, map[string]any{"email_address": s}, err)
	}
	return nil, noMatch("a string or {email_address: string}")
}

func countryCode(v any, path string) (any, *ValidationError) {
	if v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok || validate.Var(s, "iso3166_1_alpha2") != nil {
		return nil, &ValidationError{Issues: []Issue{{Path: path, Code: CodeConstraint, Message: "must be an ISO 3166-1 alpha-2 country code"}}}
	}
	return s, nil
}

func phoneInput(v any) (map[string]any, error) {
	if s, ok := v.(string); ok {
		return map[string]any{"original_phone_number": s}, nil
	}
	if m, ok := asMap(v); ok {
		s, err := stringField(m, "original_phone_number")
		out := map[string]any{"original_phone_number": s}
		if raw, present := m["country_code"]; present {
			cc, ccErr := countryCode(raw, "country_code")
			if ccErr != nil {
				if err == nil {
					err = ccErr
				} else {
					err.Issues = append(err.Issues, ccErr.Issues...)
				}
			}
			out["country_code"] = cc
		}
		return withUnknown(m, []string{"original_phone_number", "country_code"}, out, err)
	}
	return nil, noMatch("a string or {original_phone_number, country_code}")
}

var locationKeys = []string{
	"line_1", "line_2", "line_3", "line_4", "locality", "region",
	"postcode", "country_code", "latitude", "longitude",
}

func emptyLocation() map[string]any {
	out := make(map[string]any, len(locationKeys))
	for _, k := range locationKeys {
		out[k] = nil
	}
	return out
}

// Locations are written atomically, so every property is always sent.
func locationInput(v any) (map[string]any, error) {
	if s, ok := v.(string); ok {
		out := emptyLocation()
		out["line_1"] = s
		return out, nil
	}
	m, ok := asMap(v)
	if !ok {
		return nil, noMatch("an address string or a location object")
	}
	out := emptyLocation()
	var issues []Issue
	for _, k := range locationKeys {
		raw, present := m[k]
		if !present || raw == nil {
			continue
		}
		switch k {
		case "country_code":
			cc, err := countryCode(raw, k)
			if err != nil {
				issues = append(issues, err.Issues...)
			}
			out[k] = cc
		case "latitude", "longitude":
			f, ok := currencyAmount(raw)
			if !ok {
				issues = append(issues, Issue{Path: k, Code: CodeInvalidType, Message: "expected a number or numeric string"})
				continue
			}
			out[k] = strconv.FormatFloat(f, 'f', -1, 64)
		default:
			s, ok := raw.(string)
			if !ok {
				issues = append(issues, Issue{Path: k, Code: CodeInvalidType, Message: "expected a string or null"})
				continue
			}
			out[k] = s
		}
	}
	var err *ValidationError
	if len(issues) > 0 {
		err = &ValidationError{Issues: issues}
	}
	return withUnknown(m, locationKeys, out, err)
}

// splitName reads "Last, First" first, then falls back to splitting on the
// last space.
func splitName(s string) (first, last string) {
	s = strings.TrimSpace(s)
	if before, after, ok := strings.Cut(s, ","); ok {
		return strings.TrimSpace(after), strings.TrimSpace(before)
	}
	if i := strings.LastIndex(s, " "); i >= 0 {
		return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
	}
	return s, ""
}

func fullName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}

func personalNameInput(v any) (map[string]any, error) {
	if s, ok := v.(string); ok {
		if strings.TrimSpace(s) == "" {
			return nil, invalid(CodeConstraint, "name must not be empty")
		}
		first, last := splitName(s)
		return map[string]any{"first_name": first, "last_name": last, "full_name": fullName(first, last)}, nil
	}
	m, ok := asMap(v)
	if !ok {
		return nil, noMatch(`a "Last, First" string or {first_name, last_name, full_name}`)
	}
	var issues []Issue
	first, err := stringField(m, "first_name")
	if err != nil {
		issues = append(issues, err.Issues...)
	}
	last, err := stringField(m, "last_name")
	if err != nil {
		issues = append(issues, err.Issues...)
	}
	full := fullName(first, last)
	if _, present := m["full_name"]; present {
		full, err = stringField(m, "full_name")
		if err != nil {
			issues = append(issues, err.Issues...)
		}
	}
	var verr *ValidationError
	if len(issues) > 0 {
		verr = &ValidationError{Issues: issues}
	}
	out := map[string]any{"first_name": first, "last_name": last, "full_name": full}
	return withUnknown(m, []string{"first_name", "last_name", "full_name"}, out, verr)
}

func ratingValue(v any, path string) (int, *ValidationError) {
	f, ok := toFloat(v)
	if !ok {
		return 0, &ValidationError{Issues: []Issue{{Path: path, Code: CodeInvalidType, Message: "expected a number"}}}
	}
	if f < 0 || f > 5 || f != math.Trunc(f) {
		return 0, &ValidationError{Issues: []Issue{{Path: path, Code: CodeConstraint, Message: "must be a whole number from 0 to 5"}}}
	}
	return int(f), nil
}

func ratingInput(v any) (map[string]any, error) {
	if _, ok := toFloat(v); ok {
		n, err := ratingValue(v, "")
		if err != nil {
			return nil, err
		}
		return map[string]any{"value": n}, nil
	}
	if m, ok := asMap(v); ok {
		n, err := ratingValue(m["value"], "value")
		if err != nil {
			return nil, err
		}
		return withUnknown(m, []string{"value"}, map[string]any{"value": n}, nil)
	}
	return nil, noMatch("a number from 0 to 5 or {value}")
}

// selectInput accepts an option id or title. With a fixed option list only
// those titles are accepted.
func selectInput(options []string) InputShape {
	allowed := func(s string) *ValidationError {
		if len(options) == 0 {
			return nil
		}
		for _, o := range options {
			if s == o {
				return nil
			}
		}
		return invalid(CodeConstraint, "%q is not one of: %s", s, strings.Join(options, ", "))
	}
	return func(v any) (map[string]any, error) {
		if s, ok := v.(string); ok {
			if err := allowed(s); err != nil {
				return nil, err
			}
			return map[string]any{"option": s}, nil
		}
		if m, ok := asMap(v); ok {
			s, err := stringField(m, "option")
			if err == nil {
				if err = allowed(s); err != nil {
					err = &ValidationError{Issues: []Issue{err.Issues[0].Within("option")}}
				}
			}
			return withUnknown(m, []string{"option"}, map[string]any{"option": s}, err)
		}
		return nil, noMatch("an option id, an option title or {option}")
	}
}

func statusInput(v any) (map[string]any, error) {
	if s, ok := v.(string); ok {
		return map[string]any{"status": s}, nil
	}
	if m, ok := asMap(v); ok {
		s, err := stringField(m, "status")
		return withUnknown(m, []string{"status"}, map[string]any{"status": s}, err)
	}
	return nil, noMatch("a status id, a status title or {status}")
}

func memberByID(id string) map[string]any {
	return map[string]any{"referenced_actor_type": ActorWorkspaceMember, "referenced_actor_id": id}
}

func actorReferenceInput(v any) (map[string]any, error) {
	if s, ok := v.(string); ok {
		if isUUID(s) {
			return memberByID(s), nil
		}
		if err := emailAddress(s, ""); err != nil {
			return nil, err
		}
		return map[string]any{"workspace_member_email_address": s}, nil
	}
	m, ok := asMap(v)
	if !ok {
		return nil, noMatch("a member id, a member email or an actor object")
	}
	if _, present := m["workspace_member_email_address"]; present {
		s, err := stringField(m, "workspace_member_email_address")
		if err == nil {
			err = emailAddress(s, "workspace_member_email_address")
		}
		return withUnknown(m, []string{"workspace_member_email_address"}, map[string]any{"workspace_member_email_address": s}, err)
	}
	typ, err := stringField(m, "referenced_actor_type")
	if err != nil {
		return nil, err
	}
	if typ != ActorWorkspaceMember {
		return nil, &ValidationError{Issues: []Issue{{Path: "referenced_actor_type", Code: CodeConstraint, Message: "only workspace members can be referenced"}}}
	}
	id, err := stringField(m, "referenced_actor_id")
	if err == nil && !isUUID(id) {
		err = &ValidationError{Issues: []Issue{{Path: "referenced_actor_id", Code: CodeConstraint, Message: "must be a UUID"}}}
	}
	return withUnknown(m, []string{"referenced_actor_type", "referenced_actor_id"}, memberByID(id), err)
}

// matcher writes a reference to a record of one object through one of that
// object's unique attributes instead of the record id.
type matcher struct {
	key   string // attribute on the target object
	inner string // property of each element of that attribute
	check func(s string) *ValidationError
}

var matchers = map[string]matcher{
	"companies":  {key: "domains", inner: "domain"},
	"people":     {key: "email_addresses", inner: "email_address", check: func(s string) *ValidationError { return emailAddress(s, "") }},
	"users":      {key: "user_id", inner: "value"},
	"workspaces": {key: "workspace_id", inner: "value"},
}

func (m matcher) shorthand(target, s string) (map[string]any, *ValidationError) {
	if m.check != nil {
		if err := m.check(s); err != nil {
			return nil, err
		}
	}
	return map[string]any{
		"target_object": target,
		m.key:           []any{map[string]any{m.inner: s}},
	}, nil
}

// list normalizes the matching attribute of an object shorthand: a single
// string, a list of strings, or a list of {inner: string} objects.
func (m matcher) list(raw any) ([]any, *ValidationError) {
	bad := &ValidationError{Issues: []Issue{{Path: m.key, Code: CodeInvalidType, Message: fmt.Sprintf("expected a list of {%s: string}", m.inner)}}}
	var items []any
	switch l := raw.(type) {
	case string:
		items = []any{l}
	case []string:
		for _, s := range l {
			items = append(items, s)
		}
	case []any:
		items = l
	case []map[string]any:
		for _, e := range l {
			items = append(items, e)
		}
	default:
		return nil, bad
	}
	if len(items) == 0 {
		return nil, bad
	}
	out := make([]any, 0, len(items))
	for _, item := range items {
		var s string
		switch e := item.(type) {
		case string:
			s = e
		default:
			obj, ok := asMap(e)
			if !ok {
				return nil, bad
			}
			str, ok := obj[m.inner].(string)
			if !ok {
				return nil, bad
			}
			s = str
		}
		if m.check != nil {
			if err := m.check(s); err != nil {
				return nil, Within(m.key, err).(*ValidationError)
			}
		}
		out = append(out, map[string]any{m.inner: s})
	}
	return out, nil
}

func recordReferenceInput(target string) InputShape {
	match, hasMatcher := matchers[target]
	return func(v any) (map[string]any, error) {
		if s, ok := v.(string); ok {
			switch {
			case isUUID(s) && target != "":
				return map[string]any{"target_object": target, "target_record_id": s}, nil
			case isUUID(s):
				return nil, invalid(CodeConstraint, "a bare record id needs a target object")
			case hasMatcher:
				out, err := match.shorthand(target, s)
				if err != nil {
					return nil, err
				}
				return out, nil
			}
			return nil, noMatch("a record id or {target_object, target_record_id}")
		}
		m, ok := asMap(v)
		if !ok {
			return nil, noMatch("a record id or {target_object, target_record_id}")
		}

		object := target
		if _, present := m["target_object"]; present || target == "" {
			s, err := stringField(m, "target_object")
			if err != nil {
				return nil, err
			}
			if target != "" && s != target {
				return nil, &ValidationError{Issues: []Issue{{Path: "target_object", Code: CodeConstraint, Message: fmt.Sprintf("must be %q", target)}}}
			}
			object = s
		}

		if _, present := m["target_record_id"]; present || !hasMatcher {
			id, err := stringField(m, "target_record_id")
			if err == nil && !isUUID(id) {
				err = &ValidationError{Issues: []Issue{{Path: "target_record_id", Code: CodeConstraint, Message: "must be a UUID"}}}
			}
			out := map[string]any{"target_object": object, "target_record_id": id}
			return withUnknown(m, []string{"target_object", "target_record_id"}, out, err)
		}

		items, err := match.list(m[match.key])
		out := map[string]any{"target_object": object, match.key: items}
		return withUnknown(m, []string{"target_object", match.key}, out, err)
	}
}
