package attribute

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Actor types.
const (
	ActorAPIToken        = "api-token"
	ActorWorkspaceMember = "workspace-member"
	ActorSystem          = "system"
	ActorApp             = "app"
)

// Actor identifies who performed an action. System actors carry no ID.
type Actor struct {
	Type string  `json:"type" validate:"required,oneof=api-token workspace-member system app"`
	ID   *string `json:"id" validate:"omitempty,uuid"`
}

// Metadata is attached to every value the API returns.
type Metadata struct {
	ActiveFrom     time.Time  `json:"active_from"`
	ActiveUntil    *time.Time `json:"active_until"`
	CreatedByActor Actor      `json:"created_by_actor"`
	AttributeType  Kind       `json:"attribute_type" validate:"required"`
}

// Meta returns the metadata itself so that every value type embedding it
// satisfies Value.
func (m Metadata) Meta() Metadata { return m }

// Current reports whether the value has not been superseded.
func (m Metadata) Current() bool { return m.ActiveUntil == nil }

// Value is a decoded attribute value.
type Value interface {
	Meta() Metadata
}

// Decimal is a number the API may send either as a JSON number or as a
// numeric string. It is always written back as a number.
type Decimal float64

func (d *Decimal) UnmarshalJSON(b []byte) error {
	f, err := parseFlexibleNumber(b)
	if err != nil {
		return err
	}
	*d = Decimal(f)
	return nil
}

func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(d), 'f', -1, 64)), nil
}

// NumericString is a number carried on the wire as a string, such as a
// coordinate. Numbers are accepted on decode.
type NumericString float64

func (n *NumericString) UnmarshalJSON(b []byte) error {
	f, err := parseFlexibleNumber(b)
	if err != nil {
		return err
	}
	*n = NumericString(f)
	return nil
}

func (n NumericString) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatFloat(float64(n), 'f', -1, 64))
}

func parseFlexibleNumber(b []byte) (float64, error) {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return 0, err
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("not a numeric string: %q", s)
		}
		return f, nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return 0, err
	}
	return f, nil
}

// DateLayout is the wire form of calendar dates.
const DateLayout = "2006-01-02"

// CalendarDate is a timezone-less calendar date.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) CalendarDate {
	y, m, d := t.Date()
	return CalendarDate{Year: y, Month: m, Day: d}
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp.
func ParseDate(s string) (CalendarDate, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return DateOf(t), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return CalendarDate{}, fmt.Errorf("not a date: %q", s)
	}
	return DateOf(t.UTC()), nil
}

func (d CalendarDate) String() string {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Format(DateLayout)
}

// IsZero reports whether d is the zero date.
func (d CalendarDate) IsZero() bool { return d == CalendarDate{} }

func (d *CalendarDate) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d CalendarDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}
