package attribute

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
)

// Definition is one entry of the kind catalog. Input is nil for kinds Attio
// computes itself.
type Definition struct {
	Kind    Kind
	Input   InputShape
	Output  OutputShape
	Target  string
	Options []string
}

// Attribute is one variation of a catalog kind: its access policy and
// cardinality decide how values are encoded and decoded. Variations are
// obtained from the catalog (Text, Text.Required, Domain.Multiple, ...) and
// cannot be implemented outside this package.
type Attribute interface {
	Kind() Kind
	Access() Access
	Cardinality() Cardinality
	// Writable reports whether the attribute has an input representation.
	Writable() bool
	// MayBeAbsent reports whether the attribute's key may be missing from a
	// response.
	MayBeAbsent() bool
	Describe() Descriptor

	// EncodeInput turns a caller value into the wire list sent to the API.
	EncodeInput(v any) (any, error)
	// DecodeOutput turns the API's value list into nil or a Value for single
	// variations, and []Value for multiple ones. A nil raw message means the
	// key was absent.
	DecodeOutput(raw json.RawMessage) (any, error)
	// EncodeOutput reverses DecodeOutput.
	EncodeOutput(v any) (json.RawMessage, error)
	// DecodeElement decodes one element of the value list.
	DecodeElement(raw json.RawMessage) (Value, error)

	variation() *variation
}

type variation struct {
	def    *Definition
	access Access
	card   Cardinality
	absent bool
}

func (a *variation) Kind() Kind { return a.def.Kind }

func (a *variation) Access() Access { return a.access }

func (a *variation) Cardinality() Cardinality { return a.card }

func (a *variation) MayBeAbsent() bool { return a.absent }

func (a *variation) Writable() bool { return a.access != ReadOnly && a.def.Input != nil }

func (a *variation) variation() *variation { return a }

// Required and read-only variations both insist on a value in responses.
func (a *variation) enforcesPresence() bool { return a.access != Optional }

func (a *variation) DecodeElement(raw json.RawMessage) (Value, error) {
	return a.def.Output(raw)
}

func (a *variation) Describe() Descriptor {
	return Descriptor{
		Kind:        a.def.Kind,
		Access:      a.access,
		Cardinality: a.card,
		MayBeAbsent: a.absent,
		Target:      a.def.Target,
		Options:     strings.Join(a.def.Options, ","),
	}
}

func (a *variation) EncodeInput(v any) (any, error) {
	if !a.Writable() {
		return nil, invalid(CodeReadOnly, "%s attribute is read-only", a.def.Kind)
	}
	if a.card == Single {
		if v == nil {
			if a.access == Required {
				return nil, invalid(CodeRequired, "a value is required")
			}
			return []any{}, nil
		}
		m, err := a.def.Input(v)
		if err != nil {
			return nil, err
		}
		return []any{m}, nil
	}

	items, ok := sliceOf(v)
	if !ok {
		return nil, invalid(CodeInvalidType, "expected a list of values")
	}
	if len(items) == 0 && a.access == Required {
		return nil, invalid(CodeCardinality, "at least one value is required")
	}
	out := make([]any, 0, len(items))
	var issues []Issue
	for i, item := range items {
		m, err := a.def.Input(item)
		if err != nil {
			issues = append(issues, IssuesOf(Within(index(i), err))...)
			continue
		}
		out = append(out, m)
	}
	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}
	return out, nil
}

func (a *variation) DecodeOutput(raw json.RawMessage) (any, error) {
	if raw == nil {
		if !a.absent {
			return nil, invalid(CodeRequired, "missing from response")
		}
		if a.card == Many {
			return []Value{}, nil
		}
		return nil, nil
	}

	var elems []json.RawMessage
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) || json.Unmarshal(raw, &elems) != nil {
		return nil, invalid(CodeInvalidType, "expected a list of %s values", a.def.Kind)
	}

	if a.card == Single {
		switch {
		case len(elems) > 1:
			return nil, invalid(CodeCardinality, "expected at most one value, got %d", len(elems))
		case len(elems) == 0 && a.enforcesPresence():
			return nil, invalid(CodeCardinality, "expected exactly one value, got none")
		case len(elems) == 0:
			return nil, nil
		}
		v, err := a.def.Output(elems[0])
		if err != nil {
			return nil, Within("[0]", err)
		}
		return v, nil
	}

	if len(elems) == 0 && a.enforcesPresence() {
		return nil, invalid(CodeCardinality, "expected at least one value, got none")
	}
	values := make([]Value, 0, len(elems))
	var issues []Issue
	for i, e := range elems {
		v, err := a.def.Output(e)
		if err != nil {
			issues = append(issues, IssuesOf(Within(index(i), err))...)
			continue
		}
		values = append(values, v)
	}
	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}
	return values, nil
}

func (a *variation) EncodeOutput(v any) (json.RawMessage, error) {
	if a.card == Single {
		if v == nil {
			if a.enforcesPresence() {
				return nil, invalid(CodeCardinality, "expected exactly one value, got none")
			}
			return json.RawMessage("[]"), nil
		}
		val, ok := v.(Value)
		if !ok {
			return nil, invalid(CodeInvalidType, "expected a %s value, got %T", a.def.Kind, v)
		}
		return a.marshal([]Value{val})
	}

	values, ok := v.([]Value)
	if !ok && v != nil {
		return nil, invalid(CodeInvalidType, "expected []Value, got %T", v)
	}
	if len(values) == 0 && a.enforcesPresence() {
		return nil, invalid(CodeCardinality, "expected at least one value, got none")
	}
	if values == nil {
		values = []Value{}
	}
	return a.marshal(values)
}

func (a *variation) marshal(values []Value) (json.RawMessage, error) {
	for i, val := range values {
		if got := val.Meta().AttributeType; got != a.def.Kind {
			return nil, &ValidationError{Issues: []Issue{{
				Path:    index(i) + ".attribute_type",
				Code:    CodeDiscriminant,
				Message: "expected " + string(a.def.Kind) + ", got " + string(got),
			}}}
		}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func index(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}

// sliceOf accepts any slice or array as a list of input values.
func sliceOf(v any) ([]any, bool) {
	if v == nil {
		return nil, true
	}
	if items, ok := v.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

// Set is the family of single-valued variations of a kind. The embedded
// Attribute is the optional variation. Multiple is nil for kinds that are
// always single-valued.
type Set struct {
	Attribute
	Required Attribute
	ReadOnly Attribute
	Multiple *MultipleSet
}

// MultipleSet is the family of multi-valued variations. The embedded
// Attribute is the optional variation.
type MultipleSet struct {
	Attribute
	Required Attribute
	ReadOnly Attribute
}

// Option configures Build.
type Option func(*buildOptions)

type buildOptions struct {
	multiple bool
}

// WithMultiple adds the multi-valued variations.
func WithMultiple() Option {
	return func(o *buildOptions) { o.multiple = true }
}

// Build derives the variation family of a definition.
func Build(def Definition, opts ...Option) Set {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}
	d := &def
	set := Set{
		Attribute: &variation{def: d, access: Optional, card: Single},
		Required:  &variation{def: d, access: Required, card: Single},
		ReadOnly:  &variation{def: d, access: ReadOnly, card: Single},
	}
	if o.multiple {
		set.Multiple = &MultipleSet{
			Attribute: &variation{def: d, access: Optional, card: Many},
			Required:  &variation{def: d, access: Required, card: Many},
			ReadOnly:  &variation{def: d, access: ReadOnly, card: Many},
		}
	}
	return set
}

// Omittable returns a copy of a whose key may be missing from responses.
// Standard objects use it for associations that only exist when another
// standard object is enabled.
func Omittable(a Attribute) Attribute {
	v := *a.variation()
	v.absent = true
	return &v
}

// ValueAs returns the value decoded by a single variation as T.
func ValueAs[T Value](decoded any) (T, bool) {
	v, ok := decoded.(T)
	return v, ok
}

// ValuesAs returns the values decoded by a multiple variation as []T,
// skipping elements of another type.
func ValuesAs[T Value](decoded any) []T {
	values, _ := decoded.([]Value)
	out := make([]T, 0, len(values))
	for _, v := range values {
		if t, ok := v.(T); ok {
			out = append(out, t)
		}
	}
	return out
}
