package schema

import (
	"encoding/json"
	"sort"

	"github.com/artpar/attio/core/attribute"
)

// IDField names the identifier attribute of an entity.
type IDField string

const (
	RecordID IDField = "record_id"
	EntryID  IDField = "entry_id"
)

// Base attribute names.
const (
	FieldCreatedAt    = "created_at"
	FieldCreatedBy    = "created_by"
	FieldParentRecord = "parent_record"
)

// Values maps attribute names to decoded values: nil or an attribute.Value
// for single attributes, []attribute.Value for multiple ones.
type Values map[string]any

// Mode selects which presence rules Encode applies.
type Mode int

const (
	// ModeCreate enforces required attributes.
	ModeCreate Mode = iota
	// ModePartial accepts any subset, for update and patch.
	ModePartial
)

// Pair is the assembled schema of one object or list.
type Pair struct {
	Input  InputSchema
	Output OutputSchema

	id     IDField
	fields map[string]attribute.Attribute
}

func baseFields(id IDField) map[string]attribute.Attribute {
	base := map[string]attribute.Attribute{
		FieldCreatedAt: attribute.Timestamp.ReadOnly,
		FieldCreatedBy: attribute.ActorReference.ReadOnly,
	}
	switch id {
	case EntryID:
		base[string(EntryID)] = attribute.Text.ReadOnly
		base[FieldParentRecord] = attribute.Omittable(attribute.RecordReference.ReadOnly)
	default:
		base[string(RecordID)] = attribute.Text.ReadOnly
	}
	return base
}

// IsBase reports whether name is a base attribute for the given id field.
func IsBase(name string, id IDField) bool {
	_, ok := baseFields(id)[name]
	return ok
}

// Create merges fields over the base attributes and builds both schemas.
// A caller attribute named like the id field is ignored.
func Create(fields map[string]attribute.Attribute, id IDField) Pair {
	all := baseFields(id)
	for name, a := range fields {
		if name == string(id) || a == nil {
			continue
		}
		all[name] = a
	}

	writable := make(map[string]attribute.Attribute, len(all))
	for name, a := range all {
		if a.Writable() {
			writable[name] = a
		}
	}

	return Pair{
		Input:  InputSchema{writable: writable, all: all},
		Output: OutputSchema{fields: all},
		id:     id,
		fields: all,
	}
}

// IDField returns the identifier attribute name.
func (p Pair) IDField() IDField { return p.id }

// Fields returns a copy of the merged attribute map.
func (p Pair) Fields() map[string]attribute.Attribute {
	out := make(map[string]attribute.Attribute, len(p.fields))
	for name, a := range p.fields {
		out[name] = a
	}
	return out
}

// Field returns one attribute.
func (p Pair) Field(name string) (attribute.Attribute, bool) {
	a, ok := p.fields[name]
	return a, ok
}

// Names returns the attribute names in sorted order.
func (p Pair) Names() []string { return sortedNames(p.fields) }

// Equal reports whether both pairs have the same attributes with the same
// structure.
func (p Pair) Equal(other Pair) bool {
	if p.id != other.id || len(p.fields) != len(other.fields) {
		return false
	}
	for name, a := range p.fields {
		b, ok := other.fields[name]
		if !ok || a.Describe() != b.Describe() {
			return false
		}
	}
	return true
}

// InputSchema encodes caller values into the request "values" object.
type InputSchema struct {
	writable map[string]attribute.Attribute
	all      map[string]attribute.Attribute
}

// Has reports whether name can be written.
func (s InputSchema) Has(name string) bool {
	_, ok := s.writable[name]
	return ok
}

// Names returns the writable attribute names in sorted order.
func (s InputSchema) Names() []string { return sortedNames(s.writable) }

// Encode validates values and returns the wire form of each. All problems
// are reported together, sorted by attribute name.
func (s InputSchema) Encode(values Values, mode Mode) (map[string]any, error) {
	out := make(map[string]any, len(values))
	var issues []attribute.Issue

	for _, name := range sortedNames(values) {
		a, ok := s.writable[name]
		if !ok {
			if _, known := s.all[name]; known {
				issues = append(issues, attribute.Issue{Path: name, Code: attribute.CodeReadOnly, Message: "attribute is read-only"})
			} else {
				issues = append(issues, attribute.Issue{Path: name, Code: attribute.CodeUnknownField, Message: "not an attribute of this object"})
			}
			continue
		}
		encoded, err := a.EncodeInput(values[name])
		if err != nil {
			nested := attribute.IssuesOf(attribute.Within(name, err))
			if nested == nil {
				return nil, err
			}
			issues = append(issues, nested...)
			continue
		}
		out[name] = encoded
	}

	if mode == ModeCreate {
		for _, name := range s.Names() {
			if _, given := values[name]; given {
				continue
			}
			if s.writable[name].Access() == attribute.Required {
				issues = append(issues, attribute.Issue{Path: name, Code: attribute.CodeRequired, Message: "required on create"})
			}
		}
	}

	if len(issues) > 0 {
		sort.SliceStable(issues, func(i, j int) bool { return issues[i].Path < issues[j].Path })
		return nil, &attribute.ValidationError{Issues: issues}
	}
	return out, nil
}

// OutputSchema decodes the "values" object of a response.
type OutputSchema struct {
	fields map[string]attribute.Attribute
}

// Names returns every attribute name in sorted order.
func (s OutputSchema) Names() []string { return sortedNames(s.fields) }

// Decode decodes every known attribute. Keys the schema does not know are
// ignored; omittable attributes missing from raw are left out of the result.
func (s OutputSchema) Decode(raw map[string]json.RawMessage) (Values, error) {
	out := make(Values, len(s.fields))
	var issues []attribute.Issue

	for _, name := range s.Names() {
		a := s.fields[name]
		msg, present := raw[name]
		if !present && a.MayBeAbsent() {
			continue
		}
		v, err := a.DecodeOutput(msg)
		if err != nil {
			nested := attribute.IssuesOf(attribute.Within(name, err))
			if nested == nil {
				return nil, err
			}
			issues = append(issues, nested...)
			continue
		}
		out[name] = v
	}

	if len(issues) > 0 {
		return nil, &attribute.ValidationError{Issues: issues}
	}
	return out, nil
}

// Encode reverses Decode.
func (s OutputSchema) Encode(values Values) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(s.fields))
	var issues []attribute.Issue

	for _, name := range s.Names() {
		a := s.fields[name]
		v, present := values[name]
		if !present && a.MayBeAbsent() {
			continue
		}
		msg, err := a.EncodeOutput(v)
		if err != nil {
			nested := attribute.IssuesOf(attribute.Within(name, err))
			if nested == nil {
				return nil, err
			}
			issues = append(issues, nested...)
			continue
		}
		out[name] = msg
	}

	if len(issues) > 0 {
		return nil, &attribute.ValidationError{Issues: issues}
	}
	return out, nil
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
