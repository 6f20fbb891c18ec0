package schema

import (
	"fmt"

	"github.com/artpar/attio/core/attribute"
)

// FieldSpec declares one attribute in configuration.
type FieldSpec struct {
	// Type is the attribute kind, e.g. "text" or "record-reference".
	Type attribute.Kind `yaml:"type"`

	// Required makes the attribute mandatory on create and in responses.
	Required bool `yaml:"required,omitempty"`

	// ReadOnly removes the attribute from the input schema.
	ReadOnly bool `yaml:"read_only,omitempty"`

	// Multiple selects the multi-valued variation. Only kinds that support
	// it accept the flag.
	Multiple bool `yaml:"multiple,omitempty"`

	// Options restricts select input to these option titles.
	Options []string `yaml:"options,omitempty"`

	// Target binds a record reference to one object.
	Target string `yaml:"target,omitempty"`
}

// Attribute resolves the spec to its catalog variation.
func (f FieldSpec) Attribute() (attribute.Attribute, error) {
	if !f.Type.IsValid() {
		return nil, fmt.Errorf("unknown type %q", f.Type)
	}
	if f.Required && f.ReadOnly {
		return nil, fmt.Errorf("cannot be both required and read_only")
	}
	if len(f.Options) > 0 && f.Type != attribute.KindSelect {
		return nil, fmt.Errorf("options are only valid for select, not %s", f.Type)
	}
	if f.Target != "" && f.Type != attribute.KindRecordReference {
		return nil, fmt.Errorf("target is only valid for record-reference, not %s", f.Type)
	}

	set, _ := attribute.Lookup(f.Type)
	switch {
	case len(f.Options) > 0:
		set = attribute.SelectWith(f.Options...)
	case f.Target != "":
		set = attribute.RecordReferenceTo(f.Target)
	}

	if f.Multiple {
		if set.Multiple == nil {
			return nil, fmt.Errorf("%s does not support multiple values", f.Type)
		}
		m := set.Multiple
		switch {
		case f.Required:
			return m.Required, nil
		case f.ReadOnly:
			return m.ReadOnly, nil
		}
		return m.Attribute, nil
	}

	switch {
	case f.Required:
		return set.Required, nil
	case f.ReadOnly:
		return set.ReadOnly, nil
	}
	return set.Attribute, nil
}
