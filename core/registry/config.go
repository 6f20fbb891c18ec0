package registry

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/artpar/attio/core/attribute"
	"github.com/artpar/attio/core/schema"
)

type objectMode int

const (
	modeDefault objectMode = iota
	modeDisabled
	modeEnabled
	modeFields
)

// ObjectConfig is the caller's choice for one object. The zero value
// applies the default policy.
type ObjectConfig struct {
	mode   objectMode
	fields map[string]attribute.Attribute
}

// Disabled excludes the object from the registry.
func Disabled() ObjectConfig { return ObjectConfig{mode: modeDisabled} }

// Enabled includes a standard object with its fixed fields.
func Enabled() ObjectConfig { return ObjectConfig{mode: modeEnabled} }

// WithFields merges fields over a standard object, or defines a custom one.
func WithFields(fields map[string]attribute.Attribute) ObjectConfig {
	copied := make(map[string]attribute.Attribute, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return ObjectConfig{mode: modeFields, fields: copied}
}

// String describes the configuration for logs.
func (c ObjectConfig) String() string {
	switch c.mode {
	case modeDisabled:
		return "disabled"
	case modeEnabled:
		return "enabled"
	case modeFields:
		return fmt.Sprintf("fields(%d)", len(c.fields))
	}
	return "default"
}

// Equal reports whether both configs make the same choice, comparing
// field maps by name and structure.
func (c ObjectConfig) Equal(other ObjectConfig) bool {
	return c.mode == other.mode && SameFields(c.fields, other.fields)
}

// SameFields reports whether a and b declare the same names with the same
// kind, access, cardinality and options.
func SameFields(a, b map[string]attribute.Attribute) bool {
	if len(a) != len(b) {
		return false
	}
	for name, x := range a {
		y, ok := b[name]
		if !ok || (x == nil) != (y == nil) {
			return false
		}
		if x != nil && x.Describe() != y.Describe() {
			return false
		}
	}
	return true
}

// UnmarshalYAML accepts true, false or a field spec map:
//
//	objects:
//	  deals: true
//	  people: false
//	  vendors:
//	    name: { type: text, required: true }
func (c *ObjectConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var enabled bool
		if err := node.Decode(&enabled); err != nil {
			return fmt.Errorf("line %d: object config must be a boolean or a field map", node.Line)
		}
		if enabled {
			*c = Enabled()
		} else {
			*c = Disabled()
		}
		return nil
	}

	fields, err := decodeFields(node)
	if err != nil {
		return err
	}
	*c = ObjectConfig{mode: modeFields, fields: fields}
	return nil
}

// Config is everything the resolver needs to build a registry.
type Config struct {
	Objects map[string]ObjectConfig
	Lists   map[string]map[string]attribute.Attribute
}

// UnmarshalYAML decodes objects and lists sections. List fields use the
// same spec format as custom objects.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Objects map[string]ObjectConfig `yaml:"objects"`
		Lists   map[string]yaml.Node    `yaml:"lists"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	c.Objects = raw.Objects
	c.Lists = make(map[string]map[string]attribute.Attribute, len(raw.Lists))
	for name, n := range raw.Lists {
		fields, err := decodeFields(&n)
		if err != nil {
			return fmt.Errorf("list %q: %w", name, err)
		}
		c.Lists[name] = fields
	}
	return nil
}

func decodeFields(node *yaml.Node) (map[string]attribute.Attribute, error) {
	var specs map[string]schema.FieldSpec
	if err := node.Decode(&specs); err != nil {
		return nil, fmt.Errorf("line %d: %w", node.Line, err)
	}
	return schema.ParseFields(specs)
}
