package schema

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/artpar/attio/core/attribute"
)

// ErrInvalidField is wrapped by every field spec validation failure.
var ErrInvalidField = errors.New("invalid field spec")

// ParseFile parses a field map from a YAML file.
func ParseFile(path string) (map[string]attribute.Attribute, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses a field map from YAML bytes.
func Parse(data []byte) (map[string]attribute.Attribute, error) {
	var specs map[string]FieldSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	return ParseFields(specs)
}

// ParseFields resolves every spec, reporting all invalid ones together.
func ParseFields(specs map[string]FieldSpec) (map[string]attribute.Attribute, error) {
	var errs []string
	fields := make(map[string]attribute.Attribute, len(specs))

	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !isValidIdentifier(name) {
			errs = append(errs, fmt.Sprintf("field name %q is not a valid identifier", name))
			continue
		}

		a, err := specs[name].Attribute()
		if err != nil {
			errs = append(errs, fmt.Sprintf("field %q: %v", name, err))
			continue
		}
		fields[name] = a
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w:\n  - %s", ErrInvalidField, strings.Join(errs, "\n  - "))
	}

	return fields, nil
}

// isValidIdentifier checks if a string is a valid attribute slug.
func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, c := range s {
		if i == 0 {
			if !isLetter(c) && c != '_' {
				return false
			}
		} else {
			if !isLetter(c) && !isDigit(c) && c != '_' && c != '-' {
				return false
			}
		}
	}

	return true
}

func isLetter(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}
