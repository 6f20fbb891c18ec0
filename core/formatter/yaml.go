package formatter

import (
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter formats output as YAML.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

func (f *YAMLFormatter) Name() string        { return "yaml" }
func (f *YAMLFormatter) Description() string { return "YAML output format" }

// FormatList formats rows as YAML.
func (f *YAMLFormatter) FormatList(w io.Writer, view View, rows []map[string]any, opts FormatOptions) error {
	data := projectAll(view, rows, opts.Columns)
	return f.encode(w, map[string]any{
		"resource": view.Resource,
		"count":    len(data),
		"data":     data,
	})
}

// FormatRecord formats a single row as YAML.
func (f *YAMLFormatter) FormatRecord(w io.Writer, view View, row map[string]any, opts FormatOptions) error {
	var data map[string]any
	if row != nil {
		data = project(row, columns(view, opts.Columns, row))
	}
	return f.encode(w, map[string]any{
		"resource": view.Resource,
		"data":     data,
	})
}

// FormatError formats an error as YAML.
func (f *YAMLFormatter) FormatError(w io.Writer, err error) error {
	return f.encode(w, map[string]any{"error": err.Error()})
}

func (f *YAMLFormatter) encode(w io.Writer, data any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(data)
}
