package formatter

import (
	"encoding/json"
	"io"
)

// JSONFormatter formats output as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) Name() string        { return "json" }
func (f *JSONFormatter) Description() string { return "JSON output format" }

// FormatList writes {resource, count, data}.
func (f *JSONFormatter) FormatList(w io.Writer, view View, rows []map[string]any, opts FormatOptions) error {
	data := projectAll(view, rows, opts.Columns)
	return f.encode(w, map[string]any{
		"resource": view.Resource,
		"count":    len(data),
		"data":     data,
	}, opts.Compact)
}

// FormatRecord writes {resource, data}.
func (f *JSONFormatter) FormatRecord(w io.Writer, view View, row map[string]any, opts FormatOptions) error {
	var data map[string]any
	if row != nil {
		data = project(row, columns(view, opts.Columns, row))
	}
	return f.encode(w, map[string]any{
		"resource": view.Resource,
		"data":     data,
	}, opts.Compact)
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	return f.encode(w, map[string]any{"error": err.Error()}, false)
}

func (f *JSONFormatter) encode(w io.Writer, data any, compact bool) error {
	encoder := json.NewEncoder(w)
	if !compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}
