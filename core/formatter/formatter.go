// Package formatter renders records and entries for the command line.
// Formatters share one row shape, so a command builds its rows once and
// the --output flag picks how they are written.
package formatter

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
)

// View names the resource being printed and its default columns.
type View struct {
	// Resource is the object or list slug, e.g. "companies".
	Resource string

	// Columns lists the fields shown when FormatOptions.Columns is empty.
	// Rows are printed whole when both are empty.
	Columns []string
}

// Formatter writes rows in one output format.
type Formatter interface {
	Name() string
	Description() string

	// FormatList writes a page of rows.
	FormatList(w io.Writer, view View, rows []map[string]any, opts FormatOptions) error

	// FormatRecord writes one row. A nil row means nothing was found.
	FormatRecord(w io.Writer, view View, row map[string]any, opts FormatOptions) error

	FormatError(w io.Writer, err error) error
}

// FormatOptions configures formatting behavior.
type FormatOptions struct {
	// Columns overrides the view's columns.
	Columns []string

	// NoHeader disables header row for tabular formats.
	NoHeader bool

	// Compact minimizes whitespace (for json).
	Compact bool

	// MaxWidth truncates long values (0 = no limit).
	MaxWidth int
}

// columns resolves the fields to print for rows.
func columns(view View, requested []string, rows ...map[string]any) []string {
	if len(requested) > 0 {
		return requested
	}
	if len(view.Columns) > 0 {
		return view.Columns
	}

	seen := make(map[string]bool)
	var names []string
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				names = append(names, k)
			}
		}
	}
	sort.Strings(names)
	return names
}

// project keeps only cols of row. Missing fields are skipped.
func project(row map[string]any, cols []string) map[string]any {
	out := make(map[string]any, len(cols))
	for _, col := range cols {
		if val, ok := row[col]; ok {
			out[col] = val
		}
	}
	return out
}

func projectAll(view View, rows []map[string]any, requested []string) []map[string]any {
	cols := columns(view, requested, rows...)
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		out[i] = project(row, cols)
	}
	return out
}

// Set maps output names to formatters. It is built once and read only
// afterwards.
type Set struct {
	byName   map[string]Formatter
	fallback string
}

// NewSet indexes fs by name. fallback answers an empty name and must be
// one of fs.
func NewSet(fallback string, fs ...Formatter) (*Set, error) {
	s := &Set{byName: make(map[string]Formatter, len(fs)), fallback: fallback}
	for _, f := range fs {
		if _, dup := s.byName[f.Name()]; dup {
			return nil, fmt.Errorf("formatter %q added twice", f.Name())
		}
		s.byName[f.Name()] = f
	}
	if _, ok := s.byName[fallback]; !ok {
		return nil, fmt.Errorf("fallback formatter %q not in set", fallback)
	}
	return s, nil
}

// Lookup returns the formatter for name, or the fallback when name is
// empty. Unknown names list the choices in the error.
func (s *Set) Lookup(name string) (Formatter, error) {
	if name == "" {
		name = s.fallback
	}
	if f, ok := s.byName[strings.ToLower(name)]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("unknown output format %q (available: %s)", name, strings.Join(s.Names(), ", "))
}

// Names returns the formatter names, sorted.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.byName))
	for name := range s.byName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Builtin holds the table, json and yaml formatters; table is the fallback.
var Builtin = mustSet(NewSet("table", NewTableFormatter(), NewJSONFormatter(), NewYAMLFormatter()))

func mustSet(s *Set, err error) *Set {
	if err != nil {
		panic(err)
	}
	return s
}

// Lookup resolves name among the builtin formatters.
func Lookup(name string) (Formatter, error) { return Builtin.Lookup(name) }

// Names lists the builtin formatter names.
func Names() []string { return Builtin.Names() }
