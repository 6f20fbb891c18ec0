package main

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	attr "github.com/artpar/attio/core/attribute"
	"github.com/artpar/attio/core/formatter"
	"github.com/artpar/attio/core/schema"
	"github.com/artpar/attio/domain/record"
)

// recordView shows the id and every attribute of an object.
func recordView(name string, pair schema.Pair) formatter.View {
	return formatter.View{Resource: name, Columns: leading(pair, "record_id")}
}

func entryView(name string, pair schema.Pair) formatter.View {
	return formatter.View{Resource: name, Columns: leading(pair, "entry_id", "parent_record_id")}
}

// leading puts first ahead of the attribute names, each column once.
func leading(pair schema.Pair, first ...string) []string {
	cols := append([]string(nil), first...)
	for _, name := range pair.Output.Names() {
		if !slices.Contains(first, name) {
			cols = append(cols, name)
		}
	}
	return cols
}

// valuesView prints every field of an attribute value, metadata included.
func valuesView(name string) formatter.View {
	return formatter.View{Resource: name}
}

// wireRow re-encodes decoded values to their wire form so every output
// format prints the same fields the API returned. The plain columns in
// fixed replace the wire lists of the same name.
func wireRow(pair schema.Pair, values schema.Values, fixed map[string]any) (map[string]any, error) {
	wire, err := pair.Output.Encode(values)
	if err != nil {
		return nil, err
	}
	row := make(map[string]any, len(wire)+len(fixed))
	for name, raw := range wire {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("attribute %s: %w", name, err)
		}
		row[name] = v
	}
	for name, v := range fixed {
		row[name] = v
	}
	return row, nil
}

func recordRow(pair schema.Pair, r record.Record) (map[string]any, error) {
	return wireRow(pair, r.Values, map[string]any{
		"record_id":  r.ID.RecordID,
		"created_at": r.CreatedAt.Format(time.RFC3339),
	})
}

func entryRow(pair schema.Pair, e record.Entry) (map[string]any, error) {
	return wireRow(pair, e.Values, map[string]any{
		"entry_id":         e.ID.EntryID,
		"parent_record_id": e.ParentRecordID,
		"parent_object":    e.ParentObject,
		"created_at":       e.CreatedAt.Format(time.RFC3339),
	})
}

// valueRow flattens one attribute value.
func valueRow(v attr.Value) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var row map[string]any
	if err := json.Unmarshal(b, &row); err != nil {
		return nil, err
	}
	if until, ok := row["active_until"]; !ok || until == nil {
		row["active_until"] = "current"
	}
	return row, nil
}

// parseJSONArg decodes a JSON flag. A leading @ reads the JSON from a file.
func parseJSONArg(flag, arg string, dst any) error {
	data := []byte(arg)
	if strings.HasPrefix(arg, "@") {
		var err error
		if data, err = os.ReadFile(strings.TrimPrefix(arg, "@")); err != nil {
			return fmt.Errorf("--%s: %w", flag, err)
		}
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("--%s: invalid JSON: %w", flag, err)
	}
	return nil
}

func parseValues(arg string) (schema.Values, error) {
	if arg == "" {
		return schema.Values{}, nil
	}
	var values schema.Values
	if err := parseJSONArg("values", arg, &values); err != nil {
		return nil, err
	}
	return values, nil
}

// parseSorts reads "attribute[:field][:asc|desc]" flags.
func parseSorts(args []string) ([]record.Sort, error) {
	sorts := make([]record.Sort, 0, len(args))
	for _, arg := range args {
		parts := strings.Split(arg, ":")
		s := record.Sort{Attribute: parts[0], Direction: record.Asc}
		if s.Attribute == "" {
			return nil, fmt.Errorf("--sort %q: missing attribute", arg)
		}

		rest := parts[1:]
		if n := len(rest); n > 0 {
			switch record.Direction(rest[n-1]) {
			case record.Asc, record.Desc:
				s.Direction = record.Direction(rest[n-1])
				rest = rest[:n-1]
			}
		}
		switch len(rest) {
		case 0:
		case 1:
			s.Field = rest[0]
		default:
			return nil, fmt.Errorf("--sort %q: expected attribute[:field][:asc|desc]", arg)
		}
		sorts = append(sorts, s)
	}
	return sorts, nil
}

func listParams(filter string, sorts []string, limit, offset int) (*record.ListParams, error) {
	params := &record.ListParams{Limit: limit, Offset: offset}
	if filter != "" {
		if err := parseJSONArg("filter", filter, &params.Filter); err != nil {
			return nil, err
		}
	}
	var err error
	if params.Sorts, err = parseSorts(sorts); err != nil {
		return nil, err
	}
	return params, nil
}
