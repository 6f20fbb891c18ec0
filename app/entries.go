package app

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	attr "github.com/artpar/attio/core/attribute"
	"github.com/artpar/attio/core/schema"
	"github.com/artpar/attio/domain/record"
	"github.com/artpar/attio/ports"
)

// EntryService reads and writes the entries of one list.
type EntryService struct {
	list      string
	schema    schema.Pair
	transport ports.Transport
	tracer    trace.Tracer
}

// Name returns the list's API slug.
func (s *EntryService) Name() string { return s.list }

// Schema returns the entry schema pair.
func (s *EntryService) Schema() schema.Pair { return s.schema }

func (s *EntryService) basePath() string {
	return "/v2/lists/" + segment(s.list) + "/entries"
}

func (s *EntryService) entryPath(id string) string {
	return s.basePath() + "/" + segment(id)
}

func (s *EntryService) span(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return start(ctx, s.tracer, "entries."+op, append(attrs, attribute.String("attio.list", s.list))...)
}

// List returns one page of entries matching params.
func (s *EntryService) List(ctx context.Context, params *record.ListParams) (_ []record.Entry, err error) {
	ctx, span := s.span(ctx, "list")
	defer func() { finish(span, err) }()

	raw, err := s.transport.Do(ctx, ports.Request{
		Method:     http.MethodPost,
		Path:       s.basePath() + "/query",
		Body:       params.Body(),
		Idempotent: true,
	})
	if err != nil {
		return nil, err
	}

	rows, err := unwrap[[]record.RawEntry](raw)
	if err != nil {
		return nil, err
	}

	entries := make([]record.Entry, 0, len(rows))
	for i, row := range rows {
		e, err := s.decode(row)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	span.SetAttributes(attribute.Int("attio.count", len(entries)))
	return entries, nil
}

// Get returns one entry by id.
func (s *EntryService) Get(ctx context.Context, id string) (_ record.Entry, err error) {
	ctx, span := s.span(ctx, "get", attribute.String("attio.entry_id", id))
	defer func() { finish(span, err) }()

	if id == "" {
		return record.Entry{}, required("entry_id")
	}
	return s.one(ctx, ports.Request{Method: http.MethodGet, Path: s.entryPath(id), Idempotent: true})
}

// Create adds a record to the list.
func (s *EntryService) Create(ctx context.Context, parentObject, parentRecordID string, values schema.Values) (_ record.Entry, err error) {
	ctx, span := s.span(ctx, "create", attribute.String("attio.parent_record_id", parentRecordID))
	defer func() { finish(span, err) }()

	body, err := s.parentBody(parentObject, parentRecordID, values)
	if err != nil {
		return record.Entry{}, err
	}
	return s.one(ctx, ports.Request{Method: http.MethodPost, Path: s.basePath(), Body: body})
}

// Assert creates an entry for the parent record, or updates the existing
// one. Multi-valued attributes are replaced.
func (s *EntryService) Assert(ctx context.Context, parentObject, parentRecordID string, values schema.Values) (_ record.Entry, err error) {
	ctx, span := s.span(ctx, "assert", attribute.String("attio.parent_record_id", parentRecordID))
	defer func() { finish(span, err) }()

	body, err := s.parentBody(parentObject, parentRecordID, values)
	if err != nil {
		return record.Entry{}, err
	}
	return s.one(ctx, ports.Request{Method: http.MethodPut, Path: s.basePath(), Body: body, Idempotent: true})
}

// Update overwrites the given entry attributes.
func (s *EntryService) Update(ctx context.Context, id string, values schema.Values) (_ record.Entry, err error) {
	ctx, span := s.span(ctx, "update", attribute.String("attio.entry_id", id))
	defer func() { finish(span, err) }()

	return s.write(ctx, http.MethodPut, id, values)
}

// Patch updates the given entry attributes, appending to multi-valued ones.
func (s *EntryService) Patch(ctx context.Context, id string, values schema.Values) (_ record.Entry, err error) {
	ctx, span := s.span(ctx, "patch", attribute.String("attio.entry_id", id))
	defer func() { finish(span, err) }()

	return s.write(ctx, http.MethodPatch, id, values)
}

func (s *EntryService) write(ctx context.Context, method, id string, values schema.Values) (record.Entry, error) {
	if id == "" {
		return record.Entry{}, required("entry_id")
	}
	encoded, err := s.schema.Input.Encode(values, schema.ModePartial)
	if err != nil {
		return record.Entry{}, err
	}
	return s.one(ctx, ports.Request{
		Method:     method,
		Path:       s.entryPath(id),
		Body:       map[string]any{"data": map[string]any{"entry_values": encoded}},
		Idempotent: method == http.MethodPut,
	})
}

// Delete removes an entry from the list. The parent record is kept.
func (s *EntryService) Delete(ctx context.Context, id string) (err error) {
	ctx, span := s.span(ctx, "delete", attribute.String("attio.entry_id", id))
	defer func() { finish(span, err) }()

	if id == "" {
		return required("entry_id")
	}
	_, err = s.transport.Do(ctx, ports.Request{Method: http.MethodDelete, Path: s.entryPath(id), Idempotent: true})
	return err
}

// ListAttributeValues returns the values of one entry attribute, oldest first.
func (s *EntryService) ListAttributeValues(ctx context.Context, id, name string, params *record.ValuesParams) (_ []attr.Value, err error) {
	ctx, span := s.span(ctx, "list_attribute_values",
		attribute.String("attio.entry_id", id),
		attribute.String("attio.attribute", name))
	defer func() { finish(span, err) }()

	if id == "" {
		return nil, required("entry_id")
	}
	if _, ok := s.schema.Field(name); !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownAttribute, name)
	}

	raw, err := s.transport.Do(ctx, ports.Request{
		Method:     http.MethodGet,
		Path:       s.entryPath(id) + "/attributes/" + segment(name) + "/values",
		Query:      params.Query(),
		Idempotent: true,
	})
	if err != nil {
		return nil, err
	}
	return decodeValues(s.schema, name, raw)
}

func (s *EntryService) parentBody(parentObject, parentRecordID string, values schema.Values) (map[string]any, error) {
	switch {
	case parentObject == "":
		return nil, required("parent_object")
	case parentRecordID == "":
		return nil, required("parent_record_id")
	}
	encoded, err := s.schema.Input.Encode(values, schema.ModeCreate)
	if err != nil {
		return nil, err
	}
	return map[string]any{"data": map[string]any{
		"parent_record_id": parentRecordID,
		"parent_object":    parentObject,
		"entry_values":     encoded,
	}}, nil
}

func (s *EntryService) one(ctx context.Context, req ports.Request) (record.Entry, error) {
	raw, err := s.transport.Do(ctx, req)
	if err != nil {
		return record.Entry{}, err
	}
	row, err := unwrap[record.RawEntry](raw)
	if err != nil {
		return record.Entry{}, err
	}
	return s.decode(row)
}

func (s *EntryService) decode(row record.RawEntry) (record.Entry, error) {
	values, err := s.schema.Output.Decode(row.EntryValues)
	if err != nil {
		return record.Entry{}, fmt.Errorf("decode %s entry %s: %w", s.list, row.ID.EntryID, err)
	}
	return record.Entry{
		ID:             row.ID,
		ParentRecordID: row.ParentRecordID,
		ParentObject:   row.ParentObject,
		CreatedAt:      row.CreatedAt,
		Values:         values,
	}, nil
}
