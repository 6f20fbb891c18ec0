package app

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	attr "github.com/artpar/attio/core/attribute"
	"github.com/artpar/attio/core/schema"
	"github.com/artpar/attio/domain/record"
	"github.com/artpar/attio/ports"
)

// RecordService reads and writes the records of one object.
// Writes are validated against the object's input schema before any
// request is sent.
type RecordService struct {
	object    string
	schema    schema.Pair
	transport ports.Transport
	tracer    trace.Tracer
}

// Name returns the object's API slug.
func (s *RecordService) Name() string { return s.object }

// Schema returns the object's schema pair.
func (s *RecordService) Schema() schema.Pair { return s.schema }

func (s *RecordService) basePath() string {
	return "/v2/objects/" + segment(s.object) + "/records"
}

func (s *RecordService) recordPath(id string) string {
	return s.basePath() + "/" + segment(id)
}

func (s *RecordService) span(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return start(ctx, s.tracer, "records."+op, append(attrs, attribute.String("attio.object", s.object))...)
}

// List returns one page of records matching params. Pass a nil params
// for the first 500 records.
func (s *RecordService) List(ctx context.Context, params *record.ListParams) (_ []record.Record, err error) {
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

	rows, err := unwrap[[]record.RawRecord](raw)
	if err != nil {
		return nil, err
	}

	records := make([]record.Record, 0, len(rows))
	for i, row := range rows {
		r, err := s.decode(row)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, r)
	}
	span.SetAttributes(attribute.Int("attio.count", len(records)))
	return records, nil
}

// Get returns one record by id.
func (s *RecordService) Get(ctx context.Context, id string) (_ record.Record, err error) {
	ctx, span := s.span(ctx, "get", attribute.String("attio.record_id", id))
	defer func() { finish(span, err) }()

	if id == "" {
		return record.Record{}, required("record_id")
	}
	return s.one(ctx, ports.Request{Method: http.MethodGet, Path: s.recordPath(id), Idempotent: true})
}

// Create creates a record. Every required attribute must be present.
func (s *RecordService) Create(ctx context.Context, values schema.Values) (_ record.Record, err error) {
	ctx, span := s.span(ctx, "create")
	defer func() { finish(span, err) }()

	body, err := s.body(values, schema.ModeCreate)
	if err != nil {
		return record.Record{}, err
	}
	return s.one(ctx, ports.Request{Method: http.MethodPost, Path: s.basePath(), Body: body})
}

// Update overwrites the given attributes. Multi-valued attributes are
// replaced with the values provided.
func (s *RecordService) Update(ctx context.Context, id string, values schema.Values) (_ record.Record, err error) {
	ctx, span := s.span(ctx, "update", attribute.String("attio.record_id", id))
	defer func() { finish(span, err) }()

	return s.write(ctx, http.MethodPut, id, values)
}

// Patch updates the given attributes. Values of multi-valued attributes
// are added to the existing ones.
func (s *RecordService) Patch(ctx context.Context, id string, values schema.Values) (_ record.Record, err error) {
	ctx, span := s.span(ctx, "patch", attribute.String("attio.record_id", id))
	defer func() { finish(span, err) }()

	return s.write(ctx, http.MethodPatch, id, values)
}

func (s *RecordService) write(ctx context.Context, method, id string, values schema.Values) (record.Record, error) {
	if id == "" {
		return record.Record{}, required("record_id")
	}
	body, err := s.body(values, schema.ModePartial)
	if err != nil {
		return record.Record{}, err
	}
	return s.one(ctx, ports.Request{
		Method:     method,
		Path:       s.recordPath(id),
		Body:       body,
		Idempotent: method == http.MethodPut,
	})
}

// Delete deletes a record.
func (s *RecordService) Delete(ctx context.Context, id string) (err error) {
	ctx, span := s.span(ctx, "delete", attribute.String("attio.record_id", id))
	defer func() { finish(span, err) }()

	if id == "" {
		return required("record_id")
	}
	_, err = s.transport.Do(ctx, ports.Request{Method: http.MethodDelete, Path: s.recordPath(id), Idempotent: true})
	return err
}

// Assert creates a record, or updates the one whose matchingAttribute
// equals the given value. The server rejects the call with
// apierr.ErrMultipleMatch when several records match.
func (s *RecordService) Assert(ctx context.Context, matchingAttribute string, values schema.Values) (_ record.Record, err error) {
	ctx, span := s.span(ctx, "assert", attribute.String("attio.matching_attribute", matchingAttribute))
	defer func() { finish(span, err) }()

	if matchingAttribute == "" {
		return record.Record{}, required("matching_attribute")
	}
	if _, ok := values[matchingAttribute]; !ok {
		return record.Record{}, required(matchingAttribute)
	}
	body, err := s.body(values, schema.ModeCreate)
	if err != nil {
		return record.Record{}, err
	}
	return s.one(ctx, ports.Request{
		Method:     http.MethodPut,
		Path:       s.basePath(),
		Query:      url.Values{"matching_attribute": {matchingAttribute}},
		Body:       body,
		Idempotent: true,
	})
}

// ListAttributeValues returns the values of one attribute, oldest first.
// Historic values are included when params.ShowHistoric is set.
func (s *RecordService) ListAttributeValues(ctx context.Context, id, name string, params *record.ValuesParams) (_ []attr.Value, err error) {
	ctx, span := s.span(ctx, "list_attribute_values",
		attribute.String("attio.record_id", id),
		attribute.String("attio.attribute", name))
	defer func() { finish(span, err) }()

	if id == "" {
		return nil, required("record_id")
	}
	if _, ok := s.schema.Field(name); !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownAttribute, name)
	}

	raw, err := s.transport.Do(ctx, ports.Request{
		Method:     http.MethodGet,
		Path:       s.recordPath(id) + "/attributes/" + segment(name) + "/values",
		Query:      params.Query(),
		Idempotent: true,
	})
	if err != nil {
		return nil, err
	}
	return decodeValues(s.schema, name, raw)
}

// ListEntries returns the list entries that reference a record.
func (s *RecordService) ListEntries(ctx context.Context, id string, params *record.PageParams) (_ []record.ListEntry, err error) {
	ctx, span := s.span(ctx, "list_entries", attribute.String("attio.record_id", id))
	defer func() { finish(span, err) }()

	if id == "" {
		return nil, required("record_id")
	}
	raw, err := s.transport.Do(ctx, ports.Request{
		Method:     http.MethodGet,
		Path:       s.recordPath(id) + "/entries",
		Query:      params.Query(),
		Idempotent: true,
	})
	if err != nil {
		return nil, err
	}
	return unwrap[[]record.ListEntry](raw)
}

func (s *RecordService) body(values schema.Values, mode schema.Mode) (map[string]any, error) {
	encoded, err := s.schema.Input.Encode(values, mode)
	if err != nil {
		return nil, err
	}
	return map[string]any{"data": map[string]any{"values": encoded}}, nil
}

func (s *RecordService) one(ctx context.Context, req ports.Request) (record.Record, error) {
	raw, err := s.transport.Do(ctx, req)
	if err != nil {
		return record.Record{}, err
	}
	row, err := unwrap[record.RawRecord](raw)
	if err != nil {
		return record.Record{}, err
	}
	return s.decode(row)
}

func (s *RecordService) decode(row record.RawRecord) (record.Record, error) {
	values, err := s.schema.Output.Decode(row.Values)
	if err != nil {
		return record.Record{}, fmt.Errorf("decode %s record %s: %w", s.object, row.ID.RecordID, err)
	}
	return record.Record{
		ID:        row.ID,
		CreatedAt: row.CreatedAt,
		WebURL:    row.WebURL,
		Values:    values,
	}, nil
}
