package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	attr "github.com/artpar/attio/core/attribute"
	"github.com/artpar/attio/core/schema"
	"github.com/artpar/attio/domain/record"
)

// ErrUnknownAttribute is returned when a value listing names an attribute
// the schema does not declare.
var ErrUnknownAttribute = errors.New("unknown attribute")

// envelope is Attio's {"data": ...} response wrapper.
type envelope[T any] struct {
	Data T `json:"data"`
}

func unwrap[T any](raw json.RawMessage) (T, error) {
	var env envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		return env.Data, fmt.Errorf("decode response: %w", err)
	}
	return env.Data, nil
}

// start opens a span for one facade operation.
func start(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...), trace.WithSpanKind(trace.SpanKindClient))
}

// finish records err on the span and ends it.
func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func segment(s string) string { return url.PathEscape(s) }

// required reports a missing argument the same way schema validation does.
func required(name string) error {
	return &attr.ValidationError{Issues: []attr.Issue{{
		Path:    name,
		Code:    attr.CodeRequired,
		Message: "must not be empty",
	}}}
}

// decodeValues decodes a value listing for one attribute of pair and
// orders it oldest first.
func decodeValues(pair schema.Pair, name string, raw json.RawMessage) ([]attr.Value, error) {
	a, ok := pair.Field(name)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownAttribute, name)
	}

	elems, err := unwrap[[]json.RawMessage](raw)
	if err != nil {
		return nil, err
	}

	values := make([]attr.Value, 0, len(elems))
	var issues []attr.Issue
	for i, elem := range elems {
		v, err := a.DecodeElement(elem)
		if err != nil {
			nested := attr.IssuesOf(attr.Within(fmt.Sprintf("%s[%d]", name, i), err))
			if nested == nil {
				return nil, err
			}
			issues = append(issues, nested...)
			continue
		}
		values = append(values, v)
	}
	if len(issues) > 0 {
		return nil, &attr.ValidationError{Issues: issues}
	}

	record.SortHistory(values)
	return values, nil
}
