// Package app provides the typed Attio client.
//
// A Client is built once from a resolved registry and a transport. It holds
// one RecordService per object and one EntryService per list; lookups by
// name never reflect or allocate.
package app

import (
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/artpar/attio/core/registry"
	"github.com/artpar/attio/ports"
)

// TracerName is the instrumentation name used for facade spans.
const TracerName = "github.com/artpar/attio/app"

// Client gives access to every configured object and list.
type Client struct {
	records map[string]*RecordService
	entries map[string]*EntryService
	objects []string
	lists   []string
}

// Option customises a Client.
type Option func(*options)

type options struct {
	tracer trace.Tracer
	logger zerolog.Logger
}

// WithTracer sets the tracer for operation spans. The global provider's
// tracer is used otherwise.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithLogger sets the logger used while building the client.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// NewClient builds services for everything reg resolved.
func NewClient(reg *registry.Registry, transport ports.Transport, opts ...Option) *Client {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(TracerName)
	}

	c := &Client{
		records: make(map[string]*RecordService),
		entries: make(map[string]*EntryService),
		objects: reg.Objects(),
		lists:   reg.Lists(),
	}

	for _, name := range c.objects {
		pair, _ := reg.Object(name)
		c.records[name] = &RecordService{object: name, schema: pair, transport: transport, tracer: o.tracer}
	}
	for _, name := range c.lists {
		pair, _ := reg.List(name)
		c.entries[name] = &EntryService{list: name, schema: pair, transport: transport, tracer: o.tracer}
	}

	o.logger.Debug().
		Strs("objects", c.objects).
		Strs("lists", c.lists).
		Msg("attio client ready")

	return c
}

// Object returns the service for an object.
func (c *Client) Object(name string) (*RecordService, error) {
	s, ok := c.records[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", registry.ErrUnknownObject, name)
	}
	return s, nil
}

// MustObject is like Object but panics for unknown names. Use it only for
// objects the configuration is known to enable.
func (c *Client) MustObject(name string) *RecordService {
	s, err := c.Object(name)
	if err != nil {
		panic(err)
	}
	return s
}

// List returns the service for a list.
func (c *Client) List(name string) (*EntryService, error) {
	s, ok := c.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", registry.ErrUnknownList, name)
	}
	return s, nil
}

// Objects returns the configured object names, sorted.
func (c *Client) Objects() []string { return append([]string(nil), c.objects...) }

// Lists returns the configured list names, sorted.
func (c *Client) Lists() []string { return append([]string(nil), c.lists...) }
