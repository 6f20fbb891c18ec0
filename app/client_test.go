package app_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/artpar/attio/adapters/remote"
	"github.com/artpar/attio/app"
	"github.com/artpar/attio/core/attribute"
	"github.com/artpar/attio/core/registry"
	"github.com/artpar/attio/core/schema"
	"github.com/artpar/attio/domain/apierr"
	"github.com/artpar/attio/domain/record"
	"github.com/artpar/attio/ports"
)

const (
	workspaceID = "0b8e3c6e-1a57-4d9f-9d3a-5f2c8e7b6a10"
	objectID    = "5c1d2e3f-4a5b-4c6d-8e7f-9a0b1c2d3e4f"
	recordA     = "7f1e7a53-9d0e-4b7e-8c55-3e1c3a6f2b90"
	recordB     = "8a2f8b64-0e1f-4c8f-9d66-4f2d4b7a3ca1"
	listID      = "1d2e3f4a-5b6c-4d7e-8f9a-0b1c2d3e4f5a"
	entryID     = "2e3f4a5b-6c7d-4e8f-9a0b-1c2d3e4f5a6b"
)

func metaAt(ts string) string {
	return `"active_from":"` + ts + `","active_until":null,"created_by_actor":{"type":"system","id":null}`
}

func value(kind attribute.Kind, body string) string {
	return `{` + metaAt("2024-03-01T10:00:00Z") + `,"attribute_type":"` + string(kind) + `",` + body + `}`
}

func list(elems ...string) string { return "[" + strings.Join(elems, ",") + "]" }

func baseValues(id string) map[string]string {
	return map[string]string{
		"created_at": list(value(attribute.KindTimestamp, `"value":"2024-03-01T10:00:00Z"`)),
		"created_by": list(value(attribute.KindActorReference, `"referenced_actor_type":"system","referenced_actor_id":null`)),
		"record_id":  list(value(attribute.KindText, `"value":"`+id+`"`)),
	}
}

func recordJSON(id string, values map[string]string) string {
	all := baseValues(id)
	for k, v := range values {
		all[k] = v
	}
	var parts []string
	for k, v := range all {
		parts = append(parts, fmt.Sprintf("%q:%s", k, v))
	}
	return fmt.Sprintf(`{"id":{"workspace_id":%q,"object_id":%q,"record_id":%q},"created_at":"2024-03-01T10:00:00Z","web_url":"https://app.attio.com/r/%s","values":{%s}}`,
		workspaceID, objectID, id, id, strings.Join(parts, ","))
}

func vendorFields() map[string]attribute.Attribute {
	return map[string]attribute.Attribute{
		"name":    attribute.Text.Required,
		"domains": attribute.Domain.Multiple,
		"budget":  attribute.Currency,
		"spend":   attribute.Currency,
	}
}

func vendorValues(name string) map[string]string {
	return map[string]string{
		"name":    list(value(attribute.KindText, `"value":"`+name+`"`)),
		"domains": "[]",
		"budget":  "[]",
		"spend":   "[]",
	}
}

func testConfig() registry.Config {
	return registry.Config{
		Objects: map[string]registry.ObjectConfig{
			registry.People: registry.Enabled(),
			"vendors":       registry.WithFields(vendorFields()),
		},
		Lists: map[string]map[string]attribute.Attribute{
			"pipeline": {"stage": attribute.Text},
		},
	}
}

// countingTransport fails the test if the facade reaches the network.
type countingTransport struct {
	mu    sync.Mutex
	calls int
}

func (c *countingTransport) Do(context.Context, ports.Request) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return nil, fmt.Errorf("unexpected request")
}

// fakeAttio serves routes registered by each test and records the
// requests it received.
type fakeAttio struct {
	chi.Router
	mu     sync.Mutex
	bodies []map[string]any
	seen   []string
}

func (f *fakeAttio) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, r.Method+" "+r.URL.RequestURI())
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		var body map[string]any
		_ = json.Unmarshal(data, &body)
		f.bodies = append(f.bodies, body)
	}
}

func (f *fakeAttio) requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.seen...)
}

func (f *fakeAttio) sent() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.bodies...)
}

func newClient(t *testing.T, opts ...app.Option) (*app.Client, *fakeAttio) {
	t.Helper()

	fake := &fakeAttio{Router: chi.NewRouter()}
	fake.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fake.record(r)
			w.Header().Set("Content-Type", "application/json")
			next.ServeHTTP(w, r)
		})
	})
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	reg, err := registry.Resolve(testConfig())
	require.NoError(t, err)

	transport := remote.NewClient(remote.ClientConfig{BaseURL: server.URL, APIKey: "test"})
	return app.NewClient(reg, transport, opts...), fake
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		io.WriteString(w, body)
	}
}

func TestClientLookup(t *testing.T) {
	client, _ := newClient(t)

	assert.Equal(t, []string{registry.Companies, registry.People, "vendors"}, client.Objects())
	assert.Equal(t, []string{"pipeline"}, client.Lists())

	people, err := client.Object(registry.People)
	require.NoError(t, err)
	assert.Equal(t, registry.People, people.Name())

	_, err = client.Object(registry.Deals)
	assert.ErrorIs(t, err, registry.ErrUnknownObject)

	_, err = client.List("hiring")
	assert.ErrorIs(t, err, registry.ErrUnknownList)

	assert.Panics(t, func() { client.MustObject("nope") })
}

func TestGetNotFound(t *testing.T) {
	client, fake := newClient(t)
	fake.Get("/v2/objects/people/records/{id}", respond(http.StatusNotFound,
		`{"status_code":404,"type":"invalid_request_error","code":"not_found","message":"Record with ID \"nonexistent-id\" not found."}`))

	_, err := client.MustObject(registry.People).Get(context.Background(), "nonexistent-id")
	require.ErrorIs(t, err, apierr.ErrNotFound)

	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, []string{"GET /v2/objects/people/records/nonexistent-id"}, fake.requests())
}

func TestCreateValidatesBeforeSending(t *testing.T) {
	reg, err := registry.Resolve(testConfig())
	require.NoError(t, err)
	transport := &countingTransport{}
	client := app.NewClient(reg, transport)
	vendors := client.MustObject("vendors")
	ctx := context.Background()

	_, err = vendors.Create(ctx, schema.Values{"domains": []string{"acme.com"}})
	require.ErrorIs(t, err, attribute.ErrInvalid)
	assert.Equal(t, "name", attribute.IssuesOf(err)[0].Path)

	_, err = vendors.Create(ctx, schema.Values{"name": "Acme", "record_id": recordA})
	require.ErrorIs(t, err, attribute.ErrReadOnly)

	_, err = vendors.Patch(ctx, recordA, schema.Values{"budget": "lots"})
	require.ErrorIs(t, err, attribute.ErrInvalid)

	_, err = vendors.Assert(ctx, "domains", schema.Values{"name": "Acme"})
	require.ErrorIs(t, err, attribute.ErrInvalid)

	_, err = vendors.Get(ctx, "")
	require.ErrorIs(t, err, attribute.ErrInvalid)

	_, err = vendors.ListAttributeValues(ctx, recordA, "nickname", nil)
	require.ErrorIs(t, err, app.ErrUnknownAttribute)

	pipeline, err := client.List("pipeline")
	require.NoError(t, err)
	_, err = pipeline.Create(ctx, "", recordA, nil)
	require.ErrorIs(t, err, attribute.ErrInvalid)

	assert.Zero(t, transport.calls, "validation failures must not reach the transport")
}

func TestCreate(t *testing.T) {
	client, fake := newClient(t)
	fake.Post("/v2/objects/vendors/records", respond(http.StatusOK,
		`{"data":`+recordJSON(recordA, vendorValues("Acme"))+`}`))

	got, err := client.MustObject("vendors").Create(context.Background(), schema.Values{
		"name":    "Acme",
		"domains": []string{"acme.com", "acme.io"},
	})
	require.NoError(t, err)

	assert.Equal(t, recordA, got.ID.RecordID)
	assert.Equal(t, workspaceID, got.ID.WorkspaceID)
	assert.Equal(t, "https://app.attio.com/r/"+recordA, got.WebURL)
	name, ok := attribute.ValueAs[attribute.TextValue](got.Values["name"])
	require.True(t, ok)
	assert.Equal(t, "Acme", name.Value)

	require.Len(t, fake.sent(), 1)
	want := `{"data":{"values":{
		"name":[{"value":"Acme"}],
		"domains":[{"domain":"acme.com"},{"domain":"acme.io"}]
	}}}`
	sent, _ := json.Marshal(fake.sent()[0])
	assert.JSONEq(t, want, string(sent))
}

func TestCurrencySharesWorkspaceCode(t *testing.T) {
	// Attio stores one currency per workspace; every currency attribute
	// comes back with the same code.
	client, fake := newClient(t)
	fake.Post("/v2/objects/vendors/records", func(w http.ResponseWriter, r *http.Request) {
		values := vendorValues("Acme")
		values["budget"] = list(value(attribute.KindCurrency, `"currency_value":1500.5,"currency_code":"USD"`))
		values["spend"] = list(value(attribute.KindCurrency, `"currency_value":"200","currency_code":"USD"`))
		io.WriteString(w, `{"data":`+recordJSON(recordA, values)+`}`)
	})

	got, err := client.MustObject("vendors").Create(context.Background(), schema.Values{
		"name":   "Acme",
		"budget": map[string]any{"currency_value": 1500.50},
		"spend":  200,
	})
	require.NoError(t, err)

	sent := fake.sent()[0]["data"].(map[string]any)["values"].(map[string]any)
	assert.Equal(t, []any{map[string]any{"currency_value": 1500.5}}, sent["budget"])

	budget, ok := attribute.ValueAs[attribute.CurrencyValue](got.Values["budget"])
	require.True(t, ok)
	spend, ok := attribute.ValueAs[attribute.CurrencyValue](got.Values["spend"])
	require.True(t, ok)

	assert.Equal(t, attribute.Decimal(1500.5), budget.CurrencyValue)
	assert.Equal(t, attribute.Decimal(200), spend.CurrencyValue)
	assert.Equal(t, budget.CurrencyCode, spend.CurrencyCode)
}

func TestAssertMultipleMatch(t *testing.T) {
	client, fake := newClient(t)
	fake.Put("/v2/objects/people/records", respond(http.StatusBadRequest,
		`{"status_code":400,"type":"invalid_request_error","code":"multiple_match_results","message":"Multiple records match email_addresses"}`))

	_, err := client.MustObject(registry.People).Assert(context.Background(), "email_addresses", schema.Values{
		"email_addresses": []string{"ada@example.com"},
	})
	require.ErrorIs(t, err, apierr.ErrMultipleMatch)

	require.Len(t, fake.requests(), 1)
	assert.Equal(t, "PUT /v2/objects/people/records?matching_attribute=email_addresses", fake.requests()[0])
}

func TestList(t *testing.T) {
	client, fake := newClient(t)
	fake.Post("/v2/objects/vendors/records/query", respond(http.StatusOK,
		`{"data":[`+recordJSON(recordA, vendorValues("Acme"))+`,`+recordJSON(recordB, vendorValues("Globex"))+`]}`))

	vendors := client.MustObject("vendors")
	got, err := vendors.List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, recordA, got[0].ID.RecordID)
	assert.Equal(t, recordB, got[1].ID.RecordID)

	_, err = vendors.List(context.Background(), &record.ListParams{
		Filter: map[string]any{"name": "Acme"},
		Offset: 500,
	})
	require.NoError(t, err)

	require.Len(t, fake.sent(), 2)
	assert.Equal(t, map[string]any{"limit": float64(500), "offset": float64(0)}, fake.sent()[0])
	assert.Equal(t, map[string]any{"name": "Acme"}, fake.sent()[1]["filter"])
	assert.Equal(t, float64(500), fake.sent()[1]["offset"])
}

func TestListRejectsMalformedRecord(t *testing.T) {
	client, fake := newClient(t)
	values := vendorValues("Acme")
	delete(values, "name")
	fake.Post("/v2/objects/vendors/records/query", respond(http.StatusOK, `{"data":[`+recordJSON(recordA, values)+`]}`))

	_, err := client.MustObject("vendors").List(context.Background(), nil)
	require.ErrorIs(t, err, attribute.ErrInvalid)
	assert.Contains(t, err.Error(), "record 0")
}

func TestUpdatePatchDelete(t *testing.T) {
	client, fake := newClient(t)
	ok := respond(http.StatusOK, `{"data":`+recordJSON(recordA, vendorValues("Acme"))+`}`)
	fake.Put("/v2/objects/vendors/records/{id}", ok)
	fake.Patch("/v2/objects/vendors/records/{id}", ok)
	fake.Delete("/v2/objects/vendors/records/{id}", respond(http.StatusOK, `{}`))

	vendors := client.MustObject("vendors")
	ctx := context.Background()

	_, err := vendors.Update(ctx, recordA, schema.Values{"domains": []string{"acme.com"}})
	require.NoError(t, err)
	_, err = vendors.Patch(ctx, recordA, schema.Values{"domains": []string{"acme.io"}})
	require.NoError(t, err)
	require.NoError(t, vendors.Delete(ctx, recordA))

	assert.Equal(t, []string{
		"PUT /v2/objects/vendors/records/" + recordA,
		"PATCH /v2/objects/vendors/records/" + recordA,
		"DELETE /v2/objects/vendors/records/" + recordA,
	}, fake.requests())
}

func TestListAttributeValues(t *testing.T) {
	client, fake := newClient(t)
	fake.Get("/v2/objects/vendors/records/{id}/attributes/{attribute}/values", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "name", chi.URLParam(r, "attribute"))
		assert.Equal(t, "true", r.URL.Query().Get("show_historic"))
		newer := `{` + metaAt("2024-05-01T00:00:00Z") + `,"attribute_type":"text","value":"Acme Corp"}`
		older := `{` + metaAt("2023-01-01T00:00:00Z") + `,"attribute_type":"text","value":"Acme"}`
		io.WriteString(w, `{"data":[`+newer+`,`+older+`]}`)
	})

	got, err := client.MustObject("vendors").ListAttributeValues(context.Background(), recordA, "name",
		&record.ValuesParams{ShowHistoric: true})
	require.NoError(t, err)

	names := attribute.ValuesAs[attribute.TextValue](got)
	require.Len(t, names, 2)
	assert.Equal(t, "Acme", names[0].Value, "oldest first")
	assert.Equal(t, "Acme Corp", names[1].Value)
}

func TestListEntriesForRecord(t *testing.T) {
	client, fake := newClient(t)
	fake.Get("/v2/objects/people/records/{id}/entries", respond(http.StatusOK,
		`{"data":[{"list_id":"`+listID+`","list_api_slug":"pipeline","entry_id":"`+entryID+`","created_at":"2024-03-01T10:00:00Z"}]}`))

	got, err := client.MustObject(registry.People).ListEntries(context.Background(), recordA, &record.PageParams{Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "pipeline", got[0].ListAPISlug)
	assert.Equal(t, "GET /v2/objects/people/records/"+recordA+"/entries?limit=10", fake.requests()[0])
}

func entryJSON(stage string) string {
	values := map[string]string{
		"created_at":    list(value(attribute.KindTimestamp, `"value":"2024-03-01T10:00:00Z"`)),
		"created_by":    list(value(attribute.KindActorReference, `"referenced_actor_type":"system","referenced_actor_id":null`)),
		"entry_id":      list(value(attribute.KindText, `"value":"`+entryID+`"`)),
		"parent_record": list(value(attribute.KindRecordReference, `"target_object":"people","target_record_id":"`+recordA+`"`)),
		"stage":         list(value(attribute.KindText, `"value":"`+stage+`"`)),
	}
	var parts []string
	for k, v := range values {
		parts = append(parts, fmt.Sprintf("%q:%s", k, v))
	}
	return fmt.Sprintf(`{"id":{"workspace_id":%q,"list_id":%q,"entry_id":%q},"parent_record_id":%q,"parent_object":"people","created_at":"2024-03-01T10:00:00Z","entry_values":{%s}}`,
		workspaceID, listID, entryID, recordA, strings.Join(parts, ","))
}

func TestEntries(t *testing.T) {
	client, fake := newClient(t)
	fake.Post("/v2/lists/pipeline/entries", respond(http.StatusOK, `{"data":`+entryJSON("Lead")+`}`))
	fake.Post("/v2/lists/pipeline/entries/query", respond(http.StatusOK, `{"data":[`+entryJSON("Lead")+`]}`))
	fake.Patch("/v2/lists/pipeline/entries/{id}", respond(http.StatusOK, `{"data":`+entryJSON("Won")+`}`))

	pipeline, err := client.List("pipeline")
	require.NoError(t, err)
	ctx := context.Background()

	created, err := pipeline.Create(ctx, registry.People, recordA, schema.Values{"stage": "Lead"})
	require.NoError(t, err)
	assert.Equal(t, recordA, created.ParentRecordID)
	assert.Equal(t, entryID, created.ID.EntryID)

	sent, _ := json.Marshal(fake.sent()[0])
	assert.JSONEq(t, `{"data":{"parent_record_id":"`+recordA+`","parent_object":"people","entry_values":{"stage":[{"value":"Lead"}]}}}`, string(sent))

	entries, err := pipeline.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	patched, err := pipeline.Patch(ctx, entryID, schema.Values{"stage": "Won"})
	require.NoError(t, err)
	stage, _ := attribute.ValueAs[attribute.TextValue](patched.Values["stage"])
	assert.Equal(t, "Won", stage.Value)

	sent, _ = json.Marshal(fake.sent()[2])
	assert.JSONEq(t, `{"data":{"entry_values":{"stage":[{"value":"Won"}]}}}`, string(sent))
}

func TestSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	client, fake := newClient(t, app.WithTracer(provider.Tracer("test")))
	fake.Get("/v2/objects/people/records/{id}", respond(http.StatusNotFound,
		`{"status_code":404,"type":"invalid_request_error","code":"not_found","message":"missing"}`))

	_, err := client.MustObject(registry.People).Get(context.Background(), recordA)
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "records.get", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, registry.People, attrs["attio.object"])
	assert.Equal(t, recordA, attrs["attio.record_id"])
}
