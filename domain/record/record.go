// Package record provides value types for records, list entries and
// their query parameters.
// Nothing here performs I/O; the facade turns these into requests.
package record

import (
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/artpar/attio/core/attribute"
	"github.com/artpar/attio/core/schema"
)

// DefaultLimit is the page size used when a query does not set one.
const DefaultLimit = 500

// ID identifies a record within a workspace (value type).
type ID struct {
	WorkspaceID string `json:"workspace_id"`
	ObjectID    string `json:"object_id"`
	RecordID    string `json:"record_id"`
}

// EntryID identifies a list entry within a workspace (value type).
type EntryID struct {
	WorkspaceID string `json:"workspace_id"`
	ListID      string `json:"list_id"`
	EntryID     string `json:"entry_id"`
}

// Record is a decoded record.
type Record struct {
	ID        ID
	CreatedAt time.Time
	WebURL    string
	Values    schema.Values
}

// Entry is a decoded list entry.
type Entry struct {
	ID             EntryID
	ParentRecordID string
	ParentObject   string
	CreatedAt      time.Time
	Values         schema.Values
}

// RawRecord is a record as it appears on the wire, before value decoding.
type RawRecord struct {
	ID        ID                         `json:"id"`
	CreatedAt time.Time                  `json:"created_at"`
	WebURL    string                     `json:"web_url,omitempty"`
	Values    map[string]json.RawMessage `json:"values"`
}

// RawEntry is a list entry as it appears on the wire.
type RawEntry struct {
	ID             EntryID                    `json:"id"`
	ParentRecordID string                     `json:"parent_record_id"`
	ParentObject   string                     `json:"parent_object"`
	CreatedAt      time.Time                  `json:"created_at"`
	EntryValues    map[string]json.RawMessage `json:"entry_values"`
}

// ListEntry is a list entry that references a record.
type ListEntry struct {
	ListID      string    `json:"list_id"`
	ListAPISlug string    `json:"list_api_slug"`
	EntryID     string    `json:"entry_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Direction orders a sort.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort orders query results by an attribute, or by a path through
// record references when Path is set.
type Sort struct {
	Direction Direction   `json:"direction"`
	Attribute string      `json:"attribute,omitempty"`
	Path      [][2]string `json:"path,omitempty"`
	Field     string      `json:"field,omitempty"`
}

// ListParams filters and pages a record or entry query.
// Filter is passed through verbatim.
type ListParams struct {
	Filter map[string]any
	Sorts  []Sort
	Limit  int
	Offset int
}

// Body returns the query request body, applying defaults.
func (p *ListParams) Body() map[string]any {
	body := map[string]any{"limit": DefaultLimit, "offset": 0}
	if p == nil {
		return body
	}
	if p.Filter != nil {
		body["filter"] = p.Filter
	}
	if len(p.Sorts) > 0 {
		body["sorts"] = p.Sorts
	}
	if p.Limit > 0 {
		body["limit"] = p.Limit
	}
	if p.Offset > 0 {
		body["offset"] = p.Offset
	}
	return body
}

// PageParams pages a GET listing.
type PageParams struct {
	Limit  int
	Offset int
}

// Query returns the URL parameters. Unset fields are omitted.
func (p *PageParams) Query() url.Values {
	q := url.Values{}
	if p == nil {
		return q
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.Itoa(p.Offset))
	}
	return q
}

// ValuesParams controls an attribute value listing.
type ValuesParams struct {
	ShowHistoric bool
	PageParams
}

// Query returns the URL parameters.
func (p *ValuesParams) Query() url.Values {
	if p == nil {
		return url.Values{}
	}
	q := p.PageParams.Query()
	if p.ShowHistoric {
		q.Set("show_historic", "true")
	}
	return q
}

// SortHistory orders values oldest first by active_from. Values with the
// same start keep their order.
func SortHistory(values []attribute.Value) {
	sort.SliceStable(values, func(i, j int) bool {
		return values[i].Meta().ActiveFrom.Before(values[j].Meta().ActiveFrom)
	})
}
