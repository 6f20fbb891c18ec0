package record_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/artpar/attio/core/attribute"
	"github.com/artpar/attio/domain/record"
)

func TestListParams_Body(t *testing.T) {
	tests := []struct {
		name   string
		params *record.ListParams
		want   map[string]any
	}{
		{
			name:   "nil uses defaults",
			params: nil,
			want:   map[string]any{"limit": 500, "offset": 0},
		},
		{
			name:   "zero value uses defaults",
			params: &record.ListParams{},
			want:   map[string]any{"limit": 500, "offset": 0},
		},
		{
			name: "filter and sorts pass through",
			params: &record.ListParams{
				Filter: map[string]any{"name": "Acme"},
				Sorts:  []record.Sort{{Direction: record.Desc, Attribute: "created_at"}},
				Limit:  10,
				Offset: 20,
			},
			want: map[string]any{
				"filter": map[string]any{"name": "Acme"},
				"sorts":  []record.Sort{{Direction: record.Desc, Attribute: "created_at"}},
				"limit":  10,
				"offset": 20,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.params.Body(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Body() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValuesParams_Query(t *testing.T) {
	var nilParams *record.ValuesParams
	if got := nilParams.Query().Encode(); got != "" {
		t.Errorf("nil Query() = %q, want empty", got)
	}

	p := &record.ValuesParams{ShowHistoric: true, PageParams: record.PageParams{Limit: 5}}
	if got := p.Query().Encode(); got != "limit=5&show_historic=true" {
		t.Errorf("Query() = %q", got)
	}

	page := &record.PageParams{Offset: 3}
	if got := page.Query().Encode(); got != "offset=3" {
		t.Errorf("PageParams.Query() = %q", got)
	}
}

func TestSortHistory(t *testing.T) {
	at := func(day int, v string) attribute.Value {
		return attribute.TextValue{
			Metadata: attribute.Metadata{ActiveFrom: time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)},
			Value:    v,
		}
	}

	values := []attribute.Value{at(3, "c"), at(1, "a1"), at(2, "b"), at(1, "a2")}
	record.SortHistory(values)

	var got []string
	for _, v := range values {
		got = append(got, v.(attribute.TextValue).Value)
	}
	want := []string{"a1", "a2", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}
