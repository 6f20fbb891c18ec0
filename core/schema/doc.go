/*
Package schema assembles the input and output schemas of one Attio object or
list from a map of named attributes.

Every object carries three read-only base attributes, created_at, created_by
and record_id. List entries carry entry_id instead of record_id, plus
parent_record. Caller attributes are merged on top of the base ones and win
on collision, except for the id attribute, which is always the base one.

# Schemas

	pair := schema.Create(map[string]attribute.Attribute{
	    "name":    attribute.Text.Required,
	    "domains": attribute.Domain.Multiple,
	    "stage":   attribute.Status,
	}, schema.RecordID)

	body, err := pair.Input.Encode(schema.Values{"name": "Acme"}, schema.ModeCreate)
	values, err := pair.Output.Decode(rawValues)

The input schema only knows writable attributes. Submitting a read-only
attribute is rejected, not ignored. The output schema decodes every attribute
and ignores keys it does not know.

# Field Specs

Attributes can also be declared in YAML, which is how objects and lists are
configured from a file:

	name:     { type: text, required: true }
	domains:  { type: domain, multiple: true }
	priority: { type: select, options: [low, medium, high] }
	owner:    { type: record-reference, target: people }
	score:    { type: rating, read_only: true }

Load them with:

	fields, err := schema.Parse(data)
	fields, err := schema.ParseFile("objects/vendors.yaml")

Every invalid field is reported in one error.
*/
package schema
