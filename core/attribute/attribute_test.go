package attribute

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	memberID = "2c0b0a3c-5c77-4c4e-9a1e-0f8d7c3b6a11"
	recordID = "7f1e7a53-9d0e-4b7e-8c55-3e1c3a6f2b90"
	optionID = "b3c1d8a2-41c6-4f2e-9a55-0c2d7e9f1a34"
)

const meta = `"active_from":"2024-03-01T10:00:00Z","active_until":null,` +
	`"created_by_actor":{"type":"workspace-member","id":"` + memberID + `"}`

func elem(kind Kind, body string) string {
	return `{` + meta + `,"attribute_type":"` + string(kind) + `",` + body + `}`
}

func list(elems ...string) json.RawMessage {
	out := "["
	for i, e := range elems {
		if i > 0 {
			out += ","
		}
		out += e
	}
	return json.RawMessage(out + "]")
}

func TestSingleRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		set  Set
		elem string
	}{
		{"text", Text, elem(KindText, `"value":"Acme"`)},
		{"number", Number, elem(KindNumber, `"value":42.5`)},
		{"currency", Currency, elem(KindCurrency, `"currency_value":1500.5,"currency_code":"USD"`)},
		{"date", Date, elem(KindDate, `"value":"2023-11-24"`)},
		{"timestamp", Timestamp, elem(KindTimestamp, `"value":"2024-05-06T07:08:09Z"`)},
		{"checkbox", Checkbox, elem(KindCheckbox, `"value":true`)},
		{"domain", Domain, elem(KindDomain, `"domain":"app.acme.com","root_domain":"acme.com"`)},
		{"email", EmailAddress, elem(KindEmailAddress, `"email_address":"jane@acme.com","original_email_address":"Jane@acme.com",`+
			`"email_domain":"acme.com","email_root_domain":"acme.com","email_local_specifier":"jane"`)},
		{"phone", PhoneNumber, elem(KindPhoneNumber, `"original_phone_number":"07700 900123","phone_number":"+447700900123","country_code":"GB"`)},
		{"phone normalized", PhoneNumber, elem(KindPhoneNumber, `"original_phone_number":"07700 900123","normalized_phone_number":"+447700900123","country_code":"GB"`)},
		{"location", Location, elem(KindLocation, `"line_1":"1 Infinite Loop","line_2":null,"line_3":null,"line_4":null,`+
			`"locality":"Cupertino","region":"CA","postcode":"95014","country_code":"US","latitude":"37.331741","longitude":"-122.030333"`)},
		{"personal name", PersonalName, elem(KindPersonalName, `"first_name":"Jane","last_name":"Doe","full_name":"Jane Doe"`)},
		{"rating", Rating, elem(KindRating, `"value":4`)},
		{"rating as float", Rating, elem(KindRating, `"value":3.0`)},
		{"select compact id", Select, elem(KindSelect, `"option":{"id":"`+optionID+`","title":"Enterprise","is_archived":false}`)},
		{"select composite id", Select, elem(KindSelect, `"option":{"id":{"workspace_id":"`+memberID+`","object_id":"`+recordID+
			`","attribute_id":"`+optionID+`","option_id":"`+optionID+`"},"title":"Enterprise","is_archived":false}`)},
		{"status", Status, elem(KindStatus, `"status":{"id":"`+optionID+`","title":"Won","is_archived":false}`)},
		{"system actor", ActorReference, elem(KindActorReference, `"referenced_actor_type":"system","referenced_actor_id":null`)},
		{"member actor", ActorReference, elem(KindActorReference, `"referenced_actor_type":"workspace-member","referenced_actor_id":"`+memberID+`"`)},
		{"record reference", RecordReference, elem(KindRecordReference, `"target_object":"companies","target_record_id":"`+recordID+`"`)},
		{"interaction", Interaction, elem(KindInteraction, `"interaction_type":"email","interacted_at":"2024-01-02T03:04:05Z",`+
			`"owner_actor":{"type":"workspace-member","id":"`+memberID+`"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, raw := range []json.RawMessage{list(), list(tt.elem)} {
				decoded, err := tt.set.DecodeOutput(raw)
				require.NoError(t, err)

				encoded, err := tt.set.EncodeOutput(decoded)
				require.NoError(t, err)
				assert.JSONEq(t, string(raw), string(encoded))
			}

			decoded, err := tt.set.Required.DecodeOutput(list(tt.elem))
			require.NoError(t, err)
			encoded, err := tt.set.Required.EncodeOutput(decoded)
			require.NoError(t, err)
			assert.JSONEq(t, string(list(tt.elem)), string(encoded))
			assert.Equal(t, tt.set.Kind(), decoded.(Value).Meta().AttributeType)
		})
	}
}

func TestSingleCardinality(t *testing.T) {
	one := elem(KindText, `"value":"a"`)
	two := elem(KindText, `"value":"b"`)

	t.Run("optional empty decodes to nil", func(t *testing.T) {
		v, err := Text.DecodeOutput(list())
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("two elements never truncate", func(t *testing.T) {
		for _, a := range []Attribute{Text, Text.Required, Text.ReadOnly} {
			_, err := a.DecodeOutput(list(one, two))
			require.ErrorIs(t, err, ErrInvalid)
			assert.Equal(t, CodeCardinality, IssuesOf(err)[0].Code)
		}
	})

	t.Run("required and read-only need one element", func(t *testing.T) {
		for _, a := range []Attribute{Text.Required, Text.ReadOnly} {
			_, err := a.DecodeOutput(list())
			require.ErrorIs(t, err, ErrInvalid)
			assert.Equal(t, CodeCardinality, IssuesOf(err)[0].Code)
		}
	})

	t.Run("required value decodes unwrapped", func(t *testing.T) {
		v, err := Text.Required.DecodeOutput(list(one))
		require.NoError(t, err)
		text, ok := ValueAs[TextValue](v)
		require.True(t, ok)
		assert.Equal(t, "a", text.Value)
		assert.Equal(t, ActorWorkspaceMember, text.CreatedByActor.Type)
		assert.True(t, text.Current())
	})

	t.Run("null is not a list", func(t *testing.T) {
		_, err := Text.DecodeOutput(json.RawMessage("null"))
		assert.ErrorIs(t, err, ErrInvalid)
	})
}

func TestMultiplePreservesOrderAndCount(t *testing.T) {
	raw := list(
		elem(KindDomain, `"domain":"b.com","root_domain":"b.com"`),
		elem(KindDomain, `"domain":"a.com","root_domain":"a.com"`),
		elem(KindDomain, `"domain":"b.com","root_domain":"b.com"`),
	)

	decoded, err := Domain.Multiple.DecodeOutput(raw)
	require.NoError(t, err)

	domains := ValuesAs[DomainValue](decoded)
	require.Len(t, domains, 3)
	assert.Equal(t, []string{"b.com", "a.com", "b.com"}, []string{domains[0].Domain, domains[1].Domain, domains[2].Domain})

	encoded, err := Domain.Multiple.EncodeOutput(decoded)
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(encoded))

	_, err = Domain.Multiple.Required.DecodeOutput(list())
	require.ErrorIs(t, err, ErrInvalid)

	empty, err := Domain.Multiple.DecodeOutput(list())
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMultipleCollectsElementIssues(t *testing.T) {
	raw := list(
		elem(KindDomain, `"domain":"a.com","root_domain":"a.com"`),
		elem(KindText, `"value":"oops"`),
		elem(KindDomain, `"root_domain":"c.com"`),
	)
	_, err := Domain.Multiple.DecodeOutput(raw)
	require.Error(t, err)

	issues := IssuesOf(err)
	require.Len(t, issues, 2)
	assert.Equal(t, Issue{Path: "[1].attribute_type", Code: CodeDiscriminant, Message: `expected "domain", got "text"`}, issues[0])
	assert.Equal(t, "[2].domain", issues[1].Path)
	assert.Equal(t, CodeConstraint, issues[1].Code)
}

func TestOutputValidation(t *testing.T) {
	tests := []struct {
		name string
		attr Attribute
		elem string
		path string
	}{
		{"bad currency code", Currency, elem(KindCurrency, `"currency_value":"12.5","currency_code":"DOLLARS"`), "[0].currency_code"},
		{"rating above five", Rating, elem(KindRating, `"value":6`), "[0].value"},
		{"fractional rating", Rating, elem(KindRating, `"value":3.5`), "[0].value"},
		{"phone without number", PhoneNumber, elem(KindPhoneNumber, `"original_phone_number":"07700 900123","country_code":"GB"`), "[0].normalized_phone_number"},
		{"record id not a uuid", RecordReference, elem(KindRecordReference, `"target_object":"people","target_record_id":"nope"`), "[0].target_record_id"},
		{"unknown actor type", Text, `{"active_from":"2024-03-01T10:00:00Z","active_until":null,"created_by_actor":{"type":"robot","id":null},"attribute_type":"text","value":"x"}`, "[0].created_by_actor.type"},
		{"missing active_from", Text, `{"active_until":null,"created_by_actor":{"type":"system","id":null},"attribute_type":"text","value":"x"}`, "[0].active_from"},
		{"member actor without id", ActorReference, elem(KindActorReference, `"referenced_actor_type":"workspace-member","referenced_actor_id":null`), "[0].referenced_actor_id"},
		{"wrong reference target", CompanyRecordReference, elem(KindRecordReference, `"target_object":"people","target_record_id":"`+recordID+`"`), "[0].target_object"},
		{"option outside fixed set", SelectWith("low", "high"), elem(KindSelect, `"option":{"id":"`+optionID+`","title":"medium","is_archived":false}`), "[0].option.title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.attr.DecodeOutput(list(tt.elem))
			require.ErrorIs(t, err, ErrInvalid)
			issues := IssuesOf(err)
			require.NotEmpty(t, issues)
			assert.Equal(t, tt.path, issues[0].Path)
		})
	}
}

func TestCurrencyAcceptsNumericString(t *testing.T) {
	v, err := Currency.DecodeOutput(list(elem(KindCurrency, `"currency_value":"1500.50","currency_code":"EUR"`)))
	require.NoError(t, err)

	c, ok := ValueAs[CurrencyValue](v)
	require.True(t, ok)
	assert.Equal(t, Decimal(1500.5), c.CurrencyValue)
	assert.Equal(t, "EUR", c.CurrencyCode)
}

func TestPhoneNumberEitherKey(t *testing.T) {
	for _, key := range []string{"normalized_phone_number", "phone_number"} {
		v, err := PhoneNumber.DecodeOutput(list(elem(KindPhoneNumber, `"original_phone_number":"07700 900123","`+key+`":"+447700900123","country_code":"GB"`)))
		require.NoError(t, err, key)

		p, ok := ValueAs[PhoneNumberValue](v)
		require.True(t, ok)
		assert.Equal(t, "+447700900123", p.Normalized(), key)
	}
}

func TestRatingWholeFloat(t *testing.T) {
	v, err := Rating.DecodeOutput(list(elem(KindRating, `"value":3.0`)))
	require.NoError(t, err)

	r, ok := ValueAs[RatingValue](v)
	require.True(t, ok)
	assert.Equal(t, 3, r.Stars())
}

func TestEncodeInputShorthands(t *testing.T) {
	ts := time.Date(2024, 3, 1, 11, 30, 0, 0, time.FixedZone("CET", 3600))

	tests := []struct {
		name  string
		attr  Attribute
		input any
		want  map[string]any
	}{
		{"text string", Text, "Acme", map[string]any{"value": "Acme"}},
		{"text object", Text, map[string]any{"value": "Acme"}, map[string]any{"value": "Acme"}},
		{"number int", Number, 42, map[string]any{"value": float64(42)}},
		{"number object", Number, map[string]any{"value": 1.5}, map[string]any{"value": 1.5}},
		{"currency number", Currency, 1500.50, map[string]any{"currency_value": 1500.5}},
		{"currency string", Currency, "99.95", map[string]any{"currency_value": 99.95}},
		{"currency object", Currency, map[string]any{"currency_value": 1500.50}, map[string]any{"currency_value": 1500.5}},
		{"date from time", Date, ts, map[string]any{"value": "2024-03-01"}},
		{"date from timestamp string", Date, "2023-11-24T23:00:00Z", map[string]any{"value": "2023-11-24"}},
		{"timestamp to utc", Timestamp, ts, map[string]any{"value": "2024-03-01T10:30:00Z"}},
		{"timestamp object", Timestamp, map[string]any{"value": "2024-03-01T10:30:00+01:00"}, map[string]any{"value": "2024-03-01T09:30:00Z"}},
		{"checkbox bool", Checkbox, true, map[string]any{"value": true}},
		{"checkbox string", Checkbox, "false", map[string]any{"value": false}},
		{"domain", Domain, "acme.com", map[string]any{"domain": "acme.com"}},
		{"email", EmailAddress, "jane@acme.com", map[string]any{"email_address": "jane@acme.com"}},
		{"phone", PhoneNumber, map[string]any{"original_phone_number": "07700 900123", "country_code": "GB"},
			map[string]any{"original_phone_number": "07700 900123", "country_code": "GB"}},
		{"location string", Location, "1 Infinite Loop", map[string]any{
			"line_1": "1 Infinite Loop", "line_2": nil, "line_3": nil, "line_4": nil, "locality": nil,
			"region": nil, "postcode": nil, "country_code": nil, "latitude": nil, "longitude": nil,
		}},
		{"location partial object", Location, map[string]any{"locality": "Cupertino", "latitude": 37.331741}, map[string]any{
			"line_1": nil, "line_2": nil, "line_3": nil, "line_4": nil, "locality": "Cupertino",
			"region": nil, "postcode": nil, "country_code": nil, "latitude": "37.331741", "longitude": nil,
		}},
		{"name last first", PersonalName, "Doe, Jane", map[string]any{"first_name": "Jane", "last_name": "Doe", "full_name": "Jane Doe"}},
		{"name split on last space", PersonalName, "Jane van Doe", map[string]any{"first_name": "Jane van", "last_name": "Doe", "full_name": "Jane van Doe"}},
		{"rating", Rating, 4, map[string]any{"value": 4}},
		{"select title", Select, "Enterprise", map[string]any{"option": "Enterprise"}},
		{"select id", Select, optionID, map[string]any{"option": optionID}},
		{"status", Status, map[string]any{"status": "Won"}, map[string]any{"status": "Won"}},
		{"actor by id", ActorReference, memberID, map[string]any{"referenced_actor_type": "workspace-member", "referenced_actor_id": memberID}},
		{"actor by email", ActorReference, "owner@acme.com", map[string]any{"workspace_member_email_address": "owner@acme.com"}},
		{"reference object", RecordReference, map[string]any{"target_object": "deals", "target_record_id": recordID},
			map[string]any{"target_object": "deals", "target_record_id": recordID}},
		{"company by record id", CompanyRecordReference, recordID, map[string]any{"target_object": "companies", "target_record_id": recordID}},
		{"company by domain", CompanyRecordReference, "acme.com", map[string]any{
			"target_object": "companies", "domains": []any{map[string]any{"domain": "acme.com"}},
		}},
		{"person by email", PersonRecordReference, "jane@acme.com", map[string]any{
			"target_object": "people", "email_addresses": []any{map[string]any{"email_address": "jane@acme.com"}},
		}},
		{"user by id object", UserRecordReference, map[string]any{"user_id": []any{map[string]any{"value": "u-42"}}}, map[string]any{
			"target_object": "users", "user_id": []any{map[string]any{"value": "u-42"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.attr.EncodeInput(tt.input)
			require.NoError(t, err)
			assert.Equal(t, []any{tt.want}, got)
		})
	}
}

func TestEncodeInputRejects(t *testing.T) {
	tests := []struct {
		name  string
		attr  Attribute
		input any
		code  string
	}{
		{"text from number", Text, 12, CodeNoMatch},
		{"unknown key", Text, map[string]any{"value": "x", "extra": 1}, CodeUnknownField},
		{"bad email", EmailAddress, "not-an-email", CodeConstraint},
		{"rating out of range", Rating, 7, CodeConstraint},
		{"fractional rating", Rating, 2.5, CodeConstraint},
		{"bad country", Location, map[string]any{"country_code": "XX1"}, CodeConstraint},
		{"bare id without target", RecordReference, recordID, CodeConstraint},
		{"wrong target object", CompanyRecordReference, map[string]any{"target_object": "people", "target_record_id": recordID}, CodeConstraint},
		{"fixed select", SelectWith("low", "high"), "medium", CodeConstraint},
		{"actor of other type", ActorReference, map[string]any{"referenced_actor_type": "api-token", "referenced_actor_id": memberID}, CodeConstraint},
		{"required nil", Text.Required, nil, CodeRequired},
		{"multiple required empty", Domain.Multiple.Required, []string{}, CodeCardinality},
		{"multiple from scalar", Domain.Multiple, "acme.com", CodeInvalidType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.attr.EncodeInput(tt.input)
			require.ErrorIs(t, err, ErrInvalid)
			assert.Equal(t, tt.code, IssuesOf(err)[0].Code)
		})
	}
}

func TestEncodeInputMultiple(t *testing.T) {
	got, err := EmailAddress.Multiple.EncodeInput([]string{"a@acme.com", "b@acme.com"})
	require.NoError(t, err)
	assert.Equal(t, []any{
		map[string]any{"email_address": "a@acme.com"},
		map[string]any{"email_address": "b@acme.com"},
	}, got)

	_, err = EmailAddress.Multiple.EncodeInput([]any{"a@acme.com", 3, "bad"})
	require.Error(t, err)
	issues := IssuesOf(err)
	require.Len(t, issues, 2)
	assert.Equal(t, "[1]", issues[0].Path)
	assert.Equal(t, "[2]", issues[1].Path)

	empty, err := Domain.Multiple.EncodeInput(nil)
	require.NoError(t, err)
	assert.Equal(t, []any{}, empty)
}

func TestOptionalNilEncodesEmptyList(t *testing.T) {
	got, err := Text.EncodeInput(nil)
	require.NoError(t, err)
	assert.Equal(t, []any{}, got)
}

func TestReadOnlyCannotBeWritten(t *testing.T) {
	for _, a := range []Attribute{Text.ReadOnly, Domain.Multiple.ReadOnly, Interaction, Interaction.Required} {
		assert.False(t, a.Writable())
		_, err := a.EncodeInput("anything")
		assert.True(t, errors.Is(err, ErrReadOnly), "%s %s", a.Kind(), a.Access())
	}
	assert.True(t, Text.Writable())
	assert.True(t, Text.Required.Writable())
}

func TestOmittable(t *testing.T) {
	a := Omittable(DealRecordReference.Multiple)
	assert.True(t, a.MayBeAbsent())
	assert.False(t, DealRecordReference.Multiple.MayBeAbsent())

	v, err := a.DecodeOutput(nil)
	require.NoError(t, err)
	assert.Empty(t, v)

	_, err = DealRecordReference.Multiple.DecodeOutput(nil)
	require.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, CodeRequired, IssuesOf(err)[0].Code)
}

func TestBuildFamilies(t *testing.T) {
	assert.Nil(t, Text.Multiple)
	require.NotNil(t, Domain.Multiple)

	assert.Equal(t, Descriptor{Kind: KindText, Access: Optional, Cardinality: Single}, Text.Describe())
	assert.Equal(t, Descriptor{Kind: KindText, Access: Required, Cardinality: Single}, Text.Required.Describe())
	assert.Equal(t, Descriptor{Kind: KindDomain, Access: ReadOnly, Cardinality: Many}, Domain.Multiple.ReadOnly.Describe())
	assert.Equal(t, "companies", CompanyRecordReference.Describe().Target)
	assert.Equal(t, "low,high", SelectWith("low", "high").Describe().Options)

	for _, k := range Kinds {
		set, ok := Lookup(k)
		require.True(t, ok, k)
		assert.Equal(t, k, set.Kind())
		assert.Equal(t, k, set.Required.Kind())
		assert.Equal(t, k, set.ReadOnly.Kind())
		if set.Multiple != nil {
			assert.Equal(t, k, set.Multiple.Kind())
			assert.Equal(t, k, set.Multiple.Required.Kind())
		}
	}
}

func TestIssueWithin(t *testing.T) {
	err := Within("domains", Within("[2]", invalid(CodeConstraint, "bad")))
	assert.Equal(t, "domains[2]", IssuesOf(err)[0].Path)
	assert.EqualError(t, err, "validation failed: domains[2]: constraint: bad")

	plain := errors.New("boom")
	assert.Same(t, plain, Within("x", plain))
}
