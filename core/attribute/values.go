package attribute

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// TextValue is a decoded text attribute value.
type TextValue struct {
	Metadata
	Value string `json:"value"`
}

type NumberValue struct {
	Metadata
	Value float64 `json:"value"`
}

type CheckboxValue struct {
	Metadata
	Value bool `json:"value"`
}

// CurrencyValue carries the amount and the attribute's currency. The code is
// shared by every value of the attribute across the workspace; the API does
// not allow it to differ per record.
type CurrencyValue struct {
	Metadata
	CurrencyValue Decimal `json:"currency_value"`
	CurrencyCode  string  `json:"currency_code" validate:"required,iso4217"`
}

type DateValue struct {
	Metadata
	Value CalendarDate `json:"value"`
}

type TimestampValue struct {
	Metadata
	Value time.Time `json:"value"`
}

type DomainValue struct {
	Metadata
	Domain     string `json:"domain" validate:"required"`
	RootDomain string `json:"root_domain"`
}

type EmailAddressValue struct {
	Metadata
	EmailAddress         string `json:"email_address" validate:"required"`
	OriginalEmailAddress string `json:"original_email_address"`
	EmailDomain          string `json:"email_domain"`
	EmailRootDomain      string `json:"email_root_domain"`
	EmailLocalSpecifier  string `json:"email_local_specifier"`
}

// PhoneNumberValue carries the E.164 number under normalized_phone_number.
// Some payloads name it phone_number; whichever key arrived is kept.
type PhoneNumberValue struct {
	Metadata
	OriginalPhoneNumber   string `json:"original_phone_number"`
	NormalizedPhoneNumber string `json:"normalized_phone_number,omitempty" validate:"required_without=PhoneNumber"`
	PhoneNumber           string `json:"phone_number,omitempty" validate:"required_without=NormalizedPhoneNumber"`
	CountryCode           string `json:"country_code" validate:"omitempty,iso3166_1_alpha2"`
}

// Normalized returns the E.164 number from either key.
func (v PhoneNumberValue) Normalized() string {
	if v.NormalizedPhoneNumber != "" {
		return v.NormalizedPhoneNumber
	}
	return v.PhoneNumber
}

// LocationValue holds every address property. Properties the API does not
// know are null.
type LocationValue struct {
	Metadata
	Line1       *string        `json:"line_1"`
	Line2       *string        `json:"line_2"`
	Line3       *string        `json:"line_3"`
	Line4       *string        `json:"line_4"`
	Locality    *string        `json:"locality"`
	Region      *string        `json:"region"`
	Postcode    *string        `json:"postcode"`
	CountryCode *string        `json:"country_code" validate:"omitempty,iso3166_1_alpha2"`
	Latitude    *NumericString `json:"latitude"`
	Longitude   *NumericString `json:"longitude"`
}

type PersonalNameValue struct {
	Metadata
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
}

// RatingValue decodes any JSON number; whole numbers only, see checkRating.
type RatingValue struct {
	Metadata
	Value float64 `json:"value" validate:"gte=0,lte=5"`
}

// Stars returns the rating as an integer.
func (v RatingValue) Stars() int { return int(v.Value) }

// SelectOption is one option of a select attribute.
type SelectOption struct {
	ID         OptionID `json:"id"`
	Title      string   `json:"title" validate:"required"`
	IsArchived bool     `json:"is_archived"`
}

type SelectValue struct {
	Metadata
	Option SelectOption `json:"option"`
}

// StatusOption is one status of a status attribute.
type StatusOption struct {
	ID         StatusID `json:"id"`
	Title      string   `json:"title" validate:"required"`
	IsArchived bool     `json:"is_archived"`
}

type StatusValue struct {
	Metadata
	Status StatusOption `json:"status"`
}

// ActorReferenceValue points at an actor. System actors have no ID.
type ActorReferenceValue struct {
	Metadata
	ReferencedActorType string  `json:"referenced_actor_type" validate:"required,oneof=api-token workspace-member system app"`
	ReferencedActorID   *string `json:"referenced_actor_id" validate:"omitempty,uuid"`
}

type RecordReferenceValue struct {
	Metadata
	TargetObject   string `json:"target_object" validate:"required"`
	TargetRecordID string `json:"target_record_id" validate:"required,uuid"`
}

// InteractionValue is written by Attio only.
type InteractionValue struct {
	Metadata
	InteractionType string    `json:"interaction_type" validate:"required,oneof=email calendar-event call meeting"`
	InteractedAt    time.Time `json:"interacted_at"`
	OwnerActor      Actor     `json:"owner_actor"`
}

// OptionID identifies a select option. The API sends either the bare option
// UUID or the composite workspace/object/attribute/option id; the form seen
// on decode is kept for encode.
type OptionID struct {
	WorkspaceID string `json:"workspace_id" validate:"omitempty,uuid"`
	ObjectID    string `json:"object_id" validate:"omitempty,uuid"`
	AttributeID string `json:"attribute_id" validate:"omitempty,uuid"`
	OptionID    string `json:"option_id" validate:"required,uuid"`
	compact     bool
}

func (id *OptionID) UnmarshalJSON(b []byte) error {
	parts, compact, err := decodeCompositeID(b, "option_id")
	if err != nil {
		return err
	}
	*id = OptionID{
		WorkspaceID: parts["workspace_id"],
		ObjectID:    parts["object_id"],
		AttributeID: parts["attribute_id"],
		OptionID:    parts["option_id"],
		compact:     compact,
	}
	return nil
}

func (id OptionID) MarshalJSON() ([]byte, error) {
	return encodeCompositeID(id.compact, "option_id", id.WorkspaceID, id.ObjectID, id.AttributeID, id.OptionID)
}

// StatusID identifies a status, in the same two forms as OptionID.
type StatusID struct {
	WorkspaceID string `json:"workspace_id" validate:"omitempty,uuid"`
	ObjectID    string `json:"object_id" validate:"omitempty,uuid"`
	AttributeID string `json:"attribute_id" validate:"omitempty,uuid"`
	StatusID    string `json:"status_id" validate:"required,uuid"`
	compact     bool
}

func (id *StatusID) UnmarshalJSON(b []byte) error {
	parts, compact, err := decodeCompositeID(b, "status_id")
	if err != nil {
		return err
	}
	*id = StatusID{
		WorkspaceID: parts["workspace_id"],
		ObjectID:    parts["object_id"],
		AttributeID: parts["attribute_id"],
		StatusID:    parts["status_id"],
		compact:     compact,
	}
	return nil
}

func (id StatusID) MarshalJSON() ([]byte, error) {
	return encodeCompositeID(id.compact, "status_id", id.WorkspaceID, id.ObjectID, id.AttributeID, id.StatusID)
}

func decodeCompositeID(b []byte, key string) (map[string]string, bool, error) {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil, false, err
		}
		return map[string]string{key: s}, true, nil
	}
	var parts map[string]string
	if err := json.Unmarshal(b, &parts); err != nil {
		return nil, false, fmt.Errorf("%s: expected a UUID or an id object: %w", key, err)
	}
	return parts, false, nil
}

func encodeCompositeID(compact bool, key, workspace, object, attr, id string) ([]byte, error) {
	if compact {
		return json.Marshal(id)
	}
	return json.Marshal(map[string]string{
		"workspace_id": workspace,
		"object_id":    object,
		"attribute_id": attr,
		key:            id,
	})
}
