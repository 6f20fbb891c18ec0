package attribute

import (
	"fmt"
	"math"
	"strings"
)

// Standard object slugs that record references may target.
const (
	ObjectCompanies  = "companies"
	ObjectPeople     = "people"
	ObjectDeals      = "deals"
	ObjectUsers      = "users"
	ObjectWorkspaces = "workspaces"
)

var (
	Text = Build(Definition{
		Kind:   KindText,
		Input:  textInput,
		Output: outputOf[TextValue](KindText, nil),
	})

	Number = Build(Definition{
		Kind:   KindNumber,
		Input:  numberInput,
		Output: outputOf[NumberValue](KindNumber, nil),
	})

	Currency = Build(Definition{
		Kind:   KindCurrency,
		Input:  currencyInput,
		Output: outputOf[CurrencyValue](KindCurrency, nil),
	})

	// Date holds a calendar date with no timezone.
	Date = Build(Definition{
		Kind:   KindDate,
		Input:  dateInput,
		Output: outputOf[DateValue](KindDate, nil),
	})

	// Timestamp values are always returned in UTC.
	Timestamp = Build(Definition{
		Kind:   KindTimestamp,
		Input:  timestampInput,
		Output: outputOf[TimestampValue](KindTimestamp, nil),
	})

	Checkbox = Build(Definition{
		Kind:   KindCheckbox,
		Input:  checkboxInput,
		Output: outputOf[CheckboxValue](KindCheckbox, nil),
	})

	// Domain stores domains, not URLs; Attio trims paths and query strings.
	Domain = Build(Definition{
		Kind:   KindDomain,
		Input:  domainInput,
		Output: outputOf[DomainValue](KindDomain, nil),
	}, WithMultiple())

	EmailAddress = Build(Definition{
		Kind:   KindEmailAddress,
		Input:  emailInput,
		Output: outputOf[EmailAddressValue](KindEmailAddress, nil),
	}, WithMultiple())

	PhoneNumber = Build(Definition{
		Kind:   KindPhoneNumber,
		Input:  phoneInput,
		Output: outputOf[PhoneNumberValue](KindPhoneNumber, nil),
	}, WithMultiple())

	Location = Build(Definition{
		Kind:   KindLocation,
		Input:  locationInput,
		Output: outputOf[LocationValue](KindLocation, nil),
	})

	PersonalName = Build(Definition{
		Kind:   KindPersonalName,
		Input:  personalNameInput,
		Output: outputOf[PersonalNameValue](KindPersonalName, nil),
	})

	Rating = Build(Definition{
		Kind:   KindRating,
		Input:  ratingInput,
		Output: outputOf[RatingValue](KindRating, checkRating),
	})

	Select = SelectWith()

	Status = Build(Definition{
		Kind:   KindStatus,
		Input:  statusInput,
		Output: outputOf[StatusValue](KindStatus, nil),
	})

	// ActorReference can only be written for workspace members.
	ActorReference = Build(Definition{
		Kind:   KindActorReference,
		Input:  actorReferenceInput,
		Output: outputOf[ActorReferenceValue](KindActorReference, checkActorReference),
	}, WithMultiple())

	// RecordReference points at a record of any object. Without a bound
	// target it only accepts {target_object, target_record_id}.
	RecordReference = RecordReferenceTo("")

	CompanyRecordReference   = RecordReferenceTo(ObjectCompanies)
	PersonRecordReference    = RecordReferenceTo(ObjectPeople)
	DealRecordReference      = RecordReferenceTo(ObjectDeals)
	UserRecordReference      = RecordReferenceTo(ObjectUsers)
	WorkspaceRecordReference = RecordReferenceTo(ObjectWorkspaces)

	// Interaction values are created by Attio and cannot be written.
	Interaction = Build(Definition{
		Kind:   KindInteraction,
		Output: outputOf[InteractionValue](KindInteraction, nil),
	})
)

// RecordReferenceTo returns record references restricted to one object.
// Companies, people, users and workspaces also accept their matching
// attribute (domain, email address, user id, workspace id) in place of the
// record id.
func RecordReferenceTo(object string) Set {
	return Build(Definition{
		Kind:   KindRecordReference,
		Input:  recordReferenceInput(object),
		Output: outputOf[RecordReferenceValue](KindRecordReference, checkTarget(object)),
		Target: object,
	}, WithMultiple())
}

// SelectWith returns select attributes whose input is limited to the given
// option titles. With no options any id or title is accepted.
func SelectWith(options ...string) Set {
	return Build(Definition{
		Kind:    KindSelect,
		Input:   selectInput(options),
		Output:  outputOf[SelectValue](KindSelect, checkOption(options)),
		Options: options,
	}, WithMultiple())
}

// Lookup returns the catalog entry for a kind. Record references and
// selects are returned unrestricted.
func Lookup(kind Kind) (Set, bool) {
	s, ok := byKind[kind]
	return s, ok
}

var byKind = map[Kind]Set{
	KindText:            Text,
	KindNumber:          Number,
	KindCurrency:        Currency,
	KindDate:            Date,
	KindTimestamp:       Timestamp,
	KindCheckbox:        Checkbox,
	KindDomain:          Domain,
	KindEmailAddress:    EmailAddress,
	KindPhoneNumber:     PhoneNumber,
	KindLocation:        Location,
	KindPersonalName:    PersonalName,
	KindRating:          Rating,
	KindSelect:          Select,
	KindStatus:          Status,
	KindActorReference:  ActorReference,
	KindRecordReference: RecordReference,
	KindInteraction:     Interaction,
}

func checkActorReference(v ActorReferenceValue) []Issue {
	if v.ReferencedActorType != ActorSystem && v.ReferencedActorID == nil {
		return []Issue{{Path: "referenced_actor_id", Code: CodeRequired, Message: "required for " + v.ReferencedActorType + " actors"}}
	}
	return nil
}

func checkRating(v RatingValue) []Issue {
	if v.Value != math.Trunc(v.Value) {
		return []Issue{{Path: "value", Code: CodeConstraint, Message: fmt.Sprintf("must be a whole number, got %v", v.Value)}}
	}
	return nil
}

func checkTarget(object string) func(RecordReferenceValue) []Issue {
	if object == "" {
		return nil
	}
	return func(v RecordReferenceValue) []Issue {
		if v.TargetObject != object {
			return []Issue{{Path: "target_object", Code: CodeConstraint, Message: fmt.Sprintf("expected %q, got %q", object, v.TargetObject)}}
		}
		return nil
	}
}

func checkOption(options []string) func(SelectValue) []Issue {
	if len(options) == 0 {
		return nil
	}
	return func(v SelectValue) []Issue {
		for _, o := range options {
			if v.Option.Title == o {
				return nil
			}
		}
		return []Issue{{Path: "option.title", Code: CodeConstraint, Message: fmt.Sprintf("%q is not one of: %s", v.Option.Title, strings.Join(options, ", "))}}
	}
}
