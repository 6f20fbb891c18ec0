package attribute

// Kind is the attribute type. Its value is the wire discriminator carried in
// every returned value's attribute_type field.
type Kind string

const (
	KindText            Kind = "text"
	KindNumber          Kind = "number"
	KindCurrency        Kind = "currency"
	KindDate            Kind = "date"
	KindTimestamp       Kind = "timestamp"
	KindCheckbox        Kind = "checkbox"
	KindDomain          Kind = "domain"
	KindEmailAddress    Kind = "email-address"
	KindPhoneNumber     Kind = "phone-number"
	KindLocation        Kind = "location"
	KindPersonalName    Kind = "personal-name"
	KindRating          Kind = "rating"
	KindSelect          Kind = "select"
	KindStatus          Kind = "status"
	KindActorReference  Kind = "actor-reference"
	KindRecordReference Kind = "record-reference"
	KindInteraction     Kind = "interaction"
)

// Kinds lists the catalog in declaration order.
var Kinds = []Kind{
	KindText, KindNumber, KindCurrency, KindDate, KindTimestamp, KindCheckbox,
	KindDomain, KindEmailAddress, KindPhoneNumber, KindLocation, KindPersonalName,
	KindRating, KindSelect, KindStatus, KindActorReference, KindRecordReference,
	KindInteraction,
}

// IsValid reports whether k is in the catalog.
func (k Kind) IsValid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Access is the write policy of an attribute variation.
type Access int

const (
	Optional Access = iota
	Required
	ReadOnly
)

func (a Access) String() string {
	switch a {
	case Required:
		return "required"
	case ReadOnly:
		return "read-only"
	default:
		return "optional"
	}
}

// Cardinality is the number of values a variation holds.
type Cardinality int

const (
	Single Cardinality = iota
	Many
)

func (c Cardinality) String() string {
	if c == Many {
		return "multiple"
	}
	return "single"
}

// Descriptor is the structural identity of an attribute variation. Two
// variations with equal descriptors decode and encode the same values.
type Descriptor struct {
	Kind        Kind
	Access      Access
	Cardinality Cardinality
	MayBeAbsent bool
	Target      string
	Options     string
}
