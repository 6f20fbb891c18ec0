package registry

import (
	"sort"

	"github.com/artpar/attio/core/attribute"
)

// Standard object names.
const (
	Companies  = attribute.ObjectCompanies
	People     = attribute.ObjectPeople
	Deals      = attribute.ObjectDeals
	Users      = attribute.ObjectUsers
	Workspaces = attribute.ObjectWorkspaces
)

// DefaultDisabled lists the standard objects a workspace admin must activate
// first. They are only resolved when configured explicitly.
var DefaultDisabled = map[string]bool{
	Deals:      true,
	Users:      true,
	Workspaces: true,
}

func socials(fields map[string]attribute.Attribute) map[string]attribute.Attribute {
	for _, name := range []string{"angellist", "facebook", "instagram", "linkedin", "twitter"} {
		fields[name] = attribute.Text
	}
	return fields
}

// Associations with deals, users and workspaces only appear in responses
// when those objects are activated, hence Omittable.
var standardObjects = map[string]func() map[string]attribute.Attribute{
	Companies: func() map[string]attribute.Attribute {
		return socials(map[string]attribute.Attribute{
			"domains":               attribute.Domain.Multiple,
			"name":                  attribute.Text,
			"description":           attribute.Text,
			"team":                  attribute.PersonRecordReference.Multiple,
			"categories":            attribute.Select.Multiple,
			"primary_location":      attribute.Location,
			"associated_deals":      attribute.Omittable(attribute.DealRecordReference.Multiple),
			"associated_workspaces": attribute.Omittable(attribute.WorkspaceRecordReference.Multiple),
		})
	},
	People: func() map[string]attribute.Attribute {
		return socials(map[string]attribute.Attribute{
			"email_addresses":  attribute.EmailAddress.Multiple,
			"name":             attribute.PersonalName,
			"company":          attribute.CompanyRecordReference,
			"description":      attribute.Text,
			"job_title":        attribute.Text,
			"phone_numbers":    attribute.PhoneNumber.Multiple,
			"primary_location": attribute.Location,
			"associated_deals": attribute.Omittable(attribute.DealRecordReference.Multiple),
			"associated_users": attribute.Omittable(attribute.UserRecordReference.Multiple),
		})
	},
	Deals: func() map[string]attribute.Attribute {
		return map[string]attribute.Attribute{
			"name":               attribute.Text,
			"stage":              attribute.Status,
			"owner":              attribute.ActorReference,
			"value":              attribute.Currency,
			"associated_people":  attribute.PersonRecordReference.Multiple,
			"associated_company": attribute.CompanyRecordReference,
		}
	},
	Users: func() map[string]attribute.Attribute {
		return map[string]attribute.Attribute{
			"person":                attribute.PersonRecordReference,
			"primary_email_address": attribute.EmailAddress,
			"user_id":               attribute.Text,
			"workspace":             attribute.WorkspaceRecordReference.Multiple,
		}
	},
	Workspaces: func() map[string]attribute.Attribute {
		return map[string]attribute.Attribute{
			"workspace_id": attribute.Text,
			"name":         attribute.Text,
			"users":        attribute.UserRecordReference.Multiple,
			"company":      attribute.CompanyRecordReference,
			"avatar_url":   attribute.Text,
		}
	},
}

// Standard returns a fresh copy of a standard object's attributes.
func Standard(name string) (map[string]attribute.Attribute, bool) {
	fields, ok := standardObjects[name]
	if !ok {
		return nil, false
	}
	return fields(), true
}

// StandardNames returns the standard object names in sorted order.
func StandardNames() []string {
	names := make([]string, 0, len(standardObjects))
	for name := range standardObjects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
