package domain

import (
	"strings"
	"time"
)

// Address is a shipping or billing address. Two addresses with the same
// field values are the same address regardless of their IDs or timestamps;
// the address book relies on that to avoid storing duplicates. Stored
// addresses are never updated in place, only replaced.
type Address struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Company      string    `json:"company,omitempty"`
	AddressLine1 string    `json:"address_line1"`
	AddressLine2 string    `json:"address_line2,omitempty"`
	City         string    `json:"city"`
	StateCode    string    `json:"state_code,omitempty"`
	StateName    string    `json:"state_name,omitempty"`
	PostalCode   string    `json:"postal_code,omitempty"`
	CountryCode  string    `json:"country_code"`
	Phone        string    `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Equal reports whether two addresses have the same values. ID and CreatedAt
// are identity metadata, not part of the value, and are ignored.
func (a Address) Equal(b Address) bool {
	return a.FirstName == b.FirstName &&
		a.LastName == b.LastName &&
		a.Company == b.Company &&
		a.AddressLine1 == b.AddressLine1 &&
		a.AddressLine2 == b.AddressLine2 &&
		a.City == b.City &&
		a.StateCode == b.StateCode &&
		a.StateName == b.StateName &&
		a.PostalCode == b.PostalCode &&
		a.CountryCode == b.CountryCode &&
		a.Phone == b.Phone
}

// Empty reports whether every value field except the country is blank.
func (a Address) Empty() bool {
	return a.FirstName == "" && a.LastName == "" && a.Company == "" &&
		a.AddressLine1 == "" && a.AddressLine2 == "" && a.City == "" &&
		a.StateCode == "" && a.StateName == "" && a.PostalCode == "" &&
		a.Phone == ""
}

// FullName returns the first and last name joined, trimmed of extra spaces.
func (a Address) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// StateText returns the state code if present, otherwise the free-text
// state name.
func (a Address) StateText() string {
	if a.StateCode != "" {
		return a.StateCode
	}
	return a.StateName
}

// WithDefaultCountry returns the address with the default country filled in
// when none was given.
func (a Address) WithDefaultCountry() Address {
	if a.CountryCode == "" {
		a.CountryCode = DefaultCountryCode
	}
	return a
}

// Validate checks the address against the gazetteer's country rules and
// returns the field-level problems found. An empty slice means the address
// is valid.
func (a Address) Validate(gz *Gazetteer) []FieldIssue {
	var issues []FieldIssue

	require := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			issues = append(issues, FieldIssue{Field: field, Message: "is required"})
		}
	}

	require("first_name", a.FirstName)
	require("last_name", a.LastName)
	require("address_line1", a.AddressLine1)
	require("city", a.City)
	require("country_code", a.CountryCode)

	if a.CountryCode == "" {
		return issues
	}

	country, ok := gz.Country(a.CountryCode)
	if !ok {
		issues = append(issues, FieldIssue{Field: "country_code", Message: "is not a known country"})
		return issues
	}

	if country.StatesRequired {
		switch {
		case a.StateCode != "":
			if _, found := country.FindState(a.StateCode); !found {
				issues = append(issues, FieldIssue{Field: "state_code", Message: "is not a state of " + country.Name})
			}
		case a.StateName != "":
			if _, found := country.FindState(a.StateName); !found {
				issues = append(issues, FieldIssue{Field: "state_name", Message: "is not a state of " + country.Name})
			}
		default:
			issues = append(issues, FieldIssue{Field: "state_code", Message: "is required"})
		}
	}

	if country.PostalRequired {
		if strings.TrimSpace(a.PostalCode) == "" {
			issues = append(issues, FieldIssue{Field: "postal_code", Message: "is required"})
		} else if !country.ValidPostalCode(a.PostalCode) {
			issues = append(issues, FieldIssue{Field: "postal_code", Message: "is not a valid postal code for " + country.Name})
		}
	}

	return issues
}

// Normalize resolves a free-text state name to its code when the country
// lists a matching state, mirroring how checkout forms submit either one.
func (a Address) Normalize(gz *Gazetteer) Address {
	a = a.WithDefaultCountry()
	a.CountryCode = strings.ToUpper(strings.TrimSpace(a.CountryCode))

	country, ok := gz.Country(a.CountryCode)
	if !ok {
		return a
	}

	if a.StateCode != "" {
		if s, found := country.FindState(a.StateCode); found {
			a.StateCode = s.Code
			a.StateName = ""
		}
	} else if a.StateName != "" {
		if s, found := country.FindState(a.StateName); found {
			a.StateCode = s.Code
			a.StateName = ""
		}
	}

	return a
}

// FieldIssue describes a single field-level validation problem.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (i FieldIssue) String() string {
	return i.Field + " " + i.Message
}
