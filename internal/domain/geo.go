package domain

import (
	"regexp"
	"strings"
)

// DefaultCountryCode is used when an address does not name a country.
const DefaultCountryCode = "US"

// State is a subdivision of a country, such as a US state or Canadian
// province.
type State struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Country describes the address rules for a single country: whether a state
// is required, whether a postal code is required, and the postal code format
// if one is enforced.
type Country struct {
	Code           string  `json:"code"`
	Name           string  `json:"name"`
	StatesRequired bool    `json:"states_required"`
	PostalRequired bool    `json:"postal_required"`
	PostalPattern  string  `json:"postal_pattern,omitempty"`
	States         []State `json:"states,omitempty"`

	postalRe *regexp.Regexp
}

// FindState looks up a state by code or name, case-insensitively. It returns
// false when the country lists no matching state.
func (c Country) FindState(q string) (State, bool) {
	q = strings.TrimSpace(q)
	for _, s := range c.States {
		if strings.EqualFold(s.Code, q) || strings.EqualFold(s.Name, q) {
			return s, true
		}
	}
	return State{}, false
}

// ValidPostalCode reports whether the given postal code matches the country's
// format. Countries without a pattern accept anything non-empty.
func (c Country) ValidPostalCode(code string) bool {
	if c.postalRe == nil {
		return true
	}
	return c.postalRe.MatchString(strings.TrimSpace(code))
}

// Gazetteer holds the countries and states known to the system and answers
// address validation questions about them.
type Gazetteer struct {
	countries map[string]Country
}

// NewGazetteer builds a gazetteer seeded with the countries the storefront
// ships to.
func NewGazetteer() *Gazetteer {
	g := &Gazetteer{countries: make(map[string]Country)}
	for _, c := range seedCountries() {
		if c.PostalPattern != "" {
			c.postalRe = regexp.MustCompile(c.PostalPattern)
		}
		g.countries[c.Code] = c
	}
	return g
}

// Country returns the country with the given ISO 3166-1 alpha-2 code.
func (g *Gazetteer) Country(code string) (Country, bool) {
	c, ok := g.countries[strings.ToUpper(strings.TrimSpace(code))]
	return c, ok
}

// Countries returns all known countries.
func (g *Gazetteer) Countries() []Country {
	out := make([]Country, 0, len(g.countries))
	for _, c := range g.countries {
		out = append(out, c)
	}
	return out
}

func seedCountries() []Country {
	return []Country{
		{
			Code:           "US",
			Name:           "United States",
			StatesRequired: true,
			PostalRequired: true,
			PostalPattern:  `^\d{5}(-\d{4})?$`,
			States: []State{
				{Name: "Alabama", Code: "AL"}, {Name: "Alaska", Code: "AK"},
				{Name: "Arizona", Code: "AZ"}, {Name: "Arkansas", Code: "AR"},
				{Name: "California", Code: "CA"}, {Name: "Colorado", Code: "CO"},
				{Name: "Connecticut", Code: "CT"}, {Name: "Delaware", Code: "DE"},
				{Name: "Florida", Code: "FL"}, {Name: "Georgia", Code: "GA"},
				{Name: "Hawaii", Code: "HI"}, {Name: "Idaho", Code: "ID"},
				{Name: "Illinois", Code: "IL"}, {Name: "Indiana", Code: "IN"},
				{Name: "Iowa", Code: "IA"}, {Name: "Kansas", Code: "KS"},
				{Name: "Kentucky", Code: "KY"}, {Name: "Louisiana", Code: "LA"},
				{Name: "Maine", Code: "ME"}, {Name: "Maryland", Code: "MD"},
				{Name: "Massachusetts", Code: "MA"}, {Name: "Michigan", Code: "MI"},
				{Name: "Minnesota", Code: "MN"}, {Name: "Mississippi", Code: "MS"},
				{Name: "Missouri", Code: "MO"}, {Name: "Montana", Code: "MT"},
				{Name: "Nebraska", Code: "NE"}, {Name: "Nevada", Code: "NV"},
				{Name: "New Hampshire", Code: "NH"}, {Name: "New Jersey", Code: "NJ"},
				{Name: "New Mexico", Code: "NM"}, {Name: "New York", Code: "NY"},
				{Name: "North Carolina", Code: "NC"}, {Name: "North Dakota", Code: "ND"},
				{Name: "Ohio", Code: "OH"}, {Name: "Oklahoma", Code: "OK"},
				{Name: "Oregon", Code: "OR"}, {Name: "Pennsylvania", Code: "PA"},
				{Name: "Rhode Island", Code: "RI"}, {Name: "South Carolina", Code: "SC"},
				{Name: "South Dakota", Code: "SD"}, {Name: "Tennessee", Code: "TN"},
				{Name: "Texas", Code: "TX"}, {Name: "Utah", Code: "UT"},
				{Name: "Vermont", Code: "VT"}, {Name: "Virginia", Code: "VA"},
				{Name: "Washington", Code: "WA"}, {Name: "West Virginia", Code: "WV"},
				{Name: "Wisconsin", Code: "WI"}, {Name: "Wyoming", Code: "WY"},
				{Name: "District of Columbia", Code: "DC"},
			},
		},
		{
			Code:           "CA",
			Name:           "Canada",
			StatesRequired: true,
			PostalRequired: true,
			PostalPattern:  `^[A-Za-z]\d[A-Za-z][ -]?\d[A-Za-z]\d$`,
			States: []State{
				{Name: "Alberta", Code: "AB"}, {Name: "British Columbia", Code: "BC"},
				{Name: "Manitoba", Code: "MB"}, {Name: "New Brunswick", Code: "NB"},
				{Name: "Newfoundland and Labrador", Code: "NL"},
				{Name: "Northwest Territories", Code: "NT"},
				{Name: "Nova Scotia", Code: "NS"}, {Name: "Nunavut", Code: "NU"},
				{Name: "Ontario", Code: "ON"}, {Name: "Prince Edward Island", Code: "PE"},
				{Name: "Quebec", Code: "QC"}, {Name: "Saskatchewan", Code: "SK"},
				{Name: "Yukon", Code: "YT"},
			},
		},
		{
			Code:           "GB",
			Name:           "United Kingdom",
			StatesRequired: false,
			PostalRequired: true,
			PostalPattern:  `^[A-Za-z]{1,2}\d[A-Za-z\d]?\s?\d[A-Za-z]{2}$`,
		},
		{
			Code:           "DE",
			Name:           "Germany",
			StatesRequired: false,
			PostalRequired: true,
			PostalPattern:  `^\d{5}$`,
		},
		{
			Code:           "TR",
			Name:           "Turkey",
			StatesRequired: false,
			PostalRequired: true,
			PostalPattern:  `^\d{5}$`,
		},
		{
			// Hong Kong has no postal codes.
			Code:           "HK",
			Name:           "Hong Kong",
			StatesRequired: false,
			PostalRequired: false,
		},
		{
			// UAE addresses carry no postal codes either.
			Code:           "AE",
			Name:           "United Arab Emirates",
			StatesRequired: false,
			PostalRequired: false,
		},
	}
}
