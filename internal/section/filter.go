package section

import (
	"net/url"
	"strings"
)

const (
	// AttributeKey is the media attribute that records section membership.
	AttributeKey = "tator_user_sections"
	// UnnamedLabel is shown for media whose section attribute is unset.
	UnnamedLabel = "Unnamed Section"

	nullAttribute = "null"
	searchParam   = "search"
)

// Name is a section display name. The zero value is the unnamed section.
type Name struct {
	value string
	named bool
}

func Named(value string) Name {
	return Name{value: value, named: true}
}

func Unnamed() Name {
	return Name{}
}

// ParseName converts the attribute form of a name, where "null" marks the
// unnamed section.
func ParseName(attr string) Name {
	if attr == nullAttribute {
		return Unnamed()
	}
	return Named(attr)
}

func (n Name) IsUnnamed() bool { return !n.named }

// Attribute returns the attribute form accepted by ParseName.
func (n Name) Attribute() string {
	if !n.named {
		return nullAttribute
	}
	return n.value
}

func (n Name) String() string {
	if !n.named {
		return UnnamedLabel
	}
	return n.value
}

// Filter is the server query fragment selecting the media of one section.
type Filter struct {
	key   string
	value string
}

// Derive maps a section name to its filter and human readable label.
func Derive(name Name) (Filter, string) {
	if name.IsUnnamed() {
		return Filter{key: "attribute_null", value: AttributeKey + "::true"}, UnnamedLabel
	}
	return Filter{key: "attribute", value: AttributeKey + "::" + name.value}, name.value
}

func (f Filter) Key() string   { return f.key }
func (f Filter) Value() string { return f.value }
func (f Filter) IsZero() bool  { return f.key == "" }

// Predicate returns the unescaped key=value pair.
func (f Filter) Predicate() string {
	if f.IsZero() {
		return ""
	}
	return f.key + "=" + f.value
}

// Query returns the filter as a query string including the leading '?'.
func (f Filter) Query() string {
	if f.IsZero() {
		return ""
	}
	return "?" + encodePair(f.key, f.value)
}

// NavigationQuery merges the filter with the search parameter of the page the
// section is displayed on. Only "search" is carried over from the page.
func (f Filter) NavigationQuery(pageQuery string) string {
	parts := make([]string, 0, 2)
	if !f.IsZero() {
		parts = append(parts, encodePair(f.key, f.value))
	}
	// ParseQuery skips malformed pairs and still returns the rest.
	page, _ := url.ParseQuery(strings.TrimPrefix(pageQuery, "?"))
	if page.Has(searchParam) {
		parts = append(parts, encodePair(searchParam, page.Get(searchParam)))
	}
	return strings.Join(parts, "&")
}

func (f Filter) String() string { return f.Predicate() }

func encodePair(key, value string) string {
	return queryEscape(key) + "=" + queryEscape(value)
}

// queryEscape leaves ':' readable; the server splits attribute filters on "::".
func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "%3A", ":")
}
