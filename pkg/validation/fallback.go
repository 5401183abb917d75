package validation

import (
	"net/url"
	"sort"
	"strings"
)

// Fallback limits.
const (
	FallbackMinPasswordLength = 8
	FallbackMaxNameLength     = 100
)

// whenPresent applies inner only to non-blank values.
type whenPresent struct {
	inner Constraint
}

func (whenPresent) constraint() {}

func (c whenPresent) Check(field string, value any) string {
	if isBlank(value) {
		return ""
	}
	return c.inner.Check(field, value)
}

// httpURL fails on values that are not absolute http or https URLs.
type httpURL struct{}

func (httpURL) constraint() {}

func (httpURL) Check(field string, value any) string {
	u, err := url.Parse(strings.TrimSpace(stringValue(value)))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return field + " must be a valid http or https URL"
	}
	return ""
}

var email = Pattern{Regexp: emailRegexp, Email: true}

var fallbackRules = map[string]RuleSet{
	"user": {
		EntityType: "user",
		Fields: []FieldRule{
			{Field: "email", Constraints: []Constraint{Required{}, whenPresent{email}}},
			{Field: "password", Constraints: []Constraint{Required{}, whenPresent{MinLength{N: FallbackMinPasswordLength}}}},
			{Field: "name", Constraints: []Constraint{whenPresent{MaxLength{N: FallbackMaxNameLength}}}},
		},
	},
	"login": {
		EntityType: "login",
		Fields: []FieldRule{
			{Field: "email", Constraints: []Constraint{Required{}, whenPresent{email}}},
			{Field: "password", Constraints: []Constraint{Required{}}},
		},
	},
	"corporate-registration": {
		EntityType: "corporate-registration",
		Fields: []FieldRule{
			{Field: "companyName", Constraints: []Constraint{Required{}}},
			{Field: "email", Constraints: []Constraint{Required{}, whenPresent{email}}},
			{Field: "registrationNumber", Constraints: []Constraint{Required{}}},
		},
	},
	"developer-app": {
		EntityType: "developer-app",
		Fields: []FieldRule{
			{Field: "appName", Constraints: []Constraint{Required{}, MaxLength{N: FallbackMaxNameLength}}},
			{Field: "callbackUrl", Constraints: []Constraint{whenPresent{httpURL{}}}},
		},
	},
}

// FallbackValidator applies the built-in rules. It never touches the network.
type FallbackValidator struct{}

// Validate is ValidateFallback.
func (FallbackValidator) Validate(entityType string, candidate any) ([]ValidationError, error) {
	return ValidateFallback(entityType, candidate)
}

// ValidateFallback checks candidate against the built-in rules of entityType.
// Unknown entity types yield no errors and ErrUnknownEntityType.
func ValidateFallback(entityType string, candidate any) ([]ValidationError, error) {
	rs, ok := fallbackRules[entityType]
	if !ok {
		return nil, ErrUnknownEntityType
	}
	return rs.Check(candidate), nil
}

// FallbackEntityTypes lists the entity types with built-in rules.
func FallbackEntityTypes() []string {
	types := make([]string, 0, len(fallbackRules))
	for t := range fallbackRules {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
