package validation

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

// EmailPattern is the address shape accepted by email constraints.
const EmailPattern = `^[^\s@]+@[^\s@]+\.[^\s@]+$`

var emailRegexp = regexp.MustCompile(EmailPattern)

// Constraint is one check on one field. The set of implementations is closed.
type Constraint interface {
	// Check returns the failure message for value, or "" when value satisfies the constraint.
	Check(field string, value any) string
	constraint()
}

// Required fails on absent values, blank strings and empty collections.
type Required struct {
	Message string
}

// MinLength fails when the string form of the value has fewer than N characters.
type MinLength struct {
	N       int
	Message string
}

// MaxLength fails when the string form of the value has more than N characters.
type MaxLength struct {
	N       int
	Message string
}

// Pattern fails when the string form of the value does not match Regexp.
type Pattern struct {
	Regexp *regexp.Regexp
	// Email selects the address wording for the generated message.
	Email   bool
	Message string
}

// IsNumber fails when a present value is not numeric.
type IsNumber struct {
	Message string
}

// Min fails when the numeric value is below Bound. Non-numeric values are left to IsNumber.
type Min struct {
	Bound   float64
	Message string
}

// Max fails when the numeric value is above Bound.
type Max struct {
	Bound   float64
	Message string
}

// OneOf fails when the string form of the value is not one of Values.
type OneOf struct {
	Values  []string
	Message string
}

func (Required) constraint()  {}
func (MinLength) constraint() {}
func (MaxLength) constraint() {}
func (Pattern) constraint()   {}
func (IsNumber) constraint()  {}
func (Min) constraint()       {}
func (Max) constraint()       {}
func (OneOf) constraint()     {}

func (c Required) Check(field string, value any) string {
	if isBlank(value) {
		return messageOr(c.Message, "%s is required", field)
	}
	return ""
}

func (c MinLength) Check(field string, value any) string {
	if utf8.RuneCountInString(stringValue(value)) < c.N {
		return messageOr(c.Message, "%s must be at least %d characters", field, c.N)
	}
	return ""
}

func (c MaxLength) Check(field string, value any) string {
	if utf8.RuneCountInString(stringValue(value)) > c.N {
		return messageOr(c.Message, "%s must be at most %d characters", field, c.N)
	}
	return ""
}

func (c Pattern) Check(field string, value any) string {
	if c.Regexp == nil || c.Regexp.MatchString(stringValue(value)) {
		return ""
	}
	if c.Email {
		return messageOr(c.Message, "%s must be a valid email address", field)
	}
	return messageOr(c.Message, "%s has an invalid format", field)
}

func (c IsNumber) Check(field string, value any) string {
	if _, ok := numberValue(value); !ok {
		return messageOr(c.Message, "%s must be a number", field)
	}
	return ""
}

func (c Min) Check(field string, value any) string {
	if n, ok := numberValue(value); ok && n < c.Bound {
		return messageOr(c.Message, "%s must be at least %s", field, formatNumber(c.Bound))
	}
	return ""
}

func (c Max) Check(field string, value any) string {
	if n, ok := numberValue(value); ok && n > c.Bound {
		return messageOr(c.Message, "%s must be at most %s", field, formatNumber(c.Bound))
	}
	return ""
}

func (c OneOf) Check(field string, value any) string {
	s := stringValue(value)
	for _, allowed := range c.Values {
		if s == allowed {
			return ""
		}
	}
	return messageOr(c.Message, "%s must be one of: %s", field, strings.Join(c.Values, ", "))
}

func messageOr(custom, format string, args ...any) string {
	if custom != "" {
		return custom
	}
	return fmt.Sprintf(format, args...)
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
