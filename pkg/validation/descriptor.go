package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// Descriptor is the wire form of one field's constraints as served by the config service.
type Descriptor struct {
	Required  bool     `json:"required,omitempty"`
	Type      string   `json:"type,omitempty"`
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Enum      []any    `json:"enum,omitempty"`
	Values    []any    `json:"values,omitempty"`
	Message   string   `json:"message,omitempty"`
}

// Descriptor types with a meaning of their own.
const (
	TypeString = "string"
	TypeNumber = "number"
	TypeEmail  = "email"
	TypeEnum   = "enum"
)

// Compile turns the descriptor into constraints in a fixed order: required, string,
// number, enum. An invalid pattern drops only the pattern check and is reported in err
// alongside the remaining constraints.
func (d Descriptor) Compile() (constraints []Constraint, err error) {
	if d.Required {
		constraints = append(constraints, Required{Message: d.Message})
	}

	kind := strings.ToLower(strings.TrimSpace(d.Type))
	if d.MinLength != nil {
		constraints = append(constraints, MinLength{N: *d.MinLength, Message: d.Message})
	}
	if d.MaxLength != nil {
		constraints = append(constraints, MaxLength{N: *d.MaxLength, Message: d.Message})
	}
	switch {
	case d.Pattern != "":
		re, compileErr := regexp.Compile(d.Pattern)
		if compileErr != nil {
			err = fmt.Errorf("invalid pattern %q: %w", d.Pattern, compileErr)
		} else {
			constraints = append(constraints, Pattern{Regexp: re, Email: kind == TypeEmail, Message: d.Message})
		}
	case kind == TypeEmail:
		constraints = append(constraints, Pattern{Regexp: emailRegexp, Email: true, Message: d.Message})
	}

	if kind == TypeNumber {
		constraints = append(constraints, IsNumber{Message: d.Message})
	}
	if d.Min != nil {
		constraints = append(constraints, Min{Bound: *d.Min, Message: d.Message})
	}
	if d.Max != nil {
		constraints = append(constraints, Max{Bound: *d.Max, Message: d.Message})
	}

	values := d.Enum
	if len(values) == 0 {
		values = d.Values
	}
	if len(values) > 0 {
		allowed := make([]string, 0, len(values))
		for _, v := range values {
			allowed = append(allowed, stringValue(v))
		}
		constraints = append(constraints, OneOf{Values: allowed, Message: d.Message})
	}
	return constraints, err
}
