package validation

import (
	"regexp"
	"testing"
)

func TestConstraints(t *testing.T) {
	tests := []struct {
		name       string
		constraint Constraint
		value      any
		wantFail   bool
	}{
		{"required missing", Required{}, nil, true},
		{"required blank", Required{}, "   ", true},
		{"required empty list", Required{}, []any{}, true},
		{"required zero number", Required{}, float64(0), false},
		{"required present", Required{}, "x", false},
		{"min length short", MinLength{N: 3}, "ab", true},
		{"min length absent", MinLength{N: 1}, nil, true},
		{"min length runes", MinLength{N: 3}, "héé", false},
		{"max length long", MaxLength{N: 2}, "abc", true},
		{"max length ok", MaxLength{N: 3}, "abc", false},
		{"pattern mismatch", Pattern{Regexp: regexp.MustCompile(`^\d+$`)}, "12a", true},
		{"pattern match", Pattern{Regexp: regexp.MustCompile(`^\d+$`)}, float64(123), false},
		{"email bad", Pattern{Regexp: emailRegexp, Email: true}, "bad", true},
		{"email ok", Pattern{Regexp: emailRegexp, Email: true}, "a@b.com", false},
		{"number text", IsNumber{}, "abc", true},
		{"number numeric string", IsNumber{}, " 42 ", false},
		{"number absent", IsNumber{}, nil, false},
		{"number bool", IsNumber{}, true, true},
		{"min below", Min{Bound: 18}, float64(17), true},
		{"min absent is zero", Min{Bound: 1}, nil, true},
		{"min string", Min{Bound: 18}, "21", false},
		{"min non numeric skipped", Min{Bound: 18}, "abc", false},
		{"max above", Max{Bound: 10}, 11, true},
		{"max ok", Max{Bound: 10}, int64(10), false},
		{"one of miss", OneOf{Values: []string{"a", "b"}}, "c", true},
		{"one of absent", OneOf{Values: []string{"a"}}, nil, true},
		{"one of number", OneOf{Values: []string{"1", "2"}}, float64(2), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.constraint.Check("field", tt.value)
			if (msg != "") != tt.wantFail {
				t.Fatalf("Check(%v) = %q, wantFail %v", tt.value, msg, tt.wantFail)
			}
		})
	}
}

func TestConstraintMessages(t *testing.T) {
	tests := []struct {
		constraint Constraint
		value      any
		want       string
	}{
		{Required{}, "", "companyName is required"},
		{Required{Message: "Company name is mandatory"}, "", "Company name is mandatory"},
		{MinLength{N: 8}, "1", "companyName must be at least 8 characters"},
		{MaxLength{N: 2}, "abc", "companyName must be at most 2 characters"},
		{Pattern{Regexp: emailRegexp, Email: true}, "x", "companyName must be a valid email address"},
		{Pattern{Regexp: regexp.MustCompile(`^a`)}, "b", "companyName has an invalid format"},
		{Min{Bound: 1.5}, 1, "companyName must be at least 1.5"},
		{Max{Bound: 100}, 101, "companyName must be at most 100"},
		{OneOf{Values: []string{"sme", "corporate"}}, "x", "companyName must be one of: sme, corporate"},
	}
	for _, tt := range tests {
		if got := tt.constraint.Check("companyName", tt.value); got != tt.want {
			t.Fatalf("got %q, want %q", got, tt.want)
		}
	}
}

func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }

func TestDescriptorCompile(t *testing.T) {
	tests := []struct {
		name    string
		d       Descriptor
		want    int
		wantErr bool
	}{
		{"empty", Descriptor{}, 0, false},
		{"required", Descriptor{Required: true}, 1, false},
		{"string bounds", Descriptor{MinLength: intPtr(2), MaxLength: intPtr(10), Pattern: `^[a-z]+$`}, 3, false},
		{"email shorthand", Descriptor{Type: "email", Required: true}, 2, false},
		{"email with pattern", Descriptor{Type: "email", Pattern: `@corp\.com$`}, 1, false},
		{"number type", Descriptor{Type: "number", Min: floatPtr(0), Max: floatPtr(5)}, 3, false},
		{"enum", Descriptor{Enum: []any{"a", "b"}}, 1, false},
		{"values alias", Descriptor{Values: []any{"a"}}, 1, false},
		{"invalid pattern keeps others", Descriptor{Required: true, Pattern: "([a-z"}, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.d.Compile()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != tt.want {
				t.Fatalf("got %d constraints, want %d", len(got), tt.want)
			}
		})
	}
}
