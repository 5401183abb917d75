package validation

import (
	"bytes"
	"testing"

	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/observability/logger"
)

const corporateRules = `{
  "corporate-registration": {
    "companyName": {"required": true, "maxLength": 120},
    "email": {"required": true, "type": "email"},
    "employees": {"type": "number", "min": 1},
    "segment": {"enum": ["sme", "corporate"]},
    "notes": {"unknownKey": true},
    "registrationNumber": {"required": true, "pattern": "([0-9"},
    "broken": {"minLength": "five"}
  },
  "user": {"email": {"required": true}}
}`

func TestParseRuleSet_KeepsDeclarationOrder(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.NewZapLogger(logger.Config{Level: logger.DebugLevel, Format: logger.JSONFormat, Output: &buf})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	rs, err := ParseRuleSet("corporate-registration", []byte(corporateRules), log)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	want := []string{"companyName", "email", "employees", "segment", "registrationNumber"}
	if len(rs.Fields) != len(want) {
		t.Fatalf("got %d fields, want %d: %+v", len(rs.Fields), len(want), rs.Fields)
	}
	for i, f := range rs.Fields {
		if f.Field != want[i] {
			t.Fatalf("field %d = %s, want %s", i, f.Field, want[i])
		}
	}
	if n := len(rs.Fields[4].Constraints); n != 1 {
		t.Fatalf("invalid pattern must leave only required, got %d constraints", n)
	}
	if !bytes.Contains(buf.Bytes(), []byte("dropping invalid constraint")) {
		t.Fatalf("expected invalid pattern logged, got %s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("skipping malformed constraint descriptor")) {
		t.Fatalf("expected malformed descriptor logged, got %s", buf.String())
	}
}

func TestParseRuleSet_MissingEntity(t *testing.T) {
	rs, err := ParseRuleSet("developer-app", []byte(corporateRules), nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !rs.Empty() {
		t.Fatalf("expected empty rule set, got %+v", rs)
	}
}

func TestParseRuleSet_Malformed(t *testing.T) {
	for _, payload := range []string{``, `[]`, `"rules"`, `{"user": null}`, `{"user": [1,2]}`, `{"user": {"email": `} {
		if _, err := ParseRuleSet("user", []byte(payload), nil); err == nil {
			t.Fatalf("expected error for %q", payload)
		}
	}
}

func TestRuleSet_Check(t *testing.T) {
	rs, err := ParseRuleSet("corporate-registration", []byte(corporateRules), nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	errs := rs.Check(map[string]any{
		"companyName":        "",
		"email":              "not-an-email",
		"employees":          float64(0),
		"segment":            "retail",
		"registrationNumber": "RC-1",
		"ignored":            "no rule for this field",
	})

	want := []ValidationError{
		{Field: "companyName", Message: "companyName is required"},
		{Field: "email", Message: "email must be a valid email address"},
		{Field: "employees", Message: "employees must be at least 1"},
		{Field: "segment", Message: "segment must be one of: sme, corporate"},
	}
	if len(errs) != len(want) {
		t.Fatalf("got %d errors, want %d: %+v", len(errs), len(want), errs)
	}
	for i := range want {
		if errs[i] != want[i] {
			t.Fatalf("error %d = %+v, want %+v", i, errs[i], want[i])
		}
	}
}

type registration struct {
	CompanyName string `json:"companyName"`
	Email       string `json:"email"`
	Employees   int    `json:"employees"`
}

func TestRuleSet_CheckCandidateShapes(t *testing.T) {
	rs := NewRuleSet("x", []string{"companyName", "employees"}, map[string]Descriptor{
		"companyName": {Required: true},
		"employees":   {Min: floatPtr(1)},
	})

	tests := []struct {
		name      string
		candidate any
		want      int
	}{
		{"nil", nil, 1},
		{"nil map", map[string]any(nil), 1},
		{"string", "not an object", 1},
		{"slice", []int{1, 2}, 1},
		{"struct", registration{CompanyName: "Acme", Employees: 3}, 0},
		{"struct pointer", &registration{Employees: 0}, 2},
		{"raw json", []byte(`{"companyName":"Acme","employees":5}`), 0},
		{"string map", map[string]string{"companyName": "Acme", "employees": "0"}, 1},
		{"non string keys", map[int]string{1: "x"}, 1},
		{"raw json array", []byte(`[1,2]`), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rs.Check(tt.candidate); len(got) != tt.want {
				t.Fatalf("got %d errors %+v, want %d", len(got), got, tt.want)
			}
		})
	}
}

func TestRuleSet_CheckNilCandidateOnlyFailsRequired(t *testing.T) {
	rs := NewRuleSet("corporate-registration", []string{"companyName", "nickname", "tier"}, map[string]Descriptor{
		"companyName": {Required: true},
		"nickname":    {MinLength: intPtr(3), Pattern: "^[a-z]+$"},
		"tier":        {Enum: []any{"gold", "silver"}},
	})

	errs := rs.Check(nil)
	if len(errs) != 1 {
		t.Fatalf("got %d errors %+v, want 1", len(errs), errs)
	}
	if errs[0].Field != "companyName" || errs[0].Message != "companyName is required" {
		t.Fatalf("unexpected error %+v", errs[0])
	}

	// An empty object still runs every constraint on the absent fields.
	if got := rs.Check(map[string]any{}); len(got) != 4 {
		t.Fatalf("empty object: got %d errors %+v, want 4", len(got), got)
	}
}
