package dynconfig

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/observability/logger"
)

func TestMergeMaps(t *testing.T) {
	def := map[string]any{
		"title":   "Sign in",
		"retries": float64(3),
		"enabled": true,
		"tags":    []any{"a", "b"},
		"theme": map[string]any{
			"color": "#000",
			"font":  "Inter",
			"nested": map[string]any{
				"x": float64(1),
				"y": float64(2),
			},
		},
		"optional": nil,
	}
	override := map[string]any{
		"title":   "Log in",
		"retries": "five",
		"enabled": nil,
		"tags":    []any{"c"},
		"theme": map[string]any{
			"color":  "#fff",
			"nested": map[string]any{"x": float64(9)},
			"extra":  "kept",
		},
		"optional": "now set",
		"unknown":  float64(7),
	}

	got := MergeMaps(def, override)
	want := map[string]any{
		"title":   "Log in",
		"retries": float64(3),
		"enabled": true,
		"tags":    []any{"c"},
		"theme": map[string]any{
			"color":  "#fff",
			"font":   "Inter",
			"nested": map[string]any{"x": float64(9)},
			"extra":  "kept",
		},
		"optional": "now set",
		"unknown":  float64(7),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("merge mismatch\n got: %#v\nwant: %#v", got, want)
	}

	got["theme"].(map[string]any)["font"] = "changed"
	if def["theme"].(map[string]any)["font"] != "Inter" {
		t.Fatal("merge result must not alias the default")
	}
}

func TestMergeMaps_ObjectReplacedByScalarKeepsDefault(t *testing.T) {
	def := map[string]any{"theme": map[string]any{"color": "#000"}}
	got := MergeMaps(def, map[string]any{"theme": "dark"})
	if !reflect.DeepEqual(got, def) {
		t.Fatalf("expected default kept, got %#v", got)
	}
}

func TestCamelCase(t *testing.T) {
	tests := map[string]string{
		"default_timeout":       "defaultTimeout",
		"max-name-length":       "maxNameLength",
		"api":                   "api",
		"maxPageSize":           "maxPageSize",
		"Session_TTL_minutes":   "sessionTTLMinutes",
		"_leading":              "leading",
		"rate_limit_per_minute": "rateLimitPerMinute",
	}
	for in, want := range tests {
		if got := camelCase(in); got != want {
			t.Fatalf("camelCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		def, in any
		want    any
		ok      bool
	}{
		{float64(1), "5000", float64(5000), true},
		{float64(1), " 2.5 ", 2.5, true},
		{float64(1), "abc", nil, false},
		{float64(1), true, nil, false},
		{true, "false", false, true},
		{true, "maybe", nil, false},
		{"x", float64(3), "3", true},
		{"x", true, "true", true},
		{nil, "anything", "anything", true},
		{float64(1), nil, nil, false},
	}
	for _, tt := range tests {
		got, ok := coerce(tt.def, tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Fatalf("coerce(%v, %v) = %v, %v; want %v, %v", tt.def, tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSystemOverride(t *testing.T) {
	m := NewMerger(false, nil)
	def, err := toMap(DefaultSystemConfig())
	if err != nil {
		t.Fatalf("to map: %v", err)
	}

	rows := []any{
		map[string]any{"module": "api", "setting": "default_timeout", "value": "5000"},
		map[string]any{"module": "pagination", "setting": "max_page_size", "value": float64(50)},
		map[string]any{"module": "api", "setting": "max_retries", "value": "many"},
		map[string]any{"module": "billing", "setting": "currency", "value": "INR"},
		map[string]any{"module": "sandbox", "setting": "unknown_knob", "value": "1"},
		"not a row",
	}
	got := m.systemOverride(def, rows)
	want := map[string]any{
		"api":        map[string]any{"defaultTimeout": float64(5000)},
		"pagination": map[string]any{"maxPageSize": float64(50)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}

	obj := map[string]any{"api": map[string]any{"maxRetries": float64(1)}}
	if got := m.systemOverride(def, obj); !reflect.DeepEqual(got, obj) {
		t.Fatalf("object payload must pass through, got %#v", got)
	}
}

func TestMergeRecord(t *testing.T) {
	got, dropped, err := mergeRecord(DefaultSystemConfig(), map[string]any{
		"api": map[string]any{"defaultTimeout": float64(5000)},
	})
	if err != nil || dropped != nil {
		t.Fatalf("merge: %v, dropped %v", err, dropped)
	}
	if got.API.DefaultTimeout != 5000 || got.API.MaxRetries != 3 || got.Validation.MaxNameLength != 100 {
		t.Fatalf("unexpected merge %+v", got)
	}

	def := DefaultUIConfig()
	if got, _, err := mergeRecord(def, []any{"x"}); err == nil || !reflect.DeepEqual(got, def) {
		t.Fatalf("non-object override must keep default, got %+v, %v", got, err)
	}
}

func TestMergeRecord_KeepsKeysBesideUndecodableOne(t *testing.T) {
	def := DefaultUIConfig()
	got, dropped, err := mergeRecord(def, map[string]any{
		"theme":      map[string]any{"primaryColor": "#123456"},
		"navigation": []any{"oops"},
	})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if !reflect.DeepEqual(dropped, []string{"navigation"}) {
		t.Fatalf("dropped = %v, want [navigation]", dropped)
	}
	if got.Theme.PrimaryColor != "#123456" {
		t.Fatalf("valid theme override lost: %+v", got.Theme)
	}
	if !reflect.DeepEqual(got.Navigation, def.Navigation) {
		t.Fatalf("malformed navigation must keep the default, got %+v", got.Navigation)
	}
}

func TestMergeKeyed(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.NewZapLogger(logger.Config{Level: logger.DebugLevel, Format: logger.JSONFormat, Output: &buf})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	defs := DefaultCategoryStyles()
	override := []any{
		map[string]any{"category": "payments", "color": "#123456"},
		map[string]any{"category": "crypto", "color": "#ffffff"},
		"garbage",
		map[string]any{"category": "payments", "icon": "zap"},
	}

	got := mergeKeyed(NewMerger(false, log), "category-style", defs, categoryStyleKey, override)
	if len(got) != len(defs) {
		t.Fatalf("expected %d buckets, got %d", len(defs), len(got))
	}
	for i := range defs {
		if got[i].Category != defs[i].Category {
			t.Fatalf("bucket order changed at %d: %s", i, got[i].Category)
		}
	}
	payments := got[1]
	if payments.Color != "#123456" || payments.Icon != "zap" || payments.BadgeVariant != "success" {
		t.Fatalf("unexpected payments bucket %+v", payments)
	}
	if !reflect.DeepEqual(got[0], defs[0]) {
		t.Fatalf("untouched bucket changed: %+v", got[0])
	}
	if !strings.Contains(buf.String(), "dropping override record with no matching default") {
		t.Fatalf("expected dropped record logged, got %s", buf.String())
	}

	kept := mergeKeyed(NewMerger(true, nil), "category-style", defs, categoryStyleKey, override)
	if len(kept) != len(defs)+1 {
		t.Fatalf("expected unmatched record appended, got %d buckets", len(kept))
	}
	if last := kept[len(kept)-1]; last.Category != "crypto" || last.Color != "#ffffff" || last.Icon != "" {
		t.Fatalf("unexpected appended record %+v", last)
	}
}

func TestMergeKeyed_SingleObject(t *testing.T) {
	got := mergeKeyed(NewMerger(false, nil), "form", DefaultFormConfigs(), formKey, map[string]any{
		"formType": "login",
		"title":    "Welcome back",
	})
	for _, f := range got {
		if f.FormType == "login" && f.Title != "Welcome back" {
			t.Fatalf("expected login title overridden, got %q", f.Title)
		}
	}
}

func TestMergeKeyed_ValidationRules(t *testing.T) {
	got := mergeKeyed(NewMerger(false, nil), "validation", DefaultValidationConfigs(), validationKey, []any{
		map[string]any{
			"entityType": "user",
			"rules": map[string]any{
				"password": map[string]any{"required": true, "minLength": float64(12)},
				"phone":    map[string]any{"pattern": "^\\+?[0-9]+$"},
			},
			"strict": true,
		},
	})
	user := got[0]
	if user.EntityType != "user" || !user.Strict {
		t.Fatalf("unexpected user config %+v", user)
	}
	if user.Rules["password"].MinLength == nil || *user.Rules["password"].MinLength != 12 {
		t.Fatalf("expected password minLength 12, got %+v", user.Rules["password"])
	}
	if !user.Rules["email"].Required {
		t.Fatal("expected default email rule kept")
	}
	if user.Rules["phone"].Pattern == "" {
		t.Fatal("expected new phone rule added")
	}
}
