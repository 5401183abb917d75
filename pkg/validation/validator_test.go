package validation

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/configcache"
	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/configsource"
	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/observability/metrics"
	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/testutil"
)

type fakeSource struct {
	payload json.RawMessage
	err     error
	calls   atomic.Int32
	last    atomic.Value
}

func (s *fakeSource) Fetch(_ context.Context, req configsource.Request) (json.RawMessage, error) {
	s.calls.Add(1)
	s.last.Store(req)
	if s.err != nil {
		return nil, s.err
	}
	return s.payload, nil
}

func newRuleResolver(t *testing.T, src configsource.Source) *RuleResolver {
	t.Helper()
	cache := configcache.New[json.RawMessage](configcache.NewMemoryStore[json.RawMessage](), configcache.Options{
		Clock: testutil.NewFakeClock(time.Unix(0, 0)),
	})
	t.Cleanup(func() { _ = cache.Close() })
	return NewRuleResolver(src, cache, configcache.DefaultPolicy(), nil)
}

func TestRuleResolver_FetchesAndCaches(t *testing.T) {
	src := &fakeSource{payload: json.RawMessage(`{"user":{"email":{"required":true}}}`)}
	r := newRuleResolver(t, src)

	for i := 0; i < 3; i++ {
		rs := r.ResolveRules(context.Background(), "user", "sandbox")
		if len(rs.Fields) != 1 || rs.Fields[0].Field != "email" {
			t.Fatalf("unexpected rule set %+v", rs)
		}
	}
	if src.calls.Load() != 1 {
		t.Fatalf("expected 1 fetch, got %d", src.calls.Load())
	}
	req := src.last.Load().(configsource.Request)
	if req.Domain != configsource.DomainValidationRules || req.Selector != "user" || req.Environment != "sandbox" {
		t.Fatalf("unexpected request %+v", req)
	}

	if err := r.Invalidate(context.Background(), "user", "sandbox"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	r.ResolveRules(context.Background(), "user", "sandbox")
	if src.calls.Load() != 2 {
		t.Fatalf("expected refetch after invalidation, got %d", src.calls.Load())
	}
}

func TestRuleResolver_FailuresYieldEmptySet(t *testing.T) {
	tests := []struct {
		name string
		src  *fakeSource
	}{
		{"network", &fakeSource{err: &configsource.NetworkError{Domain: configsource.DomainValidationRules, Status: 503}}},
		{"no data", &fakeSource{err: configsource.ErrNoData}},
		{"malformed", &fakeSource{payload: json.RawMessage(`["not","rules"]`)}},
		{"other entity", &fakeSource{payload: json.RawMessage(`{"login":{"email":{"required":true}}}`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := newRuleResolver(t, tt.src).ResolveRules(context.Background(), "user", "sandbox")
			if !rs.Empty() || rs.EntityType != "user" {
				t.Fatalf("expected empty rule set, got %+v", rs)
			}
		})
	}
}

func TestDynamicValidator_CorporateRegistration(t *testing.T) {
	src := &fakeSource{payload: json.RawMessage(`{"corporate-registration":{"companyName":{"required":true}}}`)}
	v := NewDynamicValidator(newRuleResolver(t, src))

	errs, err := v.Validate(context.Background(), "corporate-registration", map[string]any{
		"companyName": "",
		"email":       "a@b.com",
	}, "all")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(errs) != 1 || errs[0].Field != "companyName" {
		t.Fatalf("expected exactly one companyName error, got %+v", errs)
	}
}

func TestDynamicValidator_RulesUnavailable(t *testing.T) {
	v := NewDynamicValidator(newRuleResolver(t, &fakeSource{err: configsource.ErrNoData}))
	errs, err := v.Validate(context.Background(), "user", map[string]any{}, "sandbox")
	if !errors.Is(err, ErrRulesUnavailable) || errs != nil {
		t.Fatalf("expected ErrRulesUnavailable, got %v %+v", err, errs)
	}
}

func TestValidateFallback_User(t *testing.T) {
	errs, err := ValidateFallback("user", map[string]any{"email": "bad", "password": "1"})
	if err != nil {
		t.Fatalf("fallback: %v", err)
	}
	fields := map[string]bool{}
	for _, e := range errs {
		fields[e.Field] = true
	}
	if len(errs) != 2 || !fields["email"] || !fields["password"] {
		t.Fatalf("expected email and password errors, got %+v", errs)
	}
}

func TestValidateFallback_Table(t *testing.T) {
	long := make([]byte, FallbackMaxNameLength+1)
	for i := range long {
		long[i] = 'a'
	}

	tests := []struct {
		entityType string
		candidate  any
		want       []string
	}{
		{"user", map[string]any{"email": "a@b.com", "password": "longenough"}, nil},
		{"user", nil, []string{"email", "password"}},
		{"user", map[string]any{"email": "a@b.com", "password": "longenough", "name": string(long)}, []string{"name"}},
		{"login", map[string]any{"email": "a@b.com", "password": "x"}, nil},
		{"login", map[string]any{"email": "nope"}, []string{"email", "password"}},
		{"corporate-registration", map[string]any{"email": "a@b.com"}, []string{"companyName", "registrationNumber"}},
		{"developer-app", map[string]any{"appName": "demo", "callbackUrl": "ftp://x"}, []string{"callbackUrl"}},
		{"developer-app", map[string]any{"appName": "demo", "callbackUrl": "https://app.example.com/cb"}, nil},
		{"developer-app", map[string]any{"appName": string(long)}, []string{"appName"}},
	}
	for _, tt := range tests {
		t.Run(tt.entityType, func(t *testing.T) {
			errs, err := ValidateFallback(tt.entityType, tt.candidate)
			if err != nil {
				t.Fatalf("fallback: %v", err)
			}
			if len(errs) != len(tt.want) {
				t.Fatalf("got %+v, want fields %v", errs, tt.want)
			}
			for i, field := range tt.want {
				if errs[i].Field != field {
					t.Fatalf("error %d on %s, want %s", i, errs[i].Field, field)
				}
			}
		})
	}
}

func TestValidateFallback_UnknownEntity(t *testing.T) {
	errs, err := ValidateFallback("invoice", map[string]any{"x": 1})
	if !errors.Is(err, ErrUnknownEntityType) || len(errs) != 0 {
		t.Fatalf("expected ErrUnknownEntityType, got %v %+v", err, errs)
	}
	if got := FallbackEntityTypes(); len(got) != 4 || got[0] != "corporate-registration" {
		t.Fatalf("unexpected fallback types %v", got)
	}
}

func TestService_Outcomes(t *testing.T) {
	reg := metrics.NewRegistry()

	t.Run("dynamic", func(t *testing.T) {
		src := &fakeSource{payload: json.RawMessage(`{"user":{"nickname":{"minLength":3}}}`)}
		svc := NewService(NewDynamicValidator(newRuleResolver(t, src)), nil, reg.Engine())
		out := svc.Validate(context.Background(), "user", map[string]any{"nickname": "ab"}, "sandbox")
		if out.Source != SourceDynamic || out.Reason != "" || len(out.Errors) != 1 {
			t.Fatalf("unexpected outcome %+v", out)
		}
	})

	t.Run("fallback", func(t *testing.T) {
		src := &fakeSource{err: &configsource.NetworkError{Domain: configsource.DomainValidationRules, Reason: "timeout"}}
		svc := NewService(NewDynamicValidator(newRuleResolver(t, src)), nil, reg.Engine())
		out := svc.Validate(context.Background(), "user", map[string]any{"email": "bad", "password": "1"}, "sandbox")
		if out.Source != SourceFallback || len(out.Errors) != 2 || out.Valid() {
			t.Fatalf("unexpected outcome %+v", out)
		}
		if out.Reason != ErrRulesUnavailable.Error() {
			t.Fatalf("unexpected reason %q", out.Reason)
		}
	})

	t.Run("fallback unknown entity", func(t *testing.T) {
		src := &fakeSource{err: configsource.ErrNoData}
		svc := NewService(NewDynamicValidator(newRuleResolver(t, src)), nil, reg.Engine())
		out := svc.Validate(context.Background(), "invoice", map[string]any{}, "sandbox")
		if out.Source != SourceFallback || !out.Valid() {
			t.Fatalf("unexpected outcome %+v", out)
		}
	})

	if got := validationRuns(t, reg, "dynamic"); got != 1 {
		t.Fatalf("expected 1 dynamic run, got %v", got)
	}
}

func validationRuns(t *testing.T, reg *metrics.Registry, source string) float64 {
	t.Helper()
	families, err := reg.Gatherer().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var total float64
	for _, mf := range families {
		if mf.GetName() != "portalcfg_validation_runs_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "source" && l.GetValue() == source {
					total += m.GetCounter().GetValue()
				}
			}
		}
	}
	return total
}
