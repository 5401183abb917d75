// Package dynconfig resolves typed configuration bundles from the config service,
// merged over compiled-in defaults.
package dynconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/configcache"
	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/configsource"
	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/observability/logger"
	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/observability/metrics"
)

// Reasons recorded when defaults are served.
const (
	ReasonNetwork   = "network"
	ReasonNoData    = "no_data"
	ReasonMalformed = "malformed"
	ReasonEmpty     = "empty"
	ReasonCancelled = "cancelled"
	ReasonError     = "error"
)

// Discriminants of the list domains.
const (
	formKey          = "formType"
	validationKey    = "entityType"
	categoryStyleKey = "category"
)

// PolicyFunc returns the cache policy of a domain.
type PolicyFunc func(domain string) configcache.Policy

// DefaultPolicyFor returns 10m/20m for the system domain and 5m/10m for the others.
func DefaultPolicyFor(domain string) configcache.Policy {
	if domain == configsource.DomainSystem.String() {
		return configcache.Policy{StaleAfter: 10 * time.Minute, EvictAfter: 20 * time.Minute}
	}
	return configcache.DefaultPolicy()
}

// Options configures a Resolver.
type Options struct {
	// Cache defaults to a new in-memory cache.
	Cache *configcache.Cache[json.RawMessage]
	// Policy defaults to DefaultPolicyFor.
	Policy PolicyFunc
	// Merger defaults to a merger that drops unmatched records.
	Merger  *Merger
	Logger  logger.Logger
	Metrics *metrics.Engine
}

// Resolver serves configuration domains merged over their defaults. Typed accessors
// never fail: any fetch failure or empty payload yields the defaults.
type Resolver struct {
	source  configsource.Source
	cache   *configcache.Cache[json.RawMessage]
	policy  PolicyFunc
	merger  *Merger
	log     logger.Logger
	metrics *metrics.Engine
}

// NewResolver creates a resolver fetching from source.
func NewResolver(source configsource.Source, opts Options) *Resolver {
	log := logger.OrNop(opts.Logger)
	r := &Resolver{
		source:  source,
		cache:   opts.Cache,
		policy:  opts.Policy,
		merger:  opts.Merger,
		log:     log,
		metrics: opts.Metrics,
	}
	if r.cache == nil {
		r.cache = configcache.New[json.RawMessage](configcache.NewMemoryStore[json.RawMessage](), configcache.Options{
			Logger:  log,
			Metrics: opts.Metrics,
		})
	}
	if r.policy == nil {
		r.policy = DefaultPolicyFor
	}
	if r.merger == nil {
		r.merger = NewMerger(false, log)
	}
	return r
}

// Cache returns the cache shared by the resolver.
func (r *Resolver) Cache() *configcache.Cache[json.RawMessage] {
	return r.cache
}

// Resolve returns the merged value of domain: UIConfig, []FormConfig, SystemConfig,
// []ValidationConfig, APIExplorerConfig or []CategoryStyleConfig. The selector scopes
// the fetch. The only error is configsource.ErrUnknownDomain.
func (r *Resolver) Resolve(ctx context.Context, domain configsource.Domain, environment, selector string) (any, error) {
	switch domain {
	case configsource.DomainUI:
		return r.UI(ctx, environment), nil
	case configsource.DomainForm:
		return r.forms(ctx, environment, selector), nil
	case configsource.DomainSystem:
		return r.system(ctx, environment, selector), nil
	case configsource.DomainValidation:
		return r.validation(ctx, environment, selector), nil
	case configsource.DomainAPIExplorer:
		return r.APIExplorer(ctx, environment), nil
	case configsource.DomainCategoryStyle:
		return r.CategoryStyles(ctx, environment), nil
	default:
		return nil, fmt.Errorf("%w: %s", configsource.ErrUnknownDomain, domain)
	}
}

// UI returns the portal UI configuration.
func (r *Resolver) UI(ctx context.Context, environment string) UIConfig {
	def := DefaultUIConfig()
	ov, ok := r.override(ctx, configsource.DomainUI, environment, "")
	if !ok {
		return def
	}
	return mergeObjectFor(ctx, r, configsource.DomainUI, environment, def, ov)
}

// Forms returns every form configuration.
func (r *Resolver) Forms(ctx context.Context, environment string) []FormConfig {
	return r.forms(ctx, environment, "")
}

// Form returns the configuration of formType. ok is false when formType has no bucket.
func (r *Resolver) Form(ctx context.Context, environment, formType string) (FormConfig, bool) {
	for _, f := range r.forms(ctx, environment, formType) {
		if f.FormType == formType {
			return f, true
		}
	}
	return FormConfig{}, false
}

func (r *Resolver) forms(ctx context.Context, environment, formType string) []FormConfig {
	defs := DefaultFormConfigs()
	ov, ok := r.override(ctx, configsource.DomainForm, environment, formType)
	if !ok {
		return defs
	}
	return mergeKeyed(r.merger, configsource.DomainForm.String(), defs, formKey, ov)
}

// System returns the system limits.
func (r *Resolver) System(ctx context.Context, environment string) SystemConfig {
	return r.system(ctx, environment, "")
}

func (r *Resolver) system(ctx context.Context, environment, module string) SystemConfig {
	def := DefaultSystemConfig()
	ov, ok := r.override(ctx, configsource.DomainSystem, environment, module)
	if !ok {
		return def
	}
	dm, err := toMap(def)
	if err != nil {
		return def
	}
	return mergeObjectFor(ctx, r, configsource.DomainSystem, environment, def, r.merger.systemOverride(dm, ov))
}

// Validation returns the admin validation configuration of every entity type.
func (r *Resolver) Validation(ctx context.Context, environment string) []ValidationConfig {
	return r.validation(ctx, environment, "")
}

// ValidationFor returns the admin validation configuration of entityType.
func (r *Resolver) ValidationFor(ctx context.Context, environment, entityType string) (ValidationConfig, bool) {
	for _, v := range r.validation(ctx, environment, entityType) {
		if v.EntityType == entityType {
			return v, true
		}
	}
	return ValidationConfig{}, false
}

func (r *Resolver) validation(ctx context.Context, environment, entityType string) []ValidationConfig {
	defs := DefaultValidationConfigs()
	ov, ok := r.override(ctx, configsource.DomainValidation, environment, entityType)
	if !ok {
		return defs
	}
	return mergeKeyed(r.merger, configsource.DomainValidation.String(), defs, validationKey, ov)
}

// APIExplorer returns the API explorer configuration.
func (r *Resolver) APIExplorer(ctx context.Context, environment string) APIExplorerConfig {
	def := DefaultAPIExplorerConfig()
	ov, ok := r.override(ctx, configsource.DomainAPIExplorer, environment, "")
	if !ok {
		return def
	}
	return mergeObjectFor(ctx, r, configsource.DomainAPIExplorer, environment, def, ov)
}

// CategoryStyles returns the style of every catalog category.
func (r *Resolver) CategoryStyles(ctx context.Context, environment string) []CategoryStyleConfig {
	defs := DefaultCategoryStyles()
	ov, ok := r.override(ctx, configsource.DomainCategoryStyle, environment, "")
	if !ok {
		return defs
	}
	return mergeKeyed(r.merger, configsource.DomainCategoryStyle.String(), defs, categoryStyleKey, ov)
}

// CategoryStyle returns the style of category.
func (r *Resolver) CategoryStyle(ctx context.Context, environment, category string) (CategoryStyleConfig, bool) {
	for _, s := range r.CategoryStyles(ctx, environment) {
		if s.Category == category {
			return s, true
		}
	}
	return CategoryStyleConfig{}, false
}

// Invalidate drops cached payloads of domain for environment, or for every
// environment when environment is empty.
func (r *Resolver) Invalidate(ctx context.Context, domain configsource.Domain, environment string) error {
	if environment == "" {
		return r.cache.InvalidateDomain(ctx, domain.String())
	}
	return r.cache.InvalidateEnvironment(ctx, domain.String(), environment)
}

// override returns the decoded payload of domain, or false when defaults must be served.
func (r *Resolver) override(ctx context.Context, domain configsource.Domain, environment, selector string) (any, bool) {
	key := configcache.Key{Domain: domain.String(), Environment: environment, Selector: selector}
	raw, err := r.cache.GetOrFetch(ctx, key, func(ctx context.Context) (json.RawMessage, error) {
		return r.source.Fetch(ctx, configsource.Request{Domain: domain, Environment: environment, Selector: selector})
	}, r.policy(domain.String()))
	if err != nil {
		r.useDefaults(ctx, domain, environment, selector, reasonFor(ctx, err), err)
		return nil, false
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		r.useDefaults(ctx, domain, environment, selector, ReasonMalformed, err)
		return nil, false
	}
	if isEmpty(v) {
		r.useDefaults(ctx, domain, environment, selector, ReasonEmpty, nil)
		return nil, false
	}
	return v, true
}

func mergeObjectFor[T any](ctx context.Context, r *Resolver, domain configsource.Domain, environment string, def T, ov any) T {
	merged, dropped, err := mergeRecord(def, ov)
	if err != nil {
		r.useDefaults(ctx, domain, environment, "", ReasonMalformed, err)
		return def
	}
	if len(dropped) > 0 {
		r.log.WithContext(ctx).Warn("ignoring malformed config keys",
			"domain", domain.String(), "environment", environment, "keys", dropped)
	}
	return merged
}

func (r *Resolver) useDefaults(ctx context.Context, domain configsource.Domain, environment, selector, reason string, err error) {
	r.metrics.ResolverDefault(domain.String(), reason)
	args := []any{
		"domain", domain.String(),
		"environment", environment,
		"selector", selector,
		"reason", reason,
	}
	if err != nil {
		args = append(args, "error", err)
	}
	r.log.WithContext(ctx).Warn("config unavailable, using defaults", args...)
}

func reasonFor(ctx context.Context, err error) string {
	switch {
	case ctx.Err() != nil:
		return ReasonCancelled
	case configsource.IsNetworkError(err), errors.Is(err, context.DeadlineExceeded):
		return ReasonNetwork
	case errors.Is(err, configsource.ErrNoData):
		return ReasonNoData
	case errors.Is(err, configsource.ErrMalformedEnvelope):
		return ReasonMalformed
	default:
		return ReasonError
	}
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case map[string]any:
		return len(x) == 0
	case []any:
		return len(x) == 0
	}
	return false
}
