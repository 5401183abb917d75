package validation

import (
	"context"
	"encoding/json"

	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/configcache"
	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/configsource"
	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/observability/logger"
)

// rulesSelectorPrefix keeps rule sets apart from admin validation config in the
// shared validation domain of the cache.
const rulesSelectorPrefix = "rules:"

// RulesProvider resolves the rule set of an entity type.
type RulesProvider interface {
	ResolveRules(ctx context.Context, entityType, environment string) RuleSet
}

// RuleResolver fetches per-entity rule sets through the config cache.
type RuleResolver struct {
	source configsource.Source
	cache  *configcache.Cache[json.RawMessage]
	policy configcache.Policy
	log    logger.Logger
}

// NewRuleResolver creates a resolver caching under the validation domain with policy.
func NewRuleResolver(source configsource.Source, cache *configcache.Cache[json.RawMessage], policy configcache.Policy, log logger.Logger) *RuleResolver {
	return &RuleResolver{
		source: source,
		cache:  cache,
		policy: policy,
		log:    logger.OrNop(log),
	}
}

// RulesKey is the cache key of the rule set of entityType in environment.
func RulesKey(entityType, environment string) configcache.Key {
	return configcache.Key{
		Domain:      configsource.DomainValidation.String(),
		Environment: environment,
		Selector:    rulesSelectorPrefix + entityType,
	}
}

// ResolveRules returns the rule set of entityType, or an empty set when the rules
// cannot be fetched or parsed.
func (r *RuleResolver) ResolveRules(ctx context.Context, entityType, environment string) RuleSet {
	log := r.log.WithContext(ctx).With("entity_type", entityType, "environment", environment)

	raw, err := r.cache.GetOrFetch(ctx, RulesKey(entityType, environment), func(ctx context.Context) (json.RawMessage, error) {
		return r.source.Fetch(ctx, configsource.Request{
			Domain:      configsource.DomainValidationRules,
			Environment: environment,
			Selector:    entityType,
		})
	}, r.policy)
	if err != nil {
		log.Warn("validation rules unavailable", "error", err)
		return RuleSet{EntityType: entityType}
	}

	rs, err := ParseRuleSet(entityType, raw, log)
	if err != nil {
		log.Warn("validation rules malformed", "error", err)
		return RuleSet{EntityType: entityType}
	}
	return rs
}

// Invalidate drops the cached rule set of entityType in environment.
func (r *RuleResolver) Invalidate(ctx context.Context, entityType, environment string) error {
	return r.cache.Invalidate(ctx, RulesKey(entityType, environment))
}
