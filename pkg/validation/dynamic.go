package validation

import "context"

// DynamicValidator checks candidates against server-declared rules.
type DynamicValidator struct {
	rules RulesProvider
}

// NewDynamicValidator creates a validator resolving rules through rules.
func NewDynamicValidator(rules RulesProvider) *DynamicValidator {
	return &DynamicValidator{rules: rules}
}

// Validate checks candidate against the rules of entityType in environment.
// It returns ErrRulesUnavailable when the rule set is empty.
func (v *DynamicValidator) Validate(ctx context.Context, entityType string, candidate any, environment string) ([]ValidationError, error) {
	rs := v.rules.ResolveRules(ctx, entityType, environment)
	if rs.Empty() {
		return nil, ErrRulesUnavailable
	}
	return rs.Check(candidate), nil
}
