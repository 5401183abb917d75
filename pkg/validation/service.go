package validation

import (
	"context"
	"errors"

	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/observability/logger"
	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/observability/metrics"
	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/observability/tracing"
)

// Source names the validator that produced an Outcome.
type Source string

const (
	SourceDynamic  Source = "dynamic"
	SourceFallback Source = "fallback"
)

// Outcome is the result of one validation call.
type Outcome struct {
	Errors []ValidationError `json:"errors"`
	Source Source            `json:"source"`
	// Reason explains a fallback; empty for dynamic results.
	Reason string `json:"reason,omitempty"`
}

// Valid reports whether no constraint failed.
func (o Outcome) Valid() bool {
	return len(o.Errors) == 0
}

// Service tries dynamic validation once and falls back to the built-in rules when
// dynamic rules are unavailable.
type Service struct {
	dynamic  *DynamicValidator
	fallback FallbackValidator
	log      logger.Logger
	metrics  *metrics.Engine
}

// NewService creates a validation service.
func NewService(dynamic *DynamicValidator, log logger.Logger, m *metrics.Engine) *Service {
	return &Service{
		dynamic: dynamic,
		log:     logger.OrNop(log),
		metrics: m,
	}
}

// Validate checks candidate for entityType in environment.
func (s *Service) Validate(ctx context.Context, entityType string, candidate any, environment string) Outcome {
	ctx, span := tracing.StartValidationSpan(ctx, entityType, environment)
	defer span.End()

	errs, err := s.dynamic.Validate(ctx, entityType, candidate, environment)
	if err == nil {
		s.metrics.ValidationRun(entityType, string(SourceDynamic))
		span.SetAttributes(tracing.AttrSource.String(string(SourceDynamic)))
		return Outcome{Errors: errs, Source: SourceDynamic}
	}

	log := s.log.WithContext(ctx).With("entity_type", entityType, "environment", environment)
	log.Warn("dynamic validation unavailable, using fallback rules", "error", err)

	out := Outcome{Source: SourceFallback, Reason: err.Error()}
	out.Errors, err = s.fallback.Validate(entityType, candidate)
	if errors.Is(err, ErrUnknownEntityType) {
		log.Warn("no fallback rules for entity type")
		out.Reason = ErrRulesUnavailable.Error() + "; " + err.Error()
	}
	s.metrics.ValidationRun(entityType, string(SourceFallback))
	span.SetAttributes(tracing.AttrSource.String(string(SourceFallback)))
	return out
}
