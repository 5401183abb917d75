package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/config"
	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/configcache"
	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/configsource"
	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/dynconfig"
	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/health"
	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/observability/logger"
	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/observability/metrics"
	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/observability/tracing"
	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/resilience"
	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/validation"
	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/version"
)

// Engine is the wired configuration and validation engine built from Settings.
type Engine struct {
	Settings  *config.Settings
	Log       logger.Logger
	Fetcher   *configsource.Fetcher
	Breaker   *resilience.CircuitBreaker
	Cache     *configcache.Cache[json.RawMessage]
	Resolver  *dynconfig.Resolver
	Rules     *validation.RuleResolver
	Validator *validation.Service
	Metrics   *metrics.Registry
	Health    *health.Registry

	tracer *tracing.TracerProvider
}

// NewEngine builds an engine. The caller must Close it.
func NewEngine(ctx context.Context, s *config.Settings, log logger.Logger) (*Engine, error) {
	log = logger.OrNop(log)
	e := &Engine{Settings: s, Log: log, Health: health.NewRegistry()}

	var engineMetrics *metrics.Engine
	if s.Observability.MetricsEnabled {
		e.Metrics = metrics.NewRegistry()
		engineMetrics = e.Metrics.Engine()
	}

	tp, err := tracing.NewTracerProvider(ctx, tracing.TracerConfig{
		ServiceName:    s.Service.Name,
		ServiceVersion: version.Current(s.Service.Name).Version,
		Environment:    s.Service.Environment,
		Endpoint:       s.Observability.TracingEndpoint,
		SampleRate:     s.Observability.TracingSampleRate,
		Enabled:        s.Observability.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("create tracer: %w", err)
	}
	e.tracer = tp

	if s.Breaker.Enabled {
		e.Breaker = resilience.NewCircuitBreaker(resilience.BreakerConfig{
			MaxFailures:  s.Breaker.MaxFailures,
			ResetTimeout: s.Breaker.ResetTimeout,
			ShouldTrip:   configsource.ShouldTrip,
		})
		e.Health.Register(health.NewBreakerChecker(e.Breaker))
	}

	e.Fetcher, err = configsource.NewFetcher(configsource.Options{
		BaseURL:           s.Source.BaseURL,
		Timeout:           s.Source.Timeout,
		CredentialsHeader: s.Source.CredentialsHeader,
		CredentialsToken:  s.Source.CredentialsToken,
		UserAgent:         s.Source.UserAgent,
		ProbeEnvironment:  s.Service.Environment,
		Breaker:           e.Breaker,
		Logger:            log,
		Metrics:           engineMetrics,
	})
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}
	e.Health.Register(health.NewSourceChecker(e.Fetcher, s.Source.Timeout))

	store, err := newStore(s, log, e.Health)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	var limiter *rate.Limiter
	if s.Cache.RefreshRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.Cache.RefreshRate), max(s.Cache.RefreshBurst, 1))
	}
	e.Cache = configcache.New[json.RawMessage](store, configcache.Options{
		RefreshLimiter: limiter,
		Logger:         log,
		Metrics:        engineMetrics,
	})

	policy := func(domain string) configcache.Policy {
		stale, evict := s.PolicyFor(domain)
		return configcache.Policy{StaleAfter: stale, EvictAfter: evict}
	}
	e.Resolver = dynconfig.NewResolver(e.Fetcher, dynconfig.Options{
		Cache:   e.Cache,
		Policy:  policy,
		Merger:  dynconfig.NewMerger(s.Merge.KeepUnmatchedRecords, log),
		Logger:  log,
		Metrics: engineMetrics,
	})
	e.Rules = validation.NewRuleResolver(e.Fetcher, e.Cache, policy(configsource.DomainValidation.String()), log)
	e.Validator = validation.NewService(validation.NewDynamicValidator(e.Rules), log, engineMetrics)
	return e, nil
}

func newStore(s *config.Settings, log logger.Logger, reg *health.Registry) (configcache.Store[json.RawMessage], error) {
	if s.Cache.Backend != config.CacheBackendRedis {
		return configcache.NewMemoryStore[json.RawMessage](), nil
	}
	store, err := configcache.NewRedisStore[json.RawMessage](configcache.RedisConfig{
		URL:              s.Cache.Redis.URL,
		Prefix:           s.Cache.Redis.Prefix,
		MaxConns:         s.Cache.Redis.MaxConns,
		OperationTimeout: s.Cache.Redis.OperationTimeout,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("create redis store: %w", err)
	}
	reg.Register(health.NewStoreChecker(store))
	return store, nil
}

// Close waits for background refreshes, closes the cache store and flushes spans.
func (e *Engine) Close(ctx context.Context) error {
	var errs []error
	if e.Cache != nil {
		if err := e.Cache.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if e.tracer != nil {
		if err := e.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
