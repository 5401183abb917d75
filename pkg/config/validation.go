package config

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Validate checks the settings and normalizes a few free-form values.
// All problems are reported together.
func (s *Settings) Validate() error {
	var errs []error

	s.Cache.Backend = strings.ToLower(strings.TrimSpace(s.Cache.Backend))
	s.Source.BaseURL = strings.TrimRight(strings.TrimSpace(s.Source.BaseURL), "/")

	if strings.TrimSpace(s.Service.Environment) == "" {
		errs = append(errs, errors.New("service.environment is required"))
	}

	if s.Source.BaseURL == "" {
		errs = append(errs, errors.New("source.base_url is required"))
	} else if u, err := url.Parse(s.Source.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("source.base_url must be an absolute URL: %q", s.Source.BaseURL))
	}
	if s.Source.Timeout <= 0 {
		errs = append(errs, errors.New("source.timeout must be greater than zero"))
	}

	switch s.Cache.Backend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if strings.TrimSpace(s.Cache.Redis.URL) == "" {
			errs = append(errs, errors.New("cache.redis.url is required when cache.backend is redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid cache.backend: %s (must be one of: %s, %s)", s.Cache.Backend, CacheBackendMemory, CacheBackendRedis))
	}

	if err := validateWindow("cache.default", s.Cache.DefaultStaleAfter, s.Cache.DefaultEvictAfter); err != nil {
		errs = append(errs, err)
	}
	domains := make([]string, 0, len(s.Cache.Policies))
	for domain := range s.Cache.Policies {
		domains = append(domains, domain)
	}
	sort.Strings(domains)
	for _, domain := range domains {
		stale, evict := s.PolicyFor(domain)
		if err := validateWindow("cache.policies."+domain, stale, evict); err != nil {
			errs = append(errs, err)
		}
	}

	if s.Cache.RefreshRate < 0 {
		errs = append(errs, errors.New("cache.refresh_rate cannot be negative"))
	}
	if s.Breaker.Enabled && s.Breaker.MaxFailures < 1 {
		errs = append(errs, errors.New("breaker.max_failures must be at least 1 when the breaker is enabled"))
	}

	if s.Observability.TracingEnabled && strings.TrimSpace(s.Observability.TracingEndpoint) == "" {
		errs = append(errs, errors.New("observability.tracing_endpoint is required when tracing is enabled"))
	}
	if s.Observability.TracingSampleRate < 0 || s.Observability.TracingSampleRate > 1 {
		errs = append(errs, errors.New("observability.tracing_sample_rate must be between 0 and 1"))
	}

	return errors.Join(errs...)
}

func validateWindow(scope string, staleAfter, evictAfter time.Duration) error {
	if staleAfter <= 0 {
		return fmt.Errorf("%s stale_after must be greater than zero", scope)
	}
	if evictAfter < 2*staleAfter {
		return fmt.Errorf("%s evict_after (%s) must be at least twice stale_after (%s)", scope, evictAfter, staleAfter)
	}
	return nil
}

func redactURL(raw string) string {
	if raw == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
