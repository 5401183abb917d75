package config

import "time"

// Cache backend constants
const (
	// CacheBackendMemory keeps entries in process memory.
	CacheBackendMemory = "memory"
	// CacheBackendRedis shares entries between processes through Redis.
	CacheBackendRedis = "redis"
)

// Default staleness windows. The system domain changes least often and gets twice
// the default window.
const (
	DefaultStaleAfter       = 5 * time.Minute
	DefaultEvictAfter       = 10 * time.Minute
	DefaultSystemStaleAfter = 10 * time.Minute
	DefaultSystemEvictAfter = 20 * time.Minute
)

// Settings is the root configuration of the portal config client.
type Settings struct {
	Service       ServiceSettings       `mapstructure:"service" yaml:"service"`
	Source        SourceSettings        `mapstructure:"source" yaml:"source"`
	Cache         CacheSettings         `mapstructure:"cache" yaml:"cache"`
	Breaker       BreakerSettings       `mapstructure:"breaker" yaml:"breaker"`
	Merge         MergeSettings         `mapstructure:"merge" yaml:"merge"`
	Observability ObservabilitySettings `mapstructure:"observability" yaml:"observability"`
}

// ServiceSettings identifies the client and the environment it resolves config for.
type ServiceSettings struct {
	Name        string `mapstructure:"name" yaml:"name"`
	Environment string `mapstructure:"environment" yaml:"environment"`
}

// SourceSettings configures the remote configuration service.
type SourceSettings struct {
	BaseURL           string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
	CredentialsHeader string        `mapstructure:"credentials_header" yaml:"credentials_header"`
	CredentialsToken  string        `mapstructure:"credentials_token" yaml:"credentials_token"`
	UserAgent         string        `mapstructure:"user_agent" yaml:"user_agent"`
}

// PolicySettings holds the freshness windows of one domain.
type PolicySettings struct {
	StaleAfter time.Duration `mapstructure:"stale_after" yaml:"stale_after"`
	EvictAfter time.Duration `mapstructure:"evict_after" yaml:"evict_after"`
}

// CacheSettings configures the config cache.
type CacheSettings struct {
	Backend           string                    `mapstructure:"backend" yaml:"backend"`
	DefaultStaleAfter time.Duration             `mapstructure:"default_stale_after" yaml:"default_stale_after"`
	DefaultEvictAfter time.Duration             `mapstructure:"default_evict_after" yaml:"default_evict_after"`
	Policies          map[string]PolicySettings `mapstructure:"policies" yaml:"policies"`
	// RefreshRate caps background refreshes per second across all keys. The default 0
	// disables the cap so every stale read schedules its refresh.
	RefreshRate  float64       `mapstructure:"refresh_rate" yaml:"refresh_rate"`
	RefreshBurst int           `mapstructure:"refresh_burst" yaml:"refresh_burst"`
	Redis        RedisSettings `mapstructure:"redis" yaml:"redis"`
}

// RedisSettings configures the Redis entry store.
type RedisSettings struct {
	URL              string        `mapstructure:"url" yaml:"url"`
	Prefix           string        `mapstructure:"prefix" yaml:"prefix"`
	MaxConns         int           `mapstructure:"max_conns" yaml:"max_conns"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout" yaml:"operation_timeout"`
}

// BreakerSettings configures the circuit breaker in front of the config source.
type BreakerSettings struct {
	Enabled      bool          `mapstructure:"enabled" yaml:"enabled"`
	MaxFailures  int           `mapstructure:"max_failures" yaml:"max_failures"`
	ResetTimeout time.Duration `mapstructure:"reset_timeout" yaml:"reset_timeout"`
}

// MergeSettings configures how server overrides are merged over defaults.
type MergeSettings struct {
	// KeepUnmatchedRecords appends list records whose discriminant matches no default bucket.
	KeepUnmatchedRecords bool `mapstructure:"keep_unmatched_records" yaml:"keep_unmatched_records"`
}

// ObservabilitySettings configures logging, metrics and tracing.
type ObservabilitySettings struct {
	LogLevel          string  `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string  `mapstructure:"log_format" yaml:"log_format"`
	MetricsEnabled    bool    `mapstructure:"metrics_enabled" yaml:"metrics_enabled"`
	TracingEnabled    bool    `mapstructure:"tracing_enabled" yaml:"tracing_enabled"`
	TracingEndpoint   string  `mapstructure:"tracing_endpoint" yaml:"tracing_endpoint"`
	TracingSampleRate float64 `mapstructure:"tracing_sample_rate" yaml:"tracing_sample_rate"`
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() *Settings {
	return &Settings{
		Service: ServiceSettings{
			Name:        "portalcfg",
			Environment: "sandbox",
		},
		Source: SourceSettings{
			BaseURL:           "http://localhost:3000",
			Timeout:           5 * time.Second,
			CredentialsHeader: "Authorization",
			UserAgent:         "portalcfg",
		},
		Cache: CacheSettings{
			Backend:           CacheBackendMemory,
			DefaultStaleAfter: DefaultStaleAfter,
			DefaultEvictAfter: DefaultEvictAfter,
			Policies: map[string]PolicySettings{
				"system": {
					StaleAfter: DefaultSystemStaleAfter,
					EvictAfter: DefaultSystemEvictAfter,
				},
			},
			RefreshRate:  0,
			RefreshBurst: 20,
			Redis: RedisSettings{
				Prefix:           "portalcfg",
				MaxConns:         10,
				OperationTimeout: 2 * time.Second,
			},
		},
		Breaker: BreakerSettings{
			Enabled:      true,
			MaxFailures:  5,
			ResetTimeout: 30 * time.Second,
		},
		Observability: ObservabilitySettings{
			LogLevel:          "info",
			LogFormat:         "json",
			MetricsEnabled:    true,
			TracingSampleRate: 0.1,
		},
	}
}

// PolicyFor returns the freshness windows for a domain: its entry in
// cache.policies when present, the cache defaults otherwise.
func (s *Settings) PolicyFor(domain string) (staleAfter, evictAfter time.Duration) {
	staleAfter, evictAfter = s.Cache.DefaultStaleAfter, s.Cache.DefaultEvictAfter
	if p, ok := s.Cache.Policies[domain]; ok {
		if p.StaleAfter > 0 {
			staleAfter = p.StaleAfter
		}
		if p.EvictAfter > 0 {
			evictAfter = p.EvictAfter
		}
	}
	return staleAfter, evictAfter
}

// Redacted returns a copy of the settings safe to print.
func (s *Settings) Redacted() *Settings {
	out := *s
	if out.Source.CredentialsToken != "" {
		out.Source.CredentialsToken = "***"
	}
	out.Cache.Redis.URL = redactURL(out.Cache.Redis.URL)
	policies := make(map[string]PolicySettings, len(s.Cache.Policies))
	for k, v := range s.Cache.Policies {
		policies[k] = v
	}
	out.Cache.Policies = policies
	return &out
}
