package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultEnvPrefix is the environment prefix used by the portalcfg binary.
const DefaultEnvPrefix = "PORTALCFG"

// flagKeys maps command-line flag names to settings keys.
var flagKeys = map[string]string{
	"env":            "service.environment",
	"source-url":     "source.base_url",
	"source-timeout": "source.timeout",
	"source-token":   "source.credentials_token",
	"cache-backend":  "cache.backend",
	"redis-url":      "cache.redis.url",
	"log-level":      "observability.log_level",
	"log-format":     "observability.log_format",
}

// flagAliases maps older flag spellings to the flag they stand in for.
var flagAliases = map[string]string{
	"environment": "env",
}

// Provider loads Settings with precedence defaults < file < env < flags.
type Provider struct {
	configFile string
	envPrefix  string
	flags      *pflag.FlagSet
	v          *viper.Viper
}

// NewProvider creates a provider reading configFile (optional) and environment
// variables named <envPrefix>_<SECTION>_<KEY>.
func NewProvider(configFile, envPrefix string) *Provider {
	return &Provider{
		configFile: configFile,
		envPrefix:  envPrefix,
		v:          viper.New(),
	}
}

// WithFlags binds the flags registered by RegisterFlags.
func (p *Provider) WithFlags(flags *pflag.FlagSet) *Provider {
	p.flags = flags
	return p
}

// Load resolves and validates the settings.
func (p *Provider) Load() (*Settings, error) {
	p.v = viper.New()
	setDefaults(p.v, DefaultSettings())

	if p.configFile != "" {
		p.v.SetConfigFile(p.configFile)
		if err := p.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", p.configFile, err)
		}
	}

	if p.envPrefix != "" {
		p.v.SetEnvPrefix(p.envPrefix)
	}
	p.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	p.v.AutomaticEnv()

	if p.flags != nil {
		for name, key := range flagKeys {
			flag := p.flags.Lookup(name)
			if flag == nil {
				continue
			}
			if alias := p.aliasFor(name); alias != nil && alias.Changed && !flag.Changed {
				flag = alias
			}
			if err := p.v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	settings := &Settings{}
	if err := p.v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return settings, nil
}

func (p *Provider) aliasFor(name string) *pflag.Flag {
	for alias, target := range flagAliases {
		if target == name {
			return p.flags.Lookup(alias)
		}
	}
	return nil
}

// RegisterFlags adds the settings overrides to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("env", "", "environment to resolve configuration for")
	flags.String("environment", "", "environment to resolve configuration for")
	_ = flags.MarkDeprecated("environment", "use --env")
	flags.String("source-url", "", "base URL of the configuration service")
	flags.Duration("source-timeout", 0, "per-fetch timeout")
	flags.String("source-token", "", "credentials sent to the configuration service")
	flags.String("cache-backend", "", "cache backend (memory, redis)")
	flags.String("redis-url", "", "redis URL for the redis cache backend")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (json, text)")
}

func setDefaults(v *viper.Viper, s *Settings) {
	v.SetDefault("service.name", s.Service.Name)
	v.SetDefault("service.environment", s.Service.Environment)

	v.SetDefault("source.base_url", s.Source.BaseURL)
	v.SetDefault("source.timeout", s.Source.Timeout)
	v.SetDefault("source.credentials_header", s.Source.CredentialsHeader)
	v.SetDefault("source.credentials_token", s.Source.CredentialsToken)
	v.SetDefault("source.user_agent", s.Source.UserAgent)

	v.SetDefault("cache.backend", s.Cache.Backend)
	v.SetDefault("cache.default_stale_after", s.Cache.DefaultStaleAfter)
	v.SetDefault("cache.default_evict_after", s.Cache.DefaultEvictAfter)
	for domain, policy := range s.Cache.Policies {
		v.SetDefault("cache.policies."+domain+".stale_after", policy.StaleAfter)
		v.SetDefault("cache.policies."+domain+".evict_after", policy.EvictAfter)
	}
	v.SetDefault("cache.refresh_rate", s.Cache.RefreshRate)
	v.SetDefault("cache.refresh_burst", s.Cache.RefreshBurst)
	v.SetDefault("cache.redis.url", s.Cache.Redis.URL)
	v.SetDefault("cache.redis.prefix", s.Cache.Redis.Prefix)
	v.SetDefault("cache.redis.max_conns", s.Cache.Redis.MaxConns)
	v.SetDefault("cache.redis.operation_timeout", s.Cache.Redis.OperationTimeout)

	v.SetDefault("breaker.enabled", s.Breaker.Enabled)
	v.SetDefault("breaker.max_failures", s.Breaker.MaxFailures)
	v.SetDefault("breaker.reset_timeout", s.Breaker.ResetTimeout)

	v.SetDefault("merge.keep_unmatched_records", s.Merge.KeepUnmatchedRecords)

	v.SetDefault("observability.log_level", s.Observability.LogLevel)
	v.SetDefault("observability.log_format", s.Observability.LogFormat)
	v.SetDefault("observability.metrics_enabled", s.Observability.MetricsEnabled)
	v.SetDefault("observability.tracing_enabled", s.Observability.TracingEnabled)
	v.SetDefault("observability.tracing_endpoint", s.Observability.TracingEndpoint)
	v.SetDefault("observability.tracing_sample_rate", s.Observability.TracingSampleRate)
}
