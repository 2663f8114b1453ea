package model

import (
	"fmt"
	"net/netip"
	"runtime"
	"strings"
	"time"
)

// DefaultFastTrackThreshold is the damage amount below which complete claims are fast-tracked
const DefaultFastTrackThreshold = 25000.0

// Config holds the complete fnol configuration
type Config struct {
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
	Routing      RoutingConfig      `yaml:"routing" mapstructure:"routing"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Host           string        `yaml:"host" mapstructure:"host"`
	Port           int           `yaml:"port" mapstructure:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig controls structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or console
}

// RoutingConfig controls the routing engine
type RoutingConfig struct {
	FastTrackThreshold float64 `yaml:"fast_track_threshold" mapstructure:"fast_track_threshold"`
}

// HTTPConfig controls fetching of remote documents
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// CacheConfig controls the in-memory result cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// ConcurrencyConfig controls batch processing
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig controls per-client request limits on the API.
// X-Forwarded-For is honored only when the peer is a trusted proxy.
type RateLimitingConfig struct {
	RequestsPerSecond float64  `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int      `yaml:"burst_size" mapstructure:"burst_size"`
	TrustedProxies    []string `yaml:"trusted_proxies" mapstructure:"trusted_proxies"` // IPs or CIDRs
}

// OutputConfig controls CLI report rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// LLMConfig is reserved for LLM-assisted extraction and is not read by any component yet
type LLMConfig struct {
	OpenAIAPIKey string `yaml:"openai_api_key,omitempty" mapstructure:"openai_api_key"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8000,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			MaxUploadBytes: 20 << 20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Routing: RoutingConfig{
			FastTrackThreshold: DefaultFastTrackThreshold,
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "fnol/0.1 (+https://github.com/ppiankov/fnol)",
			MaxBodyBytes:  20 << 20,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     10 * time.Minute,
		},
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 10,
			BurstSize:         20,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}

// Validate checks the configuration for values no component can work with
func (c *Config) Validate() error {
	if c.Routing.FastTrackThreshold <= 0 {
		return fmt.Errorf("routing.fast_track_threshold must be positive, got %v", c.Routing.FastTrackThreshold)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	for _, p := range c.RateLimiting.TrustedProxies {
		if _, err := ParseProxyPrefix(p); err != nil {
			return fmt.Errorf("rate_limiting.trusted_proxies: %w", err)
		}
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console; got %q", c.Log.Format)
	}
	if c.Concurrency.Workers <= 0 {
		return fmt.Errorf("concurrency.workers must be positive, got %d", c.Concurrency.Workers)
	}
	return nil
}

// ParseProxyPrefix parses a trusted proxy entry, either a CIDR or a single IP
func ParseProxyPrefix(s string) (netip.Prefix, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return netip.Prefix{}, fmt.Errorf("invalid CIDR %q: %w", s, err)
		}
		return p.Masked(), nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid IP %q: %w", s, err)
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}
