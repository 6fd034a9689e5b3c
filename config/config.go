// Package config loads refdatad settings from REFDATA_* environment
// variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/jonwraymond/refdataops/auth"
	"github.com/jonwraymond/refdataops/observe"
	"github.com/jonwraymond/refdataops/observe/exporters"
	"github.com/jonwraymond/refdataops/secret"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config holds process settings.
type Config struct {
	ServiceName string `env:"REFDATA_SERVICE_NAME" envDefault:"refdatad"`
	Version     string `env:"REFDATA_VERSION"      envDefault:"dev"`
	HTTPAddr    string `env:"REFDATA_HTTP_ADDR"    envDefault:":8080"`
	SQLitePath  string `env:"REFDATA_SQLITE_PATH"  envDefault:"refdata.db"`

	// PreloadTypeCodes are refreshed at startup and on every tick. Empty
	// means a full reload.
	PreloadTypeCodes []string `env:"REFDATA_PRELOAD_TYPECODES" envSeparator:","`

	RefreshInterval    time.Duration `env:"REFDATA_REFRESH_INTERVAL"    envDefault:"15m"`
	RefreshTimeout     time.Duration `env:"REFDATA_REFRESH_TIMEOUT"     envDefault:"30s"`
	RefreshAttempts    int           `env:"REFDATA_REFRESH_ATTEMPTS"    envDefault:"3"`
	RefreshParallelism int           `env:"REFDATA_REFRESH_PARALLELISM" envDefault:"4"`

	// RefreshRate limits POST /v1/refresh, in requests per second.
	RefreshRate float64 `env:"REFDATA_REFRESH_RATE" envDefault:"0.2"`

	RequiredGroups []string      `env:"REFDATA_REQUIRED_GROUPS" envSeparator:","`
	MaxStaleness   time.Duration `env:"REFDATA_MAX_STALENESS"   envDefault:"1h"`

	LogLevel        string  `env:"REFDATA_LOG_LEVEL"        envDefault:"info"`
	TracingExporter string  `env:"REFDATA_TRACING_EXPORTER" envDefault:"none"`
	TracingSample   float64 `env:"REFDATA_TRACING_SAMPLE"   envDefault:"1"`
	MetricsExporter string  `env:"REFDATA_METRICS_EXPORTER" envDefault:"none"`

	AuthEnabled bool   `env:"REFDATA_AUTH_ENABLED" envDefault:"false"`
	JWTSecret   string `env:"REFDATA_JWT_SECRET"`
	JWTIssuer   string `env:"REFDATA_JWT_ISSUER"`

	// APIKeys maps principal to key: "batch=secretref:env:BATCH_KEY,ops=...".
	APIKeys map[string]string `env:"REFDATA_API_KEYS" envKeyValSeparator:"="`

	// APIKeyRoles maps principal to roles joined by "|": "batch=loader|reader".
	// A principal without an entry gets the reader role.
	APIKeyRoles map[string]string `env:"REFDATA_API_KEY_ROLES" envKeyValSeparator:"="`

	// SecretsDir is where secretref:file: references resolve.
	SecretsDir string `env:"REFDATA_SECRETS_DIR" envDefault:"/run/secrets"`
}

// Load parses the environment, resolves secret references and validates.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.resolveSecrets(ctx); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) resolveSecrets(ctx context.Context) error {
	r := secret.NewResolver(true, secret.NewEnvProvider(), &secret.FileProvider{Dir: c.SecretsDir})
	defer r.Close()

	if c.JWTSecret != "" {
		v, err := r.ResolveValue(ctx, c.JWTSecret)
		if err != nil {
			return fmt.Errorf("resolve REFDATA_JWT_SECRET: %w", err)
		}
		c.JWTSecret = v
	}
	keys, err := r.ResolveMap(ctx, c.APIKeys)
	if err != nil {
		return fmt.Errorf("resolve REFDATA_API_KEYS: %w", err)
	}
	c.APIKeys = keys
	return nil
}

// Validate checks ranges and cross-field requirements.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.HTTPAddr != "", "REFDATA_HTTP_ADDR is empty")
	check(c.SQLitePath != "", "REFDATA_SQLITE_PATH is empty")
	check(c.RefreshInterval >= 0, "REFDATA_REFRESH_INTERVAL is negative")
	check(c.RefreshTimeout > 0, "REFDATA_REFRESH_TIMEOUT must be positive")
	check(c.RefreshAttempts >= 1, "REFDATA_REFRESH_ATTEMPTS must be at least 1")
	check(c.RefreshParallelism >= 1, "REFDATA_REFRESH_PARALLELISM must be at least 1")
	check(c.RefreshRate > 0, "REFDATA_REFRESH_RATE must be positive")
	check(c.MaxStaleness >= 0, "REFDATA_MAX_STALENESS is negative")
	check(c.TracingSample >= 0 && c.TracingSample <= 1, "REFDATA_TRACING_SAMPLE %v outside [0,1]", c.TracingSample)
	check(slices.Contains(exporters.TracingExporters, c.TracingExporter),
		"REFDATA_TRACING_EXPORTER %q", c.TracingExporter)
	check(slices.Contains(exporters.MetricsExporters, c.MetricsExporter),
		"REFDATA_METRICS_EXPORTER %q", c.MetricsExporter)
	check(slices.Contains([]string{"debug", "info", "warn", "error"}, c.LogLevel),
		"REFDATA_LOG_LEVEL %q", c.LogLevel)

	if c.AuthEnabled {
		check(c.JWTSecret != "" || len(c.APIKeys) > 0,
			"REFDATA_AUTH_ENABLED needs REFDATA_JWT_SECRET or REFDATA_API_KEYS")
		check(c.JWTSecret == "" || len(c.JWTSecret) >= 16, "REFDATA_JWT_SECRET shorter than 16 bytes")
	}
	for principal, key := range c.APIKeys {
		check(principal != "" && key != "", "REFDATA_API_KEYS entry %q is incomplete", principal)
	}
	for principal := range c.APIKeyRoles {
		_, ok := c.APIKeys[principal]
		check(ok, "REFDATA_API_KEY_ROLES names unknown principal %q", principal)
	}

	return errors.Join(errs...)
}

// Roles returns the roles configured for an API key principal.
func (c *Config) Roles(principal string) []string {
	raw, ok := c.APIKeyRoles[principal]
	if !ok {
		return []string{auth.RoleReader}
	}
	var roles []string
	for _, r := range strings.Split(raw, "|") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}

// Observe converts the telemetry settings.
func (c *Config) Observe() observe.Config {
	return observe.Config{
		ServiceName: c.ServiceName,
		Version:     c.Version,
		Tracing: observe.TracingConfig{
			Enabled:   c.TracingExporter != "none",
			Exporter:  c.TracingExporter,
			SamplePct: c.TracingSample,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.MetricsExporter != "none",
			Exporter: c.MetricsExporter,
		},
		Logging: observe.LoggingConfig{Enabled: true, Level: c.LogLevel},
	}
}

// Authenticator builds the configured authenticator, or nil when auth is
// disabled.
func (c *Config) Authenticator() auth.Authenticator {
	if !c.AuthEnabled {
		return nil
	}
	var chain []auth.Authenticator
	if c.JWTSecret != "" {
		chain = append(chain, auth.NewJWTAuthenticator(auth.JWTConfig{
			Secret: []byte(c.JWTSecret),
			Issuer: c.JWTIssuer,
			Leeway: 30 * time.Second,
		}))
	}
	if len(c.APIKeys) > 0 {
		keys := auth.NewMemoryAPIKeyStore()
		for principal, key := range c.APIKeys {
			keys.AddKey(principal, key, c.Roles(principal)...)
		}
		chain = append(chain, auth.NewAPIKeyAuthenticator(keys))
	}
	return auth.NewCompositeAuthenticator(chain...)
}
