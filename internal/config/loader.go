package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

const (
	envPrefix     = "LEADS_"
	envConfigPath = "LEADS_CONFIG"
)

// integrationEnv lists the unprefixed variables shared with the hosted functions.
var integrationEnv = map[string]struct{}{ //nolint:gochecknoglobals // lookup table
	"SUPABASE_URL":              {},
	"SUPABASE_SERVICE_ROLE_KEY": {},
	"AI_EMPIRE_URL":             {},
	"SLACK_WEBHOOK_URL":         {},
	"SLACK_CHANNEL":             {},
	"NOTION_TOKEN":              {},
	"NOTION_DATABASE_ID":        {},
	"SMTP_HOST":                 {},
	"SMTP_PORT":                 {},
	"SMTP_USERNAME":             {},
	"SMTP_PASSWORD":             {},
	"EMAIL_FROM":                {},
	"EMAIL_TO":                  {},
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if LEADS_CONFIG is set
//  3. integration env vars (SUPABASE_URL, NOTION_TOKEN, ...)
//  4. service env vars (prefix LEADS_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(envConfigPath); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	integrations := env.Provider("", ".", func(s string) string {
		if _, ok := integrationEnv[s]; !ok {
			return ""
		}
		return strings.ToLower(s)
	})
	if err := k.Load(integrations, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// LEADS_SINK_TIMEOUT_MS -> sink_timeout_ms; underscores match the koanf tags.
	service := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		if s == "CONFIG" {
			return ""
		}
		return strings.ToLower(s)
	})
	if err := k.Load(service, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects unusable settings and restores defaults blanked by empty values.
func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.SinkTimeoutMS < 0 {
		return fmt.Errorf("%w: sink_timeout_ms must not be negative", ErrInvalidConfig)
	}

	defaults := New()
	if c.ForwardURL == "" {
		c.ForwardURL = defaults.ForwardURL
	}
	if c.SupabaseTable == "" {
		c.SupabaseTable = defaults.SupabaseTable
	}
	if c.NotionAPIURL == "" {
		c.NotionAPIURL = defaults.NotionAPIURL
	}
	if c.NotionVersion == "" {
		c.NotionVersion = defaults.NotionVersion
	}
	return nil
}

// SupabaseConfigured reports whether persistence has both URL and credential.
func (c *Config) SupabaseConfigured() bool {
	return c.SupabaseURL != "" && c.SupabaseServiceRoleKey != ""
}

// SMTPConfigured reports whether the SMTP settings the email sink would need are present.
func (c *Config) SMTPConfigured() bool {
	return c.SMTPHost != "" && c.SMTPUsername != "" && c.SMTPPassword != ""
}
