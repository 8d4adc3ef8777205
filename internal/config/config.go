// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Config is loaded once at startup and treated as immutable afterwards.
//   - Integration settings keep the environment variable names the hosted
//     functions used (SUPABASE_URL, SLACK_WEBHOOK_URL, ...); service settings
//     use the LEADS_ prefix.
package config

// DefaultForwardURL is the automation endpoint used when AI_EMPIRE_URL is unset.
const DefaultForwardURL = "http://localhost:8000/api/submit-lead"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// CORSOrigin enables CORS for the given origin ("*" allowed). Empty disables it.
	CORSOrigin string `koanf:"cors_origin"`

	// SinkTimeoutMS bounds each outbound sink call. 0 leaves the HTTP client default (no timeout).
	SinkTimeoutMS int `koanf:"sink_timeout_ms"`

	// ForwardURL is the automation endpoint every lead is forwarded to.
	ForwardURL string `koanf:"ai_empire_url"`

	// SupabaseURL and SupabaseServiceRoleKey must both be set for persistence.
	SupabaseURL            string `koanf:"supabase_url"`
	SupabaseServiceRoleKey string `koanf:"supabase_service_role_key"`
	SupabaseTable          string `koanf:"supabase_table"`

	// SlackWebhookURL enables chat notifications; SlackChannel is optional.
	SlackWebhookURL string `koanf:"slack_webhook_url"`
	SlackChannel    string `koanf:"slack_channel"`

	// NotionToken and NotionDatabaseID must both be set for page creation.
	NotionToken      string `koanf:"notion_token"`
	NotionDatabaseID string `koanf:"notion_database_id"`
	NotionAPIURL     string `koanf:"notion_api_url"`
	NotionVersion    string `koanf:"notion_version"`

	// SMTP settings are recognized but the email sink does not deliver yet.
	SMTPHost     string `koanf:"smtp_host"`
	SMTPPort     int    `koanf:"smtp_port"`
	SMTPUsername string `koanf:"smtp_username"`
	SMTPPassword string `koanf:"smtp_password"`
	EmailFrom    string `koanf:"email_from"`
	EmailTo      string `koanf:"email_to"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		LogFormat:     "text",
		Addr:          ":8080",
		ForwardURL:    DefaultForwardURL,
		SupabaseTable: "leads",
		NotionAPIURL:  "https://api.notion.com/v1",
		NotionVersion: "2022-06-28",
	}
}
