// Package config provides YAML configuration parsing for the alertpop command.
//
// Example configuration:
//
//	title: Recruiting alerts
//	poll_interval: 10s
//
//	server:
//	  base_url: https://ats.example.com
//	  headers:
//	    Authorization: Bearer ${ATS_TOKEN}
//
//	session:
//	  cookie: role
//	  value: ${ALERTPOP_ROLE:-}
//
//	display:
//	  terminal: true
//	  sound: chime
//	  web:
//	    enabled: true
//	    port: 8080
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// minPollInterval is the minimum allowed polling interval.
// This prevents accidental DoS of the alerts server with overly aggressive polling.
const minPollInterval = 1 * time.Second

// Sound names accepted by display.sound.
const (
	SoundNone  = "none"
	SoundChime = "chime"
	SoundBell  = "bell"
)

// Config is the root configuration structure.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the page and desktop notification title. Defaults to "Alerts".
	Title string `yaml:"title"`

	// PollInterval is the time between polls. Defaults to 10s.
	PollInterval Duration `yaml:"poll_interval"`

	// AutoDismiss is how long normal-priority cards stay. Defaults to 15s.
	AutoDismiss Duration `yaml:"auto_dismiss"`

	// RemovalDelay is the fade-out time before a card is detached. Defaults to 500ms.
	RemovalDelay Duration `yaml:"removal_delay"`

	// LinkTemplate is the follow-up link, "{ref}" is the subject reference.
	// Defaults to "/candidate/{ref}".
	LinkTemplate string `yaml:"link_template"`

	Server  ServerConfig         `yaml:"server"`
	Session SessionConfig        `yaml:"session"`
	Display DisplayConfig        `yaml:"display"`
	Kinds   map[string]KindLabel `yaml:"kinds"`
	Labels  LabelsConfig         `yaml:"labels"`
	Log     LogConfig            `yaml:"log"`
}

// ServerConfig describes the alerts API.
type ServerConfig struct {
	// BaseURL is the alerts server. Required.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	BaseURL string `yaml:"base_url"`

	// ListPath defaults to "/api/notifications".
	ListPath string `yaml:"list_path"`

	// AckPath must contain "{id}". Defaults to "/api/notifications/{id}/mark_read".
	AckPath string `yaml:"ack_path"`

	// ItemsField is the JSON field holding the alerts. Defaults to "notifications".
	ItemsField string `yaml:"items_field"`

	// Timeout is the per-request timeout. Defaults to 10s.
	Timeout Duration `yaml:"timeout"`

	// AckRate caps acknowledgements per second. Defaults to 5.
	AckRate float64 `yaml:"ack_rate"`

	// Headers are sent with every request. Values support environment
	// variable substitution.
	Headers map[string]string `yaml:"headers"`
}

// SessionConfig names the session cookie. When Cookie is set, it is sent on
// every request and alerts are disabled unless Value is non-empty.
type SessionConfig struct {
	Cookie string `yaml:"cookie"`
	Value  string `yaml:"value"`
}

// DisplayConfig selects the display surfaces.
type DisplayConfig struct {
	// Terminal prints cards to stdout. Defaults to true when no other
	// surface is enabled.
	Terminal *bool `yaml:"terminal"`

	// Desktop shows operating system notifications.
	Desktop bool `yaml:"desktop"`

	// Icon is an image path for desktop notifications.
	Icon string `yaml:"icon"`

	// Sound is "none", "chime", or "bell". Defaults to "none".
	Sound string `yaml:"sound"`

	Web WebConfig `yaml:"web"`
}

// WebConfig configures the browser alert page.
type WebConfig struct {
	Enabled bool `yaml:"enabled"`

	// Port defaults to 8080.
	Port int `yaml:"port"`

	// RefreshRate caps manual refreshes per second. Defaults to 1.
	RefreshRate float64 `yaml:"refresh_rate"`

	// PauseWhenHidden pauses polling while every open page is hidden.
	PauseWhenHidden bool `yaml:"pause_when_hidden"`
}

// KindLabel overrides the header of one alert kind.
type KindLabel struct {
	Icon  string `yaml:"icon"`
	Label string `yaml:"label"`
}

// LabelsConfig overrides user-facing strings. Empty fields keep the defaults.
type LabelsConfig struct {
	Fallback       KindLabel `yaml:"fallback"`
	Action         string    `yaml:"action"`
	Dismiss        string    `yaml:"dismiss"`
	Close          string    `yaml:"close"`
	UnknownName    string    `yaml:"unknown_name"`
	UnknownContext string    `yaml:"unknown_context"`
}

// LogConfig configures the command's logger.
type LogConfig struct {
	// Level is debug, info, warn, or error. Defaults to info.
	Level string `yaml:"level"`

	// Format is json or text. Defaults to json.
	Format string `yaml:"format"`

	// File enables size-rotated file output instead of stderr.
	File string `yaml:"file"`

	MaxSizeMB  int  `yaml:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days"`
	Compress   bool `yaml:"compress"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// TerminalEnabled reports whether cards are printed to the terminal.
func (d DisplayConfig) TerminalEnabled() bool {
	if d.Terminal != nil {
		return *d.Terminal
	}
	return !d.Desktop && !d.Web.Enabled
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in server.base_url, server.headers, and
// session.value. Defaults are applied before validation.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Title == "" {
		c.Title = "Alerts"
	}
	if c.PollInterval == 0 {
		c.PollInterval = Duration(10 * time.Second)
	}
	if c.AutoDismiss == 0 {
		c.AutoDismiss = Duration(15 * time.Second)
	}
	if c.RemovalDelay == 0 {
		c.RemovalDelay = Duration(500 * time.Millisecond)
	}
	if c.LinkTemplate == "" {
		c.LinkTemplate = "/candidate/{ref}"
	}
	if c.Server.ListPath == "" {
		c.Server.ListPath = "/api/notifications"
	}
	if c.Server.AckPath == "" {
		c.Server.AckPath = "/api/notifications/{id}/mark_read"
	}
	if c.Server.ItemsField == "" {
		c.Server.ItemsField = "notifications"
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = Duration(10 * time.Second)
	}
	if c.Server.AckRate == 0 {
		c.Server.AckRate = 5
	}
	if c.Display.Sound == "" {
		c.Display.Sound = SoundNone
	}
	if c.Display.Web.Port == 0 {
		c.Display.Web.Port = 8080
	}
	if c.Display.Web.RefreshRate == 0 {
		c.Display.Web.RefreshRate = 1
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 10
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 3
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 28
	}
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.PollInterval.Duration() < minPollInterval {
		return fmt.Errorf("poll_interval must be at least %s, got %s", minPollInterval, c.PollInterval.Duration())
	}
	if c.AutoDismiss.Duration() < 0 {
		return fmt.Errorf("auto_dismiss cannot be negative, got %s", c.AutoDismiss.Duration())
	}
	if c.RemovalDelay.Duration() < 0 {
		return fmt.Errorf("removal_delay cannot be negative, got %s", c.RemovalDelay.Duration())
	}
	if !strings.Contains(c.LinkTemplate, "{ref}") {
		return fmt.Errorf("link_template must contain {ref}, got %q", c.LinkTemplate)
	}

	if err := c.Server.expandAndValidate(); err != nil {
		return err
	}

	if c.Session.Cookie != "" {
		expanded, err := expandEnvVars(c.Session.Value)
		if err != nil {
			return fmt.Errorf("session.value: %w", err)
		}
		c.Session.Value = expanded
	}

	switch c.Display.Sound {
	case SoundNone, SoundChime, SoundBell:
	default:
		return fmt.Errorf("display.sound must be none, chime, or bell, got %q", c.Display.Sound)
	}
	if c.Display.Web.Port < 0 || c.Display.Web.Port > 65535 {
		return fmt.Errorf("display.web.port must be between 0 and 65535, got %d", c.Display.Web.Port)
	}
	if c.Display.Web.RefreshRate < 0 {
		return fmt.Errorf("display.web.refresh_rate cannot be negative, got %v", c.Display.Web.RefreshRate)
	}

	for kind, kl := range c.Kinds {
		if kl.Label == "" {
			return fmt.Errorf("kinds[%s]: label is required", kind)
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn, or error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}

	return nil
}

func (s *ServerConfig) expandAndValidate() error {
	if s.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}
	expanded, err := expandEnvVars(s.BaseURL)
	if err != nil {
		return fmt.Errorf("server.base_url: %w", err)
	}
	s.BaseURL = expanded

	parsedURL, err := url.Parse(s.BaseURL)
	if err != nil {
		return fmt.Errorf("server.base_url: invalid url: %w", err)
	}
	if parsedURL.Scheme == "" {
		return fmt.Errorf("server.base_url must have a scheme (http:// or https://)")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("server.base_url scheme must be http or https, got %q", parsedURL.Scheme)
	}

	if !strings.Contains(s.AckPath, "{id}") {
		return fmt.Errorf("server.ack_path must contain {id}, got %q", s.AckPath)
	}

	for k, v := range s.Headers {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("server.headers[%s]: %w", k, err)
		}
		s.Headers[k] = expanded
	}

	if s.Timeout.Duration() < time.Second {
		return fmt.Errorf("server.timeout must be at least 1s, got %s", s.Timeout.Duration())
	}
	if s.AckRate < 0 {
		return fmt.Errorf("server.ack_rate cannot be negative, got %v", s.AckRate)
	}
	return nil
}
