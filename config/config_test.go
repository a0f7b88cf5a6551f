package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse_MinimalConfig(t *testing.T) {
	yaml := `
server:
  base_url: https://ats.example.com
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// check defaults applied
	if cfg.Title != "Alerts" {
		t.Errorf("Title = %q, want Alerts", cfg.Title)
	}
	if cfg.PollInterval.Duration() != 10*time.Second {
		t.Errorf("PollInterval = %v, want 10s", cfg.PollInterval.Duration())
	}
	if cfg.AutoDismiss.Duration() != 15*time.Second {
		t.Errorf("AutoDismiss = %v, want 15s", cfg.AutoDismiss.Duration())
	}
	if cfg.RemovalDelay.Duration() != 500*time.Millisecond {
		t.Errorf("RemovalDelay = %v, want 500ms", cfg.RemovalDelay.Duration())
	}
	if cfg.LinkTemplate != "/candidate/{ref}" {
		t.Errorf("LinkTemplate = %q", cfg.LinkTemplate)
	}
	if cfg.Server.ListPath != "/api/notifications" || cfg.Server.AckPath != "/api/notifications/{id}/mark_read" {
		t.Errorf("paths = %q, %q", cfg.Server.ListPath, cfg.Server.AckPath)
	}
	if cfg.Server.ItemsField != "notifications" {
		t.Errorf("ItemsField = %q, want notifications", cfg.Server.ItemsField)
	}
	if cfg.Server.Timeout.Duration() != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Server.Timeout.Duration())
	}
	if cfg.Server.AckRate != 5 {
		t.Errorf("AckRate = %v, want 5", cfg.Server.AckRate)
	}
	if cfg.Display.Sound != SoundNone {
		t.Errorf("Sound = %q, want none", cfg.Display.Sound)
	}
	if !cfg.Display.TerminalEnabled() {
		t.Error("TerminalEnabled() = false with no surfaces, want true")
	}
	if cfg.Display.Web.Port != 8080 {
		t.Errorf("Web.Port = %d, want 8080", cfg.Display.Web.Port)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v, want info/json", cfg.Log)
	}
}

func TestParse_FullConfig(t *testing.T) {
	yaml := `
title: Recruiting
poll_interval: 30s
auto_dismiss: 20s
removal_delay: 1s
link_template: https://crm.example.com/people/{ref}

server:
  base_url: https://ats.example.com
  list_path: /v2/alerts
  ack_path: /v2/alerts/{id}/ack
  items_field: items
  timeout: 5s
  ack_rate: 2
  headers:
    Authorization: Bearer token123

session:
  cookie: role
  value: recruiter

display:
  terminal: false
  desktop: true
  icon: /usr/share/icons/alert.png
  sound: chime
  web:
    enabled: true
    port: 9090
    refresh_rate: 0.5
    pause_when_hidden: true

kinds:
  interview_booked:
    icon: "📅"
    label: Interview Booked

labels:
  action: Open
  fallback:
    icon: "!"
    label: Heads up

log:
  level: debug
  format: text
  file: /var/log/alertpop.log
  max_size_mb: 50
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Title != "Recruiting" || cfg.PollInterval.Duration() != 30*time.Second {
		t.Errorf("Title/PollInterval = %q/%v", cfg.Title, cfg.PollInterval.Duration())
	}
	if cfg.AutoDismiss.Duration() != 20*time.Second || cfg.RemovalDelay.Duration() != time.Second {
		t.Errorf("AutoDismiss/RemovalDelay = %v/%v", cfg.AutoDismiss.Duration(), cfg.RemovalDelay.Duration())
	}
	if cfg.Server.ItemsField != "items" || cfg.Server.AckRate != 2 {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Server.Headers["Authorization"] != "Bearer token123" {
		t.Errorf("Headers[Authorization] = %q", cfg.Server.Headers["Authorization"])
	}
	if cfg.Session.Cookie != "role" || cfg.Session.Value != "recruiter" {
		t.Errorf("Session = %+v", cfg.Session)
	}
	if cfg.Display.TerminalEnabled() || !cfg.Display.Desktop || cfg.Display.Sound != SoundChime {
		t.Errorf("Display = %+v", cfg.Display)
	}
	if !cfg.Display.Web.Enabled || cfg.Display.Web.Port != 9090 || !cfg.Display.Web.PauseWhenHidden {
		t.Errorf("Web = %+v", cfg.Display.Web)
	}
	if cfg.Kinds["interview_booked"].Label != "Interview Booked" {
		t.Errorf("Kinds = %+v", cfg.Kinds)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" || cfg.Log.MaxSizeMB != 50 || cfg.Log.MaxBackups != 3 {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestDisplayConfig_TerminalDefault(t *testing.T) {
	on := true
	tests := []struct {
		name    string
		display DisplayConfig
		want    bool
	}{
		{"nothing enabled", DisplayConfig{}, true},
		{"desktop only", DisplayConfig{Desktop: true}, false},
		{"web only", DisplayConfig{Web: WebConfig{Enabled: true}}, false},
		{"explicit with web", DisplayConfig{Terminal: &on, Web: WebConfig{Enabled: true}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.display.TerminalEnabled(); got != tt.want {
				t.Errorf("TerminalEnabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParse_EnvVarExpansion(t *testing.T) {
	t.Setenv("ALERTPOP_TEST_HOST", "ats.internal")
	t.Setenv("ALERTPOP_TEST_TOKEN", "secret")
	t.Setenv("ALERTPOP_TEST_ROLE", "admin")

	yaml := `
server:
  base_url: https://${ALERTPOP_TEST_HOST}
  headers:
    Authorization: Bearer ${ALERTPOP_TEST_TOKEN}
    X-Env: ${ALERTPOP_TEST_UNSET:-dev}
session:
  cookie: role
  value: ${ALERTPOP_TEST_ROLE}
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Server.BaseURL != "https://ats.internal" {
		t.Errorf("BaseURL = %q", cfg.Server.BaseURL)
	}
	if cfg.Server.Headers["Authorization"] != "Bearer secret" {
		t.Errorf("Authorization = %q", cfg.Server.Headers["Authorization"])
	}
	if cfg.Server.Headers["X-Env"] != "dev" {
		t.Errorf("X-Env = %q, want dev", cfg.Server.Headers["X-Env"])
	}
	if cfg.Session.Value != "admin" {
		t.Errorf("Session.Value = %q, want admin", cfg.Session.Value)
	}
}

func TestParse_EmptyDefaultSession(t *testing.T) {
	yaml := `
server:
  base_url: https://ats.example.com
session:
  cookie: role
  value: ${ALERTPOP_TEST_NO_ROLE:-}
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Session.Value != "" {
		t.Errorf("Session.Value = %q, want empty", cfg.Session.Value)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing base url",
			yaml:    `title: x`,
			wantErr: "server.base_url is required",
		},
		{
			name:    "base url without scheme",
			yaml:    "server:\n  base_url: ats.example.com",
			wantErr: "must have a scheme",
		},
		{
			name:    "base url bad scheme",
			yaml:    "server:\n  base_url: ftp://ats.example.com",
			wantErr: "scheme must be http or https",
		},
		{
			name:    "unset env var",
			yaml:    "server:\n  base_url: https://${ALERTPOP_TEST_DEFINITELY_UNSET}",
			wantErr: "ALERTPOP_TEST_DEFINITELY_UNSET",
		},
		{
			name:    "unset env var in header",
			yaml:    "server:\n  base_url: https://a.b\n  headers:\n    X-Key: ${ALERTPOP_TEST_DEFINITELY_UNSET}",
			wantErr: "server.headers[X-Key]",
		},
		{
			name:    "ack path without id",
			yaml:    "server:\n  base_url: https://a.b\n  ack_path: /ack",
			wantErr: "ack_path must contain {id}",
		},
		{
			name:    "timeout too short",
			yaml:    "server:\n  base_url: https://a.b\n  timeout: 100ms",
			wantErr: "server.timeout must be at least 1s",
		},
		{
			name:    "negative ack rate",
			yaml:    "server:\n  base_url: https://a.b\n  ack_rate: -1",
			wantErr: "ack_rate cannot be negative",
		},
		{
			name:    "poll interval too short",
			yaml:    "poll_interval: 500ms\nserver:\n  base_url: https://a.b",
			wantErr: "poll_interval must be at least 1s",
		},
		{
			name:    "negative auto dismiss",
			yaml:    "auto_dismiss: -1s\nserver:\n  base_url: https://a.b",
			wantErr: "auto_dismiss cannot be negative",
		},
		{
			name:    "link template without ref",
			yaml:    "link_template: /candidate\nserver:\n  base_url: https://a.b",
			wantErr: "link_template must contain {ref}",
		},
		{
			name:    "unknown sound",
			yaml:    "server:\n  base_url: https://a.b\ndisplay:\n  sound: trumpet",
			wantErr: "display.sound",
		},
		{
			name:    "port out of range",
			yaml:    "server:\n  base_url: https://a.b\ndisplay:\n  web:\n    port: 70000",
			wantErr: "display.web.port",
		},
		{
			name:    "kind without label",
			yaml:    "server:\n  base_url: https://a.b\nkinds:\n  custom:\n    icon: x",
			wantErr: "kinds[custom]: label is required",
		},
		{
			name:    "bad log level",
			yaml:    "server:\n  base_url: https://a.b\nlog:\n  level: loud",
			wantErr: "log.level",
		},
		{
			name:    "bad log format",
			yaml:    "server:\n  base_url: https://a.b\nlog:\n  format: xml",
			wantErr: "log.format",
		},
		{
			name:    "invalid duration",
			yaml:    "poll_interval: soon\nserver:\n  base_url: https://a.b",
			wantErr: "invalid duration",
		},
		{
			name:    "invalid yaml",
			yaml:    "server: [",
			wantErr: "failed to parse YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alertpop.yaml")
	if err := os.WriteFile(path, []byte("server:\n  base_url: https://a.b\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.BaseURL != "https://a.b" {
		t.Errorf("BaseURL = %q", cfg.Server.BaseURL)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("Load() error = %v, want read error", err)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("ALERTPOP_TEST_A", "1")

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"plain", "plain", false},
		{"${ALERTPOP_TEST_A}", "1", false},
		{"x-${ALERTPOP_TEST_A}-y", "x-1-y", false},
		{"${ALERTPOP_TEST_UNSET_B:-fallback}", "fallback", false},
		{"${ALERTPOP_TEST_UNSET_B:-}", "", false},
		{"${ALERTPOP_TEST_UNSET_B}", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := expandEnvVars(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expandEnvVars(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("expandEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
