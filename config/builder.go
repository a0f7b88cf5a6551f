package config

import (
	"log/slog"
	"net/http"

	"github.com/jpalmerr/alertpop"
)

// SessionCookies returns the session cookie to send with every request, or
// nil when no session cookie is configured or its value is empty.
func SessionCookies(cfg *Config) []*http.Cookie {
	if cfg.Session.Cookie == "" || cfg.Session.Value == "" {
		return nil
	}
	return []*http.Cookie{{Name: cfg.Session.Cookie, Value: cfg.Session.Value}}
}

// BuildSource converts the server section into an [alertpop.HTTPSource].
func BuildSource(cfg *Config, logger *slog.Logger) (*alertpop.HTTPSource, error) {
	return alertpop.NewHTTPSource(alertpop.SourceConfig{
		BaseURL:    cfg.Server.BaseURL,
		ListPath:   cfg.Server.ListPath,
		AckPath:    cfg.Server.AckPath,
		ItemsField: cfg.Server.ItemsField,
		Headers:    cfg.Server.Headers,
		Cookies:    SessionCookies(cfg),
		Timeout:    cfg.Server.Timeout.Duration(),
		AckRate:    cfg.Server.AckRate,
		Logger:     logger,
	})
}

// BuildLabels overlays the configured labels on [alertpop.DefaultLabels].
func BuildLabels(cfg *Config) alertpop.Labels {
	labels := alertpop.DefaultLabels()

	for kind, kl := range cfg.Kinds {
		labels.Kinds[alertpop.Kind(kind)] = alertpop.KindLabel{Icon: kl.Icon, Label: kl.Label}
	}

	l := cfg.Labels
	if l.Fallback.Label != "" {
		labels.Fallback = alertpop.KindLabel{Icon: l.Fallback.Icon, Label: l.Fallback.Label}
	}
	setIfNotEmpty(&labels.Action, l.Action)
	setIfNotEmpty(&labels.Dismiss, l.Dismiss)
	setIfNotEmpty(&labels.Close, l.Close)
	setIfNotEmpty(&labels.UnknownName, l.UnknownName)
	setIfNotEmpty(&labels.UnknownContext, l.UnknownContext)
	return labels
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// BuildClientOptions converts timing, link, label, and session settings into
// client options. Logger, sound, and renderer wiring are left to the caller.
func BuildClientOptions(cfg *Config) []alertpop.Option {
	opts := []alertpop.Option{
		alertpop.WithPollInterval(cfg.PollInterval.Duration()),
		alertpop.WithRemovalDelay(cfg.RemovalDelay.Duration()),
		alertpop.WithLinkTemplate(cfg.LinkTemplate),
		alertpop.WithLabels(BuildLabels(cfg)),
	}
	if cfg.AutoDismiss > 0 {
		opts = append(opts, alertpop.WithAutoDismissAfter(cfg.AutoDismiss.Duration()))
	}
	if cfg.Session.Cookie != "" {
		opts = append(opts, alertpop.WithSessionCheck(
			alertpop.CookieSession(SessionCookies(cfg), cfg.Session.Cookie),
		))
	}
	return opts
}
