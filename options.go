package alertpop

import (
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jpalmerr/alertpop/clock"
)

// clientConfig holds mutable state during Client construction.
type clientConfig struct {
	pollInterval time.Duration
	autoDismiss  time.Duration
	removalDelay time.Duration
	clock        clock.Clock
	logger       *slog.Logger
	labels       Labels
	linkTemplate string
	linkBase     *url.URL
	sound        Sound
	sessionCheck func() bool
}

// Option is a function that configures a [Client] during construction.
//
// Option implements the functional options pattern. Options return an error
// if validation fails.
type Option func(*clientConfig) error

// WithPollInterval sets how often the source is polled.
// Defaults to 10 seconds.
//
// Returns an error if the duration is zero or negative.
func WithPollInterval(d time.Duration) Option {
	return func(cfg *clientConfig) error {
		if d <= 0 {
			return errors.New("poll interval must be positive")
		}
		cfg.pollInterval = d
		return nil
	}
}

// WithAutoDismissAfter sets how long a normal-priority card stays before it
// is dismissed automatically. High-priority cards are never auto-dismissed.
// Defaults to 15 seconds.
//
// Returns an error if the duration is zero or negative.
func WithAutoDismissAfter(d time.Duration) Option {
	return func(cfg *clientConfig) error {
		if d <= 0 {
			return errors.New("auto-dismiss delay must be positive")
		}
		cfg.autoDismiss = d
		return nil
	}
}

// WithRemovalDelay sets the time between a card being marked for removal and
// it being detached, leaving room for a fade transition.
// Defaults to 500 milliseconds. Zero detaches on the next timer tick.
//
// Returns an error if the duration is negative.
func WithRemovalDelay(d time.Duration) Option {
	return func(cfg *clientConfig) error {
		if d < 0 {
			return errors.New("removal delay cannot be negative")
		}
		cfg.removalDelay = d
		return nil
	}
}

// WithClock substitutes the time source, typically a [clock.Fake] in tests.
//
// Returns an error if the clock is nil.
func WithClock(c clock.Clock) Option {
	return func(cfg *clientConfig) error {
		if c == nil {
			return errors.New("clock cannot be nil")
		}
		cfg.clock = c
		return nil
	}
}

// WithLogger sets a custom [slog.Logger]. If not specified, [slog.Default]
// is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *clientConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithLabels replaces the label catalog used to build cards.
// Kinds missing from labels.Kinds use labels.Fallback.
func WithLabels(labels Labels) Option {
	return func(cfg *clientConfig) error {
		cfg.labels = labels
		return nil
	}
}

// WithLinkTemplate sets the follow-up link template. "{ref}" is replaced by
// the alert's SubjectRef. Defaults to "/candidate/{ref}".
//
// Returns an error if the template lacks the placeholder.
func WithLinkTemplate(template string) Option {
	return func(cfg *clientConfig) error {
		if !strings.Contains(template, refPlaceholder) {
			return errors.New("link template must contain {ref}")
		}
		cfg.linkTemplate = template
		return nil
	}
}

// WithLinkBase resolves relative follow-up links against base.
//
// Returns an error if base is not an absolute URL.
func WithLinkBase(base string) Option {
	return func(cfg *clientConfig) error {
		u, err := url.Parse(base)
		if err != nil {
			return err
		}
		if !u.IsAbs() {
			return errors.New("link base must be an absolute URL")
		}
		cfg.linkBase = u
		return nil
	}
}

// WithSound plays s whenever a new card is rendered. Nil disables sound.
func WithSound(s Sound) Option {
	return func(cfg *clientConfig) error {
		cfg.sound = s
		return nil
	}
}

// WithSessionCheck gates [Client.Start] on a session marker. When check
// returns false, Start returns [ErrNoSession] without polling or preparing
// the renderer. Nil checks are ignored.
func WithSessionCheck(check func() bool) Option {
	return func(cfg *clientConfig) error {
		cfg.sessionCheck = check
		return nil
	}
}
