package session

import (
	"log/slog"
	"time"

	"miniblog/pkg/cookie"
)

// Option is a functional option for configuring the Manager
type Option func(*Manager)

// WithConfig sets the whole configuration at once
func WithConfig(config Config) Option {
	return func(m *Manager) {
		m.config = config
	}
}

// WithSecret sets the HMAC signing secret
func WithSecret(secret string) Option {
	return func(m *Manager) {
		m.config.Secret = secret
	}
}

// WithCookieName sets the session cookie name
func WithCookieName(name string) Option {
	return func(m *Manager) {
		m.config.CookieName = name
	}
}

// WithDuration sets the server-side expiry window
func WithDuration(d time.Duration) Option {
	return func(m *Manager) {
		m.config.Duration = d
	}
}

// WithCookieWriter overrides the cookie writer built from the config
func WithCookieWriter(w *cookie.Writer) Option {
	return func(m *Manager) {
		m.cookies = w
	}
}

// WithLogger sets the logger; the default discards everything
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}
