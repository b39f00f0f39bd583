package session

import "time"

// Config holds session configuration. The secret is the HMAC key for the
// cookie signature; rotating it invalidates all outstanding cookies, there
// is no grace-period re-signing.
type Config struct {
	Secret string `env:"SESSION_SECRET,required"`

	CookieName     string `env:"SESSION_COOKIE_NAME" envDefault:"session"`
	CookiePath     string `env:"SESSION_COOKIE_PATH" envDefault:"/"`
	CookieDomain   string `env:"SESSION_COOKIE_DOMAIN" envDefault:""`
	CookieSecure   bool   `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
	CookieHTTPOnly bool   `env:"SESSION_COOKIE_HTTPONLY" envDefault:"true"`
	CookieMaxAge   int    `env:"SESSION_COOKIE_MAX_AGE" envDefault:"0"`

	// Duration is the server-side expiry window relative to the record's
	// creation time. It is configuration, not per-record state.
	Duration time.Duration `env:"SESSION_DURATION" envDefault:"1h"`

	// CookieOnException controls whether the cookie is still emitted when
	// the request is being handled as an exception path.
	CookieOnException bool `env:"SESSION_COOKIE_ON_EXCEPTION" envDefault:"true"`
}

// DefaultConfig returns default session configuration. The secret has no
// default and must be provided.
func DefaultConfig() Config {
	return Config{
		CookieName:        "session",
		CookiePath:        "/",
		CookieHTTPOnly:    true,
		Duration:          time.Hour,
		CookieOnException: true,
	}
}

// NewFromConfig creates a Manager from the provided Config.
func NewFromConfig(store Store, cfg Config, opts ...Option) (*Manager, error) {
	return New(store, append([]Option{WithConfig(cfg)}, opts...)...)
}
