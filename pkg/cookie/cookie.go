// Package cookie provides a small writer for HTTP cookies with immutable
// per-writer default attributes. It deliberately does not sign or encrypt
// values; callers that need integrity own their wire format.
package cookie

import (
	"errors"
	"net/http"
	"time"
)

// ErrNotFound indicates the request carries no cookie with the given name.
var ErrNotFound = errors.New("cookie.not_found")

// Writer emits cookies with a fixed set of default attributes. The
// defaults are read-only after construction; per-call options override
// them without mutating the writer.
type Writer struct {
	defaults Options
}

// NewWriter creates a Writer with the given default attributes.
func NewWriter(opts ...Option) *Writer {
	defaults := Options{
		Path:     "/",
		HTTPOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Writer{defaults: applyOptions(defaults, opts)}
}

// Set writes a cookie onto the response.
func (w *Writer) Set(rw http.ResponseWriter, name, value string, opts ...Option) {
	options := applyOptions(w.defaults, opts)

	http.SetCookie(rw, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     options.Path,
		Domain:   options.Domain,
		MaxAge:   options.MaxAge,
		Secure:   options.Secure,
		HttpOnly: options.HTTPOnly,
		SameSite: options.SameSite,
	})
}

// Clear instructs the client to drop the named cookie, using the writer's
// default path and domain so the removal matches the original emission.
func (w *Writer) Clear(rw http.ResponseWriter, name string) {
	http.SetCookie(rw, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     w.defaults.Path,
		Domain:   w.defaults.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   w.defaults.Secure,
		HttpOnly: w.defaults.HTTPOnly,
		SameSite: w.defaults.SameSite,
	})
}

// Get reads a cookie value from the request.
func Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrNotFound
		}
		return "", err
	}
	return c.Value, nil
}
