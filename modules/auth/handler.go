package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"miniblog/pkg/session"
)

// principalKey is the session payload key holding the signed-in email.
const principalKey = "principal"

// ErrorQueue is the flash queue used for sign-in failures.
const ErrorQueue = "error"

// Config holds the auth settings read from the environment.
type Config struct {
	AdminEmail  string `env:"ADMIN_EMAIL,required"`
	VerifierURL string `env:"AUTH_VERIFIER_URL" envDefault:"https://verifier.login.persona.org/verify"`
	Audience    string `env:"AUTH_AUDIENCE,required"`
}

// Handler serves the login and logout endpoints.
type Handler struct {
	verifier   Verifier
	adminEmail string
	log        *slog.Logger
}

// NewHandler creates a Handler. Only adminEmail is ever granted a
// principal; every other verified email is turned away.
func NewHandler(verifier Verifier, adminEmail string, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Handler{verifier: verifier, adminEmail: adminEmail, log: log}
}

// Router returns the auth routes.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
	return r
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rec := session.MustFromContext(ctx)

	email, err := h.verifier.Verify(ctx, r.PostFormValue("assertion"))
	if err != nil {
		h.log.WarnContext(ctx, "assertion verification failed", "error", err)
		_ = rec.Flash(ctx, "Sign-in failed. Please try again.", ErrorQueue, false)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if email != h.adminEmail {
		h.log.WarnContext(ctx, "sign-in rejected", "email", email)
		_ = rec.Flash(ctx, "You are not allowed to sign in.", ErrorQueue, false)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err := rec.Set(ctx, principalKey, email); err != nil {
		h.log.ErrorContext(ctx, "failed to store principal", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	// Rotate the CSRF token on privilege change.
	if _, err := rec.NewCSRFToken(ctx); err != nil {
		h.log.ErrorContext(ctx, "failed to rotate csrf token", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	_ = rec.Flash(ctx, "Welcome back, "+email+".", "", false)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rec := session.MustFromContext(ctx)
	if err := rec.Invalidate(ctx); err != nil {
		h.log.ErrorContext(ctx, "failed to invalidate session", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Principal returns the signed-in email stored in the request session,
// or "" when nobody is signed in.
func Principal(ctx context.Context) string {
	rec, ok := session.FromContext(ctx)
	if !ok {
		return ""
	}
	email, _ := rec.GetString(ctx, principalKey)
	return email
}

// RequireAdmin rejects requests without a signed-in principal.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Principal(r.Context()) == "" {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
