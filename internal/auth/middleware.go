package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"

	"budgetwise/internal/api"
	"budgetwise/internal/backend"
	"budgetwise/internal/core"
	"budgetwise/internal/session"
)

// SyncRetryAfter is the Retry-After hint sent when the user directory sync
// fails.
const SyncRetryAfter = "5"

// Middleware resolves the session cookie into a RequestUser. Requests without
// a live session are sent to /login; HTMX requests get an HX-Redirect.
// The first request of a session registers the user with the backend.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(CookieName)
		if err != nil {
			a.unauthenticated(w, r)
			return
		}

		sess, err := a.sessions.Get(r.Context(), c.Value)
		if errors.Is(err, session.ErrNotFound) {
			a.clearCookie(w)
			a.unauthenticated(w, r)
			return
		}
		if err != nil {
			slog.ErrorContext(r.Context(), "Failed to load session", "error", err)
			http.Error(w, "Session store unavailable", http.StatusServiceUnavailable)
			return
		}

		principal := backend.Principal{
			Subject: sess.Subject,
			Email:   sess.Email,
			Name:    sess.Name,
			Tokens:  a.tokenSource(sess),
		}
		be := a.provider.For(principal)

		if !sess.Synced {
			if err := a.syncUser(r.Context(), be, principal); err != nil {
				if api.KindOf(err) == api.KindAuth {
					_ = a.sessions.Delete(r.Context(), sess.ID)
					a.clearCookie(w)
					a.unauthenticated(w, r)
					return
				}
				slog.WarnContext(r.Context(), "User sync failed", "subject", sess.Subject, "error", err)
				w.Header().Set("Retry-After", SyncRetryAfter)
				http.Error(w, "Your account is still being set up. Please retry in a few seconds.", http.StatusServiceUnavailable)
				return
			}
			if err := a.sessions.MarkSynced(r.Context(), sess.ID); err != nil {
				slog.WarnContext(r.Context(), "Failed to mark session synced", "error", err)
			}
		}

		ctx := WithUser(r.Context(), &RequestUser{
			Principal: principal,
			SessionID: sess.ID,
			Backend:   be,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) syncUser(ctx context.Context, be backend.Backend, p backend.Principal) error {
	ctx, cancel := context.WithTimeout(ctx, a.syncTimeout)
	defer cancel()
	_, err := be.SyncUser(ctx, core.UserProfile{Subject: p.Subject, Email: p.Email, Name: p.Name})
	return err
}

func (a *Authenticator) tokenSource(sess session.Session) oauth2.TokenSource {
	if a.mode != ModeOAuth {
		return oauth2.StaticTokenSource(sess.Token)
	}
	base := a.oauth.TokenSource(a.oauthContext(context.Background()), sess.Token)
	return a.sessions.TokenSource(sess, base)
}

func (a *Authenticator) unauthenticated(w http.ResponseWriter, r *http.Request) {
	target := "/login?return_to=" + url.QueryEscape(r.URL.RequestURI())
	if r.Header.Get("HX-Request") == "true" {
		if cur := r.Header.Get("HX-Current-URL"); cur != "" {
			if u, err := url.Parse(cur); err == nil {
				target = "/login?return_to=" + url.QueryEscape(u.RequestURI())
			}
		}
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
