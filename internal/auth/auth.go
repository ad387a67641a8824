// Package auth signs users in, keeps their OAuth session and exposes the
// signed-in principal to handlers.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"budgetwise/internal/backend"
	"budgetwise/internal/config"
	"budgetwise/internal/session"
)

const (
	CookieName = "bw_session"

	ModeOAuth  = "oauth"
	ModeStatic = "static"
)

var ErrNoSubject = errors.New("identity provider returned no subject")

type Identity struct {
	Subject string
	Email   string
	Name    string
}

type Authenticator struct {
	mode         string
	oauth        *oauth2.Config
	userInfoURL  string
	static       Identity
	staticToken  string
	sessions     *session.Store
	provider     backend.Provider
	cookieSecure bool
	cookieTTL    time.Duration
	httpClient   *http.Client
	syncTimeout  time.Duration
}

type Option func(*Authenticator)

// WithHTTPClient sets the client used for token exchange and userinfo.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Authenticator) { a.httpClient = c }
}

func New(cfg *config.Config, sessions *session.Store, provider backend.Provider, opts ...Option) *Authenticator {
	a := &Authenticator{
		mode:         cfg.AuthMode,
		userInfoURL:  cfg.OAuthUserInfoURL,
		static:       Identity{Subject: cfg.StaticSubject, Email: cfg.StaticEmail, Name: cfg.StaticName},
		staticToken:  cfg.StaticBearerToken,
		sessions:     sessions,
		provider:     provider,
		cookieSecure: cfg.CookieSecure,
		cookieTTL:    cfg.SessionTTL,
		syncTimeout:  5 * time.Second,
	}
	if a.mode == ModeOAuth {
		a.oauth = OAuthConfig(cfg)
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// OAuthConfig is the authorization-code client described by cfg.
func OAuthConfig(cfg *config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.OAuthAuthURL,
			TokenURL: cfg.OAuthTokenURL,
		},
		RedirectURL: cfg.OAuthRedirectURL,
		Scopes:      cfg.OAuthScopes,
	}
}

func (a *Authenticator) Mode() string { return a.mode }

func (a *Authenticator) oauthContext(ctx context.Context) context.Context {
	if a.httpClient != nil {
		return context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	}
	return ctx
}

// Login starts a sign-in. Static mode creates the session immediately.
func (a *Authenticator) Login(w http.ResponseWriter, r *http.Request) {
	returnTo := SafeReturnTo(r.URL.Query().Get("return_to"))

	if a.mode != ModeOAuth {
		tok := &oauth2.Token{AccessToken: a.staticToken, TokenType: "Bearer"}
		if err := a.startSession(w, r, a.static, tok); err != nil {
			slog.ErrorContext(r.Context(), "Failed to create static session", "error", err)
			http.Error(w, "Could not sign in", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, returnTo, http.StatusSeeOther)
		return
	}

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	if err := a.sessions.SaveLoginState(r.Context(), session.LoginState{
		State: state, Verifier: verifier, ReturnTo: returnTo,
	}); err != nil {
		slog.ErrorContext(r.Context(), "Failed to save login state", "error", err)
		http.Error(w, "Could not sign in", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, a.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier)), http.StatusFound)
}

// Callback completes the authorization-code exchange.
func (a *Authenticator) Callback(w http.ResponseWriter, r *http.Request) {
	if a.mode != ModeOAuth {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		slog.WarnContext(r.Context(), "Identity provider rejected sign-in", "error", e, "description", q.Get("error_description"))
		http.Error(w, "Sign-in was cancelled or rejected", http.StatusUnauthorized)
		return
	}

	ls, err := a.sessions.ConsumeLoginState(r.Context(), q.Get("state"))
	if err != nil {
		http.Error(w, "Sign-in expired, please try again", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(a.oauthContext(r.Context()), 15*time.Second)
	defer cancel()

	tok, err := a.oauth.Exchange(ctx, q.Get("code"), oauth2.VerifierOption(ls.Verifier))
	if err != nil {
		slog.ErrorContext(r.Context(), "Token exchange failed", "error", err)
		http.Error(w, "Could not complete sign-in", http.StatusBadGateway)
		return
	}

	id, err := a.fetchIdentity(ctx, tok)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to fetch user identity", "error", err)
		http.Error(w, "Could not complete sign-in", http.StatusBadGateway)
		return
	}

	if err := a.startSession(w, r, id, tok); err != nil {
		slog.ErrorContext(r.Context(), "Failed to create session", "error", err)
		http.Error(w, "Could not complete sign-in", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, ls.ReturnTo, http.StatusSeeOther)
}

func (a *Authenticator) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(CookieName); err == nil {
		if err := a.sessions.Delete(r.Context(), c.Value); err != nil {
			slog.WarnContext(r.Context(), "Failed to delete session", "error", err)
		}
	}
	a.clearCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *Authenticator) startSession(w http.ResponseWriter, r *http.Request, id Identity, tok *oauth2.Token) error {
	sess, err := a.sessions.Create(r.Context(), id.Subject, id.Email, id.Name, tok)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(a.cookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   a.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	slog.InfoContext(r.Context(), "User signed in", "subject", id.Subject, "mode", a.mode)
	return nil
}

func (a *Authenticator) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

type userInfo struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// fetchIdentity reads the OIDC userinfo endpoint, falling back to a "sub"
// claim returned alongside the token.
func (a *Authenticator) fetchIdentity(ctx context.Context, tok *oauth2.Token) (Identity, error) {
	if a.userInfoURL == "" {
		sub, _ := tok.Extra("sub").(string)
		if sub == "" {
			return Identity{}, ErrNoSubject
		}
		email, _ := tok.Extra("email").(string)
		return Identity{Subject: sub, Email: email}, nil
	}

	client := a.oauth.Client(ctx, tok)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.userInfoURL, nil)
	if err != nil {
		return Identity{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("userinfo request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Identity{}, fmt.Errorf("read userinfo: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Identity{}, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var info userInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return Identity{}, fmt.Errorf("decode userinfo: %w", err)
	}
	if info.Sub == "" {
		return Identity{}, ErrNoSubject
	}
	return Identity{Subject: info.Sub, Email: info.Email, Name: info.Name}, nil
}

// SafeReturnTo keeps post-login redirects on this site.
func SafeReturnTo(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "/"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return "/"
	}
	return raw
}
