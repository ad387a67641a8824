package http

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"budgetwise/internal/api"
	"budgetwise/internal/auth"
	applog "budgetwise/internal/log"
	"budgetwise/internal/reconcile"
	"budgetwise/internal/services"
)

var errTemplatesNotLoaded = errors.New("templates not loaded")

// sanitizeInput trims s and drops control characters other than tab and
// newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// currentUser returns the service user of the signed-in request. The auth
// middleware guarantees one on every protected route.
func currentUser(r *http.Request) (services.User, bool) {
	u, ok := auth.UserFrom(r.Context())
	if !ok {
		return services.User{}, false
	}
	return services.User{Subject: u.Principal.Subject, Backend: u.Backend}, true
}

// statusFor maps an error from the service layer to a response status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, reconcile.ErrLocked), errors.Is(err, reconcile.ErrSubmitInFlight):
		return http.StatusConflict
	case errors.Is(err, reconcile.ErrNoAmount), services.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrSheetsDisabled):
		return http.StatusNotImplemented
	}
	switch api.KindOf(err) {
	case api.KindSession, api.KindNetwork, api.KindCanceled:
		return http.StatusServiceUnavailable
	case api.KindAuth:
		return http.StatusUnauthorized
	case api.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

// messageFor returns the text shown to the user for err.
func messageFor(err error) string {
	switch {
	case errors.Is(err, reconcile.ErrLocked):
		return "A record already exists for this period. Use Edit to change it."
	case errors.Is(err, reconcile.ErrSubmitInFlight):
		return "A save is already in progress."
	case errors.Is(err, reconcile.ErrNoAmount):
		return "Enter an amount."
	case errors.Is(err, services.ErrSheetsDisabled):
		return "Google Sheets export is not configured."
	case services.IsValidation(err) && api.KindOf(err) != api.KindValidation:
		return capitalize(err.Error())
	}
	return api.UserMessage(err)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// loginURL is the sign-in address that returns to the current page.
func loginURL(r *http.Request) string {
	target := r.URL.RequestURI()
	if cur := r.Header.Get("HX-Current-URL"); isHTMX(r) && cur != "" {
		if u, err := url.Parse(cur); err == nil {
			target = u.RequestURI()
		}
	}
	return "/login?return_to=" + url.QueryEscape(target)
}

// reauthenticate sends the user back to sign-in when the backend rejected
// the session's token.
func (s *Server) reauthenticate(w http.ResponseWriter, r *http.Request) {
	if isHTMX(r) {
		NewHTMXResponse().Status(http.StatusUnauthorized).Redirect(loginURL(r)).Write(w)
		return
	}
	http.Redirect(w, r, loginURL(r), http.StatusSeeOther)
}

// writeError answers a failed mutation with a notification. State on the
// page is left as it was.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	s.logFailure(r, op, err, status)
	if status == http.StatusUnauthorized {
		s.reauthenticate(w, r)
		return
	}
	b := NewHTMXResponse().Status(status).TriggerErrorNotification(messageFor(err))
	if status == http.StatusServiceUnavailable {
		b.Header("Retry-After", "5")
	}
	b.Write(w)
}

func (s *Server) logFailure(r *http.Request, op string, err error, status int) {
	args := []any{
		applog.FieldOperation, op,
		applog.FieldError, err,
		applog.FieldErrorKind, api.KindOf(err).String(),
		applog.FieldStatusCode, status,
	}
	if status >= 500 {
		s.appMetrics.backendErrors.Add(1)
		s.logger.ErrorContext(r.Context(), "Request failed", args...)
		return
	}
	if status == http.StatusConflict {
		s.appMetrics.conflicts.Add(1)
	}
	s.logger.WarnContext(r.Context(), "Request rejected", args...)
}
