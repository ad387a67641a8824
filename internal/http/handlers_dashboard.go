package http

import (
	"net/http"

	"budgetwise/internal/api"
	"budgetwise/internal/services"
)

type dashboardPage struct {
	page
	View   services.DashboardView
	Advice advicePanel
}

// loadFailed handles a failed page load: an expired token goes back to
// sign-in, anything else renders the page with a notice in place of the
// data.
func (s *Server) loadFailed(w http.ResponseWriter, r *http.Request, op string, err error, p *page) bool {
	if err == nil {
		return false
	}
	status := statusFor(err)
	s.logFailure(r, op, err, status)
	if api.KindOf(err) == api.KindAuth {
		s.reauthenticate(w, r)
		return true
	}
	p.Error = messageFor(err)
	return false
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	u, ok := currentUser(r)
	if !ok {
		s.reauthenticate(w, r)
		return
	}

	data := dashboardPage{page: s.newPage(r, "Dashboard", "dashboard")}
	view, err := s.svc.Dashboard(r.Context(), u)
	if s.loadFailed(w, r, "dashboard", err, &data.page) {
		return
	}
	data.View = view
	s.writeTemplate(w, r, http.StatusOK, "dashboard", data)
}

type advicePanel struct {
	Advice string
	Error  string
}

// handleAdvice asks the backend for spending advice. It can take a while,
// so the panel shows a spinner until this returns.
func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r)
	if !ok {
		s.reauthenticate(w, r)
		return
	}

	advice, err := s.svc.Advice(r.Context(), u)
	if err != nil {
		status := statusFor(err)
		s.logFailure(r, "advice", err, status)
		if status == http.StatusUnauthorized {
			s.reauthenticate(w, r)
			return
		}
		s.writeTemplate(w, r, http.StatusOK, "advice", advicePanel{Error: messageFor(err)})
		return
	}
	s.writeTemplate(w, r, http.StatusOK, "advice", advicePanel{Advice: advice})
}
