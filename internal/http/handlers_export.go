package http

import (
	"net/http"
	"strconv"
	"time"

	applog "budgetwise/internal/log"
)

const csvFilename = "budgetwise_report.csv"

// handleExportCSV streams the backend's CSV report as a download.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r)
	if !ok {
		s.reauthenticate(w, r)
		return
	}

	data, err := s.svc.ExportCSV(r.Context(), u)
	if err != nil {
		status := statusFor(err)
		s.logFailure(r, "export_csv", err, status)
		if status == http.StatusUnauthorized {
			s.reauthenticate(w, r)
			return
		}
		http.Error(w, messageFor(err), status)
		return
	}

	s.logger.InfoContext(r.Context(), "CSV exported",
		applog.FieldOperation, "export_csv",
		"bytes", len(data))

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+csvFilename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Last-Modified", s.svc.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleExportSheets writes the user's transactions to Google Sheets.
func (s *Server) handleExportSheets(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r)
	if !ok {
		s.reauthenticate(w, r)
		return
	}

	start := time.Now()
	ref, err := s.svc.ExportSheets(r.Context(), u)
	if err != nil {
		s.writeError(w, r, "export_sheets", err)
		return
	}
	s.logger.InfoContext(r.Context(), "Sheets export finished",
		applog.FieldOperation, "export_sheets",
		"range", ref,
		applog.FieldDuration, time.Since(start).Milliseconds())

	NewHTMXResponse().
		TriggerSuccessNotification("Exported to Google Sheets (" + ref + ")").
		Write(w)
}
