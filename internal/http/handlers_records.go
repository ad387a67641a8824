package http

import (
	"net/http"
	"net/url"
	"strings"

	"budgetwise/internal/core"
	applog "budgetwise/internal/log"
	"budgetwise/internal/reconcile"
	"budgetwise/internal/services"
)

type budgetsPage struct {
	page
	View   services.BudgetsView
	Filter recordFilterView
	Form   formView
}

type budgetList struct {
	View   services.BudgetsView
	Filter recordFilterView
	Error  string
}

type savingsPage struct {
	page
	View   services.SavingsView
	Filter recordFilterView
	Form   formView
}

type savingsList struct {
	View   services.SavingsView
	Filter recordFilterView
	Error  string
}

// parseRecordFilter reads the list filter. A malformed month or year is
// ignored rather than failing the list.
func (s *Server) parseRecordFilter(values url.Values, withCategory bool) services.RecordFilter {
	var f services.RecordFilter
	if withCategory {
		if c := sanitizeInput(values.Get("category")); c != "" {
			if _, ok := core.ParseExpenseCategory(c); ok {
				f.Category = c
			}
		}
	}
	if p, err := ParseOptionalPeriod(values, s.svc.Now()); err == nil {
		f.Period = p
	}
	return f
}

// formFor positions a record form. A failed fetch leaves the form disabled
// with the reason, since without the records the lock cannot be known.
func (s *Server) formFor(r *http.Request, kind string, key reconcile.Key, load func() (reconcile.Form, error)) (formView, bool) {
	form, err := load()
	if err != nil {
		status := statusFor(err)
		s.logFailure(r, "load_"+kind+"_form", err, status)
		if status == http.StatusUnauthorized {
			return formView{}, false
		}
		v := newFormView(kind, key, reconcile.Form{}, s.svc.Now())
		v.Editable = false
		v.CanSubmit = false
		v.Error = messageFor(err)
		return v, true
	}
	return newFormView(kind, key, form, s.svc.Now()), true
}

func (s *Server) handleBudgetsPage(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r)
	if !ok {
		s.reauthenticate(w, r)
		return
	}

	values := r.URL.Query()
	filter := s.parseRecordFilter(values, true)
	key, err := ParseBudgetKey(values, s.svc.Now())
	if err != nil {
		key = reconcile.BudgetKey(DefaultBudgetCategory, core.CurrentPeriod(s.svc.Now()))
	}

	data := budgetsPage{
		page:   s.newPage(r, "Budgets", "budgets"),
		Filter: newRecordFilterView(filter, s.svc.Now()),
	}
	view, err := s.svc.BudgetsPage(r.Context(), u, filter)
	if s.loadFailed(w, r, "list_budgets", err, &data.page) {
		return
	}
	data.View = view
	if data.Error == "" {
		form, ok := s.formFor(r, kindBudgets, key, func() (reconcile.Form, error) {
			return s.svc.BudgetForm(r.Context(), u, key, formMode(values))
		})
		if !ok {
			s.reauthenticate(w, r)
			return
		}
		data.Form = form
	}
	s.writeTemplate(w, r, http.StatusOK, "budgets", data)
}

func (s *Server) handleBudgetList(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r)
	if !ok {
		s.reauthenticate(w, r)
		return
	}

	filter := s.parseRecordFilter(r.URL.Query(), true)
	data := budgetList{Filter: newRecordFilterView(filter, s.svc.Now())}
	view, err := s.svc.BudgetsPage(r.Context(), u, filter)
	if err != nil {
		status := statusFor(err)
		s.logFailure(r, "list_budgets", err, status)
		if status == http.StatusUnauthorized {
			s.reauthenticate(w, r)
			return
		}
		data.Error = messageFor(err)
	}
	data.View = view
	s.writeTemplate(w, r, http.StatusOK, "budget-list", data)
}

// handleBudgetForm re-positions the form when the category or period
// selection changes, or when the user asks to edit a locked record.
func (s *Server) handleBudgetForm(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r)
	if !ok {
		s.reauthenticate(w, r)
		return
	}

	values := r.URL.Query()
	key, err := ParseBudgetKey(values, s.svc.Now())
	if err != nil {
		UnprocessableEntityError(messageFor(err)).Write(w)
		return
	}
	form, ok := s.formFor(r, kindBudgets, key, func() (reconcile.Form, error) {
		return s.svc.BudgetForm(r.Context(), u, key, formMode(values))
	})
	if !ok {
		s.reauthenticate(w, r)
		return
	}
	s.writeTemplate(w, r, http.StatusOK, "budget-form", form)
}

func (s *Server) handleSaveBudget(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r)
	if !ok {
		s.reauthenticate(w, r)
		return
	}

	values, err := s.formValues(w, r)
	if err != nil {
		BadRequestError("Could not read the submitted form.").Write(w)
		return
	}
	key, err := ParseBudgetKey(values, s.svc.Now())
	if err != nil {
		s.writeError(w, r, "save_budget", err)
		return
	}

	load := func(mode reconcile.Mode) (reconcile.Form, error) {
		return s.svc.BudgetForm(r.Context(), u, key, mode)
	}
	s.saveRecord(w, r, kindBudgets, key, values, load, func(amount core.Money, wantEdit bool) (reconcile.Form, string, error) {
		saved, form, err := s.svc.SaveBudget(r.Context(), u, key, amount, wantEdit)
		if err != nil {
			return form, "", err
		}
		return form, saved.Category + " budget for " + saved.Period().Label() + " saved", nil
	})
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r)
	if !ok {
		s.reauthenticate(w, r)
		return
	}
	id, err := ParseID(r)
	if err != nil {
		BadRequestError("Invalid budget id.").Write(w)
		return
	}
	if err := s.svc.DeleteBudget(r.Context(), u, id); err != nil {
		s.writeError(w, r, "delete_budget", err)
		return
	}
	s.appMetrics.recordsDeleted.Add(1)
	NewHTMXResponse().
		TriggerChanged(EventBudgetsChanged, "").
		TriggerSuccessNotification("Budget deleted").
		Write(w)
}

func (s *Server) handleSavingsPage(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r)
	if !ok {
		s.reauthenticate(w, r)
		return
	}

	values := r.URL.Query()
	filter := s.parseRecordFilter(values, false)
	key, err := ParseSavingsKey(values, s.svc.Now())
	if err != nil {
		key = reconcile.SavingsKey(core.CurrentPeriod(s.svc.Now()))
	}

	data := savingsPage{
		page:   s.newPage(r, "Savings", "savings"),
		Filter: newRecordFilterView(filter, s.svc.Now()),
	}
	view, err := s.svc.SavingsPage(r.Context(), u, filter)
	if s.loadFailed(w, r, "list_savings", err, &data.page) {
		return
	}
	data.View = view
	if data.Error == "" {
		form, ok := s.formFor(r, kindSavings, key, func() (reconcile.Form, error) {
			return s.svc.SavingsForm(r.Context(), u, key, formMode(values))
		})
		if !ok {
			s.reauthenticate(w, r)
			return
		}
		data.Form = form
	}
	s.writeTemplate(w, r, http.StatusOK, "savings", data)
}

func (s *Server) handleSavingsList(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r)
	if !ok {
		s.reauthenticate(w, r)
		return
	}

	filter := s.parseRecordFilter(r.URL.Query(), false)
	data := savingsList{Filter: newRecordFilterView(filter, s.svc.Now())}
	view, err := s.svc.SavingsPage(r.Context(), u, filter)
	if err != nil {
		status := statusFor(err)
		s.logFailure(r, "list_savings", err, status)
		if status == http.StatusUnauthorized {
			s.reauthenticate(w, r)
			return
		}
		data.Error = messageFor(err)
	}
	data.View = view
	s.writeTemplate(w, r, http.StatusOK, "savings-list", data)
}

func (s *Server) handleSavingsForm(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r)
	if !ok {
		s.reauthenticate(w, r)
		return
	}

	values := r.URL.Query()
	key, err := ParseSavingsKey(values, s.svc.Now())
	if err != nil {
		UnprocessableEntityError(messageFor(err)).Write(w)
		return
	}
	form, ok := s.formFor(r, kindSavings, key, func() (reconcile.Form, error) {
		return s.svc.SavingsForm(r.Context(), u, key, formMode(values))
	})
	if !ok {
		s.reauthenticate(w, r)
		return
	}
	s.writeTemplate(w, r, http.StatusOK, "savings-form", form)
}

func (s *Server) handleSaveSavings(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r)
	if !ok {
		s.reauthenticate(w, r)
		return
	}

	values, err := s.formValues(w, r)
	if err != nil {
		BadRequestError("Could not read the submitted form.").Write(w)
		return
	}
	key, err := ParseSavingsKey(values, s.svc.Now())
	if err != nil {
		s.writeError(w, r, "save_savings", err)
		return
	}

	load := func(mode reconcile.Mode) (reconcile.Form, error) {
		return s.svc.SavingsForm(r.Context(), u, key, mode)
	}
	s.saveRecord(w, r, kindSavings, key, values, load, func(amount core.Money, wantEdit bool) (reconcile.Form, string, error) {
		saved, form, err := s.svc.SaveSavings(r.Context(), u, key, amount, wantEdit)
		if err != nil {
			return form, "", err
		}
		return form, "Savings target for " + saved.Period().Label() + " saved", nil
	})
}

func (s *Server) handleDeleteSavings(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r)
	if !ok {
		s.reauthenticate(w, r)
		return
	}
	id, err := ParseID(r)
	if err != nil {
		BadRequestError("Invalid savings id.").Write(w)
		return
	}
	if err := s.svc.DeleteSavings(r.Context(), u, id); err != nil {
		s.writeError(w, r, "delete_savings", err)
		return
	}
	s.appMetrics.recordsDeleted.Add(1)
	NewHTMXResponse().
		TriggerChanged(EventSavingsChanged, "").
		TriggerSuccessNotification("Savings target deleted").
		Write(w)
}

// formValues parses a bounded form body merged with the query string.
func (s *Server) formValues(w http.ResponseWriter, r *http.Request) (url.Values, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return r.Form, nil
}

// saveRecord runs a budget or savings submission and answers with the
// re-rendered form. Conflicts and validation problems come back as 409 and
// 422 with the form showing the error and the typed amount; other failures
// only raise a notification and leave the form on the page untouched.
// An amount rejected before the save still re-renders the form in the mode
// it was submitted from, positioned with load.
func (s *Server) saveRecord(w http.ResponseWriter, r *http.Request, kind string, key reconcile.Key, values url.Values,
	load func(mode reconcile.Mode) (reconcile.Form, error),
	save func(amount core.Money, wantEdit bool) (reconcile.Form, string, error),
) {
	op := "save_" + kind
	name := "budget-form"
	event := EventBudgetsChanged
	if kind == kindSavings {
		name = "savings-form"
		event = EventSavingsChanged
	}

	raw := sanitizeInput(values.Get("amount"))
	var (
		form    reconcile.Form
		message string
		err     error
	)
	if raw == "" {
		err = reconcile.ErrNoAmount
	} else {
		var amount core.Money
		amount, err = core.ParseAmount(raw)
		if err == nil {
			form, message, err = save(amount, wantsEdit(values))
		}
	}

	if err != nil {
		status := statusFor(err)
		if status != http.StatusConflict && status != http.StatusUnprocessableEntity {
			s.writeError(w, r, op, err)
			return
		}
		s.logFailure(r, op, err, status)

		// Rejected before the records were fetched.
		if form.Key() != key {
			loaded, lerr := load(formMode(values))
			if lerr != nil {
				s.writeError(w, r, op, lerr)
				return
			}
			form = loaded.ClearAmount()
		}
		v := newFormView(kind, key, form, s.svc.Now())
		if !v.Locked {
			v.Amount = raw
		}
		v.Error = messageFor(err)
		body, rerr := s.render(name, v)
		if rerr != nil {
			s.writeTemplate(w, r, status, name, v)
			return
		}
		NewHTMXResponse().
			Status(status).
			TriggerErrorNotification(v.Error).
			BodyHTML(string(body)).
			Write(w)
		return
	}

	s.appMetrics.recordsSaved.Add(1)
	s.logger.InfoContext(r.Context(), "Record saved",
		applog.FieldOperation, op,
		applog.FieldRecordKind, strings.TrimSuffix(kind, "s"),
		applog.FieldPeriod, key.Period.String())

	v := newFormView(kind, key, form, s.svc.Now())
	body, err := s.render(name, v)
	if err != nil {
		s.writeTemplate(w, r, http.StatusOK, name, v)
		return
	}
	NewHTMXResponse().
		TriggerChanged(event, key.Period.String()).
		TriggerSuccessNotification(message).
		BodyHTML(string(body)).
		Write(w)
}
