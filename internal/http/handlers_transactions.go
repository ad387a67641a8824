package http

import (
	"net/http"
	"net/url"
	"strings"

	"budgetwise/internal/core"
	applog "budgetwise/internal/log"
	"budgetwise/internal/services"
)

type transactionsPage struct {
	page
	Query        queryView
	Transactions []core.Transaction
	Types        []option
	Expense      []option
	Income       []option
	Currencies   []option
	Today        string
}

type queryView struct {
	Text string
	Date string
	Type string
}

type transactionRows struct {
	Transactions []core.Transaction
	Query        queryView
	Error        string
}

func parseQuery(values url.Values) (services.Query, queryView) {
	v := queryView{
		Text: sanitizeInput(values.Get("q")),
		Date: sanitizeInput(values.Get("date")),
		Type: strings.ToUpper(sanitizeInput(values.Get("type"))),
	}
	q := services.Query{Text: v.Text, DatePrefix: v.Date}
	if t, err := core.ParseTransactionType(v.Type); err == nil {
		q.Type = t
	} else {
		v.Type = ""
	}
	return q, v
}

func typeOptions(selected string) []option {
	return []option{
		{Value: "", Label: "All", Selected: selected == ""},
		{Value: string(core.Income), Label: core.Income.Label(), Selected: selected == string(core.Income)},
		{Value: string(core.Expense), Label: core.Expense.Label(), Selected: selected == string(core.Expense)},
	}
}

func (s *Server) handleTransactionsPage(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r)
	if !ok {
		s.reauthenticate(w, r)
		return
	}

	q, qv := parseQuery(r.URL.Query())
	now := s.svc.Now()
	data := transactionsPage{
		page:       s.newPage(r, "Transactions", "transactions"),
		Query:      qv,
		Types:      typeOptions(qv.Type),
		Expense:    expenseCategoryOptions(""),
		Income:     incomeCategoryOptions(),
		Currencies: currencyOptions(),
		Today:      core.NewDate(now.Year(), int(now.Month()), now.Day()).String(),
	}
	txs, err := s.svc.TransactionsPage(r.Context(), u, q)
	if s.loadFailed(w, r, "list_transactions", err, &data.page) {
		return
	}
	data.Transactions = txs
	s.writeTemplate(w, r, http.StatusOK, "transactions", data)
}

// handleTransactionList renders only the table body, for search and for
// reloads after a change.
func (s *Server) handleTransactionList(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r)
	if !ok {
		s.reauthenticate(w, r)
		return
	}

	q, qv := parseQuery(r.URL.Query())
	data := transactionRows{Query: qv}
	txs, err := s.svc.TransactionsPage(r.Context(), u, q)
	if err != nil {
		status := statusFor(err)
		s.logFailure(r, "list_transactions", err, status)
		if status == http.StatusUnauthorized {
			s.reauthenticate(w, r)
			return
		}
		data.Error = messageFor(err)
	}
	data.Transactions = txs
	s.writeTemplate(w, r, http.StatusOK, "transaction-rows", data)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r)
	if !ok {
		s.reauthenticate(w, r)
		return
	}

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Could not read the submitted form.").Write(w)
		return
	}

	tx, err := services.ParseTransaction(services.TransactionInput{
		Type:        parser.Get("type"),
		Category:    parser.Get("category"),
		Amount:      parser.Get("amount"),
		Currency:    parser.Get("currency"),
		Date:        parser.Get("date"),
		Description: parser.Get("description"),
	})
	if err != nil {
		s.writeError(w, r, "create_transaction", err)
		return
	}

	created, err := s.svc.CreateTransaction(r.Context(), u, tx)
	if err != nil {
		s.writeError(w, r, "create_transaction", err)
		return
	}
	s.appMetrics.transactionsCreated.Add(1)
	s.logger.InfoContext(r.Context(), "Transaction created",
		applog.FieldOperation, "create_transaction",
		applog.FieldRecordID, created.ID,
		applog.FieldCategory, created.Category,
		applog.FieldAmount, created.Amount.String())

	NewHTMXResponse().
		Status(http.StatusCreated).
		TriggerChanged(EventTransactionsChanged, created.Date.Period().String()).
		TriggerFormReset().
		TriggerSuccessNotification(created.Type.Label() + " of " + created.Amount.Format() + " added").
		Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r)
	if !ok {
		s.reauthenticate(w, r)
		return
	}
	id, err := ParseID(r)
	if err != nil {
		BadRequestError("Invalid transaction id.").Write(w)
		return
	}

	if err := s.svc.DeleteTransaction(r.Context(), u, id); err != nil {
		s.writeError(w, r, "delete_transaction", err)
		return
	}
	s.appMetrics.recordsDeleted.Add(1)

	// An empty 200 lets htmx swap the row away.
	NewHTMXResponse().
		TriggerChanged(EventTransactionsChanged, "").
		TriggerSuccessNotification("Transaction deleted").
		Write(w)
}
