// This file implements parsing of request parameters shared by the
// handlers: periods, record selectors, ids and bodies that may arrive as
// JSON or form data.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"budgetwise/internal/core"
	"budgetwise/internal/reconcile"
)

// maxBodyBytes bounds form and JSON bodies.
const maxBodyBytes = 64 << 10

// DefaultBudgetCategory preselects the budget form's category.
const DefaultBudgetCategory = string(core.Food)

var errMissingID = errors.New("missing or invalid id")

// ParsePeriod reads month and year from values, defaulting each to the
// current one. Present but malformed values are errors.
func ParsePeriod(values url.Values, now time.Time) (core.Period, error) {
	p := core.CurrentPeriod(now)
	if v := strings.TrimSpace(values.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return core.Period{}, fmt.Errorf("%w: %q", core.ErrInvalidMonth, v)
		}
		p.Month = m
	}
	if v := strings.TrimSpace(values.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return core.Period{}, fmt.Errorf("%w: %q", core.ErrInvalidYear, v)
		}
		p.Year = y
	}
	if err := p.Validate(); err != nil {
		return core.Period{}, err
	}
	return p, nil
}

// ParseOptionalPeriod is ParsePeriod for list filters: with neither month
// nor year set it returns nil.
func ParseOptionalPeriod(values url.Values, now time.Time) (*core.Period, error) {
	if strings.TrimSpace(values.Get("month")) == "" && strings.TrimSpace(values.Get("year")) == "" {
		return nil, nil
	}
	p, err := ParsePeriod(values, now)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ParseBudgetKey reads the budget selector, defaulting to Food in the
// current month.
func ParseBudgetKey(values url.Values, now time.Time) (reconcile.Key, error) {
	p, err := ParsePeriod(values, now)
	if err != nil {
		return reconcile.Key{}, err
	}
	category := sanitizeInput(values.Get("category"))
	if category == "" {
		category = DefaultBudgetCategory
	}
	if _, ok := core.ParseExpenseCategory(category); !ok {
		return reconcile.Key{}, fmt.Errorf("%w: %q", core.ErrInvalidCategory, category)
	}
	return reconcile.BudgetKey(category, p), nil
}

func ParseSavingsKey(values url.Values, now time.Time) (reconcile.Key, error) {
	p, err := ParsePeriod(values, now)
	if err != nil {
		return reconcile.Key{}, err
	}
	return reconcile.SavingsKey(p), nil
}

// formMode reads the requested form mode: edit a locked record, cancel an
// edit, or plain view.
func formMode(values url.Values) reconcile.Mode {
	return reconcile.ParseMode(values.Get("mode"))
}

// wantsEdit reports whether a submission targets the edit mode of a locked
// form.
func wantsEdit(values url.Values) bool {
	return formMode(values) == reconcile.ModeEdit
}

// ParseID reads the {id} route parameter.
func ParseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errMissingID
	}
	return id, nil
}

// RequestBodyParser reads a body once and serves values from it whether it
// was sent as JSON or as form data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body as JSON when it looks like JSON, as form data
// otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if strings.Contains(p.contentType, "application/json") || trimmed[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(trimmed), &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	return p.err
}

// Get returns the sanitized value of key, or "".
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
