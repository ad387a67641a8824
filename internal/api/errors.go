package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrSessionNotReady means no bearer token is available yet. Callers
	// should defer the request rather than treat it as a failure.
	ErrSessionNotReady = errors.New("session not ready")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotFound        = errors.New("not found")
	// ErrNetwork wraps transport failures: the request never got a response.
	ErrNetwork = errors.New("network error")
	// ErrBodyTooLarge means the response exceeded the client's size cap.
	ErrBodyTooLarge = errors.New("response body too large")
)

// StatusError is a non-2xx response from the backend.
type StatusError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Is maps auth and missing-resource statuses onto the sentinel errors.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// IsValidation reports whether the backend rejected the request payload.
func (e *StatusError) IsValidation() bool {
	switch e.StatusCode {
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return true
	}
	return false
}

// springError is the default error body of the backend.
type springError struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func parseError(method, path string, status int, body []byte) *StatusError {
	e := &StatusError{StatusCode: status, Method: method, Path: path}
	var se springError
	if json.Unmarshal(body, &se) == nil {
		e.Message = se.Message
		if e.Message == "" {
			e.Message = se.Error
		}
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(string(body))
		if len(e.Message) > 200 {
			e.Message = e.Message[:200]
		}
	}
	return e
}

// Kind classifies an error for presentation.
type Kind int

const (
	KindNone Kind = iota
	KindSession
	KindAuth
	KindNotFound
	KindValidation
	KindNetwork
	KindCanceled
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindSession:
		return "session"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindNetwork:
		return "network"
	case KindCanceled:
		return "canceled"
	}
	return "server"
}

func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var se *StatusError
	switch {
	case errors.Is(err, ErrSessionNotReady):
		return KindSession
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.Is(err, ErrUnauthorized):
		return KindAuth
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.As(err, &se) && se.IsValidation():
		return KindValidation
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	}
	return KindServer
}

// UserMessage returns a short message suitable for a notification.
func UserMessage(err error) string {
	switch KindOf(err) {
	case KindNone:
		return ""
	case KindSession:
		return "Your session is still loading. Please try again in a moment."
	case KindAuth:
		return "Your session has expired. Please sign in again."
	case KindNotFound:
		return "That item no longer exists."
	case KindValidation:
		var se *StatusError
		if errors.As(err, &se) && se.Message != "" {
			return se.Message
		}
		return "The server rejected the request."
	case KindNetwork:
		return "Could not reach the server. Check your connection and retry."
	case KindCanceled:
		return "The request timed out. Please retry."
	}
	return "Something went wrong. Please retry."
}
