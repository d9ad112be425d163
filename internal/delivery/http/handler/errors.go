package handler

import (
	"errors"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Pesokrava/jewelry_store/internal/delivery/http/middleware"
	"github.com/Pesokrava/jewelry_store/internal/delivery/http/response"
	"github.com/Pesokrava/jewelry_store/internal/domain"
	"github.com/Pesokrava/jewelry_store/internal/pkg/logger"
)

// writeError maps a service error onto a status code and a client message.
// Anything unrecognised is logged in full and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, log *logger.Logger, resource string, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.Error(w, http.StatusNotFound, notFoundMessage(err, resource))
	case errors.Is(err, domain.ErrInvalidInput):
		response.Error(w, http.StatusBadRequest, detail(err, domain.ErrInvalidInput, "Invalid input"))
	case errors.Is(err, domain.ErrAlreadyExists):
		response.Error(w, http.StatusBadRequest, detail(err, domain.ErrAlreadyExists, "Resource already exists"))
	case errors.Is(err, domain.ErrConstraint):
		response.Error(w, http.StatusBadRequest, detail(err, domain.ErrConstraint, "Operation not allowed"))
	case errors.Is(err, domain.ErrForbidden):
		response.Error(w, http.StatusForbidden, detail(err, domain.ErrForbidden, "Not authorized"))
	case errors.Is(err, domain.ErrConflict):
		response.Error(w, http.StatusConflict, detail(err, domain.ErrConflict, "Conflict, please retry"))
	default:
		logger.FromContext(r.Context(), log).Errorf(err, "Internal error in %s handler", resource)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}

// detail returns the text a sentinel was wrapped with, e.g. "product already
// reviewed" out of "resource already exists: product already reviewed"
func detail(err, sentinel error, fallback string) string {
	msg := err.Error()
	marker := sentinel.Error() + ": "
	i := strings.LastIndex(msg, marker)
	if i < 0 {
		return fallback
	}
	text := strings.TrimSpace(msg[i+len(marker):])
	if text == "" {
		return fallback
	}
	return capitalize(text)
}

func notFoundMessage(err error, resource string) string {
	text := detail(err, domain.ErrNotFound, "")
	if text == "" {
		return capitalize(resource) + " not found"
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "not ") || strings.HasPrefix(lower, "malformed") {
		return text
	}
	return text + " not found"
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// caller returns the authenticated user id. Routes using it sit behind the
// auth middleware, so a missing identity is a wiring bug reported as 401.
func caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok || identity.UserID == "" {
		response.Error(w, http.StatusUnauthorized, "Not authorized")
		return "", false
	}
	return identity.UserID, true
}
