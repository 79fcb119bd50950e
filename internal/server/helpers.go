package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/bobmcallan/corebank/internal/models"
)

// ErrorResponse is the standard error format for REST API responses.
type ErrorResponse struct {
	Status string `json:"status"`
	Code   string `json:"code,omitempty"`
	Error  string `json:"error"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Status: "error", Error: message})
}

// WriteErrorWithCode writes a JSON error response with an error code.
func WriteErrorWithCode(w http.ResponseWriter, statusCode int, message, code string) {
	WriteJSON(w, statusCode, ErrorResponse{Status: "error", Error: message, Code: code})
}

// WriteDomainError maps a service error to its HTTP status and writes
// the standard error body.
func WriteDomainError(w http.ResponseWriter, err error) {
	code := models.CodeOf(err)
	WriteErrorWithCode(w, statusForCode(code), messageOf(err), string(code))
}

// statusForCode maps stable error codes onto HTTP statuses.
func statusForCode(code models.ErrorCode) int {
	switch code {
	case models.CodeUnauthenticated:
		return http.StatusUnauthorized
	case models.CodeForbidden:
		return http.StatusForbidden
	case models.CodeNotFound:
		return http.StatusNotFound
	case models.CodeValidation, models.CodeRTGSClosed, models.CodeRTGSBelowMin,
		models.CodeInsufficientFunds, models.CodeMinBalanceBreach, models.CodeAccountNotActive:
		return http.StatusBadRequest
	case models.CodeInvalidUserState, models.CodeInvalidBeneficiaryState,
		models.CodeInvalidEFTState, models.CodeConflict:
		return http.StatusConflict
	case models.CodeExternalFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// messageOf returns the caller-visible message, hiding internals.
func messageOf(err error) string {
	var de *models.Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// RequireMethod validates the HTTP method and returns true if it matches.
// If it doesn't match, it writes a 405 response and returns false.
func RequireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	return false
}

// DecodeJSON reads and decodes JSON from the request body into v.
// Returns false and writes a 400 error if decoding fails.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil {
		WriteError(w, http.StatusBadRequest, "Request body is required")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return false
	}
	return true
}

// PathParam extracts a path parameter from the URL path.
// For a pattern like /admin/approve-user/{id}, calling
// PathParam(r, "/admin/approve-user/", "") extracts the {id} part.
func PathParam(r *http.Request, prefix, suffix string) string {
	path := r.URL.Path
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	rest := path[len(prefix):]
	if suffix != "" {
		idx := strings.Index(rest, suffix)
		if idx < 0 {
			return rest
		}
		return rest[:idx]
	}
	// No suffix — return up to the next /
	if idx := strings.Index(rest, "/"); idx >= 0 {
		return rest[:idx]
	}
	return rest
}
