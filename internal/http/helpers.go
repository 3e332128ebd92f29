package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-kvcms/internal/contenttypes"
	"github.com/goliatone/go-kvcms/internal/objectstore"
	"github.com/goliatone/go-kvcms/pkg/interfaces"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

type valuePayload struct {
	Value map[string]any `json:"value"`
}

type updatesPayload struct {
	Updates map[string]any `json:"updates"`
}

type queryPayload struct {
	Query string `json:"query"`
}

func joinPath(base, suffix string) string {
	trimmedBase := strings.TrimSpace(base)
	trimmedSuffix := strings.TrimSpace(suffix)
	if trimmedBase == "" || trimmedBase == "/" {
		if trimmedSuffix == "" {
			return "/"
		}
		return "/" + strings.Trim(trimmedSuffix, "/")
	}
	baseClean := "/" + strings.Trim(trimmedBase, "/")
	if trimmedSuffix == "" {
		return baseClean
	}
	return baseClean + "/" + strings.Trim(trimmedSuffix, "/")
}

// decodeJSON reads the request body into target. An empty body leaves
// target untouched so handlers can report the missing field themselves.
func decodeJSON(r *http.Request, target any) error {
	if r == nil || r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeNotFound(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: message})
}

func writeUnavailable(w http.ResponseWriter) {
	writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
}

// writeError maps err to a response and logs server-side failures.
func writeError(w http.ResponseWriter, logger interfaces.Logger, r *http.Request, err error) {
	status, payload := mapError(err)
	if logger != nil {
		entry := logger.WithContext(r.Context())
		if status >= http.StatusInternalServerError {
			entry.Error("http.request_failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
		} else {
			entry.Debug("http.request_rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
		}
	}
	writeJSON(w, status, payload)
}

func mapError(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{Error: "unknown_error"}
	}

	code := ""
	var tagged *goerrors.Error
	if errors.As(err, &tagged) {
		code = tagged.TextCode
	}

	var notFound *objectstore.NotFoundError
	if errors.As(err, &notFound) || goerrors.IsCategory(err, goerrors.CategoryNotFound) {
		return http.StatusNotFound, errorResponse{Error: "not_found", Message: err.Error(), Code: code}
	}

	switch {
	case goerrors.IsCategory(err, goerrors.CategoryBadInput),
		errors.Is(err, contenttypes.ErrValueRequired):
		return http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error(), Code: code}
	case goerrors.IsCategory(err, goerrors.CategoryValidation):
		return http.StatusBadRequest, errorResponse{Error: "validation_failed", Message: err.Error(), Code: code}
	case errors.Is(err, interfaces.ErrObjectExists):
		return http.StatusConflict, errorResponse{Error: "conflict", Message: err.Error()}
	}

	return http.StatusInternalServerError, errorResponse{
		Error:   "internal_error",
		Message: err.Error(),
	}
}

func parseBoolQuery(value string, defaultValue bool) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return defaultValue
	}
	return parsed
}
