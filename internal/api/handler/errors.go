package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kiranshivaraju/contentgen/internal/ai"
	mw "github.com/kiranshivaraju/contentgen/internal/api/middleware"
	"github.com/kiranshivaraju/contentgen/internal/api/response"
	"github.com/kiranshivaraju/contentgen/internal/store"
)

const maxBodyBytes = 1 << 20

// fieldErrors collects per-field validation messages for the error details.
type fieldErrors map[string]string

func (f fieldErrors) add(field, format string, args ...any) {
	if _, ok := f[field]; !ok {
		f[field] = fmt.Sprintf(format, args...)
	}
}

// write reports whether there were errors, writing a 400 if so.
func (f fieldErrors) write(w http.ResponseWriter) bool {
	if len(f) == 0 {
		return false
	}
	response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Request validation failed", map[string]string(f))
	return true
}

// decodeBody decodes a JSON body into v, rejecting unknown trailing data.
// It writes the 400 itself and returns false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		msg := "Invalid JSON body"
		if errors.Is(err, io.EOF) {
			msg = "Request body is required"
		}
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", msg, nil)
		return false
	}
	return true
}

// resolveTenant applies tenant isolation and writes the error response itself.
func resolveTenant(w http.ResponseWriter, r *http.Request, requested string) (string, bool) {
	tenant, err := mw.ResolveTenant(r, strings.TrimSpace(requested))
	switch {
	case err == nil:
		return tenant, true
	case errors.Is(err, mw.ErrTenantMismatch):
		response.Error(w, http.StatusForbidden, "TENANT_MISMATCH",
			"Access denied: resource belongs to different tenant", nil)
	default:
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Request validation failed",
			map[string]string{"tenant_id": "is required"})
	}
	return "", false
}

// writeServiceError maps generation and store errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, err error) {
	var upErr *ai.UpstreamError
	switch {
	case errors.Is(err, ai.ErrInferenceTimeout):
		response.Error(w, http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT",
			"The generation provider took too long and the request was cancelled", nil)
	case errors.As(err, &upErr):
		response.Error(w, http.StatusBadGateway, "UPSTREAM_ERROR", upErr.Error(), nil)
	case errors.Is(err, store.ErrNotFound):
		response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", "Job not found", nil)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error(), nil)
	}
}
