package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/walletledger/backend/internal/middleware"
	"github.com/walletledger/backend/internal/services"
	"go.uber.org/zap"
)

const maxBodyBytes = 1_048_576

// SuccessResponse wraps every successful payload.
type SuccessResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

// ErrorResponse represents error response structure
type ErrorResponse struct {
	Status  string            `json:"status"`
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

func SendJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(SuccessResponse{Status: "success", Data: data})
}

// SendErrorResponse sends a JSON error response
func SendErrorResponse(w http.ResponseWriter, message string, statusCode int, details map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Status: "fail", Error: message, Details: details})
}

// statusFor maps the service error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrWalletNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrEmailTaken), errors.Is(err, services.ErrStoreConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrStoreUnavailable), errors.Is(err, services.ErrSystemWalletUnderfunded):
		return http.StatusServiceUnavailable
	case services.IsClientError(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// SendServiceError renders a service error. Unclassified errors are logged
// and reported without their message.
func SendServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	var verr *services.ValidationError
	if errors.As(err, &verr) {
		details := make(map[string]string, len(verr.Fields))
		for field, tag := range verr.Fields {
			details[field] = "Field Validation Failed on '" + tag + "' tag"
		}
		SendErrorResponse(w, "Validation failed", status, details)
		return
	}

	switch status {
	case http.StatusInternalServerError:
		zap.L().Error("Request failed", zap.String("path", r.URL.Path), zap.Error(err))
		SendErrorResponse(w, "Internal server error", status, nil)
		return
	case http.StatusConflict, http.StatusServiceUnavailable:
		zap.L().Warn("Request failed", zap.String("path", r.URL.Path), zap.Error(err))
		if services.IsRetryable(err) {
			w.Header().Set("Retry-After", "1")
		}
	}
	SendErrorResponse(w, err.Error(), status, nil)
}

// decodeJSON reads exactly one JSON object from the body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}
	return true
}

func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	accountID, ok := middleware.AccountID(r.Context())
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
	}
	return accountID, ok
}

// pageRequest reads ?page and ?limit; absent values fall back to the defaults.
func pageRequest(r *http.Request) (services.PageRequest, error) {
	var req services.PageRequest
	for name, dst := range map[string]*int{"page": &req.Page, "limit": &req.Limit} {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, &services.ValidationError{Fields: map[string]string{name: "numeric"}}
		}
		*dst = n
	}
	return req, nil
}
