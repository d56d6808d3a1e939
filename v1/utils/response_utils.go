package utils

import (
	"encoding/json"
	"log/slog"
	"net/http"

	apierrors "github.com/nurpratapkarki/realEstateWeb/pkg/errors"
)

// RespondWithError sends an error response
func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResponse := map[string]interface{}{
		"error": message,
		"code":  http.StatusText(statusCode),
	}

	if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode success response", "error", err)
	}
}

// RespondWithAPIError renders err as a structured error response. Errors that
// are not APIErrors are logged and reported as internal errors without leaking
// their text to the client.
func RespondWithAPIError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := apierrors.GetAPIError(err)
	if apiErr == nil {
		slog.Error("Unhandled error", "error", err, "path", r.URL.Path, "method", r.Method)
		apiErr = apierrors.InternalError("An unexpected error occurred")
	} else if apiErr.HTTPStatus >= http.StatusInternalServerError {
		slog.Error("Request failed", "error", apiErr, "cause", apiErr.InternalErr, "path", r.URL.Path, "method", r.Method)
	}

	status := apiErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(apierrors.NewErrorResponse(apiErr, GetRequestID(r.Context()))); encErr != nil {
		slog.Error("Failed to encode error response", "error", encErr)
	}
}

// DecodeJSONBody decodes the request body into target, rejecting unknown fields
func DecodeJSONBody(r *http.Request, target interface{}) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return apierrors.ValidationErrorWithDetails("INVALID_REQUEST_BODY", "Invalid request body", err.Error())
	}
	return nil
}
