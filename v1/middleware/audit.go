package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nurpratapkarki/realEstateWeb/v1/models"
	"github.com/nurpratapkarki/realEstateWeb/v1/utils"
)

// AuditLoggingMiddleware logs every write operation with the caller's
// resolved role and outcome. Denied writes are logged at Warn.
func AuditLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		responseWrapper := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(responseWrapper, r)

		if !isWriteOperation(r.Method) {
			return
		}

		// Identity is attached by the JWT middleware further down the chain,
		// so read it from the captured request.
		identity := responseWrapper.identity
		var actorID uint
		if identity != nil {
			actorID = identity.UserID
		}

		attrs := []any{
			"eventType", determineEventType(r.Method),
			"resource", targetResource(r.URL.Path),
			"path", r.URL.Path,
			"actorID", actorID,
			"role", models.ResolveRole(identity),
			"status", responseWrapper.statusCode,
			"requestID", utils.GetRequestID(r.Context()),
			"clientIP", utils.GetRequestIP(r),
			"duration", time.Since(startTime),
		}

		switch {
		case responseWrapper.statusCode == http.StatusForbidden || responseWrapper.statusCode == http.StatusUnauthorized:
			slog.Warn("Write operation denied", attrs...)
		case responseWrapper.statusCode >= 400:
			slog.Info("Write operation failed", attrs...)
		default:
			slog.Info("Write operation succeeded", attrs...)
		}
	})
}

// CaptureIdentity records the identity resolved for the request on the audit
// response writer. It must run after AuthenticateJWT.
func CaptureIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rw, ok := w.(*responseWriter); ok {
			rw.identity = utils.GetIdentity(r.Context())
		}
		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
	identity    *models.Identity
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

func isWriteOperation(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch || method == http.MethodDelete
}

func determineEventType(method string) string {
	switch method {
	case http.MethodPost:
		return "CREATE"
	case http.MethodPut, http.MethodPatch:
		return "UPDATE"
	case http.MethodDelete:
		return "DELETE"
	default:
		return ""
	}
}

// targetResource names the resource family of an API path, e.g. "properties"
func targetResource(path string) string {
	parts := utils.PathSegments(path, "/api/v1")
	if len(parts) == 0 {
		return ""
	}
	if (parts[0] == "admin" || parts[0] == "customer") && len(parts) > 1 {
		return parts[0] + "/" + parts[1]
	}
	return strings.ToLower(parts[0])
}
