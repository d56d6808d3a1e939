package utils

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"

	apierrors "github.com/nurpratapkarki/realEstateWeb/pkg/errors"
)

// PanicRecoveryMiddleware is an HTTP middleware that recovers from panics.
// It logs the error and stack trace, then returns a 500 Internal Server Error.
func PanicRecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("handler panic recovered", "error", err, "path", r.URL.Path, "stack", string(debug.Stack()))
				RespondWithAPIError(w, r, apierrors.InternalError("Internal Server Error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// PathSegments splits the path remaining after prefix into its non-empty parts
func PathSegments(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

// ParseID parses a path segment as a positive numeric identifier
func ParseID(raw, resource string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apierrors.NotFoundError(resource)
	}
	return uint(id), nil
}

// ParseOptionalBool parses a query flag; an empty value yields nil
func ParseOptionalBool(r *http.Request, param string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(param))
	if raw == "" {
		return nil, nil
	}
	switch strings.ToLower(raw) {
	case "true", "1", "yes", "on":
		v := true
		return &v, nil
	case "false", "0", "no", "off":
		v := false
		return &v, nil
	}
	return nil, apierrors.InvalidConstraintError(param, param+" must be a boolean")
}
