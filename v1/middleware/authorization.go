package middleware

import (
	"log/slog"
	"net/http"

	apierrors "github.com/nurpratapkarki/realEstateWeb/pkg/errors"
	"github.com/nurpratapkarki/realEstateWeb/v1/models"
	"github.com/nurpratapkarki/realEstateWeb/v1/utils"
)

// AuthorizationMiddleware gates route families listed in models.EndpointPermissions.
// Endpoints without an entry pass through; their services check permissions
// per operation.
type AuthorizationMiddleware struct{}

// NewAuthorizationMiddleware creates a new authorization middleware
func NewAuthorizationMiddleware() *AuthorizationMiddleware {
	return &AuthorizationMiddleware{}
}

// AuthorizeRequest returns a middleware function that checks caller permissions for endpoints
func (a *AuthorizationMiddleware) AuthorizeRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpointPermission, found := utils.FindEndpointPermission(r.Method, r.URL.Path)
		if !found {
			next.ServeHTTP(w, r)
			return
		}

		identity := utils.GetIdentity(r.Context())
		role := models.ResolveRole(identity)

		if role == models.RoleAnonymous && endpointPermission.AuthenticationRequired {
			slog.Warn("Authorization failed: caller not authenticated", "path", r.URL.Path, "method", r.Method)
			utils.RespondWithAPIError(w, r, apierrors.UnauthorizedError(apierrors.MessageUnauthenticated))
			return
		}

		if !role.HasPermission(endpointPermission.Permission) {
			slog.Warn("Access denied: insufficient permissions",
				"role", role,
				"required_permission", endpointPermission.Permission,
				"path", r.URL.Path,
				"method", r.Method)
			utils.RespondWithAPIError(w, r, apierrors.ForbiddenError())
			return
		}

		next.ServeHTTP(w, r)
	})
}
