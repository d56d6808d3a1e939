package services

import (
	"log/slog"

	apierrors "github.com/nurpratapkarki/realEstateWeb/pkg/errors"
	"github.com/nurpratapkarki/realEstateWeb/v1/models"
)

// requirePermission is the single gate every service operation goes through.
// The caller's role always comes from models.ResolveRole.
func requirePermission(identity *models.Identity, permission models.Permission) error {
	role := models.ResolveRole(identity)
	if role.HasPermission(permission) {
		return nil
	}

	slog.Warn("Permission denied", "role", role, "permission", permission, "userID", actorID(identity))
	return apierrors.ForbiddenError()
}

// requireAuthenticated rejects anonymous callers with 401 before checking the permission
func requireAuthenticated(identity *models.Identity, permission models.Permission) error {
	if identity == nil {
		return apierrors.UnauthorizedError(apierrors.MessageUnauthenticated)
	}
	return requirePermission(identity, permission)
}

func isAdmin(identity *models.Identity) bool {
	return models.ResolveRole(identity) == models.RoleAdmin
}

func actorID(identity *models.Identity) uint {
	if identity == nil {
		return 0
	}
	return identity.UserID
}
