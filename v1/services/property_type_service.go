package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	apierrors "github.com/nurpratapkarki/realEstateWeb/pkg/errors"
	"github.com/nurpratapkarki/realEstateWeb/v1/models"
	"gorm.io/gorm/clause"
)

// ListPropertyTypes returns property types ordered by name. Inactive types are
// listed for administrators only.
func (s *CatalogService) ListPropertyTypes(ctx context.Context, identity *models.Identity) ([]models.PropertyType, error) {
	if err := requirePermission(identity, models.PermissionReadCatalog); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Order("name ASC")
	if !isAdmin(identity) {
		query = query.Where("is_active = ?", true)
	}

	var types []models.PropertyType
	if err := query.Find(&types).Error; err != nil {
		return nil, apierrors.DatabaseError("list property types", err)
	}
	return types, nil
}

// GetPropertyType returns a single property type
func (s *CatalogService) GetPropertyType(ctx context.Context, identity *models.Identity, id uint) (*models.PropertyType, error) {
	if err := requirePermission(identity, models.PermissionReadCatalog); err != nil {
		return nil, err
	}

	var propertyType models.PropertyType
	if err := s.db.WithContext(ctx).First(&propertyType, id).Error; err != nil {
		return nil, apierrors.HandleDatabaseError(err, "Property type", "get property type")
	}
	if !propertyType.IsActive && !isAdmin(identity) {
		return nil, apierrors.NotFoundError("Property type")
	}
	return &propertyType, nil
}

// CreatePropertyType adds a property type. Names are unique.
func (s *CatalogService) CreatePropertyType(ctx context.Context, identity *models.Identity, req *models.PropertyTypeRequest) (*models.PropertyType, error) {
	if err := requirePermission(identity, models.PermissionWritePropertyType); err != nil {
		return nil, err
	}
	if err := validatePropertyTypeRequest(req); err != nil {
		return nil, err
	}

	propertyType := models.PropertyType{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		IsActive:    req.IsActive == nil || *req.IsActive,
	}
	if err := s.db.WithContext(ctx).Create(&propertyType).Error; err != nil {
		return nil, apierrors.HandleDatabaseError(err, "Property type", "create property type")
	}

	slog.Info("Property type created", "propertyTypeID", propertyType.ID, "name", propertyType.Name)
	s.notifier.changed(ctx, "property_type", "create", propertyType.ID, identity)
	return &propertyType, nil
}

// UpdatePropertyType replaces a property type's fields
func (s *CatalogService) UpdatePropertyType(ctx context.Context, identity *models.Identity, id uint, req *models.PropertyTypeRequest) (*models.PropertyType, error) {
	if err := requirePermission(identity, models.PermissionWritePropertyType); err != nil {
		return nil, err
	}
	if err := validatePropertyTypeRequest(req); err != nil {
		return nil, err
	}

	var propertyType models.PropertyType
	if err := s.db.WithContext(ctx).First(&propertyType, id).Error; err != nil {
		return nil, apierrors.HandleDatabaseError(err, "Property type", "get property type")
	}

	propertyType.Name = strings.TrimSpace(req.Name)
	propertyType.Description = req.Description
	if req.IsActive != nil {
		propertyType.IsActive = *req.IsActive
	}
	if err := s.db.WithContext(ctx).Save(&propertyType).Error; err != nil {
		return nil, apierrors.HandleDatabaseError(err, "Property type", "update property type")
	}

	slog.Info("Property type updated", "propertyTypeID", propertyType.ID)
	s.notifier.changed(ctx, "property_type", "update", propertyType.ID, identity)
	return &propertyType, nil
}

// DeletePropertyType removes a property type. While properties reference the
// type the delete is refused, unless cascade is set, in which case those
// properties and everything hanging off them go in the same transaction.
func (s *CatalogService) DeletePropertyType(ctx context.Context, identity *models.Identity, id uint, cascade bool) error {
	if err := requirePermission(identity, models.PermissionWritePropertyType); err != nil {
		return err
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	// The row lock makes a concurrent property insert referencing this type
	// wait for the outcome instead of landing after the dependency check
	var propertyType models.PropertyType
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&propertyType, id).Error; err != nil {
		tx.Rollback()
		return apierrors.HandleDatabaseError(err, "Property type", "get property type")
	}

	var propertyIDs []uint
	if err := tx.Model(&models.Property{}).Where("property_type_id = ?", id).Pluck("id", &propertyIDs).Error; err != nil {
		tx.Rollback()
		return apierrors.DatabaseError("find dependent properties", err)
	}
	if len(propertyIDs) > 0 && !cascade {
		tx.Rollback()
		return apierrors.ConflictError(fmt.Sprintf("property type is used by %d properties; reassign them or delete with cascade=true", len(propertyIDs)))
	}

	if err := deletePropertiesCascade(tx, propertyIDs); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Exec("DELETE FROM agent_specializations WHERE property_type_id = ?", id).Error; err != nil {
		tx.Rollback()
		return apierrors.DatabaseError("delete agent specializations", err)
	}
	if err := tx.Delete(&propertyType).Error; err != nil {
		tx.Rollback()
		return apierrors.DatabaseError("delete property type", err)
	}

	if err := tx.Commit().Error; err != nil {
		return apierrors.DatabaseError("commit property type delete", err)
	}

	slog.Info("Property type deleted", "propertyTypeID", id, "cascadedProperties", len(propertyIDs))
	for _, propertyID := range propertyIDs {
		s.notifier.changed(ctx, "property", "delete", propertyID, identity)
	}
	s.notifier.changed(ctx, "property_type", "delete", id, identity)
	return nil
}

func validatePropertyTypeRequest(req *models.PropertyTypeRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return apierrors.ValidationErrorWithDetails("INVALID_PROPERTY_TYPE", "name is required", "name")
	}
	if len(name) > models.MaxNameLength {
		return apierrors.ValidationErrorWithDetails("INVALID_PROPERTY_TYPE", fmt.Sprintf("name must be at most %d characters", models.MaxNameLength), "name")
	}
	return nil
}
