package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	apierrors "github.com/nurpratapkarki/realEstateWeb/pkg/errors"
	"github.com/nurpratapkarki/realEstateWeb/pkg/monitoring"
	"github.com/nurpratapkarki/realEstateWeb/v1/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogOptions bounds the listing views
type CatalogOptions struct {
	FeaturedLimit int
	RecentLimit   int
	PageLimits    models.PageLimits
}

// DefaultCatalogOptions matches the shipped catalog configuration
var DefaultCatalogOptions = CatalogOptions{
	FeaturedLimit: 6,
	RecentLimit:   10,
	PageLimits:    models.DefaultPageLimits,
}

// CatalogService is the façade over properties, property types and images
type CatalogService struct {
	db       *gorm.DB
	images   *ImageManager
	notifier *ChangeNotifier
	options  CatalogOptions
}

// NewCatalogService creates a new catalog service
func NewCatalogService(db *gorm.DB, notifier *ChangeNotifier, options CatalogOptions) *CatalogService {
	if notifier == nil {
		notifier = NewChangeNotifier(nil, nil, "", 0)
	}
	if options.FeaturedLimit <= 0 {
		options.FeaturedLimit = DefaultCatalogOptions.FeaturedLimit
	}
	if options.RecentLimit <= 0 {
		options.RecentLimit = DefaultCatalogOptions.RecentLimit
	}
	if options.PageLimits.DefaultPageSize <= 0 || options.PageLimits.MaxPageSize <= 0 {
		options.PageLimits = DefaultCatalogOptions.PageLimits
	}
	return &CatalogService{
		db:       db,
		images:   NewImageManager(db),
		notifier: notifier,
		options:  options,
	}
}

// PageLimits returns the pagination bounds filters are parsed with
func (s *CatalogService) PageLimits() models.PageLimits {
	return s.options.PageLimits
}

// ListProperties returns one page of properties matching the filter. Only
// administrators see inactive properties.
func (s *CatalogService) ListProperties(ctx context.Context, identity *models.Identity, filter *models.PropertyFilter) (*models.PaginatedPropertiesResponse, error) {
	if err := requirePermission(identity, models.PermissionReadCatalog); err != nil {
		return nil, err
	}

	activeOnly := !isAdmin(identity)
	start := time.Now()
	defer func() { monitoring.RecordDBLatency(ctx, "list_properties", time.Since(start)) }()

	db := s.db.WithContext(ctx)
	var total int64
	if err := CompileFilter(db, filter, activeOnly).Count(&total).Error; err != nil {
		return nil, apierrors.DatabaseError("count properties", err)
	}

	results, err := s.findPage(db, filter, activeOnly)
	if err != nil {
		return nil, err
	}

	return &models.PaginatedPropertiesResponse{
		Count:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Results:  results,
	}, nil
}

// FeaturedProperties returns the newest featured active properties
func (s *CatalogService) FeaturedProperties(ctx context.Context, identity *models.Identity) ([]models.PropertyResponse, error) {
	if err := requirePermission(identity, models.PermissionReadCatalog); err != nil {
		return nil, err
	}
	return s.notifier.cachedProperties(ctx, CacheKeyFeatured, func() ([]models.PropertyResponse, error) {
		filter := &models.PropertyFilter{FeaturedOnly: true, Page: 1, PageSize: s.options.FeaturedLimit}
		return s.findPage(s.db.WithContext(ctx), filter, true)
	})
}

// RecentProperties returns the newest active properties
func (s *CatalogService) RecentProperties(ctx context.Context, identity *models.Identity) ([]models.PropertyResponse, error) {
	if err := requirePermission(identity, models.PermissionReadCatalog); err != nil {
		return nil, err
	}
	return s.notifier.cachedProperties(ctx, CacheKeyRecent, func() ([]models.PropertyResponse, error) {
		filter := &models.PropertyFilter{Page: 1, PageSize: s.options.RecentLimit}
		return s.findPage(s.db.WithContext(ctx), filter, true)
	})
}

func (s *CatalogService) findPage(db *gorm.DB, filter *models.PropertyFilter, activeOnly bool) ([]models.PropertyResponse, error) {
	var properties []models.Property
	query := preloadListing(paginate(CompileFilter(db, filter, activeOnly), filter))
	if err := query.Find(&properties).Error; err != nil {
		return nil, apierrors.DatabaseError("list properties", err)
	}

	results := make([]models.PropertyResponse, 0, len(properties))
	for i := range properties {
		results = append(results, models.NewPropertyResponse(&properties[i], false))
	}
	return results, nil
}

// GetProperty returns a property with its full gallery. Inactive properties
// are reported as not found to everyone but administrators.
func (s *CatalogService) GetProperty(ctx context.Context, identity *models.Identity, id uint) (*models.PropertyResponse, error) {
	if err := requirePermission(identity, models.PermissionReadCatalog); err != nil {
		return nil, err
	}

	property, err := s.loadVisibleProperty(ctx, identity, id, true)
	if err != nil {
		return nil, err
	}
	resp := models.NewPropertyResponse(property, true)
	return &resp, nil
}

func (s *CatalogService) loadVisibleProperty(ctx context.Context, identity *models.Identity, id uint, withRelations bool) (*models.Property, error) {
	query := s.db.WithContext(ctx)
	if withRelations {
		query = preloadListing(query)
	}

	var property models.Property
	if err := query.First(&property, id).Error; err != nil {
		return nil, apierrors.HandleDatabaseError(err, "Property", "get property")
	}
	if !property.IsActive && !models.ResolveRole(identity).HasPermission(models.PermissionReadInactive) {
		return nil, apierrors.NotFoundError("Property")
	}
	return &property, nil
}

// CreateProperty adds a property to the catalog
func (s *CatalogService) CreateProperty(ctx context.Context, identity *models.Identity, req *models.CreatePropertyRequest) (*models.PropertyResponse, error) {
	if err := requirePermission(identity, models.PermissionWriteProperty); err != nil {
		return nil, err
	}

	property := models.Property{IsActive: true}
	applyPropertyRequest(&property, req)
	if err := s.validateProperty(ctx, &property); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&property).Error; err != nil {
		return nil, apierrors.HandleDatabaseError(err, "Property", "create property")
	}

	slog.Info("Property created", "propertyID", property.ID, "actorID", actorID(identity))
	s.notifier.changed(ctx, "property", "create", property.ID, identity)
	return s.GetProperty(ctx, identity, property.ID)
}

// ReplaceProperty overwrites every writable field of a property
func (s *CatalogService) ReplaceProperty(ctx context.Context, identity *models.Identity, id uint, req *models.CreatePropertyRequest) (*models.PropertyResponse, error) {
	if err := requirePermission(identity, models.PermissionWriteProperty); err != nil {
		return nil, err
	}

	var property models.Property
	if err := s.db.WithContext(ctx).First(&property, id).Error; err != nil {
		return nil, apierrors.HandleDatabaseError(err, "Property", "get property")
	}

	applyPropertyRequest(&property, req)
	return s.saveProperty(ctx, identity, &property, "replace")
}

// PatchProperty changes only the fields present in the request
func (s *CatalogService) PatchProperty(ctx context.Context, identity *models.Identity, id uint, req *models.UpdatePropertyRequest) (*models.PropertyResponse, error) {
	if err := requirePermission(identity, models.PermissionWriteProperty); err != nil {
		return nil, err
	}

	var property models.Property
	if err := s.db.WithContext(ctx).First(&property, id).Error; err != nil {
		return nil, apierrors.HandleDatabaseError(err, "Property", "get property")
	}

	patchProperty(&property, req)
	return s.saveProperty(ctx, identity, &property, "update")
}

func (s *CatalogService) saveProperty(ctx context.Context, identity *models.Identity, property *models.Property, action string) (*models.PropertyResponse, error) {
	if err := s.validateProperty(ctx, property); err != nil {
		return nil, err
	}
	property.PropertyType = nil
	property.Images = nil

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(property).Error; err != nil {
		return nil, apierrors.HandleDatabaseError(err, "Property", "update property")
	}

	slog.Info("Property updated", "propertyID", property.ID, "action", action, "actorID", actorID(identity))
	s.notifier.changed(ctx, "property", action, property.ID, identity)
	return s.GetProperty(ctx, identity, property.ID)
}

// DeleteProperty removes a property together with its images and the
// customer records that reference it
func (s *CatalogService) DeleteProperty(ctx context.Context, identity *models.Identity, id uint) error {
	if err := requirePermission(identity, models.PermissionWriteProperty); err != nil {
		return err
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	var property models.Property
	if err := tx.Select("id").First(&property, id).Error; err != nil {
		tx.Rollback()
		return apierrors.HandleDatabaseError(err, "Property", "get property")
	}

	if err := deletePropertiesCascade(tx, []uint{id}); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return apierrors.DatabaseError("commit property delete", err)
	}

	slog.Info("Property deleted", "propertyID", id, "actorID", actorID(identity))
	s.notifier.changed(ctx, "property", "delete", id, identity)
	return nil
}

// deletePropertiesCascade deletes properties and every row hanging off them
func deletePropertiesCascade(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	dependents := []interface{}{
		&models.PropertyImage{},
		&models.SavedProperty{},
		&models.PropertyInquiry{},
		&models.PropertyVisit{},
	}
	for _, model := range dependents {
		if err := tx.Where("property_id IN ?", ids).Delete(model).Error; err != nil {
			return apierrors.DatabaseError("delete property dependents", err)
		}
	}
	if err := tx.Where("id IN ?", ids).Delete(&models.Property{}).Error; err != nil {
		return apierrors.DatabaseError("delete properties", err)
	}
	return nil
}

func applyPropertyRequest(p *models.Property, req *models.CreatePropertyRequest) {
	p.Title = strings.TrimSpace(req.Title)
	p.Description = req.Description
	p.Price = req.Price
	p.Location = strings.TrimSpace(req.Location)
	p.Address = strings.TrimSpace(req.Address)
	p.Bedrooms = req.Bedrooms
	p.Bathrooms = req.Bathrooms
	p.Area = req.Area
	p.AreaUnit = req.AreaUnit
	p.LandRopani = req.LandRopani
	p.LandAana = req.LandAana
	p.LandPaisa = req.LandPaisa
	p.LandDaam = req.LandDaam
	p.Purpose = req.Purpose
	p.Status = req.Status
	p.Latitude = req.Latitude
	p.Longitude = req.Longitude
	p.GoogleMapsEmbedURL = strings.TrimSpace(req.GoogleMapsEmbedURL)
	p.IsFeatured = req.IsFeatured
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	p.PropertyTypeID = req.PropertyTypeID
}

func patchProperty(p *models.Property, req *models.UpdatePropertyRequest) {
	if req.Title != nil {
		p.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Location != nil {
		p.Location = strings.TrimSpace(*req.Location)
	}
	if req.Address != nil {
		p.Address = strings.TrimSpace(*req.Address)
	}
	if req.Bedrooms != nil {
		p.Bedrooms = *req.Bedrooms
	}
	if req.Bathrooms != nil {
		p.Bathrooms = *req.Bathrooms
	}
	if req.Area != nil {
		p.Area = *req.Area
	}
	if req.AreaUnit != nil {
		p.AreaUnit = *req.AreaUnit
	}
	if req.LandRopani != nil {
		p.LandRopani = *req.LandRopani
	}
	if req.LandAana != nil {
		p.LandAana = *req.LandAana
	}
	if req.LandPaisa != nil {
		p.LandPaisa = *req.LandPaisa
	}
	if req.LandDaam != nil {
		p.LandDaam = *req.LandDaam
	}
	if req.Purpose != nil {
		p.Purpose = *req.Purpose
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	if req.Latitude != nil {
		p.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		p.Longitude = req.Longitude
	}
	if req.GoogleMapsEmbedURL != nil {
		p.GoogleMapsEmbedURL = strings.TrimSpace(*req.GoogleMapsEmbedURL)
	}
	if req.IsFeatured != nil {
		p.IsFeatured = *req.IsFeatured
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if req.PropertyTypeID != nil {
		p.PropertyTypeID = *req.PropertyTypeID
	}
}

// validateProperty fills defaults and checks every field before any write
func (s *CatalogService) validateProperty(ctx context.Context, p *models.Property) error {
	if p.AreaUnit == "" {
		p.AreaUnit = models.AreaUnitSquareFeet
	}
	if p.Purpose == "" {
		p.Purpose = models.PropertyPurposeSale
	}
	if p.Status == "" {
		p.Status = models.PropertyStatusAvailable
	}

	switch {
	case p.Title == "":
		return invalidProperty("title", "title is required")
	case len(p.Title) > models.MaxTitleLength:
		return invalidProperty("title", fmt.Sprintf("title must be at most %d characters", models.MaxTitleLength))
	case p.Location == "":
		return invalidProperty("location", "location is required")
	case len(p.Location) > models.MaxLocationLength:
		return invalidProperty("location", fmt.Sprintf("location must be at most %d characters", models.MaxLocationLength))
	case len(p.Address) > models.MaxLocationLength:
		return invalidProperty("address", fmt.Sprintf("address must be at most %d characters", models.MaxLocationLength))
	case !isFiniteNonNegative(p.Price):
		return invalidProperty("price", "price must be a non-negative number")
	case p.Bedrooms < 0:
		return invalidProperty("bedrooms", "bedrooms must not be negative")
	case p.Bathrooms < 0:
		return invalidProperty("bathrooms", "bathrooms must not be negative")
	case !isFiniteNonNegative(p.Area):
		return invalidProperty("area", "area must be a non-negative number")
	case !p.AreaUnit.IsValid():
		return invalidProperty("area_unit", fmt.Sprintf("unknown area unit %q", p.AreaUnit))
	case !isFiniteNonNegative(p.LandRopani), !isFiniteNonNegative(p.LandAana),
		!isFiniteNonNegative(p.LandPaisa), !isFiniteNonNegative(p.LandDaam):
		return invalidProperty("land_area", "land area components must not be negative")
	case !p.Purpose.IsValid():
		return invalidProperty("property_purpose", "property_purpose must be one of sale, rent, land")
	case !p.Status.IsValid():
		return invalidProperty("status", "status must be one of available, sold, pending, off_market")
	case p.Latitude != nil && (*p.Latitude < -90 || *p.Latitude > 90):
		return invalidProperty("latitude", "latitude must be between -90 and 90")
	case p.Longitude != nil && (*p.Longitude < -180 || *p.Longitude > 180):
		return invalidProperty("longitude", "longitude must be between -180 and 180")
	case len(p.GoogleMapsEmbedURL) > models.MaxURLLength:
		return invalidProperty("google_maps_embed_url", fmt.Sprintf("google_maps_embed_url must be at most %d characters", models.MaxURLLength))
	case p.PropertyTypeID == 0:
		return invalidProperty("property_type_id", "property_type_id is required")
	}

	var propertyType models.PropertyType
	err := s.db.WithContext(ctx).Select("id").First(&propertyType, p.PropertyTypeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return invalidProperty("property_type_id", fmt.Sprintf("property type %d does not exist", p.PropertyTypeID))
	}
	if err != nil {
		return apierrors.DatabaseError("check property type", err)
	}
	return nil
}

func invalidProperty(field, message string) error {
	return apierrors.ValidationErrorWithDetails("INVALID_PROPERTY", message, field)
}

func isFiniteNonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// ListImages returns the gallery of a property visible to the caller
func (s *CatalogService) ListImages(ctx context.Context, identity *models.Identity, propertyID uint) ([]models.PropertyImageResponse, error) {
	if err := requirePermission(identity, models.PermissionReadCatalog); err != nil {
		return nil, err
	}
	if _, err := s.loadVisibleProperty(ctx, identity, propertyID, false); err != nil {
		return nil, err
	}

	images, err := s.images.ListImages(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	results := make([]models.PropertyImageResponse, 0, len(images))
	for i := range images {
		results = append(results, models.NewPropertyImageResponse(&images[i]))
	}
	return results, nil
}

// AddImage adds an image to a property's gallery
func (s *CatalogService) AddImage(ctx context.Context, identity *models.Identity, propertyID uint, req *models.CreatePropertyImageRequest) (*models.PropertyImageResponse, error) {
	if err := requirePermission(identity, models.PermissionWriteImage); err != nil {
		return nil, err
	}
	image, err := s.images.AddImage(ctx, propertyID, req)
	if err != nil {
		return nil, err
	}
	s.notifier.changed(ctx, "image", "create", image.ID, identity)
	resp := models.NewPropertyImageResponse(image)
	return &resp, nil
}

// UpdateImage changes an image, routing primary changes through the image manager
func (s *CatalogService) UpdateImage(ctx context.Context, identity *models.Identity, imageID uint, req *models.UpdatePropertyImageRequest) (*models.PropertyImageResponse, error) {
	if err := requirePermission(identity, models.PermissionWriteImage); err != nil {
		return nil, err
	}
	image, err := s.images.UpdateImage(ctx, imageID, req)
	if err != nil {
		return nil, err
	}
	s.notifier.changed(ctx, "image", "update", image.ID, identity)
	resp := models.NewPropertyImageResponse(image)
	return &resp, nil
}

// SetPrimaryImage makes the image its property's primary image
func (s *CatalogService) SetPrimaryImage(ctx context.Context, identity *models.Identity, imageID uint) (*models.PropertyImageResponse, error) {
	if err := requirePermission(identity, models.PermissionWriteImage); err != nil {
		return nil, err
	}
	image, err := s.images.SetPrimary(ctx, imageID)
	if err != nil {
		return nil, err
	}
	s.notifier.changed(ctx, "image", "set_primary", image.ID, identity)
	resp := models.NewPropertyImageResponse(image)
	return &resp, nil
}

// DeleteImage removes an image from its property's gallery
func (s *CatalogService) DeleteImage(ctx context.Context, identity *models.Identity, imageID uint) error {
	if err := requirePermission(identity, models.PermissionWriteImage); err != nil {
		return err
	}
	image, err := s.images.DeleteImage(ctx, imageID)
	if err != nil {
		return err
	}
	s.notifier.changed(ctx, "image", "delete", image.ID, identity)
	return nil
}
