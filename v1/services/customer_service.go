package services

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	apierrors "github.com/nurpratapkarki/realEstateWeb/pkg/errors"
	"github.com/nurpratapkarki/realEstateWeb/v1/models"
	"gorm.io/gorm"
)

// CustomerService handles the records an authenticated customer keeps against
// the catalog: saved properties, inquiries, visits and search alerts
type CustomerService struct {
	db      *gorm.DB
	catalog *CatalogService
}

// NewCustomerService creates a new customer service
func NewCustomerService(db *gorm.DB, catalog *CatalogService) *CustomerService {
	return &CustomerService{db: db, catalog: catalog}
}

// ListSavedProperties returns the caller's saved properties, newest first
func (s *CustomerService) ListSavedProperties(ctx context.Context, identity *models.Identity) ([]models.SavedPropertyResponse, error) {
	if err := requireAuthenticated(identity, models.PermissionCustomerRecords); err != nil {
		return nil, err
	}

	var saved []models.SavedProperty
	err := s.db.WithContext(ctx).
		Preload("Property.PropertyType").
		Preload("Property.Images", func(db *gorm.DB) *gorm.DB { return db.Order(imageOrder) }).
		Where("customer_id = ?", identity.UserID).
		Order("created_at DESC, id DESC").
		Find(&saved).Error
	if err != nil {
		return nil, apierrors.DatabaseError("list saved properties", err)
	}

	results := make([]models.SavedPropertyResponse, 0, len(saved))
	for i := range saved {
		results = append(results, models.NewSavedPropertyResponse(&saved[i]))
	}
	return results, nil
}

// SaveProperty adds an active property to the caller's saved list
func (s *CustomerService) SaveProperty(ctx context.Context, identity *models.Identity, req *models.SavePropertyRequest) (*models.SavedPropertyResponse, error) {
	if err := requireAuthenticated(identity, models.PermissionCustomerRecords); err != nil {
		return nil, err
	}

	property, err := s.activeProperty(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}

	saved := models.SavedProperty{CustomerID: identity.UserID, PropertyID: property.ID}
	if err := s.db.WithContext(ctx).Omit("Property").Create(&saved).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierrors.ConflictError("Property is already saved")
		}
		return nil, apierrors.DatabaseError("save property", err)
	}

	slog.Info("Property saved", "customerID", identity.UserID, "propertyID", property.ID)
	saved.Property = property
	resp := models.NewSavedPropertyResponse(&saved)
	return &resp, nil
}

// UnsaveProperty removes a property from the caller's saved list
func (s *CustomerService) UnsaveProperty(ctx context.Context, identity *models.Identity, propertyID uint) error {
	if err := requireAuthenticated(identity, models.PermissionCustomerRecords); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).
		Where("customer_id = ? AND property_id = ?", identity.UserID, propertyID).
		Delete(&models.SavedProperty{})
	if result.Error != nil {
		return apierrors.DatabaseError("unsave property", result.Error)
	}
	if result.RowsAffected == 0 {
		return apierrors.NotFoundError("Saved property")
	}
	return nil
}

// ListInquiries returns the caller's inquiries, newest first
func (s *CustomerService) ListInquiries(ctx context.Context, identity *models.Identity) ([]models.PropertyInquiry, error) {
	if err := requireAuthenticated(identity, models.PermissionCustomerRecords); err != nil {
		return nil, err
	}

	var inquiries []models.PropertyInquiry
	err := s.db.WithContext(ctx).Where("customer_id = ?", identity.UserID).Order("created_at DESC, id DESC").Find(&inquiries).Error
	if err != nil {
		return nil, apierrors.DatabaseError("list inquiries", err)
	}
	return inquiries, nil
}

// CreateInquiry records a question about an active property
func (s *CustomerService) CreateInquiry(ctx context.Context, identity *models.Identity, req *models.CreateInquiryRequest) (*models.PropertyInquiry, error) {
	if err := requireAuthenticated(identity, models.PermissionCustomerRecords); err != nil {
		return nil, err
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, apierrors.ValidationErrorWithDetails("INVALID_INQUIRY", "message is required", "message")
	}
	if _, err := s.activeProperty(ctx, req.PropertyID); err != nil {
		return nil, err
	}
	if err := s.checkAgent(ctx, req.AgentID); err != nil {
		return nil, err
	}

	inquiry := models.PropertyInquiry{
		CustomerID: identity.UserID,
		PropertyID: req.PropertyID,
		AgentID:    req.AgentID,
		Message:    message,
		Status:     models.InquiryStatusPending,
	}
	if err := s.db.WithContext(ctx).Omit("Property").Create(&inquiry).Error; err != nil {
		return nil, apierrors.DatabaseError("create inquiry", err)
	}

	slog.Info("Property inquiry created", "inquiryID", inquiry.ID, "propertyID", inquiry.PropertyID, "customerID", identity.UserID)
	return &inquiry, nil
}

// UpdateInquiryStatus moves an inquiry to another status
func (s *CustomerService) UpdateInquiryStatus(ctx context.Context, identity *models.Identity, id uint, status string) (*models.PropertyInquiry, error) {
	if err := requirePermission(identity, models.PermissionManageRecords); err != nil {
		return nil, err
	}

	newStatus := models.InquiryStatus(strings.ToLower(strings.TrimSpace(status)))
	if !newStatus.IsValid() {
		return nil, apierrors.ValidationErrorWithDetails("INVALID_STATUS", "status must be one of pending, responded, closed", "status")
	}

	var inquiry models.PropertyInquiry
	if err := s.db.WithContext(ctx).First(&inquiry, id).Error; err != nil {
		return nil, apierrors.HandleDatabaseError(err, "Inquiry", "get inquiry")
	}
	if err := s.db.WithContext(ctx).Model(&inquiry).Update("status", newStatus).Error; err != nil {
		return nil, apierrors.DatabaseError("update inquiry status", err)
	}
	inquiry.Status = newStatus

	slog.Info("Inquiry status changed", "inquiryID", id, "status", newStatus, "actorID", actorID(identity))
	return &inquiry, nil
}

// ListVisits returns the caller's visits by scheduled date
func (s *CustomerService) ListVisits(ctx context.Context, identity *models.Identity) ([]models.PropertyVisit, error) {
	if err := requireAuthenticated(identity, models.PermissionCustomerRecords); err != nil {
		return nil, err
	}

	var visits []models.PropertyVisit
	err := s.db.WithContext(ctx).Where("customer_id = ?", identity.UserID).Order("scheduled_date ASC, id ASC").Find(&visits).Error
	if err != nil {
		return nil, apierrors.DatabaseError("list visits", err)
	}
	return visits, nil
}

// CreateVisit schedules a future viewing of an active property
func (s *CustomerService) CreateVisit(ctx context.Context, identity *models.Identity, req *models.CreateVisitRequest) (*models.PropertyVisit, error) {
	if err := requireAuthenticated(identity, models.PermissionCustomerRecords); err != nil {
		return nil, err
	}

	if req.ScheduledDate.IsZero() || !req.ScheduledDate.After(time.Now()) {
		return nil, apierrors.ValidationErrorWithDetails("INVALID_VISIT", "scheduled_date must be in the future", "scheduled_date")
	}
	if _, err := s.activeProperty(ctx, req.PropertyID); err != nil {
		return nil, err
	}
	if err := s.checkAgent(ctx, req.AgentID); err != nil {
		return nil, err
	}

	visit := models.PropertyVisit{
		CustomerID:    identity.UserID,
		PropertyID:    req.PropertyID,
		AgentID:       req.AgentID,
		ScheduledDate: req.ScheduledDate.UTC(),
		Notes:         strings.TrimSpace(req.Notes),
		Status:        models.VisitStatusScheduled,
	}
	if err := s.db.WithContext(ctx).Omit("Property").Create(&visit).Error; err != nil {
		return nil, apierrors.DatabaseError("create visit", err)
	}

	slog.Info("Property visit scheduled", "visitID", visit.ID, "propertyID", visit.PropertyID, "customerID", identity.UserID)
	return &visit, nil
}

// UpdateVisitStatus moves a visit to another status
func (s *CustomerService) UpdateVisitStatus(ctx context.Context, identity *models.Identity, id uint, status string) (*models.PropertyVisit, error) {
	if err := requirePermission(identity, models.PermissionManageRecords); err != nil {
		return nil, err
	}

	newStatus := models.VisitStatus(strings.ToLower(strings.TrimSpace(status)))
	if !newStatus.IsValid() {
		return nil, apierrors.ValidationErrorWithDetails("INVALID_STATUS", "status must be one of scheduled, completed, cancelled", "status")
	}

	var visit models.PropertyVisit
	if err := s.db.WithContext(ctx).First(&visit, id).Error; err != nil {
		return nil, apierrors.HandleDatabaseError(err, "Visit", "get visit")
	}
	if err := s.db.WithContext(ctx).Model(&visit).Update("status", newStatus).Error; err != nil {
		return nil, apierrors.DatabaseError("update visit status", err)
	}
	visit.Status = newStatus

	slog.Info("Visit status changed", "visitID", id, "status", newStatus, "actorID", actorID(identity))
	return &visit, nil
}

// ListAlerts returns the caller's active alerts
func (s *CustomerService) ListAlerts(ctx context.Context, identity *models.Identity) ([]models.PropertyAlert, error) {
	if err := requireAuthenticated(identity, models.PermissionCustomerRecords); err != nil {
		return nil, err
	}

	var alerts []models.PropertyAlert
	err := s.db.WithContext(ctx).
		Where("customer_id = ? AND is_active = ?", identity.UserID, true).
		Order("created_at DESC, id DESC").Find(&alerts).Error
	if err != nil {
		return nil, apierrors.DatabaseError("list alerts", err)
	}
	return alerts, nil
}

// CreateAlert stores a saved search. The query is validated with the listing
// rules and stored in normalized form.
func (s *CustomerService) CreateAlert(ctx context.Context, identity *models.Identity, req *models.CreateAlertRequest) (*models.PropertyAlert, error) {
	if err := requireAuthenticated(identity, models.PermissionCustomerRecords); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > models.MaxNameLength {
		return nil, apierrors.ValidationErrorWithDetails("INVALID_ALERT", "name is required and must be at most 100 characters", "name")
	}
	filter, err := parseAlertQuery(req.Query, s.catalog.PageLimits())
	if err != nil {
		return nil, err
	}

	alert := models.PropertyAlert{
		CustomerID: identity.UserID,
		Name:       name,
		Query:      filter.Values().Encode(),
		IsActive:   true,
	}
	if err := s.db.WithContext(ctx).Create(&alert).Error; err != nil {
		return nil, apierrors.DatabaseError("create alert", err)
	}

	slog.Info("Property alert created", "alertID", alert.ID, "customerID", identity.UserID)
	return &alert, nil
}

// DeactivateAlert switches off one of the caller's alerts
func (s *CustomerService) DeactivateAlert(ctx context.Context, identity *models.Identity, id uint) error {
	if err := requireAuthenticated(identity, models.PermissionCustomerRecords); err != nil {
		return err
	}

	alert, err := s.ownAlert(ctx, identity, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(alert).Update("is_active", false).Error; err != nil {
		return apierrors.DatabaseError("deactivate alert", err)
	}
	return nil
}

// AlertMatches runs an alert's stored constraints through the listing path.
// Matches are always active properties.
func (s *CustomerService) AlertMatches(ctx context.Context, identity *models.Identity, id uint, page url.Values) (*models.PaginatedPropertiesResponse, error) {
	if err := requireAuthenticated(identity, models.PermissionCustomerRecords); err != nil {
		return nil, err
	}

	alert, err := s.ownAlert(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	values, err := url.ParseQuery(alert.Query)
	if err != nil {
		return nil, apierrors.InternalErrorWithCause("stored alert query is unreadable", err)
	}
	for _, param := range []string{models.ParamPage, models.ParamPageSize} {
		if v := page.Get(param); v != "" {
			values.Set(param, v)
		}
	}

	filter, err := models.ParsePropertyFilter(values, s.catalog.PageLimits())
	if err != nil {
		return nil, err
	}
	active := true
	filter.IsActive = &active
	return s.catalog.ListProperties(ctx, identity, filter)
}

func (s *CustomerService) ownAlert(ctx context.Context, identity *models.Identity, id uint) (*models.PropertyAlert, error) {
	var alert models.PropertyAlert
	err := s.db.WithContext(ctx).Where("customer_id = ?", identity.UserID).First(&alert, id).Error
	if err != nil {
		return nil, apierrors.HandleDatabaseError(err, "Alert", "get alert")
	}
	return &alert, nil
}

func (s *CustomerService) activeProperty(ctx context.Context, propertyID uint) (*models.Property, error) {
	if propertyID == 0 {
		return nil, apierrors.ValidationErrorWithDetails("INVALID_REQUEST", "property_id is required", "property_id")
	}
	var property models.Property
	if err := preloadListing(s.db.WithContext(ctx)).Where("is_active = ?", true).First(&property, propertyID).Error; err != nil {
		return nil, apierrors.HandleDatabaseError(err, "Property", "get property")
	}
	return &property, nil
}

func (s *CustomerService) checkAgent(ctx context.Context, agentID *uint) error {
	if agentID == nil {
		return nil
	}
	var agent models.Agent
	err := s.db.WithContext(ctx).Select("id").Where("is_active = ?", true).First(&agent, *agentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierrors.ValidationErrorWithDetails("INVALID_REQUEST", "agent does not exist", "agent_id")
	}
	if err != nil {
		return apierrors.DatabaseError("check agent", err)
	}
	return nil
}

// parseAlertQuery validates a saved search. Pagination and is_active are not
// part of a saved search and are dropped.
func parseAlertQuery(raw string, limits models.PageLimits) (*models.PropertyFilter, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(strings.TrimSpace(raw), "?"))
	if err != nil {
		return nil, apierrors.ValidationErrorWithDetails("INVALID_ALERT", "query is not a valid query string", "query")
	}
	for _, param := range []string{models.ParamPage, models.ParamPageSize, models.ParamIsActive} {
		values.Del(param)
	}
	return models.ParsePropertyFilter(values, limits)
}
