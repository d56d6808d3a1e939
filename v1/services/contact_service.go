package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"

	apierrors "github.com/nurpratapkarki/realEstateWeb/pkg/errors"
	"github.com/nurpratapkarki/realEstateWeb/v1/models"
	"gorm.io/gorm"
)

var phonePattern = regexp.MustCompile(`^\+?1?\d{9,15}$`)

const phoneMessage = "phone number must be entered in the format '+999999999', up to 15 digits"

func isValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" || len(email) > models.MaxEmailLength {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// ContactService handles the public contact form and its admin inbox
type ContactService struct {
	db *gorm.DB
}

// NewContactService creates a new contact service
func NewContactService(db *gorm.DB) *ContactService {
	return &ContactService{db: db}
}

// CreateContact stores a contact message. Authenticated callers are linked to it.
func (s *ContactService) CreateContact(ctx context.Context, identity *models.Identity, req *models.CreateContactRequest) (*models.Contact, error) {
	if err := requirePermission(identity, models.PermissionCreateContact); err != nil {
		return nil, err
	}

	contact := models.Contact{
		FirstName:              strings.TrimSpace(req.FirstName),
		LastName:               strings.TrimSpace(req.LastName),
		Email:                  strings.TrimSpace(req.Email),
		Phone:                  strings.TrimSpace(req.Phone),
		Subject:                strings.TrimSpace(req.Subject),
		Message:                strings.TrimSpace(req.Message),
		PreferredContactMethod: req.PreferredContactMethod,
		Status:                 models.ContactStatusNew,
	}
	if contact.PreferredContactMethod == "" {
		contact.PreferredContactMethod = models.ContactMethodEmail
	}
	if identity != nil {
		customerID := identity.UserID
		contact.CustomerID = &customerID
	}
	if err := validateContact(&contact); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&contact).Error; err != nil {
		return nil, apierrors.HandleDatabaseError(err, "Contact", "create contact")
	}

	slog.Info("Contact message received", "contactID", contact.ID, "subject", contact.Subject)
	return &contact, nil
}

// ListContacts returns contact messages newest first
func (s *ContactService) ListContacts(ctx context.Context, identity *models.Identity, filter models.ContactFilter) ([]models.Contact, error) {
	if err := requirePermission(identity, models.PermissionManageContacts); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Model(&models.Contact{})
	if filter.Status != "" {
		status := models.ContactStatus(strings.ToLower(filter.Status))
		if !status.IsValid() {
			return nil, apierrors.InvalidConstraintError("status", "status must be one of new, in_progress, resolved, closed")
		}
		query = query.Where("status = ?", status)
	}
	if filter.Subject != "" {
		query = query.Where("LOWER(subject) LIKE ? ESCAPE '\\'", containsPattern(filter.Subject))
	}
	if filter.Search != "" {
		pattern := containsPattern(filter.Search)
		query = query.Where(
			"LOWER(first_name) LIKE ? ESCAPE '\\' OR LOWER(last_name) LIKE ? ESCAPE '\\' OR LOWER(email) LIKE ? ESCAPE '\\' OR LOWER(message) LIKE ? ESCAPE '\\'",
			pattern, pattern, pattern, pattern,
		)
	}

	var contacts []models.Contact
	if err := query.Order("created_at DESC, id DESC").Find(&contacts).Error; err != nil {
		return nil, apierrors.DatabaseError("list contacts", err)
	}
	return contacts, nil
}

// ResolveContact marks a contact as resolved
func (s *ContactService) ResolveContact(ctx context.Context, identity *models.Identity, id uint) (*models.Contact, error) {
	return s.UpdateContactStatus(ctx, identity, id, string(models.ContactStatusResolved))
}

// UpdateContactStatus moves a contact to any status of the vocabulary
func (s *ContactService) UpdateContactStatus(ctx context.Context, identity *models.Identity, id uint, status string) (*models.Contact, error) {
	if err := requirePermission(identity, models.PermissionManageContacts); err != nil {
		return nil, err
	}

	newStatus := models.ContactStatus(strings.ToLower(strings.TrimSpace(status)))
	if !newStatus.IsValid() {
		return nil, apierrors.ValidationErrorWithDetails("INVALID_STATUS", "status must be one of new, in_progress, resolved, closed", "status")
	}

	var contact models.Contact
	if err := s.db.WithContext(ctx).First(&contact, id).Error; err != nil {
		return nil, apierrors.HandleDatabaseError(err, "Contact", "get contact")
	}
	if err := s.db.WithContext(ctx).Model(&contact).Update("status", newStatus).Error; err != nil {
		return nil, apierrors.DatabaseError("update contact status", err)
	}
	contact.Status = newStatus

	slog.Info("Contact status changed", "contactID", id, "status", newStatus, "actorID", actorID(identity))
	return &contact, nil
}

// ContactStats counts contacts per status
func (s *ContactService) ContactStats(ctx context.Context, identity *models.Identity) (*models.ContactStatsResponse, error) {
	if err := requirePermission(identity, models.PermissionManageContacts); err != nil {
		return nil, err
	}

	var rows []struct {
		Status models.ContactStatus
		Count  int64
	}
	if err := s.db.WithContext(ctx).Model(&models.Contact{}).
		Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, apierrors.DatabaseError("count contacts", err)
	}

	stats := &models.ContactStatsResponse{ByStatus: make(map[models.ContactStatus]int64, len(models.AllContactStatuses))}
	for _, status := range models.AllContactStatuses {
		stats.ByStatus[status] = 0
	}
	for _, row := range rows {
		stats.ByStatus[row.Status] = row.Count
		stats.Total += row.Count
	}
	return stats, nil
}

func validateContact(c *models.Contact) error {
	invalid := func(field, message string) error {
		return apierrors.ValidationErrorWithDetails("INVALID_CONTACT", message, field)
	}
	switch {
	case c.FirstName == "" || len(c.FirstName) > 50:
		return invalid("first_name", "first_name is required and must be at most 50 characters")
	case c.LastName == "" || len(c.LastName) > 50:
		return invalid("last_name", "last_name is required and must be at most 50 characters")
	case !isValidEmail(c.Email):
		return invalid("email", "email is not valid")
	case !phonePattern.MatchString(c.Phone):
		return invalid("phone", phoneMessage)
	case c.Subject == "" || len(c.Subject) > models.MaxTitleLength:
		return invalid("subject", fmt.Sprintf("subject is required and must be at most %d characters", models.MaxTitleLength))
	case c.Message == "":
		return invalid("message", "message is required")
	case !c.PreferredContactMethod.IsValid():
		return invalid("preferred_contact_method", "preferred_contact_method must be one of email, phone, whatsapp, any")
	}
	return nil
}
