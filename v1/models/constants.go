package models

// UserRole is the explicit role column stored on a user record
type UserRole string

const (
	UserRoleCustomer UserRole = "customer"
	UserRoleAdmin    UserRole = "admin"
)

// PropertyStatus represents the market status of a property
type PropertyStatus string

const (
	PropertyStatusAvailable PropertyStatus = "available"
	PropertyStatusSold      PropertyStatus = "sold"
	PropertyStatusPending   PropertyStatus = "pending"
	PropertyStatusOffMarket PropertyStatus = "off_market"
)

// IsValid reports whether the status belongs to the closed vocabulary
func (s PropertyStatus) IsValid() bool {
	switch s {
	case PropertyStatusAvailable, PropertyStatusSold, PropertyStatusPending, PropertyStatusOffMarket:
		return true
	}
	return false
}

// PropertyPurpose distinguishes listings for sale, rent and bare land
type PropertyPurpose string

const (
	PropertyPurposeSale PropertyPurpose = "sale"
	PropertyPurposeRent PropertyPurpose = "rent"
	PropertyPurposeLand PropertyPurpose = "land"
)

// IsValid reports whether the purpose belongs to the closed vocabulary
func (p PropertyPurpose) IsValid() bool {
	switch p {
	case PropertyPurposeSale, PropertyPurposeRent, PropertyPurposeLand:
		return true
	}
	return false
}

// ContactStatus is the administrative status of a contact message
type ContactStatus string

const (
	ContactStatusNew        ContactStatus = "new"
	ContactStatusInProgress ContactStatus = "in_progress"
	ContactStatusResolved   ContactStatus = "resolved"
	ContactStatusClosed     ContactStatus = "closed"
)

// AllContactStatuses lists the contact vocabulary in display order
var AllContactStatuses = []ContactStatus{
	ContactStatusNew,
	ContactStatusInProgress,
	ContactStatusResolved,
	ContactStatusClosed,
}

// IsValid reports whether the status belongs to the closed vocabulary
func (s ContactStatus) IsValid() bool {
	for _, v := range AllContactStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ContactMethod is the channel a contact prefers to be reached on
type ContactMethod string

const (
	ContactMethodEmail    ContactMethod = "email"
	ContactMethodPhone    ContactMethod = "phone"
	ContactMethodWhatsApp ContactMethod = "whatsapp"
	ContactMethodAny      ContactMethod = "any"
)

// IsValid reports whether the method belongs to the closed vocabulary
func (m ContactMethod) IsValid() bool {
	switch m {
	case ContactMethodEmail, ContactMethodPhone, ContactMethodWhatsApp, ContactMethodAny:
		return true
	}
	return false
}

// InquiryStatus is the administrative status of a property inquiry
type InquiryStatus string

const (
	InquiryStatusPending   InquiryStatus = "pending"
	InquiryStatusResponded InquiryStatus = "responded"
	InquiryStatusClosed    InquiryStatus = "closed"
)

// IsValid reports whether the status belongs to the closed vocabulary
func (s InquiryStatus) IsValid() bool {
	switch s {
	case InquiryStatusPending, InquiryStatusResponded, InquiryStatusClosed:
		return true
	}
	return false
}

// VisitStatus is the administrative status of a scheduled property visit
type VisitStatus string

const (
	VisitStatusScheduled VisitStatus = "scheduled"
	VisitStatusCompleted VisitStatus = "completed"
	VisitStatusCancelled VisitStatus = "cancelled"
)

// IsValid reports whether the status belongs to the closed vocabulary
func (s VisitStatus) IsValid() bool {
	switch s {
	case VisitStatusScheduled, VisitStatusCompleted, VisitStatusCancelled:
		return true
	}
	return false
}

// Field length constraints remain as regular constants
const (
	MaxTitleLength    = 200
	MaxNameLength     = 100
	MaxLocationLength = 255
	MaxEmailLength    = 320 // RFC 3696
	MaxPhoneLength    = 15  // E.164 format
	MaxURLLength      = 2048
)
