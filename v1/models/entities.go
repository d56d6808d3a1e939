package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User is the identity record read by the access layer. Authentication state
// (passwords, sessions) lives with the identity provider.
type User struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	Username    string   `gorm:"column:username;type:varchar(150);uniqueIndex;not null" json:"username"`
	Email       string   `gorm:"column:email;type:varchar(320);uniqueIndex;not null" json:"email"`
	FirstName   string   `gorm:"column:first_name;type:varchar(30)" json:"first_name"`
	LastName    string   `gorm:"column:last_name;type:varchar(30)" json:"last_name"`
	Phone       string   `gorm:"column:phone;type:varchar(15)" json:"phone,omitempty"`
	Role        UserRole `gorm:"column:role;type:varchar(20);not null;default:customer" json:"role"`
	IsActive    bool     `gorm:"column:is_active;not null" json:"is_active"`
	IsStaff     bool     `gorm:"column:is_staff;not null" json:"is_staff"`
	IsSuperuser bool     `gorm:"column:is_superuser;not null" json:"is_superuser"`
	BaseModel
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// FullName joins first and last name
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Identity returns the authority signals of this user record
func (u *User) Identity() *Identity {
	return &Identity{
		UserID:      u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
	}
}

// PropertyType groups properties (house, apartment, land, ...)
type PropertyType struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"column:name;type:varchar(100);uniqueIndex;not null" json:"name"`
	Description string `gorm:"column:description;type:text" json:"description,omitempty"`
	IsActive    bool   `gorm:"column:is_active;not null" json:"is_active"`
	BaseModel
}

// TableName specifies the table name for PropertyType
func (PropertyType) TableName() string {
	return "property_types"
}

// Property is a catalog listing
type Property struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	Title              string          `gorm:"column:title;type:varchar(200);not null" json:"title"`
	Description        string          `gorm:"column:description;type:text" json:"description"`
	Price              float64         `gorm:"column:price;type:decimal(14,2);not null;index" json:"price"`
	Location           string          `gorm:"column:location;type:varchar(255);not null" json:"location"`
	LocationSearch     string          `gorm:"column:location_search;type:varchar(255);not null;default:'';index" json:"-"`
	Address            string          `gorm:"column:address;type:varchar(255)" json:"address,omitempty"`
	Bedrooms           int             `gorm:"column:bedrooms;not null;default:0" json:"bedrooms"`
	Bathrooms          int             `gorm:"column:bathrooms;not null;default:0" json:"bathrooms"`
	Area               float64         `gorm:"column:area;type:decimal(12,2);not null;default:0" json:"area"`
	AreaUnit           AreaUnit        `gorm:"column:area_unit;type:varchar(20);not null;default:sqft" json:"area_unit"`
	LandRopani         float64         `gorm:"column:land_ropani;not null;default:0" json:"land_ropani"`
	LandAana           float64         `gorm:"column:land_aana;not null;default:0" json:"land_aana"`
	LandPaisa          float64         `gorm:"column:land_paisa;not null;default:0" json:"land_paisa"`
	LandDaam           float64         `gorm:"column:land_daam;not null;default:0" json:"land_daam"`
	Purpose            PropertyPurpose `gorm:"column:property_purpose;type:varchar(20);not null;default:sale" json:"property_purpose"`
	Status             PropertyStatus  `gorm:"column:status;type:varchar(20);not null;default:available" json:"status"`
	Latitude           *float64        `gorm:"column:latitude" json:"latitude,omitempty"`
	Longitude          *float64        `gorm:"column:longitude" json:"longitude,omitempty"`
	GoogleMapsEmbedURL string          `gorm:"column:google_maps_embed_url;type:text" json:"google_maps_embed_url,omitempty"`
	IsFeatured         bool            `gorm:"column:is_featured;not null;index" json:"is_featured"`
	IsActive           bool            `gorm:"column:is_active;not null;index" json:"is_active"`
	PropertyTypeID     uint            `gorm:"column:property_type_id;not null;index" json:"property_type_id"`
	PropertyType       *PropertyType   `gorm:"foreignKey:PropertyTypeID;constraint:OnDelete:CASCADE" json:"property_type,omitempty"`
	Images             []PropertyImage `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE" json:"images,omitempty"`
	BaseModel
}

// TableName specifies the table name for Property
func (Property) TableName() string {
	return "properties"
}

// BeforeSave keeps location_search in step with location. Lower-casing happens
// here rather than in SQL because SQLite's LOWER only folds ASCII.
func (p *Property) BeforeSave(tx *gorm.DB) error {
	p.LocationSearch = strings.ToLower(p.Location)
	return nil
}

// IsAvailable reports whether the property is on the market
func (p *Property) IsAvailable() bool {
	return p.Status == PropertyStatusAvailable
}

// LandArea returns the traditional land breakdown of the plot
func (p *Property) LandArea() LandArea {
	return LandArea{Ropani: p.LandRopani, Aana: p.LandAana, Paisa: p.LandPaisa, Daam: p.LandDaam}
}

// PropertyImage is one image of a property's ordered gallery
type PropertyImage struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	PropertyID uint   `gorm:"column:property_id;not null;index" json:"property_id"`
	Image      string `gorm:"column:image;type:text;not null" json:"image"`
	Caption    string `gorm:"column:caption;type:varchar(200)" json:"caption,omitempty"`
	IsPrimary  bool   `gorm:"column:is_primary;not null" json:"is_primary"`
	Order      int    `gorm:"column:sort_order;not null;default:0" json:"order"`
	BaseModel
}

// TableName specifies the table name for PropertyImage
func (PropertyImage) TableName() string {
	return "property_images"
}

// Agent is a public agent profile
type Agent struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	UserID          *uint          `gorm:"column:user_id;uniqueIndex" json:"user_id,omitempty"`
	Name            string         `gorm:"column:name;type:varchar(100);not null" json:"name"`
	Email           string         `gorm:"column:email;type:varchar(320)" json:"email,omitempty"`
	Phone           string         `gorm:"column:phone;type:varchar(15)" json:"phone,omitempty"`
	Bio             string         `gorm:"column:bio;type:text" json:"bio,omitempty"`
	ProfilePicture  string         `gorm:"column:profile_picture;type:text" json:"profile_picture,omitempty"`
	IsActive        bool           `gorm:"column:is_active;not null" json:"is_active"`
	Specializations []PropertyType `gorm:"many2many:agent_specializations;constraint:OnDelete:CASCADE" json:"specializations"`
	BaseModel
}

// TableName specifies the table name for Agent
func (Agent) TableName() string {
	return "agents"
}

// Contact is a message left through the public contact form
type Contact struct {
	ID                     uint          `gorm:"primaryKey" json:"id"`
	FirstName              string        `gorm:"column:first_name;type:varchar(50);not null" json:"first_name"`
	LastName               string        `gorm:"column:last_name;type:varchar(50);not null" json:"last_name"`
	Email                  string        `gorm:"column:email;type:varchar(320);not null" json:"email"`
	Phone                  string        `gorm:"column:phone;type:varchar(15)" json:"phone"`
	Subject                string        `gorm:"column:subject;type:varchar(200);not null" json:"subject"`
	Message                string        `gorm:"column:message;type:text;not null" json:"message"`
	PreferredContactMethod ContactMethod `gorm:"column:preferred_contact_method;type:varchar(20);not null;default:email" json:"preferred_contact_method"`
	Status                 ContactStatus `gorm:"column:status;type:varchar(20);not null;default:new;index" json:"status"`
	CustomerID             *uint         `gorm:"column:customer_id" json:"customer_id,omitempty"`
	AssignedAgentID        *uint         `gorm:"column:assigned_agent_id" json:"assigned_agent_id,omitempty"`
	BaseModel
}

// TableName specifies the table name for Contact
func (Contact) TableName() string {
	return "contacts"
}

// FullName joins first and last name
func (c *Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// SavedProperty marks a property as saved by a customer
type SavedProperty struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CustomerID uint      `gorm:"column:customer_id;not null;uniqueIndex:idx_saved_customer_property" json:"customer_id"`
	PropertyID uint      `gorm:"column:property_id;not null;uniqueIndex:idx_saved_customer_property" json:"property_id"`
	Property   *Property `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE" json:"property,omitempty"`
	BaseModel
}

// TableName specifies the table name for SavedProperty
func (SavedProperty) TableName() string {
	return "saved_properties"
}

// PropertyInquiry is a customer's question about a property
type PropertyInquiry struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	CustomerID uint          `gorm:"column:customer_id;not null;index" json:"customer_id"`
	PropertyID uint          `gorm:"column:property_id;not null;index" json:"property_id"`
	AgentID    *uint         `gorm:"column:agent_id" json:"agent_id,omitempty"`
	Message    string        `gorm:"column:message;type:text;not null" json:"message"`
	Status     InquiryStatus `gorm:"column:status;type:varchar(20);not null;default:pending;index" json:"status"`
	Property   *Property     `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE" json:"property,omitempty"`
	BaseModel
}

// TableName specifies the table name for PropertyInquiry
func (PropertyInquiry) TableName() string {
	return "property_inquiries"
}

// PropertyVisit is a scheduled viewing of a property
type PropertyVisit struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	CustomerID    uint        `gorm:"column:customer_id;not null;index" json:"customer_id"`
	PropertyID    uint        `gorm:"column:property_id;not null;index" json:"property_id"`
	AgentID       *uint       `gorm:"column:agent_id" json:"agent_id,omitempty"`
	ScheduledDate time.Time   `gorm:"column:scheduled_date;not null;index" json:"scheduled_date"`
	Notes         string      `gorm:"column:notes;type:text" json:"notes,omitempty"`
	Status        VisitStatus `gorm:"column:status;type:varchar(20);not null;default:scheduled;index" json:"status"`
	Property      *Property   `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE" json:"property,omitempty"`
	BaseModel
}

// TableName specifies the table name for PropertyVisit
func (PropertyVisit) TableName() string {
	return "property_visits"
}

// PropertyAlert stores a customer's saved search
type PropertyAlert struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	CustomerID uint   `gorm:"column:customer_id;not null;index" json:"customer_id"`
	Name       string `gorm:"column:name;type:varchar(100);not null" json:"name"`
	// Query is the URL-encoded filter, in the same vocabulary as the listing endpoint
	Query    string `gorm:"column:query;type:text;not null" json:"query"`
	IsActive bool   `gorm:"column:is_active;not null" json:"is_active"`
	BaseModel
}

// TableName specifies the table name for PropertyAlert
func (PropertyAlert) TableName() string {
	return "property_alerts"
}

// AllModels lists every persisted model in migration order
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&PropertyType{},
		&Property{},
		&PropertyImage{},
		&Agent{},
		&Contact{},
		&SavedProperty{},
		&PropertyInquiry{},
		&PropertyVisit{},
		&PropertyAlert{},
	}
}
