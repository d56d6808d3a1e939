package models

import (
	"math"
	"time"
)

// CreatePropertyRequest is the body of POST /properties and PUT /properties/{id}
type CreatePropertyRequest struct {
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Price              float64         `json:"price"`
	Location           string          `json:"location"`
	Address            string          `json:"address,omitempty"`
	Bedrooms           int             `json:"bedrooms"`
	Bathrooms          int             `json:"bathrooms"`
	Area               float64         `json:"area"`
	AreaUnit           AreaUnit        `json:"area_unit,omitempty"`
	LandRopani         float64         `json:"land_ropani,omitempty"`
	LandAana           float64         `json:"land_aana,omitempty"`
	LandPaisa          float64         `json:"land_paisa,omitempty"`
	LandDaam           float64         `json:"land_daam,omitempty"`
	Purpose            PropertyPurpose `json:"property_purpose,omitempty"`
	Status             PropertyStatus  `json:"status,omitempty"`
	Latitude           *float64        `json:"latitude,omitempty"`
	Longitude          *float64        `json:"longitude,omitempty"`
	GoogleMapsEmbedURL string          `json:"google_maps_embed_url,omitempty"`
	IsFeatured         bool            `json:"is_featured"`
	IsActive           *bool           `json:"is_active,omitempty"`
	PropertyTypeID     uint            `json:"property_type_id"`
}

// UpdatePropertyRequest is the body of PATCH /properties/{id}; nil fields are left unchanged
type UpdatePropertyRequest struct {
	Title              *string          `json:"title,omitempty"`
	Description        *string          `json:"description,omitempty"`
	Price              *float64         `json:"price,omitempty"`
	Location           *string          `json:"location,omitempty"`
	Address            *string          `json:"address,omitempty"`
	Bedrooms           *int             `json:"bedrooms,omitempty"`
	Bathrooms          *int             `json:"bathrooms,omitempty"`
	Area               *float64         `json:"area,omitempty"`
	AreaUnit           *AreaUnit        `json:"area_unit,omitempty"`
	LandRopani         *float64         `json:"land_ropani,omitempty"`
	LandAana           *float64         `json:"land_aana,omitempty"`
	LandPaisa          *float64         `json:"land_paisa,omitempty"`
	LandDaam           *float64         `json:"land_daam,omitempty"`
	Purpose            *PropertyPurpose `json:"property_purpose,omitempty"`
	Status             *PropertyStatus  `json:"status,omitempty"`
	Latitude           *float64         `json:"latitude,omitempty"`
	Longitude          *float64         `json:"longitude,omitempty"`
	GoogleMapsEmbedURL *string          `json:"google_maps_embed_url,omitempty"`
	IsFeatured         *bool            `json:"is_featured,omitempty"`
	IsActive           *bool            `json:"is_active,omitempty"`
	PropertyTypeID     *uint            `json:"property_type_id,omitempty"`
}

// PropertyResponse is the API representation of a property
type PropertyResponse struct {
	ID                 uint                    `json:"id"`
	Title              string                  `json:"title"`
	Description        string                  `json:"description"`
	Price              float64                 `json:"price"`
	Location           string                  `json:"location"`
	Address            string                  `json:"address,omitempty"`
	Bedrooms           int                     `json:"bedrooms"`
	Bathrooms          int                     `json:"bathrooms"`
	Area               float64                 `json:"area"`
	AreaUnit           AreaUnit                `json:"area_unit"`
	AreaSquareFeet     *float64                `json:"area_sqft,omitempty"`
	LandArea           *LandArea               `json:"land_area,omitempty"`
	LandAreaSquareFeet *float64                `json:"land_area_sqft,omitempty"`
	Purpose            PropertyPurpose         `json:"property_purpose"`
	Status             PropertyStatus          `json:"status"`
	IsAvailable        bool                    `json:"is_available"`
	Latitude           *float64                `json:"latitude,omitempty"`
	Longitude          *float64                `json:"longitude,omitempty"`
	GoogleMapsEmbedURL string                  `json:"google_maps_embed_url,omitempty"`
	IsFeatured         bool                    `json:"is_featured"`
	IsActive           bool                    `json:"is_active"`
	PropertyTypeID     uint                    `json:"property_type_id"`
	PropertyTypeName   string                  `json:"property_type_name,omitempty"`
	PrimaryImage       *PropertyImageResponse  `json:"primary_image,omitempty"`
	Images             []PropertyImageResponse `json:"images,omitempty"`
	CreatedAt          string                  `json:"created_at"`
	UpdatedAt          string                  `json:"updated_at"`
}

// NewPropertyResponse builds the API representation of a property. Images are
// included only when withImages is set (detail views).
func NewPropertyResponse(p *Property, withImages bool) PropertyResponse {
	resp := PropertyResponse{
		ID:                 p.ID,
		Title:              p.Title,
		Description:        p.Description,
		Price:              p.Price,
		Location:           p.Location,
		Address:            p.Address,
		Bedrooms:           p.Bedrooms,
		Bathrooms:          p.Bathrooms,
		Area:               p.Area,
		AreaUnit:           p.AreaUnit,
		Purpose:            p.Purpose,
		Status:             p.Status,
		IsAvailable:        p.IsAvailable(),
		Latitude:           p.Latitude,
		Longitude:          p.Longitude,
		GoogleMapsEmbedURL: p.GoogleMapsEmbedURL,
		IsFeatured:         p.IsFeatured,
		IsActive:           p.IsActive,
		PropertyTypeID:     p.PropertyTypeID,
		CreatedAt:          p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          p.UpdatedAt.Format(time.RFC3339),
	}
	if sqft, err := ToSquareFeet(p.Area, p.AreaUnit); err == nil {
		rounded := math.Round(sqft*100) / 100
		resp.AreaSquareFeet = &rounded
	}
	if land := p.LandArea(); !land.IsZero() {
		landSqft := math.Round(land.SquareFeet()*100) / 100
		resp.LandArea = &land
		resp.LandAreaSquareFeet = &landSqft
	}
	if p.PropertyType != nil {
		resp.PropertyTypeName = p.PropertyType.Name
	}
	for i := range p.Images {
		img := NewPropertyImageResponse(&p.Images[i])
		if img.IsPrimary {
			primary := img
			resp.PrimaryImage = &primary
		}
		if withImages {
			resp.Images = append(resp.Images, img)
		}
	}
	if withImages && resp.Images == nil {
		resp.Images = []PropertyImageResponse{}
	}
	return resp
}

// PaginatedPropertiesResponse is the listing envelope
type PaginatedPropertiesResponse struct {
	Count    int64              `json:"count"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
	Results  []PropertyResponse `json:"results"`
}

// CreatePropertyImageRequest is the body of POST /properties/{id}/images.
// Order nil or 0 appends; IsPrimary nil means false.
type CreatePropertyImageRequest struct {
	Image     string `json:"image"`
	Caption   string `json:"caption,omitempty"`
	Order     *int   `json:"order,omitempty"`
	IsPrimary *bool  `json:"is_primary,omitempty"`
}

// UpdatePropertyImageRequest is the body of PUT /images/{id}
type UpdatePropertyImageRequest struct {
	Image     *string `json:"image,omitempty"`
	Caption   *string `json:"caption,omitempty"`
	Order     *int    `json:"order,omitempty"`
	IsPrimary *bool   `json:"is_primary,omitempty"`
}

// PropertyImageResponse is the API representation of an image
type PropertyImageResponse struct {
	ID         uint   `json:"id"`
	PropertyID uint   `json:"property_id"`
	Image      string `json:"image"`
	Caption    string `json:"caption,omitempty"`
	IsPrimary  bool   `json:"is_primary"`
	Order      int    `json:"order"`
	CreatedAt  string `json:"created_at"`
}

// NewPropertyImageResponse builds the API representation of an image
func NewPropertyImageResponse(img *PropertyImage) PropertyImageResponse {
	return PropertyImageResponse{
		ID:         img.ID,
		PropertyID: img.PropertyID,
		Image:      img.Image,
		Caption:    img.Caption,
		IsPrimary:  img.IsPrimary,
		Order:      img.Order,
		CreatedAt:  img.CreatedAt.Format(time.RFC3339),
	}
}

// PropertyTypeRequest is the body of POST/PUT /property-types
type PropertyTypeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

// AgentRequest is the body of POST/PUT /agents
type AgentRequest struct {
	UserID            *uint  `json:"user_id,omitempty"`
	Name              string `json:"name"`
	Email             string `json:"email,omitempty"`
	Phone             string `json:"phone,omitempty"`
	Bio               string `json:"bio,omitempty"`
	ProfilePicture    string `json:"profile_picture,omitempty"`
	IsActive          *bool  `json:"is_active,omitempty"`
	SpecializationIDs []uint `json:"specialization_ids"`
}

// CreateContactRequest is the body of POST /contacts
type CreateContactRequest struct {
	FirstName              string        `json:"first_name"`
	LastName               string        `json:"last_name"`
	Email                  string        `json:"email"`
	Phone                  string        `json:"phone"`
	Subject                string        `json:"subject"`
	Message                string        `json:"message"`
	PreferredContactMethod ContactMethod `json:"preferred_contact_method,omitempty"`
}

// ContactFilter narrows the admin contact listing
type ContactFilter struct {
	Status  string
	Subject string
	Search  string
}

// ContactStatsResponse summarizes contacts by status
type ContactStatsResponse struct {
	Total    int64                   `json:"total"`
	ByStatus map[ContactStatus]int64 `json:"by_status"`
}

// UpdateStatusRequest is the body of the explicit status transition endpoints
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// UserFilter narrows the admin user listing
type UserFilter struct {
	IsActive *bool
	IsStaff  *bool
	Search   string
}

// CreateUserRequest is the body of POST /admin/users
type CreateUserRequest struct {
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	FirstName   string   `json:"first_name,omitempty"`
	LastName    string   `json:"last_name,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	Role        UserRole `json:"role,omitempty"`
	IsStaff     bool     `json:"is_staff,omitempty"`
	IsSuperuser bool     `json:"is_superuser,omitempty"`
}

// UpdateUserRequest is the body of PUT /admin/users/{id}; nil fields are left unchanged
type UpdateUserRequest struct {
	Email     *string   `json:"email,omitempty"`
	FirstName *string   `json:"first_name,omitempty"`
	LastName  *string   `json:"last_name,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Role      *UserRole `json:"role,omitempty"`
	IsActive  *bool     `json:"is_active,omitempty"`
}

// UserResponse is the admin representation of a user
type UserResponse struct {
	ID           uint     `json:"id"`
	Username     string   `json:"username"`
	Email        string   `json:"email"`
	FullName     string   `json:"full_name"`
	Phone        string   `json:"phone,omitempty"`
	Role         UserRole `json:"role"`
	ResolvedRole Role     `json:"resolved_role"`
	IsActive     bool     `json:"is_active"`
	IsStaff      bool     `json:"is_staff"`
	IsSuperuser  bool     `json:"is_superuser"`
	DateJoined   string   `json:"date_joined"`
}

// NewUserResponse builds the admin representation of a user
func NewUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		FullName:     u.FullName(),
		Phone:        u.Phone,
		Role:         u.Role,
		ResolvedRole: ResolveRole(u.Identity()),
		IsActive:     u.IsActive,
		IsStaff:      u.IsStaff,
		IsSuperuser:  u.IsSuperuser,
		DateJoined:   u.CreatedAt.Format(time.RFC3339),
	}
}

// UserStatsResponse summarizes the user base
type UserStatsResponse struct {
	TotalUsers    int64 `json:"total_users"`
	ActiveUsers   int64 `json:"active_users"`
	InactiveUsers int64 `json:"inactive_users"`
	StaffUsers    int64 `json:"staff_users"`
	AdminUsers    int64 `json:"admin_users"`
	RecentUsers   int64 `json:"recent_users"`
}

// RoleFixResult reports one user changed (or to be changed) by the role repair
type RoleFixResult struct {
	UserID      uint   `json:"user_id"`
	Username    string `json:"username"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
}

// SavePropertyRequest is the body of POST /customer/saved-properties
type SavePropertyRequest struct {
	PropertyID uint `json:"property_id"`
}

// CreateInquiryRequest is the body of POST /customer/inquiries
type CreateInquiryRequest struct {
	PropertyID uint   `json:"property_id"`
	AgentID    *uint  `json:"agent_id,omitempty"`
	Message    string `json:"message"`
}

// CreateVisitRequest is the body of POST /customer/visits
type CreateVisitRequest struct {
	PropertyID    uint      `json:"property_id"`
	AgentID       *uint     `json:"agent_id,omitempty"`
	ScheduledDate time.Time `json:"scheduled_date"`
	Notes         string    `json:"notes,omitempty"`
}

// CreateAlertRequest is the body of POST /customer/alerts. Query uses the
// listing endpoint's parameter vocabulary, e.g. "location=kathmandu&bedrooms=3".
type CreateAlertRequest struct {
	Name  string `json:"name"`
	Query string `json:"query"`
}

// AnalyticsResponse is the admin dashboard summary
type AnalyticsResponse struct {
	TotalProperties  int64              `json:"total_properties"`
	ActiveProperties int64              `json:"active_properties"`
	TotalUsers       int64              `json:"total_users"`
	TotalAgents      int64              `json:"total_agents"`
	TotalInquiries   int64              `json:"total_inquiries"`
	PendingInquiries int64              `json:"pending_inquiries"`
	ScheduledVisits  int64              `json:"scheduled_visits"`
	RecentProperties []PropertyResponse `json:"recent_properties"`
}

// MeResponse describes the caller
type MeResponse struct {
	Identity *Identity `json:"identity"`
	Role     Role      `json:"role"`
}

// SavedPropertyResponse is one entry of a customer's saved list
type SavedPropertyResponse struct {
	ID         uint             `json:"id"`
	PropertyID uint             `json:"property_id"`
	SavedAt    string           `json:"saved_at"`
	Property   PropertyResponse `json:"property"`
}

// NewSavedPropertyResponse builds the API representation of a saved property;
// the Property relation must be loaded
func NewSavedPropertyResponse(s *SavedProperty) SavedPropertyResponse {
	resp := SavedPropertyResponse{
		ID:         s.ID,
		PropertyID: s.PropertyID,
		SavedAt:    s.CreatedAt.Format(time.RFC3339),
	}
	if s.Property != nil {
		resp.Property = NewPropertyResponse(s.Property, false)
	}
	return resp
}

// CollectionResponse wraps unpaginated lists
type CollectionResponse struct {
	Items interface{} `json:"items"`
	Count int         `json:"count"`
}
