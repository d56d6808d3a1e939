package services

import (
	"strings"

	"github.com/nurpratapkarki/realEstateWeb/v1/models"
	"gorm.io/gorm"
)

// listingOrder is the only ordering the catalog exposes: newest first, with
// the identifier breaking ties between rows created in the same instant.
const listingOrder = "properties.created_at DESC, properties.id DESC"

// imageOrder orders a gallery by its explicit order, then insertion sequence
const imageOrder = "sort_order ASC, id ASC"

// CompileFilter lowers a validated PropertyFilter into a query over properties.
// activeOnly forces is_active=true regardless of the filter; otherwise the
// filter's IsActive narrows the result when set.
func CompileFilter(db *gorm.DB, f *models.PropertyFilter, activeOnly bool) *gorm.DB {
	query := db.Model(&models.Property{})

	if activeOnly {
		query = query.Where("properties.is_active = ?", true)
	} else if f.IsActive != nil {
		query = query.Where("properties.is_active = ?", *f.IsActive)
	}

	if f.PropertyTypeID != nil {
		query = query.Where("properties.property_type_id = ?", *f.PropertyTypeID)
	}
	if f.MinPrice != nil {
		query = query.Where("properties.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		query = query.Where("properties.price <= ?", *f.MaxPrice)
	}
	if f.Location != nil {
		query = query.Where("properties.location_search LIKE ? ESCAPE '\\'", containsPattern(*f.Location))
	}
	if f.Bedrooms != nil {
		query = query.Where("properties.bedrooms = ?", *f.Bedrooms)
	}
	if f.Bathrooms != nil {
		query = query.Where("properties.bathrooms = ?", *f.Bathrooms)
	}
	if f.FeaturedOnly {
		query = query.Where("properties.is_featured = ?", true)
	}
	if f.Status != nil {
		query = query.Where("properties.status = ?", string(*f.Status))
	}
	if f.Purpose != nil {
		query = query.Where("properties.property_purpose = ?", string(*f.Purpose))
	}

	return query
}

// paginate applies the filter's page window and the listing order
func paginate(query *gorm.DB, f *models.PropertyFilter) *gorm.DB {
	return query.Order(listingOrder).Offset(f.Offset()).Limit(f.PageSize)
}

// containsPattern builds a lower-cased LIKE pattern matching s as a literal substring
func containsPattern(s string) string {
	escaper := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + escaper.Replace(strings.ToLower(s)) + "%"
}

// preloadListing loads what a listing row renders: its type and its images
func preloadListing(query *gorm.DB) *gorm.DB {
	return query.
		Preload("PropertyType").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order(imageOrder) })
}
