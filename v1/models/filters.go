package models

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	apierrors "github.com/nurpratapkarki/realEstateWeb/pkg/errors"
)

// Listing query parameter names
const (
	ParamPropertyType = "property_type"
	ParamMinPrice     = "min_price"
	ParamMaxPrice     = "max_price"
	ParamLocation     = "location"
	ParamBedrooms     = "bedrooms"
	ParamBathrooms    = "bathrooms"
	ParamIsFeatured   = "is_featured"
	ParamStatus       = "status"
	ParamPurpose      = "purpose"
	ParamIsActive     = "is_active"
	ParamPage         = "page"
	ParamPageSize     = "page_size"
)

// PageLimits bounds pagination
type PageLimits struct {
	DefaultPageSize int
	MaxPageSize     int
}

// DefaultPageLimits is used when no catalog configuration is loaded
var DefaultPageLimits = PageLimits{DefaultPageSize: 20, MaxPageSize: 100}

// PropertyFilter is the validated set of listing constraints. Nil fields are
// unconstrained. All constraints combine with AND.
type PropertyFilter struct {
	PropertyTypeID *uint
	MinPrice       *float64
	MaxPrice       *float64
	Location       *string
	Bedrooms       *int
	Bathrooms      *int
	// FeaturedOnly is set only by an explicit true; false and absent are equivalent.
	FeaturedOnly bool
	Status       *PropertyStatus
	Purpose      *PropertyPurpose
	// IsActive narrows admin listings. Non-admin listings are always active-only.
	IsActive *bool
	Page     int
	PageSize int
}

// Offset returns the row offset of the requested page
func (f *PropertyFilter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// ParsePropertyFilter validates raw query parameters into a PropertyFilter.
// Every parameter is checked independently; the first malformed one is
// reported as an invalid constraint naming that parameter. Empty values are
// treated as absent.
func ParsePropertyFilter(values url.Values, limits PageLimits) (*PropertyFilter, error) {
	if limits.DefaultPageSize <= 0 {
		limits.DefaultPageSize = DefaultPageLimits.DefaultPageSize
	}
	if limits.MaxPageSize <= 0 {
		limits.MaxPageSize = DefaultPageLimits.MaxPageSize
	}

	f := &PropertyFilter{Page: 1, PageSize: limits.DefaultPageSize}
	get := func(key string) string {
		return strings.TrimSpace(values.Get(key))
	}

	if raw := get(ParamPropertyType); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return nil, apierrors.InvalidConstraintError(ParamPropertyType, "property_type must be a positive integer")
		}
		typeID := uint(id)
		f.PropertyTypeID = &typeID
	}

	var err error
	if f.MinPrice, err = parsePrice(get(ParamMinPrice), ParamMinPrice); err != nil {
		return nil, err
	}
	if f.MaxPrice, err = parsePrice(get(ParamMaxPrice), ParamMaxPrice); err != nil {
		return nil, err
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return nil, apierrors.InvalidConstraintError(ParamMinPrice, "min_price must not exceed max_price")
	}

	if raw := get(ParamLocation); raw != "" {
		if len(raw) > MaxLocationLength {
			return nil, apierrors.InvalidConstraintError(ParamLocation, fmt.Sprintf("location must be at most %d characters", MaxLocationLength))
		}
		f.Location = &raw
	}

	if f.Bedrooms, err = parseCount(get(ParamBedrooms), ParamBedrooms); err != nil {
		return nil, err
	}
	if f.Bathrooms, err = parseCount(get(ParamBathrooms), ParamBathrooms); err != nil {
		return nil, err
	}

	if raw := get(ParamIsFeatured); raw != "" {
		featured, ok := parseBool(raw)
		if !ok {
			return nil, apierrors.InvalidConstraintError(ParamIsFeatured, "is_featured must be a boolean")
		}
		f.FeaturedOnly = featured
	}

	if raw := get(ParamStatus); raw != "" {
		status := PropertyStatus(strings.ToLower(raw))
		if !status.IsValid() {
			return nil, apierrors.InvalidConstraintError(ParamStatus, "status must be one of available, sold, pending, off_market")
		}
		f.Status = &status
	}

	if raw := get(ParamPurpose); raw != "" {
		purpose := PropertyPurpose(strings.ToLower(raw))
		if !purpose.IsValid() {
			return nil, apierrors.InvalidConstraintError(ParamPurpose, "purpose must be one of sale, rent, land")
		}
		f.Purpose = &purpose
	}

	if raw := get(ParamIsActive); raw != "" {
		active, ok := parseBool(raw)
		if !ok {
			return nil, apierrors.InvalidConstraintError(ParamIsActive, "is_active must be a boolean")
		}
		f.IsActive = &active
	}

	if raw := get(ParamPage); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return nil, apierrors.InvalidConstraintError(ParamPage, "page must be a positive integer")
		}
		f.Page = page
	}

	if raw := get(ParamPageSize); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 || size > limits.MaxPageSize {
			return nil, apierrors.InvalidConstraintError(ParamPageSize, fmt.Sprintf("page_size must be between 1 and %d", limits.MaxPageSize))
		}
		f.PageSize = size
	}

	// The row offset must fit a 32-bit integer on every supported store
	if f.Page > math.MaxInt32/f.PageSize {
		return nil, apierrors.InvalidConstraintError(ParamPage, fmt.Sprintf("page must be at most %d for page_size %d", math.MaxInt32/f.PageSize, f.PageSize))
	}

	return f, nil
}

// Values renders the constraints back into query parameters. Pagination is
// omitted so the result can be stored as a saved search.
func (f *PropertyFilter) Values() url.Values {
	v := url.Values{}
	if f.PropertyTypeID != nil {
		v.Set(ParamPropertyType, strconv.FormatUint(uint64(*f.PropertyTypeID), 10))
	}
	if f.MinPrice != nil {
		v.Set(ParamMinPrice, strconv.FormatFloat(*f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice != nil {
		v.Set(ParamMaxPrice, strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64))
	}
	if f.Location != nil {
		v.Set(ParamLocation, *f.Location)
	}
	if f.Bedrooms != nil {
		v.Set(ParamBedrooms, strconv.Itoa(*f.Bedrooms))
	}
	if f.Bathrooms != nil {
		v.Set(ParamBathrooms, strconv.Itoa(*f.Bathrooms))
	}
	if f.FeaturedOnly {
		v.Set(ParamIsFeatured, "true")
	}
	if f.Status != nil {
		v.Set(ParamStatus, string(*f.Status))
	}
	if f.Purpose != nil {
		v.Set(ParamPurpose, string(*f.Purpose))
	}
	return v
}

func parsePrice(raw, param string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return nil, apierrors.InvalidConstraintError(param, param+" must be a number")
	}
	if price < 0 {
		return nil, apierrors.InvalidConstraintError(param, param+" must not be negative")
	}
	return &price, nil
}

func parseCount(raw, param string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return nil, apierrors.InvalidConstraintError(param, param+" must be a non-negative integer")
	}
	return &n, nil
}

func parseBool(raw string) (bool, bool) {
	switch strings.ToLower(raw) {
	case "true", "1", "yes", "on":
		return true, true
	case "false", "0", "no", "off":
		return false, true
	}
	return false, false
}
