package services

import (
	"context"
	"net/url"
	"strconv"
	"testing"
	"time"

	apierrors "github.com/nurpratapkarki/realEstateWeb/pkg/errors"
	"github.com/nurpratapkarki/realEstateWeb/v1/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listingSeed struct {
	houseID uint
	landID  uint
}

func seedListings(t *testing.T, f *catalogFixture) listingSeed {
	house := f.propertyType(t, "House")
	land := f.propertyType(t, "Land")

	f.property(t, house.ID, func(p *models.Property) {
		p.Title, p.Price, p.Location, p.Bedrooms, p.Bathrooms = "Baneshwor family home", 150000, "New Baneshwor, Kathmandu", 3, 2
	})
	f.property(t, house.ID, func(p *models.Property) {
		p.Title, p.Price, p.Location, p.Bedrooms, p.Bathrooms = "Lalitpur villa", 250000, "Jhamsikhel, Lalitpur", 4, 3
		p.IsFeatured = true
	})
	f.property(t, house.ID, func(p *models.Property) {
		p.Title, p.Price, p.Location, p.Bedrooms, p.Bathrooms = "Flat to rent", 800, "Thamel, KATHMANDU", 3, 1
		p.Purpose = models.PropertyPurposeRent
		p.IsFeatured = true
	})
	f.property(t, land.ID, func(p *models.Property) {
		p.Title, p.Price, p.Location, p.Bedrooms, p.Bathrooms = "Bhaktapur plot", 90000, "Bhaktapur", 0, 0
		p.Purpose = models.PropertyPurposeLand
		p.Status = models.PropertyStatusSold
	})
	f.property(t, house.ID, func(p *models.Property) {
		p.Title, p.Price, p.Location, p.Bedrooms, p.Bathrooms = "Hidden draft", 120000, "Kathmandu", 3, 2
		p.IsActive = false
		p.IsFeatured = true
	})
	f.property(t, land.ID, func(p *models.Property) {
		p.Title, p.Price, p.Location = "Odd 100%_name", 50000, "Pokhara 100%_lake"
	})

	return listingSeed{houseID: house.ID, landID: land.ID}
}

func listTitles(t *testing.T, f *catalogFixture, identity *models.Identity, query url.Values) []string {
	filter, err := models.ParsePropertyFilter(query, f.catalog.PageLimits())
	require.NoError(t, err)
	page, err := f.catalog.ListProperties(context.Background(), identity, filter)
	require.NoError(t, err)

	titles := make([]string, 0, len(page.Results))
	for _, r := range page.Results {
		titles = append(titles, r.Title)
	}
	return titles
}

func TestCompileFilter_Constraints(t *testing.T) {
	f := newCatalogFixture(t)
	seed := seedListings(t, f)

	tests := []struct {
		name  string
		query url.Values
		want  []string
	}{
		{
			name:  "bedrooms is an exact match",
			query: url.Values{"bedrooms": {"3"}},
			want:  []string{"Baneshwor family home", "Flat to rent"},
		},
		{
			name:  "price bounds are inclusive",
			query: url.Values{"min_price": {"90000"}, "max_price": {"150000"}},
			want:  []string{"Baneshwor family home", "Bhaktapur plot"},
		},
		{
			name:  "location is a case-insensitive substring",
			query: url.Values{"location": {"kathmandu"}},
			want:  []string{"Baneshwor family home", "Flat to rent"},
		},
		{
			name:  "location wildcards are literal",
			query: url.Values{"location": {"%_"}},
			want:  []string{"Odd 100%_name"},
		},
		{
			name:  "featured true restricts",
			query: url.Values{"is_featured": {"true"}},
			want:  []string{"Lalitpur villa", "Flat to rent"},
		},
		{
			name:  "featured false is the same as absent",
			query: url.Values{"is_featured": {"false"}},
			want:  []string{"Baneshwor family home", "Lalitpur villa", "Flat to rent", "Bhaktapur plot", "Odd 100%_name"},
		},
		{
			name:  "property type",
			query: url.Values{"property_type": {uintString(seed.landID)}},
			want:  []string{"Bhaktapur plot", "Odd 100%_name"},
		},
		{
			name:  "status",
			query: url.Values{"status": {"sold"}},
			want:  []string{"Bhaktapur plot"},
		},
		{
			name:  "purpose",
			query: url.Values{"purpose": {"rent"}},
			want:  []string{"Flat to rent"},
		},
		{
			name:  "constraints combine with AND",
			query: url.Values{"property_type": {uintString(seed.houseID)}, "bedrooms": {"3"}, "bathrooms": {"2"}},
			want:  []string{"Baneshwor family home"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := listTitles(t, f, nil, tt.query)
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestCompileFilter_LocationFoldsNonASCII(t *testing.T) {
	f := newCatalogFixture(t)
	pt := f.propertyType(t, "Apartment")
	p := f.property(t, pt.ID, func(p *models.Property) {
		p.Title, p.Location = "Lakeside flat", "ZÜRICH Seefeld"
	})

	assert.Equal(t, []string{"Lakeside flat"}, listTitles(t, f, nil, url.Values{"location": {"zürich"}}))
	assert.Equal(t, []string{"Lakeside flat"}, listTitles(t, f, nil, url.Values{"location": {"Zürich SEEFELD"}}))

	p.Location = "Genève"
	require.NoError(t, f.db.Save(p).Error)
	assert.Empty(t, listTitles(t, f, nil, url.Values{"location": {"zürich"}}))
	assert.Equal(t, []string{"Lakeside flat"}, listTitles(t, f, nil, url.Values{"location": {"GENÈVE"}}))
}

func TestCompileFilter_AddingConstraintsNeverGrowsResult(t *testing.T) {
	f := newCatalogFixture(t)
	seed := seedListings(t, f)

	constraints := []url.Values{
		{"property_type": {uintString(seed.houseID)}},
		{"min_price": {"100000"}},
		{"max_price": {"200000"}},
		{"location": {"kath"}},
		{"bedrooms": {"3"}},
		{"is_featured": {"true"}},
	}

	all := listTitles(t, f, nil, url.Values{})
	previous := all
	accumulated := url.Values{}
	for _, c := range constraints {
		for k, v := range c {
			accumulated[k] = v
		}
		got := listTitles(t, f, nil, accumulated)
		assert.LessOrEqual(t, len(got), len(previous), "constraints %v", accumulated)
		assert.Subset(t, all, got)
		previous = got
	}
}

func TestListProperties_Visibility(t *testing.T) {
	f := newCatalogFixture(t)
	seedListings(t, f)

	t.Run("anonymous never sees inactive", func(t *testing.T) {
		assert.NotContains(t, listTitles(t, f, nil, url.Values{}), "Hidden draft")
	})

	t.Run("customer never sees inactive even when asking", func(t *testing.T) {
		assert.NotContains(t, listTitles(t, f, customerIdentity, url.Values{"is_active": {"false"}}), "Hidden draft")
	})

	t.Run("admin sees inactive", func(t *testing.T) {
		assert.Contains(t, listTitles(t, f, adminIdentity, url.Values{}), "Hidden draft")
		assert.Equal(t, []string{"Hidden draft"}, listTitles(t, f, adminIdentity, url.Values{"is_active": {"false"}}))
	})

	t.Run("legacy staff flag counts as admin", func(t *testing.T) {
		assert.Contains(t, listTitles(t, f, staffIdentity, url.Values{}), "Hidden draft")
	})
}

func TestListProperties_OrderingAndPagination(t *testing.T) {
	f := newCatalogFixture(t)
	pt := f.propertyType(t, "House")
	for _, title := range []string{"first", "second", "third", "fourth", "fifth"} {
		title := title
		f.property(t, pt.ID, func(p *models.Property) { p.Title = title })
	}

	filter, err := models.ParsePropertyFilter(url.Values{"page": {"2"}, "page_size": {"2"}}, f.catalog.PageLimits())
	require.NoError(t, err)

	page, err := f.catalog.ListProperties(context.Background(), nil, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Count)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.PageSize)
	require.Len(t, page.Results, 2)
	assert.Equal(t, "third", page.Results[0].Title)
	assert.Equal(t, "second", page.Results[1].Title)

	t.Run("identical creation times fall back to id", func(t *testing.T) {
		sameTime := f.clock.Add(time.Hour)
		a := f.property(t, pt.ID, func(p *models.Property) { p.Title = "tie-a"; p.CreatedAt = sameTime })
		b := f.property(t, pt.ID, func(p *models.Property) { p.Title = "tie-b"; p.CreatedAt = sameTime })
		require.Less(t, a.ID, b.ID)

		titles := listTitles(t, f, nil, url.Values{"page_size": {"2"}})
		assert.Equal(t, []string{"tie-b", "tie-a"}, titles)
	})
}

func TestListProperties_RejectsInvertedPriceRange(t *testing.T) {
	_, err := models.ParsePropertyFilter(url.Values{"min_price": {"200000"}, "max_price": {"100000"}}, models.DefaultPageLimits)
	require.Error(t, err)
	assert.ErrorIs(t, err, apierrors.ErrInvalidConstraint)
	assert.Equal(t, "min_price", apierrors.GetAPIError(err).Details)
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%kathmandu%", containsPattern("KathMandu"))
	assert.Equal(t, `%100\%\_x%`, containsPattern("100%_x"))
	assert.Equal(t, `%a\\b%`, containsPattern(`a\b`))
}

func TestPropertyLocks_ReleasesEntries(t *testing.T) {
	locks := newPropertyLocks()
	unlockA := locks.lock(1)
	unlockB := locks.lock(2)
	assert.Len(t, locks.locks, 2)
	unlockA()
	unlockB()
	assert.Empty(t, locks.locks)

	locks.lock(3)()
	assert.Empty(t, locks.locks)
}

func uintString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
