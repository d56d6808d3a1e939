package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nurpratapkarki/realEstateWeb/v1/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	adminIdentity    = &models.Identity{UserID: 1, Username: "admin", Role: models.UserRoleAdmin}
	customerIdentity = &models.Identity{UserID: 2, Username: "buyer", Role: models.UserRoleCustomer}
	// legacy record: customer role column, staff flag set
	staffIdentity = &models.Identity{UserID: 3, Username: "legacy", Role: models.UserRoleCustomer, IsStaff: true}
)

// memoryCache is an in-process ListingCache
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	deletes int
	failGet bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return false, errors.New("cache unavailable")
	}
	data, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (c *memoryCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes++
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// recordingPublisher keeps every published event
type recordingPublisher struct {
	mu     sync.Mutex
	events []map[string]interface{}
	fail   bool
}

func (p *recordingPublisher) PublishEvent(_ context.Context, _ string, data map[string]interface{}) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return "", errors.New("stream unavailable")
	}
	p.events = append(p.events, data)
	return "1-0", nil
}

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e["entity"].(string)+"."+e["action"].(string))
	}
	return out
}

type catalogFixture struct {
	db        *gorm.DB
	catalog   *CatalogService
	cache     *memoryCache
	publisher *recordingPublisher
	clock     time.Time
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	db := RequireTestDB(t)
	cache := newMemoryCache()
	publisher := &recordingPublisher{}
	notifier := NewChangeNotifier(cache, publisher, "test-events", time.Minute)
	return &catalogFixture{
		db:        db,
		catalog:   NewCatalogService(db, notifier, DefaultCatalogOptions),
		cache:     cache,
		publisher: publisher,
		clock:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *catalogFixture) propertyType(t *testing.T, name string) *models.PropertyType {
	pt := &models.PropertyType{Name: name, IsActive: true}
	require.NoError(t, f.db.Create(pt).Error)
	return pt
}

// property inserts an active property; each call is created one minute after the previous one
func (f *catalogFixture) property(t *testing.T, typeID uint, mutate func(p *models.Property)) *models.Property {
	f.clock = f.clock.Add(time.Minute)
	p := &models.Property{
		Title:          "Listing",
		Price:          100000,
		Location:       "Kathmandu",
		Bedrooms:       2,
		Bathrooms:      1,
		AreaUnit:       models.AreaUnitSquareFeet,
		Purpose:        models.PropertyPurposeSale,
		Status:         models.PropertyStatusAvailable,
		IsActive:       true,
		PropertyTypeID: typeID,
	}
	p.CreatedAt = f.clock
	if mutate != nil {
		mutate(p)
	}
	require.NoError(t, f.db.Create(p).Error)
	return p
}

func (f *catalogFixture) user(t *testing.T, username string, mutate func(u *models.User)) *models.User {
	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Role:     models.UserRoleCustomer,
		IsActive: true,
	}
	if mutate != nil {
		mutate(u)
	}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

func boolPtr(b bool) *bool { return &b }

func intPtr(i int) *int { return &i }

func strPtr(s string) *string { return &s }
