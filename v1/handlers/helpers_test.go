package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nurpratapkarki/realEstateWeb/v1/middleware"
	"github.com/nurpratapkarki/realEstateWeb/v1/models"
	"github.com/nurpratapkarki/realEstateWeb/v1/services"
	"github.com/nurpratapkarki/realEstateWeb/v1/utils"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	admin    = &models.Identity{UserID: 1, Username: "admin", Role: models.UserRoleAdmin}
	customer = &models.Identity{UserID: 2, Username: "buyer", Role: models.UserRoleCustomer}
	legacy   = &models.Identity{UserID: 3, Username: "legacy", Role: models.UserRoleCustomer, IsStaff: true}
)

// testAPI serves the V1 routes behind the authorization gate. Identities are
// injected directly into the request context in place of JWT authentication.
type testAPI struct {
	t       *testing.T
	db      *gorm.DB
	handler http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db := services.SetupSQLiteTestDB(t)
	seedIdentities(t, db)
	h, err := NewV1Handler(db, nil, services.DefaultCatalogOptions)
	require.NoError(t, err)

	mux := http.NewServeMux()
	h.SetupV1Routes(mux)
	return &testAPI{
		t:       t,
		db:      db,
		handler: middleware.NewAuthorizationMiddleware().AuthorizeRequest(mux),
	}
}

// seedIdentities stores a user row behind each fixture identity so records
// created by a test never reuse their IDs
func seedIdentities(t *testing.T, db *gorm.DB) {
	t.Helper()
	for _, identity := range []*models.Identity{admin, customer, legacy} {
		user := models.User{
			ID:          identity.UserID,
			Username:    identity.Username,
			Email:       identity.Username + "@example.com",
			Role:        identity.Role,
			IsActive:    true,
			IsStaff:     identity.IsStaff,
			IsSuperuser: identity.IsSuperuser,
		}
		require.NoError(t, db.Create(&user).Error)
	}
}

func (a *testAPI) do(method, path string, body interface{}, identity *models.Identity) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if identity != nil {
		req = req.WithContext(utils.SetIdentity(req.Context(), identity))
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

// seed creates a property type and one property in it through the API
func (a *testAPI) seed(typeName string, req models.CreatePropertyRequest) (models.PropertyType, models.PropertyResponse) {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/v1/property-types", models.PropertyTypeRequest{Name: typeName}, admin)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	propertyType := decode[models.PropertyType](a.t, rec)

	req.PropertyTypeID = propertyType.ID
	rec = a.do(http.MethodPost, "/api/v1/properties", req, admin)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return propertyType, decode[models.PropertyResponse](a.t, rec)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type errorBody struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Details string `json:"details"`
	} `json:"error"`
}

type itemsBody[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func listing(title, location string, price float64) models.CreatePropertyRequest {
	return models.CreatePropertyRequest{
		Title:    title,
		Location: location,
		Price:    price,
		Bedrooms: 3,
		Area:     1200,
	}
}
