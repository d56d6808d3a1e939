package utils

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apierrors "github.com/nurpratapkarki/realEstateWeb/pkg/errors"
	"github.com/nurpratapkarki/realEstateWeb/v1/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindEndpointPermission(t *testing.T) {
	ResetEndpointCacheForTesting()

	tests := []struct {
		name          string
		method        string
		path          string
		expectedFound bool
		expectedPerm  models.Permission
		expectedAuth  bool
	}{
		{"Exact match - GET me", "GET", "/api/v1/me", true, models.PermissionCustomerRecords, true},
		{"Exact match - POST property types", "POST", "/api/v1/property-types", true, models.PermissionWritePropertyType, false},
		{"Trailing slash is ignored", "POST", "/api/v1/agents/", true, models.PermissionWriteAgent, false},
		{"Wildcard match - DELETE agent", "DELETE", "/api/v1/agents/4", true, models.PermissionWriteAgent, false},
		{"Any method - admin users", "GET", "/api/v1/admin/users/3", true, models.PermissionManageUsers, false},
		{"Any method - customer alerts", "POST", "/api/v1/customer/alerts", true, models.PermissionCustomerRecords, true},
		{"Exact match - POST property", "POST", "/api/v1/properties", true, models.PermissionWriteProperty, false},
		{"Wildcard match - PATCH property", "PATCH", "/api/v1/properties/9", true, models.PermissionWriteProperty, false},
		{"Wildcard match - POST property image", "POST", "/api/v1/properties/9/images", true, models.PermissionWriteImage, false},
		{"Wildcard match - set primary image", "POST", "/api/v1/images/2/set-primary", true, models.PermissionWriteImage, false},
		{"No match - public listing", "GET", "/api/v1/properties", false, "", false},
		{"No match - property images listing", "GET", "/api/v1/properties/9/images", false, "", false},
		{"No match - GET agent detail", "GET", "/api/v1/agents/4", false, "", false},
		{"No match - wrong method", "PATCH", "/api/v1/property-types", false, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep, found := FindEndpointPermission(tt.method, tt.path)

			assert.Equal(t, tt.expectedFound, found)
			if !tt.expectedFound {
				return
			}
			require.NotNil(t, ep)
			assert.Equal(t, tt.expectedPerm, ep.Permission)
			assert.Equal(t, tt.expectedAuth, ep.AuthenticationRequired)
		})
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid", "Bearer abc.def.ghi", "abc.def.ghi", false},
		{"missing header", "", "", true},
		{"wrong scheme", "Basic dXNlcjpwYXNz", "", true},
		{"empty token", "Bearer   ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			token, err := ExtractBearerToken(req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, token)
		})
	}
}

func TestIdentityContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, GetIdentity(ctx))

	identity := &models.Identity{UserID: 9, Role: models.UserRoleAdmin}
	ctx = SetIdentity(ctx, identity)
	assert.Equal(t, identity, GetIdentity(ctx))

	ctx = SetRequestID(ctx, "req-1")
	assert.Equal(t, "req-1", GetRequestID(ctx))
}

func TestGetRequestIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
	assert.Equal(t, "10.0.0.1", GetRequestIP(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", "10.0.0.3")
	assert.Equal(t, "10.0.0.3", GetRequestIP(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.5:4321"
	assert.Equal(t, "192.168.1.5", GetRequestIP(req))
}

func TestRespondWithAPIError(t *testing.T) {
	t.Run("APIError keeps status and details", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/properties", nil)
		req = req.WithContext(SetRequestID(req.Context(), "req-42"))
		w := httptest.NewRecorder()

		RespondWithAPIError(w, req, apierrors.InvalidConstraintError("min_price", "min_price must not exceed max_price"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var body struct {
			Error struct {
				Type    string `json:"type"`
				Code    string `json:"code"`
				Details string `json:"details"`
			} `json:"error"`
			RequestID string `json:"request_id"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "invalid_constraint", body.Error.Type)
		assert.Equal(t, "min_price", body.Error.Details)
		assert.Equal(t, "req-42", body.RequestID)
	})

	t.Run("plain error becomes internal error", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()

		RespondWithAPIError(w, req, errors.New("connection reset by peer"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "connection reset")
	})
}

func TestPanicRecoveryMiddleware(t *testing.T) {
	handler := PanicRecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestPathSegmentsAndParseID(t *testing.T) {
	assert.Equal(t, []string{"5", "images"}, PathSegments("/api/v1/properties/5/images/", "/api/v1/properties"))
	assert.Nil(t, PathSegments("/api/v1/properties", "/api/v1/properties"))

	id, err := ParseID("12", "Property")
	require.NoError(t, err)
	assert.Equal(t, uint(12), id)

	_, err = ParseID("abc", "Property")
	assert.ErrorIs(t, err, apierrors.ErrNotFound)
}

func TestParseOptionalBool(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?is_active=no&is_staff=maybe", nil)

	v, err := ParseOptionalBool(req, "is_active")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.False(t, *v)

	_, err = ParseOptionalBool(req, "is_staff")
	assert.ErrorIs(t, err, apierrors.ErrInvalidConstraint)

	v, err = ParseOptionalBool(req, "missing")
	require.NoError(t, err)
	assert.Nil(t, v)
}
