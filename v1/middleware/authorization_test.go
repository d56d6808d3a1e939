package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nurpratapkarki/realEstateWeb/v1/models"
	"github.com/nurpratapkarki/realEstateWeb/v1/utils"
	"github.com/stretchr/testify/assert"
)

func withIdentity(r *http.Request, identity *models.Identity) *http.Request {
	if identity == nil {
		return r
	}
	return r.WithContext(utils.SetIdentity(r.Context(), identity))
}

func TestAuthorizationMiddleware_AuthorizeRequest(t *testing.T) {
	utils.ResetEndpointCacheForTesting()

	admin := &models.Identity{UserID: 1, Role: models.UserRoleAdmin}
	superuser := &models.Identity{UserID: 2, Role: models.UserRoleCustomer, IsSuperuser: true}
	customer := &models.Identity{UserID: 3, Role: models.UserRoleCustomer}

	tests := []struct {
		name       string
		method     string
		path       string
		identity   *models.Identity
		wantStatus int
	}{
		{"anonymous reads listing", http.MethodGet, "/api/v1/properties", nil, http.StatusOK},
		{"anonymous on admin route is forbidden", http.MethodGet, "/api/v1/admin/users", nil, http.StatusForbidden},
		{"customer on admin route is forbidden", http.MethodGet, "/api/v1/admin/analytics", customer, http.StatusForbidden},
		{"admin on admin route", http.MethodGet, "/api/v1/admin/analytics", admin, http.StatusOK},
		{"superuser flag on admin route", http.MethodDelete, "/api/v1/admin/users/3", superuser, http.StatusOK},
		{"anonymous on customer route needs auth", http.MethodGet, "/api/v1/customer/saved-properties", nil, http.StatusUnauthorized},
		{"customer on customer route", http.MethodPost, "/api/v1/customer/inquiries", customer, http.StatusOK},
		{"admin on customer route", http.MethodGet, "/api/v1/customer/alerts", admin, http.StatusOK},
		{"anonymous me needs auth", http.MethodGet, "/api/v1/me", nil, http.StatusUnauthorized},
		{"customer creating property type", http.MethodPost, "/api/v1/property-types", customer, http.StatusForbidden},
		{"customer deleting agent", http.MethodDelete, "/api/v1/agents/2", customer, http.StatusForbidden},
		{"anonymous reads agent", http.MethodGet, "/api/v1/agents/2", nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewAuthorizationMiddleware().AuthorizeRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := withIdentity(httptest.NewRequest(tt.method, tt.path, nil), tt.identity)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = utils.GetRequestID(r.Context())
	}))

	t.Run("generates an ID", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
	})

	t.Run("reuses a valid inbound ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "3f1b6c1e-8d4a-4a57-9a8e-0f5b2c7d9e10")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, "3f1b6c1e-8d4a-4a57-9a8e-0f5b2c7d9e10", seen)
	})

	t.Run("replaces a malformed inbound ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "<script>")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.NotEqual(t, "<script>", seen)
	})
}

func TestAuditLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(previous)

	customer := &models.Identity{UserID: 3, Role: models.UserRoleCustomer}
	handler := AuditLoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		CaptureIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})).ServeHTTP(w, withIdentity(r, customer))
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/properties/5", nil))

	out := buf.String()
	assert.Contains(t, out, "Write operation denied")
	assert.Contains(t, out, "resource=properties")
	assert.Contains(t, out, "role=customer")
	assert.Contains(t, out, "actorID=3")

	buf.Reset()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/properties", nil))
	assert.Empty(t, buf.String())
}

func TestTargetResource(t *testing.T) {
	assert.Equal(t, "properties", targetResource("/api/v1/properties/5/images"))
	assert.Equal(t, "admin/users", targetResource("/api/v1/admin/users/3/toggle-staff"))
	assert.Equal(t, "customer/alerts", targetResource("/api/v1/customer/alerts"))
	assert.Equal(t, "", targetResource("/api/v1"))
}
