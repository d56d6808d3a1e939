package middleware

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apierrors "github.com/nurpratapkarki/realEstateWeb/pkg/errors"
	"github.com/nurpratapkarki/realEstateWeb/v1/models"
	"github.com/nurpratapkarki/realEstateWeb/v1/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

type fakeLoader map[uint]*models.User

func (f fakeLoader) LoadUser(_ context.Context, userID uint) (*models.User, error) {
	if u, ok := f[userID]; ok {
		return u, nil
	}
	return nil, apierrors.NotFoundError("User")
}

func testUsers() fakeLoader {
	return fakeLoader{
		1: {ID: 1, Username: "admin", Role: models.UserRoleAdmin, IsActive: true},
		2: {ID: 2, Username: "legacy-staff", Role: models.UserRoleCustomer, IsStaff: true, IsActive: true},
		3: {ID: 3, Username: "customer", Role: models.UserRoleCustomer, IsActive: true},
		4: {ID: 4, Username: "disabled", Role: models.UserRoleCustomer, IsActive: false},
	}
}

func signHS256(t *testing.T, subject string, expiresIn time.Duration) string {
	claims := models.UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

// identityProbe records the identity the middleware attached
func identityProbe(got **models.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = utils.GetIdentity(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticateJWT_HS256(t *testing.T) {
	mw := NewJWTAuthMiddleware(JWTAuthConfig{Secret: testSecret}, testUsers())

	tests := []struct {
		name         string
		header       string
		wantStatus   int
		wantIdentity bool
		wantUserID   uint
		wantRole     models.Role
	}{
		{name: "no header is anonymous", wantStatus: http.StatusOK},
		{name: "admin role", header: "Bearer " + signHS256(t, "1", time.Hour), wantStatus: http.StatusOK, wantIdentity: true, wantUserID: 1, wantRole: models.RoleAdmin},
		{name: "legacy staff flag", header: "Bearer " + signHS256(t, "2", time.Hour), wantStatus: http.StatusOK, wantIdentity: true, wantUserID: 2, wantRole: models.RoleAdmin},
		{name: "customer", header: "Bearer " + signHS256(t, "3", time.Hour), wantStatus: http.StatusOK, wantIdentity: true, wantUserID: 3, wantRole: models.RoleCustomer},
		{name: "inactive user", header: "Bearer " + signHS256(t, "4", time.Hour), wantStatus: http.StatusUnauthorized},
		{name: "unknown user", header: "Bearer " + signHS256(t, "99", time.Hour), wantStatus: http.StatusUnauthorized},
		{name: "non numeric subject", header: "Bearer " + signHS256(t, "abc", time.Hour), wantStatus: http.StatusUnauthorized},
		{name: "expired token", header: "Bearer " + signHS256(t, "1", -time.Minute), wantStatus: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not-a-token", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic YWRtaW46YWRtaW4=", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *models.Identity
			handler := mw.AuthenticateJWT(identityProbe(&got))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/properties", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if !tt.wantIdentity {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantUserID, got.UserID)
			assert.Equal(t, tt.wantRole, models.ResolveRole(got))
		})
	}
}

func TestAuthenticateJWT_WrongSecret(t *testing.T) {
	mw := NewJWTAuthMiddleware(JWTAuthConfig{Secret: "another-secret"}, testUsers())
	var got *models.Identity

	req := httptest.NewRequest(http.MethodGet, "/api/v1/properties", nil)
	req.Header.Set("Authorization", "Bearer "+signHS256(t, "1", time.Hour))
	w := httptest.NewRecorder()
	mw.AuthenticateJWT(identityProbe(&got)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, got)
}

func TestAuthenticateJWT_IssuerAndAudience(t *testing.T) {
	mw := NewJWTAuthMiddleware(JWTAuthConfig{
		Secret:           testSecret,
		ExpectedIssuer:   "https://auth.realestate.example.com",
		ExpectedAudience: "catalog",
	}, testUsers())

	sign := func(issuer, audience string) string {
		claims := models.UserClaims{RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return token
	}

	for name, tc := range map[string]struct {
		token string
		want  int
	}{
		"matching":       {sign("https://auth.realestate.example.com", "catalog"), http.StatusOK},
		"wrong issuer":   {sign("https://other.example.com", "catalog"), http.StatusUnauthorized},
		"wrong audience": {sign("https://auth.realestate.example.com", "billing"), http.StatusUnauthorized},
	} {
		t.Run(name, func(t *testing.T) {
			var got *models.Identity
			req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
			req.Header.Set("Authorization", "Bearer "+tc.token)
			w := httptest.NewRecorder()
			mw.AuthenticateJWT(identityProbe(&got)).ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestAuthenticateJWT_SkipsHealth(t *testing.T) {
	mw := NewJWTAuthMiddleware(JWTAuthConfig{Secret: testSecret}, testUsers())
	var got *models.Identity

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	mw.AuthenticateJWT(identityProbe(&got)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthenticateJWT_RS256WithJWKS(t *testing.T) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	var fetches int32
	jwksServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fetches, 1)
		jwks := JWKS{Keys: []JWK{{
			Kty: "RSA",
			Kid: "key-1",
			Use: "sig",
			Alg: "RS256",
			N:   base64.RawURLEncoding.EncodeToString(privateKey.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(privateKey.E)).Bytes()),
		}}}
		_ = json.NewEncoder(w).Encode(jwks)
	}))
	defer jwksServer.Close()

	mw := NewJWTAuthMiddleware(JWTAuthConfig{JWKSURL: jwksServer.URL}, testUsers())

	signRS := func(kid string) string {
		claims := models.UserClaims{RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(3),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
		token.Header["kid"] = kid
		signed, err := token.SignedString(privateKey)
		require.NoError(t, err)
		return signed
	}

	t.Run("known key", func(t *testing.T) {
		var got *models.Identity
		req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
		req.Header.Set("Authorization", "Bearer "+signRS("key-1"))
		w := httptest.NewRecorder()
		mw.AuthenticateJWT(identityProbe(&got)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, got)
		assert.Equal(t, uint(3), got.UserID)
	})

	t.Run("unknown key refreshes once then fails", func(t *testing.T) {
		before := atomic.LoadInt32(&fetches)
		var got *models.Identity
		req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
		req.Header.Set("Authorization", "Bearer "+signRS("rotated-key"))
		w := httptest.NewRecorder()
		mw.AuthenticateJWT(identityProbe(&got)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, before+1, atomic.LoadInt32(&fetches))
	})

	t.Run("HS256 rejected when only JWKS configured", func(t *testing.T) {
		var got *models.Identity
		req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
		req.Header.Set("Authorization", "Bearer "+signHS256(t, "3", time.Hour))
		w := httptest.NewRecorder()
		mw.AuthenticateJWT(identityProbe(&got)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestBuildRSAPublicKey(t *testing.T) {
	_, err := buildRSAPublicKey("%%%", "AQAB")
	assert.Error(t, err)

	_, err = buildRSAPublicKey(base64.RawURLEncoding.EncodeToString([]byte{1, 2, 3}), base64.RawURLEncoding.EncodeToString([]byte{1}))
	assert.Error(t, err)

	key, err := buildRSAPublicKey(base64.RawURLEncoding.EncodeToString([]byte{1, 2, 3}), "AQAB")
	require.NoError(t, err)
	assert.Equal(t, 65537, key.E)
}
