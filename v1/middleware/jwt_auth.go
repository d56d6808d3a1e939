package middleware

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apierrors "github.com/nurpratapkarki/realEstateWeb/pkg/errors"
	"github.com/nurpratapkarki/realEstateWeb/v1/models"
	"github.com/nurpratapkarki/realEstateWeb/v1/utils"
)

// JWKS represents the JSON Web Key Set structure
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK represents a single JSON Web Key
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// IdentityLoader reads the user record named by a token subject
type IdentityLoader interface {
	LoadUser(ctx context.Context, userID uint) (*models.User, error)
}

// JWTAuthMiddleware attaches the caller's identity to the request context.
// Requests without an Authorization header continue as anonymous.
type JWTAuthMiddleware struct {
	secret           []byte
	jwksURL          string
	expectedIssuer   string
	expectedAudience string
	httpClient       *http.Client
	loader           IdentityLoader

	keysMutex sync.RWMutex
	keys      map[string]*rsa.PublicKey
	lastFetch time.Time
}

// JWTAuthConfig contains configuration for JWT authentication.
// Secret enables HS256 tokens, JWKSURL enables RS256 tokens; both may be set.
type JWTAuthConfig struct {
	Secret           string
	JWKSURL          string
	ExpectedIssuer   string
	ExpectedAudience string
	Timeout          time.Duration
}

// NewJWTAuthMiddleware creates a new JWT authentication middleware
func NewJWTAuthMiddleware(config JWTAuthConfig, loader IdentityLoader) *JWTAuthMiddleware {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &JWTAuthMiddleware{
		secret:           []byte(config.Secret),
		jwksURL:          config.JWKSURL,
		expectedIssuer:   config.ExpectedIssuer,
		expectedAudience: config.ExpectedAudience,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		loader: loader,
		keys:   make(map[string]*rsa.PublicKey),
	}
}

// AuthenticateJWT returns a middleware function that resolves the caller's identity
func (j *JWTAuthMiddleware) AuthenticateJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if j.shouldSkipAuth(r.URL.Path) || r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)
			return
		}

		tokenString, err := utils.ExtractBearerToken(r)
		if err != nil {
			slog.Warn("Failed to extract bearer token", "error", err, "path", r.URL.Path, "method", r.Method)
			utils.RespondWithAPIError(w, r, apierrors.UnauthorizedError("Invalid or missing authorization header"))
			return
		}

		claims, err := j.validateToken(tokenString)
		if err != nil {
			slog.Warn("Token validation failed", "error", err, "path", r.URL.Path, "method", r.Method)
			utils.RespondWithAPIError(w, r, apierrors.UnauthorizedError("Invalid access token"))
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			slog.Warn("Token subject rejected", "error", err, "path", r.URL.Path)
			utils.RespondWithAPIError(w, r, apierrors.UnauthorizedError("Invalid access token"))
			return
		}

		user, err := j.loader.LoadUser(r.Context(), userID)
		if err != nil {
			if apiErr := apierrors.GetAPIError(err); apiErr == nil || apiErr.Type != apierrors.ErrorTypeNotFound {
				utils.RespondWithAPIError(w, r, err)
				return
			}
			slog.Warn("Token subject has no user record", "userID", userID, "path", r.URL.Path)
			utils.RespondWithAPIError(w, r, apierrors.UnauthorizedError("User not found"))
			return
		}
		if !user.IsActive {
			slog.Warn("Inactive user rejected", "userID", userID, "path", r.URL.Path)
			utils.RespondWithAPIError(w, r, apierrors.UnauthorizedError("User account is disabled"))
			return
		}

		identity := user.Identity()
		slog.Debug("User authenticated",
			"userID", identity.UserID,
			"role", models.ResolveRole(identity),
			"path", r.URL.Path,
			"method", r.Method)

		next.ServeHTTP(w, r.WithContext(utils.SetIdentity(r.Context(), identity)))
	})
}

// validateToken verifies the signature and standard claims of a token
func (j *JWTAuthMiddleware) validateToken(tokenString string) (*models.UserClaims, error) {
	methods := make([]string, 0, 2)
	if len(j.secret) > 0 {
		methods = append(methods, jwt.SigningMethodHS256.Alg())
	}
	if j.jwksURL != "" {
		methods = append(methods, jwt.SigningMethodRS256.Alg())
	}
	if len(methods) == 0 {
		return nil, fmt.Errorf("no token verification method configured")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods(methods), jwt.WithExpirationRequired()}
	if j.expectedIssuer != "" {
		opts = append(opts, jwt.WithIssuer(j.expectedIssuer))
	}
	if j.expectedAudience != "" {
		opts = append(opts, jwt.WithAudience(j.expectedAudience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &models.UserClaims{}, j.keyFunc, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*models.UserClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

func (j *JWTAuthMiddleware) keyFunc(token *jwt.Token) (interface{}, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodHMAC:
		return j.secret, nil
	case *jwt.SigningMethodRSA:
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, fmt.Errorf("missing 'kid' in token header")
		}
		return j.publicKey(kid)
	}
	return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
}

// publicKey returns the JWKS key for kid, refreshing the set once on a miss
func (j *JWTAuthMiddleware) publicKey(kid string) (*rsa.PublicKey, error) {
	if err := j.ensureKeysFresh(); err != nil {
		return nil, fmt.Errorf("failed to ensure fresh keys: %w", err)
	}

	j.keysMutex.RLock()
	key, exists := j.keys[kid]
	j.keysMutex.RUnlock()
	if exists {
		return key, nil
	}

	slog.Info("Key not found, refreshing JWKS", "kid", kid)
	if err := j.fetchJWKS(); err != nil {
		return nil, fmt.Errorf("failed to refresh JWKS: %w", err)
	}

	j.keysMutex.RLock()
	defer j.keysMutex.RUnlock()
	if key, exists = j.keys[kid]; !exists {
		return nil, fmt.Errorf("no public key found for kid: %s", kid)
	}
	return key, nil
}

// fetchJWKS fetches the JWKS from the configured endpoint
func (j *JWTAuthMiddleware) fetchJWKS() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.jwksURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := j.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read JWKS response: %w", err)
	}

	var jwks JWKS
	if err := json.Unmarshal(body, &jwks); err != nil {
		return fmt.Errorf("failed to parse JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey)
	for _, key := range jwks.Keys {
		if key.Kty != "RSA" || (key.Use != "" && key.Use != "sig") {
			continue
		}
		publicKey, err := buildRSAPublicKey(key.N, key.E)
		if err != nil {
			slog.Warn("Failed to build RSA public key", "kid", key.Kid, "error", err)
			continue
		}
		keys[key.Kid] = publicKey
	}

	j.keysMutex.Lock()
	j.keys = keys
	j.lastFetch = time.Now()
	j.keysMutex.Unlock()

	slog.Info("Successfully fetched JWKS", "keys_count", len(keys))
	return nil
}

// buildRSAPublicKey constructs an RSA public key from modulus and exponent
func buildRSAPublicKey(nStr, eStr string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(nStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}

	eBytes, err := base64.RawURLEncoding.DecodeString(eStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}

	n := new(big.Int).SetBytes(nBytes)
	e := new(big.Int).SetBytes(eBytes)

	if !e.IsInt64() || e.Int64() < 2 {
		return nil, fmt.Errorf("invalid exponent")
	}

	return &rsa.PublicKey{
		N: n,
		E: int(e.Int64()),
	}, nil
}

// ensureKeysFresh refreshes the JWKS when it is empty or older than 1 hour
func (j *JWTAuthMiddleware) ensureKeysFresh() error {
	j.keysMutex.RLock()
	stale := len(j.keys) == 0 || time.Since(j.lastFetch) > time.Hour
	j.keysMutex.RUnlock()

	if stale {
		return j.fetchJWKS()
	}
	return nil
}

// shouldSkipAuth determines if authentication should be skipped for this path
func (j *JWTAuthMiddleware) shouldSkipAuth(path string) bool {
	skipPaths := []string{
		"/health",
		"/metrics",
		"/favicon.ico",
	}

	for _, skipPath := range skipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}
	return false
}
