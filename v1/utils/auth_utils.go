package utils

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/nurpratapkarki/realEstateWeb/v1/models"
)

// AuthContextKey is the key used to store request-scoped values in the context
type AuthContextKey string

const (
	AuthContextKeyIdentity  AuthContextKey = "identity"
	AuthContextKeyRequestID AuthContextKey = "request_id"
)

// ExtractBearerToken extracts the Bearer token from the Authorization header
func ExtractBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("authorization header is missing")
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", fmt.Errorf("authorization header must start with 'Bearer '")
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", fmt.Errorf("bearer token is empty")
	}

	return token, nil
}

// SetIdentity stores the caller's identity in the context
func SetIdentity(ctx context.Context, identity *models.Identity) context.Context {
	return context.WithValue(ctx, AuthContextKeyIdentity, identity)
}

// GetIdentity returns the caller's identity, or nil for anonymous callers
func GetIdentity(ctx context.Context) *models.Identity {
	identity, _ := ctx.Value(AuthContextKeyIdentity).(*models.Identity)
	return identity
}

// SetRequestID stores the request ID in the context
func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, AuthContextKeyRequestID, requestID)
}

// GetRequestID returns the request ID, or "" when none was assigned
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(AuthContextKeyRequestID).(string)
	return id
}

// GetRequestIP extracts the client IP address from the request
func GetRequestIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	if r.RemoteAddr != "" {
		if idx := strings.LastIndex(r.RemoteAddr, ":"); idx != -1 {
			return r.RemoteAddr[:idx]
		}
		return r.RemoteAddr
	}

	return "unknown"
}

// MatchesEndpoint checks if a request path matches an endpoint pattern.
// A trailing "/*" matches any sub-path.
func MatchesEndpoint(requestPath, endpointPattern string) bool {
	if endpointPattern == requestPath {
		return true
	}

	if strings.HasSuffix(endpointPattern, "/*") {
		prefix := strings.TrimSuffix(endpointPattern, "*")
		return strings.HasPrefix(requestPath, prefix)
	}

	return false
}

func methodMatches(pattern, method string) bool {
	return pattern == "*" || pattern == method
}

// endpointLookupCache caches endpoint permissions for O(1) lookup
type endpointLookupCache struct {
	exactMatches    map[string]*models.EndpointPermission // method:path -> permission
	wildcardMatches []models.EndpointPermission
}

var (
	endpointCache *endpointLookupCache
	initOnce      sync.Once
)

func initializeEndpointCache() {
	initOnce.Do(func() {
		cache := &endpointLookupCache{
			exactMatches:    make(map[string]*models.EndpointPermission),
			wildcardMatches: make([]models.EndpointPermission, 0),
		}

		for i := range models.EndpointPermissions {
			ep := &models.EndpointPermissions[i]
			if strings.Contains(ep.Path, "*") || ep.Method == "*" {
				cache.wildcardMatches = append(cache.wildcardMatches, *ep)
				continue
			}
			cache.exactMatches[ep.Method+":"+ep.Path] = ep
		}

		endpointCache = cache
	})
}

// FindEndpointPermission finds the required permission for a given HTTP method and path.
// Exact matches win over wildcard patterns; wildcards are tried in declaration order.
func FindEndpointPermission(method, path string) (*models.EndpointPermission, bool) {
	initializeEndpointCache()

	path = strings.TrimSuffix(path, "/")
	if ep, exists := endpointCache.exactMatches[method+":"+path]; exists {
		return ep, true
	}

	for i := range endpointCache.wildcardMatches {
		ep := &endpointCache.wildcardMatches[i]
		if methodMatches(ep.Method, method) && MatchesEndpoint(path, ep.Path) {
			return ep, true
		}
	}

	return nil, false
}

// ResetEndpointCacheForTesting resets the endpoint cache for testing purposes
func ResetEndpointCacheForTesting() {
	endpointCache = nil
	initOnce = sync.Once{}
}
