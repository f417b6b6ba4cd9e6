package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kiranshivaraju/contentgen/internal/api/response"
	"github.com/kiranshivaraju/contentgen/internal/config"
	"github.com/kiranshivaraju/contentgen/internal/store"
	"golang.org/x/crypto/bcrypt"
)

const keyPrefixLen = 8

var (
	// ErrTenantRequired is returned when no tenant can be resolved for a request.
	ErrTenantRequired = errors.New("tenant_id is required")
	// ErrTenantMismatch is returned when a request names a tenant other than
	// the one its API key belongs to.
	ErrTenantMismatch = errors.New("tenant_id does not match the authenticated tenant")
)

// Auth provides authentication and scope-checking middleware.
type Auth struct {
	store store.Store
	mode  string
}

// NewAuth creates a new Auth middleware. mode is config.AuthModeHeader or
// config.AuthModeAPIKey; anything else is treated as header mode.
func NewAuth(s store.Store, mode string) *Auth {
	return &Auth{store: s, mode: mode}
}

// Authenticate checks the Authorization header. In header mode any value is
// accepted and the tenant comes from the request itself. In apikey mode the
// Bearer token is looked up by prefix, verified with bcrypt, and its tenant,
// key prefix and scopes are set in the request context.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" {
			slog.Warn("request without authorization", "path", r.URL.Path)
			response.Error(w, http.StatusUnauthorized,
				"MISSING_AUTHORIZATION", "Missing authorization", nil)
			return
		}

		if a.mode != config.AuthModeAPIKey {
			r = r.WithContext(setKeyPrefix(r.Context(), rateSubject(header)))
			next.ServeHTTP(w, r)
			return
		}

		rawKey := extractBearerToken(r)
		if rawKey == "" {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Missing or invalid Authorization header", nil)
			return
		}

		if len(rawKey) < keyPrefixLen {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Invalid API key format", nil)
			return
		}

		prefix := rawKey[:keyPrefixLen]

		keys, err := a.store.GetAPIKeyByPrefix(r.Context(), prefix)
		if err != nil {
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "Failed to validate API key", nil)
			return
		}

		// Find matching key by bcrypt comparison
		var matched bool
		for _, key := range keys {
			if bcrypt.CompareHashAndPassword([]byte(key.KeyHash), []byte(rawKey)) == nil {
				ctx := r.Context()
				ctx = SetTenantID(ctx, key.TenantID)
				ctx = setKeyPrefix(ctx, prefix)
				ctx = setScopes(ctx, key.Scopes)
				r = r.WithContext(ctx)
				matched = true

				// Update last_used_at async
				go func() {
					if err := a.store.UpdateAPIKeyLastUsed(context.Background(), key.ID); err != nil {
						slog.Warn("updating api key last_used_at failed", "key_id", key.ID, "error", err)
					}
				}()
				break
			}
		}

		if !matched {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Invalid API key", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireScope returns middleware that checks whether the authenticated
// API key has the specified scope. Header-mode requests carry no scopes and
// pass through.
func (a *Auth) RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if a.mode != config.AuthModeAPIKey {
				next.ServeHTTP(w, r)
				return
			}
			for _, s := range getScopes(r) {
				if s == scope {
					next.ServeHTTP(w, r)
					return
				}
			}
			response.Error(w, http.StatusForbidden,
				"FORBIDDEN", "Insufficient permissions", nil)
		})
	}
}

// ResolveTenant returns the tenant a request acts for. A tenant bound by API
// key authentication wins; a differing requested tenant is ErrTenantMismatch.
// Without a bound tenant the requested one is used as-is.
func ResolveTenant(r *http.Request, requested string) (string, error) {
	if bound, ok := GetTenantID(r); ok {
		if requested != "" && requested != bound {
			slog.Warn("tenant mismatch", "tenant_id", bound, "requested_tenant_id", requested)
			return "", ErrTenantMismatch
		}
		return bound, nil
	}
	if requested == "" {
		return "", ErrTenantRequired
	}
	return requested, nil
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// rateSubject derives a rate limit bucket from an unverified Authorization value.
func rateSubject(header string) string {
	if _, token, ok := strings.Cut(header, " "); ok {
		header = strings.TrimSpace(token)
	}
	if len(header) > keyPrefixLen {
		header = header[:keyPrefixLen]
	}
	return "hdr:" + header
}
