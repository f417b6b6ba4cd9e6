package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	mw "github.com/kiranshivaraju/contentgen/internal/api/middleware"
	"github.com/kiranshivaraju/contentgen/internal/config"
	"github.com/kiranshivaraju/contentgen/internal/store"
	"github.com/kiranshivaraju/contentgen/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- Mock Store ---

type brokenStore struct {
	*store.MemoryStore
}

func (brokenStore) GetAPIKeyByPrefix(_ context.Context, _ string) ([]*models.APIKey, error) {
	return nil, errors.New("connection refused")
}

// --- Mock Cache ---

type mockCache struct {
	counter int64
	err     error
	keys    []string
}

func (m *mockCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error { return nil }
func (m *mockCache) Get(_ context.Context, _ string) ([]byte, bool, error)            { return nil, false, nil }
func (m *mockCache) Delete(_ context.Context, _ string) error                         { return nil }
func (m *mockCache) Ping(_ context.Context) error                                     { return nil }
func (m *mockCache) SetJob(_ context.Context, _ *models.Job, _ time.Duration) error   { return nil }
func (m *mockCache) GetJob(_ context.Context, _ string) (*models.Job, bool, error) {
	return nil, false, nil
}
func (m *mockCache) IncrWithExpiry(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.keys = append(m.keys, key)
	m.counter++
	return m.counter, m.err
}

// --- helpers ---

func okHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}
}

func errBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"].(map[string]any)
}

// keyStore returns a MemoryStore holding one bcrypt-hashed key for tenant.
func keyStore(t *testing.T, rawKey, tenant string, scopes ...string) *store.MemoryStore {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(rawKey), bcrypt.MinCost)
	require.NoError(t, err)

	s := store.NewMemoryStore()
	now := time.Now().UTC()
	require.NoError(t, s.CreateAPIKey(context.Background(), &models.APIKey{
		ID:        uuid.New(),
		TenantID:  tenant,
		Name:      "test",
		KeyHash:   string(h),
		KeyPrefix: rawKey[:8],
		Scopes:    scopes,
		CreatedAt: now,
		UpdatedAt: now,
	}))
	return s
}

func serve(h http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/test", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// ========================================
// Auth Middleware Tests: header mode
// ========================================

func TestAuth_Header_MissingAuthorization(t *testing.T) {
	auth := mw.NewAuth(store.NewMemoryStore(), config.AuthModeHeader)

	w := serve(auth.Authenticate(okHandler()), "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "MISSING_AUTHORIZATION", errBody(t, w)["code"])
}

func TestAuth_Header_AnyValueAccepted(t *testing.T) {
	auth := mw.NewAuth(store.NewMemoryStore(), config.AuthModeHeader)

	var bound bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, bound = mw.GetTenantID(r)
		w.WriteHeader(http.StatusOK)
	})

	w := serve(auth.Authenticate(inner), "Basic whatever")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, bound)
}

func TestAuth_Header_RequireScopePassesThrough(t *testing.T) {
	auth := mw.NewAuth(store.NewMemoryStore(), config.AuthModeHeader)

	w := serve(auth.Authenticate(auth.RequireScope("admin")(okHandler())), "Bearer anything")

	assert.Equal(t, http.StatusOK, w.Code)
}

// ========================================
// Auth Middleware Tests: apikey mode
// ========================================

func TestAuth_APIKey_MissingAuthHeader(t *testing.T) {
	auth := mw.NewAuth(store.NewMemoryStore(), config.AuthModeAPIKey)

	w := serve(auth.Authenticate(okHandler()), "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "MISSING_AUTHORIZATION", errBody(t, w)["code"])
}

func TestAuth_APIKey_InvalidBearerFormat(t *testing.T) {
	auth := mw.NewAuth(store.NewMemoryStore(), config.AuthModeAPIKey)

	w := serve(auth.Authenticate(okHandler()), "Basic abc123")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_TOKEN", errBody(t, w)["code"])
}

func TestAuth_APIKey_KeyTooShort(t *testing.T) {
	auth := mw.NewAuth(store.NewMemoryStore(), config.AuthModeAPIKey)

	w := serve(auth.Authenticate(okHandler()), "Bearer short")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_APIKey_KeyNotFound(t *testing.T) {
	auth := mw.NewAuth(store.NewMemoryStore(), config.AuthModeAPIKey)

	w := serve(auth.Authenticate(okHandler()), "Bearer cg_test1234567890")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_APIKey_WrongSecret(t *testing.T) {
	s := keyStore(t, "cg_test1234567890abcdef", "acme")
	auth := mw.NewAuth(s, config.AuthModeAPIKey)

	w := serve(auth.Authenticate(okHandler()), "Bearer cg_test1-not-the-right-key")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_TOKEN", errBody(t, w)["code"])
}

func TestAuth_APIKey_StoreError(t *testing.T) {
	auth := mw.NewAuth(brokenStore{store.NewMemoryStore()}, config.AuthModeAPIKey)

	w := serve(auth.Authenticate(okHandler()), "Bearer cg_test1234567890")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAuth_APIKey_ValidKeyBindsTenant(t *testing.T) {
	rawKey := "cg_test1234567890abcdef"
	auth := mw.NewAuth(keyStore(t, rawKey, "acme", "generate"), config.AuthModeAPIKey)

	var gotTenantID string
	var gotOK bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTenantID, gotOK = mw.GetTenantID(r)
		w.WriteHeader(http.StatusOK)
	})

	w := serve(auth.Authenticate(inner), "Bearer "+rawKey)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, gotOK)
	assert.Equal(t, "acme", gotTenantID)
}

func TestAuth_APIKey_RequireScope(t *testing.T) {
	rawKey := "cg_admin1234567890abcdef"
	auth := mw.NewAuth(keyStore(t, rawKey, "acme", "generate"), config.AuthModeAPIKey)

	w := serve(auth.Authenticate(auth.RequireScope("generate")(okHandler())), "Bearer "+rawKey)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(auth.Authenticate(auth.RequireScope("admin")(okHandler())), "Bearer "+rawKey)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", errBody(t, w)["code"])
}

// ========================================
// ResolveTenant Tests
// ========================================

func TestResolveTenant(t *testing.T) {
	unbound := httptest.NewRequest("POST", "/", nil)
	bound := unbound.WithContext(mw.SetTenantID(unbound.Context(), "acme"))

	tenant, err := mw.ResolveTenant(unbound, "globex")
	require.NoError(t, err)
	assert.Equal(t, "globex", tenant)

	_, err = mw.ResolveTenant(unbound, "")
	assert.ErrorIs(t, err, mw.ErrTenantRequired)

	tenant, err = mw.ResolveTenant(bound, "")
	require.NoError(t, err)
	assert.Equal(t, "acme", tenant)

	tenant, err = mw.ResolveTenant(bound, "acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", tenant)

	_, err = mw.ResolveTenant(bound, "globex")
	assert.ErrorIs(t, err, mw.ErrTenantMismatch)
}

// ========================================
// Rate Limit Middleware Tests
// ========================================

func withSubject(r *http.Request, subject string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), mw.ExportedKeyPrefixKey(), subject))
}

func TestRateLimit_AllowsUnderLimit(t *testing.T) {
	mc := &mockCache{}
	handler := mw.NewRateLimit(mc, 60).Limit(okHandler())

	req := withSubject(httptest.NewRequest("GET", "/test", nil), "cg_test1")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "60", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "59", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	assert.Equal(t, []string{"ratelimit:cg_test1"}, mc.keys)
}

func TestRateLimit_RejectsOverLimit(t *testing.T) {
	mc := &mockCache{counter: 60}
	handler := mw.NewRateLimit(mc, 60).Limit(okHandler())

	req := withSubject(httptest.NewRequest("GET", "/test", nil), "cg_over1")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", errBody(t, w)["code"])
}

func TestRateLimit_FailsOpen(t *testing.T) {
	mc := &mockCache{counter: 1000, err: errors.New("redis down")}
	handler := mw.NewRateLimit(mc, 60).Limit(okHandler())

	req := withSubject(httptest.NewRequest("GET", "/test", nil), "cg_test1")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_NoSubject_PassThrough(t *testing.T) {
	mc := &mockCache{}
	handler := mw.NewRateLimit(mc, 60).Limit(okHandler())

	w := serve(handler, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, mc.keys)
}

func TestRateLimit_HeaderModeBucketsByToken(t *testing.T) {
	mc := &mockCache{}
	auth := mw.NewAuth(store.NewMemoryStore(), config.AuthModeHeader)
	handler := auth.Authenticate(mw.NewRateLimit(mc, 60).Limit(okHandler()))

	serve(handler, "Bearer tok_abcdefghijkl")

	require.Len(t, mc.keys, 1)
	assert.Equal(t, "ratelimit:hdr:tok_abcd", mc.keys[0])
}

// ========================================
// CORS Middleware Tests
// ========================================

func TestCORS_ListedOrigin(t *testing.T) {
	handler := mw.CORS([]string{"https://app.example.com"})(okHandler())

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_UnlistedOrigin(t *testing.T) {
	handler := mw.CORS([]string{"https://app.example.com"})(okHandler())

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_WildcardPreflight(t *testing.T) {
	handler := mw.CORS([]string{"*"})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/v1/generate/text", nil)
	req.Header.Set("Origin", "https://anywhere.example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

// ========================================
// Recovery Middleware Tests
// ========================================

func TestRecovery_CatchesPanic(t *testing.T) {
	panicking := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		panic("something went wrong")
	})

	w := serve(mw.Recovery(panicking), "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", errBody(t, w)["code"])
}

func TestRecovery_NoPanic(t *testing.T) {
	w := serve(mw.Recovery(okHandler()), "")

	assert.Equal(t, http.StatusOK, w.Code)
}

// ========================================
// Logging Middleware Tests
// ========================================

func TestLogger_SetsStatus(t *testing.T) {
	w := serve(mw.Logger(okHandler()), "")

	assert.Equal(t, http.StatusOK, w.Code)
}

// --- IssueAPIKey ---

func TestIssueAPIKey_AuthenticatesAgainstStore(t *testing.T) {
	key, raw, err := mw.IssueAPIKey("acme", "ci", []string{"generate"}, bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, mw.APIKeyPrefix))
	assert.Equal(t, raw[:8], key.KeyPrefix)
	assert.NotContains(t, key.KeyHash, raw)

	s := store.NewMemoryStore()
	require.NoError(t, s.CreateAPIKey(context.Background(), key))

	var tenant string
	h := mw.NewAuth(s, config.AuthModeAPIKey).Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant, _ = mw.GetTenantID(r)
		w.WriteHeader(http.StatusOK)
	}))
	w := serve(h, "Bearer "+raw)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "acme", tenant)
}

func TestIssueAPIKey_RequiresTenant(t *testing.T) {
	_, _, err := mw.IssueAPIKey("", "ci", nil, bcrypt.MinCost)
	assert.ErrorIs(t, err, mw.ErrTenantRequired)
}
