package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocatalog/internal/domain"
	"gocatalog/internal/pkg/cache"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/pkg/metrics"
	"gocatalog/internal/pkg/middleware"
	"gocatalog/internal/pkg/token"
)

func newAuth(t *testing.T) (*middleware.Authenticator, *token.Service) {
	t.Helper()
	tokens := token.NewService("segredo-de-teste", time.Hour)
	return middleware.NewAuthenticator(tokens, logger.NewNop()), tokens
}

func callerEcho(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromContext(r.Context())
	w.Write([]byte(caller.UserID))
}

func TestRequire_MissingToken(t *testing.T) {
	auth, _ := newAuth(t)
	rec := httptest.NewRecorder()

	auth.Require(domain.RoleAdmin)(callerEcho)(rec, httptest.NewRequest(http.MethodPost, "/v1/brands", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequire_InvalidToken(t *testing.T) {
	auth, _ := newAuth(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/brands", nil)
	req.Header.Set("Authorization", "Bearer lixo")
	rec := httptest.NewRecorder()

	auth.Require(domain.RoleAdmin)(callerEcho)(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequire_WrongRole(t *testing.T) {
	auth, tokens := newAuth(t)
	raw, err := tokens.GenerateToken("u-1", string(domain.RoleUser))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/brands", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()

	auth.Require(domain.RoleAdmin)(callerEcho)(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequire_AdminPassesCallerAlong(t *testing.T) {
	auth, tokens := newAuth(t)
	raw, err := tokens.GenerateToken("admin-1", string(domain.RoleAdmin))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/brands", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()

	auth.Require(domain.RoleAdmin)(callerEcho)(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin-1", rec.Body.String())
}

func TestCallerOrAnonymous(t *testing.T) {
	caller := middleware.CallerOrAnonymous(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, domain.Anonymous, caller)
}

// fakeCache é um cache.Client em memória para o rate limiter.
type fakeCache struct {
	values map[string]int
	fail   bool
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	v, err := f.GetInt(ctx, key)
	return strconv.Itoa(v), err
}

func (f *fakeCache) GetInt(_ context.Context, key string) (int, error) {
	if f.fail {
		return 0, errors.New("redis fora")
	}
	v, ok := f.values[key]
	if !ok {
		return 0, cache.ErrCacheMiss
	}
	return v, nil
}

func (f *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	f.values[key] = value.(int)
	return nil
}

func (f *fakeCache) Incr(_ context.Context, key string) (int64, error) {
	f.values[key]++
	return int64(f.values[key]), nil
}

func (f *fakeCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	fc := &fakeCache{values: map[string]int{}}
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := middleware.RateLimiter(fc, 2, time.Minute, logger.NewNop())(ok)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/products", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	fc := &fakeCache{values: map[string]int{}, fail: true}
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	rec := httptest.NewRecorder()

	middleware.RateLimiter(fc, 1, time.Minute, logger.NewNop())(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestObserve_AssignsRequestIDAndRecordsRoute(t *testing.T) {
	m := metrics.New("obs")
	mux := http.NewServeMux()
	var seen string
	mux.HandleFunc("GET /v1/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})
	rec := httptest.NewRecorder()

	middleware.Observe(m, logger.NewNop())(mux).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/products/9", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	_, err := uuid.Parse(rec.Header().Get(middleware.RequestIDHeader))
	assert.NoError(t, err)
	assert.Equal(t, rec.Header().Get(middleware.RequestIDHeader), seen)
}
