package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCreator struct {
	mu      sync.Mutex
	ensured []string
	err     error
}

func (m *mockCreator) EnsureCart(_ context.Context, cartID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.ensured = append(m.ensured, cartID)
	return nil
}

func newResolver(store *mockCreator) *Resolver {
	return &Resolver{Store: store, CookieName: "cart_id", TTL: 30 * 24 * time.Hour}
}

func TestResolverMintsTokenAndSetsCookie(t *testing.T) {
	store := &mockCreator{}
	var seen string
	h := newResolver(store).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CartID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))

	require.NotEmpty(t, seen)
	require.Len(t, store.ensured, 1)
	assert.Equal(t, seen, store.ensured[0])

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "cart_id", c.Name)
	assert.Equal(t, seen, c.Value)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, int((30 * 24 * time.Hour).Seconds()), c.MaxAge)
}

func TestResolverReusesExistingToken(t *testing.T) {
	store := &mockCreator{}
	var seen string
	h := newResolver(store).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CartID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.AddCookie(&http.Cookie{Name: "cart_id", Value: "existing-token"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "existing-token", seen)
	// the row is still ensured, covering a lost cart behind a live token
	assert.Equal(t, []string{"existing-token"}, store.ensured)
	assert.Empty(t, rec.Result().Cookies(), "existing token is not re-issued")
}

func TestResolverStorageFailureIsFatal(t *testing.T) {
	store := &mockCreator{err: errors.New("db down")}
	called := false
	h := newResolver(store).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, called)
}

func TestCartIDWithoutMiddleware(t *testing.T) {
	assert.Empty(t, CartID(context.Background()))
}
