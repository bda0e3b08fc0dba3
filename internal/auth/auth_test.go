package auth

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostpanel/internal/conf"
)

func useUsers(t *testing.T, users map[string]string) {
	t.Helper()
	prevPath, prevConf := conf.Path, conf.Read()
	t.Cleanup(func() {
		conf.Path, conf.Conf = prevPath, prevConf
	})

	require.NoError(t, conf.LoadConfig(filepath.Join(t.TempDir(), "config.toml")))
	next := conf.Default()
	next.Auth.Users = users
	require.NoError(t, conf.Write(next))
}

func TestSessionLifecycle(t *testing.T) {
	store := NewSessionStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	token, err := store.Create("admin")
	require.NoError(t, err)
	assert.Len(t, token, 64)

	user, ok := store.Validate(token)
	assert.True(t, ok)
	assert.Equal(t, "admin", user)

	_, ok = store.Validate("")
	assert.False(t, ok)

	now = now.Add(cookieLifespan + time.Second)
	_, ok = store.Validate(token)
	assert.False(t, ok)
	assert.Empty(t, store.sessions)
}

func TestSessionDelete(t *testing.T) {
	store := NewSessionStore()
	token, err := store.Create("admin")
	require.NoError(t, err)

	store.Delete(token)
	_, ok := store.Validate(token)
	assert.False(t, ok)
}

func TestTokenFromHandshake(t *testing.T) {
	header := "theme=dark; " + CookieName + "=abc123; other=1"

	assert.Equal(t, "abc123", TokenFromHandshake(map[string]any{"Cookie": []string{header}}))
	assert.Equal(t, "abc123", TokenFromHandshake(map[string]any{"Cookie": header}))
	assert.Empty(t, TokenFromHandshake(map[string]any{}))
	assert.Empty(t, TokenFromHandshake(map[string]any{"Cookie": []string{}}))
}

func TestRequireAuthOpenWithoutUsers(t *testing.T) {
	useUsers(t, nil)

	handler := RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestRequireAuthWithUsers(t *testing.T) {
	useUsers(t, map[string]string{"admin": "hash"})

	handler := RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, LoginPage, rec.Header().Get("Location"))

	token, err := CreateSession("admin")
	require.NoError(t, err)
	t.Cleanup(func() { DeleteSession(token) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	user, ok := IsAuthenticated(req)
	assert.True(t, ok)
	assert.Equal(t, "admin", user)
}

func TestNewUserAndVerifyPassword(t *testing.T) {
	useUsers(t, nil)

	assert.ErrorIs(t, NewUser("", "secret"), ErrEmptyCredentials)
	require.NoError(t, NewUser("admin", "secret"))

	assert.True(t, conf.AuthEnabled())
	assert.True(t, VerifyPassword("admin", "secret"))
	assert.False(t, VerifyPassword("admin", "wrong"))
	assert.False(t, VerifyPassword("nobody", "secret"))

	// the hash survives a reload from disk
	require.NoError(t, conf.Update())
	assert.True(t, VerifyPassword("admin", "secret"))
}
