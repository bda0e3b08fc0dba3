package auth

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"sync"
	"time"
)

var (
	CookieName     = "hp-auth"
	cookieLifespan = 24 * time.Hour
)

// SessionStore holds active user sessions
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]SessionData
	now      func() time.Time
}

// SessionData contains user session information
type SessionData struct {
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// NewSessionStore creates an empty store
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]SessionData),
		now:      time.Now,
	}
}

// Global session store
var Sessions = NewSessionStore()

// GenerateToken creates a random token
func GenerateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// Create starts a session for the user and returns its token
func (s *SessionStore) Create(username string) (string, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sessions[token] = SessionData{
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(cookieLifespan),
	}
	return token, nil
}

// Validate returns the username of a live session, dropping it once expired
func (s *SessionStore) Validate(token string) (string, bool) {
	if token == "" {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[token]
	if !exists {
		return "", false
	}
	if s.now().After(session.ExpiresAt) {
		delete(s.sessions, token)
		return "", false
	}
	return session.Username, true
}

// Delete removes a session (logout)
func (s *SessionStore) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// CreateSession creates a new session for the user and returns a token
func CreateSession(username string) (string, error) {
	return Sessions.Create(username)
}

// ValidateSession checks if a token is valid and returns the username
func ValidateSession(token string) (string, bool) {
	return Sessions.Validate(token)
}

// DeleteSession removes a session (logout)
func DeleteSession(token string) {
	Sessions.Delete(token)
}

// SetCookie sets an HTTP cookie with the session token
func SetCookie(w http.ResponseWriter, token string) {
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(cookieLifespan),
	}
	http.SetCookie(w, cookie)
}

// GetTokenFromCookie extracts the session token from HTTP request cookies
func GetTokenFromCookie(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", false
	}
	return cookie.Value, true
}

// TokenFromCookieHeader finds the session token in a raw Cookie header
func TokenFromCookieHeader(header string) string {
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, CookieName+"=") {
			return strings.TrimPrefix(part, CookieName+"=")
		}
	}
	return ""
}

// ClearCookie removes the session cookie
func ClearCookie(w http.ResponseWriter) {
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Unix(0, 0), // Expired time
	}
	http.SetCookie(w, cookie)
}

// GetTokenFromHeader extracts the session token from Authorization header
func GetTokenFromHeader(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	return strings.TrimPrefix(authHeader, "Bearer "), true
}

// IsAuthenticated checks if the request has a valid session (cookie or header)
func IsAuthenticated(r *http.Request) (string, bool) {
	token, exists := GetTokenFromCookie(r)
	if !exists {
		token, exists = GetTokenFromHeader(r)
		if !exists {
			return "", false
		}
	}
	return ValidateSession(token)
}
