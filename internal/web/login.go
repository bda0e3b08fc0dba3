package web

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"hostpanel/internal/auth"
	"hostpanel/internal/conf"
	"hostpanel/internal/netx"
)

// LoginRequest represents the login request payload
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// StartLogin registers all login-related routes with the given mux
func StartLogin(mux *http.ServeMux, logger *zap.Logger) {
	mux.HandleFunc("/login", handleLogin(logger))
	mux.HandleFunc("/logout", handleLogout)
	mux.HandleFunc("/check-auth", handleCheckAuth)
}

// handleLogin processes login requests
func handleLogin(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			netx.WriteMethodNotAllowed(w)
			return
		}

		var loginReq LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
			netx.WriteBadRequest(w, "Invalid request format")
			return
		}

		if !auth.VerifyPassword(loginReq.Username, loginReq.Password) {
			logger.Warn("failed login", zap.String("username", loginReq.Username), zap.String("remote", r.RemoteAddr))
			netx.WriteUnauthorized(w, "Invalid username or password")
			return
		}

		token, err := auth.CreateSession(loginReq.Username)
		if err != nil {
			logger.Error("failed to create session", zap.Error(err))
			netx.WriteInternalServerError(w, "Failed to create session")
			return
		}

		auth.SetCookie(w, token)

		// cookie for the browser, token for script clients
		netx.WriteAuthSuccessWithToken(w, "Login successful", loginReq.Username, token)
	}
}

// handleLogout processes logout requests
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		netx.WriteMethodNotAllowed(w)
		return
	}

	if token, exists := auth.GetTokenFromCookie(r); exists {
		auth.DeleteSession(token)
	}
	auth.ClearCookie(w)

	netx.WriteAuthSuccess(w, "Logout successful", "")
}

// handleCheckAuth checks if the user is authenticated
func handleCheckAuth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		netx.WriteMethodNotAllowed(w)
		return
	}

	if !conf.AuthEnabled() {
		netx.WriteAuthSuccess(w, "Authentication disabled", "")
		return
	}

	username, authenticated := auth.IsAuthenticated(r)
	if !authenticated {
		netx.WriteUnauthorized(w, "Not authenticated")
		return
	}

	netx.WriteAuthSuccess(w, "Authenticated", username)
}
