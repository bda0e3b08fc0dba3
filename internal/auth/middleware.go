package auth

import (
	"net/http"

	"github.com/zishang520/socket.io/servers/socket/v3"

	"hostpanel/internal/conf"
)

// LoginPage is where unauthenticated page requests are sent
const LoginPage = "/pages/login.html"

// RequireAuth is a middleware that checks authentication for protected routes.
// With no users configured the panel is open.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !conf.AuthEnabled() {
			next(w, r)
			return
		}
		if _, authenticated := IsAuthenticated(r); !authenticated {
			http.Redirect(w, r, LoginPage, http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

// RequireAuthSocketIO is a middleware that checks authentication for protected Socket.IO endpoints
func RequireAuthSocketIO(client *socket.Socket, next func(*socket.ExtendedError)) {
	if !conf.AuthEnabled() {
		next(nil)
		return
	}
	if _, ok := ValidateSession(SocketToken(client)); ok {
		next(nil)
	} else {
		next(socket.NewExtendedError("Unauthorized", ""))
	}
}

// SocketToken returns the session token sent with the socket handshake
func SocketToken(client *socket.Socket) string {
	return TokenFromHandshake(client.Handshake().Headers)
}

// TokenFromHandshake reads the session cookie out of handshake headers
func TokenFromHandshake(headers map[string]any) string {
	switch cookie := headers["Cookie"].(type) {
	case []string:
		if len(cookie) > 0 {
			return TokenFromCookieHeader(cookie[0])
		}
	case string:
		return TokenFromCookieHeader(cookie)
	}
	return ""
}
