package netx

import (
	"encoding/json"
	"net/http"
)

// AuthResponse represents authentication-related responses
type AuthResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Username string `json:"username,omitempty"`
	Token    string `json:"token,omitempty"`
}

// ErrorResponse is the body of every failed API call
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSON writes a JSON response with the specified status code
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes {"error": message} with the given status
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, ErrorResponse{Error: message})
}

// WriteAuthSuccess writes a successful authentication response
func WriteAuthSuccess(w http.ResponseWriter, message string, username string) error {
	return WriteAuthSuccessWithToken(w, message, username, "")
}

// WriteAuthSuccessWithToken writes a successful authentication response with token
func WriteAuthSuccessWithToken(w http.ResponseWriter, message string, username string, token string) error {
	return WriteJSON(w, http.StatusOK, AuthResponse{
		Success:  true,
		Message:  message,
		Username: username,
		Token:    token,
	})
}

// WriteAuthError writes an authentication error response
func WriteAuthError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, AuthResponse{
		Success: false,
		Message: message,
	})
}

// WriteMethodNotAllowed writes a method not allowed response
func WriteMethodNotAllowed(w http.ResponseWriter) error {
	return WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// WriteBadRequest writes a bad request response
func WriteBadRequest(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusBadRequest, message)
}

// WriteUnauthorized writes an unauthorized response
func WriteUnauthorized(w http.ResponseWriter, message string) error {
	return WriteAuthError(w, http.StatusUnauthorized, message)
}

// WriteInternalServerError writes a 500 without leaking the underlying error
func WriteInternalServerError(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusInternalServerError, message)
}
