package auth

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/antibyte/lexana/pkg/logger"
)

// SessionResponse is the JSON answer of the session endpoints.
type SessionResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id,omitempty"`
	Token     string `json:"token,omitempty"`
	Message   string `json:"message,omitempty"`
}

// HandleCreateSession creates a new anonymous session and returns the
// session ID plus its signed token. The token is additionally set as a
// cookie so browser clients pick it up without extra wiring.
func HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Content-Type", "application/json")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != "POST" {
		logger.Warn(logger.AreaSession, "invalid method for session creation: %s", r.Method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	clientIP := getClientIP(r)
	sessionID := uuid.NewString()

	token, err := GenerateSessionToken(sessionID)
	if err != nil {
		logger.Error(logger.AreaSession, "session token generation failed: %v", err)
		respondWithError(w, "Session creation failed", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session_token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	response := SessionResponse{
		Success:   true,
		SessionID: sessionID,
		Token:     token,
		Message:   "Session created successfully",
	}

	logger.Info(logger.AreaSession, "new session created: %s for IP: %s", sessionID, clientIP)
	json.NewEncoder(w).Encode(response)
}

// HandleValidateSession reports whether the request carries a valid
// session token.
func HandleValidateSession(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	tokenString, err := ExtractTokenFromRequest(r)
	if err != nil {
		respondWithError(w, "No token found", http.StatusUnauthorized)
		return
	}

	claims, err := ValidateSessionToken(tokenString)
	if err != nil {
		logger.Warn(logger.AreaSession, "token validation failed: %v", err)
		respondWithError(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	json.NewEncoder(w).Encode(SessionResponse{
		Success:   true,
		SessionID: claims.SessionID,
		Message:   "Token is valid",
	})
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first (for load balancers/proxies)
	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded != "" {
		return forwarded
	}

	// Check X-Real-IP header
	realIP := r.Header.Get("X-Real-IP")
	if realIP != "" {
		return realIP
	}

	// Fall back to RemoteAddr
	return r.RemoteAddr
}

func respondWithError(w http.ResponseWriter, message string, statusCode int) {
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(SessionResponse{
		Success: false,
		Message: message,
	})
}
