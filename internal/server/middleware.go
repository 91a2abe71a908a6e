package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/glowcart-dev/glowcart/internal/auth"
	"github.com/glowcart-dev/glowcart/internal/models"
	"github.com/glowcart-dev/glowcart/internal/session"
)

const (
	bearerPrefix = "Bearer "

	// TokenCookie carries the JWT for browser navigation so the web route
	// gates can classify the visitor without an Authorization header
	TokenCookie = "glowcart_token"
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
	ErrInvalidToken      = errors.New("invalid token")
	ErrUserNotFound      = errors.New("user not found")
)

func setSession(c *gin.Context, sessionData *auth.SessionData) {
	c.Set("session", sessionData)
}

func GetSessionData(c *gin.Context) (*auth.SessionData, bool) {
	sess, exists := c.Get("session")
	if !exists {
		return nil, false
	}

	sessionData, ok := sess.(*auth.SessionData)
	return sessionData, ok
}

func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
	c.Abort()
}

// JWTAuthMiddleware validates JWT tokens for both web and CLI
func JWTAuthMiddleware(db *gorm.DB, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Extract token from Authorization header
		authHeader := c.GetHeader("Authorization")
		token, err := extractBearerToken(authHeader)
		if err != nil {
			var message string
			switch err {
			case ErrMissingAuthHeader:
				message = "Missing authorization header"
			case ErrInvalidAuthFormat:
				message = "Invalid authorization header format"
			case ErrEmptyToken:
				message = "Empty token"
			}
			respondWithError(c, log, http.StatusUnauthorized, err, message)
			return
		}

		// Validate JWT token
		claims, err := auth.ValidateToken(token)
		if err != nil {
			log.Error().Err(err).Msg("Failed to validate JWT token")
			respondWithError(c, log, http.StatusUnauthorized, ErrInvalidToken, "Invalid or expired token")
			return
		}

		// Verify user exists in database
		var user models.User
		if err := db.Preload("Role").Where("id = ?", claims.UserID).First(&user).Error; err != nil {
			log.Error().Err(err).Str("user_id", claims.UserID).Msg("User not found")
			respondWithError(c, log, http.StatusUnauthorized, ErrUserNotFound, "User not found")
			return
		}

		// Set session data
		sessionData := &auth.SessionData{
			UserID:     user.ID,
			Email:      user.Email,
			Role:       user.Role.Name,
			AuthMethod: "jwt",
		}
		setSession(c, sessionData)

		c.Next()
	}
}

// StaffOnlyMiddleware ensures the authenticated user is staff tier
// (STAFF, MANAGER or ADMIN)
func StaffOnlyMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionData, exists := GetSessionData(c)
		if !exists {
			respondWithError(c, log, http.StatusUnauthorized, errors.New("no session"), "Unauthorized")
			return
		}

		if !models.IsStaffTier(sessionData.Role) {
			respondWithError(c, log, http.StatusForbidden, errors.New("not staff"), "Staff access required")
			return
		}

		c.Next()
	}
}

// sessionSource builds the gate.SourceFunc for web routes: the token comes
// from the session cookie (set at login) or the Authorization header, and
// an invalid or absent token classifies the visitor as guest. Tokens are
// validated fresh on every request; nothing is cached between navigations.
func (s *Server) sessionSource() func(c *gin.Context) session.Session {
	return func(c *gin.Context) session.Session {
		token, err := c.Cookie(TokenCookie)
		if err != nil || token == "" {
			token, err = extractBearerToken(c.GetHeader("Authorization"))
			if err != nil {
				return session.Guest()
			}
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			return session.Guest()
		}

		return session.Session{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   session.Role(claims.Role),
		}
	}
}
