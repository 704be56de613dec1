package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gatherly/gatherly/internal/app/models/dto"
	"github.com/gatherly/gatherly/internal/pkg/auth"
	"github.com/gin-gonic/gin"
)

const (
	// AuthCookieName carries the access token for browser clients.
	AuthCookieName = "auth_token"
	// ContextUserID is the gin context key holding the authenticated user id (int64).
	ContextUserID   = "userID"
	ContextUsername = "username"
)

// AuthMiddleware validates access tokens.
type AuthMiddleware struct {
	jwtService *auth.JWTService
}

func NewAuthMiddleware(jwtService *auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService}
}

// tokenFromRequest looks at the Authorization header, then the auth cookie, then the
// token query parameter used by websocket clients.
func tokenFromRequest(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		header = strings.Trim(header, "\"'")
		// raw JWTs are accepted for Swagger UI convenience
		if strings.Count(header, ".") == 2 && !strings.HasPrefix(header, "Bearer ") {
			return header
		}
		if token, err := auth.ExtractBearerToken(header); err == nil {
			return token
		}
	}
	if cookie, err := c.Cookie(AuthCookieName); err == nil && cookie != "" {
		return cookie
	}
	return c.Query("token")
}

func (m *AuthMiddleware) authenticate(c *gin.Context, tokenString string) error {
	claims, err := m.jwtService.ValidateToken(tokenString)
	if err != nil {
		return err
	}
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextUsername, claims.Username)
	return nil
}

// JWTAuth rejects requests without a valid access token.
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required").
				WithDetails("Authorization header missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		if err := m.authenticate(c, tokenString); err != nil {
			errorCode := dto.ErrorCodeInvalidToken
			details := "Invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				errorCode = dto.ErrorCodeExpiredToken
				details = "Token has expired"
			}
			errorDetail := dto.NewErrorDetail(errorCode, "Authentication failed").WithDetails(details)
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		c.Next()
	}
}

// OptionalAuth sets the user id when a valid token is present and otherwise lets the
// request through anonymously.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := tokenFromRequest(c); tokenString != "" {
			_ = m.authenticate(c, tokenString)
		}
		c.Next()
	}
}

// UserIDFromContext returns the authenticated user id, or 0 for anonymous requests.
func UserIDFromContext(c *gin.Context) int64 {
	if v, ok := c.Get(ContextUserID); ok {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}
