package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/survey-backend/internal/config"
	"github.com/stemsi/survey-backend/internal/response"
	"github.com/stemsi/survey-backend/internal/service"
)

const (
	// ContextKeyClaims is the Gin context key for JWT claims.
	ContextKeyClaims = "claims"

	// SurveyTokenCookie carries the respondent token for browser clients.
	SurveyTokenCookie = "survey_token"
)

// RequireAdminJWT validates an admin JWT from the Authorization header.
func RequireAdminJWT(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := extractAndValidateClaims(c, authService)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}

		if claims.TokenType != service.TokenTypeAdmin {
			response.AbortFail(c, http.StatusForbidden, response.ErrAdminAccessOnly)
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// RequireRespondentToken checks the survey token (cookie or bearer) issued at
// registration. The token subject must be the respondent in the :param path
// segment. Anything else sends the client back to registration.
func RequireRespondentToken(authService *service.AuthService, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			tokenStr, _ = c.Cookie(SurveyTokenCookie)
		}
		if tokenStr == "" {
			abortToRegistration(c, response.ErrTokenRequired)
			return
		}

		claims, err := authService.ValidateToken(tokenStr)
		if err != nil {
			abortToRegistration(c, response.ErrTokenInvalid)
			return
		}
		if claims.TokenType != service.TokenTypeRespondent {
			abortToRegistration(c, response.ErrRespondentOnly)
			return
		}
		if claims.Subject != c.Param(param) {
			abortToRegistration(c, response.ErrForbidden)
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// abortToRegistration answers 302 to the registration route. The envelope
// still carries the error so API clients can tell why.
func abortToRegistration(c *gin.Context, code response.ErrCode) {
	c.Header("Location", config.RoutePath.Registration())
	response.AbortFail(c, http.StatusFound, code)
}

// RequireAdminWSAuth validates an admin JWT from the query param ?token=...
// Used for WebSocket upgrade requests.
func RequireAdminWSAuth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.Query("token")
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		claims, err := authService.ValidateToken(tokenStr)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}

		if claims.TokenType != service.TokenTypeAdmin {
			response.AbortFail(c, http.StatusForbidden, response.ErrAdminAccessOnly)
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// GetClaims retrieves the JWT claims from the Gin context.
func GetClaims(c *gin.Context) *service.Claims {
	val, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	claims, ok := val.(*service.Claims)
	if !ok {
		return nil
	}
	return claims
}

// RespondentID returns the respondent id carried by the survey token.
func RespondentID(c *gin.Context) (int, bool) {
	claims := GetClaims(c)
	if claims == nil || claims.TokenType != service.TokenTypeRespondent {
		return 0, false
	}
	id, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return 0, false
	}
	return id, true
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func extractAndValidateClaims(c *gin.Context, authService *service.AuthService) (*service.Claims, error) {
	tokenStr := bearerToken(c)
	if tokenStr == "" {
		return nil, fmt.Errorf("authorization header required")
	}
	return authService.ValidateToken(tokenStr)
}
