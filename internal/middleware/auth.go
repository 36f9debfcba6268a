package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"logiflow/internal/access"
	"logiflow/internal/service"
	"logiflow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// SessionCookie carries the signed session token
const SessionCookie = "session"

const (
	principalKey = "principal"
	requesterKey = "requester"
)

// authService resolves session tokens; set via InitSessionAuth
var (
	authService   service.AuthService
	secureCookies bool
)

// InitSessionAuth sets the service used by RequireSession and RequirePermission.
// Production cookies are Secure and SameSite=None for the cross-origin frontend.
func InitSessionAuth(svc service.AuthService, production bool) {
	authService = svc
	secureCookies = production
}

func cookieMode() (http.SameSite, bool) {
	if secureCookies {
		return http.SameSiteNoneMode, true
	}
	return http.SameSiteLaxMode, false
}

// SetSessionCookie stores the session token as an HttpOnly cookie until expiresAt
func SetSessionCookie(c *gin.Context, token string, expiresAt time.Time) {
	sameSite, secure := cookieMode()
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	c.SetSameSite(sameSite)
	c.SetCookie(SessionCookie, token, maxAge, "/", "", secure, true)
}

// ClearSessionCookie removes the session cookie
func ClearSessionCookie(c *gin.Context) {
	sameSite, secure := cookieMode()
	c.SetSameSite(sameSite)
	c.SetCookie(SessionCookie, "", -1, "/", "", secure, true)
}

// SessionToken reads the token from the cookie, falling back to a Bearer header
func SessionToken(c *gin.Context) string {
	if token, err := c.Cookie(SessionCookie); err == nil && token != "" {
		return token
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// authenticate resolves the session once per request and stores the principal in the context
func authenticate(c *gin.Context) bool {
	if _, ok := c.Get(principalKey); ok {
		return true
	}
	if authService == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Session middleware not initialized"))
		return false
	}

	token := SessionToken(c)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authentication required"))
		return false
	}

	principal, err := authService.Authenticate(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrUnauthenticated) {
			ClearSessionCookie(c)
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Session is invalid or expired"))
			return false
		}
		log.Error().Err(err).Str("path", c.FullPath()).Msg("session lookup failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to verify session"))
		return false
	}

	c.Set(principalKey, *principal)
	c.Set(requesterKey, principal.Requester)
	return true
}

// RequireSession rejects requests without a live session
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c) {
			return
		}
		c.Next()
	}
}

// RequirePermission validates the session and checks that the requester holds every listed code.
// Admins always pass.
func RequirePermission(requiredPerms ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c) {
			return
		}

		r, _ := RequesterFrom(c)
		for _, required := range requiredPerms {
			if !r.Has(required) {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: missing permission '"+required+"'"))
				return
			}
		}

		c.Next()
	}
}

// RequesterFrom returns the requester stored by the session middleware
func RequesterFrom(c *gin.Context) (access.Requester, bool) {
	v, ok := c.Get(requesterKey)
	if !ok {
		return access.Requester{}, false
	}
	r, ok := v.(access.Requester)
	return r, ok
}

// PrincipalFrom returns the session principal stored by the session middleware
func PrincipalFrom(c *gin.Context) (service.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return service.Principal{}, false
	}
	p, ok := v.(service.Principal)
	return p, ok
}
