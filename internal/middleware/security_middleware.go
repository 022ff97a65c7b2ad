package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go-erp-agent/internal/access"
	"go-erp-agent/internal/auth"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// BearerToken reads "Authorization: Bearer <token>", falling back to the
// token query parameter for download links.
func BearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	return c.Query("token")
}

// AuthMiddleware resolves the session on every request so a role change or
// deactivation applies to the very next call.
func AuthMiddleware(sessions *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization is required", "redirect": access.PageLogin})
			return
		}

		principal, err := sessions.Current(c.Request.Context(), token)
		if errors.Is(err, auth.ErrNoSession) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session", "redirect": access.PageLogin})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
			return
		}

		c.Set(principalKey, principal)
		c.Set("user_id", principal.User.ID)
		c.Set("role", string(principal.User.Role))
		c.Next()
	}
}

// CurrentPrincipal returns what AuthMiddleware stored for this request.
func CurrentPrincipal(c *gin.Context) (*auth.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*auth.Principal)
	return p, ok
}

// RequirePage only lets sessions whose role may open page through. Rejected
// requests never reach the handler.
func RequirePage(page string, delay time.Duration) gin.HandlerFunc {
	return RequirePageFunc(func(*gin.Context) string { return page }, delay)
}

// RequirePageFunc is RequirePage for routes whose page depends on the path,
// such as /dashboard/:role.
func RequirePageFunc(page func(*gin.Context) string, delay time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := CurrentPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization is required", "redirect": access.PageLogin})
			return
		}
		switch access.AuthorizePage(&p.Session, page(c)) {
		case access.Allow:
			c.Next()
		case access.RedirectLogin:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization is required", "redirect": access.PageLogin})
		default:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":          "You do not have permission to access this page",
				"redirect":       access.PageUnauthorized,
				"redirect_after": int(delay / time.Second),
			})
		}
	}
}
