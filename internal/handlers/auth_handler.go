package handlers

import (
	"net/http"
	"time"

	"go-erp-agent/internal/access"
	"go-erp-agent/internal/auth"
	"go-erp-agent/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	sessions *auth.Manager
	recheck  time.Duration
	log      *zap.Logger
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login answers with the token, the user, its menu and where to land.
func (h *AuthHandler) Login(c *gin.Context) {
	var input LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	res, err := h.sessions.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      res.Token,
		"expires_at": res.Session.ExpiresAt,
		"user":       res.User.View(),
		"menu":       access.Menu(res.User.Role),
		"home":       access.Home(res.User.Role),
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.Logout(c.Request.Context(), middleware.BearerToken(c)); err != nil {
		h.log.Warn("logout failed", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out", "redirect": access.PageLogin})
}

// Session describes the caller. recheck_after tells clients how often to
// call again so a role change reaches an open page.
func (h *AuthHandler) Session(c *gin.Context) {
	p, _ := middleware.CurrentPrincipal(c)
	c.JSON(http.StatusOK, gin.H{
		"user":          p.User.View(),
		"session":       p.Session,
		"menu":          access.Menu(p.User.Role),
		"home":          access.Home(p.User.Role),
		"recheck_after": int(h.recheck / time.Second),
	})
}

func (h *AuthHandler) Menu(c *gin.Context) {
	p, _ := middleware.CurrentPrincipal(c)
	c.JSON(http.StatusOK, access.Menu(p.User.Role))
}

// Access answers the gate decision for ?page= without opening it.
func (h *AuthHandler) Access(c *gin.Context) {
	page := c.Query("page")
	if page == "" {
		badRequest(c, "page is required")
		return
	}
	p, _ := middleware.CurrentPrincipal(c)
	decision := access.AuthorizePage(&p.Session, page)
	c.JSON(http.StatusOK, gin.H{
		"page":     page,
		"allowed":  decision == access.Allow,
		"decision": decision.String(),
		"redirect": decision.Redirect(),
	})
}
