package handlers

import (
	"errors"
	"net/http"

	"go-erp-agent/internal/ai"
	"go-erp-agent/internal/auth"
	"go-erp-agent/internal/config"
	"go-erp-agent/internal/middleware"
	"go-erp-agent/internal/services"
	"go-erp-agent/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers by area.
type Handlers struct {
	Auth    *AuthHandler
	Users   *UserHandler
	Orders  *OrderHandler
	Catalog *ProductHandler
	Stock   *StockHandler
	Reports *ReportHandler
	AI      *AIHandler
	System  *SystemHandler
}

// BuildInfo is reported by GET /version.
type BuildInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
}

func NewHandlers(svc *services.Services, sessions *auth.Manager, agent *ai.Agent, cfg *config.Config, log *zap.Logger, build BuildInfo) *Handlers {
	return &Handlers{
		Auth:    &AuthHandler{sessions: sessions, recheck: cfg.Auth.RecheckInterval, log: log},
		Users:   &UserHandler{users: svc.Users},
		Orders:  &OrderHandler{orders: svc.Orders},
		Catalog: &ProductHandler{catalog: svc.Catalog},
		Stock:   &StockHandler{stock: svc.Stock},
		Reports: &ReportHandler{reports: svc.Reports, audit: svc.Audit, log: log},
		AI:      &AIHandler{agent: agent, log: log},
		System:  newSystemHandler(cfg, build),
	}
}

// actor is the signed-in user as the services see it.
func actor(c *gin.Context) services.Actor {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return services.Actor{}
	}
	return services.Actor{UserID: p.User.ID, Name: p.User.Name, Role: p.User.Role}
}

// respondError maps service errors onto status codes.
func respondError(c *gin.Context, err error) {
	var stockErr *services.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{"error": stockErr.Error(), "available": stockErr.Available})
	case errors.Is(err, services.ErrIllegalTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, store.ErrConflict):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Too many concurrent updates, please retry"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}
